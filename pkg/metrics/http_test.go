package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestHTTPMetricsExportsCountersAndHistogram(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := NewHTTPMetrics(reg)

	metrics.ObserveRequest("GET", "/products", "200", 120*time.Millisecond)
	metrics.ObserveRequest("GET", "/products", "200", 80*time.Millisecond)
	metrics.ObserveRequest("POST", "/checkout", "500", 40*time.Millisecond)
	metrics.IncCheckout("created")
	metrics.IncCheckout("empty_cart")
	metrics.IncCheckout("created")

	if got := testutil.ToFloat64(metrics.requests.WithLabelValues("GET", "/products", "200")); got != 2 {
		t.Fatalf("expected 2 GET /products requests, got %f", got)
	}
	if got := testutil.ToFloat64(metrics.requests.WithLabelValues("POST", "/checkout", "500")); got != 1 {
		t.Fatalf("expected 1 POST /checkout request, got %f", got)
	}
	if got := testutil.ToFloat64(metrics.checkout.WithLabelValues("created")); got != 2 {
		t.Fatalf("expected 2 created checkouts, got %f", got)
	}

	count := testutil.CollectAndCount(metrics.duration, "http_request_duration_seconds")
	if count != 2 {
		t.Fatalf("expected 2 histogram series, got %d", count)
	}
}

func TestHTTPMetricsNilSafe(t *testing.T) {
	var metrics *HTTPMetrics
	metrics.ObserveRequest("GET", "/", "200", time.Millisecond)
	metrics.IncCheckout("created")

	empty := NewHTTPMetrics(nil)
	empty.ObserveRequest("", "", "", 0)
	empty.IncCheckout("")
}
