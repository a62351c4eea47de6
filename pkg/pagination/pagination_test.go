package pagination

import (
	"net/http/httptest"
	"testing"
)

func TestNormalize(t *testing.T) {
	cases := []struct {
		name      string
		in        Params
		wantPage  int
		wantLimit int
	}{
		{"defaults", Params{}, 1, DefaultLimit},
		{"negative page", Params{Page: -3, Limit: 10}, 1, 10},
		{"over max limit", Params{Page: 2, Limit: 500}, 2, MaxLimit},
		{"valid", Params{Page: 4, Limit: 25}, 4, 25},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := tc.in.Normalize()
			if got.Page != tc.wantPage || got.Limit != tc.wantLimit {
				t.Fatalf("got page=%d limit=%d, want page=%d limit=%d", got.Page, got.Limit, tc.wantPage, tc.wantLimit)
			}
		})
	}
}

func TestOffset(t *testing.T) {
	if got := (Params{Page: 3, Limit: 20}).Offset(); got != 40 {
		t.Fatalf("expected offset 40, got %d", got)
	}
	if got := (Params{}).Offset(); got != 0 {
		t.Fatalf("expected offset 0 for defaults, got %d", got)
	}
}

func TestFromRequest(t *testing.T) {
	r := httptest.NewRequest("GET", "/products?page=2&limit=50", nil)
	params := FromRequest(r)
	if params.Page != 2 || params.Limit != 50 {
		t.Fatalf("unexpected params %+v", params)
	}

	r = httptest.NewRequest("GET", "/products?page=abc&limit=-1", nil)
	params = FromRequest(r)
	if params.Page != 1 || params.Limit != DefaultLimit {
		t.Fatalf("expected defaults for garbage input, got %+v", params)
	}
}

func TestBuild(t *testing.T) {
	page := Build(Params{Page: 2, Limit: 20}, 45)
	if page.TotalPages != 3 {
		t.Fatalf("expected 3 pages, got %d", page.TotalPages)
	}
	if page.TotalRows != 45 {
		t.Fatalf("expected 45 rows, got %d", page.TotalRows)
	}

	empty := Build(Params{}, 0)
	if empty.TotalPages != 1 {
		t.Fatalf("empty listing should still report one page, got %d", empty.TotalPages)
	}
}
