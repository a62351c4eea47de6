package responses

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	pkgerrors "github.com/sanbenito/ferreteria-backend/pkg/errors"
	"github.com/sanbenito/ferreteria-backend/pkg/types"
)

func TestWriteSuccessEnvelope(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteSuccess(rec, map[string]string{"slug": "martillo"})

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var envelope struct {
		Data map[string]string `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if envelope.Data["slug"] != "martillo" {
		t.Fatalf("unexpected payload %+v", envelope)
	}
}

func TestWriteNotice(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteNotice(rec, "empty_cart", "your cart is empty")

	if rec.Code != http.StatusOK {
		t.Fatalf("notices are not errors, expected 200, got %d", rec.Code)
	}
	var envelope struct {
		Data types.Notice `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if envelope.Data.Status != "empty_cart" {
		t.Fatalf("unexpected notice %+v", envelope.Data)
	}
}

func TestWriteErrorUsesMetadata(t *testing.T) {
	rec := httptest.NewRecorder()
	err := pkgerrors.New(pkgerrors.CodeStateConflict, "cannot move order from completed to processing")
	WriteError(context.Background(), nil, rec, err)

	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", rec.Code)
	}
	var envelope types.ErrorEnvelope
	if jsonErr := json.Unmarshal(rec.Body.Bytes(), &envelope); jsonErr != nil {
		t.Fatalf("decode: %v", jsonErr)
	}
	if envelope.Error.Code != "STATE_CONFLICT" {
		t.Fatalf("unexpected code %q", envelope.Error.Code)
	}
	if envelope.Error.Message != "cannot move order from completed to processing" {
		t.Fatalf("unexpected message %q", envelope.Error.Message)
	}
}

func TestWriteErrorHidesInternalDetail(t *testing.T) {
	rec := httptest.NewRecorder()
	err := pkgerrors.Wrap(pkgerrors.CodeInternal, context.DeadlineExceeded, "loading products")
	WriteError(context.Background(), nil, rec, err)

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}
	var envelope types.ErrorEnvelope
	if jsonErr := json.Unmarshal(rec.Body.Bytes(), &envelope); jsonErr != nil {
		t.Fatalf("decode: %v", jsonErr)
	}
	if envelope.Error.Message != "internal server error" {
		t.Fatalf("internal messages must not leak, got %q", envelope.Error.Message)
	}
}
