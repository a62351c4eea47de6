package errors

import (
	stdErrors "errors"
	"fmt"
	"net/http"
	"testing"
)

func TestMetadataForKnownAndUnknown(t *testing.T) {
	if MetadataFor(CodeValidation).HTTPStatus != http.StatusBadRequest {
		t.Fatal("validation should map to 400")
	}
	if MetadataFor(CodeStateConflict).HTTPStatus != http.StatusUnprocessableEntity {
		t.Fatal("state conflict should map to 422")
	}
	if MetadataFor(Code("BOGUS")).HTTPStatus != http.StatusInternalServerError {
		t.Fatal("unknown codes should fall back to internal")
	}
}

func TestWrapPreservesCause(t *testing.T) {
	cause := stdErrors.New("db down")
	err := Wrap(CodeDependency, cause, "loading rates")
	if !stdErrors.Is(err, cause) {
		t.Fatal("wrapped error should unwrap to cause")
	}
	if typed := As(fmt.Errorf("outer: %w", err)); typed == nil || typed.Code() != CodeDependency {
		t.Fatal("As should find the typed error through wrapping")
	}
}

func TestWrapNilCause(t *testing.T) {
	err := Wrap(CodeValidation, nil, "empty quantity")
	if err.Unwrap() != nil {
		t.Fatal("nil cause should stay nil")
	}
	if err.Code() != CodeValidation {
		t.Fatalf("unexpected code %s", err.Code())
	}
}

func TestDumpBuildsChain(t *testing.T) {
	err := Wrap(CodeInternal, stdErrors.New("root"), "wrapped")
	d := Dump(err)
	if d.Code != CodeInternal {
		t.Fatalf("unexpected code %s", d.Code)
	}
	if len(d.Chain) != 2 {
		t.Fatalf("expected chain of 2, got %d", len(d.Chain))
	}
}

func TestDetails(t *testing.T) {
	err := New(CodeValidation, "bad quantity").WithDetails(map[string]string{"quantity": "must be positive"})
	details, ok := err.Details().(map[string]string)
	if !ok || details["quantity"] != "must be positive" {
		t.Fatalf("unexpected details %v", err.Details())
	}
}
