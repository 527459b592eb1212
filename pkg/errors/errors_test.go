package errors

import (
	"fmt"
	"net/http"
	"testing"
)

func TestWrapPreservesCause(t *testing.T) {
	t.Parallel()

	cause := fmt.Errorf("boom")
	err := Wrap(CodeDependency, cause, "downstream failed")

	if err.Unwrap() != cause {
		t.Fatalf("expected cause to be preserved")
	}
	if err.Code() != CodeDependency {
		t.Fatalf("unexpected code %s", err.Code())
	}
	if err.Error() != "DEPENDENCY_ERROR: downstream failed" {
		t.Fatalf("unexpected error string %q", err.Error())
	}
}

func TestAsFindsTypedErrorInChain(t *testing.T) {
	t.Parallel()

	inner := New(CodeInsufficientBalance, "balance too low")
	wrapped := fmt.Errorf("settle: %w", inner)

	typed := As(wrapped)
	if typed == nil {
		t.Fatal("expected typed error")
	}
	if typed.Code() != CodeInsufficientBalance {
		t.Fatalf("unexpected code %s", typed.Code())
	}
}

func TestMetadataForDomainCodes(t *testing.T) {
	t.Parallel()

	cases := map[Code]int{
		CodeEmptyCart:           http.StatusBadRequest,
		CodeOutOfStock:          http.StatusConflict,
		CodeInsufficientBalance: http.StatusPaymentRequired,
		CodeInvalidAmount:       http.StatusBadRequest,
		Code("made-up"):         http.StatusInternalServerError,
	}
	for code, status := range cases {
		if got := MetadataFor(code).HTTPStatus; got != status {
			t.Fatalf("code %s: expected status %d, got %d", code, status, got)
		}
	}
}

func TestWithDetails(t *testing.T) {
	t.Parallel()

	err := New(CodeOutOfStock, "not enough stock").WithDetails(map[string]any{"item_id": "abc"})
	details, ok := err.Details().(map[string]any)
	if !ok || details["item_id"] != "abc" {
		t.Fatalf("unexpected details %+v", err.Details())
	}
}
