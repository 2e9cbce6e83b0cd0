package apperrors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestInsufficientStockMessage(t *testing.T) {
	err := InsufficientStock("Coca-Cola 500ml", 2, 5)

	want := "Insufficient stock for Coca-Cola 500ml. Available: 2, Requested: 5"
	if err.Error() != want {
		t.Errorf("message = %q, want %q", err.Error(), want)
	}
	if err.Code() != CodeInsufficientStock {
		t.Errorf("code = %v", err.Code())
	}
	if err.HTTPStatus() != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", err.HTTPStatus())
	}
}

func TestWrapPreservesCauseAndMessage(t *testing.T) {
	cause := errors.New("connection refused")
	err := Wrap(CodeStorage, "failed to store PDF", cause)

	if !errors.Is(err, cause) {
		t.Error("wrapped cause lost from chain")
	}
	if err.Message() != "failed to store PDF" {
		t.Errorf("message = %q", err.Message())
	}
	if err.Error() != "failed to store PDF: connection refused" {
		t.Errorf("error = %q", err.Error())
	}
}

func TestHasCodeThroughWrapping(t *testing.T) {
	inner := New(CodeNotFound, "Sale not found")
	outer := fmt.Errorf("loading sale: %w", inner)

	if !HasCode(outer, CodeNotFound) {
		t.Error("code lost through fmt.Errorf wrapping")
	}
	if HasCode(outer, CodeValidation) {
		t.Error("wrong code matched")
	}
	if HasCode(errors.New("plain"), CodeNotFound) {
		t.Error("plain error should carry no code")
	}
}
