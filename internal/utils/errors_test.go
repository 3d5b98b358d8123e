package utils

import (
	"errors"
	"fmt"
	"testing"
)

func TestAppErrorMessage(t *testing.T) {
	err := NewAppError("insights.StartQuery", "submit query", errors.New("connection refused"))
	want := "insights.StartQuery: submit query: connection refused"
	if err.Error() != want {
		t.Fatalf("expected %q, got %q", want, err.Error())
	}

	bare := NewAppError("insights.StartQuery", "missing query id in response", nil)
	if bare.Error() != "insights.StartQuery: missing query id in response" {
		t.Fatalf("unexpected message: %q", bare.Error())
	}
}

func TestErrorHasMsg(t *testing.T) {
	err := NewAppError("insights.StartQuery", "MalformedQueryException", errors.New("bad syntax"))

	if !ErrorHasMsg(err, "MalformedQueryException") {
		t.Fatal("expected match on AppError msg")
	}
	if ErrorHasMsg(err, "AccessDenied") {
		t.Fatal("unexpected match on different msg")
	}

	wrapped := fmt.Errorf("query window failed: %w", err)
	if !ErrorHasMsg(wrapped, "MalformedQueryException") {
		t.Fatal("expected match through wrapping")
	}

	if ErrorHasMsg(errors.New("plain"), "MalformedQueryException") {
		t.Fatal("unexpected match on non-AppError")
	}
}
