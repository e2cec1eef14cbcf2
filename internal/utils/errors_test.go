package utils

import (
	"errors"
	"testing"
)

func TestAppErrorMessage(t *testing.T) {
	err := NewAppError("agent.request", "provider returned 502", errors.New("bad gateway"))
	want := "agent.request: provider returned 502: bad gateway"
	if err.Error() != want {
		t.Fatalf("Error() = %q, want %q", err.Error(), want)
	}

	bare := NewAppError("store.put", "record rejected", nil)
	if bare.Error() != "store.put: record rejected" {
		t.Fatalf("Error() = %q, want op and message only", bare.Error())
	}
}

func TestAppErrorUnwrap(t *testing.T) {
	cause := errors.New("connection refused")
	err := NewAppError("agent.request", "provider unreachable", cause)
	if !errors.Is(err, cause) {
		t.Fatalf("errors.Is should reach the wrapped cause")
	}

	var appErr *AppError
	if !errors.As(err, &appErr) {
		t.Fatalf("errors.As should match *AppError")
	}
	if appErr.Op != "agent.request" {
		t.Fatalf("Op = %q, want agent.request", appErr.Op)
	}
}
