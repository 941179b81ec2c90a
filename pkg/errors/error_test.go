package errors_test

import (
	"fmt"
	"strings"
	"testing"

	"agentcell/pkg/errors"
)

func TestWrapPreservesCause(t *testing.T) {
	cause := fmt.Errorf("disk full")
	err := errors.Wrapf(cause, errors.FileWriteFailed, "write /x failed: %v", cause)
	if errors.GetCode(err) != errors.FileWriteFailed {
		t.Fatalf("expected FileWriteFailed, got %d", errors.GetCode(err))
	}
	if unwrapped := err.Unwrap(); unwrapped != cause {
		t.Fatalf("expected cause preserved, got %v", unwrapped)
	}
}

func TestGetCodeForPlainError(t *testing.T) {
	if code := errors.GetCode(fmt.Errorf("boom")); code != errors.InternalServerError {
		t.Fatalf("expected InternalServerError for plain error, got %d", code)
	}
}

func TestEscapeError(t *testing.T) {
	err := errors.EscapeError("/../etc/passwd")
	if errors.GetCode(err) != errors.PathEscape {
		t.Fatalf("expected PathEscape, got %d", errors.GetCode(err))
	}
	if !strings.Contains(err.Error(), "Access Denied") {
		t.Fatalf("expected access denied message, got %q", err.Error())
	}
	if errors.PathEscape.HTTPStatus() != 403 {
		t.Fatalf("expected 403 mapping, got %d", errors.PathEscape.HTTPStatus())
	}
}

func TestIsMatchesCode(t *testing.T) {
	err := errors.New(errors.PluginNotFound)
	if !errors.Is(err, errors.PluginNotFound) {
		t.Fatal("expected Is to match code")
	}
	if errors.Is(err, errors.NotFound) {
		t.Fatal("expected Is to reject other codes")
	}
}
