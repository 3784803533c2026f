package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestIs_MatchesByKind(t *testing.T) {
	err := NotFound("mentee not found")
	if !errors.Is(err, ErrNotFound) {
		t.Error("expected errors.Is to match ErrNotFound")
	}
	if errors.Is(err, ErrConflict) {
		t.Error("not-found error must not match ErrConflict")
	}

	wrapped := fmt.Errorf("issue: %w", err)
	if !errors.Is(wrapped, ErrNotFound) {
		t.Error("expected match through fmt.Errorf wrapping")
	}
}

func TestWrap_Unwraps(t *testing.T) {
	cause := errors.New("discord: 50013 missing permissions")
	err := External("role grant failed", cause)
	if !errors.Is(err, cause) {
		t.Error("expected cause to be reachable")
	}
	if KindOf(err) != KindExternal {
		t.Errorf("KindOf: got %v", KindOf(err))
	}
	if err.Error() != "role grant failed: discord: 50013 missing permissions" {
		t.Errorf("Error(): got %q", err.Error())
	}
}

func TestHTTPStatus(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{Validation("bad email"), http.StatusBadRequest},
		{Conflict("duplicate"), http.StatusBadRequest},
		{NotFound("missing"), http.StatusNotFound},
		{E(KindInProgress, "busy"), http.StatusConflict},
		{External("send", errors.New("x")), http.StatusBadGateway},
		{errors.New("plain"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			if got := HTTPStatus(tt.err); got != tt.want {
				t.Errorf("HTTPStatus = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestMessage(t *testing.T) {
	if got := Message(Conflict("already verified"), "x"); got != "already verified" {
		t.Errorf("got %q", got)
	}
	if got := Message(errors.New("boom"), "internal error"); got != "internal error" {
		t.Errorf("got %q", got)
	}
}
