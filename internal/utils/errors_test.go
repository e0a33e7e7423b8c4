package utils

import (
	"errors"
	"fmt"
	"testing"
)

func TestKindOfClassifiesWrappedErrors(t *testing.T) {
	base := NewAppError("provider.get_costs", KindAuth, "credentials rejected", errors.New("401"))
	wrapped := fmt.Errorf("collect: %w", base)

	if KindOf(wrapped) != KindAuth {
		t.Fatalf("expected auth kind, got %s", KindOf(wrapped))
	}
	if !IsAuth(wrapped) {
		t.Fatalf("expected IsAuth to report true")
	}
	if IsRetryable(wrapped) {
		t.Fatalf("auth errors must not be retryable")
	}
}

func TestKindOfDefaultsToTransient(t *testing.T) {
	if KindOf(errors.New("connection reset")) != KindTransient {
		t.Fatalf("unclassified errors should default to transient")
	}
	if !IsRetryable(errors.New("timeout")) {
		t.Fatalf("unclassified errors should be retryable")
	}
}

func TestKindFromStatus(t *testing.T) {
	cases := map[int]ErrorKind{
		401: KindAuth,
		403: KindAuth,
		404: KindNotFound,
		400: KindInvalid,
		422: KindInvalid,
		429: KindTransient,
		500: KindTransient,
		503: KindTransient,
	}
	for code, want := range cases {
		if got := KindFromStatus(code); got != want {
			t.Fatalf("status %d: expected %s, got %s", code, want, got)
		}
	}
}

func TestKindFromMessage(t *testing.T) {
	cases := map[string]ErrorKind{
		"AuthorizationFailed: caller lacks permission": KindAuth,
		"The resource was not found":                   KindNotFound,
		"InvalidParameter: bad filter":                 KindInvalid,
		"throttled, slow down":                         KindTransient,
	}
	for msg, want := range cases {
		if got := KindFromMessage(msg); got != want {
			t.Fatalf("message %q: expected %s, got %s", msg, want, got)
		}
	}
}
