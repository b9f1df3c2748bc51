package services

import (
	"errors"
	"fmt"
	"testing"
)

func TestWorkflowError_Kinds(t *testing.T) {
	cases := []struct {
		err  error
		kind ErrorKind
	}{
		{ErrAuthorization("no"), KindAuthorization},
		{ErrState("wrong state"), KindState},
		{ErrConflict("taken"), KindConflict},
		{ErrNotFound("gone"), KindNotFound},
		{ErrStorage("disk", errors.New("io")), KindStorage},
	}

	for _, tc := range cases {
		if got := KindOf(tc.err); got != tc.kind {
			t.Errorf("KindOf(%v) = %v, expected %v", tc.err, got, tc.kind)
		}
	}
}

func TestWorkflowError_Unwrap(t *testing.T) {
	cause := errors.New("connection reset")
	err := ErrStorage("failed to save", cause)

	if !errors.Is(err, cause) {
		t.Error("storage error should wrap its cause")
	}

	var we *WorkflowError
	if !errors.As(err, &we) {
		t.Fatal("errors.As should find the WorkflowError")
	}
	if we.Kind != KindStorage {
		t.Errorf("Kind = %v, expected storage", we.Kind)
	}
}

func TestWorkflowError_ThroughWrapping(t *testing.T) {
	inner := ErrState("not pending")
	wrapped := fmt.Errorf("decide: %w", inner)

	if !IsState(wrapped) {
		t.Error("kind should survive fmt.Errorf wrapping")
	}
	if IsConflict(wrapped) {
		t.Error("wrong kind should not match")
	}
}

func TestKindOf_PlainError(t *testing.T) {
	if got := KindOf(errors.New("plain")); got != 0 {
		t.Errorf("plain error KindOf = %v, expected 0", got)
	}
	if KindOf(nil) != 0 {
		t.Error("nil error should map to the zero kind")
	}
	if IsState(errors.New("plain")) || IsConflict(nil) {
		t.Error("kind predicates should reject foreign errors")
	}
}
