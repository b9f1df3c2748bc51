package services

import "errors"

// ErrorKind classifies workflow failures so handlers can render them
// distinctly (403 vs 409 vs 404).
type ErrorKind int

const (
	// KindAuthorization: the actor lacks the required relationship
	// (not the owner, not an active collaborator).
	KindAuthorization ErrorKind = iota + 1
	// KindState: the entity is not in the required state for the requested
	// transition (already reviewed, not currently a member).
	KindState
	// KindConflict: a uniqueness or business-rule violation (duplicate join,
	// collaboration disabled).
	KindConflict
	// KindNotFound: the referenced entity does not exist.
	KindNotFound
	// KindStorage: a persistence failure; the whole transaction was rolled
	// back.
	KindStorage
)

// WorkflowError is the error type returned by the collaboration workflows.
type WorkflowError struct {
	Kind    ErrorKind
	Message string
	Err     error
}

func (e *WorkflowError) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *WorkflowError) Unwrap() error { return e.Err }

func ErrAuthorization(msg string) *WorkflowError {
	return &WorkflowError{Kind: KindAuthorization, Message: msg}
}

func ErrState(msg string) *WorkflowError {
	return &WorkflowError{Kind: KindState, Message: msg}
}

func ErrConflict(msg string) *WorkflowError {
	return &WorkflowError{Kind: KindConflict, Message: msg}
}

func ErrNotFound(msg string) *WorkflowError {
	return &WorkflowError{Kind: KindNotFound, Message: msg}
}

func ErrStorage(msg string, err error) *WorkflowError {
	return &WorkflowError{Kind: KindStorage, Message: msg, Err: err}
}

// KindOf returns the classification of err, or 0 for foreign errors.
func KindOf(err error) ErrorKind {
	var we *WorkflowError
	if errors.As(err, &we) {
		return we.Kind
	}
	return 0
}

func IsAuthorization(err error) bool { return KindOf(err) == KindAuthorization }
func IsState(err error) bool         { return KindOf(err) == KindState }
func IsConflict(err error) bool      { return KindOf(err) == KindConflict }
func IsNotFound(err error) bool      { return KindOf(err) == KindNotFound }
