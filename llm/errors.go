package llm

import "fmt"

// NetworkError reports an unreachable host or a non-2xx response. Status is
// zero when the request never got a response.
type NetworkError struct {
	Op     string
	Status int
	Body   string
	Err    error
}

func (e *NetworkError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("%s: status %d: %s", e.Op, e.Status, e.Body)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// Retryable reports whether the failure is transient: no response at all,
// or a 5xx from the server.
func (e *NetworkError) Retryable() bool {
	return e.Status == 0 || e.Status >= 500
}

// ValidationError reports caller-supplied input that fails a contract check
// before any network call is made.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return "validation: " + e.Reason
}

// NotFoundError reports a missing collection or point.
type NotFoundError struct {
	Resource string
	Name     string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %q not found", e.Resource, e.Name)
}

// ConflictError reports an already-existing resource. Collection creation
// swallows it; other callers may surface it.
type ConflictError struct {
	Resource string
	Name     string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("%s %q already exists", e.Resource, e.Name)
}

// EmbeddingError reports an embedding service contract violation: bad
// response shape, wrong dimensionality, or non-finite values. Index is the
// offending vector's position, or -1 when the whole call failed.
type EmbeddingError struct {
	Reason string
	Index  int
	Err    error
}

func (e *EmbeddingError) Error() string {
	if e.Index >= 0 {
		return fmt.Sprintf("embedding: vector %d: %s", e.Index, e.Reason)
	}
	return "embedding: " + e.Reason
}

func (e *EmbeddingError) Unwrap() error { return e.Err }
