package types

import (
	"errors"
	"fmt"
)

// ErrNotFound is returned for operations against a nonexistent conversation,
// rule, or knowledge source. Compare with errors.Is.
var ErrNotFound = errors.New("not found")

// AuthorizationError is returned when a tenant-scoped mutation is attempted
// from outside the owning organization. Cross-tenant access must fail loudly,
// never silently no-op.
type AuthorizationError struct {
	OrganizationID string
	ResourceID     string
}

func (e *AuthorizationError) Error() string {
	return fmt.Sprintf("organization %s is not authorized for resource %s", e.OrganizationID, e.ResourceID)
}

// ContextAssemblyError means knowledge lookup or summarization failed while
// building a turn's context. The turn aborts; there is no fallback to the
// untruncated history.
type ContextAssemblyError struct {
	Stage string // "knowledge" or "summarize"
	Err   error
}

func (e *ContextAssemblyError) Error() string {
	return fmt.Sprintf("context assembly failed at %s: %v", e.Stage, e.Err)
}

func (e *ContextAssemblyError) Unwrap() error { return e.Err }

// CompletionError means the completion service failed or timed out. Not
// retried automatically; the user-facing message is not yet persisted at
// failure time so no rollback is needed.
type CompletionError struct {
	Err error
}

func (e *CompletionError) Error() string { return fmt.Sprintf("completion failed: %v", e.Err) }

func (e *CompletionError) Unwrap() error { return e.Err }
