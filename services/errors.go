package services

import "fmt"

// QuotaExceededError rejects a creation before any write happens. Fixable by
// the owner upgrading their plan.
type QuotaExceededError struct {
	Resource string
	Current  int
	Limit    *int
}

func (e *QuotaExceededError) Error() string {
	if e.Limit != nil {
		return fmt.Sprintf("%s quota exceeded (%d of %d used)", e.Resource, e.Current, *e.Limit)
	}
	return fmt.Sprintf("%s quota exceeded", e.Resource)
}

// DraftValidationError marks a structurally invalid menu draft.
type DraftValidationError struct {
	Field string
	Msg   string
}

func (e *DraftValidationError) Error() string {
	return fmt.Sprintf("invalid draft: %s %s", e.Field, e.Msg)
}

// PublishFailedError means the restaurant row itself could not be written,
// including the case where the slug retry budget ran out.
type PublishFailedError struct {
	Reason string
	Err    error
}

func (e *PublishFailedError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("publish failed: %s: %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("publish failed: %s", e.Reason)
}

func (e *PublishFailedError) Unwrap() error { return e.Err }
