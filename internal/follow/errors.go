package follow

import (
	"fmt"

	dErrors "bridges/pkg/domain-errors"
)

// ConflictError reports that an edge already exists for the ordered pair and
// carries its current status, so callers can tell "already following" from
// "request pending".
type ConflictError struct {
	Status Status
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("follow edge already exists with status %s", e.Status)
}

// Unwrap exposes the coded domain error for transport mapping.
func (e *ConflictError) Unwrap() error {
	return dErrors.New(dErrors.CodeConflict, e.Error())
}

// ErrorDetails adds the edge status to the HTTP error envelope.
func (e *ConflictError) ErrorDetails() map[string]any {
	return map[string]any{"status": e.Status}
}
