package sentinel

import "errors"

// Sentinel errors for storage facts. Stores return these (optionally wrapped)
// so services can translate them into domain errors:
//   - ErrNotFound: row or edge does not exist
//   - ErrAlreadyUsed: a uniqueness constraint rejected the insert
//   - ErrInvalidState: the row exists but not in the state the operation needs
//   - ErrClosed: the resource was torn down before the operation ran
//   - ErrUnavailable: backing service temporarily unavailable
var (
	ErrNotFound     = errors.New("not found")
	ErrAlreadyUsed  = errors.New("already used")
	ErrInvalidState = errors.New("invalid state")
	ErrClosed       = errors.New("closed")
	ErrUnavailable  = errors.New("unavailable")
)
