package auction

import "errors"

// Errors returned by engine operations. Every failure is detected before
// any state is written; callers can discriminate with errors.Is.
var (
	// ErrNotFound means the named player or team does not exist.
	ErrNotFound = errors.New("not found")
	// ErrInvalidState means the operation is not allowed for the current
	// player or auction status.
	ErrInvalidState = errors.New("invalid state")
	// ErrBudgetExceeded means the bid is above the team's maximum allowed.
	ErrBudgetExceeded = errors.New("bid exceeds maximum allowed")
	// ErrRosterFull means the team has no squad slot left.
	ErrRosterFull = errors.New("team roster is full")
	// ErrConflict means a concurrent writer changed the row first; the
	// caller may retry after re-reading.
	ErrConflict = errors.New("conflicting concurrent update")
	// ErrResetToken means a reset was attempted without the configured
	// confirmation token.
	ErrResetToken = errors.New("incorrect reset confirmation token")
)
