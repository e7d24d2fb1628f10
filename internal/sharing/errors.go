package sharing

import "errors"

// Sentinels surfaced inside typed errors so callers can match with errors.Is.
var (
	ErrNotOwner        = errors.New("caller does not own the list")
	ErrGranteeNotFound = errors.New("no user matches the grantee identifier")
	ErrSelfShare       = errors.New("a list cannot be shared with its owner")
	ErrDuplicateShare  = errors.New("the list is already shared with this user")
)
