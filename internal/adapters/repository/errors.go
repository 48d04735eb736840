package repository

import "errors"

// Sentinel kinds for repository errors.
var (
	ErrNotFound      = errors.New("not found")
	ErrInvalidLimit  = errors.New("invalid leaderboard limit")
	ErrUnknownScore  = errors.New("unknown score kind")
	ErrInvalidReport = errors.New("invalid report")
)
