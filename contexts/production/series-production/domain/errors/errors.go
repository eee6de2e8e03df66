package errors

import "errors"

var (
	ErrInvalidEnqueueInput  = errors.New("series enqueue input is invalid")
	ErrInvalidClipVoteInput = errors.New("clip vote input is invalid")
	ErrSeriesNotFound       = errors.New("series not found")
	ErrEpisodeNotFound      = errors.New("episode not found")
	ErrVariantNotFound      = errors.New("clip variant not found")
	ErrJobNotFound          = errors.New("production job not found")
	// ErrEpisodeNotVoting rejects clip votes outside an open clip window.
	ErrEpisodeNotVoting = errors.New("episode is not accepting clip votes")
	// ErrConflict surfaces unique violations and lost conditional claims.
	ErrConflict = errors.New("production state conflict")
)
