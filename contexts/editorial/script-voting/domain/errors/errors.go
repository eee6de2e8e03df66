package errors

import "errors"

var (
	ErrInvalidVoteInput   = errors.New("invalid vote input")
	ErrInvalidScriptInput = errors.New("invalid script input")
	ErrScriptNotFound     = errors.New("script not found")
	ErrScriptNotVoting    = errors.New("script is not open for voting")
	ErrSelfVoteForbidden  = errors.New("voting on your own script is forbidden")
	ErrPeriodNotFound     = errors.New("voting period not found")
	ErrPeriodProcessed    = errors.New("voting period is already processed")
	ErrConflict           = errors.New("script voting conflict")
)
