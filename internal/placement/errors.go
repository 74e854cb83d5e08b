package placement

import "errors"

var (
	ErrSessionNotFound  = errors.New("session not found")
	ErrSessionCompleted = errors.New("session already finalized")
	ErrSessionAbandoned = errors.New("session abandoned")
	ErrEmptyBatch       = errors.New("question source returned empty batch")
	ErrIndexOutOfRange  = errors.New("answer index outside current batch")
	ErrNoBranchMatched  = errors.New("no branch matches score")
	ErrBadBranchConfig  = errors.New("invalid branch config")
	ErrBadQuestion      = errors.New("question answer key does not match question type")
	ErrActiveSession    = errors.New("user already has an active session")
	ErrNoMasteryQuiz    = errors.New("no mastery quiz available for item")
)
