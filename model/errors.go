package model

import "errors"

var (
	ErrInvalidTransition = errors.New("event not allowed in current phase")
	ErrOutOfRangeChoice  = errors.New("choice index out of range")
	ErrStaleChoice       = errors.New("choice belongs to another question")
	ErrUnknownAction     = errors.New("unknown action identifier")
	ErrUnknownItem       = errors.New("item not in recommendations")
	ErrInvalidSurvey     = errors.New("invalid survey")
)
