package session

import "errors"

var (
	ErrAlreadyAttached = errors.New("session: already attached")
	ErrClosed          = errors.New("session: closed")
)
