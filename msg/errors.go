package msg

import "errors"

var (
	ErrMarker = errors.New("msg: marker not found")
	ErrLength = errors.New("msg: invalid length")
	ErrShort  = errors.New("msg: too short")
	ErrVersion = errors.New("msg: invalid version")
)
