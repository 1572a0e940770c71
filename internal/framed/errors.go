package framed

import "errors"

var (
	ErrUnknownMessage = errors.New("framed: unregistered message id")
	ErrLengthMismatch = errors.New("framed: message length mismatch")
	ErrPartialMessage = errors.New("framed: truncated message payload")
)
