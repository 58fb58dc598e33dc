package email

import "errors"

var (
	ErrInvalidConfig   = errors.New("email: invalid transport config")
	ErrInvalidEnvelope = errors.New("email: invalid envelope")
	ErrSendFailed      = errors.New("email: failed to send")
)
