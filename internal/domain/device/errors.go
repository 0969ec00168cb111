package device

import "errors"

var (
	ErrNotFound             = errors.New("device not found")
	ErrCommandNotFound      = errors.New("device command not found")
	ErrUnknownPunchNotFound = errors.New("unknown punch not found")
	ErrAlreadyProcessed     = errors.New("unknown punch already processed")
)
