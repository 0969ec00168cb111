package attendance

import "errors"

var (
	ErrNotFound         = errors.New("attendance record not found")
	ErrUnknownPunchUser = errors.New("device user id has no employee mapping")
)
