package employee

import "errors"

var (
	ErrNotFound             = errors.New("employee not found")
	ErrDeviceUserIDConflict = errors.New("device user id already assigned to another employee")
)
