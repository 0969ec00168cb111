package employee

import "context"

// Directory resolves device user ids to employees. The employee master
// data is owned by the HR system; this service only reads it, except for
// the device user id mapping which operators may correct.
type Directory interface {
	LookupByDeviceUser(ctx context.Context, deviceUserID string) (*Employee, error)
	GetByID(ctx context.Context, id string) (*Employee, error)
	UpdateDeviceUserID(ctx context.Context, employeeID, deviceUserID string) error
}
