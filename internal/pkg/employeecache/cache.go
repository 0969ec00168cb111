package employeecache

import (
	"context"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/annam-hrm/attendance-ingest-go/internal/domain/employee"
)

const (
	defaultSize = 4096
	defaultTTL  = 5 * time.Minute
)

// Directory wraps an employee.Directory with an expirable LRU keyed by
// device user id. Devices push the same handful of user ids thousands of
// times per day, so lookups are served from memory between TTL windows.
// Negative results are not cached: an unknown id may become known the
// moment an operator assigns it.
type Directory struct {
	inner employee.Directory
	cache *expirable.LRU[string, *employee.Employee]
}

func New(inner employee.Directory) *Directory {
	return &Directory{
		inner: inner,
		cache: expirable.NewLRU[string, *employee.Employee](defaultSize, nil, defaultTTL),
	}
}

func (d *Directory) LookupByDeviceUser(ctx context.Context, deviceUserID string) (*employee.Employee, error) {
	if emp, ok := d.cache.Get(deviceUserID); ok {
		return emp, nil
	}
	emp, err := d.inner.LookupByDeviceUser(ctx, deviceUserID)
	if err != nil {
		return nil, err
	}
	d.cache.Add(deviceUserID, emp)
	return emp, nil
}

func (d *Directory) GetByID(ctx context.Context, id string) (*employee.Employee, error) {
	return d.inner.GetByID(ctx, id)
}

// UpdateDeviceUserID writes through to the underlying directory and drops
// any cached entry for the new id so the next punch sees the assignment.
func (d *Directory) UpdateDeviceUserID(ctx context.Context, employeeID, deviceUserID string) error {
	if err := d.inner.UpdateDeviceUserID(ctx, employeeID, deviceUserID); err != nil {
		return err
	}
	d.cache.Remove(deviceUserID)
	return nil
}
