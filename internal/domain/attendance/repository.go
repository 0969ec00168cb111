package attendance

import (
	"context"
	"time"
)

// Repository persists canonical attendance records.
type Repository interface {
	// FindWithinForUpdate returns the employee's record whose check-in
	// falls inside [fromUTC, toUTC] (inclusive), locking the row for the
	// duration of the surrounding transaction. Returns ErrNotFound when
	// no record exists in the window.
	FindWithinForUpdate(ctx context.Context, employeeID string, fromUTC, toUTC time.Time) (*Attendance, error)
	Create(ctx context.Context, att *Attendance) error
	Update(ctx context.Context, att *Attendance) error
	GetByID(ctx context.Context, id string) (*Attendance, error)
	List(ctx context.Context, filter ListFilter) ([]*Attendance, error)
	SetDischargeShift(ctx context.Context, id string, discharge bool) error
}
