package schedule

import "context"

// CalendarRepository reads work calendars from the HR schema.
type CalendarRepository interface {
	GetByID(ctx context.Context, id string) (*Calendar, error)
}
