package postgresql

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/annam-hrm/attendance-ingest-go/internal/domain/schedule"
	"github.com/annam-hrm/attendance-ingest-go/internal/pkg/database"
)

type WorkCalendarRepository struct {
	db *database.DB
}

func NewWorkCalendarRepository(db *database.DB) *WorkCalendarRepository {
	return &WorkCalendarRepository{db: db}
}

func (r *WorkCalendarRepository) GetByID(ctx context.Context, id string) (*schedule.Calendar, error) {
	q := GetQuerier(ctx, r.db)

	var cal schedule.Calendar
	err := q.QueryRow(ctx, `SELECT id, name FROM work_calendars WHERE id = $1`, id).Scan(&cal.ID, &cal.Name)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, schedule.ErrCalendarNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get work calendar: %w", err)
	}

	rows, err := q.Query(ctx, `
		SELECT day_of_week, start_minutes, end_minutes
		FROM work_calendar_times
		WHERE calendar_id = $1
		ORDER BY day_of_week, start_minutes`, id)
	if err != nil {
		return nil, fmt.Errorf("list work calendar times: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var ct schedule.CalendarTime
		if err := rows.Scan(&ct.DayOfWeek, &ct.StartMinutes, &ct.EndMinutes); err != nil {
			return nil, fmt.Errorf("scan work calendar time: %w", err)
		}
		cal.Times = append(cal.Times, ct)
	}
	return &cal, rows.Err()
}
