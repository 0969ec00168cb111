package postgresql

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/annam-hrm/attendance-ingest-go/internal/domain/attendance"
	"github.com/annam-hrm/attendance-ingest-go/internal/pkg/database"
)

type AttendanceRepository struct {
	db *database.DB
}

func NewAttendanceRepository(db *database.DB) *AttendanceRepository {
	return &AttendanceRepository{db: db}
}

const attendanceColumns = `
	id, employee_id, check_in_utc, check_out_utc, device_serial, raw_data,
	overtime_early, overtime_regular, overtime_evening, overtime_night,
	overtime_holiday, overtime_total, late_minutes, early_minutes,
	is_late, is_early, scheduled_check_in_utc, scheduled_check_out_utc,
	is_discharge_shift, created_at, updated_at`

func (r *AttendanceRepository) FindWithinForUpdate(ctx context.Context, employeeID string, fromUTC, toUTC time.Time) (*attendance.Attendance, error) {
	query := `
		SELECT` + attendanceColumns + `
		FROM attendances
		WHERE employee_id = $1 AND check_in_utc >= $2 AND check_in_utc <= $3
		ORDER BY check_in_utc
		LIMIT 1
		FOR UPDATE`

	row := GetQuerier(ctx, r.db).QueryRow(ctx, query, employeeID, fromUTC, toUTC)
	return scanAttendance(row)
}

func (r *AttendanceRepository) Create(ctx context.Context, att *attendance.Attendance) error {
	rawData, err := json.Marshal(att.RawData)
	if err != nil {
		return fmt.Errorf("marshal raw data: %w", err)
	}

	query := `
		INSERT INTO attendances (
			id, employee_id, check_in_utc, check_out_utc, device_serial, raw_data,
			overtime_early, overtime_regular, overtime_evening, overtime_night,
			overtime_holiday, overtime_total, late_minutes, early_minutes,
			is_late, is_early, scheduled_check_in_utc, scheduled_check_out_utc,
			is_discharge_shift, created_at, updated_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10,
			$11, $12, $13, $14, $15, $16, $17, $18, $19, NOW(), NOW()
		)`

	_, err = GetQuerier(ctx, r.db).Exec(ctx, query,
		att.ID, att.EmployeeID, att.CheckInUTC, att.CheckOutUTC, att.DeviceSerial, rawData,
		att.OvertimeEarly, att.OvertimeRegular, att.OvertimeEvening, att.OvertimeNight,
		att.OvertimeHoliday, att.OvertimeTotal, att.LateMinutes, att.EarlyMinutes,
		att.IsLate, att.IsEarly, att.ScheduledCheckInUTC, att.ScheduledCheckOutUTC,
		att.IsDischargeShift,
	)
	if err != nil {
		return fmt.Errorf("insert attendance: %w", err)
	}
	return nil
}

func (r *AttendanceRepository) Update(ctx context.Context, att *attendance.Attendance) error {
	rawData, err := json.Marshal(att.RawData)
	if err != nil {
		return fmt.Errorf("marshal raw data: %w", err)
	}

	query := `
		UPDATE attendances SET
			check_in_utc = $2, check_out_utc = $3, device_serial = $4, raw_data = $5,
			overtime_early = $6, overtime_regular = $7, overtime_evening = $8,
			overtime_night = $9, overtime_holiday = $10, overtime_total = $11,
			late_minutes = $12, early_minutes = $13, is_late = $14, is_early = $15,
			scheduled_check_in_utc = $16, scheduled_check_out_utc = $17,
			is_discharge_shift = $18, updated_at = NOW()
		WHERE id = $1`

	tag, err := GetQuerier(ctx, r.db).Exec(ctx, query,
		att.ID, att.CheckInUTC, att.CheckOutUTC, att.DeviceSerial, rawData,
		att.OvertimeEarly, att.OvertimeRegular, att.OvertimeEvening,
		att.OvertimeNight, att.OvertimeHoliday, att.OvertimeTotal,
		att.LateMinutes, att.EarlyMinutes, att.IsLate, att.IsEarly,
		att.ScheduledCheckInUTC, att.ScheduledCheckOutUTC, att.IsDischargeShift,
	)
	if err != nil {
		return fmt.Errorf("update attendance: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return attendance.ErrNotFound
	}
	return nil
}

func (r *AttendanceRepository) GetByID(ctx context.Context, id string) (*attendance.Attendance, error) {
	query := `SELECT` + attendanceColumns + ` FROM attendances WHERE id = $1`
	row := GetQuerier(ctx, r.db).QueryRow(ctx, query, id)
	return scanAttendance(row)
}

func (r *AttendanceRepository) List(ctx context.Context, filter attendance.ListFilter) ([]*attendance.Attendance, error) {
	query := `SELECT` + attendanceColumns + ` FROM attendances WHERE 1=1`
	args := []interface{}{}
	idx := 1

	if filter.EmployeeID != "" {
		query += fmt.Sprintf(" AND employee_id = $%d", idx)
		args = append(args, filter.EmployeeID)
		idx++
	}
	if filter.FromUTC != nil {
		query += fmt.Sprintf(" AND check_in_utc >= $%d", idx)
		args = append(args, *filter.FromUTC)
		idx++
	}
	if filter.ToUTC != nil {
		query += fmt.Sprintf(" AND check_in_utc <= $%d", idx)
		args = append(args, *filter.ToUTC)
		idx++
	}

	query += " ORDER BY check_in_utc DESC"
	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	query += fmt.Sprintf(" LIMIT $%d OFFSET $%d", idx, idx+1)
	args = append(args, limit, filter.Offset)

	rows, err := GetQuerier(ctx, r.db).Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list attendances: %w", err)
	}
	defer rows.Close()

	var out []*attendance.Attendance
	for rows.Next() {
		att, err := scanAttendance(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, att)
	}
	return out, rows.Err()
}

func (r *AttendanceRepository) SetDischargeShift(ctx context.Context, id string, discharge bool) error {
	query := `UPDATE attendances SET is_discharge_shift = $2, updated_at = NOW() WHERE id = $1`
	tag, err := GetQuerier(ctx, r.db).Exec(ctx, query, id, discharge)
	if err != nil {
		return fmt.Errorf("set discharge shift: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return attendance.ErrNotFound
	}
	return nil
}

func scanAttendance(row pgx.Row) (*attendance.Attendance, error) {
	var att attendance.Attendance
	var rawData []byte

	err := row.Scan(
		&att.ID, &att.EmployeeID, &att.CheckInUTC, &att.CheckOutUTC, &att.DeviceSerial, &rawData,
		&att.OvertimeEarly, &att.OvertimeRegular, &att.OvertimeEvening, &att.OvertimeNight,
		&att.OvertimeHoliday, &att.OvertimeTotal, &att.LateMinutes, &att.EarlyMinutes,
		&att.IsLate, &att.IsEarly, &att.ScheduledCheckInUTC, &att.ScheduledCheckOutUTC,
		&att.IsDischargeShift, &att.CreatedAt, &att.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, attendance.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan attendance: %w", err)
	}
	if len(rawData) > 0 {
		if err := json.Unmarshal(rawData, &att.RawData); err != nil {
			return nil, fmt.Errorf("unmarshal raw data: %w", err)
		}
	}
	return &att, nil
}
