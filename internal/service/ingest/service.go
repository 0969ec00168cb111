package ingest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/annam-hrm/attendance-ingest-go/internal/domain/attendance"
	"github.com/annam-hrm/attendance-ingest-go/internal/domain/device"
	"github.com/annam-hrm/attendance-ingest-go/internal/domain/employee"
	"github.com/annam-hrm/attendance-ingest-go/internal/domain/ingestlog"
	"github.com/annam-hrm/attendance-ingest-go/internal/domain/schedule"
	"github.com/annam-hrm/attendance-ingest-go/internal/pkg/timeparse"
)

// TxRunner executes fn inside a database transaction carried on the
// context. Implementations retry transient serialization failures.
type TxRunner interface {
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

// Deriver recomputes derived figures on a reconciled record.
type Deriver interface {
	Apply(ctx context.Context, att *attendance.Attendance, emp *employee.Employee) error
}

// Service is the ingestion pipeline: parse, resolve, reconcile, derive.
type Service struct {
	parser      *Parser
	tz          *timeparse.Normalizer
	tx          TxRunner
	attendances attendance.Repository
	employees   employee.Directory
	calendars   schedule.CalendarRepository
	unknown     device.UnknownPunchRepository
	logs        ingestlog.Repository
	deriver     Deriver
}

func NewService(
	parser *Parser,
	tz *timeparse.Normalizer,
	tx TxRunner,
	attendances attendance.Repository,
	employees employee.Directory,
	calendars schedule.CalendarRepository,
	unknown device.UnknownPunchRepository,
	logs ingestlog.Repository,
	deriver Deriver,
) *Service {
	return &Service{
		parser:      parser,
		tz:          tz,
		tx:          tx,
		attendances: attendances,
		employees:   employees,
		calendars:   calendars,
		unknown:     unknown,
		logs:        logs,
		deriver:     deriver,
	}
}

var _ attendance.Ingestor = (*Service)(nil)

// ProcessBody ingests one cdata payload, recording the run in the
// processing log. The log entry is written even when every line fails.
func (s *Service) ProcessBody(ctx context.Context, deviceSerial, table string, body []byte, meta map[string]string) (*attendance.BatchResult, error) {
	start := time.Now()

	entry := &ingestlog.Entry{
		ID:           uuid.Must(uuid.NewV7()).String(),
		DeviceSerial: deviceSerial,
		Table:        table,
		Body:         string(body),
		RequestInfo:  meta,
		Status:       ingestlog.StatusProcessing,
	}
	if err := s.logs.Create(ctx, entry); err != nil {
		return nil, fmt.Errorf("create processing log entry: %w", err)
	}

	result, procErr := s.ApplyBody(ctx, deviceSerial, body)
	if result == nil {
		result = &attendance.BatchResult{}
	}
	result.Duration = time.Since(start)

	entry.TotalLines = result.Total
	entry.StoredCount = result.Stored
	entry.UnknownCount = result.Unknown
	entry.FailedCount = result.Failed
	entry.DurationMS = result.Duration.Milliseconds()
	entry.Status = result.Status()
	if procErr != nil {
		entry.Status = ingestlog.StatusError
		entry.ErrorDetail = procErr.Error()
	}
	if err := s.logs.Update(ctx, entry); err != nil {
		slog.Error("Failed to update processing log entry", "entry_id", entry.ID, "error", err)
	}
	return result, procErr
}

// ApplyBody runs the pipeline over a payload without touching the
// processing log. Used by ProcessBody and by replays of stored entries.
func (s *Service) ApplyBody(ctx context.Context, deviceSerial string, body []byte) (*attendance.BatchResult, error) {
	parsed := s.parser.Parse(string(body), deviceSerial)
	result := &attendance.BatchResult{
		Total:  parsed.Total,
		Failed: parsed.Failed,
	}

	for _, punch := range parsed.Punches {
		switch err := s.ProcessPunch(ctx, punch); {
		case err == nil:
			result.Stored++
		case errors.Is(err, attendance.ErrUnknownPunchUser):
			result.Unknown++
		default:
			result.Failed++
			slog.Error("Punch processing failed",
				"device_serial", punch.DeviceSerial,
				"device_user_id", punch.DeviceUserID,
				"timestamp", punch.TimestampUTC,
				"error", err)
		}
	}
	return result, nil
}

// ProcessPunch resolves, reconciles and derives a single punch. Punches
// with no employee mapping land in the unknown sink and return
// ErrUnknownPunchUser.
func (s *Service) ProcessPunch(ctx context.Context, punch attendance.Punch) error {
	emp, err := s.employees.LookupByDeviceUser(ctx, punch.DeviceUserID)
	if errors.Is(err, employee.ErrNotFound) {
		if sinkErr := s.sinkUnknown(ctx, punch); sinkErr != nil {
			return sinkErr
		}
		return attendance.ErrUnknownPunchUser
	}
	if err != nil {
		return fmt.Errorf("resolve device user %s: %w", punch.DeviceUserID, err)
	}
	return s.Reconcile(ctx, punch, emp)
}

// Reconcile merges the punch into the employee's record for the shift
// window, creating it when absent, then re-derives figures if the
// interval moved. The whole step runs under one row-locked transaction.
func (s *Service) Reconcile(ctx context.Context, punch attendance.Punch, emp *employee.Employee) error {
	night, err := s.isNightShift(ctx, emp)
	if err != nil {
		return err
	}

	local := punch.TimestampUTC.In(s.tz.Location())
	beginDate := schedule.ShiftBeginDate(local, night)
	fromUTC, toUTC := schedule.ShiftWindow(beginDate, night)

	return s.tx.WithTransaction(ctx, func(ctx context.Context) error {
		att, err := s.attendances.FindWithinForUpdate(ctx, emp.ID, fromUTC, toUTC)
		if errors.Is(err, attendance.ErrNotFound) {
			att = &attendance.Attendance{
				ID:           uuid.Must(uuid.NewV7()).String(),
				EmployeeID:   emp.ID,
				CheckInUTC:   punch.TimestampUTC,
				DeviceSerial: punch.DeviceSerial,
			}
			att.AppendEvent(attendance.EventCreated, punch.TimestampUTC, punch.RawLine)
			if err := s.deriver.Apply(ctx, att, emp); err != nil {
				return err
			}
			return s.attendances.Create(ctx, att)
		}
		if err != nil {
			return fmt.Errorf("find attendance in window: %w", err)
		}

		kind, dirty := mergePunch(att, punch.TimestampUTC)
		att.AppendEvent(kind, punch.TimestampUTC, punch.RawLine)
		if dirty {
			if err := s.deriver.Apply(ctx, att, emp); err != nil {
				return err
			}
		}
		return s.attendances.Update(ctx, att)
	})
}

// Recompute re-derives the figures of a stored record without touching
// its punch interval. Operators use it after correcting an employee's
// calendar or department.
func (s *Service) Recompute(ctx context.Context, attendanceID string) (*attendance.Attendance, error) {
	var out *attendance.Attendance
	err := s.tx.WithTransaction(ctx, func(ctx context.Context) error {
		att, err := s.attendances.GetByID(ctx, attendanceID)
		if err != nil {
			return err
		}
		emp, err := s.employees.GetByID(ctx, att.EmployeeID)
		if err != nil {
			return fmt.Errorf("load employee %s: %w", att.EmployeeID, err)
		}
		if err := s.deriver.Apply(ctx, att, emp); err != nil {
			return err
		}
		att.AppendEvent(attendance.EventReprocessed, time.Now().UTC(), "")
		if err := s.attendances.Update(ctx, att); err != nil {
			return err
		}
		out = att
		return nil
	})
	return out, err
}

func (s *Service) isNightShift(ctx context.Context, emp *employee.Employee) (bool, error) {
	if emp.CalendarID == nil {
		return false, nil
	}
	cal, err := s.calendars.GetByID(ctx, *emp.CalendarID)
	if errors.Is(err, schedule.ErrCalendarNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("load work calendar: %w", err)
	}
	return cal.IsNight(), nil
}

func (s *Service) sinkUnknown(ctx context.Context, punch attendance.Punch) error {
	created, err := s.unknown.Insert(ctx, &device.UnknownPunch{
		ID:           uuid.Must(uuid.NewV7()).String(),
		DeviceSerial: punch.DeviceSerial,
		DeviceUserID: punch.DeviceUserID,
		TimestampUTC: punch.TimestampUTC,
		Status:       punch.Status.String(),
		RawLine:      punch.RawLine,
	})
	if err != nil {
		return fmt.Errorf("store unknown punch: %w", err)
	}
	if !created {
		slog.Debug("Duplicate unknown punch",
			"device_serial", punch.DeviceSerial,
			"device_user_id", punch.DeviceUserID,
			"timestamp", punch.TimestampUTC)
	}
	return nil
}

// mergePunch folds a punch timestamp into the record and reports the
// audit kind plus whether the canonical interval moved. The resulting
// interval is always (min ts, max ts) over every punch seen.
func mergePunch(att *attendance.Attendance, ts time.Time) (kind string, dirty bool) {
	switch {
	case ts.Before(att.CheckInUTC):
		if att.CheckOutUTC == nil {
			prev := att.CheckInUTC
			att.CheckOutUTC = &prev
		}
		att.CheckInUTC = ts
		return attendance.EventCheckIn, true
	case ts.After(att.CheckInUTC):
		if att.CheckOutUTC == nil || ts.After(*att.CheckOutUTC) {
			out := ts
			att.CheckOutUTC = &out
			return attendance.EventCheckOut, true
		}
		return attendance.EventIgnored, false
	default:
		return attendance.EventDuplicate, false
	}
}
