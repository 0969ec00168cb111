package derivation

import (
	"context"
	"fmt"
	"time"

	"github.com/annam-hrm/attendance-ingest-go/internal/config"
	"github.com/annam-hrm/attendance-ingest-go/internal/domain/attendance"
	"github.com/annam-hrm/attendance-ingest-go/internal/domain/employee"
	"github.com/annam-hrm/attendance-ingest-go/internal/domain/schedule"
	"github.com/annam-hrm/attendance-ingest-go/internal/pkg/timeparse"
)

// Figures is the complete set of derived fields for one attendance
// record. Overtime values are in hours, rounded to half-hour steps;
// late and early are raw minutes.
type Figures struct {
	LateMinutes  int
	EarlyMinutes int
	IsLate       bool
	IsEarly      bool

	ScheduledCheckIn  *time.Time
	ScheduledCheckOut *time.Time

	Early   float64
	Regular float64
	Evening float64
	Night   float64
	Holiday float64
	Total   float64
}

// Input carries everything Calculate needs, already resolved to local
// wall-clock time. Intervals are the scheduled work intervals of the
// shift-begin day, sorted by start.
type Input struct {
	CheckIn   time.Time
	CheckOut  time.Time
	DayStart  time.Time
	Intervals []schedule.Interval

	OvertimeExempt       bool
	EarlyOvertimeAllowed bool
}

// Service recomputes derived figures for attendance records against the
// owning employee's work calendar.
type Service struct {
	cfg       config.DerivationConfig
	calendars schedule.CalendarRepository
	tz        *timeparse.Normalizer
}

func NewService(cfg config.DerivationConfig, calendars schedule.CalendarRepository, tz *timeparse.Normalizer) *Service {
	return &Service{cfg: cfg, calendars: calendars, tz: tz}
}

// Apply recomputes the derived fields on att in place. Records without a
// checkout, or whose employee has no work calendar, keep zeroed figures.
func (s *Service) Apply(ctx context.Context, att *attendance.Attendance, emp *employee.Employee) error {
	resetFigures(att)
	if att.CheckOutUTC == nil || emp.CalendarID == nil {
		return nil
	}

	cal, err := s.calendars.GetByID(ctx, *emp.CalendarID)
	if err != nil {
		return fmt.Errorf("load work calendar %s: %w", *emp.CalendarID, err)
	}

	loc := s.tz.Location()
	checkIn := att.CheckInUTC.In(loc)
	checkOut := att.CheckOutUTC.In(loc)
	dayStart := schedule.ShiftBeginDate(checkIn, cal.IsNight())

	in := Input{
		CheckIn:              checkIn,
		CheckOut:             checkOut,
		DayStart:             dayStart,
		Intervals:            cal.IntervalsOn(dayStart, loc),
		OvertimeExempt:       s.overtimeExempt(emp),
		EarlyOvertimeAllowed: s.earlyAllowed(emp),
	}
	fig := Calculate(in, s.cfg)
	writeFigures(att, fig)
	return nil
}

func (s *Service) overtimeExempt(emp *employee.Employee) bool {
	dept, parent := emp.DepartmentNames()
	for _, name := range s.cfg.ExemptDepartments {
		if dept == name || parent == name {
			return true
		}
	}
	return false
}

func (s *Service) earlyAllowed(emp *employee.Employee) bool {
	for _, code := range s.cfg.EarlyAllowedCodes {
		if emp.EmployeeCode == code {
			return true
		}
	}
	return false
}

func resetFigures(att *attendance.Attendance) {
	att.OvertimeEarly = 0
	att.OvertimeRegular = 0
	att.OvertimeEvening = 0
	att.OvertimeNight = 0
	att.OvertimeHoliday = 0
	att.OvertimeTotal = 0
	att.LateMinutes = 0
	att.EarlyMinutes = 0
	att.IsLate = false
	att.IsEarly = false
	att.ScheduledCheckInUTC = nil
	att.ScheduledCheckOutUTC = nil
}

func writeFigures(att *attendance.Attendance, fig Figures) {
	att.LateMinutes = fig.LateMinutes
	att.EarlyMinutes = fig.EarlyMinutes
	att.IsLate = fig.IsLate
	att.IsEarly = fig.IsEarly
	if fig.ScheduledCheckIn != nil {
		t := fig.ScheduledCheckIn.UTC()
		att.ScheduledCheckInUTC = &t
	}
	if fig.ScheduledCheckOut != nil {
		t := fig.ScheduledCheckOut.UTC()
		att.ScheduledCheckOutUTC = &t
	}
	att.OvertimeEarly = fig.Early
	att.OvertimeRegular = fig.Regular
	att.OvertimeEvening = fig.Evening
	att.OvertimeNight = fig.Night
	att.OvertimeHoliday = fig.Holiday
	att.OvertimeTotal = fig.Total
}
