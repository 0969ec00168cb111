package unknownpunch

import (
	"context"
	"fmt"
	"time"

	"github.com/annam-hrm/attendance-ingest-go/internal/domain/attendance"
	"github.com/annam-hrm/attendance-ingest-go/internal/domain/device"
	"github.com/annam-hrm/attendance-ingest-go/internal/domain/employee"
)

// Reconciler merges a resolved punch into the attendance store.
type Reconciler interface {
	Reconcile(ctx context.Context, punch attendance.Punch, emp *employee.Employee) error
}

// Service handles operator review of punches that arrived with no
// employee mapping.
type Service struct {
	punches    device.UnknownPunchRepository
	employees  employee.Directory
	reconciler Reconciler
}

func NewService(punches device.UnknownPunchRepository, employees employee.Directory, reconciler Reconciler) *Service {
	return &Service{punches: punches, employees: employees, reconciler: reconciler}
}

func (s *Service) List(ctx context.Context, onlyUnprocessed bool, limit, offset int) ([]*device.UnknownPunch, error) {
	return s.punches.List(ctx, onlyUnprocessed, limit, offset)
}

// Assign binds the punch's device user id to an employee, replays the
// punch through reconciliation, and marks it processed. Future punches
// from the same device user resolve directly.
func (s *Service) Assign(ctx context.Context, punchID, employeeID string) error {
	punch, err := s.punches.GetByID(ctx, punchID)
	if err != nil {
		return err
	}
	if punch.Processed {
		return device.ErrAlreadyProcessed
	}

	emp, err := s.employees.GetByID(ctx, employeeID)
	if err != nil {
		return err
	}
	if err := s.employees.UpdateDeviceUserID(ctx, emp.ID, punch.DeviceUserID); err != nil {
		return fmt.Errorf("assign device user id: %w", err)
	}

	synthesized := attendance.Punch{
		DeviceUserID: punch.DeviceUserID,
		TimestampUTC: punch.TimestampUTC,
		DeviceSerial: punch.DeviceSerial,
		RawLine:      punch.RawLine,
	}
	if err := s.reconciler.Reconcile(ctx, synthesized, emp); err != nil {
		return fmt.Errorf("reconcile assigned punch: %w", err)
	}
	return s.punches.MarkProcessed(ctx, punch.ID, time.Now().UTC())
}

// Ignore marks the punch processed without creating any attendance data.
func (s *Service) Ignore(ctx context.Context, punchID string) error {
	punch, err := s.punches.GetByID(ctx, punchID)
	if err != nil {
		return err
	}
	if punch.Processed {
		return device.ErrAlreadyProcessed
	}
	return s.punches.MarkProcessed(ctx, punch.ID, time.Now().UTC())
}
