package unknownpunch

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/annam-hrm/attendance-ingest-go/internal/domain/attendance"
	"github.com/annam-hrm/attendance-ingest-go/internal/domain/device"
	"github.com/annam-hrm/attendance-ingest-go/internal/domain/employee"
)

type memPunchRepo struct {
	punches map[string]*device.UnknownPunch
}

func (r *memPunchRepo) Insert(_ context.Context, p *device.UnknownPunch) (bool, error) {
	r.punches[p.ID] = p
	return true, nil
}

func (r *memPunchRepo) List(_ context.Context, _ bool, _, _ int) ([]*device.UnknownPunch, error) {
	var out []*device.UnknownPunch
	for _, p := range r.punches {
		out = append(out, p)
	}
	return out, nil
}

func (r *memPunchRepo) GetByID(_ context.Context, id string) (*device.UnknownPunch, error) {
	p, ok := r.punches[id]
	if !ok {
		return nil, device.ErrUnknownPunchNotFound
	}
	return p, nil
}

func (r *memPunchRepo) MarkProcessed(_ context.Context, id string, at time.Time) error {
	p, ok := r.punches[id]
	if !ok {
		return device.ErrUnknownPunchNotFound
	}
	p.Processed = true
	p.ProcessedAt = &at
	return nil
}

type memDirectory struct {
	employees map[string]*employee.Employee
	mappings  map[string]string
}

func (d *memDirectory) LookupByDeviceUser(_ context.Context, id string) (*employee.Employee, error) {
	empID, ok := d.mappings[id]
	if !ok {
		return nil, employee.ErrNotFound
	}
	return d.employees[empID], nil
}

func (d *memDirectory) GetByID(_ context.Context, id string) (*employee.Employee, error) {
	emp, ok := d.employees[id]
	if !ok {
		return nil, employee.ErrNotFound
	}
	return emp, nil
}

func (d *memDirectory) UpdateDeviceUserID(_ context.Context, employeeID, deviceUserID string) error {
	if _, ok := d.employees[employeeID]; !ok {
		return employee.ErrNotFound
	}
	if owner, ok := d.mappings[deviceUserID]; ok && owner != employeeID {
		return employee.ErrDeviceUserIDConflict
	}
	d.mappings[deviceUserID] = employeeID
	return nil
}

type recordingReconciler struct {
	punches []attendance.Punch
	emps    []*employee.Employee
}

func (r *recordingReconciler) Reconcile(_ context.Context, punch attendance.Punch, emp *employee.Employee) error {
	r.punches = append(r.punches, punch)
	r.emps = append(r.emps, emp)
	return nil
}

func newTestService() (*Service, *memPunchRepo, *memDirectory, *recordingReconciler) {
	punches := &memPunchRepo{punches: map[string]*device.UnknownPunch{}}
	dir := &memDirectory{
		employees: map[string]*employee.Employee{"emp-1": {ID: "emp-1", EmployeeCode: "240001"}},
		mappings:  map[string]string{},
	}
	rec := &recordingReconciler{}
	return NewService(punches, dir, rec), punches, dir, rec
}

func TestAssignBindsMappingAndReconciles(t *testing.T) {
	svc, punches, dir, rec := newTestService()
	ts := time.Date(2025, 3, 3, 0, 25, 0, 0, time.UTC)
	punches.punches["up-1"] = &device.UnknownPunch{
		ID: "up-1", DeviceSerial: "DEV001", DeviceUserID: "9999", TimestampUTC: ts,
	}

	require.NoError(t, svc.Assign(context.Background(), "up-1", "emp-1"))

	assert.Equal(t, "emp-1", dir.mappings["9999"])
	require.Len(t, rec.punches, 1)
	assert.Equal(t, "9999", rec.punches[0].DeviceUserID)
	assert.Equal(t, ts, rec.punches[0].TimestampUTC)
	assert.Equal(t, "emp-1", rec.emps[0].ID)
	assert.True(t, punches.punches["up-1"].Processed)
}

func TestAssignAlreadyProcessed(t *testing.T) {
	svc, punches, _, rec := newTestService()
	punches.punches["up-1"] = &device.UnknownPunch{ID: "up-1", Processed: true}

	err := svc.Assign(context.Background(), "up-1", "emp-1")
	assert.ErrorIs(t, err, device.ErrAlreadyProcessed)
	assert.Empty(t, rec.punches)
}

func TestAssignUnknownEmployee(t *testing.T) {
	svc, punches, _, _ := newTestService()
	punches.punches["up-1"] = &device.UnknownPunch{ID: "up-1"}

	err := svc.Assign(context.Background(), "up-1", "missing")
	assert.ErrorIs(t, err, employee.ErrNotFound)
	assert.False(t, punches.punches["up-1"].Processed)
}

func TestAssignDeviceUserIDConflict(t *testing.T) {
	svc, punches, dir, rec := newTestService()
	dir.employees["emp-2"] = &employee.Employee{ID: "emp-2", EmployeeCode: "240002"}
	dir.mappings["9999"] = "emp-2"
	punches.punches["up-1"] = &device.UnknownPunch{ID: "up-1", DeviceUserID: "9999"}

	err := svc.Assign(context.Background(), "up-1", "emp-1")
	assert.ErrorIs(t, err, employee.ErrDeviceUserIDConflict)
	assert.Empty(t, rec.punches)
	assert.False(t, punches.punches["up-1"].Processed)
}

func TestIgnore(t *testing.T) {
	svc, punches, _, rec := newTestService()
	punches.punches["up-1"] = &device.UnknownPunch{ID: "up-1"}

	require.NoError(t, svc.Ignore(context.Background(), "up-1"))
	assert.True(t, punches.punches["up-1"].Processed)
	assert.Empty(t, rec.punches)

	assert.ErrorIs(t, svc.Ignore(context.Background(), "up-1"), device.ErrAlreadyProcessed)
}
