package postgresql

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/annam-hrm/attendance-ingest-go/internal/domain/employee"
	"github.com/annam-hrm/attendance-ingest-go/internal/pkg/database"
)

// EmployeeRepository reads the employee master data maintained by the HR
// system. Only the device user id mapping is ever written from here.
type EmployeeRepository struct {
	db *database.DB
}

func NewEmployeeRepository(db *database.DB) *EmployeeRepository {
	return &EmployeeRepository{db: db}
}

const employeeQuery = `
	SELECT e.id, e.employee_code, e.full_name, e.device_user_id,
		COALESCE(d.name, ''), COALESCE(pd.name, ''), e.work_calendar_id,
		e.created_at, e.updated_at
	FROM employees e
	LEFT JOIN departments d ON d.id = e.department_id
	LEFT JOIN departments pd ON pd.id = d.parent_id`

func (r *EmployeeRepository) LookupByDeviceUser(ctx context.Context, deviceUserID string) (*employee.Employee, error) {
	query := employeeQuery + ` WHERE e.device_user_id = $1`
	return scanEmployee(GetQuerier(ctx, r.db).QueryRow(ctx, query, deviceUserID))
}

func (r *EmployeeRepository) GetByID(ctx context.Context, id string) (*employee.Employee, error) {
	query := employeeQuery + ` WHERE e.id = $1`
	return scanEmployee(GetQuerier(ctx, r.db).QueryRow(ctx, query, id))
}

func (r *EmployeeRepository) UpdateDeviceUserID(ctx context.Context, employeeID, deviceUserID string) error {
	query := `UPDATE employees SET device_user_id = $2, updated_at = NOW() WHERE id = $1`
	tag, err := GetQuerier(ctx, r.db).Exec(ctx, query, employeeID, deviceUserID)
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return employee.ErrDeviceUserIDConflict
	}
	if err != nil {
		return fmt.Errorf("update device user id: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return employee.ErrNotFound
	}
	return nil
}

func scanEmployee(row pgx.Row) (*employee.Employee, error) {
	var e employee.Employee
	err := row.Scan(&e.ID, &e.EmployeeCode, &e.FullName, &e.DeviceUserID,
		&e.DepartmentName, &e.ParentDepartmentName, &e.CalendarID,
		&e.CreatedAt, &e.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, employee.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan employee: %w", err)
	}
	return &e, nil
}
