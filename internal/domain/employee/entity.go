package employee

import "time"

// Employee is the read-only projection of the HR master data that the
// ingestion core needs: enough to map a device user id onto a person and
// to evaluate department-based overtime exemptions.
type Employee struct {
	ID                   string
	EmployeeCode         string
	FullName             string
	DeviceUserID         string
	DepartmentName       string
	ParentDepartmentName string
	CalendarID           *string
	CreatedAt            time.Time
	UpdatedAt            time.Time
}

// DepartmentNames returns the department and its parent, in that order.
// Empty strings are returned for unset levels.
func (e *Employee) DepartmentNames() (department, parent string) {
	return e.DepartmentName, e.ParentDepartmentName
}
