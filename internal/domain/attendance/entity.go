package attendance

import "time"

// RawEvent is one entry of the append-only audit trail kept on each
// attendance record. Every device event that touched the record is
// recorded here, including no-ops and duplicates.
type RawEvent struct {
	At      time.Time `json:"at"`
	Kind    string    `json:"kind"`
	Payload string    `json:"payload,omitempty"`
}

// Raw event kinds.
const (
	EventCreated     = "created"
	EventCheckIn     = "check_in"
	EventCheckOut    = "check_out"
	EventIgnored     = "ignored"
	EventDuplicate   = "duplicate"
	EventReprocessed = "reprocessed"
	EventManual      = "manual_assignment"
)

// Attendance is the canonical daily record for one employee and one
// shift. Check-in holds the earliest accepted punch, check-out the
// latest; derived figures are recomputed whenever either moves.
type Attendance struct {
	ID           string
	EmployeeID   string
	CheckInUTC   time.Time
	CheckOutUTC  *time.Time
	DeviceSerial string
	RawData      []RawEvent

	// Derived figures, in hours except the minute counters.
	OvertimeEarly   float64
	OvertimeRegular float64
	OvertimeEvening float64
	OvertimeNight   float64
	OvertimeHoliday float64
	OvertimeTotal   float64
	LateMinutes     int
	EarlyMinutes    int
	IsLate          bool
	IsEarly         bool

	ScheduledCheckInUTC  *time.Time
	ScheduledCheckOutUTC *time.Time
	IsDischargeShift     bool

	CreatedAt time.Time
	UpdatedAt time.Time
}

// AppendEvent records an audit entry on the record.
func (a *Attendance) AppendEvent(kind string, at time.Time, payload string) {
	a.RawData = append(a.RawData, RawEvent{At: at, Kind: kind, Payload: payload})
}
