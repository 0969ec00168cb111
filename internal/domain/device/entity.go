package device

import "time"

// Device is a known push terminal, keyed by its serial number. Devices
// self-register on their first handshake and are touched on every
// subsequent request.
type Device struct {
	ID          string
	Serial      string
	Alias       string
	IPAddress   string
	LastSeenAt  time.Time
	PushVersion string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Command statuses.
const (
	CommandPending  = "pending"
	CommandSent     = "sent"
	CommandExpired  = "expired"
	CommandCanceled = "canceled"
)

// Canonical command bodies understood by the terminals.
const (
	CommandBodyRestart   = "RESTART"
	CommandBodyClearData = "CLEAR DATA"
)

// SetTimeBody builds a SET TIME command for the given instant, in the
// device's local clock format.
func SetTimeBody(t time.Time) string {
	return "SET TIME " + t.Format("2006-01-02 15:04:05")
}

// Command is a queued instruction for a device. Devices poll for work on
// every handshake; the highest-priority, oldest pending command whose
// schedule has arrived is handed out and marked sent.
type Command struct {
	ID           string
	DeviceSerial string
	Body         string
	Priority     int
	Status       string
	ScheduledAt  time.Time
	ExpiresAt    *time.Time
	SentAt       *time.Time
	CreatedAt    time.Time
}

// Expired reports whether the command's expiry has passed at the given
// instant.
func (c *Command) Expired(now time.Time) bool {
	return c.ExpiresAt != nil && now.After(*c.ExpiresAt)
}

// UnknownPunch is a punch whose device user id could not be resolved to
// an employee. It is kept for operator review and later assignment.
type UnknownPunch struct {
	ID           string
	DeviceSerial string
	DeviceUserID string
	TimestampUTC time.Time
	Status       string
	RawLine      string
	SeenCount    int
	Processed    bool
	ProcessedAt  *time.Time
	CreatedAt    time.Time
}
