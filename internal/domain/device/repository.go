package device

import (
	"context"
	"time"
)

// Repository tracks known devices and their command queues.
type Repository interface {
	// Register upserts the device by serial and refreshes last_seen_at.
	Register(ctx context.Context, serial, ip, pushVersion string) (*Device, error)
	GetBySerial(ctx context.Context, serial string) (*Device, error)
	List(ctx context.Context) ([]*Device, error)

	EnqueueCommand(ctx context.Context, cmd *Command) error
	// PopPendingCommand returns the next due pending command for the
	// device, highest priority first then oldest first, marking it sent.
	// Commands past their expiry are marked expired and skipped.
	// Returns ErrCommandNotFound when the queue is empty.
	PopPendingCommand(ctx context.Context, serial string, now time.Time) (*Command, error)
}

// UnknownPunchRepository stores punches with no employee mapping.
type UnknownPunchRepository interface {
	// Insert stores the punch, deduplicating on (device_serial,
	// device_user_id, timestamp_utc). Returns created=false and bumps
	// the seen counter when the triple already exists.
	Insert(ctx context.Context, p *UnknownPunch) (created bool, err error)
	List(ctx context.Context, onlyUnprocessed bool, limit, offset int) ([]*UnknownPunch, error)
	GetByID(ctx context.Context, id string) (*UnknownPunch, error)
	MarkProcessed(ctx context.Context, id string, at time.Time) error
}
