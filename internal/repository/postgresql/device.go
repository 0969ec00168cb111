package postgresql

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/annam-hrm/attendance-ingest-go/internal/domain/device"
	"github.com/annam-hrm/attendance-ingest-go/internal/pkg/database"
)

type DeviceRepository struct {
	db *database.DB
}

func NewDeviceRepository(db *database.DB) *DeviceRepository {
	return &DeviceRepository{db: db}
}

func (r *DeviceRepository) Register(ctx context.Context, serial, ip, pushVersion string) (*device.Device, error) {
	query := `
		INSERT INTO devices (id, serial, ip_address, push_version, last_seen_at, created_at, updated_at)
		VALUES ($1, $2, $3, $4, NOW(), NOW(), NOW())
		ON CONFLICT (serial) DO UPDATE SET
			ip_address = EXCLUDED.ip_address,
			push_version = CASE WHEN EXCLUDED.push_version <> '' THEN EXCLUDED.push_version ELSE devices.push_version END,
			last_seen_at = NOW(),
			updated_at = NOW()
		RETURNING id, serial, alias, ip_address, last_seen_at, push_version, created_at, updated_at`

	row := GetQuerier(ctx, r.db).QueryRow(ctx, query, uuid.Must(uuid.NewV7()).String(), serial, ip, pushVersion)
	return scanDevice(row)
}

func (r *DeviceRepository) GetBySerial(ctx context.Context, serial string) (*device.Device, error) {
	query := `
		SELECT id, serial, alias, ip_address, last_seen_at, push_version, created_at, updated_at
		FROM devices WHERE serial = $1`
	return scanDevice(GetQuerier(ctx, r.db).QueryRow(ctx, query, serial))
}

func (r *DeviceRepository) List(ctx context.Context) ([]*device.Device, error) {
	query := `
		SELECT id, serial, alias, ip_address, last_seen_at, push_version, created_at, updated_at
		FROM devices ORDER BY serial`

	rows, err := GetQuerier(ctx, r.db).Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list devices: %w", err)
	}
	defer rows.Close()

	var out []*device.Device
	for rows.Next() {
		d, err := scanDevice(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

func (r *DeviceRepository) EnqueueCommand(ctx context.Context, cmd *device.Command) error {
	if cmd.ID == "" {
		cmd.ID = uuid.Must(uuid.NewV7()).String()
	}
	if cmd.Status == "" {
		cmd.Status = device.CommandPending
	}
	if cmd.ScheduledAt.IsZero() {
		cmd.ScheduledAt = time.Now().UTC()
	}

	query := `
		INSERT INTO device_commands (id, device_serial, body, priority, status, scheduled_at, expires_at, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, NOW())`

	_, err := GetQuerier(ctx, r.db).Exec(ctx, query,
		cmd.ID, cmd.DeviceSerial, cmd.Body, cmd.Priority, cmd.Status, cmd.ScheduledAt, cmd.ExpiresAt)
	if err != nil {
		return fmt.Errorf("enqueue device command: %w", err)
	}
	return nil
}

func (r *DeviceRepository) PopPendingCommand(ctx context.Context, serial string, now time.Time) (*device.Command, error) {
	q := GetQuerier(ctx, r.db)

	// Expire overdue commands first so they never get handed out.
	expire := `
		UPDATE device_commands SET status = $1
		WHERE device_serial = $2 AND status = $3 AND expires_at IS NOT NULL AND expires_at < $4`
	if _, err := q.Exec(ctx, expire, device.CommandExpired, serial, device.CommandPending, now); err != nil {
		return nil, fmt.Errorf("expire device commands: %w", err)
	}

	query := `
		UPDATE device_commands SET status = $1, sent_at = $2
		WHERE id = (
			SELECT id FROM device_commands
			WHERE device_serial = $3 AND status = $4 AND scheduled_at <= $2
			ORDER BY priority DESC, created_at
			LIMIT 1
			FOR UPDATE SKIP LOCKED
		)
		RETURNING id, device_serial, body, priority, status, scheduled_at, expires_at, sent_at, created_at`

	var cmd device.Command
	err := q.QueryRow(ctx, query, device.CommandSent, now, serial, device.CommandPending).Scan(
		&cmd.ID, &cmd.DeviceSerial, &cmd.Body, &cmd.Priority, &cmd.Status,
		&cmd.ScheduledAt, &cmd.ExpiresAt, &cmd.SentAt, &cmd.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, device.ErrCommandNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("pop device command: %w", err)
	}
	return &cmd, nil
}

func scanDevice(row pgx.Row) (*device.Device, error) {
	var d device.Device
	err := row.Scan(&d.ID, &d.Serial, &d.Alias, &d.IPAddress, &d.LastSeenAt, &d.PushVersion, &d.CreatedAt, &d.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, device.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan device: %w", err)
	}
	return &d, nil
}
