package postgresql

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/annam-hrm/attendance-ingest-go/internal/domain/device"
	"github.com/annam-hrm/attendance-ingest-go/internal/pkg/database"
)

type UnknownPunchRepository struct {
	db *database.DB
}

func NewUnknownPunchRepository(db *database.DB) *UnknownPunchRepository {
	return &UnknownPunchRepository{db: db}
}

const unknownPunchColumns = `
	id, device_serial, device_user_id, timestamp_utc, status, raw_line,
	seen_count, processed, processed_at, created_at`

// Insert stores the punch. The table carries a unique index on
// (device_serial, device_user_id, timestamp_utc); a violation means a
// duplicate attempt, which bumps the seen counter instead.
func (r *UnknownPunchRepository) Insert(ctx context.Context, p *device.UnknownPunch) (bool, error) {
	query := `
		INSERT INTO unknown_punches (id, device_serial, device_user_id, timestamp_utc, status, raw_line, seen_count, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, 1, NOW())`

	_, err := GetQuerier(ctx, r.db).Exec(ctx, query,
		p.ID, p.DeviceSerial, p.DeviceUserID, p.TimestampUTC, p.Status, p.RawLine)
	if err == nil {
		return true, nil
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		bump := `
			UPDATE unknown_punches SET seen_count = seen_count + 1
			WHERE device_serial = $1 AND device_user_id = $2 AND timestamp_utc = $3`
		if _, err := GetQuerier(ctx, r.db).Exec(ctx, bump, p.DeviceSerial, p.DeviceUserID, p.TimestampUTC); err != nil {
			return false, fmt.Errorf("bump unknown punch counter: %w", err)
		}
		return false, nil
	}
	return false, fmt.Errorf("insert unknown punch: %w", err)
}

func (r *UnknownPunchRepository) List(ctx context.Context, onlyUnprocessed bool, limit, offset int) ([]*device.UnknownPunch, error) {
	query := `SELECT` + unknownPunchColumns + ` FROM unknown_punches`
	if onlyUnprocessed {
		query += ` WHERE NOT processed`
	}
	query += ` ORDER BY created_at DESC LIMIT $1 OFFSET $2`
	if limit <= 0 {
		limit = 100
	}

	rows, err := GetQuerier(ctx, r.db).Query(ctx, query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list unknown punches: %w", err)
	}
	defer rows.Close()

	var out []*device.UnknownPunch
	for rows.Next() {
		p, err := scanUnknownPunch(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (r *UnknownPunchRepository) GetByID(ctx context.Context, id string) (*device.UnknownPunch, error) {
	query := `SELECT` + unknownPunchColumns + ` FROM unknown_punches WHERE id = $1`
	return scanUnknownPunch(GetQuerier(ctx, r.db).QueryRow(ctx, query, id))
}

func (r *UnknownPunchRepository) MarkProcessed(ctx context.Context, id string, at time.Time) error {
	query := `UPDATE unknown_punches SET processed = TRUE, processed_at = $2 WHERE id = $1`
	tag, err := GetQuerier(ctx, r.db).Exec(ctx, query, id, at)
	if err != nil {
		return fmt.Errorf("mark unknown punch processed: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return device.ErrUnknownPunchNotFound
	}
	return nil
}

func scanUnknownPunch(row pgx.Row) (*device.UnknownPunch, error) {
	var p device.UnknownPunch
	err := row.Scan(&p.ID, &p.DeviceSerial, &p.DeviceUserID, &p.TimestampUTC, &p.Status,
		&p.RawLine, &p.SeenCount, &p.Processed, &p.ProcessedAt, &p.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, device.ErrUnknownPunchNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan unknown punch: %w", err)
	}
	return &p, nil
}
