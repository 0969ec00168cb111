package postgresql

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/annam-hrm/attendance-ingest-go/internal/domain/ingestlog"
	"github.com/annam-hrm/attendance-ingest-go/internal/pkg/database"
)

type ProcessingLogRepository struct {
	db *database.DB
}

func NewProcessingLogRepository(db *database.DB) *ProcessingLogRepository {
	return &ProcessingLogRepository{db: db}
}

const processingLogColumns = `
	id, device_serial, table_name, body, request_metadata, status, total_lines,
	stored_count, unknown_count, failed_count, error_detail, duration_ms,
	reprocessed, reprocess_count, last_reprocess_at, created_at, updated_at`

func (r *ProcessingLogRepository) Create(ctx context.Context, e *ingestlog.Entry) error {
	meta, err := json.Marshal(e.RequestInfo)
	if err != nil {
		return fmt.Errorf("marshal request metadata: %w", err)
	}

	query := `
		INSERT INTO processing_logs (
			id, device_serial, table_name, body, request_metadata, status,
			total_lines, stored_count, unknown_count, failed_count, error_detail,
			duration_ms, reprocessed, reprocess_count, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, FALSE, 0, NOW(), NOW())`

	_, err = GetQuerier(ctx, r.db).Exec(ctx, query,
		e.ID, e.DeviceSerial, e.Table, e.Body, meta, e.Status, e.TotalLines,
		e.StoredCount, e.UnknownCount, e.FailedCount, e.ErrorDetail, e.DurationMS)
	if err != nil {
		return fmt.Errorf("insert processing log: %w", err)
	}
	return nil
}

func (r *ProcessingLogRepository) Update(ctx context.Context, e *ingestlog.Entry) error {
	query := `
		UPDATE processing_logs SET
			status = $2, total_lines = $3, stored_count = $4, unknown_count = $5,
			failed_count = $6, error_detail = $7, duration_ms = $8,
			reprocessed = $9, reprocess_count = $10, last_reprocess_at = $11,
			updated_at = NOW()
		WHERE id = $1`

	tag, err := GetQuerier(ctx, r.db).Exec(ctx, query,
		e.ID, e.Status, e.TotalLines, e.StoredCount, e.UnknownCount,
		e.FailedCount, e.ErrorDetail, e.DurationMS,
		e.Reprocessed, e.ReprocessCount, e.LastReprocessAt)
	if err != nil {
		return fmt.Errorf("update processing log: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ingestlog.ErrNotFound
	}
	return nil
}

func (r *ProcessingLogRepository) GetByID(ctx context.Context, id string) (*ingestlog.Entry, error) {
	query := `SELECT` + processingLogColumns + ` FROM processing_logs WHERE id = $1`
	return scanProcessingLog(GetQuerier(ctx, r.db).QueryRow(ctx, query, id))
}

func (r *ProcessingLogRepository) List(ctx context.Context, status string, limit, offset int) ([]*ingestlog.Entry, error) {
	query := `SELECT` + processingLogColumns + ` FROM processing_logs`
	args := []interface{}{}
	if status != "" {
		query += ` WHERE status = $1`
		args = append(args, status)
	}
	if limit <= 0 {
		limit = 100
	}
	query += fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d OFFSET $%d", len(args)+1, len(args)+2)
	args = append(args, limit, offset)

	return r.query(ctx, query, args...)
}

func (r *ProcessingLogRepository) ListErrored(ctx context.Context, limit int) ([]*ingestlog.Entry, error) {
	if limit <= 0 {
		limit = 50
	}
	query := `SELECT` + processingLogColumns + `
		FROM processing_logs
		WHERE status = $1
		ORDER BY created_at
		LIMIT $2`
	return r.query(ctx, query, ingestlog.StatusError, limit)
}

func (r *ProcessingLogRepository) query(ctx context.Context, query string, args ...interface{}) ([]*ingestlog.Entry, error) {
	rows, err := GetQuerier(ctx, r.db).Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list processing logs: %w", err)
	}
	defer rows.Close()

	var out []*ingestlog.Entry
	for rows.Next() {
		e, err := scanProcessingLog(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func scanProcessingLog(row pgx.Row) (*ingestlog.Entry, error) {
	var e ingestlog.Entry
	var meta []byte
	err := row.Scan(&e.ID, &e.DeviceSerial, &e.Table, &e.Body, &meta, &e.Status,
		&e.TotalLines, &e.StoredCount, &e.UnknownCount, &e.FailedCount,
		&e.ErrorDetail, &e.DurationMS, &e.Reprocessed, &e.ReprocessCount,
		&e.LastReprocessAt, &e.CreatedAt, &e.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ingestlog.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan processing log: %w", err)
	}
	if len(meta) > 0 {
		if err := json.Unmarshal(meta, &e.RequestInfo); err != nil {
			return nil, fmt.Errorf("unmarshal request metadata: %w", err)
		}
	}
	return &e, nil
}
