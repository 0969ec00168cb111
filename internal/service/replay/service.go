package replay

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/annam-hrm/attendance-ingest-go/internal/domain/attendance"
	"github.com/annam-hrm/attendance-ingest-go/internal/domain/ingestlog"
)

const erroredBatchSize = 50

// Service re-runs stored payloads through the ingestion pipeline.
// Because reconciliation is idempotent, replaying a payload any number
// of times leaves the attendance store in the same state.
type Service struct {
	logs     ingestlog.Repository
	ingestor attendance.Ingestor
}

func NewService(logs ingestlog.Repository, ingestor attendance.Ingestor) *Service {
	return &Service{logs: logs, ingestor: ingestor}
}

// Replay re-feeds one processing-log entry and updates its outcome and
// reprocess bookkeeping.
func (s *Service) Replay(ctx context.Context, entryID string) (*attendance.BatchResult, error) {
	entry, err := s.logs.GetByID(ctx, entryID)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	result, procErr := s.ingestor.ApplyBody(ctx, entry.DeviceSerial, []byte(entry.Body))
	if result == nil {
		result = &attendance.BatchResult{}
	}

	now := time.Now()
	entry.Reprocessed = true
	entry.ReprocessCount++
	entry.LastReprocessAt = &now
	entry.TotalLines = result.Total
	entry.StoredCount = result.Stored
	entry.UnknownCount = result.Unknown
	entry.FailedCount = result.Failed
	entry.DurationMS = time.Since(start).Milliseconds()
	entry.Status = result.Status()
	entry.ErrorDetail = ""
	if procErr != nil {
		entry.Status = ingestlog.StatusError
		entry.ErrorDetail = procErr.Error()
	}
	if err := s.logs.Update(ctx, entry); err != nil {
		return result, fmt.Errorf("update processing log entry: %w", err)
	}
	return result, procErr
}

// ReplayErrored re-feeds every error-status entry, oldest first. Used by
// the background job; individual failures are logged and skipped.
func (s *Service) ReplayErrored(ctx context.Context) error {
	entries, err := s.logs.ListErrored(ctx, erroredBatchSize)
	if err != nil {
		return fmt.Errorf("list errored log entries: %w", err)
	}
	for _, entry := range entries {
		if _, err := s.Replay(ctx, entry.ID); err != nil {
			slog.Error("Replay of log entry failed", "entry_id", entry.ID, "error", err)
		}
	}
	if len(entries) > 0 {
		slog.Info("Replayed errored log entries", "count", len(entries))
	}
	return nil
}
