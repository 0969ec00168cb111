package ingestlog

import (
	"context"
	"errors"
)

var ErrNotFound = errors.New("processing log entry not found")

// Repository persists processing-log entries.
type Repository interface {
	Create(ctx context.Context, e *Entry) error
	Update(ctx context.Context, e *Entry) error
	GetByID(ctx context.Context, id string) (*Entry, error)
	List(ctx context.Context, status string, limit, offset int) ([]*Entry, error)
	// ListErrored returns error-status entries for the replay job,
	// oldest first.
	ListErrored(ctx context.Context, limit int) ([]*Entry, error)
}
