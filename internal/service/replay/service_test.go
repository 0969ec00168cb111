package replay

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/annam-hrm/attendance-ingest-go/internal/domain/attendance"
	"github.com/annam-hrm/attendance-ingest-go/internal/domain/ingestlog"
)

type memLogRepo struct {
	entries map[string]*ingestlog.Entry
}

func (r *memLogRepo) Create(_ context.Context, e *ingestlog.Entry) error {
	r.entries[e.ID] = e
	return nil
}

func (r *memLogRepo) Update(_ context.Context, e *ingestlog.Entry) error {
	r.entries[e.ID] = e
	return nil
}

func (r *memLogRepo) GetByID(_ context.Context, id string) (*ingestlog.Entry, error) {
	e, ok := r.entries[id]
	if !ok {
		return nil, ingestlog.ErrNotFound
	}
	return e, nil
}

func (r *memLogRepo) List(_ context.Context, _ string, _, _ int) ([]*ingestlog.Entry, error) {
	return nil, nil
}

func (r *memLogRepo) ListErrored(_ context.Context, _ int) ([]*ingestlog.Entry, error) {
	var out []*ingestlog.Entry
	for _, e := range r.entries {
		if e.Status == ingestlog.StatusError {
			out = append(out, e)
		}
	}
	return out, nil
}

type fakeIngestor struct {
	applied []string
	result  attendance.BatchResult
}

func (f *fakeIngestor) ProcessBody(_ context.Context, _, _ string, _ []byte, _ map[string]string) (*attendance.BatchResult, error) {
	panic("not used")
}

func (f *fakeIngestor) ApplyBody(_ context.Context, _ string, body []byte) (*attendance.BatchResult, error) {
	f.applied = append(f.applied, string(body))
	r := f.result
	return &r, nil
}

func TestReplayUpdatesBookkeeping(t *testing.T) {
	logs := &memLogRepo{entries: map[string]*ingestlog.Entry{
		"e1": {ID: "e1", DeviceSerial: "DEV001", Body: "payload", Status: ingestlog.StatusError, ErrorDetail: "boom"},
	}}
	ing := &fakeIngestor{result: attendance.BatchResult{Total: 2, Stored: 2}}
	svc := NewService(logs, ing)

	result, err := svc.Replay(context.Background(), "e1")
	require.NoError(t, err)
	assert.Equal(t, 2, result.Stored)
	assert.Equal(t, []string{"payload"}, ing.applied)

	entry := logs.entries["e1"]
	assert.True(t, entry.Reprocessed)
	assert.Equal(t, 1, entry.ReprocessCount)
	require.NotNil(t, entry.LastReprocessAt)
	assert.Equal(t, ingestlog.StatusSuccess, entry.Status)
	assert.Empty(t, entry.ErrorDetail)

	// Replaying again feeds the same payload and bumps the count; the
	// pipeline's idempotence keeps the store unchanged.
	_, err = svc.Replay(context.Background(), "e1")
	require.NoError(t, err)
	assert.Equal(t, 2, entry.ReprocessCount)
	assert.Equal(t, []string{"payload", "payload"}, ing.applied)
}

func TestReplayErroredOnlyTouchesErrorEntries(t *testing.T) {
	logs := &memLogRepo{entries: map[string]*ingestlog.Entry{
		"ok":  {ID: "ok", Body: "good", Status: ingestlog.StatusSuccess},
		"bad": {ID: "bad", Body: "broken", Status: ingestlog.StatusError},
	}}
	ing := &fakeIngestor{result: attendance.BatchResult{Total: 1, Stored: 1}}
	svc := NewService(logs, ing)

	require.NoError(t, svc.ReplayErrored(context.Background()))

	assert.Equal(t, []string{"broken"}, ing.applied)
	assert.False(t, logs.entries["ok"].Reprocessed)
	assert.True(t, logs.entries["bad"].Reprocessed)
}

func TestReplayUnknownEntry(t *testing.T) {
	logs := &memLogRepo{entries: map[string]*ingestlog.Entry{}}
	svc := NewService(logs, &fakeIngestor{})

	_, err := svc.Replay(context.Background(), "missing")
	assert.ErrorIs(t, err, ingestlog.ErrNotFound)
}
