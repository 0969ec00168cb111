package ingestlog

import "time"

// Entry statuses.
const (
	StatusProcessing = "processing"
	StatusSuccess    = "success"
	StatusPartial    = "partial"
	StatusError      = "error"
)

// Entry is one processing-log row: a full copy of a device payload plus
// the outcome of running it through the ingestion pipeline. Error
// entries are replayed by the background job; any entry can be replayed
// by an operator.
type Entry struct {
	ID           string
	DeviceSerial string
	Table        string
	Body         string
	RequestInfo  map[string]string
	Status       string
	TotalLines   int
	StoredCount  int
	UnknownCount int
	FailedCount  int
	ErrorDetail  string
	DurationMS   int64

	Reprocessed     bool
	ReprocessCount  int
	LastReprocessAt *time.Time

	CreatedAt time.Time
	UpdatedAt time.Time
}
