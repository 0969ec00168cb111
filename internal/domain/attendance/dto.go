package attendance

import "time"

// Punch is a single normalized device event: the output of the payload
// parser and the input of the reconciler.
type Punch struct {
	DeviceUserID string
	TimestampUTC time.Time
	Status       Status
	RecordID     string
	VerifyType   string
	WorkCode     string
	DeviceSerial string
	RawLine      string
}

// Status is the punch direction after normalization.
type Status int

const (
	StatusCheckIn Status = iota
	StatusCheckOut
)

func (s Status) String() string {
	if s == StatusCheckOut {
		return "check_out"
	}
	return "check_in"
}

// ListFilter narrows attendance listings for the back-office API.
type ListFilter struct {
	EmployeeID string
	FromUTC    *time.Time
	ToUTC      *time.Time
	Limit      int
	Offset     int
}

// BatchResult summarizes one ingestion pass over a device payload.
type BatchResult struct {
	Total    int
	Stored   int
	Unknown  int
	Failed   int
	Duration time.Duration
}

// Status of the batch for the processing log: success when everything
// stored, partial when some lines failed or were unknown, error when
// nothing could be stored at all.
func (r BatchResult) Status() string {
	switch {
	case r.Total == 0:
		return "success"
	case r.Stored == 0 && (r.Failed > 0 || r.Unknown > 0):
		return "error"
	case r.Failed > 0 || r.Unknown > 0:
		return "partial"
	default:
		return "success"
	}
}
