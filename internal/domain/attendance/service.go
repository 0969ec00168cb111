package attendance

import "context"

// Ingestor turns raw device payloads into canonical attendance records.
type Ingestor interface {
	// ProcessBody ingests one raw cdata payload from the named device,
	// writing a processing-log entry and returning the batch summary. A
	// log entry is written even for empty keepalive payloads. meta holds
	// the request parameters the device sent alongside the payload.
	ProcessBody(ctx context.Context, deviceSerial, table string, body []byte, meta map[string]string) (*BatchResult, error)
	// ApplyBody re-runs the ingestion pipeline over an already stored
	// payload without creating a new processing-log entry.
	ApplyBody(ctx context.Context, deviceSerial string, body []byte) (*BatchResult, error)
}
