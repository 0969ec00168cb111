package timeparse

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// ErrMalformedTimestamp is returned when none of the accepted layouts match.
var ErrMalformedTimestamp = errors.New("malformed timestamp")

// layouts are the wall-clock formats ZKTeco firmware revisions emit.
var layouts = []string{
	"2006-01-02 15:04:05",
	"02/01/2006 15:04:05",
	"2006/01/02 15:04:05",
	"2006-01-02T15:04:05",
}

// wellKnownOffsets backs the fixed-offset fallback when the zone database is
// not available on the host.
var wellKnownOffsets = map[string]int{
	"Asia/Ho_Chi_Minh": 7,
	"Asia/Saigon":      7,
	"Asia/Bangkok":     7,
	"Asia/Jakarta":     7,
}

// Normalizer converts device wall-clock timestamps to and from UTC for a
// single configured zone.
type Normalizer struct {
	loc  *time.Location
	name string
}

// NewNormalizer resolves the zone name against the zone database, falling
// back to a fixed offset for well-known names and GMT+N/GMT-N spellings.
func NewNormalizer(zone string) (*Normalizer, error) {
	if zone == "" {
		zone = "Asia/Ho_Chi_Minh"
	}
	if loc, err := time.LoadLocation(zone); err == nil {
		return &Normalizer{loc: loc, name: zone}, nil
	}
	if loc, ok := fallbackLocation(zone); ok {
		return &Normalizer{loc: loc, name: zone}, nil
	}
	return nil, fmt.Errorf("unknown device timezone %q", zone)
}

func fallbackLocation(zone string) (*time.Location, bool) {
	if hours, ok := wellKnownOffsets[zone]; ok {
		return time.FixedZone(zone, hours*3600), true
	}
	if strings.HasPrefix(zone, "GMT+") || strings.HasPrefix(zone, "GMT-") {
		hours, err := strconv.Atoi(zone[4:])
		if err != nil {
			return nil, false
		}
		if zone[3] == '-' {
			hours = -hours
		}
		return time.FixedZone(zone, hours*3600), true
	}
	return nil, false
}

// Location returns the configured device zone.
func (n *Normalizer) Location() *time.Location {
	return n.loc
}

// OffsetHours reports the zone's current UTC offset in whole hours, as used
// in the ADMS handshake TimeZone key.
func (n *Normalizer) OffsetHours() int {
	_, offset := time.Now().In(n.loc).Zone()
	return offset / 3600
}

// ParseLocal parses a device timestamp string into an instant in the device
// zone. The string carries no zone information; the configured zone applies.
func (n *Normalizer) ParseLocal(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range layouts {
		if t, err := time.ParseInLocation(layout, s, n.loc); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: %q", ErrMalformedTimestamp, s)
}

// ParseUTC parses a device timestamp string and converts it to UTC.
func (n *Normalizer) ParseUTC(s string) (time.Time, error) {
	local, err := n.ParseLocal(s)
	if err != nil {
		return time.Time{}, err
	}
	return local.UTC(), nil
}

// UTCToLocal converts a UTC instant to device wall-clock time.
func (n *Normalizer) UTCToLocal(t time.Time) time.Time {
	return t.In(n.loc)
}