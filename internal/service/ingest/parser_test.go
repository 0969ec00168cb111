package ingest

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/annam-hrm/attendance-ingest-go/internal/domain/attendance"
	"github.com/annam-hrm/attendance-ingest-go/internal/pkg/timeparse"
)

func newTestParser(t *testing.T) *Parser {
	t.Helper()
	tz, err := timeparse.NewNormalizer("Asia/Ho_Chi_Minh")
	require.NoError(t, err)
	return NewParser(tz)
}

func TestParseTabSeparated(t *testing.T) {
	p := newTestParser(t)

	body := "1001\t2025-03-03 07:25:00\t12345\t1\t1\n" +
		"1002\t2025-03-03 17:40:00\t12346\t1\t0\n"
	res := p.Parse(body, "DEV001")

	require.Len(t, res.Punches, 2)
	assert.Equal(t, 2, res.Total)
	assert.Zero(t, res.Failed)

	first := res.Punches[0]
	assert.Equal(t, "1001", first.DeviceUserID)
	assert.Equal(t, "12345", first.RecordID)
	assert.Equal(t, "DEV001", first.DeviceSerial)
	// 07:25 local is 00:25 UTC.
	assert.Equal(t, time.Date(2025, 3, 3, 0, 25, 0, 0, time.UTC), first.TimestampUTC)
	// Work code 1 wins over everything else: check-in.
	assert.Equal(t, attendance.StatusCheckIn, first.Status)

	assert.Equal(t, attendance.StatusCheckOut, res.Punches[1].Status)
}

func TestParseOperlogKeyValue(t *testing.T) {
	p := newTestParser(t)

	body := "OPERLOG: user_id=1001\ttime=2025-03-03 07:25:00\tstatus=1\n" +
		"user_id=1002\ttimestamp=2025-03-03 17:40:00\tstatus=0"
	res := p.Parse(body, "DEV001")

	require.Len(t, res.Punches, 2)
	assert.Equal(t, attendance.StatusCheckIn, res.Punches[0].Status)
	assert.Equal(t, attendance.StatusCheckOut, res.Punches[1].Status)
	assert.Equal(t, "1002", res.Punches[1].DeviceUserID)
}

func TestParseAttlogPositional(t *testing.T) {
	p := newTestParser(t)

	body := "ATTLOG: 5 1001 2025-03-03 07:25:00 1"
	res := p.Parse(body, "DEV001")

	require.Len(t, res.Punches, 1)
	assert.Equal(t, "1001", res.Punches[0].DeviceUserID)
	assert.Equal(t, attendance.StatusCheckIn, res.Punches[0].Status)
}

func TestParseSpaceRegex(t *testing.T) {
	p := newTestParser(t)

	body := "7 1001 2025-03-03 17:40:00 0"
	res := p.Parse(body, "DEV001")

	require.Len(t, res.Punches, 1)
	assert.Equal(t, "1001", res.Punches[0].DeviceUserID)
	assert.Equal(t, attendance.StatusCheckOut, res.Punches[0].Status)
}

func TestParseCommaFormat(t *testing.T) {
	p := newTestParser(t)

	body := "1001,2025-03-03 07:25:00,1"
	res := p.Parse(body, "DEV001")

	require.Len(t, res.Punches, 1)
	assert.Equal(t, "1001", res.Punches[0].DeviceUserID)
	assert.Equal(t, attendance.StatusCheckIn, res.Punches[0].Status)
}

func TestParseSkipsGarbageLines(t *testing.T) {
	p := newTestParser(t)

	body := "1001\t2025-03-03 07:25:00\t1\t1\n" +
		"not a punch at all\n" +
		"1002\tnot-a-timestamp\t1\t1\n"
	res := p.Parse(body, "DEV001")

	assert.Equal(t, 3, res.Total)
	assert.Equal(t, 2, res.Failed)
	require.Len(t, res.Punches, 1)
	assert.Equal(t, "1001", res.Punches[0].DeviceUserID)
}

func TestParseEmptyBody(t *testing.T) {
	p := newTestParser(t)
	res := p.Parse("   \n  ", "DEV001")
	assert.Empty(t, res.Punches)
	assert.Zero(t, res.Total)
}

func TestDisambiguateHeuristic(t *testing.T) {
	loc := time.FixedZone("ICT", 7*3600)
	mk := func(h int) time.Time { return time.Date(2025, 3, 3, h, 0, 0, 0, loc) }

	cases := []struct {
		hour int
		want attendance.Status
	}{
		{6, attendance.StatusCheckIn},
		{11, attendance.StatusCheckIn},
		{12, attendance.StatusCheckOut},
		{13, attendance.StatusCheckIn},
		{17, attendance.StatusCheckOut},
		{21, attendance.StatusCheckOut},
		{22, attendance.StatusCheckIn},
		{3, attendance.StatusCheckIn},
	}
	for _, tc := range cases {
		got := disambiguate("", "9", mk(tc.hour))
		assert.Equal(t, tc.want, got, "hour=%d", tc.hour)
	}
}

func TestDisambiguatePriority(t *testing.T) {
	noon := time.Date(2025, 3, 3, 12, 0, 0, 0, time.UTC)

	// Work code beats status.
	assert.Equal(t, attendance.StatusCheckIn, disambiguate("1", "0", noon))
	// Status beats the heuristic.
	assert.Equal(t, attendance.StatusCheckIn, disambiguate("9", "4", noon))
	assert.Equal(t, attendance.StatusCheckOut, disambiguate("", "5", noon))
}
