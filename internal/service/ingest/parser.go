package ingest

import (
	"regexp"
	"strings"
	"time"

	"github.com/annam-hrm/attendance-ingest-go/internal/domain/attendance"
	"github.com/annam-hrm/attendance-ingest-go/internal/pkg/timeparse"
)

var (
	spacePunchRe = regexp.MustCompile(`^(\d+)\s+(\d+)\s+(\d{4}-\d{2}-\d{2})\s+(\d{2}:\d{2}:\d{2})\s+(\d+)`)
	commaPunchRe = regexp.MustCompile(`^(\d+),(\d{4}-\d{2}-\d{2} \d{2}:\d{2}:\d{2}),(\d+)`)
)

// Parser turns raw device payloads into normalized punches. Device
// firmwares disagree on the wire format, so each line is tried against
// every known shape; lines matching none are skipped and counted.
type Parser struct {
	tz *timeparse.Normalizer
}

func NewParser(tz *timeparse.Normalizer) *Parser {
	return &Parser{tz: tz}
}

// ParseResult carries the punches extracted from one payload plus the
// count of unparseable lines.
type ParseResult struct {
	Punches []attendance.Punch
	Failed  int
	Total   int
}

// Parse splits the body into punches. The device serial is attached to
// every punch for audit purposes.
func (p *Parser) Parse(body, deviceSerial string) ParseResult {
	var res ParseResult

	trimmed := strings.TrimSpace(body)
	if trimmed == "" {
		return res
	}

	tagged := false
	for _, prefix := range []string{"OPERLOG:", "ATTLOG:"} {
		if strings.HasPrefix(trimmed, prefix) {
			trimmed = strings.TrimSpace(strings.TrimPrefix(trimmed, prefix))
			tagged = true
			break
		}
	}

	for _, line := range strings.Split(trimmed, "\n") {
		line = strings.TrimSpace(strings.TrimSuffix(line, "\r"))
		if line == "" {
			continue
		}
		res.Total++

		var punch *attendance.Punch
		if tagged {
			punch = p.parseTaggedLine(line)
		} else {
			punch = p.parseLine(line)
		}
		if punch == nil {
			res.Failed++
			continue
		}
		punch.DeviceSerial = deviceSerial
		punch.RawLine = line
		res.Punches = append(res.Punches, *punch)
	}
	return res
}

// parseTaggedLine handles the record shapes that follow an OPERLOG: or
// ATTLOG: header: tab-joined key=value pairs, or space-positional
// records with the user id in field 2 and date and time in fields 3-4.
func (p *Parser) parseTaggedLine(line string) *attendance.Punch {
	if strings.Contains(line, "=") {
		fields := map[string]string{}
		for _, part := range strings.Split(line, "\t") {
			if k, v, ok := strings.Cut(strings.TrimSpace(part), "="); ok {
				fields[strings.ToLower(k)] = v
			}
		}
		userID := fields["user_id"]
		tsRaw := fields["time"]
		if tsRaw == "" {
			tsRaw = fields["timestamp"]
		}
		if userID == "" || tsRaw == "" {
			return nil
		}
		ts, err := p.tz.ParseUTC(tsRaw)
		if err != nil {
			return nil
		}
		status := fields["status"]
		if status == "" {
			status = "1"
		}
		return p.build(userID, ts, status, "", "")
	}

	parts := strings.Fields(line)
	if len(parts) < 4 {
		return nil
	}
	ts, err := p.tz.ParseUTC(parts[2] + " " + parts[3])
	if err != nil {
		return nil
	}
	status := "1"
	if len(parts) > 4 {
		status = parts[4]
	}
	return p.build(parts[1], ts, status, "", "")
}

func (p *Parser) parseLine(line string) *attendance.Punch {
	if strings.Contains(line, "\t") {
		parts := strings.Split(line, "\t")
		if len(parts) < 4 {
			return nil
		}
		userID := strings.TrimSpace(parts[0])
		ts, err := p.tz.ParseUTC(strings.TrimSpace(parts[1]))
		if err != nil || userID == "" {
			return nil
		}
		workCode := ""
		if len(parts) > 4 {
			workCode = strings.TrimSpace(parts[4])
		}
		punch := p.build(userID, ts, strings.TrimSpace(parts[3]), strings.TrimSpace(parts[3]), workCode)
		punch.RecordID = strings.TrimSpace(parts[2])
		return punch
	}

	if m := spacePunchRe.FindStringSubmatch(line); m != nil {
		ts, err := p.tz.ParseUTC(m[3] + " " + m[4])
		if err != nil {
			return nil
		}
		return p.build(m[2], ts, m[5], "", "")
	}

	if m := commaPunchRe.FindStringSubmatch(line); m != nil {
		ts, err := p.tz.ParseUTC(m[2])
		if err != nil {
			return nil
		}
		return p.build(m[1], ts, m[3], "", "")
	}
	return nil
}

func (p *Parser) build(userID string, ts time.Time, statusOrVerify, verifyType, workCode string) *attendance.Punch {
	return &attendance.Punch{
		DeviceUserID: userID,
		TimestampUTC: ts,
		Status:       disambiguate(workCode, statusOrVerify, ts.In(p.tz.Location())),
		VerifyType:   verifyType,
		WorkCode:     workCode,
	}
}

// disambiguate resolves the punch direction. Firmwares conflate verify
// type and in/out status, so the work code wins when it is a plain 0/1,
// then a recognizable status value, then a time-of-day guess. 1 means
// check-in on these terminals, 0 check-out.
func disambiguate(workCode, statusOrVerify string, local time.Time) attendance.Status {
	switch workCode {
	case "1":
		return attendance.StatusCheckIn
	case "0":
		return attendance.StatusCheckOut
	}
	switch statusOrVerify {
	case "1", "4":
		return attendance.StatusCheckIn
	case "0", "5":
		return attendance.StatusCheckOut
	}
	switch h := local.Hour(); {
	case h >= 6 && h < 12:
		return attendance.StatusCheckIn
	case h >= 17 && h < 22:
		return attendance.StatusCheckOut
	case h == 12:
		return attendance.StatusCheckOut
	case h == 13:
		return attendance.StatusCheckIn
	default:
		return attendance.StatusCheckIn
	}
}
