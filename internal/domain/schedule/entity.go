package schedule

import (
	"sort"
	"time"
)

// CalendarTime is one working interval on one weekday of a work calendar.
// Minutes are counted from local midnight; EndMinutes may exceed 1440 for
// intervals that run past midnight into the following day.
type CalendarTime struct {
	DayOfWeek    int // 0 = Monday .. 6 = Sunday
	StartMinutes int
	EndMinutes   int
}

// Calendar is an employee's working schedule: a named set of weekday
// intervals. Calendars are owned by the HR system and read-only here.
type Calendar struct {
	ID    string
	Name  string
	Times []CalendarTime
}

// Interval is a concrete working interval on a specific date, expressed
// as local wall-clock instants.
type Interval struct {
	Start time.Time
	End   time.Time
}

func (i Interval) Minutes() int {
	return int(i.End.Sub(i.Start) / time.Minute)
}

// weekdayIndex maps Go's Sunday-based weekday onto the Monday-based
// index used by calendar rows.
func weekdayIndex(w time.Weekday) int {
	return (int(w) + 6) % 7
}

// IntervalsOn returns the calendar's working intervals for the given
// local date, sorted by start. Intervals whose EndMinutes pass 1440
// spill into the following day.
func (c *Calendar) IntervalsOn(date time.Time, loc *time.Location) []Interval {
	midnight := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, loc)
	dow := weekdayIndex(midnight.Weekday())

	var out []Interval
	for _, ct := range c.Times {
		if ct.DayOfWeek != dow {
			continue
		}
		out = append(out, Interval{
			Start: midnight.Add(time.Duration(ct.StartMinutes) * time.Minute),
			End:   midnight.Add(time.Duration(ct.EndMinutes) * time.Minute),
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Start.Before(out[j].Start) })
	return out
}

// ScheduledMinutes is the total scheduled working time on the given
// local date.
func (c *Calendar) ScheduledMinutes(date time.Time, loc *time.Location) int {
	total := 0
	for _, iv := range c.IntervalsOn(date, loc) {
		total += iv.Minutes()
	}
	return total
}
