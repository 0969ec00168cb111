package schedule

import "time"

const (
	nightStartHour    = 18
	earlyEndMinutes   = 6 * 60
	overnightMinutes  = 24 * 60
	nightNoonCutoff   = 12
	regularWindowHour = 3
	nightWindowHour   = 12
)

// IsNight reports whether the calendar describes a night-shift pattern:
// at least one interval starting at or after 18:00 and at least one
// interval that either ends by 06:00 or runs past midnight.
func (c *Calendar) IsNight() bool {
	lateStart := false
	earlyOrOvernightEnd := false
	for _, ct := range c.Times {
		if ct.StartMinutes >= nightStartHour*60 {
			lateStart = true
		}
		if ct.EndMinutes <= earlyEndMinutes || ct.EndMinutes >= overnightMinutes {
			earlyOrOvernightEnd = true
		}
	}
	return lateStart && earlyOrOvernightEnd
}

// ShiftBeginDate maps a local punch instant onto the local date the shift
// began on. For night shifts a punch at or before noon belongs to the
// shift that started the previous evening; everything else belongs to the
// day it was made.
func ShiftBeginDate(local time.Time, night bool) time.Time {
	day := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, local.Location())
	seconds := local.Hour()*3600 + local.Minute()*60 + local.Second()
	if night && seconds <= nightNoonCutoff*3600 {
		return day.AddDate(0, 0, -1)
	}
	return day
}

// ShiftWindow returns the inclusive UTC window in which punches belonging
// to the shift beginning on the given local date may fall. Regular shifts
// close at 03:00 the next day; night shifts stay open until noon the next
// day so the morning checkout still lands on the right record.
func ShiftWindow(beginDate time.Time, night bool) (fromUTC, toUTC time.Time) {
	from := beginDate
	var to time.Time
	if night {
		to = beginDate.AddDate(0, 0, 1).Add(time.Duration(nightWindowHour) * time.Hour)
	} else {
		to = beginDate.AddDate(0, 0, 1).Add(time.Duration(regularWindowHour) * time.Hour)
	}
	return from.UTC(), to.UTC()
}
