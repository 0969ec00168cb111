package derivation

import (
	"time"

	"github.com/annam-hrm/attendance-ingest-go/internal/config"
)

// Calculate derives late/early minutes and tiered overtime from a
// completed attendance interval. It is a pure function of its inputs;
// all instants must already be in the device-local timezone.
func Calculate(in Input, cfg config.DerivationConfig) Figures {
	var fig Figures

	lateEarly(&fig, in, cfg)

	if in.OvertimeExempt {
		return fig
	}

	scheduled := 0
	for _, iv := range in.Intervals {
		scheduled += iv.Minutes()
	}
	if len(in.Intervals) == 0 || scheduled <= 0 {
		// Rest day: the whole worked duration, clipped to the day,
		// counts as holiday overtime.
		fig.Holiday = roundOvertimeMinutes(clippedMinutes(in.CheckIn, in.CheckOut, in.DayStart, in.DayStart.AddDate(0, 0, 1)))
		fig.Total = fig.Holiday
		return fig
	}

	workStart := in.Intervals[0].Start
	workEnd := in.Intervals[len(in.Intervals)-1].End

	// Early overtime: only accrues when the check-in beats the
	// eligibility threshold, and then for the full pre-start duration.
	earlyMin := 0
	if in.CheckIn.Before(workStart.Add(-cfg.EarlyOvertimeThreshold)) {
		earlyMin = minutesBetween(in.CheckIn, workStart)
	}

	// Post-work overtime, split at the evening and night cutoffs of the
	// day the scheduled work ends on.
	regularMin, eveningMin, nightMin := 0, 0, 0
	if in.CheckOut.After(workEnd) {
		cutBase := time.Date(workEnd.Year(), workEnd.Month(), workEnd.Day(), 0, 0, 0, 0, workEnd.Location())
		eveningCut := cutBase.Add(time.Duration(cfg.EveningCutoffMinutes) * time.Minute)
		nightCut := cutBase.Add(time.Duration(cfg.NightCutoffMinutes) * time.Minute)

		regularMin = overlapMinutes(workEnd, in.CheckOut, workEnd, eveningCut)
		eveningMin = overlapMinutes(workEnd, in.CheckOut, eveningCut, nightCut)
		nightMin = overlapMinutes(workEnd, in.CheckOut, nightCut, in.CheckOut)
	}

	fig.Early = roundOvertimeMinutes(earlyMin)
	fig.Regular = roundOvertimeMinutes(regularMin)
	fig.Evening = roundOvertimeMinutes(eveningMin)
	fig.Night = roundOvertimeMinutes(nightMin)

	if !in.EarlyOvertimeAllowed {
		fig.Early = 0
	}

	fig.Total = fig.Early + fig.Regular + fig.Evening + fig.Night + fig.Holiday
	if fig.Evening > 0 && fig.Regular > 0 {
		fig.Total -= fig.Regular
		fig.Regular = 0
	}
	if fig.Regular <= 0.5 {
		fig.Regular = 0
		if fig.Total == 0.5 && fig.Evening == 0 && fig.Night == 0 {
			fig.Total -= 0.5
		}
	}
	return fig
}

func lateEarly(fig *Figures, in Input, cfg config.DerivationConfig) {
	if len(in.Intervals) == 0 {
		return
	}
	morning := in.Intervals[0]
	var afternoon *time.Time // afternoon start; nil for single-interval days
	afternoonEnd := morning.End
	if len(in.Intervals) > 1 {
		s := in.Intervals[1].Start
		afternoon = &s
		afternoonEnd = in.Intervals[1].End
	}

	schedIn := morning.Start
	schedOut := afternoonEnd
	fig.ScheduledCheckIn = &schedIn

	if in.CheckIn.After(morning.Start) {
		late := minutesBetween(morning.Start, in.CheckIn)
		if late >= cfg.LateAfternoonFallbackMinutes && afternoon != nil {
			// Missed the whole morning: lateness counts from the
			// afternoon start instead.
			if in.CheckIn.After(*afternoon) {
				late = minutesBetween(*afternoon, in.CheckIn)
			} else {
				late = 0
			}
		}
		fig.LateMinutes = late
	}

	if afternoon != nil {
		if in.CheckOut.Before(afternoonEnd) {
			switch {
			case !in.CheckOut.After(morning.End):
				// Left before lunch: only the morning counts.
				fig.EarlyMinutes = minutesBetween(in.CheckOut, morning.End)
				schedOut = morning.End
			case !in.CheckOut.Before(*afternoon):
				fig.EarlyMinutes = minutesBetween(in.CheckOut, afternoonEnd)
			}
			// Checkout inside the lunch gap records no early leave.
		}
	} else if in.CheckOut.Before(morning.End) {
		fig.EarlyMinutes = minutesBetween(in.CheckOut, morning.End)
	}

	fig.ScheduledCheckOut = &schedOut
	fig.IsLate = fig.LateMinutes > 0
	fig.IsEarly = fig.EarlyMinutes > 0
}

// roundOvertimeMinutes rounds a minute count onto the payroll half-hour
// grid: a remainder up to 24 minutes is dropped, 25 to 44 rounds to the
// half hour, 45 and above rounds up to the next hour.
func roundOvertimeMinutes(minutes int) float64 {
	if minutes <= 0 {
		return 0
	}
	whole := float64(minutes / 60)
	switch rem := minutes % 60; {
	case rem <= 24:
		return whole
	case rem <= 44:
		return whole + 0.5
	default:
		return whole + 1
	}
}

func minutesBetween(from, to time.Time) int {
	return int(to.Sub(from) / time.Minute)
}

func overlapMinutes(ws, we, bandStart, bandEnd time.Time) int {
	start := ws
	if bandStart.After(start) {
		start = bandStart
	}
	end := we
	if bandEnd.Before(end) {
		end = bandEnd
	}
	if !end.After(start) {
		return 0
	}
	return minutesBetween(start, end)
}

func clippedMinutes(from, to, lo, hi time.Time) int {
	return overlapMinutes(from, to, lo, hi)
}
