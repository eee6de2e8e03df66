package commands

import "time"

type Cadence string

const (
	CadenceWeekly    Cadence = "weekly"
	CadenceDaily     Cadence = "daily"
	CadenceImmediate Cadence = "immediate"
)

// Schedule is the cadence policy for voting periods. NextWindow is
// deterministic: the same (policy, now) always yields the same window.
type Schedule struct {
	Cadence        Cadence
	Weekday        time.Weekday  // weekly only
	HourUTC        int           // weekly and daily
	ImmediateDelay time.Duration // immediate only
	PeriodLength   time.Duration
}

// NextWindow computes the next voting window starting at or after now.
func (s Schedule) NextWindow(now time.Time) (time.Time, time.Time) {
	now = now.UTC()
	var start time.Time

	switch s.Cadence {
	case CadenceDaily:
		start = time.Date(now.Year(), now.Month(), now.Day(), s.HourUTC, 0, 0, 0, time.UTC)
		if start.Before(now) {
			start = start.AddDate(0, 0, 1)
		}
	case CadenceImmediate:
		delay := s.ImmediateDelay
		if delay <= 0 {
			delay = 5 * time.Minute
		}
		start = now.Add(delay)
	default: // weekly
		start = time.Date(now.Year(), now.Month(), now.Day(), s.HourUTC, 0, 0, 0, time.UTC)
		days := (int(s.Weekday) - int(now.Weekday()) + 7) % 7
		start = start.AddDate(0, 0, days)
		if start.Before(now) {
			start = start.AddDate(0, 0, 7)
		}
	}

	length := s.PeriodLength
	if length <= 0 {
		length = 72 * time.Hour
	}
	return start, start.Add(length)
}
