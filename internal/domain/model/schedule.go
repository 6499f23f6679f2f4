package model

import (
	"strings"
	"time"
)

type Frequency string

const (
	FrequencyWeekly    Frequency = "weekly"
	FrequencyMonthly   Frequency = "monthly"
	FrequencyQuarterly Frequency = "quarterly"
	FrequencyYearly    Frequency = "yearly"
)

// ParseFrequency maps user input onto the supported cadences.
func ParseFrequency(s string) (Frequency, bool) {
	switch Frequency(strings.ToLower(strings.TrimSpace(s))) {
	case FrequencyWeekly:
		return FrequencyWeekly, true
	case FrequencyMonthly:
		return FrequencyMonthly, true
	case FrequencyQuarterly:
		return FrequencyQuarterly, true
	case FrequencyYearly:
		return FrequencyYearly, true
	default:
		return "", false
	}
}

// Label returns the human-readable cadence name.
func (f Frequency) Label() string {
	switch f {
	case FrequencyWeekly:
		return "Weekly"
	case FrequencyQuarterly:
		return "Quarterly"
	case FrequencyYearly:
		return "Yearly"
	default:
		return "Monthly"
	}
}

// DateOf truncates an instant to its calendar date (UTC midnight).
// Schedule comparisons are calendar-date comparisons, never timestamp ones.
func DateOf(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// Next returns the occurrence one interval after from.
// Unrecognized frequencies fall back to monthly.
func (f Frequency) Next(from time.Time) time.Time {
	d := DateOf(from)
	switch f {
	case FrequencyWeekly:
		return d.AddDate(0, 0, 7)
	case FrequencyQuarterly:
		return addMonths(d, 3)
	case FrequencyYearly:
		return addMonths(d, 12)
	default:
		return addMonths(d, 1)
	}
}

// addMonths adds calendar months, clamping the day to the last valid day of
// the target month (Jan 31 + 1 month is Feb 28/29, never Mar 2).
// time.AddDate normalizes overflow instead, which is wrong for billing dates.
func addMonths(d time.Time, months int) time.Time {
	total := d.Year()*12 + int(d.Month()) - 1 + months
	year, month := total/12, time.Month(total%12+1)
	day := d.Day()
	if last := daysIn(year, month); day > last {
		day = last
	}
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

// daysIn returns the number of days in a month; day 0 of the following
// month is the last day of this one.
func daysIn(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}
