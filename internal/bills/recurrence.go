package bills

import (
	"fmt"
	"time"
)

// RecurrenceConfig bounds how many candidate dates each cadence generates per
// call, so a far-future window cannot run away. Passed in at construction
// rather than read from package state.
type RecurrenceConfig struct {
	MaxOneTime    int
	MaxWeekly     int
	MaxBiweekly   int
	MaxMonthly    int
	MaxQuarterly  int
	MaxSemiannual int
	MaxAnnual     int
}

// DefaultRecurrenceConfig returns the stock generation caps.
func DefaultRecurrenceConfig() RecurrenceConfig {
	return RecurrenceConfig{
		MaxOneTime:    1,
		MaxWeekly:     18,
		MaxBiweekly:   12,
		MaxMonthly:    8,
		MaxQuarterly:  8,
		MaxSemiannual: 6,
		MaxAnnual:     4,
	}
}

func (c RecurrenceConfig) capFor(r RecurrenceType) int {
	switch r {
	case RecurrenceOneTime:
		return c.MaxOneTime
	case RecurrenceWeekly:
		return c.MaxWeekly
	case RecurrenceBiweekly:
		return c.MaxBiweekly
	case RecurrenceMonthly:
		return c.MaxMonthly
	case RecurrenceQuarterly:
		return c.MaxQuarterly
	case RecurrenceSemiannual:
		return c.MaxSemiannual
	case RecurrenceAnnual:
		return c.MaxAnnual
	}
	return 0
}

// DueDates computes the ordered due dates for a template inside [from, to],
// inclusive. Pure: no clock, no store. Candidate generation stops at the
// cadence cap, so a wide window yields at most capFor dates.
func (c RecurrenceConfig) DueDates(tpl *BillTemplate, from, to time.Time) ([]time.Time, error) {
	from, to = DateOnly(from), DateOnly(to)
	if to.Before(from) {
		return nil, fmt.Errorf("%w: window end %s before start %s",
			ErrInvalidInput, to.Format(ISODate), from.Format(ISODate))
	}

	switch tpl.RecurrenceType {
	case RecurrenceOneTime:
		return c.oneTimeDates(tpl, from, to)
	case RecurrenceWeekly, RecurrenceBiweekly:
		return c.weekdayDates(tpl, from, to)
	case RecurrenceMonthly, RecurrenceQuarterly, RecurrenceSemiannual, RecurrenceAnnual:
		return c.monthDates(tpl, from, to)
	}
	return nil, fmt.Errorf("%w: unknown recurrence type %q", ErrInvalidInput, tpl.RecurrenceType)
}

func (c RecurrenceConfig) oneTimeDates(tpl *BillTemplate, from, to time.Time) ([]time.Time, error) {
	if tpl.OneTimeDate == nil {
		return nil, fmt.Errorf("%w: one-time bill has no due date", ErrInvalidInput)
	}
	if c.MaxOneTime < 1 {
		return nil, nil
	}
	d := DateOnly(*tpl.OneTimeDate)
	if d.Before(from) || d.After(to) {
		return nil, nil
	}
	return []time.Time{d}, nil
}

// weekdayDates walks forward in 7 or 14 day steps from the first matching
// weekday on or after the window start.
func (c RecurrenceConfig) weekdayDates(tpl *BillTemplate, from, to time.Time) ([]time.Time, error) {
	if tpl.DueWeekday == nil || *tpl.DueWeekday < 0 || *tpl.DueWeekday > 6 {
		return nil, fmt.Errorf("%w: %s bill needs a weekday between 0 and 6",
			ErrInvalidInput, tpl.RecurrenceType)
	}

	step, limit := 7, c.MaxWeekly
	if tpl.RecurrenceType == RecurrenceBiweekly {
		step, limit = 14, c.MaxBiweekly
	}

	offset := (*tpl.DueWeekday - int(from.Weekday()) + 7) % 7
	d := from.AddDate(0, 0, offset)

	var dates []time.Time
	for i := 0; i < limit && !d.After(to); i++ {
		dates = append(dates, d)
		d = d.AddDate(0, 0, step)
	}
	return dates, nil
}

// monthDates generates the nth day of each applicable month. Monthly bills
// start in the window's first month; longer cadences anchor to the template's
// start month, rolling to next year when that month already passed in the
// window's starting year. Day-of-month clamps to short months.
func (c RecurrenceConfig) monthDates(tpl *BillTemplate, from, to time.Time) ([]time.Time, error) {
	if tpl.DueDay == nil || *tpl.DueDay < 1 || *tpl.DueDay > 31 {
		return nil, fmt.Errorf("%w: %s bill needs a day of month between 1 and 31",
			ErrInvalidInput, tpl.RecurrenceType)
	}

	interval := tpl.RecurrenceType.MonthInterval()
	limit := c.capFor(tpl.RecurrenceType)

	year, month := from.Year(), from.Month()
	if tpl.RecurrenceType != RecurrenceMonthly {
		anchor := time.January
		if tpl.StartMonth != nil && *tpl.StartMonth >= 1 && *tpl.StartMonth <= 12 {
			anchor = time.Month(*tpl.StartMonth)
		}
		if anchor < month {
			year++
		}
		month = anchor
	}

	var dates []time.Time
	for i := 0; i < limit; i++ {
		d := clampedMonthDay(year, month, *tpl.DueDay)
		if d.After(to) {
			break
		}
		if !d.Before(from) {
			dates = append(dates, d)
		}
		year, month = stepMonths(year, month, interval)
	}
	return dates, nil
}

// clampedMonthDay builds a date from year/month/day, pulling the day back to
// the month's last day when it overshoots (day 31 in February, etc.).
func clampedMonthDay(year int, month time.Month, day int) time.Time {
	if last := time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day(); day > last {
		day = last
	}
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

func stepMonths(year int, month time.Month, n int) (int, time.Month) {
	idx := year*12 + int(month) - 1 + n
	return idx / 12, time.Month(idx%12 + 1)
}
