// Package budget resolves calendar dates to numbered budget cycle periods.
//
// A household configures a cycle frequency, a start day, and a reference date;
// period 1 is the cycle containing the reference date and numbers count
// forward (and backward, below 1) from there. The bills engine consumes this
// package to bucket occurrences and allocations for budgeting.
package budget

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Frequency is the cycle length for budget periods.
type Frequency string

const (
	FrequencyMonthly  Frequency = "monthly"
	FrequencyBiweekly Frequency = "biweekly"
	FrequencyWeekly   Frequency = "weekly"
)

// ParseFrequency validates a wire value against the closed set.
func ParseFrequency(s string) (Frequency, error) {
	switch Frequency(s) {
	case FrequencyMonthly, FrequencyBiweekly, FrequencyWeekly:
		return Frequency(s), nil
	}
	return "", fmt.Errorf("unknown budget frequency %q", s)
}

// Settings holds a household's budget cycle preferences.
type Settings struct {
	HouseholdID     uuid.UUID
	Frequency       Frequency
	StartDay        int       // day of month the cycle starts on (monthly only)
	ReferenceDate   time.Time // anchors period numbering
	RolloverEnabled bool
	UpdatedAt       time.Time
}

// DefaultSettings returns the documented defaults used when a household has
// never saved preferences: monthly cycles starting on the 1st, anchored at
// 2020-01-01, no rollover.
func DefaultSettings(household uuid.UUID) Settings {
	return Settings{
		HouseholdID:     household,
		Frequency:       FrequencyMonthly,
		StartDay:        1,
		ReferenceDate:   time.Date(2020, time.January, 1, 0, 0, 0, 0, time.UTC),
		RolloverEnabled: false,
	}
}

// Period is one budget cycle: a number plus its inclusive date bounds.
type Period struct {
	Number int
	Start  time.Time
	End    time.Time
}

// Contains reports whether the date falls inside the period, inclusive of
// both bounds.
func (p Period) Contains(d time.Time) bool {
	d = dateOnly(d)
	return !d.Before(p.Start) && !d.After(p.End)
}

// Resolver maps dates to budget periods for a given settings value.
// The zero value is ready to use.
type Resolver struct{}

// NewResolver returns a period resolver.
func NewResolver() Resolver { return Resolver{} }

// CurrentPeriod returns the period containing today.
func (r Resolver) CurrentPeriod(s Settings, today time.Time) Period {
	return r.PeriodForDate(s, today)
}

// PeriodForDate returns the period containing the given date.
func (Resolver) PeriodForDate(s Settings, d time.Time) Period {
	d = dateOnly(d)

	switch s.Frequency {
	case FrequencyWeekly, FrequencyBiweekly:
		ref := referenceDate(s)
		step := 7
		if s.Frequency == FrequencyBiweekly {
			step = 14
		}
		idx := floorDiv(wholeDays(ref, d), step)
		start := ref.AddDate(0, 0, idx*step)
		return Period{
			Number: idx + 1,
			Start:  start,
			End:    start.AddDate(0, 0, step-1),
		}
	default: // monthly
		refYear, refMonth := cycleMonthOf(s, referenceDate(s))
		year, month := cycleMonthOf(s, d)
		months := (year-refYear)*12 + int(month-refMonth)
		nextYear, nextMonth := addMonths(year, month, 1)
		return Period{
			Number: months + 1,
			Start:  cycleStartIn(s, year, month),
			End:    cycleStartIn(s, nextYear, nextMonth).AddDate(0, 0, -1),
		}
	}
}

// PeriodAt returns the period offset cycles away from the one containing
// today: 0 is current, -1 previous, +1 next.
func (r Resolver) PeriodAt(s Settings, today time.Time, offset int) Period {
	p := r.PeriodForDate(s, today)
	if offset == 0 {
		return p
	}
	switch s.Frequency {
	case FrequencyWeekly, FrequencyBiweekly:
		step := 7
		if s.Frequency == FrequencyBiweekly {
			step = 14
		}
		return r.PeriodForDate(s, p.Start.AddDate(0, 0, offset*step))
	default:
		year, month := cycleMonthOf(s, p.Start)
		year, month = addMonths(year, month, offset)
		return r.PeriodForDate(s, cycleStartIn(s, year, month))
	}
}

// NextPeriod returns the period immediately after the one containing the
// given date.
func (r Resolver) NextPeriod(s Settings, after time.Time) Period {
	p := r.PeriodForDate(s, after)
	return r.PeriodForDate(s, p.End.AddDate(0, 0, 1))
}

func referenceDate(s Settings) time.Time {
	ref := dateOnly(s.ReferenceDate)
	if ref.IsZero() {
		ref = DefaultSettings(s.HouseholdID).ReferenceDate
	}
	return ref
}

// cycleMonthOf identifies the (year, month) whose cycle contains d: d's own
// month, or the previous one when d falls before that month's start day.
func cycleMonthOf(s Settings, d time.Time) (int, time.Month) {
	year, month := d.Year(), d.Month()
	if d.Before(cycleStartIn(s, year, month)) {
		return addMonths(year, month, -1)
	}
	return year, month
}

// cycleStartIn returns the cycle start date inside the given month. Start
// days past a short month's end clamp to its last day.
func cycleStartIn(s Settings, year int, month time.Month) time.Time {
	day := s.StartDay
	if day < 1 {
		day = 1
	}
	if last := lastDayOfMonth(year, month); day > last {
		day = last
	}
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

func addMonths(year int, month time.Month, n int) (int, time.Month) {
	idx := year*12 + int(month) - 1 + n
	return idx / 12, time.Month(idx%12 + 1)
}

func lastDayOfMonth(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

func dateOnly(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func wholeDays(a, b time.Time) int {
	return int(b.Sub(a).Hours() / 24)
}

// floorDiv divides rounding toward negative infinity so dates before the
// reference land in periods numbered 0 and below.
func floorDiv(a, b int) int {
	q := a / b
	if a%b != 0 && (a < 0) != (b < 0) {
		q--
	}
	return q
}
