package bills

import (
	"context"
	"time"

	"github.com/google/uuid"

	"homeledger/internal/budget"
)

// Listing pagination bounds.
const (
	DefaultListLimit = 50
	MaxListLimit     = 500
)

// DashboardSummary is the read model for the household's money-at-a-glance
// view. Amounts are remaining cents for overdue/upcoming and paid cents for
// the period total.
type DashboardSummary struct {
	OverdueCount  int
	OverdueCents  int64
	UpcomingCount int
	UpcomingCents int64
	NextDueDate   *time.Time
	PaidCount     int
	PaidCents     int64
	Period        budget.Period
}

// Dashboard materializes and refreshes the household, then aggregates:
// overdue totals, upcoming totals (outstanding, due today or later), the next
// due date, and what was paid inside the requested budget period (offset 0 =
// current).
func (s *Service) Dashboard(ctx context.Context, household uuid.UUID, periodOffset int) (*DashboardSummary, error) {
	if err := s.prepareRead(ctx, household, time.Time{}, time.Time{}); err != nil {
		return nil, err
	}

	settings, err := s.settingsOrDefault(ctx, household)
	if err != nil {
		return nil, err
	}
	today := s.today()
	period := s.periods.PeriodAt(settings, today, periodOffset)

	occs, err := s.store.ListOccurrences(ctx, OccurrenceFilter{HouseholdID: household})
	if err != nil {
		return nil, err
	}

	sum := &DashboardSummary{Period: period}
	for _, occ := range occs {
		switch {
		case occ.Status == StatusOverdue:
			sum.OverdueCount++
			sum.OverdueCents += occ.AmountRemainingCents
		case occ.Status.Outstanding() && !occ.DueDate.Before(today):
			sum.UpcomingCount++
			sum.UpcomingCents += occ.AmountRemainingCents
			if sum.NextDueDate == nil || occ.DueDate.Before(*sum.NextDueDate) {
				d := occ.DueDate
				sum.NextDueDate = &d
			}
		}
		if occ.Status.Settled() && occ.PaidDate != nil && period.Contains(*occ.PaidDate) {
			sum.PaidCount++
			sum.PaidCents += occ.AmountPaidCents
		}
	}
	return sum, nil
}

// ListBillsInput filters and pages the occurrence listing.
type ListBillsInput struct {
	Statuses   []OccurrenceStatus
	DueFrom    time.Time
	DueTo      time.Time
	TemplateID uuid.UUID
	// PeriodOffset, when set, keeps only occurrences belonging to the budget
	// period that many cycles from the current one.
	PeriodOffset *int
	Limit        int
	Offset       int
}

// BillRow is one occurrence joined with its template and allocations for
// display.
type BillRow struct {
	Occurrence  *BillOccurrence
	Template    *BillTemplate
	Allocations []*OccurrenceAllocation
}

// ListSummary aggregates the whole filtered set, not just the returned page.
type ListSummary struct {
	Count               int
	TotalDueCents       int64
	TotalPaidCents      int64
	TotalRemainingCents int64
}

// BillList is one page of occurrences plus set-wide totals.
type BillList struct {
	Rows    []*BillRow
	Total   int
	Summary ListSummary
	// Period is the resolved budget period when the filter used an offset.
	Period *budget.Period
}

// ListBills materializes and refreshes the household, then returns the
// occurrences matching the filter, due-date ascending, paged by limit/offset.
func (s *Service) ListBills(ctx context.Context, household uuid.UUID, in ListBillsInput) (*BillList, error) {
	limit := in.Limit
	if limit <= 0 {
		limit = DefaultListLimit
	}
	if limit > MaxListLimit {
		limit = MaxListLimit
	}
	offset := in.Offset
	if offset < 0 {
		offset = 0
	}

	from, to := in.DueFrom, in.DueTo

	var period *budget.Period
	if in.PeriodOffset != nil {
		settings, err := s.settingsOrDefault(ctx, household)
		if err != nil {
			return nil, err
		}
		p := s.periods.PeriodAt(settings, s.today(), *in.PeriodOffset)
		period = &p
		// The materialized horizon has to cover the period being asked for.
		if from.IsZero() || p.Start.Before(from) {
			from = p.Start
		}
		if to.IsZero() || p.End.After(to) {
			to = p.End
		}
	}

	if err := s.prepareRead(ctx, household, from, to); err != nil {
		return nil, err
	}

	occs, err := s.store.ListOccurrences(ctx, OccurrenceFilter{
		HouseholdID: household,
		TemplateID:  in.TemplateID,
		Statuses:    in.Statuses,
		DueFrom:     in.DueFrom,
		DueTo:       in.DueTo,
	})
	if err != nil {
		return nil, err
	}

	ids := make([]uuid.UUID, len(occs))
	for i, occ := range occs {
		ids[i] = occ.ID
	}
	allocsByOcc, err := s.store.ListAllocationsForOccurrences(ctx, ids)
	if err != nil {
		return nil, err
	}

	tpls, err := s.templatesByID(ctx, household)
	if err != nil {
		return nil, err
	}

	if period != nil {
		filtered := occs[:0]
		for _, occ := range occs {
			if occurrenceInPeriod(occ, tpls[occ.TemplateID], allocsByOcc[occ.ID], *period) {
				filtered = append(filtered, occ)
			}
		}
		occs = filtered
	}

	list := &BillList{Total: len(occs), Period: period}
	for _, occ := range occs {
		list.Summary.Count++
		list.Summary.TotalDueCents += occ.AmountDueCents
		list.Summary.TotalPaidCents += occ.AmountPaidCents
		list.Summary.TotalRemainingCents += occ.AmountRemainingCents
	}

	if offset >= len(occs) {
		occs = nil
	} else {
		occs = occs[offset:]
	}
	if len(occs) > limit {
		occs = occs[:limit]
	}

	list.Rows = make([]*BillRow, 0, len(occs))
	for _, occ := range occs {
		list.Rows = append(list.Rows, &BillRow{
			Occurrence:  occ,
			Template:    tpls[occ.TemplateID],
			Allocations: allocsByOcc[occ.ID],
		})
	}
	return list, nil
}

// occurrenceInPeriod decides period membership. Precedence: an explicit
// per-occurrence override, then allocation periods, then the template's fixed
// assignment, then the due date falling inside the period's range.
func occurrenceInPeriod(occ *BillOccurrence, tpl *BillTemplate, allocs []*OccurrenceAllocation, p budget.Period) bool {
	if occ.BudgetPeriodOverride != nil {
		return *occ.BudgetPeriodOverride == p.Number
	}
	if len(allocs) > 0 {
		for _, a := range allocs {
			if a.PeriodNumber == p.Number {
				return true
			}
		}
		return false
	}
	if tpl != nil && tpl.BudgetPeriodNumber != nil {
		return *tpl.BudgetPeriodNumber == p.Number
	}
	return p.Contains(occ.DueDate)
}

// prepareRead materializes the horizon and reconciles statuses so every read
// sees current state.
func (s *Service) prepareRead(ctx context.Context, household uuid.UUID, from, to time.Time) error {
	lo, hi := s.readHorizon(from, to)
	return s.store.WithTx(ctx, func(tx Tx) error {
		if err := s.materializeHousehold(ctx, tx, household, lo, hi); err != nil {
			return err
		}
		return s.refreshHousehold(ctx, tx, household)
	})
}

func (s *Service) templatesByID(ctx context.Context, household uuid.UUID) (map[uuid.UUID]*BillTemplate, error) {
	tpls, err := s.store.ListTemplates(ctx, TemplateFilter{HouseholdID: household})
	if err != nil {
		return nil, err
	}
	out := make(map[uuid.UUID]*BillTemplate, len(tpls))
	for _, tpl := range tpls {
		out[tpl.ID] = tpl
	}
	return out, nil
}
