package bills

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PayoffStrategy orders which debt extra money attacks first.
type PayoffStrategy string

const (
	// StrategyAvalanche pays the highest interest rate first.
	StrategyAvalanche PayoffStrategy = "avalanche"
	// StrategySnowball pays the smallest balance first.
	StrategySnowball PayoffStrategy = "snowball"
)

// ParsePayoffStrategy validates a wire value against the closed set.
func ParsePayoffStrategy(s string) (PayoffStrategy, error) {
	switch PayoffStrategy(s) {
	case StrategyAvalanche, StrategySnowball:
		return PayoffStrategy(s), nil
	}
	return "", fmt.Errorf("%w: unknown payoff strategy %q", ErrInvalidInput, s)
}

// payoffHorizonMonths caps the simulation; a plan that cannot finish inside
// it is reported as infeasible instead of looping.
const payoffHorizonMonths = 600

// PayoffDebt is one debt's projected course under the plan.
type PayoffDebt struct {
	TemplateID        uuid.UUID
	Name              string
	BalanceCents      int64
	RateBps           int32
	MinimumCents      int64
	MonthsToPayoff    int
	InterestPaidCents int64
	PayoffDate        *time.Time
}

// PayoffProjection simulates paying all included debts down to zero.
type PayoffProjection struct {
	Strategy           PayoffStrategy
	ExtraMonthlyCents  int64
	TotalBalanceCents  int64
	MonthlyBudgetCents int64
	MonthsToDebtFree   int
	TotalInterestCents int64
	DebtFreeDate       *time.Time
	// Feasible is false when the monthly budget cannot outrun interest
	// accrual inside the simulation horizon.
	Feasible bool
	Debts    []PayoffDebt
}

type payoffState struct {
	debt    *PayoffDebt
	balance decimal.Decimal
	rate    decimal.Decimal // monthly rate as a fraction
}

// ProjectPayoff simulates month-by-month debt payoff across every active,
// debt-bearing template opted into the payoff plan. Minimum payments are the
// templates' default amounts; the extra budget rolls onto the strategy's
// first-priority debt, and freed minimums roll forward as debts retire.
func (s *Service) ProjectPayoff(ctx context.Context, household uuid.UUID, strategy PayoffStrategy, extraMonthlyCents int64) (*PayoffProjection, error) {
	if _, err := ParsePayoffStrategy(string(strategy)); err != nil {
		return nil, err
	}
	if extraMonthlyCents < 0 {
		return nil, fmt.Errorf("%w: extra monthly amount must not be negative", ErrInvalidInput)
	}

	tpls, err := s.store.ListTemplates(ctx, TemplateFilter{HouseholdID: household, ActiveOnly: true})
	if err != nil {
		return nil, err
	}

	var states []*payoffState
	proj := &PayoffProjection{
		Strategy:          strategy,
		ExtraMonthlyCents: extraMonthlyCents,
		Feasible:          true,
		// Pre-size Debts so the states' pointers into it survive every append.
		Debts: make([]PayoffDebt, 0, len(tpls)),
	}
	for _, tpl := range tpls {
		if !tpl.IncludeInPayoff || !tpl.DebtBearing() || *tpl.DebtRemainingBalanceCents <= 0 {
			continue
		}
		d := &PayoffDebt{
			TemplateID:   tpl.ID,
			Name:         tpl.Name,
			BalanceCents: *tpl.DebtRemainingBalanceCents,
			RateBps:      tpl.InterestRateBps,
			MinimumCents: tpl.DefaultAmountCents,
		}
		proj.Debts = append(proj.Debts, *d)
		proj.TotalBalanceCents += d.BalanceCents
		proj.MonthlyBudgetCents += d.MinimumCents

		// bps → annual fraction → monthly fraction.
		rate := decimal.NewFromInt32(tpl.InterestRateBps).
			Div(decimal.NewFromInt(10000)).
			Div(decimal.NewFromInt(12))
		states = append(states, &payoffState{
			debt:    &proj.Debts[len(proj.Debts)-1],
			balance: decimal.NewFromInt(d.BalanceCents),
			rate:    rate,
		})
	}
	proj.MonthlyBudgetCents += extraMonthlyCents

	if len(states) == 0 {
		return proj, nil
	}

	sortPayoffStates(states, strategy)

	today := s.today()
	month := 0
	for ; month < payoffHorizonMonths; month++ {
		if allRetired(states) {
			break
		}

		// Accrue one month of interest on every open balance.
		for _, st := range states {
			if st.balance.IsPositive() && st.rate.IsPositive() {
				interest := st.balance.Mul(st.rate).RoundBank(0)
				st.balance = st.balance.Add(interest)
				st.debt.InterestPaidCents += interest.IntPart()
				proj.TotalInterestCents += interest.IntPart()
			}
		}

		// Minimums first; anything a retired debt frees up joins the extra.
		budget := decimal.NewFromInt(proj.MonthlyBudgetCents)
		for _, st := range states {
			if !st.balance.IsPositive() {
				continue
			}
			pay := decimal.Min(decimal.NewFromInt(st.debt.MinimumCents), st.balance, budget)
			st.balance = st.balance.Sub(pay)
			budget = budget.Sub(pay)
			retire(st, today, month)
		}

		// Remaining budget attacks debts in strategy order.
		for _, st := range states {
			if !budget.IsPositive() {
				break
			}
			if !st.balance.IsPositive() {
				continue
			}
			pay := decimal.Min(st.balance, budget)
			st.balance = st.balance.Sub(pay)
			budget = budget.Sub(pay)
			retire(st, today, month)
		}
	}

	if !allRetired(states) {
		proj.Feasible = false
		proj.TotalInterestCents = 0
		for i := range proj.Debts {
			proj.Debts[i].MonthsToPayoff = 0
			proj.Debts[i].InterestPaidCents = 0
			proj.Debts[i].PayoffDate = nil
		}
		return proj, nil
	}

	proj.MonthsToDebtFree = month
	free := today.AddDate(0, month, 0)
	proj.DebtFreeDate = &free
	return proj, nil
}

func sortPayoffStates(states []*payoffState, strategy PayoffStrategy) {
	sort.SliceStable(states, func(i, j int) bool {
		a, b := states[i].debt, states[j].debt
		if strategy == StrategySnowball {
			if a.BalanceCents != b.BalanceCents {
				return a.BalanceCents < b.BalanceCents
			}
			return a.RateBps > b.RateBps
		}
		if a.RateBps != b.RateBps {
			return a.RateBps > b.RateBps
		}
		return a.BalanceCents < b.BalanceCents
	})
}

func retire(st *payoffState, today time.Time, month int) {
	if st.balance.IsPositive() || st.debt.PayoffDate != nil {
		return
	}
	st.debt.MonthsToPayoff = month + 1
	d := today.AddDate(0, month+1, 0)
	st.debt.PayoffDate = &d
}

func allRetired(states []*payoffState) bool {
	for _, st := range states {
		if st.balance.IsPositive() {
			return false
		}
	}
	return true
}
