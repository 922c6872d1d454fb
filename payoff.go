package main

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"homeledger/internal/bills"
)

// Debt payoff handler functions

// @Summary Get debt payoff plan
// @Description Project month-by-month payoff of all included debts under avalanche or snowball ordering
// @Tags payoff
// @Produce json
// @Param strategy query string false "Payoff strategy (avalanche|snowball, default avalanche)"
// @Param extra_monthly_cents query int false "Extra money put toward debt each month"
// @Success 200 {object} PayoffPlan "Projected plan"
// @Failure 400 {object} map[string]interface{} "Bad request"
// @Failure 500 {object} map[string]interface{} "Internal server error"
// @Router /api/payoff-plan [get]
func getPayoffPlan(c *gin.Context) {
	household, err := householdID(c)
	if err != nil {
		badRequest(c, err.Error())
		return
	}

	strategy := bills.StrategyAvalanche
	if raw := c.Query("strategy"); raw != "" {
		if strategy, err = bills.ParsePayoffStrategy(raw); err != nil {
			respondError(c, "parsing payoff strategy", err)
			return
		}
	}

	var extraCents int64
	if raw := c.Query("extra_monthly_cents"); raw != "" {
		extraCents, err = strconv.ParseInt(raw, 10, 64)
		if err != nil || extraCents < 0 {
			badRequest(c, "Invalid extra monthly amount")
			return
		}
	}

	proj, err := svc.ProjectPayoff(context.Background(), household, strategy, extraCents)
	if err != nil {
		respondError(c, "projecting payoff", err)
		return
	}

	c.JSON(http.StatusOK, toPayoffPlan(proj))
}
