package main

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
)

// Dashboard handler functions

// @Summary Get dashboard summary
// @Description Get overdue and upcoming totals, the next due date, and what was paid inside the requested budget period
// @Tags dashboard
// @Produce json
// @Param period_offset query int false "Budget period offset from the current cycle (default 0)"
// @Success 200 {object} DashboardSummary "Summary"
// @Failure 400 {object} map[string]interface{} "Bad request"
// @Failure 500 {object} map[string]interface{} "Internal server error"
// @Router /api/dashboard [get]
func getDashboard(c *gin.Context) {
	household, err := householdID(c)
	if err != nil {
		badRequest(c, err.Error())
		return
	}

	periodOffset := 0
	if raw := c.Query("period_offset"); raw != "" {
		periodOffset, err = strconv.Atoi(raw)
		if err != nil {
			badRequest(c, "Invalid period offset")
			return
		}
	}

	sum, err := svc.Dashboard(context.Background(), household, periodOffset)
	if err != nil {
		respondError(c, "building dashboard", err)
		return
	}

	c.JSON(http.StatusOK, DashboardSummary{
		OverdueCount:  sum.OverdueCount,
		OverdueCents:  sum.OverdueCents,
		UpcomingCount: sum.UpcomingCount,
		UpcomingCents: sum.UpcomingCents,
		NextDueDate:   dateStringPtr(sum.NextDueDate),
		PaidCount:     sum.PaidCount,
		PaidCents:     sum.PaidCents,
		Period:        toPeriod(sum.Period),
	})
}
