package main

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"homeledger/internal/bills"
	"homeledger/internal/budget"
)

// Settings handler functions

// @Summary Get budget settings
// @Description Retrieve the household's budget cycle preferences, or the documented defaults when never saved
// @Tags settings
// @Produce json
// @Success 200 {object} Settings "Budget cycle settings"
// @Failure 400 {object} map[string]interface{} "Bad request"
// @Failure 500 {object} map[string]interface{} "Internal server error"
// @Router /api/settings [get]
func getSettings(c *gin.Context) {
	household, err := householdID(c)
	if err != nil {
		badRequest(c, err.Error())
		return
	}

	set, err := svc.BudgetSettings(context.Background(), household)
	if err != nil {
		respondError(c, "fetching settings", err)
		return
	}

	c.JSON(http.StatusOK, toSettings(set))
}

// @Summary Save budget settings
// @Description Save the household's budget cycle frequency, start day, and reference date
// @Tags settings
// @Accept json
// @Produce json
// @Param settings body SettingsRequest true "Budget cycle settings"
// @Success 200 {object} Settings "Saved settings"
// @Failure 400 {object} map[string]interface{} "Bad request"
// @Failure 500 {object} map[string]interface{} "Internal server error"
// @Router /api/settings [put]
func putSettings(c *gin.Context) {
	household, err := householdID(c)
	if err != nil {
		badRequest(c, err.Error())
		return
	}

	var req SettingsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request body")
		return
	}

	in := bills.BudgetSettingsInput{
		Frequency:       budget.Frequency(req.Frequency),
		StartDay:        req.StartDay,
		RolloverEnabled: req.RolloverEnabled,
	}
	if in.ReferenceDate, err = parseDatePtr(req.ReferenceDate); err != nil {
		badRequest(c, err.Error())
		return
	}

	set, err := svc.PutBudgetSettings(context.Background(), household, in)
	if err != nil {
		respondError(c, "saving settings", err)
		return
	}

	c.JSON(http.StatusOK, toSettings(set))
}
