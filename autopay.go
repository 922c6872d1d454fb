package main

import (
	"context"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"homeledger/internal/bills"
)

// startAutopayScheduler runs the scheduled autopay batch on a fixed interval
// for every household with an enabled rule. Set AUTOPAY_SCHEDULE_INTERVAL=off
// to rely on an external trigger instead.
func startAutopayScheduler() {
	interval, enabled := autopayScheduleInterval(getEnv("AUTOPAY_SCHEDULE_INTERVAL", "24h"))
	if !enabled {
		log.Println("Autopay scheduler disabled")
		return
	}

	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for range ticker.C {
			runs, err := svc.RunScheduledAutopay(context.Background())
			if err != nil {
				log.Printf("Scheduled autopay: %v", err)
			}
			for _, run := range runs {
				log.Printf("Scheduled autopay run %s: household %s processed=%d success=%d failed=%d skipped=%d",
					run.ID, run.HouseholdID, run.ProcessedCount, run.SuccessCount, run.FailedCount, run.SkippedCount)
			}
		}
	}()
	log.Printf("Autopay scheduler running every %s", interval)
}

// autopayScheduleInterval parses the scheduler interval setting. The second
// return is false when the scheduler is switched off.
func autopayScheduleInterval(raw string) (time.Duration, bool) {
	if raw == "off" {
		return 0, false
	}
	interval, err := time.ParseDuration(raw)
	if err != nil || interval <= 0 {
		log.Printf("Invalid AUTOPAY_SCHEDULE_INTERVAL %q, using 24h", raw)
		return 24 * time.Hour, true
	}
	return interval, true
}

// Autopay handler functions

// @Summary Configure autopay for a template
// @Description Create or replace the autopay rule for a bill template
// @Tags autopay
// @Accept json
// @Produce json
// @Param id path string true "Template ID"
// @Param rule body AutopayRuleRequest true "Autopay rule data (account_id and amount_type required)"
// @Success 200 {object} AutopayRuleView "Configured rule"
// @Failure 400 {object} map[string]interface{} "Bad request"
// @Failure 404 {object} map[string]interface{} "Template or account not found"
// @Failure 500 {object} map[string]interface{} "Internal server error"
// @Router /api/templates/{id}/autopay [put]
func putAutopayRule(c *gin.Context) {
	household, err := householdID(c)
	if err != nil {
		badRequest(c, err.Error())
		return
	}
	templateID, err := parseIDParam(c)
	if err != nil {
		badRequest(c, "Invalid template ID")
		return
	}

	var req AutopayRuleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request body")
		return
	}

	in := bills.AutopayRuleInput{
		Enabled:          req.Enabled,
		DaysBeforeDue:    req.DaysBeforeDue,
		AmountType:       bills.AutopayAmountType(req.AmountType),
		FixedAmountCents: req.FixedAmountCents,
	}
	if req.AccountID != "" {
		accountID, err := uuid.Parse(req.AccountID)
		if err != nil {
			badRequest(c, "Invalid account ID")
			return
		}
		in.AccountID = accountID
	}

	rule, err := svc.PutAutopayRule(context.Background(), household, templateID, in)
	if err != nil {
		respondError(c, "configuring autopay", err)
		return
	}

	c.JSON(http.StatusOK, toAutopayRule(rule))
}

// @Summary Get a template's autopay rule
// @Description Retrieve the autopay rule configured for a bill template
// @Tags autopay
// @Produce json
// @Param id path string true "Template ID"
// @Success 200 {object} AutopayRuleView "Configured rule"
// @Failure 400 {object} map[string]interface{} "Bad request"
// @Failure 404 {object} map[string]interface{} "Rule not found"
// @Failure 500 {object} map[string]interface{} "Internal server error"
// @Router /api/templates/{id}/autopay [get]
func getAutopayRule(c *gin.Context) {
	household, err := householdID(c)
	if err != nil {
		badRequest(c, err.Error())
		return
	}
	templateID, err := parseIDParam(c)
	if err != nil {
		badRequest(c, "Invalid template ID")
		return
	}

	rule, err := svc.GetAutopayRule(context.Background(), household, templateID)
	if err != nil {
		respondError(c, "fetching autopay rule", err)
		return
	}

	c.JSON(http.StatusOK, toAutopayRule(rule))
}

// @Summary Remove a template's autopay rule
// @Description Delete the autopay rule configured for a bill template
// @Tags autopay
// @Produce json
// @Param id path string true "Template ID"
// @Success 200 {object} map[string]interface{} "Rule removed successfully"
// @Failure 400 {object} map[string]interface{} "Bad request"
// @Failure 404 {object} map[string]interface{} "Rule not found"
// @Failure 500 {object} map[string]interface{} "Internal server error"
// @Router /api/templates/{id}/autopay [delete]
func deleteAutopayRule(c *gin.Context) {
	household, err := householdID(c)
	if err != nil {
		badRequest(c, err.Error())
		return
	}
	templateID, err := parseIDParam(c)
	if err != nil {
		badRequest(c, "Invalid template ID")
		return
	}

	if err := svc.DeleteAutopayRule(context.Background(), household, templateID); err != nil {
		respondError(c, "removing autopay rule", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Autopay rule removed successfully"})
}

// @Summary Get all autopay rules
// @Description Retrieve every autopay rule in the household
// @Tags autopay
// @Produce json
// @Success 200 {array} AutopayRuleView "List of rules"
// @Failure 400 {object} map[string]interface{} "Bad request"
// @Failure 500 {object} map[string]interface{} "Internal server error"
// @Router /api/autopay/rules [get]
func getAutopayRules(c *gin.Context) {
	household, err := householdID(c)
	if err != nil {
		badRequest(c, err.Error())
		return
	}

	list, err := svc.ListAutopayRules(context.Background(), household)
	if err != nil {
		respondError(c, "fetching autopay rules", err)
		return
	}

	rules := []AutopayRuleView{}
	for _, rule := range list {
		rules = append(rules, toAutopayRule(rule))
	}
	c.JSON(http.StatusOK, rules)
}

// @Summary Run autopay
// @Description Execute an autopay batch for the household; per-occurrence failures are recorded without aborting the run
// @Tags autopay
// @Accept json
// @Produce json
// @Param run body AutopayRunRequest false "Run options (run_date defaults to today, run_type to manual)"
// @Success 200 {object} AutopayRunView "Finished run with aggregate counts"
// @Failure 400 {object} map[string]interface{} "Bad request"
// @Failure 500 {object} map[string]interface{} "Internal server error"
// @Router /api/autopay/run [post]
func runAutopay(c *gin.Context) {
	household, err := householdID(c)
	if err != nil {
		badRequest(c, err.Error())
		return
	}

	var req AutopayRunRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, "Invalid request body")
			return
		}
	}

	var opts bills.AutopayRunOptions
	if opts.RunDate, err = parseDatePtr(req.RunDate); err != nil {
		badRequest(c, err.Error())
		return
	}
	if req.RunType != "" {
		if opts.RunType, err = bills.ParseAutopayRunType(req.RunType); err != nil {
			respondError(c, "parsing run type", err)
			return
		}
	}

	run, err := svc.RunAutopay(context.Background(), household, opts)
	if err != nil {
		respondError(c, "running autopay", err)
		return
	}

	c.JSON(http.StatusOK, toAutopayRun(run))
}

// @Summary Get autopay run history
// @Description Retrieve recent autopay runs, newest first
// @Tags autopay
// @Produce json
// @Param limit query int false "Maximum runs to return"
// @Success 200 {array} AutopayRunView "List of runs"
// @Failure 400 {object} map[string]interface{} "Bad request"
// @Failure 500 {object} map[string]interface{} "Internal server error"
// @Router /api/autopay/runs [get]
func getAutopayRuns(c *gin.Context) {
	household, err := householdID(c)
	if err != nil {
		badRequest(c, err.Error())
		return
	}
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "0"))

	list, err := svc.ListAutopayRuns(context.Background(), household, limit)
	if err != nil {
		respondError(c, "fetching autopay runs", err)
		return
	}

	runs := []AutopayRunView{}
	for _, run := range list {
		runs = append(runs, toAutopayRun(run))
	}
	c.JSON(http.StatusOK, runs)
}
