package main

import (
	"net/http"
	"testing"
	"time"
)

// autopayRuleRequest returns a valid remaining-amount rule for an account.
func autopayRuleRequest(accountID string, daysBeforeDue int) AutopayRuleRequest {
	return AutopayRuleRequest{
		Enabled:       true,
		DaysBeforeDue: daysBeforeDue,
		AmountType:    "remaining",
		AccountID:     accountID,
	}
}

// TestPutAutopayRule tests the PUT /api/templates/:id/autopay endpoint
func TestPutAutopayRule(t *testing.T) {
	resetTestService()

	t.Run("should configure autopay for a template", func(t *testing.T) {
		tpl := createTestTemplate(t, monthlyTemplateRequest("Mortgage", 1, 210000))
		account := createTestAccount(t, "Checking", 500000)

		resp := makeRequest("PUT", "/api/templates/"+tpl.ID+"/autopay", jsonBody(t, autopayRuleRequest(account.ID, 3)))

		assertStatusCode(t, http.StatusOK, resp.Code)

		var rule AutopayRuleView
		assertNoError(t, parseJSONResponse(resp, &rule))

		if rule.TemplateID != tpl.ID {
			t.Errorf("Expected rule for template %s, got %s", tpl.ID, rule.TemplateID)
		}
		if !rule.Enabled || rule.DaysBeforeDue != 3 {
			t.Errorf("Unexpected rule: %+v", rule)
		}
	})

	t.Run("should replace an existing rule keeping its identity", func(t *testing.T) {
		tpl := createTestTemplate(t, monthlyTemplateRequest("HOA", 5, 30000))
		account := createTestAccount(t, "HOA Funding", 500000)

		resp := makeRequest("PUT", "/api/templates/"+tpl.ID+"/autopay", jsonBody(t, autopayRuleRequest(account.ID, 1)))
		assertStatusCode(t, http.StatusOK, resp.Code)
		var first AutopayRuleView
		assertNoError(t, parseJSONResponse(resp, &first))

		update := autopayRuleRequest(account.ID, 7)
		update.Enabled = false
		resp = makeRequest("PUT", "/api/templates/"+tpl.ID+"/autopay", jsonBody(t, update))
		assertStatusCode(t, http.StatusOK, resp.Code)
		var second AutopayRuleView
		assertNoError(t, parseJSONResponse(resp, &second))

		if second.ID != first.ID {
			t.Error("Expected replacement to keep the rule ID")
		}
		if second.Enabled || second.DaysBeforeDue != 7 {
			t.Errorf("Expected replaced values, got %+v", second)
		}
	})

	t.Run("should reject fixed amount type without a positive amount", func(t *testing.T) {
		tpl := createTestTemplate(t, monthlyTemplateRequest("Cable", 9, 9000))
		account := createTestAccount(t, "Cable Funding", 500000)

		req := autopayRuleRequest(account.ID, 2)
		req.AmountType = "fixed"
		resp := makeRequest("PUT", "/api/templates/"+tpl.ID+"/autopay", jsonBody(t, req))

		assertStatusCode(t, http.StatusBadRequest, resp.Code)
	})

	t.Run("should reject rule without a funding account", func(t *testing.T) {
		tpl := createTestTemplate(t, monthlyTemplateRequest("Power", 11, 11000))

		resp := makeRequest("PUT", "/api/templates/"+tpl.ID+"/autopay", jsonBody(t, autopayRuleRequest("", 2)))

		assertStatusCode(t, http.StatusBadRequest, resp.Code)
	})

	t.Run("should return 404 for non-existent template", func(t *testing.T) {
		account := createTestAccount(t, "Orphan Funding", 1000)

		resp := makeRequest("PUT", "/api/templates/00000000-0000-0000-0000-000000000001/autopay", jsonBody(t, autopayRuleRequest(account.ID, 2)))

		assertStatusCode(t, http.StatusNotFound, resp.Code)
	})
}

// TestGetAutopayRule tests the GET /api/templates/:id/autopay endpoint
func TestGetAutopayRule(t *testing.T) {
	resetTestService()

	t.Run("should return configured rule", func(t *testing.T) {
		tpl := createTestTemplate(t, monthlyTemplateRequest("Mortgage", 1, 210000))
		account := createTestAccount(t, "Checking", 500000)

		resp := makeRequest("PUT", "/api/templates/"+tpl.ID+"/autopay", jsonBody(t, autopayRuleRequest(account.ID, 3)))
		assertStatusCode(t, http.StatusOK, resp.Code)

		resp = makeRequest("GET", "/api/templates/"+tpl.ID+"/autopay", nil)
		assertStatusCode(t, http.StatusOK, resp.Code)

		var rule AutopayRuleView
		assertNoError(t, parseJSONResponse(resp, &rule))

		if rule.AccountID != account.ID {
			t.Errorf("Expected account %s, got %s", account.ID, rule.AccountID)
		}
	})

	t.Run("should return 404 when no rule configured", func(t *testing.T) {
		tpl := createTestTemplate(t, monthlyTemplateRequest("No Rule", 2, 1000))

		resp := makeRequest("GET", "/api/templates/"+tpl.ID+"/autopay", nil)

		assertStatusCode(t, http.StatusNotFound, resp.Code)
	})
}

// TestDeleteAutopayRule tests the DELETE /api/templates/:id/autopay endpoint
func TestDeleteAutopayRule(t *testing.T) {
	resetTestService()

	t.Run("should remove configured rule", func(t *testing.T) {
		tpl := createTestTemplate(t, monthlyTemplateRequest("Mortgage", 1, 210000))
		account := createTestAccount(t, "Checking", 500000)

		resp := makeRequest("PUT", "/api/templates/"+tpl.ID+"/autopay", jsonBody(t, autopayRuleRequest(account.ID, 3)))
		assertStatusCode(t, http.StatusOK, resp.Code)

		resp = makeRequest("DELETE", "/api/templates/"+tpl.ID+"/autopay", nil)
		assertStatusCode(t, http.StatusOK, resp.Code)

		resp = makeRequest("GET", "/api/templates/"+tpl.ID+"/autopay", nil)
		assertStatusCode(t, http.StatusNotFound, resp.Code)
	})

	t.Run("should return 404 when no rule configured", func(t *testing.T) {
		tpl := createTestTemplate(t, monthlyTemplateRequest("Nothing Here", 2, 1000))

		resp := makeRequest("DELETE", "/api/templates/"+tpl.ID+"/autopay", nil)

		assertStatusCode(t, http.StatusNotFound, resp.Code)
	})
}

// TestRunAutopay tests the POST /api/autopay/run endpoint
func TestRunAutopay(t *testing.T) {
	t.Run("should pay occurrences whose trigger date matches the run date", func(t *testing.T) {
		resetTestService()

		// Today is 2024-03-15; with 5 lead days the rule triggers for the
		// March 20 occurrence.
		tpl := createTestTemplate(t, monthlyTemplateRequest("Insurance", 20, 12000))
		account := createTestAccount(t, "Checking", 500000)

		resp := makeRequest("PUT", "/api/templates/"+tpl.ID+"/autopay", jsonBody(t, autopayRuleRequest(account.ID, 5)))
		assertStatusCode(t, http.StatusOK, resp.Code)

		resp = makeRequest("POST", "/api/autopay/run", nil)
		assertStatusCode(t, http.StatusOK, resp.Code)

		var run AutopayRunView
		assertNoError(t, parseJSONResponse(resp, &run))

		if run.Status != "completed" {
			t.Errorf("Expected status completed, got %s", run.Status)
		}
		if run.ProcessedCount != 1 || run.SuccessCount != 1 {
			t.Errorf("Expected 1 processed and 1 success, got %+v", run)
		}
		if run.TotalAmountCents != 12000 {
			t.Errorf("Expected total 12000, got %d", run.TotalAmountCents)
		}
		if run.RunType != "manual" {
			t.Errorf("Expected run type manual, got %s", run.RunType)
		}

		occ := occurrenceByDueDate(t, tpl.ID, "2024-03-20")
		if occ.Status != "paid" {
			t.Errorf("Expected occurrence paid, got %s", occ.Status)
		}
		if balance := getAccountBalance(t, account.ID); balance != 500000-12000 {
			t.Errorf("Expected balance %d, got %d", 500000-12000, balance)
		}

		// The recorded payment carries the autopay method.
		pResp := makeRequest("GET", "/api/occurrences/"+occ.ID+"/payments", nil)
		assertStatusCode(t, http.StatusOK, pResp.Code)
		var events []PaymentEvent
		assertNoError(t, parseJSONResponse(pResp, &events))
		if len(events) != 1 || events[0].Method != "autopay" {
			t.Errorf("Expected one autopay payment event, got %+v", events)
		}
	})

	t.Run("should count matches without paying on a dry run", func(t *testing.T) {
		resetTestService()

		tpl := createTestTemplate(t, monthlyTemplateRequest("Insurance", 20, 12000))
		account := createTestAccount(t, "Checking", 500000)

		resp := makeRequest("PUT", "/api/templates/"+tpl.ID+"/autopay", jsonBody(t, autopayRuleRequest(account.ID, 5)))
		assertStatusCode(t, http.StatusOK, resp.Code)

		resp = makeRequest("POST", "/api/autopay/run", jsonBody(t, AutopayRunRequest{RunType: "dry_run"}))
		assertStatusCode(t, http.StatusOK, resp.Code)

		var run AutopayRunView
		assertNoError(t, parseJSONResponse(resp, &run))

		if run.ProcessedCount != 1 || run.SkippedCount != 1 || run.SuccessCount != 0 {
			t.Errorf("Expected a counted but unpaid match, got %+v", run)
		}
		if balance := getAccountBalance(t, account.ID); balance != 500000 {
			t.Errorf("Expected untouched balance, got %d", balance)
		}
	})

	t.Run("should cap a fixed amount at the remaining balance", func(t *testing.T) {
		resetTestService()

		tpl := createTestTemplate(t, monthlyTemplateRequest("Card Minimum", 20, 8000))
		account := createTestAccount(t, "Checking", 500000)

		req := autopayRuleRequest(account.ID, 5)
		req.AmountType = "fixed"
		req.FixedAmountCents = 5000
		resp := makeRequest("PUT", "/api/templates/"+tpl.ID+"/autopay", jsonBody(t, req))
		assertStatusCode(t, http.StatusOK, resp.Code)

		resp = makeRequest("POST", "/api/autopay/run", nil)
		assertStatusCode(t, http.StatusOK, resp.Code)

		var run AutopayRunView
		assertNoError(t, parseJSONResponse(resp, &run))

		if run.TotalAmountCents != 5000 {
			t.Errorf("Expected fixed amount 5000 paid, got %d", run.TotalAmountCents)
		}

		occ := occurrenceByDueDate(t, tpl.ID, "2024-03-20")
		if occ.Status != "partial" {
			t.Errorf("Expected partial occurrence, got %s", occ.Status)
		}
		if occ.AmountRemainingCents != 3000 {
			t.Errorf("Expected remaining 3000, got %d", occ.AmountRemainingCents)
		}
	})

	t.Run("should honor an explicit run date", func(t *testing.T) {
		resetTestService()

		tpl := createTestTemplate(t, monthlyTemplateRequest("Water", 10, 5600))
		account := createTestAccount(t, "Checking", 500000)

		resp := makeRequest("PUT", "/api/templates/"+tpl.ID+"/autopay", jsonBody(t, autopayRuleRequest(account.ID, 2)))
		assertStatusCode(t, http.StatusOK, resp.Code)

		runDate := "2024-04-08"
		resp = makeRequest("POST", "/api/autopay/run", jsonBody(t, AutopayRunRequest{RunDate: &runDate}))
		assertStatusCode(t, http.StatusOK, resp.Code)

		var run AutopayRunView
		assertNoError(t, parseJSONResponse(resp, &run))

		if run.SuccessCount != 1 {
			t.Fatalf("Expected the April 10 occurrence paid, got %+v", run)
		}

		occ := occurrenceByDueDate(t, tpl.ID, "2024-04-10")
		if occ.Status != "paid" {
			t.Errorf("Expected occurrence paid, got %s", occ.Status)
		}
	})

	t.Run("should skip disabled rules", func(t *testing.T) {
		resetTestService()

		tpl := createTestTemplate(t, monthlyTemplateRequest("Disabled Bill", 20, 4000))
		account := createTestAccount(t, "Checking", 500000)

		req := autopayRuleRequest(account.ID, 5)
		req.Enabled = false
		resp := makeRequest("PUT", "/api/templates/"+tpl.ID+"/autopay", jsonBody(t, req))
		assertStatusCode(t, http.StatusOK, resp.Code)

		resp = makeRequest("POST", "/api/autopay/run", nil)
		assertStatusCode(t, http.StatusOK, resp.Code)

		var run AutopayRunView
		assertNoError(t, parseJSONResponse(resp, &run))

		if run.ProcessedCount != 0 {
			t.Errorf("Expected no candidates, got %+v", run)
		}
	})

	t.Run("should reject unknown run type", func(t *testing.T) {
		resetTestService()

		resp := makeRequest("POST", "/api/autopay/run", jsonBody(t, AutopayRunRequest{RunType: "hourly"}))

		assertStatusCode(t, http.StatusBadRequest, resp.Code)
	})
}

// TestGetAutopayRuns tests the GET /api/autopay/runs endpoint
func TestGetAutopayRuns(t *testing.T) {
	resetTestService()

	t.Run("should list runs newest first", func(t *testing.T) {
		resp := makeRequest("POST", "/api/autopay/run", nil)
		assertStatusCode(t, http.StatusOK, resp.Code)

		resp = makeRequest("POST", "/api/autopay/run", jsonBody(t, AutopayRunRequest{RunType: "dry_run"}))
		assertStatusCode(t, http.StatusOK, resp.Code)

		resp = makeRequest("GET", "/api/autopay/runs", nil)
		assertStatusCode(t, http.StatusOK, resp.Code)

		var runs []AutopayRunView
		assertNoError(t, parseJSONResponse(resp, &runs))

		if len(runs) != 2 {
			t.Fatalf("Expected 2 runs, got %d", len(runs))
		}
		if runs[0].RunType != "dry_run" {
			t.Errorf("Expected newest run first, got %s", runs[0].RunType)
		}
	})
}

// TestGetAutopayRulesList tests the GET /api/autopay/rules endpoint
func TestGetAutopayRulesList(t *testing.T) {
	resetTestService()

	t.Run("should list every rule in the household", func(t *testing.T) {
		account := createTestAccount(t, "Checking", 500000)
		tplA := createTestTemplate(t, monthlyTemplateRequest("Bill A", 1, 1000))
		tplB := createTestTemplate(t, monthlyTemplateRequest("Bill B", 2, 2000))

		for _, tpl := range []Template{tplA, tplB} {
			resp := makeRequest("PUT", "/api/templates/"+tpl.ID+"/autopay", jsonBody(t, autopayRuleRequest(account.ID, 1)))
			assertStatusCode(t, http.StatusOK, resp.Code)
		}

		resp := makeRequest("GET", "/api/autopay/rules", nil)
		assertStatusCode(t, http.StatusOK, resp.Code)

		var rules []AutopayRuleView
		assertNoError(t, parseJSONResponse(resp, &rules))

		if len(rules) != 2 {
			t.Errorf("Expected 2 rules, got %d", len(rules))
		}
	})
}

// TestAutopayScheduleInterval tests the AUTOPAY_SCHEDULE_INTERVAL parsing
func TestAutopayScheduleInterval(t *testing.T) {
	t.Run("should disable the scheduler for off", func(t *testing.T) {
		if _, enabled := autopayScheduleInterval("off"); enabled {
			t.Error("Expected scheduler disabled for off")
		}
	})

	t.Run("should parse a duration", func(t *testing.T) {
		interval, enabled := autopayScheduleInterval("6h")
		if !enabled || interval != 6*time.Hour {
			t.Errorf("Expected 6h enabled, got %s/%v", interval, enabled)
		}
	})

	t.Run("should fall back to daily on bad input", func(t *testing.T) {
		for _, raw := range []string{"soon", "-1m", "0s"} {
			interval, enabled := autopayScheduleInterval(raw)
			if !enabled || interval != 24*time.Hour {
				t.Errorf("Expected 24h fallback for %q, got %s/%v", raw, interval, enabled)
			}
		}
	})
}
