package main

import (
	"net/http"
	"testing"
)

// TestGetSettings tests the GET /api/settings endpoint
func TestGetSettings(t *testing.T) {
	resetTestService()

	t.Run("should return defaults when never saved", func(t *testing.T) {
		resp := makeRequest("GET", "/api/settings", nil)

		assertStatusCode(t, http.StatusOK, resp.Code)

		var set Settings
		assertNoError(t, parseJSONResponse(resp, &set))

		if set.Frequency != "monthly" {
			t.Errorf("Expected default frequency monthly, got %s", set.Frequency)
		}
		if set.StartDay != 1 {
			t.Errorf("Expected default start day 1, got %d", set.StartDay)
		}
		if set.ReferenceDate != "2020-01-01" {
			t.Errorf("Expected default reference date 2020-01-01, got %s", set.ReferenceDate)
		}
		if set.RolloverEnabled {
			t.Error("Expected rollover disabled by default")
		}
	})
}

// TestPutSettings tests the PUT /api/settings endpoint
func TestPutSettings(t *testing.T) {
	resetTestService()

	t.Run("should save and return settings", func(t *testing.T) {
		ref := "2024-03-04"
		resp := makeRequest("PUT", "/api/settings", jsonBody(t, SettingsRequest{
			Frequency:       "biweekly",
			StartDay:        1,
			ReferenceDate:   &ref,
			RolloverEnabled: true,
		}))

		assertStatusCode(t, http.StatusOK, resp.Code)

		var set Settings
		assertNoError(t, parseJSONResponse(resp, &set))

		if set.Frequency != "biweekly" || set.ReferenceDate != "2024-03-04" || !set.RolloverEnabled {
			t.Errorf("Unexpected saved settings: %+v", set)
		}

		resp = makeRequest("GET", "/api/settings", nil)
		assertStatusCode(t, http.StatusOK, resp.Code)
		assertNoError(t, parseJSONResponse(resp, &set))
		if set.Frequency != "biweekly" {
			t.Errorf("Expected persisted frequency biweekly, got %s", set.Frequency)
		}
	})

	t.Run("should drive budget period resolution", func(t *testing.T) {
		// With a biweekly cycle anchored 2024-03-04, today (2024-03-15) falls
		// in period 1: Mar 4 through Mar 17.
		resp := makeRequest("GET", "/api/dashboard", nil)
		assertStatusCode(t, http.StatusOK, resp.Code)

		var sum DashboardSummary
		assertNoError(t, parseJSONResponse(resp, &sum))

		if sum.Period.Number != 1 {
			t.Errorf("Expected period 1, got %d", sum.Period.Number)
		}
		if sum.Period.Start != "2024-03-04" || sum.Period.End != "2024-03-17" {
			t.Errorf("Expected Mar 4..Mar 17, got %s..%s", sum.Period.Start, sum.Period.End)
		}
	})

	t.Run("should reject unknown frequency", func(t *testing.T) {
		resp := makeRequest("PUT", "/api/settings", jsonBody(t, SettingsRequest{
			Frequency: "quarterly",
			StartDay:  1,
		}))

		assertStatusCode(t, http.StatusBadRequest, resp.Code)
	})

	t.Run("should reject out-of-range start day", func(t *testing.T) {
		resp := makeRequest("PUT", "/api/settings", jsonBody(t, SettingsRequest{
			Frequency: "monthly",
			StartDay:  0,
		}))

		assertStatusCode(t, http.StatusBadRequest, resp.Code)
	})
}
