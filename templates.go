package main

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"homeledger/internal/bills"
)

// Bill template handler functions

// @Summary Get all bill templates
// @Description Retrieve the household's bill templates, optionally filtered by type and active flag
// @Tags templates
// @Produce json
// @Param type query string false "Bill type filter (expense|income)"
// @Param active query bool false "Only active templates"
// @Success 200 {array} Template "List of bill templates"
// @Failure 400 {object} map[string]interface{} "Bad request"
// @Failure 500 {object} map[string]interface{} "Internal server error"
// @Router /api/templates [get]
func getTemplates(c *gin.Context) {
	household, err := householdID(c)
	if err != nil {
		badRequest(c, err.Error())
		return
	}

	var billType bills.BillType
	if raw := c.Query("type"); raw != "" {
		billType, err = bills.ParseBillType(raw)
		if err != nil {
			respondError(c, "parsing template filter", err)
			return
		}
	}
	activeOnly := c.Query("active") == "true"

	tpls, err := svc.ListTemplates(context.Background(), household, billType, activeOnly)
	if err != nil {
		respondError(c, "fetching templates", err)
		return
	}

	templates := []Template{}
	for _, tpl := range tpls {
		templates = append(templates, toTemplate(tpl))
	}
	c.JSON(http.StatusOK, templates)
}

// @Summary Create bill template
// @Description Create a new recurring bill definition
// @Tags templates
// @Accept json
// @Produce json
// @Param template body TemplateRequest true "Template data (name, bill_type, recurrence_type and its schedule fields required)"
// @Success 201 {object} Template "Created template"
// @Failure 400 {object} map[string]interface{} "Bad request"
// @Failure 500 {object} map[string]interface{} "Internal server error"
// @Router /api/templates [post]
func createTemplate(c *gin.Context) {
	household, err := householdID(c)
	if err != nil {
		badRequest(c, err.Error())
		return
	}

	var req TemplateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request body")
		return
	}

	in, err := templateInputFromRequest(&req)
	if err != nil {
		respondError(c, "parsing template", err)
		return
	}

	tpl, err := svc.CreateTemplate(context.Background(), household, in)
	if err != nil {
		respondError(c, "creating template", err)
		return
	}

	c.JSON(http.StatusCreated, toTemplate(tpl))
}

// @Summary Get bill template
// @Description Retrieve one bill template by ID
// @Tags templates
// @Produce json
// @Param id path string true "Template ID"
// @Success 200 {object} Template "Template"
// @Failure 400 {object} map[string]interface{} "Bad request"
// @Failure 404 {object} map[string]interface{} "Template not found"
// @Failure 500 {object} map[string]interface{} "Internal server error"
// @Router /api/templates/{id} [get]
func getTemplate(c *gin.Context) {
	household, err := householdID(c)
	if err != nil {
		badRequest(c, err.Error())
		return
	}
	id, err := parseIDParam(c)
	if err != nil {
		badRequest(c, "Invalid template ID")
		return
	}

	tpl, err := svc.GetTemplate(context.Background(), household, id)
	if err != nil {
		respondError(c, "fetching template", err)
		return
	}

	c.JSON(http.StatusOK, toTemplate(tpl))
}

// @Summary Update bill template
// @Description Apply a partial update to a bill template; absent fields are left untouched
// @Tags templates
// @Accept json
// @Produce json
// @Param id path string true "Template ID"
// @Param template body TemplateUpdateRequest true "Fields to update"
// @Success 200 {object} Template "Updated template"
// @Failure 400 {object} map[string]interface{} "Bad request"
// @Failure 404 {object} map[string]interface{} "Template not found"
// @Failure 500 {object} map[string]interface{} "Internal server error"
// @Router /api/templates/{id} [put]
func updateTemplate(c *gin.Context) {
	household, err := householdID(c)
	if err != nil {
		badRequest(c, err.Error())
		return
	}
	id, err := parseIDParam(c)
	if err != nil {
		badRequest(c, "Invalid template ID")
		return
	}

	var req TemplateUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request body")
		return
	}

	up, err := templateUpdateFromRequest(&req)
	if err != nil {
		respondError(c, "parsing template update", err)
		return
	}

	tpl, err := svc.UpdateTemplate(context.Background(), household, id, up)
	if err != nil {
		respondError(c, "updating template", err)
		return
	}

	c.JSON(http.StatusOK, toTemplate(tpl))
}

// @Summary Delete bill template
// @Description Delete a template and cascade its occurrences, allocations, payment events, and autopay rule
// @Tags templates
// @Produce json
// @Param id path string true "Template ID"
// @Success 200 {object} map[string]interface{} "Template deleted successfully"
// @Failure 400 {object} map[string]interface{} "Bad request"
// @Failure 404 {object} map[string]interface{} "Template not found"
// @Failure 500 {object} map[string]interface{} "Internal server error"
// @Router /api/templates/{id} [delete]
func deleteTemplate(c *gin.Context) {
	household, err := householdID(c)
	if err != nil {
		badRequest(c, err.Error())
		return
	}
	id, err := parseIDParam(c)
	if err != nil {
		badRequest(c, "Invalid template ID")
		return
	}

	if err := svc.DeleteTemplate(context.Background(), household, id); err != nil {
		respondError(c, "deleting template", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Template deleted successfully"})
}
