package main

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"homeledger/internal/bills"
)

// Account handler functions

// @Summary Get all accounts
// @Description Retrieve the household's money accounts
// @Tags accounts
// @Produce json
// @Success 200 {array} Account "List of accounts"
// @Failure 400 {object} map[string]interface{} "Bad request"
// @Failure 500 {object} map[string]interface{} "Internal server error"
// @Router /api/accounts [get]
func getAccounts(c *gin.Context) {
	household, err := householdID(c)
	if err != nil {
		badRequest(c, err.Error())
		return
	}

	accs, err := svc.ListAccounts(context.Background(), household)
	if err != nil {
		respondError(c, "fetching accounts", err)
		return
	}

	accounts := []Account{}
	for _, acc := range accs {
		accounts = append(accounts, toAccount(acc))
	}
	c.JSON(http.StatusOK, accounts)
}

// @Summary Create account
// @Description Create a new money account with an opening balance
// @Tags accounts
// @Accept json
// @Produce json
// @Param account body AccountRequest true "Account data (name and account_type required)"
// @Success 201 {object} Account "Created account"
// @Failure 400 {object} map[string]interface{} "Bad request"
// @Failure 500 {object} map[string]interface{} "Internal server error"
// @Router /api/accounts [post]
func createAccount(c *gin.Context) {
	household, err := householdID(c)
	if err != nil {
		badRequest(c, err.Error())
		return
	}

	var req AccountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request body")
		return
	}

	acc, err := svc.CreateAccount(context.Background(), household, bills.AccountInput{
		Name:                req.Name,
		AccountType:         bills.AccountType(req.AccountType),
		OpeningBalanceCents: req.OpeningBalanceCents,
	})
	if err != nil {
		respondError(c, "creating account", err)
		return
	}

	c.JSON(http.StatusCreated, toAccount(acc))
}

// @Summary Get account
// @Description Retrieve one account by ID
// @Tags accounts
// @Produce json
// @Param id path string true "Account ID"
// @Success 200 {object} Account "Account"
// @Failure 400 {object} map[string]interface{} "Bad request"
// @Failure 404 {object} map[string]interface{} "Account not found"
// @Failure 500 {object} map[string]interface{} "Internal server error"
// @Router /api/accounts/{id} [get]
func getAccount(c *gin.Context) {
	household, err := householdID(c)
	if err != nil {
		badRequest(c, err.Error())
		return
	}
	id, err := parseIDParam(c)
	if err != nil {
		badRequest(c, "Invalid account ID")
		return
	}

	acc, err := svc.GetAccount(context.Background(), household, id)
	if err != nil {
		respondError(c, "fetching account", err)
		return
	}

	c.JSON(http.StatusOK, toAccount(acc))
}

// @Summary Adjust account balance
// @Description Apply a manual signed adjustment to an account balance, recorded as a money movement
// @Tags accounts
// @Accept json
// @Produce json
// @Param id path string true "Account ID"
// @Param adjustment body object true "Adjustment data (delta_cents, optional notes)"
// @Success 200 {object} Account "Account with new balance"
// @Failure 400 {object} map[string]interface{} "Bad request"
// @Failure 404 {object} map[string]interface{} "Account not found"
// @Failure 500 {object} map[string]interface{} "Internal server error"
// @Router /api/accounts/{id}/adjust [post]
func adjustAccount(c *gin.Context) {
	household, err := householdID(c)
	if err != nil {
		badRequest(c, err.Error())
		return
	}
	id, err := parseIDParam(c)
	if err != nil {
		badRequest(c, "Invalid account ID")
		return
	}

	var req struct {
		DeltaCents int64  `json:"delta_cents"`
		Notes      string `json:"notes"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request body")
		return
	}

	acc, err := svc.AdjustAccountBalance(context.Background(), household, id, req.DeltaCents, req.Notes)
	if err != nil {
		respondError(c, "adjusting account balance", err)
		return
	}

	c.JSON(http.StatusOK, toAccount(acc))
}

// @Summary Get account transactions
// @Description Retrieve an account's money movements, newest first
// @Tags accounts
// @Produce json
// @Param id path string true "Account ID"
// @Param limit query int false "Maximum rows to return"
// @Success 200 {array} AccountTransaction "List of money movements"
// @Failure 400 {object} map[string]interface{} "Bad request"
// @Failure 404 {object} map[string]interface{} "Account not found"
// @Failure 500 {object} map[string]interface{} "Internal server error"
// @Router /api/accounts/{id}/transactions [get]
func getAccountTransactions(c *gin.Context) {
	household, err := householdID(c)
	if err != nil {
		badRequest(c, err.Error())
		return
	}
	id, err := parseIDParam(c)
	if err != nil {
		badRequest(c, "Invalid account ID")
		return
	}
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "0"))

	txns, err := svc.AccountHistory(context.Background(), household, id, limit)
	if err != nil {
		respondError(c, "fetching account transactions", err)
		return
	}

	transactions := []AccountTransaction{}
	for _, txn := range txns {
		transactions = append(transactions, toAccountTransaction(txn))
	}
	c.JSON(http.StatusOK, transactions)
}
