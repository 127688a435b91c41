package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"

	"example.com/fintrack/backend/internal/auth"
	"example.com/fintrack/backend/internal/ledger"
	"example.com/fintrack/backend/internal/models"
	"example.com/fintrack/backend/internal/repository"
)

const dateLayout = "2006-01-02"

type TransactionHandler struct {
	Transactions *repository.TransactionRepository
	Timezone     *time.Location
}

// NewTransactionHandler создает обработчик транзакций.
func NewTransactionHandler(transactions *repository.TransactionRepository, timezone *time.Location) *TransactionHandler {
	return &TransactionHandler{Transactions: transactions, Timezone: timezone}
}

// todayDate возвращает сегодняшнюю календарную дату в поясе loc,
// нормализованную к полуночи UTC. Все даты "сегодня" считаются
// в настроенном поясе приложения, а не в поясе сервера.
func todayDate(loc *time.Location) time.Time {
	now := time.Now()
	if loc != nil {
		now = now.In(loc)
	}
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
}

type CreateTransactionRequest struct {
	Type            string  `json:"type" validate:"required,oneof=income expense"`
	Amount          string  `json:"amount" validate:"required"`
	CategoryID      string  `json:"category_id" validate:"required,uuid"`
	SubCategoryID   *string `json:"sub_category_id" validate:"omitempty,uuid"`
	AccountID       *string `json:"account_id" validate:"omitempty,uuid"`
	TransactionDate string  `json:"transaction_date" validate:"required"`
	Description     string  `json:"description" validate:"required,max=255"`
	Notes           *string `json:"notes" validate:"omitempty,max=1000"`
}

type UpdateTransactionRequest struct {
	Amount          *string `json:"amount"`
	CategoryID      *string `json:"category_id" validate:"omitempty,uuid"`
	SubCategoryID   *string `json:"sub_category_id" validate:"omitempty,uuid"`
	AccountID       *string `json:"account_id" validate:"omitempty,uuid"`
	TransactionDate *string `json:"transaction_date"`
	Description     *string `json:"description" validate:"omitempty,max=255"`
	Notes           *string `json:"notes" validate:"omitempty,max=1000"`
}

// Create записывает транзакцию.
func (h *TransactionHandler) Create(c echo.Context) error {
	userID, ok := auth.UserIDFromContext(c)
	if !ok {
		return unauthorized(c)
	}

	var req CreateTransactionRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return badRequest(c, "validation failed")
	}

	amount, err := parsePositiveAmount(req.Amount)
	if err != nil {
		return badRequest(c, "invalid amount")
	}

	transactionDate, err := time.Parse(dateLayout, req.TransactionDate)
	if err != nil {
		return badRequest(c, "invalid transaction date")
	}

	categoryID, err := uuid.Parse(req.CategoryID)
	if err != nil {
		return badRequest(c, "invalid category id")
	}

	subCategoryID, err := parseOptionalUUID(req.SubCategoryID)
	if err != nil {
		return badRequest(c, "invalid sub-category id")
	}

	accountID, err := parseOptionalUUID(req.AccountID)
	if err != nil {
		return badRequest(c, "invalid account id")
	}

	transaction, err := h.Transactions.Create(c.Request().Context(), userID, repository.CreateTransactionParams{
		Type:            models.TransactionType(req.Type),
		Amount:          amount,
		CategoryID:      categoryID,
		SubCategoryID:   subCategoryID,
		AccountID:       accountID,
		TransactionDate: transactionDate,
		Description:     strings.TrimSpace(req.Description),
		Notes:           req.Notes,
	})
	if err != nil {
		if errors.Is(err, repository.ErrInvalidReference) {
			return badRequest(c, "referenced entity not found")
		}
		if errors.Is(err, repository.ErrInvalid) {
			return badRequest(c, "invalid transaction")
		}
		return serverError(c)
	}

	return c.JSON(http.StatusCreated, transaction)
}

// List возвращает транзакции окна, сгруппированные по датам.
func (h *TransactionHandler) List(c echo.Context) error {
	userID, ok := auth.UserIDFromContext(c)
	if !ok {
		return unauthorized(c)
	}

	start, end, err := parseDateWindow(c.QueryParam("start_date"), c.QueryParam("end_date"), h.Timezone)
	if err != nil {
		return badRequest(c, err.Error())
	}

	filters, err := parseTransactionFilters(c)
	if err != nil {
		return badRequest(c, err.Error())
	}

	sortOrder := c.QueryParam("sort")
	if sortOrder != "asc" {
		sortOrder = "desc"
	}

	transactions, err := h.Transactions.ListByDateRange(c.Request().Context(), userID, start, end, filters)
	if err != nil {
		return serverError(c)
	}

	groups := ledger.GroupTransactionsByDate(transactions, sortOrder)

	return c.JSON(http.StatusOK, map[string]any{"groups": groups})
}

// Get возвращает одну транзакцию.
func (h *TransactionHandler) Get(c echo.Context) error {
	userID, ok := auth.UserIDFromContext(c)
	if !ok {
		return unauthorized(c)
	}

	transactionID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return badRequest(c, "invalid transaction id")
	}

	transaction, err := h.Transactions.GetByID(c.Request().Context(), userID, transactionID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return notFound(c, "transaction not found")
		}
		return serverError(c)
	}

	return c.JSON(http.StatusOK, transaction)
}

// Update применяет частичное обновление транзакции.
func (h *TransactionHandler) Update(c echo.Context) error {
	userID, ok := auth.UserIDFromContext(c)
	if !ok {
		return unauthorized(c)
	}

	transactionID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return badRequest(c, "invalid transaction id")
	}

	var req UpdateTransactionRequest
	if err = c.Bind(&req); err != nil {
		return badRequest(c, "invalid payload")
	}
	if err = c.Validate(&req); err != nil {
		return badRequest(c, "validation failed")
	}

	params := repository.UpdateTransactionParams{Notes: req.Notes}

	if req.Amount != nil {
		amount, err := parsePositiveAmount(*req.Amount)
		if err != nil {
			return badRequest(c, "invalid amount")
		}
		params.Amount = &amount
	}

	if req.TransactionDate != nil {
		transactionDate, err := time.Parse(dateLayout, *req.TransactionDate)
		if err != nil {
			return badRequest(c, "invalid transaction date")
		}
		params.TransactionDate = &transactionDate
	}

	if params.CategoryID, err = parseOptionalUUID(req.CategoryID); err != nil {
		return badRequest(c, "invalid category id")
	}
	if params.SubCategoryID, err = parseOptionalUUID(req.SubCategoryID); err != nil {
		return badRequest(c, "invalid sub-category id")
	}
	if params.AccountID, err = parseOptionalUUID(req.AccountID); err != nil {
		return badRequest(c, "invalid account id")
	}

	if req.Description != nil {
		description := strings.TrimSpace(*req.Description)
		if description == "" {
			return badRequest(c, "description must not be empty")
		}
		params.Description = &description
	}

	transaction, err := h.Transactions.Update(c.Request().Context(), userID, transactionID, params)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return notFound(c, "transaction not found")
		}
		if errors.Is(err, repository.ErrInvalidReference) {
			return badRequest(c, "referenced entity not found")
		}
		if errors.Is(err, repository.ErrInvalid) {
			return badRequest(c, "invalid transaction")
		}
		return serverError(c)
	}

	return c.JSON(http.StatusOK, transaction)
}

// Delete удаляет транзакцию.
func (h *TransactionHandler) Delete(c echo.Context) error {
	userID, ok := auth.UserIDFromContext(c)
	if !ok {
		return unauthorized(c)
	}

	transactionID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return badRequest(c, "invalid transaction id")
	}

	if err := h.Transactions.Delete(c.Request().Context(), userID, transactionID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return notFound(c, "transaction not found")
		}
		return serverError(c)
	}

	return c.NoContent(http.StatusNoContent)
}

// parseDateWindow разбирает границы окна; по умолчанию текущий месяц в поясе loc.
func parseDateWindow(start, end string, loc *time.Location) (time.Time, time.Time, error) {
	today := todayDate(loc)

	startDate := time.Date(today.Year(), today.Month(), 1, 0, 0, 0, 0, time.UTC)
	endDate := startDate.AddDate(0, 1, -1)

	var err error
	if strings.TrimSpace(start) != "" {
		startDate, err = time.Parse(dateLayout, strings.TrimSpace(start))
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("invalid start_date")
		}
	}
	if strings.TrimSpace(end) != "" {
		endDate, err = time.Parse(dateLayout, strings.TrimSpace(end))
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("invalid end_date")
		}
	}

	if endDate.Before(startDate) {
		return time.Time{}, time.Time{}, fmt.Errorf("end_date before start_date")
	}

	return startDate, endDate, nil
}

func parseTransactionFilters(c echo.Context) (repository.TransactionFilters, error) {
	var filters repository.TransactionFilters

	if raw := c.QueryParam("type"); raw != "" {
		if raw != "income" && raw != "expense" {
			return filters, fmt.Errorf("invalid type filter")
		}
		transactionType := models.TransactionType(raw)
		filters.Type = &transactionType
	}

	if raw := c.QueryParam("category_id"); raw != "" {
		categoryID, err := uuid.Parse(raw)
		if err != nil {
			return filters, fmt.Errorf("invalid category_id filter")
		}
		filters.CategoryID = &categoryID
	}

	if raw := c.QueryParam("account_id"); raw != "" {
		accountID, err := uuid.Parse(raw)
		if err != nil {
			return filters, fmt.Errorf("invalid account_id filter")
		}
		filters.AccountID = &accountID
	}

	return filters, nil
}

func parsePositiveAmount(raw string) (decimal.Decimal, error) {
	amount, err := decimal.NewFromString(strings.TrimSpace(raw))
	if err != nil {
		return decimal.Decimal{}, err
	}
	if !amount.IsPositive() {
		return decimal.Decimal{}, fmt.Errorf("amount must be positive")
	}
	return amount, nil
}

func parseOptionalUUID(raw *string) (*uuid.UUID, error) {
	if raw == nil || strings.TrimSpace(*raw) == "" {
		return nil, nil
	}

	id, err := uuid.Parse(strings.TrimSpace(*raw))
	if err != nil {
		return nil, err
	}

	return &id, nil
}
