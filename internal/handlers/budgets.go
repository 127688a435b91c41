package handlers

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"example.com/fintrack/backend/internal/auth"
	"example.com/fintrack/backend/internal/models"
	"example.com/fintrack/backend/internal/notifications"
	"example.com/fintrack/backend/internal/repository"
)

type BudgetHandler struct {
	Budgets  *repository.BudgetRepository
	Payments *repository.PaymentRepository
	Hub      *notifications.Hub
	Timezone *time.Location
}

// NewBudgetHandler создает обработчик месячных бюджетов.
func NewBudgetHandler(budgets *repository.BudgetRepository, payments *repository.PaymentRepository, hub *notifications.Hub, timezone *time.Location) *BudgetHandler {
	return &BudgetHandler{Budgets: budgets, Payments: payments, Hub: hub, Timezone: timezone}
}

type CreateBudgetItemRequest struct {
	ItemType      string  `json:"item_type" validate:"required,oneof=limit payment"`
	CategoryID    *string `json:"category_id" validate:"omitempty,uuid"`
	SubCategoryID *string `json:"sub_category_id" validate:"omitempty,uuid"`
	Name          string  `json:"name" validate:"required,max=100"`
	Amount        string  `json:"amount" validate:"required"`
}

type UpdateBudgetItemRequest struct {
	Name   *string `json:"name" validate:"omitempty,max=100"`
	Amount *string `json:"amount"`
}

type PayBudgetItemRequest struct {
	AccountID string  `json:"account_id" validate:"required,uuid"`
	Amount    *string `json:"amount"`
	PaidDate  *string `json:"paid_date"`
}

// Get возвращает бюджет периода и его строки, создавая бюджет при первом обращении.
func (h *BudgetHandler) Get(c echo.Context) error {
	userID, ok := auth.UserIDFromContext(c)
	if !ok {
		return unauthorized(c)
	}

	month, year, err := parsePeriod(c.QueryParam("month"), c.QueryParam("year"), h.Timezone)
	if err != nil {
		return badRequest(c, err.Error())
	}

	budget, err := h.Budgets.GetOrCreate(c.Request().Context(), userID, month, year)
	if err != nil {
		if errors.Is(err, repository.ErrInvalid) {
			return badRequest(c, "invalid period")
		}
		return serverError(c)
	}

	items, err := h.Budgets.ListItems(c.Request().Context(), userID, budget.ID)
	if err != nil {
		return serverError(c)
	}

	return c.JSON(http.StatusOK, map[string]any{
		"budget": budget,
		"items":  items,
	})
}

// CreateItem добавляет строку бюджета.
func (h *BudgetHandler) CreateItem(c echo.Context) error {
	userID, ok := auth.UserIDFromContext(c)
	if !ok {
		return unauthorized(c)
	}

	budgetID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return badRequest(c, "invalid budget id")
	}

	var req CreateBudgetItemRequest
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

	categoryID, err := parseOptionalUUID(req.CategoryID)
	if err != nil {
		return badRequest(c, "invalid category id")
	}
	subCategoryID, err := parseOptionalUUID(req.SubCategoryID)
	if err != nil {
		return badRequest(c, "invalid sub-category id")
	}

	item, err := h.Budgets.CreateItem(c.Request().Context(), userID, budgetID, repository.CreateBudgetItemParams{
		ItemType:      models.BudgetItemType(req.ItemType),
		CategoryID:    categoryID,
		SubCategoryID: subCategoryID,
		Name:          strings.TrimSpace(req.Name),
		Amount:        amount,
	})
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrNotFound):
			return notFound(c, "budget not found")
		case errors.Is(err, repository.ErrInvalidReference):
			return badRequest(c, "referenced entity not found")
		case errors.Is(err, repository.ErrInvalid):
			return badRequest(c, "invalid budget item")
		default:
			return serverError(c)
		}
	}

	return c.JSON(http.StatusCreated, item)
}

// UpdateItem изменяет строку бюджета.
func (h *BudgetHandler) UpdateItem(c echo.Context) error {
	userID, ok := auth.UserIDFromContext(c)
	if !ok {
		return unauthorized(c)
	}

	itemID, err := uuid.Parse(c.Param("itemId"))
	if err != nil {
		return badRequest(c, "invalid item id")
	}

	var req UpdateBudgetItemRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return badRequest(c, "validation failed")
	}

	params := repository.UpdateBudgetItemParams{}

	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return badRequest(c, "name must not be empty")
		}
		params.Name = &name
	}

	if req.Amount != nil {
		amount, err := parsePositiveAmount(*req.Amount)
		if err != nil {
			return badRequest(c, "invalid amount")
		}
		params.Amount = &amount
	}

	item, err := h.Budgets.UpdateItem(c.Request().Context(), userID, itemID, params)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrNotFound):
			return notFound(c, "budget item not found")
		case errors.Is(err, repository.ErrInvalidOperation):
			return conflict(c, "paid item cannot be edited")
		case errors.Is(err, repository.ErrInvalid):
			return badRequest(c, "invalid budget item")
		default:
			return serverError(c)
		}
	}

	return c.JSON(http.StatusOK, item)
}

// DeleteItem удаляет строку бюджета.
func (h *BudgetHandler) DeleteItem(c echo.Context) error {
	userID, ok := auth.UserIDFromContext(c)
	if !ok {
		return unauthorized(c)
	}

	itemID, err := uuid.Parse(c.Param("itemId"))
	if err != nil {
		return badRequest(c, "invalid item id")
	}

	if err := h.Budgets.DeleteItem(c.Request().Context(), userID, itemID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return notFound(c, "budget item not found")
		}
		return serverError(c)
	}

	return c.NoContent(http.StatusNoContent)
}

// PayItem отмечает платежную строку оплаченной и записывает транзакцию.
func (h *BudgetHandler) PayItem(c echo.Context) error {
	userID, ok := auth.UserIDFromContext(c)
	if !ok {
		return unauthorized(c)
	}

	itemID, err := uuid.Parse(c.Param("itemId"))
	if err != nil {
		return badRequest(c, "invalid item id")
	}

	var req PayBudgetItemRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return badRequest(c, "validation failed")
	}

	accountID, err := uuid.Parse(req.AccountID)
	if err != nil {
		return badRequest(c, "invalid account id")
	}

	item, err := h.Budgets.GetItemByID(c.Request().Context(), userID, itemID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return notFound(c, "budget item not found")
		}
		return serverError(c)
	}

	amount := item.Amount
	if req.Amount != nil {
		amount, err = parsePositiveAmount(*req.Amount)
		if err != nil {
			return badRequest(c, "invalid amount")
		}
	}

	paidDate := todayDate(h.Timezone)
	if req.PaidDate != nil {
		paidDate, err = time.Parse(dateLayout, *req.PaidDate)
		if err != nil {
			return badRequest(c, "invalid paid date")
		}
	}

	result, err := h.Payments.PayBudgetItem(c.Request().Context(), userID, itemID, repository.PayObligationParams{
		AccountID: accountID,
		Amount:    amount,
		PaidDate:  paidDate,
		Type:      models.TransactionTypeExpense,
	})
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrAlreadyPaid):
			return conflict(c, "item already paid")
		case errors.Is(err, repository.ErrNotFound):
			return notFound(c, "budget item not found")
		case errors.Is(err, repository.ErrInvalidReference):
			return badRequest(c, "account not found")
		case errors.Is(err, repository.ErrInvalidOperation):
			return badRequest(c, "item is not payable")
		case errors.Is(err, repository.ErrInvalid):
			return badRequest(c, "invalid payment")
		default:
			return serverError(c)
		}
	}

	h.Hub.Publish(userID, notifications.Event{
		Type: notifications.EventPaymentRecorded,
		Data: map[string]any{
			"item_id":        itemID,
			"transaction_id": result.Transaction.ID,
		},
	})

	return c.JSON(http.StatusOK, result)
}
