package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"

	"example.com/fintrack/backend/internal/auth"
	"example.com/fintrack/backend/internal/models"
	"example.com/fintrack/backend/internal/repository"
)

type AccountHandler struct {
	Accounts *repository.AccountRepository
}

// NewAccountHandler создает обработчик счетов.
func NewAccountHandler(accounts *repository.AccountRepository) *AccountHandler {
	return &AccountHandler{Accounts: accounts}
}

type CreateAccountRequest struct {
	Name    string `json:"name" validate:"required,max=100"`
	Type    string `json:"type" validate:"required,oneof=cash bank credit_card"`
	Balance string `json:"balance" validate:"required"`
}

type UpdateAccountRequest struct {
	Name    *string `json:"name" validate:"omitempty,max=100"`
	Balance *string `json:"balance"`
}

// Create создает счет пользователя.
func (h *AccountHandler) Create(c echo.Context) error {
	userID, ok := auth.UserIDFromContext(c)
	if !ok {
		return unauthorized(c)
	}

	var req CreateAccountRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return badRequest(c, "validation failed")
	}

	balance, err := decimal.NewFromString(strings.TrimSpace(req.Balance))
	if err != nil {
		return badRequest(c, "invalid balance")
	}

	account, err := h.Accounts.Create(c.Request().Context(), userID, strings.TrimSpace(req.Name), models.AccountType(req.Type), balance)
	if err != nil {
		return serverError(c)
	}

	return c.JSON(http.StatusCreated, account)
}

// List возвращает счета пользователя.
func (h *AccountHandler) List(c echo.Context) error {
	userID, ok := auth.UserIDFromContext(c)
	if !ok {
		return unauthorized(c)
	}

	includeArchived := c.QueryParam("include_archived") == "true"

	accounts, err := h.Accounts.ListByUser(c.Request().Context(), userID, includeArchived)
	if err != nil {
		return serverError(c)
	}

	return c.JSON(http.StatusOK, map[string]any{"accounts": accounts})
}

// Get возвращает один счет.
func (h *AccountHandler) Get(c echo.Context) error {
	userID, ok := auth.UserIDFromContext(c)
	if !ok {
		return unauthorized(c)
	}

	accountID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return badRequest(c, "invalid account id")
	}

	account, err := h.Accounts.GetByID(c.Request().Context(), userID, accountID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return notFound(c, "account not found")
		}
		return serverError(c)
	}

	return c.JSON(http.StatusOK, account)
}

// Update применяет частичное обновление счета.
func (h *AccountHandler) Update(c echo.Context) error {
	userID, ok := auth.UserIDFromContext(c)
	if !ok {
		return unauthorized(c)
	}

	accountID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return badRequest(c, "invalid account id")
	}

	var req UpdateAccountRequest
	if err = c.Bind(&req); err != nil {
		return badRequest(c, "invalid payload")
	}
	if err = c.Validate(&req); err != nil {
		return badRequest(c, "validation failed")
	}

	params := repository.UpdateAccountParams{}
	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return badRequest(c, "name must not be empty")
		}
		params.Name = &name
	}
	if req.Balance != nil {
		balance, err := decimal.NewFromString(strings.TrimSpace(*req.Balance))
		if err != nil {
			return badRequest(c, "invalid balance")
		}
		params.Balance = &balance
	}

	account, err := h.Accounts.Update(c.Request().Context(), userID, accountID, params)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return notFound(c, "account not found")
		}
		return serverError(c)
	}

	return c.JSON(http.StatusOK, account)
}

// SetDefault назначает счет по умолчанию.
func (h *AccountHandler) SetDefault(c echo.Context) error {
	userID, ok := auth.UserIDFromContext(c)
	if !ok {
		return unauthorized(c)
	}

	accountID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return badRequest(c, "invalid account id")
	}

	account, err := h.Accounts.SetDefault(c.Request().Context(), userID, accountID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return notFound(c, "account not found")
		}
		return serverError(c)
	}

	return c.JSON(http.StatusOK, account)
}

// Archive архивирует счет.
func (h *AccountHandler) Archive(c echo.Context) error {
	userID, ok := auth.UserIDFromContext(c)
	if !ok {
		return unauthorized(c)
	}

	accountID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return badRequest(c, "invalid account id")
	}

	if err := h.Accounts.Archive(c.Request().Context(), userID, accountID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return notFound(c, "account not found")
		}
		return serverError(c)
	}

	return c.NoContent(http.StatusNoContent)
}
