package handlers

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"

	"example.com/fintrack/backend/internal/auth"
	"example.com/fintrack/backend/internal/models"
	"example.com/fintrack/backend/internal/repository"
)

type LiabilityHandler struct {
	Liabilities *repository.LiabilityRepository
	Timezone    *time.Location
}

// NewLiabilityHandler создает обработчик обязательств.
func NewLiabilityHandler(liabilities *repository.LiabilityRepository, timezone *time.Location) *LiabilityHandler {
	return &LiabilityHandler{Liabilities: liabilities, Timezone: timezone}
}

type CreateLiabilityRequest struct {
	Name               string  `json:"name" validate:"required,max=100"`
	Type               string  `json:"type" validate:"required,oneof=home_loan personal_loan other"`
	PrincipalAmount    string  `json:"principal_amount" validate:"required"`
	OutstandingBalance *string `json:"outstanding_balance"`
	InterestRate       *string `json:"interest_rate"`
}

type UpdateLiabilityRequest struct {
	Name               *string `json:"name" validate:"omitempty,max=100"`
	OutstandingBalance *string `json:"outstanding_balance"`
	InterestRate       *string `json:"interest_rate"`
}

type RecordLiabilityPaymentRequest struct {
	Amount   string  `json:"amount" validate:"required"`
	PaidDate *string `json:"paid_date"`
	Notes    *string `json:"notes" validate:"omitempty,max=1000"`
}

// Create добавляет обязательство.
func (h *LiabilityHandler) Create(c echo.Context) error {
	userID, ok := auth.UserIDFromContext(c)
	if !ok {
		return unauthorized(c)
	}

	var req CreateLiabilityRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return badRequest(c, "validation failed")
	}

	principal, err := parseNonNegativeValue(req.PrincipalAmount)
	if err != nil {
		return badRequest(c, "invalid principal amount")
	}

	outstanding := principal
	if req.OutstandingBalance != nil {
		outstanding, err = parseNonNegativeValue(*req.OutstandingBalance)
		if err != nil {
			return badRequest(c, "invalid outstanding balance")
		}
	}

	interestRate := decimal.Zero
	if req.InterestRate != nil {
		interestRate, err = parseNonNegativeValue(*req.InterestRate)
		if err != nil {
			return badRequest(c, "invalid interest rate")
		}
	}

	liability, err := h.Liabilities.Create(c.Request().Context(), userID, repository.CreateLiabilityParams{
		Name:               strings.TrimSpace(req.Name),
		Type:               models.LiabilityType(req.Type),
		PrincipalAmount:    principal,
		OutstandingBalance: outstanding,
		InterestRate:       interestRate,
	})
	if err != nil {
		if errors.Is(err, repository.ErrInvalid) {
			return badRequest(c, "invalid liability")
		}
		return serverError(c)
	}

	return c.JSON(http.StatusCreated, liability)
}

// List возвращает обязательства пользователя.
func (h *LiabilityHandler) List(c echo.Context) error {
	userID, ok := auth.UserIDFromContext(c)
	if !ok {
		return unauthorized(c)
	}

	liabilities, err := h.Liabilities.ListByUser(c.Request().Context(), userID)
	if err != nil {
		return serverError(c)
	}

	return c.JSON(http.StatusOK, map[string]any{"liabilities": liabilities})
}

// Get возвращает одно обязательство.
func (h *LiabilityHandler) Get(c echo.Context) error {
	userID, ok := auth.UserIDFromContext(c)
	if !ok {
		return unauthorized(c)
	}

	liabilityID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return badRequest(c, "invalid liability id")
	}

	liability, err := h.Liabilities.GetByID(c.Request().Context(), userID, liabilityID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return notFound(c, "liability not found")
		}
		return serverError(c)
	}

	return c.JSON(http.StatusOK, liability)
}

// Update изменяет обязательство.
func (h *LiabilityHandler) Update(c echo.Context) error {
	userID, ok := auth.UserIDFromContext(c)
	if !ok {
		return unauthorized(c)
	}

	liabilityID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return badRequest(c, "invalid liability id")
	}

	var req UpdateLiabilityRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return badRequest(c, "validation failed")
	}

	params := repository.UpdateLiabilityParams{}

	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return badRequest(c, "name must not be empty")
		}
		params.Name = &name
	}

	if req.OutstandingBalance != nil {
		outstanding, err := parseNonNegativeValue(*req.OutstandingBalance)
		if err != nil {
			return badRequest(c, "invalid outstanding balance")
		}
		params.OutstandingBalance = &outstanding
	}

	if req.InterestRate != nil {
		interestRate, err := parseNonNegativeValue(*req.InterestRate)
		if err != nil {
			return badRequest(c, "invalid interest rate")
		}
		params.InterestRate = &interestRate
	}

	liability, err := h.Liabilities.Update(c.Request().Context(), userID, liabilityID, params)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return notFound(c, "liability not found")
		}
		if errors.Is(err, repository.ErrInvalid) {
			return badRequest(c, "invalid liability")
		}
		return serverError(c)
	}

	return c.JSON(http.StatusOK, liability)
}

// Archive скрывает обязательство из расчетов.
func (h *LiabilityHandler) Archive(c echo.Context) error {
	userID, ok := auth.UserIDFromContext(c)
	if !ok {
		return unauthorized(c)
	}

	liabilityID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return badRequest(c, "invalid liability id")
	}

	if err := h.Liabilities.Archive(c.Request().Context(), userID, liabilityID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return notFound(c, "liability not found")
		}
		return serverError(c)
	}

	return c.NoContent(http.StatusNoContent)
}

// RecordPayment уменьшает остаток долга на сумму взноса.
func (h *LiabilityHandler) RecordPayment(c echo.Context) error {
	userID, ok := auth.UserIDFromContext(c)
	if !ok {
		return unauthorized(c)
	}

	liabilityID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return badRequest(c, "invalid liability id")
	}

	var req RecordLiabilityPaymentRequest
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

	paidDate := todayDate(h.Timezone)
	if req.PaidDate != nil {
		paidDate, err = time.Parse(dateLayout, *req.PaidDate)
		if err != nil {
			return badRequest(c, "invalid paid date")
		}
	}

	payment, liability, err := h.Liabilities.RecordPayment(c.Request().Context(), userID, liabilityID, amount, paidDate, req.Notes)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return notFound(c, "liability not found")
		}
		if errors.Is(err, repository.ErrInvalid) {
			return badRequest(c, "invalid payment")
		}
		return serverError(c)
	}

	return c.JSON(http.StatusOK, map[string]any{
		"payment":   payment,
		"liability": liability,
	})
}

// ListPayments возвращает взносы по обязательству.
func (h *LiabilityHandler) ListPayments(c echo.Context) error {
	userID, ok := auth.UserIDFromContext(c)
	if !ok {
		return unauthorized(c)
	}

	liabilityID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return badRequest(c, "invalid liability id")
	}

	payments, err := h.Liabilities.ListPayments(c.Request().Context(), userID, liabilityID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return notFound(c, "liability not found")
		}
		return serverError(c)
	}

	return c.JSON(http.StatusOK, map[string]any{"payments": payments})
}
