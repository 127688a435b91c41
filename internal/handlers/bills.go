package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"example.com/fintrack/backend/internal/auth"
	"example.com/fintrack/backend/internal/models"
	"example.com/fintrack/backend/internal/notifications"
	"example.com/fintrack/backend/internal/repository"
)

type BillHandler struct {
	Bills    *repository.BillRepository
	Payments *repository.PaymentRepository
	Hub      *notifications.Hub
	Timezone *time.Location
}

// NewBillHandler создает обработчик регулярных платежей.
func NewBillHandler(bills *repository.BillRepository, payments *repository.PaymentRepository, hub *notifications.Hub, timezone *time.Location) *BillHandler {
	return &BillHandler{Bills: bills, Payments: payments, Hub: hub, Timezone: timezone}
}

type CreateBillRequest struct {
	Name          string  `json:"name" validate:"required,max=100"`
	Amount        string  `json:"amount" validate:"required"`
	CategoryID    *string `json:"category_id" validate:"omitempty,uuid"`
	SubCategoryID *string `json:"sub_category_id" validate:"omitempty,uuid"`
	AccountID     *string `json:"account_id" validate:"omitempty,uuid"`
	DueDay        int     `json:"due_day" validate:"required,min=1,max=31"`
}

type UpdateBillRequest struct {
	Name     *string `json:"name" validate:"omitempty,max=100"`
	Amount   *string `json:"amount"`
	DueDay   *int    `json:"due_day" validate:"omitempty,min=1,max=31"`
	IsActive *bool   `json:"is_active"`
}

type PayBillRequest struct {
	Month     int     `json:"month" validate:"required,min=1,max=12"`
	Year      int     `json:"year" validate:"required,min=2000,max=2100"`
	AccountID string  `json:"account_id" validate:"required,uuid"`
	Amount    *string `json:"amount"`
	PaidDate  *string `json:"paid_date"`
}

// Create создает регулярный платеж.
func (h *BillHandler) Create(c echo.Context) error {
	userID, ok := auth.UserIDFromContext(c)
	if !ok {
		return unauthorized(c)
	}

	var req CreateBillRequest
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
	accountID, err := parseOptionalUUID(req.AccountID)
	if err != nil {
		return badRequest(c, "invalid account id")
	}

	bill, err := h.Bills.Create(c.Request().Context(), userID, repository.CreateBillParams{
		Name:          strings.TrimSpace(req.Name),
		Amount:        amount,
		CategoryID:    categoryID,
		SubCategoryID: subCategoryID,
		AccountID:     accountID,
		DueDay:        req.DueDay,
	})
	if err != nil {
		if errors.Is(err, repository.ErrInvalidReference) {
			return badRequest(c, "referenced entity not found")
		}
		if errors.Is(err, repository.ErrInvalid) {
			return badRequest(c, "invalid bill")
		}
		return serverError(c)
	}

	return c.JSON(http.StatusCreated, bill)
}

// List возвращает активные платежи со статусом за период.
func (h *BillHandler) List(c echo.Context) error {
	userID, ok := auth.UserIDFromContext(c)
	if !ok {
		return unauthorized(c)
	}

	month, year, err := parsePeriod(c.QueryParam("month"), c.QueryParam("year"), h.Timezone)
	if err != nil {
		return badRequest(c, err.Error())
	}

	bills, err := h.Bills.ListWithStatus(c.Request().Context(), userID, month, year)
	if err != nil {
		return serverError(c)
	}

	return c.JSON(http.StatusOK, map[string]any{
		"month": month,
		"year":  year,
		"bills": bills,
	})
}

// Get возвращает один регулярный платеж.
func (h *BillHandler) Get(c echo.Context) error {
	userID, ok := auth.UserIDFromContext(c)
	if !ok {
		return unauthorized(c)
	}

	billID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return badRequest(c, "invalid bill id")
	}

	bill, err := h.Bills.GetByID(c.Request().Context(), userID, billID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return notFound(c, "bill not found")
		}
		return serverError(c)
	}

	return c.JSON(http.StatusOK, bill)
}

// Update изменяет регулярный платеж.
func (h *BillHandler) Update(c echo.Context) error {
	userID, ok := auth.UserIDFromContext(c)
	if !ok {
		return unauthorized(c)
	}

	billID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return badRequest(c, "invalid bill id")
	}

	var req UpdateBillRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return badRequest(c, "validation failed")
	}

	params := repository.UpdateBillParams{
		DueDay:   req.DueDay,
		IsActive: req.IsActive,
	}

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

	bill, err := h.Bills.Update(c.Request().Context(), userID, billID, params)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return notFound(c, "bill not found")
		}
		if errors.Is(err, repository.ErrInvalid) {
			return badRequest(c, "invalid bill")
		}
		return serverError(c)
	}

	return c.JSON(http.StatusOK, bill)
}

// Delete удаляет платеж вместе с историей его отметок.
func (h *BillHandler) Delete(c echo.Context) error {
	userID, ok := auth.UserIDFromContext(c)
	if !ok {
		return unauthorized(c)
	}

	billID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return badRequest(c, "invalid bill id")
	}

	if err := h.Bills.Delete(c.Request().Context(), userID, billID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return notFound(c, "bill not found")
		}
		return serverError(c)
	}

	return c.NoContent(http.StatusNoContent)
}

// Pay отмечает платеж оплаченным за период и записывает транзакцию.
func (h *BillHandler) Pay(c echo.Context) error {
	userID, ok := auth.UserIDFromContext(c)
	if !ok {
		return unauthorized(c)
	}

	billID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return badRequest(c, "invalid bill id")
	}

	var req PayBillRequest
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

	bill, err := h.Bills.GetByID(c.Request().Context(), userID, billID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return notFound(c, "bill not found")
		}
		return serverError(c)
	}

	amount := bill.Amount
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

	result, err := h.Payments.PayBill(c.Request().Context(), userID, billID, req.Month, req.Year, repository.PayObligationParams{
		AccountID: accountID,
		Amount:    amount,
		PaidDate:  paidDate,
		Type:      models.TransactionTypeExpense,
	})
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrAlreadyPaid):
			return conflict(c, "bill already paid for this period")
		case errors.Is(err, repository.ErrNotFound):
			return notFound(c, "bill not found")
		case errors.Is(err, repository.ErrInvalidReference):
			return badRequest(c, "account not found")
		case errors.Is(err, repository.ErrInvalidOperation):
			return badRequest(c, "bill has no category")
		case errors.Is(err, repository.ErrInvalid):
			return badRequest(c, "invalid payment")
		default:
			return serverError(c)
		}
	}

	h.Hub.Publish(userID, notifications.Event{
		Type: notifications.EventPaymentRecorded,
		Data: map[string]any{
			"bill_id":        billID,
			"month":          req.Month,
			"year":           req.Year,
			"transaction_id": result.Transaction.ID,
		},
	})

	return c.JSON(http.StatusOK, result)
}

// ListPayments возвращает историю отметок по платежу.
func (h *BillHandler) ListPayments(c echo.Context) error {
	userID, ok := auth.UserIDFromContext(c)
	if !ok {
		return unauthorized(c)
	}

	billID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return badRequest(c, "invalid bill id")
	}

	payments, err := h.Bills.ListPayments(c.Request().Context(), userID, billID)
	if err != nil {
		return serverError(c)
	}

	return c.JSON(http.StatusOK, map[string]any{"payments": payments})
}

// parsePeriod разбирает месяц и год запроса; по умолчанию текущие в поясе loc.
func parsePeriod(rawMonth, rawYear string, loc *time.Location) (int, int, error) {
	today := todayDate(loc)
	month := int(today.Month())
	year := today.Year()

	var err error
	if rawMonth != "" {
		month, err = strconv.Atoi(rawMonth)
		if err != nil || month < 1 || month > 12 {
			return 0, 0, errors.New("invalid month")
		}
	}
	if rawYear != "" {
		year, err = strconv.Atoi(rawYear)
		if err != nil || year < 2000 || year > 2100 {
			return 0, 0, errors.New("invalid year")
		}
	}

	return month, year, nil
}
