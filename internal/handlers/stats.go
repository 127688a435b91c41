package handlers

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"example.com/fintrack/backend/internal/auth"
	"example.com/fintrack/backend/internal/ledger"
	"example.com/fintrack/backend/internal/repository"
)

type StatsHandler struct {
	Transactions *repository.TransactionRepository
	Timezone     *time.Location
}

// NewStatsHandler создает обработчик сводной аналитики.
func NewStatsHandler(transactions *repository.TransactionRepository, timezone *time.Location) *StatsHandler {
	return &StatsHandler{Transactions: transactions, Timezone: timezone}
}

// SpendingBreakdown возвращает расходы окна по категориям и подкатегориям.
func (h *StatsHandler) SpendingBreakdown(c echo.Context) error {
	userID, ok := auth.UserIDFromContext(c)
	if !ok {
		return unauthorized(c)
	}

	start, end, err := parseDateWindow(c.QueryParam("start_date"), c.QueryParam("end_date"), h.Timezone)
	if err != nil {
		return badRequest(c, err.Error())
	}

	rows, err := h.Transactions.ListSpendingRows(c.Request().Context(), userID, start, end)
	if err != nil {
		return serverError(c)
	}

	entries := make([]ledger.SpendingEntry, 0, len(rows))
	for _, row := range rows {
		entries = append(entries, ledger.SpendingEntry{
			Amount:          row.Amount,
			CategoryID:      row.CategoryID,
			CategoryName:    row.CategoryName,
			SubCategoryID:   row.SubCategoryID,
			SubCategoryName: row.SubCategoryName,
		})
	}

	return c.JSON(http.StatusOK, ledger.BuildSpendingBreakdown(entries))
}
