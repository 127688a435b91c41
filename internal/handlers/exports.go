package handlers

import (
	"bytes"
	"encoding/csv"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"example.com/fintrack/backend/internal/auth"
	"example.com/fintrack/backend/internal/models"
)

// ExportCSV выгружает транзакции окна в CSV-файл.
func (h *TransactionHandler) ExportCSV(c echo.Context) error {
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

	transactions, err := h.Transactions.ListByDateRange(c.Request().Context(), userID, start, end, filters)
	if err != nil {
		return serverError(c)
	}

	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	if err := writeTransactionsCSV(writer, transactions); err != nil {
		return serverError(c)
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return serverError(c)
	}

	filename := "transactions-" + start.Format(dateLayout) + "-" + end.Format(dateLayout) + ".csv"
	c.Response().Header().Set(echo.HeaderContentDisposition, "attachment; filename=\""+filename+"\"")
	return c.Blob(http.StatusOK, "text/csv; charset=utf-8", buf.Bytes())
}

func writeTransactionsCSV(writer *csv.Writer, transactions []models.Transaction) error {
	header := []string{
		"id",
		"type",
		"amount",
		"category_id",
		"sub_category_id",
		"account_id",
		"transaction_date",
		"description",
		"notes",
	}
	if err := writer.Write(header); err != nil {
		return err
	}

	for _, t := range transactions {
		record := []string{
			t.ID.String(),
			string(t.Type),
			t.Amount.String(),
			t.CategoryID.String(),
			formatOptionalUUID(t.SubCategoryID),
			formatOptionalUUID(t.AccountID),
			t.TransactionDate.Format(dateLayout),
			t.Description,
			formatOptionalString(t.Notes),
		}
		if err := writer.Write(record); err != nil {
			return err
		}
	}

	return nil
}

func formatOptionalUUID(id *uuid.UUID) string {
	if id == nil {
		return ""
	}
	return id.String()
}

func formatOptionalString(value *string) string {
	if value == nil {
		return ""
	}
	return *value
}
