package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"example.com/fintrack/backend/internal/models"
)

type BillRepository struct {
	db *pgxpool.Pool
}

type CreateBillParams struct {
	Name          string
	Amount        decimal.Decimal
	CategoryID    *uuid.UUID
	SubCategoryID *uuid.UUID
	AccountID     *uuid.UUID
	DueDay        int
}

type UpdateBillParams struct {
	Name     *string
	Amount   *decimal.Decimal
	DueDay   *int
	IsActive *bool
}

// BillWithStatus is a bill joined with its payment record for one period.
type BillWithStatus struct {
	Bill    models.RecurringBill
	Payment *models.BillPayment
}

// NewBillRepository создает репозиторий регулярных платежей.
func NewBillRepository(db *pgxpool.Pool) *BillRepository {
	return &BillRepository{db: db}
}

const billColumns = `id, user_id, name, amount, category_id, sub_category_id, account_id, due_day, is_active, created_at, updated_at`

func scanBill(row pgx.Row) (models.RecurringBill, error) {
	var bill models.RecurringBill
	err := row.Scan(&bill.ID, &bill.UserID, &bill.Name, &bill.Amount, &bill.CategoryID,
		&bill.SubCategoryID, &bill.AccountID, &bill.DueDay, &bill.IsActive, &bill.CreatedAt, &bill.UpdatedAt)
	return bill, err
}

// Create создает регулярный платеж.
func (r *BillRepository) Create(ctx context.Context, userID uuid.UUID, params CreateBillParams) (models.RecurringBill, error) {
	if params.DueDay < 1 || params.DueDay > 31 {
		return models.RecurringBill{}, ErrInvalid
	}

	if params.CategoryID != nil {
		if err := checkCategoryOwned(ctx, r.db, userID, *params.CategoryID); err != nil {
			return models.RecurringBill{}, err
		}
	}

	if params.AccountID != nil {
		if err := checkAccountOwned(ctx, r.db, userID, *params.AccountID); err != nil {
			return models.RecurringBill{}, err
		}
	}

	bill, err := scanBill(r.db.QueryRow(ctx,
		`INSERT INTO recurring_bills (id, user_id, name, amount, category_id, sub_category_id, account_id, due_day)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		 RETURNING `+billColumns,
		uuid.New(), userID, params.Name, params.Amount, params.CategoryID, params.SubCategoryID, params.AccountID, params.DueDay,
	))
	if err != nil {
		return models.RecurringBill{}, err
	}

	return bill, nil
}

// GetByID возвращает регулярный платеж пользователя.
func (r *BillRepository) GetByID(ctx context.Context, userID, billID uuid.UUID) (models.RecurringBill, error) {
	bill, err := scanBill(r.db.QueryRow(ctx,
		`SELECT `+billColumns+`
		 FROM recurring_bills
		 WHERE id = $1 AND user_id = $2`,
		billID, userID,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return bill, ErrNotFound
		}
		return bill, err
	}

	return bill, nil
}

// ListWithStatus возвращает активные платежи со статусом оплаты за период.
func (r *BillRepository) ListWithStatus(ctx context.Context, userID uuid.UUID, month, year int) ([]BillWithStatus, error) {
	rows, err := r.db.Query(ctx,
		`SELECT b.id, b.user_id, b.name, b.amount, b.category_id, b.sub_category_id, b.account_id,
		        b.due_day, b.is_active, b.created_at, b.updated_at,
		        p.id, p.month, p.year, p.is_paid, p.paid_date, p.paid_amount, p.account_id, p.transaction_id, p.created_at, p.updated_at
		 FROM recurring_bills b
		 LEFT JOIN bill_payments p ON p.bill_id = b.id AND p.month = $2 AND p.year = $3
		 WHERE b.user_id = $1 AND b.is_active
		 ORDER BY b.due_day, b.created_at`,
		userID, month, year,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	bills := make([]BillWithStatus, 0)
	for rows.Next() {
		var bill models.RecurringBill
		var payment models.BillPayment

		// Платеж за период может отсутствовать, поэтому все его колонки
		// читаются через nullable-указатели.
		var paymentID *uuid.UUID
		var pMonth, pYear *int
		var pIsPaid *bool
		var pCreatedAt, pUpdatedAt *time.Time

		err := rows.Scan(&bill.ID, &bill.UserID, &bill.Name, &bill.Amount, &bill.CategoryID,
			&bill.SubCategoryID, &bill.AccountID, &bill.DueDay, &bill.IsActive, &bill.CreatedAt, &bill.UpdatedAt,
			&paymentID, &pMonth, &pYear, &pIsPaid, &payment.PaidDate,
			&payment.PaidAmount, &payment.AccountID, &payment.TransactionID, &pCreatedAt, &pUpdatedAt)
		if err != nil {
			return nil, err
		}

		row := BillWithStatus{Bill: bill}
		if paymentID != nil {
			payment.ID = *paymentID
			payment.BillID = bill.ID
			payment.Month = *pMonth
			payment.Year = *pYear
			payment.IsPaid = *pIsPaid
			payment.CreatedAt = *pCreatedAt
			payment.UpdatedAt = *pUpdatedAt
			row.Payment = &payment
		}
		bills = append(bills, row)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return bills, nil
}

// Update применяет частичное обновление платежа.
func (r *BillRepository) Update(ctx context.Context, userID, billID uuid.UUID, params UpdateBillParams) (models.RecurringBill, error) {
	if params.DueDay != nil && (*params.DueDay < 1 || *params.DueDay > 31) {
		return models.RecurringBill{}, ErrInvalid
	}

	bill, err := scanBill(r.db.QueryRow(ctx,
		`UPDATE recurring_bills
		 SET name = COALESCE($3, name),
		     amount = COALESCE($4, amount),
		     due_day = COALESCE($5, due_day),
		     is_active = COALESCE($6, is_active),
		     updated_at = NOW()
		 WHERE id = $1 AND user_id = $2
		 RETURNING `+billColumns,
		billID, userID, params.Name, params.Amount, params.DueDay, params.IsActive,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return bill, ErrNotFound
		}
		return bill, err
	}

	return bill, nil
}

// Delete удаляет платеж вместе с записями об оплате.
// Созданные транзакции остаются как исторические факты леджера.
func (r *BillRepository) Delete(ctx context.Context, userID, billID uuid.UUID) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	_, err = tx.Exec(ctx,
		`DELETE FROM bill_payments p
		 USING recurring_bills b
		 WHERE p.bill_id = $1 AND b.id = p.bill_id AND b.user_id = $2`,
		billID, userID,
	)
	if err != nil {
		return err
	}

	cmd, err := tx.Exec(ctx,
		`DELETE FROM recurring_bills
		 WHERE id = $1 AND user_id = $2`,
		billID, userID,
	)
	if err != nil {
		return err
	}

	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}

	return tx.Commit(ctx)
}

// ListPayments возвращает историю оплат одного платежа.
func (r *BillRepository) ListPayments(ctx context.Context, userID, billID uuid.UUID) ([]models.BillPayment, error) {
	rows, err := r.db.Query(ctx,
		`SELECT p.id, p.bill_id, p.month, p.year, p.is_paid, p.paid_date, p.paid_amount,
		        p.account_id, p.transaction_id, p.created_at, p.updated_at
		 FROM bill_payments p
		 JOIN recurring_bills b ON b.id = p.bill_id
		 WHERE p.bill_id = $1 AND b.user_id = $2
		 ORDER BY p.year DESC, p.month DESC`,
		billID, userID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	payments := make([]models.BillPayment, 0)
	for rows.Next() {
		var payment models.BillPayment
		err := rows.Scan(&payment.ID, &payment.BillID, &payment.Month, &payment.Year, &payment.IsPaid,
			&payment.PaidDate, &payment.PaidAmount, &payment.AccountID, &payment.TransactionID,
			&payment.CreatedAt, &payment.UpdatedAt)
		if err != nil {
			return nil, err
		}
		payments = append(payments, payment)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return payments, nil
}
