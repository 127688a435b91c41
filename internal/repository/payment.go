package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"example.com/fintrack/backend/internal/models"
)

// txStarter открывает транзакцию БД; соответствует pgxpool.Pool.
type txStarter interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}

// PaymentRepository превращает "оплатить обязательство" в согласованную пару
// (транзакция, запись об оплате) внутри одной транзакции БД.
type PaymentRepository struct {
	db txStarter
}

type PayObligationParams struct {
	AccountID uuid.UUID
	Amount    decimal.Decimal
	PaidDate  time.Time
	Type      models.TransactionType
}

type BillPaymentResult struct {
	Payment     models.BillPayment
	Transaction models.Transaction
	Account     models.Account
}

type BudgetPaymentResult struct {
	Item        models.BudgetItem
	Transaction models.Transaction
	Account     models.Account
}

// NewPaymentRepository создает репозиторий оплат.
func NewPaymentRepository(db *pgxpool.Pool) *PaymentRepository {
	return &PaymentRepository{db: db}
}

// PayBill отмечает счет оплаченным за период (month, year).
// Запись об оплате создается лениво; повторная оплата того же периода
// завершается ErrAlreadyPaid без побочных эффектов. Параллельные попытки
// сериализуются блокировкой строки оплаты: ровно одна проходит.
func (r *PaymentRepository) PayBill(ctx context.Context, userID, billID uuid.UUID, month, year int, params PayObligationParams) (BillPaymentResult, error) {
	var result BillPaymentResult

	if month < 1 || month > 12 || year < 1 {
		return result, ErrInvalid
	}
	if !params.Amount.IsPositive() {
		return result, ErrInvalid
	}

	tx, err := r.db.Begin(ctx)
	if err != nil {
		return result, err
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	bill, err := scanBill(tx.QueryRow(ctx,
		`SELECT `+billColumns+`
		 FROM recurring_bills
		 WHERE id = $1 AND user_id = $2`,
		billID, userID,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return result, ErrNotFound
		}
		return result, err
	}

	if bill.CategoryID == nil {
		return result, ErrInvalidOperation
	}

	account, err := getAccountOwned(ctx, tx, userID, params.AccountID)
	if err != nil {
		return result, err
	}

	// Ленивая запись оплаты; уникальный ключ (bill_id, month, year)
	// гарантирует одну строку на период.
	_, err = tx.Exec(ctx,
		`INSERT INTO bill_payments (id, bill_id, month, year)
		 VALUES ($1, $2, $3, $4)
		 ON CONFLICT (bill_id, month, year) DO NOTHING`,
		uuid.New(), billID, month, year,
	)
	if err != nil {
		return result, err
	}

	var payment models.BillPayment
	err = tx.QueryRow(ctx,
		`SELECT id, bill_id, month, year, is_paid, paid_date, paid_amount, account_id, transaction_id, created_at, updated_at
		 FROM bill_payments
		 WHERE bill_id = $1 AND month = $2 AND year = $3
		 FOR UPDATE`,
		billID, month, year,
	).Scan(&payment.ID, &payment.BillID, &payment.Month, &payment.Year, &payment.IsPaid,
		&payment.PaidDate, &payment.PaidAmount, &payment.AccountID, &payment.TransactionID,
		&payment.CreatedAt, &payment.UpdatedAt)
	if err != nil {
		return result, err
	}

	if payment.IsPaid {
		return result, ErrAlreadyPaid
	}

	transaction, err := insertPaymentTransaction(ctx, tx, userID, insertPaymentTransactionParams{
		Type:          params.Type,
		Amount:        params.Amount,
		CategoryID:    *bill.CategoryID,
		SubCategoryID: bill.SubCategoryID,
		AccountID:     params.AccountID,
		Date:          params.PaidDate,
		Description:   paymentDescription(bill.Name, month, year),
	})
	if err != nil {
		return result, err
	}

	// Guard на is_paid повторяет проверку выше: при гонке проигравший
	// откатывается вместе со своей транзакцией.
	cmd, err := tx.Exec(ctx,
		`UPDATE bill_payments
		 SET is_paid = TRUE,
		     paid_date = $2,
		     paid_amount = $3,
		     account_id = $4,
		     transaction_id = $5,
		     updated_at = NOW()
		 WHERE id = $1 AND NOT is_paid`,
		payment.ID, params.PaidDate, params.Amount, params.AccountID, transaction.ID,
	)
	if err != nil {
		return result, err
	}
	if cmd.RowsAffected() == 0 {
		return result, ErrAlreadyPaid
	}

	if err := tx.Commit(ctx); err != nil {
		return result, err
	}

	paidDate := params.PaidDate
	amount := params.Amount
	accountID := params.AccountID
	transactionID := transaction.ID
	payment.IsPaid = true
	payment.PaidDate = &paidDate
	payment.PaidAmount = &amount
	payment.AccountID = &accountID
	payment.TransactionID = &transactionID

	return BillPaymentResult{Payment: payment, Transaction: transaction, Account: account}, nil
}

// PayBudgetItem отмечает payment-позицию бюджета оплаченной.
// Позиция одноразовая: период задан ее бюджетом.
func (r *PaymentRepository) PayBudgetItem(ctx context.Context, userID, itemID uuid.UUID, params PayObligationParams) (BudgetPaymentResult, error) {
	var result BudgetPaymentResult

	if !params.Amount.IsPositive() {
		return result, ErrInvalid
	}

	tx, err := r.db.Begin(ctx)
	if err != nil {
		return result, err
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	var item models.BudgetItem
	var month, year int
	err = tx.QueryRow(ctx,
		`SELECT i.id, i.user_id, i.budget_id, i.item_type, i.category_id, i.sub_category_id, i.name,
		        i.amount, i.is_paid, i.paid_date, i.paid_amount, i.account_id, i.transaction_id,
		        i.created_at, i.updated_at, b.month, b.year
		 FROM budget_items i
		 JOIN monthly_budgets b ON b.id = i.budget_id
		 WHERE i.id = $1 AND i.user_id = $2
		 FOR UPDATE OF i`,
		itemID, userID,
	).Scan(&item.ID, &item.UserID, &item.BudgetID, &item.ItemType, &item.CategoryID,
		&item.SubCategoryID, &item.Name, &item.Amount, &item.IsPaid, &item.PaidDate, &item.PaidAmount,
		&item.AccountID, &item.TransactionID, &item.CreatedAt, &item.UpdatedAt, &month, &year)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return result, ErrNotFound
		}
		return result, err
	}

	if item.ItemType != models.BudgetItemTypePayment {
		return result, ErrInvalidOperation
	}
	if item.CategoryID == nil {
		return result, ErrInvalidOperation
	}
	if item.IsPaid {
		return result, ErrAlreadyPaid
	}

	account, err := getAccountOwned(ctx, tx, userID, params.AccountID)
	if err != nil {
		return result, err
	}

	transaction, err := insertPaymentTransaction(ctx, tx, userID, insertPaymentTransactionParams{
		Type:          params.Type,
		Amount:        params.Amount,
		CategoryID:    *item.CategoryID,
		SubCategoryID: item.SubCategoryID,
		AccountID:     params.AccountID,
		Date:          params.PaidDate,
		Description:   paymentDescription(item.Name, month, year),
	})
	if err != nil {
		return result, err
	}

	cmd, err := tx.Exec(ctx,
		`UPDATE budget_items
		 SET is_paid = TRUE,
		     paid_date = $2,
		     paid_amount = $3,
		     account_id = $4,
		     transaction_id = $5,
		     updated_at = NOW()
		 WHERE id = $1 AND NOT is_paid`,
		item.ID, params.PaidDate, params.Amount, params.AccountID, transaction.ID,
	)
	if err != nil {
		return result, err
	}
	if cmd.RowsAffected() == 0 {
		return result, ErrAlreadyPaid
	}

	if err := tx.Commit(ctx); err != nil {
		return result, err
	}

	paidDate := params.PaidDate
	amount := params.Amount
	accountID := params.AccountID
	transactionID := transaction.ID
	item.IsPaid = true
	item.PaidDate = &paidDate
	item.PaidAmount = &amount
	item.AccountID = &accountID
	item.TransactionID = &transactionID

	return BudgetPaymentResult{Item: item, Transaction: transaction, Account: account}, nil
}

type insertPaymentTransactionParams struct {
	Type          models.TransactionType
	Amount        decimal.Decimal
	CategoryID    uuid.UUID
	SubCategoryID *uuid.UUID
	AccountID     uuid.UUID
	Date          time.Time
	Description   string
}

func insertPaymentTransaction(ctx context.Context, tx pgx.Tx, userID uuid.UUID, params insertPaymentTransactionParams) (models.Transaction, error) {
	transactionType := params.Type
	if transactionType == "" {
		transactionType = models.TransactionTypeExpense
	}

	return scanTransaction(tx.QueryRow(ctx,
		`INSERT INTO transactions (id, user_id, type, amount, category_id, sub_category_id, account_id, transaction_date, description)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		 RETURNING `+transactionColumns,
		uuid.New(), userID, transactionType, params.Amount, params.CategoryID, params.SubCategoryID,
		params.AccountID, params.Date, params.Description,
	))
}

func getAccountOwned(ctx context.Context, tx pgx.Tx, userID, accountID uuid.UUID) (models.Account, error) {
	account, err := scanAccount(tx.QueryRow(ctx,
		`SELECT `+accountColumns+`
		 FROM accounts
		 WHERE id = $1 AND user_id = $2`,
		accountID, userID,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return account, ErrInvalidReference
		}
		return account, err
	}

	return account, nil
}

func paymentDescription(name string, month, year int) string {
	return fmt.Sprintf("%s - %s %d", name, time.Month(month).String(), year)
}
