package repository

import (
	"context"
	"errors"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"

	"example.com/fintrack/backend/internal/models"
)

// TestPaymentDescription проверяет состав описания транзакции оплаты.
func TestPaymentDescription(t *testing.T) {
	got := paymentDescription("Rent", 1, 2024)
	if got != "Rent - January 2024" {
		t.Fatalf("unexpected description: %s", got)
	}

	got = paymentDescription("Internet", 12, 2025)
	if got != "Internet - December 2025" {
		t.Fatalf("unexpected description: %s", got)
	}
}

// ledgerStub держит счет, обязательство и его оплату в памяти и выдает
// транзакции с copy-on-write семантикой: Commit публикует изменения,
// Rollback их отбрасывает.
type ledgerStub struct {
	bill    *models.RecurringBill
	payment *models.BillPayment

	item      *models.BudgetItem
	itemMonth int
	itemYear  int

	account models.Account

	transactions int

	// loseUpdateRace имитирует проигрыш гонки: финальный UPDATE с guard
	// по is_paid не находит строк, как если бы параллельный вызов успел первым.
	loseUpdateRace bool
}

func (s *ledgerStub) Begin(ctx context.Context) (pgx.Tx, error) {
	tx := &ledgerStubTx{store: s}
	if s.payment != nil {
		p := *s.payment
		tx.payment = &p
	}
	if s.item != nil {
		i := *s.item
		tx.item = &i
	}
	return tx, nil
}

type ledgerStubTx struct {
	store        *ledgerStub
	payment      *models.BillPayment
	item         *models.BudgetItem
	transactions int
	closed       bool
}

func (t *ledgerStubTx) Commit(ctx context.Context) error {
	t.closed = true
	t.store.payment = t.payment
	t.store.item = t.item
	t.store.transactions += t.transactions
	return nil
}

func (t *ledgerStubTx) Rollback(ctx context.Context) error {
	if t.closed {
		return pgx.ErrTxClosed
	}
	t.closed = true
	return nil
}

func (t *ledgerStubTx) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	switch {
	case strings.Contains(sql, "FROM recurring_bills"):
		b := t.store.bill
		if b == nil || args[0] != b.ID || args[1] != b.UserID {
			return stubRow{err: pgx.ErrNoRows}
		}
		return stubRow{vals: []any{b.ID, b.UserID, b.Name, b.Amount, b.CategoryID,
			b.SubCategoryID, b.AccountID, b.DueDay, b.IsActive, b.CreatedAt, b.UpdatedAt}}

	case strings.Contains(sql, "FROM accounts"):
		a := t.store.account
		if args[0] != a.ID || args[1] != a.UserID {
			return stubRow{err: pgx.ErrNoRows}
		}
		return stubRow{vals: []any{a.ID, a.UserID, a.Name, a.Type, a.Balance,
			a.IsDefault, a.IsArchived, a.CreatedAt, a.UpdatedAt}}

	case strings.Contains(sql, "FROM bill_payments"):
		p := t.payment
		if p == nil {
			return stubRow{err: pgx.ErrNoRows}
		}
		return stubRow{vals: []any{p.ID, p.BillID, p.Month, p.Year, p.IsPaid,
			p.PaidDate, p.PaidAmount, p.AccountID, p.TransactionID, p.CreatedAt, p.UpdatedAt}}

	case strings.Contains(sql, "FROM budget_items"):
		i := t.item
		if i == nil || args[0] != i.ID || args[1] != i.UserID {
			return stubRow{err: pgx.ErrNoRows}
		}
		return stubRow{vals: []any{i.ID, i.UserID, i.BudgetID, i.ItemType, i.CategoryID,
			i.SubCategoryID, i.Name, i.Amount, i.IsPaid, i.PaidDate, i.PaidAmount,
			i.AccountID, i.TransactionID, i.CreatedAt, i.UpdatedAt,
			t.store.itemMonth, t.store.itemYear}}

	case strings.Contains(sql, "INSERT INTO transactions"):
		t.transactions++
		subCategoryID, _ := args[5].(*uuid.UUID)
		accountID := args[6].(uuid.UUID)
		return stubRow{vals: []any{args[0], args[1], args[2], args[3], args[4],
			subCategoryID, &accountID, args[7], args[8], (*string)(nil), time.Now()}}
	}

	return stubRow{err: pgx.ErrNoRows}
}

func (t *ledgerStubTx) Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	switch {
	case strings.Contains(sql, "INSERT INTO bill_payments"):
		if t.payment == nil {
			now := time.Now()
			t.payment = &models.BillPayment{
				ID:        args[0].(uuid.UUID),
				BillID:    args[1].(uuid.UUID),
				Month:     args[2].(int),
				Year:      args[3].(int),
				CreatedAt: now,
				UpdatedAt: now,
			}
		}
		return pgconn.NewCommandTag("INSERT 0 1"), nil

	case strings.Contains(sql, "UPDATE bill_payments"):
		if t.store.loseUpdateRace || t.payment == nil || t.payment.IsPaid {
			return pgconn.NewCommandTag("UPDATE 0"), nil
		}
		markPaid(&t.payment.IsPaid, &t.payment.PaidDate, &t.payment.PaidAmount,
			&t.payment.AccountID, &t.payment.TransactionID, args)
		return pgconn.NewCommandTag("UPDATE 1"), nil

	case strings.Contains(sql, "UPDATE budget_items"):
		if t.store.loseUpdateRace || t.item == nil || t.item.IsPaid {
			return pgconn.NewCommandTag("UPDATE 0"), nil
		}
		markPaid(&t.item.IsPaid, &t.item.PaidDate, &t.item.PaidAmount,
			&t.item.AccountID, &t.item.TransactionID, args)
		return pgconn.NewCommandTag("UPDATE 1"), nil
	}

	return pgconn.CommandTag{}, nil
}

func markPaid(isPaid *bool, paidDate **time.Time, paidAmount **decimal.Decimal, accountID, transactionID **uuid.UUID, args []any) {
	date := args[1].(time.Time)
	amount := args[2].(decimal.Decimal)
	account := args[3].(uuid.UUID)
	transaction := args[4].(uuid.UUID)

	*isPaid = true
	*paidDate = &date
	*paidAmount = &amount
	*accountID = &account
	*transactionID = &transaction
}

func (t *ledgerStubTx) Begin(ctx context.Context) (pgx.Tx, error) { return nil, pgx.ErrTxClosed }

func (t *ledgerStubTx) CopyFrom(ctx context.Context, _ pgx.Identifier, _ []string, _ pgx.CopyFromSource) (int64, error) {
	return 0, pgx.ErrTxClosed
}

func (t *ledgerStubTx) SendBatch(ctx context.Context, _ *pgx.Batch) pgx.BatchResults { return nil }

func (t *ledgerStubTx) LargeObjects() pgx.LargeObjects { return pgx.LargeObjects{} }

func (t *ledgerStubTx) Prepare(ctx context.Context, name, sql string) (*pgconn.StatementDescription, error) {
	return nil, nil
}

func (t *ledgerStubTx) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	return nil, pgx.ErrNoRows
}

func (t *ledgerStubTx) Conn() *pgx.Conn { return nil }

type stubRow struct {
	err  error
	vals []any
}

func (r stubRow) Scan(dest ...any) error {
	if r.err != nil {
		return r.err
	}
	for i, d := range dest {
		if r.vals[i] == nil {
			continue
		}
		reflect.ValueOf(d).Elem().Set(reflect.ValueOf(r.vals[i]))
	}
	return nil
}

func newBillLedger() (*ledgerStub, uuid.UUID) {
	userID := uuid.New()
	categoryID := uuid.New()
	now := time.Now()

	return &ledgerStub{
		bill: &models.RecurringBill{
			ID:         uuid.New(),
			UserID:     userID,
			Name:       "Rent",
			Amount:     decimal.RequireFromString("1200"),
			CategoryID: &categoryID,
			DueDay:     1,
			IsActive:   true,
			CreatedAt:  now,
			UpdatedAt:  now,
		},
		account: models.Account{
			ID:        uuid.New(),
			UserID:    userID,
			Name:      "Main",
			Type:      models.AccountTypeBank,
			Balance:   decimal.RequireFromString("5000"),
			CreatedAt: now,
			UpdatedAt: now,
		},
	}, userID
}

// TestPayBillSecondAttemptConflicts проверяет, что повторная оплата
// того же периода отклоняется и не создает новую транзакцию.
func TestPayBillSecondAttemptConflicts(t *testing.T) {
	store, userID := newBillLedger()
	repo := &PaymentRepository{db: store}

	params := PayObligationParams{
		AccountID: store.account.ID,
		Amount:    decimal.RequireFromString("1200"),
		PaidDate:  time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC),
	}

	result, err := repo.PayBill(context.Background(), userID, store.bill.ID, 1, 2024, params)
	if err != nil {
		t.Fatalf("expected first payment to succeed, got %v", err)
	}
	if !result.Payment.IsPaid {
		t.Fatal("expected payment to be marked paid")
	}
	if result.Payment.TransactionID == nil || *result.Payment.TransactionID != result.Transaction.ID {
		t.Fatal("expected payment to reference the created transaction")
	}
	if !result.Transaction.Amount.Equal(params.Amount) {
		t.Fatalf("unexpected transaction amount: %s", result.Transaction.Amount)
	}
	if result.Transaction.AccountID == nil || *result.Transaction.AccountID != store.account.ID {
		t.Fatal("expected transaction to use the supplied account")
	}
	if store.transactions != 1 {
		t.Fatalf("expected 1 committed transaction, got %d", store.transactions)
	}

	_, err = repo.PayBill(context.Background(), userID, store.bill.ID, 1, 2024, params)
	if !errors.Is(err, ErrAlreadyPaid) {
		t.Fatalf("expected ErrAlreadyPaid, got %v", err)
	}
	if store.transactions != 1 {
		t.Fatalf("expected no additional transactions, got %d", store.transactions)
	}
}

// TestPayBillRaceLoserLeavesNoTransaction проверяет, что проигравший гонку
// откатывается целиком: ни транзакции, ни записи об оплате.
func TestPayBillRaceLoserLeavesNoTransaction(t *testing.T) {
	store, userID := newBillLedger()
	store.loseUpdateRace = true
	repo := &PaymentRepository{db: store}

	_, err := repo.PayBill(context.Background(), userID, store.bill.ID, 1, 2024, PayObligationParams{
		AccountID: store.account.ID,
		Amount:    decimal.RequireFromString("1200"),
		PaidDate:  time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC),
	})
	if !errors.Is(err, ErrAlreadyPaid) {
		t.Fatalf("expected ErrAlreadyPaid, got %v", err)
	}
	if store.transactions != 0 {
		t.Fatalf("expected inserted transaction to be rolled back, got %d committed", store.transactions)
	}
	if store.payment != nil {
		t.Fatal("expected lazily created payment row to be rolled back")
	}
}

// TestPayBillPreconditions проверяет коды ошибок до каких-либо записей.
func TestPayBillPreconditions(t *testing.T) {
	store, userID := newBillLedger()
	repo := &PaymentRepository{db: store}

	params := PayObligationParams{
		AccountID: store.account.ID,
		Amount:    decimal.RequireFromString("1200"),
		PaidDate:  time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC),
	}

	if _, err := repo.PayBill(context.Background(), userID, store.bill.ID, 13, 2024, params); !errors.Is(err, ErrInvalid) {
		t.Fatalf("expected ErrInvalid for month 13, got %v", err)
	}

	zero := params
	zero.Amount = decimal.Zero
	if _, err := repo.PayBill(context.Background(), userID, store.bill.ID, 1, 2024, zero); !errors.Is(err, ErrInvalid) {
		t.Fatalf("expected ErrInvalid for zero amount, got %v", err)
	}

	if _, err := repo.PayBill(context.Background(), userID, uuid.New(), 1, 2024, params); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for unknown bill, got %v", err)
	}

	foreign := params
	foreign.AccountID = uuid.New()
	if _, err := repo.PayBill(context.Background(), userID, store.bill.ID, 1, 2024, foreign); !errors.Is(err, ErrInvalidReference) {
		t.Fatalf("expected ErrInvalidReference for foreign account, got %v", err)
	}

	store.bill.CategoryID = nil
	if _, err := repo.PayBill(context.Background(), userID, store.bill.ID, 1, 2024, params); !errors.Is(err, ErrInvalidOperation) {
		t.Fatalf("expected ErrInvalidOperation for bill without category, got %v", err)
	}

	if store.transactions != 0 {
		t.Fatalf("expected no transactions after rejected attempts, got %d", store.transactions)
	}
}

func newItemLedger(itemType models.BudgetItemType) (*ledgerStub, uuid.UUID) {
	userID := uuid.New()
	categoryID := uuid.New()
	now := time.Now()

	return &ledgerStub{
		item: &models.BudgetItem{
			ID:         uuid.New(),
			UserID:     userID,
			BudgetID:   uuid.New(),
			ItemType:   itemType,
			CategoryID: &categoryID,
			Name:       "Insurance",
			Amount:     decimal.RequireFromString("300"),
			CreatedAt:  now,
			UpdatedAt:  now,
		},
		itemMonth: 2,
		itemYear:  2024,
		account: models.Account{
			ID:        uuid.New(),
			UserID:    userID,
			Name:      "Main",
			Type:      models.AccountTypeBank,
			Balance:   decimal.RequireFromString("5000"),
			CreatedAt: now,
			UpdatedAt: now,
		},
	}, userID
}

// TestPayBudgetItemSecondAttemptConflicts проверяет одноразовость
// payment-позиции: вторая оплата отклоняется без новой транзакции.
func TestPayBudgetItemSecondAttemptConflicts(t *testing.T) {
	store, userID := newItemLedger(models.BudgetItemTypePayment)
	repo := &PaymentRepository{db: store}

	params := PayObligationParams{
		AccountID: store.account.ID,
		Amount:    decimal.RequireFromString("300"),
		PaidDate:  time.Date(2024, 2, 10, 0, 0, 0, 0, time.UTC),
	}

	result, err := repo.PayBudgetItem(context.Background(), userID, store.item.ID, params)
	if err != nil {
		t.Fatalf("expected first payment to succeed, got %v", err)
	}
	if !result.Item.IsPaid {
		t.Fatal("expected item to be marked paid")
	}
	if result.Item.TransactionID == nil || *result.Item.TransactionID != result.Transaction.ID {
		t.Fatal("expected item to reference the created transaction")
	}
	if result.Transaction.Description != "Insurance - February 2024" {
		t.Fatalf("unexpected description: %s", result.Transaction.Description)
	}
	if store.transactions != 1 {
		t.Fatalf("expected 1 committed transaction, got %d", store.transactions)
	}

	_, err = repo.PayBudgetItem(context.Background(), userID, store.item.ID, params)
	if !errors.Is(err, ErrAlreadyPaid) {
		t.Fatalf("expected ErrAlreadyPaid, got %v", err)
	}
	if store.transactions != 1 {
		t.Fatalf("expected no additional transactions, got %d", store.transactions)
	}
}

// TestPayBudgetItemLimitRejected проверяет, что limit-позиция не оплачивается.
func TestPayBudgetItemLimitRejected(t *testing.T) {
	store, userID := newItemLedger(models.BudgetItemTypeLimit)
	repo := &PaymentRepository{db: store}

	_, err := repo.PayBudgetItem(context.Background(), userID, store.item.ID, PayObligationParams{
		AccountID: store.account.ID,
		Amount:    decimal.RequireFromString("300"),
		PaidDate:  time.Date(2024, 2, 10, 0, 0, 0, 0, time.UTC),
	})
	if !errors.Is(err, ErrInvalidOperation) {
		t.Fatalf("expected ErrInvalidOperation, got %v", err)
	}
	if store.transactions != 0 {
		t.Fatalf("expected no transactions, got %d", store.transactions)
	}
}
