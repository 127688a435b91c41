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

type TransactionRepository struct {
	db *pgxpool.Pool
}

type CreateTransactionParams struct {
	Type            models.TransactionType
	Amount          decimal.Decimal
	CategoryID      uuid.UUID
	SubCategoryID   *uuid.UUID
	AccountID       *uuid.UUID
	TransactionDate time.Time
	Description     string
	Notes           *string
}

type UpdateTransactionParams struct {
	Amount          *decimal.Decimal
	CategoryID      *uuid.UUID
	SubCategoryID   *uuid.UUID
	AccountID       *uuid.UUID
	TransactionDate *time.Time
	Description     *string
	Notes           *string
}

type TransactionFilters struct {
	Type       *models.TransactionType
	CategoryID *uuid.UUID
	AccountID  *uuid.UUID
}

// SpendingRow is one non-income transaction joined with its category and
// subcategory names for the spending breakdown.
type SpendingRow struct {
	TransactionID   uuid.UUID
	Amount          decimal.Decimal
	CategoryID      uuid.UUID
	CategoryName    string
	SubCategoryID   *uuid.UUID
	SubCategoryName *string
}

// NewTransactionRepository создает репозиторий транзакций.
func NewTransactionRepository(db *pgxpool.Pool) *TransactionRepository {
	return &TransactionRepository{db: db}
}

const transactionColumns = `id, user_id, type, amount, category_id, sub_category_id, account_id, transaction_date, description, notes, created_at`

func scanTransaction(row pgx.Row) (models.Transaction, error) {
	var t models.Transaction
	err := row.Scan(&t.ID, &t.UserID, &t.Type, &t.Amount, &t.CategoryID, &t.SubCategoryID,
		&t.AccountID, &t.TransactionDate, &t.Description, &t.Notes, &t.CreatedAt)
	return t, err
}

// Create записывает транзакцию; ссылки проверяются в рамках владельца.
func (r *TransactionRepository) Create(ctx context.Context, userID uuid.UUID, params CreateTransactionParams) (models.Transaction, error) {
	if !params.Amount.IsPositive() {
		return models.Transaction{}, ErrInvalid
	}

	if err := checkCategoryOwned(ctx, r.db, userID, params.CategoryID); err != nil {
		return models.Transaction{}, err
	}

	if params.AccountID != nil {
		if err := checkAccountOwned(ctx, r.db, userID, *params.AccountID); err != nil {
			return models.Transaction{}, err
		}
	}

	t, err := scanTransaction(r.db.QueryRow(ctx,
		`INSERT INTO transactions (id, user_id, type, amount, category_id, sub_category_id, account_id, transaction_date, description, notes)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		 RETURNING `+transactionColumns,
		uuid.New(), userID, params.Type, params.Amount, params.CategoryID, params.SubCategoryID,
		params.AccountID, params.TransactionDate, params.Description, params.Notes,
	))
	if err != nil {
		return models.Transaction{}, err
	}

	return t, nil
}

// GetByID возвращает транзакцию пользователя.
func (r *TransactionRepository) GetByID(ctx context.Context, userID, transactionID uuid.UUID) (models.Transaction, error) {
	t, err := scanTransaction(r.db.QueryRow(ctx,
		`SELECT `+transactionColumns+`
		 FROM transactions
		 WHERE id = $1 AND user_id = $2`,
		transactionID, userID,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return t, ErrNotFound
		}
		return t, err
	}

	return t, nil
}

// ListByDateRange возвращает транзакции окна с фильтрами, свежие первыми.
func (r *TransactionRepository) ListByDateRange(ctx context.Context, userID uuid.UUID, start, end time.Time, filters TransactionFilters) ([]models.Transaction, error) {
	rows, err := r.db.Query(ctx,
		`SELECT `+transactionColumns+`
		 FROM transactions
		 WHERE user_id = $1
		   AND transaction_date >= $2 AND transaction_date <= $3
		   AND ($4::text IS NULL OR type = $4)
		   AND ($5::uuid IS NULL OR category_id = $5)
		   AND ($6::uuid IS NULL OR account_id = $6)
		 ORDER BY transaction_date DESC, created_at DESC`,
		userID, start, end, filters.Type, filters.CategoryID, filters.AccountID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	transactions := make([]models.Transaction, 0)
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		transactions = append(transactions, t)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return transactions, nil
}

// ListSpendingRows возвращает расходные строки окна для разбивки трат.
func (r *TransactionRepository) ListSpendingRows(ctx context.Context, userID uuid.UUID, start, end time.Time) ([]SpendingRow, error) {
	rows, err := r.db.Query(ctx,
		`SELECT t.id, t.amount, t.category_id, c.name, t.sub_category_id, s.name
		 FROM transactions t
		 JOIN categories c ON c.id = t.category_id
		 LEFT JOIN sub_categories s ON s.id = t.sub_category_id
		 WHERE t.user_id = $1
		   AND t.transaction_date >= $2 AND t.transaction_date <= $3
		   AND t.type <> 'income'`,
		userID, start, end,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	spending := make([]SpendingRow, 0)
	for rows.Next() {
		var row SpendingRow
		err := rows.Scan(&row.TransactionID, &row.Amount, &row.CategoryID, &row.CategoryName, &row.SubCategoryID, &row.SubCategoryName)
		if err != nil {
			return nil, err
		}
		spending = append(spending, row)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return spending, nil
}

// Update применяет частичное обновление транзакции.
func (r *TransactionRepository) Update(ctx context.Context, userID, transactionID uuid.UUID, params UpdateTransactionParams) (models.Transaction, error) {
	if params.Amount != nil && !params.Amount.IsPositive() {
		return models.Transaction{}, ErrInvalid
	}

	if params.CategoryID != nil {
		if err := checkCategoryOwned(ctx, r.db, userID, *params.CategoryID); err != nil {
			return models.Transaction{}, err
		}
	}

	if params.AccountID != nil {
		if err := checkAccountOwned(ctx, r.db, userID, *params.AccountID); err != nil {
			return models.Transaction{}, err
		}
	}

	t, err := scanTransaction(r.db.QueryRow(ctx,
		`UPDATE transactions
		 SET amount = COALESCE($3, amount),
		     category_id = COALESCE($4, category_id),
		     sub_category_id = COALESCE($5, sub_category_id),
		     account_id = COALESCE($6, account_id),
		     transaction_date = COALESCE($7, transaction_date),
		     description = COALESCE($8, description),
		     notes = COALESCE($9, notes)
		 WHERE id = $1 AND user_id = $2
		 RETURNING `+transactionColumns,
		transactionID, userID, params.Amount, params.CategoryID, params.SubCategoryID,
		params.AccountID, params.TransactionDate, params.Description, params.Notes,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return t, ErrNotFound
		}
		return t, err
	}

	return t, nil
}

// Delete удаляет транзакцию пользователя.
func (r *TransactionRepository) Delete(ctx context.Context, userID, transactionID uuid.UUID) error {
	cmd, err := r.db.Exec(ctx,
		`DELETE FROM transactions
		 WHERE id = $1 AND user_id = $2`,
		transactionID, userID,
	)
	if err != nil {
		return err
	}

	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}

	return nil
}

type querier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

func checkAccountOwned(ctx context.Context, q querier, userID, accountID uuid.UUID) error {
	var exists bool
	err := q.QueryRow(ctx,
		`SELECT EXISTS (
			SELECT 1 FROM accounts WHERE id = $1 AND user_id = $2
		 )`,
		accountID, userID,
	).Scan(&exists)
	if err != nil {
		return err
	}
	if !exists {
		return ErrInvalidReference
	}

	return nil
}

func checkCategoryOwned(ctx context.Context, q querier, userID, categoryID uuid.UUID) error {
	var exists bool
	err := q.QueryRow(ctx,
		`SELECT EXISTS (
			SELECT 1 FROM categories WHERE id = $1 AND user_id = $2
		 )`,
		categoryID, userID,
	).Scan(&exists)
	if err != nil {
		return err
	}
	if !exists {
		return ErrInvalidReference
	}

	return nil
}
