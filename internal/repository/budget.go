package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"example.com/fintrack/backend/internal/models"
)

type BudgetRepository struct {
	db *pgxpool.Pool
}

type CreateBudgetItemParams struct {
	ItemType      models.BudgetItemType
	CategoryID    *uuid.UUID
	SubCategoryID *uuid.UUID
	Name          string
	Amount        decimal.Decimal
}

type UpdateBudgetItemParams struct {
	Name   *string
	Amount *decimal.Decimal
}

// NewBudgetRepository создает репозиторий месячных бюджетов.
func NewBudgetRepository(db *pgxpool.Pool) *BudgetRepository {
	return &BudgetRepository{db: db}
}

// GetOrCreate возвращает бюджет периода, создавая его при первом обращении.
func (r *BudgetRepository) GetOrCreate(ctx context.Context, userID uuid.UUID, month, year int) (models.MonthlyBudget, error) {
	var budget models.MonthlyBudget

	if month < 1 || month > 12 {
		return budget, ErrInvalid
	}

	err := r.db.QueryRow(ctx,
		`INSERT INTO monthly_budgets (id, user_id, month, year)
		 VALUES ($1, $2, $3, $4)
		 ON CONFLICT (user_id, month, year) DO UPDATE SET month = EXCLUDED.month
		 RETURNING id, user_id, month, year, created_at`,
		uuid.New(), userID, month, year,
	).Scan(&budget.ID, &budget.UserID, &budget.Month, &budget.Year, &budget.CreatedAt)
	if err != nil {
		return budget, err
	}

	return budget, nil
}

// GetByID возвращает бюджет пользователя.
func (r *BudgetRepository) GetByID(ctx context.Context, userID, budgetID uuid.UUID) (models.MonthlyBudget, error) {
	var budget models.MonthlyBudget

	err := r.db.QueryRow(ctx,
		`SELECT id, user_id, month, year, created_at
		 FROM monthly_budgets
		 WHERE id = $1 AND user_id = $2`,
		budgetID, userID,
	).Scan(&budget.ID, &budget.UserID, &budget.Month, &budget.Year, &budget.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return budget, ErrNotFound
		}
		return budget, err
	}

	return budget, nil
}

const budgetItemColumns = `id, user_id, budget_id, item_type, category_id, sub_category_id, name, amount, is_paid, paid_date, paid_amount, account_id, transaction_id, created_at, updated_at`

func scanBudgetItem(row pgx.Row) (models.BudgetItem, error) {
	var item models.BudgetItem
	err := row.Scan(&item.ID, &item.UserID, &item.BudgetID, &item.ItemType, &item.CategoryID,
		&item.SubCategoryID, &item.Name, &item.Amount, &item.IsPaid, &item.PaidDate, &item.PaidAmount,
		&item.AccountID, &item.TransactionID, &item.CreatedAt, &item.UpdatedAt)
	return item, err
}

// CreateItem добавляет позицию в бюджет пользователя.
func (r *BudgetRepository) CreateItem(ctx context.Context, userID, budgetID uuid.UUID, params CreateBudgetItemParams) (models.BudgetItem, error) {
	if !params.Amount.IsPositive() {
		return models.BudgetItem{}, ErrInvalid
	}

	if _, err := r.GetByID(ctx, userID, budgetID); err != nil {
		return models.BudgetItem{}, err
	}

	if params.CategoryID != nil {
		if err := checkCategoryOwned(ctx, r.db, userID, *params.CategoryID); err != nil {
			return models.BudgetItem{}, err
		}
	}

	item, err := scanBudgetItem(r.db.QueryRow(ctx,
		`INSERT INTO budget_items (id, user_id, budget_id, item_type, category_id, sub_category_id, name, amount)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		 RETURNING `+budgetItemColumns,
		uuid.New(), userID, budgetID, params.ItemType, params.CategoryID, params.SubCategoryID, params.Name, params.Amount,
	))
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return models.BudgetItem{}, ErrConflict
		}
		return models.BudgetItem{}, err
	}

	return item, nil
}

// GetItemByID возвращает позицию бюджета пользователя.
func (r *BudgetRepository) GetItemByID(ctx context.Context, userID, itemID uuid.UUID) (models.BudgetItem, error) {
	item, err := scanBudgetItem(r.db.QueryRow(ctx,
		`SELECT `+budgetItemColumns+`
		 FROM budget_items
		 WHERE id = $1 AND user_id = $2`,
		itemID, userID,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return item, ErrNotFound
		}
		return item, err
	}

	return item, nil
}

// ListItems возвращает позиции бюджета.
func (r *BudgetRepository) ListItems(ctx context.Context, userID, budgetID uuid.UUID) ([]models.BudgetItem, error) {
	if _, err := r.GetByID(ctx, userID, budgetID); err != nil {
		return nil, err
	}

	rows, err := r.db.Query(ctx,
		`SELECT `+budgetItemColumns+`
		 FROM budget_items
		 WHERE budget_id = $1 AND user_id = $2
		 ORDER BY created_at`,
		budgetID, userID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]models.BudgetItem, 0)
	for rows.Next() {
		item, err := scanBudgetItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return items, nil
}

// UpdateItem применяет частичное обновление позиции.
// Оплаченные payment-позиции не редактируются.
func (r *BudgetRepository) UpdateItem(ctx context.Context, userID, itemID uuid.UUID, params UpdateBudgetItemParams) (models.BudgetItem, error) {
	if params.Amount != nil && !params.Amount.IsPositive() {
		return models.BudgetItem{}, ErrInvalid
	}

	current, err := r.GetItemByID(ctx, userID, itemID)
	if err != nil {
		return models.BudgetItem{}, err
	}

	if current.ItemType == models.BudgetItemTypePayment && current.IsPaid {
		return models.BudgetItem{}, ErrInvalidOperation
	}

	item, err := scanBudgetItem(r.db.QueryRow(ctx,
		`UPDATE budget_items
		 SET name = COALESCE($3, name),
		     amount = COALESCE($4, amount),
		     updated_at = NOW()
		 WHERE id = $1 AND user_id = $2
		 RETURNING `+budgetItemColumns,
		itemID, userID, params.Name, params.Amount,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return item, ErrNotFound
		}
		return item, err
	}

	return item, nil
}

// DeleteItem удаляет позицию бюджета.
// Транзакция оплаченной позиции остается в леджере.
func (r *BudgetRepository) DeleteItem(ctx context.Context, userID, itemID uuid.UUID) error {
	cmd, err := r.db.Exec(ctx,
		`DELETE FROM budget_items
		 WHERE id = $1 AND user_id = $2`,
		itemID, userID,
	)
	if err != nil {
		return err
	}

	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}

	return nil
}
