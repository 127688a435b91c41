package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"example.com/fintrack/backend/internal/models"
)

type AccountRepository struct {
	db *pgxpool.Pool
}

type UpdateAccountParams struct {
	Name    *string
	Balance *decimal.Decimal
}

// NewAccountRepository создает репозиторий счетов.
func NewAccountRepository(db *pgxpool.Pool) *AccountRepository {
	return &AccountRepository{db: db}
}

const accountColumns = `id, user_id, name, type, balance, is_default, is_archived, created_at, updated_at`

func scanAccount(row pgx.Row) (models.Account, error) {
	var account models.Account
	err := row.Scan(&account.ID, &account.UserID, &account.Name, &account.Type, &account.Balance,
		&account.IsDefault, &account.IsArchived, &account.CreatedAt, &account.UpdatedAt)
	return account, err
}

// Create создает счет; первый счет пользователя становится счетом по умолчанию.
func (r *AccountRepository) Create(ctx context.Context, userID uuid.UUID, name string, accountType models.AccountType, balance decimal.Decimal) (models.Account, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return models.Account{}, err
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	var hasDefault bool
	err = tx.QueryRow(ctx,
		`SELECT EXISTS (
			SELECT 1 FROM accounts WHERE user_id = $1 AND is_default AND NOT is_archived
		 )`,
		userID,
	).Scan(&hasDefault)
	if err != nil {
		return models.Account{}, err
	}

	account, err := scanAccount(tx.QueryRow(ctx,
		`INSERT INTO accounts (id, user_id, name, type, balance, is_default)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING `+accountColumns,
		uuid.New(), userID, name, accountType, balance, !hasDefault,
	))
	if err != nil {
		return models.Account{}, err
	}

	if err := tx.Commit(ctx); err != nil {
		return models.Account{}, err
	}

	return account, nil
}

// GetByID возвращает счет пользователя по идентификатору.
func (r *AccountRepository) GetByID(ctx context.Context, userID, accountID uuid.UUID) (models.Account, error) {
	account, err := scanAccount(r.db.QueryRow(ctx,
		`SELECT `+accountColumns+`
		 FROM accounts
		 WHERE id = $1 AND user_id = $2`,
		accountID, userID,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return account, ErrNotFound
		}
		return account, err
	}

	return account, nil
}

// ListByUser возвращает счета пользователя; архивные включаются по флагу.
func (r *AccountRepository) ListByUser(ctx context.Context, userID uuid.UUID, includeArchived bool) ([]models.Account, error) {
	rows, err := r.db.Query(ctx,
		`SELECT `+accountColumns+`
		 FROM accounts
		 WHERE user_id = $1 AND ($2 OR NOT is_archived)
		 ORDER BY is_default DESC, created_at`,
		userID, includeArchived,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	accounts := make([]models.Account, 0)
	for rows.Next() {
		account, err := scanAccount(rows)
		if err != nil {
			return nil, err
		}
		accounts = append(accounts, account)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return accounts, nil
}

// Update обновляет счет по частичным данным.
func (r *AccountRepository) Update(ctx context.Context, userID, accountID uuid.UUID, params UpdateAccountParams) (models.Account, error) {
	account, err := scanAccount(r.db.QueryRow(ctx,
		`UPDATE accounts
		 SET name = COALESCE($3, name),
		     balance = COALESCE($4, balance),
		     updated_at = NOW()
		 WHERE id = $1 AND user_id = $2
		 RETURNING `+accountColumns,
		accountID, userID, params.Name, params.Balance,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return account, ErrNotFound
		}
		return account, err
	}

	return account, nil
}

// SetDefault назначает счет по умолчанию, снимая флаг с остальных.
func (r *AccountRepository) SetDefault(ctx context.Context, userID, accountID uuid.UUID) (models.Account, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return models.Account{}, err
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	_, err = tx.Exec(ctx,
		`UPDATE accounts
		 SET is_default = FALSE, updated_at = NOW()
		 WHERE user_id = $1 AND is_default`,
		userID,
	)
	if err != nil {
		return models.Account{}, err
	}

	account, err := scanAccount(tx.QueryRow(ctx,
		`UPDATE accounts
		 SET is_default = TRUE, updated_at = NOW()
		 WHERE id = $1 AND user_id = $2 AND NOT is_archived
		 RETURNING `+accountColumns,
		accountID, userID,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Account{}, ErrNotFound
		}
		return models.Account{}, err
	}

	if err := tx.Commit(ctx); err != nil {
		return models.Account{}, err
	}

	return account, nil
}

// Archive скрывает счет из расчетов, не удаляя его.
func (r *AccountRepository) Archive(ctx context.Context, userID, accountID uuid.UUID) error {
	cmd, err := r.db.Exec(ctx,
		`UPDATE accounts
		 SET is_archived = TRUE, is_default = FALSE, updated_at = NOW()
		 WHERE id = $1 AND user_id = $2`,
		accountID, userID,
	)
	if err != nil {
		return err
	}

	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}

	return nil
}
