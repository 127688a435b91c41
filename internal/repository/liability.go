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

type LiabilityRepository struct {
	db *pgxpool.Pool
}

type CreateLiabilityParams struct {
	Name               string
	Type               models.LiabilityType
	PrincipalAmount    decimal.Decimal
	OutstandingBalance decimal.Decimal
	InterestRate       decimal.Decimal
}

type UpdateLiabilityParams struct {
	Name               *string
	OutstandingBalance *decimal.Decimal
	InterestRate       *decimal.Decimal
}

// NewLiabilityRepository создает репозиторий обязательств.
func NewLiabilityRepository(db *pgxpool.Pool) *LiabilityRepository {
	return &LiabilityRepository{db: db}
}

const liabilityColumns = `id, user_id, name, type, principal_amount, outstanding_balance, interest_rate, is_archived, created_at, updated_at`

func scanLiability(row pgx.Row) (models.Liability, error) {
	var liability models.Liability
	err := row.Scan(&liability.ID, &liability.UserID, &liability.Name, &liability.Type,
		&liability.PrincipalAmount, &liability.OutstandingBalance, &liability.InterestRate,
		&liability.IsArchived, &liability.CreatedAt, &liability.UpdatedAt)
	return liability, err
}

// Create создает обязательство пользователя.
func (r *LiabilityRepository) Create(ctx context.Context, userID uuid.UUID, params CreateLiabilityParams) (models.Liability, error) {
	if params.OutstandingBalance.IsNegative() || params.PrincipalAmount.IsNegative() {
		return models.Liability{}, ErrInvalid
	}

	liability, err := scanLiability(r.db.QueryRow(ctx,
		`INSERT INTO liabilities (id, user_id, name, type, principal_amount, outstanding_balance, interest_rate)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 RETURNING `+liabilityColumns,
		uuid.New(), userID, params.Name, params.Type, params.PrincipalAmount, params.OutstandingBalance, params.InterestRate,
	))
	if err != nil {
		return models.Liability{}, err
	}

	return liability, nil
}

// GetByID возвращает обязательство пользователя.
func (r *LiabilityRepository) GetByID(ctx context.Context, userID, liabilityID uuid.UUID) (models.Liability, error) {
	liability, err := scanLiability(r.db.QueryRow(ctx,
		`SELECT `+liabilityColumns+`
		 FROM liabilities
		 WHERE id = $1 AND user_id = $2`,
		liabilityID, userID,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return liability, ErrNotFound
		}
		return liability, err
	}

	return liability, nil
}

// ListByUser возвращает неархивные обязательства пользователя.
func (r *LiabilityRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]models.Liability, error) {
	rows, err := r.db.Query(ctx,
		`SELECT `+liabilityColumns+`
		 FROM liabilities
		 WHERE user_id = $1 AND NOT is_archived
		 ORDER BY created_at`,
		userID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	liabilities := make([]models.Liability, 0)
	for rows.Next() {
		liability, err := scanLiability(rows)
		if err != nil {
			return nil, err
		}
		liabilities = append(liabilities, liability)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return liabilities, nil
}

// Update применяет частичное обновление обязательства.
func (r *LiabilityRepository) Update(ctx context.Context, userID, liabilityID uuid.UUID, params UpdateLiabilityParams) (models.Liability, error) {
	if params.OutstandingBalance != nil && params.OutstandingBalance.IsNegative() {
		return models.Liability{}, ErrInvalid
	}

	liability, err := scanLiability(r.db.QueryRow(ctx,
		`UPDATE liabilities
		 SET name = COALESCE($3, name),
		     outstanding_balance = COALESCE($4, outstanding_balance),
		     interest_rate = COALESCE($5, interest_rate),
		     updated_at = NOW()
		 WHERE id = $1 AND user_id = $2
		 RETURNING `+liabilityColumns,
		liabilityID, userID, params.Name, params.OutstandingBalance, params.InterestRate,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return liability, ErrNotFound
		}
		return liability, err
	}

	return liability, nil
}

// Archive исключает обязательство из расчета капитала.
func (r *LiabilityRepository) Archive(ctx context.Context, userID, liabilityID uuid.UUID) error {
	cmd, err := r.db.Exec(ctx,
		`UPDATE liabilities
		 SET is_archived = TRUE, updated_at = NOW()
		 WHERE id = $1 AND user_id = $2`,
		liabilityID, userID,
	)
	if err != nil {
		return err
	}

	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}

	return nil
}

// RecordPayment записывает платеж и уменьшает остаток долга одной транзакцией.
// Остаток не уходит ниже нуля.
func (r *LiabilityRepository) RecordPayment(ctx context.Context, userID, liabilityID uuid.UUID, amount decimal.Decimal, paidDate time.Time, notes *string) (models.LiabilityPayment, models.Liability, error) {
	if !amount.IsPositive() {
		return models.LiabilityPayment{}, models.Liability{}, ErrInvalid
	}

	tx, err := r.db.Begin(ctx)
	if err != nil {
		return models.LiabilityPayment{}, models.Liability{}, err
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	liability, err := scanLiability(tx.QueryRow(ctx,
		`SELECT `+liabilityColumns+`
		 FROM liabilities
		 WHERE id = $1 AND user_id = $2
		 FOR UPDATE`,
		liabilityID, userID,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.LiabilityPayment{}, models.Liability{}, ErrNotFound
		}
		return models.LiabilityPayment{}, models.Liability{}, err
	}

	var payment models.LiabilityPayment
	err = tx.QueryRow(ctx,
		`INSERT INTO liability_payments (id, liability_id, amount, paid_date, notes)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING id, liability_id, amount, paid_date, notes, created_at`,
		uuid.New(), liabilityID, amount, paidDate, notes,
	).Scan(&payment.ID, &payment.LiabilityID, &payment.Amount, &payment.PaidDate, &payment.Notes, &payment.CreatedAt)
	if err != nil {
		return models.LiabilityPayment{}, models.Liability{}, err
	}

	newBalance := liability.OutstandingBalance.Sub(amount)
	if newBalance.IsNegative() {
		newBalance = decimal.Zero
	}

	liability, err = scanLiability(tx.QueryRow(ctx,
		`UPDATE liabilities
		 SET outstanding_balance = $3, updated_at = NOW()
		 WHERE id = $1 AND user_id = $2
		 RETURNING `+liabilityColumns,
		liabilityID, userID, newBalance,
	))
	if err != nil {
		return models.LiabilityPayment{}, models.Liability{}, err
	}

	if err := tx.Commit(ctx); err != nil {
		return models.LiabilityPayment{}, models.Liability{}, err
	}

	return payment, liability, nil
}

// ListPayments возвращает историю платежей по обязательству.
func (r *LiabilityRepository) ListPayments(ctx context.Context, userID, liabilityID uuid.UUID) ([]models.LiabilityPayment, error) {
	if _, err := r.GetByID(ctx, userID, liabilityID); err != nil {
		return nil, err
	}

	rows, err := r.db.Query(ctx,
		`SELECT id, liability_id, amount, paid_date, notes, created_at
		 FROM liability_payments
		 WHERE liability_id = $1
		 ORDER BY paid_date DESC, created_at DESC`,
		liabilityID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	payments := make([]models.LiabilityPayment, 0)
	for rows.Next() {
		var payment models.LiabilityPayment
		err := rows.Scan(&payment.ID, &payment.LiabilityID, &payment.Amount, &payment.PaidDate, &payment.Notes, &payment.CreatedAt)
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
