package repository

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"example.com/fintrack/backend/internal/models"
)

type SnapshotRepository struct {
	db *pgxpool.Pool
}

type CreateSnapshotParams struct {
	SnapshotDate     time.Time
	TotalAssets      decimal.Decimal
	TotalLiabilities decimal.Decimal
	NetWorth         decimal.Decimal
	Breakdown        json.RawMessage
}

// NewSnapshotRepository создает репозиторий снимков капитала.
func NewSnapshotRepository(db *pgxpool.Pool) *SnapshotRepository {
	return &SnapshotRepository{db: db}
}

const snapshotColumns = `id, user_id, snapshot_date, total_assets, total_liabilities, net_worth, breakdown, created_at`

func scanSnapshot(row pgx.Row) (models.NetworthSnapshot, error) {
	var snapshot models.NetworthSnapshot
	err := row.Scan(&snapshot.ID, &snapshot.UserID, &snapshot.SnapshotDate, &snapshot.TotalAssets,
		&snapshot.TotalLiabilities, &snapshot.NetWorth, &snapshot.Breakdown, &snapshot.CreatedAt)
	return snapshot, err
}

// Create сохраняет снимок; несколько снимков в один день допустимы.
func (r *SnapshotRepository) Create(ctx context.Context, userID uuid.UUID, params CreateSnapshotParams) (models.NetworthSnapshot, error) {
	snapshot, err := scanSnapshot(r.db.QueryRow(ctx,
		`INSERT INTO networth_snapshots (id, user_id, snapshot_date, total_assets, total_liabilities, net_worth, breakdown)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 RETURNING `+snapshotColumns,
		uuid.New(), userID, params.SnapshotDate, params.TotalAssets, params.TotalLiabilities, params.NetWorth, params.Breakdown,
	))
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return models.NetworthSnapshot{}, ErrConflict
		}
		return models.NetworthSnapshot{}, err
	}

	return snapshot, nil
}

// ListByUser возвращает снимки пользователя, свежие первыми.
func (r *SnapshotRepository) ListByUser(ctx context.Context, userID uuid.UUID, limit int) ([]models.NetworthSnapshot, error) {
	if limit <= 0 {
		limit = 100
	}

	rows, err := r.db.Query(ctx,
		`SELECT `+snapshotColumns+`
		 FROM networth_snapshots
		 WHERE user_id = $1
		 ORDER BY snapshot_date DESC, created_at DESC
		 LIMIT $2`,
		userID, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	snapshots := make([]models.NetworthSnapshot, 0)
	for rows.Next() {
		snapshot, err := scanSnapshot(rows)
		if err != nil {
			return nil, err
		}
		snapshots = append(snapshots, snapshot)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return snapshots, nil
}

// GetByID возвращает снимок пользователя.
func (r *SnapshotRepository) GetByID(ctx context.Context, userID, snapshotID uuid.UUID) (models.NetworthSnapshot, error) {
	snapshot, err := scanSnapshot(r.db.QueryRow(ctx,
		`SELECT `+snapshotColumns+`
		 FROM networth_snapshots
		 WHERE id = $1 AND user_id = $2`,
		snapshotID, userID,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return snapshot, ErrNotFound
		}
		return snapshot, err
	}

	return snapshot, nil
}
