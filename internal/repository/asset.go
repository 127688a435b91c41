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

type AssetRepository struct {
	db *pgxpool.Pool
}

type CreateAssetParams struct {
	Name          string
	Type          models.AssetType
	Subtype       *string
	CurrentValue  decimal.Decimal
	PurchaseValue decimal.Decimal
}

type UpdateAssetParams struct {
	Name         *string
	Subtype      *string
	CurrentValue *decimal.Decimal
}

// NewAssetRepository создает репозиторий активов.
func NewAssetRepository(db *pgxpool.Pool) *AssetRepository {
	return &AssetRepository{db: db}
}

const assetColumns = `id, user_id, name, type, subtype, current_value, purchase_value, is_archived, created_at, updated_at`

func scanAsset(row pgx.Row) (models.Asset, error) {
	var asset models.Asset
	err := row.Scan(&asset.ID, &asset.UserID, &asset.Name, &asset.Type, &asset.Subtype,
		&asset.CurrentValue, &asset.PurchaseValue, &asset.IsArchived, &asset.CreatedAt, &asset.UpdatedAt)
	return asset, err
}

// Create создает актив пользователя.
func (r *AssetRepository) Create(ctx context.Context, userID uuid.UUID, params CreateAssetParams) (models.Asset, error) {
	asset, err := scanAsset(r.db.QueryRow(ctx,
		`INSERT INTO assets (id, user_id, name, type, subtype, current_value, purchase_value)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 RETURNING `+assetColumns,
		uuid.New(), userID, params.Name, params.Type, params.Subtype, params.CurrentValue, params.PurchaseValue,
	))
	if err != nil {
		return models.Asset{}, err
	}

	return asset, nil
}

// GetByID возвращает актив пользователя.
func (r *AssetRepository) GetByID(ctx context.Context, userID, assetID uuid.UUID) (models.Asset, error) {
	asset, err := scanAsset(r.db.QueryRow(ctx,
		`SELECT `+assetColumns+`
		 FROM assets
		 WHERE id = $1 AND user_id = $2`,
		assetID, userID,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return asset, ErrNotFound
		}
		return asset, err
	}

	return asset, nil
}

// ListByUser возвращает неархивные активы пользователя.
func (r *AssetRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]models.Asset, error) {
	rows, err := r.db.Query(ctx,
		`SELECT `+assetColumns+`
		 FROM assets
		 WHERE user_id = $1 AND NOT is_archived
		 ORDER BY created_at`,
		userID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	assets := make([]models.Asset, 0)
	for rows.Next() {
		asset, err := scanAsset(rows)
		if err != nil {
			return nil, err
		}
		assets = append(assets, asset)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return assets, nil
}

// Update применяет частичное обновление актива.
func (r *AssetRepository) Update(ctx context.Context, userID, assetID uuid.UUID, params UpdateAssetParams) (models.Asset, error) {
	asset, err := scanAsset(r.db.QueryRow(ctx,
		`UPDATE assets
		 SET name = COALESCE($3, name),
		     subtype = COALESCE($4, subtype),
		     current_value = COALESCE($5, current_value),
		     updated_at = NOW()
		 WHERE id = $1 AND user_id = $2
		 RETURNING `+assetColumns,
		assetID, userID, params.Name, params.Subtype, params.CurrentValue,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return asset, ErrNotFound
		}
		return asset, err
	}

	return asset, nil
}

// Archive исключает актив из расчета капитала.
func (r *AssetRepository) Archive(ctx context.Context, userID, assetID uuid.UUID) error {
	cmd, err := r.db.Exec(ctx,
		`UPDATE assets
		 SET is_archived = TRUE, updated_at = NOW()
		 WHERE id = $1 AND user_id = $2`,
		assetID, userID,
	)
	if err != nil {
		return err
	}

	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}

	return nil
}
