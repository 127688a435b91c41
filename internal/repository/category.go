package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"example.com/fintrack/backend/internal/models"
)

type CategoryRepository struct {
	db *pgxpool.Pool
}

// NewCategoryRepository создает репозиторий категорий.
func NewCategoryRepository(db *pgxpool.Pool) *CategoryRepository {
	return &CategoryRepository{db: db}
}

// Create создает категорию пользователя.
func (r *CategoryRepository) Create(ctx context.Context, userID uuid.UUID, name string, categoryType models.CategoryType, sortOrder int) (models.Category, error) {
	var category models.Category

	err := r.db.QueryRow(ctx,
		`INSERT INTO categories (id, user_id, name, type, sort_order)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING id, user_id, name, type, sort_order, is_archived, created_at`,
		uuid.New(), userID, name, categoryType, sortOrder,
	).Scan(&category.ID, &category.UserID, &category.Name, &category.Type, &category.SortOrder, &category.IsArchived, &category.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return category, ErrConflict
		}
		return category, err
	}

	return category, nil
}

// GetByID возвращает категорию пользователя.
func (r *CategoryRepository) GetByID(ctx context.Context, userID, categoryID uuid.UUID) (models.Category, error) {
	var category models.Category

	err := r.db.QueryRow(ctx,
		`SELECT id, user_id, name, type, sort_order, is_archived, created_at
		 FROM categories
		 WHERE id = $1 AND user_id = $2`,
		categoryID, userID,
	).Scan(&category.ID, &category.UserID, &category.Name, &category.Type, &category.SortOrder, &category.IsArchived, &category.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return category, ErrNotFound
		}
		return category, err
	}

	return category, nil
}

// ListByUser возвращает категории пользователя с сортировкой.
func (r *CategoryRepository) ListByUser(ctx context.Context, userID uuid.UUID, includeArchived bool) ([]models.Category, error) {
	rows, err := r.db.Query(ctx,
		`SELECT id, user_id, name, type, sort_order, is_archived, created_at
		 FROM categories
		 WHERE user_id = $1 AND ($2 OR NOT is_archived)
		 ORDER BY sort_order, created_at`,
		userID, includeArchived,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	categories := make([]models.Category, 0)
	for rows.Next() {
		var category models.Category
		err := rows.Scan(&category.ID, &category.UserID, &category.Name, &category.Type, &category.SortOrder, &category.IsArchived, &category.CreatedAt)
		if err != nil {
			return nil, err
		}
		categories = append(categories, category)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return categories, nil
}

// Archive скрывает категорию, не трогая ее транзакции.
func (r *CategoryRepository) Archive(ctx context.Context, userID, categoryID uuid.UUID) error {
	cmd, err := r.db.Exec(ctx,
		`UPDATE categories
		 SET is_archived = TRUE
		 WHERE id = $1 AND user_id = $2`,
		categoryID, userID,
	)
	if err != nil {
		return err
	}

	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}

	return nil
}

// CreateSubCategory создает подкатегорию внутри категории пользователя.
func (r *CategoryRepository) CreateSubCategory(ctx context.Context, userID, categoryID uuid.UUID, name string, sortOrder int) (models.SubCategory, error) {
	var sub models.SubCategory

	var exists bool
	err := r.db.QueryRow(ctx,
		`SELECT EXISTS (
			SELECT 1 FROM categories WHERE id = $1 AND user_id = $2
		 )`,
		categoryID, userID,
	).Scan(&exists)
	if err != nil {
		return sub, err
	}
	if !exists {
		return sub, ErrNotFound
	}

	err = r.db.QueryRow(ctx,
		`INSERT INTO sub_categories (id, category_id, name, sort_order)
		 VALUES ($1, $2, $3, $4)
		 RETURNING id, category_id, name, sort_order, is_archived, created_at`,
		uuid.New(), categoryID, name, sortOrder,
	).Scan(&sub.ID, &sub.CategoryID, &sub.Name, &sub.SortOrder, &sub.IsArchived, &sub.CreatedAt)
	if err != nil {
		return sub, err
	}

	return sub, nil
}

// ListSubCategories возвращает подкатегории категории пользователя.
func (r *CategoryRepository) ListSubCategories(ctx context.Context, userID, categoryID uuid.UUID) ([]models.SubCategory, error) {
	rows, err := r.db.Query(ctx,
		`SELECT s.id, s.category_id, s.name, s.sort_order, s.is_archived, s.created_at
		 FROM sub_categories s
		 JOIN categories c ON c.id = s.category_id
		 WHERE s.category_id = $1 AND c.user_id = $2 AND NOT s.is_archived
		 ORDER BY s.sort_order, s.created_at`,
		categoryID, userID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	subs := make([]models.SubCategory, 0)
	for rows.Next() {
		var sub models.SubCategory
		err := rows.Scan(&sub.ID, &sub.CategoryID, &sub.Name, &sub.SortOrder, &sub.IsArchived, &sub.CreatedAt)
		if err != nil {
			return nil, err
		}
		subs = append(subs, sub)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return subs, nil
}

// ArchiveSubCategory скрывает подкатегорию.
func (r *CategoryRepository) ArchiveSubCategory(ctx context.Context, userID, subCategoryID uuid.UUID) error {
	cmd, err := r.db.Exec(ctx,
		`UPDATE sub_categories s
		 SET is_archived = TRUE
		 FROM categories c
		 WHERE s.id = $1 AND c.id = s.category_id AND c.user_id = $2`,
		subCategoryID, userID,
	)
	if err != nil {
		return err
	}

	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}

	return nil
}
