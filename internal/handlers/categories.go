package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"example.com/fintrack/backend/internal/auth"
	"example.com/fintrack/backend/internal/models"
	"example.com/fintrack/backend/internal/repository"
)

type CategoryHandler struct {
	Categories *repository.CategoryRepository
}

// NewCategoryHandler создает обработчик категорий.
func NewCategoryHandler(categories *repository.CategoryRepository) *CategoryHandler {
	return &CategoryHandler{Categories: categories}
}

type CreateCategoryRequest struct {
	Name      string `json:"name" validate:"required,max=100"`
	Type      string `json:"type" validate:"required,oneof=income needs wants savings"`
	SortOrder int    `json:"sort_order" validate:"gte=0"`
}

type CreateSubCategoryRequest struct {
	Name      string `json:"name" validate:"required,max=100"`
	SortOrder int    `json:"sort_order" validate:"gte=0"`
}

// Create создает категорию.
func (h *CategoryHandler) Create(c echo.Context) error {
	userID, ok := auth.UserIDFromContext(c)
	if !ok {
		return unauthorized(c)
	}

	var req CreateCategoryRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return badRequest(c, "validation failed")
	}

	category, err := h.Categories.Create(c.Request().Context(), userID, strings.TrimSpace(req.Name), models.CategoryType(req.Type), req.SortOrder)
	if err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return conflict(c, "category already exists")
		}
		return serverError(c)
	}

	return c.JSON(http.StatusCreated, category)
}

// List возвращает категории пользователя.
func (h *CategoryHandler) List(c echo.Context) error {
	userID, ok := auth.UserIDFromContext(c)
	if !ok {
		return unauthorized(c)
	}

	includeArchived := c.QueryParam("include_archived") == "true"

	categories, err := h.Categories.ListByUser(c.Request().Context(), userID, includeArchived)
	if err != nil {
		return serverError(c)
	}

	return c.JSON(http.StatusOK, map[string]any{"categories": categories})
}

// Archive архивирует категорию.
func (h *CategoryHandler) Archive(c echo.Context) error {
	userID, ok := auth.UserIDFromContext(c)
	if !ok {
		return unauthorized(c)
	}

	categoryID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return badRequest(c, "invalid category id")
	}

	if err := h.Categories.Archive(c.Request().Context(), userID, categoryID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return notFound(c, "category not found")
		}
		return serverError(c)
	}

	return c.NoContent(http.StatusNoContent)
}

// CreateSubCategory добавляет подкатегорию.
func (h *CategoryHandler) CreateSubCategory(c echo.Context) error {
	userID, ok := auth.UserIDFromContext(c)
	if !ok {
		return unauthorized(c)
	}

	categoryID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return badRequest(c, "invalid category id")
	}

	var req CreateSubCategoryRequest
	if err = c.Bind(&req); err != nil {
		return badRequest(c, "invalid payload")
	}
	if err = c.Validate(&req); err != nil {
		return badRequest(c, "validation failed")
	}

	sub, err := h.Categories.CreateSubCategory(c.Request().Context(), userID, categoryID, strings.TrimSpace(req.Name), req.SortOrder)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return notFound(c, "category not found")
		}
		return serverError(c)
	}

	return c.JSON(http.StatusCreated, sub)
}

// ListSubCategories возвращает подкатегории категории.
func (h *CategoryHandler) ListSubCategories(c echo.Context) error {
	userID, ok := auth.UserIDFromContext(c)
	if !ok {
		return unauthorized(c)
	}

	categoryID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return badRequest(c, "invalid category id")
	}

	subs, err := h.Categories.ListSubCategories(c.Request().Context(), userID, categoryID)
	if err != nil {
		return serverError(c)
	}

	return c.JSON(http.StatusOK, map[string]any{"sub_categories": subs})
}

// ArchiveSubCategory архивирует подкатегорию.
func (h *CategoryHandler) ArchiveSubCategory(c echo.Context) error {
	userID, ok := auth.UserIDFromContext(c)
	if !ok {
		return unauthorized(c)
	}

	subCategoryID, err := uuid.Parse(c.Param("subId"))
	if err != nil {
		return badRequest(c, "invalid sub-category id")
	}

	if err := h.Categories.ArchiveSubCategory(c.Request().Context(), userID, subCategoryID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return notFound(c, "sub-category not found")
		}
		return serverError(c)
	}

	return c.NoContent(http.StatusNoContent)
}
