package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"

	"example.com/fintrack/backend/internal/auth"
	"example.com/fintrack/backend/internal/models"
	"example.com/fintrack/backend/internal/repository"
)

type AssetHandler struct {
	Assets *repository.AssetRepository
}

// NewAssetHandler создает обработчик активов.
func NewAssetHandler(assets *repository.AssetRepository) *AssetHandler {
	return &AssetHandler{Assets: assets}
}

type CreateAssetRequest struct {
	Name          string  `json:"name" validate:"required,max=100"`
	Type          string  `json:"type" validate:"required,oneof=investment fixed_deposit retirement"`
	Subtype       *string `json:"subtype" validate:"omitempty,max=50"`
	CurrentValue  string  `json:"current_value" validate:"required"`
	PurchaseValue *string `json:"purchase_value"`
}

type UpdateAssetRequest struct {
	Name         *string `json:"name" validate:"omitempty,max=100"`
	Subtype      *string `json:"subtype" validate:"omitempty,max=50"`
	CurrentValue *string `json:"current_value"`
}

// Create добавляет актив.
func (h *AssetHandler) Create(c echo.Context) error {
	userID, ok := auth.UserIDFromContext(c)
	if !ok {
		return unauthorized(c)
	}

	var req CreateAssetRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return badRequest(c, "validation failed")
	}

	currentValue, err := parseNonNegativeValue(req.CurrentValue)
	if err != nil {
		return badRequest(c, "invalid current value")
	}

	purchaseValue := currentValue
	if req.PurchaseValue != nil {
		purchaseValue, err = parseNonNegativeValue(*req.PurchaseValue)
		if err != nil {
			return badRequest(c, "invalid purchase value")
		}
	}

	asset, err := h.Assets.Create(c.Request().Context(), userID, repository.CreateAssetParams{
		Name:          strings.TrimSpace(req.Name),
		Type:          models.AssetType(req.Type),
		Subtype:       req.Subtype,
		CurrentValue:  currentValue,
		PurchaseValue: purchaseValue,
	})
	if err != nil {
		return serverError(c)
	}

	return c.JSON(http.StatusCreated, asset)
}

// List возвращает активы пользователя.
func (h *AssetHandler) List(c echo.Context) error {
	userID, ok := auth.UserIDFromContext(c)
	if !ok {
		return unauthorized(c)
	}

	assets, err := h.Assets.ListByUser(c.Request().Context(), userID)
	if err != nil {
		return serverError(c)
	}

	return c.JSON(http.StatusOK, map[string]any{"assets": assets})
}

// Get возвращает один актив.
func (h *AssetHandler) Get(c echo.Context) error {
	userID, ok := auth.UserIDFromContext(c)
	if !ok {
		return unauthorized(c)
	}

	assetID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return badRequest(c, "invalid asset id")
	}

	asset, err := h.Assets.GetByID(c.Request().Context(), userID, assetID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return notFound(c, "asset not found")
		}
		return serverError(c)
	}

	return c.JSON(http.StatusOK, asset)
}

// Update изменяет актив.
func (h *AssetHandler) Update(c echo.Context) error {
	userID, ok := auth.UserIDFromContext(c)
	if !ok {
		return unauthorized(c)
	}

	assetID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return badRequest(c, "invalid asset id")
	}

	var req UpdateAssetRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return badRequest(c, "validation failed")
	}

	params := repository.UpdateAssetParams{Subtype: req.Subtype}

	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return badRequest(c, "name must not be empty")
		}
		params.Name = &name
	}

	if req.CurrentValue != nil {
		currentValue, err := parseNonNegativeValue(*req.CurrentValue)
		if err != nil {
			return badRequest(c, "invalid current value")
		}
		params.CurrentValue = &currentValue
	}

	asset, err := h.Assets.Update(c.Request().Context(), userID, assetID, params)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return notFound(c, "asset not found")
		}
		return serverError(c)
	}

	return c.JSON(http.StatusOK, asset)
}

// Archive скрывает актив из расчетов.
func (h *AssetHandler) Archive(c echo.Context) error {
	userID, ok := auth.UserIDFromContext(c)
	if !ok {
		return unauthorized(c)
	}

	assetID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return badRequest(c, "invalid asset id")
	}

	if err := h.Assets.Archive(c.Request().Context(), userID, assetID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return notFound(c, "asset not found")
		}
		return serverError(c)
	}

	return c.NoContent(http.StatusNoContent)
}

func parseNonNegativeValue(raw string) (decimal.Decimal, error) {
	value, err := decimal.NewFromString(strings.TrimSpace(raw))
	if err != nil {
		return decimal.Decimal{}, err
	}
	if value.IsNegative() {
		return decimal.Decimal{}, errors.New("value must not be negative")
	}
	return value, nil
}
