package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"example.com/fintrack/backend/internal/auth"
	"example.com/fintrack/backend/internal/ledger"
	"example.com/fintrack/backend/internal/notifications"
	"example.com/fintrack/backend/internal/repository"
)

type NetworthHandler struct {
	Accounts    *repository.AccountRepository
	Assets      *repository.AssetRepository
	Liabilities *repository.LiabilityRepository
	Snapshots   *repository.SnapshotRepository
	Hub         *notifications.Hub
	Timezone    *time.Location
}

// NewNetworthHandler создает обработчик расчета капитала.
func NewNetworthHandler(
	accounts *repository.AccountRepository,
	assets *repository.AssetRepository,
	liabilities *repository.LiabilityRepository,
	snapshots *repository.SnapshotRepository,
	hub *notifications.Hub,
	timezone *time.Location,
) *NetworthHandler {
	return &NetworthHandler{
		Accounts:    accounts,
		Assets:      assets,
		Liabilities: liabilities,
		Snapshots:   snapshots,
		Hub:         hub,
		Timezone:    timezone,
	}
}

// Get рассчитывает текущий капитал по живым данным.
func (h *NetworthHandler) Get(c echo.Context) error {
	userID, ok := auth.UserIDFromContext(c)
	if !ok {
		return unauthorized(c)
	}

	netWorth, err := h.compute(c, userID)
	if err != nil {
		return serverError(c)
	}

	return c.JSON(http.StatusOK, netWorth)
}

// CreateSnapshot фиксирует текущий капитал отдельной записью.
func (h *NetworthHandler) CreateSnapshot(c echo.Context) error {
	userID, ok := auth.UserIDFromContext(c)
	if !ok {
		return unauthorized(c)
	}

	netWorth, err := h.compute(c, userID)
	if err != nil {
		return serverError(c)
	}

	breakdown, err := json.Marshal(netWorth.Breakdown)
	if err != nil {
		return serverError(c)
	}

	snapshotDate := todayDate(h.Timezone)

	snapshot, err := h.Snapshots.Create(c.Request().Context(), userID, repository.CreateSnapshotParams{
		SnapshotDate:     snapshotDate,
		TotalAssets:      netWorth.TotalAssets,
		TotalLiabilities: netWorth.TotalLiabilities,
		NetWorth:         netWorth.NetWorth,
		Breakdown:        breakdown,
	})
	if err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return conflict(c, "snapshot already exists")
		}
		return serverError(c)
	}

	h.Hub.Publish(userID, notifications.Event{
		Type: notifications.EventSnapshotCreated,
		Data: map[string]any{
			"snapshot_id": snapshot.ID,
			"net_worth":   snapshot.NetWorth,
		},
	})

	return c.JSON(http.StatusCreated, snapshot)
}

// ListSnapshots возвращает историю снимков.
func (h *NetworthHandler) ListSnapshots(c echo.Context) error {
	userID, ok := auth.UserIDFromContext(c)
	if !ok {
		return unauthorized(c)
	}

	limit := 0
	if raw := c.QueryParam("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 || parsed > 1000 {
			return badRequest(c, "invalid limit")
		}
		limit = parsed
	}

	snapshots, err := h.Snapshots.ListByUser(c.Request().Context(), userID, limit)
	if err != nil {
		return serverError(c)
	}

	return c.JSON(http.StatusOK, map[string]any{"snapshots": snapshots})
}

func (h *NetworthHandler) compute(c echo.Context, userID uuid.UUID) (ledger.NetWorth, error) {
	ctx := c.Request().Context()

	accounts, err := h.Accounts.ListByUser(ctx, userID, false)
	if err != nil {
		return ledger.NetWorth{}, err
	}

	assets, err := h.Assets.ListByUser(ctx, userID)
	if err != nil {
		return ledger.NetWorth{}, err
	}

	liabilities, err := h.Liabilities.ListByUser(ctx, userID)
	if err != nil {
		return ledger.NetWorth{}, err
	}

	return ledger.ComputeNetWorth(accounts, assets, liabilities), nil
}
