package handlers

import (
	"database/sql"
	"errors"
	"net/http"
	"time"

	"paisa/internal/database"
	"paisa/internal/models"
	"paisa/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

type Handler struct {
	repo   *database.Repo
	nav    service.NavProvider
	quotes service.PriceProvider
	log    *logrus.Logger
}

func NewHandler(r *database.Repo, nav service.NavProvider, quotes service.PriceProvider, log *logrus.Logger) *Handler {
	return &Handler{repo: r, nav: nav, quotes: quotes, log: log}
}

// ---- goals ----

type GoalRequest struct {
	UserID       string    `json:"user_id" binding:"required"`
	Name         string    `json:"name" binding:"required"`
	TargetAmount string    `json:"target_amount" binding:"required"`
	TargetDate   time.Time `json:"target_date" binding:"required"`
}

func (h *Handler) PostGoal(c *gin.Context) {
	var req GoalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.log.Warnf("invalid goal body: %v", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	target, err := decimal.NewFromString(req.TargetAmount)
	if err != nil || target.Sign() <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid target_amount"})
		return
	}

	ctx := c.Request.Context()
	if err := h.repo.EnsureUserExists(ctx, req.UserID, ""); err != nil {
		h.log.Warnf("ensure user: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal"})
		return
	}
	id, err := h.repo.CreateGoal(ctx, models.Goal{
		UserID:       req.UserID,
		Name:         req.Name,
		TargetAmount: target,
		TargetDate:   req.TargetDate,
	})
	if err != nil {
		h.log.Errorf("create goal failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "create failed"})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"goal_id": id})
}

func (h *Handler) GetGoals(c *gin.Context) {
	goals, err := h.repo.GetGoals(c.Request.Context(), c.Param("userId"))
	if err != nil {
		h.log.Errorf("get goals failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "query failed"})
		return
	}
	c.JSON(http.StatusOK, goals)
}

func (h *Handler) PutGoal(c *gin.Context) {
	var req GoalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	target, err := decimal.NewFromString(req.TargetAmount)
	if err != nil || target.Sign() <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid target_amount"})
		return
	}
	err = h.repo.UpdateGoal(c.Request.Context(), models.Goal{
		ID:           c.Param("id"),
		Name:         req.Name,
		TargetAmount: target,
		TargetDate:   req.TargetDate,
	})
	if errors.Is(err, sql.ErrNoRows) {
		c.JSON(http.StatusNotFound, gin.H{"error": "goal not found"})
		return
	}
	if err != nil {
		h.log.Errorf("update goal failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "update failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "updated"})
}

func (h *Handler) DeleteGoal(c *gin.Context) {
	err := h.repo.DeleteGoal(c.Request.Context(), c.Param("id"))
	if errors.Is(err, sql.ErrNoRows) {
		c.JSON(http.StatusNotFound, gin.H{"error": "goal not found"})
		return
	}
	if err != nil {
		h.log.Errorf("delete goal failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "delete failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "deleted"})
}

type LinkSchemeRequest struct {
	SchemeCode string `json:"scheme_code" binding:"required"`
}

func (h *Handler) PostGoalScheme(c *gin.Context) {
	var req LinkSchemeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	err := h.repo.LinkScheme(c.Request.Context(), c.Param("id"), req.SchemeCode)
	if errors.Is(err, sql.ErrNoRows) {
		c.JSON(http.StatusNotFound, gin.H{"error": "goal not found"})
		return
	}
	if err != nil {
		h.log.Errorf("link scheme failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "link failed"})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"status": "linked"})
}

// ---- stock holdings ----

type StockRequest struct {
	UserID   string `json:"user_id" binding:"required"`
	Symbol   string `json:"symbol" binding:"required"`
	Quantity string `json:"quantity" binding:"required"`
	AvgCost  string `json:"avg_cost" binding:"required"`
}

func (h *Handler) PostStock(c *gin.Context) {
	var req StockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	qty, err := decimal.NewFromString(req.Quantity)
	if err != nil || qty.Sign() <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid quantity"})
		return
	}
	cost, err := decimal.NewFromString(req.AvgCost)
	if err != nil || cost.Sign() < 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid avg_cost"})
		return
	}

	ctx := c.Request.Context()
	if err := h.repo.EnsureUserExists(ctx, req.UserID, ""); err != nil {
		h.log.Warnf("ensure user: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal"})
		return
	}
	id, err := h.repo.CreateStockHolding(ctx, models.StockHolding{
		UserID:   req.UserID,
		Symbol:   req.Symbol,
		Quantity: qty,
		AvgCost:  cost,
	})
	if err != nil {
		h.log.Errorf("create stock holding failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "create failed"})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"holding_id": id})
}

// GetStocks returns the user's stock positions valued at live prices.
func (h *Handler) GetStocks(c *gin.Context) {
	ctx := c.Request.Context()
	holdings, err := h.repo.GetStockHoldings(ctx, c.Param("userId"))
	if err != nil {
		h.log.Errorf("get stock holdings failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "query failed"})
		return
	}

	positions := []database.StockPosition{}
	total := decimal.Zero
	for _, held := range holdings {
		price, _, err := h.quotes.GetPrice(ctx, held.Symbol)
		if err != nil {
			h.log.Warnf("no price for %s: %v", held.Symbol, err)
			continue
		}
		value := held.Quantity.Mul(price)
		positions = append(positions, database.StockPosition{
			Symbol:       held.Symbol,
			Quantity:     held.Quantity,
			AvgCost:      held.AvgCost,
			CurrentPrice: price,
			CurrentValue: value,
		})
		total = total.Add(value)
	}
	c.JSON(http.StatusOK, gin.H{"positions": positions, "total_inr": total.StringFixed(2)})
}

func (h *Handler) DeleteStock(c *gin.Context) {
	err := h.repo.DeleteStockHolding(c.Request.Context(), c.Param("id"))
	if errors.Is(err, sql.ErrNoRows) {
		c.JSON(http.StatusNotFound, gin.H{"error": "holding not found"})
		return
	}
	if err != nil {
		h.log.Errorf("delete stock holding failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "delete failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "deleted"})
}

// ---- NPS holdings ----

type NPSRequest struct {
	UserID     string `json:"user_id" binding:"required"`
	SchemeCode string `json:"scheme_code" binding:"required"`
	SchemeName string `json:"scheme_name"`
	Units      string `json:"units" binding:"required"`
}

func (h *Handler) PostNPS(c *gin.Context) {
	var req NPSRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	units, err := decimal.NewFromString(req.Units)
	if err != nil || units.Sign() <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid units"})
		return
	}

	ctx := c.Request.Context()
	if err := h.repo.EnsureUserExists(ctx, req.UserID, ""); err != nil {
		h.log.Warnf("ensure user: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal"})
		return
	}
	id, err := h.repo.CreateNPSHolding(ctx, models.NPSHolding{
		UserID:     req.UserID,
		SchemeCode: req.SchemeCode,
		SchemeName: req.SchemeName,
		Units:      units,
	})
	if err != nil {
		h.log.Errorf("create nps holding failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "create failed"})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"holding_id": id})
}

// GetNPS returns the user's NPS holdings valued at latest scheme NAVs.
func (h *Handler) GetNPS(c *gin.Context) {
	ctx := c.Request.Context()
	holdings, err := h.repo.GetNPSHoldings(ctx, c.Param("userId"))
	if err != nil {
		h.log.Errorf("get nps holdings failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "query failed"})
		return
	}

	type npsPosition struct {
		models.NPSHolding
		CurrentNAV   decimal.Decimal `json:"current_nav"`
		CurrentValue decimal.Decimal `json:"current_value"`
	}
	positions := []npsPosition{}
	total := decimal.Zero
	for _, held := range holdings {
		nav, _, err := h.nav.GetNAV(ctx, held.SchemeCode)
		if err != nil {
			h.log.Warnf("no nav for %s: %v", held.SchemeCode, err)
			positions = append(positions, npsPosition{NPSHolding: held})
			continue
		}
		value := held.Units.Mul(nav)
		positions = append(positions, npsPosition{NPSHolding: held, CurrentNAV: nav, CurrentValue: value})
		total = total.Add(value)
	}
	c.JSON(http.StatusOK, gin.H{"positions": positions, "total_inr": total.StringFixed(2)})
}

func (h *Handler) DeleteNPS(c *gin.Context) {
	err := h.repo.DeleteNPSHolding(c.Request.Context(), c.Param("id"))
	if errors.Is(err, sql.ErrNoRows) {
		c.JSON(http.StatusNotFound, gin.H{"error": "holding not found"})
		return
	}
	if err != nil {
		h.log.Errorf("delete nps holding failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "delete failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "deleted"})
}
