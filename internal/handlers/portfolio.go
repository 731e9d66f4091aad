package handlers

import (
	"net/http"
	"time"

	"paisa/internal/database"
	"paisa/internal/finance"
	"paisa/internal/models"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

type MFTransactionRequest struct {
	IdempotencyKey string    `json:"idempotency_key"`
	UserID         string    `json:"user_id" binding:"required"`
	SchemeCode     string    `json:"scheme_code" binding:"required"`
	SchemeName     string    `json:"scheme_name"`
	TxnType        string    `json:"txn_type" binding:"required,oneof=BUY SELL"`
	Units          string    `json:"units" binding:"required"`
	NAV            string    `json:"nav" binding:"required"`
	TxnDate        time.Time `json:"txn_date" binding:"required"`
}

func (h *Handler) PostMFTransaction(c *gin.Context) {
	var req MFTransactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.log.Warnf("invalid transaction body: %v", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	units, err := decimal.NewFromString(req.Units)
	if err != nil || units.Sign() <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid units"})
		return
	}
	nav, err := decimal.NewFromString(req.NAV)
	if err != nil || nav.Sign() <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid nav"})
		return
	}

	ctx := c.Request.Context()
	if err := h.repo.EnsureUserExists(ctx, req.UserID, ""); err != nil {
		h.log.Warnf("ensure user: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal"})
		return
	}

	id, created, err := h.repo.CreateMFTransaction(ctx, models.MFTransaction{
		UserID:         req.UserID,
		SchemeCode:     req.SchemeCode,
		SchemeName:     req.SchemeName,
		TxnType:        req.TxnType,
		Units:          units,
		NAV:            nav,
		Amount:         units.Mul(nav),
		TxnDate:        req.TxnDate,
		IdempotencyKey: req.IdempotencyKey,
	})
	if err != nil {
		h.log.Errorf("create transaction failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "create failed"})
		return
	}
	if !created {
		c.JSON(http.StatusOK, gin.H{"transaction_id": id, "status": "already_exists"})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"transaction_id": id})
}

func (h *Handler) GetMFTransactions(c *gin.Context) {
	rows, err := h.repo.GetMFTransactions(c.Request.Context(), c.Param("userId"))
	if err != nil {
		h.log.Errorf("get transactions failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "query failed"})
		return
	}
	c.JSON(http.StatusOK, rows)
}

// GetPortfolio is the dashboard endpoint: per-scheme positions valued at
// latest NAV, plus totals and the XIRR of the whole series.
func (h *Handler) GetPortfolio(c *gin.Context) {
	ctx := c.Request.Context()
	userID := c.Param("userId")

	positions, err := h.repo.GetSchemePositions(ctx, userID)
	if err != nil {
		h.log.Errorf("get positions failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "query failed"})
		return
	}

	total := decimal.Zero
	invested := decimal.Zero
	for i := range positions {
		nav, _, err := h.nav.GetNAV(ctx, positions[i].SchemeCode)
		if err != nil {
			h.log.Warnf("no nav for %s: %v", positions[i].SchemeCode, err)
			continue
		}
		positions[i].CurrentNAV = nav
		positions[i].CurrentValue = positions[i].Units.Mul(nav)
		total = total.Add(positions[i].CurrentValue)
		invested = invested.Add(positions[i].Invested)
	}

	resp := gin.H{
		"positions":         positions,
		"invested_inr":      invested.StringFixed(2),
		"current_inr":       total.StringFixed(2),
		"current_formatted": finance.FormatINR(total),
		"current_compact":   finance.CompactINR(total),
	}
	if rate, err := h.portfolioXIRR(c, userID, nil, total); err == nil {
		resp["xirr_pct"] = decimal.NewFromFloat(rate * 100).Round(2)
	}
	c.JSON(http.StatusOK, resp)
}

// GetReturns reports the XIRR of the user's full mutual-fund history.
func (h *Handler) GetReturns(c *gin.Context) {
	ctx := c.Request.Context()
	userID := c.Param("userId")

	positions, err := h.repo.GetSchemePositions(ctx, userID)
	if err != nil {
		h.log.Errorf("get positions failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "query failed"})
		return
	}
	total := decimal.Zero
	for _, p := range positions {
		nav, _, err := h.nav.GetNAV(ctx, p.SchemeCode)
		if err != nil {
			continue
		}
		total = total.Add(p.Units.Mul(nav))
	}

	rate, err := h.portfolioXIRR(c, userID, nil, total)
	if err != nil {
		h.log.Warnf("xirr for %s failed: %v", userID, err)
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "xirr not computable"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"xirr_pct":    decimal.NewFromFloat(rate * 100).Round(2),
		"current_inr": total.StringFixed(2),
	})
}

// portfolioXIRR builds the signed flow series from the transaction log and
// appends the current value as the terminal inflow.
func (h *Handler) portfolioXIRR(c *gin.Context, userID string, schemeCodes []string, currentValue decimal.Decimal) (float64, error) {
	flows, err := h.repo.GetCashFlows(c.Request.Context(), userID, schemeCodes)
	if err != nil {
		return 0, err
	}
	if currentValue.Sign() > 0 {
		flows = append(flows, finance.CashFlow{Date: time.Now().UTC(), Amount: currentValue})
	}
	return finance.XIRR(flows)
}

// GetGoalProgress values the schemes mapped to a goal against its target.
func (h *Handler) GetGoalProgress(c *gin.Context) {
	ctx := c.Request.Context()
	goalID := c.Param("id")

	goal, err := h.repo.GetGoal(ctx, goalID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "goal not found"})
		return
	}
	schemes, err := h.repo.GetGoalSchemes(ctx, goalID)
	if err != nil {
		h.log.Errorf("get goal schemes failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "query failed"})
		return
	}

	linked := map[string]bool{}
	for _, s := range schemes {
		linked[s] = true
	}

	positions, err := h.repo.GetSchemePositions(ctx, goal.UserID)
	if err != nil {
		h.log.Errorf("get positions failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "query failed"})
		return
	}

	value := decimal.Zero
	for _, p := range positions {
		if !linked[p.SchemeCode] {
			continue
		}
		nav, _, err := h.nav.GetNAV(ctx, p.SchemeCode)
		if err != nil {
			h.log.Warnf("no nav for %s: %v", p.SchemeCode, err)
			continue
		}
		value = value.Add(p.Units.Mul(nav))
	}

	pct := decimal.Zero
	if goal.TargetAmount.Sign() > 0 {
		pct = value.Div(goal.TargetAmount).Mul(decimal.NewFromInt(100)).Round(2)
	}
	progress := database.GoalProgress{
		GoalID:       goal.ID,
		Name:         goal.Name,
		TargetAmount: goal.TargetAmount,
		LinkedValue:  value,
		PercentDone:  pct,
	}
	c.JSON(http.StatusOK, gin.H{"progress": progress, "schemes": schemes})
}

// ---- quotes ----

func (h *Handler) GetNAV(c *gin.Context) {
	nav, asOf, err := h.nav.GetNAV(c.Request.Context(), c.Param("schemeCode"))
	if err != nil {
		h.log.Warnf("nav lookup failed: %v", err)
		c.JSON(http.StatusBadGateway, gin.H{"error": "nav fetch failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"scheme_code": c.Param("schemeCode"), "nav": nav, "as_of": asOf.Format("2006-01-02")})
}

func (h *Handler) PostNAVRefresh(c *gin.Context) {
	if err := h.nav.RefreshAll(c.Request.Context()); err != nil {
		h.log.Errorf("nav refresh failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "refresh failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "refreshed"})
}

func (h *Handler) GetPrice(c *gin.Context) {
	price, ts, err := h.quotes.GetPrice(c.Request.Context(), c.Param("symbol"))
	if err != nil {
		h.log.Warnf("price lookup failed: %v", err)
		c.JSON(http.StatusBadGateway, gin.H{"error": "price fetch failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"symbol": c.Param("symbol"), "price_inr": price, "timestamp": ts})
}
