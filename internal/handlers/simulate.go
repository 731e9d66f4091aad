package handlers

import (
	"net/http"

	"paisa/internal/finance"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

var validate = validator.New()

type SimulateRequest struct {
	MonthlySIP      string  `json:"monthly_sip" binding:"required"`
	LumpSum         string  `json:"lump_sum"`
	AnnualReturnPct float64 `json:"annual_return_pct" validate:"gt=-100,lte=100"`
	StepUpPct       float64 `json:"step_up_pct" validate:"gte=0,lte=100"`
	Years           int     `json:"years" validate:"gt=0,lte=100"`
}

func (h *Handler) PostSimulate(c *gin.Context) {
	var req SimulateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := validate.Struct(req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	sip, err := decimal.NewFromString(req.MonthlySIP)
	if err != nil || sip.Sign() < 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid monthly_sip"})
		return
	}
	lump := decimal.Zero
	if req.LumpSum != "" {
		lump, err = decimal.NewFromString(req.LumpSum)
		if err != nil || lump.Sign() < 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid lump_sum"})
			return
		}
	}

	proj := finance.SimulateGoal(finance.GoalPlan{
		MonthlySIP:      sip,
		LumpSum:         lump,
		AnnualReturnPct: req.AnnualReturnPct,
		StepUpPct:       req.StepUpPct,
		Years:           req.Years,
	})
	c.JSON(http.StatusOK, gin.H{
		"corpus":           proj.Corpus,
		"invested":         proj.Invested,
		"gain":             proj.Gain,
		"corpus_formatted": finance.CompactINR(proj.Corpus),
		"timeline":         proj.Timeline,
	})
}

type RequiredSIPRequest struct {
	TargetAmount    string  `json:"target_amount" binding:"required"`
	AnnualReturnPct float64 `json:"annual_return_pct" validate:"gt=-100,lte=100"`
	StepUpPct       float64 `json:"step_up_pct" validate:"gte=0,lte=100"`
	Years           int     `json:"years" validate:"gt=0,lte=100"`
}

func (h *Handler) PostRequiredSIP(c *gin.Context) {
	var req RequiredSIPRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := validate.Struct(req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	target, err := decimal.NewFromString(req.TargetAmount)
	if err != nil || target.Sign() <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid target_amount"})
		return
	}

	sip := finance.RequiredSIP(target, req.Years, req.AnnualReturnPct, req.StepUpPct)
	c.JSON(http.StatusOK, gin.H{
		"monthly_sip":           sip,
		"monthly_sip_formatted": finance.FormatINR(sip),
	})
}
