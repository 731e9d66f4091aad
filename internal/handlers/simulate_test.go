package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func simulateRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := NewHandler(nil, nil, nil, logrus.New())
	r := gin.New()
	r.POST("/simulate", h.PostSimulate)
	r.POST("/simulate/required-sip", h.PostRequiredSIP)
	return r
}

func postJSON(t *testing.T, r *gin.Engine, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	b, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(b))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestPostSimulate(t *testing.T) {
	r := simulateRouter()
	w := postJSON(t, r, "/simulate", map[string]interface{}{
		"monthly_sip":       "1000",
		"annual_return_pct": 0,
		"years":             2,
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp struct {
		Corpus   decimal.Decimal `json:"corpus"`
		Invested decimal.Decimal `json:"invested"`
		Timeline []struct {
			Year int `json:"year"`
		} `json:"timeline"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Corpus.Equal(decimal.NewFromInt(24000)), "corpus %s", resp.Corpus)
	assert.True(t, resp.Invested.Equal(decimal.NewFromInt(24000)))
	assert.Len(t, resp.Timeline, 2)
}

func TestPostSimulate_Validation(t *testing.T) {
	r := simulateRouter()

	// missing monthly_sip
	w := postJSON(t, r, "/simulate", map[string]interface{}{"years": 10})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	// years out of range
	w = postJSON(t, r, "/simulate", map[string]interface{}{
		"monthly_sip": "1000",
		"years":       0,
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	// non-numeric sip
	w = postJSON(t, r, "/simulate", map[string]interface{}{
		"monthly_sip": "lots",
		"years":       10,
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	// negative lump sum
	w = postJSON(t, r, "/simulate", map[string]interface{}{
		"monthly_sip": "1000",
		"lump_sum":    "-5",
		"years":       10,
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestPostRequiredSIP(t *testing.T) {
	r := simulateRouter()
	w := postJSON(t, r, "/simulate/required-sip", map[string]interface{}{
		"target_amount":     "24000",
		"annual_return_pct": 0,
		"years":             2,
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp struct {
		MonthlySIP decimal.Decimal `json:"monthly_sip"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	// 24 flat contributions of 1000 reach 24000.
	diff := resp.MonthlySIP.Sub(decimal.NewFromInt(1000)).Abs()
	assert.True(t, diff.LessThan(decimal.NewFromInt(1)), "sip %s", resp.MonthlySIP)
}

func TestPostRequiredSIP_Validation(t *testing.T) {
	r := simulateRouter()
	w := postJSON(t, r, "/simulate/required-sip", map[string]interface{}{
		"target_amount": "0",
		"years":         10,
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
