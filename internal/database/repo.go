package database

import (
	"context"
	"database/sql"
	"time"

	"paisa/internal/finance"
	"paisa/internal/models"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

type Repo struct {
	db  *sqlx.DB
	log *logrus.Logger
}

func New(db *sqlx.DB, log *logrus.Logger) *Repo {
	return &Repo{db: db, log: log}
}

func (r *Repo) EnsureUserExists(ctx context.Context, userID, name string) error {
	_, err := r.db.ExecContext(ctx, `INSERT INTO users (id, name) VALUES ($1, $2) ON CONFLICT (id) DO NOTHING`, userID, name)
	return err
}

// ---- goals ----

func (r *Repo) CreateGoal(ctx context.Context, g models.Goal) (string, error) {
	id := uuid.NewString()
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO goals (id, user_id, name, target_amount, target_date, created_at) VALUES ($1, $2, $3, $4::numeric, $5, now())`,
		id, g.UserID, g.Name, g.TargetAmount.StringFixed(2), g.TargetDate)
	if err != nil {
		return "", err
	}
	return id, nil
}

func (r *Repo) GetGoal(ctx context.Context, id string) (models.Goal, error) {
	var g models.Goal
	err := r.db.GetContext(ctx, &g, `SELECT id, user_id, name, target_amount, target_date, created_at FROM goals WHERE id = $1`, id)
	return g, err
}

func (r *Repo) GetGoals(ctx context.Context, userID string) ([]models.Goal, error) {
	rows, err := r.db.QueryxContext(ctx, `SELECT id, user_id, name, target_amount, target_date, created_at FROM goals WHERE user_id = $1 ORDER BY created_at ASC`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	res := []models.Goal{}
	for rows.Next() {
		var g models.Goal
		if err := rows.StructScan(&g); err != nil {
			r.log.Warnf("scan goal failed: %v", err)
			continue
		}
		res = append(res, g)
	}
	return res, nil
}

func (r *Repo) UpdateGoal(ctx context.Context, g models.Goal) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE goals SET name = $1, target_amount = $2::numeric, target_date = $3 WHERE id = $4`,
		g.Name, g.TargetAmount.StringFixed(2), g.TargetDate, g.ID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// DeleteGoal removes the goal and its scheme mappings in one transaction.
func (r *Repo) DeleteGoal(ctx context.Context, id string) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM goal_schemes WHERE goal_id = $1`, id); err != nil {
		return err
	}
	res, err := tx.ExecContext(ctx, `DELETE FROM goals WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return sql.ErrNoRows
	}
	return tx.Commit()
}

func (r *Repo) LinkScheme(ctx context.Context, goalID, schemeCode string) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO goal_schemes (goal_id, scheme_code) VALUES ($1, $2) ON CONFLICT (goal_id, scheme_code) DO NOTHING`,
		goalID, schemeCode)
	if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23503" {
		return sql.ErrNoRows
	}
	return err
}

func (r *Repo) GetGoalSchemes(ctx context.Context, goalID string) ([]string, error) {
	rows, err := r.db.QueryxContext(ctx, `SELECT scheme_code FROM goal_schemes WHERE goal_id = $1 ORDER BY scheme_code`, goalID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	res := []string{}
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			r.log.Warnf("scan goal scheme failed: %v", err)
			continue
		}
		res = append(res, s)
	}
	return res, nil
}

// ---- stock holdings ----

func (r *Repo) CreateStockHolding(ctx context.Context, h models.StockHolding) (string, error) {
	id := uuid.NewString()
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO stock_holdings (id, user_id, symbol, quantity, avg_cost, created_at) VALUES ($1, $2, $3, $4::numeric, $5::numeric, now())`,
		id, h.UserID, h.Symbol, h.Quantity.String(), h.AvgCost.StringFixed(4))
	if err != nil {
		return "", err
	}
	return id, nil
}

func (r *Repo) GetStockHoldings(ctx context.Context, userID string) ([]models.StockHolding, error) {
	rows, err := r.db.QueryxContext(ctx, `SELECT id, user_id, symbol, quantity, avg_cost, created_at FROM stock_holdings WHERE user_id = $1 ORDER BY symbol`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	res := []models.StockHolding{}
	for rows.Next() {
		var h models.StockHolding
		if err := rows.StructScan(&h); err != nil {
			r.log.Warnf("scan stock holding failed: %v", err)
			continue
		}
		res = append(res, h)
	}
	return res, nil
}

func (r *Repo) DeleteStockHolding(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM stock_holdings WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// GetAllSymbols lists every symbol held by any user, for the background
// price refresher.
func (r *Repo) GetAllSymbols(ctx context.Context) ([]string, error) {
	rows, err := r.db.QueryxContext(ctx, `SELECT DISTINCT symbol FROM stock_holdings`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	res := []string{}
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			r.log.Warnf("scan symbol failed: %v", err)
			continue
		}
		res = append(res, s)
	}
	return res, nil
}

// ---- NPS holdings ----

func (r *Repo) CreateNPSHolding(ctx context.Context, h models.NPSHolding) (string, error) {
	id := uuid.NewString()
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO nps_holdings (id, user_id, scheme_code, scheme_name, units, created_at) VALUES ($1, $2, $3, $4, $5::numeric, now())`,
		id, h.UserID, h.SchemeCode, h.SchemeName, h.Units.String())
	if err != nil {
		return "", err
	}
	return id, nil
}

func (r *Repo) GetNPSHoldings(ctx context.Context, userID string) ([]models.NPSHolding, error) {
	rows, err := r.db.QueryxContext(ctx, `SELECT id, user_id, scheme_code, scheme_name, units, created_at FROM nps_holdings WHERE user_id = $1 ORDER BY scheme_code`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	res := []models.NPSHolding{}
	for rows.Next() {
		var h models.NPSHolding
		if err := rows.StructScan(&h); err != nil {
			r.log.Warnf("scan nps holding failed: %v", err)
			continue
		}
		res = append(res, h)
	}
	return res, nil
}

func (r *Repo) DeleteNPSHolding(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM nps_holdings WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// ---- mutual-fund transactions ----

// CreateMFTransaction appends a BUY or SELL to the transaction log. A replay
// with the same idempotency key returns the original id with created=false.
func (r *Repo) CreateMFTransaction(ctx context.Context, t models.MFTransaction) (string, bool, error) {
	if t.IdempotencyKey != "" {
		var existing sql.NullString
		err := r.db.GetContext(ctx, &existing, `SELECT id FROM mf_transactions WHERE idempotency_key = $1 LIMIT 1`, t.IdempotencyKey)
		if err == nil && existing.Valid {
			return existing.String, false, nil
		}
	}

	id := uuid.NewString()
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO mf_transactions (id, user_id, scheme_code, scheme_name, txn_type, units, nav, amount, txn_date, idempotency_key, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6::numeric, $7::numeric, $8::numeric, $9, NULLIF($10, ''), now())`,
		id, t.UserID, t.SchemeCode, t.SchemeName, t.TxnType, t.Units.String(), t.NAV.StringFixed(4), t.Amount.StringFixed(2), t.TxnDate, t.IdempotencyKey)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23505" {
			var existing string
			if err := r.db.GetContext(ctx, &existing, `SELECT id FROM mf_transactions WHERE idempotency_key = $1 LIMIT 1`, t.IdempotencyKey); err == nil {
				return existing, false, nil
			}
		}
		return "", false, err
	}
	return id, true, nil
}

func (r *Repo) GetMFTransactions(ctx context.Context, userID string) ([]models.MFTransaction, error) {
	rows, err := r.db.QueryxContext(ctx,
		`SELECT id, user_id, scheme_code, scheme_name, txn_type, units, nav, amount, txn_date, COALESCE(idempotency_key, '') AS idempotency_key
		 FROM mf_transactions WHERE user_id = $1 ORDER BY txn_date ASC`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	res := []models.MFTransaction{}
	for rows.Next() {
		var t models.MFTransaction
		if err := rows.StructScan(&t); err != nil {
			r.log.Warnf("scan mf transaction failed: %v", err)
			continue
		}
		res = append(res, t)
	}
	return res, nil
}

// GetSchemePositions aggregates the transaction log into per-scheme units
// and net invested amount. Valuation is the caller's job.
func (r *Repo) GetSchemePositions(ctx context.Context, userID string) ([]SchemePosition, error) {
	rows, err := r.db.QueryxContext(ctx, `
		SELECT scheme_code,
		       MAX(scheme_name) AS scheme_name,
		       COALESCE(SUM(CASE WHEN txn_type = 'BUY' THEN units ELSE -units END), 0)::text AS units,
		       COALESCE(SUM(CASE WHEN txn_type = 'BUY' THEN amount ELSE -amount END), 0)::text AS invested
		FROM mf_transactions
		WHERE user_id = $1
		GROUP BY scheme_code
		ORDER BY scheme_code`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	res := []SchemePosition{}
	for rows.Next() {
		var p SchemePosition
		var unitsStr, investedStr string
		if err := rows.Scan(&p.SchemeCode, &p.SchemeName, &unitsStr, &investedStr); err != nil {
			r.log.Warnf("scan scheme position failed: %v", err)
			continue
		}
		p.Units, _ = decimal.NewFromString(unitsStr)
		p.Invested, _ = decimal.NewFromString(investedStr)
		if p.Units.Sign() <= 0 {
			continue
		}
		res = append(res, p)
	}
	return res, nil
}

// GetCashFlows extracts the signed cash-flow series for XIRR: BUYs are
// outflows (negative), SELLs inflows. The terminal valuation flow is
// appended by the caller.
func (r *Repo) GetCashFlows(ctx context.Context, userID string, schemeCodes []string) ([]finance.CashFlow, error) {
	q := `SELECT txn_date, txn_type, amount FROM mf_transactions WHERE user_id = $1`
	args := []interface{}{userID}
	if len(schemeCodes) > 0 {
		q += ` AND scheme_code = ANY($2)`
		args = append(args, pq.Array(schemeCodes))
	}
	q += ` ORDER BY txn_date ASC`

	rows, err := r.db.QueryxContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	res := []finance.CashFlow{}
	for rows.Next() {
		var date time.Time
		var txnType, amountStr string
		if err := rows.Scan(&date, &txnType, &amountStr); err != nil {
			r.log.Warnf("scan cash flow failed: %v", err)
			continue
		}
		amount, _ := decimal.NewFromString(amountStr)
		if txnType == "BUY" {
			amount = amount.Neg()
		}
		res = append(res, finance.CashFlow{Date: date, Amount: amount})
	}
	return res, nil
}

// ---- quotes ----

func (r *Repo) GetLatestNAV(ctx context.Context, schemeCode string) (decimal.Decimal, time.Time, error) {
	var navStr string
	var asOf time.Time
	if err := r.db.QueryRowContext(ctx, `SELECT nav, as_of FROM nav_history WHERE scheme_code = $1 ORDER BY as_of DESC LIMIT 1`, schemeCode).Scan(&navStr, &asOf); err != nil {
		return decimal.Zero, time.Time{}, err
	}
	nav, err := decimal.NewFromString(navStr)
	if err != nil {
		return decimal.Zero, time.Time{}, err
	}
	return nav, asOf, nil
}

func (r *Repo) UpsertNAV(ctx context.Context, schemeCode string, nav decimal.Decimal, asOf time.Time) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO nav_history (scheme_code, nav, as_of) VALUES ($1, $2::numeric, $3) ON CONFLICT (scheme_code, as_of) DO UPDATE SET nav = EXCLUDED.nav`,
		schemeCode, nav.StringFixed(4), asOf)
	return err
}

// ListSchemeCodes returns every scheme referenced by a transaction or an
// NPS holding, for the background NAV refresher.
func (r *Repo) ListSchemeCodes(ctx context.Context) ([]string, error) {
	rows, err := r.db.QueryxContext(ctx, `
		SELECT scheme_code FROM mf_transactions
		UNION
		SELECT scheme_code FROM nps_holdings
		ORDER BY scheme_code`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	res := []string{}
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			r.log.Warnf("scan scheme code failed: %v", err)
			continue
		}
		res = append(res, s)
	}
	return res, nil
}

func (r *Repo) GetLatestPrice(ctx context.Context, symbol string) (decimal.Decimal, time.Time, error) {
	var priceStr string
	var ts time.Time
	if err := r.db.QueryRowContext(ctx, `SELECT price_inr, timestamp FROM price_history WHERE symbol = $1 ORDER BY timestamp DESC LIMIT 1`, symbol).Scan(&priceStr, &ts); err != nil {
		return decimal.Zero, time.Time{}, err
	}
	p, err := decimal.NewFromString(priceStr)
	if err != nil {
		return decimal.Zero, time.Time{}, err
	}
	return p, ts, nil
}

func (r *Repo) UpsertPrice(ctx context.Context, symbol string, price decimal.Decimal, ts time.Time) error {
	_, err := r.db.ExecContext(ctx, `INSERT INTO price_history (symbol, price_inr, timestamp) VALUES ($1, $2::numeric, $3)`, symbol, price.StringFixed(4), ts)
	return err
}
