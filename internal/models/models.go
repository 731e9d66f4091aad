package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type Goal struct {
	ID           string          `db:"id" json:"goal_id"`
	UserID       string          `db:"user_id" json:"user_id"`
	Name         string          `db:"name" json:"name"`
	TargetAmount decimal.Decimal `db:"target_amount" json:"target_amount"`
	TargetDate   time.Time       `db:"target_date" json:"target_date"`
	CreatedAt    time.Time       `db:"created_at" json:"created_at"`
}

type StockHolding struct {
	ID        string          `db:"id" json:"holding_id"`
	UserID    string          `db:"user_id" json:"user_id"`
	Symbol    string          `db:"symbol" json:"symbol"`
	Quantity  decimal.Decimal `db:"quantity" json:"quantity"`
	AvgCost   decimal.Decimal `db:"avg_cost" json:"avg_cost"`
	CreatedAt time.Time       `db:"created_at" json:"created_at"`
}

type NPSHolding struct {
	ID         string          `db:"id" json:"holding_id"`
	UserID     string          `db:"user_id" json:"user_id"`
	SchemeCode string          `db:"scheme_code" json:"scheme_code"`
	SchemeName string          `db:"scheme_name" json:"scheme_name"`
	Units      decimal.Decimal `db:"units" json:"units"`
	CreatedAt  time.Time       `db:"created_at" json:"created_at"`
}

type MFTransaction struct {
	ID             string          `db:"id" json:"transaction_id"`
	UserID         string          `db:"user_id" json:"user_id"`
	SchemeCode     string          `db:"scheme_code" json:"scheme_code"`
	SchemeName     string          `db:"scheme_name" json:"scheme_name"`
	TxnType        string          `db:"txn_type" json:"txn_type"` // BUY or SELL
	Units          decimal.Decimal `db:"units" json:"units"`
	NAV            decimal.Decimal `db:"nav" json:"nav"`
	Amount         decimal.Decimal `db:"amount" json:"amount"`
	TxnDate        time.Time       `db:"txn_date" json:"txn_date"`
	IdempotencyKey string          `db:"idempotency_key" json:"-"`
}
