package database

import "github.com/shopspring/decimal"

// SchemePosition is the aggregated state of one mutual-fund scheme in a
// user's portfolio, built from the transaction log.
type SchemePosition struct {
	SchemeCode   string          `db:"scheme_code" json:"scheme_code"`
	SchemeName   string          `db:"scheme_name" json:"scheme_name"`
	Units        decimal.Decimal `db:"units" json:"units"`
	Invested     decimal.Decimal `db:"invested" json:"invested"`
	CurrentNAV   decimal.Decimal `json:"current_nav"`
	CurrentValue decimal.Decimal `json:"current_value"`
}

type GoalProgress struct {
	GoalID       string          `json:"goal_id"`
	Name         string          `json:"name"`
	TargetAmount decimal.Decimal `json:"target_amount"`
	LinkedValue  decimal.Decimal `json:"linked_value"`
	PercentDone  decimal.Decimal `json:"percent_done"`
}

type StockPosition struct {
	Symbol       string          `json:"symbol"`
	Quantity     decimal.Decimal `json:"quantity"`
	AvgCost      decimal.Decimal `json:"avg_cost"`
	CurrentPrice decimal.Decimal `json:"current_price"`
	CurrentValue decimal.Decimal `json:"current_value"`
}
