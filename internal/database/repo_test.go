package database

import (
	"context"
	"os"
	"testing"
	"time"

	"paisa/internal/models"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/pressly/goose/v3"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

func setupDB(t *testing.T) *sqlx.DB {
	url := os.Getenv("POSTGRES_URL")
	if url == "" {
		t.Skip("POSTGRES_URL is not set; skipping integration tests")
	}
	db, err := sqlx.Open("postgres", url)
	if err != nil {
		t.Fatalf("open db: %v", err)
	}

	if err := goose.SetDialect("postgres"); err != nil {
		t.Fatalf("goose dialect: %v", err)
	}
	if err := goose.Up(db.DB, "../../migrations"); err != nil {
		t.Logf("migrations: %v", err)
	}
	return db
}

func TestGoalRoundTrip(t *testing.T) {
	db := setupDB(t)
	logger := logrus.New()
	r := New(db, logger)
	ctx := context.Background()

	userID := "test-goal-user"
	if err := r.EnsureUserExists(ctx, userID, "Test Goal User"); err != nil {
		t.Fatalf("ensure user failed: %v", err)
	}

	target, _ := decimal.NewFromString("2500000.00")
	id, err := r.CreateGoal(ctx, models.Goal{
		UserID:       userID,
		Name:         "House",
		TargetAmount: target,
		TargetDate:   time.Now().AddDate(5, 0, 0),
	})
	if err != nil {
		t.Fatalf("create goal failed: %v", err)
	}

	if err := r.LinkScheme(ctx, id, "120503"); err != nil {
		t.Fatalf("link scheme failed: %v", err)
	}
	// linking twice is a no-op
	if err := r.LinkScheme(ctx, id, "120503"); err != nil {
		t.Fatalf("re-link scheme failed: %v", err)
	}

	schemes, err := r.GetGoalSchemes(ctx, id)
	if err != nil {
		t.Fatalf("get goal schemes failed: %v", err)
	}
	if len(schemes) != 1 || schemes[0] != "120503" {
		t.Fatalf("expected one linked scheme, got %v", schemes)
	}

	goals, err := r.GetGoals(ctx, userID)
	if err != nil {
		t.Fatalf("get goals failed: %v", err)
	}
	found := false
	for _, g := range goals {
		if g.ID == id {
			found = true
			if !g.TargetAmount.Equal(target) {
				t.Fatalf("expected target %s, got %s", target, g.TargetAmount)
			}
		}
	}
	if !found {
		t.Fatalf("created goal not returned by GetGoals")
	}

	if err := r.DeleteGoal(ctx, id); err != nil {
		t.Fatalf("delete goal failed: %v", err)
	}
	schemes, err = r.GetGoalSchemes(ctx, id)
	if err != nil {
		t.Fatalf("get goal schemes after delete failed: %v", err)
	}
	if len(schemes) != 0 {
		t.Fatalf("expected scheme mappings removed with goal, got %v", schemes)
	}
}

func TestCreateMFTransaction_Idempotency(t *testing.T) {
	db := setupDB(t)
	logger := logrus.New()
	r := New(db, logger)
	ctx := context.Background()

	userID := "test-mf-user"
	if err := r.EnsureUserExists(ctx, userID, "Test MF User"); err != nil {
		t.Fatalf("ensure user failed: %v", err)
	}
	idKey := "test-idempotency-1"
	_, _ = db.Exec(`DELETE FROM mf_transactions WHERE idempotency_key = $1`, idKey)

	units, _ := decimal.NewFromString("45.500000")
	nav, _ := decimal.NewFromString("110.2500")
	txn := models.MFTransaction{
		UserID:         userID,
		SchemeCode:     "120503",
		SchemeName:     "Test Index Fund",
		TxnType:        "BUY",
		Units:          units,
		NAV:            nav,
		Amount:         units.Mul(nav),
		TxnDate:        time.Now().UTC(),
		IdempotencyKey: idKey,
	}

	id1, created, err := r.CreateMFTransaction(ctx, txn)
	if err != nil {
		t.Fatalf("create transaction failed: %v", err)
	}
	if !created {
		t.Fatalf("expected created true on first insert")
	}
	if id1 == "" {
		t.Fatalf("expected non-empty id")
	}

	id2, created2, err := r.CreateMFTransaction(ctx, txn)
	if err != nil {
		t.Fatalf("create transaction (replay) failed: %v", err)
	}
	if created2 {
		t.Fatalf("expected created false on replay")
	}
	if id2 != id1 {
		t.Fatalf("expected same id returned for replay; got %s != %s", id1, id2)
	}
}

func TestSchemePositionsAndCashFlows(t *testing.T) {
	db := setupDB(t)
	logger := logrus.New()
	r := New(db, logger)
	ctx := context.Background()

	userID := "test-position-user"
	if err := r.EnsureUserExists(ctx, userID, "Test Position User"); err != nil {
		t.Fatalf("ensure user failed: %v", err)
	}
	_, _ = db.Exec(`DELETE FROM mf_transactions WHERE user_id = $1`, userID)

	scheme := "145552"
	buyUnits, _ := decimal.NewFromString("100")
	sellUnits, _ := decimal.NewFromString("40")
	nav := decimal.NewFromInt(50)

	_, _, err := r.CreateMFTransaction(ctx, models.MFTransaction{
		UserID: userID, SchemeCode: scheme, SchemeName: "Position Fund",
		TxnType: "BUY", Units: buyUnits, NAV: nav, Amount: buyUnits.Mul(nav),
		TxnDate: time.Now().UTC().AddDate(0, -6, 0),
	})
	if err != nil {
		t.Fatalf("buy failed: %v", err)
	}
	_, _, err = r.CreateMFTransaction(ctx, models.MFTransaction{
		UserID: userID, SchemeCode: scheme, SchemeName: "Position Fund",
		TxnType: "SELL", Units: sellUnits, NAV: nav, Amount: sellUnits.Mul(nav),
		TxnDate: time.Now().UTC().AddDate(0, -1, 0),
	})
	if err != nil {
		t.Fatalf("sell failed: %v", err)
	}

	positions, err := r.GetSchemePositions(ctx, userID)
	if err != nil {
		t.Fatalf("get positions failed: %v", err)
	}
	if len(positions) != 1 {
		t.Fatalf("expected one position, got %v", positions)
	}
	wantUnits := buyUnits.Sub(sellUnits)
	if !positions[0].Units.Equal(wantUnits) {
		t.Fatalf("expected %s units, got %s", wantUnits, positions[0].Units)
	}
	wantInvested := buyUnits.Sub(sellUnits).Mul(nav)
	if !positions[0].Invested.Equal(wantInvested) {
		t.Fatalf("expected invested %s, got %s", wantInvested, positions[0].Invested)
	}

	flows, err := r.GetCashFlows(ctx, userID, []string{scheme})
	if err != nil {
		t.Fatalf("get cash flows failed: %v", err)
	}
	if len(flows) != 2 {
		t.Fatalf("expected two flows, got %v", flows)
	}
	if flows[0].Amount.Sign() >= 0 {
		t.Fatalf("expected BUY flow negative, got %s", flows[0].Amount)
	}
	if flows[1].Amount.Sign() <= 0 {
		t.Fatalf("expected SELL flow positive, got %s", flows[1].Amount)
	}
}

func TestNAVHistory(t *testing.T) {
	db := setupDB(t)
	logger := logrus.New()
	r := New(db, logger)
	ctx := context.Background()

	scheme := "test-nav-scheme"
	_, _ = db.Exec(`DELETE FROM nav_history WHERE scheme_code = $1`, scheme)

	older := time.Now().UTC().AddDate(0, 0, -2).Truncate(time.Second)
	newer := time.Now().UTC().Truncate(time.Second)
	if err := r.UpsertNAV(ctx, scheme, decimal.NewFromFloat(99.5), older); err != nil {
		t.Fatalf("upsert old nav failed: %v", err)
	}
	if err := r.UpsertNAV(ctx, scheme, decimal.NewFromFloat(101.25), newer); err != nil {
		t.Fatalf("upsert new nav failed: %v", err)
	}

	nav, asOf, err := r.GetLatestNAV(ctx, scheme)
	if err != nil {
		t.Fatalf("get latest nav failed: %v", err)
	}
	if !nav.Equal(decimal.NewFromFloat(101.25)) {
		t.Fatalf("expected latest nav 101.25, got %s", nav)
	}
	if !asOf.Equal(newer) {
		t.Fatalf("expected as_of %v, got %v", newer, asOf)
	}
}
