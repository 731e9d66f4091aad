// navtool is the admin CLI: backfill NAV history for a scheme and seed
// demo data for local development.
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"paisa/internal/database"
	"paisa/internal/models"

	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

func main() {
	if err := run(); err != nil {
		log.Fatalf("Error: %v", err)
	}
}

func run() error {
	rootCmd := &cobra.Command{
		Use:   "navtool",
		Short: "Admin tool for NAV history and demo data",
	}
	rootCmd.AddCommand(backfillCmd(), seedCmd())
	return rootCmd.Execute()
}

func connect() (*database.Repo, *sqlx.DB, error) {
	_ = godotenv.Load()
	dsn := os.Getenv("POSTGRES_URL")
	if dsn == "" {
		return nil, nil, fmt.Errorf("POSTGRES_URL is required")
	}
	db, err := sqlx.Connect("postgres", dsn)
	if err != nil {
		return nil, nil, fmt.Errorf("connect: %w", err)
	}
	return database.New(db, logrus.New()), db, nil
}

func backfillCmd() *cobra.Command {
	var scheme string
	var nav string
	var days int

	cmd := &cobra.Command{
		Use:   "backfill",
		Short: "Insert NAV rows for the past N days of a scheme",
		RunE: func(cmd *cobra.Command, args []string) error {
			repo, db, err := connect()
			if err != nil {
				return err
			}
			defer db.Close()

			base, err := decimal.NewFromString(nav)
			if err != nil {
				return fmt.Errorf("bad --nav %q: %w", nav, err)
			}

			ctx := context.Background()
			day := time.Now().UTC().Truncate(24 * time.Hour)
			for i := 1; i <= days; i++ {
				asOf := day.AddDate(0, 0, -i)
				if err := repo.UpsertNAV(ctx, scheme, base, asOf); err != nil {
					fmt.Printf("Warning: nav for %s failed: %v\n", asOf.Format("2006-01-02"), err)
				}
			}
			fmt.Printf("Backfilled %d NAV rows for scheme %s\n", days, scheme)
			return nil
		},
	}
	cmd.Flags().StringVar(&scheme, "scheme", "", "scheme code")
	cmd.Flags().StringVar(&nav, "nav", "", "NAV value to write")
	cmd.Flags().IntVar(&days, "days", 30, "days of history")
	_ = cmd.MarkFlagRequired("scheme")
	_ = cmd.MarkFlagRequired("nav")
	return cmd
}

func seedCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Seed a demo user with transactions, a goal, and NAV history",
		RunE: func(cmd *cobra.Command, args []string) error {
			repo, db, err := connect()
			if err != nil {
				return err
			}
			defer db.Close()

			ctx := context.Background()
			userID := "demo-user"
			if err := repo.EnsureUserExists(ctx, userID, "Demo User"); err != nil {
				return err
			}

			scheme := "120503" // an index fund, mfapi style code
			start := time.Now().UTC().AddDate(-1, 0, 0)
			for m := 0; m < 12; m++ {
				navVal := decimal.NewFromFloat(100 + float64(m))
				txnDate := start.AddDate(0, m, 0)
				units := decimal.NewFromInt(5000).DivRound(navVal, 6)
				_, _, err := repo.CreateMFTransaction(ctx, models.MFTransaction{
					UserID:         userID,
					SchemeCode:     scheme,
					SchemeName:     "Demo Index Fund",
					TxnType:        "BUY",
					Units:          units,
					NAV:            navVal,
					Amount:         decimal.NewFromInt(5000),
					TxnDate:        txnDate,
					IdempotencyKey: fmt.Sprintf("seed-%s-%d", scheme, m),
				})
				if err != nil {
					fmt.Printf("Warning: seed transaction %d failed: %v\n", m, err)
				}
				if err := repo.UpsertNAV(ctx, scheme, navVal, txnDate); err != nil {
					fmt.Printf("Warning: seed nav %d failed: %v\n", m, err)
				}
			}
			_ = repo.UpsertNAV(ctx, scheme, decimal.NewFromFloat(112.5), time.Now().UTC())

			goalID, err := repo.CreateGoal(ctx, models.Goal{
				UserID:       userID,
				Name:         "Retirement",
				TargetAmount: decimal.NewFromInt(10000000),
				TargetDate:   time.Now().AddDate(20, 0, 0),
			})
			if err != nil {
				fmt.Printf("Warning: seed goal failed: %v\n", err)
			} else if err := repo.LinkScheme(ctx, goalID, scheme); err != nil {
				fmt.Printf("Warning: link scheme failed: %v\n", err)
			}

			fmt.Println("Seeded demo user with a year of SIP history")
			fmt.Println("Try: curl localhost:8080/portfolio/demo-user")
			return nil
		},
	}
}
