package main

import (
	"context"
	"fmt"
	"time"

	"fintrack/internal/cli"
	"fintrack/internal/core"
	"fintrack/internal/services"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
)

var demoCategories = []services.CategoryInput{
	{Name: "Groceries", Description: "Supermarket and food shopping", Color: "#4ECDC4"},
	{Name: "Rent", Description: "Housing", Color: "#FF6B6B"},
	{Name: "Transport", Description: "Fuel, transit and parking", Color: "#FFE66D"},
	{Name: "Dining", Description: "Restaurants and take-away", Color: "#F38181"},
	{Name: "Utilities", Description: "Power, water and internet", Color: "#95E1D3"},
	{Name: "Salary", Description: "Monthly pay", Color: "#3D84A8"},
}

func seedCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Create demo categories in an empty database",
		RunE: func(cmd *cobra.Command, _ []string) error {
			sample, _ := cmd.Flags().GetBool("sample")

			ledger, loc, err := openLedger()
			if err != nil {
				return err
			}
			defer ledger.Close()

			n, err := seed(cmd.Context(), ledger, time.Now().In(loc), sample)
			if err != nil {
				return err
			}
			if n == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), cli.SubtleStyle.Render("database already has categories, nothing to do"))
				return nil
			}
			fmt.Fprintln(cmd.OutOrStdout(), cli.SuccessStyle.Render(fmt.Sprintf("created %d categories", n)))
			return nil
		},
	}
	cmd.Flags().Bool("sample", false, "also add budgets and transactions for the current month")
	return cmd
}

// seed returns the number of categories created. It refuses to touch a
// database that already has categories.
func seed(ctx context.Context, ledger *services.Ledger, now time.Time, sample bool) (int, error) {
	existing, err := ledger.Categories(ctx)
	if err != nil {
		return 0, err
	}
	if len(existing) > 0 {
		return 0, nil
	}

	byName := make(map[string]core.ID, len(demoCategories))
	for _, in := range demoCategories {
		c, err := ledger.CreateCategory(ctx, in)
		if err != nil {
			return len(byName), fmt.Errorf("create category %q: %w", in.Name, err)
		}
		byName[c.Name] = c.ID
		logger.Debug("Seeded category", "name", c.Name, "id", c.ID)
	}

	if sample {
		if err := seedSample(ctx, ledger, now, byName); err != nil {
			return len(byName), err
		}
	}
	return len(byName), nil
}

func seedSample(ctx context.Context, ledger *services.Ledger, now time.Time, cats map[string]core.ID) error {
	budgets := map[string]string{"Groceries": "400", "Dining": "150", "Transport": "120"}
	for name, amount := range budgets {
		if _, err := ledger.CreateBudget(ctx, services.BudgetInput{
			CategoryID: cats[name],
			Amount:     decimal.RequireFromString(amount),
		}); err != nil {
			return fmt.Errorf("create budget for %q: %w", name, err)
		}
	}

	first := time.Date(now.Year(), now.Month(), 1, 12, 0, 0, 0, now.Location())
	txs := []struct {
		desc     string
		amount   string
		category string
		day      int
	}{
		{"Paycheck", "3200", "Salary", 0},
		{"Monthly rent", "-1250", "Rent", 0},
		{"Weekly shop", "-96.40", "Groceries", 1},
		{"Farmers market", "-38.15", "Groceries", 3},
		{"Bus pass", "-60", "Transport", 2},
		{"Pizza night", "-42.80", "Dining", 4},
		{"Electricity", "-71.25", "Utilities", 5},
	}
	for _, t := range txs {
		date := first.AddDate(0, 0, t.day)
		if date.After(now) {
			date = now
		}
		if _, err := ledger.CreateTransaction(ctx, services.TransactionInput{
			Description: t.desc,
			Amount:      decimal.RequireFromString(t.amount),
			Date:        date,
			CategoryID:  cats[t.category],
		}); err != nil {
			return fmt.Errorf("create transaction %q: %w", t.desc, err)
		}
	}
	return nil
}
