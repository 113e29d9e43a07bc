package main

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"fintrack/internal/aggregate"
	"fintrack/internal/cli"
	"fintrack/internal/core"
	"fintrack/internal/services"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
)

func reportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Print the dashboard figures for a month",
		RunE: func(cmd *cobra.Command, _ []string) error {
			month, _ := cmd.Flags().GetString("month")

			ledger, loc, err := openLedger()
			if err != nil {
				return err
			}
			defer ledger.Close()

			now, err := reportTime(month, time.Now().In(loc))
			if err != nil {
				return err
			}
			d, err := ledger.Dashboard(cmd.Context(), now)
			if err != nil {
				return fmt.Errorf("build dashboard: %w", err)
			}
			renderReport(cmd.OutOrStdout(), d)
			return nil
		},
	}
	cmd.Flags().String("month", "", "month to report as YYYY-MM (default: current)")
	return cmd
}

// reportTime anchors a past month at its last instant so month-scoped
// figures cover the whole month.
func reportTime(month string, now time.Time) (time.Time, error) {
	if month == "" {
		return now, nil
	}
	t, err := time.ParseInLocation("2006-01", month, now.Location())
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid month %q: want YYYY-MM", month)
	}
	_, end := aggregate.MonthBounds(t)
	if end.After(now) {
		return now, nil
	}
	return end, nil
}

func renderReport(w io.Writer, d services.Dashboard) {
	s := d.Summary
	fmt.Fprintln(w, cli.TitleStyle.Render("Report for "+d.Now.Format("January 2006")))

	summary := strings.Join([]string{
		fmt.Sprintf("Income     %s", core.FormatMoney(s.Income)),
		fmt.Sprintf("Expenses   %s", core.FormatMoney(s.Expenses)),
		fmt.Sprintf("Balance    %s", core.FormatMoney(s.Balance)),
		fmt.Sprintf("This month %s of %s budgeted (%d%%)",
			core.FormatMoney(s.CurrentMonthExpenses), core.FormatMoney(s.TotalBudget), s.BudgetUsedPercentage),
		fmt.Sprintf("Categorized %d/%d (%d%%)", s.CategorizedCount, s.TransactionCount, s.CategorizedPercentage),
	}, "\n")
	fmt.Fprintln(w, cli.BoxStyle.Render(summary))

	fmt.Fprintln(w, cli.HeaderStyle.Render("\nSix months"))
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	for _, m := range d.Monthly {
		budget := ""
		if m.Budget != nil {
			budget = "budget " + core.FormatMoney(*m.Budget)
		}
		fmt.Fprintf(tw, "%s %d\t%s\t%s\n", m.Label, m.Year, core.FormatMoney(m.Expenses), budget)
	}
	tw.Flush()

	fmt.Fprintln(w, cli.HeaderStyle.Render("\nTop categories"))
	if len(d.Top) == 0 {
		fmt.Fprintln(w, cli.SubtleStyle.Render("no categorized spending"))
	}
	tw = tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	for i, c := range d.Top {
		fmt.Fprintf(tw, "%d.\t%s\t%s\n", i+1, c.Category.Name, core.FormatMoney(c.Amount))
	}
	tw.Flush()

	fmt.Fprintln(w, cli.HeaderStyle.Render("\nBudgets"))
	if len(d.BudgetStatuses) == 0 {
		fmt.Fprintln(w, cli.SubtleStyle.Render("no budgets"))
	}
	tw = tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	for _, b := range d.BudgetStatuses {
		fmt.Fprintf(tw, "%s\t%s / %s\t%s\n",
			b.Category, core.FormatMoney(b.Actual), core.FormatMoney(b.Budget),
			statusStyle(b.Status).Render(fmt.Sprintf("%d%% %s", b.Percent, b.Status)))
	}
	tw.Flush()

	if len(d.Alerts) > 0 {
		fmt.Fprintln(w, cli.HeaderStyle.Render("\nAlerts"))
		for _, a := range d.Alerts {
			style := cli.WarningStyle
			if a.Type == aggregate.AlertOver {
				style = cli.ErrorStyle
			}
			fmt.Fprintln(w, style.Render(fmt.Sprintf("%s: %s%% of budget spent (%s)",
				a.Category, a.PercentSpent.StringFixed(1), a.Type)))
		}
	}
}

func statusStyle(s aggregate.Status) lipgloss.Style {
	switch s {
	case aggregate.StatusCritical:
		return cli.ErrorStyle
	case aggregate.StatusWarning:
		return cli.WarningStyle
	default:
		return cli.SuccessStyle
	}
}
