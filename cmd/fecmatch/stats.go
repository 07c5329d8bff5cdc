package main

import (
	"fmt"
	"os"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/fecmatch/fecmatch/internal/cli"
	"github.com/fecmatch/fecmatch/internal/stats"
)

func statsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show coverage and automation statistics",
		Long: `Compute, over the stored transactions and active rules, the automation
rate (share of transactions matched by at least one rule), the per-account
coverage breakdown and the number of accounts touched by more than one
rule.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			store, err := openStore(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			txns, err := store.ListTransactions(ctx)
			if err != nil {
				return err
			}
			rules, err := store.ListRules(ctx, false)
			if err != nil {
				return err
			}

			automation := stats.ComputeAutomation(txns, rules)
			collisions := stats.ComputeCollisions(txns, rules)
			accounts := stats.ComputeAccountStats(txns, rules)

			fmt.Println(cli.TitleStyle.Render("Coverage"))
			fmt.Printf("Transactions: %d\n", len(txns))
			fmt.Printf("Rules:        %d\n", len(rules))
			fmt.Printf("Automation:   %s%%\n", cli.BoldStyle.Render(fmt.Sprintf("%.1f", automation)))
			if collisions > 0 {
				fmt.Println(cli.WarningStyle.Render(
					fmt.Sprintf("%d accounts are matched by more than one active rule", collisions)))
			}

			if len(accounts) == 0 {
				return nil
			}
			fmt.Println()
			t := table.NewWriter()
			t.SetOutputMirror(os.Stdout)
			t.AppendHeader(table.Row{"Account", "Label", "Lines", "Total %", "Covered %", "Remaining %"})
			for _, a := range accounts {
				t.AppendRow(table.Row{a.Account, a.Label, a.Count, a.TotalPct, a.CoveredPct, a.RemainingPct})
			}
			t.SetStyle(table.StyleRounded)
			t.Render()
			return nil
		},
	}
}
