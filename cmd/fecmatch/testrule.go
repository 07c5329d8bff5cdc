package main

import (
	"fmt"
	"os"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/fecmatch/fecmatch/internal/cli"
	"github.com/fecmatch/fecmatch/internal/match"
	"github.com/fecmatch/fecmatch/internal/model"
	"github.com/fecmatch/fecmatch/internal/ruleio"
)

func testCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "test",
		Short: "Test an ad-hoc rule against the stored transactions",
		Long: `Evaluate a rule without saving it: shows how many transactions match,
which counterpart accounts they belong to, and a sample of the matched
labels. With --account, matches outside that account are flagged as
collisions.`,
		RunE: runTest,
	}
	cmd.Flags().String("keyword1", "", "First keyword (required)")
	cmd.Flags().String("keyword2", "", "Second keyword, ANDed with the first")
	cmd.Flags().String("journal", "", "Journal code filter")
	cmd.Flags().String("amount", "", `Amount criterion, e.g. "> 0"`)
	cmd.Flags().String("account", "", "Expected destination account")
	cmd.Flags().Int("sample", 10, "Matched labels to display")
	_ = cmd.MarkFlagRequired("keyword1")
	return cmd
}

func runTest(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	keyword1, _ := cmd.Flags().GetString("keyword1")
	keyword2, _ := cmd.Flags().GetString("keyword2")
	journal, _ := cmd.Flags().GetString("journal")
	amount, _ := cmd.Flags().GetString("amount")
	account, _ := cmd.Flags().GetString("account")
	sample, _ := cmd.Flags().GetInt("sample")

	rule := model.Rule{
		Keyword1:    keyword1,
		Keyword2:    keyword2,
		JournalCode: journal,
	}
	if amount != "" {
		criterion, err := ruleio.ParseCriterion(amount)
		if err != nil {
			return err
		}
		rule.Amount = criterion
	}

	store, err := openStore(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	txns, err := store.ListTransactions(ctx)
	if err != nil {
		return err
	}

	matched := match.TestRuleSet(rule, txns)
	fmt.Println(cli.TitleStyle.Render(
		fmt.Sprintf("%d of %d transactions match", len(matched), len(txns))))
	if len(matched) == 0 {
		return nil
	}

	collisions := 0
	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.AppendHeader(table.Row{"Date", "Label", "Journal", "Amount", "Account"})
	for i, txn := range matched {
		if account != "" && txn.CounterpartAccount != account {
			collisions++
		}
		if i < sample {
			t.AppendRow(table.Row{
				txn.Date.Format("2006-01-02"), txn.Label, txn.JournalCode,
				txn.Amount.String(), txn.CounterpartAccount,
			})
		}
	}
	t.SetStyle(table.StyleRounded)
	t.Render()
	if len(matched) > sample {
		fmt.Println(cli.SubtleStyle.Render(fmt.Sprintf("... and %d more", len(matched)-sample)))
	}

	if account != "" {
		if collisions == 0 {
			fmt.Println(cli.SuccessStyle.Render("No collisions: every match belongs to " + account))
		} else {
			fmt.Println(cli.WarningStyle.Render(
				fmt.Sprintf("%d matches belong to other accounts", collisions)))
		}
	}
	return nil
}
