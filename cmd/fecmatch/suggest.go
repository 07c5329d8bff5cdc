package main

import (
	"fmt"
	"os"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/fecmatch/fecmatch/internal/cli"
	"github.com/fecmatch/fecmatch/internal/suggest"
)

func suggestCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "suggest <account>",
		Short: "Suggest affectation rules for a destination account",
		Long: `Analyze the transaction history of one counterpart account and propose
collision-free rules: keywords recurring across its labels, with journal
and amount criteria inferred from the matched transactions. Suggestions
never match transactions destined for other accounts.`,
		Args: cobra.ExactArgs(1),
		RunE: runSuggest,
	}
	cmd.Flags().Bool("save", false, "Persist accepted suggestions as active rules")
	return cmd
}

func runSuggest(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	account := args[0]
	save, _ := cmd.Flags().GetBool("save")

	store, err := openStore(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	all, err := store.ListTransactions(ctx)
	if err != nil {
		return err
	}
	accountTxns, err := store.ListTransactionsByAccount(ctx, account)
	if err != nil {
		return err
	}
	if len(accountTxns) == 0 {
		fmt.Println(cli.SubtleStyle.Render("No transactions for account " + account))
		return nil
	}

	// The account label rides on the transactions themselves.
	accountLabel := accountTxns[0].AccountLabel

	suggester := suggest.NewSuggester(suggestConfig())
	suggestions := suggester.SuggestForAccount(account, accountLabel, accountTxns, all)
	if len(suggestions) == 0 {
		fmt.Println(cli.SubtleStyle.Render("No collision-free pattern found."))
		return nil
	}

	fmt.Println(cli.TitleStyle.Render(fmt.Sprintf("Suggestions for %s (%d transactions)", account, len(accountTxns))))
	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.AppendHeader(table.Row{"Keyword 1", "Keyword 2", "Journal", "Amount", "Coverage", "Score"})
	for _, s := range suggestions {
		t.AppendRow(table.Row{
			s.Keyword1, s.Keyword2, s.JournalCode, s.Amount.String(),
			fmt.Sprintf("%d/%d", s.CoverageCount, len(accountTxns)),
			fmt.Sprintf("%.2f", s.CompositeScore),
		})
	}
	t.SetStyle(table.StyleRounded)
	t.Render()

	if !save {
		return nil
	}
	for i := range suggestions {
		rule := suggestions[i].Rule
		rule.IsActive = true
		if err := store.SaveRule(ctx, &rule); err != nil {
			return err
		}
		fmt.Println(cli.SuccessStyle.Render(fmt.Sprintf("Saved rule %d: %s", rule.ID, rule.Name)))
	}
	return nil
}
