package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/fecmatch/fecmatch/internal/cli"
	"github.com/fecmatch/fecmatch/internal/group"
	"github.com/fecmatch/fecmatch/internal/model"
)

func groupsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "groups [account]",
		Short: "Cluster transactions by label similarity",
		Long: `Group the stored transactions of each counterpart account (or a single
one) by label similarity, surfacing the recurring patterns that deserve a
rule. Suggested keywords come from the words shared across each group.`,
		Args: cobra.MaximumNArgs(1),
		RunE: runGroups,
	}
}

func runGroups(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	store, err := openStore(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	var txns []model.Transaction
	if len(args) == 1 {
		txns, err = store.ListTransactionsByAccount(ctx, args[0])
	} else {
		txns, err = store.ListTransactions(ctx)
	}
	if err != nil {
		return err
	}
	if len(txns) == 0 {
		fmt.Println(cli.SubtleStyle.Render("No transactions stored."))
		return nil
	}

	grouper := group.NewGrouper(groupConfig())
	for _, ag := range grouper.GroupByAccount(txns) {
		fmt.Println(cli.TitleStyle.Render(fmt.Sprintf("Account %s", ag.Account)))
		for _, g := range ag.Groups {
			fmt.Println(cli.BoldStyle.Render(
				fmt.Sprintf("  %s (%d transactions)", g.Pattern, len(g.Transactions))))
			if len(g.SuggestedKeywords) > 0 {
				fmt.Println(cli.SubtleStyle.Render(
					"  keywords: " + strings.Join(g.SuggestedKeywords, ", ")))
			}
			for _, txn := range g.Transactions {
				fmt.Printf("    %-12s %s %s\n",
					txn.Amount.StringFixed(2), txn.Date.Format("2006-01-02"), txn.Label)
			}
		}
		if len(ag.Singles) > 0 {
			fmt.Println(cli.SubtleStyle.Render(
				fmt.Sprintf("  %d ungrouped transactions", len(ag.Singles))))
		}
	}
	return nil
}
