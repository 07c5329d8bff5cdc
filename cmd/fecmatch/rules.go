package main

import (
	"fmt"
	"os"
	"strconv"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/fecmatch/fecmatch/internal/cli"
	"github.com/fecmatch/fecmatch/internal/model"
	"github.com/fecmatch/fecmatch/internal/ruleio"
)

func rulesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rules",
		Short: "Manage affectation rules",
	}
	cmd.AddCommand(rulesListCmd())
	cmd.AddCommand(rulesAddCmd())
	cmd.AddCommand(rulesToggleCmd())
	cmd.AddCommand(rulesDeleteCmd())
	cmd.AddCommand(rulesImportCmd())
	return cmd
}

func rulesListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List rules",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			activeOnly, _ := cmd.Flags().GetBool("active")

			store, err := openStore(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			rules, err := store.ListRules(ctx, activeOnly)
			if err != nil {
				return err
			}
			if len(rules) == 0 {
				fmt.Println(cli.SubtleStyle.Render("No rules defined."))
				return nil
			}

			t := table.NewWriter()
			t.SetOutputMirror(os.Stdout)
			t.AppendHeader(table.Row{"ID", "Name", "Keyword 1", "Keyword 2", "Journal", "Amount", "Account", "Active"})
			for _, r := range rules {
				active := ""
				if r.IsActive {
					active = "yes"
				}
				t.AppendRow(table.Row{
					r.ID, r.Name, r.Keyword1, r.Keyword2, r.JournalCode,
					r.Amount.String(), r.DestinationAccount, active,
				})
			}
			t.SetStyle(table.StyleRounded)
			t.Render()
			return nil
		},
	}
	cmd.Flags().Bool("active", false, "Only show active rules")
	return cmd
}

func rulesAddCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add a rule",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			name, _ := cmd.Flags().GetString("name")
			keyword1, _ := cmd.Flags().GetString("keyword1")
			keyword2, _ := cmd.Flags().GetString("keyword2")
			journal, _ := cmd.Flags().GetString("journal")
			account, _ := cmd.Flags().GetString("account")
			amount, _ := cmd.Flags().GetString("amount")

			rule := model.Rule{
				Name:               name,
				Keyword1:           keyword1,
				Keyword2:           keyword2,
				JournalCode:        journal,
				DestinationAccount: account,
				IsActive:           true,
			}
			if rule.Name == "" {
				rule.Name = account + " - " + keyword1
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

			if err := store.SaveRule(ctx, &rule); err != nil {
				return err
			}
			fmt.Println(cli.SuccessStyle.Render(fmt.Sprintf("Rule %d created", rule.ID)))
			return nil
		},
	}
	cmd.Flags().String("name", "", "Rule name (default: account - keyword)")
	cmd.Flags().String("keyword1", "", "First keyword (required)")
	cmd.Flags().String("keyword2", "", "Second keyword, ANDed with the first")
	cmd.Flags().String("journal", "", "Journal code filter")
	cmd.Flags().String("account", "", "Destination account (required)")
	cmd.Flags().String("amount", "", `Amount criterion, e.g. "> 0", "= -500", "De 10 à 20"`)
	_ = cmd.MarkFlagRequired("keyword1")
	_ = cmd.MarkFlagRequired("account")
	return cmd
}

func rulesToggleCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "toggle <id>",
		Short: "Flip a rule's active flag",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			id, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("invalid rule id %q", args[0])
			}

			store, err := openStore(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			rule, err := store.GetRule(ctx, id)
			if err != nil {
				return err
			}
			if err := store.SetRuleActive(ctx, id, !rule.IsActive); err != nil {
				return err
			}

			state := "activated"
			if rule.IsActive {
				state = "deactivated"
			}
			fmt.Println(cli.SuccessStyle.Render(fmt.Sprintf("Rule %d %s", id, state)))
			return nil
		},
	}
}

func rulesDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a rule",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			id, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("invalid rule id %q", args[0])
			}

			store, err := openStore(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			if err := store.DeleteRule(ctx, id); err != nil {
				return err
			}
			fmt.Println(cli.SuccessStyle.Render(fmt.Sprintf("Rule %d deleted", id)))
			return nil
		},
	}
}

func rulesImportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "import <file.xlsx>",
		Short: "Import rules from an Excel workbook",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			result, err := ruleio.ImportFile(args[0])
			if err != nil {
				return err
			}

			store, err := openStore(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			saved := 0
			for i := range result.Rules {
				if err := store.SaveRule(ctx, &result.Rules[i]); err != nil {
					return err
				}
				saved++
			}

			fmt.Println(cli.SuccessStyle.Render(fmt.Sprintf("Imported %d rules", saved)))
			for _, skip := range result.Skipped {
				fmt.Println(cli.WarningStyle.Render("skipped " + skip))
			}
			return nil
		},
	}
}
