package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/fecmatch/fecmatch/internal/cli"
	"github.com/fecmatch/fecmatch/internal/common"
	"github.com/fecmatch/fecmatch/internal/fec"
	"github.com/fecmatch/fecmatch/internal/storage"
)

func importCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import <file>",
		Short: "Import the bank lines of a FEC export",
		Long: `Parse a FEC export, extract the 512* bank lines and store them.
Lines already imported (same date, amount, label and journal) are skipped,
so re-importing an overlapping export is safe.`,
		Args: cobra.ExactArgs(1),
		RunE: runImport,
	}
	cmd.Flags().BoolP("dry-run", "d", false, "Parse and report without saving")
	return cmd
}

func runImport(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	path := args[0]
	dryRun, _ := cmd.Flags().GetBool("dry-run")

	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("opening %s: %w", path, err)
	}
	defer func() { _ = f.Close() }()

	result, err := fec.Parse(f)
	if err != nil {
		return err
	}
	slog.Info("Parsed export",
		"file", path,
		"total_lines", result.TotalLines,
		"bank_lines", result.BankLines,
		"separator", string(result.Separator))

	if dryRun {
		fmt.Println(cli.TitleStyle.Render("Dry run"))
		fmt.Printf("%d bank lines out of %d rows would be imported\n",
			result.BankLines, result.TotalLines)
		return nil
	}

	store, err := openStore(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	batchID := uuid.NewString()
	for i := range result.Transactions {
		result.Transactions[i].BatchID = batchID
	}

	bar := progressbar.NewOptions(result.BankLines,
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionShowCount(),
		progressbar.OptionSetWidth(40),
		progressbar.OptionSetDescription("Importing bank lines..."),
	)

	inserted := 0
	const chunkSize = 200
	for start := 0; start < len(result.Transactions); start += chunkSize {
		end := start + chunkSize
		if end > len(result.Transactions) {
			end = len(result.Transactions)
		}
		n, saveErr := store.SaveTransactions(ctx, result.Transactions[start:end])
		if saveErr != nil {
			common.LogError(saveErr, "Failed to save transactions", common.Fields{
				"batch":  batchID,
				"offset": start,
			})
			return saveErr
		}
		inserted += n
		_ = bar.Add(end - start)
	}
	_ = bar.Finish()
	fmt.Fprintln(os.Stderr)

	if err := store.SaveImport(ctx, storage.ImportRecord{
		ID:         batchID,
		Filename:   filepath.Base(path),
		TotalLines: result.TotalLines,
		BankLines:  result.BankLines,
		Separator:  string(result.Separator),
	}); err != nil {
		return err
	}

	skipped := result.BankLines - inserted
	fmt.Println(cli.SuccessStyle.Render(
		fmt.Sprintf("Imported %d transactions (%d duplicates skipped), batch %s",
			inserted, skipped, batchID)))
	return nil
}
