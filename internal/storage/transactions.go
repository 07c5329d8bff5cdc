package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/fecmatch/fecmatch/internal/model"
)

// ImportRecord describes one ingested export file.
type ImportRecord struct {
	ImportedAt time.Time
	ID         string
	Filename   string
	Separator  string
	TotalLines int
	BankLines  int
}

// SaveTransactions inserts transactions, silently skipping lines whose
// hash is already stored so re-importing the same export is harmless.
// It returns the number of rows actually inserted.
func (s *Store) SaveTransactions(ctx context.Context, txns []model.Transaction) (int, error) {
	if err := validateContext(ctx); err != nil {
		return 0, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT OR IGNORE INTO transactions (
			id, hash, date, label, journal_code, amount,
			counterpart_account, account_label, piece_ref, batch_id
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return 0, fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	inserted := 0
	for _, txn := range txns {
		if txn.Hash == "" {
			txn.Hash = txn.GenerateHash()
		}
		res, execErr := stmt.ExecContext(ctx,
			txn.ID,
			txn.Hash,
			txn.Date,
			txn.Label,
			txn.JournalCode,
			txn.Amount.String(),
			txn.CounterpartAccount,
			txn.AccountLabel,
			txn.PieceRef,
			txn.BatchID,
		)
		if execErr != nil {
			return 0, fmt.Errorf("failed to insert transaction %s: %w", txn.ID, execErr)
		}
		if n, _ := res.RowsAffected(); n > 0 {
			inserted++
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return inserted, nil
}

// ListTransactions returns every stored transaction, oldest first.
func (s *Store) ListTransactions(ctx context.Context) ([]model.Transaction, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	return s.queryTransactions(ctx, `
		SELECT id, hash, date, label, journal_code, amount,
		       counterpart_account, account_label, piece_ref, batch_id
		FROM transactions ORDER BY date, id
	`)
}

// ListTransactionsByAccount returns the transactions of one counterpart
// account, oldest first.
func (s *Store) ListTransactionsByAccount(ctx context.Context, account string) ([]model.Transaction, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	return s.queryTransactions(ctx, `
		SELECT id, hash, date, label, journal_code, amount,
		       counterpart_account, account_label, piece_ref, batch_id
		FROM transactions WHERE counterpart_account = ? ORDER BY date, id
	`, account)
}

// CountTransactions returns the number of stored transactions.
func (s *Store) CountTransactions(ctx context.Context) (int, error) {
	if err := validateContext(ctx); err != nil {
		return 0, err
	}
	var count int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM transactions`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count transactions: %w", err)
	}
	return count, nil
}

// SaveImport records the metadata of one ingested file.
func (s *Store) SaveImport(ctx context.Context, rec ImportRecord) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO imports (id, filename, total_lines, bank_lines, separator)
		VALUES (?, ?, ?, ?, ?)
	`, rec.ID, rec.Filename, rec.TotalLines, rec.BankLines, rec.Separator)
	if err != nil {
		return fmt.Errorf("failed to record import: %w", err)
	}
	return nil
}

func (s *Store) queryTransactions(ctx context.Context, query string, args ...any) ([]model.Transaction, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query transactions: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var txns []model.Transaction
	for rows.Next() {
		txn, scanErr := scanTransaction(rows)
		if scanErr != nil {
			return nil, scanErr
		}
		txns = append(txns, txn)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate transactions: %w", err)
	}
	return txns, nil
}

func scanTransaction(rows *sql.Rows) (model.Transaction, error) {
	var (
		txn    model.Transaction
		date   sql.NullTime
		amount string
	)
	err := rows.Scan(
		&txn.ID,
		&txn.Hash,
		&date,
		&txn.Label,
		&txn.JournalCode,
		&amount,
		&txn.CounterpartAccount,
		&txn.AccountLabel,
		&txn.PieceRef,
		&txn.BatchID,
	)
	if err != nil {
		return model.Transaction{}, fmt.Errorf("failed to scan transaction: %w", err)
	}
	if date.Valid {
		txn.Date = date.Time
	}
	txn.Amount, err = decimal.NewFromString(amount)
	if err != nil {
		return model.Transaction{}, fmt.Errorf("stored amount %q for transaction %s: %w", amount, txn.ID, err)
	}
	return txn, nil
}
