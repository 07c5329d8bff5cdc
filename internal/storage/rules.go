package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/fecmatch/fecmatch/internal/common"
	"github.com/fecmatch/fecmatch/internal/model"
)

// SaveRule validates and inserts a rule, returning it with its assigned ID.
func (s *Store) SaveRule(ctx context.Context, rule *model.Rule) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := rule.Validate(); err != nil {
		return fmt.Errorf("%w: %v", common.ErrInvalidRule, err)
	}

	op, value, low, high := flattenCriterion(rule.Amount)
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO rules (
			name, keyword1, keyword2, journal_code,
			amount_operator, amount_value, amount_low, amount_high,
			destination_account, is_active
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, rule.Name, rule.Keyword1, rule.Keyword2, rule.JournalCode,
		op, value, low, high, rule.DestinationAccount, rule.IsActive)
	if err != nil {
		return fmt.Errorf("failed to insert rule: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get rule id: %w", err)
	}
	rule.ID = int(id)
	return nil
}

// GetRule fetches one rule by ID.
func (s *Store) GetRule(ctx context.Context, id int) (*model.Rule, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	row := s.db.QueryRowContext(ctx, `
		SELECT id, name, keyword1, keyword2, journal_code,
		       amount_operator, amount_value, amount_low, amount_high,
		       destination_account, is_active, created_at, updated_at
		FROM rules WHERE id = ?
	`, id)

	rule, err := scanRule(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: rule %d", common.ErrNotFound, id)
	}
	if err != nil {
		return nil, err
	}
	return rule, nil
}

// ListRules returns all rules, optionally only the active ones, ordered
// by destination account then ID.
func (s *Store) ListRules(ctx context.Context, activeOnly bool) ([]model.Rule, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	query := `
		SELECT id, name, keyword1, keyword2, journal_code,
		       amount_operator, amount_value, amount_low, amount_high,
		       destination_account, is_active, created_at, updated_at
		FROM rules
	`
	if activeOnly {
		query += ` WHERE is_active = 1`
	}
	query += ` ORDER BY destination_account, id`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query rules: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var rules []model.Rule
	for rows.Next() {
		rule, scanErr := scanRule(rows)
		if scanErr != nil {
			return nil, scanErr
		}
		rules = append(rules, *rule)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate rules: %w", err)
	}
	return rules, nil
}

// SetRuleActive toggles a rule's active flag.
func (s *Store) SetRuleActive(ctx context.Context, id int, active bool) error {
	if err := validateContext(ctx); err != nil {
		return err
	}

	res, err := s.db.ExecContext(ctx, `
		UPDATE rules SET is_active = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?
	`, active, id)
	if err != nil {
		return fmt.Errorf("failed to update rule %d: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: rule %d", common.ErrNotFound, id)
	}
	return nil
}

// DeleteRule removes a rule.
func (s *Store) DeleteRule(ctx context.Context, id int) error {
	if err := validateContext(ctx); err != nil {
		return err
	}

	res, err := s.db.ExecContext(ctx, `DELETE FROM rules WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete rule %d: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: rule %d", common.ErrNotFound, id)
	}
	return nil
}

// flattenCriterion splits an amount criterion into its nullable columns.
func flattenCriterion(c *model.AmountCriterion) (op, value, low, high sql.NullString) {
	if c == nil {
		return
	}
	op = sql.NullString{String: string(c.Operator), Valid: true}
	if c.Operator == model.OpBetween {
		low = sql.NullString{String: c.Low.String(), Valid: true}
		high = sql.NullString{String: c.High.String(), Valid: true}
		return
	}
	value = sql.NullString{String: c.Value.String(), Valid: true}
	return
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRule(row rowScanner) (*model.Rule, error) {
	var (
		rule                 model.Rule
		op, value, low, high sql.NullString
	)
	err := row.Scan(
		&rule.ID,
		&rule.Name,
		&rule.Keyword1,
		&rule.Keyword2,
		&rule.JournalCode,
		&op,
		&value,
		&low,
		&high,
		&rule.DestinationAccount,
		&rule.IsActive,
		&rule.CreatedAt,
		&rule.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan rule: %w", err)
	}

	if op.Valid && op.String != "" {
		criterion, critErr := inflateCriterion(op.String, value, low, high)
		if critErr != nil {
			return nil, fmt.Errorf("rule %d: %w", rule.ID, critErr)
		}
		rule.Amount = criterion
	}
	return &rule, nil
}

func inflateCriterion(op string, value, low, high sql.NullString) (*model.AmountCriterion, error) {
	operator, err := model.ParseAmountOperator(op)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrMalformedAmount, err)
	}
	c := &model.AmountCriterion{Operator: operator}
	if operator == model.OpBetween {
		if c.Low, err = parseStoredDecimal(low); err != nil {
			return nil, err
		}
		if c.High, err = parseStoredDecimal(high); err != nil {
			return nil, err
		}
		return c, nil
	}
	if c.Value, err = parseStoredDecimal(value); err != nil {
		return nil, err
	}
	return c, nil
}

func parseStoredDecimal(v sql.NullString) (decimal.Decimal, error) {
	if !v.Valid || v.String == "" {
		return decimal.Zero, nil
	}
	d, err := decimal.NewFromString(v.String)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: stored amount %q", common.ErrMalformedAmount, v.String)
	}
	return d, nil
}
