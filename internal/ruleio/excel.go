// Package ruleio imports affectation rules from spreadsheet exports of
// other accounting tools, one rule per row.
package ruleio

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"github.com/fecmatch/fecmatch/internal/common"
	"github.com/fecmatch/fecmatch/internal/model"
)

// Result is the outcome of one import: the parseable rules plus a
// human-readable note for every skipped row.
type Result struct {
	Rules   []model.Rule
	Skipped []string
}

// Column headers recognized in the first sheet. Nom and Mots-clés are
// required; the rest are optional.
const (
	colName     = "Nom"
	colKeywords = "Mots-clés"
	colAccount  = "Num. de compte"
	colJournal  = "Journal"
	colAmount   = "Montant"
)

// ImportFile reads the first sheet of an Excel workbook and converts each
// row into a rule. Rows that cannot be parsed are skipped and reported,
// not fatal; a missing required column is.
func ImportFile(path string) (*Result, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("opening workbook: %w", err)
	}
	defer func() { _ = f.Close() }()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("%w: workbook has no sheets", common.ErrInvalidFormat)
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("reading sheet: %w", err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("%w: sheet is empty", common.ErrInvalidFormat)
	}

	columns := indexColumns(rows[0])
	for _, required := range []string{colName, colKeywords} {
		if _, ok := columns[required]; !ok {
			return nil, fmt.Errorf("%w: missing column %q", common.ErrInvalidFormat, required)
		}
	}

	result := &Result{}
	for i, row := range rows[1:] {
		line := i + 2 // 1-based, after the header
		rule, skipReason := parseRow(row, columns)
		if skipReason != "" {
			result.Skipped = append(result.Skipped, fmt.Sprintf("row %d: %s", line, skipReason))
			continue
		}
		result.Rules = append(result.Rules, rule)
	}
	return result, nil
}

func indexColumns(header []string) map[string]int {
	columns := make(map[string]int, len(header))
	for i, cell := range header {
		columns[strings.TrimSpace(cell)] = i
	}
	return columns
}

func parseRow(row []string, columns map[string]int) (model.Rule, string) {
	name := cellAt(row, columns, colName)
	keywordsRaw := cellAt(row, columns, colKeywords)
	if name == "" || keywordsRaw == "" {
		return model.Rule{}, "name or keywords missing"
	}

	keywords := parseKeywords(keywordsRaw)
	if len(keywords) == 0 {
		return model.Rule{}, fmt.Sprintf("unrecognized keyword format %q", keywordsRaw)
	}
	if len(keywords) > 2 {
		// Dropping keywords would widen the rule's match set, so the row
		// is rejected rather than imported with different semantics.
		return model.Rule{}, fmt.Sprintf("%d keywords (%s), at most two are supported",
			len(keywords), strings.Join(keywords, ", "))
	}

	rule := model.Rule{
		Name:               name,
		Keyword1:           keywords[0],
		JournalCode:        cellAt(row, columns, colJournal),
		DestinationAccount: cellAt(row, columns, colAccount),
		IsActive:           true,
	}
	if len(keywords) > 1 {
		rule.Keyword2 = keywords[1]
	}
	if rule.DestinationAccount == "" {
		return model.Rule{}, "destination account missing"
	}

	if raw := cellAt(row, columns, colAmount); raw != "" {
		criterion, err := ParseCriterion(raw)
		if err != nil {
			return model.Rule{}, err.Error()
		}
		rule.Amount = criterion
	}

	if err := rule.Validate(); err != nil {
		return model.Rule{}, err.Error()
	}
	return rule, ""
}

func cellAt(row []string, columns map[string]int, name string) string {
	i, ok := columns[name]
	if !ok || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

// Lookahead patterns used by Pennylane keyword exports, e.g.
// "(?=.*(LOYER))(?=.*(VIREMENT))".
var keywordPatterns = []*regexp.Regexp{
	regexp.MustCompile(`\(\?=\.\*\(([^)]+)\)\)`),
	regexp.MustCompile(`\^\(\?=\(([^)]+)\)\)`),
	regexp.MustCompile(`\(\?=\.\*\^\(([^)]+)\)\$\)`),
}

var regexMeta = regexp.MustCompile(`[(){}\[\]^$*?+\\|]`)

// parseKeywords extracts every keyword from a cell. Lookahead regex
// exports are unwrapped; a plain text cell is taken verbatim as the first
// keyword. The caller enforces the two-keyword limit.
func parseKeywords(raw string) []string {
	var keywords []string
	for _, pattern := range keywordPatterns {
		for _, m := range pattern.FindAllStringSubmatch(raw, -1) {
			kw := strings.ToUpper(strings.TrimSpace(m[1]))
			if kw != "" {
				keywords = append(keywords, kw)
			}
		}
	}
	if len(keywords) == 0 && !regexMeta.MatchString(raw) {
		keywords = append(keywords, strings.ToUpper(strings.TrimSpace(raw)))
	}
	return keywords
}

var (
	amountComparison = regexp.MustCompile(`^(≥|≤|>=|<=|>|<|≠|!=|=)\s*(-?\d+(?:[.,]\d+)?)$`)
	amountRange      = regexp.MustCompile(`^[Dd]e\s*(-?\d+(?:[.,]\d+)?)\s*à\s*(-?\d+(?:[.,]\d+)?)$`)
)

var operatorAliases = map[string]model.AmountOperator{
	"≥": model.OpGreaterEqual,
	"≤": model.OpLessEqual,
	"≠": model.OpNotEqual,
}

// ParseCriterion reads an amount criterion expression: a bare number
// means equality, comparison operators use ASCII or typographic forms,
// and "De X à Y" is an inclusive range. The CLI shares it for ad-hoc
// rule input.
func ParseCriterion(raw string) (*model.AmountCriterion, error) {
	if m := amountRange.FindStringSubmatch(raw); m != nil {
		low, err := parseCellDecimal(m[1])
		if err != nil {
			return nil, err
		}
		high, err := parseCellDecimal(m[2])
		if err != nil {
			return nil, err
		}
		return &model.AmountCriterion{Operator: model.OpBetween, Low: low, High: high}, nil
	}

	if m := amountComparison.FindStringSubmatch(raw); m != nil {
		op, ok := operatorAliases[m[1]]
		if !ok {
			parsed, err := model.ParseAmountOperator(m[1])
			if err != nil {
				return nil, fmt.Errorf("amount criterion %q: %w", raw, err)
			}
			op = parsed
		}
		value, err := parseCellDecimal(m[2])
		if err != nil {
			return nil, err
		}
		return &model.AmountCriterion{Operator: op, Value: value}, nil
	}

	if value, err := parseCellDecimal(raw); err == nil {
		return &model.AmountCriterion{Operator: model.OpEqual, Value: value}, nil
	}
	return nil, fmt.Errorf("unrecognized amount criterion %q", raw)
}

func parseCellDecimal(raw string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(strings.ReplaceAll(strings.TrimSpace(raw), ",", "."))
	if err != nil {
		return decimal.Zero, fmt.Errorf("malformed amount %q", raw)
	}
	return d, nil
}
