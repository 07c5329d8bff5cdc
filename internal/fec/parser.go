// Package fec ingests FEC accounting exports (the French tax
// administration's fixed 18-column format) and extracts the bank line
// items the rest of the application works on.
package fec

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/fecmatch/fecmatch/internal/common"
	"github.com/fecmatch/fecmatch/internal/model"
)

// Column positions of the FEC format. Files are addressed by index, not
// header text, since header spellings vary across accounting software.
const (
	colJournalCode = iota
	colJournalLib
	colEcritureNum
	colEcritureDate
	colCompteNum
	colCompteLib
	colCompAuxNum
	colCompAuxLib
	colPieceRef
	colPieceDate
	colEcritureLib
	colDebit
	colCredit

	columnCount = 18
)

const bankAccountPrefix = "512"

// Result is the outcome of parsing one FEC export.
type Result struct {
	Transactions []model.Transaction
	Separator    rune
	TotalLines   int // data rows in the file, all accounts
	BankLines    int // rows on 512* accounts
}

// entry is one raw FEC row, kept only as long as counterpart resolution
// needs it.
type entry struct {
	journalCode string
	entryNum    string
	date        string
	accountNum  string
	accountLib  string
	auxNum      string
	auxLib      string
	pieceRef    string
	label       string
	debit       string
	credit      string
}

// Parse reads a complete FEC export and returns its bank transactions.
// The separator is sniffed from the header line; amounts use either a
// decimal comma or a decimal point. Counterpart accounts are resolved
// from the auxiliary account of the bank line itself or, failing that,
// from the first non-bank line sharing the same entry number.
func Parse(r io.Reader) (*Result, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("reading export: %w", err)
	}
	content := strings.TrimPrefix(string(data), "\ufeff")

	sep := detectSeparator(content)
	cr := csv.NewReader(strings.NewReader(content))
	cr.Comma = sep
	cr.LazyQuotes = true

	header, err := cr.Read()
	if err == io.EOF {
		return nil, fmt.Errorf("%w: empty file", common.ErrInvalidFormat)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrInvalidFormat, err)
	}
	if len(header) < columnCount {
		return nil, fmt.Errorf("%w: %d columns found, %d expected",
			common.ErrInvalidFormat, len(header), columnCount)
	}

	var entries []entry
	for {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %v", common.ErrInvalidFormat, err)
		}
		entries = append(entries, entry{
			journalCode: record[colJournalCode],
			entryNum:    record[colEcritureNum],
			date:        record[colEcritureDate],
			accountNum:  record[colCompteNum],
			accountLib:  record[colCompteLib],
			auxNum:      record[colCompAuxNum],
			auxLib:      record[colCompAuxLib],
			pieceRef:    record[colPieceRef],
			label:       record[colEcritureLib],
			debit:       record[colDebit],
			credit:      record[colCredit],
		})
	}

	result := &Result{Separator: sep, TotalLines: len(entries)}
	counterparts := indexCounterparts(entries)

	for _, e := range entries {
		if !strings.HasPrefix(e.accountNum, bankAccountPrefix) {
			continue
		}
		txn, err := e.toTransaction(counterparts)
		if err != nil {
			return nil, err
		}
		result.Transactions = append(result.Transactions, txn)
	}
	result.BankLines = len(result.Transactions)

	if result.BankLines == 0 {
		return nil, fmt.Errorf("%w: no %s* account lines in export",
			common.ErrNoBankLines, bankAccountPrefix)
	}
	return result, nil
}

// detectSeparator counts candidate separators on the first line and keeps
// the most frequent one, provided it yields the expected column count.
func detectSeparator(content string) rune {
	firstLine := content
	if i := strings.IndexByte(content, '\n'); i >= 0 {
		firstLine = content[:i]
	}

	best, bestCount := ';', 0
	for _, sep := range []byte{';', ',', '\t'} {
		if n := strings.Count(firstLine, string(sep)); n > bestCount {
			best, bestCount = rune(sep), n
		}
	}
	if bestCount < columnCount-1 {
		return ';'
	}
	return best
}

// counterpart is the offsetting account of a balanced accounting entry.
type counterpart struct {
	account string
	label   string
}

// indexCounterparts maps each entry number to the finalized account of
// its first non-bank line. A bank movement is balanced by at least one
// line on another account; that line names where the money went.
func indexCounterparts(entries []entry) map[string]counterpart {
	index := make(map[string]counterpart)
	for _, e := range entries {
		if strings.HasPrefix(e.accountNum, bankAccountPrefix) {
			continue
		}
		if _, ok := index[e.entryNum]; ok {
			continue
		}
		account, label := e.accountNum, e.accountLib
		if e.auxNum != "" {
			account, label = e.auxNum, e.auxLib
		}
		index[e.entryNum] = counterpart{account: account, label: label}
	}
	return index
}

func (e *entry) toTransaction(counterparts map[string]counterpart) (model.Transaction, error) {
	debit, err := parseAmount("Debit", e.debit)
	if err != nil {
		return model.Transaction{}, err
	}
	credit, err := parseAmount("Credit", e.credit)
	if err != nil {
		return model.Transaction{}, err
	}

	txn := model.Transaction{
		ID:          uuid.NewString(),
		Label:       e.label,
		JournalCode: e.journalCode,
		PieceRef:    e.pieceRef,
		Date:        parseDate(e.date),
		Amount:      debit.Sub(credit),
	}

	switch {
	case e.auxNum != "" && !strings.HasPrefix(e.auxNum, bankAccountPrefix):
		txn.CounterpartAccount = e.auxNum
		txn.AccountLabel = e.auxLib
	default:
		cp, ok := counterparts[e.entryNum]
		if !ok {
			cp = counterpart{account: model.UnknownAccount}
		}
		txn.CounterpartAccount = cp.account
		txn.AccountLabel = cp.label
	}

	txn.Hash = txn.GenerateHash()
	return txn, nil
}

// parseAmount coerces a FEC amount cell, accepting the decimal comma
// French software emits. Empty cells are zero; anything else that does
// not parse is a data integrity failure, not a zero.
func parseAmount(field, value string) (decimal.Decimal, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return decimal.Zero, nil
	}
	d, err := decimal.NewFromString(strings.ReplaceAll(trimmed, ",", "."))
	if err != nil {
		return decimal.Zero, common.NewDataIntegrityError(field, value, common.ErrMalformedAmount)
	}
	return d, nil
}

// parseDate reads the FEC YYYYMMDD date format. Unparseable dates yield
// the zero time; dates are informative here, never matching criteria.
func parseDate(value string) time.Time {
	if len(value) != 8 {
		return time.Time{}
	}
	t, err := time.Parse("20060102", value)
	if err != nil {
		return time.Time{}
	}
	return t
}
