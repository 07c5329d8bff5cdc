// Package model defines the core data structures for the fecmatch application.
package model

import (
	"crypto/sha256"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// UnknownAccount is the sentinel counterpart account used when the
// offsetting ledger account of a bank line could not be resolved.
const UnknownAccount = "UNKNOWN"

// Transaction represents a single bank line item extracted from an
// accounting export. Amounts are signed: debits are positive, credits
// negative.
type Transaction struct {
	Date               time.Time
	ID                 string
	Label              string // Raw entry description (EcritureLib)
	JournalCode        string
	CounterpartAccount string // Offsetting ledger account; UnknownAccount if unresolved
	AccountLabel       string // Human label of the counterpart account
	PieceRef           string
	BatchID            string // Import batch this line belongs to
	Hash               string
	Amount             decimal.Decimal
}

// HasCounterpart reports whether the counterpart account was resolved.
func (t *Transaction) HasCounterpart() bool {
	return t.CounterpartAccount != "" && t.CounterpartAccount != UnknownAccount
}

// GenerateHash creates a stable hash for duplicate detection across imports.
func (t *Transaction) GenerateHash() string {
	data := fmt.Sprintf("%s:%s:%s:%s",
		t.Date.Format("2006-01-02"),
		t.Amount.String(),
		t.Label,
		t.JournalCode)
	hash := sha256.Sum256([]byte(data))
	return fmt.Sprintf("%x", hash)
}
