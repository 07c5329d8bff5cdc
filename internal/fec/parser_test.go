package fec

import (
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fecmatch/fecmatch/internal/common"
	"github.com/fecmatch/fecmatch/internal/model"
)

const fecHeader = "JournalCode;JournalLib;EcritureNum;EcritureDate;CompteNum;CompteLib;CompAuxNum;CompAuxLib;PieceRef;PieceDate;EcritureLib;Debit;Credit;EcritureLet;DateLet;ValidDate;Montantdevise;Idevise"

func fecLine(journal, num, date, account, accountLib, auxNum, auxLib, label, debit, credit string) string {
	return strings.Join([]string{
		journal, "Banque", num, date, account, accountLib, auxNum, auxLib,
		"P" + num, date, label, debit, credit, "", "", date, "", "",
	}, ";")
}

func TestParseExtractsBankLines(t *testing.T) {
	file := strings.Join([]string{
		fecHeader,
		fecLine("BQ", "1", "20240115", "512000", "Banque", "", "", "VIREMENT LOYER JANVIER", "0,00", "500,00"),
		fecLine("BQ", "1", "20240115", "613000", "Locations", "", "", "VIREMENT LOYER JANVIER", "500,00", "0,00"),
		fecLine("BQ", "2", "20240120", "512000", "Banque", "", "", "REMISE CHEQUE 42", "250,00", "0,00"),
		fecLine("VT", "3", "20240121", "706000", "Prestations", "", "", "FACTURE 2024-01", "0,00", "250,00"),
	}, "\n")

	got, err := Parse(strings.NewReader(file))
	require.NoError(t, err)

	assert.Equal(t, ';', got.Separator)
	assert.Equal(t, 4, got.TotalLines)
	assert.Equal(t, 2, got.BankLines)
	require.Len(t, got.Transactions, 2)

	rent := got.Transactions[0]
	assert.Equal(t, "VIREMENT LOYER JANVIER", rent.Label)
	assert.Equal(t, "BQ", rent.JournalCode)
	// Credit on the bank account comes out negative.
	assert.True(t, rent.Amount.Equal(decimal.RequireFromString("-500")))
	// Counterpart resolved from the offsetting line of entry 1.
	assert.Equal(t, "613000", rent.CounterpartAccount)
	assert.Equal(t, "Locations", rent.AccountLabel)
	assert.Equal(t, "2024-01-15", rent.Date.Format("2006-01-02"))
	assert.NotEmpty(t, rent.ID)
	assert.NotEmpty(t, rent.Hash)

	// Entry 2 has no offsetting line in the file.
	cheque := got.Transactions[1]
	assert.True(t, cheque.Amount.Equal(decimal.RequireFromString("250")))
	assert.Equal(t, model.UnknownAccount, cheque.CounterpartAccount)
	assert.False(t, cheque.HasCounterpart())
}

func TestParseAuxiliaryAccountWins(t *testing.T) {
	file := strings.Join([]string{
		fecHeader,
		fecLine("BQ", "1", "20240115", "512000", "Banque", "401DUR", "STE DURAND", "FAC 0001 STE DURAND", "0,00", "150,00"),
		fecLine("BQ", "1", "20240115", "401000", "Fournisseurs", "", "", "FAC 0001 STE DURAND", "150,00", "0,00"),
	}, "\n")

	got, err := Parse(strings.NewReader(file))
	require.NoError(t, err)
	require.Len(t, got.Transactions, 1)
	// The auxiliary account on the bank line itself beats the offsetting
	// line lookup.
	assert.Equal(t, "401DUR", got.Transactions[0].CounterpartAccount)
	assert.Equal(t, "STE DURAND", got.Transactions[0].AccountLabel)
}

func TestParseSeparators(t *testing.T) {
	tests := []struct {
		name string
		sep  string
	}{
		{name: "comma", sep: ","},
		{name: "tab", sep: "\t"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			file := strings.ReplaceAll(strings.Join([]string{
				fecHeader,
				fecLine("BQ", "1", "20240115", "512000", "Banque", "", "", "RETRAIT DAB", "40.00", "0.00"),
			}, "\n"), ";", tt.sep)

			got, err := Parse(strings.NewReader(file))
			require.NoError(t, err)
			assert.Equal(t, rune(tt.sep[0]), got.Separator)
			require.Len(t, got.Transactions, 1)
			assert.True(t, got.Transactions[0].Amount.Equal(decimal.RequireFromString("40")))
		})
	}
}

func TestParseRejectsBadColumnCount(t *testing.T) {
	file := "JournalCode;JournalLib;EcritureNum\nBQ;Banque;1\n"

	_, err := Parse(strings.NewReader(file))
	require.Error(t, err)
	assert.ErrorIs(t, err, common.ErrInvalidFormat)
}

func TestParseRejectsEmptyFile(t *testing.T) {
	_, err := Parse(strings.NewReader(""))
	require.Error(t, err)
	assert.ErrorIs(t, err, common.ErrInvalidFormat)
}

func TestParseNoBankLines(t *testing.T) {
	file := strings.Join([]string{
		fecHeader,
		fecLine("VT", "1", "20240115", "706000", "Prestations", "", "", "FACTURE 2024-01", "0,00", "250,00"),
	}, "\n")

	_, err := Parse(strings.NewReader(file))
	require.Error(t, err)
	assert.ErrorIs(t, err, common.ErrNoBankLines)
}

func TestParseMalformedAmount(t *testing.T) {
	file := strings.Join([]string{
		fecHeader,
		fecLine("BQ", "1", "20240115", "512000", "Banque", "", "", "RETRAIT DAB", "abc", "0,00"),
	}, "\n")

	_, err := Parse(strings.NewReader(file))
	require.Error(t, err)
	assert.ErrorIs(t, err, common.ErrMalformedAmount)

	var integrity *common.DataIntegrityError
	require.ErrorAs(t, err, &integrity)
	assert.Equal(t, "Debit", integrity.Field)
	assert.Equal(t, "abc", integrity.Value)
}

func TestParseStripsByteOrderMark(t *testing.T) {
	file := "\ufeff" + strings.Join([]string{
		fecHeader,
		fecLine("BQ", "1", "20240115", "512000", "Banque", "", "", "RETRAIT DAB", "40,00", "0,00"),
	}, "\n")

	got, err := Parse(strings.NewReader(file))
	require.NoError(t, err)
	assert.Len(t, got.Transactions, 1)
}
