package ruleio

import (
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/fecmatch/fecmatch/internal/common"
	"github.com/fecmatch/fecmatch/internal/model"
)

func writeWorkbook(t *testing.T, rows [][]any) string {
	t.Helper()
	f := excelize.NewFile()
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow("Sheet1", cell, &row))
	}
	path := filepath.Join(t.TempDir(), "rules.xlsx")
	require.NoError(t, f.SaveAs(path))
	return path
}

func TestImportFile(t *testing.T) {
	path := writeWorkbook(t, [][]any{
		{"Nom", "Mots-clés", "Num. de compte", "Journal", "Montant"},
		{"Loyer", "(?=.*(VIREMENT LOYER))", "613000", "BQ", "= -500"},
		{"Durand", "(?=.*(DURAND))(?=.*(FOURNITURES))", "401DUR", "", ""},
		{"EDF", "EDF", "606100", "", "≤ 0"},
	})

	got, err := ImportFile(path)
	require.NoError(t, err)
	require.Len(t, got.Rules, 3)
	assert.Empty(t, got.Skipped)

	loyer := got.Rules[0]
	assert.Equal(t, "Loyer", loyer.Name)
	assert.Equal(t, "VIREMENT LOYER", loyer.Keyword1)
	assert.Empty(t, loyer.Keyword2)
	assert.Equal(t, "613000", loyer.DestinationAccount)
	assert.Equal(t, "BQ", loyer.JournalCode)
	assert.True(t, loyer.IsActive)
	require.NotNil(t, loyer.Amount)
	assert.Equal(t, model.OpEqual, loyer.Amount.Operator)
	assert.True(t, loyer.Amount.Value.Equal(decimal.RequireFromString("-500")))

	durand := got.Rules[1]
	assert.Equal(t, "DURAND", durand.Keyword1)
	assert.Equal(t, "FOURNITURES", durand.Keyword2)
	assert.Nil(t, durand.Amount)

	edf := got.Rules[2]
	assert.Equal(t, "EDF", edf.Keyword1)
	require.NotNil(t, edf.Amount)
	assert.Equal(t, model.OpLessEqual, edf.Amount.Operator)
}

func TestImportFileSkipsBadRows(t *testing.T) {
	path := writeWorkbook(t, [][]any{
		{"Nom", "Mots-clés", "Num. de compte"},
		{"", "EDF", "606100"},
		{"NoAccount", "EDF", ""},
		{"Good", "EDF", "606100"},
	})

	got, err := ImportFile(path)
	require.NoError(t, err)
	require.Len(t, got.Rules, 1)
	assert.Equal(t, "Good", got.Rules[0].Name)
	require.Len(t, got.Skipped, 2)
	assert.Contains(t, got.Skipped[0], "row 2")
	assert.Contains(t, got.Skipped[1], "row 3")
}

func TestImportFileRejectsExtraKeywords(t *testing.T) {
	// Importing only the first two keywords would widen the rule, so a
	// cell with three is skipped and the dropped set is reported.
	path := writeWorkbook(t, [][]any{
		{"Nom", "Mots-clés", "Num. de compte"},
		{"Trois", "(?=.*(LOYER))(?=.*(VIREMENT))(?=.*(JANVIER))", "613000"},
		{"Deux", "(?=.*(LOYER))(?=.*(VIREMENT))", "613000"},
	})

	got, err := ImportFile(path)
	require.NoError(t, err)
	require.Len(t, got.Rules, 1)
	assert.Equal(t, "Deux", got.Rules[0].Name)
	require.Len(t, got.Skipped, 1)
	assert.Contains(t, got.Skipped[0], "row 2")
	assert.Contains(t, got.Skipped[0], "JANVIER")
}

func TestImportFileMissingColumns(t *testing.T) {
	path := writeWorkbook(t, [][]any{
		{"Nom", "Compte"},
		{"Loyer", "613000"},
	})

	_, err := ImportFile(path)
	require.Error(t, err)
	assert.ErrorIs(t, err, common.ErrInvalidFormat)
}

func TestParseKeywords(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want []string
	}{
		{name: "single lookahead", raw: "(?=.*(LOYER))", want: []string{"LOYER"}},
		{name: "two lookaheads", raw: "(?=.*(LOYER))(?=.*(VIREMENT))", want: []string{"LOYER", "VIREMENT"}},
		{name: "three lookaheads all reported", raw: "(?=.*(LOYER))(?=.*(VIREMENT))(?=.*(JANVIER))", want: []string{"LOYER", "VIREMENT", "JANVIER"}},
		{name: "anchored form", raw: "^(?=(EDF))", want: []string{"EDF"}},
		{name: "plain text upcased", raw: "carburant total", want: []string{"CARBURANT TOTAL"}},
		{name: "unparseable regex", raw: "EDF.*|GDF", want: nil},
		{name: "empty", raw: "", want: nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, parseKeywords(tt.raw))
		})
	}
}

func TestParseCriterion(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		wantOp  model.AmountOperator
		wantErr bool
	}{
		{name: "bare number is equality", raw: "42,50", wantOp: model.OpEqual},
		{name: "ascii operator", raw: ">= 100", wantOp: model.OpGreaterEqual},
		{name: "typographic operator", raw: "≥ 100", wantOp: model.OpGreaterEqual},
		{name: "not equal", raw: "≠ 0", wantOp: model.OpNotEqual},
		{name: "range", raw: "De 10 à 20", wantOp: model.OpBetween},
		{name: "garbage", raw: "beaucoup", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseCriterion(tt.raw)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantOp, got.Operator)
		})
	}
}

func TestParseCriterionRangeBounds(t *testing.T) {
	got, err := ParseCriterion("De -100 à -10")
	require.NoError(t, err)
	assert.Equal(t, model.OpBetween, got.Operator)
	assert.True(t, got.Low.Equal(decimal.RequireFromString("-100")))
	assert.True(t, got.High.Equal(decimal.RequireFromString("-10")))
}
