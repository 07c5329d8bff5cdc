package text

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "uppercases",
			input: "virement loyer",
			want:  "VIREMENT LOYER",
		},
		{
			name:  "folds accents",
			input: "échéance prélèvement très tôt",
			want:  "ECHEANCE PRELEVEMENT TRES TOT",
		},
		{
			name:  "collapses whitespace",
			input: "  VIR   SEPA\tEDF  ",
			want:  "VIR SEPA EDF",
		},
		{
			name:  "keeps punctuation",
			input: "abc-def/123",
			want:  "ABC-DEF/123",
		},
		{
			name:  "empty input",
			input: "",
			want:  "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Normalize(tt.input)
			assert.Equal(t, tt.want, got)
			// Idempotence holds for every input.
			assert.Equal(t, got, Normalize(got))
		})
	}
}

func TestTokens(t *testing.T) {
	got := Tokens("Paiement CB: AMAZON.FR - 12,50€")
	assert.Equal(t, []string{"PAIEMENT", "CB", "AMAZON", "FR", "12", "50"}, got)
}

func TestShape(t *testing.T) {
	a := Shape("VIR SEPA EDF REF 102938475")
	b := Shape("VIR SEPA EDF REF 564738291")
	assert.Equal(t, a, b)
	assert.Equal(t, "VIR SEPA EDF REF 0", a)
}

func TestIsSignificant(t *testing.T) {
	tests := []struct {
		word string
		want bool
	}{
		{"EDF", true},
		{"ab", false},       // too short
		{"123456", false},   // digits only
		{"VIREMENT", false}, // stopword
		{"MALAKOFF", true},
	}

	for _, tt := range tests {
		t.Run(tt.word, func(t *testing.T) {
			assert.Equal(t, tt.want, IsSignificant(tt.word))
		})
	}
}

func TestNGrams(t *testing.T) {
	grams := NGrams("VIREMENT LOYER JANVIER", 2)
	assert.Contains(t, grams, "LOYER")
	assert.Contains(t, grams, "VIREMENT LOYER")
	assert.Contains(t, grams, "LOYER JANVIER")
	// Stopword-only n-grams are excluded.
	assert.NotContains(t, grams, "VIREMENT")

	// Unique even when a word repeats.
	grams = NGrams("EDF EDF", 1)
	assert.Equal(t, []string{"EDF"}, grams)
}

func TestSimilarityRatios(t *testing.T) {
	assert.Equal(t, 100, Ratio("LOYER", "LOYER"))
	assert.Greater(t, Ratio("MALAKOFF", "MALAKOF"), 80)
	assert.Equal(t, 100, PartialRatio("EDF", "VIR SEPA EDF PARIS"))
	assert.Equal(t, 100, TokenSetRatio("EDF SEPA VIR", "VIR SEPA EDF 102938"))
	assert.Less(t, TokenSetRatio("URSSAF PARIS", "CPAM LYON"), 70)
	assert.Equal(t, 0, TokenSetRatio("", "ANYTHING"))
}
