// Package text provides label normalization, tokenization and fuzzy
// similarity used by the matching and suggestion engines.
package text

import (
	"strings"
	"unicode"
)

// accents is a fixed substitution table folding accented Latin letters to
// their unaccented equivalents. Full Unicode decomposition is deliberately
// not used: matching must stay stable across bank export encodings.
var accents = map[rune]rune{
	'À': 'A', 'Á': 'A', 'Â': 'A', 'Ã': 'A', 'Ä': 'A',
	'Ç': 'C',
	'È': 'E', 'É': 'E', 'Ê': 'E', 'Ë': 'E',
	'Ì': 'I', 'Í': 'I', 'Î': 'I', 'Ï': 'I',
	'Ñ': 'N',
	'Ò': 'O', 'Ó': 'O', 'Ô': 'O', 'Õ': 'O', 'Ö': 'O',
	'Ù': 'U', 'Ú': 'U', 'Û': 'U', 'Ü': 'U',
	'Ý': 'Y',
}

// stopwords are common French words and generic banking terms that carry
// no discriminating signal in a transaction label.
var stopwords = map[string]struct{}{
	"de": {}, "du": {}, "des": {}, "le": {}, "la": {}, "les": {},
	"un": {}, "une": {}, "et": {}, "ou": {}, "pour": {}, "par": {},
	"sur": {}, "avec": {}, "sans": {}, "au": {}, "aux": {},
	"carte": {}, "cb": {}, "vir": {}, "virement": {}, "paiement": {},
	"retrait": {}, "facture": {}, "fact": {}, "fac": {},
	"operation": {}, "oper": {}, "transaction": {}, "trans": {},
	"prelevement": {}, "prlv": {}, "echeance": {}, "ech": {},
}

// Normalize uppercases a label, folds accents and collapses whitespace.
// It is idempotent and returns "" for empty input.
func Normalize(text string) string {
	if text == "" {
		return ""
	}
	var b strings.Builder
	b.Grow(len(text))
	for _, r := range strings.ToUpper(text) {
		if folded, ok := accents[r]; ok {
			r = folded
		}
		b.WriteRune(r)
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

// Tokens normalizes a label and splits it into words, treating any
// non-alphanumeric rune as a separator.
func Tokens(text string) []string {
	normalized := Normalize(text)
	return strings.FieldsFunc(normalized, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

// Shape normalizes a label for similarity comparison: digit runs collapse
// to a single "0" and punctuation becomes spaces, so labels differing only
// in reference numbers compare as equal.
func Shape(text string) string {
	normalized := Normalize(text)
	var b strings.Builder
	b.Grow(len(normalized))
	prevDigit := false
	for _, r := range normalized {
		switch {
		case unicode.IsDigit(r):
			if !prevDigit {
				b.WriteRune('0')
			}
			prevDigit = true
		case unicode.IsLetter(r) || r == ' ':
			b.WriteRune(r)
			prevDigit = false
		default:
			b.WriteRune(' ')
			prevDigit = false
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

// IsStopword reports whether a word is too generic to discriminate.
func IsStopword(word string) bool {
	_, ok := stopwords[strings.ToLower(word)]
	return ok
}

// IsDigits reports whether a word consists entirely of digits.
func IsDigits(word string) bool {
	if word == "" {
		return false
	}
	for _, r := range word {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}

// IsAlpha reports whether a word consists entirely of letters.
func IsAlpha(word string) bool {
	if word == "" {
		return false
	}
	for _, r := range word {
		if !unicode.IsLetter(r) {
			return false
		}
	}
	return true
}

// IsSignificant reports whether a word is usable as a keyword candidate:
// at least three runes, not purely numeric, not a stopword.
func IsSignificant(word string) bool {
	return len([]rune(word)) >= 3 && !IsDigits(word) && !IsStopword(word)
}

// NGrams extracts the unique n-grams of 1 to maxWords consecutive words
// from an already-normalized label. N-grams composed entirely of stopwords
// are skipped.
func NGrams(normalized string, maxWords int) []string {
	words := strings.Fields(normalized)
	seen := make(map[string]struct{})
	var grams []string
	for n := 1; n <= maxWords && n <= len(words); n++ {
		for i := 0; i+n <= len(words); i++ {
			gram := strings.Join(words[i:i+n], " ")
			if _, ok := seen[gram]; ok {
				continue
			}
			allStop := true
			for _, w := range words[i : i+n] {
				if !IsStopword(w) {
					allStop = false
					break
				}
			}
			if allStop {
				continue
			}
			seen[gram] = struct{}{}
			grams = append(grams, gram)
		}
	}
	return grams
}
