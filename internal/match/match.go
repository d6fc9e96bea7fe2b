// Package match computes edit distances between user input and known
// names after folding case, accents and punctuation.
package match

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Alphabet reports whether a folded rune is significant for a comparison.
type Alphabet func(r rune) bool

func asciiLetter(r rune) bool {
	return r >= 'a' && r <= 'z'
}

func asciiDigit(r rune) bool {
	return r >= '0' && r <= '9'
}

var (
	// Activities keeps letters, digits and the signs that separate an
	// activity name from the tags and dates that follow it.
	Activities Alphabet = func(r rune) bool {
		return asciiLetter(r) || asciiDigit(r) || r == '+' || r == '-' || r == '/'
	}
	// GamerTags keeps letters only: discriminator digits are noise.
	GamerTags Alphabet = asciiLetter
	// GamerTagDigits also keeps digits. It tells apart tags that only
	// differ by them, and tags made of digits alone.
	GamerTagDigits Alphabet = func(r rune) bool {
		return asciiLetter(r) || asciiDigit(r)
	}
	// Dates keeps letters, digits and date/time separators.
	Dates Alphabet = func(r rune) bool {
		return asciiLetter(r) || asciiDigit(r) || r == '/' || r == ':'
	}
)

var ligatures = strings.NewReplacer("œ", "oe", "Œ", "oe", "æ", "ae", "Æ", "ae", "ß", "ss")

// Fold lowercases s, strips its diacritics and drops every rune outside keep.
func Fold(s string, keep Alphabet) string {
	s = ligatures.Replace(strings.TrimSpace(s))
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	if folded, _, err := transform.String(t, s); err == nil {
		s = folded
	}
	s = strings.ToLower(s)
	return strings.Map(func(r rune) rune {
		if keep(r) {
			return r
		}
		return -1
	}, s)
}

// Distance is the Levenshtein distance between the folded forms of a and b.
func Distance(a, b string, keep Alphabet) int {
	return Levenshtein(Fold(a, keep), Fold(b, keep))
}

// Levenshtein computes the edit distance with a single row of
// min(len(a), len(b))+1 cells.
func Levenshtein(a, b string) int {
	ra, rb := []rune(a), []rune(b)
	if len(ra) < len(rb) {
		ra, rb = rb, ra
	}
	row := make([]int, len(rb)+1)
	for j := range row {
		row[j] = j
	}
	for i := 1; i <= len(ra); i++ {
		diag := row[0]
		row[0] = i
		for j := 1; j <= len(rb); j++ {
			cost := 1
			if ra[i-1] == rb[j-1] {
				cost = 0
			}
			next := min(row[j]+1, row[j-1]+1, diag+cost)
			diag = row[j]
			row[j] = next
		}
	}
	return row[len(rb)]
}
