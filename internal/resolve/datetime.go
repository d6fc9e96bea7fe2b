package resolve

import (
	"regexp"
	"slices"
	"strings"
	"time"

	"raidline/internal/domain"
	"raidline/internal/match"
)

// Engine parses natural-language French dates relative to ref, preferring
// future dates. It returns false when text holds no date.
type Engine interface {
	Parse(text string, ref time.Time) (time.Time, bool)
}

type DateMatch struct {
	When      domain.When
	Remaining []string
}

// DateTimeResolver reads a date from the first one or two tokens.
type DateTimeResolver struct {
	Engine Engine
}

var (
	hourOnly    = regexp.MustCompile(`^(\d{1,2})h$`)
	clockToken  = regexp.MustCompile(`^\d{1,2}(h\d{2}|:\d{2})$`)
	numericDate = regexp.MustCompile(`^\d{1,2}[/.-]\d{1,2}([/.-](\d{2}|\d{4}))?$`)
	dayNumber   = regexp.MustCompile(`^\d{1,2}(er)?$`)
	hourPattern = regexp.MustCompile(`\d{1,2}(h|:)\d{2}`)

	weekdays = []string{"lundi", "mardi", "mercredi", "jeudi", "vendredi", "samedi", "dimanche"}
	relative = []string{"aujourdhui", "demain", "apresdemain", "hier", "avanthier"}
	months   = []string{
		"janvier", "janv", "fevrier", "fevr", "fev", "mars", "avril", "avr", "mai", "juin",
		"juillet", "juil", "aout", "septembre", "sept", "octobre", "oct", "novembre", "nov", "decembre", "dec",
	}
)

// normalizeHour rewrites a bare hour like "18h" to "18h00".
func normalizeHour(tok string) string {
	return hourOnly.ReplaceAllString(tok, "${1}h00")
}

func isTime(tok string) bool {
	return clockToken.MatchString(normalizeHour(tok))
}

func isDate(tok string) bool {
	if numericDate.MatchString(tok) {
		return true
	}
	word := match.Fold(tok, match.Dates)
	return slices.Contains(weekdays, word) || slices.Contains(relative, word)
}

func isMonth(tok string) bool {
	return slices.Contains(months, match.Fold(tok, match.Dates))
}

// eligible screens a window before it reaches the engine, which would
// otherwise skip over words it does not know.
func eligible(window []string) bool {
	switch len(window) {
	case 1:
		return isDate(window[0]) || isTime(window[0])
	case 2:
		return (isDate(window[0]) && isTime(window[1])) ||
			(dayNumber.MatchString(window[0]) && isMonth(window[1]))
	default:
		return false
	}
}

// Resolve tries the one- and two-token windows at the head of tokens and
// keeps the longest one that parses.
func (r DateTimeResolver) Resolve(tokens []string, ref time.Time) (DateMatch, bool) {
	var (
		best  DateMatch
		found bool
	)
	for n := 1; n <= 2 && n <= len(tokens); n++ {
		window := tokens[:n]
		if !eligible(window) {
			continue
		}
		normalized := make([]string, n)
		for i, tok := range window {
			normalized[i] = normalizeHour(tok)
		}
		text := strings.Join(normalized, " ")
		t, ok := r.Engine.Parse(text, ref)
		if !ok {
			continue
		}
		when := domain.DateOf(t)
		// The engine fills in midnight when no hour was typed.
		if hourPattern.MatchString(text) {
			when = domain.At(t)
		}
		best, found = DateMatch{When: when, Remaining: tokens[n:]}, true
	}
	return best, found
}
