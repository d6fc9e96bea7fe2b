package resolve

import (
	"math"
	"strings"

	"raidline/internal/domain"
	"raidline/internal/match"
)

type TagMatch struct {
	Tag       string
	Addition  bool
	Remaining []string
}

// ResolveGamerTag consumes one signed gamer tag at the head of tokens.
// A leading '-' asks for a removal; '+' or no sign asks for an addition.
//
// A step where the nearest tags are equally close is not a match, unless
// they only differ by digits and the digits typed settle it. If no step
// ever produced a single nearest tag, the error is ErrAmbiguous when a tie
// was seen and ErrNoMatch otherwise.
func ResolveGamerTag(tokens []string, roster []string) (TagMatch, error) {
	if len(tokens) == 0 {
		return TagMatch{}, domain.Errorf(domain.ErrMissingArgument, "Gamer tag manquant.")
	}
	head := tokens[0]
	addition := !strings.HasPrefix(head, "-")
	head = strings.TrimLeft(head, "+-")

	letters := make([]string, len(roster))
	digits := make([]string, len(roster))
	for i, tag := range roster {
		letters[i] = match.Fold(tag, match.GamerTags)
		digits[i] = match.Fold(tag, match.GamerTagDigits)
	}

	var (
		q    query
		best = -1
		rest []string
		tied []string
	)
	for i, tok := range tokens {
		if i == 0 {
			tok = head
		}
		q.push(tok)
		text := q.text.String()
		needle, needleDigits := match.Fold(text, match.GamerTags), match.Fold(text, match.GamerTagDigits)
		var nearest []int
		nearestDist := math.MaxInt
		for j := range roster {
			// A tag without letters only compares on its digits.
			d := match.Levenshtein(needle, letters[j])
			if letters[j] == "" {
				d = match.Levenshtein(needleDigits, digits[j])
			}
			switch {
			case d < nearestDist:
				nearest, nearestDist = []int{j}, d
			case d == nearestDist:
				nearest = append(nearest, j)
			}
		}
		if len(nearest) == 0 || !q.accepts(nearestDist, 30) {
			continue
		}
		if len(nearest) > 1 {
			nearest = byDigits(nearest, letters, digits, needleDigits)
		}
		if len(nearest) > 1 {
			tied = []string{roster[nearest[0]], roster[nearest[1]]}
			continue
		}
		best, rest = nearest[0], tokens[i+1:]
	}
	switch {
	case best >= 0:
		return TagMatch{Tag: roster[best], Addition: addition, Remaining: rest}, nil
	case tied != nil:
		return TagMatch{}, domain.Errorf(domain.ErrAmbiguous, "Gamer tag ambigu : « %s » (%s ou %s ?).", head, tied[0], tied[1])
	default:
		return TagMatch{}, domain.Errorf(domain.ErrNoMatch, "Joueur inconnu : « %s ».", head)
	}
}

// byDigits narrows tied tags that share the same letters, like Player1 and
// Player2, to those nearest once digits count. Ties between different
// letters stand.
func byDigits(tied []int, letters, digits []string, needle string) []int {
	for _, j := range tied[1:] {
		if letters[j] != letters[tied[0]] {
			return tied
		}
	}
	var nearest []int
	nearestDist := math.MaxInt
	for _, j := range tied {
		switch d := match.Levenshtein(needle, digits[j]); {
		case d < nearestDist:
			nearest, nearestDist = []int{j}, d
		case d == nearestDist:
			nearest = append(nearest, j)
		}
	}
	return nearest
}
