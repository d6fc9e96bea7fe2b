// Package resolve turns prefixes of a tokenized command into activity
// kinds, dates and gamer tags.
//
// The activity and gamer tag resolvers read tokens left to right and keep
// extending the query while it still matches acceptably, remembering the
// last acceptable match. This stays linear in the number of tokens where
// trying every split would not.
package resolve

import (
	"math"
	"strings"
	"unicode/utf8"

	"raidline/internal/domain"
	"raidline/internal/match"
)

const maxDistance = 2

// query accumulates tokens the way they were typed. Its length counts one
// separator per token.
type query struct {
	text   strings.Builder
	length int
}

func (q *query) push(tok string) {
	q.text.WriteByte(' ')
	q.text.WriteString(tok)
	q.length += 1 + utf8.RuneCountInString(tok)
}

// accepts reports whether dist is within maxDistance and within pct
// percent of the query length.
func (q *query) accepts(dist, pct int) bool {
	return dist <= maxDistance && dist*100 <= pct*q.length
}

// ActivityMatch is one acceptable reading of the activity name at the
// head of a command.
type ActivityMatch struct {
	Kind      domain.Kind
	Remaining []string
}

// ResolveActivity consumes the activity name at the head of tokens.
func ResolveActivity(tokens []string) (domain.Kind, []string, error) {
	steps, err := ActivitySteps(tokens)
	if err != nil {
		return domain.KindUnknown, nil, err
	}
	last := steps[len(steps)-1]
	return last.Kind, last.Remaining, nil
}

// ActivitySteps returns every acceptable step of the extension, shortest
// first. The last one is the longest reading; callers that know what may
// follow the name can back off to an earlier one.
func ActivitySteps(tokens []string) ([]ActivityMatch, error) {
	if len(tokens) == 0 {
		return nil, domain.Errorf(domain.ErrMissingArgument, "Nom d'activité manquant.")
	}
	var (
		q     query
		steps []ActivityMatch
	)
	for i, tok := range tokens {
		q.push(tok)
		kind, dist := closestKind(match.Fold(q.text.String(), match.Activities))
		if q.accepts(dist, 40) {
			steps = append(steps, ActivityMatch{Kind: kind, Remaining: tokens[i+1:]})
		}
	}
	if len(steps) == 0 {
		return nil, domain.Errorf(domain.ErrNoMatch, "Activité inconnue : « %s ».", tokens[0])
	}
	return steps, nil
}

// closestKind returns the kind owning the alias nearest to folded. Ties
// go to the kind declared first.
func closestKind(folded string) (domain.Kind, int) {
	best, bestDist := domain.KindUnknown, math.MaxInt
	for _, set := range aliasTable {
		for _, alias := range set.folded {
			if d := match.Levenshtein(folded, alias); d < bestDist {
				best, bestDist = set.kind, d
			}
		}
	}
	return best, bestDist
}
