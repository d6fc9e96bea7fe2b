package intent

import (
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"raidline/internal/domain"
	"raidline/internal/resolve"
)

const DefaultMarker = "!raid"

var verbs = map[string]Verb{
	"help":      Help,
	"sync":      Sync,
	"lastsync":  LastSync,
	"images":    Images,
	"clearall":  ClearAll,
	"clearpast": ClearPast,
	"date":      UpdateWhen,
	"milestone": SetMilestone,
	"finish":    Finish,
	"remove":    Remove,
	"clear":     ClearSquad,
}

const backupVerb = "backup"

// Builder parses commands that start with Marker.
type Builder struct {
	Marker string
	Dates  resolve.DateTimeResolver
}

func (b Builder) marker() string {
	if b.Marker == "" {
		return DefaultMarker
	}
	return b.Marker
}

// IsCommand reports whether text is addressed to the bot.
func (b Builder) IsCommand(text string) bool {
	fields := strings.Fields(text)
	return len(fields) > 0 && fields[0] == b.marker()
}

// Build parses text. It returns nil without error when text is not a
// command. Any resolver failure rejects the whole command.
func (b Builder) Build(text string, stats domain.StatsTable, now time.Time) (*Intent, error) {
	tokens := strings.Fields(text)
	if len(tokens) == 0 || tokens[0] != b.marker() {
		return nil, nil
	}
	tokens = tokens[1:]
	if len(tokens) == 0 {
		return nil, domain.Errorf(domain.ErrMissingArgument, "Commande vide. Tapez « %s help ».", b.marker())
	}

	verb, ok := verbs[tokens[0]]
	lineup := domain.Players
	switch {
	case ok:
		tokens = tokens[1:]
	case tokens[0] == backupVerb:
		verb, lineup = UpsertSquad, domain.Substitutes
		tokens = tokens[1:]
	default:
		verb = UpsertSquad
	}

	if verb.Global() {
		if err := noTrailing(tokens); err != nil {
			return nil, err
		}
		return &Intent{Verb: verb}, nil
	}

	steps, err := resolve.ActivitySteps(tokens)
	if err != nil {
		return nil, err
	}
	step := b.pickActivity(steps, verb, stats.Roster(), now)
	rest := step.Remaining
	in := &Intent{Verb: verb, Activity: domain.ActivityID{Kind: step.Kind}}
	if verb != UpdateWhen {
		if m, ok := b.Dates.Resolve(rest, now); ok {
			in.Activity.When, rest = m.When, m.Remaining
		}
	}

	switch verb {
	case UpdateWhen:
		err = b.buildDateUpdate(in, rest, now)
	case SetMilestone:
		in.Milestone = upperFirst(strings.Join(rest, " "))
		if in.Milestone == "" {
			err = domain.Errorf(domain.ErrMissingArgument, "Texte de la milestone manquant.")
		}
	case Finish, Remove, ClearSquad:
		err = noTrailing(rest)
	case UpsertSquad:
		in.Lineup = lineup
		err = buildSquad(in, rest, stats)
	}
	if err != nil {
		return nil, err
	}
	return in, nil
}

// pickActivity takes the longest activity reading, unless its last
// extensions swallowed the head of the date or gamer tag that follows the
// name, as in "jds 25 août" or "leviathan Al".
func (b Builder) pickActivity(steps []resolve.ActivityMatch, verb Verb, roster []string, now time.Time) resolve.ActivityMatch {
	i := len(steps) - 1
	for i > 0 && b.startsArgument(steps[i-1].Remaining, verb, roster, now) {
		i--
	}
	return steps[i]
}

func (b Builder) startsArgument(tokens []string, verb Verb, roster []string, now time.Time) bool {
	if _, ok := b.Dates.Resolve(tokens, now); ok {
		return true
	}
	if verb != UpsertSquad {
		return false
	}
	_, err := resolve.ResolveGamerTag(tokens, roster)
	return err == nil
}

// buildDateUpdate reads "old new" or just "new".
func (b Builder) buildDateUpdate(in *Intent, rest []string, now time.Time) error {
	first, ok := b.Dates.Resolve(rest, now)
	if !ok {
		return domain.Errorf(domain.ErrMissingArgument, "Nouvelle date manquante.")
	}
	rest = first.Remaining
	if second, ok := b.Dates.Resolve(rest, now); ok {
		in.Activity.When, in.NewWhen = first.When, second.When
		rest = second.Remaining
	} else {
		in.NewWhen = first.When
	}
	return noTrailing(rest)
}

func buildSquad(in *Intent, rest []string, stats domain.StatsTable) error {
	if len(rest) == 0 {
		return domain.Errorf(domain.ErrMissingArgument, "Aucun joueur indiqué pour %s.", in.Activity.Kind.DisplayName())
	}
	roster := stats.Roster()
	for len(rest) > 0 {
		m, err := resolve.ResolveGamerTag(rest, roster)
		if err != nil {
			return err
		}
		player := stats.Rate(m.Tag, in.Activity.Kind)
		if m.Addition {
			in.Added = append(in.Added, player)
		} else {
			in.Removed = append(in.Removed, player)
		}
		rest = m.Remaining
	}
	return nil
}

func noTrailing(rest []string) error {
	if len(rest) > 0 {
		return domain.Errorf(domain.ErrTrailingInput, "Arguments inattendus : « %s ».", strings.Join(rest, " "))
	}
	return nil
}

func upperFirst(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToUpper(r)) + s[size:]
}
