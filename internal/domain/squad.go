package domain

import "slices"

// Lineup selects one of the two lists of a squad.
type Lineup int

const (
	Players Lineup = iota
	Substitutes
)

const (
	PlayersCapacity     = 6
	SubstitutesCapacity = 3
)

func (l Lineup) Capacity() int {
	if l == Substitutes {
		return SubstitutesCapacity
	}
	return PlayersCapacity
}

func (l Lineup) String() string {
	if l == Substitutes {
		return "substitutes"
	}
	return "players"
}

// label is the French noun used in user messages.
func (l Lineup) label() string {
	if l == Substitutes {
		return "remplaçants"
	}
	return "joueurs"
}

type Squad struct {
	Players     []RatedPlayer `json:"players"`
	Substitutes []RatedPlayer `json:"substitutes"`
}

func (s *Squad) list(l Lineup) *[]RatedPlayer {
	if l == Substitutes {
		return &s.Substitutes
	}
	return &s.Players
}

// Members returns the players of one lineup in display order.
func (s Squad) Members(l Lineup) []RatedPlayer {
	return *s.list(l)
}

func (s Squad) Has(l Lineup, tag string) bool {
	return slices.ContainsFunc(s.Members(l), func(p RatedPlayer) bool { return p.GamerTag == tag })
}

// Remove drops the given tags from a lineup. Tags not present are ignored.
// It returns how many entries were removed.
func (s *Squad) Remove(l Lineup, tags ...string) int {
	list := s.list(l)
	before := len(*list)
	*list = slices.DeleteFunc(*list, func(p RatedPlayer) bool {
		return slices.Contains(tags, p.GamerTag)
	})
	return before - len(*list)
}

// Add appends players to a lineup. Tags already present, or repeated in
// the batch, are skipped. Either every new player fits or none is added.
func (s *Squad) Add(l Lineup, players ...RatedPlayer) (int, error) {
	list := s.list(l)
	var fresh []RatedPlayer
	for _, p := range players {
		if s.Has(l, p.GamerTag) || slices.ContainsFunc(fresh, func(f RatedPlayer) bool { return f.GamerTag == p.GamerTag }) {
			continue
		}
		fresh = append(fresh, p)
	}
	if total := len(*list) + len(fresh); total > l.Capacity() {
		return 0, Errorf(ErrCapacity, "Escouade pleine : %d %s maximum, %d demandés.", l.Capacity(), l.label(), total)
	}
	*list = append(*list, fresh...)
	return len(fresh), nil
}

// Clear empties both lineups.
func (s *Squad) Clear() {
	s.Players = nil
	s.Substitutes = nil
}

func (s Squad) Validate() error {
	for _, l := range []Lineup{Players, Substitutes} {
		members := s.Members(l)
		if len(members) > l.Capacity() {
			return Errorf(ErrValidation, "trop de %s : %d (maximum %d)", l.label(), len(members), l.Capacity())
		}
		seen := make(map[string]struct{}, len(members))
		for _, p := range members {
			if p.GamerTag == "" {
				return Errorf(ErrValidation, "joueur sans gamer tag")
			}
			if _, dup := seen[p.GamerTag]; dup {
				return Errorf(ErrValidation, "%s apparaît deux fois parmi les %s", p.GamerTag, l.label())
			}
			seen[p.GamerTag] = struct{}{}
		}
	}
	return nil
}
