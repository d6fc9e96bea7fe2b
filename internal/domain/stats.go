package domain

import (
	"sort"
	"time"
)

// StatsTable holds per-player completion counts by kind, as fetched from
// the stats source.
type StatsTable struct {
	LastSync time.Time               `json:"last_sync"`
	Players  map[string]map[Kind]int `json:"players"`
}

// Roster lists the known gamer tags in a stable order.
func (t StatsTable) Roster() []string {
	tags := make([]string, 0, len(t.Players))
	for tag := range t.Players {
		tags = append(tags, tag)
	}
	sort.Strings(tags)
	return tags
}

// Completions returns the count for tag on kind and whether the tag is known.
func (t StatsTable) Completions(tag string, kind Kind) (int, bool) {
	history, ok := t.Players[tag]
	if !ok {
		return 0, false
	}
	return history[kind], true
}

// Rate computes the rating of tag for kind. Unknown tags are UNKNOWN.
func (t StatsTable) Rate(tag string, kind Kind) RatedPlayer {
	n, ok := t.Completions(tag, kind)
	if !ok {
		return RatedPlayer{GamerTag: tag, Rating: RatingUnknown}
	}
	return RatedPlayer{GamerTag: tag, Rating: RatingFor(n)}
}
