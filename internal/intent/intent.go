// Package intent turns a chat message into a structured Intent.
package intent

import (
	"raidline/internal/domain"
)

type Verb int

const (
	Help Verb = iota + 1
	Sync
	LastSync
	Images
	ClearAll
	ClearPast
	UpdateWhen
	SetMilestone
	Finish
	Remove
	ClearSquad
	UpsertSquad
)

var verbNames = map[Verb]string{
	Help:         "help",
	Sync:         "sync",
	LastSync:     "lastsync",
	Images:       "images",
	ClearAll:     "clearall",
	ClearPast:    "clearpast",
	UpdateWhen:   "date",
	SetMilestone: "milestone",
	Finish:       "finish",
	Remove:       "remove",
	ClearSquad:   "clear",
	UpsertSquad:  "squad",
}

func (v Verb) String() string {
	if name, ok := verbNames[v]; ok {
		return name
	}
	return "unknown"
}

// Global reports whether the verb applies to the whole schedule.
func (v Verb) Global() bool {
	return v >= Help && v <= ClearPast
}

// Intent is a parsed command. Only the fields relevant to Verb are set.
type Intent struct {
	Verb     Verb
	Activity domain.ActivityID

	// UpdateWhen
	NewWhen domain.When

	// SetMilestone
	Milestone string

	// UpsertSquad
	Lineup  domain.Lineup
	Added   []domain.RatedPlayer
	Removed []domain.RatedPlayer
}
