package domain

import (
	"fmt"
	"slices"
)

type Rating int

const (
	RatingUnknown Rating = iota
	Beginner
	Intermediate
	Experienced
)

var ratingNames = []string{"UNKNOWN", "BEGINNER", "INTERMEDIATE", "EXPERIENCED"}

func (r Rating) String() string {
	if r < 0 || int(r) >= len(ratingNames) {
		return fmt.Sprintf("Rating(%d)", int(r))
	}
	return ratingNames[r]
}

func (r Rating) MarshalText() ([]byte, error) {
	return []byte(r.String()), nil
}

func (r *Rating) UnmarshalText(data []byte) error {
	i := slices.Index(ratingNames, string(data))
	if i < 0 {
		return Errorf(ErrValidation, "niveau inconnu : %q", string(data))
	}
	*r = Rating(i)
	return nil
}

// RatingFor derives the experience tier from a completion count.
func RatingFor(completions int) Rating {
	switch {
	case completions > 12:
		return Experienced
	case completions > 6:
		return Intermediate
	default:
		return Beginner
	}
}

type RatedPlayer struct {
	GamerTag string `json:"gamer_tag"`
	Rating   Rating `json:"rating"`
}

type State int

const (
	NotStarted State = iota
	Milestoned
	Finished
)

var stateNames = []string{"NOT_STARTED", "MILESTONED", "FINISHED"}

func (s State) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return fmt.Sprintf("State(%d)", int(s))
	}
	return stateNames[s]
}

func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *State) UnmarshalText(data []byte) error {
	i := slices.Index(stateNames, string(data))
	if i < 0 {
		return Errorf(ErrValidation, "état inconnu : %q", string(data))
	}
	*s = State(i)
	return nil
}

// ActivityID is the natural key of an activity. When may be zero or
// date-only when it comes from user input.
type ActivityID struct {
	Kind Kind `json:"kind"`
	When When `json:"when"`
}

type Activity struct {
	ID        ActivityID `json:"id"`
	State     State      `json:"state"`
	Milestone string     `json:"milestone,omitempty"`
	Squad     Squad      `json:"squad"`
}

// NewActivity creates a NOT_STARTED activity. A date is mandatory.
func NewActivity(kind Kind, when When) (Activity, error) {
	if !kind.Valid() {
		return Activity{}, Errorf(ErrValidation, "type d'activité invalide : %d", int(kind))
	}
	if when.IsZero() {
		return Activity{}, Errorf(ErrNotFound, "Aucune activité %s : précisez une date pour la créer.", kind.DisplayName())
	}
	return Activity{ID: ActivityID{Kind: kind, When: when}}, nil
}

// SetMilestone records progress. A finished activity cannot go back.
func (a *Activity) SetMilestone(text string) error {
	if text == "" {
		return Errorf(ErrMissingArgument, "Texte de la milestone manquant.")
	}
	if a.State == Finished {
		return Errorf(ErrValidation, "L'activité %s est déjà terminée.", a.ID.Kind.DisplayName())
	}
	a.State = Milestoned
	a.Milestone = text
	return nil
}

// Finish marks the activity done. It reports false when it already was.
func (a *Activity) Finish() bool {
	if a.State == Finished {
		return false
	}
	a.State = Finished
	return true
}

func (a Activity) Validate() error {
	if !a.ID.Kind.Valid() {
		return Errorf(ErrValidation, "type d'activité invalide : %d", int(a.ID.Kind))
	}
	if a.ID.When.IsZero() {
		return Errorf(ErrValidation, "activité %s sans date", a.ID.Kind)
	}
	if a.State < NotStarted || a.State > Finished {
		return Errorf(ErrValidation, "état invalide : %d", int(a.State))
	}
	return a.Squad.Validate()
}

// Event is one entry of the command audit log.
type Event struct {
	ID        int64  `json:"id"`
	TS        string `json:"ts" format:"date-time"`
	Type      string `json:"type"`
	GuildID   string `json:"guild_id"`
	CommandID string `json:"command_id,omitempty"`
	ActorID   string `json:"actor_id"`
	Payload   string `json:"payload_json"`
}
