package domain

import (
	"fmt"
	"slices"
	"time"
)

type Schedule struct {
	Activities []Activity `json:"activities"`
}

// Find locates the activity designated by id.
//
// An exact When (time given) must match exactly. A date-only When keeps
// the activities of that kind on that date, and a zero When keeps every
// activity of that kind. Either way exactly one candidate must remain.
func (s *Schedule) Find(id ActivityID) (int, error) {
	if id.When.TimeSpecified {
		for i, a := range s.Activities {
			if a.ID.Kind == id.Kind && a.ID.When.Equal(id.When) {
				return i, nil
			}
		}
		return -1, Errorf(ErrNotFound, "Aucune activité %s %s.", id.Kind.DisplayName(), id.When.Label())
	}
	found := -1
	for i, a := range s.Activities {
		if a.ID.Kind != id.Kind {
			continue
		}
		if !id.When.IsZero() && !a.ID.When.SameDate(id.When) {
			continue
		}
		if found >= 0 {
			if id.When.IsZero() {
				return -1, Errorf(ErrAmbiguous, "Plusieurs activités %s : précisez la date.", id.Kind.DisplayName())
			}
			return -1, Errorf(ErrAmbiguous, "Plusieurs activités %s %s : précisez l'heure.", id.Kind.DisplayName(), id.When.Label())
		}
		found = i
	}
	if found < 0 {
		if id.When.IsZero() {
			return -1, Errorf(ErrNotFound, "Aucune activité %s.", id.Kind.DisplayName())
		}
		return -1, Errorf(ErrNotFound, "Aucune activité %s %s.", id.Kind.DisplayName(), id.When.Label())
	}
	return found, nil
}

// Insert appends a new activity after checking it does not collide with
// an existing exact booking.
func (s *Schedule) Insert(a Activity) error {
	if err := a.Validate(); err != nil {
		return err
	}
	if a.ID.When.TimeSpecified && s.hasExact(a.ID, -1) {
		return Errorf(ErrValidation, "L'activité %s %s existe déjà.", a.ID.Kind.DisplayName(), a.ID.When.Label())
	}
	s.Activities = append(s.Activities, a)
	return nil
}

// RemoveAt deletes the activity at index i, keeping the order of the rest.
func (s *Schedule) RemoveAt(i int) Activity {
	a := s.Activities[i]
	s.Activities = slices.Delete(s.Activities, i, i+1)
	return a
}

// Reschedule moves the activity at index i to a new date.
func (s *Schedule) Reschedule(i int, to When) error {
	if to.IsZero() {
		return Errorf(ErrMissingArgument, "Nouvelle date manquante.")
	}
	id := ActivityID{Kind: s.Activities[i].ID.Kind, When: to}
	if to.TimeSpecified && s.hasExact(id, i) {
		return Errorf(ErrValidation, "L'activité %s %s existe déjà.", id.Kind.DisplayName(), to.Label())
	}
	s.Activities[i].ID.When = to
	return nil
}

// ClearPast drops every activity dated strictly before now's date and
// returns how many were dropped.
func (s *Schedule) ClearPast(now time.Time) int {
	before := len(s.Activities)
	s.Activities = slices.DeleteFunc(s.Activities, func(a Activity) bool {
		return a.ID.When.DateBefore(now)
	})
	return before - len(s.Activities)
}

// Clear drops every activity and returns how many there were.
func (s *Schedule) Clear() int {
	n := len(s.Activities)
	s.Activities = nil
	return n
}

func (s *Schedule) hasExact(id ActivityID, skip int) bool {
	for i, a := range s.Activities {
		if i != skip && a.ID.Kind == id.Kind && a.ID.When.Equal(id.When) {
			return true
		}
	}
	return false
}

// Validate checks every invariant of a schedule loaded from elsewhere.
func (s Schedule) Validate() error {
	for i, a := range s.Activities {
		if err := a.Validate(); err != nil {
			return fmt.Errorf("activity %d: %w", i, err)
		}
		if a.ID.When.TimeSpecified && s.hasExact(a.ID, i) {
			return Errorf(ErrValidation, "activité %s %s en double", a.ID.Kind, a.ID.When)
		}
	}
	return nil
}
