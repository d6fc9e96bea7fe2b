// Package engine applies parsed intents to a guild session.
package engine

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"time"

	"raidline/internal/domain"
	"raidline/internal/intent"
	"raidline/internal/render"
)

// StatsSource fetches a fresh stats table, typically from the Bungie API.
type StatsSource interface {
	Fetch(ctx context.Context) (domain.StatsTable, error)
}

// Renderer turns a schedule into posters.
type Renderer interface {
	Render(domain.Schedule) iter.Seq[render.Artifact]
}

// Session is the mutable state of one guild. The executor mutates it in
// place; persisting it is the caller's job.
type Session struct {
	Schedule domain.Schedule
	Stats    domain.StatsTable
}

// Outcome is what a command produced. The change flags tell the caller
// what to persist. They may be set even when Execute fails: a squad
// update whose additions are rejected keeps its removals.
type Outcome struct {
	Feedback        string
	Artifacts       []render.Artifact
	ScheduleChanged bool
	StatsChanged    bool
}

type Executor struct {
	Stats    StatsSource
	Renderer Renderer
	Marker   string
	Now      func() time.Time
}

func New(stats StatsSource, r Renderer) Executor {
	return Executor{
		Stats:    stats,
		Renderer: r,
		Now:      time.Now,
	}
}

func (e Executor) now() time.Time {
	if e.Now != nil {
		return e.Now()
	}
	return time.Now()
}

func (e Executor) renderer() Renderer {
	if e.Renderer == nil {
		return render.Posters{}
	}
	return e.Renderer
}

// Execute applies in to s.
func (e Executor) Execute(ctx context.Context, s *Session, in intent.Intent) (Outcome, error) {
	switch in.Verb {
	case intent.Help:
		return Outcome{Feedback: helpText(e.Marker)}, nil
	case intent.Sync:
		return e.sync(ctx, s)
	case intent.LastSync:
		if s.Stats.LastSync.IsZero() {
			return Outcome{Feedback: "Aucune synchronisation pour le moment."}, nil
		}
		return Outcome{Feedback: "Dernière synchronisation : " + s.Stats.LastSync.Format(time.RFC3339)}, nil
	case intent.Images:
		out := Outcome{Feedback: "Affiches pour les activités en cours :"}
		for a := range e.renderer().Render(s.Schedule) {
			out.Artifacts = append(out.Artifacts, a)
		}
		return out, nil
	case intent.ClearAll:
		n := s.Schedule.Clear()
		return Outcome{Feedback: "Toutes les activités ont été supprimées.", ScheduleChanged: n > 0}, nil
	case intent.ClearPast:
		n := s.Schedule.ClearPast(e.now())
		return Outcome{Feedback: "Les activités des semaines précédentes ont été supprimées.", ScheduleChanged: n > 0}, nil
	case intent.Remove:
		i, err := s.Schedule.Find(in.Activity)
		if err != nil {
			return Outcome{}, err
		}
		a := s.Schedule.RemoveAt(i)
		return changed("Activité supprimée :", a), nil
	case intent.SetMilestone:
		i, err := s.Schedule.Find(in.Activity)
		if err != nil {
			return Outcome{}, err
		}
		a := &s.Schedule.Activities[i]
		if err := a.SetMilestone(in.Milestone); err != nil {
			return Outcome{}, err
		}
		return changed("Milestone mise à jour :", *a), nil
	case intent.Finish:
		i, err := s.Schedule.Find(in.Activity)
		if err != nil {
			return Outcome{}, err
		}
		a := &s.Schedule.Activities[i]
		finished := a.Finish()
		return Outcome{
			Feedback:        feedback("Good job!\nActivité marquée comme terminée :", *a),
			ScheduleChanged: finished,
		}, nil
	case intent.UpdateWhen:
		return e.updateWhen(s, in)
	case intent.ClearSquad:
		i, err := s.Schedule.Find(in.Activity)
		if err != nil {
			return Outcome{}, err
		}
		a := &s.Schedule.Activities[i]
		a.Squad.Clear()
		return changed("Escouade vidée :", *a), nil
	case intent.UpsertSquad:
		return e.upsertSquad(s, in)
	}
	return Outcome{}, fmt.Errorf("unsupported verb %s", in.Verb)
}

func (e Executor) sync(ctx context.Context, s *Session) (Outcome, error) {
	if e.Stats == nil {
		return Outcome{}, errors.New("no stats source configured")
	}
	table, err := e.Stats.Fetch(ctx)
	if err != nil {
		return Outcome{}, fmt.Errorf("fetch stats: %w", err)
	}
	table.LastSync = e.now()
	s.Stats = table
	return Outcome{Feedback: "Joueurs et niveaux d'expérience synchronisés.", StatsChanged: true}, nil
}

// updateWhen moves an activity. When nothing matches the old date, the
// activity is looked up by kind alone; a date update never creates.
func (e Executor) updateWhen(s *Session, in intent.Intent) (Outcome, error) {
	i, err := s.Schedule.Find(in.Activity)
	if errors.Is(err, domain.ErrNotFound) && !in.Activity.When.IsZero() {
		i, err = s.Schedule.Find(domain.ActivityID{Kind: in.Activity.Kind})
	}
	if err != nil {
		return Outcome{}, err
	}
	if err := s.Schedule.Reschedule(i, in.NewWhen); err != nil {
		return Outcome{}, err
	}
	return changed("Date mise à jour :", s.Schedule.Activities[i]), nil
}

// upsertSquad applies removals, then additions. Additions are all or
// nothing; removals stay applied when additions fail. A new activity is
// inserted only once its additions fit.
func (e Executor) upsertSquad(s *Session, in intent.Intent) (Outcome, error) {
	var (
		target  *domain.Activity
		created domain.Activity
		isNew   bool
	)
	i, err := s.Schedule.Find(in.Activity)
	switch {
	case err == nil:
		target = &s.Schedule.Activities[i]
	case errors.Is(err, domain.ErrNotFound) && !in.Activity.When.IsZero():
		created, err = domain.NewActivity(in.Activity.Kind, in.Activity.When)
		if err != nil {
			return Outcome{}, err
		}
		target, isNew = &created, true
	default:
		return Outcome{}, err
	}

	removed := target.Squad.Remove(in.Lineup, tags(in.Removed)...)
	added, err := target.Squad.Add(in.Lineup, in.Added...)
	if err != nil {
		return Outcome{ScheduleChanged: !isNew && removed > 0}, err
	}
	if isNew {
		if err := s.Schedule.Insert(created); err != nil {
			return Outcome{}, err
		}
		return changed("Activité créée :", created), nil
	}
	out := changed("Escouade mise à jour :", *target)
	out.ScheduleChanged = removed > 0 || added > 0
	return out, nil
}

func tags(players []domain.RatedPlayer) []string {
	out := make([]string, len(players))
	for i, p := range players {
		out[i] = p.GamerTag
	}
	return out
}

func feedback(head string, a domain.Activity) string {
	return head + "\n" + render.DescribeActivity(a)
}

func changed(head string, a domain.Activity) Outcome {
	return Outcome{Feedback: feedback(head, a), ScheduleChanged: true}
}
