// Package render turns a schedule into posters and text snapshots.
package render

import (
	"fmt"
	"iter"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"raidline/internal/domain"
)

// DefaultPageSize is the number of activities on one poster.
const DefaultPageSize = 4

// Artifact is one rendered file.
type Artifact struct {
	Name        string `json:"name"`
	ContentType string `json:"content_type"`
	Data        []byte `json:"data"`
}

// Posters renders a schedule as text posters, PageSize activities each.
type Posters struct {
	PageSize int
}

func (p Posters) pageSize() int {
	if p.PageSize <= 0 {
		return DefaultPageSize
	}
	return p.PageSize
}

// Render yields one poster per page. Pages are built on demand, so a
// caller that stops early never pays for the rest.
func (p Posters) Render(s domain.Schedule) iter.Seq[Artifact] {
	size := p.pageSize()
	activities := s.Activities
	return func(yield func(Artifact) bool) {
		for page, start := 1, 0; start < len(activities); page, start = page+1, start+size {
			end := min(start+size, len(activities))
			a := Artifact{
				Name:        fmt.Sprintf("affiche-%d.txt", page),
				ContentType: "text/plain; charset=utf-8",
				Data:        []byte(poster(activities[start:end])),
			}
			if !yield(a) {
				return
			}
		}
	}
}

func poster(activities []domain.Activity) string {
	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)
	tw.Style().Format.Header = text.FormatDefault

	header := table.Row{}
	dates := table.Row{}
	status := table.Row{}
	for _, a := range activities {
		header = append(header, a.ID.Kind.DisplayName())
		dates = append(dates, a.ID.When.Headline())
		status = append(status, stateLabel(a))
	}
	tw.AppendHeader(header)
	tw.AppendRow(dates)
	tw.AppendRow(status)
	tw.AppendSeparator()
	for i := range domain.PlayersCapacity {
		tw.AppendRow(memberRow(activities, domain.Players, i))
	}
	tw.AppendSeparator()
	subs := table.Row{}
	for range activities {
		subs = append(subs, "Remplaçants :")
	}
	tw.AppendRow(subs)
	for i := range domain.SubstitutesCapacity {
		tw.AppendRow(memberRow(activities, domain.Substitutes, i))
	}
	return tw.Render() + "\n"
}

func memberRow(activities []domain.Activity, l domain.Lineup, i int) table.Row {
	row := table.Row{}
	for _, a := range activities {
		members := a.Squad.Members(l)
		if i < len(members) {
			row = append(row, playerLabel(members[i]))
		} else {
			row = append(row, "")
		}
	}
	return row
}

var ratingMarks = map[domain.Rating]string{
	domain.RatingUnknown: "?",
	domain.Beginner:      "D",
	domain.Intermediate:  "I",
	domain.Experienced:   "E",
}

func playerLabel(p domain.RatedPlayer) string {
	return fmt.Sprintf("%s (%s)", p.GamerTag, ratingMarks[p.Rating])
}

func stateLabel(a domain.Activity) string {
	switch a.State {
	case domain.Milestoned:
		return "En cours : " + a.Milestone
	case domain.Finished:
		return "Terminée"
	default:
		return "À venir"
	}
}

// DescribeActivity is the text snapshot appended to executor feedback.
func DescribeActivity(a domain.Activity) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s, %s (%s)\n", a.ID.Kind.DisplayName(), a.ID.When.Headline(), stateLabel(a))
	writeLineup(&b, "Joueurs", a.Squad.Players, domain.PlayersCapacity)
	if len(a.Squad.Substitutes) > 0 {
		writeLineup(&b, "Remplaçants", a.Squad.Substitutes, domain.SubstitutesCapacity)
	}
	return strings.TrimSuffix(b.String(), "\n")
}

func writeLineup(b *strings.Builder, title string, members []domain.RatedPlayer, capacity int) {
	fmt.Fprintf(b, "%s (%d/%d) :\n", title, len(members), capacity)
	for _, p := range members {
		fmt.Fprintf(b, "  - %s\n", playerLabel(p))
	}
}

// Legend explains the rating marks used by posters and snapshots.
const Legend = "Niveaux : D débutant, I intermédiaire, E expérimenté, ? inconnu."

// ScheduleTable renders the whole schedule as a single table, one row per
// activity.
func ScheduleTable(s domain.Schedule) string {
	tw := table.NewWriter()
	tw.AppendHeader(table.Row{"#", "Activité", "Date", "État", "Joueurs", "Remplaçants"})
	for i, a := range s.Activities {
		tw.AppendRow(table.Row{
			i + 1,
			a.ID.Kind.DisplayName(),
			a.ID.When.Headline(),
			stateLabel(a),
			tags(a.Squad.Players),
			tags(a.Squad.Substitutes),
		})
	}
	return tw.Render()
}

func tags(members []domain.RatedPlayer) string {
	out := make([]string, len(members))
	for i, p := range members {
		out[i] = p.GamerTag
	}
	return strings.Join(out, ", ")
}
