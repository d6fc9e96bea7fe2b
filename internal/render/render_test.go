package render_test

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"raidline/internal/domain"
	"raidline/internal/render"
)

func activity(kind domain.Kind, day int, tags ...string) domain.Activity {
	a := domain.Activity{ID: domain.ActivityID{Kind: kind, When: domain.Date(2020, time.August, day)}}
	for _, tag := range tags {
		a.Squad.Players = append(a.Squad.Players, domain.RatedPlayer{GamerTag: tag, Rating: domain.Beginner})
	}
	return a
}

func TestPostersPaging(t *testing.T) {
	var s domain.Schedule
	for day := 10; day < 19; day++ {
		s.Activities = append(s.Activities, activity(domain.LastWish, day, "Cosa58"))
	}
	var names []string
	for a := range (render.Posters{}).Render(s) {
		names = append(names, a.Name)
		assert.True(t, strings.HasPrefix(a.ContentType, "text/plain"))
	}
	assert.Equal(t, []string{"affiche-1.txt", "affiche-2.txt", "affiche-3.txt"}, names)

	names = nil
	for a := range (render.Posters{PageSize: 2}).Render(s) {
		names = append(names, a.Name)
		if len(names) == 2 {
			break
		}
	}
	assert.Len(t, names, 2)
}

func TestPostersEmpty(t *testing.T) {
	for range (render.Posters{}).Render(domain.Schedule{}) {
		t.Fatal("an empty schedule has no poster")
	}
}

func TestPosterContent(t *testing.T) {
	a := activity(domain.GardenOfSalvation, 17, "Hartog31", "Oby1Chick")
	a.ID.When = domain.At(time.Date(2020, time.August, 17, 21, 15, 0, 0, time.UTC))
	a.Squad.Substitutes = []domain.RatedPlayer{{GamerTag: "croptus", Rating: domain.Experienced}}
	b := activity(domain.ScourgeOfThePast, 16, "Franstuk")
	require.NoError(t, b.SetMilestone("Save au boss"))

	var pages []render.Artifact
	for p := range (render.Posters{}).Render(domain.Schedule{Activities: []domain.Activity{a, b}}) {
		pages = append(pages, p)
	}
	require.Len(t, pages, 1)
	out := string(pages[0].Data)
	for _, want := range []string{
		"Jardin du salut", "Lundi 17 août, à 21h15", "Hartog31 (D)", "croptus (E)",
		"Remplaçants :", "Fléau du passé", "Dimanche 16 août", "En cours : Save au boss",
	} {
		assert.Contains(t, out, want)
	}
}

func TestDescribeActivity(t *testing.T) {
	a := activity(domain.Leviathan, 18, "Alice")
	a.ID.When = domain.At(time.Date(2020, time.August, 18, 21, 0, 0, 0, time.UTC))
	assert.Equal(t, "Léviathan, Mardi 18 août, à 21h00 (À venir)\nJoueurs (1/6) :\n  - Alice (D)", render.DescribeActivity(a))

	a.Squad.Substitutes = []domain.RatedPlayer{{GamerTag: "Bob"}}
	a.Finish()
	assert.Equal(t, "Léviathan, Mardi 18 août, à 21h00 (Terminée)\nJoueurs (1/6) :\n  - Alice (D)\nRemplaçants (1/3) :\n  - Bob (?)", render.DescribeActivity(a))
}

func TestScheduleTable(t *testing.T) {
	s := domain.Schedule{Activities: []domain.Activity{activity(domain.CrownOfSorrow, 15, "snippro34", "Jezehbell")}}
	out := render.ScheduleTable(s)
	assert.Contains(t, out, "Couronne du malheur")
	assert.Contains(t, out, "snippro34, Jezehbell")
}
