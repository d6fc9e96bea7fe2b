package domain_test

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"raidline/internal/domain"
)

var paris = mustLocation("Europe/Paris")

func mustLocation(name string) *time.Location {
	loc, err := time.LoadLocation(name)
	if err != nil {
		panic(err)
	}
	return loc
}

func players(tags ...string) []domain.RatedPlayer {
	out := make([]domain.RatedPlayer, 0, len(tags))
	for _, tag := range tags {
		out = append(out, domain.RatedPlayer{GamerTag: tag, Rating: domain.Beginner})
	}
	return out
}

func TestRatingFor(t *testing.T) {
	cases := map[int]domain.Rating{0: domain.Beginner, 6: domain.Beginner, 7: domain.Intermediate, 12: domain.Intermediate, 13: domain.Experienced}
	for n, want := range cases {
		assert.Equal(t, want, domain.RatingFor(n), "completions=%d", n)
	}
}

func TestStatsRate(t *testing.T) {
	stats := domain.StatsTable{Players: map[string]map[domain.Kind]int{
		"Alice": {},
		"Bob":   {domain.Leviathan: 8},
	}}
	assert.Equal(t, domain.RatedPlayer{GamerTag: "Alice", Rating: domain.Beginner}, stats.Rate("Alice", domain.Leviathan))
	assert.Equal(t, domain.Intermediate, stats.Rate("Bob", domain.Leviathan).Rating)
	assert.Equal(t, domain.Beginner, stats.Rate("Bob", domain.LeviathanPrestige).Rating)
	assert.Equal(t, domain.RatingUnknown, stats.Rate("Carol", domain.Leviathan).Rating)
	assert.Equal(t, []string{"Alice", "Bob"}, stats.Roster())
}

func TestSquadAddIsIdempotent(t *testing.T) {
	var s domain.Squad
	n, err := s.Add(domain.Players, players("Walnut Waffle", "Walnut Waffle")...)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	n, err = s.Add(domain.Players, players("Walnut Waffle")...)
	require.NoError(t, err)
	assert.Equal(t, 0, n)
	assert.Len(t, s.Players, 1)
}

func TestSquadRemoveAbsentIsNoop(t *testing.T) {
	s := domain.Squad{Players: players("a", "b")}
	assert.Equal(t, 0, s.Remove(domain.Players, "zz"))
	assert.Equal(t, 1, s.Remove(domain.Players, "a", "zz"))
	assert.Equal(t, players("b"), s.Players)
}

func TestSquadCapacity(t *testing.T) {
	s := domain.Squad{Players: players("a", "b", "c", "d", "e", "f")}
	_, err := s.Add(domain.Players, players("g")...)
	require.ErrorIs(t, err, domain.ErrCapacity)
	assert.Equal(t, players("a", "b", "c", "d", "e", "f"), s.Players)

	s = domain.Squad{Substitutes: players("x", "y")}
	_, err = s.Add(domain.Substitutes, players("z", "w")...)
	require.ErrorIs(t, err, domain.ErrCapacity)
	assert.Equal(t, players("x", "y"), s.Substitutes, "batch must be all or nothing")

	// Already present players do not count twice.
	_, err = s.Add(domain.Substitutes, players("x", "z")...)
	require.NoError(t, err)
	assert.Len(t, s.Substitutes, 3)
}

func TestActivityStateMachine(t *testing.T) {
	a, err := domain.NewActivity(domain.ScourgeOfThePast, domain.Date(2020, 8, 16))
	require.NoError(t, err)
	assert.Equal(t, domain.NotStarted, a.State)

	require.NoError(t, a.SetMilestone("Save au boss"))
	require.NoError(t, a.SetMilestone("Reporté"))
	assert.Equal(t, domain.Milestoned, a.State)
	assert.Equal(t, "Reporté", a.Milestone)

	assert.True(t, a.Finish())
	assert.False(t, a.Finish(), "finishing twice is a no-op")
	assert.Equal(t, domain.Finished, a.State)
	require.ErrorIs(t, a.SetMilestone("encore"), domain.ErrValidation)

	_, err = domain.NewActivity(domain.Leviathan, domain.When{})
	require.ErrorIs(t, err, domain.ErrNotFound)
}

func fixture() domain.Schedule {
	return domain.Schedule{Activities: []domain.Activity{
		{ID: domain.ActivityID{Kind: domain.Leviathan, When: domain.At(time.Date(2020, 8, 9, 21, 15, 0, 0, paris))}, State: domain.Finished},
		{ID: domain.ActivityID{Kind: domain.SpireOfStarsPrestige, When: domain.Date(2020, 8, 12)}},
		{ID: domain.ActivityID{Kind: domain.ScourgeOfThePast, When: domain.At(time.Date(2020, 8, 16, 14, 30, 0, 0, paris))}, State: domain.Milestoned, Milestone: "Save au boss"},
		{ID: domain.ActivityID{Kind: domain.GardenOfSalvation, When: domain.At(time.Date(2020, 8, 17, 21, 15, 0, 0, paris))}},
		{ID: domain.ActivityID{Kind: domain.GardenOfSalvation, When: domain.Date(2020, 8, 25)}},
	}}
}

func TestScheduleFind(t *testing.T) {
	s := fixture()
	tests := []struct {
		name string
		id   domain.ActivityID
		want int
		err  error
	}{
		{"kind alone", domain.ActivityID{Kind: domain.Leviathan}, 0, nil},
		{"kind alone ambiguous", domain.ActivityID{Kind: domain.GardenOfSalvation}, -1, domain.ErrAmbiguous},
		{"date only matches timed activity", domain.ActivityID{Kind: domain.GardenOfSalvation, When: domain.Date(2020, 8, 17)}, 3, nil},
		{"date only matches date only activity", domain.ActivityID{Kind: domain.GardenOfSalvation, When: domain.Date(2020, 8, 25)}, 4, nil},
		{"exact", domain.ActivityID{Kind: domain.GardenOfSalvation, When: domain.At(time.Date(2020, 8, 17, 21, 15, 0, 0, paris))}, 3, nil},
		{"exact wrong hour", domain.ActivityID{Kind: domain.GardenOfSalvation, When: domain.At(time.Date(2020, 8, 17, 20, 0, 0, 0, paris))}, -1, domain.ErrNotFound},
		{"exact against date only activity", domain.ActivityID{Kind: domain.SpireOfStarsPrestige, When: domain.At(time.Date(2020, 8, 12, 21, 0, 0, 0, paris))}, -1, domain.ErrNotFound},
		{"missing kind", domain.ActivityID{Kind: domain.LastWish}, -1, domain.ErrNotFound},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := s.Find(tc.id)
			if tc.err != nil {
				require.ErrorIs(t, err, tc.err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestScheduleInsertRejectsExactDuplicate(t *testing.T) {
	s := fixture()
	a, err := domain.NewActivity(domain.GardenOfSalvation, domain.At(time.Date(2020, 8, 17, 21, 15, 0, 0, paris)))
	require.NoError(t, err)
	require.ErrorIs(t, s.Insert(a), domain.ErrValidation)
	assert.Len(t, s.Activities, 5)
}

func TestScheduleReschedule(t *testing.T) {
	s := fixture()
	require.ErrorIs(t, s.Reschedule(4, s.Activities[3].ID.When), domain.ErrValidation)
	to := domain.Date(2021, 8, 24)
	require.NoError(t, s.Reschedule(4, to))
	assert.True(t, s.Activities[4].ID.When.Equal(to))
}

func TestScheduleClearPast(t *testing.T) {
	s := fixture()
	now := time.Date(2020, 8, 16, 18, 0, 0, 0, paris)
	assert.Equal(t, 2, s.ClearPast(now))
	require.Len(t, s.Activities, 3)
	assert.Equal(t, domain.ScourgeOfThePast, s.Activities[0].ID.Kind, "same day activity is kept")
	assert.Equal(t, domain.GardenOfSalvation, s.Activities[1].ID.Kind)
	assert.Equal(t, domain.Date(2020, 8, 25), s.Activities[2].ID.When)
}

func TestScheduleSnapshotRoundTrip(t *testing.T) {
	s := fixture()
	s.Activities[3].Squad = domain.Squad{Players: players("Cosa58", "croptus"), Substitutes: players("klaexy")}
	data, err := json.Marshal(s)
	require.NoError(t, err)

	var back domain.Schedule
	require.NoError(t, json.Unmarshal(data, &back))
	require.NoError(t, back.Validate())
	require.Len(t, back.Activities, 5)
	for i := range s.Activities {
		assert.True(t, s.Activities[i].ID.When.Equal(back.Activities[i].ID.When), "activity %d", i)
		assert.Equal(t, s.Activities[i].ID.Kind, back.Activities[i].ID.Kind)
		assert.Equal(t, s.Activities[i].State, back.Activities[i].State)
	}
	assert.Equal(t, s.Activities[3].Squad, back.Activities[3].Squad)

	// A date-only point still finds the activity after the round-trip.
	i, err := back.Find(domain.ActivityID{Kind: domain.SpireOfStarsPrestige, When: domain.Date(2020, 8, 12)})
	require.NoError(t, err)
	assert.Equal(t, 1, i)
}

func TestScheduleValidateRejectsBrokenSnapshot(t *testing.T) {
	raw := `{"activities":[{"id":{"kind":"LEVIATHAN","when":{"datetime":"2020-08-17","time_specified":false}},
		"state":"NOT_STARTED","squad":{"players":[{"gamer_tag":"a","rating":"BEGINNER"},{"gamer_tag":"a","rating":"BEGINNER"}],"substitutes":[]}}]}`
	var s domain.Schedule
	require.NoError(t, json.Unmarshal([]byte(raw), &s))
	err := s.Validate()
	require.ErrorIs(t, err, domain.ErrValidation)

	err = json.Unmarshal([]byte(`{"activities":[{"id":{"kind":"NOPE"}}]}`), &s)
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrValidation))
}

func TestWhenLabel(t *testing.T) {
	assert.Equal(t, "le mardi 18 août 2020 à 21h15", domain.At(time.Date(2020, 8, 18, 21, 15, 0, 0, paris)).Label())
	assert.Equal(t, "le mercredi 19 août 2020", domain.Date(2020, 8, 19).Label())
}
