package repo_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"raidline/internal/db"
	"raidline/internal/domain"
	"raidline/internal/events"
	"raidline/internal/repo"
)

func newRepo(t *testing.T) repo.Repo {
	t.Helper()
	conn, err := db.Open(db.Config{Workspace: t.TempDir()})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return repo.Repo{DB: conn}
}

func TestScheduleRoundTrip(t *testing.T) {
	r := newRepo(t)
	ctx := context.Background()

	_, err := r.LoadSchedule(ctx, "g1")
	require.ErrorIs(t, err, repo.ErrNotFound)

	paris, err := time.LoadLocation("Europe/Paris")
	require.NoError(t, err)
	s := domain.Schedule{Activities: []domain.Activity{
		{
			ID:    domain.ActivityID{Kind: domain.Leviathan, When: domain.At(time.Date(2020, 8, 18, 21, 0, 0, 0, paris))},
			Squad: domain.Squad{Players: []domain.RatedPlayer{{GamerTag: "Alice", Rating: domain.Beginner}}},
		},
		{
			ID:        domain.ActivityID{Kind: domain.GardenOfSalvation, When: domain.Date(2020, 8, 25)},
			State:     domain.Milestoned,
			Milestone: "Save au boss",
		},
	}}
	require.NoError(t, r.SaveSchedule(ctx, "g1", s))
	got, err := r.LoadSchedule(ctx, "g1")
	require.NoError(t, err)
	require.Len(t, got.Activities, 2)
	assert.True(t, s.Activities[0].ID.When.Equal(got.Activities[0].ID.When))
	assert.True(t, s.Activities[1].ID.When.Equal(got.Activities[1].ID.When))
	assert.Equal(t, s.Activities[0].Squad, got.Activities[0].Squad)
	assert.Equal(t, "Save au boss", got.Activities[1].Milestone)
	assert.Equal(t, domain.Milestoned, got.Activities[1].State)

	s.Activities = s.Activities[:1]
	require.NoError(t, r.SaveSchedule(ctx, "g1", s))
	got, err = r.LoadSchedule(ctx, "g1")
	require.NoError(t, err)
	assert.Len(t, got.Activities, 1)
}

func TestSaveScheduleRejectsBrokenInvariants(t *testing.T) {
	r := newRepo(t)
	a := domain.Activity{ID: domain.ActivityID{Kind: domain.LastWish, When: domain.Date(2020, 8, 20)}}
	for range 7 {
		a.Squad.Players = append(a.Squad.Players, domain.RatedPlayer{GamerTag: "x"})
	}
	err := r.SaveSchedule(context.Background(), "g1", domain.Schedule{Activities: []domain.Activity{a}})
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestStatsRoundTrip(t *testing.T) {
	r := newRepo(t)
	ctx := context.Background()

	_, err := r.LoadStats(ctx, "g1")
	require.ErrorIs(t, err, repo.ErrNotFound)

	table := domain.StatsTable{
		LastSync: time.Date(2020, 7, 26, 14, 5, 0, 0, time.UTC),
		Players: map[string]map[domain.Kind]int{
			"Cosa58": {domain.GardenOfSalvation: 8, domain.LastWish: 2},
			"Alice":  {},
		},
	}
	require.NoError(t, r.SaveStats(ctx, "g1", table))
	got, err := r.LoadStats(ctx, "g1")
	require.NoError(t, err)
	assert.True(t, table.LastSync.Equal(got.LastSync))
	assert.Equal(t, table.Players, got.Players)
}

func TestListGuilds(t *testing.T) {
	r := newRepo(t)
	ctx := context.Background()
	require.NoError(t, r.SaveSchedule(ctx, "b", domain.Schedule{}))
	require.NoError(t, r.SaveStats(ctx, "a", domain.StatsTable{}))
	require.NoError(t, r.SaveStats(ctx, "b", domain.StatsTable{}))
	guilds, err := r.ListGuilds(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, guilds)
}

func TestLatestEvents(t *testing.T) {
	r := newRepo(t)
	ctx := context.Background()
	w := events.Writer{}
	for i, typ := range []string{events.GuildBootstrap, events.CommandAccepted, events.CommandRejected, events.CommandAccepted} {
		guild := "g1"
		if i == 3 {
			guild = "g2"
		}
		_, err := w.Append(ctx, r.DB, typ, guild, "cmd", "alice", events.Payload{"n": i})
		require.NoError(t, err)
	}

	evts, err := r.LatestEvents(ctx, 10, "g1", "")
	require.NoError(t, err)
	require.Len(t, evts, 3)
	assert.Equal(t, events.CommandRejected, evts[0].Type)
	assert.Equal(t, `{"n":2}`, evts[0].Payload)
	assert.Equal(t, "cmd", evts[0].CommandID)

	evts, err = r.LatestEvents(ctx, 10, "", events.CommandAccepted)
	require.NoError(t, err)
	assert.Len(t, evts, 2)

	older, err := r.LatestEventsFrom(ctx, 1, evts[0].ID, "", "")
	require.NoError(t, err)
	require.Len(t, older, 1)
	assert.Equal(t, evts[0].ID-1, older[0].ID)
}
