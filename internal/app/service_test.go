package app_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"golang.org/x/sync/errgroup"

	"raidline/internal/app"
	"raidline/internal/db"
	"raidline/internal/domain"
	"raidline/internal/engine"
	"raidline/internal/events"
	"raidline/internal/intent"
	"raidline/internal/render"
	"raidline/internal/repo"
	"raidline/internal/resolve"
	"raidline/internal/resolve/resolvetest"
)

var paris = func() *time.Location {
	loc, err := time.LoadLocation("Europe/Paris")
	if err != nil {
		panic(err)
	}
	return loc
}()

var now = time.Date(2020, 8, 12, 18, 15, 0, 0, paris)

type fakeStats struct {
	table domain.StatsTable
	err   error
	calls int
}

func (f *fakeStats) Fetch(context.Context) (domain.StatsTable, error) {
	f.calls++
	return f.table, f.err
}

func roster(tags ...string) domain.StatsTable {
	t := domain.StatsTable{Players: map[string]map[domain.Kind]int{}}
	for _, tag := range tags {
		t.Players[tag] = map[domain.Kind]int{}
	}
	t.Players["Alice"][domain.Leviathan] = 12
	return t
}

func newService(t *testing.T) (*app.Service, *fakeStats) {
	t.Helper()
	conn, err := db.Open(db.Config{Workspace: t.TempDir()})
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	clock := func() time.Time { return now }
	stats := &fakeStats{table: roster("Alice", "Bruno", "Chloe", "Damien", "Elodie", "Fabien", "Gaspard", "Hugo")}
	exec := engine.New(stats, render.Posters{})
	exec.Now = clock
	svc := app.New(
		repo.Repo{DB: conn, Now: clock},
		intent.Builder{Dates: resolve.DateTimeResolver{Engine: resolvetest.Engine{}}},
		exec,
		zaptest.NewLogger(t),
	)
	return svc, stats
}

func eventTypes(t *testing.T, svc *app.Service, guild string) []string {
	t.Helper()
	evts, err := svc.Repo.LatestEvents(context.Background(), 50, guild, "")
	require.NoError(t, err)
	out := make([]string, len(evts))
	for i, e := range evts {
		out[i] = e.Type
	}
	return out
}

func TestHandleIgnoresChatter(t *testing.T) {
	svc, stats := newService(t)
	reply, err := svc.Handle(context.Background(), "g1", "u1", "salut tout le monde")
	require.NoError(t, err)
	assert.True(t, reply.Ignored)
	assert.Zero(t, stats.calls)
	assert.Empty(t, eventTypes(t, svc, "g1"))
}

func TestHandleRequiresGuild(t *testing.T) {
	svc, _ := newService(t)
	_, err := svc.Handle(context.Background(), "", "u1", "!raid help")
	assert.Error(t, err)
}

func TestHandleBootstrapsGuild(t *testing.T) {
	svc, stats := newService(t)
	ctx := context.Background()

	reply, err := svc.Handle(ctx, "g1", "u1", "!raid lastsync")
	require.NoError(t, err)
	assert.Equal(t, 1, stats.calls)
	require.Len(t, reply.Notices, 2)
	assert.Equal(t, "Synchronisation terminée.", reply.Notices[1])
	assert.Equal(t, "Dernière synchronisation : "+now.Format(time.RFC3339), reply.Feedback)
	assert.NotEmpty(t, reply.CommandID)
	assert.Equal(t, []string{events.CommandAccepted, events.GuildBootstrap}, eventTypes(t, svc, "g1"))

	saved, err := svc.Repo.LoadStats(ctx, "g1")
	require.NoError(t, err)
	assert.True(t, now.Equal(saved.LastSync))
	sched, err := svc.Repo.LoadSchedule(ctx, "g1")
	require.NoError(t, err)
	assert.Empty(t, sched.Activities)

	reply, err = svc.Handle(ctx, "g1", "u1", "!raid lastsync")
	require.NoError(t, err)
	assert.Empty(t, reply.Notices)
	assert.Equal(t, 1, stats.calls)
}

func TestHandleBootstrapFailure(t *testing.T) {
	svc, stats := newService(t)
	stats.err = errors.New("bungie down")
	_, err := svc.Handle(context.Background(), "g1", "u1", "!raid help")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bungie down")

	guilds, err := svc.Repo.ListGuilds(context.Background())
	require.NoError(t, err)
	assert.Empty(t, guilds)
}

func TestHandlePersistsSchedule(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	reply, err := svc.Handle(ctx, "g1", "u1", "!raid leviathan mardi 21h Alice Bruno")
	require.NoError(t, err)
	assert.Empty(t, reply.ErrorKind)
	assert.True(t, strings.HasPrefix(reply.Feedback, "Activité créée :"), reply.Feedback)
	require.Len(t, reply.Chunks, 1)
	assert.Contains(t, reply.Chunks[0], "Alice (I)")

	sched, err := svc.Schedule(ctx, "g1")
	require.NoError(t, err)
	require.Len(t, sched.Activities, 1)
	a := sched.Activities[0]
	assert.Equal(t, domain.Leviathan, a.ID.Kind)
	assert.Equal(t, []string{"Alice", "Bruno"}, []string{a.Squad.Players[0].GamerTag, a.Squad.Players[1].GamerTag})

	evts, err := svc.Repo.LatestEvents(ctx, 1, "g1", events.CommandAccepted)
	require.NoError(t, err)
	require.Len(t, evts, 1)
	assert.Equal(t, reply.CommandID, evts[0].CommandID)
	assert.Contains(t, evts[0].Payload, `"verb":"squad"`)

	other, err := svc.Schedule(ctx, "g2")
	require.NoError(t, err)
	assert.Empty(t, other.Activities)
}

func TestHandleReportsCommandFailures(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	reply, err := svc.Handle(ctx, "g1", "u1", "!raid leviathan Alice")
	require.NoError(t, err)
	assert.Equal(t, "not_found", reply.ErrorKind)
	assert.NotEmpty(t, reply.Feedback)
	require.Len(t, reply.Chunks, 1)

	reply, err = svc.Handle(ctx, "g1", "u1", "!raid zzzzzzzz")
	require.NoError(t, err)
	assert.Equal(t, "no_match", reply.ErrorKind)

	assert.Equal(t, []string{events.CommandRejected, events.CommandRejected, events.GuildBootstrap}, eventTypes(t, svc, "g1"))
	evts, err := svc.Repo.LatestEvents(ctx, 1, "g1", "")
	require.NoError(t, err)
	assert.Contains(t, evts[0].Payload, `"error_kind":"no_match"`)
}

func TestHandleKeepsRemovalsOnCapacity(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	_, err := svc.Handle(ctx, "g1", "u1", "!raid leviathan mardi 21h Alice Bruno Chloe Damien Elodie Fabien")
	require.NoError(t, err)

	reply, err := svc.Handle(ctx, "g1", "u1", "!raid leviathan -Alice Gaspard Hugo")
	require.NoError(t, err)
	assert.Equal(t, "capacity", reply.ErrorKind)

	sched, err := svc.Schedule(ctx, "g1")
	require.NoError(t, err)
	require.Len(t, sched.Activities, 1)
	players := sched.Activities[0].Squad.Players
	assert.Len(t, players, 5)
	assert.Equal(t, "Bruno", players[0].GamerTag)
}

func TestHandleSyncFailure(t *testing.T) {
	svc, stats := newService(t)
	ctx := context.Background()
	_, err := svc.Handle(ctx, "g1", "u1", "!raid help")
	require.NoError(t, err)

	stats.err = errors.New("timeout")
	_, err = svc.Handle(ctx, "g1", "u1", "!raid sync")
	require.Error(t, err)
	assert.Equal(t, events.CommandRejected, eventTypes(t, svc, "g1")[0])
}

func TestHandleSync(t *testing.T) {
	svc, stats := newService(t)
	ctx := context.Background()
	_, err := svc.Handle(ctx, "g1", "u1", "!raid help")
	require.NoError(t, err)

	stats.table.Players["Zoe"] = map[domain.Kind]int{}
	reply, err := svc.Handle(ctx, "g1", "u1", "!raid sync")
	require.NoError(t, err)
	assert.Equal(t, "Joueurs et niveaux d'expérience synchronisés.", reply.Feedback)

	saved, err := svc.Repo.LoadStats(ctx, "g1")
	require.NoError(t, err)
	assert.Contains(t, saved.Players, "Zoe")
	assert.Equal(t, []string{events.CommandAccepted, events.StatsSynced, events.CommandAccepted, events.GuildBootstrap}, eventTypes(t, svc, "g1"))
}

func TestHandleSerializesGuildCommands(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()
	_, err := svc.Handle(ctx, "g1", "u1", "!raid leviathan mardi 21h Alice Bruno")
	require.NoError(t, err)

	var g errgroup.Group
	for _, tag := range []string{"Chloe", "Damien", "Elodie", "Fabien"} {
		g.Go(func() error {
			reply, err := svc.Handle(ctx, "g1", "u1", "!raid leviathan "+tag)
			if err == nil && reply.ErrorKind != "" {
				err = errors.New(reply.Feedback)
			}
			return err
		})
	}
	require.NoError(t, g.Wait())

	sched, err := svc.Schedule(ctx, "g1")
	require.NoError(t, err)
	assert.Len(t, sched.Activities[0].Squad.Players, 6)
}
