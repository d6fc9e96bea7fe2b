package app

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"raidline/internal/domain"
	"raidline/internal/engine"
	"raidline/internal/events"
	"raidline/internal/repo"
)

const (
	syncNotice     = "Une synchronisation des joueurs doit être effectuée.\nVeuillez patienter..."
	syncDoneNotice = "Synchronisation terminée."
)

// loadSession reads the guild state, seeding it on first use: a missing
// stats snapshot is fetched and saved, a missing schedule starts empty.
// The notices tell the chat user about the initial sync.
func (s *Service) loadSession(ctx context.Context, guildID, actorID string) (*engine.Session, []string, error) {
	var notices []string
	stats, err := s.Repo.LoadStats(ctx, guildID)
	if err != nil {
		if !errors.Is(err, repo.ErrNotFound) {
			return nil, nil, fmt.Errorf("load stats: %w", err)
		}
		if s.Executor.Stats == nil {
			return nil, nil, errors.New("no stats source configured for first sync")
		}
		notices = append(notices, syncNotice)
		s.logger().Info("bootstrapping guild stats", zap.String("guild", guildID))
		stats, err = s.Executor.Stats.Fetch(ctx)
		if err != nil {
			return nil, nil, fmt.Errorf("initial stats sync: %w", err)
		}
		stats.LastSync = s.now()
		if err := s.Repo.SaveStats(ctx, guildID, stats); err != nil {
			return nil, nil, fmt.Errorf("seed stats: %w", err)
		}
		if _, err := s.Events.Append(ctx, s.Repo.DB, events.GuildBootstrap, guildID, "", actorID,
			events.Payload{"players": len(stats.Players)}); err != nil {
			return nil, nil, err
		}
		notices = append(notices, syncDoneNotice)
	}

	schedule, err := s.Repo.LoadSchedule(ctx, guildID)
	if err != nil {
		if !errors.Is(err, repo.ErrNotFound) {
			return nil, nil, fmt.Errorf("load schedule: %w", err)
		}
		schedule = domain.Schedule{}
		if err := s.Repo.SaveSchedule(ctx, guildID, schedule); err != nil {
			return nil, nil, fmt.Errorf("seed schedule: %w", err)
		}
	}
	return &engine.Session{Schedule: schedule, Stats: stats}, notices, nil
}
