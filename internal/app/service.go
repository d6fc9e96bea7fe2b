// Package app wires parsing, execution and persistence for chat guilds.
package app

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"raidline/internal/domain"
	"raidline/internal/engine"
	"raidline/internal/events"
	"raidline/internal/intent"
	"raidline/internal/render"
	"raidline/internal/repo"
)

// Reply is what a chat transport sends back for one message.
type Reply struct {
	CommandID string            `json:"command_id,omitempty"`
	Ignored   bool              `json:"ignored,omitempty"`
	Notices   []string          `json:"notices,omitempty"`
	Feedback  string            `json:"feedback"`
	Chunks    []string          `json:"chunks"`
	Artifacts []render.Artifact `json:"artifacts,omitempty"`
	ErrorKind string            `json:"error_kind,omitempty"`
}

// Service serializes commands per guild: load, build, execute, persist.
type Service struct {
	Repo     repo.Repo
	Events   events.Writer
	Builder  intent.Builder
	Executor engine.Executor
	Logger   *zap.Logger
	Now      func() time.Time

	mu     sync.Mutex
	guilds map[string]*sync.Mutex
}

// New builds a Service. The builder and executor share the marker so
// help text shows the prefix users actually type.
func New(r repo.Repo, b intent.Builder, e engine.Executor, logger *zap.Logger) *Service {
	if e.Marker == "" {
		e.Marker = b.Marker
	}
	return &Service{
		Repo:     r,
		Events:   events.Writer{Now: r.Now},
		Builder:  b,
		Executor: e,
		Logger:   logger,
		Now:      e.Now,
	}
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

func (s *Service) logger() *zap.Logger {
	if s.Logger == nil {
		return zap.NewNop()
	}
	return s.Logger
}

func (s *Service) lock(guildID string) func() {
	s.mu.Lock()
	if s.guilds == nil {
		s.guilds = map[string]*sync.Mutex{}
	}
	m, ok := s.guilds[guildID]
	if !ok {
		m = &sync.Mutex{}
		s.guilds[guildID] = m
	}
	s.mu.Unlock()
	m.Lock()
	return m.Unlock
}

// Handle runs one chat message for a guild. Messages that are not
// commands come back with Ignored set. Command failures are part of the
// reply; the returned error is reserved for infrastructure failures.
func (s *Service) Handle(ctx context.Context, guildID, actorID, text string) (Reply, error) {
	if guildID == "" {
		return Reply{}, errors.New("guild id required")
	}
	if !s.Builder.IsCommand(text) {
		return Reply{Ignored: true}, nil
	}
	unlock := s.lock(guildID)
	defer unlock()

	log := s.logger().With(zap.String("guild", guildID), zap.String("actor", actorID))
	sess, notices, err := s.loadSession(ctx, guildID, actorID)
	if err != nil {
		log.Error("load session", zap.Error(err))
		return Reply{}, err
	}
	reply := Reply{CommandID: uuid.NewString(), Notices: notices}
	log = log.With(zap.String("command_id", reply.CommandID))

	in, err := s.Builder.Build(text, sess.Stats, s.now())
	if err == nil && in == nil {
		return Reply{Ignored: true, Notices: notices}, nil
	}
	var out engine.Outcome
	if err == nil {
		out, err = s.Executor.Execute(ctx, sess, *in)
	}
	if err != nil && domain.KindOf(err) == nil {
		log.Error("execute command", zap.String("text", text), zap.Error(err))
		if _, aerr := s.Events.Append(ctx, s.Repo.DB, events.CommandRejected, guildID, reply.CommandID, actorID,
			events.Payload{"text": text, "error_kind": domain.KindName(nil)}); aerr != nil {
			log.Warn("audit rejected command", zap.Error(aerr))
		}
		return Reply{}, err
	}

	if err := s.persist(ctx, guildID, actorID, reply.CommandID, text, in, sess, out, err); err != nil {
		log.Error("persist session", zap.Error(err))
		return Reply{}, err
	}

	if err != nil {
		reply.ErrorKind = domain.KindName(domain.KindOf(err))
		reply.Feedback = err.Error()
		log.Info("command rejected", zap.String("text", text), zap.String("kind", reply.ErrorKind))
	} else {
		reply.Feedback = out.Feedback
		reply.Artifacts = out.Artifacts
		log.Info("command executed", zap.Stringer("verb", in.Verb),
			zap.Bool("schedule_changed", out.ScheduleChanged), zap.Bool("stats_changed", out.StatsChanged))
	}
	reply.Chunks = Chunk(reply.Feedback, MaxChunk)
	return reply, nil
}

// persist saves what the outcome changed and appends the audit event in
// one transaction. cmdErr is the user-facing failure, if any.
func (s *Service) persist(ctx context.Context, guildID, actorID, commandID, text string, in *intent.Intent, sess *engine.Session, out engine.Outcome, cmdErr error) error {
	tx, err := s.Repo.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if out.ScheduleChanged {
		if err := s.Repo.SaveScheduleTx(ctx, tx, guildID, sess.Schedule); err != nil {
			return fmt.Errorf("save schedule: %w", err)
		}
	}
	if out.StatsChanged {
		if err := s.Repo.SaveStatsTx(ctx, tx, guildID, sess.Stats); err != nil {
			return fmt.Errorf("save stats: %w", err)
		}
		if _, err := s.Events.Append(ctx, tx, events.StatsSynced, guildID, commandID, actorID,
			events.Payload{"players": len(sess.Stats.Players)}); err != nil {
			return err
		}
	}

	payload := events.Payload{"text": text, "schedule_changed": out.ScheduleChanged}
	evtType := events.CommandAccepted
	if in != nil {
		payload["verb"] = in.Verb.String()
	}
	if cmdErr != nil {
		evtType = events.CommandRejected
		payload["error_kind"] = domain.KindName(domain.KindOf(cmdErr))
		payload["message"] = cmdErr.Error()
	}
	if _, err := s.Events.Append(ctx, tx, evtType, guildID, commandID, actorID, payload); err != nil {
		return err
	}
	return tx.Commit()
}

// Schedule returns the persisted schedule of a guild.
func (s *Service) Schedule(ctx context.Context, guildID string) (domain.Schedule, error) {
	sched, err := s.Repo.LoadSchedule(ctx, guildID)
	if errors.Is(err, repo.ErrNotFound) {
		return domain.Schedule{}, nil
	}
	return sched, err
}
