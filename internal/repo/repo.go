package repo

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"raidline/internal/domain"
)

type Repo struct {
	DB  *sql.DB
	Now func() time.Time
}

var ErrNotFound = errors.New("not found")

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

type queryRower interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func (r Repo) now() string {
	if r.Now != nil {
		return r.Now().UTC().Format(time.RFC3339)
	}
	return time.Now().UTC().Format(time.RFC3339)
}

// LoadSchedule returns the schedule of a guild, or ErrNotFound.
func (r Repo) LoadSchedule(ctx context.Context, guildID string) (domain.Schedule, error) {
	return loadSchedule(ctx, r.DB, guildID)
}

func (r Repo) LoadScheduleTx(ctx context.Context, tx *sql.Tx, guildID string) (domain.Schedule, error) {
	return loadSchedule(ctx, tx, guildID)
}

func loadSchedule(ctx context.Context, q queryRower, guildID string) (domain.Schedule, error) {
	var payload string
	err := q.QueryRowContext(ctx, `SELECT payload_json FROM schedules WHERE guild_id=?`, guildID).Scan(&payload)
	if err == sql.ErrNoRows {
		return domain.Schedule{}, ErrNotFound
	}
	if err != nil {
		return domain.Schedule{}, err
	}
	var s domain.Schedule
	if err := json.Unmarshal([]byte(payload), &s); err != nil {
		return domain.Schedule{}, fmt.Errorf("decode schedule of %s: %w", guildID, err)
	}
	if err := s.Validate(); err != nil {
		return domain.Schedule{}, fmt.Errorf("schedule of %s: %w", guildID, err)
	}
	return s, nil
}

func (r Repo) SaveSchedule(ctx context.Context, guildID string, s domain.Schedule) error {
	return r.saveSchedule(ctx, r.DB, guildID, s)
}

func (r Repo) SaveScheduleTx(ctx context.Context, tx *sql.Tx, guildID string, s domain.Schedule) error {
	return r.saveSchedule(ctx, tx, guildID, s)
}

func (r Repo) saveSchedule(ctx context.Context, db execer, guildID string, s domain.Schedule) error {
	if guildID == "" {
		return errors.New("guild id required")
	}
	if err := s.Validate(); err != nil {
		return err
	}
	payload, err := json.Marshal(s)
	if err != nil {
		return err
	}
	_, err = db.ExecContext(ctx, `INSERT INTO schedules(guild_id,payload_json,updated_at) VALUES (?,?,?)
ON CONFLICT(guild_id) DO UPDATE SET payload_json=excluded.payload_json, updated_at=excluded.updated_at`, guildID, string(payload), r.now())
	return err
}

// LoadStats returns the last stats snapshot of a guild, or ErrNotFound.
func (r Repo) LoadStats(ctx context.Context, guildID string) (domain.StatsTable, error) {
	return loadStats(ctx, r.DB, guildID)
}

func (r Repo) LoadStatsTx(ctx context.Context, tx *sql.Tx, guildID string) (domain.StatsTable, error) {
	return loadStats(ctx, tx, guildID)
}

func loadStats(ctx context.Context, q queryRower, guildID string) (domain.StatsTable, error) {
	var payload string
	err := q.QueryRowContext(ctx, `SELECT payload_json FROM stats_snapshots WHERE guild_id=?`, guildID).Scan(&payload)
	if err == sql.ErrNoRows {
		return domain.StatsTable{}, ErrNotFound
	}
	if err != nil {
		return domain.StatsTable{}, err
	}
	var t domain.StatsTable
	if err := json.Unmarshal([]byte(payload), &t); err != nil {
		return domain.StatsTable{}, fmt.Errorf("decode stats of %s: %w", guildID, err)
	}
	return t, nil
}

func (r Repo) SaveStats(ctx context.Context, guildID string, t domain.StatsTable) error {
	return r.saveStats(ctx, r.DB, guildID, t)
}

func (r Repo) SaveStatsTx(ctx context.Context, tx *sql.Tx, guildID string, t domain.StatsTable) error {
	return r.saveStats(ctx, tx, guildID, t)
}

func (r Repo) saveStats(ctx context.Context, db execer, guildID string, t domain.StatsTable) error {
	if guildID == "" {
		return errors.New("guild id required")
	}
	payload, err := json.Marshal(t)
	if err != nil {
		return err
	}
	var lastSync any
	if !t.LastSync.IsZero() {
		lastSync = t.LastSync.UTC().Format(time.RFC3339)
	}
	_, err = db.ExecContext(ctx, `INSERT INTO stats_snapshots(guild_id,last_sync,payload_json,updated_at) VALUES (?,?,?,?)
ON CONFLICT(guild_id) DO UPDATE SET last_sync=excluded.last_sync, payload_json=excluded.payload_json, updated_at=excluded.updated_at`,
		guildID, lastSync, string(payload), r.now())
	return err
}

// ListGuilds returns every guild with a schedule or a stats snapshot.
func (r Repo) ListGuilds(ctx context.Context) ([]string, error) {
	rows, err := r.DB.QueryContext(ctx, `SELECT guild_id FROM schedules UNION SELECT guild_id FROM stats_snapshots ORDER BY 1`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		res = append(res, id)
	}
	return res, rows.Err()
}

func (r Repo) LatestEvents(ctx context.Context, limit int, guildID, evtType string) ([]domain.Event, error) {
	return r.LatestEventsFrom(ctx, limit, 0, guildID, evtType)
}

// LatestEventsFrom returns events older than cursor, newest first. A zero
// cursor starts from the latest event.
func (r Repo) LatestEventsFrom(ctx context.Context, limit int, cursor int64, guildID, evtType string) ([]domain.Event, error) {
	if limit <= 0 {
		limit = 50
	}
	clauses := []string{"1=1"}
	var args []any
	if guildID != "" {
		clauses = append(clauses, "guild_id=?")
		args = append(args, guildID)
	}
	if evtType != "" {
		clauses = append(clauses, "type=?")
		args = append(args, evtType)
	}
	if cursor > 0 {
		clauses = append(clauses, "id<?")
		args = append(args, cursor)
	}
	where := "WHERE " + strings.Join(clauses, " AND ")
	query := fmt.Sprintf(`SELECT id,ts,type,guild_id,COALESCE(command_id,''),actor_id,payload_json FROM events %s ORDER BY id DESC LIMIT ?`, where)
	args = append(args, limit)
	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []domain.Event
	for rows.Next() {
		var e domain.Event
		if err := rows.Scan(&e.ID, &e.TS, &e.Type, &e.GuildID, &e.CommandID, &e.ActorID, &e.Payload); err != nil {
			return nil, err
		}
		res = append(res, e)
	}
	return res, rows.Err()
}
