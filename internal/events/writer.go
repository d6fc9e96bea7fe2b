// Package events appends entries to the command audit log.
package events

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"
)

const (
	CommandAccepted = "command.accepted"
	CommandRejected = "command.rejected"
	GuildBootstrap  = "guild.bootstrap"
	StatsSynced     = "stats.synced"
)

// Execer is satisfied by *sql.DB and *sql.Tx.
type Execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

type Writer struct {
	Now func() time.Time
}

type Payload map[string]any

// Append writes one event and returns its id.
func (w Writer) Append(ctx context.Context, db Execer, evtType, guildID, commandID, actorID string, payload Payload) (int64, error) {
	now := time.Now
	if w.Now != nil {
		now = w.Now
	}
	if payload == nil {
		payload = Payload{}
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return 0, fmt.Errorf("marshal event payload: %w", err)
	}
	res, err := db.ExecContext(ctx, `INSERT INTO events(ts,type,guild_id,command_id,actor_id,payload_json) VALUES (?,?,?,?,?,?)`,
		now().UTC().Format(time.RFC3339), evtType, guildID, nullable(commandID), actorID, string(data))
	if err != nil {
		return 0, fmt.Errorf("append %s event: %w", evtType, err)
	}
	return res.LastInsertId()
}

func nullable(v string) any {
	if v == "" {
		return nil
	}
	return v
}
