package server

import (
	"encoding/json"

	"raidline/internal/app"
	"raidline/internal/domain"
	"raidline/internal/render"
)

type CommandRequest struct {
	Text string `json:"text" minLength:"1" example:"!raid leviathan mardi 21h +Cosa58"`
	// ActorID is the chat user who typed the message. Defaults to the
	// token subject.
	ActorID string `json:"actor_id,omitempty" example:"discord:1234"`
}

type ArtifactResponse struct {
	Name        string `json:"name"`
	ContentType string `json:"content_type"`
	Data        []byte `json:"data" contentEncoding:"base64"`
}

type CommandResponse struct {
	CommandID string             `json:"command_id,omitempty"`
	Ignored   bool               `json:"ignored"`
	Notices   []string           `json:"notices"`
	Feedback  string             `json:"feedback"`
	Chunks    []string           `json:"chunks"`
	Artifacts []ArtifactResponse `json:"artifacts"`
	ErrorKind string             `json:"error_kind,omitempty" enum:"missing_argument,no_match,ambiguous,trailing_input,capacity,not_found,validation"`
}

type PlayerResponse struct {
	GamerTag string `json:"gamer_tag"`
	Rating   string `json:"rating" enum:"UNKNOWN,BEGINNER,INTERMEDIATE,EXPERIENCED"`
}

type ActivityResponse struct {
	Kind          string           `json:"kind" example:"LEVIATHAN"`
	Name          string           `json:"name" example:"Léviathan"`
	When          string           `json:"when" example:"2020-08-18T21:00:00+02:00"`
	TimeSpecified bool             `json:"time_specified"`
	Label         string           `json:"label" example:"Mardi 18 août, à 21h00"`
	State         string           `json:"state" enum:"NOT_STARTED,MILESTONED,FINISHED"`
	Milestone     string           `json:"milestone,omitempty"`
	Players       []PlayerResponse `json:"players"`
	Substitutes   []PlayerResponse `json:"substitutes"`
}

type ScheduleResponse struct {
	GuildID    string             `json:"guild_id"`
	Activities []ActivityResponse `json:"activities"`
	Table      string             `json:"table,omitempty"`
}

type EventResponse struct {
	ID        int64          `json:"id"`
	TS        string         `json:"ts" format:"date-time"`
	Type      string         `json:"type"`
	GuildID   string         `json:"guild_id"`
	CommandID string         `json:"command_id,omitempty"`
	ActorID   string         `json:"actor_id"`
	Payload   map[string]any `json:"payload"`
}

type paginatedEvents struct {
	Items      []EventResponse `json:"items"`
	NextCursor string          `json:"next_cursor,omitempty"`
}

// Conversion helpers

func commandResponse(r app.Reply) CommandResponse {
	res := CommandResponse{
		CommandID: r.CommandID,
		Ignored:   r.Ignored,
		Notices:   nonNilSlice(r.Notices),
		Feedback:  r.Feedback,
		Chunks:    nonNilSlice(r.Chunks),
		Artifacts: []ArtifactResponse{},
		ErrorKind: r.ErrorKind,
	}
	for _, a := range r.Artifacts {
		res.Artifacts = append(res.Artifacts, artifactResponse(a))
	}
	return res
}

func artifactResponse(a render.Artifact) ArtifactResponse {
	return ArtifactResponse(a)
}

func players(in []domain.RatedPlayer) []PlayerResponse {
	out := make([]PlayerResponse, len(in))
	for i, p := range in {
		out[i] = PlayerResponse{GamerTag: p.GamerTag, Rating: p.Rating.String()}
	}
	return out
}

func activityResponse(a domain.Activity) ActivityResponse {
	return ActivityResponse{
		Kind:          a.ID.Kind.String(),
		Name:          a.ID.Kind.DisplayName(),
		When:          a.ID.When.String(),
		TimeSpecified: a.ID.When.TimeSpecified,
		Label:         a.ID.When.Headline(),
		State:         a.State.String(),
		Milestone:     a.Milestone,
		Players:       players(a.Squad.Players),
		Substitutes:   players(a.Squad.Substitutes),
	}
}

func scheduleResponse(guildID string, s domain.Schedule) ScheduleResponse {
	res := ScheduleResponse{GuildID: guildID, Activities: make([]ActivityResponse, len(s.Activities))}
	for i, a := range s.Activities {
		res.Activities[i] = activityResponse(a)
	}
	return res
}

func eventResponse(e domain.Event) EventResponse {
	return EventResponse{
		ID:        e.ID,
		TS:        e.TS,
		Type:      e.Type,
		GuildID:   e.GuildID,
		CommandID: e.CommandID,
		ActorID:   e.ActorID,
		Payload:   decodeJSONMap(e.Payload),
	}
}

func decodeJSONMap(raw string) map[string]any {
	out := map[string]any{}
	if raw == "" {
		return out
	}
	_ = json.Unmarshal([]byte(raw), &out)
	return out
}

func nonNilSlice[T any](in []T) []T {
	if in == nil {
		return []T{}
	}
	return in
}
