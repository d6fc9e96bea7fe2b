// Package raidlinesdk is a minimal client for the Raidline HTTP API, for
// chat bridges that forward messages to the command interpreter.
package raidlinesdk

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Client talks to one guild.
type Client struct {
	BaseURL     string
	GuildID     string
	BearerToken string
	HTTPClient  *http.Client
	Timeout     time.Duration
}

// New creates a client with sane defaults.
func New(baseURL, guildID, token string) *Client {
	return &Client{
		BaseURL:     baseURL,
		GuildID:     guildID,
		BearerToken: token,
		Timeout:     30 * time.Second,
	}
}

// Artifact is a rendered poster.
type Artifact struct {
	Name        string `json:"name"`
	ContentType string `json:"content_type"`
	Data        []byte `json:"data"`
}

// Reply is what to post back in the chat channel.
type Reply struct {
	CommandID string     `json:"command_id"`
	Ignored   bool       `json:"ignored"`
	Notices   []string   `json:"notices"`
	Feedback  string     `json:"feedback"`
	Chunks    []string   `json:"chunks"`
	Artifacts []Artifact `json:"artifacts"`
	ErrorKind string     `json:"error_kind"`
}

// Failed reports whether the command was rejected.
func (r Reply) Failed() bool { return r.ErrorKind != "" }

type Player struct {
	GamerTag string `json:"gamer_tag"`
	Rating   string `json:"rating"`
}

type Activity struct {
	Kind          string   `json:"kind"`
	Name          string   `json:"name"`
	When          string   `json:"when"`
	TimeSpecified bool     `json:"time_specified"`
	Label         string   `json:"label"`
	State         string   `json:"state"`
	Milestone     string   `json:"milestone"`
	Players       []Player `json:"players"`
	Substitutes   []Player `json:"substitutes"`
}

type Schedule struct {
	GuildID    string     `json:"guild_id"`
	Activities []Activity `json:"activities"`
	Table      string     `json:"table"`
}

// Event represents an audit log entry.
type Event struct {
	ID        int64          `json:"id"`
	TS        string         `json:"ts"`
	Type      string         `json:"type"`
	GuildID   string         `json:"guild_id"`
	CommandID string         `json:"command_id"`
	ActorID   string         `json:"actor_id"`
	Payload   map[string]any `json:"payload"`
}

// PaginatedEvents wraps list responses with cursors.
type PaginatedEvents struct {
	Items      []Event `json:"items"`
	NextCursor string  `json:"next_cursor"`
}

// APIError wraps non-2xx responses.
type APIError struct {
	StatusCode int
	Code       string
	Message    string
	Body       string
}

func (e *APIError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("api error: status=%d code=%s: %s", e.StatusCode, e.Code, e.Message)
	}
	return fmt.Sprintf("api error: status=%d body=%s", e.StatusCode, e.Body)
}

// IsStatus reports whether the error carries the given HTTP status.
func (e *APIError) IsStatus(status int) bool { return e.StatusCode == status }

// SendCommand forwards a chat message typed by actorID. Messages that
// are not commands come back with Ignored set.
func (c *Client) SendCommand(ctx context.Context, actorID, text string) (Reply, error) {
	body := map[string]any{"text": text}
	if actorID != "" {
		body["actor_id"] = actorID
	}
	var resp Reply
	err := c.do(ctx, http.MethodPost, c.guildPath("commands"), body, &resp)
	return resp, err
}

// Schedule returns the current schedule. withTable asks for a text
// snapshot as well.
func (c *Client) Schedule(ctx context.Context, withTable bool) (Schedule, error) {
	endpoint := c.guildPath("schedule")
	if withTable {
		endpoint += "?table=true"
	}
	var resp Schedule
	err := c.do(ctx, http.MethodGet, endpoint, nil, &resp)
	return resp, err
}

// Events returns recent events.
func (c *Client) Events(ctx context.Context, limit int) ([]Event, error) {
	page, err := c.EventsPage(ctx, limit, "", "")
	return page.Items, err
}

// EventsPage returns a paginated event listing, optionally filtered by type.
func (c *Client) EventsPage(ctx context.Context, limit int, cursor, evtType string) (PaginatedEvents, error) {
	q := url.Values{}
	if limit > 0 {
		q.Set("limit", fmt.Sprint(limit))
	}
	if cursor != "" {
		q.Set("cursor", cursor)
	}
	if evtType != "" {
		q.Set("type", evtType)
	}
	endpoint := c.guildPath("events")
	if len(q) > 0 {
		endpoint += "?" + q.Encode()
	}
	var resp PaginatedEvents
	err := c.do(ctx, http.MethodGet, endpoint, nil, &resp)
	return resp, err
}

func (c *Client) do(ctx context.Context, method, endpoint string, body any, out any) error {
	if c.HTTPClient == nil {
		c.HTTPClient = &http.Client{Timeout: c.Timeout}
	}
	url := c.base() + "/" + strings.TrimLeft(endpoint, "/")
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			return err
		}
	}
	req, err := http.NewRequestWithContext(ctx, method, url, &buf)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.BearerToken != "" {
		req.Header.Set("Authorization", "Bearer "+c.BearerToken)
	}
	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		b, _ := io.ReadAll(resp.Body)
		apiErr := &APIError{StatusCode: resp.StatusCode, Body: string(b)}
		var env struct {
			Error struct {
				Code    string `json:"code"`
				Message string `json:"message"`
			} `json:"error"`
		}
		if json.Unmarshal(b, &env) == nil {
			apiErr.Code, apiErr.Message = env.Error.Code, env.Error.Message
		}
		return apiErr
	}
	if out != nil {
		return json.NewDecoder(resp.Body).Decode(out)
	}
	return nil
}

func (c *Client) guildPath(p string) string {
	guild := url.PathEscape(c.GuildID)
	return fmt.Sprintf("v0/guilds/%s/%s", guild, strings.TrimLeft(p, "/"))
}

func (c *Client) base() string {
	return strings.TrimRight(c.BaseURL, "/")
}
