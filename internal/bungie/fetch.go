package bungie

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strconv"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"raidline/internal/domain"
)

type member struct {
	Tag            string
	MembershipType int
	MembershipID   string
}

type character struct {
	member
	CharacterID string
}

type completion struct {
	Tag   string
	Kind  domain.Kind
	Count int
}

type membersResponse struct {
	Results []struct {
		DestinyUserInfo struct {
			DisplayName    string `json:"displayName"`
			MembershipType int    `json:"membershipType"`
			MembershipID   string `json:"membershipId"`
		} `json:"destinyUserInfo"`
	} `json:"results"`
}

type profileResponse struct {
	Characters struct {
		Data map[string]json.RawMessage `json:"data"`
	} `json:"characters"`
}

type statsResponse struct {
	Activities []struct {
		ActivityHash uint32 `json:"activityHash"`
		Values       struct {
			ActivityCompletions struct {
				Basic struct {
					Value float64 `json:"value"`
				} `json:"basic"`
			} `json:"activityCompletions"`
		} `json:"values"`
	} `json:"activities"`
}

// Fetch walks the clan watchlist: members, then their characters, then
// each character's aggregate activity stats. Completions are summed per
// player across characters. Every member appears in the table, with an
// empty history when nothing was found.
func (c *Client) Fetch(ctx context.Context) (domain.StatsTable, error) {
	log := c.logger()
	members, err := fanOut(ctx, c.Workers, c.Clans, c.clanMembers)
	if err != nil {
		return domain.StatsTable{}, err
	}
	members = dedupe(members)
	log.Info("fetched clan members", zap.Int("clans", len(c.Clans)), zap.Int("members", len(members)))

	chars, err := fanOut(ctx, c.Workers, members, c.characters)
	if err != nil {
		return domain.StatsTable{}, err
	}
	completions, err := fanOut(ctx, c.Workers, chars, c.completions)
	if err != nil {
		return domain.StatsTable{}, err
	}
	log.Info("fetched activity stats", zap.Int("characters", len(chars)))

	table := domain.StatsTable{Players: make(map[string]map[domain.Kind]int, len(members))}
	for _, m := range members {
		table.Players[m.Tag] = map[domain.Kind]int{}
	}
	for _, cp := range completions {
		table.Players[cp.Tag][cp.Kind] += cp.Count
	}
	return table, nil
}

func (c *Client) clanMembers(ctx context.Context, clanID string) ([]member, error) {
	var resp membersResponse
	if err := c.get(ctx, "/GroupV2/"+clanID+"/Members/", &resp); err != nil {
		return nil, fmt.Errorf("clan %s members: %w", clanID, err)
	}
	out := make([]member, 0, len(resp.Results))
	for _, r := range resp.Results {
		info := r.DestinyUserInfo
		if info.DisplayName == "" || info.MembershipID == "" {
			continue
		}
		out = append(out, member{Tag: info.DisplayName, MembershipType: info.MembershipType, MembershipID: info.MembershipID})
	}
	return out, nil
}

// characters lists the live characters of m. Deleted characters are not
// returned by the profile endpoint.
func (c *Client) characters(ctx context.Context, m member) ([]character, error) {
	var resp profileResponse
	path := fmt.Sprintf("/Destiny2/%d/Profile/%s/?components=Characters", m.MembershipType, m.MembershipID)
	if err := c.get(ctx, path, &resp); err != nil {
		return nil, fmt.Errorf("characters of %s: %w", m.Tag, err)
	}
	ids := make([]string, 0, len(resp.Characters.Data))
	for id := range resp.Characters.Data {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	out := make([]character, len(ids))
	for i, id := range ids {
		out[i] = character{member: m, CharacterID: id}
	}
	return out, nil
}

// completions reads one character's raid completions. A platform refusal
// (private profile, throttled account) counts as no completions.
func (c *Client) completions(ctx context.Context, ch character) ([]completion, error) {
	var resp statsResponse
	path := fmt.Sprintf("/Destiny2/%d/Account/%s/Character/%s/Stats/AggregateActivityStats/",
		ch.MembershipType, ch.MembershipID, ch.CharacterID)
	if err := c.get(ctx, path, &resp); err != nil {
		var apiErr *APIError
		if errors.As(err, &apiErr) && apiErr.Code > 1 && apiErr.StatusCode < 500 {
			c.logger().Warn("skipping character stats", zap.String("tag", ch.Tag), zap.String("character", ch.CharacterID), zap.Error(err))
			return nil, nil
		}
		return nil, fmt.Errorf("stats of %s/%s: %w", ch.Tag, ch.CharacterID, err)
	}
	var out []completion
	for _, a := range resp.Activities {
		kind, ok := KindOf(a.ActivityHash)
		if !ok {
			continue
		}
		n := int(a.Values.ActivityCompletions.Basic.Value)
		if n > 0 {
			out = append(out, completion{Tag: ch.Tag, Kind: kind, Count: n})
		}
	}
	return out, nil
}

// dedupe drops repeated memberships; a player listed in two watched clans
// is counted once.
func dedupe(members []member) []member {
	seen := make(map[string]bool, len(members))
	out := members[:0]
	for _, m := range members {
		key := strconv.Itoa(m.MembershipType) + "/" + m.MembershipID
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, m)
	}
	return out
}

// fanOut runs fn over items with at most workers calls in flight and
// concatenates the results in input order. The first failure cancels
// the rest.
func fanOut[T, R any](ctx context.Context, workers int, items []T, fn func(context.Context, T) ([]R, error)) ([]R, error) {
	if workers < 1 {
		workers = 1
	}
	results := make([][]R, len(items))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, item := range items {
		g.Go(func() error {
			res, err := fn(gctx, item)
			if err != nil {
				return err
			}
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	var out []R
	for _, r := range results {
		out = append(out, r...)
	}
	return out, nil
}
