// Package auth mints and checks the bearer tokens chat bridges use
// against the HTTP API.
package auth

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const (
	PermCommand = "guild.command"
	PermRead    = "guild.read"
)

// ForbiddenError indicates a missing permission or guild grant.
type ForbiddenError struct {
	Permission string
	GuildID    string
}

func (e ForbiddenError) Error() string {
	if e.GuildID != "" {
		return fmt.Sprintf("permission %s required on guild %s", e.Permission, e.GuildID)
	}
	return fmt.Sprintf("permission %s required", e.Permission)
}

// Principal is an authenticated caller. An empty Guilds list grants
// every guild.
type Principal struct {
	ActorID     string
	Guilds      []string
	Permissions []string
}

// Allows returns a ForbiddenError unless p holds perm on guildID.
func (p Principal) Allows(guildID, perm string) error {
	if !slices.Contains(p.Permissions, perm) {
		return ForbiddenError{Permission: perm}
	}
	if len(p.Guilds) > 0 && !slices.Contains(p.Guilds, guildID) {
		return ForbiddenError{Permission: perm, GuildID: guildID}
	}
	return nil
}

type claims struct {
	jwt.RegisteredClaims
	Guilds      []string `json:"guilds,omitempty"`
	Permissions []string `json:"permissions,omitempty"`
}

// Sign mints an HS256 token for p. A zero ttl yields a token that does
// not expire.
func Sign(secret string, p Principal, ttl time.Duration, now time.Time) (string, error) {
	if strings.TrimSpace(secret) == "" {
		return "", errors.New("jwt secret not configured")
	}
	if p.ActorID == "" {
		return "", errors.New("subject required")
	}
	c := claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:  p.ActorID,
			IssuedAt: jwt.NewNumericDate(now),
		},
		Guilds:      p.Guilds,
		Permissions: p.Permissions,
	}
	if ttl > 0 {
		c.ExpiresAt = jwt.NewNumericDate(now.Add(ttl))
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, c).SignedString([]byte(secret))
}

// Verify parses an HS256 token and returns its principal.
func Verify(secret, token string) (Principal, error) {
	if strings.TrimSpace(secret) == "" {
		return Principal{}, errors.New("jwt secret not configured")
	}
	parser := jwt.NewParser(jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	c := &claims{}
	parsed, err := parser.ParseWithClaims(token, c, func(t *jwt.Token) (any, error) {
		return []byte(secret), nil
	})
	if err != nil {
		return Principal{}, err
	}
	if !parsed.Valid {
		return Principal{}, errors.New("invalid token")
	}
	if c.Subject == "" {
		return Principal{}, errors.New("subject claim required")
	}
	return Principal{ActorID: c.Subject, Guilds: c.Guilds, Permissions: c.Permissions}, nil
}
