// Package session decides whether a stored token can still be used.
//
// The token is decoded without checking its signature; the backend remains
// the authority and answers 401 to a forged one. The local check only spares
// a round trip for a token that has visibly expired.
package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/golang-jwt/jwt/v5"
	"github.com/nikolayk812/canteen-client/internal/domain"
	"github.com/nikolayk812/canteen-client/internal/port"
	"go.uber.org/zap"
)

// LandingRoute is where an invalid session is sent.
const LandingRoute = "/"

var (
	errNoToken = errors.New("no token")
	errNoExp   = errors.New("token has no exp claim")
	errExpired = errors.New("token expired")
)

// Expiry returns the exp claim of token, or an error when the token cannot be
// decoded or carries no expiry.
func Expiry(token string) (time.Time, error) {
	if token == "" {
		return time.Time{}, errNoToken
	}

	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return time.Time{}, fmt.Errorf("jwt.ParseUnverified: %w", err)
	}

	exp, err := claims.GetExpirationTime()
	if err != nil {
		return time.Time{}, fmt.Errorf("claims.GetExpirationTime: %w", err)
	}
	if exp == nil {
		return time.Time{}, errNoExp
	}
	return exp.Time, nil
}

// Check reports why token is unusable at now, or nil when it is usable.
func Check(token string, now time.Time) error {
	exp, err := Expiry(token)
	if err != nil {
		return err
	}
	if !exp.After(now) {
		return fmt.Errorf("%w at %s", errExpired, exp.UTC().Format(time.RFC3339))
	}
	return nil
}

// Valid is Check as a predicate.
func Valid(token string, now time.Time) bool {
	return Check(token, now) == nil
}

// Decision is the result of guarding a screen.
type Decision struct {
	Allowed  bool
	Redirect string
	Reason   string
}

type Guard struct {
	store port.PreferenceStore
	clock clock.Clock
	log   *zap.Logger
}

func NewGuard(store port.PreferenceStore, clk clock.Clock, log *zap.Logger) *Guard {
	if clk == nil {
		clk = clock.New()
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Guard{store: store, clock: clk, log: log}
}

// Check loads the session's token and, when it is missing or expired, removes
// it from storage and redirects to the landing route. Canteen and date
// selections are kept.
func (g *Guard) Check(ctx context.Context, sessionKey string) (Decision, error) {
	prefs, err := g.store.Get(ctx, sessionKey)
	if err != nil {
		return Decision{}, fmt.Errorf("store.Get: %w", err)
	}

	reason := Check(prefs.Token, g.clock.Now())
	if reason == nil {
		return Decision{Allowed: true}, nil
	}

	if prefs.HasToken() {
		g.log.Info("session token rejected", zap.String("session", sessionKey), zap.Error(reason))
		if _, err := g.store.Update(ctx, sessionKey, func(p *domain.Preferences) error {
			p.Token = ""
			return nil
		}); err != nil {
			return Decision{}, fmt.Errorf("store.Update: %w", err)
		}
	}

	return Decision{Redirect: LandingRoute, Reason: reason.Error()}, nil
}

// Now is the guard's current time.
func (g *Guard) Now() time.Time {
	return g.clock.Now()
}
