package service

import (
	"context"
	"fmt"

	"github.com/nikolayk812/canteen-client/internal/domain"
	"github.com/nikolayk812/canteen-client/internal/port"
)

// PreferenceReader gives the cart facade the session's selected canteen and date.
type PreferenceReader interface {
	Preferences(ctx context.Context) (domain.Preferences, error)
}

// Scope binds a preference store to one session key.
type Scope struct {
	store port.PreferenceStore
	key   string
}

func NewScope(store port.PreferenceStore, sessionKey string) Scope {
	return Scope{store: store, key: sessionKey}
}

func (s Scope) Key() string {
	return s.key
}

func (s Scope) Preferences(ctx context.Context) (domain.Preferences, error) {
	prefs, err := s.store.Get(ctx, s.key)
	if err != nil {
		return domain.Preferences{}, fmt.Errorf("store.Get: %w", err)
	}
	return prefs, nil
}

// Token satisfies api.TokenSource.
func (s Scope) Token(ctx context.Context) (string, error) {
	prefs, err := s.Preferences(ctx)
	if err != nil {
		return "", err
	}
	return prefs.Token, nil
}
