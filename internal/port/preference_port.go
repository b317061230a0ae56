package port

import (
	"context"

	"github.com/nikolayk812/canteen-client/internal/domain"
)

// PreferenceStore persists per-session preferences. Get on an unknown
// session returns zero Preferences and no error.
type PreferenceStore interface {
	Get(ctx context.Context, sessionKey string) (domain.Preferences, error)
	Update(ctx context.Context, sessionKey string, fn func(*domain.Preferences) error) (domain.Preferences, error)
	Delete(ctx context.Context, sessionKey string) (bool, error)
}
