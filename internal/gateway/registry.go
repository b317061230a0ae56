package gateway

import (
	"fmt"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/nikolayk812/canteen-client/internal/cartsync"
	"github.com/nikolayk812/canteen-client/internal/service"
	"github.com/nikolayk812/canteen-client/internal/state"
	"go.uber.org/zap"
)

// DefaultMaxSessions bounds the number of sessions whose Syncer is kept.
const DefaultMaxSessions = 10_000

// ServicesFunc builds the resource clients of one session.
type ServicesFunc func(sessionKey string) (*service.Services, error)

type sessionEntry struct {
	services *service.Services
	syncer   *cartsync.Syncer
}

// registry keeps one Syncer per session key so that line states survive
// between requests of the same session. The least recently used session is
// evicted past the size bound; its next request starts from a fresh fetch.
type registry struct {
	newServices ServicesFunc
	badge       *state.Store
	log         *zap.Logger

	mu      sync.Mutex
	entries *lru.Cache[string, *sessionEntry]
}

func newRegistry(newServices ServicesFunc, badge *state.Store, size int, log *zap.Logger) (*registry, error) {
	if size <= 0 {
		size = DefaultMaxSessions
	}
	entries, err := lru.NewWithEvict(size, func(key string, _ *sessionEntry) {
		log.Debug("session evicted", zap.String("session", key))
	})
	if err != nil {
		return nil, fmt.Errorf("lru.NewWithEvict: %w", err)
	}
	return &registry{
		newServices: newServices,
		badge:       badge,
		log:         log,
		entries:     entries,
	}, nil
}

func (r *registry) get(sessionKey string) (*sessionEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if e, ok := r.entries.Get(sessionKey); ok {
		return e, nil
	}

	svc, err := r.newServices(sessionKey)
	if err != nil {
		return nil, fmt.Errorf("newServices: %w", err)
	}
	e := &sessionEntry{
		services: svc,
		syncer:   cartsync.New(sessionKey, svc.Cart, r.badge, r.log),
	}
	r.entries.Add(sessionKey, e)
	return e, nil
}

func (r *registry) drop(sessionKey string) {
	r.entries.Remove(sessionKey)
}

// reset forgets the session's Syncer and badge, for a new token or a logout.
func (r *registry) reset(sessionKey string) {
	r.drop(sessionKey)
	r.badge.Forget(sessionKey)
}

func (r *registry) size() int {
	return r.entries.Len()
}
