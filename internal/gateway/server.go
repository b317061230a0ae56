// Package gateway serves the ordering screens as JSON endpoints. Each browser
// session is identified by the sid cookie (or the X-Session-ID header) and
// keeps its token and selections in a preference store.
package gateway

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/nikolayk812/canteen-client/internal/cartsync"
	"github.com/nikolayk812/canteen-client/internal/domain"
	"github.com/nikolayk812/canteen-client/internal/port"
	"github.com/nikolayk812/canteen-client/internal/session"
	"github.com/nikolayk812/canteen-client/internal/state"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

const (
	cookieSession = "sid"
	headerSession = "X-Session-ID"
	ctxSession    = "sessionKey"
)

type Config struct {
	Store    port.PreferenceStore
	Badge    *state.Store
	Guard    *session.Guard
	Services ServicesFunc
	Log      *zap.Logger
	// Registry defaults to a fresh prometheus registry.
	Registry *prometheus.Registry
	// MaxSessions defaults to DefaultMaxSessions.
	MaxSessions int
}

type Server struct {
	store    port.PreferenceStore
	badge    *state.Store
	guard    *session.Guard
	sessions *registry
	metrics  *metrics
	log      *zap.Logger
	engine   *gin.Engine
}

func New(cfg Config) (*Server, error) {
	if cfg.Log == nil {
		cfg.Log = zap.NewNop()
	}
	if cfg.Badge == nil {
		cfg.Badge = state.NewStore()
	}
	if cfg.Guard == nil {
		cfg.Guard = session.NewGuard(cfg.Store, nil, cfg.Log)
	}
	if cfg.Registry == nil {
		cfg.Registry = prometheus.NewRegistry()
	}

	sessions, err := newRegistry(cfg.Services, cfg.Badge, cfg.MaxSessions, cfg.Log)
	if err != nil {
		return nil, fmt.Errorf("newRegistry: %w", err)
	}

	s := &Server{
		store:    cfg.Store,
		badge:    cfg.Badge,
		guard:    cfg.Guard,
		sessions: sessions,
		metrics:  newMetrics(cfg.Registry),
		log:      cfg.Log,
	}

	r := gin.New()
	r.Use(gin.Recovery(), s.metrics.middleware())
	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(cfg.Registry, promhttp.HandlerOpts{})))

	r.POST("/session", s.createSession)
	r.DELETE("/session", s.deleteSession)
	r.PUT("/session/canteen", s.requireSession, s.selectCanteen)
	r.PUT("/session/date", s.requireSession, s.selectDate)

	guarded := r.Group("/")
	guarded.Use(s.requireSession, s.dropRejected, s.guard.Middleware(sessionKey))
	{
		guarded.GET("/cart", s.getCart)
		guarded.DELETE("/cart", s.clearCart)
		guarded.POST("/cart/items", s.addItem)
		guarded.PUT("/cart/items/:itemId", s.setQuantity)
		guarded.POST("/cart/items/:itemId/increment", s.increment)
		guarded.POST("/cart/items/:itemId/decrement", s.decrement)
		guarded.DELETE("/cart/items/:itemId", s.removeItem)

		guarded.GET("/menus/upcoming", s.upcomingMenus)
		guarded.GET("/menus/:id", s.getMenu)
		guarded.GET("/canteens", s.listCanteens)
		guarded.GET("/orders", s.listOrders)
		guarded.POST("/orders/:id/cancel", s.cancelOrder)
		guarded.GET("/wallet", s.wallet)

		guarded.GET("/ws/cart-count", s.cartCountWS)
	}

	s.engine = r
	return s, nil
}

func (s *Server) Handler() http.Handler {
	return s.engine
}

func sessionKey(c *gin.Context) string {
	return c.GetString(ctxSession)
}

// readSessionKey prefers the header so non-browser clients can skip cookies.
func readSessionKey(c *gin.Context) string {
	if key := c.GetHeader(headerSession); key != "" {
		return key
	}
	key, err := c.Cookie(cookieSession)
	if err != nil {
		return ""
	}
	return key
}

func (s *Server) requireSession(c *gin.Context) {
	key := readSessionKey(c)
	if _, err := uuid.Parse(key); err != nil {
		c.AbortWithStatusJSON(http.StatusUnauthorized, response{Error: "no session", Redirect: session.LandingRoute})
		return
	}
	c.Set(ctxSession, key)
	c.Next()
}

// dropRejected forgets the Syncer of a session answered with 401, so a
// cleared token leaves nothing behind in the registry.
func (s *Server) dropRejected(c *gin.Context) {
	c.Next()
	if c.Writer.Status() == http.StatusUnauthorized {
		s.sessions.drop(sessionKey(c))
	}
}

func (s *Server) entry(c *gin.Context) (*sessionEntry, bool) {
	e, err := s.sessions.get(sessionKey(c))
	if err != nil {
		s.log.Error("session setup failed", zap.Error(err))
		c.AbortWithStatusJSON(http.StatusInternalServerError, response{Error: err.Error()})
		return nil, false
	}
	return e, true
}

type response struct {
	Data     any    `json:"data,omitempty"`
	Notice   string `json:"notice,omitempty"`
	Redirect string `json:"redirect,omitempty"`
	Error    string `json:"error,omitempty"`
}

// statusOf maps an error to the HTTP status the screens expect.
func statusOf(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, domain.ErrLineBusy), errors.Is(err, domain.ErrMenuMismatch):
		return http.StatusConflict
	case errors.Is(err, domain.ErrLineNotFound):
		return http.StatusNotFound
	}

	switch domain.OutcomeOf(err).Kind {
	case domain.OutcomeUnauthenticated:
		return http.StatusUnauthorized
	case domain.OutcomeRejected:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusBadGateway
	}
}

func (s *Server) fail(c *gin.Context, err error, notice, redirect string) {
	if errors.Is(err, domain.ErrUnauthenticated) && redirect == "" {
		redirect = session.LandingRoute
	}
	c.JSON(statusOf(err), response{Error: err.Error(), Notice: notice, Redirect: redirect})
}

// respondCart writes a cart result and counts its outcome.
func (s *Server) respondCart(c *gin.Context, op string, res cartsync.Result, err error) {
	s.metrics.outcomes.WithLabelValues(op, domain.OutcomeOf(err).Kind.String()).Inc()

	if err != nil {
		c.JSON(statusOf(err), response{Data: newCartView(res.Cart), Notice: res.Notice, Redirect: res.Redirect, Error: err.Error()})
		return
	}
	c.JSON(http.StatusOK, response{Data: newCartView(res.Cart), Notice: res.Notice, Redirect: res.Redirect})
}
