package gateway

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/nikolayk812/canteen-client/internal/domain"
	"github.com/nikolayk812/canteen-client/internal/session"
	"go.uber.org/zap"
)

const cookieMaxAge = 30 * 24 * 60 * 60

type createSessionRequest struct {
	Token string `json:"token" binding:"required"`
}

type selectCanteenRequest struct {
	CanteenID int64 `json:"canteenId" binding:"required,gt=0"`
}

type selectDateRequest struct {
	Date string `json:"date" binding:"required"`
}

// createSession stores a token issued by the backend's login flow.
func (s *Server) createSession(c *gin.Context) {
	var req createSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response{Error: err.Error()})
		return
	}
	if err := session.Check(req.Token, s.guard.Now()); err != nil {
		c.JSON(http.StatusUnauthorized, response{Error: err.Error(), Redirect: session.LandingRoute})
		return
	}

	key := readSessionKey(c)
	if _, err := uuid.Parse(key); err != nil {
		key = uuid.NewString()
	}
	// a new token starts from the backend's cart, not the previous login's
	s.sessions.reset(key)

	if _, err := s.store.Update(c.Request.Context(), key, func(p *domain.Preferences) error {
		p.Token = req.Token
		return nil
	}); err != nil {
		s.log.Error("store token failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, response{Error: err.Error()})
		return
	}

	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(cookieSession, key, cookieMaxAge, "/", "", false, true)
	c.JSON(http.StatusCreated, response{Data: gin.H{"session": key}})
}

func (s *Server) deleteSession(c *gin.Context) {
	key := readSessionKey(c)
	if key != "" {
		if _, err := s.store.Delete(c.Request.Context(), key); err != nil {
			s.log.Error("delete session failed", zap.Error(err))
			c.JSON(http.StatusInternalServerError, response{Error: err.Error()})
			return
		}
		s.sessions.reset(key)
	}

	c.SetCookie(cookieSession, "", -1, "/", "", false, true)
	c.JSON(http.StatusOK, response{Redirect: session.LandingRoute})
}

func (s *Server) selectCanteen(c *gin.Context) {
	var req selectCanteenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response{Error: err.Error()})
		return
	}
	s.updatePreferences(c, func(p *domain.Preferences) error {
		p.CanteenID = req.CanteenID
		return nil
	})
}

func (s *Server) selectDate(c *gin.Context) {
	var req selectDateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response{Error: err.Error()})
		return
	}
	date, err := domain.ParseOrderDate(req.Date)
	if err != nil {
		c.JSON(http.StatusBadRequest, response{Error: "date must look like 2006-01-02"})
		return
	}
	s.updatePreferences(c, func(p *domain.Preferences) error {
		p.SelectedDate = date
		return nil
	})
}

func (s *Server) updatePreferences(c *gin.Context, fn func(*domain.Preferences) error) {
	prefs, err := s.store.Update(c.Request.Context(), sessionKey(c), fn)
	if err != nil {
		s.log.Error("update preferences failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, response{Error: err.Error()})
		return
	}
	c.JSON(http.StatusOK, response{Data: gin.H{
		"canteenId": prefs.CanteenID,
		"date":      prefs.OrderDate(),
	}})
}
