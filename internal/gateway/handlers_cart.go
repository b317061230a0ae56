package gateway

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/nikolayk812/canteen-client/internal/domain"
)

type addItemRequest struct {
	ItemID              int64 `json:"itemId" binding:"required,gt=0"`
	MenuID              int64 `json:"menuId" binding:"required,gt=0"`
	MenuConfigurationID int64 `json:"menuConfigurationId"`
	Quantity            int   `json:"quantity"`
}

// menuRef identifies the menu an increment may have to add from.
type menuRef struct {
	MenuID              int64 `json:"menuId"`
	MenuConfigurationID int64 `json:"menuConfigurationId"`
}

type setQuantityRequest struct {
	Quantity *int `json:"quantity" binding:"required"`
}

func (s *Server) getCart(c *gin.Context) {
	e, ok := s.entry(c)
	if !ok {
		return
	}
	res, err := e.syncer.Refresh(c.Request.Context())
	s.respondCart(c, "fetch", res, err)
}

func (s *Server) addItem(c *gin.Context) {
	var req addItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response{Error: err.Error()})
		return
	}
	e, ok := s.entry(c)
	if !ok {
		return
	}

	s.learnMenu(c.Request.Context(), e, req.MenuID)
	res, err := e.syncer.Add(c.Request.Context(), domain.AddItemRequest{
		ItemID:              req.ItemID,
		MenuID:              req.MenuID,
		MenuConfigurationID: req.MenuConfigurationID,
		Quantity:            req.Quantity,
	})
	s.respondCart(c, "add", res, err)
}

func (s *Server) increment(c *gin.Context) {
	itemID, ok := itemIDParam(c)
	if !ok {
		return
	}
	var ref menuRef
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&ref); err != nil {
			c.JSON(http.StatusBadRequest, response{Error: err.Error()})
			return
		}
	}
	e, ok := s.entry(c)
	if !ok {
		return
	}

	s.learnMenu(c.Request.Context(), e, ref.MenuID)
	res, err := e.syncer.Increment(c.Request.Context(), domain.AddItemRequest{
		ItemID:              itemID,
		MenuID:              ref.MenuID,
		MenuConfigurationID: ref.MenuConfigurationID,
		Quantity:            1,
	})
	s.respondCart(c, "increment", res, err)
}

func (s *Server) decrement(c *gin.Context) {
	itemID, ok := itemIDParam(c)
	if !ok {
		return
	}
	e, ok := s.entry(c)
	if !ok {
		return
	}
	res, err := e.syncer.Decrement(c.Request.Context(), itemID)
	s.respondCart(c, "decrement", res, err)
}

func (s *Server) setQuantity(c *gin.Context) {
	itemID, ok := itemIDParam(c)
	if !ok {
		return
	}
	var req setQuantityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response{Error: err.Error()})
		return
	}
	e, ok := s.entry(c)
	if !ok {
		return
	}
	res, err := e.syncer.SetQuantity(c.Request.Context(), itemID, *req.Quantity)
	s.respondCart(c, "set_quantity", res, err)
}

func (s *Server) removeItem(c *gin.Context) {
	itemID, ok := itemIDParam(c)
	if !ok {
		return
	}
	e, ok := s.entry(c)
	if !ok {
		return
	}
	res, err := e.syncer.Remove(c.Request.Context(), itemID)
	s.respondCart(c, "remove", res, err)
}

func (s *Server) clearCart(c *gin.Context) {
	e, ok := s.entry(c)
	if !ok {
		return
	}
	res, err := e.syncer.Clear(c.Request.Context())
	s.respondCart(c, "clear", res, err)
}

func itemIDParam(c *gin.Context) (int64, bool) {
	return idParam(c, "itemId")
}

func idParam(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, response{Error: name + " must be a positive integer"})
		return 0, false
	}
	return id, true
}
