package gateway

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/nikolayk812/canteen-client/internal/cartsync"
	"github.com/nikolayk812/canteen-client/internal/domain"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// getMenu loads the menu and the cart concurrently. A failed cart load shows
// the menu with nothing in cart and a zero badge.
func (s *Server) getMenu(c *gin.Context) {
	menuID, ok := idParam(c, "id")
	if !ok {
		return
	}
	e, ok := s.entry(c)
	if !ok {
		return
	}

	var (
		menu    domain.Menu
		cartRes cartsync.Result
		cartErr error
	)
	g, ctx := errgroup.WithContext(c.Request.Context())
	g.Go(func() error {
		var err error
		menu, err = e.services.Menus.GetForOrdering(ctx, menuID)
		return err
	})
	g.Go(func() error {
		// detached from ctx so a menu failure does not count as a cart failure
		cartRes, cartErr = e.syncer.Refresh(context.WithoutCancel(ctx))
		return nil
	})
	if err := g.Wait(); err != nil {
		s.fail(c, err, "", "")
		return
	}

	e.syncer.NoteMenu(menu)

	var notice string
	if cartErr != nil {
		s.log.Warn("menu shown without cart", zap.Int64("menu_id", menuID), zap.Error(cartErr))
		notice = cartRes.Notice
	}
	c.JSON(http.StatusOK, response{Data: gin.H{
		"menu":      newMenuView(menu, cartRes.Cart),
		"cartCount": cartRes.Cart.Count(),
	}, Notice: notice})
}

// learnMenu loads the ceilings of menuID into the session's Syncer when it
// has not seen that menu yet. A failed load leaves the cart ceilings in force.
func (s *Server) learnMenu(ctx context.Context, e *sessionEntry, menuID int64) {
	if menuID <= 0 || e.syncer.KnowsMenu(menuID) {
		return
	}
	menu, err := e.services.Menus.GetForOrdering(ctx, menuID)
	if err != nil {
		s.log.Info("menu ceilings unavailable", zap.Int64("menu_id", menuID), zap.Error(err))
		return
	}
	e.syncer.NoteMenu(menu)
}

func (s *Server) upcomingMenus(c *gin.Context) {
	e, ok := s.entry(c)
	if !ok {
		return
	}
	prefs, err := e.services.Scope.Preferences(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, response{Error: err.Error()})
		return
	}
	if !prefs.HasCanteen() {
		c.JSON(http.StatusConflict, response{Error: domain.ErrNoCanteenSelected.Error(), Redirect: "/canteens"})
		return
	}

	upcoming, err := e.services.Menus.Upcoming(c.Request.Context(), prefs.CanteenID)
	if err != nil {
		s.fail(c, err, "", "")
		return
	}

	views := make(map[string]map[string][]menuView, len(upcoming))
	for date, slots := range upcoming {
		views[date] = make(map[string][]menuView, len(slots))
		for slot, menus := range slots {
			for _, m := range menus {
				views[date][slot] = append(views[date][slot], newMenuView(m, domain.Cart{}))
			}
		}
	}
	c.JSON(http.StatusOK, response{Data: views})
}

func (s *Server) listCanteens(c *gin.Context) {
	e, ok := s.entry(c)
	if !ok {
		return
	}
	canteens, err := e.services.Canteens.ListForUser(c.Request.Context())
	if err != nil {
		s.fail(c, err, "", "")
		return
	}
	c.JSON(http.StatusOK, response{Data: canteens})
}

func (s *Server) listOrders(c *gin.Context) {
	e, ok := s.entry(c)
	if !ok {
		return
	}
	orders, err := e.services.Orders.List(c.Request.Context())
	if err != nil {
		s.fail(c, err, "", "")
		return
	}
	c.JSON(http.StatusOK, response{Data: newOrderViews(orders)})
}

func (s *Server) cancelOrder(c *gin.Context) {
	orderID, ok := idParam(c, "id")
	if !ok {
		return
	}
	e, ok := s.entry(c)
	if !ok {
		return
	}
	if err := e.services.Orders.Cancel(c.Request.Context(), orderID); err != nil {
		s.fail(c, err, domain.OutcomeOf(err).Reason, "")
		return
	}
	c.JSON(http.StatusOK, response{Notice: fmt.Sprintf("Order %d cancelled", orderID)})
}

func (s *Server) wallet(c *gin.Context) {
	e, ok := s.entry(c)
	if !ok {
		return
	}

	var (
		balance domain.WalletBalance
		txs     []domain.WalletTransaction
	)
	g, ctx := errgroup.WithContext(c.Request.Context())
	g.Go(func() error {
		var err error
		balance, err = e.services.Account.WalletBalance(ctx)
		return err
	})
	g.Go(func() error {
		var err error
		txs, err = e.services.Account.WalletTransactions(ctx)
		return err
	})
	if err := g.Wait(); err != nil {
		s.fail(c, err, "", "")
		return
	}

	rows := make([]gin.H, 0, len(txs))
	for _, tx := range txs {
		row := gin.H{"type": tx.Type, "amount": newMoneyView(tx.Amount), "reference": tx.Reference}
		if !tx.Date.IsZero() {
			row["date"] = tx.Date.Format(domain.DateLayout)
		}
		rows = append(rows, row)
	}
	c.JSON(http.StatusOK, response{Data: gin.H{"balance": newMoneyView(balance.Balance), "transactions": rows}})
}
