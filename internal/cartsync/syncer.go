// Package cartsync keeps one session's view of the remote cart and turns
// quantity gestures (add, +, -, remove, clear) into cart API calls.
//
// A Syncer loads the cart before its first gesture, so a fresh Syncer acts on
// the lines the backend already holds.
//
// Every fetch and every mutation takes a stamp from a monotonically increasing
// sequence. A line remembers the stamp of the last state written to it; a
// fetched snapshot older than that stamp never overwrites the line, and never
// brings back a line a newer mutation removed.
package cartsync

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"

	"github.com/nikolayk812/canteen-client/internal/domain"
	"github.com/nikolayk812/canteen-client/internal/port"
	"go.uber.org/zap"
)

const (
	NoticeMaxQuantity = "Maximum quantity reached"
	NoticeRemoved     = "Item removed from cart"
	NoticeCleared     = "Cart cleared"

	// CartRoute is where a cross-menu add sends the user.
	CartRoute = "/cart"
	// LandingRoute is where an unauthenticated session is sent.
	LandingRoute = "/"
)

// Result is what a screen needs after a gesture: the cart to render, plus an
// optional toast and navigation target.
type Result struct {
	Cart     domain.Cart
	Notice   string
	Redirect string
}

type lineState struct {
	busy    bool
	applied uint64
	removed bool
}

type Syncer struct {
	sessionKey string
	cart       port.CartService
	badge      port.CartCountPublisher
	log        *zap.Logger

	mu       sync.Mutex
	seq      uint64
	loaded   bool
	clearing bool
	cur      domain.Cart
	lines    map[int64]*lineState
	inflight map[uint64]struct{}

	// menu ceilings by item id, and the menus they were taken from
	limits map[int64]int
	menus  map[int64]struct{}
}

func New(sessionKey string, cart port.CartService, badge port.CartCountPublisher, log *zap.Logger) *Syncer {
	if log == nil {
		log = zap.NewNop()
	}
	return &Syncer{
		sessionKey: sessionKey,
		cart:       cart,
		badge:      badge,
		log:        log.With(zap.String("session", sessionKey)),
		lines:      make(map[int64]*lineState),
		inflight:   make(map[uint64]struct{}),
		limits:     make(map[int64]int),
		menus:      make(map[int64]struct{}),
	}
}

// NoteMenu records the per-item ceilings of a menu. A line's ceiling is the
// smaller of its menu ceiling and the one the cart reports.
func (s *Syncer) NoteMenu(m domain.Menu) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, mi := range m.Items {
		s.limits[mi.ItemID] = mi.EffectiveMax()
	}
	if m.ID != 0 {
		s.menus[m.ID] = struct{}{}
	}
}

// KnowsMenu reports whether NoteMenu has seen menuID.
func (s *Syncer) KnowsMenu(menuID int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.menus[menuID]
	return ok
}

// Ceiling is the largest quantity itemID may reach.
func (s *Syncer) Ceiling(itemID int64) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ceiling(itemID)
}

// Cart returns the last reconciled copy of the cart.
func (s *Syncer) Cart() domain.Cart {
	s.mu.Lock()
	defer s.mu.Unlock()
	return copyCart(s.cur)
}

// Quantity is the quantity of itemID in the cart, 0 when absent.
func (s *Syncer) Quantity(itemID int64) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if line, ok := s.cur.FindByItemID(itemID); ok {
		return line.Quantity
	}
	return 0
}

// Refresh fetches the cart. The badge is set to the line count on success and
// to 0 on any failure. A backend without a cart yet counts as an empty cart.
func (s *Syncer) Refresh(ctx context.Context) (Result, error) {
	s.mu.Lock()
	stamp := s.next()
	s.inflight[stamp] = struct{}{}
	s.mu.Unlock()

	fetched, err := s.cart.FetchCart(ctx)
	if errors.Is(err, domain.ErrNoCart) {
		fetched, err = domain.Cart{}, nil
	}
	if err != nil {
		s.mu.Lock()
		delete(s.inflight, stamp)
		s.mu.Unlock()

		s.publish(0)
		s.log.Warn("cart fetch failed", zap.Error(err))
		return s.failed(err), fmt.Errorf("cart.FetchCart: %w", err)
	}

	s.mu.Lock()
	s.merge(fetched, stamp)
	s.loaded = true
	cart := copyCart(s.cur)
	s.mu.Unlock()

	s.publish(cart.Count())
	return Result{Cart: cart}, nil
}

// Add puts req.Quantity units of an item in the cart and re-fetches it.
// The quantity is cut so that the line stays within its ceiling.
func (s *Syncer) Add(ctx context.Context, req domain.AddItemRequest) (Result, error) {
	if res, err := s.ensureLoaded(ctx); err != nil {
		return res, err
	}
	if req.Quantity < 1 {
		req.Quantity = 1
	}

	s.mu.Lock()
	var current int
	if line, ok := s.cur.FindByItemID(req.ItemID); ok {
		current = line.Quantity
	}
	limit := s.ceiling(req.ItemID)
	if current >= limit {
		res := Result{Cart: copyCart(s.cur), Notice: NoticeMaxQuantity}
		s.mu.Unlock()
		return res, domain.ErrMaxQuantity
	}
	var notice string
	if current+req.Quantity > limit {
		req.Quantity, notice = limit-current, NoticeMaxQuantity
	}
	ls, err := s.acquire(req.ItemID)
	if err != nil {
		s.mu.Unlock()
		return s.rejected(err), err
	}
	s.mu.Unlock()

	err = s.cart.AddItem(ctx, req)

	s.mu.Lock()
	ls.busy = false
	if err == nil {
		ls.applied = s.next()
		ls.removed = false
	}
	s.mu.Unlock()

	if err != nil {
		s.log.Info("add to cart failed", zap.Int64("item_id", req.ItemID), zap.Error(err))
		return s.failed(err), fmt.Errorf("cart.AddItem: %w", err)
	}

	res, err := s.Refresh(ctx)
	if err == nil && notice != "" {
		res.Notice = notice
	}
	return res, err
}

// Increment raises the item's quantity by one. An item not yet in the cart is
// added with quantity 1, which needs req.MenuID. At the line's ceiling
// nothing is sent.
func (s *Syncer) Increment(ctx context.Context, req domain.AddItemRequest) (Result, error) {
	if res, err := s.ensureLoaded(ctx); err != nil {
		return res, err
	}

	s.mu.Lock()
	line, ok := s.cur.FindByItemID(req.ItemID)
	limit := s.ceiling(req.ItemID)
	s.mu.Unlock()

	if !ok {
		if req.MenuID == 0 {
			return s.rejected(domain.ErrNoMenu), domain.ErrNoMenu
		}
		req.Quantity = 1
		return s.Add(ctx, req)
	}

	if line.Quantity >= limit {
		res := Result{Cart: s.Cart(), Notice: NoticeMaxQuantity}
		return res, domain.ErrMaxQuantity
	}

	return s.setQuantity(ctx, req.ItemID, line.Quantity+1)
}

// Decrement lowers the item's quantity by one. Going below 1 removes the line.
func (s *Syncer) Decrement(ctx context.Context, itemID int64) (Result, error) {
	if res, err := s.ensureLoaded(ctx); err != nil {
		return res, err
	}

	s.mu.Lock()
	line, ok := s.cur.FindByItemID(itemID)
	s.mu.Unlock()

	if !ok {
		return s.rejected(domain.ErrLineNotFound), domain.ErrLineNotFound
	}
	if line.Quantity <= 1 {
		return s.Remove(ctx, itemID)
	}

	return s.setQuantity(ctx, itemID, line.Quantity-1)
}

// SetQuantity sets an absolute quantity, clamped to the line's ceiling. Zero removes the line.
func (s *Syncer) SetQuantity(ctx context.Context, itemID int64, qty int) (Result, error) {
	if res, err := s.ensureLoaded(ctx); err != nil {
		return res, err
	}

	s.mu.Lock()
	line, ok := s.cur.FindByItemID(itemID)
	limit := s.ceiling(itemID)
	s.mu.Unlock()

	if !ok {
		return s.rejected(domain.ErrLineNotFound), domain.ErrLineNotFound
	}
	if qty <= 0 {
		return s.Remove(ctx, itemID)
	}

	var notice string
	if qty > limit {
		qty, notice = limit, NoticeMaxQuantity
	}
	if qty == line.Quantity {
		return Result{Cart: s.Cart(), Notice: notice}, nil
	}

	res, err := s.setQuantity(ctx, itemID, qty)
	if err == nil && notice != "" {
		res.Notice = notice
	}
	return res, err
}

func (s *Syncer) setQuantity(ctx context.Context, itemID int64, qty int) (Result, error) {
	s.mu.Lock()
	line, ok := s.cur.FindByItemID(itemID)
	if !ok {
		s.mu.Unlock()
		return s.rejected(domain.ErrLineNotFound), domain.ErrLineNotFound
	}
	ls, err := s.acquire(itemID)
	if err != nil {
		s.mu.Unlock()
		return s.rejected(err), err
	}
	stamp := s.next()
	s.mu.Unlock()

	err = s.cart.UpdateItemQuantity(ctx, s.cartID(line), line.ItemID, qty)

	s.mu.Lock()
	ls.busy = false
	if err != nil {
		s.mu.Unlock()
		s.log.Info("cart quantity update failed", zap.Int64("item_id", itemID), zap.Int("quantity", qty), zap.Error(err))
		return s.failed(err), fmt.Errorf("cart.UpdateItemQuantity: %w", err)
	}

	if stamp > ls.applied {
		ls.applied = s.next()
		s.replaceLine(itemID, func(ci domain.CartItem) domain.CartItem { return ci.WithQuantity(qty) })
	}
	cart := copyCart(s.cur)
	s.mu.Unlock()

	s.publish(cart.Count())
	return Result{Cart: cart}, nil
}

// Remove deletes the line and re-fetches the cart.
func (s *Syncer) Remove(ctx context.Context, itemID int64) (Result, error) {
	if res, err := s.ensureLoaded(ctx); err != nil {
		return res, err
	}

	s.mu.Lock()
	line, ok := s.cur.FindByItemID(itemID)
	if !ok {
		s.mu.Unlock()
		return s.rejected(domain.ErrLineNotFound), domain.ErrLineNotFound
	}
	ls, err := s.acquire(itemID)
	if err != nil {
		s.mu.Unlock()
		return s.rejected(err), err
	}
	s.mu.Unlock()

	err = s.cart.RemoveItem(ctx, s.cartID(line), line.ItemID)

	s.mu.Lock()
	ls.busy = false
	if err == nil {
		ls.applied = s.next()
		ls.removed = true
		s.dropLine(itemID)
	}
	s.mu.Unlock()

	if err != nil {
		s.log.Info("cart remove failed", zap.Int64("item_id", itemID), zap.Error(err))
		return s.failed(err), fmt.Errorf("cart.RemoveItem: %w", err)
	}

	res, err := s.Refresh(ctx)
	if err != nil {
		return res, err
	}
	res.Notice = NoticeRemoved
	return res, nil
}

// Clear empties the cart. The badge drops to 0 even if the re-fetch fails.
// While the clear is in flight every line counts as busy.
func (s *Syncer) Clear(ctx context.Context) (Result, error) {
	if res, err := s.ensureLoaded(ctx); err != nil {
		return res, err
	}

	s.mu.Lock()
	if s.clearing {
		s.mu.Unlock()
		return s.rejected(domain.ErrLineBusy), domain.ErrLineBusy
	}
	for itemID, ls := range s.lines {
		if ls.busy {
			s.mu.Unlock()
			s.log.Debug("clear rejected, line busy", zap.Int64("item_id", itemID))
			return s.rejected(domain.ErrLineBusy), domain.ErrLineBusy
		}
	}
	s.clearing = true
	s.mu.Unlock()

	err := s.cart.ClearCart(ctx)

	s.mu.Lock()
	s.clearing = false
	if err != nil {
		s.mu.Unlock()
		s.log.Info("cart clear failed", zap.Error(err))
		return s.failed(err), fmt.Errorf("cart.ClearCart: %w", err)
	}
	stamp := s.next()
	for _, line := range s.cur.Items {
		ls := s.state(line.ItemID)
		ls.applied = stamp
		ls.removed = true
	}
	s.cur.Items = nil
	s.mu.Unlock()

	res, err := s.Refresh(ctx)
	if err != nil {
		return res, err
	}
	res.Notice = NoticeCleared
	return res, nil
}

// merge applies a snapshot fetched at stamp. Callers hold s.mu.
func (s *Syncer) merge(fetched domain.Cart, stamp uint64) {
	delete(s.inflight, stamp)

	merged := domain.Cart{ID: fetched.ID}
	if merged.ID == 0 {
		merged.ID = s.cur.ID
	}
	seen := make(map[int64]bool, len(fetched.Items))

	for _, line := range fetched.Items {
		seen[line.ItemID] = true
		ls := s.lines[line.ItemID]
		if ls != nil && (ls.busy || ls.applied > stamp) {
			if ls.removed {
				continue
			}
			if local, ok := s.cur.FindByItemID(line.ItemID); ok {
				merged.Items = append(merged.Items, local)
				continue
			}
		}
		if line.Quantity < 1 {
			continue
		}
		merged.Items = append(merged.Items, line)
		s.state(line.ItemID).applied = stamp
		s.lines[line.ItemID].removed = false
	}

	// lines written after the snapshot was requested but missing from it
	for _, local := range s.cur.Items {
		if seen[local.ItemID] {
			continue
		}
		ls := s.lines[local.ItemID]
		if ls != nil && !ls.removed && (ls.busy || ls.applied > stamp) {
			merged.Items = append(merged.Items, local)
		}
	}

	// a state may only go once no older fetch can still arrive
	oldest := s.oldestFetch()
	for itemID, ls := range s.lines {
		if !ls.busy && ls.applied <= stamp && ls.applied < oldest && !seen[itemID] {
			delete(s.lines, itemID)
		}
	}

	s.cur = merged
}

// acquire marks the line busy. Callers hold s.mu.
func (s *Syncer) acquire(itemID int64) (*lineState, error) {
	if s.clearing {
		return nil, domain.ErrLineBusy
	}
	ls := s.state(itemID)
	if ls.busy {
		return nil, domain.ErrLineBusy
	}
	ls.busy = true
	return ls, nil
}

// ceiling is the smaller of the line's cart ceiling and its menu ceiling.
// Callers hold s.mu.
func (s *Syncer) ceiling(itemID int64) int {
	limit := domain.DefaultMaxQuantity
	if line, ok := s.cur.FindByItemID(itemID); ok {
		limit = line.EffectiveMax()
	}
	if menuLimit, ok := s.limits[itemID]; ok && menuLimit < limit {
		limit = menuLimit
	}
	return limit
}

// ensureLoaded fetches the cart once before the first gesture.
func (s *Syncer) ensureLoaded(ctx context.Context) (Result, error) {
	s.mu.Lock()
	loaded := s.loaded
	s.mu.Unlock()
	if loaded {
		return Result{}, nil
	}
	return s.Refresh(ctx)
}

func (s *Syncer) state(itemID int64) *lineState {
	ls, ok := s.lines[itemID]
	if !ok {
		ls = &lineState{}
		s.lines[itemID] = ls
	}
	return ls
}

// oldestFetch is the stamp of the oldest fetch still outstanding. Callers hold s.mu.
func (s *Syncer) oldestFetch() uint64 {
	oldest := uint64(math.MaxUint64)
	for stamp := range s.inflight {
		oldest = min(oldest, stamp)
	}
	return oldest
}

func (s *Syncer) next() uint64 {
	s.seq++
	return s.seq
}

func (s *Syncer) replaceLine(itemID int64, fn func(domain.CartItem) domain.CartItem) {
	for i, line := range s.cur.Items {
		if line.ItemID == itemID {
			s.cur.Items[i] = fn(line)
			return
		}
	}
}

func (s *Syncer) dropLine(itemID int64) {
	items := s.cur.Items[:0:0]
	for _, line := range s.cur.Items {
		if line.ItemID != itemID {
			items = append(items, line)
		}
	}
	s.cur.Items = items
}

func (s *Syncer) cartID(line domain.CartItem) int64 {
	if line.CartID != 0 {
		return line.CartID
	}
	return s.cur.ID
}

func (s *Syncer) publish(n int) {
	if s.badge != nil {
		s.badge.SetCartCount(s.sessionKey, n)
	}
}

// failed builds the result of a call the backend did not accept. Local state is untouched.
func (s *Syncer) failed(err error) Result {
	res := Result{Cart: s.Cart()}

	outcome := domain.OutcomeOf(err)
	switch {
	case errors.Is(err, domain.ErrMenuMismatch):
		res.Notice, res.Redirect = outcome.Reason, CartRoute
	case outcome.Kind == domain.OutcomeUnauthenticated:
		res.Redirect = LandingRoute
	case outcome.Kind == domain.OutcomeRejected:
		res.Notice = outcome.Reason
	default:
		res.Notice = "Something went wrong, please try again"
	}
	return res
}

func (s *Syncer) rejected(err error) Result {
	return Result{Cart: s.Cart(), Notice: domain.OutcomeOf(err).Reason}
}

func copyCart(c domain.Cart) domain.Cart {
	out := domain.Cart{ID: c.ID}
	if len(c.Items) > 0 {
		out.Items = append([]domain.CartItem(nil), c.Items...)
	}
	return out
}
