package service

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
)

type backendItem struct {
	ID    int64
	Name  string
	Price decimal.Decimal
}

type backendLine struct {
	ID       int64
	Item     backendItem
	Quantity int
	MaxQty   int
}

// fakeBackend is an in-memory stand-in for the canteen cart endpoints.
type fakeBackend struct {
	t     *testing.T
	token string

	mu        sync.Mutex
	catalog   map[int64]backendItem
	maxQty    map[int64]int
	cartID    int64
	menuID    int64
	lines     []*backendLine
	nextLine  int64
	lastAdd   map[string]any
	calls     map[string]int
	failFetch bool
}

func newFakeBackend(t *testing.T, token string) (*fakeBackend, *httptest.Server) {
	t.Helper()

	b := &fakeBackend{
		t:       t,
		token:   token,
		catalog: make(map[int64]backendItem),
		maxQty:  make(map[int64]int),
		calls:   make(map[string]int),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /cart/getCart", b.getCart)
	mux.HandleFunc("POST /cart/add", b.add)
	mux.HandleFunc("POST /cart/updateCartItem", b.update)
	mux.HandleFunc("POST /cart/removeCartItem", b.remove)
	mux.HandleFunc("GET /cart/clearCart", b.clear)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b.mu.Lock()
		b.calls[r.URL.Path]++
		b.mu.Unlock()

		if r.Header.Get("Authorization") != b.token {
			writeJSON(w, http.StatusUnauthorized, map[string]any{"message": "invalid token"})
			return
		}
		mux.ServeHTTP(w, r)
	}))
	t.Cleanup(srv.Close)

	return b, srv
}

func (b *fakeBackend) stock(item backendItem, maxQty int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.catalog[item.ID] = item
	b.maxQty[item.ID] = maxQty
}

func (b *fakeBackend) callCount(path string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.calls[path]
}

func (b *fakeBackend) getCart(w http.ResponseWriter, _ *http.Request) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.failFetch {
		writeJSON(w, http.StatusInternalServerError, map[string]any{"message": "database unavailable"})
		return
	}
	if b.cartID == 0 {
		writeJSON(w, http.StatusOK, map[string]any{"data": nil})
		return
	}

	items := make([]map[string]any, 0, len(b.lines))
	for _, l := range b.lines {
		items = append(items, map[string]any{
			"id":          l.ID,
			"cartId":      b.cartID,
			"itemId":      l.Item.ID,
			"quantity":    l.Quantity,
			"maxQuantity": l.MaxQty,
			"price":       l.Item.Price,
			"total":       l.Item.Price.Mul(decimal.NewFromInt(int64(l.Quantity))),
			"item": map[string]any{
				"id":    l.Item.ID,
				"name":  l.Item.Name,
				"type":  "veg",
				"price": l.Item.Price,
			},
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{"data": map[string]any{"id": b.cartID, "cartItems": items}})
}

func (b *fakeBackend) add(w http.ResponseWriter, r *http.Request) {
	var body struct {
		ItemID   int64 `json:"itemId"`
		Quantity int   `json:"quantity"`
		MenuID   int64 `json:"menuId"`
	}
	raw := map[string]any{}
	if err := json.NewDecoder(r.Body).Decode(&raw); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"message": err.Error()})
		return
	}
	encoded, _ := json.Marshal(raw)
	_ = json.Unmarshal(encoded, &body)

	b.mu.Lock()
	defer b.mu.Unlock()
	b.lastAdd = raw

	item, ok := b.catalog[body.ItemID]
	if !ok {
		writeJSON(w, http.StatusOK, map[string]any{"errors": []string{"Item not available"}})
		return
	}
	if b.menuID != 0 && len(b.lines) > 0 && b.menuID != body.MenuID {
		writeJSON(w, http.StatusBadRequest, map[string]any{"message": "Menu is Different. Please select items from same menu"})
		return
	}
	if b.cartID == 0 {
		b.cartID = 100
	}
	b.menuID = body.MenuID

	for _, l := range b.lines {
		if l.Item.ID == body.ItemID {
			l.Quantity += body.Quantity
			writeJSON(w, http.StatusOK, map[string]any{"data": map[string]any{"id": l.ID}})
			return
		}
	}
	b.nextLine++
	b.lines = append(b.lines, &backendLine{ID: 500 + b.nextLine, Item: item, Quantity: body.Quantity, MaxQty: b.maxQty[body.ItemID]})
	writeJSON(w, http.StatusOK, map[string]any{"data": map[string]any{"id": 500 + b.nextLine}})
}

type lineBody struct {
	CartID     int64 `json:"cartId"`
	CartItemID int64 `json:"cartItemId"`
	Quantity   int   `json:"quantity"`
}

// findLine accepts either the cart line id or the catalog item id.
func (b *fakeBackend) findLine(id int64) int {
	for i, l := range b.lines {
		if l.ID == id || l.Item.ID == id {
			return i
		}
	}
	return -1
}

func (b *fakeBackend) update(w http.ResponseWriter, r *http.Request) {
	var body lineBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"message": err.Error()})
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	i := b.findLine(body.CartItemID)
	if i < 0 {
		writeJSON(w, http.StatusNotFound, map[string]any{"message": "Cart item not found"})
		return
	}
	if body.Quantity < 1 {
		writeJSON(w, http.StatusOK, map[string]any{"errors": []string{"Quantity must be at least 1"}})
		return
	}
	b.lines[i].Quantity = body.Quantity
	writeJSON(w, http.StatusOK, map[string]any{"data": map[string]any{"quantity": body.Quantity}})
}

func (b *fakeBackend) remove(w http.ResponseWriter, r *http.Request) {
	var body lineBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"message": err.Error()})
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	i := b.findLine(body.CartItemID)
	if i < 0 {
		writeJSON(w, http.StatusNotFound, map[string]any{"message": "Cart item not found"})
		return
	}
	b.lines = append(b.lines[:i], b.lines[i+1:]...)
	writeJSON(w, http.StatusOK, map[string]any{"message": "removed"})
}

func (b *fakeBackend) clear(w http.ResponseWriter, _ *http.Request) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.lines = nil
	b.menuID = 0
	writeJSON(w, http.StatusOK, map[string]any{"message": "cleared"})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
