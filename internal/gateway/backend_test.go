package gateway

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
)

type remoteLine struct {
	ItemID   int64   `json:"itemId"`
	Quantity int     `json:"quantity"`
	MaxQty   int     `json:"maxQuantity"`
	Price    float64 `json:"price"`
	Name     string  `json:"-"`
}

// remote is a minimal canteen backend: one cart, one menu, a couple of orders.
type remote struct {
	mu        sync.Mutex
	token     string
	hasCart   bool
	menuID    int64
	lines     []*remoteLine
	cancelled []int64
	addQty    []int

	// omitMax leaves maxQuantity out of cart lines, as the live backend does
	omitMax bool
}

func (r *remote) quantity(itemID int64) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, l := range r.lines {
		if l.ItemID == itemID {
			return l.Quantity
		}
	}
	return 0
}

func (r *remote) adds() []int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]int(nil), r.addQty...)
}

var remoteMenu = map[string]any{
	"id":                  1,
	"canteenId":           3,
	"menuConfigurationId": 2,
	"menuConfiguration":   map[string]any{"id": 2, "name": "Lunch"},
	"menuItems": []map[string]any{
		{"id": 11, "itemId": 5, "maxQuantity": 2, "item": map[string]any{"id": 5, "name": "Veg Thali", "type": "veg", "price": "80"}},
		{"id": 12, "itemId": 6, "maxQuantity": 0, "item": map[string]any{"id": 6, "name": "Lassi", "type": "veg", "price": "30"}},
	},
}

var remotePrices = map[int64]float64{5: 80, 6: 30}
var remoteLimits = map[int64]int{5: 2, 6: 10}

func startRemote(t *testing.T, token string) (*remote, *httptest.Server) {
	t.Helper()

	r := &remote{token: token}
	mux := http.NewServeMux()

	mux.HandleFunc("GET /cart/getCart", func(w http.ResponseWriter, _ *http.Request) {
		r.mu.Lock()
		defer r.mu.Unlock()
		if !r.hasCart {
			replyJSON(w, http.StatusOK, map[string]any{"data": nil})
			return
		}
		items := make([]map[string]any, 0, len(r.lines))
		for _, l := range r.lines {
			line := map[string]any{
				"id": 900 + l.ItemID, "cartId": 1, "itemId": l.ItemID, "quantity": l.Quantity,
				"price": l.Price, "total": l.Price * float64(l.Quantity),
				"item": map[string]any{"id": l.ItemID, "name": l.Name},
			}
			if !r.omitMax {
				line["maxQuantity"] = l.MaxQty
			}
			items = append(items, line)
		}
		replyJSON(w, http.StatusOK, map[string]any{"data": map[string]any{"id": 1, "cartItems": items}})
	})

	mux.HandleFunc("POST /cart/add", func(w http.ResponseWriter, req *http.Request) {
		var body struct {
			ItemID    int64 `json:"itemId"`
			MenuID    int64 `json:"menuId"`
			Quantity  int   `json:"quantity"`
			CanteenID int64 `json:"canteenId"`
		}
		_ = json.NewDecoder(req.Body).Decode(&body)

		r.mu.Lock()
		defer r.mu.Unlock()
		if len(r.lines) > 0 && r.menuID != body.MenuID {
			replyJSON(w, http.StatusBadRequest, map[string]any{"message": "Menu is Different. Please select items from same menu"})
			return
		}
		r.hasCart, r.menuID = true, body.MenuID
		r.addQty = append(r.addQty, body.Quantity)
		for _, l := range r.lines {
			if l.ItemID == body.ItemID {
				l.Quantity += body.Quantity
				replyJSON(w, http.StatusOK, map[string]any{"message": "added"})
				return
			}
		}
		r.lines = append(r.lines, &remoteLine{ItemID: body.ItemID, Quantity: body.Quantity, MaxQty: remoteLimits[body.ItemID], Price: remotePrices[body.ItemID], Name: "item"})
		replyJSON(w, http.StatusOK, map[string]any{"message": "added"})
	})

	mux.HandleFunc("POST /cart/updateCartItem", func(w http.ResponseWriter, req *http.Request) {
		var body struct {
			CartItemID int64 `json:"cartItemId"`
			Quantity   int   `json:"quantity"`
		}
		_ = json.NewDecoder(req.Body).Decode(&body)

		r.mu.Lock()
		defer r.mu.Unlock()
		for _, l := range r.lines {
			if l.ItemID == body.CartItemID {
				l.Quantity = body.Quantity
				replyJSON(w, http.StatusOK, map[string]any{"message": "updated"})
				return
			}
		}
		replyJSON(w, http.StatusNotFound, map[string]any{"message": "Cart item not found"})
	})

	mux.HandleFunc("POST /cart/removeCartItem", func(w http.ResponseWriter, req *http.Request) {
		var body struct {
			CartItemID int64 `json:"cartItemId"`
		}
		_ = json.NewDecoder(req.Body).Decode(&body)

		r.mu.Lock()
		defer r.mu.Unlock()
		for i, l := range r.lines {
			if l.ItemID == body.CartItemID {
				r.lines = append(r.lines[:i], r.lines[i+1:]...)
				replyJSON(w, http.StatusOK, map[string]any{"message": "removed"})
				return
			}
		}
		replyJSON(w, http.StatusNotFound, map[string]any{"message": "Cart item not found"})
	})

	mux.HandleFunc("GET /cart/clearCart", func(w http.ResponseWriter, _ *http.Request) {
		r.mu.Lock()
		defer r.mu.Unlock()
		r.lines = nil
		replyJSON(w, http.StatusOK, map[string]any{"message": "cleared"})
	})

	mux.HandleFunc("GET /menu/getMenuById", func(w http.ResponseWriter, req *http.Request) {
		if req.URL.Query().Get("id") != "1" {
			replyJSON(w, http.StatusNotFound, map[string]any{"message": "Menu not found"})
			return
		}
		replyJSON(w, http.StatusOK, map[string]any{"data": remoteMenu})
	})

	mux.HandleFunc("GET /menu/getMenusForNextTwoDaysGroupedByDateAndConfiguration", func(w http.ResponseWriter, _ *http.Request) {
		replyJSON(w, http.StatusOK, map[string]any{"data": map[string]any{"2026-10-15": map[string]any{"Lunch": []any{remoteMenu}}}})
	})

	mux.HandleFunc("GET /user/getAllCanteens", func(w http.ResponseWriter, _ *http.Request) {
		replyJSON(w, http.StatusOK, map[string]any{"data": []map[string]any{{"id": 3, "canteenName": "North Block"}}})
	})

	mux.HandleFunc("GET /order/listOrders", func(w http.ResponseWriter, _ *http.Request) {
		replyJSON(w, http.StatusOK, map[string]any{"data": []map[string]any{{"id": 41, "orderNo": "ORD-41", "status": "placed", "totalAmount": "110"}}})
	})

	mux.HandleFunc("POST /order/cancelOrder", func(w http.ResponseWriter, req *http.Request) {
		var body struct {
			OrderID int64 `json:"orderId"`
		}
		_ = json.NewDecoder(req.Body).Decode(&body)
		if body.OrderID != 41 {
			replyJSON(w, http.StatusBadRequest, map[string]any{"message": "Order cannot be cancelled"})
			return
		}
		r.mu.Lock()
		r.cancelled = append(r.cancelled, body.OrderID)
		r.mu.Unlock()
		replyJSON(w, http.StatusOK, map[string]any{"message": "cancelled"})
	})

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		if req.Header.Get("Authorization") != r.token {
			replyJSON(w, http.StatusUnauthorized, map[string]any{"message": "jwt expired"})
			return
		}
		mux.ServeHTTP(w, req)
	}))
	t.Cleanup(srv.Close)
	return r, srv
}

func replyJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
