package service

import (
	"context"
	"fmt"

	"github.com/nikolayk812/canteen-client/internal/api"
	"github.com/nikolayk812/canteen-client/internal/domain"
	"github.com/nikolayk812/canteen-client/internal/port"
	"golang.org/x/text/currency"
)

const (
	pathGetCart        = "/cart/getCart"
	pathAddToCart      = "/cart/add"
	pathUpdateCartItem = "/cart/updateCartItem"
	pathRemoveCartItem = "/cart/removeCartItem"
	pathClearCart      = "/cart/clearCart"
)

type cartService struct {
	client *api.Client
	prefs  PreferenceReader
	unit   currency.Unit
}

// NewCart returns the cart facade. It validates nothing about quantities;
// callers clamp before calling.
func NewCart(client *api.Client, prefs PreferenceReader, unit currency.Unit) port.CartService {
	return &cartService{client: client, prefs: prefs, unit: unit}
}

type addItemBody struct {
	ItemID              int64  `json:"itemId"`
	Quantity            int    `json:"quantity"`
	MenuID              int64  `json:"menuId"`
	CanteenID           int64  `json:"canteenId"`
	MenuConfigurationID int64  `json:"menuConfigurationId"`
	OrderDate           string `json:"orderDate"`
}

type updateCartItemBody struct {
	CartID     int64 `json:"cartId"`
	CartItemID int64 `json:"cartItemId"`
	Quantity   int   `json:"quantity"`
}

type removeCartItemBody struct {
	CartID     int64 `json:"cartId"`
	CartItemID int64 `json:"cartItemId"`
}

func (s *cartService) FetchCart(ctx context.Context) (domain.Cart, error) {
	var dto *cartDTO
	if err := s.client.Get(ctx, pathGetCart, nil, &dto); err != nil {
		return domain.Cart{}, fmt.Errorf("client.Get[%s]: %w", pathGetCart, err)
	}
	if dto == nil {
		return domain.Cart{}, domain.ErrNoCart
	}

	cart, err := mapCartDTOToDomain(*dto, s.unit)
	if err != nil {
		return domain.Cart{}, fmt.Errorf("mapCartDTOToDomain: %w", err)
	}

	return cart, nil
}

func (s *cartService) AddItem(ctx context.Context, req domain.AddItemRequest) error {
	prefs, err := s.prefs.Preferences(ctx)
	if err != nil {
		return fmt.Errorf("prefs.Preferences: %w", err)
	}
	if !prefs.HasToken() {
		return domain.ErrUnauthenticated
	}
	if !prefs.HasCanteen() {
		return domain.ErrNoCanteenSelected
	}
	if !prefs.HasDate() {
		return domain.ErrNoDateSelected
	}

	body := addItemBody{
		ItemID:              req.ItemID,
		Quantity:            req.Quantity,
		MenuID:              req.MenuID,
		CanteenID:           prefs.CanteenID,
		MenuConfigurationID: req.MenuConfigurationID,
		OrderDate:           prefs.OrderDate(),
	}

	if err := s.client.Post(ctx, pathAddToCart, body, nil); err != nil {
		return fmt.Errorf("client.Post[%s]: %w", pathAddToCart, err)
	}

	return nil
}

func (s *cartService) UpdateItemQuantity(ctx context.Context, cartID, cartItemID int64, quantity int) error {
	body := updateCartItemBody{CartID: cartID, CartItemID: cartItemID, Quantity: quantity}

	if err := s.client.Post(ctx, pathUpdateCartItem, body, nil); err != nil {
		return fmt.Errorf("client.Post[%s]: %w", pathUpdateCartItem, err)
	}

	return nil
}

func (s *cartService) RemoveItem(ctx context.Context, cartID, cartItemID int64) error {
	body := removeCartItemBody{CartID: cartID, CartItemID: cartItemID}

	if err := s.client.Post(ctx, pathRemoveCartItem, body, nil); err != nil {
		return fmt.Errorf("client.Post[%s]: %w", pathRemoveCartItem, err)
	}

	return nil
}

func (s *cartService) ClearCart(ctx context.Context) error {
	if err := s.client.Get(ctx, pathClearCart, nil, nil); err != nil {
		return fmt.Errorf("client.Get[%s]: %w", pathClearCart, err)
	}

	return nil
}
