package port

import (
	"context"

	"github.com/nikolayk812/canteen-client/internal/domain"
)

// CartService is the remote cart as seen by one session.
type CartService interface {
	FetchCart(ctx context.Context) (domain.Cart, error)
	AddItem(ctx context.Context, req domain.AddItemRequest) error
	UpdateItemQuantity(ctx context.Context, cartID, cartItemID int64, quantity int) error
	RemoveItem(ctx context.Context, cartID, cartItemID int64) error
	ClearCart(ctx context.Context) error
}

// CartCountPublisher receives the badge count after every cart fetch.
type CartCountPublisher interface {
	SetCartCount(sessionKey string, count int)
}
