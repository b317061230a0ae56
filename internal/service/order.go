package service

import (
	"context"
	"fmt"

	"github.com/nikolayk812/canteen-client/internal/api"
	"github.com/nikolayk812/canteen-client/internal/domain"
	"golang.org/x/text/currency"
)

type Orders struct {
	client *api.Client
	unit   currency.Unit
}

func NewOrders(client *api.Client, unit currency.Unit) *Orders {
	return &Orders{client: client, unit: unit}
}

func (s *Orders) List(ctx context.Context) ([]domain.Order, error) {
	var dtos []orderDTO
	if err := s.client.Get(ctx, "/order/listOrders", nil, &dtos); err != nil {
		return nil, fmt.Errorf("client.Get[listOrders]: %w", err)
	}
	return mapOrders(dtos, s.unit), nil
}

// Cancel asks the backend to cancel an order; whether it is still cancellable is decided there.
func (s *Orders) Cancel(ctx context.Context, orderID int64) error {
	body := struct {
		OrderID int64 `json:"orderId"`
	}{OrderID: orderID}

	if err := s.client.Post(ctx, "/order/cancelOrder", body, nil); err != nil {
		return fmt.Errorf("client.Post[cancelOrder]: %w", err)
	}
	return nil
}

func mapOrders(dtos []orderDTO, unit currency.Unit) []domain.Order {
	orders := make([]domain.Order, 0, len(dtos))
	for _, dto := range dtos {
		orders = append(orders, mapOrderDTOToDomain(dto, unit))
	}
	return orders
}
