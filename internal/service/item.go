package service

import (
	"context"
	"fmt"
	"strconv"

	"github.com/nikolayk812/canteen-client/internal/api"
	"github.com/nikolayk812/canteen-client/internal/domain"
	"golang.org/x/text/currency"
)

// Items wraps the canteen-admin catalog endpoints.
type Items struct {
	client *api.Client
	unit   currency.Unit
}

func NewItems(client *api.Client, unit currency.Unit) *Items {
	return &Items{client: client, unit: unit}
}

func (s *Items) List(ctx context.Context) ([]domain.Item, error) {
	return s.list(ctx, "/item/getItems")
}

func (s *Items) ListByCanteen(ctx context.Context, canteenID int64) ([]domain.Item, error) {
	return s.list(ctx, "/item/byCanteen/"+strconv.FormatInt(canteenID, 10))
}

func (s *Items) list(ctx context.Context, path string) ([]domain.Item, error) {
	var dtos []itemDTO
	if err := s.client.Get(ctx, path, nil, &dtos); err != nil {
		return nil, fmt.Errorf("client.Get[%s]: %w", path, err)
	}

	items := make([]domain.Item, 0, len(dtos))
	for _, dto := range dtos {
		item, err := mapItemDTOToDomain(dto, s.unit)
		if err != nil {
			return nil, fmt.Errorf("mapItemDTOToDomain: %w", err)
		}
		items = append(items, item)
	}
	return items, nil
}

func (s *Items) Get(ctx context.Context, itemID int64) (domain.Item, error) {
	path := "/item/" + strconv.FormatInt(itemID, 10)

	var dto itemDTO
	if err := s.client.Get(ctx, path, nil, &dto); err != nil {
		return domain.Item{}, fmt.Errorf("client.Get[%s]: %w", path, err)
	}
	return mapItemDTOToDomain(dto, s.unit)
}

func (s *Items) Create(ctx context.Context, form domain.ItemForm) error {
	if err := s.client.PostForm(ctx, "/item/createItem", itemForm(form), nil); err != nil {
		return fmt.Errorf("client.PostForm[createItem]: %w", err)
	}
	return nil
}

func (s *Items) Update(ctx context.Context, form domain.ItemForm) error {
	if form.ID == 0 {
		return fmt.Errorf("item id is required for update")
	}
	if err := s.client.PostForm(ctx, "/item/updateItem", itemForm(form), nil); err != nil {
		return fmt.Errorf("client.PostForm[updateItem]: %w", err)
	}
	return nil
}

func (s *Items) Delete(ctx context.Context, itemID int64) error {
	body := struct {
		ItemID int64 `json:"itemId"`
	}{ItemID: itemID}

	if err := s.client.Post(ctx, "/item/deleteItem", body, nil); err != nil {
		return fmt.Errorf("client.Post[deleteItem]: %w", err)
	}
	return nil
}

func itemForm(f domain.ItemForm) *api.Form {
	form := api.NewForm().
		Set("name", f.Name).
		Set("description", f.Description).
		Set("type", string(f.Type)).
		Set("quantityUnit", f.QuantityUnit).
		Set("startDate", f.StartDate).
		Set("endDate", f.EndDate).
		File("image", f.ImageName, f.Image)
	if f.ID != 0 {
		form.Set("itemId", strconv.FormatInt(f.ID, 10))
	}
	if f.Quantity > 0 {
		form.Set("quantity", strconv.Itoa(f.Quantity))
	}
	if !f.Price.Amount.IsZero() {
		form.Set("price", f.Price.Amount.String())
		form.Set("currency", f.Price.Currency.String())
	}
	return form
}
