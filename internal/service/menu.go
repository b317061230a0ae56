package service

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"

	"github.com/nikolayk812/canteen-client/internal/api"
	"github.com/nikolayk812/canteen-client/internal/domain"
	"golang.org/x/text/currency"
)

type Menus struct {
	client *api.Client
	unit   currency.Unit
}

func NewMenus(client *api.Client, unit currency.Unit) *Menus {
	return &Menus{client: client, unit: unit}
}

type menuItemLimitBody struct {
	ItemID      int64 `json:"itemId"`
	MinQuantity int   `json:"minQuantity"`
	MaxQuantity int   `json:"maxQuantity"`
}

type menuBody struct {
	MenuConfigurationID int64               `json:"menuConfigurationId"`
	CanteenID           int64               `json:"canteenId"`
	Description         string              `json:"description"`
	Items               []menuItemLimitBody `json:"items"`
}

func newMenuBody(f domain.MenuForm) (menuBody, error) {
	body := menuBody{
		MenuConfigurationID: f.MenuConfigurationID,
		CanteenID:           f.CanteenID,
		Description:         f.Description,
		Items:               make([]menuItemLimitBody, 0, len(f.Items)),
	}
	for _, it := range f.Items {
		if it.MinQuantity < 0 || (it.MaxQuantity > 0 && it.MinQuantity > it.MaxQuantity) {
			return menuBody{}, fmt.Errorf("item[%d]: min quantity %d exceeds max quantity %d", it.ItemID, it.MinQuantity, it.MaxQuantity)
		}
		body.Items = append(body.Items, menuItemLimitBody(it))
	}
	return body, nil
}

func (s *Menus) Create(ctx context.Context, form domain.MenuForm) error {
	body, err := newMenuBody(form)
	if err != nil {
		return err
	}
	if err := s.client.Post(ctx, "/menu/createMenuWithItems", body, nil); err != nil {
		return fmt.Errorf("client.Post[createMenuWithItems]: %w", err)
	}
	return nil
}

func (s *Menus) Update(ctx context.Context, menuID int64, form domain.MenuForm) error {
	body, err := newMenuBody(form)
	if err != nil {
		return err
	}
	path := "/menu/updateMenuWithItems/" + strconv.FormatInt(menuID, 10)
	if err := s.client.Post(ctx, path, body, nil); err != nil {
		return fmt.Errorf("client.Post[%s]: %w", path, err)
	}
	return nil
}

func (s *Menus) Delete(ctx context.Context, menuID int64) error {
	body := struct {
		MenuID int64 `json:"menuId"`
	}{MenuID: menuID}

	if err := s.client.Post(ctx, "/menu/deleteMenu", body, nil); err != nil {
		return fmt.Errorf("client.Post[deleteMenu]: %w", err)
	}
	return nil
}

func (s *Menus) List(ctx context.Context) ([]domain.Menu, error) {
	var dtos []menuDTO
	if err := s.client.Get(ctx, "/menu/getAllMenus", nil, &dtos); err != nil {
		return nil, fmt.Errorf("client.Get[getAllMenus]: %w", err)
	}
	return s.mapMenus(dtos)
}

// Get is the admin view of a menu.
func (s *Menus) Get(ctx context.Context, menuID int64) (domain.Menu, error) {
	return s.get(ctx, "/menu/"+strconv.FormatInt(menuID, 10), nil)
}

// GetForOrdering is the user view of a menu, with the item limits used by the cart.
func (s *Menus) GetForOrdering(ctx context.Context, menuID int64) (domain.Menu, error) {
	return s.get(ctx, "/menu/getMenuById", url.Values{"id": {strconv.FormatInt(menuID, 10)}})
}

func (s *Menus) get(ctx context.Context, path string, query url.Values) (domain.Menu, error) {
	var dto menuDTO
	if err := s.client.Get(ctx, path, query, &dto); err != nil {
		return domain.Menu{}, fmt.Errorf("client.Get[%s]: %w", path, err)
	}
	menu, err := mapMenuDTOToDomain(dto, s.unit)
	if err != nil {
		return domain.Menu{}, fmt.Errorf("mapMenuDTOToDomain: %w", err)
	}
	return menu, nil
}

// Upcoming lists the menus of the next two days, grouped by date and meal slot.
func (s *Menus) Upcoming(ctx context.Context, canteenID int64) (domain.UpcomingMenus, error) {
	const path = "/menu/getMenusForNextTwoDaysGroupedByDateAndConfiguration"

	var grouped map[string]map[string]json.RawMessage
	query := url.Values{"canteenId": {strconv.FormatInt(canteenID, 10)}}
	if err := s.client.Get(ctx, path, query, &grouped); err != nil {
		return nil, fmt.Errorf("client.Get[%s]: %w", path, err)
	}

	result := make(domain.UpcomingMenus, len(grouped))
	for date, slots := range grouped {
		result[date] = make(map[string][]domain.Menu, len(slots))
		for slot, raw := range slots {
			dtos, err := decodeMenuGroup(raw)
			if err != nil {
				return nil, fmt.Errorf("decodeMenuGroup[%s/%s]: %w", date, slot, err)
			}
			menus, err := s.mapMenus(dtos)
			if err != nil {
				return nil, err
			}
			result[date][slot] = menus
		}
	}
	return result, nil
}

// decodeMenuGroup accepts a single menu or a list of menus per slot.
func decodeMenuGroup(raw json.RawMessage) ([]menuDTO, error) {
	var many []menuDTO
	if err := json.Unmarshal(raw, &many); err == nil {
		return many, nil
	}
	var one menuDTO
	if err := json.Unmarshal(raw, &one); err != nil {
		return nil, err
	}
	return []menuDTO{one}, nil
}

func (s *Menus) mapMenus(dtos []menuDTO) ([]domain.Menu, error) {
	menus := make([]domain.Menu, 0, len(dtos))
	for _, dto := range dtos {
		menu, err := mapMenuDTOToDomain(dto, s.unit)
		if err != nil {
			return nil, fmt.Errorf("mapMenuDTOToDomain: %w", err)
		}
		menus = append(menus, menu)
	}
	return menus, nil
}
