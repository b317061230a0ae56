package gateway

import (
	"time"

	"github.com/nikolayk812/canteen-client/internal/domain"
)

type moneyView struct {
	Amount   string `json:"amount"`
	Currency string `json:"currency"`
}

func newMoneyView(m domain.Money) moneyView {
	return moneyView{Amount: m.Amount.StringFixed(2), Currency: m.Currency.String()}
}

type cartLineView struct {
	ItemID      int64     `json:"itemId"`
	CartItemID  int64     `json:"cartItemId"`
	Name        string    `json:"name"`
	Type        string    `json:"type,omitempty"`
	Quantity    int       `json:"quantity"`
	MaxQuantity int       `json:"maxQuantity"`
	Price       moneyView `json:"price"`
	Total       moneyView `json:"total"`
}

type cartView struct {
	ID       int64          `json:"id"`
	Count    int            `json:"count"`
	Items    []cartLineView `json:"items"`
	Subtotal moneyView      `json:"subtotal"`
}

func newCartView(c domain.Cart) cartView {
	v := cartView{
		ID:       c.ID,
		Count:    c.Count(),
		Items:    make([]cartLineView, 0, len(c.Items)),
		Subtotal: newMoneyView(c.Subtotal()),
	}
	for _, line := range c.Items {
		v.Items = append(v.Items, cartLineView{
			ItemID:      line.ItemID,
			CartItemID:  line.ID,
			Name:        line.Item.Name,
			Type:        string(line.Item.Type),
			Quantity:    line.Quantity,
			MaxQuantity: line.EffectiveMax(),
			Price:       newMoneyView(line.Price),
			Total:       newMoneyView(line.Total),
		})
	}
	return v
}

type menuItemView struct {
	ItemID      int64     `json:"itemId"`
	Name        string    `json:"name"`
	Type        string    `json:"type,omitempty"`
	Description string    `json:"description,omitempty"`
	Price       moneyView `json:"price"`
	MaxQuantity int       `json:"maxQuantity"`
	InCart      int       `json:"inCart"`
}

type menuView struct {
	ID                  int64          `json:"id"`
	Name                string         `json:"name"`
	CanteenID           int64          `json:"canteenId"`
	MenuConfigurationID int64          `json:"menuConfigurationId"`
	Description         string         `json:"description,omitempty"`
	StartTime           *time.Time     `json:"startTime,omitempty"`
	EndTime             *time.Time     `json:"endTime,omitempty"`
	Items               []menuItemView `json:"items"`
}

// newMenuView annotates every menu item with its quantity in cart.
func newMenuView(m domain.Menu, cart domain.Cart) menuView {
	v := menuView{
		ID:                  m.ID,
		Name:                m.Name,
		CanteenID:           m.CanteenID,
		MenuConfigurationID: m.MenuConfigurationID,
		Description:         m.Description,
		StartTime:           timePtr(m.StartTime),
		EndTime:             timePtr(m.EndTime),
		Items:               make([]menuItemView, 0, len(m.Items)),
	}
	for _, mi := range m.Items {
		var inCart int
		if line, ok := cart.FindByItemID(mi.ItemID); ok {
			inCart = line.Quantity
		}
		v.Items = append(v.Items, menuItemView{
			ItemID:      mi.ItemID,
			Name:        mi.Item.Name,
			Type:        string(mi.Item.Type),
			Description: mi.Item.Description,
			Price:       newMoneyView(mi.Item.Price),
			MaxQuantity: mi.EffectiveMax(),
			InCart:      inCart,
		})
	}
	return v
}

type orderView struct {
	ID          int64     `json:"id"`
	OrderNo     string    `json:"orderNo"`
	Status      string    `json:"status"`
	OrderDate   string    `json:"orderDate,omitempty"`
	CanteenName string    `json:"canteenName,omitempty"`
	Total       moneyView `json:"total"`
	QRCode      string    `json:"qrCode,omitempty"`
}

func newOrderViews(orders []domain.Order) []orderView {
	views := make([]orderView, 0, len(orders))
	for _, o := range orders {
		v := orderView{
			ID:          o.ID,
			OrderNo:     o.OrderNo,
			Status:      string(o.Status),
			CanteenName: o.CanteenName,
			Total:       newMoneyView(o.TotalAmount),
			QRCode:      o.QRCode,
		}
		if !o.OrderDate.IsZero() {
			v.OrderDate = o.OrderDate.Format(domain.DateLayout)
		}
		views = append(views, v)
	}
	return views
}

func timePtr(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}
