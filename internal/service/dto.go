package service

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/nikolayk812/canteen-client/internal/domain"
	"github.com/shopspring/decimal"
	"golang.org/x/text/currency"
)

// flexID accepts ids sent either as JSON numbers or as numeric strings.
type flexID int64

func (id *flexID) UnmarshalJSON(b []byte) error {
	b = bytes.Trim(bytes.TrimSpace(b), `"`)
	if len(b) == 0 || string(b) == "null" {
		*id = 0
		return nil
	}
	n, err := strconv.ParseInt(string(b), 10, 64)
	if err != nil {
		return fmt.Errorf("id[%s] is not numeric: %w", b, err)
	}
	*id = flexID(n)
	return nil
}

// unixTime accepts epoch seconds, epoch milliseconds or RFC3339 strings.
type unixTime time.Time

func (t *unixTime) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || string(b) == "null" || string(b) == `""` {
		*t = unixTime{}
		return nil
	}

	if b[0] == '"' {
		s := strings.Trim(string(b), `"`)
		if n, err := strconv.ParseInt(s, 10, 64); err == nil {
			*t = unixTime(fromEpoch(n))
			return nil
		}
		for _, layout := range []string{time.RFC3339, domain.DateLayout} {
			if parsed, err := time.Parse(layout, s); err == nil {
				*t = unixTime(parsed)
				return nil
			}
		}
		return fmt.Errorf("time[%s] is not valid", s)
	}

	n, err := strconv.ParseFloat(string(b), 64)
	if err != nil {
		return fmt.Errorf("time[%s] is not valid: %w", b, err)
	}
	*t = unixTime(fromEpoch(int64(n)))
	return nil
}

func fromEpoch(n int64) time.Time {
	// anything past year 2286 in seconds is taken to be milliseconds
	if n > 9_999_999_999 {
		return time.UnixMilli(n).UTC()
	}
	return time.Unix(n, 0).UTC()
}

func parseCurrency(code string, fallback currency.Unit) (currency.Unit, error) {
	if code == "" {
		return fallback, nil
	}
	unit, err := currency.ParseISO(strings.ToUpper(code))
	if err != nil {
		return currency.Unit{}, fmt.Errorf("currency[%s] is not valid: %w", code, err)
	}
	return unit, nil
}

type pricingDTO struct {
	ID       flexID          `json:"id"`
	Price    decimal.Decimal `json:"price"`
	Currency string          `json:"currency"`
}

type itemDTO struct {
	ID           flexID              `json:"id"`
	Name         string              `json:"name"`
	Type         string              `json:"type"`
	Description  string              `json:"description"`
	Image        string              `json:"image"`
	Quantity     int                 `json:"quantity"`
	QuantityUnit string              `json:"quantityUnit"`
	Price        decimal.NullDecimal `json:"price"`
	Currency     string              `json:"currency"`
	Pricing      *pricingDTO         `json:"pricing"`
	Status       string              `json:"status"`
	StartDate    string              `json:"startDate"`
	EndDate      string              `json:"endDate"`
}

type cartItemDTO struct {
	ID          flexID              `json:"id"`
	CartID      flexID              `json:"cartId"`
	ItemID      flexID              `json:"itemId"`
	Quantity    int                 `json:"quantity"`
	MaxQuantity int                 `json:"maxQuantity"`
	Price       decimal.Decimal     `json:"price"`
	Total       decimal.NullDecimal `json:"total"`
	Item        itemDTO             `json:"item"`
}

type cartDTO struct {
	ID        flexID        `json:"id"`
	CartItems []cartItemDTO `json:"cartItems"`
}

type canteenDTO struct {
	ID           flexID `json:"id"`
	Name         string `json:"name"`
	CanteenName  string `json:"canteenName"`
	Code         string `json:"code"`
	CanteenCode  string `json:"canteenCode"`
	Location     string `json:"location"`
	Image        string `json:"image"`
	CanteenImage string `json:"canteenImage"`
}

type menuConfigurationDTO struct {
	ID               flexID          `json:"id"`
	Name             string          `json:"name"`
	DefaultStartTime json.RawMessage `json:"defaultStartTime"`
	DefaultEndTime   json.RawMessage `json:"defaultEndTime"`
	Status           string          `json:"status"`
}

type menuItemDTO struct {
	ID          flexID  `json:"id"`
	MenuID      flexID  `json:"menuId"`
	ItemID      flexID  `json:"itemId"`
	MinQuantity int     `json:"minQuantity"`
	MaxQuantity int     `json:"maxQuantity"`
	Status      string  `json:"status"`
	Item        itemDTO `json:"item"`
}

type menuDTO struct {
	ID                  flexID                `json:"id"`
	Name                string                `json:"name"`
	CanteenID           flexID                `json:"canteenId"`
	MenuConfigurationID flexID                `json:"menuConfigurationId"`
	Description         string                `json:"description"`
	StartTime           unixTime              `json:"startTime"`
	EndTime             unixTime              `json:"endTime"`
	MenuConfiguration   *menuConfigurationDTO `json:"menuConfiguration"`
	MenuItems           []menuItemDTO         `json:"menuItems"`
}

type orderItemDTO struct {
	ID           flexID          `json:"id"`
	ItemID       flexID          `json:"itemId"`
	Quantity     int             `json:"quantity"`
	Price        decimal.Decimal `json:"price"`
	Total        decimal.Decimal `json:"total"`
	MenuItemItem struct {
		ID   flexID `json:"id"`
		Name string `json:"name"`
	} `json:"menuItemItem"`
}

type paymentDTO struct {
	ID            flexID          `json:"id"`
	Amount        decimal.Decimal `json:"amount"`
	Status        string          `json:"status"`
	PaymentMethod string          `json:"paymentMethod"`
}

type orderDTO struct {
	ID                  flexID          `json:"id"`
	OrderNo             string          `json:"orderNo"`
	Status              string          `json:"status"`
	OrderDate           unixTime        `json:"orderDate"`
	TotalAmount         decimal.Decimal `json:"totalAmount"`
	CanteenID           flexID          `json:"canteenId"`
	MenuConfigurationID flexID          `json:"menuConfigurationId"`
	QRCode              string          `json:"qrCode"`
	OrderCanteen        *canteenDTO     `json:"orderCanteen"`
	OrderItems          []orderItemDTO  `json:"orderItems"`
	Payment             []paymentDTO    `json:"payment"`
}

func mapItemDTOToDomain(dto itemDTO, fallback currency.Unit) (domain.Item, error) {
	amount := dto.Price.Decimal
	code := dto.Currency
	if dto.Pricing != nil {
		amount = dto.Pricing.Price
		if dto.Pricing.Currency != "" {
			code = dto.Pricing.Currency
		}
	}

	unit, err := parseCurrency(code, fallback)
	if err != nil {
		return domain.Item{}, err
	}

	return domain.Item{
		ID:           int64(dto.ID),
		Name:         dto.Name,
		Type:         domain.ItemType(strings.ToLower(dto.Type)),
		Description:  dto.Description,
		Image:        dto.Image,
		Price:        domain.NewMoney(amount, unit),
		QuantityUnit: dto.QuantityUnit,
		Quantity:     dto.Quantity,
		Status:       dto.Status,
		StartDate:    dto.StartDate,
		EndDate:      dto.EndDate,
	}, nil
}

func mapCartDTOToDomain(dto cartDTO, fallback currency.Unit) (domain.Cart, error) {
	cart := domain.Cart{ID: int64(dto.ID)}

	for _, row := range dto.CartItems {
		item, err := mapItemDTOToDomain(row.Item, fallback)
		if err != nil {
			return domain.Cart{}, fmt.Errorf("mapItemDTOToDomain: %w", err)
		}

		price := domain.NewMoney(row.Price, item.Price.Currency)
		total := price.Mul(row.Quantity)
		if row.Total.Valid {
			total = domain.NewMoney(row.Total.Decimal, item.Price.Currency)
		}

		itemID := int64(row.ItemID)
		if itemID == 0 {
			itemID = item.ID
		}
		cartID := int64(row.CartID)
		if cartID == 0 {
			cartID = cart.ID
		}

		cart.Items = append(cart.Items, domain.CartItem{
			ID:          int64(row.ID),
			CartID:      cartID,
			ItemID:      itemID,
			Item:        item,
			Quantity:    row.Quantity,
			MaxQuantity: row.MaxQuantity,
			Price:       price,
			Total:       total,
		})
	}

	return cart, nil
}

func mapCanteenDTOToDomain(dto canteenDTO) domain.Canteen {
	return domain.Canteen{
		ID:       int64(dto.ID),
		Name:     firstNonEmpty(dto.Name, dto.CanteenName),
		Code:     firstNonEmpty(dto.Code, dto.CanteenCode),
		Location: dto.Location,
		Image:    firstNonEmpty(dto.Image, dto.CanteenImage),
	}
}

func mapMenuConfigurationDTOToDomain(dto menuConfigurationDTO) domain.MenuConfiguration {
	return domain.MenuConfiguration{
		ID:               int64(dto.ID),
		Name:             dto.Name,
		DefaultStartTime: rawScalar(dto.DefaultStartTime),
		DefaultEndTime:   rawScalar(dto.DefaultEndTime),
		Status:           dto.Status,
	}
}

func mapMenuDTOToDomain(dto menuDTO, fallback currency.Unit) (domain.Menu, error) {
	menu := domain.Menu{
		ID:                  int64(dto.ID),
		Name:                dto.Name,
		CanteenID:           int64(dto.CanteenID),
		MenuConfigurationID: int64(dto.MenuConfigurationID),
		Description:         dto.Description,
		StartTime:           time.Time(dto.StartTime),
		EndTime:             time.Time(dto.EndTime),
	}
	if dto.MenuConfiguration != nil {
		menu.Configuration = mapMenuConfigurationDTOToDomain(*dto.MenuConfiguration)
		if menu.MenuConfigurationID == 0 {
			menu.MenuConfigurationID = menu.Configuration.ID
		}
		if menu.Name == "" {
			menu.Name = menu.Configuration.Name
		}
	}

	for _, row := range dto.MenuItems {
		item, err := mapItemDTOToDomain(row.Item, fallback)
		if err != nil {
			return domain.Menu{}, fmt.Errorf("mapItemDTOToDomain: %w", err)
		}

		menuID := int64(row.MenuID)
		if menuID == 0 {
			menuID = menu.ID
		}
		itemID := int64(row.ItemID)
		if itemID == 0 {
			itemID = item.ID
		}

		menu.Items = append(menu.Items, domain.MenuItem{
			ID:          int64(row.ID),
			MenuID:      menuID,
			ItemID:      itemID,
			MinQuantity: row.MinQuantity,
			MaxQuantity: row.MaxQuantity,
			Status:      row.Status,
			Item:        item,
		})
	}

	return menu, nil
}

func mapOrderDTOToDomain(dto orderDTO, unit currency.Unit) domain.Order {
	order := domain.Order{
		ID:                  int64(dto.ID),
		OrderNo:             dto.OrderNo,
		Status:              domain.OrderStatus(strings.ToLower(dto.Status)),
		OrderDate:           time.Time(dto.OrderDate),
		TotalAmount:         domain.NewMoney(dto.TotalAmount, unit),
		CanteenID:           int64(dto.CanteenID),
		MenuConfigurationID: int64(dto.MenuConfigurationID),
		QRCode:              dto.QRCode,
	}
	if dto.OrderCanteen != nil {
		c := mapCanteenDTOToDomain(*dto.OrderCanteen)
		order.CanteenName = c.Name
		if order.CanteenID == 0 {
			order.CanteenID = c.ID
		}
	}

	for _, row := range dto.OrderItems {
		order.Items = append(order.Items, domain.OrderItem{
			ID:       int64(row.ID),
			ItemID:   int64(row.ItemID),
			Name:     row.MenuItemItem.Name,
			Quantity: row.Quantity,
			Price:    domain.NewMoney(row.Price, unit),
			Total:    domain.NewMoney(row.Total, unit),
		})
	}
	for _, row := range dto.Payment {
		order.Payments = append(order.Payments, domain.Payment{
			ID:     int64(row.ID),
			Amount: domain.NewMoney(row.Amount, unit),
			Status: row.Status,
			Method: row.PaymentMethod,
		})
	}

	return order
}

// rawScalar renders a JSON string or number as plain text.
func rawScalar(raw json.RawMessage) string {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	trimmed := strings.TrimSpace(string(raw))
	if trimmed == "null" {
		return ""
	}
	return trimmed
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
