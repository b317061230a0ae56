package domain

// Cart is the session's server-owned cart. At most one menu contributes items to it.
type Cart struct {
	ID    int64
	Items []CartItem
}

type CartItem struct {
	ID          int64
	CartID      int64
	ItemID      int64
	Item        Item
	Quantity    int
	MaxQuantity int
	Price       Money
	Total       Money
}

// Count is the number of lines, which is what the cart badge shows.
func (c Cart) Count() int {
	return len(c.Items)
}

func (c Cart) Empty() bool {
	return len(c.Items) == 0
}

func (c Cart) Subtotal() Money {
	total := Money{Currency: DefaultCurrency}
	for i, item := range c.Items {
		if i == 0 {
			total.Currency = item.Total.Currency
		}
		total = total.Add(item.Total)
	}
	return total
}

// FindByItemID returns the line holding the catalog item, if any.
func (c Cart) FindByItemID(itemID int64) (CartItem, bool) {
	for _, item := range c.Items {
		if item.ItemID == itemID || item.Item.ID == itemID {
			return item, true
		}
	}
	return CartItem{}, false
}

// EffectiveMax falls back to DefaultMaxQuantity when the backend sent no ceiling.
func (ci CartItem) EffectiveMax() int {
	if ci.MaxQuantity <= 0 {
		return DefaultMaxQuantity
	}
	return ci.MaxQuantity
}

// WithQuantity returns a copy of the line at qty with its total recomputed.
func (ci CartItem) WithQuantity(qty int) CartItem {
	ci.Quantity = qty
	ci.Total = ci.Price.Mul(qty)
	return ci
}

// AddItemRequest is the payload of an add-to-cart call.
type AddItemRequest struct {
	ItemID              int64
	MenuID              int64
	MenuConfigurationID int64
	Quantity            int
}
