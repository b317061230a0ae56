package domain

import "time"

type ItemType string

const (
	ItemTypeVeg    ItemType = "veg"
	ItemTypeNonVeg ItemType = "non-veg"
)

// DefaultMaxQuantity applies when a menu item carries no ceiling.
const DefaultMaxQuantity = 10

type Item struct {
	ID           int64
	Name         string
	Type         ItemType
	Description  string
	Image        string // base64 encoded
	Price        Money
	QuantityUnit string
	Quantity     int
	Status       string
	StartDate    string
	EndDate      string
}

// ItemForm is the multipart body of create and update item calls.
type ItemForm struct {
	ID           int64
	Name         string
	Description  string
	Type         ItemType
	Quantity     int
	QuantityUnit string
	Price        Money
	StartDate    string
	EndDate      string
	Image        []byte
	ImageName    string
}

type Canteen struct {
	ID       int64
	Name     string
	Code     string
	Location string
	Image    string
}

// CanteenForm creates or updates a canteen together with its admin account.
type CanteenForm struct {
	ID           int64
	Name         string
	Code         string
	Location     string
	FirstName    string
	LastName     string
	Email        string
	MobileNumber string
	Image        []byte
	ImageName    string
}

type Menu struct {
	ID                  int64
	Name                string
	CanteenID           int64
	MenuConfigurationID int64
	Description         string
	StartTime           time.Time
	EndTime             time.Time
	Configuration       MenuConfiguration
	Items               []MenuItem
}

type MenuItem struct {
	ID          int64
	MenuID      int64
	ItemID      int64
	MinQuantity int
	MaxQuantity int
	Status      string
	Item        Item
}

func (mi MenuItem) EffectiveMax() int {
	if mi.MaxQuantity <= 0 {
		return DefaultMaxQuantity
	}
	return mi.MaxQuantity
}

// MenuForm is the body of create and update menu calls.
type MenuForm struct {
	MenuConfigurationID int64
	CanteenID           int64
	Description         string
	Items               []MenuItemLimit
}

type MenuItemLimit struct {
	ItemID      int64
	MinQuantity int
	MaxQuantity int
}

// MenuConfiguration is the meal slot template (Breakfast, Lunch, ...) a menu is assigned to.
type MenuConfiguration struct {
	ID               int64
	Name             string
	DefaultStartTime string
	DefaultEndTime   string
	Status           string
}

// UpcomingMenus groups menus by order date and then by configuration name.
type UpcomingMenus map[string]map[string][]Menu
