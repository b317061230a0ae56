package domain

import "time"

type OrderStatus string

const (
	OrderStatusPlaced    OrderStatus = "placed"
	OrderStatusCancelled OrderStatus = "cancelled"
	OrderStatusDelivered OrderStatus = "delivered"
)

type Order struct {
	ID                  int64
	OrderNo             string
	Status              OrderStatus
	OrderDate           time.Time
	TotalAmount         Money
	CanteenID           int64
	CanteenName         string
	MenuConfigurationID int64
	QRCode              string
	Items               []OrderItem
	Payments            []Payment
}

type OrderItem struct {
	ID       int64
	ItemID   int64
	Name     string
	Quantity int
	Price    Money
	Total    Money
}

type Payment struct {
	ID     int64
	Amount Money
	Status string
	Method string
}

// DashboardCounts is the headline block of the admin dashboard.
type DashboardCounts struct {
	TotalOrders   int
	TotalRevenue  Money
	TotalCanteens int
	TotalMenus    int
	TotalItems    int
}

type CanteenOrderStats struct {
	CanteenID   int64
	CanteenName string
	TotalOrders int
	TotalAmount Money
}

type Profile struct {
	Name        string
	Gender      string
	DateOfBirth string
	MobileNo    string
	Email       string
}

type WalletTransaction struct {
	ID          string
	Type        string
	Amount      Money
	Reference   string
	Description string
	Date        time.Time
}

type WalletBalance struct {
	Balance Money
}
