package service

import (
	"fmt"

	"github.com/nikolayk812/canteen-client/internal/api"
	"github.com/nikolayk812/canteen-client/internal/port"
	"golang.org/x/text/currency"
)

// Services is every resource client for one session, sharing one api.Client
// whose token is read from the session's preferences on each request.
type Services struct {
	Scope              Scope
	Cart               port.CartService
	Canteens           *Canteens
	Items              *Items
	Menus              *Menus
	MenuConfigurations *MenuConfigurations
	Dashboard          *Dashboard
	Orders             *Orders
	Account            *Account
}

func New(store port.PreferenceStore, sessionKey string, unit currency.Unit, opts ...api.ClientOptFn) (*Services, error) {
	scope := NewScope(store, sessionKey)

	opts = append(opts, api.WithTokenSource(scope.Token))
	client, err := api.New(opts...)
	if err != nil {
		return nil, fmt.Errorf("api.New: %w", err)
	}

	return &Services{
		Scope:              scope,
		Cart:               NewCart(client, scope, unit),
		Canteens:           NewCanteens(client),
		Items:              NewItems(client, unit),
		Menus:              NewMenus(client, unit),
		MenuConfigurations: NewMenuConfigurations(client),
		Dashboard:          NewDashboard(client, unit),
		Orders:             NewOrders(client, unit),
		Account:            NewAccount(client, unit),
	}, nil
}
