package service

import (
	"context"
	"testing"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/nikolayk812/canteen-client/internal/api"
	"github.com/nikolayk812/canteen-client/internal/domain"
	"github.com/nikolayk812/canteen-client/internal/port"
	"github.com/nikolayk812/canteen-client/internal/repository"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m,
		goleak.IgnoreAnyFunction("net/http.(*persistConn).readLoop"),
		goleak.IgnoreAnyFunction("net/http.(*persistConn).writeLoop"),
	)
}

type cartSuite struct {
	suite.Suite

	backend    *fakeBackend
	store      port.PreferenceStore
	sessionKey string
	services   *Services
}

func TestCartSuite(t *testing.T) {
	suite.Run(t, new(cartSuite))
}

func (s *cartSuite) SetupTest() {
	token := gofakeit.LetterN(32)

	var addr string
	s.backend, addr = startBackend(s.T(), token)
	s.store = repository.NewMemoryPreferences()
	s.sessionKey = gofakeit.UUID()

	_, err := s.store.Update(context.Background(), s.sessionKey, func(p *domain.Preferences) error {
		p.Token = token
		p.CanteenID = 3
		p.SelectedDate = time.Date(2026, 10, 15, 0, 0, 0, 0, time.UTC)
		return nil
	})
	s.Require().NoError(err)

	s.services, err = New(s.store, s.sessionKey, domain.DefaultCurrency, api.WithAddr(addr))
	s.Require().NoError(err)
}

func startBackend(t *testing.T, token string) (*fakeBackend, string) {
	t.Helper()
	b, srv := newFakeBackend(t, token)
	return b, srv.URL
}

func (s *cartSuite) TestFetchCartBeforeFirstAdd() {
	_, err := s.services.Cart.FetchCart(s.T().Context())
	s.Require().ErrorIs(err, domain.ErrNoCart)
}

func (s *cartSuite) TestAddThenFetch() {
	ctx := s.T().Context()
	price := decimal.RequireFromString("45.50")
	s.backend.stock(backendItem{ID: 5, Name: "Masala Dosa", Price: price}, 4)

	err := s.services.Cart.AddItem(ctx, domain.AddItemRequest{ItemID: 5, MenuID: 1, MenuConfigurationID: 2, Quantity: 1})
	s.Require().NoError(err)

	cart, err := s.services.Cart.FetchCart(ctx)
	s.Require().NoError(err)
	s.Require().Len(cart.Items, 1)

	line := cart.Items[0]
	s.Equal(1, line.Quantity)
	s.Equal(4, line.MaxQuantity)
	s.True(line.Total.Equal(line.Price), "total %s price %s", line.Total, line.Price)
	s.True(line.Price.Amount.Equal(price))
	s.Equal(domain.DefaultCurrency, line.Price.Currency)
	s.Equal(int64(5), line.ItemID)
	s.Equal(cart.ID, line.CartID)

	s.EqualValues(5, s.backend.lastAdd["itemId"])
	s.EqualValues(1, s.backend.lastAdd["menuId"])
	s.EqualValues(2, s.backend.lastAdd["menuConfigurationId"])
	s.EqualValues(3, s.backend.lastAdd["canteenId"])
	s.Equal("2026-10-15", s.backend.lastAdd["orderDate"])
}

func (s *cartSuite) TestAddRequiresPreferences() {
	tests := []struct {
		name    string
		mutate  func(*domain.Preferences)
		wantErr error
	}{
		{
			name:    "no token",
			mutate:  func(p *domain.Preferences) { p.Token = "" },
			wantErr: domain.ErrUnauthenticated,
		},
		{
			name:    "no canteen",
			mutate:  func(p *domain.Preferences) { p.CanteenID = 0 },
			wantErr: domain.ErrNoCanteenSelected,
		},
		{
			name:    "no date",
			mutate:  func(p *domain.Preferences) { p.SelectedDate = time.Time{} },
			wantErr: domain.ErrNoDateSelected,
		},
	}

	for _, tt := range tests {
		s.Run(tt.name, func() {
			s.SetupTest()
			ctx := s.T().Context()

			_, err := s.store.Update(ctx, s.sessionKey, func(p *domain.Preferences) error {
				tt.mutate(p)
				return nil
			})
			s.Require().NoError(err)

			err = s.services.Cart.AddItem(ctx, domain.AddItemRequest{ItemID: 5, MenuID: 1, Quantity: 1})
			s.Require().ErrorIs(err, tt.wantErr)
			s.Zero(s.backend.callCount(pathAddToCart))
		})
	}
}

func (s *cartSuite) TestAddFromAnotherMenu() {
	ctx := s.T().Context()
	s.backend.stock(backendItem{ID: 5, Price: decimal.NewFromInt(40)}, 3)
	s.backend.stock(backendItem{ID: 9, Price: decimal.NewFromInt(60)}, 3)

	s.Require().NoError(s.services.Cart.AddItem(ctx, domain.AddItemRequest{ItemID: 5, MenuID: 1, Quantity: 1}))

	err := s.services.Cart.AddItem(ctx, domain.AddItemRequest{ItemID: 9, MenuID: 2, Quantity: 1})
	s.Require().ErrorIs(err, domain.ErrMenuMismatch)

	outcome := domain.OutcomeOf(err)
	s.Equal(domain.OutcomeRejected, outcome.Kind)
	s.Equal(domain.MenuMismatchReason, outcome.Reason)
}

func (s *cartSuite) TestSoftFailureIsRejected() {
	err := s.services.Cart.AddItem(s.T().Context(), domain.AddItemRequest{ItemID: 404, MenuID: 1, Quantity: 1})

	outcome := domain.OutcomeOf(err)
	s.Equal(domain.OutcomeRejected, outcome.Kind)
	s.Equal("Item not available", outcome.Reason)
}

func (s *cartSuite) TestUpdateQuantity() {
	ctx := s.T().Context()
	s.backend.stock(backendItem{ID: 5, Price: decimal.NewFromInt(40)}, 3)
	s.Require().NoError(s.services.Cart.AddItem(ctx, domain.AddItemRequest{ItemID: 5, MenuID: 1, Quantity: 1}))

	cart, err := s.services.Cart.FetchCart(ctx)
	s.Require().NoError(err)

	s.Require().NoError(s.services.Cart.UpdateItemQuantity(ctx, cart.ID, 5, 3))

	cart, err = s.services.Cart.FetchCart(ctx)
	s.Require().NoError(err)
	s.Require().Len(cart.Items, 1)
	s.Equal(3, cart.Items[0].Quantity)
	s.True(cart.Items[0].Total.Amount.Equal(decimal.NewFromInt(120)))
}

func (s *cartSuite) TestRemoveTwice() {
	ctx := s.T().Context()
	s.backend.stock(backendItem{ID: 5, Price: decimal.NewFromInt(40)}, 3)
	s.Require().NoError(s.services.Cart.AddItem(ctx, domain.AddItemRequest{ItemID: 5, MenuID: 1, Quantity: 1}))

	cart, err := s.services.Cart.FetchCart(ctx)
	s.Require().NoError(err)

	s.Require().NoError(s.services.Cart.RemoveItem(ctx, cart.ID, 5))

	err = s.services.Cart.RemoveItem(ctx, cart.ID, 5)
	s.Equal(domain.OutcomeRejected, domain.OutcomeOf(err).Kind)

	cart, err = s.services.Cart.FetchCart(ctx)
	s.Require().NoError(err)
	_, found := cart.FindByItemID(5)
	s.False(found)
}

func (s *cartSuite) TestClearCart() {
	ctx := s.T().Context()
	s.backend.stock(backendItem{ID: 5, Price: decimal.NewFromInt(40)}, 3)
	s.backend.stock(backendItem{ID: 6, Price: decimal.NewFromInt(20)}, 3)
	s.Require().NoError(s.services.Cart.AddItem(ctx, domain.AddItemRequest{ItemID: 5, MenuID: 1, Quantity: 2}))
	s.Require().NoError(s.services.Cart.AddItem(ctx, domain.AddItemRequest{ItemID: 6, MenuID: 1, Quantity: 1}))

	cart, err := s.services.Cart.FetchCart(ctx)
	s.Require().NoError(err)
	s.Equal(2, cart.Count())
	s.True(cart.Subtotal().Amount.Equal(decimal.NewFromInt(100)))

	s.Require().NoError(s.services.Cart.ClearCart(ctx))

	cart, err = s.services.Cart.FetchCart(ctx)
	s.Require().NoError(err)
	s.True(cart.Empty())
}

func (s *cartSuite) TestFetchServerError() {
	s.backend.mu.Lock()
	s.backend.failFetch = true
	s.backend.mu.Unlock()

	_, err := s.services.Cart.FetchCart(s.T().Context())
	s.Equal(domain.OutcomeTransportError, domain.OutcomeOf(err).Kind)
}

func TestCartTokenReadPerRequest(t *testing.T) {
	ctx := t.Context()
	token := gofakeit.LetterN(32)
	backend, addr := startBackend(t, token)
	backend.stock(backendItem{ID: 5, Price: decimal.NewFromInt(10)}, 2)

	store := repository.NewMemoryPreferences()
	sessionKey := gofakeit.UUID()
	services, err := New(store, sessionKey, domain.DefaultCurrency, api.WithAddr(addr))
	require.NoError(t, err)

	_, err = services.Cart.FetchCart(ctx)
	require.ErrorIs(t, err, domain.ErrUnauthenticated)
	assert.Zero(t, backend.callCount(pathGetCart))

	_, err = store.Update(ctx, sessionKey, func(p *domain.Preferences) error {
		p.Token = token
		return nil
	})
	require.NoError(t, err)

	_, err = services.Cart.FetchCart(ctx)
	require.ErrorIs(t, err, domain.ErrNoCart)
	assert.Equal(t, 1, backend.callCount(pathGetCart))
}
