package service

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"github.com/nikolayk812/canteen-client/internal/api"
	"github.com/nikolayk812/canteen-client/internal/domain"
	"github.com/shopspring/decimal"
	"golang.org/x/text/currency"
)

// Dashboard serves the admin screens. The backend path is spelled adminDasboard.
type Dashboard struct {
	client *api.Client
	unit   currency.Unit
}

func NewDashboard(client *api.Client, unit currency.Unit) *Dashboard {
	return &Dashboard{client: client, unit: unit}
}

type dashboardDTO struct {
	TotalOrders   int             `json:"totalOrders"`
	TotalRevenue  decimal.Decimal `json:"totalRevenue"`
	TotalCanteens int             `json:"totalCanteens"`
	TotalMenus    int             `json:"totalMenus"`
	TotalItems    int             `json:"totalItems"`
}

type canteenOrderStatsDTO struct {
	CanteenID   flexID          `json:"canteenId"`
	CanteenName string          `json:"canteenName"`
	TotalOrders int             `json:"totalOrders"`
	TotalAmount decimal.Decimal `json:"totalAmount"`
}

func (s *Dashboard) Counts(ctx context.Context) (domain.DashboardCounts, error) {
	var dto dashboardDTO
	if err := s.client.Get(ctx, "/adminDasboard/dashboard", nil, &dto); err != nil {
		return domain.DashboardCounts{}, fmt.Errorf("client.Get[dashboard]: %w", err)
	}
	return domain.DashboardCounts{
		TotalOrders:   dto.TotalOrders,
		TotalRevenue:  domain.NewMoney(dto.TotalRevenue, s.unit),
		TotalCanteens: dto.TotalCanteens,
		TotalMenus:    dto.TotalMenus,
		TotalItems:    dto.TotalItems,
	}, nil
}

func (s *Dashboard) OrdersByCanteen(ctx context.Context) ([]domain.CanteenOrderStats, error) {
	var dtos []canteenOrderStatsDTO
	if err := s.client.Get(ctx, "/order/getOrdersByCanteen", nil, &dtos); err != nil {
		return nil, fmt.Errorf("client.Get[getOrdersByCanteen]: %w", err)
	}

	stats := make([]domain.CanteenOrderStats, 0, len(dtos))
	for _, dto := range dtos {
		stats = append(stats, domain.CanteenOrderStats{
			CanteenID:   int64(dto.CanteenID),
			CanteenName: dto.CanteenName,
			TotalOrders: dto.TotalOrders,
			TotalAmount: domain.NewMoney(dto.TotalAmount, s.unit),
		})
	}
	return stats, nil
}

// TotalMenus lists menus, optionally restricted to one canteen when canteenID is non-zero.
func (s *Dashboard) TotalMenus(ctx context.Context, canteenID int64) ([]domain.Menu, error) {
	query := url.Values{}
	if canteenID != 0 {
		query.Set("canteenId", strconv.FormatInt(canteenID, 10))
	}

	var dtos []menuDTO
	if err := s.client.Get(ctx, "/adminDasboard/getTotalMenus", query, &dtos); err != nil {
		return nil, fmt.Errorf("client.Get[getTotalMenus]: %w", err)
	}

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

// TotalOrders lists orders. Zero canteenID and zero orderDate are omitted from the query.
func (s *Dashboard) TotalOrders(ctx context.Context, canteenID int64, orderDate time.Time) ([]domain.Order, error) {
	query := url.Values{}
	if canteenID != 0 {
		query.Set("canteenId", strconv.FormatInt(canteenID, 10))
	}
	if !orderDate.IsZero() {
		query.Set("orderDate", orderDate.Format(domain.DateLayout))
	}

	var dtos []orderDTO
	if err := s.client.Get(ctx, "/adminDasboard/getTotalOrders", query, &dtos); err != nil {
		return nil, fmt.Errorf("client.Get[getTotalOrders]: %w", err)
	}
	return mapOrders(dtos, s.unit), nil
}

func (s *Dashboard) TotalCanteens(ctx context.Context) ([]domain.Canteen, error) {
	var dtos []canteenDTO
	if err := s.client.Get(ctx, "/adminDasboard/getTotalCanteens", nil, &dtos); err != nil {
		return nil, fmt.Errorf("client.Get[getTotalCanteens]: %w", err)
	}
	return mapCanteens(dtos), nil
}
