package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/nikolayk812/canteen-client/internal/api"
	"github.com/nikolayk812/canteen-client/internal/domain"
)

var errMenuConfigurationID = errors.New("menu configuration id is required for update")

type MenuConfigurations struct {
	client *api.Client
}

func NewMenuConfigurations(client *api.Client) *MenuConfigurations {
	return &MenuConfigurations{client: client}
}

type menuConfigurationBody struct {
	ID               int64  `json:"id,omitempty"`
	Name             string `json:"name,omitempty"`
	DefaultStartTime string `json:"defaultStartTime"`
	DefaultEndTime   string `json:"defaultEndTime"`
}

func (s *MenuConfigurations) Create(ctx context.Context, mc domain.MenuConfiguration) error {
	body := menuConfigurationBody{
		Name:             mc.Name,
		DefaultStartTime: mc.DefaultStartTime,
		DefaultEndTime:   mc.DefaultEndTime,
	}
	if err := s.client.Post(ctx, "/menuconfig/createMenuConfiguration", body, nil); err != nil {
		return fmt.Errorf("client.Post[createMenuConfiguration]: %w", err)
	}
	return nil
}

func (s *MenuConfigurations) List(ctx context.Context) ([]domain.MenuConfiguration, error) {
	var dtos []menuConfigurationDTO
	if err := s.client.Get(ctx, "/menuconfig/getAllMenuConfigurations", nil, &dtos); err != nil {
		return nil, fmt.Errorf("client.Get[getAllMenuConfigurations]: %w", err)
	}

	configs := make([]domain.MenuConfiguration, 0, len(dtos))
	for _, dto := range dtos {
		configs = append(configs, mapMenuConfigurationDTOToDomain(dto))
	}
	return configs, nil
}

// Update changes the default time window only; the slot name is fixed once created.
func (s *MenuConfigurations) Update(ctx context.Context, mc domain.MenuConfiguration) error {
	if mc.ID == 0 {
		return errMenuConfigurationID
	}
	body := menuConfigurationBody{
		ID:               mc.ID,
		DefaultStartTime: mc.DefaultStartTime,
		DefaultEndTime:   mc.DefaultEndTime,
	}
	if err := s.client.Put(ctx, "/menuconfig/updateMenuConfiguration", body, nil); err != nil {
		return fmt.Errorf("client.Put[updateMenuConfiguration]: %w", err)
	}
	return nil
}
