package service

import (
	"context"
	"fmt"
	"strconv"

	"github.com/nikolayk812/canteen-client/internal/api"
	"github.com/nikolayk812/canteen-client/internal/domain"
)

// Canteens wraps the super-admin canteen endpoints and the user canteen picker.
type Canteens struct {
	client *api.Client
}

func NewCanteens(client *api.Client) *Canteens {
	return &Canteens{client: client}
}

func (s *Canteens) List(ctx context.Context) ([]domain.Canteen, error) {
	return s.list(ctx, "/canteen/getAllCanteens")
}

// ListForUser is the canteen list shown before a user picks where to order.
func (s *Canteens) ListForUser(ctx context.Context) ([]domain.Canteen, error) {
	return s.list(ctx, "/user/getAllCanteens")
}

func (s *Canteens) list(ctx context.Context, path string) ([]domain.Canteen, error) {
	var dtos []canteenDTO
	if err := s.client.Get(ctx, path, nil, &dtos); err != nil {
		return nil, fmt.Errorf("client.Get[%s]: %w", path, err)
	}

	return mapCanteens(dtos), nil
}

func mapCanteens(dtos []canteenDTO) []domain.Canteen {
	canteens := make([]domain.Canteen, 0, len(dtos))
	for _, dto := range dtos {
		canteens = append(canteens, mapCanteenDTOToDomain(dto))
	}
	return canteens
}

func (s *Canteens) Get(ctx context.Context, canteenID int64) (domain.Canteen, error) {
	path := "/canteen/" + strconv.FormatInt(canteenID, 10)

	var dto canteenDTO
	if err := s.client.Get(ctx, path, nil, &dto); err != nil {
		return domain.Canteen{}, fmt.Errorf("client.Get[%s]: %w", path, err)
	}
	return mapCanteenDTOToDomain(dto), nil
}

func (s *Canteens) Create(ctx context.Context, form domain.CanteenForm) error {
	if err := s.client.PostForm(ctx, "/canteen/createCanteen", canteenForm(form), nil); err != nil {
		return fmt.Errorf("client.PostForm[createCanteen]: %w", err)
	}
	return nil
}

func (s *Canteens) Update(ctx context.Context, form domain.CanteenForm) error {
	if form.ID == 0 {
		return fmt.Errorf("canteen id is required for update")
	}
	if err := s.client.PostForm(ctx, "/canteen/updateCanteen", canteenForm(form), nil); err != nil {
		return fmt.Errorf("client.PostForm[updateCanteen]: %w", err)
	}
	return nil
}

func (s *Canteens) Delete(ctx context.Context, canteenID int64) error {
	path := "/canteen/" + strconv.FormatInt(canteenID, 10)
	if err := s.client.Delete(ctx, path, nil); err != nil {
		return fmt.Errorf("client.Delete[%s]: %w", path, err)
	}
	return nil
}

func canteenForm(f domain.CanteenForm) *api.Form {
	form := api.NewForm().
		Set("canteenName", f.Name).
		Set("canteenCode", f.Code).
		Set("location", f.Location).
		Set("firstName", f.FirstName).
		Set("lastName", f.LastName).
		Set("email", f.Email).
		Set("mobileNumber", f.MobileNumber).
		File("canteenImage", f.ImageName, f.Image)
	if f.ID != 0 {
		form.Set("canteenId", strconv.FormatInt(f.ID, 10))
	}
	return form
}
