package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/nikolayk812/canteen-client/internal/db"
	"github.com/nikolayk812/canteen-client/internal/domain"
	"github.com/nikolayk812/canteen-client/internal/port"
)

var errSessionKeyEmpty = errors.New("sessionKey is empty")

type preferenceRepository struct {
	q    *db.Queries
	pool *pgxpool.Pool
}

func NewPreferences(pool *pgxpool.Pool) port.PreferenceStore {
	return &preferenceRepository{
		q:    db.New(pool),
		pool: pool,
	}
}

func NewPreferencesWithTx(tx pgx.Tx) port.PreferenceStore {
	return &preferenceRepository{
		q:    db.New(tx),
		pool: nil, // use provided transaction instead
	}
}

func (r *preferenceRepository) Get(ctx context.Context, sessionKey string) (domain.Preferences, error) {
	if sessionKey == "" {
		return domain.Preferences{}, errSessionKeyEmpty
	}

	row, err := r.q.GetPreferences(ctx, sessionKey)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Preferences{}, nil
	}
	if err != nil {
		return domain.Preferences{}, fmt.Errorf("q.GetPreferences: %w", err)
	}

	return mapPreferenceRowToDomain(row), nil
}

func (r *preferenceRepository) Update(ctx context.Context, sessionKey string, fn func(*domain.Preferences) error) (domain.Preferences, error) {
	if sessionKey == "" {
		return domain.Preferences{}, errSessionKeyEmpty
	}

	return withTx(ctx, r.pool, r.q, func(q *db.Queries) (domain.Preferences, error) {
		var prefs domain.Preferences

		row, err := q.GetPreferencesForUpdate(ctx, sessionKey)
		switch {
		case errors.Is(err, pgx.ErrNoRows):
		case err != nil:
			return domain.Preferences{}, fmt.Errorf("q.GetPreferencesForUpdate: %w", err)
		default:
			prefs = mapPreferenceRowToDomain(row)
		}

		if err := fn(&prefs); err != nil {
			return domain.Preferences{}, err
		}

		updatedAt, err := q.UpsertPreferences(ctx, db.UpsertPreferencesParams{
			SessionKey:   sessionKey,
			Token:        prefs.Token,
			CanteenID:    prefs.CanteenID,
			SelectedDate: pgtype.Date{Time: prefs.SelectedDate, Valid: prefs.HasDate()},
		})
		if err != nil {
			return domain.Preferences{}, fmt.Errorf("q.UpsertPreferences: %w", err)
		}
		prefs.UpdatedAt = updatedAt

		return prefs, nil
	})
}

func (r *preferenceRepository) Delete(ctx context.Context, sessionKey string) (bool, error) {
	if sessionKey == "" {
		return false, errSessionKeyEmpty
	}

	rowsAffected, err := r.q.DeletePreferences(ctx, sessionKey)
	if err != nil {
		return false, fmt.Errorf("q.DeletePreferences: %w", err)
	}

	return rowsAffected > 0, nil
}

func mapPreferenceRowToDomain(row db.SessionPreference) domain.Preferences {
	prefs := domain.Preferences{
		Token:     row.Token,
		CanteenID: row.CanteenID,
		UpdatedAt: row.UpdatedAt,
	}
	if row.SelectedDate.Valid {
		prefs.SelectedDate = row.SelectedDate.Time
	}
	return prefs
}
