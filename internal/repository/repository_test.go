package repository_test

import (
	"context"
	"fmt"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/nikolayk812/canteen-client/internal/domain"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
)

func startPostgres(ctx context.Context) (*postgres.PostgresContainer, string, error) {
	postgresContainer, err := postgres.Run(ctx, "postgres:17.6-alpine3.22",
		postgres.BasicWaitStrategies(),
		postgres.WithInitScripts(
			"../migrations/01_session_preferences.up.sql"),
	)
	if err != nil {
		return nil, "", fmt.Errorf("postgres.Run: %w", err)
	}

	connStr, err := postgresContainer.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		return nil, "", fmt.Errorf("pc.ConnectionString: %w", err)
	}

	return postgresContainer, connStr, nil
}

func randomPreferences() domain.Preferences {
	return domain.Preferences{
		Token:        gofakeit.LetterN(64),
		CanteenID:    int64(gofakeit.IntRange(1, 500)),
		SelectedDate: randomDate(),
	}
}

func randomDate() time.Time {
	d := gofakeit.DateRange(time.Now().AddDate(0, 0, -30), time.Now().AddDate(0, 0, 30))
	parsed, err := domain.ParseOrderDate(d.Format(domain.DateLayout))
	if err != nil {
		panic(err)
	}
	return parsed
}
