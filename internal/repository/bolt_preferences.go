package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nikolayk812/canteen-client/internal/domain"
	bolt "go.etcd.io/bbolt"
)

var preferencesBucket = []byte("session_preferences")

// BoltPreferences stores preferences in a local bbolt file. The CLI uses it
// so that login, canteen and date survive between invocations.
type BoltPreferences struct {
	db *bolt.DB
}

type boltPreferenceRecord struct {
	Token        string    `json:"token"`
	CanteenID    int64     `json:"canteen_id"`
	SelectedDate string    `json:"selected_date,omitempty"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func OpenBoltPreferences(path string) (*BoltPreferences, error) {
	bdb, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("bolt.Open[%s]: %w", path, err)
	}

	err = bdb.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(preferencesBucket)
		return err
	})
	if err != nil {
		_ = bdb.Close()
		return nil, fmt.Errorf("tx.CreateBucketIfNotExists: %w", err)
	}

	return &BoltPreferences{db: bdb}, nil
}

func (b *BoltPreferences) Close() error {
	return b.db.Close()
}

func (b *BoltPreferences) Get(_ context.Context, sessionKey string) (domain.Preferences, error) {
	if sessionKey == "" {
		return domain.Preferences{}, errSessionKeyEmpty
	}

	var prefs domain.Preferences
	err := b.db.View(func(tx *bolt.Tx) error {
		var err error
		prefs, err = readBoltRecord(tx.Bucket(preferencesBucket), sessionKey)
		return err
	})
	if err != nil {
		return domain.Preferences{}, fmt.Errorf("db.View: %w", err)
	}

	return prefs, nil
}

func (b *BoltPreferences) Update(_ context.Context, sessionKey string, fn func(*domain.Preferences) error) (domain.Preferences, error) {
	if sessionKey == "" {
		return domain.Preferences{}, errSessionKeyEmpty
	}

	var prefs domain.Preferences
	err := b.db.Update(func(tx *bolt.Tx) error {
		bucket := tx.Bucket(preferencesBucket)

		var err error
		prefs, err = readBoltRecord(bucket, sessionKey)
		if err != nil {
			return err
		}

		if err := fn(&prefs); err != nil {
			return err
		}
		prefs.UpdatedAt = time.Now().UTC()

		raw, err := json.Marshal(boltPreferenceRecord{
			Token:        prefs.Token,
			CanteenID:    prefs.CanteenID,
			SelectedDate: prefs.OrderDate(),
			UpdatedAt:    prefs.UpdatedAt,
		})
		if err != nil {
			return fmt.Errorf("json.Marshal: %w", err)
		}

		return bucket.Put([]byte(sessionKey), raw)
	})
	if err != nil {
		return domain.Preferences{}, err
	}

	return prefs, nil
}

func (b *BoltPreferences) Delete(_ context.Context, sessionKey string) (bool, error) {
	if sessionKey == "" {
		return false, errSessionKeyEmpty
	}

	var deleted bool
	err := b.db.Update(func(tx *bolt.Tx) error {
		bucket := tx.Bucket(preferencesBucket)
		if bucket.Get([]byte(sessionKey)) == nil {
			return nil
		}
		deleted = true
		return bucket.Delete([]byte(sessionKey))
	})
	if err != nil {
		return false, fmt.Errorf("db.Update: %w", err)
	}

	return deleted, nil
}

func readBoltRecord(bucket *bolt.Bucket, sessionKey string) (domain.Preferences, error) {
	raw := bucket.Get([]byte(sessionKey))
	if raw == nil {
		return domain.Preferences{}, nil
	}

	var rec boltPreferenceRecord
	if err := json.Unmarshal(raw, &rec); err != nil {
		return domain.Preferences{}, fmt.Errorf("json.Unmarshal[%s]: %w", sessionKey, err)
	}

	prefs := domain.Preferences{
		Token:     rec.Token,
		CanteenID: rec.CanteenID,
		UpdatedAt: rec.UpdatedAt,
	}
	if rec.SelectedDate != "" {
		date, err := domain.ParseOrderDate(rec.SelectedDate)
		if err != nil {
			return domain.Preferences{}, fmt.Errorf("domain.ParseOrderDate[%s]: %w", rec.SelectedDate, err)
		}
		prefs.SelectedDate = date
	}

	return prefs, nil
}
