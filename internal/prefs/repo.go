package prefs

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"swipereel/pkg/models"
)

// Repo persists the preference payload as a JSON document per user. The
// schema only cares about ownership and recency; the payload shape is free to
// evolve.
type Repo struct {
	DB *sql.DB
}

func NewRepo(db *sql.DB) *Repo {
	return &Repo{DB: db}
}

// Get returns the stored preferences, or nil when the user has never saved.
func (r *Repo) Get(ctx context.Context, userID string) (*models.Preferences, error) {
	var payload string
	err := r.DB.QueryRowContext(ctx, `
		SELECT payload FROM user_preferences WHERE user_id = ?
	`, userID).Scan(&payload)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get preferences: %w", err)
	}

	var p models.Preferences
	if err := json.Unmarshal([]byte(payload), &p); err != nil {
		return nil, fmt.Errorf("decode preferences: %w", err)
	}
	return &p, nil
}

func (r *Repo) Save(ctx context.Context, userID string, p models.Preferences) error {
	payload, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("encode preferences: %w", err)
	}

	_, err = r.DB.ExecContext(ctx, `
		INSERT INTO user_preferences (user_id, payload, updated_at)
		VALUES (?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(user_id) DO UPDATE SET
			payload = excluded.payload,
			updated_at = CURRENT_TIMESTAMP
	`, userID, string(payload))
	if err != nil {
		return fmt.Errorf("save preferences: %w", err)
	}
	return nil
}
