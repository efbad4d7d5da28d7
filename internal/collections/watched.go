package collections

import (
	"context"
	"database/sql"
	"fmt"

	"swipereel/pkg/models"
)

// CreateWatched records a watched movie with its star rating. A conflict on an
// existing row degrades to an update so a stale client cache cannot fail the
// write; every rating also lands in the history table.
func (r *Repo) CreateWatched(ctx context.Context, e models.WatchedEntry) error {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin watched upsert: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx, `
		INSERT INTO user_watched (user_id, catalog_id, title, poster_path, rating, watched_at, updated_at)
		VALUES (?, ?, ?, ?, ?, CURRENT_TIMESTAMP, CURRENT_TIMESTAMP)
		ON CONFLICT(user_id, catalog_id) DO UPDATE SET
			rating = excluded.rating,
			updated_at = CURRENT_TIMESTAMP
	`, e.UserID, e.CatalogID, e.Title, e.PosterPath, e.Rating); err != nil {
		return fmt.Errorf("upsert watched: %w", err)
	}

	if _, err = tx.ExecContext(ctx, `
		INSERT INTO watched_rating_history (user_id, catalog_id, rating)
		VALUES (?, ?, ?)
	`, e.UserID, e.CatalogID, e.Rating); err != nil {
		return fmt.Errorf("watched history: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit watched upsert: %w", err)
	}
	return nil
}

// UpdateWatchedRating re-rates an existing watched entry.
func (r *Repo) UpdateWatchedRating(ctx context.Context, e models.WatchedEntry) error {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin rating update: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	res, execErr := tx.ExecContext(ctx, `
		UPDATE user_watched
		SET rating = ?, updated_at = CURRENT_TIMESTAMP
		WHERE user_id = ? AND catalog_id = ?
	`, e.Rating, e.UserID, e.CatalogID)
	if execErr != nil {
		err = fmt.Errorf("update rating: %w", execErr)
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		// local cache was stale; fall back to create semantics
		if _, err = tx.ExecContext(ctx, `
			INSERT INTO user_watched (user_id, catalog_id, title, poster_path, rating)
			VALUES (?, ?, ?, ?, ?)
		`, e.UserID, e.CatalogID, e.Title, e.PosterPath, e.Rating); err != nil {
			return fmt.Errorf("update rating insert: %w", err)
		}
	}

	if _, err = tx.ExecContext(ctx, `
		INSERT INTO watched_rating_history (user_id, catalog_id, rating)
		VALUES (?, ?, ?)
	`, e.UserID, e.CatalogID, e.Rating); err != nil {
		return fmt.Errorf("watched history: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit rating update: %w", err)
	}
	return nil
}

func (r *Repo) GetWatched(ctx context.Context, userID string, catalogID int64) (*models.WatchedEntry, error) {
	row := r.DB.QueryRowContext(ctx, `
		SELECT user_id, catalog_id, title, poster_path, rating, watched_at, updated_at
		FROM user_watched
		WHERE user_id = ? AND catalog_id = ?
	`, userID, catalogID)

	var e models.WatchedEntry
	if err := row.Scan(&e.UserID, &e.CatalogID, &e.Title, &e.PosterPath, &e.Rating, &e.WatchedAt, &e.UpdatedAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("get watched: %w", err)
	}
	return &e, nil
}

func (r *Repo) ListWatched(ctx context.Context, userID string) ([]models.WatchedEntry, error) {
	rows, err := r.DB.QueryContext(ctx, `
		SELECT user_id, catalog_id, title, poster_path, rating, watched_at, updated_at
		FROM user_watched
		WHERE user_id = ?
		ORDER BY updated_at DESC
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("list watched: %w", err)
	}
	defer rows.Close()

	var out []models.WatchedEntry
	for rows.Next() {
		var e models.WatchedEntry
		if err := rows.Scan(&e.UserID, &e.CatalogID, &e.Title, &e.PosterPath, &e.Rating, &e.WatchedAt, &e.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan watched row: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (r *Repo) RemoveWatched(ctx context.Context, userID string, catalogID int64) (bool, error) {
	res, err := r.DB.ExecContext(ctx, `
		DELETE FROM user_watched
		WHERE user_id = ? AND catalog_id = ?
	`, userID, catalogID)
	if err != nil {
		return false, fmt.Errorf("remove watched: %w", err)
	}
	n, _ := res.RowsAffected()
	return n > 0, nil
}

// WatchedRatings returns catalog ID -> current rating, used by the dispatcher
// to decide between create-watched and update-rating.
func (r *Repo) WatchedRatings(ctx context.Context, userID string) (map[int64]float64, error) {
	rows, err := r.DB.QueryContext(ctx, `
		SELECT catalog_id, rating FROM user_watched WHERE user_id = ?
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("watched ratings: %w", err)
	}
	defer rows.Close()

	out := make(map[int64]float64)
	for rows.Next() {
		var (
			id     int64
			rating float64
		)
		if err := rows.Scan(&id, &rating); err != nil {
			return nil, fmt.Errorf("scan rating: %w", err)
		}
		out[id] = rating
	}
	return out, rows.Err()
}
