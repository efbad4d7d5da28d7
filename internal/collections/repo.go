package collections

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"swipereel/pkg/models"
)

// ErrNotFound reports that the card is in neither the source nor the
// destination list of a move.
var ErrNotFound = errors.New("not in collection")

type Repo struct {
	DB *sql.DB
}

func NewRepo(db *sql.DB) *Repo {
	return &Repo{DB: db}
}

// Add upserts an entry into one of the liked/disliked/favorites lists.
func (r *Repo) Add(ctx context.Context, e models.CollectionEntry) error {
	genres, _ := json.Marshal(e.Genres)
	_, err := r.DB.ExecContext(ctx, `
		INSERT INTO user_collections (user_id, list, catalog_id, title, poster_path, release_date, genres, vote_average, added_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(user_id, list, catalog_id) DO UPDATE SET
			title = excluded.title,
			poster_path = excluded.poster_path,
			release_date = excluded.release_date,
			genres = excluded.genres,
			vote_average = excluded.vote_average
	`, e.UserID, e.List, e.CatalogID, e.Title, e.PosterPath, e.ReleaseDate, string(genres), e.VoteAverage)
	if err != nil {
		return fmt.Errorf("add to %s: %w", e.List, err)
	}
	return nil
}

func (r *Repo) Remove(ctx context.Context, userID, list string, catalogID int64) (bool, error) {
	res, err := r.DB.ExecContext(ctx, `
		DELETE FROM user_collections
		WHERE user_id = ? AND list = ? AND catalog_id = ?
	`, userID, list, catalogID)
	if err != nil {
		return false, fmt.Errorf("remove from %s: %w", list, err)
	}
	n, _ := res.RowsAffected()
	return n > 0, nil
}

func (r *Repo) List(ctx context.Context, userID, list string) ([]models.CollectionEntry, error) {
	rows, err := r.DB.QueryContext(ctx, `
		SELECT user_id, list, catalog_id, title, poster_path, release_date, genres, vote_average, added_at
		FROM user_collections
		WHERE user_id = ? AND list = ?
		ORDER BY added_at DESC
	`, userID, list)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", list, err)
	}
	defer rows.Close()

	var out []models.CollectionEntry
	for rows.Next() {
		var (
			e          models.CollectionEntry
			genresJSON string
		)
		if err := rows.Scan(&e.UserID, &e.List, &e.CatalogID, &e.Title, &e.PosterPath, &e.ReleaseDate, &genresJSON, &e.VoteAverage, &e.AddedAt); err != nil {
			return nil, fmt.Errorf("scan %s row: %w", list, err)
		}
		_ = json.Unmarshal([]byte(genresJSON), &e.Genres)
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows err: %w", err)
	}
	return out, nil
}

func (r *Repo) Contains(ctx context.Context, userID, list string, catalogID int64) (bool, error) {
	var one int
	err := r.DB.QueryRowContext(ctx, `
		SELECT 1 FROM user_collections
		WHERE user_id = ? AND list = ? AND catalog_id = ?
	`, userID, list, catalogID).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("contains %s: %w", list, err)
	}
	return true, nil
}

// IDs returns the catalog IDs in a list, for membership checks.
func (r *Repo) IDs(ctx context.Context, userID, list string) ([]int64, error) {
	rows, err := r.DB.QueryContext(ctx, `
		SELECT catalog_id FROM user_collections
		WHERE user_id = ? AND list = ?
	`, userID, list)
	if err != nil {
		return nil, fmt.Errorf("ids %s: %w", list, err)
	}
	defer rows.Close()

	var out []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan id: %w", err)
		}
		out = append(out, id)
	}
	return out, rows.Err()
}

// Move transfers a card between liked and disliked in one transaction:
// delete from the source list, drop any favorite, insert into the destination
// carrying the denormalized display fields along. Either everything lands or
// nothing does, so the card can never show up in two lists at once. A card in
// neither list returns ErrNotFound; a repeated move is a no-op.
func (r *Repo) Move(ctx context.Context, userID string, catalogID int64, fromList, toList string) error {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin move: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	// read display fields from the source row before it goes away
	var (
		title, poster, release, genresJSON string
		vote                               float64
	)
	scanErr := tx.QueryRowContext(ctx, `
		SELECT title, poster_path, release_date, genres, vote_average
		FROM user_collections
		WHERE user_id = ? AND list = ? AND catalog_id = ?
	`, userID, fromList, catalogID).Scan(&title, &poster, &release, &genresJSON, &vote)
	if scanErr == sql.ErrNoRows {
		// a repeated move finds the card already in the destination; anything
		// else is a bad request, not a row to fabricate
		var n int
		if err = tx.QueryRowContext(ctx, `
			SELECT COUNT(*) FROM user_collections
			WHERE user_id = ? AND list = ? AND catalog_id = ?
		`, userID, toList, catalogID).Scan(&n); err != nil {
			return fmt.Errorf("move read dest: %w", err)
		}
		if n == 0 {
			err = ErrNotFound
			return err
		}
		if err = tx.Commit(); err != nil {
			return fmt.Errorf("commit move: %w", err)
		}
		return nil
	}
	if scanErr != nil {
		err = fmt.Errorf("move read source: %w", scanErr)
		return err
	}

	if _, err = tx.ExecContext(ctx, `
		DELETE FROM user_collections
		WHERE user_id = ? AND list = ? AND catalog_id = ?
	`, userID, fromList, catalogID); err != nil {
		return fmt.Errorf("move delete source: %w", err)
	}

	if _, err = tx.ExecContext(ctx, `
		DELETE FROM user_collections
		WHERE user_id = ? AND list = ? AND catalog_id = ?
	`, userID, models.ListFavorites, catalogID); err != nil {
		return fmt.Errorf("move delete favorite: %w", err)
	}

	if _, err = tx.ExecContext(ctx, `
		INSERT INTO user_collections (user_id, list, catalog_id, title, poster_path, release_date, genres, vote_average, added_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(user_id, list, catalog_id) DO UPDATE SET added_at = CURRENT_TIMESTAMP
	`, userID, toList, catalogID, title, poster, release, genresJSON, vote); err != nil {
		return fmt.Errorf("move insert dest: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit move: %w", err)
	}
	return nil
}
