package catalog

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"swipereel/pkg/models"
)

// Repo is the local movie cache. Random draws and detail lookups hit this
// first; the upstream client is the fallback.
type Repo struct {
	DB *sql.DB
}

func NewRepo(db *sql.DB) *Repo {
	return &Repo{DB: db}
}

func (r *Repo) Upsert(ctx context.Context, m models.MovieCard) error {
	genres, _ := json.Marshal(m.Genres)
	_, err := r.DB.ExecContext(ctx, `
		INSERT INTO movie_cache (catalog_id, title, poster_path, overview, release_date, genres, vote_average, runtime, language, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(catalog_id) DO UPDATE SET
			title = excluded.title,
			poster_path = excluded.poster_path,
			overview = excluded.overview,
			release_date = excluded.release_date,
			genres = excluded.genres,
			vote_average = excluded.vote_average,
			runtime = excluded.runtime,
			language = excluded.language,
			updated_at = CURRENT_TIMESTAMP
	`, m.CatalogID, m.Title, m.PosterPath, m.Overview, m.ReleaseDate, string(genres), m.VoteAverage, m.Runtime, m.Language)
	if err != nil {
		return fmt.Errorf("upsert movie: %w", err)
	}
	return nil
}

const movieColumns = `catalog_id, title, poster_path, overview, release_date, genres, vote_average, runtime, language`

func scanMovie(scan func(dest ...any) error) (models.MovieCard, error) {
	var (
		m          models.MovieCard
		genresJSON string
	)
	if err := scan(&m.CatalogID, &m.Title, &m.PosterPath, &m.Overview, &m.ReleaseDate, &genresJSON, &m.VoteAverage, &m.Runtime, &m.Language); err != nil {
		return models.MovieCard{}, err
	}
	_ = json.Unmarshal([]byte(genresJSON), &m.Genres)
	return m, nil
}

func (r *Repo) GetByID(ctx context.Context, catalogID int64) (*models.MovieCard, error) {
	row := r.DB.QueryRowContext(ctx, `
		SELECT `+movieColumns+`
		FROM movie_cache
		WHERE catalog_id = ?
	`, catalogID)

	m, err := scanMovie(row.Scan)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("get movie: %w", err)
	}
	return &m, nil
}

// Random draws n distinct cards from the cache.
func (r *Repo) Random(ctx context.Context, n int) ([]models.MovieCard, error) {
	if n <= 0 || n > 100 {
		n = 10
	}

	rows, err := r.DB.QueryContext(ctx, `
		SELECT `+movieColumns+`
		FROM movie_cache
		ORDER BY RANDOM()
		LIMIT ?
	`, n)
	if err != nil {
		return nil, fmt.Errorf("random movies: %w", err)
	}
	defer rows.Close()

	out := make([]models.MovieCard, 0, n)
	for rows.Next() {
		m, err := scanMovie(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("scan movie row: %w", err)
		}
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows err: %w", err)
	}
	return out, nil
}

func (r *Repo) Count(ctx context.Context) (int, error) {
	var total int
	if err := r.DB.QueryRowContext(ctx, `SELECT COUNT(*) FROM movie_cache`).Scan(&total); err != nil {
		return 0, fmt.Errorf("count movies: %w", err)
	}
	return total, nil
}
