package collections

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"

	_ "github.com/mattn/go-sqlite3"

	"swipereel/pkg/database"
	"swipereel/pkg/models"
)

func newTestRepo(t *testing.T) *Repo {
	t.Helper()
	t.Setenv("SWIPEREEL_SCHEMA_PATH", filepath.Join("..", "..", "docs", "schema.sql"))

	db, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	// each sqlite :memory: connection is its own database
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })

	if err := database.Migrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return NewRepo(db)
}

func entry(list string, id int64, title string) models.CollectionEntry {
	return models.CollectionEntry{
		UserID:      "u1",
		List:        list,
		CatalogID:   id,
		Title:       title,
		PosterPath:  "/p.jpg",
		ReleaseDate: "2010-07-16",
		Genres:      []string{"Action", "Sci-Fi"},
		VoteAverage: 8.3,
	}
}

func TestCollectionsRoundTrip(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	if err := repo.Add(ctx, entry(models.ListLiked, 27205, "Inception")); err != nil {
		t.Fatalf("add: %v", err)
	}

	got, err := repo.List(ctx, "u1", models.ListLiked)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(got))
	}
	if got[0].Title != "Inception" {
		t.Errorf("expected title Inception, got %q", got[0].Title)
	}
	if len(got[0].Genres) != 2 || got[0].Genres[1] != "Sci-Fi" {
		t.Errorf("genres did not survive the round trip: %v", got[0].Genres)
	}

	ok, err := repo.Contains(ctx, "u1", models.ListLiked, 27205)
	if err != nil || !ok {
		t.Errorf("expected contains to be true, got %v err %v", ok, err)
	}
	ok, err = repo.Contains(ctx, "u2", models.ListLiked, 27205)
	if err != nil || ok {
		t.Errorf("expected other user's contains to be false, got %v err %v", ok, err)
	}
}

func TestCollectionsAddIsUpsert(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	if err := repo.Add(ctx, entry(models.ListLiked, 1, "Old Title")); err != nil {
		t.Fatalf("first add: %v", err)
	}
	if err := repo.Add(ctx, entry(models.ListLiked, 1, "New Title")); err != nil {
		t.Fatalf("second add: %v", err)
	}

	got, err := repo.List(ctx, "u1", models.ListLiked)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("expected upsert, got %d rows", len(got))
	}
	if got[0].Title != "New Title" {
		t.Errorf("expected refreshed title, got %q", got[0].Title)
	}
}

func TestCollectionsRemove(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	if err := repo.Add(ctx, entry(models.ListDisliked, 2, "Meh")); err != nil {
		t.Fatalf("add: %v", err)
	}

	removed, err := repo.Remove(ctx, "u1", models.ListDisliked, 2)
	if err != nil || !removed {
		t.Fatalf("expected removal, got %v err %v", removed, err)
	}
	removed, err = repo.Remove(ctx, "u1", models.ListDisliked, 2)
	if err != nil || removed {
		t.Errorf("expected second removal to report false, got %v err %v", removed, err)
	}
}

func TestMoveStripsFavorite(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	if err := repo.Add(ctx, entry(models.ListLiked, 603, "The Matrix")); err != nil {
		t.Fatalf("add liked: %v", err)
	}
	if err := repo.Add(ctx, entry(models.ListFavorites, 603, "The Matrix")); err != nil {
		t.Fatalf("add favorite: %v", err)
	}

	if err := repo.Move(ctx, "u1", 603, models.ListLiked, models.ListDisliked); err != nil {
		t.Fatalf("move: %v", err)
	}

	for _, list := range []string{models.ListLiked, models.ListFavorites} {
		if ok, _ := repo.Contains(ctx, "u1", list, 603); ok {
			t.Errorf("expected card gone from %s after move", list)
		}
	}

	got, err := repo.List(ctx, "u1", models.ListDisliked)
	if err != nil {
		t.Fatalf("list disliked: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("expected 1 disliked entry, got %d", len(got))
	}
	// display fields ride along with the move
	if got[0].Title != "The Matrix" || got[0].VoteAverage != 8.3 {
		t.Errorf("display fields lost in move: %+v", got[0])
	}
}

func TestMoveUnknownCard(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	err := repo.Move(ctx, "u1", 999, models.ListLiked, models.ListDisliked)
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if ok, _ := repo.Contains(ctx, "u1", models.ListDisliked, 999); ok {
		t.Error("move of an unknown card must not create a destination row")
	}
}

func TestMoveIsIdempotent(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	if err := repo.Add(ctx, entry(models.ListLiked, 603, "The Matrix")); err != nil {
		t.Fatalf("add liked: %v", err)
	}
	for i := 0; i < 2; i++ {
		if err := repo.Move(ctx, "u1", 603, models.ListLiked, models.ListDisliked); err != nil {
			t.Fatalf("move %d: %v", i+1, err)
		}
	}

	got, err := repo.List(ctx, "u1", models.ListDisliked)
	if err != nil {
		t.Fatalf("list disliked: %v", err)
	}
	if len(got) != 1 || got[0].Title != "The Matrix" {
		t.Fatalf("expected the single moved entry to survive a repeat move, got %+v", got)
	}
}

func TestWatchedLifecycle(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	w := models.WatchedEntry{UserID: "u1", CatalogID: 550, Title: "Fight Club", Rating: 4.0}
	if err := repo.CreateWatched(ctx, w); err != nil {
		t.Fatalf("create watched: %v", err)
	}

	w.Rating = 4.5
	if err := repo.UpdateWatchedRating(ctx, w); err != nil {
		t.Fatalf("update rating: %v", err)
	}

	got, err := repo.GetWatched(ctx, "u1", 550)
	if err != nil {
		t.Fatalf("get watched: %v", err)
	}
	if got == nil || got.Rating != 4.5 {
		t.Fatalf("expected rating 4.5, got %+v", got)
	}

	ratings, err := repo.WatchedRatings(ctx, "u1")
	if err != nil {
		t.Fatalf("watched ratings: %v", err)
	}
	if ratings[550] != 4.5 {
		t.Errorf("expected ratings map to carry 4.5, got %v", ratings[550])
	}

	// both writes land in the history trail
	var history int
	if err := repo.DB.QueryRow(
		`SELECT COUNT(*) FROM watched_rating_history WHERE user_id = ? AND catalog_id = ?`,
		"u1", 550,
	).Scan(&history); err != nil {
		t.Fatalf("count history: %v", err)
	}
	if history != 2 {
		t.Errorf("expected 2 history rows, got %d", history)
	}
}

func TestUpdateRatingFallsBackToInsert(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	// no prior watched row: a stale client cache said "update"
	w := models.WatchedEntry{UserID: "u1", CatalogID: 680, Title: "Pulp Fiction", Rating: 5}
	if err := repo.UpdateWatchedRating(ctx, w); err != nil {
		t.Fatalf("update on missing row: %v", err)
	}

	got, err := repo.GetWatched(ctx, "u1", 680)
	if err != nil {
		t.Fatalf("get watched: %v", err)
	}
	if got == nil || got.Rating != 5 {
		t.Fatalf("expected inserted row with rating 5, got %+v", got)
	}
}
