package catalog

import (
	"encoding/json"
	"testing"
)

func decodeRaw(t *testing.T, payload string) rawCard {
	t.Helper()
	var r rawCard
	if err := json.Unmarshal([]byte(payload), &r); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}
	return r
}

func TestCatalogIDVariants(t *testing.T) {
	cases := []struct {
		name    string
		payload string
		want    int64
	}{
		{"plain number id", `{"id": 550}`, 550},
		{"numeric string id", `{"id": "550"}`, 550},
		{"padded numeric string", `{"id": " 550 "}`, 550},
		{"integral float id", `{"id": 603.0}`, 603},
		{"tmdbId fallback", `{"tmdbId": 680}`, 680},
		{"movieId fallback", `{"movieId": "27205"}`, 27205},
		{"id wins over tmdbId", `{"id": 1, "tmdbId": 2, "movieId": 3}`, 1},
		{"tmdbId wins over movieId", `{"tmdbId": 2, "movieId": 3}`, 2},
		{"invalid id falls through to tmdbId", `{"id": "abc", "tmdbId": 99}`, 99},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := decodeRaw(t, tc.payload)
			if got := r.catalogID(); got != tc.want {
				t.Errorf("expected catalog id %d, got %d", tc.want, got)
			}
		})
	}
}

func TestCatalogIDRejectsMalformed(t *testing.T) {
	cases := []struct {
		name    string
		payload string
	}{
		{"missing entirely", `{"title": "No ID"}`},
		{"null id", `{"id": null}`},
		{"zero id", `{"id": 0}`},
		{"negative id", `{"id": -5}`},
		{"alphabetic string", `{"id": "abc"}`},
		{"fractional float", `{"id": 550.5}`},
		{"empty string", `{"id": ""}`},
		{"boolean", `{"id": true}`},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := decodeRaw(t, tc.payload)
			if got := r.catalogID(); got != 0 {
				t.Errorf("expected invalid card (id 0), got %d", got)
			}
			if r.Normalize(nil).Valid() {
				t.Error("expected normalized card to be invalid")
			}
		})
	}
}

func TestNormalize(t *testing.T) {
	t.Run("discover result resolves genre ids by name map", func(t *testing.T) {
		r := decodeRaw(t, `{
			"id": 550,
			"title": "Fight Club",
			"genre_ids": [18, 53],
			"vote_average": 8.4,
			"original_language": "en",
			"release_date": "1999-10-15"
		}`)
		card := r.Normalize(map[int]string{18: "Drama", 53: "Thriller"})

		if !card.Valid() {
			t.Fatal("expected valid card")
		}
		if card.Title != "Fight Club" {
			t.Errorf("expected title Fight Club, got %q", card.Title)
		}
		if len(card.Genres) != 2 || card.Genres[0] != "Drama" {
			t.Errorf("unexpected genres: %v", card.Genres)
		}
		if card.Year() != 1999 {
			t.Errorf("expected year 1999, got %d", card.Year())
		}
	})

	t.Run("detail result keeps inline genre names", func(t *testing.T) {
		r := decodeRaw(t, `{
			"id": 603,
			"title": "The Matrix",
			"genres": [{"id": 28, "name": "Action"}, {"id": 878, "name": "Science Fiction"}],
			"runtime": 136,
			"certification": "R"
		}`)
		card := r.Normalize(nil)

		if len(card.Genres) != 2 || card.Genres[1] != "Science Fiction" {
			t.Errorf("unexpected genres: %v", card.Genres)
		}
		if card.Runtime != 136 {
			t.Errorf("expected runtime 136, got %d", card.Runtime)
		}
		if card.AgeRating != "R" {
			t.Errorf("expected age rating R, got %q", card.AgeRating)
		}
	})

	t.Run("name stands in for a missing title", func(t *testing.T) {
		r := decodeRaw(t, `{"id": 120, "name": "The Fellowship"}`)
		if got := r.Normalize(nil).Title; got != "The Fellowship" {
			t.Errorf("expected title from name, got %q", got)
		}
	})

	t.Run("re-keyed recommendation payload survives", func(t *testing.T) {
		r := decodeRaw(t, `{
			"movieId": "157336",
			"title": "Interstellar",
			"match_score": 0.93,
			"match_reason": "matches your sci-fi weight"
		}`)
		card := r.Normalize(nil)

		if card.CatalogID != 157336 {
			t.Errorf("expected catalog id 157336, got %d", card.CatalogID)
		}
		if card.MatchScore != 0.93 {
			t.Errorf("expected match score 0.93, got %v", card.MatchScore)
		}
	})
}
