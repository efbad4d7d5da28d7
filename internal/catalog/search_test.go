package catalog

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"swipereel/pkg/models"
)

func TestClientSearch(t *testing.T) {
	var gotQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/search/movie":
			gotQuery = r.URL.Query().Get("query")
			fmt.Fprint(w, `{"page":1,"results":[{"id":603,"title":"The Matrix","release_date":"1999-03-31","vote_average":8.2},{"title":"missing id"}]}`)
		case "/genre/movie/list":
			fmt.Fprint(w, `{"genres":[]}`)
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	client := NewClient("test-key", srv.URL)
	cards, err := client.Search(context.Background(), "mind-bending heist", 1)
	if err != nil {
		t.Fatalf("search failed: %v", err)
	}
	if gotQuery != "mind-bending heist" {
		t.Errorf("expected the free text forwarded verbatim, got %q", gotQuery)
	}
	if len(cards) != 1 {
		t.Fatalf("expected 1 card after dropping the invalid result, got %d", len(cards))
	}
	if cards[0].CatalogID != 603 || cards[0].Title != "The Matrix" {
		t.Errorf("unexpected card: %+v", cards[0])
	}
}

func TestFilterByRanges(t *testing.T) {
	cards := []models.MovieCard{
		{CatalogID: 1, Title: "Too Old", ReleaseDate: "1985-06-01", VoteAverage: 7.0},
		{CatalogID: 2, Title: "In Range", ReleaseDate: "2005-06-01", VoteAverage: 7.5},
		{CatalogID: 3, Title: "Low Rated", ReleaseDate: "2010-06-01", VoteAverage: 4.0},
		{CatalogID: 4, Title: "Undated", VoteAverage: 8.0},
	}

	p := models.Preferences{YearRange: [2]int{1990, 2020}, RatingRange: [2]float64{6, 10}}
	got := filterByRanges(cards, p)
	if len(got) != 2 || got[0].CatalogID != 2 || got[1].CatalogID != 4 {
		t.Fatalf("expected cards 2 and 4 to survive, got %+v", got)
	}

	// zero bounds mean the client sent no constraint
	if got := filterByRanges(cards, models.Preferences{}); len(got) != len(cards) {
		t.Errorf("expected unconstrained filter to keep all %d cards, got %d", len(cards), len(got))
	}
}
