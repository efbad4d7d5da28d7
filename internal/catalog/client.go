package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"swipereel/pkg/models"
)

// Client talks to the movie catalog upstream (TMDB-compatible API).
type Client struct {
	apiKey  string
	baseURL string
	http    *http.Client

	genreMu sync.Mutex
	genres  map[int]string // genre ID -> name, fetched lazily
}

func NewClient(apiKey, baseURL string) *Client {
	return &Client{
		apiKey:  apiKey,
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 15 * time.Second},
	}
}

// DiscoverFilter narrows a discover request. Zero values mean "no constraint".
type DiscoverFilter struct {
	Page          int
	GenreIDs      []int
	YearFrom      int
	YearTo        int
	RatingFrom    float64
	RatingTo      float64
	RuntimeFrom   int
	RuntimeTo     int
	Language      string
	Certification string
}

type discoverResponse struct {
	Page         int       `json:"page"`
	Results      []rawCard `json:"results"`
	TotalPages   int       `json:"total_pages"`
	TotalResults int       `json:"total_results"`
}

// Discover fetches one page of movies matching the filter, normalized into
// canonical cards.
func (c *Client) Discover(ctx context.Context, f DiscoverFilter) ([]models.MovieCard, error) {
	q := url.Values{}
	q.Set("api_key", c.apiKey)
	q.Set("sort_by", "popularity.desc")
	if f.Page > 0 {
		q.Set("page", fmt.Sprintf("%d", f.Page))
	}
	if len(f.GenreIDs) > 0 {
		ids := make([]string, 0, len(f.GenreIDs))
		for _, id := range f.GenreIDs {
			ids = append(ids, fmt.Sprintf("%d", id))
		}
		// pipe = OR within the genre category
		q.Set("with_genres", strings.Join(ids, "|"))
	}
	if f.YearFrom > 0 {
		q.Set("primary_release_date.gte", fmt.Sprintf("%d-01-01", f.YearFrom))
	}
	if f.YearTo > 0 {
		q.Set("primary_release_date.lte", fmt.Sprintf("%d-12-31", f.YearTo))
	}
	if f.RatingFrom > 0 {
		q.Set("vote_average.gte", fmt.Sprintf("%.1f", f.RatingFrom))
	}
	if f.RatingTo > 0 {
		q.Set("vote_average.lte", fmt.Sprintf("%.1f", f.RatingTo))
	}
	if f.RuntimeFrom > 0 {
		q.Set("with_runtime.gte", fmt.Sprintf("%d", f.RuntimeFrom))
	}
	if f.RuntimeTo > 0 {
		q.Set("with_runtime.lte", fmt.Sprintf("%d", f.RuntimeTo))
	}
	if f.Language != "" && f.Language != "any" {
		q.Set("with_original_language", f.Language)
	}
	if f.Certification != "" && f.Certification != "any" {
		q.Set("certification_country", "US")
		q.Set("certification.lte", f.Certification)
	}

	var resp discoverResponse
	if err := c.getJSON(ctx, "/discover/movie?"+q.Encode(), &resp); err != nil {
		return nil, err
	}
	return c.normalizeAll(ctx, resp.Results), nil
}

// Search fetches one page of free-text results.
func (c *Client) Search(ctx context.Context, query string, page int) ([]models.MovieCard, error) {
	q := url.Values{}
	q.Set("api_key", c.apiKey)
	q.Set("query", query)
	if page > 0 {
		q.Set("page", fmt.Sprintf("%d", page))
	}

	var resp discoverResponse
	if err := c.getJSON(ctx, "/search/movie?"+q.Encode(), &resp); err != nil {
		return nil, err
	}
	return c.normalizeAll(ctx, resp.Results), nil
}

func (c *Client) normalizeAll(ctx context.Context, raws []rawCard) []models.MovieCard {
	genres, _ := c.genreNames(ctx)
	out := make([]models.MovieCard, 0, len(raws))
	for _, raw := range raws {
		card := raw.Normalize(genres)
		if !card.Valid() {
			continue
		}
		out = append(out, card)
	}
	return out
}

// GetDetail fetches a single movie by catalog ID.
func (c *Client) GetDetail(ctx context.Context, catalogID int64) (*models.MovieCard, error) {
	q := url.Values{}
	q.Set("api_key", c.apiKey)

	var raw rawCard
	if err := c.getJSON(ctx, fmt.Sprintf("/movie/%d?%s", catalogID, q.Encode()), &raw); err != nil {
		return nil, err
	}

	card := raw.Normalize(nil)
	if !card.Valid() {
		return nil, fmt.Errorf("detail for %d: missing catalog id in response", catalogID)
	}
	return &card, nil
}

type genreListResponse struct {
	Genres []struct {
		ID   int    `json:"id"`
		Name string `json:"name"`
	} `json:"genres"`
}

// genreNames returns the genre ID to name map, fetching it on first use.
func (c *Client) genreNames(ctx context.Context) (map[int]string, error) {
	c.genreMu.Lock()
	defer c.genreMu.Unlock()
	if c.genres != nil {
		return c.genres, nil
	}

	q := url.Values{}
	q.Set("api_key", c.apiKey)

	var resp genreListResponse
	if err := c.getJSON(ctx, "/genre/movie/list?"+q.Encode(), &resp); err != nil {
		return nil, err
	}

	m := make(map[int]string, len(resp.Genres))
	for _, g := range resp.Genres {
		m[g.ID] = g.Name
	}
	c.genres = m
	return m, nil
}

// GenreIDsFor maps genre names back to upstream IDs; unknown names are skipped.
func (c *Client) GenreIDsFor(ctx context.Context, names []string) []int {
	genres, err := c.genreNames(ctx)
	if err != nil {
		return nil
	}
	var ids []int
	for _, want := range names {
		for id, name := range genres {
			if strings.EqualFold(name, want) {
				ids = append(ids, id)
				break
			}
		}
	}
	return ids
}

func (c *Client) getJSON(ctx context.Context, path string, v any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("catalog: build request: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("catalog: request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusServiceUnavailable {
		return ErrUnavailable
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("catalog: status %d: %s", resp.StatusCode, string(body))
	}

	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return fmt.Errorf("catalog: decode: %w", err)
	}
	return nil
}
