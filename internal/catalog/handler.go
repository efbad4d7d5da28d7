package catalog

import (
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"swipereel/pkg/models"
)

type Handler struct {
	Repo   *Repo
	Client *Client // nil means cache-only mode
}

func NewHandler(repo *Repo, client *Client) *Handler {
	return &Handler{Repo: repo, Client: client}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/random", h.random)
	rg.POST("/search", h.search)
	rg.GET("/:id", h.detail)
}

func (h *Handler) random(c *gin.Context) {
	count := 10
	if v := c.Query("count"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= 100 {
			count = n
		}
	}

	cards, err := h.Repo.Random(c.Request.Context(), count)
	if err != nil {
		log.Printf("[catalog] random cache read: %v", err)
	}

	if len(cards) < count && h.Client != nil {
		upstream, err := h.Client.Discover(c.Request.Context(), DiscoverFilter{Page: 1})
		if err != nil {
			if len(cards) > 0 {
				// partial cache result beats a hard failure
				c.JSON(http.StatusOK, gin.H{"movies": cards})
				return
			}
			writeUpstreamError(c, err)
			return
		}
		cards = mergeCards(cards, upstream, count)
		for _, m := range upstream {
			if err := h.Repo.Upsert(c.Request.Context(), m); err != nil {
				log.Printf("[catalog] cache upsert %d: %v", m.CatalogID, err)
			}
		}
	}

	c.JSON(http.StatusOK, gin.H{"movies": cards})
}

func (h *Handler) search(c *gin.Context) {
	var prefs models.Preferences
	if err := c.ShouldBindJSON(&prefs); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	prefs.Clamp()

	if h.Client == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "service_unavailable"})
		return
	}

	var cards []models.MovieCard
	var err error
	if prefs.Description != "" {
		// free text goes to the search endpoint, which ignores discover
		// parameters, so the range bounds are applied here instead
		cards, err = h.Client.Search(c.Request.Context(), prefs.Description, 1)
		if err == nil {
			cards = filterByRanges(cards, prefs)
		}
	} else {
		cards, err = h.Client.Discover(c.Request.Context(), filterFromPreferences(c, h.Client, prefs))
	}
	if err != nil {
		writeUpstreamError(c, err)
		return
	}

	for _, m := range cards {
		if err := h.Repo.Upsert(c.Request.Context(), m); err != nil {
			log.Printf("[catalog] cache upsert %d: %v", m.CatalogID, err)
		}
	}

	c.JSON(http.StatusOK, gin.H{"movies": cards})
}

func (h *Handler) detail(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid catalog id"})
		return
	}

	card, err := h.Repo.GetByID(c.Request.Context(), id)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "lookup failed"})
		return
	}
	if card == nil && h.Client != nil {
		card, err = h.Client.GetDetail(c.Request.Context(), id)
		if err != nil {
			writeUpstreamError(c, err)
			return
		}
		if err := h.Repo.Upsert(c.Request.Context(), *card); err != nil {
			log.Printf("[catalog] cache upsert %d: %v", card.CatalogID, err)
		}
	}
	if card == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
		return
	}

	c.JSON(http.StatusOK, card)
}

// filterFromPreferences maps the taste profile onto the upstream discover
// parameters. Genres with weight > 5 are treated as wanted. The mood sliders
// have no upstream equivalent and only shape the stored profile; they are not
// mapped here.
func filterFromPreferences(c *gin.Context, client *Client, p models.Preferences) DiscoverFilter {
	var wanted []string
	for name, weight := range p.GenreWeights {
		if weight > 5 {
			wanted = append(wanted, name)
		}
	}

	return DiscoverFilter{
		Page:          1,
		GenreIDs:      client.GenreIDsFor(c.Request.Context(), wanted),
		YearFrom:      p.YearRange[0],
		YearTo:        p.YearRange[1],
		RatingFrom:    p.RatingRange[0],
		RatingTo:      p.RatingRange[1],
		RuntimeFrom:   p.RuntimeRange[0],
		RuntimeTo:     p.RuntimeRange[1],
		Language:      p.Language,
		Certification: p.AgeRating,
	}
}

// filterByRanges keeps cards inside the year and rating bounds. A zero upper
// bound means the client sent no constraint.
func filterByRanges(cards []models.MovieCard, p models.Preferences) []models.MovieCard {
	out := make([]models.MovieCard, 0, len(cards))
	for _, m := range cards {
		if p.YearRange[1] > 0 {
			if y := m.Year(); y != 0 && (y < p.YearRange[0] || y > p.YearRange[1]) {
				continue
			}
		}
		if p.RatingRange[1] > 0 && (m.VoteAverage < p.RatingRange[0] || m.VoteAverage > p.RatingRange[1]) {
			continue
		}
		out = append(out, m)
	}
	return out
}

func writeUpstreamError(c *gin.Context, err error) {
	if errors.Is(err, ErrUnavailable) {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "service_unavailable"})
		return
	}
	log.Printf("[catalog] upstream: %v", err)
	c.JSON(http.StatusBadGateway, gin.H{"error": "catalog fetch failed", "retryable": true})
}

func mergeCards(have, more []models.MovieCard, want int) []models.MovieCard {
	seen := make(map[int64]struct{}, len(have))
	for _, m := range have {
		seen[m.CatalogID] = struct{}{}
	}
	for _, m := range more {
		if len(have) >= want {
			break
		}
		if _, dup := seen[m.CatalogID]; dup {
			continue
		}
		seen[m.CatalogID] = struct{}{}
		have = append(have, m)
	}
	return have
}
