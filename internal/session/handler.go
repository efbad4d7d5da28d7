package session

import (
	"context"
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"swipereel/internal/auth"
	"swipereel/internal/reconcile"
	"swipereel/pkg/models"
)

// CardSource draws cards when a session starts without an explicit deck,
// satisfied by catalog.Repo.
type CardSource interface {
	Random(ctx context.Context, n int) ([]models.MovieCard, error)
}

// CollectionSource supplies the persisted lists the summary view reconciles
// against, satisfied by collections.Repo.
type CollectionSource interface {
	List(ctx context.Context, userID, list string) ([]models.CollectionEntry, error)
	IDs(ctx context.Context, userID, list string) ([]int64, error)
	WatchedRatings(ctx context.Context, userID string) (map[int64]float64, error)
}

type Handler struct {
	Manager     *Manager
	Cards       CardSource
	Collections CollectionSource
}

func NewHandler(m *Manager, cards CardSource, cols CollectionSource) *Handler {
	return &Handler{Manager: m, Cards: cards, Collections: cols}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/sessions", h.start)
	rg.GET("/sessions/:id", h.status)
	rg.POST("/sessions/:id/gesture", h.gesture)
	rg.POST("/sessions/:id/decision", h.decide)
	rg.GET("/sessions/:id/summary", h.summary)
	rg.DELETE("/sessions/:id", h.end)
}

type startReq struct {
	Movies []models.MovieCard `json:"movies"` // deck from a prior search
	Count  int                `json:"count"`  // or: draw N random cards
}

func (h *Handler) start(c *gin.Context) {
	claims := auth.MustGetClaims(c)
	if claims == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	var req startReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}

	cards := req.Movies
	if len(cards) == 0 {
		count := req.Count
		if count <= 0 || count > 100 {
			count = 10
		}
		var err error
		cards, err = h.Cards.Random(c.Request.Context(), count)
		if err != nil {
			c.JSON(http.StatusBadGateway, gin.H{"error": "card fetch failed", "retryable": true})
			return
		}
	}

	// malformed cards never enter a queue; a missing ID must not become a key
	valid := cards[:0]
	for _, card := range cards {
		if card.Valid() {
			valid = append(valid, card)
		}
	}
	if len(valid) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "no usable movies"})
		return
	}

	ratings, err := h.Collections.WatchedRatings(c.Request.Context(), claims.UserID)
	if err != nil {
		log.Printf("[session] watched seed for %s: %v", claims.UserID, err)
		ratings = nil
	}

	s := h.Manager.Start(claims.UserID, valid, ratings)
	c.JSON(http.StatusCreated, s.Status())
}

func (h *Handler) lookup(c *gin.Context) (*Session, bool) {
	claims := auth.MustGetClaims(c)
	if claims == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return nil, false
	}
	s, ok := h.Manager.Get(c.Param("id"), claims.UserID)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "session not found"})
		return nil, false
	}
	return s, true
}

func (h *Handler) status(c *gin.Context) {
	s, ok := h.lookup(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, s.Status())
}

type gestureReq struct {
	DX float64 `json:"dx"`
	DY float64 `json:"dy"`
}

func (h *Handler) gesture(c *gin.Context) {
	s, ok := h.lookup(c)
	if !ok {
		return
	}

	var req gestureReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}

	res, err := h.Manager.Gesture(s, req.DX, req.DY)
	if err != nil {
		writeDispatchError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

type decideReq struct {
	Decision Decision `json:"decision"`
	Rating   float64  `json:"rating"`
}

func (h *Handler) decide(c *gin.Context) {
	s, ok := h.lookup(c)
	if !ok {
		return
	}

	var req decideReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}

	res, err := h.Manager.Decide(s, req.Decision, req.Rating)
	if err != nil {
		writeDispatchError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// summary reconciles the finished (or in-progress) session against the
// persisted collections and returns the three display groups, honoring the
// same filter/sort query params as the collection views.
func (h *Handler) summary(c *gin.Context) {
	s, ok := h.lookup(c)
	if !ok {
		return
	}

	ctx := c.Request.Context()
	liked, disliked, _ := h.Manager.SessionCards(s.ID, s.UserID)

	in := reconcile.Input{
		SessionLiked:    liked,
		SessionDisliked: disliked,
	}
	if entries, err := h.Collections.List(ctx, s.UserID, models.ListLiked); err == nil {
		in.PersistedLiked = entryCards(entries)
	} else {
		log.Printf("[session] summary liked fetch: %v", err)
	}
	if entries, err := h.Collections.List(ctx, s.UserID, models.ListDisliked); err == nil {
		in.PersistedDisliked = entryCards(entries)
	} else {
		log.Printf("[session] summary disliked fetch: %v", err)
	}
	if entries, err := h.Collections.List(ctx, s.UserID, models.ListFavorites); err == nil {
		in.PersistedFavorites = entryCards(entries)
	} else {
		log.Printf("[session] summary favorites fetch: %v", err)
	}
	if ids, err := h.Collections.IDs(ctx, s.UserID, models.ListFavorites); err == nil {
		in.FavoriteIDs = make(map[int64]struct{}, len(ids))
		for _, id := range ids {
			in.FavoriteIDs[id] = struct{}{}
		}
	}

	q := c.Request.URL.Query()
	groups := reconcile.FilterFromQuery(q).ApplyGroups(reconcile.Merge(in))
	if order := reconcile.SortFromQuery(q); order != "" {
		reconcile.SortCards(groups.Favorites, order)
		reconcile.SortCards(groups.Liked, order)
		reconcile.SortCards(groups.Disliked, order)
	}

	st := s.Status()
	c.JSON(http.StatusOK, gin.H{
		"session": st,
		"groups":  groups,
	})
}

func entryCards(entries []models.CollectionEntry) []models.MovieCard {
	out := make([]models.MovieCard, 0, len(entries))
	for _, e := range entries {
		out = append(out, e.Card())
	}
	return out
}

func (h *Handler) end(c *gin.Context) {
	claims := auth.MustGetClaims(c)
	if claims == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}
	if !h.Manager.End(c.Param("id"), claims.UserID) {
		c.JSON(http.StatusNotFound, gin.H{"error": "session not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "discarded"})
}

func writeDispatchError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ErrComplete):
		c.JSON(http.StatusConflict, gin.H{"error": "session complete"})
	case errors.Is(err, ErrInFlight):
		// double-submission is suppressed, not surfaced as a failure
		c.JSON(http.StatusConflict, gin.H{"error": "in_flight"})
	case errors.Is(err, ErrRating):
		c.JSON(http.StatusBadRequest, gin.H{"error": "rating must be 0-5 in 0.5 steps"})
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid decision"})
	}
}
