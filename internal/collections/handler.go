package collections

import (
	"errors"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"swipereel/internal/auth"
	"swipereel/internal/hub"
	"swipereel/internal/reconcile"
	"swipereel/pkg/models"
)

// SessionState is the live-session side of reconciliation and moves,
// satisfied by session.Manager. Nil is fine; collection views then show
// persisted state only.
type SessionState interface {
	SessionCards(id, userID string) (liked, disliked []models.MovieCard, ok bool)
	ApplyMove(id, userID string, catalogID int64, toLiked bool)
}

type Handler struct {
	Repo     *Repo
	Cache    *FavoriteCache
	Hub      *hub.Hub
	Sessions SessionState
}

func NewHandler(repo *Repo, cache *FavoriteCache, h *hub.Hub, sessions SessionState) *Handler {
	return &Handler{Repo: repo, Cache: cache, Hub: h, Sessions: sessions}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	for _, list := range []string{models.ListLiked, models.ListDisliked, models.ListFavorites} {
		list := list
		rg.GET("/"+list, func(c *gin.Context) { h.list(c, list) })
		rg.POST("/"+list, func(c *gin.Context) { h.add(c, list) })
		rg.DELETE("/"+list+"/:catalog_id", func(c *gin.Context) { h.remove(c, list) })
	}

	rg.GET("/watched", h.listWatched)
	rg.POST("/watched", h.addWatched)
	rg.DELETE("/watched/:catalog_id", h.removeWatched)

	rg.POST("/collections/move", h.move)
	rg.GET("/collections/overview", h.overview)
}

func (h *Handler) userID(c *gin.Context) (string, bool) {
	claims := auth.MustGetClaims(c)
	if claims == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return "", false
	}
	return claims.UserID, true
}

func (h *Handler) broadcast(c *gin.Context, userID, list string, catalogID int64) {
	refresh := h.Cache.BumpRefresh(c.Request.Context(), userID)
	if h.Hub != nil {
		ev := hub.CollectionEvent{
			Type:      "collections.changed",
			UserID:    userID,
			List:      list,
			CatalogID: catalogID,
			Refresh:   refresh,
			At:        time.Now().UTC(),
		}
		go h.Hub.BroadcastJSON(ev)
	}
}

func (h *Handler) list(c *gin.Context, list string) {
	userID, ok := h.userID(c)
	if !ok {
		return
	}

	entries, err := h.Repo.List(c.Request.Context(), userID, list)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "list failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": entries, "total": len(entries)})
}

type addReq struct {
	Movie models.MovieCard `json:"movie"`
}

func (h *Handler) add(c *gin.Context, list string) {
	userID, ok := h.userID(c)
	if !ok {
		return
	}

	var req addReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	if !req.Movie.Valid() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "catalog_id required"})
		return
	}

	// favoriting is only offered once a movie is liked
	if list == models.ListFavorites {
		liked, err := h.Repo.Contains(c.Request.Context(), userID, models.ListLiked, req.Movie.CatalogID)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "lookup failed"})
			return
		}
		if !liked {
			c.JSON(http.StatusConflict, gin.H{"error": "movie must be liked before favoriting"})
			return
		}
	}

	entry := models.CollectionEntry{
		UserID:      userID,
		List:        list,
		CatalogID:   req.Movie.CatalogID,
		Title:       req.Movie.Title,
		PosterPath:  req.Movie.PosterPath,
		ReleaseDate: req.Movie.ReleaseDate,
		Genres:      req.Movie.Genres,
		VoteAverage: req.Movie.VoteAverage,
	}
	// upsert on conflict makes the double-toggle race a no-op
	if err := h.Repo.Add(c.Request.Context(), entry); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "save failed"})
		return
	}

	if list == models.ListFavorites {
		h.Cache.Add(c.Request.Context(), userID, req.Movie.CatalogID)
	}
	h.broadcast(c, userID, list, req.Movie.CatalogID)

	c.JSON(http.StatusOK, gin.H{"status": "added", "list": list, "catalog_id": req.Movie.CatalogID})
}

func (h *Handler) remove(c *gin.Context, list string) {
	userID, ok := h.userID(c)
	if !ok {
		return
	}

	catalogID, err := strconv.ParseInt(c.Param("catalog_id"), 10, 64)
	if err != nil || catalogID <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid catalog id"})
		return
	}

	removed, err := h.Repo.Remove(c.Request.Context(), userID, list, catalogID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "remove failed"})
		return
	}
	if !removed {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
		return
	}

	// un-liking cascades to un-favoriting
	if list == models.ListLiked {
		if _, err := h.Repo.Remove(c.Request.Context(), userID, models.ListFavorites, catalogID); err != nil {
			log.Printf("[collections] cascade unfavorite %d: %v", catalogID, err)
		}
		h.Cache.Remove(c.Request.Context(), userID, catalogID)
	}
	if list == models.ListFavorites {
		h.Cache.Remove(c.Request.Context(), userID, catalogID)
	}
	h.broadcast(c, userID, list, catalogID)

	c.JSON(http.StatusOK, gin.H{"status": "removed"})
}

type moveReq struct {
	CatalogID int64  `json:"catalog_id"`
	Direction string `json:"direction"`  // to_liked | to_disliked
	SessionID string `json:"session_id"` // optional: keep session sets in step
}

func (h *Handler) move(c *gin.Context) {
	userID, ok := h.userID(c)
	if !ok {
		return
	}

	var req moveReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	if req.CatalogID <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "catalog_id required"})
		return
	}

	var from, to string
	switch req.Direction {
	case "to_liked":
		from, to = models.ListDisliked, models.ListLiked
	case "to_disliked":
		from, to = models.ListLiked, models.ListDisliked
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "direction must be to_liked or to_disliked"})
		return
	}

	if err := h.Repo.Move(c.Request.Context(), userID, req.CatalogID, from, to); err != nil {
		if errors.Is(err, ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
			return
		}
		// ambiguous failure: hand clients fresh server truth to re-render from
		log.Printf("[collections] move %d %s: %v", req.CatalogID, req.Direction, err)
		liked, _ := h.Repo.List(c.Request.Context(), userID, models.ListLiked)
		disliked, _ := h.Repo.List(c.Request.Context(), userID, models.ListDisliked)
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":    "move failed",
			"liked":    liked,
			"disliked": disliked,
		})
		return
	}

	h.Cache.Remove(c.Request.Context(), userID, req.CatalogID)
	if req.SessionID != "" && h.Sessions != nil {
		h.Sessions.ApplyMove(req.SessionID, userID, req.CatalogID, to == models.ListLiked)
	}
	h.broadcast(c, userID, to, req.CatalogID)

	c.JSON(http.StatusOK, gin.H{"status": "moved", "catalog_id": req.CatalogID, "list": to})
}

type watchedReq struct {
	Movie  models.MovieCard `json:"movie"`
	Rating float64          `json:"rating"`
}

func (h *Handler) listWatched(c *gin.Context) {
	userID, ok := h.userID(c)
	if !ok {
		return
	}

	entries, err := h.Repo.ListWatched(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "list failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": entries, "total": len(entries)})
}

func (h *Handler) addWatched(c *gin.Context) {
	userID, ok := h.userID(c)
	if !ok {
		return
	}

	var req watchedReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	if !req.Movie.Valid() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "catalog_id required"})
		return
	}
	if !models.ValidRating(req.Rating) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "rating must be 0-5 in 0.5 steps"})
		return
	}

	entry := models.WatchedEntry{
		UserID:     userID,
		CatalogID:  req.Movie.CatalogID,
		Title:      req.Movie.Title,
		PosterPath: req.Movie.PosterPath,
		Rating:     req.Rating,
	}

	existing, err := h.Repo.GetWatched(c.Request.Context(), userID, req.Movie.CatalogID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "lookup failed"})
		return
	}
	if existing != nil {
		err = h.Repo.UpdateWatchedRating(c.Request.Context(), entry)
	} else {
		err = h.Repo.CreateWatched(c.Request.Context(), entry)
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "save failed"})
		return
	}

	h.broadcast(c, userID, "watched", req.Movie.CatalogID)
	c.JSON(http.StatusOK, gin.H{"status": "saved", "catalog_id": req.Movie.CatalogID, "rating": req.Rating})
}

func (h *Handler) removeWatched(c *gin.Context) {
	userID, ok := h.userID(c)
	if !ok {
		return
	}

	catalogID, err := strconv.ParseInt(c.Param("catalog_id"), 10, 64)
	if err != nil || catalogID <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid catalog id"})
		return
	}

	removed, err := h.Repo.RemoveWatched(c.Request.Context(), userID, catalogID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "remove failed"})
		return
	}
	if !removed {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
		return
	}

	h.broadcast(c, userID, "watched", catalogID)
	c.JSON(http.StatusOK, gin.H{"status": "removed"})
}

// overview merges persisted lists, the favorite-membership set, and (when a
// session_id is supplied) the live session decision sets into the three
// display groups.
func (h *Handler) overview(c *gin.Context) {
	userID, ok := h.userID(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()

	var in reconcile.Input

	if sid := c.Query("session_id"); sid != "" && h.Sessions != nil {
		if liked, disliked, ok := h.Sessions.SessionCards(sid, userID); ok {
			in.SessionLiked = liked
			in.SessionDisliked = disliked
		}
	}

	for _, src := range []struct {
		list string
		dst  *[]models.MovieCard
	}{
		{models.ListLiked, &in.PersistedLiked},
		{models.ListDisliked, &in.PersistedDisliked},
		{models.ListFavorites, &in.PersistedFavorites},
	} {
		entries, err := h.Repo.List(ctx, userID, src.list)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "list failed"})
			return
		}
		cards := make([]models.MovieCard, 0, len(entries))
		for _, e := range entries {
			cards = append(cards, e.Card())
		}
		*src.dst = cards
	}

	// favorite membership: cache first, DB truth on miss
	members, fromCache := h.Cache.Members(ctx, userID)
	if !fromCache {
		ids, err := h.Repo.IDs(ctx, userID, models.ListFavorites)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "list failed"})
			return
		}
		members = make(map[int64]struct{}, len(ids))
		for _, id := range ids {
			members[id] = struct{}{}
		}
		h.Cache.Replace(ctx, userID, ids)
	}
	in.FavoriteIDs = members

	q := c.Request.URL.Query()
	groups := reconcile.FilterFromQuery(q).ApplyGroups(reconcile.Merge(in))
	if order := reconcile.SortFromQuery(q); order != "" {
		reconcile.SortCards(groups.Favorites, order)
		reconcile.SortCards(groups.Liked, order)
		reconcile.SortCards(groups.Disliked, order)
	}

	c.JSON(http.StatusOK, groups)
}
