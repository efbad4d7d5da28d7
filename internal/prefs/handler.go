package prefs

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"swipereel/internal/auth"
	"swipereel/pkg/models"
)

type Handler struct {
	Repo  *Repo
	Saver *AutoSaver
}

func NewHandler(repo *Repo, saver *AutoSaver) *Handler {
	return &Handler{Repo: repo, Saver: saver}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/preferences", h.get)
	rg.PUT("/preferences", h.update)
	rg.POST("/preferences/flush", h.flush)
}

// get loads preferences, walking the load state machine. Stored payload wins;
// a fresh account gets the defaults. Either way the auto-saver is armed only
// after this completes.
func (h *Handler) get(c *gin.Context) {
	claims := auth.MustGetClaims(c)
	if claims == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	// already loaded: serve the in-memory copy, which may be ahead of storage
	if current, ok := h.Saver.Current(claims.UserID); ok {
		c.JSON(http.StatusOK, current)
		return
	}

	h.Saver.BeginLoad(claims.UserID)
	stored, err := h.Repo.Get(c.Request.Context(), claims.UserID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "load failed"})
		return
	}

	if stored != nil {
		h.Saver.CompleteLoad(claims.UserID, *stored, true)
		c.JSON(http.StatusOK, *stored)
		return
	}

	defaults := models.DefaultPreferences()
	h.Saver.CompleteLoad(claims.UserID, defaults, false)
	c.JSON(http.StatusOK, defaults)
}

func (h *Handler) update(c *gin.Context) {
	claims := auth.MustGetClaims(c)
	if claims == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	var p models.Preferences
	if err := c.ShouldBindJSON(&p); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	p.Clamp()

	if !h.Saver.Mutate(claims.UserID, p) {
		c.JSON(http.StatusConflict, gin.H{"error": "preferences not loaded"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "scheduled"})
}

// flush is the page-unload beacon: send now, don't wait out the debounce.
func (h *Handler) flush(c *gin.Context) {
	claims := auth.MustGetClaims(c)
	if claims == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	h.Saver.Flush(c.Request.Context(), claims.UserID)
	c.JSON(http.StatusOK, gin.H{"status": "flushed"})
}
