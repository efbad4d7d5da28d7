package friends

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"swipereel/internal/auth"
)

// UserLookup resolves usernames to accounts so friends can be added by handle.
type UserLookup interface {
	GetByUsername(ctx context.Context, username string) (*auth.User, error)
	GetByID(ctx context.Context, id string) (*auth.User, error)
}

type Handler struct {
	Repo  *Repo
	Users UserLookup
}

func NewHandler(repo *Repo, users UserLookup) *Handler {
	return &Handler{Repo: repo, Users: users}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/friends", h.list)
	rg.POST("/friends", h.add)
	rg.DELETE("/friends/:id", h.remove)
}

func (h *Handler) list(c *gin.Context) {
	claims := auth.MustGetClaims(c)
	if claims == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	profiles, err := h.Repo.List(c.Request.Context(), claims.UserID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list friends"})
		return
	}
	if profiles == nil {
		profiles = []FriendProfile{}
	}
	c.JSON(http.StatusOK, gin.H{"friends": profiles})
}

type addFriendRequest struct {
	Username string `json:"username"`
	UserID   string `json:"user_id"`
}

func (h *Handler) add(c *gin.Context) {
	claims := auth.MustGetClaims(c)
	if claims == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	var req addFriendRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}

	var friend *auth.User
	var err error
	switch {
	case req.UserID != "":
		friend, err = h.Users.GetByID(c.Request.Context(), req.UserID)
	case strings.TrimSpace(req.Username) != "":
		friend, err = h.Users.GetByUsername(c.Request.Context(), strings.TrimSpace(req.Username))
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "username or user_id required"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "lookup failed"})
		return
	}
	if friend == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
		return
	}
	if friend.ID == claims.UserID {
		c.JSON(http.StatusBadRequest, gin.H{"error": "cannot befriend yourself"})
		return
	}

	if err := h.Repo.Add(c.Request.Context(), claims.UserID, friend.ID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to add friend"})
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"user_id":      friend.ID,
		"username":     friend.Username,
		"display_name": friend.DisplayName,
	})
}

func (h *Handler) remove(c *gin.Context) {
	claims := auth.MustGetClaims(c)
	if claims == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	friendID := c.Param("id")
	if friendID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "friend id required"})
		return
	}

	found, err := h.Repo.Exists(c.Request.Context(), claims.UserID, friendID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "lookup failed"})
		return
	}
	if !found {
		c.JSON(http.StatusNotFound, gin.H{"error": "friendship not found"})
		return
	}

	if err := h.Repo.Remove(c.Request.Context(), claims.UserID, friendID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to remove friend"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "removed"})
}
