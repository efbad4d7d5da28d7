package share

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"swipereel/internal/auth"
	"swipereel/pkg/models"
)

// CardLookup resolves a catalog ID when the caller did not inline the card.
type CardLookup interface {
	GetByID(ctx context.Context, catalogID int64) (*models.MovieCard, error)
}

type Handler struct {
	Mailer *Mailer
	Cards  CardLookup
}

func NewHandler(mailer *Mailer, cards CardLookup) *Handler {
	return &Handler{Mailer: mailer, Cards: cards}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/share", h.share)
}

type shareRequest struct {
	Recipient string            `json:"recipient"`
	Message   string            `json:"message"`
	CatalogID int64             `json:"catalog_id"`
	Card      *models.MovieCard `json:"card"`
}

func (h *Handler) share(c *gin.Context) {
	claims := auth.MustGetClaims(c)
	if claims == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	var req shareRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	req.Recipient = strings.TrimSpace(req.Recipient)
	if req.Recipient == "" || !strings.Contains(req.Recipient, "@") {
		c.JSON(http.StatusBadRequest, gin.H{"error": "valid recipient email required"})
		return
	}

	var card models.MovieCard
	switch {
	case req.Card != nil && req.Card.Valid():
		card = *req.Card
	case req.CatalogID > 0:
		found, err := h.Cards.GetByID(c.Request.Context(), req.CatalogID)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "lookup failed"})
			return
		}
		if found == nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "movie not found"})
			return
		}
		card = *found
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "card or catalog_id required"})
		return
	}

	rec := Recommendation{
		Recipient: req.Recipient,
		Sender:    claims.Username,
		Message:   req.Message,
		Card:      card,
	}

	// answer immediately; delivery (and its retry) runs in the background
	go func() {
		_ = h.Mailer.Share(rec)
	}()

	c.JSON(http.StatusAccepted, gin.H{"status": "sending"})
}
