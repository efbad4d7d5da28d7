package session

import "swipereel/pkg/models"

// DecisionSets are the session-scoped liked/disliked accumulators. An ID is
// never in both sets; moves remove from one and add to the other in one step.
// Cards are retained so the summary view can render without re-fetching.
type DecisionSets struct {
	liked    map[int64]models.MovieCard
	disliked map[int64]models.MovieCard
}

func NewDecisionSets() *DecisionSets {
	return &DecisionSets{
		liked:    make(map[int64]models.MovieCard),
		disliked: make(map[int64]models.MovieCard),
	}
}

// Like records a liked card. Returns false when the card was already liked
// this session (the caller skips the remote call on a dedupe hit).
func (d *DecisionSets) Like(card models.MovieCard) bool {
	if _, ok := d.liked[card.CatalogID]; ok {
		return false
	}
	delete(d.disliked, card.CatalogID)
	d.liked[card.CatalogID] = card
	return true
}

func (d *DecisionSets) Dislike(card models.MovieCard) bool {
	if _, ok := d.disliked[card.CatalogID]; ok {
		return false
	}
	delete(d.liked, card.CatalogID)
	d.disliked[card.CatalogID] = card
	return true
}

// MoveToLiked and MoveToDisliked mirror a confirmed server-side move into the
// session accumulators.
func (d *DecisionSets) MoveToLiked(catalogID int64) {
	if card, ok := d.disliked[catalogID]; ok {
		delete(d.disliked, catalogID)
		d.liked[catalogID] = card
	}
}

func (d *DecisionSets) MoveToDisliked(catalogID int64) {
	if card, ok := d.liked[catalogID]; ok {
		delete(d.liked, catalogID)
		d.disliked[catalogID] = card
	}
}

func (d *DecisionSets) LikedHas(catalogID int64) bool {
	_, ok := d.liked[catalogID]
	return ok
}

func (d *DecisionSets) DislikedHas(catalogID int64) bool {
	_, ok := d.disliked[catalogID]
	return ok
}

// LikedCards and DislikedCards snapshot the sets for reconciliation.
func (d *DecisionSets) LikedCards() []models.MovieCard {
	return cardsOf(d.liked)
}

func (d *DecisionSets) DislikedCards() []models.MovieCard {
	return cardsOf(d.disliked)
}

func cardsOf(m map[int64]models.MovieCard) []models.MovieCard {
	out := make([]models.MovieCard, 0, len(m))
	for _, c := range m {
		out = append(out, c)
	}
	return out
}
