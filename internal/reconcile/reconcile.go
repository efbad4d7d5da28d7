package reconcile

import (
	"sort"
	"strconv"
	"strings"

	"swipereel/pkg/models"
)

// The reconciler merges three sources of truth - live session decisions,
// server-persisted lists, and the favorite-membership set - into the three
// display groups. Output lists are de-duplicated by render key and stable
// under repeated reconciliation of the same inputs.

// KeyedCard pairs a card with its render key. Valid cards key on the decimal
// catalog ID; malformed cards get a synthetic "idx:" key built from their
// position and title, which can never collide with a numeric key.
type KeyedCard struct {
	Key  string           `json:"key"`
	Card models.MovieCard `json:"card"`
}

type Groups struct {
	Favorites []KeyedCard `json:"favorites"`
	Liked     []KeyedCard `json:"liked"`    // liked but not favorited
	Disliked  []KeyedCard `json:"disliked"`
}

// Input carries everything the merge needs. FavoriteIDs is the membership set;
// PersistedFavorites carries the display cards for that set.
type Input struct {
	SessionLiked    []models.MovieCard
	SessionDisliked []models.MovieCard

	PersistedLiked     []models.MovieCard
	PersistedDisliked  []models.MovieCard
	PersistedFavorites []models.MovieCard

	FavoriteIDs map[int64]struct{}
}

// CardKey computes the render key for a card at position idx in its source
// list.
func CardKey(card models.MovieCard, idx int) string {
	if card.Valid() {
		return strconv.FormatInt(card.CatalogID, 10)
	}
	return "idx:" + strconv.Itoa(idx) + ":" + card.Title
}

// Merge produces the three de-duplicated display groups.
func Merge(in Input) Groups {
	isFavorite := func(card models.MovieCard) bool {
		if !card.Valid() || in.FavoriteIDs == nil {
			return false
		}
		_, ok := in.FavoriteIDs[card.CatalogID]
		return ok
	}

	var g Groups
	g.Favorites = dedupe(in.PersistedFavorites, nil)

	// session likes land in favorites only via explicit favoriting, so the
	// liked group takes session + persisted likes minus current favorites
	likedSource := append(append([]models.MovieCard{}, in.SessionLiked...), in.PersistedLiked...)
	g.Liked = dedupe(likedSource, func(card models.MovieCard) bool {
		return !isFavorite(card)
	})

	dislikedSource := append(append([]models.MovieCard{}, in.SessionDisliked...), in.PersistedDisliked...)
	g.Disliked = dedupe(dislikedSource, nil)

	return g
}

// dedupe keys each card and drops later duplicates. keep, when non-nil, is a
// predicate applied before keying.
func dedupe(cards []models.MovieCard, keep func(models.MovieCard) bool) []KeyedCard {
	seen := make(map[string]struct{}, len(cards))
	out := make([]KeyedCard, 0, len(cards))
	for i, card := range cards {
		if keep != nil && !keep(card) {
			continue
		}
		key := CardKey(card, i)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, KeyedCard{Key: key, Card: card})
	}
	return out
}

// Sort orders supported by the collection views.
const (
	SortTitle      = "title"
	SortYearAsc    = "year_asc"
	SortYearDesc   = "year_desc"
	SortRatingAsc  = "rating_asc"
	SortRatingDesc = "rating_desc"
)

// SortCards orders a display group in place. Unknown orders leave the list
// untouched.
func SortCards(cards []KeyedCard, order string) {
	switch order {
	case SortTitle:
		sort.SliceStable(cards, func(i, j int) bool {
			return strings.ToLower(cards[i].Card.Title) < strings.ToLower(cards[j].Card.Title)
		})
	case SortYearAsc:
		sort.SliceStable(cards, func(i, j int) bool {
			return cards[i].Card.Year() < cards[j].Card.Year()
		})
	case SortYearDesc:
		sort.SliceStable(cards, func(i, j int) bool {
			return cards[i].Card.Year() > cards[j].Card.Year()
		})
	case SortRatingAsc:
		sort.SliceStable(cards, func(i, j int) bool {
			return cards[i].Card.VoteAverage < cards[j].Card.VoteAverage
		})
	case SortRatingDesc:
		sort.SliceStable(cards, func(i, j int) bool {
			return cards[i].Card.VoteAverage > cards[j].Card.VoteAverage
		})
	}
}
