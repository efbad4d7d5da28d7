package reconcile

import (
	"strings"

	"swipereel/pkg/models"
)

// Filter categories combine with AND semantics; values within one category
// combine with OR (two selected genres match either). An empty category is no
// constraint.
type Filter struct {
	Genres     []string
	YearFrom   int
	YearTo     int
	RatingFrom float64
	RatingTo   float64
	AgeRatings []string
	Keywords   []string
	Languages  []string
	Directors  []string
}

func (f Filter) matches(card models.MovieCard) bool {
	if len(f.Genres) > 0 && !anyGenre(card.Genres, f.Genres) {
		return false
	}
	if f.YearFrom > 0 || f.YearTo > 0 {
		y := card.Year()
		if f.YearFrom > 0 && y < f.YearFrom {
			return false
		}
		if f.YearTo > 0 && (y == 0 || y > f.YearTo) {
			return false
		}
	}
	if f.RatingFrom > 0 && card.VoteAverage < f.RatingFrom {
		return false
	}
	if f.RatingTo > 0 && card.VoteAverage > f.RatingTo {
		return false
	}
	if len(f.AgeRatings) > 0 && !anyFold(f.AgeRatings, card.AgeRating) {
		return false
	}
	if len(f.Keywords) > 0 && !anyKeyword(card, f.Keywords) {
		return false
	}
	if len(f.Languages) > 0 && !anyFold(f.Languages, card.Language) {
		return false
	}
	if len(f.Directors) > 0 && !anyFold(f.Directors, card.Director) {
		return false
	}
	return true
}

// Apply recomputes a filtered view from the full unfiltered group. The source
// slice is never mutated, so toggling a filter off restores the exact
// pre-toggle list.
func (f Filter) Apply(cards []KeyedCard) []KeyedCard {
	out := make([]KeyedCard, 0, len(cards))
	for _, kc := range cards {
		if f.matches(kc.Card) {
			out = append(out, kc)
		}
	}
	return out
}

// ApplyGroups filters all three display groups from their unfiltered sources.
func (f Filter) ApplyGroups(g Groups) Groups {
	return Groups{
		Favorites: f.Apply(g.Favorites),
		Liked:     f.Apply(g.Liked),
		Disliked:  f.Apply(g.Disliked),
	}
}

// Toggle adds the value to a category if absent, removes it if present.
// Toggling twice is a no-op.
func toggle(values []string, v string) []string {
	for i, x := range values {
		if strings.EqualFold(x, v) {
			return append(values[:i:i], values[i+1:]...)
		}
	}
	return append(values, v)
}

func (f Filter) ToggleGenre(g string) Filter     { f.Genres = toggle(f.Genres, g); return f }
func (f Filter) ToggleAgeRating(r string) Filter { f.AgeRatings = toggle(f.AgeRatings, r); return f }
func (f Filter) ToggleKeyword(k string) Filter   { f.Keywords = toggle(f.Keywords, k); return f }
func (f Filter) ToggleLanguage(l string) Filter  { f.Languages = toggle(f.Languages, l); return f }
func (f Filter) ToggleDirector(d string) Filter  { f.Directors = toggle(f.Directors, d); return f }

func anyGenre(have, want []string) bool {
	for _, w := range have {
		for _, g := range want {
			if strings.EqualFold(w, g) {
				return true
			}
		}
	}
	return false
}

func anyFold(want []string, have string) bool {
	for _, w := range want {
		if strings.EqualFold(w, have) {
			return true
		}
	}
	return false
}

func anyKeyword(card models.MovieCard, keywords []string) bool {
	title := strings.ToLower(card.Title)
	overview := strings.ToLower(card.Overview)
	for _, k := range keywords {
		k = strings.ToLower(strings.TrimSpace(k))
		if k == "" {
			continue
		}
		if strings.Contains(title, k) || strings.Contains(overview, k) {
			return true
		}
	}
	return false
}
