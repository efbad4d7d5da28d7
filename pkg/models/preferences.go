package models

// Preferences is the free-form taste profile sent to the catalog upstream when
// searching. Loaded once on login, mutated continuously by the client, and
// persisted through the debounced auto-saver.
type Preferences struct {
	Description string `json:"description,omitempty"`

	// mood sliders, 1-10
	Mood       int `json:"mood"`
	Humor      int `json:"humor"`
	Violence   int `json:"violence"`
	Romance    int `json:"romance"`
	Complexity int `json:"complexity"`

	// two-element [min, max] ranges
	YearRange    [2]int     `json:"year_range"`
	RuntimeRange [2]int     `json:"runtime_range"`
	RatingRange  [2]float64 `json:"rating_range"`

	GenreWeights map[string]int `json:"genre_weights,omitempty"`
	AgeRating    string         `json:"age_rating,omitempty"` // e.g. "G", "PG", "PG-13", "R", "any"
	Language     string         `json:"language,omitempty"`
}

// DefaultPreferences is what a fresh account starts from; the auto-saver must
// never write these back to the server before the real load completes.
func DefaultPreferences() Preferences {
	return Preferences{
		Mood:         5,
		Humor:        5,
		Violence:     5,
		Romance:      5,
		Complexity:   5,
		YearRange:    [2]int{1950, 2030},
		RuntimeRange: [2]int{60, 240},
		RatingRange:  [2]float64{0, 10},
		AgeRating:    "any",
		Language:     "any",
	}
}

// Clamp forces slider and range values back into their documented bounds.
func (p *Preferences) Clamp() {
	clampSlider := func(v *int) {
		if *v < 1 {
			*v = 1
		}
		if *v > 10 {
			*v = 10
		}
	}
	clampSlider(&p.Mood)
	clampSlider(&p.Humor)
	clampSlider(&p.Violence)
	clampSlider(&p.Romance)
	clampSlider(&p.Complexity)

	if p.YearRange[0] > p.YearRange[1] {
		p.YearRange[0], p.YearRange[1] = p.YearRange[1], p.YearRange[0]
	}
	if p.RuntimeRange[0] > p.RuntimeRange[1] {
		p.RuntimeRange[0], p.RuntimeRange[1] = p.RuntimeRange[1], p.RuntimeRange[0]
	}
	if p.RatingRange[0] > p.RatingRange[1] {
		p.RatingRange[0], p.RatingRange[1] = p.RatingRange[1], p.RatingRange[0]
	}
}
