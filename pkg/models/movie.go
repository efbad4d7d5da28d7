package models

// MovieCard is the normalized, internal form of a movie coming back from the
// catalog upstream.
//
// All upstream payload variants (discover results, detail responses, persisted
// collection rows) are mapped into this structure at the boundary; nothing past
// the ingestion point sees the raw upstream shape. A card is immutable for the
// lifetime of a session once fetched.
type MovieCard struct {
	CatalogID   int64    `json:"catalog_id"`            // upstream catalog identifier, the only join key
	Title       string   `json:"title"`                 // display title
	PosterPath  string   `json:"poster_path,omitempty"` // path fragment, not a full URL
	Overview    string   `json:"overview,omitempty"`
	ReleaseDate string   `json:"release_date,omitempty"` // YYYY-MM-DD as delivered upstream
	Genres      []string `json:"genres,omitempty"`
	VoteAverage float64  `json:"vote_average,omitempty"`
	Runtime     int      `json:"runtime,omitempty"` // minutes
	Language    string   `json:"language,omitempty"`
	Director    string   `json:"director,omitempty"`
	AgeRating   string   `json:"age_rating,omitempty"`

	// match annotations are produced upstream and only displayed, never computed here
	MatchScore  float64 `json:"match_score,omitempty"`
	MatchReason string  `json:"match_reason,omitempty"`
}

// Valid reports whether the card carries a usable catalog ID. Cards that fail
// this check still render in lists, but under a synthetic fallback key.
func (m MovieCard) Valid() bool {
	return m.CatalogID > 0
}

// Year extracts the release year, or 0 when the date is missing or malformed.
func (m MovieCard) Year() int {
	if len(m.ReleaseDate) < 4 {
		return 0
	}
	y := 0
	for _, r := range m.ReleaseDate[:4] {
		if r < '0' || r > '9' {
			return 0
		}
		y = y*10 + int(r-'0')
	}
	return y
}
