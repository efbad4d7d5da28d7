package catalog

import (
	"bytes"
	"strconv"
	"strings"

	"swipereel/pkg/models"
)

// Upstream payloads are loosely shaped: the catalog ID may arrive under "id",
// "tmdbId" or "movieId", as a JSON number or a numeric string. Everything is
// normalized into models.MovieCard right here; the ambiguity never leaks past
// this file. A missing or non-numeric ID yields an invalid card (CatalogID 0),
// never a fabricated key.

// flexID is a catalog ID that tolerates number and numeric-string encodings.
type flexID struct {
	Value int64
	OK    bool
}

func (f *flexID) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		return nil
	}
	s := string(b)
	if s[0] == '"' {
		unquoted, err := strconv.Unquote(s)
		if err != nil {
			return nil // malformed string stays invalid, not an error
		}
		s = strings.TrimSpace(unquoted)
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		// tolerate integral floats like 603.0
		fv, ferr := strconv.ParseFloat(s, 64)
		if ferr != nil || fv != float64(int64(fv)) {
			return nil
		}
		n = int64(fv)
	}
	if n > 0 {
		f.Value = n
		f.OK = true
	}
	return nil
}

type rawGenre struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// rawCard covers every upstream card variant we have seen: discover results,
// detail responses, and recommendation payloads re-keyed by intermediate
// services.
type rawCard struct {
	ID      flexID `json:"id"`
	TMDBID  flexID `json:"tmdbId"`
	MovieID flexID `json:"movieId"`

	Title         string     `json:"title"`
	Name          string     `json:"name"` // some payloads use "name" for the title
	PosterPath    string     `json:"poster_path"`
	Overview      string     `json:"overview"`
	ReleaseDate   string     `json:"release_date"`
	OriginalLang  string     `json:"original_language"`
	VoteAverage   float64    `json:"vote_average"`
	Runtime       int        `json:"runtime"`
	GenreIDs      []int      `json:"genre_ids"`
	Genres        []rawGenre `json:"genres"`
	Director      string     `json:"director"`
	Certification string     `json:"certification"`

	MatchScore  float64 `json:"match_score"`
	MatchReason string  `json:"match_reason"`
}

// catalogID resolves the first usable ID variant, in priority order.
func (r rawCard) catalogID() int64 {
	for _, f := range []flexID{r.ID, r.TMDBID, r.MovieID} {
		if f.OK {
			return f.Value
		}
	}
	return 0
}

// Normalize maps the raw payload into the canonical card. genreNames resolves
// numeric genre IDs from discover-style results; detail-style results carry
// names inline and don't need it.
func (r rawCard) Normalize(genreNames map[int]string) models.MovieCard {
	title := strings.TrimSpace(r.Title)
	if title == "" {
		title = strings.TrimSpace(r.Name)
	}

	var genres []string
	for _, g := range r.Genres {
		if g.Name != "" {
			genres = append(genres, g.Name)
		}
	}
	if len(genres) == 0 && genreNames != nil {
		for _, id := range r.GenreIDs {
			if name, ok := genreNames[id]; ok {
				genres = append(genres, name)
			}
		}
	}

	return models.MovieCard{
		CatalogID:   r.catalogID(),
		Title:       title,
		PosterPath:  r.PosterPath,
		Overview:    r.Overview,
		ReleaseDate: r.ReleaseDate,
		Genres:      genres,
		VoteAverage: r.VoteAverage,
		Runtime:     r.Runtime,
		Language:    r.OriginalLang,
		Director:    strings.TrimSpace(r.Director),
		AgeRating:   strings.TrimSpace(r.Certification),
		MatchScore:  r.MatchScore,
		MatchReason: strings.TrimSpace(r.MatchReason),
	}
}
