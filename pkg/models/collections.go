package models

import "time"

// Collection list names as stored in user_collections.
const (
	ListLiked     = "liked"
	ListDisliked  = "disliked"
	ListFavorites = "favorites"
)

type CollectionEntry struct {
	UserID      string    `json:"user_id"`
	List        string    `json:"list"`
	CatalogID   int64     `json:"catalog_id"`
	Title       string    `json:"title,omitempty"`
	PosterPath  string    `json:"poster_path,omitempty"`
	ReleaseDate string    `json:"release_date,omitempty"`
	Genres      []string  `json:"genres,omitempty"`
	VoteAverage float64   `json:"vote_average,omitempty"`
	AddedAt     time.Time `json:"added_at"`
}

// Card projects the denormalized display fields back into the canonical shape.
func (e CollectionEntry) Card() MovieCard {
	return MovieCard{
		CatalogID:   e.CatalogID,
		Title:       e.Title,
		PosterPath:  e.PosterPath,
		ReleaseDate: e.ReleaseDate,
		Genres:      e.Genres,
		VoteAverage: e.VoteAverage,
	}
}

// WatchedEntry is independent of like/dislike status. Rating is 0-5 in 0.5
// steps, validated at the handler.
type WatchedEntry struct {
	UserID     string    `json:"user_id"`
	CatalogID  int64     `json:"catalog_id"`
	Title      string    `json:"title,omitempty"`
	PosterPath string    `json:"poster_path,omitempty"`
	Rating     float64   `json:"rating"`
	WatchedAt  time.Time `json:"watched_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

type Friendship struct {
	UserID    string    `json:"user_id"`
	FriendID  string    `json:"friend_id"`
	CreatedAt time.Time `json:"created_at"`
}

// ValidRating reports whether r is a 0-5 star value in half-step increments.
func ValidRating(r float64) bool {
	if r < 0 || r > 5 {
		return false
	}
	doubled := r * 2
	return doubled == float64(int(doubled))
}
