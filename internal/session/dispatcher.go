package session

import (
	"context"
	"errors"
	"log"
	"time"

	"swipereel/pkg/models"
)

// Decision is a committed per-card choice.
type Decision string

const (
	DecisionLike    Decision = "like"
	DecisionDislike Decision = "dislike"
	DecisionWatched Decision = "watched"
)

var errBadDecision = errors.New("unknown decision")

// Result reports what a commit did.
type Result struct {
	Decision     Decision `json:"decision"`
	CatalogID    int64    `json:"catalog_id"`
	Position     int      `json:"position"`
	Total        int      `json:"total"`
	Done         bool     `json:"done"`
	NeedsRating  bool     `json:"needs_rating,omitempty"` // up-swipe, waiting for stars
	Cancelled    bool     `json:"cancelled,omitempty"`    // sub-threshold release
	RemoteIssued bool     `json:"-"`                      // exposed for tests
}

// Gesture handles a drag release: classify the offset, then route any commit
// through the same dispatch path the buttons use. An up-swipe parks the card
// in awaiting-rating state; the follow-up Decide(watched, rating) call
// completes it.
func (m *Manager) Gesture(s *Session, dx, dy float64) (Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	card, ok := s.queue.Current()
	if !ok {
		return Result{}, ErrComplete
	}

	dir, accepted := s.gesture.Release(dx, dy)
	if !accepted {
		return Result{}, ErrInFlight
	}

	switch dir {
	case DirectionNone:
		pos, total := s.queue.Progress()
		return Result{Cancelled: true, CatalogID: card.CatalogID, Position: pos, Total: total}, nil
	case DirectionUp:
		s.pendingWatched = &card
		pos, total := s.queue.Progress()
		return Result{Decision: DecisionWatched, NeedsRating: true, CatalogID: card.CatalogID, Position: pos, Total: total}, nil
	case DirectionRight:
		return m.dispatchLocked(s, card, DecisionLike, 0)
	case DirectionLeft:
		return m.dispatchLocked(s, card, DecisionDislike, 0)
	}
	return Result{}, errBadDecision
}

// Decide is the button path. It shares the gesture engine's animation lockout
// so a button mash during a fly-off is dropped, except when it is the rating
// follow-up to an up-swipe that already consumed the animation.
func (m *Manager) Decide(s *Session, dec Decision, rating float64) (Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	card, ok := s.queue.Current()
	if !ok {
		return Result{}, ErrComplete
	}

	ratingFollowUp := dec == DecisionWatched && s.pendingWatched != nil && s.pendingWatched.CatalogID == card.CatalogID
	if !ratingFollowUp && !s.gesture.Commit(directionFor(dec)) {
		return Result{}, ErrInFlight
	}

	return m.dispatchLocked(s, card, dec, rating)
}

// dispatchLocked is the single commit path: local session state first, queue
// advance second, remote mutation last and asynchronous. Remote failure never
// rolls local state back; it is logged and left for the next reconciliation
// fetch to correct.
func (m *Manager) dispatchLocked(s *Session, card models.MovieCard, dec Decision, rating float64) (Result, error) {
	now := s.clock.Now()
	if until, busy := s.busyUntil[card.CatalogID]; busy && now.Before(until) {
		return Result{}, ErrInFlight
	}

	var remote func(ctx context.Context) error

	switch dec {
	case DecisionLike:
		if s.sets.Like(card) {
			entry := entryFor(s.UserID, models.ListLiked, card)
			remote = func(ctx context.Context) error { return m.store.Add(ctx, entry) }
		}
	case DecisionDislike:
		if s.sets.Dislike(card) {
			entry := entryFor(s.UserID, models.ListDisliked, card)
			remote = func(ctx context.Context) error { return m.store.Add(ctx, entry) }
		}
	case DecisionWatched:
		if !models.ValidRating(rating) {
			return Result{}, ErrRating
		}
		entry := models.WatchedEntry{
			UserID:     s.UserID,
			CatalogID:  card.CatalogID,
			Title:      card.Title,
			PosterPath: card.PosterPath,
			Rating:     rating,
		}
		// the local watched cache decides create vs update-rating
		if _, already := s.watchedRatings[card.CatalogID]; already {
			remote = func(ctx context.Context) error { return m.store.UpdateWatchedRating(ctx, entry) }
		} else {
			remote = func(ctx context.Context) error { return m.store.CreateWatched(ctx, entry) }
		}
		s.watchedRatings[card.CatalogID] = rating
	default:
		return Result{}, errBadDecision
	}

	// any committed decision resolves the card, including a like or dislike
	// that supersedes an earlier up-swipe on it
	s.pendingWatched = nil
	s.busyUntil[card.CatalogID] = now.Add(BusyWindow)
	s.queue.Advance()

	pos, total := s.queue.Progress()
	res := Result{
		Decision:     dec,
		CatalogID:    card.CatalogID,
		Position:     pos,
		Total:        total,
		Done:         s.queue.Done(),
		RemoteIssued: remote != nil,
	}

	if remote != nil {
		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := remote(ctx); err != nil {
				log.Printf("[session] %s %s for card %d: %v", s.ID, dec, card.CatalogID, err)
			}
		}()
	}
	return res, nil
}

func directionFor(dec Decision) Direction {
	switch dec {
	case DecisionLike:
		return DirectionRight
	case DecisionDislike:
		return DirectionLeft
	case DecisionWatched:
		return DirectionUp
	}
	return DirectionNone
}

func entryFor(userID, list string, card models.MovieCard) models.CollectionEntry {
	return models.CollectionEntry{
		UserID:      userID,
		List:        list,
		CatalogID:   card.CatalogID,
		Title:       card.Title,
		PosterPath:  card.PosterPath,
		ReleaseDate: card.ReleaseDate,
		Genres:      card.Genres,
		VoteAverage: card.VoteAverage,
	}
}
