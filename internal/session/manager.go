package session

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"swipereel/pkg/models"
)

var (
	ErrNotFound = errors.New("session not found")
	ErrComplete = errors.New("session complete")
	ErrInFlight = errors.New("decision already in flight")
	ErrRating   = errors.New("rating must be 0-5 in 0.5 steps")
)

// BusyWindow is the per-card cool-down that suppresses re-entrant dispatch.
// It outlives the commit animation.
const BusyWindow = 600 * time.Millisecond

// Store is the persisted-collections side of the dispatcher, satisfied by
// collections.Repo.
type Store interface {
	Add(ctx context.Context, e models.CollectionEntry) error
	CreateWatched(ctx context.Context, e models.WatchedEntry) error
	UpdateWatchedRating(ctx context.Context, e models.WatchedEntry) error
}

// Session owns all state for one swipe run: the queue, the decision sets, the
// gesture engine and the busy markers. Views never touch these directly; every
// mutation goes through the manager's dispatch methods under the session lock.
type Session struct {
	ID     string
	UserID string

	mu             sync.Mutex
	queue          *Queue
	sets           *DecisionSets
	gesture        *GestureEngine
	busyUntil      map[int64]time.Time
	watchedRatings map[int64]float64 // local watched cache, seeded at start
	pendingWatched *models.MovieCard // up-swipe happened, rating not yet captured
	clock          Clock
}

type Manager struct {
	mu       sync.Mutex
	sessions map[string]*Session
	store    Store
	clock    Clock
}

func NewManager(store Store, clock Clock) *Manager {
	if clock == nil {
		clock = SystemClock
	}
	return &Manager{
		sessions: make(map[string]*Session),
		store:    store,
		clock:    clock,
	}
}

// Start creates a fresh session over a fixed card list. watchedRatings seeds
// the local cache the dispatcher consults to pick create-vs-update for watched
// commits.
func (m *Manager) Start(userID string, cards []models.MovieCard, watchedRatings map[int64]float64) *Session {
	if watchedRatings == nil {
		watchedRatings = make(map[int64]float64)
	}
	s := &Session{
		ID:             uuid.NewString(),
		UserID:         userID,
		sets:           NewDecisionSets(),
		gesture:        NewGestureEngine(m.clock),
		busyUntil:      make(map[int64]time.Time),
		watchedRatings: watchedRatings,
		clock:          m.clock,
	}
	s.queue = NewQueue(cards, nil)

	m.mu.Lock()
	m.sessions[s.ID] = s
	m.mu.Unlock()
	return s
}

func (m *Manager) Get(id, userID string) (*Session, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	if !ok || s.UserID != userID {
		return nil, false
	}
	return s, true
}

// End discards a session (new search / navigate home).
func (m *Manager) End(id, userID string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	if !ok || s.UserID != userID {
		return false
	}
	delete(m.sessions, id)
	return true
}

// SessionCards snapshots the session decision sets for reconciliation.
func (m *Manager) SessionCards(id, userID string) (liked, disliked []models.MovieCard, ok bool) {
	s, ok := m.Get(id, userID)
	if !ok {
		return nil, nil, false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sets.LikedCards(), s.sets.DislikedCards(), true
}

// ApplyMove mirrors a confirmed persisted-collection move into the session
// accumulators so the two never disagree on which side a card is on.
func (m *Manager) ApplyMove(id, userID string, catalogID int64, toLiked bool) {
	s, ok := m.Get(id, userID)
	if !ok {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if toLiked {
		s.sets.MoveToLiked(catalogID)
	} else {
		s.sets.MoveToDisliked(catalogID)
	}
}

// Status is the session view returned to clients.
type Status struct {
	ID             string            `json:"id"`
	Position       int               `json:"position"`
	Total          int               `json:"total"`
	Done           bool              `json:"done"`
	Current        *models.MovieCard `json:"current,omitempty"`
	AwaitingRating bool              `json:"awaiting_rating,omitempty"`
}

func (s *Session) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()

	pos, total := s.queue.Progress()
	st := Status{
		ID:             s.ID,
		Position:       pos,
		Total:          total,
		Done:           s.queue.Done(),
		AwaitingRating: s.pendingWatched != nil,
	}
	if card, ok := s.queue.Current(); ok {
		st.Current = &card
	}
	return st
}
