package prefs

import (
	"context"
	"log"
	"sync"
	"time"

	"swipereel/pkg/models"
)

// DebounceDelay is how long preference mutations must be quiet before the
// payload goes to storage.
const DebounceDelay = 1000 * time.Millisecond

// LoadState tracks the preference lifecycle per user. Auto-save is enabled
// only in the two loaded terminal states; anything earlier and a save could
// clobber server state with client defaults.
type LoadState int

const (
	StateUnloaded LoadState = iota
	StateLoading
	StateLoadedDefaults
	StateLoadedServer
)

// Timer is a cancellable scheduled callback. The production factory wraps
// time.AfterFunc; tests substitute a manual trigger so flush points are
// deterministic without real timers.
type Timer interface {
	Stop() bool
}

type TimerFactory func(d time.Duration, fn func()) Timer

type afterFuncTimer struct{ t *time.Timer }

func (a afterFuncTimer) Stop() bool { return a.t.Stop() }

func systemTimers(d time.Duration, fn func()) Timer {
	return afterFuncTimer{t: time.AfterFunc(d, fn)}
}

// Saver is the storage side, satisfied by Repo.
type Saver interface {
	Save(ctx context.Context, userID string, p models.Preferences) error
}

type userState struct {
	state LoadState
	prefs models.Preferences
	timer Timer
	dirty bool
}

// AutoSaver owns the debounced background sync of preference payloads. Every
// mutation restarts the quiescence timer; Flush bypasses it for the hard
// flush points (logout, profile view, page unload).
type AutoSaver struct {
	mu       sync.Mutex
	repo     Saver
	delay    time.Duration
	newTimer TimerFactory
	users    map[string]*userState
}

func NewAutoSaver(repo Saver) *AutoSaver {
	return &AutoSaver{
		repo:     repo,
		delay:    DebounceDelay,
		newTimer: systemTimers,
		users:    make(map[string]*userState),
	}
}

// NewAutoSaverWithTimers is the test constructor.
func NewAutoSaverWithTimers(repo Saver, delay time.Duration, factory TimerFactory) *AutoSaver {
	return &AutoSaver{
		repo:     repo,
		delay:    delay,
		newTimer: factory,
		users:    make(map[string]*userState),
	}
}

func (a *AutoSaver) user(userID string) *userState {
	u, ok := a.users[userID]
	if !ok {
		u = &userState{state: StateUnloaded}
		a.users[userID] = u
	}
	return u
}

// BeginLoad marks the transition unloaded -> loading.
func (a *AutoSaver) BeginLoad(userID string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	u := a.user(userID)
	if u.state == StateUnloaded {
		u.state = StateLoading
	}
}

// CompleteLoad lands the user in a terminal loaded state and primes the
// in-memory copy. fromServer distinguishes a stored payload from defaults.
func (a *AutoSaver) CompleteLoad(userID string, p models.Preferences, fromServer bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	u := a.user(userID)
	u.prefs = p
	if fromServer {
		u.state = StateLoadedServer
	} else {
		u.state = StateLoadedDefaults
	}
}

// State reports the current load state.
func (a *AutoSaver) State(userID string) LoadState {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.user(userID).state
}

// Current returns the in-memory preference copy, ok=false before load.
func (a *AutoSaver) Current(userID string) (models.Preferences, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	u := a.user(userID)
	if u.state != StateLoadedDefaults && u.state != StateLoadedServer {
		return models.Preferences{}, false
	}
	return u.prefs, true
}

// Mutate replaces the in-memory copy and (re)starts the debounce timer.
// Returns false when the load has not completed; the mutation is refused so a
// client racing its own load cannot overwrite server state.
func (a *AutoSaver) Mutate(userID string, p models.Preferences) bool {
	a.mu.Lock()
	defer a.mu.Unlock()

	u := a.user(userID)
	if u.state != StateLoadedDefaults && u.state != StateLoadedServer {
		return false
	}

	u.prefs = p
	u.dirty = true
	if u.timer != nil {
		u.timer.Stop()
	}
	u.timer = a.newTimer(a.delay, func() { a.fire(userID) })
	return true
}

// fire is the timer callback: save whatever is pending.
func (a *AutoSaver) fire(userID string) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	a.flush(ctx, userID)
}

// FlushUser satisfies auth.PrefFlusher; logout calls it before invalidating
// the token.
func (a *AutoSaver) FlushUser(ctx context.Context, userID string) {
	a.flush(ctx, userID)
}

// Flush sends any pending payload immediately, cancelling the timer.
func (a *AutoSaver) Flush(ctx context.Context, userID string) {
	a.flush(ctx, userID)
}

// FlushAll drains every tracked user, used on shutdown.
func (a *AutoSaver) FlushAll(ctx context.Context) {
	a.mu.Lock()
	ids := make([]string, 0, len(a.users))
	for id := range a.users {
		ids = append(ids, id)
	}
	a.mu.Unlock()

	for _, id := range ids {
		a.flush(ctx, id)
	}
}

func (a *AutoSaver) flush(ctx context.Context, userID string) {
	a.mu.Lock()
	u := a.user(userID)
	if u.timer != nil {
		u.timer.Stop()
		u.timer = nil
	}
	loaded := u.state == StateLoadedDefaults || u.state == StateLoadedServer
	pending := u.dirty && loaded
	prefs := u.prefs
	if pending {
		u.dirty = false
	}
	a.mu.Unlock()

	if !pending {
		return
	}
	if err := a.repo.Save(ctx, userID, prefs); err != nil {
		log.Printf("[prefs] save for %s: %v", userID, err)
		a.mu.Lock()
		a.user(userID).dirty = true
		a.mu.Unlock()
	}
}
