package prefs

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"swipereel/pkg/models"
)

type fakeSaver struct {
	mu    sync.Mutex
	saves []models.Preferences
	users []string
	err   error
}

func (f *fakeSaver) Save(_ context.Context, userID string, p models.Preferences) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.saves = append(f.saves, p)
	f.users = append(f.users, userID)
	return f.err
}

func (f *fakeSaver) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.saves)
}

func (f *fakeSaver) last() models.Preferences {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.saves[len(f.saves)-1]
}

type fakeTimer struct {
	fn      func()
	stopped bool
}

func (t *fakeTimer) Stop() bool {
	was := t.stopped
	t.stopped = true
	return !was
}

// manualTimers hands out timers that only fire when the test says so.
type manualTimers struct {
	timers []*fakeTimer
}

func (m *manualTimers) factory(_ time.Duration, fn func()) Timer {
	t := &fakeTimer{fn: fn}
	m.timers = append(m.timers, t)
	return t
}

// fireLast simulates the debounce delay elapsing on the newest timer.
func (m *manualTimers) fireLast() {
	if len(m.timers) == 0 {
		return
	}
	t := m.timers[len(m.timers)-1]
	if !t.stopped {
		t.fn()
	}
}

func prefsWith(desc string) models.Preferences {
	p := models.DefaultPreferences()
	p.Description = desc
	return p
}

func TestAutoSaveRequiresLoad(t *testing.T) {
	t.Run("mutation before load is refused", func(t *testing.T) {
		saver := &fakeSaver{}
		timers := &manualTimers{}
		a := NewAutoSaverWithTimers(saver, DebounceDelay, timers.factory)

		if a.Mutate("u1", prefsWith("too early")) {
			t.Fatal("expected mutation to be refused before load")
		}

		a.Flush(context.Background(), "u1")
		if saver.count() != 0 {
			t.Errorf("expected no saves, got %d", saver.count())
		}
	})

	t.Run("mutation while loading is refused", func(t *testing.T) {
		saver := &fakeSaver{}
		timers := &manualTimers{}
		a := NewAutoSaverWithTimers(saver, DebounceDelay, timers.factory)

		a.BeginLoad("u1")
		if a.Mutate("u1", prefsWith("racing the load")) {
			t.Fatal("expected mutation to be refused mid-load")
		}
		if got := a.State("u1"); got != StateLoading {
			t.Errorf("expected loading state, got %d", got)
		}
	})

	t.Run("mutation lands after either load outcome", func(t *testing.T) {
		for _, fromServer := range []bool{true, false} {
			saver := &fakeSaver{}
			timers := &manualTimers{}
			a := NewAutoSaverWithTimers(saver, DebounceDelay, timers.factory)

			a.BeginLoad("u1")
			a.CompleteLoad("u1", models.DefaultPreferences(), fromServer)
			if !a.Mutate("u1", prefsWith("loaded")) {
				t.Errorf("fromServer=%v: expected mutation to be accepted", fromServer)
			}
		}
	})
}

func TestAutoSaveDebounce(t *testing.T) {
	t.Run("quiescence saves the latest payload once", func(t *testing.T) {
		saver := &fakeSaver{}
		timers := &manualTimers{}
		a := NewAutoSaverWithTimers(saver, DebounceDelay, timers.factory)

		a.BeginLoad("u1")
		a.CompleteLoad("u1", models.DefaultPreferences(), false)

		a.Mutate("u1", prefsWith("first"))
		a.Mutate("u1", prefsWith("second"))
		a.Mutate("u1", prefsWith("third"))

		if saver.count() != 0 {
			t.Fatalf("expected no save before the delay, got %d", saver.count())
		}
		if len(timers.timers) != 3 {
			t.Fatalf("expected a fresh timer per mutation, got %d", len(timers.timers))
		}
		for _, earlier := range timers.timers[:2] {
			if !earlier.stopped {
				t.Error("expected earlier timer to be stopped by the next mutation")
			}
		}

		timers.fireLast()
		if saver.count() != 1 {
			t.Fatalf("expected exactly one save, got %d", saver.count())
		}
		if saver.last().Description != "third" {
			t.Errorf("expected latest payload, got %q", saver.last().Description)
		}
	})

	t.Run("flush saves immediately and disarms the timer", func(t *testing.T) {
		saver := &fakeSaver{}
		timers := &manualTimers{}
		a := NewAutoSaverWithTimers(saver, DebounceDelay, timers.factory)

		a.BeginLoad("u1")
		a.CompleteLoad("u1", models.DefaultPreferences(), true)
		a.Mutate("u1", prefsWith("pending"))

		a.Flush(context.Background(), "u1")
		if saver.count() != 1 {
			t.Fatalf("expected one save from flush, got %d", saver.count())
		}

		// a late timer callback must not double-save
		timers.fireLast()
		if saver.count() != 1 {
			t.Errorf("expected no second save, got %d", saver.count())
		}
	})

	t.Run("flush with nothing pending is a no-op", func(t *testing.T) {
		saver := &fakeSaver{}
		timers := &manualTimers{}
		a := NewAutoSaverWithTimers(saver, DebounceDelay, timers.factory)

		a.BeginLoad("u1")
		a.CompleteLoad("u1", models.DefaultPreferences(), true)

		a.Flush(context.Background(), "u1")
		if saver.count() != 0 {
			t.Errorf("expected no save without mutations, got %d", saver.count())
		}
	})

	t.Run("failed save stays dirty and retries on next flush", func(t *testing.T) {
		saver := &fakeSaver{err: errors.New("storage down")}
		timers := &manualTimers{}
		a := NewAutoSaverWithTimers(saver, DebounceDelay, timers.factory)

		a.BeginLoad("u1")
		a.CompleteLoad("u1", models.DefaultPreferences(), true)
		a.Mutate("u1", prefsWith("keep me"))

		a.Flush(context.Background(), "u1")
		if saver.count() != 1 {
			t.Fatalf("expected one failed attempt, got %d", saver.count())
		}

		saver.mu.Lock()
		saver.err = nil
		saver.mu.Unlock()

		a.Flush(context.Background(), "u1")
		if saver.count() != 2 {
			t.Fatalf("expected a retry, got %d attempts", saver.count())
		}
		if saver.last().Description != "keep me" {
			t.Errorf("expected retried payload, got %q", saver.last().Description)
		}
	})
}

func TestFlushAll(t *testing.T) {
	saver := &fakeSaver{}
	timers := &manualTimers{}
	a := NewAutoSaverWithTimers(saver, DebounceDelay, timers.factory)

	for _, id := range []string{"u1", "u2"} {
		a.BeginLoad(id)
		a.CompleteLoad(id, models.DefaultPreferences(), true)
		a.Mutate(id, prefsWith("pending "+id))
	}
	// u3 never mutated
	a.BeginLoad("u3")
	a.CompleteLoad("u3", models.DefaultPreferences(), false)

	a.FlushAll(context.Background())

	if saver.count() != 2 {
		t.Fatalf("expected 2 saves, got %d", saver.count())
	}
	saver.mu.Lock()
	defer saver.mu.Unlock()
	seen := map[string]bool{}
	for _, id := range saver.users {
		seen[id] = true
	}
	if !seen["u1"] || !seen["u2"] || seen["u3"] {
		t.Errorf("unexpected flushed users: %v", saver.users)
	}
}
