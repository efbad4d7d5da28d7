package session

import (
	"testing"

	"swipereel/pkg/models"
)

func deck(n int) []models.MovieCard {
	cards := make([]models.MovieCard, n)
	for i := range cards {
		cards[i] = models.MovieCard{CatalogID: int64(i + 1), Title: "Movie"}
	}
	return cards
}

func TestQueueAdvance(t *testing.T) {
	t.Run("cursor moves one position per advance", func(t *testing.T) {
		q := NewQueue(deck(3), nil)

		for want := int64(1); want <= 3; want++ {
			card, ok := q.Current()
			if !ok {
				t.Fatalf("queue exhausted early at card %d", want)
			}
			if card.CatalogID != want {
				t.Errorf("expected card %d, got %d", want, card.CatalogID)
			}
			q.Advance()
		}

		if _, ok := q.Current(); ok {
			t.Error("expected no current card after walking the deck")
		}
		if !q.Done() {
			t.Error("expected queue to be done")
		}
	})

	t.Run("progress tracks position and total", func(t *testing.T) {
		q := NewQueue(deck(5), nil)
		q.Advance()
		q.Advance()

		pos, total := q.Progress()
		if pos != 2 {
			t.Errorf("expected position 2, got %d", pos)
		}
		if total != 5 {
			t.Errorf("expected total 5, got %d", total)
		}
	})

	t.Run("empty queue is done from the start", func(t *testing.T) {
		q := NewQueue(nil, nil)
		if !q.Done() {
			t.Error("expected empty queue to be done")
		}
		if _, ok := q.Current(); ok {
			t.Error("expected no current card in empty queue")
		}
	})
}

func TestQueueCompletionFiresOnce(t *testing.T) {
	fired := 0
	q := NewQueue(deck(2), func() { fired++ })

	q.Advance()
	if fired != 0 {
		t.Fatalf("completion fired before the last card, count %d", fired)
	}

	q.Advance()
	if fired != 1 {
		t.Fatalf("expected completion to fire once, got %d", fired)
	}

	// extra advances past the end must not re-fire
	q.Advance()
	q.Advance()
	if fired != 1 {
		t.Errorf("expected completion count to stay 1, got %d", fired)
	}
}
