package session

import "swipereel/pkg/models"

// Queue is an ordered, position-indexed walk over a fixed card list. The card
// order never changes after construction; the cursor only moves forward.
type Queue struct {
	cards      []models.MovieCard
	cursor     int
	fired      bool
	onComplete func()
}

func NewQueue(cards []models.MovieCard, onComplete func()) *Queue {
	return &Queue{cards: cards, onComplete: onComplete}
}

// Current returns the card at the cursor, or ok=false once the queue is
// exhausted.
func (q *Queue) Current() (models.MovieCard, bool) {
	if q.cursor >= len(q.cards) {
		return models.MovieCard{}, false
	}
	return q.cards[q.cursor], true
}

// Advance moves the cursor forward by exactly one position. The completion
// callback fires exactly once per queue lifetime, on the advance that reaches
// the end; the fired guard keeps repeated Advance calls from re-firing it.
func (q *Queue) Advance() {
	if q.cursor < len(q.cards) {
		q.cursor++
	}
	if q.cursor >= len(q.cards) && !q.fired {
		q.fired = true
		if q.onComplete != nil {
			q.onComplete()
		}
	}
}

func (q *Queue) Done() bool {
	return q.cursor >= len(q.cards)
}

// Progress reports (position, total).
func (q *Queue) Progress() (int, int) {
	return q.cursor, len(q.cards)
}
