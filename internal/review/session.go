// Package review walks a queue of due cards, one answer at a time.
package review

import (
	"errors"
	"math"
	"time"

	"github.com/conorfennell/leitner/internal/domain"
	"github.com/google/uuid"
)

// ErrSessionDone is returned when a command is issued after the last card.
var ErrSessionDone = errors.New("review: session is done")

// Stats summarizes the answers given in a session.
type Stats struct {
	Correct    int `json:"correct"`
	Wrong      int `json:"wrong"`
	Total      int `json:"total"`
	Percentage int `json:"percentage"`
}

// Session is a single pass over a queue of due cards.
// It works on copies; nothing is persisted until the caller saves Cards().
type Session struct {
	ID        string
	StartedAt time.Time

	queue   []domain.Card
	index   int
	correct int
	wrong   int
	flipped bool
	logs    []domain.ReviewLog
	now     func() time.Time
}

// NewSession starts a session over a copy of due.
func NewSession(due []domain.Card, now func() time.Time) *Session {
	if now == nil {
		now = time.Now
	}
	queue := make([]domain.Card, len(due))
	copy(queue, due)
	return &Session{
		ID:        uuid.NewString(),
		StartedAt: now(),
		queue:     queue,
		now:       now,
	}
}

// Current returns the card under the cursor. ok is false once the session is done.
func (s *Session) Current() (card domain.Card, ok bool) {
	if s.Done() {
		return domain.Card{}, false
	}
	return s.queue[s.index], true
}

// Number is the 1-based position of the current card.
func (s *Session) Number() int { return s.index + 1 }

// Total is the queue length.
func (s *Session) Total() int { return len(s.queue) }

// Done reports whether the cursor has walked past the last card.
func (s *Session) Done() bool { return s.index >= len(s.queue) }

// Flipped reports whether the back of the current card is showing.
func (s *Session) Flipped() bool { return s.flipped }

// Flip reveals the back of the current card.
func (s *Session) Flip() error {
	if s.Done() {
		return ErrSessionDone
	}
	s.flipped = true
	return nil
}

// AnswerCorrect promotes the current card and advances.
func (s *Session) AnswerCorrect() error {
	return s.answer(true)
}

// AnswerWrong demotes the current card to the first box and advances.
func (s *Session) AnswerWrong() error {
	return s.answer(false)
}

// Skip advances without touching the current card.
func (s *Session) Skip() error {
	if s.Done() {
		return ErrSessionDone
	}
	s.advance()
	return nil
}

func (s *Session) answer(correct bool) error {
	if s.Done() {
		return ErrSessionDone
	}
	now := s.now()
	card := &s.queue[s.index]
	from := card.Box
	if correct {
		card.MarkCorrect(now)
		s.correct++
	} else {
		card.MarkWrong(now)
		s.wrong++
	}
	s.logs = append(s.logs, domain.ReviewLog{
		CardID:    card.ID,
		Timestamp: now,
		Correct:   correct,
		FromBox:   from,
		ToBox:     card.Box,
	})
	s.advance()
	return nil
}

func (s *Session) advance() {
	s.index++
	s.flipped = false
}

// Stats returns the running score. Percentage is rounded and 0 when nothing was answered.
func (s *Session) Stats() Stats {
	total := s.correct + s.wrong
	pct := 0
	if total > 0 {
		pct = int(math.Round(float64(s.correct) / float64(total) * 100))
	}
	return Stats{
		Correct:    s.correct,
		Wrong:      s.wrong,
		Total:      total,
		Percentage: pct,
	}
}

// Cards returns a copy of the session's queue, including any mutations.
func (s *Session) Cards() []domain.Card {
	out := make([]domain.Card, len(s.queue))
	copy(out, s.queue)
	return out
}

// Logs returns the answers recorded so far.
func (s *Session) Logs() []domain.ReviewLog {
	out := make([]domain.ReviewLog, len(s.logs))
	copy(out, s.logs)
	return out
}
