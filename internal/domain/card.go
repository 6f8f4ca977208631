package domain

import (
	"time"

	"github.com/conorfennell/leitner/internal/leitner"
	"github.com/google/uuid"
)

// Card is a single flashcard and its position in the Leitner boxes.
type Card struct {
	ID         string    `json:"id"`
	Front      string    `json:"front"`
	Back       string    `json:"back"`
	Note       string    `json:"note"`
	Box        int       `json:"box"`
	NextReview time.Time `json:"nextReview"`
	CreatedAt  time.Time `json:"createdAt"`
}

// NewCard creates a card in the first box that is due immediately.
func NewCard(front, back, note string, now time.Time) Card {
	return Card{
		ID:         uuid.NewString(),
		Front:      front,
		Back:       back,
		Note:       note,
		Box:        leitner.MinBox,
		NextReview: now,
		CreatedAt:  now,
	}
}

// IsDue reports whether the card should be reviewed at now.
func (c Card) IsDue(now time.Time) bool {
	return leitner.IsDue(c.NextReview, now)
}

// MarkCorrect promotes the card one box and schedules it by the new box's interval.
func (c *Card) MarkCorrect(now time.Time) {
	c.Box = leitner.Promote(c.Box)
	c.NextReview = leitner.NextReview(c.Box, now)
}

// MarkWrong sends the card back to the first box.
func (c *Card) MarkWrong(now time.Time) {
	c.Box = leitner.Demote(c.Box)
	c.NextReview = leitner.NextReview(c.Box, now)
}

// ReviewLog records a single answer given during a review session.
type ReviewLog struct {
	CardID    string
	Timestamp time.Time
	Correct   bool
	FromBox   int
	ToBox     int
}
