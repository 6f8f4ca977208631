package deck

import (
	"time"

	"github.com/conorfennell/leitner/internal/domain"
	"github.com/conorfennell/leitner/internal/leitner"
)

// dueListSize caps the due cards shown on the dashboard.
const dueListSize = 6

// BoxSummary counts the cards in one box.
type BoxSummary struct {
	Box          int    `json:"box"`
	Label        string `json:"label"`
	IntervalDays int    `json:"intervalDays"`
	Total        int    `json:"total"`
	Due          int    `json:"due"`
}

// Summary is the dashboard overview of a deck.
type Summary struct {
	Total    int           `json:"total"`
	Due      int           `json:"due"`
	Mastered int           `json:"mastered"`
	Box1     int           `json:"box1"`
	Boxes    []BoxSummary  `json:"boxes"`
	DueCards []domain.Card `json:"dueCards"`
}

// Summarize counts cards per box and collects the first due cards.
func Summarize(cards []domain.Card, now time.Time) Summary {
	sum := Summary{Total: len(cards), DueCards: []domain.Card{}}
	for _, b := range leitner.Boxes() {
		days, _ := leitner.IntervalDays(b)
		sum.Boxes = append(sum.Boxes, BoxSummary{Box: b, Label: leitner.Label(b), IntervalDays: days})
	}

	for _, c := range cards {
		due := c.IsDue(now)
		if leitner.Valid(c.Box) {
			bs := &sum.Boxes[c.Box-leitner.MinBox]
			bs.Total++
			if due {
				bs.Due++
			}
		}
		if c.Box == leitner.MaxBox {
			sum.Mastered++
		}
		if c.Box == leitner.MinBox {
			sum.Box1++
		}
		if due {
			sum.Due++
			if len(sum.DueCards) < dueListSize {
				sum.DueCards = append(sum.DueCards, c)
			}
		}
	}
	return sum
}
