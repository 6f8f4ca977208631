package leitner

import (
	"errors"
	"time"
)

// MinBox and MaxBox bound the box a card can sit in.
const (
	MinBox = 1
	MaxBox = 5
)

// ErrInvalidBox is returned when a box number falls outside [MinBox, MaxBox].
var ErrInvalidBox = errors.New("leitner: box out of range")

// intervalDays maps a box to the number of days until its next review.
var intervalDays = [MaxBox + 1]int{0, 1, 2, 4, 8, 16}

var boxLabels = [MaxBox + 1]string{"", "daily", "every 2 days", "every 4 days", "weekly", "every 2 weeks"}

// Boxes returns the box numbers in ascending order.
func Boxes() []int {
	boxes := make([]int, 0, MaxBox)
	for b := MinBox; b <= MaxBox; b++ {
		boxes = append(boxes, b)
	}
	return boxes
}

// IntervalDays returns the review interval of a box in days.
func IntervalDays(box int) (int, error) {
	if !Valid(box) {
		return 0, ErrInvalidBox
	}
	return intervalDays[box], nil
}

// Label returns a human readable description of a box's interval.
func Label(box int) string {
	if !Valid(box) {
		return ""
	}
	return boxLabels[box]
}

// Valid reports whether box is a real box number.
func Valid(box int) bool {
	return box >= MinBox && box <= MaxBox
}

// Clamp forces box into [MinBox, MaxBox].
func Clamp(box int) int {
	if box < MinBox {
		return MinBox
	}
	if box > MaxBox {
		return MaxBox
	}
	return box
}

// Promote returns the box a card moves to after a correct answer.
// Cards already in the last box stay there.
func Promote(box int) int {
	return Clamp(Clamp(box) + 1)
}

// Demote returns the box a card moves to after a wrong answer.
func Demote(int) int {
	return MinBox
}

// NextReview schedules the next review of a card that has just landed in box.
// Days are added on the calendar so the result keeps the time of day of now.
func NextReview(box int, now time.Time) time.Time {
	return now.AddDate(0, 0, intervalDays[Clamp(box)])
}

// IsDue reports whether a card scheduled for next is reviewable at now.
func IsDue(next, now time.Time) bool {
	return !next.After(now)
}
