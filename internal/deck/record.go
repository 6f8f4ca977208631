package deck

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/conorfennell/leitner/internal/domain"
)

// storedCard mirrors a persisted card but accepts the loose values older
// writers produced: numeric strings for the box, date-only or millisecond timestamps.
type storedCard struct {
	ID         json.RawMessage `json:"id"`
	Front      json.RawMessage `json:"front"`
	Back       json.RawMessage `json:"back"`
	Note       json.RawMessage `json:"note"`
	Box        json.RawMessage `json:"box"`
	NextReview json.RawMessage `json:"nextReview"`
	CreatedAt  json.RawMessage `json:"createdAt"`
}

var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	time.DateOnly,
}

// decodeRecord reads one card. Only a record that is not a JSON object fails;
// unreadable fields come back as zero values for repair to fill.
func decodeRecord(raw json.RawMessage) (domain.Card, error) {
	var sc storedCard
	if err := json.Unmarshal(raw, &sc); err != nil {
		return domain.Card{}, fmt.Errorf("failed to decode card record: %w", err)
	}
	return domain.Card{
		ID:         looseString(sc.ID),
		Front:      looseString(sc.Front),
		Back:       looseString(sc.Back),
		Note:       looseString(sc.Note),
		Box:        looseInt(sc.Box),
		NextReview: looseTime(sc.NextReview),
		CreatedAt:  looseTime(sc.CreatedAt),
	}, nil
}

func isNull(raw json.RawMessage) bool {
	return len(raw) == 0 || bytes.Equal(raw, []byte("null"))
}

func looseString(raw json.RawMessage) string {
	if isNull(raw) {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return string(raw)
}

func looseInt(raw json.RawMessage) int {
	if isNull(raw) {
		return 0
	}
	var f float64
	if err := json.Unmarshal(raw, &f); err == nil {
		return int(f)
	}
	if f, err := strconv.ParseFloat(strings.TrimSpace(looseString(raw)), 64); err == nil {
		return int(f)
	}
	return 0
}

func looseTime(raw json.RawMessage) time.Time {
	if isNull(raw) {
		return time.Time{}
	}
	var ms float64
	if err := json.Unmarshal(raw, &ms); err == nil {
		return time.UnixMilli(int64(ms)).UTC()
	}
	s := strings.TrimSpace(looseString(raw))
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
