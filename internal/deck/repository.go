// Package deck stores the card deck and exposes the operations a front end drives.
package deck

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/conorfennell/leitner/internal/domain"
	"github.com/conorfennell/leitner/internal/leitner"
	"github.com/google/uuid"
)

// DefaultKey is the storage key the deck is written under.
const DefaultKey = "leitner_v1"

// Store is a key-value store holding serialized values.
type Store interface {
	Get(ctx context.Context, key string) (value string, found bool, err error)
	Set(ctx context.Context, key, value string) error
}

// Repository persists the whole deck as one JSON array under a single key.
// Failures are logged and reported as false; they never panic or propagate.
type Repository struct {
	store Store
	key   string
	seed  bool
	now   func() time.Time

	seedMu sync.Mutex
}

// NewRepository returns a repository that seeds demo cards on first launch.
func NewRepository(store Store, key string) *Repository {
	if key == "" {
		key = DefaultKey
	}
	return &Repository{store: store, key: key, seed: true, now: time.Now}
}

// WithSeed toggles first-launch seeding.
func (r *Repository) WithSeed(seed bool) *Repository {
	r.seed = seed
	return r
}

// WithClock replaces the clock used for seeding and repairing records.
func (r *Repository) WithClock(now func() time.Time) *Repository {
	r.now = now
	return r
}

// GetAll loads every card. An absent or empty key seeds the deck;
// unreadable data yields an empty deck.
func (r *Repository) GetAll(ctx context.Context) []domain.Card {
	cards, _ := r.Load(ctx)
	return cards
}

// Load is GetAll for callers about to write the deck back. ok is false when the
// stored value could not be read at all; saving over it would destroy it.
// Individual records that are not JSON objects are logged and skipped.
func (r *Repository) Load(ctx context.Context) (cards []domain.Card, ok bool) {
	raw, found, err := r.store.Get(ctx, r.key)
	if err != nil {
		slog.Error("Failed to load cards", "key", r.key, "error", err)
		return []domain.Card{}, false
	}
	if !found || raw == "" {
		return r.seedDeck(ctx)
	}
	return r.decode(raw)
}

func (r *Repository) decode(raw string) ([]domain.Card, bool) {
	var records []json.RawMessage
	if err := json.Unmarshal([]byte(raw), &records); err != nil {
		slog.Error("Failed to decode cards", "key", r.key, "error", err)
		return []domain.Card{}, false
	}

	now := r.now()
	cards := make([]domain.Card, 0, len(records))
	for i, rec := range records {
		c, err := decodeRecord(rec)
		if err != nil {
			slog.Error("Skipping unreadable card record", "key", r.key, "index", i, "error", err)
			continue
		}
		r.repair(&c, now)
		cards = append(cards, c)
	}
	return cards, true
}

// repair fills defaults for fields older records may lack.
func (r *Repository) repair(c *domain.Card, now time.Time) {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	if !leitner.Valid(c.Box) {
		if c.Box != 0 {
			slog.Warn("Card box out of range, clamping", "id", c.ID, "box", c.Box)
		}
		c.Box = leitner.Clamp(c.Box)
	}
	if c.NextReview.IsZero() {
		c.NextReview = now
	}
	if c.CreatedAt.IsZero() {
		c.CreatedAt = now
	}
}

// Save replaces the stored deck with cards.
func (r *Repository) Save(ctx context.Context, cards []domain.Card) bool {
	if cards == nil {
		cards = []domain.Card{}
	}
	data, err := json.Marshal(cards)
	if err != nil {
		slog.Error("Failed to encode cards", "key", r.key, "error", err)
		return false
	}
	if err := r.store.Set(ctx, r.key, string(data)); err != nil {
		slog.Error("Failed to save cards", "key", r.key, "error", err)
		return false
	}
	return true
}

// Add appends a card to the deck.
func (r *Repository) Add(ctx context.Context, card domain.Card) bool {
	cards, ok := r.Load(ctx)
	if !ok {
		return false
	}
	return r.Save(ctx, append(cards, card))
}

// Update replaces the card with the same ID. Unknown IDs leave the deck unchanged.
func (r *Repository) Update(ctx context.Context, card domain.Card) bool {
	cards, ok := r.Load(ctx)
	if !ok {
		return false
	}
	for i := range cards {
		if cards[i].ID == card.ID {
			cards[i] = card
		}
	}
	return r.Save(ctx, cards)
}

// Delete removes the card with the given ID.
func (r *Repository) Delete(ctx context.Context, id string) bool {
	cards, ok := r.Load(ctx)
	if !ok {
		return false
	}
	kept := cards[:0]
	for _, c := range cards {
		if c.ID != id {
			kept = append(kept, c)
		}
	}
	return r.Save(ctx, kept)
}

// seedDeck writes the demo cards once. Concurrent first reads wait on seedMu
// and pick up whatever the first one stored.
func (r *Repository) seedDeck(ctx context.Context) ([]domain.Card, bool) {
	r.seedMu.Lock()
	defer r.seedMu.Unlock()

	raw, found, err := r.store.Get(ctx, r.key)
	if err != nil {
		slog.Error("Failed to load cards", "key", r.key, "error", err)
		return []domain.Card{}, false
	}
	if found && raw != "" {
		return r.decode(raw)
	}
	if !r.seed {
		return []domain.Card{}, true
	}

	now := r.now()
	cards := make([]domain.Card, 0, len(demoCards))
	for _, d := range demoCards {
		cards = append(cards, domain.NewCard(d.front, d.back, d.note, now))
	}
	slog.Info("Seeding demo cards", "key", r.key, "count", len(cards))
	if !r.Save(ctx, cards) {
		return cards, false
	}
	return cards, true
}

var demoCards = []struct {
	front, back, note string
}{
	{"What is the capital of France?", "Paris", "The largest city in France"},
	{"What is the chemical formula of water?", "H₂O", "Two hydrogen atoms, one oxygen atom"},
	{"What is 7 × 8?", "56", ""},
	{"Who wrote the Shahnameh?", "Abolqasem Ferdowsi", "Composed in the 10th century"},
	{"What is the speed of light?", "299,792,458 metres per second", "≈ 300,000 km per second"},
	{"What is Fe on the periodic table?", "Iron", "From the Latin word ferrum"},
}
