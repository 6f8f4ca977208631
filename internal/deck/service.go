package deck

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/conorfennell/leitner/internal/domain"
	"github.com/conorfennell/leitner/internal/leitner"
	"github.com/conorfennell/leitner/internal/review"
	"github.com/go-playground/validator/v10"
)

var (
	ErrMissingFields = errors.New("deck: front and back are required")
	ErrCardNotFound  = errors.New("deck: card not found")
	ErrSaveFailed    = errors.New("deck: failed to save cards")
)

// History records review answers. It is optional.
type History interface {
	InsertReviewLogs(ctx context.Context, logs []domain.ReviewLog) error
	ListReviewLogs(ctx context.Context, limit int) ([]domain.ReviewLog, error)
}

// CardInput is the user-editable part of a card.
type CardInput struct {
	Front string `json:"front" validate:"required"`
	Back  string `json:"back" validate:"required"`
	Note  string `json:"note"`
}

func (in CardInput) trimmed() CardInput {
	return CardInput{
		Front: strings.TrimSpace(in.Front),
		Back:  strings.TrimSpace(in.Back),
		Note:  strings.TrimSpace(in.Note),
	}
}

// Service manages the card lifecycle and review sessions on top of a Repository.
type Service struct {
	repo     *Repository
	history  History
	validate *validator.Validate
	now      func() time.Time

	// mu serializes read-modify-write cycles on the deck.
	mu sync.Mutex
}

// NewService creates a service. history may be nil.
func NewService(repo *Repository, history History) *Service {
	return &Service{
		repo:     repo,
		history:  history,
		validate: validator.New(validator.WithRequiredStructEnabled()),
		now:      time.Now,
	}
}

// WithClock replaces the service clock.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// All returns every card in the deck.
func (s *Service) All(ctx context.Context) []domain.Card {
	return s.repo.GetAll(ctx)
}

// Due returns the cards whose next review has been reached, in deck order.
func (s *Service) Due(ctx context.Context) []domain.Card {
	now := s.now()
	var due []domain.Card
	for _, c := range s.repo.GetAll(ctx) {
		if c.IsDue(now) {
			due = append(due, c)
		}
	}
	return due
}

// ByBox returns the cards in box. A box of zero returns every card.
func (s *Service) ByBox(ctx context.Context, box int) ([]domain.Card, error) {
	all := s.repo.GetAll(ctx)
	if box == 0 {
		return all, nil
	}
	if !leitner.Valid(box) {
		return nil, fmt.Errorf("filter by box %d: %w", box, leitner.ErrInvalidBox)
	}
	var out []domain.Card
	for _, c := range all {
		if c.Box == box {
			out = append(out, c)
		}
	}
	return out, nil
}

// Get returns the card with the given ID.
func (s *Service) Get(ctx context.Context, id string) (domain.Card, error) {
	for _, c := range s.repo.GetAll(ctx) {
		if c.ID == id {
			return c, nil
		}
	}
	return domain.Card{}, ErrCardNotFound
}

// Create validates in and adds a new card in the first box.
func (s *Service) Create(ctx context.Context, in CardInput) (domain.Card, error) {
	in = in.trimmed()
	if err := s.check(in); err != nil {
		return domain.Card{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	card := domain.NewCard(in.Front, in.Back, in.Note, s.now())
	if !s.repo.Add(ctx, card) {
		return domain.Card{}, ErrSaveFailed
	}
	slog.Debug("Card created", "id", card.ID)
	return card, nil
}

// Update edits the text of an existing card. Its schedule is untouched.
func (s *Service) Update(ctx context.Context, id string, in CardInput) (domain.Card, error) {
	in = in.trimmed()
	if err := s.check(in); err != nil {
		return domain.Card{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	card, err := s.Get(ctx, id)
	if err != nil {
		return domain.Card{}, err
	}
	card.Front, card.Back, card.Note = in.Front, in.Back, in.Note
	if !s.repo.Update(ctx, card) {
		return domain.Card{}, ErrSaveFailed
	}
	return card, nil
}

// Delete removes a card.
func (s *Service) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	if !s.repo.Delete(ctx, id) {
		return ErrSaveFailed
	}
	return nil
}

// AddAll appends already-built cards in one write.
func (s *Service) AddAll(ctx context.Context, cards []domain.Card) error {
	if len(cards) == 0 {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	all, ok := s.repo.Load(ctx)
	if !ok || !s.repo.Save(ctx, append(all, cards...)) {
		return ErrSaveFailed
	}
	return nil
}

func (s *Service) check(in CardInput) error {
	if err := s.validate.Struct(in); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			return ErrMissingFields
		}
		return fmt.Errorf("failed to validate card: %w", err)
	}
	return nil
}

// StartReview opens a session over the cards due now. The session may be empty.
func (s *Service) StartReview(ctx context.Context) *review.Session {
	return review.NewSession(s.Due(ctx), s.now)
}

// FinishReview merges the session's cards back into the deck by ID and saves it in bulk.
// Review logs are written when a history is configured; failing to do so is only logged.
func (s *Service) FinishReview(ctx context.Context, session *review.Session) (review.Stats, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	modified := make(map[string]domain.Card, session.Total())
	for _, c := range session.Cards() {
		modified[c.ID] = c
	}

	stats := session.Stats()
	all, ok := s.repo.Load(ctx)
	if !ok {
		return stats, ErrSaveFailed
	}
	for i, c := range all {
		if m, ok := modified[c.ID]; ok {
			all[i] = m
		}
	}
	if !s.repo.Save(ctx, all) {
		return stats, ErrSaveFailed
	}

	if s.history != nil {
		if err := s.history.InsertReviewLogs(ctx, session.Logs()); err != nil {
			slog.Warn("Failed to record review history", "session", session.ID, "error", err)
		}
	}

	slog.Info("Review session finished",
		"session", session.ID,
		"correct", stats.Correct,
		"wrong", stats.Wrong,
		"percentage", stats.Percentage,
	)
	return stats, nil
}

// History returns recent review logs, newest first.
func (s *Service) History(ctx context.Context, limit int) ([]domain.ReviewLog, error) {
	if s.history == nil {
		return nil, nil
	}
	return s.history.ListReviewLogs(ctx, limit)
}

// Summary builds the dashboard overview of the deck.
func (s *Service) Summary(ctx context.Context) Summary {
	return Summarize(s.repo.GetAll(ctx), s.now())
}
