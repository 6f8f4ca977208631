package web

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/conorfennell/leitner/internal/deck"
	"github.com/conorfennell/leitner/internal/domain"
	"github.com/conorfennell/leitner/internal/review"
)

// Unfinished review sessions are dropped after sessionTTL, and at most
// maxSessions are kept; the oldest goes first.
const (
	sessionTTL  = 6 * time.Hour
	maxSessions = 32
)

// Server holds the dependencies for the HTTP server.
type Server struct {
	deck   *deck.Service
	router *http.ServeMux
	now    func() time.Time

	mu       sync.Mutex
	sessions map[string]*review.Session
}

// NewServer creates and configures a new server.
func NewServer(svc *deck.Service) *Server {
	s := &Server{
		deck:     svc,
		router:   http.NewServeMux(),
		now:      time.Now,
		sessions: make(map[string]*review.Session),
	}
	s.routes()
	return s
}

// ServeHTTP implements the http.Handler interface.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) routes() {
	s.router.HandleFunc("GET /api/stats", s.handleGetStats())

	s.router.HandleFunc("GET /api/cards", s.handleListCards())
	s.router.HandleFunc("POST /api/cards", s.handleCreateCard())
	s.router.HandleFunc("GET /api/cards/{id}", s.handleGetCard())
	s.router.HandleFunc("PUT /api/cards/{id}", s.handleUpdateCard())
	s.router.HandleFunc("DELETE /api/cards/{id}", s.handleDeleteCard())

	s.router.HandleFunc("POST /api/review", s.handleStartReview())
	s.router.HandleFunc("GET /api/review/{id}", s.handleGetReview())
	s.router.HandleFunc("POST /api/review/{id}/{action}", s.handleReviewAction())
}

// cardView is what a client sees of a card under review. The back stays hidden until flipped.
type cardView struct {
	ID    string `json:"id"`
	Front string `json:"front"`
	Back  string `json:"back,omitempty"`
	Note  string `json:"note,omitempty"`
	Box   int    `json:"box"`
}

type sessionView struct {
	ID      string       `json:"id"`
	Number  int          `json:"number"`
	Total   int          `json:"total"`
	Flipped bool         `json:"flipped"`
	Done    bool         `json:"done"`
	Card    *cardView    `json:"card,omitempty"`
	Stats   review.Stats `json:"stats"`
	Saved   *bool        `json:"saved,omitempty"`
}

func viewSession(sess *review.Session) sessionView {
	v := sessionView{
		ID:      sess.ID,
		Number:  sess.Number(),
		Total:   sess.Total(),
		Flipped: sess.Flipped(),
		Done:    sess.Done(),
		Stats:   sess.Stats(),
	}
	if c, ok := sess.Current(); ok {
		v.Card = &cardView{ID: c.ID, Front: c.Front, Box: c.Box}
		if sess.Flipped() {
			v.Card.Back, v.Card.Note = c.Back, c.Note
		}
	}
	return v
}

type errorBody struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Warn("Failed to write response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorBody{Error: msg})
}

// writeDeckError maps service errors to status codes.
func writeDeckError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, deck.ErrMissingFields):
		writeError(w, http.StatusBadRequest, "front and back are required")
	case errors.Is(err, deck.ErrCardNotFound):
		writeError(w, http.StatusNotFound, "card not found")
	default:
		slog.Error("Deck operation failed", "error", err)
		writeError(w, http.StatusInternalServerError, "something went wrong, please try again")
	}
}

func (s *Server) handleGetStats() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, s.deck.Summary(r.Context()))
	}
}

func (s *Server) handleListCards() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		box := 0
		if raw := r.URL.Query().Get("box"); raw != "" {
			n, err := strconv.Atoi(raw)
			if err != nil {
				writeError(w, http.StatusBadRequest, "invalid box")
				return
			}
			box = n
		}
		cards, err := s.deck.ByBox(r.Context(), box)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid box")
			return
		}
		if cards == nil {
			cards = []domain.Card{}
		}
		writeJSON(w, http.StatusOK, cards)
	}
}

func decodeInput(w http.ResponseWriter, r *http.Request) (deck.CardInput, error) {
	var in deck.CardInput
	err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20)).Decode(&in)
	return in, err
}

func (s *Server) handleCreateCard() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		in, err := decodeInput(w, r)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid JSON body")
			return
		}
		card, err := s.deck.Create(r.Context(), in)
		if err != nil {
			writeDeckError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, card)
	}
}

func (s *Server) handleGetCard() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		card, err := s.deck.Get(r.Context(), r.PathValue("id"))
		if err != nil {
			writeDeckError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, card)
	}
}

func (s *Server) handleUpdateCard() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		in, err := decodeInput(w, r)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid JSON body")
			return
		}
		card, err := s.deck.Update(r.Context(), r.PathValue("id"), in)
		if err != nil {
			writeDeckError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, card)
	}
}

func (s *Server) handleDeleteCard() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := s.deck.Delete(r.Context(), r.PathValue("id")); err != nil {
			writeDeckError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// handleStartReview opens a session over the due cards. An empty session is
// reported as done and not kept.
func (s *Server) handleStartReview() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess := s.deck.StartReview(r.Context())
		if !sess.Done() {
			s.mu.Lock()
			s.evictSessions()
			s.sessions[sess.ID] = sess
			s.mu.Unlock()
		}
		writeJSON(w, http.StatusCreated, viewSession(sess))
	}
}

// evictSessions drops expired sessions and makes room for one more. Callers hold s.mu.
func (s *Server) evictSessions() {
	now := s.now()
	for id, sess := range s.sessions {
		if now.Sub(sess.StartedAt) > sessionTTL {
			slog.Debug("Dropping expired review session", "session", id)
			delete(s.sessions, id)
		}
	}
	for len(s.sessions) >= maxSessions {
		var oldest *review.Session
		for _, sess := range s.sessions {
			if oldest == nil || sess.StartedAt.Before(oldest.StartedAt) {
				oldest = sess
			}
		}
		delete(s.sessions, oldest.ID)
	}
}

func (s *Server) handleGetReview() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		defer s.mu.Unlock()

		sess, ok := s.sessions[r.PathValue("id")]
		if !ok {
			writeError(w, http.StatusNotFound, "review session not found")
			return
		}
		writeJSON(w, http.StatusOK, viewSession(sess))
	}
}

// handleReviewAction applies flip, correct, wrong or skip. When the last card is
// answered the session is persisted and forgotten.
func (s *Server) handleReviewAction() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		defer s.mu.Unlock()

		id := r.PathValue("id")
		sess, ok := s.sessions[id]
		if !ok {
			writeError(w, http.StatusNotFound, "review session not found")
			return
		}

		var err error
		switch r.PathValue("action") {
		case "flip":
			err = sess.Flip()
		case "correct":
			err = sess.AnswerCorrect()
		case "wrong":
			err = sess.AnswerWrong()
		case "skip":
			err = sess.Skip()
		default:
			writeError(w, http.StatusNotFound, "unknown review action")
			return
		}
		if err != nil {
			writeError(w, http.StatusConflict, err.Error())
			return
		}

		view := viewSession(sess)
		if sess.Done() {
			delete(s.sessions, id)
			_, saveErr := s.deck.FinishReview(r.Context(), sess)
			saved := saveErr == nil
			view.Saved = &saved
		}
		writeJSON(w, http.StatusOK, view)
	}
}
