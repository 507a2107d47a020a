// Package bot exposes the conversation over HTTP. One JSON endpoint carries
// the chat; sessions are addressed by ID and live in memory, with history
// mirrored to the store so it survives a restart.
package bot

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"strings"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/anthonybui311/AI-Chat-bot-ticket/internal/classifier"
	"github.com/anthonybui311/AI-Chat-bot-ticket/internal/prompt"
	"github.com/anthonybui311/AI-Chat-bot-ticket/internal/session"
	"github.com/anthonybui311/AI-Chat-bot-ticket/internal/stage"
	"github.com/anthonybui311/AI-Chat-bot-ticket/internal/store"
)

type chatRequest struct {
	Message   string `json:"message"`
	SessionID string `json:"session_id,omitempty"`
}

type chatResponse struct {
	Response  string `json:"response"`
	SessionID string `json:"session_id"`
	Done      bool   `json:"done"`
}

type Handler struct {
	cls     classifier.Classifier
	router  *stage.Router
	store   store.Store
	locks   *session.Manager
	dataDir string

	mu       sync.Mutex
	sessions map[string]*session.Session
}

func NewHandler(cls classifier.Classifier, router *stage.Router, st store.Store, locks *session.Manager, dataDir string) *Handler {
	return &Handler{
		cls:      cls,
		router:   router,
		store:    st,
		locks:    locks,
		dataDir:  dataDir,
		sessions: make(map[string]*session.Session),
	}
}

// Routes mounts the chat endpoints on the given router.
func (h *Handler) Routes(r chi.Router) {
	r.Post("/chat", h.HandleChat)
	r.Get("/chat/{id}/history", h.HandleHistory)
	r.Delete("/chat/{id}", h.HandleDelete)
}

func (h *Handler) HandleChat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	req.Message = strings.TrimSpace(req.Message)
	if req.Message == "" {
		respondError(w, http.StatusBadRequest, "message is required")
		return
	}

	sessionID := req.SessionID
	if sessionID == "" {
		sessionID = uuid.NewString()
	}

	var resp chatResponse
	err := h.locks.WithLock(sessionID, func() error {
		sess := h.getOrCreate(sessionID)
		sess.AppendUser(req.Message)

		reply, done := h.processTurn(r.Context(), sess, req.Message)

		sess.AppendAssistant(reply)
		if err := h.store.SaveHistory(sessionID, sess.History()); err != nil {
			log.Printf("bot: saving history for %s: %v", sessionID, err)
		}
		if done {
			h.drop(sessionID)
		}

		resp = chatResponse{Response: reply, SessionID: sessionID, Done: done}
		return nil
	})
	if err != nil {
		log.Printf("bot: processing turn for %s: %v", sessionID, err)
		respondError(w, http.StatusInternalServerError, "internal error")
		return
	}

	respondJSON(w, http.StatusOK, resp)
}

// processTurn classifies one message and routes it through the state
// machine. Classifier failures degrade to a retry prompt instead of a 500.
func (h *Handler) processTurn(ctx context.Context, sess *session.Session, message string) (string, bool) {
	if stage.IsExitCommand(message) {
		return h.router.Route(ctx, sess, classifier.Result{Label: stage.LabelExit})
	}

	res, err := h.cls.Classify(ctx, prompt.ForStage(sess.Stage), toTurns(sess.History()), message)
	if err != nil {
		log.Printf("bot: classify for %s: %v", sess.ID, err)
		res = classifier.Degraded()
	}

	return h.router.Route(ctx, sess, res)
}

// toTurns converts stored history to classifier turns, dropping the current
// message which is passed separately.
func toTurns(msgs []session.Message) []classifier.Turn {
	if len(msgs) > 0 {
		msgs = msgs[:len(msgs)-1]
	}
	turns := make([]classifier.Turn, len(msgs))
	for i, m := range msgs {
		turns[i] = classifier.Turn{Role: m.Role, Content: m.Text}
	}
	return turns
}

func (h *Handler) getOrCreate(sessionID string) *session.Session {
	h.mu.Lock()
	defer h.mu.Unlock()

	if sess, ok := h.sessions[sessionID]; ok {
		return sess
	}

	sess := session.New(sessionID)
	if t, err := session.NewTranscript(h.dataDir); err != nil {
		log.Printf("bot: transcript for %s: %v", sessionID, err)
	} else {
		sess.AttachTranscript(t)
	}
	h.sessions[sessionID] = sess
	return sess
}

func (h *Handler) drop(sessionID string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if sess, ok := h.sessions[sessionID]; ok {
		sess.Close()
		delete(h.sessions, sessionID)
	}
}

func (h *Handler) HandleHistory(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "id")

	msgs, err := h.store.GetHistory(sessionID)
	if err != nil {
		log.Printf("bot: loading history for %s: %v", sessionID, err)
		respondError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if msgs == nil {
		respondError(w, http.StatusNotFound, "session not found")
		return
	}

	respondJSON(w, http.StatusOK, msgs)
}

func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "id")

	h.drop(sessionID)
	if err := h.store.ClearHistory(sessionID); err != nil {
		log.Printf("bot: clearing history for %s: %v", sessionID, err)
		respondError(w, http.StatusInternalServerError, "internal error")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("bot: encoding response: %v", err)
	}
}

func respondError(w http.ResponseWriter, status int, msg string) {
	respondJSON(w, status, map[string]string{"error": msg})
}
