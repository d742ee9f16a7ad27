package api

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/consultiq/consultiq/internal/engine"
	"github.com/consultiq/consultiq/internal/models"
	"github.com/consultiq/consultiq/internal/notify"
	"github.com/consultiq/consultiq/internal/store"
)

// SessionResponse is the wire shape of one session.
type SessionResponse struct {
	ID        string                   `json:"id"`
	Stage     models.Stage             `json:"stage"`
	State     models.ConversationState `json:"state"`
	CreatedAt time.Time                `json:"created_at"`
	UpdatedAt time.Time                `json:"updated_at"`
}

// TurnResponse is the wire shape of one processed turn.
type TurnResponse struct {
	SessionID       string                  `json:"session_id"`
	Message         string                  `json:"message"`
	Stage           models.Stage            `json:"stage"`
	Action          models.Action           `json:"action"`
	Qualification   models.Qualification    `json:"qualification"`
	Recommendations []models.Recommendation `json:"recommendations,omitempty"`
	QuickReplies    []string                `json:"quick_replies"`
}

// createSessionHandler handles POST /sessions.
func (s *Server) createSessionHandler(w http.ResponseWriter, r *http.Request) {
	if r.Body != nil {
		defer r.Body.Close()
	}
	slog.Debug("Server.createSessionHandler: processing request", "method", r.Method, "path", r.URL.Path)

	var req models.CreateSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		slog.Warn("Server.createSessionHandler: failed to decode JSON", "error", err)
		writeJSONResponse(w, http.StatusBadRequest, models.Error("Invalid JSON format"))
		return
	}
	if err := req.Validate(); err != nil {
		slog.Warn("Server.createSessionHandler: validation failed", "error", err)
		writeJSONResponse(w, http.StatusBadRequest, models.Error(err.Error()))
		return
	}

	now := time.Now()
	sessionID := uuid.NewString()
	state := engine.Initialize(req.Seed, now)

	stateJSON, err := json.Marshal(state)
	if err != nil {
		slog.Error("Server.createSessionHandler: failed to marshal state", "error", err)
		writeJSONResponse(w, http.StatusInternalServerError, models.Error("Failed to create session"))
		return
	}
	session := store.Session{ID: sessionID, State: stateJSON, CreatedAt: now, UpdatedAt: now}
	if err := s.st.SaveSession(session); err != nil {
		slog.Error("Server.createSessionHandler: save failed", "error", err)
		writeJSONResponse(w, http.StatusInternalServerError, models.Error("Failed to create session"))
		return
	}

	welcome := s.phrase(r, models.Action{Type: models.ActionContinueDiscovery}, state, fallbackWelcome)
	if err := s.st.AddMessage(models.Message{SessionID: sessionID, Role: models.RoleAssistant, Body: welcome, Time: now}); err != nil {
		slog.Error("Server.createSessionHandler: failed to store welcome message", "error", err, "sessionID", sessionID)
	}

	slog.Info("Server.createSessionHandler: session created", "sessionID", sessionID)
	writeJSONResponse(w, http.StatusCreated, models.Success(SessionResponse{
		ID:        sessionID,
		Stage:     state.Stage,
		State:     state,
		CreatedAt: now,
		UpdatedAt: now,
	}))
}

// getSessionHandler handles GET /sessions/{id}.
func (s *Server) getSessionHandler(w http.ResponseWriter, r *http.Request) {
	sessionID := r.PathValue("id")
	slog.Debug("Server.getSessionHandler: processing request", "sessionID", sessionID)

	session, state, ok := s.loadSession(w, sessionID)
	if !ok {
		return
	}
	writeJSONResponse(w, http.StatusOK, models.Success(SessionResponse{
		ID:        session.ID,
		Stage:     state.Stage,
		State:     state,
		CreatedAt: session.CreatedAt,
		UpdatedAt: session.UpdatedAt,
	}))
}

// listSessionsHandler handles GET /sessions.
func (s *Server) listSessionsHandler(w http.ResponseWriter, r *http.Request) {
	sessions, err := s.st.ListSessions()
	if err != nil {
		slog.Error("Server.listSessionsHandler: list failed", "error", err)
		writeJSONResponse(w, http.StatusInternalServerError, models.Error("Failed to list sessions"))
		return
	}

	out := make([]SessionResponse, 0, len(sessions))
	for _, session := range sessions {
		var state models.ConversationState
		if err := json.Unmarshal(session.State, &state); err != nil {
			slog.Error("Server.listSessionsHandler: corrupt state blob", "error", err, "sessionID", session.ID)
			continue
		}
		out = append(out, SessionResponse{
			ID:        session.ID,
			Stage:     state.Stage,
			State:     state,
			CreatedAt: session.CreatedAt,
			UpdatedAt: session.UpdatedAt,
		})
	}
	writeJSONResponse(w, http.StatusOK, models.Success(out))
}

// deleteSessionHandler handles DELETE /sessions/{id}.
func (s *Server) deleteSessionHandler(w http.ResponseWriter, r *http.Request) {
	sessionID := r.PathValue("id")
	slog.Debug("Server.deleteSessionHandler: processing request", "sessionID", sessionID)

	session, err := s.st.GetSession(sessionID)
	if err != nil {
		slog.Error("Server.deleteSessionHandler: lookup failed", "error", err, "sessionID", sessionID)
		writeJSONResponse(w, http.StatusInternalServerError, models.Error("Failed to delete session"))
		return
	}
	if session == nil {
		writeJSONResponse(w, http.StatusNotFound, models.Error(models.ErrSessionNotFound.Error()))
		return
	}
	if err := s.st.DeleteSession(sessionID); err != nil {
		slog.Error("Server.deleteSessionHandler: delete failed", "error", err, "sessionID", sessionID)
		writeJSONResponse(w, http.StatusInternalServerError, models.Error("Failed to delete session"))
		return
	}
	slog.Info("Server.deleteSessionHandler: session deleted", "sessionID", sessionID)
	writeJSONResponse(w, http.StatusOK, models.Success(nil))
}

// turnHandler handles POST /sessions/{id}/turns.
func (s *Server) turnHandler(w http.ResponseWriter, r *http.Request) {
	if r.Body != nil {
		defer r.Body.Close()
	}
	sessionID := r.PathValue("id")
	slog.Debug("Server.turnHandler: processing request", "sessionID", sessionID)

	var req models.TurnRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		slog.Warn("Server.turnHandler: failed to decode JSON", "error", err)
		writeJSONResponse(w, http.StatusBadRequest, models.Error("Invalid JSON format"))
		return
	}
	if err := req.Validate(); err != nil {
		slog.Warn("Server.turnHandler: validation failed", "error", err, "sessionID", sessionID)
		writeJSONResponse(w, http.StatusBadRequest, models.Error(err.Error()))
		return
	}

	if !s.limiter.Allow(sessionID) {
		slog.Warn("Server.turnHandler: rate limit exceeded", "sessionID", sessionID)
		writeJSONResponse(w, http.StatusTooManyRequests, models.Error("Too many messages; slow down"))
		return
	}

	// One in-flight turn per session.
	mu := s.sessionLock(sessionID)
	mu.Lock()
	defer mu.Unlock()

	session, state, ok := s.loadSession(w, sessionID)
	if !ok {
		return
	}

	now := time.Now()
	result, err := s.engine.ProcessTurn(state, req.Message, now)
	if err != nil {
		slog.Warn("Server.turnHandler: turn rejected", "error", err, "sessionID", sessionID)
		writeJSONResponse(w, http.StatusBadRequest, models.Error(err.Error()))
		return
	}

	message := s.phrase(r, result.Action, result.State, "")

	stateJSON, err := json.Marshal(result.State)
	if err != nil {
		slog.Error("Server.turnHandler: failed to marshal state", "error", err, "sessionID", sessionID)
		writeJSONResponse(w, http.StatusInternalServerError, models.Error("Failed to save session"))
		return
	}
	session.State = stateJSON
	session.UpdatedAt = now
	if err := s.st.SaveSession(*session); err != nil {
		slog.Error("Server.turnHandler: save failed", "error", err, "sessionID", sessionID)
		writeJSONResponse(w, http.StatusInternalServerError, models.Error("Failed to save session"))
		return
	}

	if err := s.st.AddMessage(models.Message{SessionID: sessionID, Role: models.RoleUser, Body: req.Message, Time: now}); err != nil {
		slog.Error("Server.turnHandler: failed to store user message", "error", err, "sessionID", sessionID)
	}
	if err := s.st.AddMessage(models.Message{SessionID: sessionID, Role: models.RoleAssistant, Body: message, Time: now}); err != nil {
		slog.Error("Server.turnHandler: failed to store assistant message", "error", err, "sessionID", sessionID)
	}

	if result.Action.Type == models.ActionGenerateSummary && result.State.Flags.IsQualified {
		s.enqueueLeadSummary(sessionID, result)
	}

	slog.Info("Server.turnHandler: turn processed",
		"sessionID", sessionID,
		"stage", result.State.Stage,
		"action", result.Action.Type,
		"qualified", result.Qualification.IsQualified)

	writeJSONResponse(w, http.StatusOK, models.Success(TurnResponse{
		SessionID:       sessionID,
		Message:         message,
		Stage:           result.State.Stage,
		Action:          result.Action,
		Qualification:   result.Qualification,
		Recommendations: result.Recommendations,
		QuickReplies:    result.QuickReplies,
	}))
}

// messagesHandler handles GET /sessions/{id}/messages.
func (s *Server) messagesHandler(w http.ResponseWriter, r *http.Request) {
	sessionID := r.PathValue("id")
	slog.Debug("Server.messagesHandler: processing request", "sessionID", sessionID)

	if _, _, ok := s.loadSession(w, sessionID); !ok {
		return
	}
	messages, err := s.st.GetMessages(sessionID)
	if err != nil {
		slog.Error("Server.messagesHandler: query failed", "error", err, "sessionID", sessionID)
		writeJSONResponse(w, http.StatusInternalServerError, models.Error("Failed to load messages"))
		return
	}
	writeJSONResponse(w, http.StatusOK, models.Success(messages))
}

// loadSession fetches and decodes a session, writing the error response on
// failure.
func (s *Server) loadSession(w http.ResponseWriter, sessionID string) (*store.Session, models.ConversationState, bool) {
	session, err := s.st.GetSession(sessionID)
	if err != nil {
		slog.Error("Server.loadSession: lookup failed", "error", err, "sessionID", sessionID)
		writeJSONResponse(w, http.StatusInternalServerError, models.Error("Failed to load session"))
		return nil, models.ConversationState{}, false
	}
	if session == nil {
		writeJSONResponse(w, http.StatusNotFound, models.Error(models.ErrSessionNotFound.Error()))
		return nil, models.ConversationState{}, false
	}

	var state models.ConversationState
	if err := json.Unmarshal(session.State, &state); err != nil {
		slog.Error("Server.loadSession: corrupt state blob", "error", err, "sessionID", sessionID)
		writeJSONResponse(w, http.StatusInternalServerError, models.Error("Session state is corrupt"))
		return nil, models.ConversationState{}, false
	}
	if err := state.Validate(); err != nil {
		slog.Error("Server.loadSession: invalid state", "error", err, "sessionID", sessionID)
		writeJSONResponse(w, http.StatusInternalServerError, models.Error("Session state is corrupt"))
		return nil, models.ConversationState{}, false
	}
	return session, state, true
}

// enqueueLeadSummary queues a durable lead summary notification. The dedupe
// key guarantees at most one summary per session.
func (s *Server) enqueueLeadSummary(sessionID string, result engine.TurnResult) {
	summary := notify.LeadSummary{
		SessionID:        sessionID,
		Email:            result.State.Collected.Email,
		Name:             result.State.Collected.Name,
		OrganizationName: result.State.Collected.OrganizationName,
		OrganizationType: result.State.Collected.OrganizationType,
		BusinessNeeds:    result.State.Collected.BusinessNeeds,
		Timeline:         result.State.Collected.Timeline,
		Budget:           result.State.Collected.Budget,
		Score:            result.Qualification.Score,
		Priority:         result.Qualification.Priority,
		Reasons:          result.Qualification.Reasons,
	}
	payload, err := json.Marshal(summary)
	if err != nil {
		slog.Error("Server.enqueueLeadSummary: marshal failed", "error", err, "sessionID", sessionID)
		return
	}
	dedupeKey := notify.KindLeadSummary + ":" + sessionID
	if _, err := s.st.EnqueueNotification(sessionID, notify.KindLeadSummary, string(payload), dedupeKey); err != nil {
		slog.Error("Server.enqueueLeadSummary: enqueue failed", "error", err, "sessionID", sessionID)
		return
	}
	slog.Info("Server.enqueueLeadSummary: lead summary queued", "sessionID", sessionID)
}
