package server

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"
)

const defaultSessionID = "default"

type chatRequest struct {
	Message string `json:"message"`
}

type chatResponse struct {
	Response string `json:"response"`
}

type clearResponse struct {
	Status    string `json:"status"`
	SessionID string `json:"session_id"`
	Message   string `json:"message"`
}

type intentInfo struct {
	Tag string `json:"tag"`
}

type intentsResponse struct {
	Intents []intentInfo `json:"intents"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) handleRoot(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"message": "BizChat Assistant API is online"})
}

func (s *Server) handleIntents(w http.ResponseWriter, _ *http.Request) {
	tags := s.catalog.Current().Tags()
	resp := intentsResponse{Intents: make([]intentInfo, len(tags))}
	for i, tag := range tags {
		resp.Intents[i] = intentInfo{Tag: tag}
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body: expected {\"message\": string}"})
		return
	}

	id := sessionID(r)
	logger := s.logger.With(zap.String("session_id", id), zap.String("request_id", requestIDFrom(r.Context())))
	logger.Debug("Received message", zap.String("message", req.Message))

	reply := s.bot.Reply(r.Context(), id, req.Message)

	logger.Debug("Sending response", zap.String("response", reply))
	writeJSON(w, http.StatusOK, chatResponse{Response: reply})
}

func (s *Server) handleClearHistory(w http.ResponseWriter, r *http.Request) {
	id := sessionID(r)
	if !s.sessions.Clear(id) {
		writeJSON(w, http.StatusNotFound, clearResponse{
			Status:    "not_found",
			SessionID: id,
			Message:   "session not found",
		})
		return
	}
	writeJSON(w, http.StatusOK, clearResponse{
		Status:    "cleared",
		SessionID: id,
		Message:   "history cleared",
	})
}

// sessionID reads session_id from the query string or a form body.
func sessionID(r *http.Request) string {
	if id := r.FormValue("session_id"); id != "" {
		return id
	}
	return defaultSessionID
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
