package server

import (
	"bufio"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"

	"tictactoe/agent"
	"tictactoe/game"
)

type moveRequest struct {
	History     *game.History `json:"history"`
	Player      string        `json:"player"`
	Exploration *float64      `json:"exploration_rate"`
}

type moveResponse struct {
	Move   int       `json:"move"`
	Player game.Mark `json:"player"`
}

type learnRequest struct {
	History *game.History `json:"history"`
	Winner  *string       `json:"winner"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// handleGetMove proposes a move for the side on turn. The caller may pin
// the side with "player" and override the configured exploration rate with
// "exploration_rate".
func (s *Server) handleGetMove(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "POST only")
		return
	}
	var req moveRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.History == nil {
		writeError(w, http.StatusBadRequest, "Missing 'history' field")
		return
	}
	h := *req.History

	mover := h.NextPlayer()
	if req.Player != "" {
		m, err := game.ParseMark(req.Player)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		mover = m
	}

	exploration := s.cfg.Exploration
	if req.Exploration != nil {
		exploration = *req.Exploration
	}
	if exploration < 0 || exploration > 1 {
		writeError(w, http.StatusBadRequest, "exploration_rate must be in [0, 1]")
		return
	}

	cell, err := s.agent.SelectMove(h, mover, exploration)
	if err != nil {
		writeAgentError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, moveResponse{Move: cell, Player: mover})
}

// handleLearn folds a finished game into the table, then queues a flush
// and a stats push for websocket subscribers.
func (s *Server) handleLearn(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "POST only")
		return
	}
	var req learnRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.History == nil {
		writeError(w, http.StatusBadRequest, "Missing 'history' field")
		return
	}
	if req.Winner == nil {
		writeError(w, http.StatusBadRequest, "Missing 'winner' field")
		return
	}
	outcome, err := game.ParseOutcome(*req.Winner)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := s.agent.Train(*req.History, outcome); err != nil {
		writeAgentError(w, err)
		return
	}
	s.requestFlush()
	s.hub.PublishStats(s.agent.Stats(), outcome)
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleIndex serves the whole value table in its persisted shape.
func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	writeJSON(w, http.StatusOK, s.agent.Table().Snapshot())
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.agent.Stats())
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Write([]byte("OK"))
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "Request must be JSON")
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("failed to write response")
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

// writeAgentError maps domain rejections to 400s; anything else is a 500.
func writeAgentError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, game.ErrIllegalHistory),
		errors.Is(err, agent.ErrInvalidTurn),
		errors.Is(err, agent.ErrNotTerminal),
		errors.Is(err, agent.ErrOutcomeMismatch):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		log.Error().Err(err).Msg("request failed")
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// Hijack keeps websocket upgrades working behind the logging wrapper.
func (r *statusRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	hj, ok := r.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, errors.New("response writer does not support hijacking")
	}
	return hj.Hijack()
}

// logRequests emits one access log line per request.
func logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		log.Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", rec.status).
			Dur("duration", time.Since(start)).
			Msg("request served")
	})
}
