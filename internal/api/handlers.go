// internal/api/handlers.go
package api

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"net/http"
	"time"

	"nalk-analytics/internal/pipeline"
	composeanswer "nalk-analytics/internal/workers/nalk-ai/compose-answer"
)

const maxBodyBytes = 64 << 10

type QuestionRequest struct {
	Question string `json:"question"`
}

type AnswerResponse struct {
	Answer string `json:"answer"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}

func (s *Server) handleQuestion(w http.ResponseWriter, r *http.Request) {
	var req QuestionRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "Invalid request body"})
		return
	}

	result, err := s.answerer.Answer(r.Context(), req.Question)
	if err != nil {
		if stderrors.Is(err, pipeline.ErrEmptyQuestion) {
			writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "Question is required"})
			return
		}
		s.logger.Error("question failed", map[string]interface{}{"error": err})
		writeJSON(w, http.StatusInternalServerError, ErrorResponse{Error: composeanswer.Apology})
		return
	}

	writeJSON(w, http.StatusOK, AnswerResponse{Answer: result.Answer})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	status := http.StatusOK
	report := make(map[string]string, len(s.checks))
	pools := make(map[string]interface{})
	for name, check := range s.checks {
		if err := check.Ping(ctx); err != nil {
			report[name] = err.Error()
			status = http.StatusServiceUnavailable
			continue
		}
		report[name] = "ok"
		if pr, ok := check.(PoolReporter); ok {
			pools[name] = pr.PoolStats()
		}
	}

	state := "ready"
	if status != http.StatusOK {
		state = "not ready"
	}
	body := map[string]interface{}{"status": state, "checks": report}
	if len(pools) > 0 {
		body["pools"] = pools
	}
	writeJSON(w, status, body)
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
