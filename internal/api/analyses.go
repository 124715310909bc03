package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/hugo-lorenzo-mato/srip/internal/core"
)

// AnalysisRequest is the body of POST /api/v1/analyses. Targets is a
// comma-separated entity list.
type AnalysisRequest struct {
	Query   string `json:"query"`
	Targets string `json:"targets"`
}

// AnalysisResponse carries the rendered report and its metadata.
type AnalysisResponse struct {
	RunID               string              `json:"run_id,omitempty"`
	Report              string              `json:"report"`
	Status              string              `json:"status"`
	CompletionStatus    string              `json:"completion_status"`
	AggregateConfidence float64             `json:"aggregate_confidence"`
	ElapsedMS           int64               `json:"elapsed_ms"`
	Agents              []core.AgentSummary `json:"agents"`
}

// completionInvalid is the completion status of a rejected request.
const completionInvalid = "invalid"

func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	var req AnalysisRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		var tooLarge *http.MaxBytesError
		switch {
		case errors.As(err, &tooLarge):
			s.respondError(w, http.StatusRequestEntityTooLarge, "request body too large")
		case errors.Is(err, io.EOF):
			s.respondError(w, http.StatusBadRequest, "request body is empty")
		default:
			s.respondError(w, http.StatusBadRequest, "invalid JSON: "+err.Error())
		}
		return
	}

	rep, _, err := s.analyzer.Analyze(r.Context(), req.Query, req.Targets)
	if err != nil {
		status, ok := httpStatusForDomainError(err)
		if !ok {
			status = http.StatusInternalServerError
		}
		if !core.IsCategory(err, core.ErrCatValidation) {
			s.logger.Error("analysis failed", "error", err)
			s.respondError(w, status, err.Error())
			return
		}
		text, message := s.analyzer.ValidationReport(err)
		s.respondJSON(w, status, AnalysisResponse{
			Report:           text,
			Status:           message,
			CompletionStatus: completionInvalid,
			Agents:           []core.AgentSummary{},
		})
		return
	}

	text, message := s.analyzer.Render(rep)
	s.respondJSON(w, http.StatusOK, AnalysisResponse{
		RunID:               rep.Metadata.RunID,
		Report:              text,
		Status:              message,
		CompletionStatus:    string(rep.Metadata.Status),
		AggregateConfidence: rep.Metadata.AggregateConfidence,
		ElapsedMS:           rep.Metadata.ElapsedMS,
		Agents:              rep.Metadata.Agents,
	})
}
