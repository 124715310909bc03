package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
)

// handleSSE streams pipeline events as Server-Sent Events. The optional
// ?run= parameter restricts the stream to one run and ?types= to a
// comma-separated list of event types.
func (s *Server) handleSSE(w http.ResponseWriter, r *http.Request) {
	if s.eventBus == nil {
		s.respondError(w, http.StatusServiceUnavailable, "event bus not available")
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		s.respondError(w, http.StatusInternalServerError, "streaming not supported")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")

	var types []string
	if raw := r.URL.Query().Get("types"); raw != "" {
		for _, t := range strings.Split(raw, ",") {
			if t = strings.TrimSpace(t); t != "" {
				types = append(types, t)
			}
		}
	}
	runID := r.URL.Query().Get("run")

	ctx := r.Context()
	eventCh := s.eventBus.SubscribeRun(runID, types...)
	defer s.eventBus.Unsubscribe(eventCh)

	s.logger.Info("SSE client connected", "remote_addr", r.RemoteAddr, "run_id", runID)
	s.sendSSEEvent(w, flusher, "connected", map[string]string{"status": "connected"})

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("SSE client disconnected", "remote_addr", r.RemoteAddr)
			return

		case event, ok := <-eventCh:
			if !ok {
				s.logger.Info("event bus closed, ending SSE stream")
				return
			}
			s.sendSSEEvent(w, flusher, event.EventType(), event)
		}
	}
}

// sendSSEEvent writes an event to the SSE stream.
func (s *Server) sendSSEEvent(w http.ResponseWriter, flusher http.Flusher, eventType string, data interface{}) {
	jsonData, err := json.Marshal(data)
	if err != nil {
		s.logger.Error("failed to marshal SSE data", "error", err)
		return
	}

	fmt.Fprintf(w, "event: %s\n", eventType)
	fmt.Fprintf(w, "data: %s\n\n", jsonData)
	flusher.Flush()
}
