package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/psaab/blockedit/pkg/logging"
)

// setSSEHeaders configures the response for Server-Sent Events streaming.
func setSSEHeaders(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
}

// writeSSEEvent writes a single SSE event to the response.
func writeSSEEvent(w http.ResponseWriter, id string, event string, data string) {
	fmt.Fprintf(w, "id: %s\n", id)
	if event != "" {
		fmt.Fprintf(w, "event: %s\n", event)
	}
	fmt.Fprintf(w, "data: %s\n\n", data)
	if f, ok := w.(http.Flusher); ok {
		f.Flush()
	}
}

// keepAliveInterval is how often an idle stream sends an SSE comment.
var keepAliveInterval = 30 * time.Second

// eventStreamHandler streams edit events via SSE. The event name is the
// operation and the id is the event sequence number.
// Supports ?op=, ?outcome= and ?symbol= filters.
func (s *Server) eventStreamHandler(w http.ResponseWriter, r *http.Request) {
	if s.sess == nil {
		writeError(w, http.StatusServiceUnavailable, "no editing session")
		return
	}
	q := r.URL.Query()
	filter := logging.EventFilter{
		Op:      q.Get("op"),
		Outcome: q.Get("outcome"),
		Symbol:  q.Get("symbol"),
	}

	setSSEHeaders(w)
	w.WriteHeader(http.StatusOK)
	if f, ok := w.(http.Flusher); ok {
		f.Flush()
	}

	sub := s.sess.Events().Subscribe(128)
	defer sub.Close()

	ticker := time.NewTicker(keepAliveInterval)
	defer ticker.Stop()

	ctx := r.Context()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			fmt.Fprint(w, ": keep-alive\n\n")
			if f, ok := w.(http.Flusher); ok {
				f.Flush()
			}
		case ev := <-sub.C:
			if !filter.Matches(&ev) {
				continue
			}
			data, err := json.Marshal(ev)
			if err != nil {
				continue
			}
			writeSSEEvent(w, strconv.FormatUint(ev.Seq, 10), ev.Op, string(data))
		}
	}
}
