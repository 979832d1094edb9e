package httpapi

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/powerdesk/backoffice/internal/infrastructure/sse"
)

// sseEndpoint streams session transitions and redirect instructions. The
// current session is sent first so a tab opened mid-session can sync.
func (s *Server) sseEndpoint(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		respondError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "streaming not supported")
		return
	}
	client := sse.NewClient(r.URL.Query().Get("client_id"))
	s.sseHub.Register(client)
	defer s.sseHub.Unregister(client)

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	initial, err := sse.NewMessage(sse.EventSnapshot, s.toSessionResponse(s.authSvc.Session()))
	if err == nil {
		writeEvent(w, initial)
	}
	flusher.Flush()

	ctx := r.Context()
	for {
		select {
		case msg := <-client.MessageChan:
			if msg == nil {
				return
			}
			writeEvent(w, msg)
			flusher.Flush()
		case <-ctx.Done():
			return
		}
	}
}

func writeEvent(w http.ResponseWriter, msg *sse.Message) {
	payload, _ := json.Marshal(msg)
	_, _ = fmt.Fprintf(w, "id: %s\nevent: %s\ndata: %s\n\n", msg.ID, msg.Event, payload)
}
