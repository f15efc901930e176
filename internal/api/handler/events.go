package handler

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/inkpress/inkpress-go/internal/events"
)

// EventsHandler streams topic events over SSE
type EventsHandler struct {
	hubManager *events.HubManager
}

// NewEventsHandler creates a new events handler
func NewEventsHandler(hubManager *events.HubManager) *EventsHandler {
	return &EventsHandler{
		hubManager: hubManager,
	}
}

// Stream handles GET /api/v1/events/{topic}. The connection stays open
// until the client disconnects or the hub shuts down.
func (h *EventsHandler) Stream(w http.ResponseWriter, r *http.Request) {
	topic := events.Topic(mux.Vars(r)["topic"])
	hub := h.hubManager.GetOrCreateHub(topic)
	events.ServeSSE(w, r, hub)
}
