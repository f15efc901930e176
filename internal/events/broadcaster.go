package events

import (
	"encoding/json"
	"log/slog"

	"github.com/inkpress/inkpress-go/internal/dependencies/clock"
	"github.com/inkpress/inkpress-go/internal/model"
)

// Broadcaster publishes typed events onto topic hubs as JSON-encoded SSE
// messages. Dispatching to a topic nobody listens on is a no-op.
type Broadcaster struct {
	hubManager *HubManager
	clock      clock.Clock
	logger     *slog.Logger
}

// NewBroadcaster creates a new Broadcaster
func NewBroadcaster(hubManager *HubManager, clk clock.Clock, logger *slog.Logger) *Broadcaster {
	return &Broadcaster{
		hubManager: hubManager,
		clock:      clk,
		logger:     logger.With(slog.String("component", "broadcaster")),
	}
}

// OpenAuth asks listeners on the auth topic to open the auth dialog in the
// given mode
func (b *Broadcaster) OpenAuth(mode model.AuthMode) {
	b.dispatch(TopicAuth, model.EventOpenAuth, model.OpenAuthPayload{Mode: mode})
}

// AuthChanged announces the new signed-in user, or nil after sign-out
func (b *Broadcaster) AuthChanged(user *model.User) {
	b.dispatch(TopicAuth, model.EventAuthChanged, model.AuthChangedPayload{User: user})
}

// JobProgress announces a pipeline stage transition on the job's topic
func (b *Broadcaster) JobProgress(job *model.Job) {
	b.dispatch(JobTopic(job.ID), model.EventJobProgress, model.JobProgressPayload{
		JobID:    job.ID,
		Stage:    job.Stage,
		Progress: job.Progress(),
	})
}

// JobComplete announces a finished job on the job's topic
func (b *Broadcaster) JobComplete(job *model.Job) {
	b.dispatch(JobTopic(job.ID), model.EventJobComplete, model.JobProgressPayload{
		JobID:    job.ID,
		Stage:    job.Stage,
		Progress: job.Progress(),
	})
}

func (b *Broadcaster) dispatch(topic Topic, eventType model.EventType, payload any) {
	hub := b.hubManager.GetHub(topic)
	if hub == nil {
		return
	}

	event := model.Event{
		Type:      eventType,
		Timestamp: b.clock.Now(),
		Payload:   payload,
	}
	data, err := json.Marshal(event)
	if err != nil {
		b.logger.Error("event payload encoding failed",
			slog.String("topic", string(topic)),
			slog.String("event", string(eventType)),
			slog.Any("error", err))
		return
	}

	hub.BroadcastEvent(string(eventType), string(data))
}
