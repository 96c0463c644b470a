package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/sse"
	"github.com/smazurov/kmsvout/internal/events"
)

// registerSSERoutes streams display lifecycle events. Frame events are left
// out; use /metrics for frame rates.
func (s *Server) registerSSERoutes() {
	sse.Register(s.api, huma.Operation{
		OperationID: "events-stream",
		Method:      http.MethodGet,
		Path:        "/api/events",
		Summary:     "Server-Sent Events Stream",
		Description: "Real-time stream of session, commit failure, hotplug and override events",
		Tags:        []string{"events"},
	}, map[string]any{
		"session-opened":    events.SessionOpenedEvent{},
		"session-closed":    events.SessionClosedEvent{},
		"commit-failed":     events.CommitFailedEvent{},
		"display-hotplug":   events.DisplayHotplugEvent{},
		"overrides-changed": events.OverridesChangedEvent{},
	}, func(ctx context.Context, _ *struct{}, send sse.Sender) {
		eventCh := make(chan any, 10)

		unsubscribers := []func(){
			events.Forward[events.SessionOpenedEvent](s.eventBus, eventCh),
			events.Forward[events.SessionClosedEvent](s.eventBus, eventCh),
			events.Forward[events.CommitFailedEvent](s.eventBus, eventCh),
			events.Forward[events.DisplayHotplugEvent](s.eventBus, eventCh),
			events.Forward[events.OverridesChangedEvent](s.eventBus, eventCh),
		}
		defer func() {
			for _, unsub := range unsubscribers {
				unsub()
			}
		}()

		for {
			select {
			case <-ctx.Done():
				return
			case event := <-eventCh:
				if err := send.Data(event); err != nil {
					return
				}
			}
		}
	})
}
