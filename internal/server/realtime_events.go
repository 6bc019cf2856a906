package server

import (
	"context"
	"encoding/json"
	"log/slog"
	"sort"

	"agora/internal/middleware"
	"agora/internal/observability"
)

// Event type constants prevent typos in event names.
const (
	EventBidPlaced     = "bid_placed"
	EventListingClosed = "listing_closed"
	EventPostCreated   = "post_created"
	EventNewReader     = "new_reader"
	EventEmailReceived = "email_received"
)

func encodeEvent(eventType string, payload map[string]interface{}) (string, bool) {
	event := map[string]interface{}{
		"type":    eventType,
		"payload": payload,
	}
	eventJSON, err := json.Marshal(event)
	if err != nil {
		middleware.Logger.Error("failed to marshal event",
			slog.String("event_type", eventType), slog.String("error", err.Error()))
		return "", false
	}
	observability.WebSocketEventsTotal.WithLabelValues(eventType).Inc()
	return string(eventJSON), true
}

// publishUserEvent delivers an event to one user's connections. With Redis the
// event goes through pub/sub only and every instance's hub picks it up from
// there, including this one. Without Redis the local hub delivers it directly.
func (s *Server) publishUserEvent(userID uint, eventType string, payload map[string]interface{}) {
	message, ok := encodeEvent(eventType, payload)
	if !ok {
		return
	}
	if s.notifier.Enabled() {
		if err := s.notifier.PublishUser(context.Background(), userID, message); err != nil {
			middleware.Logger.Error("failed to publish user event",
				slog.String("event_type", eventType),
				slog.Uint64("user_id", uint64(userID)),
				slog.String("error", err.Error()))
		}
		return
	}
	s.hub.Broadcast(userID, message)
}

// publishUsersEvent sends one event to each distinct user in userIDs except skip.
func (s *Server) publishUsersEvent(userIDs []uint, skip uint, eventType string, payload map[string]interface{}) {
	for _, id := range distinctIDs(userIDs) {
		if id == skip {
			continue
		}
		s.publishUserEvent(id, eventType, payload)
	}
}

func (s *Server) publishBroadcastEvent(eventType string, payload map[string]interface{}) {
	message, ok := encodeEvent(eventType, payload)
	if !ok {
		return
	}
	if s.notifier.Enabled() {
		if err := s.notifier.PublishBroadcast(context.Background(), message); err != nil {
			middleware.Logger.Error("failed to publish broadcast event",
				slog.String("event_type", eventType), slog.String("error", err.Error()))
		}
		return
	}
	s.hub.BroadcastAll(message)
}

func distinctIDs(ids []uint) []uint {
	seen := make(map[uint]struct{}, len(ids))
	out := make([]uint, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok || id == 0 {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
