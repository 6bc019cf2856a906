// Package observability provides metrics and tracing.
package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RedisErrorRate counts Redis errors by operation type.
	RedisErrorRate = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "agora_redis_error_rate_total",
		Help: "Total number of Redis errors by operation type",
	}, []string{"operation"})

	// CacheLookups counts cache-aside lookups by key family and outcome (hit, miss).
	CacheLookups = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "agora_cache_lookups_total",
		Help: "Cache-aside lookups by key family and outcome",
	}, []string{"family", "outcome"})

	// BidsPlaced counts bids by outcome (accepted, too_low, closed).
	BidsPlaced = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "agora_bids_total",
		Help: "Bids submitted by outcome",
	}, []string{"outcome"})

	// ListingsClosed counts closed auctions.
	ListingsClosed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "agora_listings_closed_total",
		Help: "Total number of closed listings",
	})

	// PostsCreated counts network posts.
	PostsCreated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "agora_posts_created_total",
		Help: "Total number of posts created",
	})

	// WikiWrites counts encyclopedia writes by operation (create, update, import).
	WikiWrites = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "agora_wiki_writes_total",
		Help: "Encyclopedia entry writes by operation",
	}, []string{"operation"})

	// EmailsSent counts sent emails.
	EmailsSent = promauto.NewCounter(prometheus.CounterOpts{
		Name: "agora_emails_sent_total",
		Help: "Total number of emails sent",
	})

	// WebSocketConnectionsTotal is the gauge of total WebSocket connections.
	WebSocketConnectionsTotal = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "agora_websocket_connections_total",
		Help: "Total number of active WebSocket connections",
	})

	// WebSocketEventsTotal counts WebSocket events by type.
	WebSocketEventsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "agora_websocket_events_total",
		Help: "Total WebSocket events by type",
	}, []string{"event_type"})

	// WebSocketBackpressureDrops counts messages dropped due to backpressure by hub and reason.
	WebSocketBackpressureDrops = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "agora_websocket_backpressure_drops_total",
		Help: "Total number of WebSocket messages dropped due to backpressure",
	}, []string{"hub", "reason"})
)
