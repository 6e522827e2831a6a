package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTP metrics
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "worklink_chat_http_requests_total",
			Help: "Total HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "worklink_chat_http_request_duration_seconds",
			Help:    "HTTP request duration",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
		},
		[]string{"method", "path"},
	)

	// Real-time channel metrics
	WSConnections = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "worklink_chat_ws_connections",
			Help: "Currently connected websocket users",
		},
	)

	RealtimePushes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "worklink_chat_realtime_pushes_total",
			Help: "Direct pushes to user connections by outcome",
		},
		[]string{"event", "result"}, // result: "delivered", "offline", "failed"
	)

	RoomBroadcasts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "worklink_chat_room_broadcasts_total",
			Help: "Events fanned out to conversation rooms",
		},
		[]string{"event"},
	)

	// Business metrics
	MessagesSent = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "worklink_chat_messages_sent_total",
			Help: "Messages persisted",
		},
		[]string{"content_type"},
	)

	NotificationsCreated = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "worklink_chat_notifications_created_total",
			Help: "Notifications persisted",
		},
	)

	ConversationsCreated = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "worklink_chat_conversations_created_total",
			Help: "Conversations created",
		},
	)

	// Rate limit metrics
	RateLimitHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "worklink_chat_rate_limit_hits_total",
			Help: "Requests rejected by the rate limiter",
		},
		[]string{"endpoint"},
	)
)
