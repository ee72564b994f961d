// Package metrics declares the Prometheus collectors for event handling.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const Namespace = "callerid"

const (
	LabelKind   = "kind"
	LabelReason = "reason"
)

// Drop reasons.
const (
	ReasonQueueFull     = "queue_full"
	ReasonUnregistered  = "unregistered"
	ReasonRateLimited   = "rate_limited"
	ReasonMalformed     = "malformed"
	ReasonHandlerFailed = "handler_failed"
)

var EventsReceived = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name:      "events_received_total",
		Help:      "Inbound telephony events accepted for processing",
		Namespace: Namespace,
	},
	[]string{LabelKind},
)

var EventsDropped = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name:      "events_dropped_total",
		Help:      "Inbound telephony events dropped without a notification",
		Namespace: Namespace,
	},
	[]string{LabelReason},
)

var Notifications = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name:      "notifications_total",
		Help:      "Notifications emitted",
		Namespace: Namespace,
	},
	[]string{LabelKind},
)

var QueueDepth = promauto.NewGauge(
	prometheus.GaugeOpts{
		Name:      "dispatch_queue_depth",
		Help:      "Events waiting for a dispatch worker",
		Namespace: Namespace,
	},
)

var HandleDuration = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Name:      "event_handle_duration_seconds",
		Help:      "Time spent resolving one event into a notification",
		Namespace: Namespace,
		Buckets:   prometheus.DefBuckets,
	},
	[]string{LabelKind},
)
