// Package listener binds the inbound event sources to the dispatcher and
// enforces the permission boundary: without every required permission no
// event is delivered at all.
package listener

import (
	"errors"
	"log/slog"
	"sync"

	"github.com/starford/callerid/internal/event"
	"github.com/starford/callerid/internal/metrics"
)

// ErrNotRegistered is returned when delivering to, or unregistering, a
// listener that was never registered.
var ErrNotRegistered = errors.New("listener: not registered")

// Sink accepts events for asynchronous handling.
type Sink interface {
	Submit(ev event.Event) error
}

// Registry tracks the SMS and call-state listeners.
type Registry struct {
	sink   Sink
	logger *slog.Logger

	mu         sync.RWMutex
	registered map[event.Kind]bool
	warned     bool
}

// NewRegistry creates a Registry with no listeners registered.
func NewRegistry(sink Sink, logger *slog.Logger) *Registry {
	return &Registry{
		sink:       sink,
		logger:     logger,
		registered: make(map[event.Kind]bool),
	}
}

// Apply registers both listeners when every required permission is granted
// and unregisters them otherwise. The missing-permission message is logged
// only the first time. It reports whether listeners are registered.
func (r *Registry) Apply(granted []Permission) bool {
	missing := Missing(granted)

	r.mu.Lock()
	defer r.mu.Unlock()

	if len(missing) > 0 {
		if len(r.registered) > 0 {
			clear(r.registered)
			r.logger.Warn("listener: permissions revoked, listeners unregistered")
		}
		if !r.warned {
			r.warned = true
			names := make([]string, len(missing))
			for i, p := range missing {
				names[i] = string(p)
			}
			r.logger.Warn("listener: permissions are required for the app to work",
				slog.Any("missing", names))
		}
		return false
	}

	if len(r.registered) == 0 {
		r.registered[event.KindSMS] = true
		r.registered[event.KindCall] = true
		r.logger.Info("listener: sms and call listeners registered")
	}
	return true
}

// Registered reports whether the listeners are active.
func (r *Registry) Registered() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.registered) > 0
}

// Deliver forwards ev to the sink if its listener is registered.
func (r *Registry) Deliver(ev event.Event) error {
	r.mu.RLock()
	ok := r.registered[ev.Kind()]
	r.mu.RUnlock()
	if !ok {
		metrics.EventsDropped.WithLabelValues(metrics.ReasonUnregistered).Inc()
		return ErrNotRegistered
	}
	if err := r.sink.Submit(ev); err != nil {
		return err
	}
	metrics.EventsReceived.WithLabelValues(string(ev.Kind())).Inc()
	return nil
}

// Unregister removes both listeners. It returns ErrNotRegistered when they
// were never registered, which callers at shutdown are expected to ignore.
func (r *Registry) Unregister() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.registered) == 0 {
		return ErrNotRegistered
	}
	clear(r.registered)
	r.logger.Info("listener: listeners unregistered")
	return nil
}
