// Package dispatch runs event handling on a fixed pool of workers fed by a
// bounded queue, off the goroutine that received the event.
package dispatch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/starford/callerid/internal/event"
	"github.com/starford/callerid/internal/metrics"
)

var (
	// ErrQueueFull is returned by Submit when every queue slot is taken.
	ErrQueueFull = errors.New("dispatch: queue full")
	// ErrClosed is returned by Submit once the dispatcher has stopped.
	ErrClosed = errors.New("dispatch: closed")
)

// Config sizes the worker pool.
type Config struct {
	Workers   int
	QueueSize int
	// HandleTimeout bounds a single event's handling. Zero means no limit.
	HandleTimeout time.Duration
}

// Dispatcher hands submitted events to handler on a bounded worker pool.
// Events carry no ordering guarantee relative to each other.
type Dispatcher struct {
	handler event.Handler
	logger  *slog.Logger
	workers int
	timeout time.Duration
	queue   chan event.Event

	mu     sync.RWMutex
	closed bool
}

// New creates a Dispatcher. Call Run to start the workers.
func New(cfg Config, handler event.Handler, logger *slog.Logger) *Dispatcher {
	if cfg.Workers <= 0 {
		cfg.Workers = 4
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = 64
	}
	return &Dispatcher{
		handler: handler,
		logger:  logger,
		workers: cfg.Workers,
		timeout: cfg.HandleTimeout,
		queue:   make(chan event.Event, cfg.QueueSize),
	}
}

// Submit enqueues ev without blocking.
func (d *Dispatcher) Submit(ev event.Event) error {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.closed {
		return ErrClosed
	}
	select {
	case d.queue <- ev:
		metrics.QueueDepth.Inc()
		return nil
	default:
		metrics.EventsDropped.WithLabelValues(metrics.ReasonQueueFull).Inc()
		return ErrQueueFull
	}
}

// Len returns the number of queued events.
func (d *Dispatcher) Len() int {
	return len(d.queue)
}

// Run starts the workers and blocks until ctx is cancelled. Events already
// queued at that point are still handled, with a background context, before
// Run returns.
func (d *Dispatcher) Run(ctx context.Context) error {
	g := new(errgroup.Group)
	for i := 0; i < d.workers; i++ {
		g.Go(func() error {
			for ev := range d.queue {
				d.handle(ev)
			}
			return nil
		})
	}

	d.logger.Info("dispatch: started", slog.Int("workers", d.workers), slog.Int("queue_size", cap(d.queue)))
	<-ctx.Done()

	d.mu.Lock()
	d.closed = true
	close(d.queue)
	d.mu.Unlock()

	err := g.Wait()
	d.logger.Info("dispatch: stopped")
	return err
}

// handle runs one event. Failures are logged and counted, never propagated.
func (d *Dispatcher) handle(ev event.Event) {
	metrics.QueueDepth.Dec()
	kind := string(ev.Kind())
	start := time.Now()

	defer func() {
		if rec := recover(); rec != nil {
			metrics.EventsDropped.WithLabelValues(metrics.ReasonHandlerFailed).Inc()
			d.logger.Error("dispatch: handler panic",
				slog.String("kind", kind),
				slog.String("panic", fmt.Sprint(rec)))
		}
	}()

	ctx := context.Background()
	if d.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d.timeout)
		defer cancel()
	}

	err := d.handler.HandleEvent(ctx, ev)
	metrics.HandleDuration.WithLabelValues(kind).Observe(time.Since(start).Seconds())
	if err != nil {
		reason := metrics.ReasonHandlerFailed
		if errors.Is(err, event.ErrMalformedPayload) {
			reason = metrics.ReasonMalformed
		}
		metrics.EventsDropped.WithLabelValues(reason).Inc()
		d.logger.Warn("dispatch: event dropped",
			slog.String("kind", kind),
			slog.String("error", err.Error()))
	}
}
