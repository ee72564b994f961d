package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/starford/callerid/internal/dispatch"
	"github.com/starford/callerid/internal/event"
	"github.com/starford/callerid/internal/listener"
	"github.com/starford/callerid/internal/metrics"
)

// Deliverer hands events to the registered listeners.
type Deliverer interface {
	Deliver(ev event.Event) error
}

// IngestHandler receives host telephony events.
type IngestHandler struct {
	listeners Deliverer
	now       func() time.Time
}

// NewIngestHandler creates a new IngestHandler.
func NewIngestHandler(listeners Deliverer) *IngestHandler {
	return &IngestHandler{listeners: listeners, now: time.Now}
}

// SMSReceived handles POST /api/events/sms.
//
// Undecodable payloads are rejected here, logged, and never reach a worker.
//
//	@Summary		Deliver an SMS-received event
//	@Tags			events
//	@Accept			json
//	@Produce		json
//	@Param			body	body		SMSEventRequest	true	"SMS event"
//	@Success		202		{object}	AcceptedResponse
//	@Failure		400		{object}	errResponse
//	@Failure		503		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/events/sms [post]
func (h *IngestHandler) SMSReceived(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	var req SMSEventRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}

	ev := event.SMSReceived{
		Format:             req.Format,
		Fragments:          req.PDUs,
		OriginatingAddress: req.OriginatingAddress,
		ReceivedAt:         h.now(),
	}
	if strings.EqualFold(req.Format, event.FormatText) {
		ev.Fragments = make([][]byte, len(req.Parts))
		for i, p := range req.Parts {
			ev.Fragments[i] = []byte(p)
		}
	}

	if _, err := event.DecodeSMS(ev); err != nil {
		metrics.EventsDropped.WithLabelValues(metrics.ReasonMalformed).Inc()
		slog.Warn("sms event dropped", slog.String("error", err.Error()))
		writeJSON(w, http.StatusBadRequest, errorBody(err.Error()))
		return
	}
	h.deliver(w, ev)
}

// CallStateChanged handles POST /api/events/call.
//
//	@Summary		Deliver a call-state-changed event
//	@Tags			events
//	@Accept			json
//	@Produce		json
//	@Param			body	body		CallEventRequest	true	"Call state event"
//	@Success		202		{object}	AcceptedResponse
//	@Failure		400		{object}	errResponse
//	@Failure		503		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/events/call [post]
func (h *IngestHandler) CallStateChanged(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 64<<10)
	var req CallEventRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}
	state, err := event.ParseCallState(req.State)
	if err != nil {
		metrics.EventsDropped.WithLabelValues(metrics.ReasonMalformed).Inc()
		slog.Warn("call event dropped", slog.String("error", err.Error()))
		writeJSON(w, http.StatusBadRequest, errorBody(err.Error()))
		return
	}
	h.deliver(w, event.CallStateChanged{State: state, IncomingNumber: req.IncomingNumber, ReceivedAt: h.now()})
}

func (h *IngestHandler) deliver(w http.ResponseWriter, ev event.Event) {
	err := h.listeners.Deliver(ev)
	switch {
	case err == nil:
		writeJSON(w, http.StatusAccepted, AcceptedResponse{Status: "accepted"})
	case errors.Is(err, listener.ErrNotRegistered):
		writeJSON(w, http.StatusServiceUnavailable, errorBody("listeners not registered: permissions required"))
	case errors.Is(err, dispatch.ErrQueueFull), errors.Is(err, dispatch.ErrClosed):
		slog.Warn("event dropped", slog.String("kind", string(ev.Kind())), slog.String("error", err.Error()))
		writeJSON(w, http.StatusServiceUnavailable, errorBody("event queue unavailable"))
	default:
		slog.Error("deliver event failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
	}
}
