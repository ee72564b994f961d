// Package event defines the closed set of inbound telephony events and the
// single typed interface they are delivered through.
package event

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// Kind identifies an event variant.
type Kind string

const (
	KindSMS  Kind = "sms"
	KindCall Kind = "call"
)

// Event is an inbound SMS-received or call-state-changed event. The set of
// implementations is closed to this package.
type Event interface {
	Kind() Kind
	isEvent()
}

// SMSReceived carries one or more undecoded message fragments.
type SMSReceived struct {
	// Fragments are raw PDUs (format "3gpp") or UTF-8 text parts (format "text").
	Fragments [][]byte
	// Format is the encoding tag the fragments were delivered with.
	Format string
	// OriginatingAddress is the sender as reported by the host. When empty the
	// address encoded in the first PDU is used.
	OriginatingAddress string
	ReceivedAt         time.Time
}

func (SMSReceived) Kind() Kind { return KindSMS }
func (SMSReceived) isEvent()   {}

// CallState is the telephony call state.
type CallState string

const (
	CallIdle    CallState = "idle"
	CallRinging CallState = "ringing"
	CallOffhook CallState = "offhook"
)

// ParseCallState parses a host call-state string, case-insensitively.
func ParseCallState(s string) (CallState, error) {
	switch st := CallState(strings.ToLower(strings.TrimSpace(s))); st {
	case CallIdle, CallRinging, CallOffhook:
		return st, nil
	default:
		return "", fmt.Errorf("%w: unknown call state %q", ErrMalformedPayload, s)
	}
}

// CallStateChanged reports a call-state transition. IncomingNumber is only
// present while ringing, and is nil when the host withholds it.
type CallStateChanged struct {
	State          CallState
	IncomingNumber *string
	ReceivedAt     time.Time
}

func (CallStateChanged) Kind() Kind { return KindCall }
func (CallStateChanged) isEvent()   {}

// Handler consumes events.
type Handler interface {
	HandleEvent(ctx context.Context, ev Event) error
}

// HandlerFunc adapts a function to Handler.
type HandlerFunc func(ctx context.Context, ev Event) error

// HandleEvent calls f(ctx, ev).
func (f HandlerFunc) HandleEvent(ctx context.Context, ev Event) error {
	return f(ctx, ev)
}
