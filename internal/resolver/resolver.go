// Package resolver turns inbound telephony events into caller notifications:
// normalize the originating number, look it up, pick a display name, notify.
package resolver

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/google/uuid"

	"github.com/starford/callerid/internal/apperr"
	"github.com/starford/callerid/internal/contact"
	"github.com/starford/callerid/internal/event"
	"github.com/starford/callerid/internal/metrics"
	"github.com/starford/callerid/internal/notify"
	"github.com/starford/callerid/internal/phone"
)

// ContactLookup resolves a normalized number to a contact.
type ContactLookup interface {
	LookupKey(ctx context.Context, key string) (*contact.Contact, error)
}

// Resolver implements event.Handler.
type Resolver struct {
	contacts ContactLookup
	notifier notify.Notifier
	messages Messages
	linkBase string
	now      func() time.Time
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithMessages sets the notification text catalog.
func WithMessages(m Messages) Option {
	return func(r *Resolver) { r.messages = m }
}

// WithLinkBase sets the path notifications link back to. The raw number is
// appended as the "number" query parameter.
func WithLinkBase(base string) Option {
	return func(r *Resolver) { r.linkBase = base }
}

// New creates a Resolver.
func New(contacts ContactLookup, notifier notify.Notifier, opts ...Option) *Resolver {
	r := &Resolver{
		contacts: contacts,
		notifier: notifier,
		messages: catalogs[LocaleEnglish],
		linkBase: "/api/contacts",
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

var _ event.Handler = (*Resolver)(nil)

// HandleEvent resolves ev and emits its notification. Events that do not
// warrant a notification (non-ringing call states) return nil.
func (r *Resolver) HandleEvent(ctx context.Context, ev event.Event) error {
	n, err := r.Resolve(ctx, ev)
	if err != nil {
		return err
	}
	if n == nil {
		return nil
	}
	if err := r.notifier.Notify(ctx, *n); err != nil {
		return fmt.Errorf("resolver: notify: %w", err)
	}
	metrics.Notifications.WithLabelValues(n.Kind).Inc()
	return nil
}

// Resolve builds the notification for ev without sending it. It returns nil
// when ev produces no notification.
func (r *Resolver) Resolve(ctx context.Context, ev event.Event) (*notify.Notification, error) {
	switch e := ev.(type) {
	case event.SMSReceived:
		msg, err := event.DecodeSMS(e)
		if err != nil {
			return nil, err
		}
		name, id, err := r.displayName(ctx, msg.From)
		if err != nil {
			return nil, err
		}
		return r.build(event.KindSMS, r.messages.SMSTitle(name), msg.Body, name, msg.From, id), nil

	case event.CallStateChanged:
		if e.State != event.CallRinging || e.IncomingNumber == nil {
			return nil, nil
		}
		raw := *e.IncomingNumber
		name, id, err := r.displayName(ctx, raw)
		if err != nil {
			return nil, err
		}
		return r.build(event.KindCall, r.messages.CallTitle, r.messages.CallBody(name), name, raw, id), nil

	default:
		return nil, fmt.Errorf("resolver: unsupported event %T", ev)
	}
}

// displayName returns the contact name for raw, or raw itself when no contact
// matches. The raw number is shown rather than the normalized key.
func (r *Resolver) displayName(ctx context.Context, raw string) (string, *int64, error) {
	c, err := r.contacts.LookupKey(ctx, phone.Normalize(raw))
	switch {
	case errors.Is(err, apperr.ErrNotFound):
		return raw, nil, nil
	case err != nil:
		return "", nil, fmt.Errorf("resolver: lookup: %w", err)
	}
	return c.Name, &c.ID, nil
}

func (r *Resolver) build(kind event.Kind, title, body, name, number string, contactID *int64) *notify.Notification {
	return &notify.Notification{
		ID:          uuid.NewString(),
		Kind:        string(kind),
		Title:       title,
		Body:        body,
		DisplayName: name,
		Number:      number,
		ContactID:   contactID,
		OpenURL:     r.linkBase + "?number=" + url.QueryEscape(number),
		CreatedAt:   r.now(),
	}
}
