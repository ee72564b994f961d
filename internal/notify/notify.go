// Package notify delivers resolved caller notifications to the user.
package notify

import (
	"context"
	"errors"
	"log/slog"
	"time"
)

// Notification is one user-visible caller/sender notification.
type Notification struct {
	ID          string    `json:"id"`
	Kind        string    `json:"kind"`
	Title       string    `json:"title"`
	Body        string    `json:"body"`
	DisplayName string    `json:"display_name"`
	// Number is the callback number exactly as received.
	Number    string `json:"number"`
	ContactID *int64 `json:"contact_id,omitempty"`
	// OpenURL routes back into the contacts UI with Number as context.
	OpenURL   string    `json:"open_url"`
	CreatedAt time.Time `json:"created_at"`
}

// Notifier renders notifications.
type Notifier interface {
	Notify(ctx context.Context, n Notification) error
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(ctx context.Context, n Notification) error

// Notify calls f(ctx, n).
func (f NotifierFunc) Notify(ctx context.Context, n Notification) error {
	return f(ctx, n)
}

// LogNotifier writes each notification as a structured log line.
type LogNotifier struct {
	Logger *slog.Logger
}

// Notify logs n.
func (l LogNotifier) Notify(ctx context.Context, n Notification) error {
	l.Logger.LogAttrs(ctx, slog.LevelInfo, "notification",
		slog.String("id", n.ID),
		slog.String("kind", n.Kind),
		slog.String("title", n.Title),
		slog.String("body", n.Body),
		slog.String("number", n.Number))
	return nil
}

// Multi fans a notification out to every notifier and joins their errors.
type Multi []Notifier

// Notify delivers n to all notifiers, even if an earlier one fails.
func (m Multi) Notify(ctx context.Context, n Notification) error {
	var errs []error
	for _, nt := range m {
		if err := nt.Notify(ctx, n); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
