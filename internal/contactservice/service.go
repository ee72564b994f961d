// Package contactservice implements the add/list/lookup operations behind
// every contact-facing surface (REST, CLI, MCP) and the event resolver.
package contactservice

import (
	"context"
	"fmt"
	"strings"

	"github.com/starford/callerid/internal/apperr"
	"github.com/starford/callerid/internal/contact"
	"github.com/starford/callerid/internal/phone"
)

// Service coordinates normalization and contact storage.
type Service struct {
	store contact.Store
}

// NewService creates a new contact service.
func NewService(store contact.Store) *Service {
	return &Service{store: store}
}

// Add validates and stores a new contact. The phone number is normalized
// before it is persisted so it matches the keys produced for inbound events.
func (s *Service) Add(ctx context.Context, name, rawPhone, notes string) (*contact.Contact, error) {
	name = strings.TrimSpace(name)
	if name == "" || strings.TrimSpace(rawPhone) == "" {
		return nil, fmt.Errorf("%w: name and phone are required", apperr.ErrInvalidInput)
	}
	number := phone.Normalize(rawPhone)
	if number == "" {
		return nil, fmt.Errorf("%w: phone %q contains no digits", apperr.ErrInvalidInput, rawPhone)
	}
	notes = strings.TrimSpace(notes)

	id, err := s.store.Insert(ctx, name, number, notes)
	if err != nil {
		return nil, err
	}
	return &contact.Contact{ID: id, Name: name, PhoneNumber: number, Notes: notes}, nil
}

// List returns every stored contact.
func (s *Service) List(ctx context.Context) ([]contact.Contact, error) {
	return s.store.All(ctx)
}

// Lookup normalizes rawNumber and returns the matching contact, or
// apperr.ErrNotFound.
func (s *Service) Lookup(ctx context.Context, rawNumber string) (*contact.Contact, error) {
	return s.LookupKey(ctx, phone.Normalize(rawNumber))
}

// LookupKey resolves an already-normalized key.
func (s *Service) LookupKey(ctx context.Context, key string) (*contact.Contact, error) {
	if key == "" {
		return nil, apperr.ErrNotFound
	}
	return s.store.GetByNumber(ctx, key)
}

// Ready reports whether the backing store is reachable.
func (s *Service) Ready(ctx context.Context) error {
	return s.store.Ping(ctx)
}
