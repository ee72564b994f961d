package contact

import "context"

// Contact is one known person.
type Contact struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	PhoneNumber string `json:"phone_number"`
	Notes       string `json:"notes"`
}

// Store defines the contact persistence operations.
// Consumers should depend on this interface rather than the concrete *DB type.
type Store interface {
	Insert(ctx context.Context, name, phoneNumber, notes string) (int64, error)
	GetByNumber(ctx context.Context, number string) (*Contact, error)
	All(ctx context.Context) ([]Contact, error)
	Count(ctx context.Context) (int, error)
	Ping(ctx context.Context) error
	Close() error
}

// Verify *DB satisfies Store at compile time.
var _ Store = (*DB)(nil)
