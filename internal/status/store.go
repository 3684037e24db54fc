package status

import "context"

// Store is the append-only collection of status records. Implementations
// must assign a unique, never-reused id on Insert, tolerate concurrent
// readers and writers, and return list results in insertion (id) order —
// the resolver's tie-break for identical timestamps depends on it.
type Store interface {
	// Insert appends a record and returns the assigned id. The record's ID
	// field is ignored on input.
	Insert(ctx context.Context, rec Record) (int64, error)

	// Get returns the record with the given id, or ErrNotFound.
	Get(ctx context.Context, id int64) (Record, error)

	// Replace overwrites the stored content for rec.ID, or ErrNotFound when
	// the id is unknown. It never appends.
	Replace(ctx context.Context, rec Record) error

	// DeleteDevice removes every record for the device and returns how many
	// were removed, or ErrNotFound when the device has none.
	DeleteDevice(ctx context.Context, deviceID string) (int64, error)

	// ListByDevice returns all records for one device in insertion order.
	ListByDevice(ctx context.Context, deviceID string) ([]Record, error)

	// ListAll returns every stored record in insertion order.
	ListAll(ctx context.Context) ([]Record, error)

	Close() error
}
