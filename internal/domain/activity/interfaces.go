package activity

import "context"

// Repository provides persistence operations for activity entries.
// Entries are append-only; there is no update or delete.
type Repository interface {
	Log(ctx context.Context, entry *Entry) error
	List(ctx context.Context, opts ListOptions) ([]Entry, error)
}
