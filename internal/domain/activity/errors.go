package activity

import "errors"

var (
	// ErrInvalidInput indicates a malformed activity entry.
	ErrInvalidInput = errors.New("invalid activity entry")
	// ErrQueueFull indicates the dispatcher dropped an entry.
	ErrQueueFull = errors.New("activity queue full")
	// ErrClosed indicates the dispatcher no longer accepts entries.
	ErrClosed = errors.New("activity dispatcher closed")
)
