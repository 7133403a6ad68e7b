package activity

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"time"
)

// lastRetention bounds how long a project's last timestamp is remembered. A
// project idle for longer is already behind the clock, so forgetting it keeps
// its next timestamp increasing.
const lastRetention = time.Minute

type job struct {
	ctx   context.Context
	entry *Entry
}

// Dispatcher writes entries asynchronously through a single worker so that
// entries reach the repository in the order they were enqueued.
type Dispatcher struct {
	repo   Repository
	logger *slog.Logger
	now    func() time.Time

	mu        sync.Mutex
	last      map[string]time.Time
	lastPrune time.Time
	closed    bool
	queue  chan job
	done   chan struct{}
}

// NewDispatcher starts a dispatcher with the given buffer size.
func NewDispatcher(repo Repository, buffer int, logger *slog.Logger) *Dispatcher {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if buffer < 1 {
		buffer = 1
	}
	d := &Dispatcher{
		repo:   repo,
		logger: logger,
		now:    func() time.Time { return time.Now().UTC() },
		last:   make(map[string]time.Time),
		queue:  make(chan job, buffer),
		done:   make(chan struct{}),
	}
	go d.run()
	return d
}

// Log enqueues entry. Timestamps are assigned here and are strictly
// increasing per project. A full queue drops the entry.
func (d *Dispatcher) Log(ctx context.Context, entry *Entry) error {
	if err := validate(entry); err != nil {
		return err
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return ErrClosed
	}

	now := d.now()
	d.pruneLocked(now)

	at := entry.CreatedAt
	if at.IsZero() {
		at = now
	}
	if prev, ok := d.last[entry.ProjectID]; ok && !at.After(prev) {
		at = prev.Add(time.Microsecond)
	}
	entry.CreatedAt = at

	select {
	case d.queue <- job{ctx: context.WithoutCancel(ctx), entry: entry}:
		d.last[entry.ProjectID] = at
		return nil
	default:
		d.logger.Error("activity queue full, dropping entry",
			"project_id", entry.ProjectID,
			"type", entry.Type,
		)
		return ErrQueueFull
	}
}

// pruneLocked forgets projects whose last timestamp is older than
// lastRetention. It scans at most once per lastRetention. d.mu must be held.
func (d *Dispatcher) pruneLocked(now time.Time) {
	if now.Sub(d.lastPrune) < lastRetention {
		return
	}
	d.lastPrune = now
	cutoff := now.Add(-lastRetention)
	for id, at := range d.last {
		if at.Before(cutoff) {
			delete(d.last, id)
		}
	}
}

// Close stops accepting entries and waits for queued ones to be written.
func (d *Dispatcher) Close() {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		<-d.done
		return
	}
	d.closed = true
	close(d.queue)
	d.mu.Unlock()
	<-d.done
}

func (d *Dispatcher) run() {
	defer close(d.done)
	for j := range d.queue {
		if err := d.repo.Log(j.ctx, j.entry); err != nil {
			d.logger.Error("writing activity entry",
				"project_id", j.entry.ProjectID,
				"type", j.entry.Type,
				"error", err,
			)
		}
	}
}
