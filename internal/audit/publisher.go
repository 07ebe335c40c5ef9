package audit

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// Publisher captures structured audit events. It is append-only and uses the
// storage layer for persistence so tests can swap sinks easily. When a logger
// is configured, every event is also written as a log_type=audit line.
type Publisher struct {
	store  Store
	events chan Event
	wg     sync.WaitGroup
	mu     sync.RWMutex
	closed bool
	logger *slog.Logger
	async  bool
	onDrop func()
}

// PublisherOption configures the Publisher.
type PublisherOption func(*Publisher)

// WithAsyncBuffer enables async processing with the specified buffer size.
// Events are queued and persisted in a background goroutine.
func WithAsyncBuffer(size int) PublisherOption {
	return func(p *Publisher) {
		if size > 0 {
			p.events = make(chan Event, size)
			p.async = true
		}
	}
}

// WithPublisherLogger sets the logger used for audit lines and async errors.
func WithPublisherLogger(logger *slog.Logger) PublisherOption {
	return func(p *Publisher) {
		p.logger = logger
	}
}

// WithOnDrop registers a callback for events that were not persisted,
// either because the buffer was full or the store rejected them.
func WithOnDrop(fn func()) PublisherOption {
	return func(p *Publisher) {
		p.onDrop = fn
	}
}

func NewPublisher(store Store, opts ...PublisherOption) *Publisher {
	p := &Publisher{store: store}
	for _, opt := range opts {
		opt(p)
	}
	if p.async {
		p.wg.Add(1)
		go p.processEvents()
	}
	return p
}

// processEvents persists queued events until the channel is closed.
func (p *Publisher) processEvents() {
	defer p.wg.Done()
	for event := range p.events {
		if err := p.store.Append(context.Background(), event); err != nil {
			p.dropped()
			if p.logger != nil {
				p.logger.Error("failed to persist audit event",
					"error", err,
					"action", event.Action,
					"user_id", event.UserID,
				)
			}
		}
	}
}

// Close shuts down the async publisher and waits for pending events to drain.
// Events emitted afterwards are dropped. Close is idempotent.
func (p *Publisher) Close() {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.closed = true
	if p.async {
		close(p.events)
	}
	p.mu.Unlock()
	p.wg.Wait()
}

func (p *Publisher) Emit(ctx context.Context, event Event) error {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	p.logEvent(ctx, event)

	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		p.dropped()
		if p.logger != nil {
			p.logger.WarnContext(ctx, "audit publisher closed, event dropped",
				"action", event.Action,
				"user_id", event.UserID,
			)
		}
		return nil
	}
	if p.async {
		// Non-blocking send; drop event if buffer is full to avoid blocking hot path
		select {
		case p.events <- event:
			return nil
		default:
			p.dropped()
			if p.logger != nil {
				p.logger.WarnContext(ctx, "audit buffer full, event dropped",
					"action", event.Action,
					"user_id", event.UserID,
				)
			}
			return nil
		}
	}
	return p.store.Append(ctx, event)
}

func (p *Publisher) dropped() {
	if p.onDrop != nil {
		p.onDrop()
	}
}

func (p *Publisher) List(ctx context.Context, userID string) ([]Event, error) {
	return p.store.ListByUser(ctx, userID)
}

func (p *Publisher) logEvent(ctx context.Context, event Event) {
	if p.logger == nil {
		return
	}
	p.logger.InfoContext(ctx, string(event.Action),
		"log_type", "audit",
		"user_id", event.UserID,
		"subject", event.Subject,
		"decision", event.Decision,
		"reason", event.Reason,
		"ip_prefix", event.IPPrefix,
		"request_id", event.RequestID,
	)
}
