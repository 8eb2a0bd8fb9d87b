// Package events delivers committed ledger events to interested collaborators.
//
// Events are produced by ledger and registry commands, appended to the event
// log in the same transaction, and handed to a Publisher only after the
// transaction commits. A Publisher never sees an event whose command rolled
// back.
package events

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/mmynk/splitledger/internal/models"
)

// Publisher receives events after their command has committed.
// Publish errors are reported to the caller's logs; they never undo the command.
type Publisher interface {
	Publish(ctx context.Context, events []models.Event) error
}

// PublisherFunc adapts a function to the Publisher interface.
type PublisherFunc func(ctx context.Context, events []models.Event) error

func (f PublisherFunc) Publish(ctx context.Context, events []models.Event) error {
	return f(ctx, events)
}

// LogPublisher writes every event to a structured logger.
type LogPublisher struct {
	logger *slog.Logger
}

// NewLogPublisher returns a publisher that logs at info level. A nil logger
// uses slog.Default().
func NewLogPublisher(logger *slog.Logger) *LogPublisher {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogPublisher{logger: logger}
}

func (p *LogPublisher) Publish(ctx context.Context, events []models.Event) error {
	for _, ev := range events {
		p.logger.InfoContext(ctx, "Ledger event",
			"type", ev.Type,
			"event_id", ev.ID,
			"group_id", ev.GroupID,
			"source_id", ev.SourceID,
			"triggered_by", ev.TriggeredBy,
		)
	}
	return nil
}

// MemoryPublisher keeps every published event in memory. It is safe for
// concurrent use.
type MemoryPublisher struct {
	mu     sync.Mutex
	events []models.Event
}

func NewMemoryPublisher() *MemoryPublisher {
	return &MemoryPublisher{}
}

func (p *MemoryPublisher) Publish(_ context.Context, events []models.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, events...)
	return nil
}

// Events returns a copy of everything published so far.
func (p *MemoryPublisher) Events() []models.Event {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]models.Event, len(p.events))
	copy(out, p.events)
	return out
}

// Types returns the type of every published event, in order.
func (p *MemoryPublisher) Types() []models.EventType {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]models.EventType, len(p.events))
	for i, ev := range p.events {
		out[i] = ev.Type
	}
	return out
}

// Fanout publishes to every publisher in turn. All publishers are called even
// if some fail; their errors are joined.
type Fanout []Publisher

func (f Fanout) Publish(ctx context.Context, events []models.Event) error {
	var errs []error
	for _, p := range f {
		if p == nil {
			continue
		}
		if err := p.Publish(ctx, events); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Discard drops every event.
var Discard Publisher = PublisherFunc(func(context.Context, []models.Event) error { return nil })
