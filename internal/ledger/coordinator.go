// Package ledger runs the commands that move money between group members.
//
// Every command follows the same path: take the group's lock, open a storage
// transaction, authorize the actor, mutate domain values, persist them with
// an optimistic version check on balances, append the resulting events to
// the event log, commit, release the lock, and publish the events. Any error
// before commit rolls the whole command back.
package ledger

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/mmynk/splitledger/internal/calculator"
	"github.com/mmynk/splitledger/internal/events"
	"github.com/mmynk/splitledger/internal/metrics"
	"github.com/mmynk/splitledger/internal/models"
	"github.com/mmynk/splitledger/internal/storage"
	"github.com/mmynk/splitledger/internal/telemetry"
)

// Coordinator is the single entry point for ledger mutations and queries.
// It is safe for concurrent use.
type Coordinator struct {
	store     storage.Store
	publisher events.Publisher
	metrics   *metrics.Metrics
	tracer    trace.Tracer
	logger    *slog.Logger
	locks     *groupLocks
}

// Option configures a Coordinator.
type Option func(*Coordinator)

// WithPublisher sets where committed events go. Defaults to events.Discard.
func WithPublisher(p events.Publisher) Option {
	return func(c *Coordinator) { c.publisher = p }
}

// WithMetrics records command outcomes and durations.
func WithMetrics(m *metrics.Metrics) Option {
	return func(c *Coordinator) { c.metrics = m }
}

// WithTracer overrides the tracer taken from the global provider.
func WithTracer(t trace.Tracer) Option {
	return func(c *Coordinator) { c.tracer = t }
}

// WithLogger overrides slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(c *Coordinator) { c.logger = l }
}

// New creates a Coordinator over store.
func New(store storage.Store, opts ...Option) *Coordinator {
	c := &Coordinator{
		store:     store,
		publisher: events.Discard,
		tracer:    telemetry.Tracer(),
		logger:    slog.Default(),
		locks:     newGroupLocks(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Command is the transactional body of a group command. It returns the
// events to append and publish.
type Command func(ctx context.Context, tx storage.Repository) ([]models.Event, error)

// Execute runs fn under groupID's lock inside one transaction, appends the
// events it returns to the event log, commits, and publishes them.
// Membership changes go through Execute too so they serialize with ledger
// commands on the same group.
func (c *Coordinator) Execute(ctx context.Context, name, groupID string, fn Command) ([]models.Event, error) {
	started := time.Now()
	ctx, span := c.tracer.Start(ctx, "ledger."+name,
		trace.WithAttributes(attribute.String("group_id", groupID)))
	defer span.End()

	committed, err := c.run(ctx, groupID, fn)

	c.metrics.ObserveCommand(name, started, err)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		c.logger.DebugContext(ctx, "Ledger command rejected",
			"command", name,
			"group_id", groupID,
			"error", err,
		)
		return nil, err
	}

	span.SetAttributes(attribute.Int("events", len(committed)))
	c.metrics.ObserveEvents(committed)
	c.publish(ctx, committed)
	return committed, nil
}

// run executes fn in a transaction while holding groupID's lock.
func (c *Coordinator) run(ctx context.Context, groupID string, fn Command) ([]models.Event, error) {
	unlock := c.locks.lock(groupID)
	defer unlock()

	var committed []models.Event
	err := c.store.WithTx(ctx, func(tx storage.Repository) error {
		evs, err := fn(ctx, tx)
		if err != nil {
			return err
		}
		if err := tx.AppendEvents(ctx, evs); err != nil {
			return fmt.Errorf("failed to append events: %w", err)
		}
		committed = evs
		return nil
	})
	return committed, err
}

// publish hands committed events to the publisher. The command has already
// committed, so a failure is only logged.
func (c *Coordinator) publish(ctx context.Context, evs []models.Event) {
	if len(evs) == 0 {
		return
	}
	if err := c.publisher.Publish(ctx, evs); err != nil {
		c.metrics.PublishFailed()
		c.logger.ErrorContext(ctx, "Failed to publish ledger events",
			"group_id", evs[0].GroupID,
			"count", len(evs),
			"error", err,
		)
	}
}

// activeGroup loads a group that still accepts ledger activity.
func activeGroup(ctx context.Context, tx storage.Repository, groupID string) (*models.Group, error) {
	group, err := tx.GetGroup(ctx, groupID)
	if err != nil {
		return nil, err
	}
	if !group.Active {
		return nil, fmt.Errorf("%w: group %s is inactive", models.ErrInvalidStateTransition, groupID)
	}
	return group, nil
}

// actorIn loads the acting membership and checks it is an active member of groupID.
func actorIn(ctx context.Context, tx storage.Repository, groupID, actorID string) (*models.Membership, error) {
	actor, err := tx.GetMembership(ctx, actorID)
	if err != nil {
		return nil, fmt.Errorf("%w: unknown actor %s", models.ErrUnauthorized, actorID)
	}
	if !actor.BelongsTo(groupID) {
		return nil, fmt.Errorf("%w: %s is not an active member of group %s", models.ErrUnauthorized, actorID, groupID)
	}
	return actor, nil
}

// memberIn loads a membership that must be active in groupID; otherwise the
// error wraps invalid.
func memberIn(ctx context.Context, tx storage.Repository, groupID, membershipID string, invalid error) (*models.Membership, error) {
	m, err := tx.GetMembership(ctx, membershipID)
	if err != nil {
		return nil, fmt.Errorf("%w: unknown member %s", invalid, membershipID)
	}
	if !m.BelongsTo(groupID) {
		return nil, fmt.Errorf("%w: %s is not an active member of group %s", invalid, membershipID, groupID)
	}
	return m, nil
}

// requireActiveParties rejects a balance move that would reach a membership
// which has left groupID. A removed member's balance is zero and must stay so.
func requireActiveParties(ctx context.Context, tx storage.Repository, groupID string, deltas calculator.Deltas) error {
	for _, id := range deltas.MembershipIDs() {
		if _, err := memberIn(ctx, tx, groupID, id, models.ErrInvalidStateTransition); err != nil {
			return err
		}
	}
	return nil
}

// applyDeltas moves every affected balance by its delta, in membership ID
// order, and writes each one back with a version check.
func applyDeltas(ctx context.Context, tx storage.Repository, deltas calculator.Deltas) error {
	for _, id := range deltas.MembershipIDs() {
		balance, err := tx.GetBalanceByMembership(ctx, id)
		if err != nil {
			return fmt.Errorf("failed to load balance of %s: %w", id, err)
		}
		balance.Apply(deltas[id])
		if err := tx.UpdateBalance(ctx, balance); err != nil {
			return err
		}
	}
	return nil
}
