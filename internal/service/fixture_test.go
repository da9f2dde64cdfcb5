package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/ticket-lifecycle/internal/config"
	"github.com/spec-kit/ticket-lifecycle/internal/domain"
	"github.com/spec-kit/ticket-lifecycle/internal/events"
	"github.com/spec-kit/ticket-lifecycle/internal/lock"
	"github.com/spec-kit/ticket-lifecycle/internal/repository"
	"github.com/spec-kit/ticket-lifecycle/internal/repository/memstore"
)

var t0 = time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type recorder struct {
	mu     sync.Mutex
	events []events.Event
}

func (r *recorder) Publish(_ context.Context, e events.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
	return nil
}

func (r *recorder) Subscribe(events.EventType, events.EventHandler) {}

func (r *recorder) all() []events.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]events.Event(nil), r.events...)
}

func (r *recorder) ofType(t events.EventType) []events.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []events.Event
	for _, e := range r.events {
		if e.Type == t {
			out = append(out, e)
		}
	}
	return out
}

// Directory used by the tests:
//
//	res, res2  resolvers (IT of the software provider)
//	ops        IT of another filiale, not a resolver
//	req        requester in sales, may validate own tickets
//	lead       assigns, updates, validates and deletes
//	admin      may override status
const testCatalog = `
[[filiales]]
id = "soft"
name = "Software House"
software_provider = true

[[filiales]]
id = "retail"
name = "Retail"

[[departments]]
id = "it"
name = "IT"
it = true
filiale = "soft"

[[departments]]
id = "it-retail"
name = "Retail IT"
it = true
filiale = "retail"

[[departments]]
id = "sales"
name = "Sales"
filiale = "soft"

[[members]]
user_id = "res"
name = "Resa"
department = "it"

[[members]]
user_id = "res2"
name = "Remy"
department = "it"

[[members]]
user_id = "ops"
name = "Otto"
department = "it-retail"

[[members]]
user_id = "req"
name = "Rita"
department = "sales"

[[members]]
user_id = "lead"
name = "Lena"
department = "sales"

[[members]]
user_id = "admin"
name = "Ada"

[[grants]]
user_id = "res"
permissions = ["tickets.update"]

[[grants]]
user_id = "req"
permissions = ["tickets.create", "tickets.validate_own"]

[[grants]]
user_id = "lead"
permissions = ["tickets.create", "tickets.assign", "tickets.update", "tickets.validate", "tickets.delete"]

[[grants]]
user_id = "admin"
permissions = ["tickets.override_status"]

[[sla_rules]]
id = "sla-incident"
category = "incident"
target = 4
unit = "hours"
`

type fixture struct {
	store       *memstore.Store
	repos       *repository.Store
	clock       *testClock
	events      *recorder
	engine      *Engine
	tickets     *TicketService
	assignments *AssignmentService
	budget      *BudgetService
	sla         *SLAService
}

type fixtureOption func(*EngineDependencies, *bool)

func withLocker(l lock.Locker) fixtureOption {
	return func(d *EngineDependencies, _ *bool) { d.Locker = l }
}

func withValidatedTimeOnly() fixtureOption {
	return func(_ *EngineDependencies, includeUnvalidated *bool) { *includeUnvalidated = false }
}

func withTickets(wrap func(repository.TicketRepository) repository.TicketRepository) fixtureOption {
	return func(d *EngineDependencies, _ *bool) { d.Store.Tickets = wrap(d.Store.Tickets) }
}

func newFixture(t *testing.T, opts ...fixtureOption) *fixture {
	t.Helper()
	clock := &testClock{now: t0}
	store := memstore.New().WithClock(clock.Now)
	repos := store.Repositories()

	catalog, err := config.ParseCatalog(testCatalog)
	require.NoError(t, err)
	require.NoError(t, SeedCatalog(context.Background(), repos, catalog, zap.NewNop()))

	rec := &recorder{}
	deps := EngineDependencies{
		Store:      repos,
		Dispatcher: rec,
		Logger:     zap.NewNop(),
		Clock:      clock.Now,
	}
	includeUnvalidated := true
	for _, opt := range opts {
		opt(&deps, &includeUnvalidated)
	}
	engine := NewEngine(deps)

	return &fixture{
		store:       store,
		repos:       repos,
		clock:       clock,
		events:      rec,
		engine:      engine,
		tickets:     NewTicketService(engine),
		assignments: NewAssignmentService(engine),
		budget:      NewBudgetService(engine, includeUnvalidated),
		sla:         NewSLAService(repos.SLA, zap.NewNop()),
	}
}

func (f *fixture) createTicket(t *testing.T, category string) *domain.Ticket {
	t.Helper()
	requester := "req"
	ticket, err := f.tickets.CreateTicket(context.Background(), "req", TicketCreateInput{
		Title:       "Printer on fire",
		Category:    category,
		Priority:    domain.TicketPriorityHigh,
		RequesterID: &requester,
	})
	require.NoError(t, err)
	return ticket
}

// pendingTicket walks a new ticket to Pending through the normal workflow.
func (f *fixture) pendingTicket(t *testing.T) *domain.Ticket {
	t.Helper()
	ctx := context.Background()
	ticket := f.createTicket(t, "incident")
	_, _, err := f.assignments.Assign(ctx, ticket.ID, "lead", []string{"res"}, nil)
	require.NoError(t, err)
	ticket, err = f.tickets.SubmitForValidation(ctx, ticket.ID, "res")
	require.NoError(t, err)
	return ticket
}

func (f *fixture) history(t *testing.T, ticketID string) []domain.TicketHistoryEvent {
	t.Helper()
	history, err := f.tickets.History(context.Background(), ticketID)
	require.NoError(t, err)
	return history
}

func strPtr(s string) *string { return &s }
