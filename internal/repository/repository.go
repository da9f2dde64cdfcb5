package repository

import (
	"context"
	"errors"
	"time"

	"github.com/spec-kit/ticket-lifecycle/internal/domain"
)

var (
	// ErrNotFound is returned when the requested row does not exist.
	ErrNotFound = errors.New("not found")
	// ErrVersionConflict is returned when a mutation was computed against a
	// stale ticket version.
	ErrVersionConflict = errors.New("ticket version conflict")
)

// TicketMutation is one committed change to a ticket. The ticket row, the
// optional assignee replacement, the optional time entry and the history
// entries are written atomically, or not at all.
type TicketMutation struct {
	Ticket          *domain.Ticket
	ExpectedVersion int64
	// Assignment replaces the whole assignee set when non-nil.
	Assignment *domain.Assignment
	TimeEntry  *domain.TimeEntry
	Events     []domain.TicketHistoryEvent
}

// TicketFilter narrows ticket listings.
type TicketFilter struct {
	Statuses   []domain.TicketStatus
	Category   *string
	AssigneeID *string
	Limit      int
	Offset     int
}

// ResolvedFilter selects tickets whose resolution time falls in [From, To).
type ResolvedFilter struct {
	From     time.Time
	To       time.Time
	Category *string
}

// SLASnapshot is a consistent read of resolved tickets and SLA rules taken
// at AsOf.
type SLASnapshot struct {
	AsOf    time.Time
	Tickets []domain.Ticket
	Rules   []domain.SLARule
}

// TicketRepository persists tickets and their assignments.
type TicketRepository interface {
	// Create stores a new ticket with its Created history entry.
	Create(ctx context.Context, ticket *domain.Ticket, created domain.TicketHistoryEvent) error
	GetByID(ctx context.Context, id string) (*domain.Ticket, error)
	// GetAssignment returns the current assignee set, empty when unassigned.
	GetAssignment(ctx context.Context, ticketID string) (*domain.Assignment, error)
	// Apply commits m. On success m.Ticket.Version is ExpectedVersion+1 and
	// every event carries its per-ticket sequence number.
	Apply(ctx context.Context, m *TicketMutation) error
	// Delete removes the ticket and its assignment; history rows remain.
	Delete(ctx context.Context, id string, expectedVersion int64) error
	List(ctx context.Context, filter TicketFilter) ([]domain.Ticket, error)
}

// TicketHistoryRepository reads the append-only audit trail.
type TicketHistoryRepository interface {
	ListByTicket(ctx context.Context, ticketID string) ([]domain.TicketHistoryEvent, error)
}

// SLARepository stores SLA rules and computed violations.
type SLARepository interface {
	ListRules(ctx context.Context) ([]domain.SLARule, error)
	GetRuleByCategory(ctx context.Context, category string) (*domain.SLARule, error)
	UpsertRule(ctx context.Context, rule *domain.SLARule) error
	Snapshot(ctx context.Context, filter ResolvedFilter) (*SLASnapshot, error)
	// UpsertViolations is keyed by (ticket, rule) so recomputation is idempotent.
	UpsertViolations(ctx context.Context, violations []domain.SLAViolation) (int, error)
	ListViolations(ctx context.Context, ticketID string) ([]domain.SLAViolation, error)
}

// TimeEntryRepository stores logged time.
// Entries are written with TicketRepository.Apply.
type TimeEntryRepository interface {
	SumMinutes(ctx context.Context, ticketID string, includeUnvalidated bool) (int, error)
}

// PermissionRepository answers and records permission grants.
type PermissionRepository interface {
	HasPermission(ctx context.Context, userID string, permission domain.Permission) (bool, error)
	Grant(ctx context.Context, userID string, permission domain.Permission) error
}

// DirectoryRepository exposes filiales, departments and their members.
type DirectoryRepository interface {
	// GetDepartment returns (nil, nil) for users without a department.
	GetDepartment(ctx context.Context, userID string) (*domain.Department, error)
	ListMembers(ctx context.Context, departmentID *string) ([]domain.Member, error)
	UserExists(ctx context.Context, userID string) (bool, error)
	UpsertFiliale(ctx context.Context, filiale domain.Filiale) error
	UpsertDepartment(ctx context.Context, dept domain.Department) error
	UpsertMember(ctx context.Context, member domain.Member) error
}

// Store bundles every repository of one backend.
type Store struct {
	Tickets     TicketRepository
	History     TicketHistoryRepository
	SLA         SLARepository
	TimeEntries TimeEntryRepository
	Permissions PermissionRepository
	Directory   DirectoryRepository
}
