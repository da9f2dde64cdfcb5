// Package memstore is an in-memory implementation of the repositories. It
// backs tests and deployments without a Postgres DSN.
package memstore

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/spec-kit/ticket-lifecycle/internal/domain"
	"github.com/spec-kit/ticket-lifecycle/internal/repository"
)

// Store holds all state behind a single mutex.
type Store struct {
	mu          sync.RWMutex
	now         func() time.Time
	tickets     map[string]*domain.Ticket
	assignments map[string]*domain.Assignment
	history     map[string][]domain.TicketHistoryEvent
	rules       map[string]domain.SLARule
	violations  map[violationKey]domain.SLAViolation
	entries     map[string][]domain.TimeEntry
	grants      map[string]map[domain.Permission]struct{}
	filiales    map[string]domain.Filiale
	departments map[string]domain.Department
	members     map[string]domain.Member
}

type violationKey struct {
	ticketID string
	ruleID   string
}

// New creates an empty store.
func New() *Store {
	return &Store{
		now:         time.Now,
		tickets:     make(map[string]*domain.Ticket),
		assignments: make(map[string]*domain.Assignment),
		history:     make(map[string][]domain.TicketHistoryEvent),
		rules:       make(map[string]domain.SLARule),
		violations:  make(map[violationKey]domain.SLAViolation),
		entries:     make(map[string][]domain.TimeEntry),
		grants:      make(map[string]map[domain.Permission]struct{}),
		filiales:    make(map[string]domain.Filiale),
		departments: make(map[string]domain.Department),
		members:     make(map[string]domain.Member),
	}
}

// WithClock sets the clock used for snapshot timestamps.
func (s *Store) WithClock(now func() time.Time) *Store {
	s.now = now
	return s
}

// Repositories exposes the store through the repository interfaces.
func (s *Store) Repositories() *repository.Store {
	return &repository.Store{
		Tickets:     ticketRepo{s},
		History:     historyRepo{s},
		SLA:         slaRepo{s},
		TimeEntries: timeEntryRepo{s},
		Permissions: permissionRepo{s},
		Directory:   directoryRepo{s},
	}
}

type ticketRepo struct{ s *Store }

func (r ticketRepo) Create(_ context.Context, ticket *domain.Ticket, created domain.TicketHistoryEvent) error {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.tickets[ticket.ID]; exists {
		return repository.ErrVersionConflict
	}
	ticket.Version = 1
	s.tickets[ticket.ID] = ticket.Clone()
	s.appendLocked(ticket.ID, []domain.TicketHistoryEvent{created})
	return nil
}

func (r ticketRepo) GetByID(_ context.Context, id string) (*domain.Ticket, error) {
	s := r.s
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.tickets[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return t.Clone(), nil
}

func (r ticketRepo) GetAssignment(_ context.Context, ticketID string) (*domain.Assignment, error) {
	s := r.s
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneAssignment(ticketID, s.assignments[ticketID]), nil
}

func (r ticketRepo) Apply(_ context.Context, m *repository.TicketMutation) error {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	current, ok := s.tickets[m.Ticket.ID]
	if !ok {
		return repository.ErrNotFound
	}
	if current.Version != m.ExpectedVersion {
		return repository.ErrVersionConflict
	}
	next := m.Ticket.Clone()
	next.Version = m.ExpectedVersion + 1
	s.tickets[next.ID] = next
	if m.Assignment != nil {
		s.assignments[next.ID] = cloneAssignment(next.ID, m.Assignment)
	}
	if m.TimeEntry != nil {
		s.entries[next.ID] = append(s.entries[next.ID], *m.TimeEntry)
	}
	s.appendLocked(next.ID, m.Events)
	m.Ticket.Version = next.Version
	return nil
}

func (r ticketRepo) Delete(_ context.Context, id string, expectedVersion int64) error {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	current, ok := s.tickets[id]
	if !ok {
		return repository.ErrNotFound
	}
	if current.Version != expectedVersion {
		return repository.ErrVersionConflict
	}
	delete(s.tickets, id)
	delete(s.assignments, id)
	return nil
}

func (r ticketRepo) List(_ context.Context, filter repository.TicketFilter) ([]domain.Ticket, error) {
	s := r.s
	s.mu.RLock()
	defer s.mu.RUnlock()

	statuses := make(map[domain.TicketStatus]struct{}, len(filter.Statuses))
	for _, st := range filter.Statuses {
		statuses[st] = struct{}{}
	}
	var result []domain.Ticket
	for _, t := range s.tickets {
		if len(statuses) > 0 {
			if _, ok := statuses[t.Status]; !ok {
				continue
			}
		}
		if filter.Category != nil && t.Category != *filter.Category {
			continue
		}
		if filter.AssigneeID != nil && !s.assignments[t.ID].Has(*filter.AssigneeID) {
			continue
		}
		result = append(result, *t.Clone())
	}
	sort.Slice(result, func(i, j int) bool {
		if !result[i].CreatedAt.Equal(result[j].CreatedAt) {
			return result[i].CreatedAt.After(result[j].CreatedAt)
		}
		return result[i].ID < result[j].ID
	})

	limit := filter.Limit
	if limit <= 0 {
		limit = 50
	}
	offset := max(filter.Offset, 0)
	if offset >= len(result) {
		return nil, nil
	}
	result = result[offset:]
	if len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

func (s *Store) appendLocked(ticketID string, events []domain.TicketHistoryEvent) {
	log := s.history[ticketID]
	seq := int64(len(log))
	for i := range events {
		seq++
		events[i].Seq = seq
		events[i].TicketID = ticketID
		log = append(log, events[i])
	}
	s.history[ticketID] = log
}

type historyRepo struct{ s *Store }

func (r historyRepo) ListByTicket(_ context.Context, ticketID string) ([]domain.TicketHistoryEvent, error) {
	s := r.s
	s.mu.RLock()
	defer s.mu.RUnlock()
	log := s.history[ticketID]
	out := make([]domain.TicketHistoryEvent, len(log))
	copy(out, log)
	return out, nil
}

type slaRepo struct{ s *Store }

func (r slaRepo) ListRules(_ context.Context) ([]domain.SLARule, error) {
	s := r.s
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.rulesLocked(), nil
}

func (s *Store) rulesLocked() []domain.SLARule {
	rules := make([]domain.SLARule, 0, len(s.rules))
	for _, rule := range s.rules {
		rules = append(rules, rule)
	}
	sort.Slice(rules, func(i, j int) bool { return rules[i].Category < rules[j].Category })
	return rules
}

func (r slaRepo) GetRuleByCategory(_ context.Context, category string) (*domain.SLARule, error) {
	s := r.s
	s.mu.RLock()
	defer s.mu.RUnlock()
	rule, ok := s.rules[category]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &rule, nil
}

func (r slaRepo) UpsertRule(_ context.Context, rule *domain.SLARule) error {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	if existing, ok := s.rules[rule.Category]; ok {
		rule.ID = existing.ID
	}
	s.rules[rule.Category] = *rule
	return nil
}

func (r slaRepo) Snapshot(_ context.Context, filter repository.ResolvedFilter) (*repository.SLASnapshot, error) {
	s := r.s
	s.mu.RLock()
	defer s.mu.RUnlock()

	snapshot := &repository.SLASnapshot{AsOf: s.now(), Rules: s.rulesLocked()}
	for _, t := range s.tickets {
		resolved := t.ResolutionTime()
		if resolved == nil || resolved.Before(filter.From) || !resolved.Before(filter.To) {
			continue
		}
		if filter.Category != nil && t.Category != *filter.Category {
			continue
		}
		snapshot.Tickets = append(snapshot.Tickets, *t.Clone())
	}
	sort.Slice(snapshot.Tickets, func(i, j int) bool { return snapshot.Tickets[i].ID < snapshot.Tickets[j].ID })
	return snapshot, nil
}

func (r slaRepo) UpsertViolations(_ context.Context, violations []domain.SLAViolation) (int, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, v := range violations {
		s.violations[violationKey{v.TicketID, v.SLARuleID}] = v
	}
	return len(violations), nil
}

func (r slaRepo) ListViolations(_ context.Context, ticketID string) ([]domain.SLAViolation, error) {
	s := r.s
	s.mu.RLock()
	defer s.mu.RUnlock()
	var result []domain.SLAViolation
	for key, v := range s.violations {
		if key.ticketID == ticketID {
			result = append(result, v)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].SLARuleID < result[j].SLARuleID })
	return result, nil
}

// ViolationCount returns the number of stored violations.
func (s *Store) ViolationCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.violations)
}

type timeEntryRepo struct{ s *Store }

func (r timeEntryRepo) SumMinutes(_ context.Context, ticketID string, includeUnvalidated bool) (int, error) {
	s := r.s
	s.mu.RLock()
	defer s.mu.RUnlock()
	total := 0
	for _, e := range s.entries[ticketID] {
		if e.Validated || includeUnvalidated {
			total += e.MinutesSpent
		}
	}
	return total, nil
}

type permissionRepo struct{ s *Store }

func (r permissionRepo) HasPermission(_ context.Context, userID string, permission domain.Permission) (bool, error) {
	s := r.s
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.grants[userID][permission]
	return ok, nil
}

func (r permissionRepo) Grant(_ context.Context, userID string, permission domain.Permission) error {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.grants[userID] == nil {
		s.grants[userID] = make(map[domain.Permission]struct{})
	}
	s.grants[userID][permission] = struct{}{}
	return nil
}

type directoryRepo struct{ s *Store }

func (r directoryRepo) GetDepartment(_ context.Context, userID string) (*domain.Department, error) {
	s := r.s
	s.mu.RLock()
	defer s.mu.RUnlock()
	member, ok := s.members[userID]
	if !ok || member.DepartmentID == "" {
		return nil, nil
	}
	dept, ok := s.departments[member.DepartmentID]
	if !ok {
		return nil, nil
	}
	dept.Filiale = s.filiales[dept.Filiale.ID]
	return &dept, nil
}

func (r directoryRepo) ListMembers(_ context.Context, departmentID *string) ([]domain.Member, error) {
	s := r.s
	s.mu.RLock()
	defer s.mu.RUnlock()
	var result []domain.Member
	for _, m := range s.members {
		if departmentID != nil && m.DepartmentID != *departmentID {
			continue
		}
		result = append(result, m)
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].Name != result[j].Name {
			return result[i].Name < result[j].Name
		}
		return result[i].UserID < result[j].UserID
	})
	return result, nil
}

func (r directoryRepo) UserExists(_ context.Context, userID string) (bool, error) {
	s := r.s
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.members[userID]
	return ok, nil
}

func (r directoryRepo) UpsertFiliale(_ context.Context, filiale domain.Filiale) error {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	s.filiales[filiale.ID] = filiale
	return nil
}

func (r directoryRepo) UpsertDepartment(_ context.Context, dept domain.Department) error {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	s.departments[dept.ID] = dept
	if _, ok := s.filiales[dept.Filiale.ID]; !ok {
		s.filiales[dept.Filiale.ID] = dept.Filiale
	}
	return nil
}

func (r directoryRepo) UpsertMember(_ context.Context, member domain.Member) error {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	s.members[member.UserID] = member
	return nil
}

func cloneAssignment(ticketID string, a *domain.Assignment) *domain.Assignment {
	out := &domain.Assignment{TicketID: ticketID}
	if a != nil {
		out.Members = append([]domain.Assignee(nil), a.Members...)
	}
	return out
}
