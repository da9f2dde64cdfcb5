package domain

import (
	"strings"
	"time"
)

// TicketStatus enumerates lifecycle states for tickets.
type TicketStatus string

const (
	TicketStatusOpen       TicketStatus = "OPEN"
	TicketStatusInProgress TicketStatus = "IN_PROGRESS"
	TicketStatusPending    TicketStatus = "PENDING"
	TicketStatusResolved   TicketStatus = "RESOLVED"
	TicketStatusClosed     TicketStatus = "CLOSED"
)

// AllTicketStatuses lists statuses in lifecycle order.
var AllTicketStatuses = []TicketStatus{
	TicketStatusOpen,
	TicketStatusInProgress,
	TicketStatusPending,
	TicketStatusResolved,
	TicketStatusClosed,
}

// IsValid returns true if the status is a known lifecycle state.
func (s TicketStatus) IsValid() bool {
	switch s {
	case TicketStatusOpen, TicketStatusInProgress, TicketStatusPending, TicketStatusResolved, TicketStatusClosed:
		return true
	}
	return false
}

// IsActive returns true for statuses where work is still expected.
func (s TicketStatus) IsActive() bool {
	return s == TicketStatusOpen || s == TicketStatusInProgress || s == TicketStatusPending
}

// ParseTicketStatus accepts any casing and '-' or ' ' as word separators.
func ParseTicketStatus(raw string) (TicketStatus, bool) {
	normalized := strings.ToUpper(strings.TrimSpace(raw))
	normalized = strings.NewReplacer("-", "_", " ", "_").Replace(normalized)
	status := TicketStatus(normalized)
	return status, status.IsValid()
}

// TicketPriority enumerates SLA urgency.
type TicketPriority string

const (
	TicketPriorityLow      TicketPriority = "LOW"
	TicketPriorityMedium   TicketPriority = "MEDIUM"
	TicketPriorityHigh     TicketPriority = "HIGH"
	TicketPriorityCritical TicketPriority = "CRITICAL"
)

// IsValid returns true if the priority is known.
func (p TicketPriority) IsValid() bool {
	switch p {
	case TicketPriorityLow, TicketPriorityMedium, TicketPriorityHigh, TicketPriorityCritical:
		return true
	}
	return false
}

// Ticket is the aggregate for support requests.
//
// Tickets are only changed through the lifecycle engine; Version is bumped by
// the store on every committed mutation and guards against stale writers.
type Ticket struct {
	ID                  string
	ExternalKey         string
	Title               string
	Category            string
	Status              TicketStatus
	Priority            TicketPriority
	RequesterID         *string
	RequesterName       string
	RequesterDepartment string
	CreatedBy           string
	EstimatedMinutes    *int
	ActualMinutes       *int
	CreatedAt           time.Time
	UpdatedAt           time.Time
	ClosedAt            *time.Time
	ValidatedAt         *time.Time
	ValidatedBy         *string
	ResolvedAt          *time.Time
	Version             int64
}

// Clone returns a deep copy so a working copy can be mutated before commit.
func (t *Ticket) Clone() *Ticket {
	if t == nil {
		return nil
	}
	c := *t
	c.RequesterID = cloneString(t.RequesterID)
	c.ValidatedBy = cloneString(t.ValidatedBy)
	c.EstimatedMinutes = cloneInt(t.EstimatedMinutes)
	c.ActualMinutes = cloneInt(t.ActualMinutes)
	c.ClosedAt = cloneTime(t.ClosedAt)
	c.ValidatedAt = cloneTime(t.ValidatedAt)
	c.ResolvedAt = cloneTime(t.ResolvedAt)
	return &c
}

// IsRequester reports whether userID is the registered requester.
func (t *Ticket) IsRequester(userID string) bool {
	return t.RequesterID != nil && *t.RequesterID != "" && *t.RequesterID == userID
}

// ResolutionTime is the instant used for SLA elapsed time: the last time the
// ticket entered Resolved, else the time it was closed. Active tickets have none.
func (t *Ticket) ResolutionTime() *time.Time {
	if t.Status != TicketStatusResolved && t.Status != TicketStatusClosed {
		return nil
	}
	if t.ResolvedAt != nil {
		return t.ResolvedAt
	}
	return t.ClosedAt
}

func cloneString(v *string) *string {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}

func cloneInt(v *int) *int {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}

func cloneTime(v *time.Time) *time.Time {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}
