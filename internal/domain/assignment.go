package domain

import (
	"errors"
	"sort"
	"strings"
)

var (
	// ErrEmptySelection is returned when an assignment names no users.
	ErrEmptySelection = errors.New("assignee selection is empty")
	// ErrLeadNotInSelection is returned when the lead is not one of the assignees.
	ErrLeadNotInSelection = errors.New("lead is not part of the assignee selection")
)

// Assignee is one member of a ticket's assignee set.
type Assignee struct {
	UserID string
	IsLead bool
}

// Assignment owns the assignee set of a ticket and its optional lead.
// At most one member is lead, and the lead is always a member.
type Assignment struct {
	TicketID string
	Members  []Assignee
}

// NewAssignment builds a validated assignee set. Duplicate user IDs collapse
// and members are kept sorted by user ID.
func NewAssignment(ticketID string, userIDs []string, leadID string) (*Assignment, error) {
	seen := make(map[string]struct{}, len(userIDs))
	ids := make([]string, 0, len(userIDs))
	for _, id := range userIDs {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}
	if len(ids) == 0 {
		return nil, ErrEmptySelection
	}
	if leadID != "" {
		if _, ok := seen[leadID]; !ok {
			return nil, ErrLeadNotInSelection
		}
	}
	sort.Strings(ids)
	members := make([]Assignee, 0, len(ids))
	for _, id := range ids {
		members = append(members, Assignee{UserID: id, IsLead: id == leadID})
	}
	return &Assignment{TicketID: ticketID, Members: members}, nil
}

// Reassign replaces the whole assignee set. A nil leadID keeps the current
// lead when it survives the replacement and clears it otherwise; an empty
// leadID clears the lead explicitly.
func (a *Assignment) Reassign(userIDs []string, leadID *string) (*Assignment, error) {
	ticketID := ""
	if a != nil {
		ticketID = a.TicketID
	}
	lead := ""
	if leadID != nil {
		lead = strings.TrimSpace(*leadID)
	} else if current, ok := a.Lead(); ok {
		for _, id := range userIDs {
			if strings.TrimSpace(id) == current {
				lead = current
				break
			}
		}
	}
	return NewAssignment(ticketID, userIDs, lead)
}

// Lead returns the lead user ID if one is designated.
func (a *Assignment) Lead() (string, bool) {
	if a == nil {
		return "", false
	}
	for _, m := range a.Members {
		if m.IsLead {
			return m.UserID, true
		}
	}
	return "", false
}

// Has reports whether userID is an assignee.
func (a *Assignment) Has(userID string) bool {
	if a == nil {
		return false
	}
	for _, m := range a.Members {
		if m.UserID == userID {
			return true
		}
	}
	return false
}

// IsEmpty reports whether nobody is assigned.
func (a *Assignment) IsEmpty() bool {
	return a == nil || len(a.Members) == 0
}

// UserIDs returns the assignee IDs in stored order.
func (a *Assignment) UserIDs() []string {
	if a == nil {
		return nil
	}
	ids := make([]string, 0, len(a.Members))
	for _, m := range a.Members {
		ids = append(ids, m.UserID)
	}
	return ids
}

// Summary renders the assignee list for history entries, e.g. "ana (lead), bo".
func (a *Assignment) Summary() string {
	if a.IsEmpty() {
		return ""
	}
	parts := make([]string, 0, len(a.Members))
	for _, m := range a.Members {
		if m.IsLead {
			parts = append(parts, m.UserID+" (lead)")
			continue
		}
		parts = append(parts, m.UserID)
	}
	return strings.Join(parts, ", ")
}
