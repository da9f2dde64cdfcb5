// Package lifecycle implements the ticket state machine.
//
// The rule table below is the only authority on which workflow trigger may
// move a ticket out of which status. Authorization is not decided here; the
// permission gate runs before a plan is requested.
package lifecycle

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/spec-kit/ticket-lifecycle/internal/domain"
	"github.com/spec-kit/ticket-lifecycle/pkg/util/errorutil"
)

// Rule defines the statuses a trigger may fire from and where it leads.
// Statuses in Hold accept the trigger without changing status.
type Rule struct {
	Trigger     domain.TransitionTrigger
	From        []domain.TicketStatus
	Hold        []domain.TicketStatus
	To          domain.TicketStatus
	Description string
}

var rules = []Rule{
	{
		Trigger:     domain.TriggerEstimate,
		From:        []domain.TicketStatus{domain.TicketStatusOpen},
		Hold:        []domain.TicketStatus{domain.TicketStatusInProgress, domain.TicketStatusPending},
		To:          domain.TicketStatusInProgress,
		Description: "Estimate set; open tickets start progress",
	},
	{
		Trigger:     domain.TriggerSubmitForValidation,
		From:        []domain.TicketStatus{domain.TicketStatusOpen, domain.TicketStatusInProgress},
		To:          domain.TicketStatusPending,
		Description: "Work submitted to the requester for validation",
	},
	{
		Trigger:     domain.TriggerValidate,
		From:        []domain.TicketStatus{domain.TicketStatusPending},
		To:          domain.TicketStatusResolved,
		Description: "Requester accepted the resolution",
	},
	{
		Trigger:     domain.TriggerInvalidate,
		From:        []domain.TicketStatus{domain.TicketStatusPending, domain.TicketStatusResolved},
		To:          domain.TicketStatusOpen,
		Description: "Resolution rejected, ticket back to open",
	},
	{
		Trigger:     domain.TriggerReopen,
		From:        []domain.TicketStatus{domain.TicketStatusResolved, domain.TicketStatusClosed},
		To:          domain.TicketStatusOpen,
		Description: "Ticket reopened",
	},
	{
		Trigger: domain.TriggerClose,
		From: []domain.TicketStatus{
			domain.TicketStatusOpen,
			domain.TicketStatusInProgress,
			domain.TicketStatusPending,
			domain.TicketStatusResolved,
		},
		To:          domain.TicketStatusClosed,
		Description: "Ticket closed",
	},
}

var ruleMap map[domain.TransitionTrigger]*Rule

func init() {
	ruleMap = make(map[domain.TransitionTrigger]*Rule, len(rules))
	for i := range rules {
		ruleMap[rules[i].Trigger] = &rules[i]
	}
}

// Plan is the outcome of checking a trigger against the current status.
type Plan struct {
	Trigger domain.TransitionTrigger
	From    domain.TicketStatus
	To      domain.TicketStatus
}

// Changes reports whether applying the plan moves the ticket.
func (p Plan) Changes() bool {
	return p.From != p.To
}

// Machine provides state machine operations for tickets.
type Machine struct {
	now func() time.Time
}

// NewMachine creates a state machine using the given clock.
func NewMachine(now func() time.Time) *Machine {
	if now == nil {
		now = time.Now
	}
	return &Machine{now: now}
}

// Rule returns the rule for a trigger, or nil for the manual override.
func (m *Machine) Rule(trigger domain.TransitionTrigger) *Rule {
	return ruleMap[trigger]
}

// Plan checks whether trigger may fire from the given status.
func (m *Machine) Plan(from domain.TicketStatus, trigger domain.TransitionTrigger) (Plan, error) {
	rule := ruleMap[trigger]
	if rule == nil {
		return Plan{}, errorutil.NewInvalidTransition(
			fmt.Sprintf("unknown trigger %q", trigger), nil)
	}
	if contains(rule.From, from) {
		return Plan{Trigger: trigger, From: from, To: rule.To}, nil
	}
	if contains(rule.Hold, from) {
		return Plan{Trigger: trigger, From: from, To: from}, nil
	}
	return Plan{}, errorutil.NewInvalidTransition(
		fmt.Sprintf("cannot %s a ticket in status %s", humanTrigger(trigger), from),
		map[string]any{"current_status": from, "trigger": trigger})
}

// PlanOverride checks a free-form status change. Any valid target other than
// the current status is accepted.
func (m *Machine) PlanOverride(from, to domain.TicketStatus) (Plan, error) {
	if !to.IsValid() {
		return Plan{}, errorutil.NewFieldError("status", errorutil.ReasonInvalidValue,
			fmt.Sprintf("unknown status %q", to))
	}
	if from == to {
		return Plan{}, errorutil.NewInvalidTransition(
			fmt.Sprintf("ticket is already in status %s", to),
			map[string]any{"current_status": from})
	}
	return Plan{Trigger: domain.TriggerManualOverride, From: from, To: to}, nil
}

// Apply moves ticket according to plan, maintaining the timestamp invariants,
// and returns the StatusChanged history entry. Plans that do not change
// status leave the ticket untouched and return false.
func (m *Machine) Apply(ticket *domain.Ticket, plan Plan, actorID string) (domain.TicketHistoryEvent, bool) {
	if !plan.Changes() {
		return domain.TicketHistoryEvent{}, false
	}
	now := m.now()
	ticket.Status = plan.To

	if plan.To == domain.TicketStatusClosed {
		ticket.ClosedAt = &now
	} else {
		ticket.ClosedAt = nil
	}

	switch {
	case plan.To == domain.TicketStatusResolved:
		ticket.ResolvedAt = &now
		if plan.Trigger == domain.TriggerValidate {
			actor := actorID
			ticket.ValidatedAt = &now
			ticket.ValidatedBy = &actor
		}
	case plan.To.IsActive():
		// Validation only survives on the path Resolved -> Closed.
		ticket.ResolvedAt = nil
		ticket.ValidatedAt = nil
		ticket.ValidatedBy = nil
	}
	ticket.UpdatedAt = now

	return domain.TicketHistoryEvent{
		ID:        uuid.NewString(),
		TicketID:  ticket.ID,
		ActorID:   actorID,
		Action:    domain.HistoryActionStatusChanged,
		Trigger:   plan.Trigger,
		FieldName: "status",
		OldValue:  string(plan.From),
		NewValue:  string(plan.To),
		Timestamp: now,
	}, true
}

// ValidTriggers returns the triggers that may fire from the given status,
// excluding the manual override.
func (m *Machine) ValidTriggers(from domain.TicketStatus) []domain.TransitionTrigger {
	var triggers []domain.TransitionTrigger
	for _, rule := range rules {
		if contains(rule.From, from) || contains(rule.Hold, from) {
			triggers = append(triggers, rule.Trigger)
		}
	}
	return triggers
}

// Rules returns a copy of the rule table.
func (m *Machine) Rules() []Rule {
	result := make([]Rule, len(rules))
	copy(result, rules)
	return result
}

func contains(statuses []domain.TicketStatus, s domain.TicketStatus) bool {
	for _, candidate := range statuses {
		if candidate == s {
			return true
		}
	}
	return false
}

func humanTrigger(trigger domain.TransitionTrigger) string {
	switch trigger {
	case domain.TriggerEstimate:
		return "estimate"
	case domain.TriggerSubmitForValidation:
		return "submit for validation"
	default:
		return string(trigger)
	}
}
