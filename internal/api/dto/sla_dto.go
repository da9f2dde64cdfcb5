package dto

import (
	"time"

	"github.com/spec-kit/ticket-lifecycle/internal/domain"
	"github.com/spec-kit/ticket-lifecycle/internal/sla"
)

// RecomputeRequest names the period to recompute.
type RecomputeRequest struct {
	From time.Time `json:"from"`
	To   time.Time `json:"to"`
}

// ViolationResponse is one SLA violation.
type ViolationResponse struct {
	TicketID         string    `json:"ticket_id"`
	SLARuleID        string    `json:"sla_rule_id"`
	Category         string    `json:"category"`
	ViolationMinutes int       `json:"violation_minutes"`
	ViolatedAt       time.Time `json:"violated_at"`
}

// ComplianceResponse is a compliance report.
type ComplianceResponse struct {
	PeriodStart       time.Time           `json:"period_start"`
	PeriodEnd         time.Time           `json:"period_end"`
	Category          *string             `json:"category"`
	AsOf              time.Time           `json:"as_of"`
	OverallCompliance float64             `json:"overall_compliance"`
	TotalTickets      int                 `json:"total_tickets"`
	TicketsWithRule   int                 `json:"tickets_with_rule"`
	TotalViolations   int                 `json:"total_violations"`
	Violations        []ViolationResponse `json:"violations"`
	ByCategory        []sla.CategoryStats `json:"by_category"`
}

// SLARuleResponse is a configured rule.
type SLARuleResponse struct {
	ID            string          `json:"id"`
	Category      string          `json:"category"`
	TargetMinutes int             `json:"target_minutes"`
	Unit          domain.TimeUnit `json:"unit"`
}

// NewComplianceResponse maps a report.
func NewComplianceResponse(report sla.Report) ComplianceResponse {
	byCategory := report.ByCategory
	if byCategory == nil {
		byCategory = []sla.CategoryStats{}
	}
	return ComplianceResponse{
		PeriodStart:       report.Period.Start,
		PeriodEnd:         report.Period.End,
		Category:          report.Category,
		AsOf:              report.AsOf,
		OverallCompliance: report.OverallCompliance,
		TotalTickets:      report.TotalTickets,
		TicketsWithRule:   report.TicketsWithRule,
		TotalViolations:   report.TotalViolations,
		Violations:        NewViolationResponses(report.Violations),
		ByCategory:        byCategory,
	}
}

// NewViolationResponses maps violations.
func NewViolationResponses(violations []domain.SLAViolation) []ViolationResponse {
	out := make([]ViolationResponse, 0, len(violations))
	for _, v := range violations {
		out = append(out, ViolationResponse{
			TicketID:         v.TicketID,
			SLARuleID:        v.SLARuleID,
			Category:         v.Category,
			ViolationMinutes: v.ViolationMinutes,
			ViolatedAt:       v.ViolatedAt,
		})
	}
	return out
}

// NewSLARuleResponses maps rules.
func NewSLARuleResponses(rules []domain.SLARule) []SLARuleResponse {
	out := make([]SLARuleResponse, 0, len(rules))
	for _, r := range rules {
		out = append(out, SLARuleResponse{ID: r.ID, Category: r.Category, TargetMinutes: r.TargetMinutes, Unit: r.Unit})
	}
	return out
}
