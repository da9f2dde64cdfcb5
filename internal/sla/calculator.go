// Package sla computes SLA violations and compliance over resolved tickets.
//
// The calculator is pure: the same tickets and rules always produce the same
// report, in the same order.
package sla

import (
	"sort"
	"time"

	"github.com/spec-kit/ticket-lifecycle/internal/domain"
)

// Period is the half-open resolution window [Start, End).
type Period struct {
	Start time.Time
	End   time.Time
}

// Contains reports whether t falls in the period.
func (p Period) Contains(t time.Time) bool {
	return !t.Before(p.Start) && t.Before(p.End)
}

// CategoryStats is the compliance breakdown for one category.
type CategoryStats struct {
	Category          string  `json:"category"`
	TargetMinutes     int     `json:"target_minutes"`
	Tickets           int     `json:"tickets"`
	Violations        int     `json:"violations"`
	Compliance        float64 `json:"compliance"`
	AvgElapsedMinutes float64 `json:"avg_elapsed_minutes"`
}

// Report is the result of a compliance computation.
type Report struct {
	Period            Period
	Category          *string
	AsOf              time.Time
	OverallCompliance float64
	// TotalTickets counts every resolved ticket in the period, with or
	// without a matching rule.
	TotalTickets    int
	TicketsWithRule int
	TotalViolations int
	Violations      []domain.SLAViolation
	ByCategory      []CategoryStats
}

// ElapsedMinutes is the whole minutes from creation to resolution, or false
// when the ticket is not resolved.
func ElapsedMinutes(ticket *domain.Ticket) (int, bool) {
	resolved := ticket.ResolutionTime()
	if resolved == nil {
		return 0, false
	}
	elapsed := resolved.Sub(ticket.CreatedAt)
	if elapsed < 0 {
		return 0, true
	}
	return int(elapsed / time.Minute), true
}

// Evaluate checks one ticket against its rule. It returns nil when the ticket
// is unresolved or within target.
func Evaluate(ticket *domain.Ticket, rule domain.SLARule) *domain.SLAViolation {
	elapsed, ok := ElapsedMinutes(ticket)
	if !ok || elapsed <= rule.TargetMinutes {
		return nil
	}
	return &domain.SLAViolation{
		TicketID:         ticket.ID,
		SLARuleID:        rule.ID,
		Category:         ticket.Category,
		ViolationMinutes: elapsed - rule.TargetMinutes,
		ViolatedAt:       ticket.CreatedAt.Add(time.Duration(rule.TargetMinutes) * time.Minute),
	}
}

// Compute builds a report for the tickets resolved in period. Tickets whose
// category has no rule count towards TotalTickets only.
func Compute(tickets []domain.Ticket, rules []domain.SLARule, period Period, category *string) Report {
	byCategory := make(map[string]domain.SLARule, len(rules))
	for _, rule := range rules {
		byCategory[rule.Category] = rule
	}

	report := Report{Period: period, Category: category}
	stats := make(map[string]*CategoryStats)
	elapsedSum := make(map[string]int)

	for i := range tickets {
		ticket := &tickets[i]
		resolved := ticket.ResolutionTime()
		if resolved == nil || !period.Contains(*resolved) {
			continue
		}
		if category != nil && ticket.Category != *category {
			continue
		}
		report.TotalTickets++

		rule, ok := byCategory[ticket.Category]
		if !ok {
			continue
		}
		report.TicketsWithRule++

		cs, ok := stats[rule.Category]
		if !ok {
			cs = &CategoryStats{Category: rule.Category, TargetMinutes: rule.TargetMinutes}
			stats[rule.Category] = cs
		}
		cs.Tickets++
		elapsed, _ := ElapsedMinutes(ticket)
		elapsedSum[rule.Category] += elapsed

		if v := Evaluate(ticket, rule); v != nil {
			cs.Violations++
			report.Violations = append(report.Violations, *v)
		}
	}

	report.TotalViolations = len(report.Violations)
	report.OverallCompliance = compliance(report.TicketsWithRule, report.TotalViolations)

	for name, cs := range stats {
		cs.Compliance = compliance(cs.Tickets, cs.Violations)
		cs.AvgElapsedMinutes = float64(elapsedSum[name]) / float64(cs.Tickets)
		report.ByCategory = append(report.ByCategory, *cs)
	}
	sort.Slice(report.ByCategory, func(i, j int) bool {
		return report.ByCategory[i].Category < report.ByCategory[j].Category
	})
	sort.Slice(report.Violations, func(i, j int) bool {
		a, b := report.Violations[i], report.Violations[j]
		if !a.ViolatedAt.Equal(b.ViolatedAt) {
			return a.ViolatedAt.Before(b.ViolatedAt)
		}
		return a.TicketID < b.TicketID
	})
	return report
}

// compliance is 100 for an empty population.
func compliance(total, violations int) float64 {
	if total == 0 {
		return 100
	}
	return float64(total-violations) / float64(total) * 100
}
