package sla

import (
	"fmt"
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/ticket-lifecycle/internal/domain"
)

var (
	periodStart = time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)
	period      = Period{Start: periodStart, End: periodStart.AddDate(0, 1, 0)}
	incident    = domain.SLARule{ID: "sla-incident", Category: "incident", TargetMinutes: 240}
	access      = domain.SLARule{ID: "sla-access", Category: "access", TargetMinutes: 480}
)

func resolvedTicket(id, category string, created time.Time, elapsed time.Duration) domain.Ticket {
	resolved := created.Add(elapsed)
	return domain.Ticket{
		ID:         id,
		Category:   category,
		Status:     domain.TicketStatusResolved,
		CreatedAt:  created,
		ResolvedAt: &resolved,
	}
}

func TestComputeExampleScenario(t *testing.T) {
	created := periodStart.Add(24 * time.Hour)
	tickets := []domain.Ticket{resolvedTicket("t-1", "incident", created, 300*time.Minute)}

	report := Compute(tickets, []domain.SLARule{incident}, period, nil)

	require.Len(t, report.Violations, 1)
	v := report.Violations[0]
	assert.Equal(t, 60, v.ViolationMinutes)
	assert.Equal(t, "sla-incident", v.SLARuleID)
	assert.Equal(t, created.Add(240*time.Minute), v.ViolatedAt)
	assert.Equal(t, 1, report.TotalTickets)
	assert.Equal(t, 1, report.TotalViolations)
	assert.Equal(t, 0.0, report.OverallCompliance)
}

func TestComputeExcludesTicketsWithoutRule(t *testing.T) {
	created := periodStart.Add(time.Hour)
	tickets := []domain.Ticket{
		resolvedTicket("a", "incident", created, 100*time.Minute),
		resolvedTicket("b", "incident", created, 500*time.Minute),
		resolvedTicket("c", "hardware", created, 10000*time.Minute),
	}

	report := Compute(tickets, []domain.SLARule{incident}, period, nil)

	assert.Equal(t, 3, report.TotalTickets)
	assert.Equal(t, 2, report.TicketsWithRule)
	assert.Equal(t, 1, report.TotalViolations)
	assert.InDelta(t, 50.0, report.OverallCompliance, 1e-9)
	require.Len(t, report.ByCategory, 1)
	assert.Equal(t, 300.0, report.ByCategory[0].AvgElapsedMinutes)
}

func TestComputeEmptyPopulationIsFullyCompliant(t *testing.T) {
	created := periodStart.Add(time.Hour)
	tickets := []domain.Ticket{resolvedTicket("c", "hardware", created, time.Hour)}

	report := Compute(tickets, []domain.SLARule{incident}, period, nil)
	assert.Equal(t, 100.0, report.OverallCompliance)

	report = Compute(nil, nil, period, nil)
	assert.Equal(t, 100.0, report.OverallCompliance)
	assert.Zero(t, report.TotalTickets)
}

func TestComputeWindowAndStatus(t *testing.T) {
	before := resolvedTicket("before", "incident", periodStart.Add(-48*time.Hour), time.Hour)
	atEnd := resolvedTicket("end", "incident", period.End.Add(-time.Hour), time.Hour)
	open := resolvedTicket("open", "incident", periodStart, time.Hour)
	open.Status = domain.TicketStatusOpen

	closedAt := periodStart.Add(10 * time.Hour)
	closed := domain.Ticket{
		ID:        "closed",
		Category:  "incident",
		Status:    domain.TicketStatusClosed,
		CreatedAt: periodStart,
		ClosedAt:  &closedAt,
	}

	report := Compute([]domain.Ticket{before, atEnd, open, closed}, []domain.SLARule{incident}, period, nil)
	assert.Equal(t, 1, report.TotalTickets)
	require.Len(t, report.Violations, 1)
	assert.Equal(t, "closed", report.Violations[0].TicketID)
	assert.Equal(t, 360, report.Violations[0].ViolationMinutes)
}

func TestComputeCategoryFilter(t *testing.T) {
	created := periodStart.Add(time.Hour)
	tickets := []domain.Ticket{
		resolvedTicket("a", "incident", created, 500*time.Minute),
		resolvedTicket("b", "access", created, 500*time.Minute),
	}
	category := "access"
	report := Compute(tickets, []domain.SLARule{incident, access}, period, &category)
	assert.Equal(t, 1, report.TotalTickets)
	require.Len(t, report.Violations, 1)
	assert.Equal(t, 20, report.Violations[0].ViolationMinutes)
}

func TestComputeIsDeterministicAndBounded(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	categories := []string{"incident", "access", "hardware"}
	var tickets []domain.Ticket
	for i := 0; i < 200; i++ {
		created := periodStart.Add(time.Duration(rng.Intn(600)) * time.Hour)
		elapsed := time.Duration(rng.Intn(1000)) * time.Minute
		tickets = append(tickets, resolvedTicket(fmt.Sprintf("t-%03d", i), categories[rng.Intn(3)], created, elapsed))
	}
	rules := []domain.SLARule{incident, access}

	first := Compute(tickets, rules, period, nil)
	shuffled := append([]domain.Ticket(nil), tickets...)
	rng.Shuffle(len(shuffled), func(i, j int) { shuffled[i], shuffled[j] = shuffled[j], shuffled[i] })
	second := Compute(shuffled, rules, period, nil)

	assert.Equal(t, first.Violations, second.Violations)
	assert.Equal(t, first.ByCategory, second.ByCategory)
	assert.GreaterOrEqual(t, first.OverallCompliance, 0.0)
	assert.LessOrEqual(t, first.OverallCompliance, 100.0)
}
