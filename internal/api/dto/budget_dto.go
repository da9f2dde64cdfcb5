package dto

import (
	"time"

	"github.com/spec-kit/ticket-lifecycle/internal/domain"
)

// EstimateRequest sets or updates an estimate. Unit defaults to minutes.
type EstimateRequest struct {
	Value float64         `json:"value"`
	Unit  domain.TimeUnit `json:"unit"`
}

// TimeEntryRequest logs time on a ticket. user_id defaults to the caller and
// date to now.
type TimeEntryRequest struct {
	UserID    string     `json:"user_id"`
	Minutes   int        `json:"minutes"`
	Date      *time.Time `json:"date"`
	Validated bool       `json:"validated"`
}

// TimeEntryResponse is a stored time entry.
type TimeEntryResponse struct {
	ID           string    `json:"id"`
	TicketID     string    `json:"ticket_id"`
	UserID       string    `json:"user_id"`
	MinutesSpent int       `json:"minutes_spent"`
	Date         time.Time `json:"date"`
	Validated    bool      `json:"validated"`
}

// BudgetResponse compares estimated and actual time.
type BudgetResponse struct {
	EstimatedMinutes *int     `json:"estimated_minutes"`
	ActualMinutes    int      `json:"actual_minutes"`
	DeltaMinutes     *int     `json:"delta_minutes"`
	PercentConsumed  *float64 `json:"percent_consumed"`
	EstimatedHours   *float64 `json:"estimated_hours"`
	ActualHours      float64  `json:"actual_hours"`
}

// NewTimeEntryResponse maps a time entry.
func NewTimeEntryResponse(entry *domain.TimeEntry) TimeEntryResponse {
	return TimeEntryResponse{
		ID:           entry.ID,
		TicketID:     entry.TicketID,
		UserID:       entry.UserID,
		MinutesSpent: entry.MinutesSpent,
		Date:         entry.Date,
		Validated:    entry.Validated,
	}
}
