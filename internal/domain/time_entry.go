package domain

import "time"

// TimeUnit is the unit a duration was entered in.
type TimeUnit string

const (
	TimeUnitMinutes TimeUnit = "minutes"
	TimeUnitHours   TimeUnit = "hours"
	TimeUnitDays    TimeUnit = "days"
)

// IsValid returns true for known units.
func (u TimeUnit) IsValid() bool {
	return u == TimeUnitMinutes || u == TimeUnitHours || u == TimeUnitDays
}

// TimeEntry is time logged by a user against a ticket.
type TimeEntry struct {
	ID           string
	TicketID     string
	UserID       string
	MinutesSpent int
	Date         time.Time
	Validated    bool
	CreatedAt    time.Time
}
