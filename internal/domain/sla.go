package domain

import "time"

// SLARule is the maximum allowed resolution time for a category.
// TargetMinutes is authoritative; Unit records how the target was expressed.
type SLARule struct {
	ID            string
	Category      string
	TargetMinutes int
	Unit          TimeUnit
}

// SLAViolation records a ticket resolved later than its rule allows.
type SLAViolation struct {
	TicketID         string
	SLARuleID        string
	Category         string
	ViolationMinutes int
	ViolatedAt       time.Time
}
