// Package timebudget converts and aggregates estimated and actual ticket time.
//
// All durations are stored in minutes. Day-based values use an eight hour
// work day (480 minutes), not a 24 hour calendar day.
package timebudget

import (
	"fmt"
	"math"

	"github.com/spec-kit/ticket-lifecycle/internal/domain"
)

const (
	MinutesPerHour    = 60
	MinutesPerWorkDay = 8 * MinutesPerHour
	// MaxMinutes is the largest duration a ticket can store.
	MaxMinutes = math.MaxInt32
)

// roundMinutes rounds to whole minutes, saturating at ±MaxMinutes.
func roundMinutes(minutes float64) int {
	switch {
	case minutes > MaxMinutes:
		return MaxMinutes
	case minutes < -MaxMinutes:
		return -MaxMinutes
	}
	return int(math.Round(minutes))
}

// HoursToMinutes converts hours to whole minutes, rounding to the nearest minute.
func HoursToMinutes(hours float64) int {
	return roundMinutes(hours * MinutesPerHour)
}

// MinutesToHours converts minutes to fractional hours.
func MinutesToHours(minutes int) float64 {
	return float64(minutes) / MinutesPerHour
}

// MinutesFromDays converts work days to whole minutes.
func MinutesFromDays(days float64) int {
	return roundMinutes(days * MinutesPerWorkDay)
}

// DaysFromMinutes converts minutes to fractional work days.
func DaysFromMinutes(minutes int) float64 {
	return float64(minutes) / MinutesPerWorkDay
}

// ToMinutes converts a value expressed in unit to minutes. Results beyond
// MaxMinutes in either direction are rejected.
func ToMinutes(value float64, unit domain.TimeUnit) (int, error) {
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return 0, fmt.Errorf("invalid duration %v", value)
	}
	var minutes float64
	switch unit {
	case domain.TimeUnitMinutes, "":
		minutes = value
	case domain.TimeUnitHours:
		minutes = value * MinutesPerHour
	case domain.TimeUnitDays:
		minutes = value * MinutesPerWorkDay
	default:
		return 0, fmt.Errorf("unknown time unit %q", unit)
	}
	minutes = math.Round(minutes)
	if math.Abs(minutes) > MaxMinutes {
		return 0, fmt.Errorf("duration %v %s out of range", value, unit)
	}
	return int(minutes), nil
}

// FromMinutes expresses minutes in unit.
func FromMinutes(minutes int, unit domain.TimeUnit) (float64, error) {
	switch unit {
	case domain.TimeUnitMinutes, "":
		return float64(minutes), nil
	case domain.TimeUnitHours:
		return MinutesToHours(minutes), nil
	case domain.TimeUnitDays:
		return DaysFromMinutes(minutes), nil
	default:
		return 0, fmt.Errorf("unknown time unit %q", unit)
	}
}
