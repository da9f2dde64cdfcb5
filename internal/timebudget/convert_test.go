package timebudget

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/ticket-lifecycle/internal/domain"
)

func TestHoursToMinutes(t *testing.T) {
	assert.Equal(t, 90, HoursToMinutes(1.5))
	assert.Equal(t, 60, HoursToMinutes(1))
	assert.Equal(t, 0, HoursToMinutes(0))
	assert.Equal(t, 1.5, MinutesToHours(90))
	assert.Equal(t, MaxMinutes, HoursToMinutes(1e300))
	assert.Equal(t, -MaxMinutes, MinutesFromDays(-1e300))
}

func TestWorkDayRoundTrip(t *testing.T) {
	for m := 0; m <= 480*40; m += 480 {
		assert.Equal(t, m, MinutesFromDays(DaysFromMinutes(m)), "minutes=%d", m)
	}
	assert.Equal(t, 480, MinutesFromDays(1), "a day is a work day")
	assert.Equal(t, 240, MinutesFromDays(0.5))
	assert.Equal(t, 2.0, DaysFromMinutes(960))
}

func TestToMinutes(t *testing.T) {
	tests := []struct {
		value   float64
		unit    domain.TimeUnit
		want    int
		wantErr bool
	}{
		{value: 45, unit: domain.TimeUnitMinutes, want: 45},
		{value: 45, unit: "", want: 45},
		{value: 2.5, unit: domain.TimeUnitHours, want: 150},
		{value: 3, unit: domain.TimeUnitDays, want: 1440},
		{value: 1, unit: "weeks", wantErr: true},
		{value: 1e300, unit: domain.TimeUnitHours, wantErr: true},
		{value: -1e300, unit: domain.TimeUnitDays, wantErr: true},
		{value: math.MaxInt32 + 1, unit: domain.TimeUnitMinutes, wantErr: true},
		{value: math.MaxInt32, unit: domain.TimeUnitMinutes, want: math.MaxInt32},
	}
	for _, tt := range tests {
		got, err := ToMinutes(tt.value, tt.unit)
		if tt.wantErr {
			assert.Error(t, err)
			continue
		}
		require.NoError(t, err)
		assert.Equal(t, tt.want, got)
	}

	days, err := FromMinutes(1440, domain.TimeUnitDays)
	require.NoError(t, err)
	assert.Equal(t, 3.0, days)
}
