package timebudget

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/ticket-lifecycle/internal/domain"
)

type stubEntries struct {
	validated   int
	unvalidated int
	err         error
}

func (s stubEntries) SumMinutes(_ context.Context, _ string, includeUnvalidated bool) (int, error) {
	if s.err != nil {
		return 0, s.err
	}
	if includeUnvalidated {
		return s.validated + s.unvalidated, nil
	}
	return s.validated, nil
}

func intPtr(v int) *int { return &v }

func TestComputeVariance(t *testing.T) {
	v := ComputeVariance(intPtr(120), 90)
	require.NotNil(t, v.DeltaMinutes)
	require.NotNil(t, v.PercentConsumed)
	assert.Equal(t, -30, *v.DeltaMinutes)
	assert.InDelta(t, 75.0, *v.PercentConsumed, 0.0001)

	zero := ComputeVariance(intPtr(0), 30)
	assert.Nil(t, zero.PercentConsumed, "zero estimate is unknown, not 0%")
	assert.Equal(t, 30, *zero.DeltaMinutes)

	none := ComputeVariance(nil, 30)
	assert.Nil(t, none.EstimatedMinutes)
	assert.Nil(t, none.DeltaMinutes)
	assert.Nil(t, none.PercentConsumed)
}

func TestTracker_Policy(t *testing.T) {
	ctx := context.Background()
	entries := stubEntries{validated: 60, unvalidated: 30}
	ticket := &domain.Ticket{ID: "t-1", EstimatedMinutes: intPtr(60)}

	inclusive := NewTracker(entries, true)
	v, err := inclusive.Variance(ctx, ticket)
	require.NoError(t, err)
	assert.Equal(t, 90, v.ActualMinutes)
	assert.InDelta(t, 150.0, *v.PercentConsumed, 0.0001)

	strict := NewTracker(entries, false)
	v, err = strict.Variance(ctx, ticket)
	require.NoError(t, err)
	assert.Equal(t, 60, v.ActualMinutes)
	assert.False(t, strict.IncludesUnvalidated())

	_, err = NewTracker(stubEntries{err: errors.New("boom")}, true).Variance(ctx, ticket)
	assert.Error(t, err)
}
