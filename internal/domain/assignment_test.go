package domain

import (
	"fmt"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string { return &s }

func TestNewAssignment(t *testing.T) {
	tests := []struct {
		name    string
		userIDs []string
		lead    string
		wantErr error
		want    []Assignee
	}{
		{
			name:    "empty selection",
			userIDs: nil,
			wantErr: ErrEmptySelection,
		},
		{
			name:    "only blanks",
			userIDs: []string{" ", ""},
			wantErr: ErrEmptySelection,
		},
		{
			name:    "lead outside selection",
			userIDs: []string{"ana", "bo"},
			lead:    "cy",
			wantErr: ErrLeadNotInSelection,
		},
		{
			name:    "dedupes and sorts",
			userIDs: []string{"bo", "ana", "bo"},
			lead:    "bo",
			want:    []Assignee{{UserID: "ana"}, {UserID: "bo", IsLead: true}},
		},
		{
			name:    "no lead",
			userIDs: []string{"ana"},
			want:    []Assignee{{UserID: "ana"}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a, err := NewAssignment("t-1", tt.userIDs, tt.lead)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, a.Members)
		})
	}
}

func TestAssignment_ReassignDropsLead(t *testing.T) {
	a, err := NewAssignment("t-1", []string{"ana", "bo"}, "ana")
	require.NoError(t, err)

	kept, err := a.Reassign([]string{"ana", "cy"}, nil)
	require.NoError(t, err)
	lead, ok := kept.Lead()
	require.True(t, ok)
	assert.Equal(t, "ana", lead)

	dropped, err := kept.Reassign([]string{"bo", "cy"}, nil)
	require.NoError(t, err)
	_, ok = dropped.Lead()
	assert.False(t, ok, "lead must be cleared, not transferred")

	cleared, err := kept.Reassign([]string{"ana"}, strPtr(""))
	require.NoError(t, err)
	_, ok = cleared.Lead()
	assert.False(t, ok)
}

func TestAssignment_LeadAlwaysMember(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	pool := []string{"u1", "u2", "u3", "u4", "u5"}

	var current *Assignment
	for i := 0; i < 500; i++ {
		n := rng.Intn(len(pool)) + 1
		picked := make([]string, 0, n)
		for _, idx := range rng.Perm(len(pool))[:n] {
			picked = append(picked, pool[idx])
		}
		var lead *string
		switch rng.Intn(3) {
		case 0:
			lead = strPtr(pool[rng.Intn(len(pool))])
		case 1:
			lead = strPtr("")
		}

		next, err := current.Reassign(picked, lead)
		if err != nil {
			require.ErrorIs(t, err, ErrLeadNotInSelection, fmt.Sprintf("iteration %d", i))
			continue
		}
		leads := 0
		for _, m := range next.Members {
			if m.IsLead {
				leads++
				assert.True(t, next.Has(m.UserID))
			}
		}
		assert.LessOrEqual(t, leads, 1)
		current = next
	}
}

func TestAssignment_Summary(t *testing.T) {
	a, err := NewAssignment("t-1", []string{"bo", "ana"}, "bo")
	require.NoError(t, err)
	assert.Equal(t, "ana, bo (lead)", a.Summary())

	var empty *Assignment
	assert.Equal(t, "", empty.Summary())
	assert.True(t, empty.IsEmpty())
}
