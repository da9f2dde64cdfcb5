package auth

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/ticket-lifecycle/internal/domain"
	"github.com/spec-kit/ticket-lifecycle/pkg/util/errorutil"
)

var (
	itDept = &domain.Department{
		ID:             "it",
		IsITDepartment: true,
		Filiale:        domain.Filiale{ID: "soft", IsSoftwareProvider: true},
	}
	itElsewhere = &domain.Department{
		ID:             "it-retail",
		IsITDepartment: true,
		Filiale:        domain.Filiale{ID: "retail"},
	}
	salesDept = &domain.Department{ID: "sales", Filiale: domain.Filiale{ID: "soft", IsSoftwareProvider: true}}
)

func TestGateCheck(t *testing.T) {
	gate := NewGate("")
	resolver := NewCaller("res", itDept)
	foreignIT := NewCaller("it2", itElsewhere)
	validator := NewCaller("val", salesDept, domain.PermissionValidate)
	ownValidator := NewCaller("req", salesDept, domain.PermissionValidateOwn)
	updater := NewCaller("upd", salesDept, domain.PermissionUpdate)
	admin := NewCaller("adm", nil, domain.PermissionOverrideStatus)

	tests := []struct {
		name    string
		caller  *Caller
		action  Action
		rel     Relation
		allowed bool
	}{
		{"resolver estimates", resolver, ActionSetEstimate, Relation{}, true},
		{"IT outside provider cannot estimate", foreignIT, ActionSetEstimate, Relation{}, false},
		{"no department cannot estimate", admin, ActionUpdateEstimate, Relation{}, false},
		{"assigned resolver submits", resolver, ActionSubmitForValidation, Relation{IsAssignee: true}, true},
		{"unassigned resolver cannot submit", resolver, ActionSubmitForValidation, Relation{}, false},
		{"assigned non-resolver cannot submit", updater, ActionSubmitForValidation, Relation{IsAssignee: true}, false},
		{"validator validates any", validator, ActionValidate, Relation{}, true},
		{"own validator validates own", ownValidator, ActionValidate, Relation{IsRequester: true}, true},
		{"own validator cannot validate others", ownValidator, ActionInvalidate, Relation{}, false},
		{"updater closes", updater, ActionClose, Relation{}, true},
		{"updater reopens", updater, ActionReopen, Relation{}, true},
		{"validator cannot close", validator, ActionClose, Relation{}, false},
		{"update is not enough to override", updater, ActionOverrideStatus, Relation{}, false},
		{"override permission overrides", admin, ActionOverrideStatus, Relation{}, true},
		{"requester creates own ticket", ownValidator, ActionCreate, Relation{Subject: "req"}, true},
		{"cannot create for others", ownValidator, ActionCreate, Relation{Subject: "someone"}, false},
		{"user records own time", resolver, ActionRecordTime, Relation{Subject: "res"}, true},
		{"user cannot record for others", resolver, ActionRecordTime, Relation{Subject: "x"}, false},
		{"updater records for others", updater, ActionRecordTime, Relation{Subject: "x"}, true},
		{"assign needs permission", updater, ActionAssign, Relation{}, false},
		{"delete needs permission", updater, ActionDelete, Relation{}, false},
		{"nil caller", nil, ActionClose, Relation{}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := gate.Check(tt.caller, tt.action, tt.rel)
			assert.Equal(t, tt.allowed, err == nil, "err: %v", err)
			if err != nil {
				assert.True(t, errorutil.IsCode(err, errorutil.CodePermissionDenied))
				assert.Equal(t, "action not allowed", errorutil.ToDomainError(err).Message)
			}
		})
	}
}

func TestGateConfigurableOverridePermission(t *testing.T) {
	gate := NewGate("tickets.superuser")
	assert.False(t, gate.Allowed(NewCaller("a", nil, domain.PermissionOverrideStatus), ActionOverrideStatus, Relation{}))
	assert.True(t, gate.Allowed(NewCaller("b", nil, "tickets.superuser"), ActionOverrideStatus, Relation{}))
}

type stubPerms map[string][]domain.Permission

func (s stubPerms) HasPermission(_ context.Context, userID string, p domain.Permission) (bool, error) {
	for _, held := range s[userID] {
		if held == p {
			return true, nil
		}
	}
	return false, nil
}

type stubDirectory map[string]*domain.Department

func (s stubDirectory) GetDepartment(_ context.Context, userID string) (*domain.Department, error) {
	if userID == "broken" {
		return nil, errors.New("directory offline")
	}
	return s[userID], nil
}

func TestCallerResolver(t *testing.T) {
	perms := stubPerms{"ana": {domain.PermissionAssign, "tickets.superuser"}}
	resolver := NewCallerResolver(perms, stubDirectory{"ana": itDept}, "tickets.superuser")

	caller, err := resolver.Resolve(context.Background(), "ana")
	require.NoError(t, err)
	assert.True(t, caller.Has(domain.PermissionAssign))
	assert.True(t, caller.Has("tickets.superuser"))
	assert.False(t, caller.Has(domain.PermissionDelete))
	assert.True(t, caller.IsResolver())

	_, err = resolver.Resolve(context.Background(), "broken")
	assert.Error(t, err)

	_, err = resolver.Resolve(context.Background(), "")
	assert.True(t, errorutil.IsCode(err, errorutil.CodeUnauthorized))
}
