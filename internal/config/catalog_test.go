package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/ticket-lifecycle/internal/domain"
)

const sampleCatalog = `
[[filiales]]
id = "soft"
name = "Software House"
software_provider = true

[[departments]]
id = "it"
name = "IT"
it = true
filiale = "soft"

[[members]]
user_id = "ana"
name = "Ana"
department = "it"

[[grants]]
user_id = "ana"
permissions = ["tickets.assign"]

[[sla_rules]]
category = "incident"
target = 4
unit = "hours"

[[sla_rules]]
id = "sla-access"
category = "access"
target = 1.5
unit = "days"
`

func TestParseCatalog(t *testing.T) {
	cat, err := ParseCatalog(sampleCatalog)
	require.NoError(t, err)

	rules := cat.Rules()
	require.Len(t, rules, 2)
	assert.Equal(t, domain.SLARule{ID: "incident", Category: "incident", TargetMinutes: 240, Unit: domain.TimeUnitHours}, rules[0])
	assert.Equal(t, 720, rules[1].TargetMinutes)

	depts := cat.DepartmentList()
	require.Len(t, depts, 1)
	assert.True(t, depts[0].IsResolverDepartment())
}

func TestCatalogValidation(t *testing.T) {
	tests := map[string]string{
		"unknown filiale":    "[[departments]]\nid = \"x\"\nfiliale = \"nope\"\n",
		"unknown department": "[[members]]\nuser_id = \"a\"\ndepartment = \"nope\"\n",
		"bad unit":           "[[sla_rules]]\ncategory = \"a\"\ntarget = 1\nunit = \"weeks\"\n",
		"zero target":        "[[sla_rules]]\ncategory = \"a\"\ntarget = 0\n",
		"duplicate category": "[[sla_rules]]\ncategory = \"a\"\ntarget = 1\n[[sla_rules]]\ncategory = \"a\"\ntarget = 2\n",
	}
	for name, data := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := ParseCatalog(data)
			assert.Error(t, err)
		})
	}
}

func TestLoadCatalogFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.toml")
	require.NoError(t, os.WriteFile(path, []byte(sampleCatalog), 0o600))

	cat, err := LoadCatalog(path)
	require.NoError(t, err)
	assert.Len(t, cat.Members, 1)

	_, err = LoadCatalog(filepath.Join(t.TempDir(), "missing.toml"))
	assert.Error(t, err)
}
