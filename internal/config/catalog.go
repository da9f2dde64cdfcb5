package config

import (
	"fmt"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/spec-kit/ticket-lifecycle/internal/domain"
	"github.com/spec-kit/ticket-lifecycle/internal/timebudget"
)

// Catalog is reference data loaded from a TOML file: SLA rules and, for
// deployments without an external directory, filiales, departments, members
// and permission grants.
type Catalog struct {
	Filiales    []FilialeEntry    `toml:"filiales"`
	Departments []DepartmentEntry `toml:"departments"`
	Members     []MemberEntry     `toml:"members"`
	Grants      []GrantEntry      `toml:"grants"`
	SLARules    []SLARuleEntry    `toml:"sla_rules"`
}

type FilialeEntry struct {
	ID               string `toml:"id"`
	Name             string `toml:"name"`
	SoftwareProvider bool   `toml:"software_provider"`
}

type DepartmentEntry struct {
	ID      string `toml:"id"`
	Name    string `toml:"name"`
	IT      bool   `toml:"it"`
	Filiale string `toml:"filiale"`
}

type MemberEntry struct {
	UserID     string `toml:"user_id"`
	Name       string `toml:"name"`
	Department string `toml:"department"`
}

type GrantEntry struct {
	UserID      string   `toml:"user_id"`
	Permissions []string `toml:"permissions"`
}

// SLARuleEntry expresses a target in any supported unit; days are work days.
type SLARuleEntry struct {
	ID       string  `toml:"id"`
	Category string  `toml:"category"`
	Target   float64 `toml:"target"`
	Unit     string  `toml:"unit"`
}

// LoadCatalog reads and validates a catalog file.
func LoadCatalog(path string) (*Catalog, error) {
	var cat Catalog
	if _, err := toml.DecodeFile(path, &cat); err != nil {
		return nil, fmt.Errorf("decode catalog %s: %w", path, err)
	}
	if err := cat.Validate(); err != nil {
		return nil, fmt.Errorf("catalog %s: %w", path, err)
	}
	return &cat, nil
}

// ParseCatalog decodes a catalog from TOML text.
func ParseCatalog(data string) (*Catalog, error) {
	var cat Catalog
	if _, err := toml.Decode(data, &cat); err != nil {
		return nil, fmt.Errorf("decode catalog: %w", err)
	}
	if err := cat.Validate(); err != nil {
		return nil, err
	}
	return &cat, nil
}

// Validate checks references and SLA targets.
func (c *Catalog) Validate() error {
	filiales := make(map[string]struct{}, len(c.Filiales))
	for _, f := range c.Filiales {
		if f.ID == "" {
			return fmt.Errorf("filiale without id")
		}
		filiales[f.ID] = struct{}{}
	}
	departments := make(map[string]struct{}, len(c.Departments))
	for _, d := range c.Departments {
		if _, ok := filiales[d.Filiale]; !ok {
			return fmt.Errorf("department %q references unknown filiale %q", d.ID, d.Filiale)
		}
		departments[d.ID] = struct{}{}
	}
	for _, m := range c.Members {
		if m.UserID == "" {
			return fmt.Errorf("member without user_id")
		}
		if m.Department == "" {
			continue
		}
		if _, ok := departments[m.Department]; !ok {
			return fmt.Errorf("member %q references unknown department %q", m.UserID, m.Department)
		}
	}
	categories := make(map[string]struct{}, len(c.SLARules))
	for _, r := range c.SLARules {
		if strings.TrimSpace(r.Category) == "" {
			return fmt.Errorf("sla rule %q has no category", r.ID)
		}
		if _, dup := categories[r.Category]; dup {
			return fmt.Errorf("duplicate sla rule for category %q", r.Category)
		}
		categories[r.Category] = struct{}{}
		if _, err := r.TargetMinutes(); err != nil {
			return fmt.Errorf("sla rule %q: %w", r.Category, err)
		}
	}
	return nil
}

// TargetMinutes converts the rule target to minutes.
func (r SLARuleEntry) TargetMinutes() (int, error) {
	minutes, err := timebudget.ToMinutes(r.Target, domain.TimeUnit(r.Unit))
	if err != nil {
		return 0, err
	}
	if minutes <= 0 {
		return 0, fmt.Errorf("target must be positive")
	}
	return minutes, nil
}

// Rules returns the SLA rules as domain values. Rules without an id are
// keyed by their category.
func (c *Catalog) Rules() []domain.SLARule {
	rules := make([]domain.SLARule, 0, len(c.SLARules))
	for _, r := range c.SLARules {
		minutes, _ := r.TargetMinutes()
		id := r.ID
		if id == "" {
			id = r.Category
		}
		unit := domain.TimeUnit(r.Unit)
		if unit == "" {
			unit = domain.TimeUnitMinutes
		}
		rules = append(rules, domain.SLARule{ID: id, Category: r.Category, TargetMinutes: minutes, Unit: unit})
	}
	return rules
}

// DepartmentList resolves departments with their filiale.
func (c *Catalog) DepartmentList() []domain.Department {
	filiales := make(map[string]domain.Filiale, len(c.Filiales))
	for _, f := range c.Filiales {
		filiales[f.ID] = domain.Filiale{ID: f.ID, Name: f.Name, IsSoftwareProvider: f.SoftwareProvider}
	}
	result := make([]domain.Department, 0, len(c.Departments))
	for _, d := range c.Departments {
		result = append(result, domain.Department{
			ID:             d.ID,
			Name:           d.Name,
			IsITDepartment: d.IT,
			Filiale:        filiales[d.Filiale],
		})
	}
	return result
}
