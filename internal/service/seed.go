package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/spec-kit/ticket-lifecycle/internal/config"
	"github.com/spec-kit/ticket-lifecycle/internal/domain"
	"github.com/spec-kit/ticket-lifecycle/internal/repository"
)

// SeedCatalog upserts catalog contents into the store. It is safe to run on
// every start.
func SeedCatalog(ctx context.Context, store *repository.Store, catalog *config.Catalog, logger *zap.Logger) error {
	for _, f := range catalog.Filiales {
		filiale := domain.Filiale{ID: f.ID, Name: f.Name, IsSoftwareProvider: f.SoftwareProvider}
		if err := store.Directory.UpsertFiliale(ctx, filiale); err != nil {
			return fmt.Errorf("seed filiale %s: %w", f.ID, err)
		}
	}
	for _, d := range catalog.DepartmentList() {
		if err := store.Directory.UpsertDepartment(ctx, d); err != nil {
			return fmt.Errorf("seed department %s: %w", d.ID, err)
		}
	}
	for _, m := range catalog.Members {
		member := domain.Member{UserID: m.UserID, Name: m.Name, DepartmentID: m.Department}
		if err := store.Directory.UpsertMember(ctx, member); err != nil {
			return fmt.Errorf("seed member %s: %w", m.UserID, err)
		}
	}
	for _, g := range catalog.Grants {
		for _, p := range g.Permissions {
			if err := store.Permissions.Grant(ctx, g.UserID, domain.Permission(p)); err != nil {
				return fmt.Errorf("grant %s to %s: %w", p, g.UserID, err)
			}
		}
	}
	for _, rule := range catalog.Rules() {
		rule := rule
		if err := store.SLA.UpsertRule(ctx, &rule); err != nil {
			return fmt.Errorf("seed sla rule %s: %w", rule.Category, err)
		}
	}

	logger.Info("catalog seeded",
		zap.Int("filiales", len(catalog.Filiales)),
		zap.Int("departments", len(catalog.Departments)),
		zap.Int("members", len(catalog.Members)),
		zap.Int("sla_rules", len(catalog.SLARules)))
	return nil
}
