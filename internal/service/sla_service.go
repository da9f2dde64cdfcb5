package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/ticket-lifecycle/internal/domain"
	"github.com/spec-kit/ticket-lifecycle/internal/repository"
	"github.com/spec-kit/ticket-lifecycle/internal/sla"
	apperrors "github.com/spec-kit/ticket-lifecycle/pkg/util/errorutil"
)

// SLAService computes compliance reports from consistent snapshots and
// persists violations on demand.
type SLAService struct {
	repo   repository.SLARepository
	logger *zap.Logger
}

// NewSLAService creates the service.
func NewSLAService(repo repository.SLARepository, logger *zap.Logger) *SLAService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SLAService{repo: repo, logger: logger}
}

// RecomputeResult is a report plus the number of violations written.
type RecomputeResult struct {
	Report  sla.Report
	Written int
}

// Compliance reports compliance for tickets resolved in [start, end).
func (s *SLAService) Compliance(ctx context.Context, start, end time.Time, category *string) (sla.Report, error) {
	if !start.Before(end) {
		return sla.Report{}, apperrors.NewFieldError("periodEnd", apperrors.ReasonInvalidValue,
			"period end must be after period start")
	}
	if category != nil {
		trimmed := strings.TrimSpace(*category)
		if trimmed == "" {
			category = nil
		} else {
			category = &trimmed
		}
	}

	snapshot, err := s.repo.Snapshot(ctx, repository.ResolvedFilter{From: start, To: end, Category: category})
	if err != nil {
		return sla.Report{}, apperrors.NewInternalError(err)
	}
	report := sla.Compute(snapshot.Tickets, snapshot.Rules, sla.Period{Start: start, End: end}, category)
	report.AsOf = snapshot.AsOf
	return report, nil
}

// Recompute computes violations for the period and upserts them. Running it
// twice over the same data leaves the same rows.
func (s *SLAService) Recompute(ctx context.Context, start, end time.Time) (RecomputeResult, error) {
	report, err := s.Compliance(ctx, start, end, nil)
	if err != nil {
		return RecomputeResult{}, err
	}
	written, err := s.repo.UpsertViolations(ctx, report.Violations)
	if err != nil {
		return RecomputeResult{}, apperrors.NewInternalError(err)
	}
	s.logger.Info("sla violations recomputed",
		zap.Time("period_start", start),
		zap.Time("period_end", end),
		zap.Int("tickets_with_rule", report.TicketsWithRule),
		zap.Int("violations", report.TotalViolations))
	return RecomputeResult{Report: report, Written: written}, nil
}

// Rules lists the configured SLA rules.
func (s *SLAService) Rules(ctx context.Context) ([]domain.SLARule, error) {
	rules, err := s.repo.ListRules(ctx)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	return rules, nil
}

// RuleForCategory returns the rule matching category.
func (s *SLAService) RuleForCategory(ctx context.Context, category string) (*domain.SLARule, error) {
	rule, err := s.repo.GetRuleByCategory(ctx, category)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, apperrors.NewNotFound("sla rule", map[string]any{"category": category})
	}
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	return rule, nil
}

// Violations lists stored violations of a ticket.
func (s *SLAService) Violations(ctx context.Context, ticketID string) ([]domain.SLAViolation, error) {
	violations, err := s.repo.ListViolations(ctx, ticketID)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	return violations, nil
}
