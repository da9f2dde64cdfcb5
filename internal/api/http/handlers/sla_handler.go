package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/ticket-lifecycle/internal/api/dto"
	"github.com/spec-kit/ticket-lifecycle/internal/service"
	apperrors "github.com/spec-kit/ticket-lifecycle/pkg/util/errorutil"
)

// SLAHandler exposes compliance reports and rules.
type SLAHandler struct {
	service *service.SLAService
}

// NewSLAHandler constructs handler.
func NewSLAHandler(slaService *service.SLAService) *SLAHandler {
	return &SLAHandler{service: slaService}
}

// Compliance GET /reports/sla?from=&to=&category=.
func (h *SLAHandler) Compliance(c *fiber.Ctx) error {
	if _, err := callerID(c); err != nil {
		return err
	}
	from, err := parseTimeParam(c, "from")
	if err != nil {
		return err
	}
	to, err := parseTimeParam(c, "to")
	if err != nil {
		return err
	}
	if from == nil || to == nil {
		return apperrors.NewFieldError("from", apperrors.ReasonRequired, "from and to are required")
	}
	report, err := h.service.Compliance(c.UserContext(), *from, *to, optionalQuery(c, "category"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewComplianceResponse(report)})
}

// Recompute POST /reports/sla/recompute.
func (h *SLAHandler) Recompute(c *fiber.Ctx) error {
	if _, err := callerID(c); err != nil {
		return err
	}
	var req dto.RecomputeRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	result, err := h.service.Recompute(c.UserContext(), req.From, req.To)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": fiber.Map{
		"report":  dto.NewComplianceResponse(result.Report),
		"written": result.Written,
	}})
}

// Rules GET /sla/rules.
func (h *SLAHandler) Rules(c *fiber.Ctx) error {
	rules, err := h.service.Rules(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewSLARuleResponses(rules)})
}

// TicketViolations GET /tickets/:id/sla-violations.
func (h *SLAHandler) TicketViolations(c *fiber.Ctx) error {
	if _, err := callerID(c); err != nil {
		return err
	}
	violations, err := h.service.Violations(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewViolationResponses(violations)})
}
