package handlers

import (
	"context"
	"net/http"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/ticket-lifecycle/internal/api/dto"
	"github.com/spec-kit/ticket-lifecycle/internal/domain"
	"github.com/spec-kit/ticket-lifecycle/internal/service"
	"github.com/spec-kit/ticket-lifecycle/internal/timebudget"
)

// BudgetHandler manages estimates and time entries.
type BudgetHandler struct {
	service *service.BudgetService
}

// NewBudgetHandler constructs handler.
func NewBudgetHandler(budgetService *service.BudgetService) *BudgetHandler {
	return &BudgetHandler{service: budgetService}
}

// SetEstimate POST /tickets/:id/estimate.
func (h *BudgetHandler) SetEstimate(c *fiber.Ctx) error {
	return h.estimate(c, h.service.SetEstimate)
}

// UpdateEstimate PUT /tickets/:id/estimate.
func (h *BudgetHandler) UpdateEstimate(c *fiber.Ctx) error {
	return h.estimate(c, h.service.UpdateEstimate)
}

func (h *BudgetHandler) estimate(c *fiber.Ctx, apply func(ctx context.Context, ticketID, callerID string, d service.Duration) (*domain.Ticket, error)) error {
	caller, err := callerID(c)
	if err != nil {
		return err
	}
	var req dto.EstimateRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	duration := service.Duration{Value: req.Value, Unit: domain.TimeUnit(strings.ToLower(string(req.Unit)))}
	ticket, err := apply(c.UserContext(), c.Params("id"), caller, duration)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewTicketResponse(ticket, nil)})
}

// RecordTime POST /tickets/:id/time-entries.
func (h *BudgetHandler) RecordTime(c *fiber.Ctx) error {
	caller, err := callerID(c)
	if err != nil {
		return err
	}
	var req dto.TimeEntryRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	input := service.TimeEntryInput{UserID: req.UserID, Minutes: req.Minutes, Validated: req.Validated}
	if req.Date != nil {
		input.Date = *req.Date
	}
	entry, ticket, err := h.service.RecordActual(c.UserContext(), c.Params("id"), caller, input)
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{
		"data": fiber.Map{
			"entry":  dto.NewTimeEntryResponse(entry),
			"ticket": dto.NewTicketResponse(ticket, nil),
		},
	})
}

// Budget GET /tickets/:id/budget.
func (h *BudgetHandler) Budget(c *fiber.Ctx) error {
	if _, err := callerID(c); err != nil {
		return err
	}
	variance, err := h.service.Variance(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	resp := dto.BudgetResponse{
		EstimatedMinutes: variance.EstimatedMinutes,
		ActualMinutes:    variance.ActualMinutes,
		DeltaMinutes:     variance.DeltaMinutes,
		PercentConsumed:  variance.PercentConsumed,
		ActualHours:      timebudget.MinutesToHours(variance.ActualMinutes),
	}
	if variance.EstimatedMinutes != nil {
		hours := timebudget.MinutesToHours(*variance.EstimatedMinutes)
		resp.EstimatedHours = &hours
	}
	return c.JSON(fiber.Map{"data": resp})
}
