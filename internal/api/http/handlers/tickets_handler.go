package handlers

import (
	"context"
	"net/http"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/ticket-lifecycle/internal/api/dto"
	"github.com/spec-kit/ticket-lifecycle/internal/domain"
	"github.com/spec-kit/ticket-lifecycle/internal/repository"
	"github.com/spec-kit/ticket-lifecycle/internal/service"
	apperrors "github.com/spec-kit/ticket-lifecycle/pkg/util/errorutil"
)

// TicketsHandler manages ticket and workflow endpoints.
type TicketsHandler struct {
	service *service.TicketService
}

// NewTicketsHandler constructs handler.
func NewTicketsHandler(ticketService *service.TicketService) *TicketsHandler {
	return &TicketsHandler{service: ticketService}
}

// CreateTicket POST /tickets.
func (h *TicketsHandler) CreateTicket(c *fiber.Ctx) error {
	caller, err := callerID(c)
	if err != nil {
		return err
	}
	var req dto.CreateTicketRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}

	ticket, err := h.service.CreateTicket(c.UserContext(), caller, service.TicketCreateInput{
		Title:               req.Title,
		Category:            req.Category,
		Priority:            domain.TicketPriority(strings.ToUpper(string(req.Priority))),
		RequesterID:         req.RequesterID,
		RequesterName:       req.RequesterName,
		RequesterDepartment: req.RequesterDepartment,
	})
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": dto.NewTicketResponse(ticket, nil)})
}

// ListTickets GET /tickets.
func (h *TicketsHandler) ListTickets(c *fiber.Ctx) error {
	if _, err := callerID(c); err != nil {
		return err
	}
	filter, err := parseTicketQuery(c)
	if err != nil {
		return err
	}
	tickets, err := h.service.ListTickets(c.UserContext(), filter)
	if err != nil {
		return err
	}
	items := make([]dto.TicketResponse, 0, len(tickets))
	for i := range tickets {
		items = append(items, dto.NewTicketResponse(&tickets[i], nil))
	}
	return c.JSON(fiber.Map{"data": items})
}

// GetTicket GET /tickets/:id.
func (h *TicketsHandler) GetTicket(c *fiber.Ctx) error {
	if _, err := callerID(c); err != nil {
		return err
	}
	ticket, assignment, err := h.service.GetTicket(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewTicketResponse(ticket, assignment)})
}

// UpdateTicket PATCH /tickets/:id.
func (h *TicketsHandler) UpdateTicket(c *fiber.Ctx) error {
	caller, err := callerID(c)
	if err != nil {
		return err
	}
	var req dto.UpdateTicketRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	if req.Priority != nil {
		p := domain.TicketPriority(strings.ToUpper(string(*req.Priority)))
		req.Priority = &p
	}
	ticket, err := h.service.UpdateFields(c.UserContext(), c.Params("id"), caller, service.TicketFieldsInput{
		Title:    req.Title,
		Category: req.Category,
		Priority: req.Priority,
	})
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewTicketResponse(ticket, nil)})
}

// DeleteTicket DELETE /tickets/:id.
func (h *TicketsHandler) DeleteTicket(c *fiber.Ctx) error {
	caller, err := callerID(c)
	if err != nil {
		return err
	}
	if err := h.service.DeleteTicket(c.UserContext(), c.Params("id"), caller); err != nil {
		return err
	}
	return c.SendStatus(http.StatusNoContent)
}

// History GET /tickets/:id/history.
func (h *TicketsHandler) History(c *fiber.Ctx) error {
	if _, err := callerID(c); err != nil {
		return err
	}
	history, err := h.service.History(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewHistoryResponses(history)})
}

// Transitions GET /tickets/:id/transitions lists the workflow actions the
// current status accepts. Permissions are not evaluated here.
func (h *TicketsHandler) Transitions(c *fiber.Ctx) error {
	if _, err := callerID(c); err != nil {
		return err
	}
	ticket, _, err := h.service.GetTicket(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	machine := h.service.Machine()
	items := []dto.TransitionResponse{}
	for _, trigger := range machine.ValidTriggers(ticket.Status) {
		plan, err := machine.Plan(ticket.Status, trigger)
		if err != nil {
			continue
		}
		items = append(items, dto.TransitionResponse{
			Trigger:     trigger,
			To:          plan.To,
			Description: machine.Rule(trigger).Description,
		})
	}
	return c.JSON(fiber.Map{"data": items})
}

// ChangeStatus POST /tickets/:id/status.
func (h *TicketsHandler) ChangeStatus(c *fiber.Ctx) error {
	caller, err := callerID(c)
	if err != nil {
		return err
	}
	var req dto.ChangeStatusRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	target, ok := domain.ParseTicketStatus(req.Status)
	if !ok {
		return apperrors.NewFieldError("status", apperrors.ReasonInvalidValue, "unknown status")
	}
	ticket, err := h.service.ChangeStatus(c.UserContext(), c.Params("id"), target, caller)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewTicketResponse(ticket, nil)})
}

// Submit POST /tickets/:id/submit.
func (h *TicketsHandler) Submit(c *fiber.Ctx) error {
	return h.workflow(c, h.service.SubmitForValidation)
}

// Validate POST /tickets/:id/validate.
func (h *TicketsHandler) Validate(c *fiber.Ctx) error {
	return h.workflow(c, h.service.Validate)
}

// Invalidate POST /tickets/:id/invalidate.
func (h *TicketsHandler) Invalidate(c *fiber.Ctx) error {
	return h.workflow(c, h.service.Invalidate)
}

// Close POST /tickets/:id/close.
func (h *TicketsHandler) Close(c *fiber.Ctx) error {
	return h.workflow(c, h.service.Close)
}

// Reopen POST /tickets/:id/reopen.
func (h *TicketsHandler) Reopen(c *fiber.Ctx) error {
	return h.workflow(c, h.service.Reopen)
}

func (h *TicketsHandler) workflow(c *fiber.Ctx, action func(ctx context.Context, ticketID, callerID string) (*domain.Ticket, error)) error {
	caller, err := callerID(c)
	if err != nil {
		return err
	}
	ticket, err := action(c.UserContext(), c.Params("id"), caller)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewTicketResponse(ticket, nil)})
}

const (
	maxPage     = 1_000_000
	maxPageSize = 200
)

func parseTicketQuery(c *fiber.Ctx) (repository.TicketFilter, error) {
	filter := repository.TicketFilter{
		Category:   optionalQuery(c, "category"),
		AssigneeID: optionalQuery(c, "assignee_id"),
	}
	if statusStr := c.Query("status"); statusStr != "" {
		for _, part := range strings.Split(statusStr, ",") {
			status, ok := domain.ParseTicketStatus(part)
			if !ok {
				return filter, apperrors.NewFieldError("status", apperrors.ReasonInvalidValue, "unknown status")
			}
			filter.Statuses = append(filter.Statuses, status)
		}
	}
	page := parseInt(c.Query("page"), 1)
	if page > maxPage {
		return filter, apperrors.NewFieldError("page", apperrors.ReasonInvalidValue, "page out of range")
	}
	pageSize := parseInt(c.Query("page_size"), 20)
	if pageSize > maxPageSize {
		pageSize = maxPageSize
	}
	filter.Offset = (page - 1) * pageSize
	filter.Limit = pageSize
	return filter, nil
}
