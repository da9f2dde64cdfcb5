package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/ticket-lifecycle/internal/api/dto"
	"github.com/spec-kit/ticket-lifecycle/internal/service"
)

// AssignmentsHandler manages assignee endpoints.
type AssignmentsHandler struct {
	service *service.AssignmentService
}

// NewAssignmentsHandler constructs handler.
func NewAssignmentsHandler(assignmentService *service.AssignmentService) *AssignmentsHandler {
	return &AssignmentsHandler{service: assignmentService}
}

// Assign PUT /tickets/:id/assignees.
func (h *AssignmentsHandler) Assign(c *fiber.Ctx) error {
	caller, err := callerID(c)
	if err != nil {
		return err
	}
	var req dto.AssignRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	ticket, assignment, err := h.service.Assign(c.UserContext(), c.Params("id"), caller, req.UserIDs, req.LeadID)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewTicketResponse(ticket, assignment)})
}

// List GET /tickets/:id/assignees.
func (h *AssignmentsHandler) List(c *fiber.Ctx) error {
	if _, err := callerID(c); err != nil {
		return err
	}
	assignment, err := h.service.GetAssignment(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewAssigneeResponses(assignment)})
}

// Candidates GET /assignees/candidates?department_id=.
func (h *AssignmentsHandler) Candidates(c *fiber.Ctx) error {
	caller, err := callerID(c)
	if err != nil {
		return err
	}
	members, err := h.service.ListCandidates(c.UserContext(), caller, optionalQuery(c, "department_id"))
	if err != nil {
		return err
	}
	items := make([]dto.MemberResponse, 0, len(members))
	for _, m := range members {
		items = append(items, dto.MemberResponse{UserID: m.UserID, Name: m.Name, DepartmentID: m.DepartmentID})
	}
	return c.JSON(fiber.Map{"data": items})
}
