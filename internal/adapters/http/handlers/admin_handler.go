package handlers

import (
	"errors"

	"smartrail-mumbai/internal/core/domain"
	"smartrail-mumbai/internal/core/services"
	"smartrail-mumbai/internal/pkg/pagination"
	"smartrail-mumbai/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// AdminHandler handles admin dashboard endpoints
type AdminHandler struct {
	ticketService *services.TicketService
	crowdService  *services.CrowdService
}

// NewAdminHandler creates a new admin handler
func NewAdminHandler(ticketService *services.TicketService, crowdService *services.CrowdService) *AdminHandler {
	return &AdminHandler{
		ticketService: ticketService,
		crowdService:  crowdService,
	}
}

// CreateAlertRequest represents a service alert creation body
type CreateAlertRequest struct {
	Type     string  `json:"type"`
	Message  string  `json:"message"`
	Line     *string `json:"line"`
	Station  *string `json:"station"`
	Severity string  `json:"severity"`
	TTLHours int     `json:"ttl_hours"`
}

// GetStats returns the admin dashboard numbers
// @Summary Get admin stats
// @Description Get network stats and ticket counts per status
// @Tags Admin
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Response
// @Router /admin/stats [get]
func (h *AdminHandler) GetStats(c *fiber.Ctx) error {
	network, err := h.crowdService.GetNetworkStats(c.Context())
	if err != nil {
		return response.InternalServerError(c, "Failed to get network stats")
	}

	ticketCounts, err := h.ticketService.CountByStatus(c.Context())
	if err != nil {
		return response.InternalServerError(c, "Failed to get ticket stats")
	}

	return response.Success(c, "Stats retrieved successfully", fiber.Map{
		"network": network,
		"tickets": ticketCounts,
	})
}

// ListTickets returns tickets with optional status filter
// @Summary List tickets
// @Description List all tickets, optionally filtered by status, paginated
// @Tags Admin
// @Produce json
// @Security BearerAuth
// @Param status query string false "Ticket status (active|used|expired)"
// @Param page query int false "Page number"
// @Param limit query int false "Items per page"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Router /admin/tickets [get]
func (h *AdminHandler) ListTickets(c *fiber.Ctx) error {
	params := pagination.GetParams(c)

	tickets, total, err := h.ticketService.ListTickets(c.Context(), c.Query("status"), params.Offset, params.Limit)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidInput) {
			return response.BadRequest(c, "Invalid ticket status filter")
		}
		return response.InternalServerError(c, "Failed to list tickets")
	}

	return response.Success(c, "Tickets retrieved successfully", pagination.NewResponse(tickets, params, total))
}

// CreateAlert publishes a new service alert
// @Summary Create service alert
// @Description Publish a service alert and push it to subscribed clients
// @Tags Admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body CreateAlertRequest true "Alert data"
// @Success 201 {object} response.Response
// @Failure 400 {object} response.Response
// @Router /admin/alerts [post]
func (h *AdminHandler) CreateAlert(c *fiber.Ctx) error {
	var req CreateAlertRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if req.Message == "" {
		return response.BadRequest(c, "Message is required")
	}
	if req.Severity == "" {
		return response.BadRequest(c, "Severity is required")
	}

	alert, err := h.crowdService.CreateAlert(c.Context(), &services.CreateAlertInput{
		Type:     req.Type,
		Message:  req.Message,
		Line:     req.Line,
		Station:  req.Station,
		Severity: req.Severity,
		TTLHours: req.TTLHours,
	})
	if err != nil {
		if errors.Is(err, services.ErrInvalidAlertType) {
			return response.BadRequest(c, "Invalid alert type")
		}
		return response.InternalServerError(c, "Failed to create alert")
	}

	return response.Created(c, "Alert created successfully", fiber.Map{
		"alert": alert,
	})
}
