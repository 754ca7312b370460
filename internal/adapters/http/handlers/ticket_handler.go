package handlers

import (
	"errors"
	"strings"

	"smartrail-mumbai/internal/adapters/persistence/models"
	"smartrail-mumbai/internal/core/services"
	"smartrail-mumbai/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// TicketHandler handles ticket lifecycle endpoints
type TicketHandler struct {
	ticketService *services.TicketService
}

// NewTicketHandler creates a new ticket handler
func NewTicketHandler(ticketService *services.TicketService) *TicketHandler {
	return &TicketHandler{ticketService: ticketService}
}

// PurchaseRequest represents a ticket purchase request body
type PurchaseRequest struct {
	Type        string `json:"type"`
	Line        string `json:"line"`
	FromStation string `json:"from_station"`
	ToStation   string `json:"to_station"`
}

// ValidateRequest represents a direct validation request body
type ValidateRequest struct {
	Code string `json:"code"`
}

// Purchase handles ticket purchase
// @Summary Purchase a ticket
// @Description Issue a new ticket for the authenticated commuter
// @Tags Tickets
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body PurchaseRequest true "Purchase data"
// @Success 201 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 401 {object} response.Response
// @Router /tickets [post]
func (h *TicketHandler) Purchase(c *fiber.Ctx) error {
	userID, ok := c.Locals("userID").(uint)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}

	var req PurchaseRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	// Validate required fields
	if req.Type == "" {
		return response.BadRequest(c, "Ticket type is required")
	}
	if req.Line == "" {
		return response.BadRequest(c, "Line is required")
	}
	if req.FromStation == "" || req.ToStation == "" {
		return response.BadRequest(c, "From and to stations are required")
	}

	input := &services.PurchaseInput{
		Type:        strings.TrimSpace(req.Type),
		Line:        strings.TrimSpace(req.Line),
		FromStation: strings.TrimSpace(req.FromStation),
		ToStation:   strings.TrimSpace(req.ToStation),
	}

	ticket, err := h.ticketService.Purchase(c.Context(), userID, input)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrAuthenticationNeeded):
			return response.Unauthorized(c, "User must be logged in to buy tickets")
		case errors.Is(err, services.ErrInvalidTicketType):
			return response.BadRequest(c, "Invalid ticket type")
		default:
			return response.InternalServerError(c, "Failed to purchase ticket")
		}
	}

	return response.Created(c, "Ticket purchased successfully", fiber.Map{
		"ticket": ticket,
	})
}

// GetMyTickets returns the user's tickets
// @Summary Get my tickets
// @Description Get all tickets of the authenticated commuter, newest first
// @Tags Tickets
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Response
// @Router /tickets/my [get]
func (h *TicketHandler) GetMyTickets(c *fiber.Ctx) error {
	userID, ok := c.Locals("userID").(uint)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}

	tickets, err := h.ticketService.GetMyTickets(c.Context(), userID)
	if err != nil {
		return response.InternalServerError(c, "Failed to get tickets")
	}

	return response.Success(c, "Tickets retrieved successfully", fiber.Map{
		"tickets": tickets,
	})
}

// GetActiveTickets returns the user's active tickets
// @Summary Get active tickets
// @Description Get the authenticated commuter's active, unexpired tickets
// @Tags Tickets
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Response
// @Router /tickets/active [get]
func (h *TicketHandler) GetActiveTickets(c *fiber.Ctx) error {
	userID, ok := c.Locals("userID").(uint)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}

	tickets, err := h.ticketService.GetActiveTickets(c.Context(), userID)
	if err != nil {
		return response.InternalServerError(c, "Failed to get active tickets")
	}

	return response.Success(c, "Active tickets retrieved successfully", fiber.Map{
		"tickets": tickets,
	})
}

// GetByID returns one ticket
// @Summary Get ticket by ID
// @Description Get a ticket visible to the requester (owner or admin)
// @Tags Tickets
// @Produce json
// @Security BearerAuth
// @Param id path string true "Ticket ID"
// @Success 200 {object} response.Response
// @Failure 403 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /tickets/{id} [get]
func (h *TicketHandler) GetByID(c *fiber.Ctx) error {
	userID, ok := c.Locals("userID").(uint)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}
	isAdmin := c.Locals("role") == models.RoleAdmin

	ticket, err := h.ticketService.GetTicketByID(c.Context(), c.Params("id"), userID, isAdmin)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrTicketNotFound):
			return response.NotFound(c, "Ticket not found")
		case errors.Is(err, services.ErrNotTicketOwner):
			return response.Forbidden(c, "Ticket belongs to another user")
		default:
			return response.InternalServerError(c, "Failed to get ticket")
		}
	}

	return response.Success(c, "Ticket retrieved successfully", fiber.Map{
		"ticket": ticket,
	})
}

// QRImage renders the ticket's QR code as a PNG
// @Summary Get ticket QR image
// @Description Render the ticket's scan code as a PNG image
// @Tags Tickets
// @Produce png
// @Security BearerAuth
// @Param id path string true "Ticket ID"
// @Success 200 {file} binary
// @Failure 403 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /tickets/{id}/qr.png [get]
func (h *TicketHandler) QRImage(c *fiber.Ctx) error {
	userID, ok := c.Locals("userID").(uint)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}
	isAdmin := c.Locals("role") == models.RoleAdmin

	png, err := h.ticketService.QRImage(c.Context(), c.Params("id"), userID, isAdmin)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrTicketNotFound):
			return response.NotFound(c, "Ticket not found")
		case errors.Is(err, services.ErrNotTicketOwner):
			return response.Forbidden(c, "Ticket belongs to another user")
		default:
			return response.InternalServerError(c, "Failed to render QR code")
		}
	}

	c.Set("Content-Type", "image/png")
	return c.Send(png)
}

// Validate handles direct validation from fixed gate readers
// @Summary Validate a ticket
// @Description Validate scanned or typed ticket text and redeem it if valid
// @Tags Tickets
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body ValidateRequest true "Scanned text"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Router /tickets/validate [post]
func (h *TicketHandler) Validate(c *fiber.Ctx) error {
	var req ValidateRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if strings.TrimSpace(req.Code) == "" {
		return response.BadRequest(c, "Code is required")
	}

	// Negative verdicts are still HTTP 200 — the verdict is the payload
	result := h.ticketService.Validate(c.Context(), req.Code)
	return response.Success(c, result.Message, fiber.Map{
		"result": result,
	})
}
