package handlers

import (
	"errors"
	"strings"

	"smartrail-mumbai/internal/core/services"
	"smartrail-mumbai/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// ScanHandler handles gate scan session endpoints
type ScanHandler struct {
	scanService *services.ScanService
}

// NewScanHandler creates a new scan handler
func NewScanHandler(scanService *services.ScanService) *ScanHandler {
	return &ScanHandler{scanService: scanService}
}

// ScanTextRequest carries decoded or manually entered text
type ScanTextRequest struct {
	Text string `json:"text"`
}

// Open opens a new scan session
// @Summary Open a scan session
// @Description Open a scan session and acquire the capture device
// @Tags Scan
// @Produce json
// @Security BearerAuth
// @Success 201 {object} response.Response
// @Router /scan/sessions [post]
func (h *ScanHandler) Open(c *fiber.Ctx) error {
	session, err := h.scanService.Open(c.Context())
	if err != nil {
		// The session exists in Error state; return it so the operator can retry
		return c.Status(fiber.StatusCreated).JSON(fiber.Map{
			"success": true,
			"message": "Scan session opened with device error",
			"data":    fiber.Map{"session": session.Status()},
		})
	}

	return response.Created(c, "Scan session opened", fiber.Map{
		"session": session.Status(),
	})
}

// Status returns a session snapshot
// @Summary Get scan session status
// @Description Get the current state and verdict of a scan session
// @Tags Scan
// @Produce json
// @Security BearerAuth
// @Param id path string true "Session ID"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /scan/sessions/{id} [get]
func (h *ScanHandler) Status(c *fiber.Ctx) error {
	session, err := h.scanService.Get(c.Params("id"))
	if err != nil {
		return response.NotFound(c, "Scan session not found")
	}

	return response.Success(c, "Session status retrieved", fiber.Map{
		"session": session.Status(),
	})
}

// Decode delivers a camera-decoded frame into the session.
// Duplicate decodes during an in-flight validation are silently dropped,
// matching the decode-once behavior of a local scanner.
// @Summary Submit a decoded frame
// @Description Deliver decoded QR text from the operator's scanner client
// @Tags Scan
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Session ID"
// @Param body body ScanTextRequest true "Decoded text"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /scan/sessions/{id}/decode [post]
func (h *ScanHandler) Decode(c *fiber.Ctx) error {
	session, err := h.scanService.Get(c.Params("id"))
	if err != nil {
		return response.NotFound(c, "Scan session not found")
	}

	var req ScanTextRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if strings.TrimSpace(req.Text) == "" {
		return response.BadRequest(c, "Text is required")
	}

	session.Decode(req.Text)

	return response.Success(c, "Frame accepted", fiber.Map{
		"session": session.Status(),
	})
}

// Manual submits operator-typed text for validation
// @Summary Submit manual entry
// @Description Validate a manually typed ticket ID through the session
// @Tags Scan
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Session ID"
// @Param body body ScanTextRequest true "Ticket text"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Failure 409 {object} response.Response
// @Router /scan/sessions/{id}/manual [post]
func (h *ScanHandler) Manual(c *fiber.Ctx) error {
	session, err := h.scanService.Get(c.Params("id"))
	if err != nil {
		return response.NotFound(c, "Scan session not found")
	}

	var req ScanTextRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if strings.TrimSpace(req.Text) == "" {
		return response.BadRequest(c, "Text is required")
	}

	if err := session.SubmitManual(c.Context(), req.Text); err != nil {
		switch {
		case errors.Is(err, services.ErrSessionClosed):
			return response.Conflict(c, "Scan session is closed")
		case errors.Is(err, services.ErrValidationInFlight):
			return response.Conflict(c, "A validation is already in flight")
		default:
			return response.InternalServerError(c, "Failed to submit entry")
		}
	}

	return response.Success(c, "Entry validated", fiber.Map{
		"session": session.Status(),
	})
}

// ScanAgain restarts scanning after a verdict
// @Summary Scan again
// @Description Clear the verdict and restart the capture device
// @Tags Scan
// @Produce json
// @Security BearerAuth
// @Param id path string true "Session ID"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Failure 409 {object} response.Response
// @Router /scan/sessions/{id}/again [post]
func (h *ScanHandler) ScanAgain(c *fiber.Ctx) error {
	session, err := h.scanService.Get(c.Params("id"))
	if err != nil {
		return response.NotFound(c, "Scan session not found")
	}

	if err := session.ScanAgain(c.Context()); err != nil {
		switch {
		case errors.Is(err, services.ErrSessionClosed):
			return response.Conflict(c, "Scan session is closed")
		case errors.Is(err, services.ErrNotResolved):
			return response.Conflict(c, "Session has no verdict to clear")
		case errors.Is(err, services.ErrDeviceFailed):
			return response.Success(c, services.MsgRestartFailed, fiber.Map{
				"session": session.Status(),
			})
		default:
			return response.InternalServerError(c, "Failed to restart scanning")
		}
	}

	return response.Success(c, "Scanning restarted", fiber.Map{
		"session": session.Status(),
	})
}

// Close closes a scan session
// @Summary Close scan session
// @Description Release the capture device and discard the session
// @Tags Scan
// @Produce json
// @Security BearerAuth
// @Param id path string true "Session ID"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /scan/sessions/{id} [delete]
func (h *ScanHandler) Close(c *fiber.Ctx) error {
	if err := h.scanService.Close(c.Params("id")); err != nil {
		return response.NotFound(c, "Scan session not found")
	}

	return response.Success(c, "Scan session closed", nil)
}
