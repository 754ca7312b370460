package handlers

import (
	"smartrail-mumbai/internal/adapters/persistence/repositories"
	"smartrail-mumbai/internal/core/services"
	"smartrail-mumbai/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// TransitHandler handles network master-data and live-status endpoints
type TransitHandler struct {
	routeService *services.RouteService
	crowdService *services.CrowdService
	transitRepo  *repositories.TransitRepository
}

// NewTransitHandler creates a new transit handler
func NewTransitHandler(
	routeService *services.RouteService,
	crowdService *services.CrowdService,
	transitRepo *repositories.TransitRepository,
) *TransitHandler {
	return &TransitHandler{
		routeService: routeService,
		crowdService: crowdService,
		transitRepo:  transitRepo,
	}
}

// GetLines returns the supported lines
// @Summary Get lines
// @Description Get all supported suburban and metro lines
// @Tags Transit
// @Produce json
// @Success 200 {object} response.Response
// @Router /transit/lines [get]
func (h *TransitHandler) GetLines(c *fiber.Ctx) error {
	return response.Success(c, "Lines retrieved successfully", fiber.Map{
		"lines": h.routeService.GetLines(),
	})
}

// GetStations returns all station names
// @Summary Get stations
// @Description Get all active station names alphabetically
// @Tags Transit
// @Produce json
// @Success 200 {object} response.Response
// @Router /transit/stations [get]
func (h *TransitHandler) GetStations(c *fiber.Ctx) error {
	stations, err := h.routeService.GetStations(c.Context())
	if err != nil {
		return response.InternalServerError(c, "Failed to get stations")
	}

	return response.Success(c, "Stations retrieved successfully", fiber.Map{
		"stations": stations,
	})
}

// GetFareTypes returns fare categories with prices
// @Summary Get fare types
// @Description Get all fare categories and display prices
// @Tags Transit
// @Produce json
// @Success 200 {object} response.Response
// @Router /transit/fares [get]
func (h *TransitHandler) GetFareTypes(c *fiber.Ctx) error {
	fares, err := h.transitRepo.GetFareTypes()
	if err != nil {
		return response.InternalServerError(c, "Failed to get fare types")
	}

	return response.Success(c, "Fare types retrieved successfully", fiber.Map{
		"fare_types": fares,
	})
}

// GetRoutes returns the static route table
// @Summary Get routes
// @Description Get all routes with fares and durations
// @Tags Transit
// @Produce json
// @Success 200 {object} response.Response
// @Router /transit/routes [get]
func (h *TransitHandler) GetRoutes(c *fiber.Ctx) error {
	routes, err := h.routeService.GetRoutes(c.Context())
	if err != nil {
		return response.InternalServerError(c, "Failed to get routes")
	}

	return response.Success(c, "Routes retrieved successfully", fiber.Map{
		"routes": routes,
	})
}

// GetRouteSuggestions returns ranked journey options
// @Summary Get route suggestions
// @Description Get crowd-aware journey suggestions between two stations
// @Tags Transit
// @Produce json
// @Param from query string true "Origin station"
// @Param to query string true "Destination station"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Router /transit/routes/suggestions [get]
func (h *TransitHandler) GetRouteSuggestions(c *fiber.Ctx) error {
	from := c.Query("from")
	to := c.Query("to")
	if from == "" || to == "" {
		return response.BadRequest(c, "Both from and to stations are required")
	}

	options, err := h.routeService.GetRouteSuggestions(c.Context(), from, to)
	if err != nil {
		return response.InternalServerError(c, "Failed to get route suggestions")
	}

	return response.Success(c, "Route suggestions retrieved successfully", fiber.Map{
		"options": options,
	})
}

// GetCrowdData returns live crowd readings
// @Summary Get crowd data
// @Description Get live occupancy readings, optionally filtered by line
// @Tags Transit
// @Produce json
// @Param line query string false "Line name"
// @Success 200 {object} response.Response
// @Router /transit/crowd [get]
func (h *TransitHandler) GetCrowdData(c *fiber.Ctx) error {
	data, err := h.crowdService.GetCrowdData(c.Context(), c.Query("line"))
	if err != nil {
		return response.InternalServerError(c, "Failed to get crowd data")
	}

	return response.Success(c, "Crowd data retrieved successfully", fiber.Map{
		"crowd_data": data,
	})
}

// GetTrainCrowd returns per-coach readings for one train
// @Summary Get train crowd
// @Description Get per-coach occupancy for one train
// @Tags Transit
// @Produce json
// @Param train_number path string true "Train number"
// @Success 200 {object} response.Response
// @Router /transit/crowd/trains/{train_number} [get]
func (h *TransitHandler) GetTrainCrowd(c *fiber.Ctx) error {
	data, err := h.crowdService.GetTrainCrowd(c.Context(), c.Params("train_number"))
	if err != nil {
		return response.InternalServerError(c, "Failed to get train crowd data")
	}

	return response.Success(c, "Train crowd data retrieved successfully", fiber.Map{
		"crowd_data": data,
	})
}

// GetActiveAlerts returns unexpired service alerts
// @Summary Get active alerts
// @Description Get unexpired service alerts, newest first
// @Tags Transit
// @Produce json
// @Success 200 {object} response.Response
// @Router /transit/alerts [get]
func (h *TransitHandler) GetActiveAlerts(c *fiber.Ctx) error {
	alerts, err := h.crowdService.GetActiveAlerts(c.Context())
	if err != nil {
		return response.InternalServerError(c, "Failed to get alerts")
	}

	return response.Success(c, "Alerts retrieved successfully", fiber.Map{
		"alerts": alerts,
	})
}
