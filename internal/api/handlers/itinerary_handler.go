package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"tripreco/internal/api/middleware"
	"tripreco/internal/domain/entities"
	"tripreco/internal/services"
)

type ItineraryHandler struct {
	itineraryService *services.ItineraryService
	clusterService   *services.ClusterService
}

func NewItineraryHandler(itineraryService *services.ItineraryService, clusterService *services.ClusterService) *ItineraryHandler {
	return &ItineraryHandler{
		itineraryService: itineraryService,
		clusterService:   clusterService,
	}
}

// Plan handles POST /itinerary
func (h *ItineraryHandler) Plan(c *gin.Context) {
	var req services.PlanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	plan, err := h.itineraryService.Plan(c.Request.Context(), middleware.GetSession(c), req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, plan)
}

// LastInputs handles GET /inputs/last
func (h *ItineraryHandler) LastInputs(c *gin.Context) {
	inputs, err := h.itineraryService.LastInputs(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, inputs)
}

// AssignCluster handles POST /cluster. The profile is validated the same
// way a plan request is.
func (h *ItineraryHandler) AssignCluster(c *gin.Context) {
	var req services.Traveler
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	features, err := req.Features()
	if err != nil {
		respondError(c, err)
		return
	}

	id, err := h.clusterService.Predict(c.Request.Context(), features)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"cluster":  id,
		"features": features,
	})
}

// Options handles GET /options: the choices a plan form offers.
func (h *ItineraryHandler) Options(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"nights":     entities.NightsLabels(),
		"companions": entities.CompanionLabels(),
		"transports": entities.ShortTransportLabels,
		"purposes":   entities.PurposeChoices,
		"regions":    entities.RegionChoices,
	})
}
