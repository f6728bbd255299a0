package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"tripreco/internal/api/middleware"
	"tripreco/internal/config"
	"tripreco/internal/domain/entities"
	"tripreco/internal/services"
)

// PlaceHandler serves the single-answer lookups: where to stay, where to eat
// and how to get there.
type PlaceHandler struct {
	lodgingService   *services.LodgingService
	foodService      *services.FoodService
	transportService *services.TransportService
	cfg              config.RecommendConfig
}

func NewPlaceHandler(
	lodgingService *services.LodgingService,
	foodService *services.FoodService,
	transportService *services.TransportService,
	cfg config.RecommendConfig,
) *PlaceHandler {
	return &PlaceHandler{
		lodgingService:   lodgingService,
		foodService:      foodService,
		transportService: transportService,
		cfg:              cfg,
	}
}

type LodgingQuery struct {
	X         float64 `form:"x" binding:"required"`
	Y         float64 `form:"y" binding:"required"`
	Boundary  float64 `form:"boundary"`
	Transport string  `form:"transport" binding:"required"`
	Companion string  `form:"companion" binding:"required"`
}

// Lodging handles GET /lodging
func (h *PlaceHandler) Lodging(c *gin.Context) {
	var q LodgingQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if q.Boundary <= 0 {
		q.Boundary = h.cfg.LodgingBoundaryKm
	}

	best, err := h.lodgingService.Rank(c.Request.Context(), q.X, q.Y, q.Boundary, q.Transport, q.Companion)
	if err != nil {
		respondError(c, err)
		return
	}
	if best == nil {
		respondEmpty(c)
		return
	}

	c.JSON(http.StatusOK, best)
}

type FoodQuery struct {
	X       float64 `form:"x" binding:"required"`
	Y       float64 `form:"y" binding:"required"`
	Cluster *int    `form:"cluster" binding:"required"`
}

// Food handles GET /food. Each call excludes what the session was already
// recommended.
func (h *PlaceHandler) Food(c *gin.Context) {
	var q FoodQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	place, err := h.foodService.Recommend(c.Request.Context(), middleware.GetSession(c), q.X, q.Y, *q.Cluster)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, place)
}

type TransportQuery struct {
	PrevX    float64 `form:"prev_x" binding:"required"`
	PrevY    float64 `form:"prev_y" binding:"required"`
	NextX    float64 `form:"next_x" binding:"required"`
	NextY    float64 `form:"next_y" binding:"required"`
	Boundary float64 `form:"boundary"`
	AvoidCar bool    `form:"avoid_car"`
}

// Transport handles GET /transport
func (h *PlaceHandler) Transport(c *gin.Context) {
	var q TransportQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if q.Boundary <= 0 {
		q.Boundary = h.cfg.TransportBoundaryKm
	}

	prev := entities.FromXY(q.PrevX, q.PrevY)
	next := entities.FromXY(q.NextX, q.NextY)
	resolve := h.transportService.Resolve
	if q.AvoidCar {
		resolve = h.transportService.ResolveAvoidingPrivateCar
	}

	result, err := resolve(c.Request.Context(), prev, next, q.Boundary)
	if err != nil {
		respondError(c, err)
		return
	}
	if result == nil {
		respondEmpty(c)
		return
	}

	c.JSON(http.StatusOK, result)
}
