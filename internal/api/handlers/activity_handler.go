package handlers

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"tripreco/internal/config"
	"tripreco/internal/domain/entities"
	"tripreco/internal/services"
)

type ActivityHandler struct {
	activityService *services.ActivityService
	cfg             config.RecommendConfig
}

func NewActivityHandler(activityService *services.ActivityService, cfg config.RecommendConfig) *ActivityHandler {
	return &ActivityHandler{
		activityService: activityService,
		cfg:             cfg,
	}
}

type RankFirstQuery struct {
	Cluster *int    `form:"cluster" binding:"required"`
	Lat     float64 `form:"lat" binding:"required"`
	Lon     float64 `form:"lon" binding:"required"`
	Top     int     `form:"top"`
}

// First handles GET /activities/first
func (h *ActivityHandler) First(c *gin.Context) {
	var q RankFirstQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if q.Top <= 0 {
		q.Top = h.cfg.FirstTopN
	}

	places, err := h.activityService.RankFirst(c.Request.Context(), *q.Cluster, q.Lat, q.Lon, q.Top)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"places": nonNil(places)})
}

type RankSecondQuery struct {
	Cluster *int     `form:"cluster" binding:"required"`
	Lat     float64  `form:"lat" binding:"required"`
	Lon     float64  `form:"lon" binding:"required"`
	Radius  float64  `form:"radius"`
	Top     int      `form:"top"`
	Exclude []string `form:"exclude"` // "x,y"
}

// Second handles GET /activities/second
func (h *ActivityHandler) Second(c *gin.Context) {
	var q RankSecondQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if q.Radius <= 0 {
		q.Radius = h.cfg.SecondRadiusKm
	}
	if q.Top <= 0 {
		q.Top = h.cfg.SecondTopN
	}
	exclude, err := parseCoords(q.Exclude)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	places, err := h.activityService.RankSecond(c.Request.Context(), *q.Cluster, q.Lat, q.Lon, q.Radius, q.Top, exclude)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"places": nonNil(places)})
}

type RankRegionQuery struct {
	Cluster *int `form:"cluster" binding:"required"`
	services.RegionQuery
	Top int `form:"top"`
}

// Region handles GET /activities/region
func (h *ActivityHandler) Region(c *gin.Context) {
	var q RankRegionQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if q.Top <= 0 {
		q.Top = h.cfg.FirstTopN
	}

	places, err := h.activityService.RankByRegion(c.Request.Context(), *q.Cluster, q.RegionQuery, q.Top)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"places": nonNil(places)})
}

func parseCoords(values []string) ([]entities.Coord, error) {
	coords := make([]entities.Coord, 0, len(values))
	for _, v := range values {
		parts := strings.Split(v, ",")
		if len(parts) != 2 {
			return nil, fmt.Errorf("invalid coordinate %q, want x,y", v)
		}
		x, err := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
		if err != nil {
			return nil, fmt.Errorf("invalid coordinate %q: %w", v, err)
		}
		y, err := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
		if err != nil {
			return nil, fmt.Errorf("invalid coordinate %q: %w", v, err)
		}
		coords = append(coords, entities.Coord{X: x, Y: y})
	}
	return coords, nil
}

// nonNil keeps empty results rendering as [] instead of null.
func nonNil(places []entities.ScoredPlace) []entities.ScoredPlace {
	if places == nil {
		return []entities.ScoredPlace{}
	}
	return places
}
