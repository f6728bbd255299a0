package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"tripreco/internal/cluster"
	"tripreco/internal/repository"
	"tripreco/internal/services"
)

// respondError maps service errors to HTTP statuses. Anything unrecognized
// is a server error.
func respondError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, services.ErrInvalidNights),
		errors.Is(err, services.ErrMissingField),
		errors.Is(err, services.ErrInvalidChoice),
		errors.Is(err, services.ErrSidoRequired):
		status = http.StatusBadRequest
	case errors.Is(err, services.ErrLocationUnknown):
		status = http.StatusUnprocessableEntity
	case errors.Is(err, services.ErrRegionUnknown),
		errors.Is(err, services.ErrNoFoodCandidates),
		errors.Is(err, repository.ErrNoInputs):
		status = http.StatusNotFound
	case errors.Is(err, services.ErrPlanInProgress):
		status = http.StatusConflict
	case errors.Is(err, cluster.ErrModelUnavailable):
		status = http.StatusServiceUnavailable
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

// respondEmpty answers a single-result query that found nothing.
func respondEmpty(c *gin.Context) {
	c.JSON(http.StatusNotFound, gin.H{"error": services.NoRecommendation})
}
