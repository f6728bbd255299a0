package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"tripreco/internal/api/handlers"
	"tripreco/internal/api/middleware"
	"tripreco/internal/repository"
)

type Router struct {
	itineraryHandler *handlers.ItineraryHandler
	activityHandler  *handlers.ActivityHandler
	placeHandler     *handlers.PlaceHandler
	sessionHandler   *handlers.SessionHandler
	sessions         repository.SessionRepository
	sessionHeader    string
}

func NewRouter(
	itineraryHandler *handlers.ItineraryHandler,
	activityHandler *handlers.ActivityHandler,
	placeHandler *handlers.PlaceHandler,
	sessionHandler *handlers.SessionHandler,
	sessions repository.SessionRepository,
	sessionHeader string,
) *Router {
	return &Router{
		itineraryHandler: itineraryHandler,
		activityHandler:  activityHandler,
		placeHandler:     placeHandler,
		sessionHandler:   sessionHandler,
		sessions:         sessions,
		sessionHeader:    sessionHeader,
	}
}

func (r *Router) Setup(engine *gin.Engine) {
	engine.Use(middleware.Observe())

	// Health check endpoint
	engine.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	engine.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// Stateless lookups
	engine.POST("/cluster", r.itineraryHandler.AssignCluster)
	engine.GET("/inputs/last", r.itineraryHandler.LastInputs)
	engine.GET("/options", r.itineraryHandler.Options)
	engine.GET("/lodging", r.placeHandler.Lodging)
	engine.GET("/transport", r.placeHandler.Transport)

	activities := engine.Group("/activities")
	{
		activities.GET("/first", r.activityHandler.First)
		activities.GET("/second", r.activityHandler.Second)
		activities.GET("/region", r.activityHandler.Region)
	}

	// Session-scoped routes: restaurant recommendations never repeat within
	// a session.
	scoped := engine.Group("/")
	scoped.Use(middleware.Session(r.sessionHeader, r.sessions))
	{
		scoped.POST("/itinerary", r.itineraryHandler.Plan)
		scoped.GET("/food", r.placeHandler.Food)
		scoped.GET("/session", r.sessionHandler.Get)
		scoped.DELETE("/session", r.sessionHandler.Reset)
	}
}
