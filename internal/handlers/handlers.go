// Package handlers implements the serve-mode HTTP handlers. Handlers stay
// thin: parse, delegate to a service, map models to api/v1 shapes.
package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/sanops/asbuilt/internal/services"
	"github.com/sanops/asbuilt/internal/store"
)

type Handler struct {
	collector *services.Collector
	store     *store.Store
}

func New(collector *services.Collector, st *store.Store) *Handler {
	return &Handler{
		collector: collector,
		store:     st,
	}
}

// Register wires every route under the given group.
func (h *Handler) Register(group *gin.RouterGroup) {
	group.GET("/status", h.GetStatus)
	group.GET("/runs", h.GetRuns)
	group.GET("/runs/:id/inventory", h.GetRunInventory)
	group.POST("/collect", h.StartCollection)
}
