package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/studiofit/gymgrid-api/internal/service"
	"github.com/studiofit/gymgrid-api/pkg/response"
)

// GridHandler serves the projected occurrence grid.
type GridHandler struct {
	service *service.GridService
}

// NewGridHandler constructs the handler.
func NewGridHandler(svc *service.GridService) *GridHandler {
	return &GridHandler{service: svc}
}

// Occurrences godoc
// @Summary Project class occurrences for a unit and date window
// @Tags Grid
// @Produce json
// @Param id path string true "Unit ID"
// @Param from query string true "Window start (YYYY-MM-DD)"
// @Param to query string true "Window end (YYYY-MM-DD)"
// @Success 200 {object} response.Envelope
// @Router /units/{id}/occurrences [get]
func (h *GridHandler) Occurrences(c *gin.Context) {
	req := service.OccurrenceWindowRequest{
		UnitID: c.Param("id"),
		From:   c.Query("from"),
		To:     c.Query("to"),
	}
	views, err := h.service.Occurrences(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, views, nil)
}
