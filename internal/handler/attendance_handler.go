package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/studiofit/gymgrid-api/internal/service"
	appErrors "github.com/studiofit/gymgrid-api/pkg/errors"
	"github.com/studiofit/gymgrid-api/pkg/response"
)

// AttendanceHandler exposes the presence toggle protocol.
type AttendanceHandler struct {
	service *service.AttendanceService
}

// NewAttendanceHandler constructs the handler.
func NewAttendanceHandler(svc *service.AttendanceService) *AttendanceHandler {
	return &AttendanceHandler{service: svc}
}

// TogglePresenceRequest names the student a toggle applies to.
type TogglePresenceRequest struct {
	StudentID string `json:"student_id" binding:"required"`
}

// Occurrence godoc
// @Summary Get the merged view of one occurrence
// @Tags Attendance
// @Produce json
// @Param instanceId path string true "Occurrence ID (templateId_YYYY-MM-DD)"
// @Success 200 {object} response.Envelope
// @Router /attendance/{instanceId} [get]
func (h *AttendanceHandler) Occurrence(c *gin.Context) {
	view, err := h.service.Occurrence(c.Request.Context(), c.Param("instanceId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, view, nil)
}

// MarkPresent godoc
// @Summary Mark a student present for one occurrence
// @Tags Attendance
// @Accept json
// @Produce json
// @Param instanceId path string true "Occurrence ID (templateId_YYYY-MM-DD)"
// @Param payload body TogglePresenceRequest true "Student"
// @Success 200 {object} response.Envelope
// @Router /attendance/{instanceId}/present [post]
func (h *AttendanceHandler) MarkPresent(c *gin.Context) {
	var req TogglePresenceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	record, err := h.service.MarkPresent(c.Request.Context(), c.Param("instanceId"), req.StudentID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, record, nil)
}

// MarkAbsent godoc
// @Summary Mark a student absent for one occurrence
// @Tags Attendance
// @Accept json
// @Produce json
// @Param instanceId path string true "Occurrence ID (templateId_YYYY-MM-DD)"
// @Param payload body TogglePresenceRequest true "Student"
// @Success 200 {object} response.Envelope
// @Router /attendance/{instanceId}/absent [post]
func (h *AttendanceHandler) MarkAbsent(c *gin.Context) {
	var req TogglePresenceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	record, err := h.service.MarkAbsent(c.Request.Context(), c.Param("instanceId"), req.StudentID)
	if err != nil {
		response.Error(c, err)
		return
	}
	if record == nil {
		// No record existed: absence on an untouched occurrence is a no-op.
		response.NoContent(c)
		return
	}
	response.JSON(c, http.StatusOK, record, nil)
}
