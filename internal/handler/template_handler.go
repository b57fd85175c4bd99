package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/studiofit/gymgrid-api/internal/models"
	"github.com/studiofit/gymgrid-api/internal/service"
	appErrors "github.com/studiofit/gymgrid-api/pkg/errors"
	"github.com/studiofit/gymgrid-api/pkg/response"
)

// TemplateHandler manages recurring class template endpoints.
type TemplateHandler struct {
	service *service.TemplateService
}

// NewTemplateHandler constructs the handler.
func NewTemplateHandler(svc *service.TemplateService) *TemplateHandler {
	return &TemplateHandler{service: svc}
}

// List godoc
// @Summary List class templates
// @Tags Templates
// @Produce json
// @Param unitId query string false "Filter by unit"
// @Param teacherId query string false "Filter by teacher"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /class-templates [get]
func (h *TemplateHandler) List(c *gin.Context) {
	var filter models.TemplateFilter
	filter.UnitID = c.Query("unitId")
	filter.TeacherID = c.Query("teacherId")
	if page, err := strconv.Atoi(c.DefaultQuery("page", "1")); err == nil {
		filter.Page = page
	}
	if limit, err := strconv.Atoi(c.DefaultQuery("limit", "50")); err == nil {
		filter.PageSize = limit
	}
	filter.SortBy = c.Query("sort")
	filter.SortOrder = c.Query("order")

	templates, pagination, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, templates, pagination)
}

// Get godoc
// @Summary Get a class template
// @Tags Templates
// @Produce json
// @Param id path string true "Template ID"
// @Success 200 {object} response.Envelope
// @Router /class-templates/{id} [get]
func (h *TemplateHandler) Get(c *gin.Context) {
	tmpl, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, tmpl, nil)
}

// Create godoc
// @Summary Create class template
// @Tags Templates
// @Accept json
// @Produce json
// @Param payload body service.CreateTemplateRequest true "Template payload"
// @Success 201 {object} response.Envelope
// @Router /class-templates [post]
func (h *TemplateHandler) Create(c *gin.Context) {
	var req service.CreateTemplateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	tmpl, err := h.service.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, tmpl)
}

// Update godoc
// @Summary Update class template
// @Tags Templates
// @Accept json
// @Produce json
// @Param id path string true "Template ID"
// @Param payload body service.UpdateTemplateRequest true "Template payload"
// @Success 200 {object} response.Envelope
// @Router /class-templates/{id} [put]
func (h *TemplateHandler) Update(c *gin.Context) {
	var req service.UpdateTemplateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	tmpl, err := h.service.Update(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, tmpl, nil)
}

// Delete godoc
// @Summary Delete class template
// @Tags Templates
// @Produce json
// @Param id path string true "Template ID"
// @Success 204
// @Router /class-templates/{id} [delete]
func (h *TemplateHandler) Delete(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
