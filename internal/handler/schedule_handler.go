package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/daveytran/roundscheduler-sub000/internal/dto"
	"github.com/daveytran/roundscheduler-sub000/internal/service"
	appErrors "github.com/daveytran/roundscheduler-sub000/pkg/errors"
	"github.com/daveytran/roundscheduler-sub000/pkg/response"
)

// ScheduleHandler manages schedule version endpoints.
type ScheduleHandler struct {
	service *service.ScheduleService
}

// NewScheduleHandler creates a schedule handler.
func NewScheduleHandler(svc *service.ScheduleService) *ScheduleHandler {
	return &ScheduleHandler{service: svc}
}

// List godoc
// @Summary List schedule versions for a tournament
// @Tags Schedules
// @Produce json
// @Param tournamentId query string true "Tournament ID"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /schedules [get]
func (h *ScheduleHandler) List(c *gin.Context) {
	tournamentID := c.Query("tournamentId")
	if tournamentID == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "tournamentId required"))
		return
	}
	schedules, err := h.service.List(c.Request.Context(), tournamentID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, schedules, nil)
}

// Get godoc
// @Summary Get a schedule version with its fixtures and violations
// @Tags Schedules
// @Produce json
// @Param id path string true "Schedule ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /schedules/{id} [get]
func (h *ScheduleHandler) Get(c *gin.Context) {
	schedule, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, schedule, nil)
}

// Evaluate godoc
// @Summary Re-evaluate a schedule against a rule configuration
// @Description Scores the stored schedule without persisting the result
// @Tags Schedules
// @Accept json
// @Produce json
// @Param id path string true "Schedule ID"
// @Param payload body []dto.RuleConfigRequest false "Rule configuration"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /schedules/{id}/evaluate [post]
func (h *ScheduleHandler) Evaluate(c *gin.Context) {
	var configs []dto.RuleConfigRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&configs); err != nil {
			response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid rule configuration"))
			return
		}
	}

	result, err := h.service.Evaluate(c.Request.Context(), c.Param("id"), configs)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// Publish godoc
// @Summary Publish a schedule version
// @Description Marks the version published and archives any previously published version
// @Tags Schedules
// @Produce json
// @Param id path string true "Schedule ID"
// @Success 204 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /schedules/{id}/publish [post]
func (h *ScheduleHandler) Publish(c *gin.Context) {
	if err := h.service.Publish(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// Delete godoc
// @Summary Delete a schedule version
// @Tags Schedules
// @Produce json
// @Param id path string true "Schedule ID"
// @Success 204 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /schedules/{id} [delete]
func (h *ScheduleHandler) Delete(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
