package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/daveytran/roundscheduler-sub000/internal/dto"
	appErrors "github.com/daveytran/roundscheduler-sub000/pkg/errors"
	"github.com/daveytran/roundscheduler-sub000/pkg/response"
)

type optimizeJobService interface {
	CreateJob(ctx context.Context, req dto.OptimizeRequest, actorID string) (*dto.OptimizeJobResponse, error)
	GetJob(ctx context.Context, id string) (*dto.OptimizeJobStatusResponse, error)
	CancelJob(ctx context.Context, id string) error
}

// OptimizeHandler exposes asynchronous optimization job endpoints.
type OptimizeHandler struct {
	service optimizeJobService
}

// NewOptimizeHandler constructs handler.
func NewOptimizeHandler(svc optimizeJobService) *OptimizeHandler {
	return &OptimizeHandler{service: svc}
}

// Create godoc
// @Summary Start an optimization job
// @Description Queues a background search that improves a schedule version
// @Tags Optimization
// @Accept json
// @Produce json
// @Param payload body dto.OptimizeRequest true "Optimization request"
// @Success 202 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /optimize [post]
func (h *OptimizeHandler) Create(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var req dto.OptimizeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid optimize payload"))
		return
	}

	job, err := h.service.CreateJob(c.Request.Context(), req, claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusAccepted, job, nil)
}

// Status godoc
// @Summary Get optimization job status
// @Description Returns the latest progress snapshot of a job
// @Tags Optimization
// @Produce json
// @Param id path string true "Job ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /optimize/{id} [get]
func (h *OptimizeHandler) Status(c *gin.Context) {
	job, err := h.service.GetJob(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, job, nil)
}

// Cancel godoc
// @Summary Cancel an optimization job
// @Description Stops a running job, keeping the best schedule found so far
// @Tags Optimization
// @Produce json
// @Param id path string true "Job ID"
// @Success 204 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /optimize/{id} [delete]
func (h *OptimizeHandler) Cancel(c *gin.Context) {
	if err := h.service.CancelJob(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
