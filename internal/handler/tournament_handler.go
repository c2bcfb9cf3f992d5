package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/daveytran/roundscheduler-sub000/internal/dto"
	"github.com/daveytran/roundscheduler-sub000/internal/service"
	appErrors "github.com/daveytran/roundscheduler-sub000/pkg/errors"
	"github.com/daveytran/roundscheduler-sub000/pkg/response"
)

// TournamentHandler exposes tournament import and lookup endpoints.
type TournamentHandler struct {
	service *service.TournamentService
}

// NewTournamentHandler constructs handler.
func NewTournamentHandler(svc *service.TournamentService) *TournamentHandler {
	return &TournamentHandler{service: svc}
}

// Import godoc
// @Summary Import a tournament
// @Description Import divisions, teams and the fixture list, creating the first schedule version
// @Tags Tournaments
// @Accept json
// @Produce json
// @Param payload body dto.ImportTournamentRequest true "Tournament payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /tournaments [post]
func (h *TournamentHandler) Import(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var req dto.ImportTournamentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid tournament payload"))
		return
	}

	res, err := h.service.Import(c.Request.Context(), req, claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, res)
}

// List godoc
// @Summary List tournaments
// @Tags Tournaments
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /tournaments [get]
func (h *TournamentHandler) List(c *gin.Context) {
	tournaments, err := h.service.List(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, tournaments, nil)
}

// Get godoc
// @Summary Get tournament detail
// @Tags Tournaments
// @Produce json
// @Param id path string true "Tournament ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /tournaments/{id} [get]
func (h *TournamentHandler) Get(c *gin.Context) {
	tournament, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, tournament, nil)
}

// Delete godoc
// @Summary Delete a tournament and its schedules
// @Tags Tournaments
// @Produce json
// @Param id path string true "Tournament ID"
// @Success 204 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /tournaments/{id} [delete]
func (h *TournamentHandler) Delete(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
