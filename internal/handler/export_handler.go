package handler

import (
	"fmt"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/daveytran/roundscheduler-sub000/internal/models"
	"github.com/daveytran/roundscheduler-sub000/internal/service"
	appErrors "github.com/daveytran/roundscheduler-sub000/pkg/errors"
	"github.com/daveytran/roundscheduler-sub000/pkg/response"
)

// ExportHandler renders schedules into downloadable files.
type ExportHandler struct {
	service *service.ExportService
}

// NewExportHandler constructs handler.
func NewExportHandler(svc *service.ExportService) *ExportHandler {
	return &ExportHandler{service: svc}
}

type exportRequest struct {
	Format models.ExportFormat `json:"format" binding:"required,oneof=csv pdf"`
	Report string              `json:"report" binding:"omitempty,oneof=fixtures violations"`
}

// Create godoc
// @Summary Export a schedule
// @Description Renders the schedule as CSV or PDF and returns a signed download URL
// @Tags Exports
// @Accept json
// @Produce json
// @Param id path string true "Schedule ID"
// @Param payload body exportRequest true "Export options"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /schedules/{id}/export [post]
func (h *ExportHandler) Create(c *gin.Context) {
	var req exportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid export payload"))
		return
	}

	var result *service.ExportResult
	var err error
	if req.Report == "violations" {
		result, err = h.service.GenerateViolations(c.Request.Context(), c.Param("id"), req.Format)
	} else {
		result, err = h.service.Generate(c.Request.Context(), c.Param("id"), req.Format)
	}
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, gin.H{
		"url":        result.URL,
		"format":     result.Format,
		"expires_at": result.ExpiresAt,
	})
}

// Download godoc
// @Summary Download an exported file via signed token
// @Tags Exports
// @Produce octet-stream
// @Param token path string true "Signed token"
// @Success 200 {file} binary
// @Failure 401 {object} response.Envelope
// @Router /export/{token} [get]
func (h *ExportHandler) Download(c *gin.Context) {
	token := strings.TrimSpace(c.Param("token"))
	if token == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "token is required"))
		return
	}

	_, relPath, _, err := h.service.ParseToken(token, false)
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrUnauthorized.Code, appErrors.ErrUnauthorized.Status, "invalid or expired token"))
		return
	}

	file, err := h.service.Open(relPath)
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrNotFound, "export file not found"))
		return
	}
	defer file.Close() //nolint:errcheck

	info, err := file.Stat()
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to stat export file"))
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filepath.Base(relPath)))
	c.Header("Cache-Control", "no-store")
	c.DataFromReader(http.StatusOK, info.Size(), exportMimeType(relPath), file, nil)
}

func exportMimeType(relPath string) string {
	switch strings.ToLower(filepath.Ext(relPath)) {
	case ".csv":
		return "text/csv"
	case ".pdf":
		return "application/pdf"
	default:
		return "application/octet-stream"
	}
}
