package handler

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/daveytran/roundscheduler-sub000/internal/dto"
	internalmiddleware "github.com/daveytran/roundscheduler-sub000/internal/middleware"
	"github.com/daveytran/roundscheduler-sub000/internal/models"
	appErrors "github.com/daveytran/roundscheduler-sub000/pkg/errors"
)

type optimizeServiceMock struct {
	captured  dto.OptimizeRequest
	actorID   string
	cancelErr error
}

func (m *optimizeServiceMock) CreateJob(ctx context.Context, req dto.OptimizeRequest, actorID string) (*dto.OptimizeJobResponse, error) {
	m.captured = req
	m.actorID = actorID
	return &dto.OptimizeJobResponse{ID: "job-1", Status: models.OptimizationJobStatusQueued, Strategy: req.Strategy}, nil
}

func (m *optimizeServiceMock) GetJob(ctx context.Context, id string) (*dto.OptimizeJobStatusResponse, error) {
	if id != "job-1" {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "job not found")
	}
	return &dto.OptimizeJobStatusResponse{ID: id, Status: models.OptimizationJobStatusRunning}, nil
}

func (m *optimizeServiceMock) CancelJob(ctx context.Context, id string) error {
	return m.cancelErr
}

func withClaims(c *gin.Context, role models.UserRole) {
	c.Set(internalmiddleware.ContextUserKey, &models.JWTClaims{UserID: "user-1", Role: role})
}

func TestOptimizeCreateAccepted(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mockSvc := &optimizeServiceMock{}
	handler := NewOptimizeHandler(mockSvc)

	payload := []byte(`{"scheduleId":"schedule-1","strategy":"annealing","iterations":500}`)
	req, _ := http.NewRequest(http.MethodPost, "/optimize", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = req
	withClaims(c, models.RoleOrganizer)

	handler.Create(c)

	require.Equal(t, http.StatusAccepted, w.Code)
	require.Equal(t, "schedule-1", mockSvc.captured.ScheduleID)
	require.Equal(t, "annealing", mockSvc.captured.Strategy)
	require.Equal(t, "user-1", mockSvc.actorID)
}

func TestOptimizeCreateMalformedPayload(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewOptimizeHandler(&optimizeServiceMock{})

	req, _ := http.NewRequest(http.MethodPost, "/optimize", bytes.NewReader([]byte(`{"scheduleId":`)))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = req
	withClaims(c, models.RoleOrganizer)

	handler.Create(c)

	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestOptimizeCreateUnauthorized(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewOptimizeHandler(&optimizeServiceMock{})
	router := gin.New()
	router.POST("/optimize", internalmiddleware.RequireRoles(models.RoleAdmin, models.RoleOrganizer), handler.Create)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodPost, "/optimize", bytes.NewReader([]byte(`{"scheduleId":"schedule-1"}`)))
	req.Header.Set("Content-Type", "application/json")

	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestOptimizeCreateForbiddenForViewer(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewOptimizeHandler(&optimizeServiceMock{})
	router := gin.New()
	router.POST("/optimize",
		func(c *gin.Context) { withClaims(c, models.RoleViewer) },
		internalmiddleware.RequireRoles(models.RoleAdmin, models.RoleOrganizer),
		handler.Create)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodPost, "/optimize", bytes.NewReader([]byte(`{"scheduleId":"schedule-1"}`)))
	req.Header.Set("Content-Type", "application/json")

	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusForbidden, w.Code)
}

func TestOptimizeStatusNotFound(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewOptimizeHandler(&optimizeServiceMock{})
	router := gin.New()
	router.GET("/optimize/:id", handler.Status)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/optimize/missing", nil)
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusNotFound, w.Code)
}

func TestOptimizeCancelConflict(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mockSvc := &optimizeServiceMock{cancelErr: appErrors.Clone(appErrors.ErrConflict, "job already finished")}
	handler := NewOptimizeHandler(mockSvc)
	router := gin.New()
	router.DELETE("/optimize/:id", handler.Cancel)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodDelete, "/optimize/job-1", nil)
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusConflict, w.Code)
}
