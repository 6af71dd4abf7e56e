package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vinothini1803/rsa-crm-master-service-sub003/internal/models"
	"github.com/vinothini1803/rsa-crm-master-service-sub003/internal/notifications"
	"github.com/vinothini1803/rsa-crm-master-service-sub003/internal/repository"
	"github.com/vinothini1803/rsa-crm-master-service-sub003/internal/services/sla"
)

func newTestRouter(t *testing.T, cases ...*models.Case) (*gin.Engine, *repository.MemoryThresholdRepository) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	thresholds := repository.NewMemoryThresholdRepository(
		models.SlaThreshold{CaseTypeID: 1, MilestoneType: models.MilestoneAgentAssignment, TimeSeconds: 1800},
	)
	caseRepo := repository.NewMemoryCaseRepository(cases...)
	dealers := repository.NewMemoryDealerRepository()

	engine := sla.NewService(
		caseRepo, sla.NewResolver(thresholds, nil), dealers, dealers, caseRepo, caseRepo, caseRepo,
		notifications.NewMemorySender(),
		sla.Options{WarningWindow: 30 * time.Minute})

	router := gin.New()
	NewHandlers(thresholds, engine, nil).RegisterRoutes(router, false, "")
	return router, thresholds
}

func TestHealthz(t *testing.T) {
	router, _ := newTestRouter(t)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestListThresholds(t *testing.T) {
	router, _ := newTestRouter(t)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/sla/thresholds", nil))
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Thresholds []models.SlaThreshold `json:"thresholds"`
		Total      int                   `json:"total"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 1, resp.Total)
}

func TestUpsertThreshold(t *testing.T) {
	router, thresholds := newTestRouter(t)

	body, _ := json.Marshal(map[string]interface{}{
		"case_type_id":      1,
		"milestone_type_id": int64(models.MilestoneASPAssignment),
		"time":              2700,
	})
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/sla/thresholds", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	list, err := thresholds.ListThresholds(req.Context())
	require.NoError(t, err)
	assert.Len(t, list, 2)
}

func TestUpsertThresholdRejectsBadBody(t *testing.T) {
	router, _ := newTestRouter(t)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/sla/thresholds", bytes.NewBufferString(`{"time": -5}`))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestEvaluateAndLastRun(t *testing.T) {
	created := time.Now().Add(-time.Hour)
	router, _ := newTestRouter(t, &models.Case{
		ID: 1, CaseNumber: "RSA-1001", CaseTypeID: 1, CreatedAt: created,
	})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/v1/sla/evaluate", nil))
	require.Equal(t, http.StatusOK, w.Code)

	var report models.BatchReport
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &report))
	assert.Equal(t, 1, report.CasesTotal)

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/sla/runs/last", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestLastRunBeforeAnyRun(t *testing.T) {
	router, _ := newTestRouter(t)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/sla/runs/last", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}
