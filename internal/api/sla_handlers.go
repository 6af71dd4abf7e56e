// Package api exposes the engine's HTTP surface: threshold configuration,
// manual evaluation runs and operational probes.
package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/vinothini1803/rsa-crm-master-service-sub003/internal/models"
	"github.com/vinothini1803/rsa-crm-master-service-sub003/internal/repository"
	"github.com/vinothini1803/rsa-crm-master-service-sub003/internal/services/scheduler"
	"github.com/vinothini1803/rsa-crm-master-service-sub003/internal/services/sla"
)

// Handlers bundles the collaborators the HTTP surface needs.
type Handlers struct {
	thresholds repository.ThresholdStore
	engine     *sla.Service
	scheduler  *scheduler.Service
}

// NewHandlers creates the handler set.
func NewHandlers(thresholds repository.ThresholdStore, engine *sla.Service, sched *scheduler.Service) *Handlers {
	return &Handlers{thresholds: thresholds, engine: engine, scheduler: sched}
}

// RegisterRoutes mounts all routes on the router.
func (h *Handlers) RegisterRoutes(r *gin.Engine, metricsEnabled bool, metricsPath string) {
	r.GET("/healthz", h.handleHealth)
	if metricsEnabled {
		if metricsPath == "" {
			metricsPath = "/metrics"
		}
		r.GET(metricsPath, gin.WrapH(promhttp.Handler()))
	}

	v1 := r.Group("/api/v1/sla")
	{
		v1.GET("/thresholds", h.handleListThresholds)
		v1.POST("/thresholds", h.handleUpsertThreshold)
		v1.POST("/evaluate", h.handleEvaluate)
		v1.GET("/runs/last", h.handleLastRun)
		v1.GET("/jobs", h.handleListJobs)
	}
}

func (h *Handlers) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// handleListThresholds handles GET /api/v1/sla/thresholds
func (h *Handlers) handleListThresholds(c *gin.Context) {
	thresholds, err := h.thresholds.ListThresholds(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch thresholds"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"thresholds": thresholds, "total": len(thresholds)})
}

type thresholdRequest struct {
	CaseTypeID     int64  `json:"case_type_id" binding:"required"`
	MilestoneType  int64  `json:"milestone_type_id" binding:"required"`
	LocationTypeID *int64 `json:"location_type_id"`
	TimeSeconds    int64  `json:"time" binding:"required,gt=0"`
}

// handleUpsertThreshold handles POST /api/v1/sla/thresholds
func (h *Handlers) handleUpsertThreshold(c *gin.Context) {
	var req thresholdRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	t := &models.SlaThreshold{
		CaseTypeID:     req.CaseTypeID,
		MilestoneType:  models.MilestoneType(req.MilestoneType),
		LocationTypeID: req.LocationTypeID,
		TimeSeconds:    req.TimeSeconds,
	}
	if err := h.thresholds.UpsertThreshold(c.Request.Context(), t); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to save threshold"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"threshold": t})
}

// handleEvaluate handles POST /api/v1/sla/evaluate - a synchronous run.
func (h *Handlers) handleEvaluate(c *gin.Context) {
	report, err := h.engine.Run(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, report)
}

// handleLastRun handles GET /api/v1/sla/runs/last
func (h *Handlers) handleLastRun(c *gin.Context) {
	report := h.engine.LastReport()
	if report == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "No run recorded yet"})
		return
	}
	c.JSON(http.StatusOK, report)
}

// handleListJobs handles GET /api/v1/sla/jobs
func (h *Handlers) handleListJobs(c *gin.Context) {
	if h.scheduler == nil {
		c.JSON(http.StatusOK, gin.H{"jobs": []scheduler.Job{}})
		return
	}
	c.JSON(http.StatusOK, gin.H{"jobs": h.scheduler.Jobs()})
}
