package api

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"time"

	"pv-sizer/config"
	"pv-sizer/internal/export"
	"pv-sizer/internal/monitor"
	"pv-sizer/internal/mqtt"
	"pv-sizer/internal/sizing"
	"pv-sizer/internal/storage"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type Server struct {
	router    *gin.Engine
	server    *http.Server
	db        *storage.Database
	publisher *mqtt.Publisher
	monitor   *monitor.Monitor
	engine    config.EngineConfig
	port      int
}

type ServerConfig struct {
	Port      int
	Database  *storage.Database
	Publisher *mqtt.Publisher
	Monitor   *monitor.Monitor
	Engine    config.EngineConfig
}

func NewServer(cfg ServerConfig) *Server {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(gin.Logger())

	s := &Server{
		router:    router,
		db:        cfg.Database,
		publisher: cfg.Publisher,
		monitor:   cfg.Monitor,
		engine:    cfg.Engine,
		port:      cfg.Port,
	}

	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	s.router.GET("/health", s.healthHandler)

	api := s.router.Group("/api/v1")
	{
		api.POST("/report", s.reportHandler)
		api.POST("/report/export", s.exportHandler)
		api.GET("/presets", s.presetsHandler)
		api.GET("/reports", s.reportsHandler)
		api.GET("/reports/latest", s.latestReportHandler)
		api.GET("/reports/:id", s.reportByIDHandler)
		api.GET("/stats", s.statsHandler)
		api.GET("/live", s.liveHandler)
	}
}

func (s *Server) Start() error {
	s.server = &http.Server{
		Addr:    fmt.Sprintf(":%d", s.port),
		Handler: s.router,
	}

	zap.S().Infof("API server starting on port %d", s.port)
	return s.server.ListenAndServe()
}

func (s *Server) Stop(ctx context.Context) error {
	if s.server != nil {
		return s.server.Shutdown(ctx)
	}
	return nil
}

// Router exposes the handler for tests.
func (s *Server) Router() http.Handler {
	return s.router
}

func (s *Server) healthHandler(c *gin.Context) {
	h := gin.H{
		"status":    "healthy",
		"timestamp": time.Now(),
	}
	if s.monitor != nil {
		h["monitoring"] = s.monitor.IsRunning()
		if data := s.monitor.Latest(); data != nil {
			h["inverter_online"] = data.IsOnline
		}
	}
	c.JSON(http.StatusOK, h)
}

// applyDefaults fills request fields left unset with the configured
// site assumptions, so deployments can carry their own climate
// figures without every client repeating them.
func (s *Server) applyDefaults(req *sizing.Request) {
	if req.HSP == 0 {
		req.HSP = s.engine.HSP
	}
	if req.PR == 0 {
		req.PR = s.engine.PR
	}
	if req.TAmbMin == 0 {
		req.TAmbMin = s.engine.TAmbMin
	}
	if req.TCellHot == 0 {
		req.TCellHot = s.engine.TCellHot
	}
	if req.Days == 0 {
		req.Days = s.engine.Days
	}
	if req.DCACTarget == 0 {
		req.DCACTarget = s.engine.DCACTarget
	}
	if req.Policy == nil {
		pol := s.engine.Policy
		req.Policy = &pol
	}
}

func (s *Server) compute(c *gin.Context) (*sizing.Report, bool) {
	var req sizing.Request
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body: " + err.Error()})
		return nil, false
	}

	s.applyDefaults(&req)

	rep, err := sizing.ComputeReport(req)
	if err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		return nil, false
	}
	return rep, true
}

func (s *Server) reportHandler(c *gin.Context) {
	rep, ok := s.compute(c)
	if !ok {
		return
	}

	if s.db != nil {
		if _, err := s.db.SaveReport(rep); err != nil {
			zap.S().Warnf("Failed to save report: %v", err)
		}
	}

	if s.publisher != nil {
		if err := s.publisher.PublishReport(rep); err != nil {
			zap.S().Warnf("Failed to publish report: %v", err)
		}
	}

	c.JSON(http.StatusOK, rep)
}

func (s *Server) exportHandler(c *gin.Context) {
	rep, ok := s.compute(c)
	if !ok {
		return
	}

	format := c.DefaultQuery("format", "csv")
	var buf bytes.Buffer

	switch format {
	case "csv":
		if err := export.WriteCSV(&buf, rep); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.Header("Content-Disposition", `attachment; filename="sizing_report.csv"`)
		c.Data(http.StatusOK, "text/csv", buf.Bytes())
	case "json":
		if err := export.WriteJSON(&buf, rep); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.Header("Content-Disposition", `attachment; filename="sizing_report.json"`)
		c.Data(http.StatusOK, "application/json", buf.Bytes())
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown format: " + format})
	}
}

func (s *Server) presetsHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"inverters": sizing.PresetInverters,
		"modules":   sizing.PresetModules,
	})
}

func (s *Server) reportsHandler(c *gin.Context) {
	fromStr := c.Query("from")
	toStr := c.Query("to")
	limitStr := c.DefaultQuery("limit", "100")

	var limit int
	fmt.Sscanf(limitStr, "%d", &limit)
	if limit <= 0 || limit > 1000 {
		limit = 100
	}

	if fromStr != "" && toStr != "" {
		from, err := time.Parse(time.RFC3339, fromStr)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid 'from' date format"})
			return
		}
		to, err := time.Parse(time.RFC3339, toStr)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid 'to' date format"})
			return
		}

		records, err := s.db.GetRecordsByRange(from, to)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, records)
		return
	}

	records, err := s.db.GetRecordsWithLimit(limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, records)
}

func (s *Server) latestReportHandler(c *gin.Context) {
	record, err := s.db.GetLatestRecord()
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, record)
}

func (s *Server) reportByIDHandler(c *gin.Context) {
	var id uint
	if _, err := fmt.Sscanf(c.Param("id"), "%d", &id); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}

	rep, err := s.db.GetReport(id)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, rep)
}

func (s *Server) statsHandler(c *gin.Context) {
	stats, err := s.db.GetStats()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, stats)
}

func (s *Server) liveHandler(c *gin.Context) {
	if s.monitor == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "monitoring is not enabled"})
		return
	}
	data := s.monitor.Latest()
	if data == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "no data available yet"})
		return
	}
	c.JSON(http.StatusOK, data)
}
