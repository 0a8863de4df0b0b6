package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"chart-stream/src/generators"
	"chart-stream/src/interfaces"
	"chart-stream/src/logger"
	"chart-stream/src/models"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const shutdownTimeout = 5 * time.Second

// -----------------------------------------------------------------------------
// ChartServer
// -----------------------------------------------------------------------------

// ChartServer serves the WebSocket chart protocol plus a small REST surface.
type ChartServer struct {
	Config   *models.MConfig
	Logger   *logger.Logger
	Registry *generators.Registry
	Data     interfaces.IDatasetSource

	engine   *gin.Engine
	upgrader websocket.Upgrader
	hub      *Hub
	ctx      context.Context
	cancel   context.CancelFunc
}

// -----------------------------------------------------------------------------
// Constructor
// -----------------------------------------------------------------------------

func NewChartServer(cfg *models.MConfig, registry *generators.Registry, data interfaces.IDatasetSource, log *logger.Logger) *ChartServer {
	if cfg.LogLevel != "DEBUG" {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, cancel := context.WithCancel(context.Background())
	s := &ChartServer{
		Config:   cfg,
		Logger:   log,
		Registry: registry,
		Data:     data,
		engine:   gin.New(),
		upgrader: newUpgrader(cfg.AllowedOrigins),
		hub:      NewHub(log.Named("hub")),
		ctx:      ctx,
		cancel:   cancel,
	}

	s.engine.Use(gin.Recovery())
	s.engine.Use(cors.New(corsConfig(cfg.AllowedOrigins)))

	s.setupRoutes()
	return s
}

// -----------------------------------------------------------------------------

func corsConfig(origins []string) cors.Config {
	c := cors.DefaultConfig()
	if len(origins) == 0 {
		c.AllowAllOrigins = true
	} else {
		c.AllowOrigins = origins
		c.AllowCredentials = true
	}
	c.AllowMethods = []string{http.MethodGet, http.MethodOptions}
	return c
}

// -----------------------------------------------------------------------------
// Route Setup
// -----------------------------------------------------------------------------

func (s *ChartServer) setupRoutes() {
	s.engine.GET("/api/health", s.getHealth)
	s.engine.GET("/api/config", s.getConfig)
	s.engine.GET("/api/series/:type", s.getSeries)
	s.engine.GET("/metrics", gin.WrapH(promhttp.Handler()))

	s.engine.GET("/ws", s.handleWebSocket)
}

// Handler exposes the router, e.g. for httptest.
func (s *ChartServer) Handler() http.Handler {
	return s.engine
}

// -----------------------------------------------------------------------------
// Server Lifecycle
// -----------------------------------------------------------------------------

// Run serves on host:port until ctx is cancelled, then closes every session.
func (s *ChartServer) Run(ctx context.Context) error {
	addr := fmt.Sprintf("%s:%d", s.Config.Host, s.Config.Port)
	lis, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", addr, err)
	}
	return s.Serve(ctx, lis)
}

// Serve serves on an existing listener until ctx is cancelled.
func (s *ChartServer) Serve(ctx context.Context, lis net.Listener) error {
	srv := &http.Server{Handler: s.engine, ReadHeaderTimeout: 10 * time.Second}
	s.Logger.Info("Starting server on %s", lis.Addr())

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Serve(lis) }()

	select {
	case err := <-errCh:
		s.Stop()
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	err := srv.Shutdown(shutdownCtx)
	s.Stop()

	if serveErr := <-errCh; serveErr != nil && !errors.Is(serveErr, http.ErrServerClosed) {
		return serveErr
	}
	return err
}

// Stop closes every live session. Hijacked WebSocket connections are not
// covered by http.Server.Shutdown.
func (s *ChartServer) Stop() {
	s.cancel()
	s.hub.CloseAll()
}

// -----------------------------------------------------------------------------
// Route Handlers
// -----------------------------------------------------------------------------

func (s *ChartServer) getHealth(c *gin.Context) {
	ds := s.Data.Snapshot()
	var latest int64
	if !ds.LoadedAt.IsZero() {
		latest = ds.LoadedAt.Unix()
	}
	c.JSON(http.StatusOK, gin.H{
		"status":             "ok",
		"connections":        s.hub.Count(),
		"dataset_generation": ds.Generation,
		"latest_update":      latest,
		"records": gin.H{
			models.KindTimeValue.String(): ds.Len(models.KindTimeValue),
			models.KindOhlc.String():      ds.Len(models.KindOhlc),
		},
	})
}

// -----------------------------------------------------------------------------

func (s *ChartServer) getConfig(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"series_types":             s.Registry.Names(),
		"refresh_interval_seconds": s.Config.Session.RefreshIntervalSeconds,
	})
}

// -----------------------------------------------------------------------------

// getSeries renders one series on demand, with the same envelope as appendData.
func (s *ChartServer) getSeries(c *gin.Context) {
	gen, ok := s.Registry.Resolve(c.Param("type"))
	if !ok {
		writeEnvelope(c, http.StatusNotFound, unknownSeriesEnvelope(c.Param("type")))
		return
	}

	from, err := queryFromIndex(c)
	if err != nil {
		writeEnvelope(c, http.StatusBadRequest, errorEnvelope(err))
		return
	}

	payload, err := renderSeries(gen, s.Data.Snapshot(), from)
	if err != nil {
		s.Logger.Error("Failed to encode series %s: %v", gen.Name(), err)
		c.Status(http.StatusInternalServerError)
		return
	}
	writeEnvelope(c, http.StatusOK, payload)
}
