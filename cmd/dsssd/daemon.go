package main

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/dougsko/dsss/pkg/config"
	"github.com/dougsko/dsss/pkg/engine"
	"github.com/dougsko/dsss/pkg/logging"
)

// DSSSDaemon runs the core engine socket and the web API
type DSSSDaemon struct {
	config     *config.Config
	configPath string
	ctx        context.Context
	cancel     context.CancelFunc
	wg         sync.WaitGroup

	coreEngine *engine.CoreEngine
	router     *gin.Engine
	webServer  *http.Server
}

// NewDSSSDaemon creates a new daemon instance
func NewDSSSDaemon(cfg *config.Config, configPath string) (*DSSSDaemon, error) {
	ctx, cancel := context.WithCancel(context.Background())

	coreEngine, err := engine.NewCoreEngine(cfg, cfg.API.UnixSocket)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("failed to create core engine: %w", err)
	}

	daemon := &DSSSDaemon{
		config:     cfg,
		configPath: configPath,
		ctx:        ctx,
		cancel:     cancel,
		coreEngine: coreEngine,
	}
	daemon.setupWebServer()

	return daemon, nil
}

// Start starts the daemon
func (d *DSSSDaemon) Start() error {
	logging.Info("daemon", "Starting dsssd daemon...")

	if err := d.coreEngine.Start(); err != nil {
		return fmt.Errorf("failed to start core engine: %w", err)
	}

	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		logging.Infof("daemon", "Starting web server on %s", d.webServer.Addr)
		if err := d.webServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logging.Errorf("daemon", "Web server error: %v", err)
		}
	}()

	return nil
}

// Stop stops the daemon gracefully
func (d *DSSSDaemon) Stop() error {
	logging.Info("daemon", "Stopping daemon...")

	// Ends websocket streams
	d.cancel()

	if d.webServer != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := d.webServer.Shutdown(ctx); err != nil {
			logging.Warnf("daemon", "Web server shutdown error: %v", err)
		}
	}

	if err := d.coreEngine.Stop(); err != nil {
		logging.Warnf("daemon", "Core engine shutdown error: %v", err)
	}

	d.wg.Wait()

	logging.Info("daemon", "Daemon stopped")
	return nil
}

// setupWebServer initializes the router and HTTP server
func (d *DSSSDaemon) setupWebServer() {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery(), requestLogger())

	api := router.Group("/api/v1")
	{
		api.GET("/status", d.handleGetStatus)
		api.GET("/packet", d.handleGetPacket)
		api.PUT("/code", d.handleSetCode)
		api.PUT("/code/walsh", d.handleSetWalshCode)
		api.PUT("/message", d.handleSetMessage)
		api.POST("/transmission", d.handleTransmit)
		api.GET("/transmission", d.handleGetTransmission)
		api.GET("/spectrum", d.handleGetSpectrum)
		api.POST("/config/save", d.handleSaveConfig)
	}

	router.GET("/ws/waveform", d.handleWaveformWebSocket)

	d.router = router
	d.webServer = &http.Server{
		Addr:    fmt.Sprintf("%s:%d", d.config.Web.BindAddress, d.config.Web.Port),
		Handler: router,
	}
}

// requestLogger logs each request through the component logger
func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logging.Debug("web", "request", logging.Fields{
			"method":  c.Request.Method,
			"path":    c.Request.URL.Path,
			"status":  c.Writer.Status(),
			"latency": time.Since(start).String(),
		})
	}
}
