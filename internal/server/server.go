package server

import (
	"fmt"
	"log"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/fintelligent/auditor/config"
	"github.com/fintelligent/auditor/internal/ingest"
)

// Server exposes the audit engine over HTTP.
type Server struct {
	engine   Asker
	pipeline *ingest.Pipeline
	dataDir  string
	logger   *log.Logger
}

func New(engine Asker, pipeline *ingest.Pipeline, cfg config.IngestConfig, logger *log.Logger) *Server {
	if logger == nil {
		logger = log.New(log.Writer(), "[HTTP] ", log.LstdFlags)
	}
	return &Server{engine: engine, pipeline: pipeline, dataDir: cfg.DataDir, logger: logger}
}

// Run blocks serving HTTP on addr.
func (s *Server) Run(addr string) error {
	e := s.echo()
	s.logger.Printf("listening on %s", addr)
	return e.Start(addr)
}

// echo builds the configured echo instance with all routes registered.
func (s *Server) echo() *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.Recover())
	// Unified HTTP error handler with structured JSON and logging
	e.HTTPErrorHandler = func(err error, c echo.Context) {
		code := http.StatusInternalServerError
		msg := err.Error()
		if he, ok := err.(*echo.HTTPError); ok {
			code = he.Code
			if he.Message != nil {
				msg = fmt.Sprint(he.Message)
			}
		}
		req := c.Request()
		s.logger.Printf("%d %s %s from %s: %v", code, req.Method, req.URL.Path, c.RealIP(), err)
		if !c.Response().Committed {
			_ = c.JSON(code, map[string]interface{}{"error": msg})
		}
	}
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Content-Type"},
		AllowCredentials: true,
	}))

	e.GET("/healthz", func(c echo.Context) error { return c.String(200, "ok") })
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	api := e.Group("/api")
	api.POST("/query", s.handleQuery)
	api.POST("/upload", s.handleUpload)
	api.GET("/threads/:id/trace", s.handleTrace)
	return e
}
