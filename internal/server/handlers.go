package server

import (
	"context"
	"errors"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/fintelligent/auditor/internal/audit"
	"github.com/fintelligent/auditor/internal/ingest"
	"github.com/fintelligent/auditor/internal/trace"
)

// Asker is the engine surface the handlers need.
type Asker interface {
	Ask(ctx context.Context, query, threadID string) (string, *audit.State, error)
	Traces(ctx context.Context, threadID string) ([]trace.Record, error)
}

type queryRequest struct {
	Query    string `json:"query"`
	ThreadID string `json:"thread_id"`
}

type queryResponse struct {
	Answer   string   `json:"answer"`
	Routing  string   `json:"routing"`
	Trace    []string `json:"trace"`
	ThreadID string   `json:"thread_id"`
}

func (s *Server) handleQuery(c echo.Context) error {
	var req queryRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	answer, state, err := s.engine.Ask(c.Request().Context(), req.Query, req.ThreadID)
	if err != nil {
		if errors.Is(err, audit.ErrEmptyQuery) {
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		}
		return err
	}

	return c.JSON(http.StatusOK, queryResponse{
		Answer:   answer,
		Routing:  string(state.Routing),
		Trace:    state.Trace,
		ThreadID: state.ThreadID,
	})
}

// handleUpload stores a report file in the data directory and ingests it
// in the background, mirroring how files dropped there directly are
// picked up.
func (s *Server) handleUpload(c echo.Context) error {
	fh, err := c.FormFile("file")
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "missing file field")
	}
	name := filepath.Base(fh.Filename)
	if !ingest.Supported(name) {
		return echo.NewHTTPError(http.StatusBadRequest, "unsupported file type")
	}

	src, err := fh.Open()
	if err != nil {
		return err
	}
	defer src.Close()

	if err := os.MkdirAll(s.dataDir, 0o755); err != nil {
		return err
	}
	dstPath := filepath.Join(s.dataDir, name)
	dst, err := os.Create(dstPath)
	if err != nil {
		return err
	}
	if _, err := io.Copy(dst, src); err != nil {
		dst.Close()
		return err
	}
	if err := dst.Close(); err != nil {
		return err
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()
		if _, err := s.pipeline.ProcessFile(ctx, dstPath); err != nil {
			s.logger.Printf("background ingest of %s failed: %v", dstPath, err)
		}
	}()

	return c.JSON(http.StatusAccepted, map[string]string{"filename": name})
}

func (s *Server) handleTrace(c echo.Context) error {
	threadID := strings.TrimSpace(c.Param("id"))
	if threadID == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "missing thread id")
	}
	recs, err := s.engine.Traces(c.Request().Context(), threadID)
	if err != nil {
		return err
	}
	if recs == nil {
		recs = []trace.Record{}
	}
	return c.JSON(http.StatusOK, recs)
}
