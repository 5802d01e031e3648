package server

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/MeKo-Tech/imgmerge/internal/export"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Server holds the HTTP server state and dependencies.
type Server struct {
	exporter         *export.Exporter
	corsOrigin       string
	maxUploadMB      int64
	timeoutSec       int
	previewMaxWidth  int
	previewMaxHeight int
	logger           *slog.Logger
}

// Config holds server configuration.
type Config struct {
	Host             string
	Port             int
	CORSOrigin       string
	MaxUploadMB      int64
	TimeoutSec       int
	Export           export.Options
	PreviewMaxWidth  int
	PreviewMaxHeight int
}

// Response types for API endpoints.
type HealthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version,omitempty"`
	Time    string `json:"time"`
}

type FormatInfo struct {
	Tag         string `json:"tag"`
	Extension   string `json:"extension"`
	ContentType string `json:"content_type"`
	Label       string `json:"label"`
}

type FormatsResponse struct {
	Formats []FormatInfo `json:"formats"`
	Count   int          `json:"count"`
}

type ErrorResponse struct {
	Success   bool   `json:"success"`
	Error     string `json:"error"`
	ErrorType string `json:"error_type,omitempty"`
	RequestID string `json:"request_id,omitempty"`
}

// NewServer creates a new export server instance.
func NewServer(config Config) (*Server, error) {
	exp, err := export.New(config.Export)
	if err != nil {
		return nil, err
	}

	maxW, maxH := config.PreviewMaxWidth, config.PreviewMaxHeight
	if maxW <= 0 {
		maxW = 400
	}
	if maxH <= 0 {
		maxH = 400
	}
	timeout := config.TimeoutSec
	if timeout <= 0 {
		timeout = 60
	}
	maxUpload := config.MaxUploadMB
	if maxUpload <= 0 {
		maxUpload = 50
	}

	logger := slog.Default().With("component", "server")
	return &Server{
		exporter:         exp.WithLogger(logger),
		corsOrigin:       config.CORSOrigin,
		maxUploadMB:      maxUpload,
		timeoutSec:       timeout,
		previewMaxWidth:  maxW,
		previewMaxHeight: maxH,
		logger:           logger,
	}, nil
}

// SetupRoutes configures the HTTP routes.
func (s *Server) SetupRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/health", s.corsMiddleware(s.healthHandler))
	mux.HandleFunc("/formats", s.corsMiddleware(s.formatsHandler))
	mux.HandleFunc("/export", s.corsMiddleware(s.exportHandler))
	mux.HandleFunc("/preview", s.corsMiddleware(s.previewHandler))
	mux.HandleFunc("/ws/export", s.exportWebSocketHandler)
	mux.Handle("/metrics", promhttp.Handler())
}

// readTimeout is how long a WebSocket client may stay silent between requests.
func (s *Server) readTimeout() time.Duration {
	return time.Duration(s.timeoutSec) * time.Second
}

func (s *Server) maxUploadBytes() int64 {
	return s.maxUploadMB * 1024 * 1024
}
