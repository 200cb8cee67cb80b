package ui

import (
	"context"
	"errors"
	"net/http"
	"time"

	"insightdash/adapters/excel"
	"insightdash/app"
	"insightdash/internal"
	"insightdash/internal/metrics"
	"insightdash/ui/middleware"

	"github.com/gin-gonic/gin"
)

// DefaultMaxUploadBytes bounds spreadsheet uploads and JSON bodies
const DefaultMaxUploadBytes = 32 << 20

const shutdownTimeout = 10 * time.Second

// Options configures the HTTP server
type Options struct {
	GinMode        string
	MaxUploadBytes int64
	Reader         excel.ReaderConfig
	Logger         *internal.Logger
}

// Server exposes the analysis service over HTTP
type Server struct {
	router  *gin.Engine
	service *app.AnalysisService
	metrics *metrics.Metrics
	reader  excel.ReaderConfig
	logger  *internal.Logger
	limit   int64
}

// NewServer creates a new web server instance
func NewServer(service *app.AnalysisService, m *metrics.Metrics, opts Options) *Server {
	if opts.GinMode != "" {
		gin.SetMode(opts.GinMode)
	}
	if opts.Logger == nil {
		opts.Logger = internal.DefaultLogger
	}
	if opts.MaxUploadBytes <= 0 {
		opts.MaxUploadBytes = DefaultMaxUploadBytes
	}
	if opts.Reader.MaxRows == 0 {
		opts.Reader = excel.DefaultReaderConfig()
	}
	if m == nil {
		m = metrics.New()
	}

	s := &Server{
		router:  gin.New(),
		service: service,
		metrics: m,
		reader:  opts.Reader,
		logger:  opts.Logger.Named("http"),
		limit:   opts.MaxUploadBytes,
	}
	s.router.MaxMultipartMemory = opts.MaxUploadBytes

	s.setupMiddleware()
	s.setupRoutes()
	return s
}

// setupMiddleware configures Gin middleware
func (s *Server) setupMiddleware() {
	s.router.Use(gin.Recovery())
	s.router.Use(middleware.RequestLogger(s.logger))
}

// setupRoutes configures the application routes
func (s *Server) setupRoutes() {
	s.router.GET("/healthz", s.handleHealth)
	s.router.GET("/metrics", gin.WrapH(s.metrics.Handler()))

	api := s.router.Group("/api", middleware.LimitBody(s.limit))
	api.POST("/analyze", s.handleAnalyze)
	api.POST("/analyze/upload", s.handleUpload)
}

// Handler returns the router, mainly for tests
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start serves on addr until ctx is canceled, then shuts down gracefully
func (s *Server) Start(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("Starting insightdash on http://%s", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		s.logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}
