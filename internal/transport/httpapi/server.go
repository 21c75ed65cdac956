// Package httpapi serves the public application intake endpoint.
package httpapi

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"bridgee/internal/bootstrap/logging"
	"bridgee/internal/errs"
	"bridgee/internal/usecase/intake"
)

// formOverhead covers multipart boundaries and text fields on top of the
// CV itself.
const formOverhead = 1 << 20

// Submitter is the intake use case as seen by the HTTP layer.
type Submitter interface {
	Submit(ctx context.Context, input intake.SubmitInput) (intake.SubmitResult, error)
	MaxUploadBytes() int64
}

type Options struct {
	Addr            string
	AllowedOrigins  []string
	ShutdownTimeout time.Duration
}

type Server struct {
	echo            *echo.Echo
	intake          Submitter
	addr            string
	shutdownTimeout time.Duration
	baseCtx         context.Context
}

func NewServer(ctx context.Context, submitter Submitter, opts Options) *Server {
	if ctx == nil {
		ctx = context.Background()
	}
	if opts.ShutdownTimeout <= 0 {
		opts.ShutdownTimeout = 10 * time.Second
	}

	s := &Server{
		echo:            echo.New(),
		intake:          submitter,
		addr:            opts.Addr,
		shutdownTimeout: opts.ShutdownTimeout,
		baseCtx:         logging.WithAttrs(ctx, slog.String("component", "httpapi")),
	}

	e := s.echo
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = s.handleError

	e.Use(middleware.RequestIDWithConfig(middleware.RequestIDConfig{
		Generator: uuid.NewString,
	}))
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogMethod:    true,
		LogURI:       true,
		LogStatus:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogError:     true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			attrs := []slog.Attr{
				slog.String("method", v.Method),
				slog.String("uri", v.URI),
				slog.Int("status", v.Status),
				slog.Duration("latency", v.Latency),
				slog.String("request_id", v.RequestID),
			}
			if v.Error != nil {
				attrs = append(attrs, slog.Any("err", errs.Loggable(v.Error)))
				logging.Warn(s.baseCtx, "http request failed", attrs...)
				return nil
			}
			logging.Info(s.baseCtx, "http request", attrs...)
			return nil
		},
	}))
	e.Use(middleware.Recover())
	if origins := cleanOrigins(opts.AllowedOrigins); len(origins) > 0 {
		e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
			AllowOrigins: origins,
			AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		}))
	}

	e.GET("/", s.root)
	e.GET("/healthz", s.health)
	e.POST("/api/submit-application", s.submitApplication,
		middleware.BodyLimit(fmt.Sprintf("%dB", submitter.MaxUploadBytes()+formOverhead)),
	)
	return s
}

// Handler exposes the router for tests and embedding.
func (s *Server) Handler() http.Handler { return s.echo }

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	if ctx == nil {
		return errors.New("context is required")
	}

	errCh := make(chan error, 1)
	go func() {
		logging.Info(s.baseCtx, "http server listening", slog.String("addr", s.addr))
		errCh <- s.echo.Start(s.addr)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return errs.Wrap(err, "http server")
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout)
		defer cancel()
		if err := s.echo.Shutdown(shutdownCtx); err != nil {
			return errs.Wrap(err, "shutdown http server")
		}
		logging.Info(s.baseCtx, "http server stopped")
		return nil
	}
}

func cleanOrigins(origins []string) []string {
	out := make([]string, 0, len(origins))
	for _, origin := range origins {
		if o := strings.TrimSpace(origin); o != "" {
			out = append(out, o)
		}
	}
	return out
}
