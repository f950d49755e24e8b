package server

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"golang.org/x/time/rate"

	"github.com/Borgerr/blogthing/internal/blog"
	"github.com/Borgerr/blogthing/internal/config"
	"github.com/Borgerr/blogthing/internal/logger"
	"github.com/Borgerr/blogthing/internal/metrics"
	"github.com/Borgerr/blogthing/internal/render"
)

// StylesheetName is the optional stylesheet served from the content directory.
const StylesheetName = "style.css"

// Server is the HTTP front end of the blog.
type Server struct {
	echo    *echo.Echo
	config  config.Config
	logger  *logger.Logger
	blog    *blog.Service
	metrics *metrics.Metrics
}

// New wires routes and middleware. m may be nil when metrics are disabled.
func New(cfg config.Config, svc *blog.Service, m *metrics.Metrics, appLogger *logger.Logger) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Server.ReadTimeout = cfg.Server.ReadTimeout
	e.Server.WriteTimeout = cfg.Server.WriteTimeout

	s := &Server{
		echo:    e,
		config:  cfg,
		logger:  appLogger.WithComponent("server"),
		blog:    svc,
		metrics: m,
	}
	e.HTTPErrorHandler = s.errorHandler

	s.setupMiddleware()
	s.setupRoutes()
	return s
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.echo
}

func (s *Server) setupMiddleware() {
	s.echo.Use(middleware.Recover())

	s.echo.Use(middleware.RequestIDWithConfig(middleware.RequestIDConfig{
		Generator: uuid.NewString,
	}))

	s.echo.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogURI:       true,
		LogStatus:    true,
		LogMethod:    true,
		LogLatency:   true,
		LogError:     true,
		LogRemoteIP:  true,
		LogRequestID: true,
		LogValuesFunc: func(c echo.Context, values middleware.RequestLoggerValues) error {
			fields := []interface{}{
				"method", values.Method,
				"uri", values.URI,
				"status", values.Status,
				"latency_ms", float64(values.Latency.Nanoseconds()) / 1000000,
				"remote_ip", values.RemoteIP,
				"request_id", values.RequestID,
			}
			if values.Error != nil {
				fields = append(fields, "error", values.Error.Error())
				s.logger.Errorw("HTTP request failed", fields...)
			} else {
				s.logger.Infow("HTTP request", fields...)
			}
			return nil
		},
	}))

	s.echo.Use(middleware.SecureWithConfig(middleware.SecureConfig{
		XSSProtection:      "1; mode=block",
		ContentTypeNosniff: "nosniff",
		XFrameOptions:      "DENY",
	}))

	if rl := s.config.RateLimit; rl.Requests > 0 {
		s.echo.Use(middleware.RateLimiterWithConfig(middleware.RateLimiterConfig{
			Store: middleware.NewRateLimiterMemoryStoreWithConfig(
				middleware.RateLimiterMemoryStoreConfig{
					Rate:      rate.Limit(float64(rl.Requests) / rl.Window.Seconds()),
					Burst:     rl.Requests,
					ExpiresIn: rl.Window,
				},
			),
			IdentifierExtractor: func(c echo.Context) (string, error) {
				return c.RealIP(), nil
			},
			DenyHandler: func(c echo.Context, identifier string, err error) error {
				return c.String(http.StatusTooManyRequests, http.StatusText(http.StatusTooManyRequests))
			},
		}))
	}

	if s.metrics != nil {
		s.echo.Use(s.metrics.Middleware())
	}
}

func (s *Server) setupRoutes() {
	if s.metrics != nil {
		s.echo.GET("/metrics", echo.WrapHandler(s.metrics.Handler()))
	}
	if s.config.WithCSS {
		s.echo.File("/"+StylesheetName, filepath.Join(s.config.ContentDir, StylesheetName))
	}
	s.echo.GET("/", s.index)
	s.echo.GET("/:post", s.post)
}

func (s *Server) index(c echo.Context) error {
	return respond(c, s.blog.Index())
}

func (s *Server) post(c echo.Context) error {
	segment := c.Param("post")
	// echo matches against the raw path when the request has escapes, so
	// parameters arrive still encoded.
	if c.Request().URL.RawPath != "" {
		decoded, err := url.PathUnescape(segment)
		if err != nil {
			return respond(c, blog.NotFound())
		}
		segment = decoded
	}
	return respond(c, s.blog.Post(segment))
}

func respond(c echo.Context, out blog.Outcome) error {
	return c.HTMLBlob(out.Status, out.Body)
}

func (s *Server) errorHandler(err error, c echo.Context) {
	code := http.StatusInternalServerError
	var he *echo.HTTPError
	if errors.As(err, &he) {
		code = he.Code
	}

	if code == http.StatusInternalServerError {
		s.logger.Errorw("Internal server error", "error", err, "path", c.Request().URL.Path)
	}
	if c.Response().Committed {
		return
	}

	body := http.StatusText(code)
	if code == http.StatusNotFound {
		body = render.NotFoundBody
	}
	if c.Request().Method == http.MethodHead {
		err = c.NoContent(code)
	} else {
		err = c.HTMLBlob(code, []byte(body))
	}
	if err != nil {
		s.logger.Errorw("Error sending response", "error", err)
	}
}

// Start serves until Shutdown is called.
func (s *Server) Start() error {
	addr := s.config.ListenAddr()
	s.logger.Infow("Starting server", "address", addr, "content_dir", s.config.ContentDir, "base_url", s.config.BaseURL())
	if err := s.echo.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("Shutting down server")
	return s.echo.Shutdown(ctx)
}
