package server

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"

	apiecho "github.com/localspot/localspot/api/echo"
	"github.com/localspot/localspot/config"
	"github.com/localspot/localspot/mongodb"
)

// APIs groups the route registrars the server mounts.
type APIs struct {
	Auth      *apiecho.AuthAPI
	Directory *apiecho.DirectoryAPI
	Community *apiecho.CommunityAPI
	Admin     *apiecho.AdminAPI
}

// NewHTTPServer creates and configures the Echo HTTP server.
func NewHTTPServer(cfg *config.ServerConfig, apis APIs) *http.Server {
	e := echo.New()
	e.HideBanner = true
	e.Use(echomw.Recover())

	// Request logging through zerolog.
	e.Use(func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)

			evt := log.Info()
			if err != nil {
				evt = log.Error().Err(err)
			}
			evt.
				Str("method", c.Request().Method).
				Str("path", c.Request().URL.Path).
				Int("status", c.Response().Status).
				Dur("latency", time.Since(start)).
				Str("ip", c.RealIP()).
				Msg("HTTP request")
			return err
		}
	})

	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	e.GET("/healthz", func(c echo.Context) error {
		if err := mongodb.Ping(c.Request().Context()); err != nil {
			return c.JSON(http.StatusServiceUnavailable, map[string]string{"status": "degraded"})
		}
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})

	apis.Auth.RegisterRoutes(e)
	apis.Directory.RegisterRoutes(e)
	apis.Community.RegisterRoutes(e)
	apis.Admin.RegisterRoutes(e)

	return &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           e,
		ReadHeaderTimeout: 10 * time.Second,
	}
}
