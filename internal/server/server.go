// Package server provides the serve-mode HTTP listener: a gin router with
// zap request logging and panic recovery, API routes under /api/v1.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	ginzap "github.com/gin-contrib/zap"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/sanops/asbuilt/internal/config"
)

type RegisterHandlersFn func(group *gin.RouterGroup)

type Server struct {
	cfg  config.ServerConfig
	http *http.Server
	log  *zap.SugaredLogger
}

func New(cfg config.ServerConfig, register RegisterHandlersFn) *Server {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(
		ginzap.Ginzap(zap.L().Named("http"), time.RFC3339, true),
		ginzap.RecoveryWithZap(zap.L().Named("http"), true),
	)

	register(router.Group("/api/v1"))

	return &Server{
		cfg: cfg,
		http: &http.Server{
			Addr:    fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
			Handler: router,
		},
		log: zap.S().Named("server"),
	}
}

// Start blocks until the listener fails or Stop is called.
func (s *Server) Start() error {
	s.log.Infow("http server listening", "addr", s.http.Addr)
	if err := s.http.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Stop drains in-flight requests within the configured shutdown timeout.
func (s *Server) Stop(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, s.cfg.ShutdownTimeout)
	defer cancel()
	return s.http.Shutdown(ctx)
}
