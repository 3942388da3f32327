// Package api exposes the rule pipeline over HTTP: parse rule text,
// translate natural language descriptions, and run backtests on bars
// supplied in the request body.
package api

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"tradedsl/backtest"
)

type Server struct {
	engine *gin.Engine
	server *http.Server
	runner *backtest.Runner
}

func NewServer(port int) *Server {
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(corsMiddleware())
	engine.Use(loggerMiddleware())

	s := &Server{
		engine: engine,
		runner: backtest.NewRunner(),
		server: &http.Server{
			Addr:    fmt.Sprintf(":%d", port),
			Handler: engine,
		},
	}

	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	handler := NewHandler(s.runner)

	api := s.engine.Group("/api")
	{
		api.POST("/parse", handler.Parse)
		api.POST("/translate", handler.Translate)
		api.POST("/backtest", handler.Backtest)
	}

	s.engine.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	s.engine.GET("/metrics", gin.WrapH(promhttp.Handler()))
}

func (s *Server) Start() error {
	slog.Info("api server listening", "addr", s.server.Addr)
	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (s *Server) Shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.server.Shutdown(ctx)
}

func loggerMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path

		c.Next()

		status := c.Writer.Status()
		requestsTotal.WithLabelValues(c.Request.Method, path, fmt.Sprint(status)).Inc()
		slog.Info("request",
			"method", c.Request.Method,
			"path", path,
			"status", status,
			"latency", time.Since(start),
		)
	}
}

func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}
