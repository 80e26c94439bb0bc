package admin

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"tg-antijudi/internal/config"
	"tg-antijudi/internal/logger"
	"tg-antijudi/internal/service"
)

// Server is the administrative console API. Every write is one call into
// the Moderator, so the console obeys the same locking as the bot.
type Server struct {
	router *gin.Engine
	mod    *service.Moderator
	token  string
	http   *http.Server
}

func NewServer(mod *service.Moderator, cfg config.AdminConfig) *Server {
	router := gin.New()
	router.Use(gin.Recovery(), requestLogger())

	s := &Server{
		router: router,
		mod:    mod,
		token:  cfg.Token,
	}
	s.setupRoutes()
	s.http = &http.Server{
		Addr:              cfg.Listen,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

func (s *Server) setupRoutes() {
	s.router.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong"})
	})

	api := s.router.Group("/api")
	api.Use(BearerAuth(s.token))
	{
		api.GET("/groups", s.listGroups)
		api.GET("/violations", s.listViolations)
		api.GET("/clean", s.listClean)
		api.GET("/mutes", s.listMutes)
		api.GET("/bans", s.listBans)
		api.GET("/verified", s.listVerified)
		api.GET("/stats", s.stats)

		users := api.Group("/users/:id")
		users.GET("", s.getUser)
		users.POST("/reclassify", s.reclassify)
		users.POST("/message", s.sendMessage)
		users.POST("/mute", s.mute)
		users.DELETE("/mute", s.unmute)
		users.POST("/ban", s.ban)
		users.DELETE("/ban", s.unban)
	}

	s.router.GET("/metrics", BearerAuth(s.token), gin.WrapH(promhttp.Handler()))
}

// Handler exposes the router for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start serves until Shutdown is called.
func (s *Server) Start() error {
	logger.Infof("Admin API listening on %s", s.http.Addr)
	if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	return s.http.Shutdown(ctx)
}

func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.Debugf("admin %s %s -> %d (%s)", c.Request.Method, c.Request.URL.Path, c.Writer.Status(), time.Since(start))
	}
}
