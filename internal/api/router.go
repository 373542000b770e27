package api

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/shapedtime/hoardhelper/internal/config"
	"github.com/shapedtime/hoardhelper/internal/history"
	"github.com/shapedtime/hoardhelper/internal/loot"
	"github.com/shapedtime/hoardhelper/internal/monitor"
	"github.com/shapedtime/hoardhelper/internal/queue"
	"github.com/shapedtime/hoardhelper/internal/realdebrid"
	"github.com/shapedtime/hoardhelper/internal/uploader"
	"github.com/shapedtime/hoardhelper/internal/webdav"
)

// Deps are the services behind the API. Everything except Ingestor and
// Queue is optional; routes needing a missing service answer 503.
type Deps struct {
	Ingestor *queue.Ingestor
	Queue    *queue.Queue
	Uploads  *uploader.Service
	History  *history.Repository
	WebDAV   *webdav.Client
	Debrid   *realdebrid.Client
	Loot     *loot.Service
	Monitor  *monitor.Monitor
	Auth     config.APIAuthConfig
}

// Server represents the REST API server
type Server struct {
	router *gin.Engine
	deps   Deps
	log    zerolog.Logger

	uploadMu  sync.Mutex
	uploading bool
}

// NewServer creates a new API server
func NewServer(deps Deps) *Server {
	gin.SetMode(gin.ReleaseMode)

	s := &Server{
		router: gin.New(),
		deps:   deps,
		log:    log.Logger.With().Str("component", "api").Logger(),
	}

	s.setupMiddleware()
	s.setupRoutes()

	return s
}

func (s *Server) setupMiddleware() {
	s.router.Use(gin.Recovery())

	s.router.Use(func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.log.Info().
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", c.Writer.Status()).
			Dur("duration", time.Since(start)).
			Msg("API request")
	})

	s.router.Use(func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusOK)
			return
		}

		c.Next()
	})

	if s.deps.Auth.Enabled {
		s.router.Use(basicAuth(s.deps.Auth, s.log))
	}
}

func (s *Server) setupRoutes() {
	api := s.router.Group("/api")

	// Parsing
	api.POST("/parse", s.parseFiles)
	api.POST("/generate-path", s.generatePath)

	// Queue
	api.GET("/queue", s.listQueue)
	api.POST("/queue", s.addToQueue)
	api.DELETE("/queue", s.clearQueue)
	api.DELETE("/queue/:id", s.removeFromQueue)
	api.PUT("/queue/:id", s.updateQueueItem)
	api.POST("/queue/upload", s.uploadQueue)

	// Classification
	api.POST("/classify", s.classify)

	// History
	api.GET("/history", s.listHistory)
	api.DELETE("/history", s.clearHistory)
	api.DELETE("/history/:id", s.deleteHistory)
	api.POST("/history/:id/retry", s.retryHistory)

	// Connections
	api.POST("/test-connection", s.testConnection)
	api.POST("/realdebrid/test", s.testRealDebrid)

	// Debrid
	api.GET("/debrid/torrents", s.listDebridTorrents)
	api.POST("/debrid/torrents", s.addDebridTorrent)
	api.GET("/debrid/torrents/:id", s.getDebridTorrent)
	api.POST("/debrid/torrents/:id/select", s.selectDebridFiles)
	api.POST("/debrid/torrents/:id/download", s.downloadDebridTorrent)

	// Status
	api.GET("/status", s.getStatus)
	api.POST("/status/check", s.checkConnections)
	api.POST("/status/pause", s.pauseMonitor)
	api.POST("/status/resume", s.resumeMonitor)
}

// Handler returns the HTTP handler
func (s *Server) Handler() http.Handler {
	return s.router
}

// Error response helper
func errorResponse(c *gin.Context, status int, message string) {
	c.JSON(status, gin.H{"error": message})
}
