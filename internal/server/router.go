package server

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// Server exposes the match manager over HTTP.
type Server struct {
	manager *MatchManager
	logger  zerolog.Logger
}

// NewServer creates an HTTP server facade around the given manager.
func NewServer(manager *MatchManager, logger zerolog.Logger) *Server {
	return &Server{
		manager: manager,
		logger:  logger.With().Str("component", "http_server").Logger(),
	}
}

// SetupRouter builds the gin engine with all match routes registered.
func (s *Server) SetupRouter() *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(s.requestLogger())

	r.GET("/health", func(c *gin.Context) {
		Success(c, gin.H{"status": "ok", "matches": s.manager.MatchCount()})
	})

	v1 := r.Group("/api/v1")
	{
		matches := v1.Group("/matches")
		{
			matches.POST("", s.CreateMatch)
			matches.POST("/join", s.JoinByCode)
			matches.GET("/:id", s.GetMatch)
			matches.GET("/:id/events", s.GetEvents)
			matches.GET("/:id/stream", s.Stream)
			matches.POST("/:id/join", s.Join)
			matches.POST("/:id/start", s.Start)
			matches.POST("/:id/actions", s.SubmitAction)
			matches.POST("/:id/votes", s.SubmitVote)
			matches.POST("/:id/call-vote", s.CallVote)
			matches.POST("/:id/move", s.Move)
			matches.POST("/:id/tasks", s.CompleteTask)
		}
	}

	return r
}

func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		s.logger.Debug().
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", c.Writer.Status()).
			Dur("latency", time.Since(start)).
			Msg("Request handled")
	}
}
