// Package server exposes the vault over HTTP JSON for the web frontend.
package server

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/mediread/vault/internal/chat"
	"github.com/mediread/vault/internal/common"
	"github.com/mediread/vault/internal/export"
	"github.com/mediread/vault/internal/extract"
	"github.com/mediread/vault/internal/ratelimit"
	"github.com/mediread/vault/internal/repository"
)

// Server wires the stores and services behind the HTTP API.
type Server struct {
	cfg *common.Config

	docs     repository.DocumentStore
	profiles repository.ProfileStore
	convs    repository.ConversationStore

	extractor *extract.Service
	chat      *chat.Service
	exporter  *export.Service

	extractLimiter *ratelimit.Limiter
	chatLimiter    *ratelimit.Limiter

	logger *slog.Logger
}

func NewServer(
	cfg *common.Config,
	docs repository.DocumentStore,
	profiles repository.ProfileStore,
	convs repository.ConversationStore,
	extractor *extract.Service,
	chatSvc *chat.Service,
	exporter *export.Service,
	logger *slog.Logger,
) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		cfg:            cfg,
		docs:           docs,
		profiles:       profiles,
		convs:          convs,
		extractor:      extractor,
		chat:           chatSvc,
		exporter:       exporter,
		extractLimiter: ratelimit.New(ratelimit.Options{Interval: time.Minute}),
		chatLimiter:    ratelimit.New(ratelimit.Options{Interval: time.Minute}),
		logger:         logger,
	}
}

// Router builds the gin engine with all routes and middleware attached.
func (s *Server) Router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(RequestLogger(s.logger))

	corsCfg := cors.DefaultConfig()
	corsCfg.AllowOrigins = []string{s.cfg.Server.Origin}
	corsCfg.AllowMethods = []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}
	corsCfg.AllowHeaders = []string{"Origin", "Content-Type", "Accept"}
	r.Use(cors.New(corsCfg))

	r.GET("/healthz", s.handleHealth)

	api := r.Group("/api")
	{
		api.POST("/extract",
			RateLimit(s.extractLimiter, s.cfg.RateLimit.ExtractPerMinute),
			s.handleExtract)
		api.POST("/chat",
			RateLimit(s.chatLimiter, s.cfg.RateLimit.ChatPerMinute),
			s.handleChat)

		api.GET("/documents", s.handleListDocuments)
		api.POST("/documents", s.handleCreateDocument)
		api.GET("/documents/:id", s.handleGetDocument)
		api.PUT("/documents/:id", s.handleUpdateDocument)
		api.DELETE("/documents/:id", s.handleDeleteDocument)

		api.GET("/snapshot", s.handleSnapshot)
		api.GET("/export", s.handleExport)

		api.GET("/profile", s.handleGetProfile)
		api.PUT("/profile", s.handleSaveProfile)

		api.GET("/conversations", s.handleListConversations)
		api.POST("/conversations", s.handleSaveConversation)
		api.GET("/conversations/:id", s.handleGetConversation)
		api.DELETE("/conversations/:id", s.handleDeleteConversation)
	}

	return r
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":       "ok",
		"aiConfigured": s.extractor.Configured(),
		"model":        s.cfg.LLM.Model,
	})
}
