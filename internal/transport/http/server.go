package http

import (
	stdhttp "net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/groupcast-server/internal/config"
	"github.com/vovakirdan/groupcast-server/internal/core"
	"github.com/vovakirdan/groupcast-server/internal/store"
)

// NewServer builds the HTTP server: health check, WebSocket entry point, and
// the read-only admin API.
func NewServer(gateway *core.Gateway, registry *Registry, st store.MembershipStore, cfg *config.Config, logger *zerolog.Logger) *stdhttp.Server {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()
	router.Use(gin.Recovery())

	ws := NewWSHandler(gateway, registry, logger, cfg.MaxMessageBytes)
	admin := NewAdminHandlers(st, registry, logger)

	router.GET("/health", admin.Health)
	router.GET("/ws", ws.Handle)
	router.GET("/api/groups/:group/members", admin.GroupMembers)

	return &stdhttp.Server{
		Addr:              cfg.Addr,
		Handler:           router,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
	}
}
