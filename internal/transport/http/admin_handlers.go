package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/groupcast-server/internal/store"
)

// AdminHandlers exposes read-only operational endpoints.
type AdminHandlers struct {
	store    store.MembershipStore
	registry *Registry
	log      *zerolog.Logger
}

// NewAdminHandlers creates the admin handlers instance.
func NewAdminHandlers(st store.MembershipStore, registry *Registry, logger *zerolog.Logger) *AdminHandlers {
	return &AdminHandlers{store: st, registry: registry, log: logger}
}

// HealthResponse reports process and store health.
type HealthResponse struct {
	Status      string `json:"status"`
	Connections int    `json:"connections"`
}

// GroupMembersResponse lists the recorded members of one group.
type GroupMembersResponse struct {
	Group   string   `json:"group"`
	Members []string `json:"members"`
	Count   int      `json:"count"`
}

// ErrorResponse represents an error response body.
type ErrorResponse struct {
	Error string `json:"error"`
}

// Health handles GET /health.
func (h *AdminHandlers) Health(c *gin.Context) {
	if err := h.store.Ping(c.Request.Context()); err != nil {
		h.log.Error().Err(err).Msg("store ping failed")
		c.JSON(http.StatusServiceUnavailable, ErrorResponse{Error: "store unavailable"})
		return
	}
	c.JSON(http.StatusOK, HealthResponse{Status: "ok", Connections: h.registry.Len()})
}

// GroupMembers handles GET /api/groups/:group/members.
func (h *AdminHandlers) GroupMembers(c *gin.Context) {
	group := c.Param("group")

	members, err := h.store.MembersOf(c.Request.Context(), group)
	if err != nil {
		h.log.Error().Err(err).Str("group", group).Msg("failed to list members")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}

	c.JSON(http.StatusOK, GroupMembersResponse{
		Group:   group,
		Members: members,
		Count:   len(members),
	})
}
