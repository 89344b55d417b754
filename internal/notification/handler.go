package notification

import (
	"context"
	"strconv"

	"inspection_portal_backend/internal/notification/inapp"
	"inspection_portal_backend/internal/notification/sse"
	"inspection_portal_backend/platform/apperr"
	"inspection_portal_backend/platform/httpkit"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const defaultListLimit = 50

// InAppReader exposes the read side of the in-app notification store.
type InAppReader interface {
	List(ctx context.Context, userID uuid.UUID, limit int) ([]inapp.Notification, error)
	CountUnread(ctx context.Context, userID uuid.UUID) (int, error)
	MarkRead(ctx context.Context, id, userID uuid.UUID) error
}

// Handler serves the notification inbox and the SSE stream.
type Handler struct {
	repo InAppReader
	sse  *sse.Service
}

func NewHandler(repo InAppReader, sseSvc *sse.Service) *Handler {
	return &Handler{repo: repo, sse: sseSvc}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("", h.List)
	rg.GET("/unread-count", h.UnreadCount)
	rg.POST("/:id/read", h.MarkRead)
	rg.GET("/stream", h.sse.Stream)
}

func (h *Handler) List(c *gin.Context) {
	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}

	limit := defaultListLimit
	if raw := c.Query("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 && n <= 200 {
			limit = n
		}
	}

	items, err := h.repo.List(c.Request.Context(), identity.UserID(), limit)
	if err != nil {
		httpkit.HandleError(c, err)
		return
	}
	httpkit.OK(c, gin.H{"notifications": items})
}

func (h *Handler) UnreadCount(c *gin.Context) {
	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}

	count, err := h.repo.CountUnread(c.Request.Context(), identity.UserID())
	if err != nil {
		httpkit.HandleError(c, err)
		return
	}
	httpkit.OK(c, gin.H{"unreadCount": count})
}

func (h *Handler) MarkRead(c *gin.Context) {
	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.HandleError(c, apperr.BadRequest("invalid notification id"))
		return
	}

	if err := h.repo.MarkRead(c.Request.Context(), id, identity.UserID()); err != nil {
		httpkit.HandleError(c, err)
		return
	}
	httpkit.OK(c, gin.H{"status": "read"})
}
