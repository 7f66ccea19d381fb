package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/promptacademy/backend/internal/middleware"
	"github.com/promptacademy/backend/internal/services/catalog"
	"github.com/promptacademy/backend/internal/services/entitlement"
	"github.com/promptacademy/backend/internal/services/storage"
)

// MediaHandler issues signed URLs for gated lesson video. The entitlement
// resolver runs here, before any URL is signed; a signed URL is proof the
// check already passed.
type MediaHandler struct {
	catalogSvc *catalog.Service
	resolver   *entitlement.Resolver
	storageSvc *storage.Service
}

// NewMediaHandler creates a new media handler
func NewMediaHandler(catalogSvc *catalog.Service, resolver *entitlement.Resolver, storageSvc *storage.Service) *MediaHandler {
	return &MediaHandler{catalogSvc: catalogSvc, resolver: resolver, storageSvc: storageSvc}
}

// LessonVideoURL returns a time-limited signed URL for a lesson's video
func (h *MediaHandler) LessonVideoURL(c *gin.Context) {
	lessonID, err := uuid.Parse(c.Param("lessonID"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid lesson ID"})
		return
	}

	lesson, err := h.catalogSvc.GetLesson(lessonID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "lesson not found"})
		return
	}

	user := middleware.CurrentUser(c)
	allowed, err := h.resolver.CanAccessLesson(user, lesson)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to check access"})
		return
	}
	if !allowed {
		c.JSON(http.StatusForbidden, gin.H{"error": "subscription or purchase required"})
		return
	}

	if h.storageSvc == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "storage not configured"})
		return
	}
	if lesson.VideoKey == "" {
		c.JSON(http.StatusNotFound, gin.H{"error": "lesson has no video"})
		return
	}

	url, err := h.storageSvc.SignedDownloadURL(c.Request.Context(), lesson.VideoKey)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to sign video URL"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "success", "video_url": url})
}
