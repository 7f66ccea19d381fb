package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/promptacademy/backend/internal/middleware"
	"github.com/promptacademy/backend/internal/models"
	"github.com/promptacademy/backend/internal/services/catalog"
	"github.com/promptacademy/backend/internal/services/entitlement"
)

// CatalogHandler serves the public catalog. Gated fields are cleared from the
// response whenever the resolver denies access, so unentitled callers never
// receive premium content, they only see that it exists.
type CatalogHandler struct {
	catalogSvc *catalog.Service
	resolver   *entitlement.Resolver
}

// NewCatalogHandler creates a new catalog handler
func NewCatalogHandler(catalogSvc *catalog.Service, resolver *entitlement.Resolver) *CatalogHandler {
	return &CatalogHandler{catalogSvc: catalogSvc, resolver: resolver}
}

// ListCategories lists browsing categories
func (h *CatalogHandler) ListCategories(c *gin.Context) {
	cats, err := h.catalogSvc.ListCategories()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load categories"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "success", "categories": cats})
}

// ListPlans lists active pricing plans
func (h *CatalogHandler) ListPlans(c *gin.Context) {
	plans, err := h.catalogSvc.ListActivePlans()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load plans"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "success", "plans": plans})
}

// ListPrompts lists published prompts with content stripped; the listing is
// browsable by everyone
func (h *CatalogHandler) ListPrompts(c *gin.Context) {
	prompts, err := h.catalogSvc.ListPublishedPrompts(c.Query("category"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load prompts"})
		return
	}

	for i := range prompts {
		prompts[i].Content = ""
	}

	c.JSON(http.StatusOK, gin.H{"status": "success", "prompts": prompts})
}

// GetPrompt returns a prompt by slug. The content field is only present when
// the caller is entitled to it.
func (h *CatalogHandler) GetPrompt(c *gin.Context) {
	prompt, err := h.catalogSvc.GetPromptBySlug(c.Param("slug"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "prompt not found"})
		return
	}

	user := middleware.CurrentUser(c)
	allowed, err := h.resolver.CanAccessPrompt(user, prompt)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to check access"})
		return
	}

	if !allowed {
		prompt.Content = ""
	}

	c.JSON(http.StatusOK, gin.H{
		"status": "success",
		"prompt": prompt,
		"locked": !allowed,
	})
}

// ListCourses lists published courses
func (h *CatalogHandler) ListCourses(c *gin.Context) {
	courses, err := h.catalogSvc.ListPublishedCourses()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load courses"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "success", "courses": courses})
}

// lessonView is a lesson as serialized to the catalog; Body is cleared for
// locked lessons
type lessonView struct {
	models.CourseLesson
	Locked bool `json:"locked"`
}

// GetCourse returns a course with its lessons; each locked lesson has its body
// withheld
func (h *CatalogHandler) GetCourse(c *gin.Context) {
	course, err := h.catalogSvc.GetCourseBySlug(c.Param("slug"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "course not found"})
		return
	}

	user := middleware.CurrentUser(c)
	views := make([]lessonView, 0, len(course.Lessons))
	for _, lesson := range course.Lessons {
		allowed, err := h.resolver.CanAccessLesson(user, &lesson)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to check access"})
			return
		}
		if !allowed {
			lesson.Body = ""
		}
		views = append(views, lessonView{CourseLesson: lesson, Locked: !allowed})
	}

	course.Lessons = nil

	c.JSON(http.StatusOK, gin.H{
		"status":  "success",
		"course":  course,
		"lessons": views,
	})
}
