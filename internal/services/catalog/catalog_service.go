package catalog

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/gosimple/slug"
	"github.com/promptacademy/backend/internal/models"
	"gorm.io/gorm"
)

// Service handles catalog content: categories, prompts, courses, lessons and
// pricing plans. It is plain CRUD; entitlement decisions live in the
// entitlement package and are applied by handlers before anything gated is
// serialized.
type Service struct {
	db *gorm.DB
}

// NewService creates a new catalog service
func NewService(db *gorm.DB) *Service {
	return &Service{db: db}
}

// CreateCategory creates a browsing category
func (s *Service) CreateCategory(name string) (*models.Category, error) {
	cat := models.Category{
		Name: name,
		Slug: slug.Make(name),
	}
	if err := s.db.Create(&cat).Error; err != nil {
		return nil, fmt.Errorf("failed to create category: %w", err)
	}
	return &cat, nil
}

// ListCategories returns all categories
func (s *Service) ListCategories() ([]models.Category, error) {
	var cats []models.Category
	if err := s.db.Order("name").Find(&cats).Error; err != nil {
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}
	return cats, nil
}

// PromptInput carries the editable fields of a prompt
type PromptInput struct {
	Title       string
	Description string
	Content     string
	IsPremium   bool
	Price       float64
	CategoryID  *uuid.UUID
	Published   bool
}

// CreatePrompt creates a prompt; the slug is derived from the title
func (s *Service) CreatePrompt(in PromptInput) (*models.Prompt, error) {
	p := models.Prompt{
		Title:       in.Title,
		Slug:        slug.Make(in.Title),
		Description: in.Description,
		Content:     in.Content,
		IsPremium:   in.IsPremium,
		Price:       in.Price,
		CategoryID:  in.CategoryID,
		Published:   in.Published,
	}
	if err := s.db.Create(&p).Error; err != nil {
		return nil, fmt.Errorf("failed to create prompt: %w", err)
	}
	return &p, nil
}

// UpdatePrompt updates an existing prompt
func (s *Service) UpdatePrompt(id uuid.UUID, in PromptInput) (*models.Prompt, error) {
	var p models.Prompt
	if err := s.db.First(&p, "id = ?", id).Error; err != nil {
		return nil, fmt.Errorf("failed to get prompt: %w", err)
	}

	p.Title = in.Title
	p.Slug = slug.Make(in.Title)
	p.Description = in.Description
	p.Content = in.Content
	p.IsPremium = in.IsPremium
	p.Price = in.Price
	p.CategoryID = in.CategoryID
	p.Published = in.Published

	if err := s.db.Save(&p).Error; err != nil {
		return nil, fmt.Errorf("failed to update prompt: %w", err)
	}
	return &p, nil
}

// DeletePrompt soft-deletes a prompt
func (s *Service) DeletePrompt(id uuid.UUID) error {
	if err := s.db.Delete(&models.Prompt{}, "id = ?", id).Error; err != nil {
		return fmt.Errorf("failed to delete prompt: %w", err)
	}
	return nil
}

// ListPublishedPrompts returns published prompts, optionally filtered by
// category slug
func (s *Service) ListPublishedPrompts(categorySlug string) ([]models.Prompt, error) {
	q := s.db.Where("published = ?", true)
	if categorySlug != "" {
		q = q.Joins("JOIN categories ON categories.id = prompts.category_id").
			Where("categories.slug = ?", categorySlug)
	}

	var prompts []models.Prompt
	if err := q.Order("prompts.created_at DESC").Find(&prompts).Error; err != nil {
		return nil, fmt.Errorf("failed to list prompts: %w", err)
	}
	return prompts, nil
}

// GetPromptBySlug returns a published prompt by slug
func (s *Service) GetPromptBySlug(promptSlug string) (*models.Prompt, error) {
	var p models.Prompt
	if err := s.db.Where("slug = ? AND published = ?", promptSlug, true).First(&p).Error; err != nil {
		return nil, fmt.Errorf("failed to get prompt: %w", err)
	}
	return &p, nil
}

// CourseInput carries the editable fields of a course
type CourseInput struct {
	Title       string
	Description string
	Price       float64
	CategoryID  *uuid.UUID
	Published   bool
}

// CreateCourse creates a course
func (s *Service) CreateCourse(in CourseInput) (*models.Course, error) {
	c := models.Course{
		Title:       in.Title,
		Slug:        slug.Make(in.Title),
		Description: in.Description,
		Price:       in.Price,
		CategoryID:  in.CategoryID,
		Published:   in.Published,
	}
	if err := s.db.Create(&c).Error; err != nil {
		return nil, fmt.Errorf("failed to create course: %w", err)
	}
	return &c, nil
}

// UpdateCourse updates an existing course
func (s *Service) UpdateCourse(id uuid.UUID, in CourseInput) (*models.Course, error) {
	var c models.Course
	if err := s.db.First(&c, "id = ?", id).Error; err != nil {
		return nil, fmt.Errorf("failed to get course: %w", err)
	}

	c.Title = in.Title
	c.Slug = slug.Make(in.Title)
	c.Description = in.Description
	c.Price = in.Price
	c.CategoryID = in.CategoryID
	c.Published = in.Published

	if err := s.db.Save(&c).Error; err != nil {
		return nil, fmt.Errorf("failed to update course: %w", err)
	}
	return &c, nil
}

// ListPublishedCourses returns published courses
func (s *Service) ListPublishedCourses() ([]models.Course, error) {
	var courses []models.Course
	if err := s.db.Where("published = ?", true).Order("created_at DESC").Find(&courses).Error; err != nil {
		return nil, fmt.Errorf("failed to list courses: %w", err)
	}
	return courses, nil
}

// GetCourseBySlug returns a published course with its lessons in order
func (s *Service) GetCourseBySlug(courseSlug string) (*models.Course, error) {
	var c models.Course
	err := s.db.
		Preload("Lessons", func(db *gorm.DB) *gorm.DB {
			return db.Order("course_lessons.position")
		}).
		Where("slug = ? AND published = ?", courseSlug, true).
		First(&c).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get course: %w", err)
	}
	return &c, nil
}

// GetLesson returns a lesson by ID
func (s *Service) GetLesson(id uuid.UUID) (*models.CourseLesson, error) {
	var lesson models.CourseLesson
	if err := s.db.First(&lesson, "id = ?", id).Error; err != nil {
		return nil, fmt.Errorf("failed to get lesson: %w", err)
	}
	return &lesson, nil
}

// LessonInput carries the editable fields of a lesson
type LessonInput struct {
	Title     string
	Position  int
	Body      string
	VideoKey  string
	IsPremium bool
	IsPreview bool
}

// AddLesson appends a lesson to a course
func (s *Service) AddLesson(courseID uuid.UUID, in LessonInput) (*models.CourseLesson, error) {
	lesson := models.CourseLesson{
		CourseID:  courseID,
		Title:     in.Title,
		Position:  in.Position,
		Body:      in.Body,
		VideoKey:  in.VideoKey,
		IsPremium: in.IsPremium,
		IsPreview: in.IsPreview,
	}
	if err := s.db.Create(&lesson).Error; err != nil {
		return nil, fmt.Errorf("failed to create lesson: %w", err)
	}
	return &lesson, nil
}

// UpdateLesson updates an existing lesson
func (s *Service) UpdateLesson(id uuid.UUID, in LessonInput) (*models.CourseLesson, error) {
	var lesson models.CourseLesson
	if err := s.db.First(&lesson, "id = ?", id).Error; err != nil {
		return nil, fmt.Errorf("failed to get lesson: %w", err)
	}

	lesson.Title = in.Title
	lesson.Position = in.Position
	lesson.Body = in.Body
	lesson.VideoKey = in.VideoKey
	lesson.IsPremium = in.IsPremium
	lesson.IsPreview = in.IsPreview

	if err := s.db.Save(&lesson).Error; err != nil {
		return nil, fmt.Errorf("failed to update lesson: %w", err)
	}
	return &lesson, nil
}

// CreatePlan creates a pricing plan
func (s *Service) CreatePlan(name string, tier models.SubscriptionTier, durationDays int, amount float64, description string) (*models.PricingPlan, error) {
	plan := models.PricingPlan{
		Name:         name,
		Tier:         tier,
		DurationDays: durationDays,
		Amount:       amount,
		Description:  description,
		Active:       true,
	}
	if err := s.db.Create(&plan).Error; err != nil {
		return nil, fmt.Errorf("failed to create plan: %w", err)
	}
	return &plan, nil
}

// ListActivePlans returns active pricing plans
func (s *Service) ListActivePlans() ([]models.PricingPlan, error) {
	var plans []models.PricingPlan
	if err := s.db.Where("active = ?", true).Order("amount").Find(&plans).Error; err != nil {
		return nil, fmt.Errorf("failed to list plans: %w", err)
	}
	return plans, nil
}
