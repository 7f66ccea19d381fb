package models

import (
	"github.com/google/uuid"
)

// Category groups prompts and courses for browsing
type Category struct {
	Base
	Name string `gorm:"type:varchar(100);not null" json:"name"`
	Slug string `gorm:"type:varchar(120);uniqueIndex;not null" json:"slug"`
}

// Prompt represents a purchasable prompt in the catalog
type Prompt struct {
	Base
	Title       string     `gorm:"type:varchar(255);not null" json:"title"`
	Slug        string     `gorm:"type:varchar(280);uniqueIndex;not null" json:"slug"`
	Description string     `gorm:"type:text" json:"description"`
	Content     string     `gorm:"type:text" json:"content,omitempty"`
	IsPremium   bool       `gorm:"default:false" json:"is_premium"`
	Price       float64    `gorm:"type:decimal(20,2);default:0" json:"price"`
	CategoryID  *uuid.UUID `gorm:"type:uuid;index" json:"category_id,omitempty"`
	Category    *Category  `gorm:"foreignKey:CategoryID" json:"-"`
	Published   bool       `gorm:"default:false" json:"published"`
}

// Course represents a purchasable course made of ordered lessons
type Course struct {
	Base
	Title       string         `gorm:"type:varchar(255);not null" json:"title"`
	Slug        string         `gorm:"type:varchar(280);uniqueIndex;not null" json:"slug"`
	Description string         `gorm:"type:text" json:"description"`
	Price       float64        `gorm:"type:decimal(20,2);default:0" json:"price"`
	CategoryID  *uuid.UUID     `gorm:"type:uuid;index" json:"category_id,omitempty"`
	Category    *Category      `gorm:"foreignKey:CategoryID" json:"-"`
	Published   bool           `gorm:"default:false" json:"published"`
	Lessons     []CourseLesson `gorm:"foreignKey:CourseID" json:"lessons,omitempty"`
}

// CourseLesson is a single lesson inside a course. VideoKey is the object-storage
// key of the lesson video; it is never serialized directly, clients get a signed
// URL from the media endpoint instead.
type CourseLesson struct {
	Base
	CourseID  uuid.UUID `gorm:"type:uuid;index;not null" json:"course_id"`
	Course    Course    `gorm:"foreignKey:CourseID" json:"-"`
	Title     string    `gorm:"type:varchar(255);not null" json:"title"`
	Position  int       `gorm:"not null;default:0" json:"position"`
	Body      string    `gorm:"type:text" json:"body,omitempty"`
	VideoKey  string    `gorm:"type:varchar(512)" json:"-"`
	IsPremium bool      `gorm:"default:true" json:"is_premium"`
	IsPreview bool      `gorm:"default:false" json:"is_preview"`
}
