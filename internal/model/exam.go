package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Exam struct {
	ID               string    `gorm:"type:uuid;primaryKey" json:"id"`
	Title            string    `gorm:"not null" json:"title"`
	StartTime        time.Time `gorm:"not null" json:"start_time"`
	EndTime          time.Time `gorm:"not null" json:"end_time"`
	DurationMinutes  int       `gorm:"not null" json:"duration_minutes"`
	IsPublished      bool      `gorm:"not null;default:false" json:"is_published"`
	PublishedBy      *string   `gorm:"type:uuid" json:"published_by,omitempty"`
	TargetCandidates *string   `json:"target_candidates,omitempty"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`

	Questions []Question `gorm:"many2many:exam_questions" json:"questions,omitempty"`
}

func (e *Exam) BeforeCreate(tx *gorm.DB) error {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	return nil
}

// WindowOpen reports whether now falls inside the exam's open window.
func (e *Exam) WindowOpen(now time.Time) bool {
	return !now.Before(e.StartTime) && !now.After(e.EndTime)
}

// OpenToCandidate reports whether a student with the given eligibility
// attribute may see this exam. An exam without target_candidates is
// open to everyone.
func (e *Exam) OpenToCandidate(candidate *string) bool {
	if e.TargetCandidates == nil {
		return true
	}
	return candidate != nil && *candidate == *e.TargetCandidates
}
