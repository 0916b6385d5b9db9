package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	QuestionTypeSingleChoice = "single_choice"
	QuestionTypeMultiChoice  = "multi_choice"
	QuestionTypeText         = "text"
	QuestionTypeImageUpload  = "image_upload"
)

const (
	ComplexityEasy   = "easy"
	ComplexityMedium = "medium"
	ComplexityHard   = "hard"
)

type Question struct {
	ID             string      `gorm:"type:uuid;primaryKey" json:"id"`
	Title          string      `gorm:"not null" json:"title"`
	Description    *string     `json:"description,omitempty"`
	Complexity     string      `gorm:"not null" json:"complexity"`
	Type           string      `gorm:"not null" json:"type"`
	Options        StringList  `gorm:"type:jsonb" json:"options,omitempty"`
	CorrectAnswers AnswerValue `gorm:"type:jsonb" json:"correct_answers,omitempty"`
	MaxScore       int         `gorm:"not null;default:1" json:"max_score"`
	Tags           StringList  `gorm:"type:jsonb" json:"tags,omitempty"`
	CreatedAt      time.Time   `json:"created_at"`
	UpdatedAt      time.Time   `json:"updated_at"`

	Exams []Exam `gorm:"many2many:exam_questions" json:"-"`
}

func (q *Question) BeforeCreate(tx *gorm.DB) error {
	if q.ID == "" {
		q.ID = uuid.NewString()
	}
	return nil
}

// IsChoice reports whether the question is auto-gradable.
func (q *Question) IsChoice() bool {
	return q.Type == QuestionTypeSingleChoice || q.Type == QuestionTypeMultiChoice
}

// IsManuallyGraded reports whether the question is scored via teacher
// evaluation rather than the grading engine.
func (q *Question) IsManuallyGraded() bool {
	return q.Type == QuestionTypeText || q.Type == QuestionTypeImageUpload
}
