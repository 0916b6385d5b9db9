package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Answer holds a student's answer to one question within one attempt.
// The (attempt_id, question_id) pair is unique; saving again overwrites
// answer_data in place.
type Answer struct {
	ID         string      `gorm:"type:uuid;primaryKey" json:"id"`
	AttemptID  string      `gorm:"type:uuid;not null;uniqueIndex:idx_answers_attempt_question" json:"attempt_id"`
	QuestionID string      `gorm:"type:uuid;not null;uniqueIndex:idx_answers_attempt_question" json:"question_id"`
	AnswerData AnswerValue `gorm:"type:jsonb;not null" json:"answer_data"`
	CreatedAt  time.Time   `json:"created_at"`
	UpdatedAt  time.Time   `json:"updated_at"`

	Question Question `gorm:"foreignKey:QuestionID;constraint:OnDelete:CASCADE" json:"-"`
}

func (a *Answer) BeforeCreate(tx *gorm.DB) error {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	return nil
}
