package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// CommentMaxLen is the hard limit on evaluation comments; longer
// comments are clipped silently, not rejected.
const CommentMaxLen = 100

// Evaluation is a teacher's judgment on one answer. At most one exists
// per answer; repeated evaluations update it in place.
type Evaluation struct {
	ID           string    `gorm:"type:uuid;primaryKey" json:"id"`
	AnswerID     string    `gorm:"type:uuid;not null;uniqueIndex" json:"answer_id"`
	EvaluatedBy  string    `gorm:"type:uuid;not null" json:"evaluated_by"`
	IsCorrect    *bool     `json:"is_correct,omitempty"`
	Comment      *string   `gorm:"size:100" json:"comment,omitempty"`
	ScoreAwarded *float64  `json:"score_awarded,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`

	Answer Answer `gorm:"foreignKey:AnswerID;constraint:OnDelete:CASCADE" json:"-"`
}

func (e *Evaluation) BeforeCreate(tx *gorm.DB) error {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	return nil
}

// ClipComment enforces the comment limit, counting characters rather
// than bytes so multi-byte text is not cut mid-rune.
func ClipComment(comment string) string {
	runes := []rune(comment)
	if len(runes) > CommentMaxLen {
		return string(runes[:CommentMaxLen])
	}
	return comment
}
