package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ExamAttempt is one student's single timed engagement with one exam.
// end_time is set exactly once, by the grading engine at submission;
// it is the authoritative "is this attempt finished" signal.
type ExamAttempt struct {
	ID                 string     `gorm:"type:uuid;primaryKey" json:"id"`
	ExamID             string     `gorm:"type:uuid;not null;index" json:"exam_id"`
	StudentID          string     `gorm:"type:uuid;not null;index" json:"student_id"`
	StartTime          time.Time  `gorm:"not null" json:"start_time"`
	EndTime            *time.Time `json:"end_time,omitempty"`
	Score              *float64   `json:"score,omitempty"`
	TotalPossibleScore *float64   `json:"total_possible_score,omitempty"`
	CreatedAt          time.Time  `json:"created_at"`
	UpdatedAt          time.Time  `json:"updated_at"`

	Exam    Exam     `gorm:"foreignKey:ExamID;constraint:OnDelete:CASCADE" json:"-"`
	Answers []Answer `gorm:"foreignKey:AttemptID;constraint:OnDelete:CASCADE" json:"-"`
}

func (a *ExamAttempt) BeforeCreate(tx *gorm.DB) error {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	return nil
}

// Submitted reports whether the attempt has been finalized.
func (a *ExamAttempt) Submitted() bool { return a.EndTime != nil }

// TimeRemainingSeconds computes the per-attempt budget left at the
// given instant, never negative.
func (a *ExamAttempt) TimeRemainingSeconds(durationMinutes int, now time.Time) int {
	elapsed := int(now.Sub(a.StartTime).Seconds())
	remaining := durationMinutes*60 - elapsed
	if remaining < 0 {
		return 0
	}
	return remaining
}
