package dto

import (
	"time"

	"github.com/examhall/examhall/internal/model"
)

// --- Auth ---

type SignupRequest struct {
	Email         string  `json:"email" binding:"required,email"`
	Password      string  `json:"password" binding:"required,min=6"`
	FullName      *string `json:"full_name"`
	DateOfBirth   *string `json:"date_of_birth"`
	Gender        *string `json:"gender" binding:"omitempty,oneof=male female other"`
	ExamCandidate *string `json:"exam_candidate"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// --- Questions (admin) ---

type CreateQuestionRequest struct {
	Title          string            `json:"title" binding:"required"`
	Description    *string           `json:"description"`
	Complexity     string            `json:"complexity" binding:"required"`
	Type           string            `json:"type" binding:"required,oneof=single_choice multi_choice text image_upload"`
	Options        []string          `json:"options"`
	CorrectAnswers model.AnswerValue `json:"correct_answers"`
	MaxScore       int               `json:"max_score"`
	Tags           []string          `json:"tags"`
}

type ImportQuestionsRequest struct {
	Questions []CreateQuestionRequest `json:"questions" binding:"required,min=1,dive"`
}

type BulkDeleteQuestionsRequest struct {
	QuestionIDs []string `json:"question_ids" binding:"required,min=1"`
}

type QuestionFilter struct {
	Search     string
	Type       string
	Complexity string
	Tag        string
}

// --- Exams (admin) ---

type CreateExamRequest struct {
	Title            string    `json:"title" binding:"required"`
	StartTime        time.Time `json:"start_time" binding:"required"`
	EndTime          time.Time `json:"end_time" binding:"required"`
	DurationMinutes  int       `json:"duration_minutes" binding:"required,gt=0"`
	QuestionIDs      []string  `json:"question_ids" binding:"required,min=1"`
	TargetCandidates *string   `json:"target_candidates"`
}

// --- Answers (student) ---

type SaveAnswerRequest struct {
	QuestionID string            `json:"question_id" binding:"required"`
	AnswerData model.AnswerValue `json:"answer_data"`
}

// --- Evaluations (admin) ---

// EvaluateAnswerRequest carries a partial evaluation update; nil fields
// leave the stored values unchanged.
type EvaluateAnswerRequest struct {
	IsCorrect    *bool    `json:"is_correct"`
	Comment      *string  `json:"comment"`
	ScoreAwarded *float64 `json:"score_awarded"`
}

// BinaryEvaluateRequest awards full marks or zero from a single
// correct/incorrect judgment.
type BinaryEvaluateRequest struct {
	IsCorrect *bool  `json:"is_correct" binding:"required"`
	Comment   string `json:"comment"`
}
