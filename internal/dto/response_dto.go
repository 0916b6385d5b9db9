package dto

import (
	"time"

	"github.com/examhall/examhall/internal/model"
)

type ErrorResponse struct {
	Message string   `json:"message"`
	Details []string `json:"details,omitempty"`
}

type StatusResponse struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

// --- Auth ---

type TokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

type UserResponse struct {
	ID            string  `json:"id"`
	Email         string  `json:"email"`
	Role          string  `json:"role"`
	FullName      *string `json:"full_name,omitempty"`
	Gender        *string `json:"gender,omitempty"`
	ExamCandidate *string `json:"exam_candidate,omitempty"`
}

// --- Questions ---

// QuestionResponse is the admin view: correct answers included.
type QuestionResponse struct {
	ID             string            `json:"id"`
	Title          string            `json:"title"`
	Description    *string           `json:"description,omitempty"`
	Complexity     string            `json:"complexity"`
	Type           string            `json:"type"`
	Options        []string          `json:"options,omitempty"`
	CorrectAnswers model.AnswerValue `json:"correct_answers,omitempty"`
	MaxScore       int               `json:"max_score"`
	Tags           []string          `json:"tags,omitempty"`
	CreatedAt      time.Time         `json:"created_at"`
}

// StudentQuestionResponse is the student view; it must never carry
// correct answers.
type StudentQuestionResponse struct {
	ID         string   `json:"id"`
	Title      string   `json:"title"`
	Complexity string   `json:"complexity"`
	Type       string   `json:"type"`
	Options    []string `json:"options,omitempty"`
	MaxScore   int      `json:"max_score"`
	Tags       []string `json:"tags,omitempty"`
}

type ImportQuestionsResponse struct {
	Status       string `json:"status"`
	RowsImported int    `json:"rows_imported"`
}

type BulkDeleteQuestionsResponse struct {
	Status  string `json:"status"`
	Deleted int    `json:"deleted"`
	Failed  int    `json:"failed"`
}

// --- Exams ---

type ExamResponse struct {
	ID               string             `json:"id"`
	Title            string             `json:"title"`
	StartTime        time.Time          `json:"start_time"`
	EndTime          time.Time          `json:"end_time"`
	DurationMinutes  int                `json:"duration_minutes"`
	IsPublished      bool               `json:"is_published"`
	PublishedBy      *string            `json:"published_by,omitempty"`
	TargetCandidates *string            `json:"target_candidates,omitempty"`
	Questions        []QuestionResponse `json:"questions"`
}

// AvailableExamResponse lists a published exam to an eligible student,
// with window status flags computed at request time.
type AvailableExamResponse struct {
	ID               string                    `json:"id"`
	Title            string                    `json:"title"`
	StartTime        time.Time                 `json:"start_time"`
	EndTime          time.Time                 `json:"end_time"`
	DurationMinutes  int                       `json:"duration_minutes"`
	IsPublished      bool                      `json:"is_published"`
	PublishedBy      *string                   `json:"published_by,omitempty"`
	TargetCandidates *string                   `json:"target_candidates,omitempty"`
	IsExpired        bool                      `json:"is_expired"`
	IsUpcoming       bool                      `json:"is_upcoming"`
	IsActive         bool                      `json:"is_active"`
	Questions        []StudentQuestionResponse `json:"questions"`
}

// --- Attempts ---

type AttemptResponse struct {
	ID                 string     `json:"id"`
	ExamID             string     `json:"exam_id"`
	StudentID          string     `json:"student_id"`
	StartTime          time.Time  `json:"start_time"`
	EndTime            *time.Time `json:"end_time,omitempty"`
	Score              *float64   `json:"score,omitempty"`
	TotalPossibleScore *float64   `json:"total_possible_score,omitempty"`
}

// ExamSessionView is the student-facing exam payload during an active
// attempt: questions without correct answers, plus the live countdown.
type ExamSessionView struct {
	ID                   string                    `json:"id"`
	Title                string                    `json:"title"`
	StartTime            time.Time                 `json:"start_time"`
	EndTime              time.Time                 `json:"end_time"`
	DurationMinutes      int                       `json:"duration_minutes"`
	IsPublished          bool                      `json:"is_published"`
	Questions            []StudentQuestionResponse `json:"questions"`
	TimeRemainingSeconds int                       `json:"time_remaining_seconds"`
	ExamEndTime          time.Time                 `json:"exam_end_time"`
}

type ExamSessionResponse struct {
	Exam          ExamSessionView `json:"exam"`
	Attempt       AttemptResponse `json:"attempt"`
	AutoSubmitted bool            `json:"auto_submitted,omitempty"`
}

type UnfinishedAttemptResponse struct {
	AttemptResponse
	Exam AvailableExamResponse `json:"exam"`
}

type CompletedExamResponse struct {
	ID                 string    `json:"id"`
	ExamID             string    `json:"exam_id"`
	ExamTitle          string    `json:"exam_title"`
	Score              float64   `json:"score"`
	TotalPossibleScore *float64  `json:"total_possible_score,omitempty"`
	Percentage         float64   `json:"percentage"`
	EndTime            time.Time `json:"end_time"`
}

// --- Answers ---

type AnswerResponse struct {
	ID         string              `json:"id"`
	AttemptID  string              `json:"attempt_id"`
	QuestionID string              `json:"question_id"`
	AnswerData model.AnswerValue   `json:"answer_data"`
	Evaluation *EvaluationResponse `json:"evaluation,omitempty"`
}

// --- Results ---

type AttemptWithAnswersResponse struct {
	AttemptResponse
	Answers []AnswerResponse `json:"answers"`
}

// AttemptResultsResponse is the post-submission view; the exam carries
// correct answers since the attempt is already frozen.
type AttemptResultsResponse struct {
	Attempt AttemptWithAnswersResponse `json:"attempt"`
	Exam    ExamResponse               `json:"exam"`
}

type EvaluationResponse struct {
	ID           string    `json:"id"`
	AnswerID     string    `json:"answer_id"`
	EvaluatedBy  string    `json:"evaluated_by"`
	IsCorrect    *bool     `json:"is_correct,omitempty"`
	Comment      *string   `json:"comment,omitempty"`
	ScoreAwarded *float64  `json:"score_awarded,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

type BinaryEvaluateResponse struct {
	Status       string  `json:"status"`
	AnswerID     string  `json:"answer_id"`
	ScoreAwarded float64 `json:"score_awarded"`
}

type AnswerWithEvaluationResponse struct {
	ID            string              `json:"id"`
	QuestionID    string              `json:"question_id"`
	QuestionTitle string              `json:"question_title"`
	QuestionType  string              `json:"question_type"`
	AnswerData    model.AnswerValue   `json:"answer_data"`
	Evaluation    *EvaluationResponse `json:"evaluation,omitempty"`
}

type EvaluatedResultsResponse struct {
	ExamTitle          string                         `json:"exam_title"`
	Score              float64                        `json:"score"`
	TotalPossibleScore *float64                       `json:"total_possible_score,omitempty"`
	Percentage         float64                        `json:"percentage"`
	SubmittedAt        time.Time                      `json:"submitted_at"`
	PublishedBy        *string                        `json:"published_by,omitempty"`
	Answers            []AnswerWithEvaluationResponse `json:"answers_with_evaluations"`
}

// --- Admin attempt views ---

type AttemptStudentInfo struct {
	ID       string  `json:"id"`
	Email    string  `json:"email"`
	FullName *string `json:"full_name,omitempty"`
}

type AdminAttemptSummaryResponse struct {
	ID                 string             `json:"id"`
	ExamID             string             `json:"exam_id"`
	StudentID          string             `json:"student_id"`
	StartTime          time.Time          `json:"start_time"`
	EndTime            *time.Time         `json:"end_time,omitempty"`
	Score              float64            `json:"score"`
	TotalPossibleScore *float64           `json:"total_possible_score,omitempty"`
	Student            AttemptStudentInfo `json:"student"`
	IsSubmitted        bool               `json:"is_submitted"`
	EvaluatedBy        *string            `json:"evaluated_by,omitempty"`
	IsEvaluated        bool               `json:"is_evaluated"`
}

// EvaluationQueueItem is one manually-graded answer awaiting (or
// holding) a teacher evaluation.
type EvaluationQueueItem struct {
	AnswerID      string            `json:"answer_id"`
	QuestionID    string            `json:"question_id"`
	QuestionTitle string            `json:"question_title"`
	QuestionType  string            `json:"question_type"`
	MaxScore      int               `json:"question_max_score"`
	AnswerData    model.AnswerValue `json:"answer_data"`
	IsEvaluated   bool              `json:"is_evaluated"`
	ScoreAwarded  *float64          `json:"score_awarded,omitempty"`
	Comment       *string           `json:"comment,omitempty"`
}

type EvaluationQueueResponse struct {
	AttemptID   string                `json:"attempt_id"`
	Student     AttemptStudentInfo    `json:"student"`
	ExamID      string                `json:"exam_id"`
	ExamTitle   string                `json:"exam_title"`
	TotalMarks  int                   `json:"total_marks"`
	SubmittedAt *time.Time            `json:"submitted_at,omitempty"`
	Answers     []EvaluationQueueItem `json:"answers"`
}

// EvaluationSuggestionResponse is the advisory AI draft for a
// free-response answer. It is never persisted.
type EvaluationSuggestionResponse struct {
	AnswerID       string  `json:"answer_id"`
	SuggestedScore float64 `json:"suggested_score"`
	DraftComment   string  `json:"draft_comment"`
}
