package service

import (
	"errors"
	"time"

	"github.com/examhall/examhall/internal/apperror"
	"github.com/examhall/examhall/internal/dto"
	"github.com/examhall/examhall/internal/model"
	"github.com/examhall/examhall/internal/repository"
	"github.com/jinzhu/copier"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

// GradingService finalizes attempts. Submission is one way: once
// end_time is stamped the attempt never reopens.
type GradingService interface {
	SubmitAttempt(attemptID string, student *model.User) (*dto.AttemptResponse, error)
	// Finalize grades and closes the attempt at the given instant. It is
	// the only code path that writes end_time.
	Finalize(attempt *model.ExamAttempt, now time.Time) error
}

type gradingService struct {
	attemptRepo repository.ExamAttemptRepository
	examRepo    repository.ExamRepository
	answerRepo  repository.AnswerRepository
}

func NewGradingService(
	attemptRepo repository.ExamAttemptRepository,
	examRepo repository.ExamRepository,
	answerRepo repository.AnswerRepository,
) GradingService {
	return &gradingService{attemptRepo: attemptRepo, examRepo: examRepo, answerRepo: answerRepo}
}

func (s *gradingService) SubmitAttempt(attemptID string, student *model.User) (*dto.AttemptResponse, error) {
	attempt, err := s.attemptRepo.FindByID(attemptID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.New(apperror.NotFound, "attempt not found")
		}
		return nil, apperror.Wrap(apperror.Internal, err, "failed to load attempt")
	}
	if attempt.StudentID != student.ID {
		return nil, apperror.New(apperror.PermissionDenied, "attempt belongs to another student")
	}
	if attempt.Submitted() {
		return nil, apperror.New(apperror.InvalidState, "attempt has already been submitted")
	}

	if err := s.Finalize(attempt, time.Now().UTC()); err != nil {
		return nil, err
	}

	var resp dto.AttemptResponse
	copier.Copy(&resp, attempt)
	return &resp, nil
}

func (s *gradingService) Finalize(attempt *model.ExamAttempt, now time.Time) error {
	exam, err := s.examRepo.FindByID(attempt.ExamID)
	if err != nil {
		return apperror.Wrap(apperror.Internal, err, "failed to load exam for grading")
	}
	answers, err := s.answerRepo.FindByAttemptID(attempt.ID)
	if err != nil {
		return apperror.Wrap(apperror.Internal, err, "failed to load answers for grading")
	}

	score, totalPossible := gradeAnswers(exam.Questions, answers)
	attempt.Score = &score
	attempt.TotalPossibleScore = &totalPossible
	attempt.EndTime = &now

	if err := s.attemptRepo.Update(attempt); err != nil {
		return apperror.Wrap(apperror.Internal, err, "failed to finalize attempt")
	}
	log.Info().
		Str("attemptID", attempt.ID).
		Float64("score", score).
		Float64("totalPossible", totalPossible).
		Msg("Attempt graded and closed")
	return nil
}

// gradeAnswers scores choice questions all or nothing against the
// normalized answer key. Every question with a positive max score
// contributes to the total possible, answered or not, so manually
// graded questions count toward the denominator before evaluation.
func gradeAnswers(questions []model.Question, answers []model.Answer) (score, totalPossible float64) {
	answersByQuestion := make(map[string]*model.Answer, len(answers))
	for i := range answers {
		answersByQuestion[answers[i].QuestionID] = &answers[i]
	}

	for i := range questions {
		question := &questions[i]
		if question.MaxScore <= 0 {
			continue
		}
		totalPossible += float64(question.MaxScore)

		if !question.IsChoice() {
			continue
		}
		answer, ok := answersByQuestion[question.ID]
		if !ok {
			continue
		}
		if normalizedEqual(answer.AnswerData.Normalized(), question.CorrectAnswers.Normalized()) {
			score += float64(question.MaxScore)
		}
	}
	return score, totalPossible
}

func normalizedEqual(a, b []string) bool {
	if len(a) == 0 || len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
