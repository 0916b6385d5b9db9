package service

import (
	"errors"

	"github.com/examhall/examhall/internal/apperror"
	"github.com/examhall/examhall/internal/dto"
	"github.com/examhall/examhall/internal/model"
	"github.com/examhall/examhall/internal/repository"
	"github.com/jinzhu/copier"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

type AnswerService interface {
	// SaveAnswer upserts the student's answer to one question; saving
	// the same question twice rewrites the single stored row.
	SaveAnswer(attemptID string, student *model.User, req dto.SaveAnswerRequest) (*dto.AnswerResponse, error)
	ListAnswers(attemptID string, student *model.User) ([]dto.AnswerResponse, error)
}

type answerService struct {
	attemptRepo repository.ExamAttemptRepository
	examRepo    repository.ExamRepository
	answerRepo  repository.AnswerRepository
}

func NewAnswerService(
	attemptRepo repository.ExamAttemptRepository,
	examRepo repository.ExamRepository,
	answerRepo repository.AnswerRepository,
) AnswerService {
	return &answerService{attemptRepo: attemptRepo, examRepo: examRepo, answerRepo: answerRepo}
}

func (s *answerService) SaveAnswer(attemptID string, student *model.User, req dto.SaveAnswerRequest) (*dto.AnswerResponse, error) {
	attempt, err := s.ownedAttempt(attemptID, student)
	if err != nil {
		return nil, err
	}
	if attempt.Submitted() {
		return nil, apperror.New(apperror.InvalidState, "attempt has already been submitted")
	}
	if req.AnswerData.IsZero() {
		return nil, apperror.New(apperror.Validation, "answer_data is required")
	}

	exam, err := s.examRepo.FindByID(attempt.ExamID)
	if err != nil {
		return nil, apperror.Wrap(apperror.Internal, err, "failed to load exam")
	}
	if !examHasQuestion(exam, req.QuestionID) {
		return nil, apperror.New(apperror.Validation, "question does not belong to this exam")
	}

	answer, err := s.answerRepo.FindByAttemptAndQuestion(attemptID, req.QuestionID)
	switch {
	case err == nil:
		answer.AnswerData = req.AnswerData
		if err := s.answerRepo.Update(answer); err != nil {
			return nil, apperror.Wrap(apperror.Internal, err, "failed to update answer")
		}
	case errors.Is(err, gorm.ErrRecordNotFound):
		answer = &model.Answer{
			AttemptID:  attemptID,
			QuestionID: req.QuestionID,
			AnswerData: req.AnswerData,
		}
		if err := s.answerRepo.Create(answer); err != nil {
			log.Error().Err(err).Str("attemptID", attemptID).Str("questionID", req.QuestionID).Msg("Failed to save answer")
			return nil, apperror.Wrap(apperror.Internal, err, "failed to save answer")
		}
	default:
		return nil, apperror.Wrap(apperror.Internal, err, "failed to look up answer")
	}

	var resp dto.AnswerResponse
	copier.Copy(&resp, answer)
	return &resp, nil
}

func (s *answerService) ListAnswers(attemptID string, student *model.User) ([]dto.AnswerResponse, error) {
	if _, err := s.ownedAttempt(attemptID, student); err != nil {
		return nil, err
	}
	answers, err := s.answerRepo.FindByAttemptID(attemptID)
	if err != nil {
		return nil, apperror.Wrap(apperror.Internal, err, "failed to list answers")
	}
	resp := make([]dto.AnswerResponse, 0, len(answers))
	copier.Copy(&resp, &answers)
	return resp, nil
}

func (s *answerService) ownedAttempt(attemptID string, student *model.User) (*model.ExamAttempt, error) {
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
	return attempt, nil
}

func examHasQuestion(exam *model.Exam, questionID string) bool {
	for i := range exam.Questions {
		if exam.Questions[i].ID == questionID {
			return true
		}
	}
	return false
}
