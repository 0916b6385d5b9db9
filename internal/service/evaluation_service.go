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

type EvaluationService interface {
	// RecordEvaluation upserts the single evaluation held per answer;
	// nil request fields leave the stored values untouched.
	RecordEvaluation(answerID string, admin *model.User, req dto.EvaluateAnswerRequest) (*dto.EvaluationResponse, error)
	GetEvaluation(answerID string) (*dto.EvaluationResponse, error)
	// SubmitBinaryEvaluation awards the question's full max score for a
	// correct judgment and zero otherwise.
	SubmitBinaryEvaluation(answerID string, admin *model.User, req dto.BinaryEvaluateRequest) (*dto.BinaryEvaluateResponse, error)
	EvaluationQueue(attemptID string) (*dto.EvaluationQueueResponse, error)
}

type evaluationService struct {
	answerRepo     repository.AnswerRepository
	questionRepo   repository.QuestionRepository
	evaluationRepo repository.EvaluationRepository
	attemptRepo    repository.ExamAttemptRepository
	examRepo       repository.ExamRepository
	userRepo       repository.UserRepository
}

func NewEvaluationService(
	answerRepo repository.AnswerRepository,
	questionRepo repository.QuestionRepository,
	evaluationRepo repository.EvaluationRepository,
	attemptRepo repository.ExamAttemptRepository,
	examRepo repository.ExamRepository,
	userRepo repository.UserRepository,
) EvaluationService {
	return &evaluationService{
		answerRepo:     answerRepo,
		questionRepo:   questionRepo,
		evaluationRepo: evaluationRepo,
		attemptRepo:    attemptRepo,
		examRepo:       examRepo,
		userRepo:       userRepo,
	}
}

func (s *evaluationService) RecordEvaluation(answerID string, admin *model.User, req dto.EvaluateAnswerRequest) (*dto.EvaluationResponse, error) {
	// Choice answers can be annotated too; the score merge simply
	// ignores their score_awarded.
	_, question, err := s.answerWithQuestion(answerID)
	if err != nil {
		return nil, err
	}
	if req.ScoreAwarded != nil && (*req.ScoreAwarded < 0 || *req.ScoreAwarded > float64(question.MaxScore)) {
		return nil, apperror.New(apperror.Validation,
			"score_awarded must be between 0 and %d", question.MaxScore)
	}

	evaluation, err := s.evaluationRepo.FindByAnswerID(answerID)
	switch {
	case err == nil:
		if req.IsCorrect != nil {
			evaluation.IsCorrect = req.IsCorrect
		}
		if req.Comment != nil {
			clipped := model.ClipComment(*req.Comment)
			evaluation.Comment = &clipped
		}
		if req.ScoreAwarded != nil {
			evaluation.ScoreAwarded = req.ScoreAwarded
		}
		evaluation.EvaluatedBy = admin.ID
		if err := s.evaluationRepo.Update(evaluation); err != nil {
			return nil, apperror.Wrap(apperror.Internal, err, "failed to update evaluation")
		}
	case errors.Is(err, gorm.ErrRecordNotFound):
		evaluation = &model.Evaluation{
			AnswerID:     answerID,
			EvaluatedBy:  admin.ID,
			IsCorrect:    req.IsCorrect,
			ScoreAwarded: req.ScoreAwarded,
		}
		if req.Comment != nil {
			clipped := model.ClipComment(*req.Comment)
			evaluation.Comment = &clipped
		}
		if err := s.evaluationRepo.Create(evaluation); err != nil {
			log.Error().Err(err).Str("answerID", answerID).Msg("Failed to create evaluation")
			return nil, apperror.Wrap(apperror.Internal, err, "failed to create evaluation")
		}
	default:
		return nil, apperror.Wrap(apperror.Internal, err, "failed to look up evaluation")
	}

	var resp dto.EvaluationResponse
	copier.Copy(&resp, evaluation)
	return &resp, nil
}

func (s *evaluationService) GetEvaluation(answerID string) (*dto.EvaluationResponse, error) {
	evaluation, err := s.evaluationRepo.FindByAnswerID(answerID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.New(apperror.NotFound, "evaluation not found")
		}
		return nil, apperror.Wrap(apperror.Internal, err, "failed to load evaluation")
	}
	var resp dto.EvaluationResponse
	copier.Copy(&resp, evaluation)
	return &resp, nil
}

func (s *evaluationService) SubmitBinaryEvaluation(answerID string, admin *model.User, req dto.BinaryEvaluateRequest) (*dto.BinaryEvaluateResponse, error) {
	_, question, err := s.answerWithQuestion(answerID)
	if err != nil {
		return nil, err
	}
	if !question.IsManuallyGraded() {
		return nil, apperror.New(apperror.Validation, "only text and image answers can be graded this way")
	}

	awarded := 0.0
	if *req.IsCorrect {
		awarded = float64(question.MaxScore)
	}
	update := dto.EvaluateAnswerRequest{IsCorrect: req.IsCorrect, ScoreAwarded: &awarded}
	if req.Comment != "" {
		update.Comment = &req.Comment
	}
	if _, err := s.RecordEvaluation(answerID, admin, update); err != nil {
		return nil, err
	}
	return &dto.BinaryEvaluateResponse{Status: "evaluation recorded", AnswerID: answerID, ScoreAwarded: awarded}, nil
}

// EvaluationQueue lists the attempt's manually graded answers with
// their evaluation state, for the grading workbench.
func (s *evaluationService) EvaluationQueue(attemptID string) (*dto.EvaluationQueueResponse, error) {
	attempt, err := s.attemptRepo.FindByID(attemptID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.New(apperror.NotFound, "attempt not found")
		}
		return nil, apperror.Wrap(apperror.Internal, err, "failed to load attempt")
	}
	exam, err := s.examRepo.FindByID(attempt.ExamID)
	if err != nil {
		return nil, apperror.Wrap(apperror.Internal, err, "failed to load exam")
	}
	answers, err := s.answerRepo.FindByAttemptID(attemptID)
	if err != nil {
		return nil, apperror.Wrap(apperror.Internal, err, "failed to load answers")
	}
	evaluations, err := s.evaluationRepo.FindByAnswerIDs(answerIDs(answers))
	if err != nil {
		return nil, apperror.Wrap(apperror.Internal, err, "failed to load evaluations")
	}
	byAnswer := evaluationsByAnswerID(evaluations)
	byQuestion := questionsByID(exam.Questions)

	resp := &dto.EvaluationQueueResponse{
		AttemptID:   attempt.ID,
		ExamID:      exam.ID,
		ExamTitle:   exam.Title,
		SubmittedAt: attempt.EndTime,
	}
	if student, err := s.userRepo.FindByID(attempt.StudentID); err == nil {
		copier.Copy(&resp.Student, student)
	}

	for _, answer := range answers {
		question, ok := byQuestion[answer.QuestionID]
		if !ok || !question.IsManuallyGraded() {
			continue
		}
		resp.TotalMarks += question.MaxScore
		item := dto.EvaluationQueueItem{
			AnswerID:      answer.ID,
			QuestionID:    question.ID,
			QuestionTitle: question.Title,
			QuestionType:  question.Type,
			MaxScore:      question.MaxScore,
			AnswerData:    answer.AnswerData,
		}
		if evaluation, ok := byAnswer[answer.ID]; ok {
			item.IsEvaluated = true
			item.ScoreAwarded = evaluation.ScoreAwarded
			item.Comment = evaluation.Comment
		}
		resp.Answers = append(resp.Answers, item)
	}
	return resp, nil
}

func (s *evaluationService) answerWithQuestion(answerID string) (*model.Answer, *model.Question, error) {
	answer, err := s.answerRepo.FindByID(answerID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, apperror.New(apperror.NotFound, "answer not found")
		}
		return nil, nil, apperror.Wrap(apperror.Internal, err, "failed to load answer")
	}
	question, err := s.questionRepo.FindByID(answer.QuestionID)
	if err != nil {
		return nil, nil, apperror.Wrap(apperror.Internal, err, "failed to load question")
	}
	return answer, question, nil
}
