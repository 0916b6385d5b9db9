package service

import (
	"errors"

	"github.com/examhall/examhall/internal/apperror"
	"github.com/examhall/examhall/internal/dto"
	"github.com/examhall/examhall/internal/model"
	"github.com/examhall/examhall/internal/repository"
	"github.com/jinzhu/copier"
	"gorm.io/gorm"
)

type ResultService interface {
	CompletedExams(student *model.User) ([]dto.CompletedExamResponse, error)
	// AttemptResults returns the submitted attempt with the full answer
	// key, per-answer evaluations, and the score with manual awards
	// folded in. It is only visible after submission.
	AttemptResults(attemptID string, student *model.User) (*dto.AttemptResultsResponse, error)
	// AdminAttemptResults is the same view without the ownership check.
	AdminAttemptResults(attemptID string) (*dto.AttemptResultsResponse, error)
	EvaluatedResults(attemptID string, student *model.User) (*dto.EvaluatedResultsResponse, error)
}

type resultService struct {
	attemptRepo    repository.ExamAttemptRepository
	examRepo       repository.ExamRepository
	answerRepo     repository.AnswerRepository
	evaluationRepo repository.EvaluationRepository
}

func NewResultService(
	attemptRepo repository.ExamAttemptRepository,
	examRepo repository.ExamRepository,
	answerRepo repository.AnswerRepository,
	evaluationRepo repository.EvaluationRepository,
) ResultService {
	return &resultService{
		attemptRepo:    attemptRepo,
		examRepo:       examRepo,
		answerRepo:     answerRepo,
		evaluationRepo: evaluationRepo,
	}
}

func (s *resultService) CompletedExams(student *model.User) ([]dto.CompletedExamResponse, error) {
	attempts, err := s.attemptRepo.FindFinishedByStudent(student.ID)
	if err != nil {
		return nil, apperror.Wrap(apperror.Internal, err, "failed to list attempts")
	}

	resp := make([]dto.CompletedExamResponse, 0, len(attempts))
	for i := range attempts {
		attempt := &attempts[i]
		exam, err := s.examRepo.FindByID(attempt.ExamID)
		if err != nil {
			return nil, apperror.Wrap(apperror.Internal, err, "failed to load exam")
		}
		final, err := s.finalScore(attempt, exam)
		if err != nil {
			return nil, err
		}
		resp = append(resp, dto.CompletedExamResponse{
			ID:                 attempt.ID,
			ExamID:             exam.ID,
			ExamTitle:          exam.Title,
			Score:              final,
			TotalPossibleScore: attempt.TotalPossibleScore,
			Percentage:         percentageOf(final, attempt.TotalPossibleScore),
			EndTime:            *attempt.EndTime,
		})
	}
	return resp, nil
}

func (s *resultService) AttemptResults(attemptID string, student *model.User) (*dto.AttemptResultsResponse, error) {
	attempt, err := s.findAttempt(attemptID)
	if err != nil {
		return nil, err
	}
	if attempt.StudentID != student.ID {
		return nil, apperror.New(apperror.PermissionDenied, "attempt belongs to another student")
	}
	return s.attemptResults(attempt)
}

func (s *resultService) AdminAttemptResults(attemptID string) (*dto.AttemptResultsResponse, error) {
	attempt, err := s.findAttempt(attemptID)
	if err != nil {
		return nil, err
	}
	return s.attemptResults(attempt)
}

func (s *resultService) attemptResults(attempt *model.ExamAttempt) (*dto.AttemptResultsResponse, error) {
	if !attempt.Submitted() {
		return nil, apperror.New(apperror.InvalidState, "attempt has not been submitted yet")
	}
	exam, err := s.examRepo.FindByID(attempt.ExamID)
	if err != nil {
		return nil, apperror.Wrap(apperror.Internal, err, "failed to load exam")
	}
	answers, err := s.answerRepo.FindByAttemptID(attempt.ID)
	if err != nil {
		return nil, apperror.Wrap(apperror.Internal, err, "failed to load answers")
	}
	evaluations, err := s.evaluationRepo.FindByAnswerIDs(answerIDs(answers))
	if err != nil {
		return nil, apperror.Wrap(apperror.Internal, err, "failed to load evaluations")
	}
	byAnswer := evaluationsByAnswerID(evaluations)

	resp := &dto.AttemptResultsResponse{}
	copier.Copy(&resp.Attempt.AttemptResponse, attempt)
	resp.Attempt.Answers = make([]dto.AnswerResponse, 0, len(answers))
	copier.Copy(&resp.Attempt.Answers, &answers)
	for i := range resp.Attempt.Answers {
		if evaluation, ok := byAnswer[resp.Attempt.Answers[i].ID]; ok {
			var evalResp dto.EvaluationResponse
			copier.Copy(&evalResp, &evaluation)
			resp.Attempt.Answers[i].Evaluation = &evalResp
		}
	}
	// The displayed score folds in manual awards, same as the
	// evaluated-results view.
	final := mergedFinalScore(attempt, answers, questionsByID(exam.Questions), byAnswer)
	resp.Attempt.Score = &final
	examResp := toExamResponse(exam)
	resp.Exam = *examResp
	return resp, nil
}

func (s *resultService) EvaluatedResults(attemptID string, student *model.User) (*dto.EvaluatedResultsResponse, error) {
	attempt, err := s.findAttempt(attemptID)
	if err != nil {
		return nil, err
	}
	if attempt.StudentID != student.ID {
		return nil, apperror.New(apperror.PermissionDenied, "attempt belongs to another student")
	}
	if !attempt.Submitted() {
		return nil, apperror.New(apperror.InvalidState, "attempt has not been submitted yet")
	}

	exam, err := s.examRepo.FindByID(attempt.ExamID)
	if err != nil {
		return nil, apperror.Wrap(apperror.Internal, err, "failed to load exam")
	}
	answers, err := s.answerRepo.FindByAttemptID(attempt.ID)
	if err != nil {
		return nil, apperror.Wrap(apperror.Internal, err, "failed to load answers")
	}
	evaluations, err := s.evaluationRepo.FindByAnswerIDs(answerIDs(answers))
	if err != nil {
		return nil, apperror.Wrap(apperror.Internal, err, "failed to load evaluations")
	}
	byAnswer := evaluationsByAnswerID(evaluations)
	byQuestion := questionsByID(exam.Questions)

	final := mergedFinalScore(attempt, answers, byQuestion, byAnswer)
	resp := &dto.EvaluatedResultsResponse{
		ExamTitle:          exam.Title,
		Score:              final,
		TotalPossibleScore: attempt.TotalPossibleScore,
		Percentage:         percentageOf(final, attempt.TotalPossibleScore),
		SubmittedAt:        *attempt.EndTime,
		PublishedBy:        exam.PublishedBy,
	}
	for _, answer := range answers {
		question := byQuestion[answer.QuestionID]
		item := dto.AnswerWithEvaluationResponse{
			ID:            answer.ID,
			QuestionID:    answer.QuestionID,
			QuestionTitle: question.Title,
			QuestionType:  question.Type,
			AnswerData:    answer.AnswerData,
		}
		if evaluation, ok := byAnswer[answer.ID]; ok {
			var evalResp dto.EvaluationResponse
			copier.Copy(&evalResp, &evaluation)
			item.Evaluation = &evalResp
		}
		resp.Answers = append(resp.Answers, item)
	}
	return resp, nil
}

// finalScore recomputes the merged score for one finished attempt.
func (s *resultService) finalScore(attempt *model.ExamAttempt, exam *model.Exam) (float64, error) {
	answers, err := s.answerRepo.FindByAttemptID(attempt.ID)
	if err != nil {
		return 0, apperror.Wrap(apperror.Internal, err, "failed to load answers")
	}
	evaluations, err := s.evaluationRepo.FindByAnswerIDs(answerIDs(answers))
	if err != nil {
		return 0, apperror.Wrap(apperror.Internal, err, "failed to load evaluations")
	}
	return mergedFinalScore(attempt, answers, questionsByID(exam.Questions), evaluationsByAnswerID(evaluations)), nil
}

func (s *resultService) findAttempt(attemptID string) (*model.ExamAttempt, error) {
	attempt, err := s.attemptRepo.FindByID(attemptID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.New(apperror.NotFound, "attempt not found")
		}
		return nil, apperror.Wrap(apperror.Internal, err, "failed to load attempt")
	}
	return attempt, nil
}
