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

type ExamService interface {
	CreateExam(req dto.CreateExamRequest) (*dto.ExamResponse, error)
	GetExam(id string) (*dto.ExamResponse, error)
	ListExams() ([]dto.ExamResponse, error)
	PublishExam(id string, admin *model.User) (*dto.ExamResponse, error)
	UnpublishExam(id string) (*dto.ExamResponse, error)
	DeleteExam(id string) error
	ListExamAttempts(examID string) ([]dto.AdminAttemptSummaryResponse, error)
}

type examService struct {
	examRepo       repository.ExamRepository
	questionRepo   repository.QuestionRepository
	attemptRepo    repository.ExamAttemptRepository
	userRepo       repository.UserRepository
	answerRepo     repository.AnswerRepository
	evaluationRepo repository.EvaluationRepository
}

func NewExamService(
	examRepo repository.ExamRepository,
	questionRepo repository.QuestionRepository,
	attemptRepo repository.ExamAttemptRepository,
	userRepo repository.UserRepository,
	answerRepo repository.AnswerRepository,
	evaluationRepo repository.EvaluationRepository,
) ExamService {
	return &examService{
		examRepo:       examRepo,
		questionRepo:   questionRepo,
		attemptRepo:    attemptRepo,
		userRepo:       userRepo,
		answerRepo:     answerRepo,
		evaluationRepo: evaluationRepo,
	}
}

func (s *examService) CreateExam(req dto.CreateExamRequest) (*dto.ExamResponse, error) {
	if !req.EndTime.After(req.StartTime) {
		return nil, apperror.New(apperror.Validation, "end_time must be after start_time")
	}

	questions, err := s.questionRepo.FindByIDs(req.QuestionIDs)
	if err != nil {
		return nil, apperror.Wrap(apperror.Internal, err, "failed to load questions")
	}
	if len(questions) != len(uniqueIDs(req.QuestionIDs)) {
		return nil, apperror.New(apperror.Validation, "one or more question_ids do not exist")
	}

	exam := model.Exam{
		Title:            req.Title,
		StartTime:        req.StartTime,
		EndTime:          req.EndTime,
		DurationMinutes:  req.DurationMinutes,
		TargetCandidates: req.TargetCandidates,
		Questions:        questions,
	}
	if err := s.examRepo.Create(&exam); err != nil {
		log.Error().Err(err).Str("title", req.Title).Msg("Failed to create exam")
		return nil, apperror.Wrap(apperror.Internal, err, "failed to create exam")
	}
	return toExamResponse(&exam), nil
}

func (s *examService) GetExam(id string) (*dto.ExamResponse, error) {
	exam, err := s.findExam(id)
	if err != nil {
		return nil, err
	}
	return toExamResponse(exam), nil
}

func (s *examService) ListExams() ([]dto.ExamResponse, error) {
	exams, err := s.examRepo.FindAll()
	if err != nil {
		return nil, apperror.Wrap(apperror.Internal, err, "failed to list exams")
	}
	resp := make([]dto.ExamResponse, 0, len(exams))
	for i := range exams {
		resp = append(resp, *toExamResponse(&exams[i]))
	}
	return resp, nil
}

// PublishExam is idempotent; republishing an already published exam
// leaves the original publisher stamp intact.
func (s *examService) PublishExam(id string, admin *model.User) (*dto.ExamResponse, error) {
	exam, err := s.findExam(id)
	if err != nil {
		return nil, err
	}
	if !exam.IsPublished {
		exam.IsPublished = true
		exam.PublishedBy = &admin.ID
		if err := s.examRepo.Update(exam); err != nil {
			return nil, apperror.Wrap(apperror.Internal, err, "failed to publish exam")
		}
		log.Info().Str("examID", id).Str("adminID", admin.ID).Msg("Exam published")
	}
	return toExamResponse(exam), nil
}

func (s *examService) UnpublishExam(id string) (*dto.ExamResponse, error) {
	exam, err := s.findExam(id)
	if err != nil {
		return nil, err
	}
	// The publisher stamp survives unpublish; it records who last
	// exposed the exam, not whether it is currently exposed.
	if exam.IsPublished {
		exam.IsPublished = false
		if err := s.examRepo.Update(exam); err != nil {
			return nil, apperror.Wrap(apperror.Internal, err, "failed to unpublish exam")
		}
		log.Info().Str("examID", id).Msg("Exam unpublished")
	}
	return toExamResponse(exam), nil
}

func (s *examService) DeleteExam(id string) error {
	if err := s.examRepo.Delete(id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperror.New(apperror.NotFound, "exam not found")
		}
		return apperror.Wrap(apperror.Internal, err, "failed to delete exam")
	}
	return nil
}

// ListExamAttempts reports every attempt of the exam with the merged
// final score, so evaluated manual answers show up in the total.
func (s *examService) ListExamAttempts(examID string) ([]dto.AdminAttemptSummaryResponse, error) {
	exam, err := s.findExam(examID)
	if err != nil {
		return nil, err
	}
	attempts, err := s.attemptRepo.FindByExamID(examID)
	if err != nil {
		return nil, apperror.Wrap(apperror.Internal, err, "failed to list attempts")
	}

	byQuestion := questionsByID(exam.Questions)
	summaries := make([]dto.AdminAttemptSummaryResponse, 0, len(attempts))
	for i := range attempts {
		attempt := &attempts[i]
		answers, err := s.answerRepo.FindByAttemptID(attempt.ID)
		if err != nil {
			return nil, apperror.Wrap(apperror.Internal, err, "failed to load answers")
		}
		evaluations, err := s.evaluationRepo.FindByAnswerIDs(answerIDs(answers))
		if err != nil {
			return nil, apperror.Wrap(apperror.Internal, err, "failed to load evaluations")
		}
		byAnswer := evaluationsByAnswerID(evaluations)

		summary := dto.AdminAttemptSummaryResponse{
			ID:                 attempt.ID,
			ExamID:             attempt.ExamID,
			StudentID:          attempt.StudentID,
			StartTime:          attempt.StartTime,
			EndTime:            attempt.EndTime,
			Score:              mergedFinalScore(attempt, answers, byQuestion, byAnswer),
			TotalPossibleScore: attempt.TotalPossibleScore,
			IsSubmitted:        attempt.Submitted(),
			IsEvaluated:        len(evaluations) > 0,
		}
		// The most recent evaluator is the one shown.
		var latestEvaluation time.Time
		for i := range evaluations {
			if summary.EvaluatedBy == nil || evaluations[i].UpdatedAt.After(latestEvaluation) {
				summary.EvaluatedBy = &evaluations[i].EvaluatedBy
				latestEvaluation = evaluations[i].UpdatedAt
			}
		}
		if student, err := s.userRepo.FindByID(attempt.StudentID); err == nil {
			copier.Copy(&summary.Student, student)
		}
		summaries = append(summaries, summary)
	}
	return summaries, nil
}

func (s *examService) findExam(id string) (*model.Exam, error) {
	exam, err := s.examRepo.FindByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.New(apperror.NotFound, "exam not found")
		}
		return nil, apperror.Wrap(apperror.Internal, err, "failed to load exam")
	}
	return exam, nil
}

func toExamResponse(exam *model.Exam) *dto.ExamResponse {
	var resp dto.ExamResponse
	copier.Copy(&resp, exam)
	resp.Questions = make([]dto.QuestionResponse, 0, len(exam.Questions))
	copier.Copy(&resp.Questions, &exam.Questions)
	return &resp
}

func uniqueIDs(ids []string) []string {
	seen := make(map[string]bool, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	return out
}
