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

type AttemptService interface {
	// StartExam opens an attempt, or returns the student's already open
	// attempt for this exam. A student can never hold two open attempts
	// on the same exam.
	StartExam(examID string, student *model.User) (*dto.ExamSessionResponse, error)
	ResumeAttempt(attemptID string, student *model.User) (*dto.ExamSessionResponse, error)
	AvailableExams(student *model.User) ([]dto.AvailableExamResponse, error)
	UnfinishedAttempts(student *model.User) ([]dto.UnfinishedAttemptResponse, error)
}

type attemptService struct {
	examRepo    repository.ExamRepository
	attemptRepo repository.ExamAttemptRepository
	grading     GradingService
	db          *gorm.DB
	now         func() time.Time
}

func NewAttemptService(
	examRepo repository.ExamRepository,
	attemptRepo repository.ExamAttemptRepository,
	grading GradingService,
	db *gorm.DB,
) AttemptService {
	return &attemptService{
		examRepo:    examRepo,
		attemptRepo: attemptRepo,
		grading:     grading,
		db:          db,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

func (s *attemptService) StartExam(examID string, student *model.User) (*dto.ExamSessionResponse, error) {
	exam, err := s.examRepo.FindByID(examID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.New(apperror.NotFound, "exam not found")
		}
		return nil, apperror.Wrap(apperror.Internal, err, "failed to load exam")
	}
	if !exam.IsPublished {
		return nil, apperror.New(apperror.InvalidState, "exam is not published")
	}
	if !exam.OpenToCandidate(student.ExamCandidate) {
		return nil, apperror.New(apperror.PermissionDenied, "you are not eligible for this exam")
	}

	now := s.now()
	if now.Before(exam.StartTime) {
		return nil, apperror.New(apperror.InvalidState,
			"exam has not started yet. It starts at %s", exam.StartTime.Format(time.RFC3339))
	}
	if now.After(exam.EndTime) {
		return nil, apperror.New(apperror.InvalidState,
			"exam has already ended. It ended at %s", exam.EndTime.Format(time.RFC3339))
	}

	attempt, err := s.findOrCreateAttempt(examID, student.ID, now)
	if err != nil {
		return nil, err
	}
	return s.buildSession(exam, attempt, now, false), nil
}

// findOrCreateAttempt races safely against concurrent starts: the
// partial unique index on open attempts makes the insert lose, and the
// loser re-reads the winner's row.
func (s *attemptService) findOrCreateAttempt(examID, studentID string, now time.Time) (*model.ExamAttempt, error) {
	attempt, err := s.attemptRepo.FindOpen(examID, studentID)
	if err == nil {
		return attempt, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperror.Wrap(apperror.Internal, err, "failed to look up open attempt")
	}

	fresh := &model.ExamAttempt{ExamID: examID, StudentID: studentID, StartTime: now}
	err = s.db.Transaction(func(tx *gorm.DB) error {
		return tx.Create(fresh).Error
	})
	if err == nil {
		log.Info().Str("attemptID", fresh.ID).Str("examID", examID).Str("studentID", studentID).Msg("Attempt started")
		return fresh, nil
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		existing, findErr := s.attemptRepo.FindOpen(examID, studentID)
		if findErr != nil {
			return nil, apperror.Wrap(apperror.Internal, findErr, "failed to load concurrent attempt")
		}
		return existing, nil
	}
	return nil, apperror.Wrap(apperror.Internal, err, "failed to create attempt")
}

func (s *attemptService) ResumeAttempt(attemptID string, student *model.User) (*dto.ExamSessionResponse, error) {
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

	exam, err := s.examRepo.FindByID(attempt.ExamID)
	if err != nil {
		return nil, apperror.Wrap(apperror.Internal, err, "failed to load exam")
	}

	now := s.now()
	if now.After(exam.EndTime) {
		// The window closed while the student was away; the attempt is
		// graded with whatever answers were saved.
		if err := s.grading.Finalize(attempt, now); err != nil {
			return nil, err
		}
		log.Info().Str("attemptID", attempt.ID).Msg("Attempt auto submitted on resume after exam end")
		return s.buildSession(exam, attempt, now, true), nil
	}
	return s.buildSession(exam, attempt, now, false), nil
}

func (s *attemptService) AvailableExams(student *model.User) ([]dto.AvailableExamResponse, error) {
	exams, err := s.examRepo.FindPublished()
	if err != nil {
		return nil, apperror.Wrap(apperror.Internal, err, "failed to list exams")
	}

	now := s.now()
	resp := make([]dto.AvailableExamResponse, 0, len(exams))
	for i := range exams {
		exam := &exams[i]
		if !exam.OpenToCandidate(student.ExamCandidate) {
			continue
		}
		resp = append(resp, toAvailableExamResponse(exam, now))
	}
	return resp, nil
}

func (s *attemptService) UnfinishedAttempts(student *model.User) ([]dto.UnfinishedAttemptResponse, error) {
	attempts, err := s.attemptRepo.FindUnfinishedByStudent(student.ID)
	if err != nil {
		return nil, apperror.Wrap(apperror.Internal, err, "failed to list attempts")
	}

	now := s.now()
	resp := make([]dto.UnfinishedAttemptResponse, 0, len(attempts))
	for i := range attempts {
		attempt := &attempts[i]
		exam, err := s.examRepo.FindByID(attempt.ExamID)
		if err != nil {
			return nil, apperror.Wrap(apperror.Internal, err, "failed to load exam")
		}
		item := dto.UnfinishedAttemptResponse{Exam: toAvailableExamResponse(exam, now)}
		copier.Copy(&item.AttemptResponse, attempt)
		resp = append(resp, item)
	}
	return resp, nil
}

func (s *attemptService) buildSession(
	exam *model.Exam,
	attempt *model.ExamAttempt,
	now time.Time,
	autoSubmitted bool,
) *dto.ExamSessionResponse {
	view := dto.ExamSessionView{
		ID:              exam.ID,
		Title:           exam.Title,
		StartTime:       exam.StartTime,
		EndTime:         exam.EndTime,
		DurationMinutes: exam.DurationMinutes,
		IsPublished:     exam.IsPublished,
		Questions:       toStudentQuestions(exam.Questions),
		ExamEndTime:     exam.EndTime,
	}
	if !attempt.Submitted() {
		view.TimeRemainingSeconds = attempt.TimeRemainingSeconds(exam.DurationMinutes, now)
	}

	var attemptResp dto.AttemptResponse
	copier.Copy(&attemptResp, attempt)
	return &dto.ExamSessionResponse{Exam: view, Attempt: attemptResp, AutoSubmitted: autoSubmitted}
}

// toStudentQuestions strips correct answers; the student view must
// never carry the answer key.
func toStudentQuestions(questions []model.Question) []dto.StudentQuestionResponse {
	resp := make([]dto.StudentQuestionResponse, 0, len(questions))
	for i := range questions {
		var item dto.StudentQuestionResponse
		copier.Copy(&item, &questions[i])
		resp = append(resp, item)
	}
	return resp
}

func toAvailableExamResponse(exam *model.Exam, now time.Time) dto.AvailableExamResponse {
	return dto.AvailableExamResponse{
		ID:               exam.ID,
		Title:            exam.Title,
		StartTime:        exam.StartTime,
		EndTime:          exam.EndTime,
		DurationMinutes:  exam.DurationMinutes,
		IsPublished:      exam.IsPublished,
		PublishedBy:      exam.PublishedBy,
		TargetCandidates: exam.TargetCandidates,
		IsExpired:        now.After(exam.EndTime),
		IsUpcoming:       now.Before(exam.StartTime),
		IsActive:         exam.WindowOpen(now),
		Questions:        toStudentQuestions(exam.Questions),
	}
}
