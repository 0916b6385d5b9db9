package service

import (
	"errors"
	"strings"

	"github.com/examhall/examhall/internal/apperror"
	"github.com/examhall/examhall/internal/dto"
	"github.com/examhall/examhall/internal/model"
	"github.com/examhall/examhall/internal/repository"
	"github.com/jinzhu/copier"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

// knownTags is the fixed taxonomy questions may carry. Anything else
// collapses into a single "others" label.
var knownTags = map[string]bool{
	"geography":  true,
	"history":    true,
	"science":    true,
	"world":      true,
	"literature": true,
	"art":        true,
	"space":      true,
	"biology":    true,
	"invention":  true,
}

const tagOthers = "others"

type QuestionService interface {
	CreateQuestion(req dto.CreateQuestionRequest) (*dto.QuestionResponse, error)
	ImportQuestions(req dto.ImportQuestionsRequest) (*dto.ImportQuestionsResponse, error)
	GetQuestion(id string) (*dto.QuestionResponse, error)
	SearchQuestions(filter dto.QuestionFilter) ([]dto.QuestionResponse, error)
	DeleteQuestion(id string) error
	BulkDeleteQuestions(req dto.BulkDeleteQuestionsRequest) (*dto.BulkDeleteQuestionsResponse, error)
}

type questionService struct {
	repo repository.QuestionRepository
}

func NewQuestionService(repo repository.QuestionRepository) QuestionService {
	return &questionService{repo: repo}
}

// NormalizeTags deduplicates known tags preserving their first
// appearance and folds every unknown tag into one "others" entry.
func NormalizeTags(tags []string) []string {
	if len(tags) == 0 {
		return nil
	}
	out := make([]string, 0, len(tags))
	seen := map[string]bool{}
	hasOthers := false
	for _, tag := range tags {
		cleaned := strings.ToLower(strings.TrimSpace(tag))
		if cleaned == "" {
			continue
		}
		if !knownTags[cleaned] {
			hasOthers = true
			continue
		}
		if !seen[cleaned] {
			seen[cleaned] = true
			out = append(out, cleaned)
		}
	}
	if hasOthers {
		out = append(out, tagOthers)
	}
	return out
}

func validateQuestionRequest(req *dto.CreateQuestionRequest) error {
	switch req.Type {
	case model.QuestionTypeSingleChoice, model.QuestionTypeMultiChoice:
		if len(req.Options) < 2 {
			return apperror.New(apperror.Validation, "choice questions need at least two options")
		}
		if req.CorrectAnswers.IsZero() {
			return apperror.New(apperror.Validation, "choice questions require correct_answers")
		}
		if req.Type == model.QuestionTypeSingleChoice && len(req.CorrectAnswers.Normalized()) != 1 {
			return apperror.New(apperror.Validation, "single choice questions take exactly one correct answer")
		}
	case model.QuestionTypeText, model.QuestionTypeImageUpload:
		// Manually graded; a reference answer is optional.
	default:
		return apperror.New(apperror.Validation, "unknown question type %q", req.Type)
	}

	if req.MaxScore < 0 {
		return apperror.New(apperror.Validation, "max_score must not be negative")
	}
	if req.MaxScore == 0 {
		req.MaxScore = 1
	}
	return nil
}

func buildQuestion(req dto.CreateQuestionRequest) model.Question {
	return model.Question{
		Title:          req.Title,
		Description:    req.Description,
		Complexity:     req.Complexity,
		Type:           req.Type,
		Options:        model.StringList(req.Options),
		CorrectAnswers: req.CorrectAnswers,
		MaxScore:       req.MaxScore,
		Tags:           model.StringList(NormalizeTags(req.Tags)),
	}
}

func (s *questionService) CreateQuestion(req dto.CreateQuestionRequest) (*dto.QuestionResponse, error) {
	if err := validateQuestionRequest(&req); err != nil {
		return nil, err
	}
	question := buildQuestion(req)
	if err := s.repo.Create(&question); err != nil {
		log.Error().Err(err).Str("title", req.Title).Msg("Failed to create question")
		return nil, apperror.Wrap(apperror.Internal, err, "failed to create question")
	}
	var resp dto.QuestionResponse
	copier.Copy(&resp, &question)
	return &resp, nil
}

// ImportQuestions validates the whole batch up front; one bad row
// rejects the import so a partial batch never lands.
func (s *questionService) ImportQuestions(req dto.ImportQuestionsRequest) (*dto.ImportQuestionsResponse, error) {
	questions := make([]model.Question, 0, len(req.Questions))
	for i := range req.Questions {
		if err := validateQuestionRequest(&req.Questions[i]); err != nil {
			return nil, apperror.New(apperror.Validation, "question %d: %s", i+1, apperror.Message(err))
		}
		questions = append(questions, buildQuestion(req.Questions[i]))
	}
	for i := range questions {
		if err := s.repo.Create(&questions[i]); err != nil {
			log.Error().Err(err).Int("row", i+1).Msg("Failed to import question")
			return nil, apperror.Wrap(apperror.Internal, err, "failed to import question %d", i+1)
		}
	}
	return &dto.ImportQuestionsResponse{Status: "success", RowsImported: len(questions)}, nil
}

func (s *questionService) GetQuestion(id string) (*dto.QuestionResponse, error) {
	question, err := s.repo.FindByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.New(apperror.NotFound, "question not found")
		}
		return nil, apperror.Wrap(apperror.Internal, err, "failed to load question")
	}
	var resp dto.QuestionResponse
	copier.Copy(&resp, question)
	return &resp, nil
}

func (s *questionService) SearchQuestions(filter dto.QuestionFilter) ([]dto.QuestionResponse, error) {
	questions, err := s.repo.Search(filter)
	if err != nil {
		return nil, apperror.Wrap(apperror.Internal, err, "failed to search questions")
	}
	resp := make([]dto.QuestionResponse, 0, len(questions))
	copier.Copy(&resp, &questions)
	return resp, nil
}

func (s *questionService) DeleteQuestion(id string) error {
	if err := s.repo.Delete(id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperror.New(apperror.NotFound, "question not found")
		}
		return apperror.Wrap(apperror.Internal, err, "failed to delete question")
	}
	return nil
}

// BulkDeleteQuestions keeps going past individual failures and reports
// how many rows went each way.
func (s *questionService) BulkDeleteQuestions(req dto.BulkDeleteQuestionsRequest) (*dto.BulkDeleteQuestionsResponse, error) {
	deleted, failed := 0, 0
	for _, id := range req.QuestionIDs {
		if err := s.repo.Delete(id); err != nil {
			log.Warn().Err(err).Str("questionID", id).Msg("Bulk delete: question skipped")
			failed++
			continue
		}
		deleted++
	}
	return &dto.BulkDeleteQuestionsResponse{Status: "completed", Deleted: deleted, Failed: failed}, nil
}
