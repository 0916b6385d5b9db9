package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/examhall/examhall/config"
	"github.com/examhall/examhall/internal/apperror"
	"github.com/examhall/examhall/internal/dto"
	"github.com/examhall/examhall/internal/model"
	"github.com/examhall/examhall/internal/repository"
	"github.com/google/generative-ai-go/genai"
	"github.com/rs/zerolog/log"
	"google.golang.org/api/option"
	"gorm.io/gorm"
)

// EvaluationAssistService drafts an advisory score and comment for a
// free-response answer. The draft is never persisted; the teacher
// records the real evaluation separately.
type EvaluationAssistService interface {
	SuggestEvaluation(ctx context.Context, answerID string) (*dto.EvaluationSuggestionResponse, error)
}

type evaluationAssistService struct {
	client       *genai.GenerativeModel
	answerRepo   repository.AnswerRepository
	questionRepo repository.QuestionRepository
}

func NewEvaluationAssistService(
	cfg *config.Config,
	answerRepo repository.AnswerRepository,
	questionRepo repository.QuestionRepository,
) (EvaluationAssistService, error) {
	s := &evaluationAssistService{answerRepo: answerRepo, questionRepo: questionRepo}
	if cfg.GeminiApiKey == "" {
		log.Warn().Msg("GEMINI_API_KEY is not set. Evaluation suggestions are unavailable.")
		return s, nil
	}
	client, err := genai.NewClient(context.Background(), option.WithAPIKey(cfg.GeminiApiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Gemini client: %w", err)
	}
	s.client = client.GenerativeModel("gemini-1.5-flash")
	return s, nil
}

func (s *evaluationAssistService) SuggestEvaluation(ctx context.Context, answerID string) (*dto.EvaluationSuggestionResponse, error) {
	if s.client == nil {
		return nil, apperror.New(apperror.InvalidState, "evaluation suggestions are not configured")
	}

	answer, err := s.answerRepo.FindByID(answerID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.New(apperror.NotFound, "answer not found")
		}
		return nil, apperror.Wrap(apperror.Internal, err, "failed to load answer")
	}
	question, err := s.questionRepo.FindByID(answer.QuestionID)
	if err != nil {
		return nil, apperror.Wrap(apperror.Internal, err, "failed to load question")
	}
	if question.Type != model.QuestionTypeText {
		return nil, apperror.New(apperror.Validation, "suggestions are only available for text answers")
	}
	answerText := answerPlainText(answer.AnswerData)
	if answerText == "" {
		return nil, apperror.New(apperror.Validation, "answer has no text content")
	}

	prompt := buildSuggestionPrompt(question, answerText)
	resp, err := s.client.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		log.Error().Err(err).Str("answerID", answerID).Msg("Gemini API error while drafting evaluation")
		return nil, apperror.Wrap(apperror.Internal, err, "evaluation suggestion failed")
	}

	raw := collectText(resp)
	if raw == "" {
		return nil, apperror.New(apperror.Internal, "evaluation suggestion returned no content")
	}
	score, comment, err := parseSuggestion(raw, float64(question.MaxScore))
	if err != nil {
		log.Warn().Err(err).Str("raw", raw).Msg("Failed to parse evaluation suggestion")
		return nil, apperror.Wrap(apperror.Internal, err, "evaluation suggestion was malformed")
	}

	return &dto.EvaluationSuggestionResponse{
		AnswerID:       answerID,
		SuggestedScore: score,
		DraftComment:   model.ClipComment(comment),
	}, nil
}

func buildSuggestionPrompt(question *model.Question, answerText string) string {
	var b strings.Builder
	b.WriteString("You are assisting a teacher who grades short written exam answers.\n")
	b.WriteString("Draft an evaluation for the student's answer below.\n\n")
	b.WriteString("Question:\n")
	b.WriteString(question.Title)
	if question.Description != nil && *question.Description != "" {
		b.WriteString("\n")
		b.WriteString(*question.Description)
	}
	if key := question.CorrectAnswers.Normalized(); len(key) > 0 {
		b.WriteString("\n\nReference answer:\n")
		b.WriteString(strings.Join(key, "; "))
	}
	b.WriteString("\n\nStudent's answer:\n---\n")
	b.WriteString(answerText)
	b.WriteString("\n---\n\n")
	fmt.Fprintf(&b, "Format your response strictly as:\nScore: [a number from 0 to %d]\nFeedback: [one or two sentences, under 100 characters]\n", question.MaxScore)
	return b.String()
}

func collectText(resp *genai.GenerateContentResponse) string {
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return ""
	}
	var b strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if txt, ok := part.(genai.Text); ok {
			b.WriteString(string(txt))
		}
	}
	return b.String()
}

// parseSuggestion extracts the "Score:" and "Feedback:" sections and
// clamps the score into [0, maxScore].
func parseSuggestion(raw string, maxScore float64) (float64, string, error) {
	scoreIdx := strings.Index(raw, "Score:")
	if scoreIdx == -1 {
		return 0, "", fmt.Errorf("response does not contain a Score: line")
	}
	rest := raw[scoreIdx+len("Score:"):]
	scoreLine := rest
	if nl := strings.Index(rest, "\n"); nl != -1 {
		scoreLine = rest[:nl]
	}
	fields := strings.Fields(scoreLine)
	if len(fields) == 0 {
		return 0, "", fmt.Errorf("empty score value")
	}
	score, err := strconv.ParseFloat(fields[0], 64)
	if err != nil {
		return 0, "", fmt.Errorf("could not parse score %q: %w", fields[0], err)
	}
	if score < 0 {
		score = 0
	}
	if score > maxScore {
		score = maxScore
	}

	comment := ""
	if fbIdx := strings.Index(raw, "Feedback:"); fbIdx != -1 {
		comment = strings.TrimSpace(raw[fbIdx+len("Feedback:"):])
	}
	return score, comment, nil
}

// answerPlainText flattens student answer data into prompt text.
func answerPlainText(value model.AnswerValue) string {
	switch value.Kind {
	case model.AnswerKindScalar:
		return value.Scalar
	case model.AnswerKindList:
		return strings.Join(value.List, "\n")
	case model.AnswerKindUpload:
		if value.Upload != nil {
			return value.Upload.Text
		}
	}
	return ""
}
