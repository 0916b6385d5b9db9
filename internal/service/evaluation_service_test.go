package service

import (
	"strings"
	"testing"
	"time"

	"github.com/examhall/examhall/internal/apperror"
	"github.com/examhall/examhall/internal/dto"
	"github.com/examhall/examhall/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// submitWithTextAnswer builds a submitted attempt holding one graded
// choice answer and one text answer awaiting evaluation.
func submitWithTextAnswer(t *testing.T, env *testEnv) (student *model.User, attemptID, textAnswerID string, textQ *model.Question) {
	t.Helper()
	student = env.createStudent(t, "student@example.com")
	choice := env.createQuestion(t, model.Question{
		Title:          "2+2",
		Type:           model.QuestionTypeSingleChoice,
		Options:        model.StringList{"3", "4"},
		CorrectAnswers: model.ScalarAnswer("4"),
		MaxScore:       3,
	})
	textQ = env.createQuestion(t, model.Question{
		Title:    "Explain gravity",
		Type:     model.QuestionTypeText,
		MaxScore: 2,
	})
	now := time.Now().UTC()
	exam := env.createPublishedExam(t, now.Add(-time.Hour), now.Add(time.Hour), 60, choice, textQ)
	env.setNow(t, now)

	session, err := env.attempts.StartExam(exam.ID, student)
	require.NoError(t, err)
	attemptID = session.Attempt.ID

	_, err = env.answers.SaveAnswer(attemptID, student, dto.SaveAnswerRequest{
		QuestionID: choice.ID,
		AnswerData: model.ScalarAnswer("4"),
	})
	require.NoError(t, err)
	textAnswer, err := env.answers.SaveAnswer(attemptID, student, dto.SaveAnswerRequest{
		QuestionID: textQ.ID,
		AnswerData: model.ScalarAnswer("masses attract"),
	})
	require.NoError(t, err)

	_, err = env.grading.SubmitAttempt(attemptID, student)
	require.NoError(t, err)
	return student, attemptID, textAnswer.ID, textQ
}

func TestRecordEvaluationUpsertsAndMerges(t *testing.T) {
	env := newTestEnv(t)
	admin := env.createAdmin(t, "admin@example.com")
	student, attemptID, answerID, _ := submitWithTextAnswer(t, env)

	score := 1.5
	first, err := env.evaluation.RecordEvaluation(answerID, admin, dto.EvaluateAnswerRequest{ScoreAwarded: &score})
	require.NoError(t, err)
	assert.Equal(t, admin.ID, first.EvaluatedBy)

	comment := "solid answer"
	second, err := env.evaluation.RecordEvaluation(answerID, admin, dto.EvaluateAnswerRequest{Comment: &comment})
	require.NoError(t, err)
	// The partial update keeps the earlier score.
	assert.Equal(t, first.ID, second.ID)
	require.NotNil(t, second.ScoreAwarded)
	assert.Equal(t, 1.5, *second.ScoreAwarded)
	require.NotNil(t, second.Comment)
	assert.Equal(t, "solid answer", *second.Comment)

	results, err := env.results.EvaluatedResults(attemptID, student)
	require.NoError(t, err)
	// Auto score 3 plus manual 1.5, against a total of 5.
	assert.Equal(t, 4.5, results.Score)
	assert.Equal(t, 90.0, results.Percentage)
}

func TestRecordEvaluationClipsComment(t *testing.T) {
	env := newTestEnv(t)
	admin := env.createAdmin(t, "admin@example.com")
	_, _, answerID, _ := submitWithTextAnswer(t, env)

	long := strings.Repeat("a", 150)
	resp, err := env.evaluation.RecordEvaluation(answerID, admin, dto.EvaluateAnswerRequest{Comment: &long})
	require.NoError(t, err)
	require.NotNil(t, resp.Comment)
	assert.Len(t, *resp.Comment, model.CommentMaxLen)
}

func TestRecordEvaluationScoreRange(t *testing.T) {
	env := newTestEnv(t)
	admin := env.createAdmin(t, "admin@example.com")
	_, _, answerID, _ := submitWithTextAnswer(t, env)

	tooHigh := 99.0
	_, err := env.evaluation.RecordEvaluation(answerID, admin, dto.EvaluateAnswerRequest{ScoreAwarded: &tooHigh})
	require.Error(t, err)
	assert.Equal(t, apperror.Validation, apperror.KindOf(err))

	negative := -1.0
	_, err = env.evaluation.RecordEvaluation(answerID, admin, dto.EvaluateAnswerRequest{ScoreAwarded: &negative})
	require.Error(t, err)
	assert.Equal(t, apperror.Validation, apperror.KindOf(err))
}

func TestChoiceAnswerAnnotationsNeverChangeScore(t *testing.T) {
	env := newTestEnv(t)
	admin := env.createAdmin(t, "admin@example.com")
	student := env.createStudent(t, "student@example.com")
	q := env.createQuestion(t, model.Question{
		Title:          "2+2",
		Type:           model.QuestionTypeSingleChoice,
		Options:        model.StringList{"3", "4"},
		CorrectAnswers: model.ScalarAnswer("4"),
		MaxScore:       1,
	})
	_, attemptID := openAttempt(t, env, student, q)
	answer, err := env.answers.SaveAnswer(attemptID, student, dto.SaveAnswerRequest{
		QuestionID: q.ID,
		AnswerData: model.ScalarAnswer("4"),
	})
	require.NoError(t, err)
	_, err = env.grading.SubmitAttempt(attemptID, student)
	require.NoError(t, err)

	// An annotation on a choice answer is stored but its score is
	// ignored by the merge.
	correct := true
	score := 1.0
	_, err = env.evaluation.RecordEvaluation(answer.ID, admin, dto.EvaluateAnswerRequest{IsCorrect: &correct, ScoreAwarded: &score})
	require.NoError(t, err)

	results, err := env.results.EvaluatedResults(attemptID, student)
	require.NoError(t, err)
	assert.Equal(t, 1.0, results.Score)

	// The binary shortcut stays restricted to manual question types.
	_, err = env.evaluation.SubmitBinaryEvaluation(answer.ID, admin, dto.BinaryEvaluateRequest{IsCorrect: &correct})
	require.Error(t, err)
	assert.Equal(t, apperror.Validation, apperror.KindOf(err))
}

func TestBinaryEvaluationAwardsFullOrZero(t *testing.T) {
	env := newTestEnv(t)
	admin := env.createAdmin(t, "admin@example.com")
	_, _, answerID, textQ := submitWithTextAnswer(t, env)

	correct := true
	resp, err := env.evaluation.SubmitBinaryEvaluation(answerID, admin, dto.BinaryEvaluateRequest{IsCorrect: &correct})
	require.NoError(t, err)
	assert.Equal(t, float64(textQ.MaxScore), resp.ScoreAwarded)

	incorrect := false
	resp, err = env.evaluation.SubmitBinaryEvaluation(answerID, admin, dto.BinaryEvaluateRequest{IsCorrect: &incorrect})
	require.NoError(t, err)
	assert.Zero(t, resp.ScoreAwarded)

	stored, err := env.evaluationRepo.FindByAnswerID(answerID)
	require.NoError(t, err)
	require.NotNil(t, stored.ScoreAwarded)
	assert.Zero(t, *stored.ScoreAwarded)
}

func TestMergedFinalScoreIsCapped(t *testing.T) {
	auto := 3.0
	total := 5.0
	attempt := &model.ExamAttempt{ID: "att", Score: &auto, TotalPossibleScore: &total}
	textQ := model.Question{ID: "q-text", Type: model.QuestionTypeText, MaxScore: 3}
	answers := []model.Answer{{ID: "ans", QuestionID: "q-text"}}
	awarded := 3.0
	evals := map[string]model.Evaluation{"ans": {AnswerID: "ans", ScoreAwarded: &awarded}}

	final := mergedFinalScore(attempt, answers, map[string]model.Question{"q-text": textQ}, evals)
	assert.Equal(t, 5.0, final)
}

func TestMergedFinalScoreWithoutAutoScoreIsUncapped(t *testing.T) {
	total := 2.0
	attempt := &model.ExamAttempt{ID: "att", TotalPossibleScore: &total}
	textQ := model.Question{ID: "q-text", Type: model.QuestionTypeText, MaxScore: 3}
	answers := []model.Answer{{ID: "ans", QuestionID: "q-text"}}
	awarded := 3.0
	evals := map[string]model.Evaluation{"ans": {AnswerID: "ans", ScoreAwarded: &awarded}}

	final := mergedFinalScore(attempt, answers, map[string]model.Question{"q-text": textQ}, evals)
	assert.Equal(t, 3.0, final)
}

func TestMergedFinalScoreIgnoresEvaluationsOnChoiceAnswers(t *testing.T) {
	auto := 1.0
	total := 4.0
	attempt := &model.ExamAttempt{ID: "att", Score: &auto, TotalPossibleScore: &total}
	choice := model.Question{ID: "q-choice", Type: model.QuestionTypeSingleChoice, MaxScore: 1}
	answers := []model.Answer{{ID: "ans", QuestionID: "q-choice"}}
	awarded := 3.0
	evals := map[string]model.Evaluation{"ans": {AnswerID: "ans", ScoreAwarded: &awarded}}

	final := mergedFinalScore(attempt, answers, map[string]model.Question{"q-choice": choice}, evals)
	assert.Equal(t, 1.0, final)
}

func TestEvaluationQueueListsManualAnswersOnly(t *testing.T) {
	env := newTestEnv(t)
	admin := env.createAdmin(t, "admin@example.com")
	_, attemptID, answerID, textQ := submitWithTextAnswer(t, env)

	queue, err := env.evaluation.EvaluationQueue(attemptID)
	require.NoError(t, err)
	require.Len(t, queue.Answers, 1)
	assert.Equal(t, answerID, queue.Answers[0].AnswerID)
	assert.Equal(t, textQ.MaxScore, queue.TotalMarks)
	assert.False(t, queue.Answers[0].IsEvaluated)

	score := 2.0
	_, err = env.evaluation.RecordEvaluation(answerID, admin, dto.EvaluateAnswerRequest{ScoreAwarded: &score})
	require.NoError(t, err)

	queue, err = env.evaluation.EvaluationQueue(attemptID)
	require.NoError(t, err)
	assert.True(t, queue.Answers[0].IsEvaluated)
	require.NotNil(t, queue.Answers[0].ScoreAwarded)
	assert.Equal(t, 2.0, *queue.Answers[0].ScoreAwarded)
}
