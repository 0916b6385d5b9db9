package service

import (
	"testing"
	"time"

	"github.com/examhall/examhall/internal/apperror"
	"github.com/examhall/examhall/internal/dto"
	"github.com/examhall/examhall/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompletedExamsIncludesManualScores(t *testing.T) {
	env := newTestEnv(t)
	admin := env.createAdmin(t, "admin@example.com")
	student, attemptID, answerID, _ := submitWithTextAnswer(t, env)

	completed, err := env.results.CompletedExams(student)
	require.NoError(t, err)
	require.Len(t, completed, 1)
	assert.Equal(t, attemptID, completed[0].ID)
	// Only the auto score before any evaluation: 3 of 5.
	assert.Equal(t, 3.0, completed[0].Score)
	assert.Equal(t, 60.0, completed[0].Percentage)

	score := 2.0
	_, err = env.evaluation.RecordEvaluation(answerID, admin, dto.EvaluateAnswerRequest{ScoreAwarded: &score})
	require.NoError(t, err)

	completed, err = env.results.CompletedExams(student)
	require.NoError(t, err)
	require.Len(t, completed, 1)
	assert.Equal(t, 5.0, completed[0].Score)
	assert.Equal(t, 100.0, completed[0].Percentage)
}

func TestAttemptResultsOnlyAfterSubmission(t *testing.T) {
	env := newTestEnv(t)
	student := env.createStudent(t, "student@example.com")
	q := env.createQuestion(t, model.Question{
		Title:          "2+2",
		Type:           model.QuestionTypeSingleChoice,
		Options:        model.StringList{"3", "4"},
		CorrectAnswers: model.ScalarAnswer("4"),
	})
	_, attemptID := openAttempt(t, env, student, q)

	_, err := env.results.AttemptResults(attemptID, student)
	require.Error(t, err)
	assert.Equal(t, apperror.InvalidState, apperror.KindOf(err))

	_, err = env.grading.SubmitAttempt(attemptID, student)
	require.NoError(t, err)

	results, err := env.results.AttemptResults(attemptID, student)
	require.NoError(t, err)
	// The frozen view carries the answer key.
	require.Len(t, results.Exam.Questions, 1)
	assert.Equal(t, "4", results.Exam.Questions[0].CorrectAnswers.Scalar)
}

func TestAttemptResultsOwnership(t *testing.T) {
	env := newTestEnv(t)
	owner := env.createStudent(t, "owner@example.com")
	intruder := env.createStudent(t, "intruder@example.com")
	q := env.createQuestion(t, model.Question{
		Title:          "2+2",
		Type:           model.QuestionTypeSingleChoice,
		Options:        model.StringList{"3", "4"},
		CorrectAnswers: model.ScalarAnswer("4"),
	})
	_, attemptID := openAttempt(t, env, owner, q)
	_, err := env.grading.SubmitAttempt(attemptID, owner)
	require.NoError(t, err)

	_, err = env.results.AttemptResults(attemptID, intruder)
	require.Error(t, err)
	assert.Equal(t, apperror.PermissionDenied, apperror.KindOf(err))

	// The admin view skips the ownership check.
	_, err = env.results.AdminAttemptResults(attemptID)
	assert.NoError(t, err)
}

func TestEvaluatedResultsListsEvaluations(t *testing.T) {
	env := newTestEnv(t)
	admin := env.createAdmin(t, "admin@example.com")
	student, attemptID, answerID, _ := submitWithTextAnswer(t, env)

	comment := "good reasoning"
	score := 1.0
	correct := true
	_, err := env.evaluation.RecordEvaluation(answerID, admin, dto.EvaluateAnswerRequest{
		IsCorrect:    &correct,
		Comment:      &comment,
		ScoreAwarded: &score,
	})
	require.NoError(t, err)

	results, err := env.results.EvaluatedResults(attemptID, student)
	require.NoError(t, err)
	assert.Equal(t, 4.0, results.Score)
	require.Len(t, results.Answers, 2)

	var evaluated *dto.AnswerWithEvaluationResponse
	for i := range results.Answers {
		if results.Answers[i].ID == answerID {
			evaluated = &results.Answers[i]
		}
	}
	require.NotNil(t, evaluated)
	require.NotNil(t, evaluated.Evaluation)
	assert.Equal(t, "good reasoning", *evaluated.Evaluation.Comment)
}

func TestEvaluatedResultsRequiresSubmission(t *testing.T) {
	env := newTestEnv(t)
	student := env.createStudent(t, "student@example.com")
	q := env.createQuestion(t, model.Question{
		Title:    "Essay",
		Type:     model.QuestionTypeText,
		MaxScore: 5,
	})
	_, attemptID := openAttempt(t, env, student, q)

	_, err := env.results.EvaluatedResults(attemptID, student)
	require.Error(t, err)
	assert.Equal(t, apperror.InvalidState, apperror.KindOf(err))
}

func TestUnfinishedAttemptsListsOpenOnly(t *testing.T) {
	env := newTestEnv(t)
	student := env.createStudent(t, "student@example.com")
	q := env.createQuestion(t, model.Question{
		Title:          "2+2",
		Type:           model.QuestionTypeSingleChoice,
		Options:        model.StringList{"3", "4"},
		CorrectAnswers: model.ScalarAnswer("4"),
	})
	now := time.Now().UTC()
	open := env.createPublishedExam(t, now.Add(-time.Hour), now.Add(time.Hour), 60, q)
	finished := env.createPublishedExam(t, now.Add(-time.Hour), now.Add(time.Hour), 60, q)
	env.setNow(t, now)

	openSession, err := env.attempts.StartExam(open.ID, student)
	require.NoError(t, err)
	finishedSession, err := env.attempts.StartExam(finished.ID, student)
	require.NoError(t, err)
	_, err = env.grading.SubmitAttempt(finishedSession.Attempt.ID, student)
	require.NoError(t, err)

	unfinished, err := env.attempts.UnfinishedAttempts(student)
	require.NoError(t, err)
	require.Len(t, unfinished, 1)
	assert.Equal(t, openSession.Attempt.ID, unfinished[0].ID)
	assert.Equal(t, open.ID, unfinished[0].Exam.ID)
}

func TestAdminAttemptResultsMergesManualScores(t *testing.T) {
	env := newTestEnv(t)
	admin := env.createAdmin(t, "admin@example.com")
	_, attemptID, answerID, _ := submitWithTextAnswer(t, env)

	score := 2.0
	comment := "solid reasoning"
	_, err := env.evaluation.RecordEvaluation(answerID, admin, dto.EvaluateAnswerRequest{
		ScoreAwarded: &score,
		Comment:      &comment,
	})
	require.NoError(t, err)

	results, err := env.results.AdminAttemptResults(attemptID)
	require.NoError(t, err)

	// Auto 3 plus manual 2, against a total of 5.
	require.NotNil(t, results.Attempt.Score)
	assert.Equal(t, 5.0, *results.Attempt.Score)

	var evaluated *dto.AnswerResponse
	for i := range results.Attempt.Answers {
		if results.Attempt.Answers[i].ID == answerID {
			evaluated = &results.Attempt.Answers[i]
		}
	}
	require.NotNil(t, evaluated)
	require.NotNil(t, evaluated.Evaluation)
	assert.Equal(t, admin.ID, evaluated.Evaluation.EvaluatedBy)
	require.NotNil(t, evaluated.Evaluation.ScoreAwarded)
	assert.Equal(t, 2.0, *evaluated.Evaluation.ScoreAwarded)
}
