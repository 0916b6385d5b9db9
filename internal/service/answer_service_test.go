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

func openAttempt(t *testing.T, env *testEnv, student *model.User, questions ...*model.Question) (*model.Exam, string) {
	t.Helper()
	now := time.Now().UTC()
	exam := env.createPublishedExam(t, now.Add(-time.Hour), now.Add(time.Hour), 60, questions...)
	env.setNow(t, now)
	session, err := env.attempts.StartExam(exam.ID, student)
	require.NoError(t, err)
	return exam, session.Attempt.ID
}

func TestSaveAnswerUpsertsSingleRow(t *testing.T) {
	env := newTestEnv(t)
	student := env.createStudent(t, "student@example.com")
	q := env.createQuestion(t, model.Question{
		Title:          "2+2",
		Type:           model.QuestionTypeSingleChoice,
		Options:        model.StringList{"3", "4"},
		CorrectAnswers: model.ScalarAnswer("4"),
	})
	_, attemptID := openAttempt(t, env, student, q)

	first, err := env.answers.SaveAnswer(attemptID, student, dto.SaveAnswerRequest{
		QuestionID: q.ID,
		AnswerData: model.ScalarAnswer("3"),
	})
	require.NoError(t, err)

	second, err := env.answers.SaveAnswer(attemptID, student, dto.SaveAnswerRequest{
		QuestionID: q.ID,
		AnswerData: model.ScalarAnswer("4"),
	})
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)

	var count int64
	require.NoError(t, env.db.Model(&model.Answer{}).
		Where("attempt_id = ? AND question_id = ?", attemptID, q.ID).
		Count(&count).Error)
	assert.EqualValues(t, 1, count)

	stored, err := env.answerRepo.FindByAttemptAndQuestion(attemptID, q.ID)
	require.NoError(t, err)
	assert.Equal(t, "4", stored.AnswerData.Scalar)
}

func TestSaveAnswerRejectedAfterSubmission(t *testing.T) {
	env := newTestEnv(t)
	student := env.createStudent(t, "student@example.com")
	q := env.createQuestion(t, model.Question{
		Title:          "2+2",
		Type:           model.QuestionTypeSingleChoice,
		Options:        model.StringList{"3", "4"},
		CorrectAnswers: model.ScalarAnswer("4"),
	})
	_, attemptID := openAttempt(t, env, student, q)

	_, err := env.grading.SubmitAttempt(attemptID, student)
	require.NoError(t, err)

	_, err = env.answers.SaveAnswer(attemptID, student, dto.SaveAnswerRequest{
		QuestionID: q.ID,
		AnswerData: model.ScalarAnswer("4"),
	})
	require.Error(t, err)
	assert.Equal(t, apperror.InvalidState, apperror.KindOf(err))
}

func TestSaveAnswerOwnership(t *testing.T) {
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

	_, err := env.answers.SaveAnswer(attemptID, intruder, dto.SaveAnswerRequest{
		QuestionID: q.ID,
		AnswerData: model.ScalarAnswer("4"),
	})
	require.Error(t, err)
	assert.Equal(t, apperror.PermissionDenied, apperror.KindOf(err))
}

func TestSaveAnswerQuestionMustBelongToExam(t *testing.T) {
	env := newTestEnv(t)
	student := env.createStudent(t, "student@example.com")
	inExam := env.createQuestion(t, model.Question{
		Title:          "2+2",
		Type:           model.QuestionTypeSingleChoice,
		Options:        model.StringList{"3", "4"},
		CorrectAnswers: model.ScalarAnswer("4"),
	})
	stray := env.createQuestion(t, model.Question{
		Title:          "3+3",
		Type:           model.QuestionTypeSingleChoice,
		Options:        model.StringList{"5", "6"},
		CorrectAnswers: model.ScalarAnswer("6"),
	})
	_, attemptID := openAttempt(t, env, student, inExam)

	_, err := env.answers.SaveAnswer(attemptID, student, dto.SaveAnswerRequest{
		QuestionID: stray.ID,
		AnswerData: model.ScalarAnswer("6"),
	})
	require.Error(t, err)
	assert.Equal(t, apperror.Validation, apperror.KindOf(err))
}

func TestListAnswers(t *testing.T) {
	env := newTestEnv(t)
	student := env.createStudent(t, "student@example.com")
	q1 := env.createQuestion(t, model.Question{
		Title:          "2+2",
		Type:           model.QuestionTypeSingleChoice,
		Options:        model.StringList{"3", "4"},
		CorrectAnswers: model.ScalarAnswer("4"),
	})
	q2 := env.createQuestion(t, model.Question{
		Title:    "Essay",
		Type:     model.QuestionTypeText,
		MaxScore: 5,
	})
	_, attemptID := openAttempt(t, env, student, q1, q2)

	_, err := env.answers.SaveAnswer(attemptID, student, dto.SaveAnswerRequest{
		QuestionID: q1.ID,
		AnswerData: model.ScalarAnswer("4"),
	})
	require.NoError(t, err)
	_, err = env.answers.SaveAnswer(attemptID, student, dto.SaveAnswerRequest{
		QuestionID: q2.ID,
		AnswerData: model.ScalarAnswer("chlorophyll"),
	})
	require.NoError(t, err)

	answers, err := env.answers.ListAnswers(attemptID, student)
	require.NoError(t, err)
	assert.Len(t, answers, 2)
}
