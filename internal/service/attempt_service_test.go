package service

import (
	"testing"
	"time"

	"github.com/examhall/examhall/internal/apperror"
	"github.com/examhall/examhall/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStartExamIsIdempotent(t *testing.T) {
	env := newTestEnv(t)
	student := env.createStudent(t, "student@example.com")
	q := env.createQuestion(t, model.Question{
		Title:          "2+2",
		Type:           model.QuestionTypeSingleChoice,
		Options:        model.StringList{"3", "4"},
		CorrectAnswers: model.ScalarAnswer("4"),
	})
	now := time.Now().UTC()
	exam := env.createPublishedExam(t, now.Add(-time.Hour), now.Add(time.Hour), 60, q)
	env.setNow(t, now)

	first, err := env.attempts.StartExam(exam.ID, student)
	require.NoError(t, err)
	second, err := env.attempts.StartExam(exam.ID, student)
	require.NoError(t, err)

	assert.Equal(t, first.Attempt.ID, second.Attempt.ID)

	var count int64
	require.NoError(t, env.db.Model(&model.ExamAttempt{}).
		Where("exam_id = ? AND student_id = ?", exam.ID, student.ID).
		Count(&count).Error)
	assert.EqualValues(t, 1, count)
}

func TestStartExamWindowChecks(t *testing.T) {
	env := newTestEnv(t)
	student := env.createStudent(t, "student@example.com")
	q := env.createQuestion(t, model.Question{
		Title:          "2+2",
		Type:           model.QuestionTypeSingleChoice,
		Options:        model.StringList{"3", "4"},
		CorrectAnswers: model.ScalarAnswer("4"),
	})
	now := time.Now().UTC()
	exam := env.createPublishedExam(t, now.Add(time.Hour), now.Add(2*time.Hour), 60, q)

	env.setNow(t, now)
	_, err := env.attempts.StartExam(exam.ID, student)
	require.Error(t, err)
	assert.Equal(t, apperror.InvalidState, apperror.KindOf(err))
	assert.Contains(t, err.Error(), "not started yet")

	env.setNow(t, now.Add(3*time.Hour))
	_, err = env.attempts.StartExam(exam.ID, student)
	require.Error(t, err)
	assert.Equal(t, apperror.InvalidState, apperror.KindOf(err))
	assert.Contains(t, err.Error(), "already ended")
}

func TestStartExamRejectsUnpublished(t *testing.T) {
	env := newTestEnv(t)
	student := env.createStudent(t, "student@example.com")
	now := time.Now().UTC()
	exam := &model.Exam{
		Title:           "Draft exam",
		StartTime:       now.Add(-time.Hour),
		EndTime:         now.Add(time.Hour),
		DurationMinutes: 60,
	}
	require.NoError(t, env.examRepo.Create(exam))
	env.setNow(t, now)

	_, err := env.attempts.StartExam(exam.ID, student)
	require.Error(t, err)
	assert.Equal(t, apperror.InvalidState, apperror.KindOf(err))
}

func TestStartExamEligibility(t *testing.T) {
	env := newTestEnv(t)
	student := env.createStudent(t, "student@example.com")
	now := time.Now().UTC()
	target := "cohort-2026"
	exam := &model.Exam{
		Title:            "Targeted exam",
		StartTime:        now.Add(-time.Hour),
		EndTime:          now.Add(time.Hour),
		DurationMinutes:  60,
		IsPublished:      true,
		TargetCandidates: &target,
	}
	require.NoError(t, env.examRepo.Create(exam))
	env.setNow(t, now)

	_, err := env.attempts.StartExam(exam.ID, student)
	require.Error(t, err)
	assert.Equal(t, apperror.PermissionDenied, apperror.KindOf(err))

	student.ExamCandidate = &target
	_, err = env.attempts.StartExam(exam.ID, student)
	require.NoError(t, err)
}

func TestResumeAttemptCountdown(t *testing.T) {
	env := newTestEnv(t)
	student := env.createStudent(t, "student@example.com")
	q := env.createQuestion(t, model.Question{
		Title:          "2+2",
		Type:           model.QuestionTypeSingleChoice,
		Options:        model.StringList{"3", "4"},
		CorrectAnswers: model.ScalarAnswer("4"),
	})
	now := time.Now().UTC()
	exam := env.createPublishedExam(t, now.Add(-time.Hour), now.Add(time.Hour), 30, q)
	env.setNow(t, now)

	session, err := env.attempts.StartExam(exam.ID, student)
	require.NoError(t, err)
	assert.Equal(t, 30*60, session.Exam.TimeRemainingSeconds)

	env.setNow(t, now.Add(10*time.Minute))
	resumed, err := env.attempts.ResumeAttempt(session.Attempt.ID, student)
	require.NoError(t, err)
	assert.False(t, resumed.AutoSubmitted)
	assert.Equal(t, 20*60, resumed.Exam.TimeRemainingSeconds)
	assert.NotEmpty(t, resumed.Exam.Questions[0].Options)
}

func TestResumeAttemptAutoSubmitsAfterExamEnd(t *testing.T) {
	env := newTestEnv(t)
	student := env.createStudent(t, "student@example.com")
	q := env.createQuestion(t, model.Question{
		Title:          "2+2",
		Type:           model.QuestionTypeSingleChoice,
		Options:        model.StringList{"3", "4"},
		CorrectAnswers: model.ScalarAnswer("4"),
		MaxScore:       2,
	})
	now := time.Now().UTC()
	exam := env.createPublishedExam(t, now.Add(-time.Hour), now.Add(time.Minute), 60, q)
	env.setNow(t, now)

	session, err := env.attempts.StartExam(exam.ID, student)
	require.NoError(t, err)

	env.setNow(t, now.Add(2*time.Minute))
	resumed, err := env.attempts.ResumeAttempt(session.Attempt.ID, student)
	require.NoError(t, err)
	assert.True(t, resumed.AutoSubmitted)
	assert.NotNil(t, resumed.Attempt.EndTime)
	require.NotNil(t, resumed.Attempt.TotalPossibleScore)
	assert.Equal(t, 2.0, *resumed.Attempt.TotalPossibleScore)
	assert.Zero(t, resumed.Exam.TimeRemainingSeconds)
}

func TestResumeSubmittedAttemptRejected(t *testing.T) {
	env := newTestEnv(t)
	student := env.createStudent(t, "student@example.com")
	q := env.createQuestion(t, model.Question{
		Title:          "2+2",
		Type:           model.QuestionTypeSingleChoice,
		Options:        model.StringList{"3", "4"},
		CorrectAnswers: model.ScalarAnswer("4"),
	})
	now := time.Now().UTC()
	exam := env.createPublishedExam(t, now.Add(-time.Hour), now.Add(time.Hour), 60, q)
	env.setNow(t, now)

	session, err := env.attempts.StartExam(exam.ID, student)
	require.NoError(t, err)
	_, err = env.grading.SubmitAttempt(session.Attempt.ID, student)
	require.NoError(t, err)

	_, err = env.attempts.ResumeAttempt(session.Attempt.ID, student)
	require.Error(t, err)
	assert.Equal(t, apperror.InvalidState, apperror.KindOf(err))
}

func TestStartAgainAfterSubmissionOpensFreshAttempt(t *testing.T) {
	env := newTestEnv(t)
	student := env.createStudent(t, "student@example.com")
	q := env.createQuestion(t, model.Question{
		Title:          "2+2",
		Type:           model.QuestionTypeSingleChoice,
		Options:        model.StringList{"3", "4"},
		CorrectAnswers: model.ScalarAnswer("4"),
	})
	now := time.Now().UTC()
	exam := env.createPublishedExam(t, now.Add(-time.Hour), now.Add(time.Hour), 60, q)
	env.setNow(t, now)

	first, err := env.attempts.StartExam(exam.ID, student)
	require.NoError(t, err)
	_, err = env.grading.SubmitAttempt(first.Attempt.ID, student)
	require.NoError(t, err)

	// The closed attempt no longer blocks the partial unique index.
	second, err := env.attempts.StartExam(exam.ID, student)
	require.NoError(t, err)
	assert.NotEqual(t, first.Attempt.ID, second.Attempt.ID)
}

func TestAvailableExamsFlagsAndEligibility(t *testing.T) {
	env := newTestEnv(t)
	student := env.createStudent(t, "student@example.com")
	now := time.Now().UTC()

	active := env.createPublishedExam(t, now.Add(-time.Hour), now.Add(time.Hour), 60)
	upcoming := env.createPublishedExam(t, now.Add(time.Hour), now.Add(2*time.Hour), 60)
	expired := env.createPublishedExam(t, now.Add(-2*time.Hour), now.Add(-time.Hour), 60)

	target := "cohort-x"
	hidden := &model.Exam{
		Title:            "Not for this student",
		StartTime:        now.Add(-time.Hour),
		EndTime:          now.Add(time.Hour),
		DurationMinutes:  60,
		IsPublished:      true,
		TargetCandidates: &target,
	}
	require.NoError(t, env.examRepo.Create(hidden))

	env.setNow(t, now)
	exams, err := env.attempts.AvailableExams(student)
	require.NoError(t, err)
	require.Len(t, exams, 3)

	byID := map[string]bool{}
	for _, e := range exams {
		byID[e.ID] = true
		switch e.ID {
		case active.ID:
			assert.True(t, e.IsActive)
			assert.False(t, e.IsExpired)
			assert.False(t, e.IsUpcoming)
		case upcoming.ID:
			assert.True(t, e.IsUpcoming)
		case expired.ID:
			assert.True(t, e.IsExpired)
		}
	}
	assert.False(t, byID[hidden.ID])
}

func TestStudentViewNeverCarriesAnswerKey(t *testing.T) {
	env := newTestEnv(t)
	student := env.createStudent(t, "student@example.com")
	q := env.createQuestion(t, model.Question{
		Title:          "Capital of England",
		Type:           model.QuestionTypeSingleChoice,
		Options:        model.StringList{"London", "Paris"},
		CorrectAnswers: model.ScalarAnswer("London"),
	})
	now := time.Now().UTC()
	exam := env.createPublishedExam(t, now.Add(-time.Hour), now.Add(time.Hour), 60, q)
	env.setNow(t, now)

	session, err := env.attempts.StartExam(exam.ID, student)
	require.NoError(t, err)
	require.Len(t, session.Exam.Questions, 1)
	assert.Equal(t, []string{"London", "Paris"}, session.Exam.Questions[0].Options)
}
