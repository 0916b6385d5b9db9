package service

import (
	"testing"
	"time"

	"github.com/examhall/examhall/internal/model"
	"github.com/examhall/examhall/internal/repository"
	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// testEnv bundles an in-memory database with the repositories and
// services under test.
type testEnv struct {
	db             *gorm.DB
	userRepo       repository.UserRepository
	questionRepo   repository.QuestionRepository
	examRepo       repository.ExamRepository
	attemptRepo    repository.ExamAttemptRepository
	answerRepo     repository.AnswerRepository
	evaluationRepo repository.EvaluationRepository

	questions  QuestionService
	exams      ExamService
	grading    GradingService
	attempts   *attemptService
	answers    AnswerService
	evaluation EvaluationService
	results    ResultService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{TranslateError: true})
	require.NoError(t, err)

	require.NoError(t, db.AutoMigrate(
		&model.User{},
		&model.Question{},
		&model.Exam{},
		&model.ExamAttempt{},
		&model.Answer{},
		&model.Evaluation{},
	))
	require.NoError(t, db.Exec(
		"CREATE UNIQUE INDEX IF NOT EXISTS idx_exam_attempts_open ON exam_attempts (exam_id, student_id) WHERE end_time IS NULL",
	).Error)

	env := &testEnv{
		db:             db,
		userRepo:       repository.NewUserRepository(db),
		questionRepo:   repository.NewQuestionRepository(db),
		examRepo:       repository.NewExamRepository(db),
		attemptRepo:    repository.NewExamAttemptRepository(db),
		answerRepo:     repository.NewAnswerRepository(db),
		evaluationRepo: repository.NewEvaluationRepository(db),
	}

	env.questions = NewQuestionService(env.questionRepo)
	env.exams = NewExamService(env.examRepo, env.questionRepo, env.attemptRepo, env.userRepo, env.answerRepo, env.evaluationRepo)
	env.grading = NewGradingService(env.attemptRepo, env.examRepo, env.answerRepo)
	env.attempts = NewAttemptService(env.examRepo, env.attemptRepo, env.grading, db).(*attemptService)
	env.answers = NewAnswerService(env.attemptRepo, env.examRepo, env.answerRepo)
	env.evaluation = NewEvaluationService(env.answerRepo, env.questionRepo, env.evaluationRepo, env.attemptRepo, env.examRepo, env.userRepo)
	env.results = NewResultService(env.attemptRepo, env.examRepo, env.answerRepo, env.evaluationRepo)
	return env
}

// setNow pins the attempt service clock.
func (e *testEnv) setNow(t *testing.T, now time.Time) {
	t.Helper()
	e.attempts.now = func() time.Time { return now }
}

func (e *testEnv) createStudent(t *testing.T, email string) *model.User {
	t.Helper()
	user := &model.User{Email: email, HashedPassword: "x", Role: model.RoleStudent}
	require.NoError(t, e.userRepo.Create(user))
	return user
}

func (e *testEnv) createAdmin(t *testing.T, email string) *model.User {
	t.Helper()
	user := &model.User{Email: email, HashedPassword: "x", Role: model.RoleAdmin}
	require.NoError(t, e.userRepo.Create(user))
	return user
}

func (e *testEnv) createQuestion(t *testing.T, q model.Question) *model.Question {
	t.Helper()
	if q.MaxScore == 0 {
		q.MaxScore = 1
	}
	if q.Complexity == "" {
		q.Complexity = model.ComplexityEasy
	}
	require.NoError(t, e.questionRepo.Create(&q))
	return &q
}

func (e *testEnv) createPublishedExam(t *testing.T, start, end time.Time, duration int, questions ...*model.Question) *model.Exam {
	t.Helper()
	exam := &model.Exam{
		Title:           "Published exam",
		StartTime:       start,
		EndTime:         end,
		DurationMinutes: duration,
		IsPublished:     true,
	}
	for _, q := range questions {
		exam.Questions = append(exam.Questions, *q)
	}
	require.NoError(t, e.examRepo.Create(exam))
	loaded, err := e.examRepo.FindByID(exam.ID)
	require.NoError(t, err)
	return loaded
}
