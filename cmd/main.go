package main

import (
	"context"
	"net/http"
	"time"

	"github.com/examhall/examhall/config"
	"github.com/examhall/examhall/database"
	adminctrl "github.com/examhall/examhall/internal/controller/admin"
	authctrl "github.com/examhall/examhall/internal/controller/auth"
	studentctrl "github.com/examhall/examhall/internal/controller/student"
	"github.com/examhall/examhall/internal/logger"
	"github.com/examhall/examhall/internal/middleware"
	"github.com/examhall/examhall/internal/model"
	"github.com/examhall/examhall/internal/repository"
	"github.com/examhall/examhall/internal/service"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/fx"
	"gorm.io/gorm"
)

// @title Exam Hall API
// @version 1.0
// @description Online examination platform: timed exam attempts, automatic grading and manual evaluation of free-response answers.
// @host localhost:8080
// @BasePath /api/v1
// @schemes http https
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	logger.Init()

	app := fx.New(
		fx.Provide(
			config.NewConfig,
			database.NewDatabase,
			NewGinEngine,
		),

		fx.Provide(
			repository.NewUserRepository,
			repository.NewQuestionRepository,
			repository.NewExamRepository,
			repository.NewExamAttemptRepository,
			repository.NewAnswerRepository,
			repository.NewEvaluationRepository,
		),

		fx.Provide(
			service.NewAuthService,
			service.NewQuestionService,
			service.NewExamService,
			service.NewGradingService,
			service.NewAttemptService,
			service.NewAnswerService,
			service.NewEvaluationService,
			service.NewResultService,
			service.NewEvaluationAssistService,
		),

		fx.Provide(
			authctrl.NewAuthController,
			adminctrl.NewAdminQuestionController,
			adminctrl.NewAdminExamController,
			adminctrl.NewAdminEvaluationController,
			studentctrl.NewStudentExamController,
		),

		fx.Invoke(AutoMigrateDB),
		fx.Invoke(RegisterRoutesAndStartServer),
	)

	if err := app.Start(context.Background()); err != nil {
		log.Fatal().Err(err).Msg("Failed to start application")
	}

	<-app.Done()
	log.Info().Msg("Application shutting down gracefully...")
}

func NewGinEngine() *gin.Engine {
	r := gin.New()

	r.Use(gin.LoggerWithFormatter(func(param gin.LogFormatterParams) string {
		log.Info().
			Str("client_ip", param.ClientIP).
			Str("method", param.Method).
			Str("path", param.Path).
			Int("status_code", param.StatusCode).
			Dur("latency", param.Latency).
			Str("user_agent", param.Request.UserAgent()).
			Str("error_message", param.ErrorMessage).
			Msg("gin_request")
		return ""
	}))
	r.Use(gin.Recovery())

	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	return r
}

// RegisterRoutesAndStartServer configures API routes and manages the
// server lifecycle.
func RegisterRoutesAndStartServer(
	lc fx.Lifecycle,
	router *gin.Engine,
	cfg *config.Config,
	authService service.AuthService,
	authController *authctrl.AuthController,
	adminQuestionCtrl *adminctrl.AdminQuestionController,
	adminExamCtrl *adminctrl.AdminExamController,
	adminEvaluationCtrl *adminctrl.AdminEvaluationController,
	studentExamCtrl *studentctrl.StudentExamController,
) {
	apiV1 := router.Group("/api/v1")

	authGroup := apiV1.Group("/auth")
	{
		authGroup.POST("/signup", authController.Signup)
		authGroup.POST("/token", authController.Login)
		authGroup.GET("/me", middleware.RequireAuth(authService), authController.Me)
	}

	adminGroup := apiV1.Group("/admin")
	adminGroup.Use(middleware.RequireAuth(authService), middleware.RequireRole(model.RoleAdmin))
	{
		questions := adminGroup.Group("/questions")
		questions.POST("", adminQuestionCtrl.CreateQuestion)
		questions.GET("", adminQuestionCtrl.SearchQuestions)
		questions.POST("/import", adminQuestionCtrl.ImportQuestions)
		questions.POST("/delete-bulk", adminQuestionCtrl.BulkDeleteQuestions)
		questions.GET("/:question_id", adminQuestionCtrl.GetQuestion)
		questions.DELETE("/:question_id", adminQuestionCtrl.DeleteQuestion)

		exams := adminGroup.Group("/exams")
		exams.POST("", adminExamCtrl.CreateExam)
		exams.GET("", adminExamCtrl.ListExams)
		exams.GET("/:exam_id", adminExamCtrl.GetExam)
		exams.DELETE("/:exam_id", adminExamCtrl.DeleteExam)
		exams.POST("/:exam_id/publish", adminExamCtrl.PublishExam)
		exams.POST("/:exam_id/unpublish", adminExamCtrl.UnpublishExam)
		exams.GET("/:exam_id/attempts", adminExamCtrl.ListExamAttempts)

		adminGroup.GET("/students", authController.ListStudents)
		adminGroup.GET("/attempts/:attempt_id/results", adminExamCtrl.GetAttemptResults)
		adminGroup.GET("/evaluations/attempts/:attempt_id", adminEvaluationCtrl.GetEvaluationQueue)

		answers := adminGroup.Group("/answers")
		answers.POST("/:answer_id/evaluate", adminEvaluationCtrl.EvaluateAnswer)
		answers.GET("/:answer_id/evaluation", adminEvaluationCtrl.GetEvaluation)
		answers.POST("/:answer_id/evaluate-binary", adminEvaluationCtrl.EvaluateAnswerBinary)
		answers.POST("/:answer_id/assist", adminEvaluationCtrl.SuggestEvaluation)
	}

	studentGroup := apiV1.Group("/student")
	studentGroup.Use(middleware.RequireAuth(authService), middleware.RequireRole(model.RoleStudent))
	{
		studentGroup.GET("/exams", studentExamCtrl.ListAvailableExams)
		studentGroup.POST("/exams/:exam_id/start", studentExamCtrl.StartExam)
		studentGroup.GET("/unfinished-attempts", studentExamCtrl.ListUnfinishedAttempts)
		studentGroup.GET("/completed-exams", studentExamCtrl.ListCompletedExams)

		attempts := studentGroup.Group("/attempts")
		attempts.GET("/:attempt_id/resume", studentExamCtrl.ResumeAttempt)
		attempts.POST("/:attempt_id/answers", studentExamCtrl.SaveAnswer)
		attempts.GET("/:attempt_id/answers", studentExamCtrl.ListAnswers)
		attempts.POST("/:attempt_id/submit", studentExamCtrl.SubmitAttempt)
		attempts.GET("/:attempt_id/results", studentExamCtrl.GetAttemptResults)
		attempts.GET("/:attempt_id/evaluated-results", studentExamCtrl.GetEvaluatedResults)
	}

	server := &http.Server{
		Addr:    ":" + cfg.Server.Port,
		Handler: router,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			log.Info().Msgf("Exam Hall API server starting on port %s", cfg.Server.Port)
			log.Info().Msgf("Swagger UI available at http://localhost:%s/swagger/index.html", cfg.Server.Port)
			go func() {
				if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					log.Fatal().Err(err).Msg("Server ListenAndServe failed")
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			log.Info().Msg("Server shutting down...")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			return server.Shutdown(shutdownCtx)
		},
	})
}

func AutoMigrateDB(db *gorm.DB) error {
	log.Info().Msg("Running database migrations...")
	err := db.AutoMigrate(
		&model.User{},
		&model.Question{},
		&model.Exam{},
		&model.ExamAttempt{},
		&model.Answer{},
		&model.Evaluation{},
	)
	if err != nil {
		log.Error().Err(err).Msg("Database migration failed")
		return err
	}
	// One open attempt per (exam, student); closed attempts do not
	// block a re-check because the predicate excludes them.
	err = db.Exec(
		"CREATE UNIQUE INDEX IF NOT EXISTS idx_exam_attempts_open ON exam_attempts (exam_id, student_id) WHERE end_time IS NULL",
	).Error
	if err != nil {
		log.Error().Err(err).Msg("Failed to create open-attempt index")
		return err
	}
	log.Info().Msg("Database migration completed successfully.")
	return nil
}
