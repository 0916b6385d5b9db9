package student

import (
	"net/http"

	"github.com/examhall/examhall/internal/controller"
	"github.com/examhall/examhall/internal/dto"
	"github.com/examhall/examhall/internal/middleware"
	"github.com/examhall/examhall/internal/service"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

type StudentExamController struct {
	attemptService service.AttemptService
	answerService  service.AnswerService
	gradingService service.GradingService
	resultService  service.ResultService
}

func NewStudentExamController(
	attemptService service.AttemptService,
	answerService service.AnswerService,
	gradingService service.GradingService,
	resultService service.ResultService,
) *StudentExamController {
	return &StudentExamController{
		attemptService: attemptService,
		answerService:  answerService,
		gradingService: gradingService,
		resultService:  resultService,
	}
}

// ListAvailableExams godoc
// @Summary List published exams visible to the student
// @Description Questions come without correct answers; each exam carries window status flags computed now.
// @Tags Student - Exams
// @Produce json
// @Security BearerAuth
// @Success 200 {array} dto.AvailableExamResponse
// @Router /student/exams [get]
func (c *StudentExamController) ListAvailableExams(ctx *gin.Context) {
	resp, err := c.attemptService.AvailableExams(middleware.CurrentUser(ctx))
	if err != nil {
		controller.Error(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, resp)
}

// StartExam godoc
// @Summary Start an exam, or return the already open attempt
// @Description A student never holds two open attempts on the same exam; starting twice returns the same session.
// @Tags Student - Attempts
// @Produce json
// @Security BearerAuth
// @Param exam_id path string true "Exam ID"
// @Success 200 {object} dto.ExamSessionResponse "Session with countdown"
// @Failure 400 {object} dto.ErrorResponse "Exam window not open"
// @Failure 403 {object} dto.ErrorResponse "Not eligible for this exam"
// @Failure 404 {object} dto.ErrorResponse "Exam not found"
// @Router /student/exams/{exam_id}/start [post]
func (c *StudentExamController) StartExam(ctx *gin.Context) {
	resp, err := c.attemptService.StartExam(ctx.Param("exam_id"), middleware.CurrentUser(ctx))
	if err != nil {
		controller.Error(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, resp)
}

// ResumeAttempt godoc
// @Summary Resume an open attempt
// @Description If the exam window closed while the student was away, the attempt is auto submitted and the response says so.
// @Tags Student - Attempts
// @Produce json
// @Security BearerAuth
// @Param attempt_id path string true "Attempt ID"
// @Success 200 {object} dto.ExamSessionResponse
// @Failure 400 {object} dto.ErrorResponse "Attempt already submitted"
// @Failure 403 {object} dto.ErrorResponse "Attempt belongs to another student"
// @Failure 404 {object} dto.ErrorResponse "Attempt not found"
// @Router /student/attempts/{attempt_id}/resume [get]
func (c *StudentExamController) ResumeAttempt(ctx *gin.Context) {
	resp, err := c.attemptService.ResumeAttempt(ctx.Param("attempt_id"), middleware.CurrentUser(ctx))
	if err != nil {
		controller.Error(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, resp)
}

// ListUnfinishedAttempts godoc
// @Summary List the student's open attempts
// @Tags Student - Attempts
// @Produce json
// @Security BearerAuth
// @Success 200 {array} dto.UnfinishedAttemptResponse
// @Router /student/unfinished-attempts [get]
func (c *StudentExamController) ListUnfinishedAttempts(ctx *gin.Context) {
	resp, err := c.attemptService.UnfinishedAttempts(middleware.CurrentUser(ctx))
	if err != nil {
		controller.Error(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, resp)
}

// SaveAnswer godoc
// @Summary Save or overwrite an answer within an open attempt
// @Description Saving the same question again rewrites the single stored row. Saves are rejected once the attempt is submitted.
// @Tags Student - Attempts
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param attempt_id path string true "Attempt ID"
// @Param answer_data body dto.SaveAnswerRequest true "Question and answer payload"
// @Success 200 {object} dto.AnswerResponse
// @Failure 400 {object} dto.ErrorResponse "Attempt submitted or question not in exam"
// @Failure 403 {object} dto.ErrorResponse "Attempt belongs to another student"
// @Failure 404 {object} dto.ErrorResponse "Attempt not found"
// @Router /student/attempts/{attempt_id}/answers [post]
func (c *StudentExamController) SaveAnswer(ctx *gin.Context) {
	var req dto.SaveAnswerRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		log.Warn().Err(err).Msg("SaveAnswer: failed to bind JSON")
		ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{Message: "Invalid request body", Details: []string{err.Error()}})
		return
	}
	resp, err := c.answerService.SaveAnswer(ctx.Param("attempt_id"), middleware.CurrentUser(ctx), req)
	if err != nil {
		controller.Error(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, resp)
}

// ListAnswers godoc
// @Summary List the answers saved in an attempt
// @Tags Student - Attempts
// @Produce json
// @Security BearerAuth
// @Param attempt_id path string true "Attempt ID"
// @Success 200 {array} dto.AnswerResponse
// @Failure 403 {object} dto.ErrorResponse "Attempt belongs to another student"
// @Failure 404 {object} dto.ErrorResponse "Attempt not found"
// @Router /student/attempts/{attempt_id}/answers [get]
func (c *StudentExamController) ListAnswers(ctx *gin.Context) {
	resp, err := c.answerService.ListAnswers(ctx.Param("attempt_id"), middleware.CurrentUser(ctx))
	if err != nil {
		controller.Error(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, resp)
}

// SubmitAttempt godoc
// @Summary Submit an attempt for grading
// @Description One way: once graded and closed, the attempt never reopens and further saves are rejected.
// @Tags Student - Attempts
// @Produce json
// @Security BearerAuth
// @Param attempt_id path string true "Attempt ID"
// @Success 200 {object} dto.AttemptResponse "Graded attempt"
// @Failure 400 {object} dto.ErrorResponse "Attempt already submitted"
// @Failure 403 {object} dto.ErrorResponse "Attempt belongs to another student"
// @Failure 404 {object} dto.ErrorResponse "Attempt not found"
// @Router /student/attempts/{attempt_id}/submit [post]
func (c *StudentExamController) SubmitAttempt(ctx *gin.Context) {
	resp, err := c.gradingService.SubmitAttempt(ctx.Param("attempt_id"), middleware.CurrentUser(ctx))
	if err != nil {
		controller.Error(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, resp)
}

// ListCompletedExams godoc
// @Summary List the student's finished attempts with final scores
// @Description Scores include recorded manual evaluations merged over the auto score.
// @Tags Student - Results
// @Produce json
// @Security BearerAuth
// @Success 200 {array} dto.CompletedExamResponse
// @Router /student/completed-exams [get]
func (c *StudentExamController) ListCompletedExams(ctx *gin.Context) {
	resp, err := c.resultService.CompletedExams(middleware.CurrentUser(ctx))
	if err != nil {
		controller.Error(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, resp)
}

// GetAttemptResults godoc
// @Summary Review a submitted attempt with the answer key
// @Description Only available after submission; the exam payload carries correct answers since the attempt is frozen.
// @Tags Student - Results
// @Produce json
// @Security BearerAuth
// @Param attempt_id path string true "Attempt ID"
// @Success 200 {object} dto.AttemptResultsResponse
// @Failure 400 {object} dto.ErrorResponse "Attempt not submitted yet"
// @Failure 403 {object} dto.ErrorResponse "Attempt belongs to another student"
// @Failure 404 {object} dto.ErrorResponse "Attempt not found"
// @Router /student/attempts/{attempt_id}/results [get]
func (c *StudentExamController) GetAttemptResults(ctx *gin.Context) {
	resp, err := c.resultService.AttemptResults(ctx.Param("attempt_id"), middleware.CurrentUser(ctx))
	if err != nil {
		controller.Error(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, resp)
}

// GetEvaluatedResults godoc
// @Summary Review a submitted attempt with teacher evaluations
// @Tags Student - Results
// @Produce json
// @Security BearerAuth
// @Param attempt_id path string true "Attempt ID"
// @Success 200 {object} dto.EvaluatedResultsResponse
// @Failure 400 {object} dto.ErrorResponse "Attempt not submitted yet"
// @Failure 403 {object} dto.ErrorResponse "Attempt belongs to another student"
// @Failure 404 {object} dto.ErrorResponse "Attempt not found"
// @Router /student/attempts/{attempt_id}/evaluated-results [get]
func (c *StudentExamController) GetEvaluatedResults(ctx *gin.Context) {
	resp, err := c.resultService.EvaluatedResults(ctx.Param("attempt_id"), middleware.CurrentUser(ctx))
	if err != nil {
		controller.Error(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, resp)
}
