package admin

import (
	"net/http"

	"github.com/examhall/examhall/internal/controller"
	"github.com/examhall/examhall/internal/dto"
	"github.com/examhall/examhall/internal/middleware"
	"github.com/examhall/examhall/internal/service"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

type AdminExamController struct {
	examService   service.ExamService
	resultService service.ResultService
}

func NewAdminExamController(examService service.ExamService, resultService service.ResultService) *AdminExamController {
	return &AdminExamController{examService: examService, resultService: resultService}
}

// CreateExam godoc
// @Summary (Admin) Create an exam from bank questions
// @Description Creates an unpublished exam referencing existing questions. Every question_id must exist.
// @Tags Admin - Exams
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param exam_data body dto.CreateExamRequest true "Exam data"
// @Success 201 {object} dto.ExamResponse "Exam created"
// @Failure 400 {object} dto.ErrorResponse "Invalid window or unknown question IDs"
// @Router /admin/exams [post]
func (c *AdminExamController) CreateExam(ctx *gin.Context) {
	var req dto.CreateExamRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		log.Warn().Err(err).Msg("Admin CreateExam: failed to bind JSON")
		ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{Message: "Invalid request body", Details: []string{err.Error()}})
		return
	}
	resp, err := c.examService.CreateExam(req)
	if err != nil {
		controller.Error(ctx, err)
		return
	}
	ctx.JSON(http.StatusCreated, resp)
}

// ListExams godoc
// @Summary (Admin) List all exams, published or not
// @Tags Admin - Exams
// @Produce json
// @Security BearerAuth
// @Success 200 {array} dto.ExamResponse
// @Router /admin/exams [get]
func (c *AdminExamController) ListExams(ctx *gin.Context) {
	resp, err := c.examService.ListExams()
	if err != nil {
		controller.Error(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, resp)
}

// GetExam godoc
// @Summary (Admin) Get one exam with its questions
// @Tags Admin - Exams
// @Produce json
// @Security BearerAuth
// @Param exam_id path string true "Exam ID"
// @Success 200 {object} dto.ExamResponse
// @Failure 404 {object} dto.ErrorResponse "Exam not found"
// @Router /admin/exams/{exam_id} [get]
func (c *AdminExamController) GetExam(ctx *gin.Context) {
	resp, err := c.examService.GetExam(ctx.Param("exam_id"))
	if err != nil {
		controller.Error(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, resp)
}

// PublishExam godoc
// @Summary (Admin) Publish an exam to students
// @Description Idempotent. The first publish stamps the publishing admin; republishing keeps the original stamp.
// @Tags Admin - Exams
// @Produce json
// @Security BearerAuth
// @Param exam_id path string true "Exam ID"
// @Success 200 {object} dto.ExamResponse
// @Failure 404 {object} dto.ErrorResponse "Exam not found"
// @Router /admin/exams/{exam_id}/publish [post]
func (c *AdminExamController) PublishExam(ctx *gin.Context) {
	resp, err := c.examService.PublishExam(ctx.Param("exam_id"), middleware.CurrentUser(ctx))
	if err != nil {
		controller.Error(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, resp)
}

// UnpublishExam godoc
// @Summary (Admin) Withdraw an exam from students
// @Tags Admin - Exams
// @Produce json
// @Security BearerAuth
// @Param exam_id path string true "Exam ID"
// @Success 200 {object} dto.ExamResponse
// @Failure 404 {object} dto.ErrorResponse "Exam not found"
// @Router /admin/exams/{exam_id}/unpublish [post]
func (c *AdminExamController) UnpublishExam(ctx *gin.Context) {
	resp, err := c.examService.UnpublishExam(ctx.Param("exam_id"))
	if err != nil {
		controller.Error(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, resp)
}

// DeleteExam godoc
// @Summary (Admin) Delete an exam and all its attempts
// @Tags Admin - Exams
// @Produce json
// @Security BearerAuth
// @Param exam_id path string true "Exam ID"
// @Success 200 {object} dto.StatusResponse
// @Failure 404 {object} dto.ErrorResponse "Exam not found"
// @Router /admin/exams/{exam_id} [delete]
func (c *AdminExamController) DeleteExam(ctx *gin.Context) {
	if err := c.examService.DeleteExam(ctx.Param("exam_id")); err != nil {
		controller.Error(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.StatusResponse{Status: "deleted"})
}

// ListExamAttempts godoc
// @Summary (Admin) List every attempt of an exam
// @Description Scores include recorded manual evaluations merged over the auto score.
// @Tags Admin - Exams
// @Produce json
// @Security BearerAuth
// @Param exam_id path string true "Exam ID"
// @Success 200 {array} dto.AdminAttemptSummaryResponse
// @Failure 404 {object} dto.ErrorResponse "Exam not found"
// @Router /admin/exams/{exam_id}/attempts [get]
func (c *AdminExamController) ListExamAttempts(ctx *gin.Context) {
	resp, err := c.examService.ListExamAttempts(ctx.Param("exam_id"))
	if err != nil {
		controller.Error(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, resp)
}

// GetAttemptResults godoc
// @Summary (Admin) Inspect a submitted attempt
// @Tags Admin - Exams
// @Produce json
// @Security BearerAuth
// @Param attempt_id path string true "Attempt ID"
// @Success 200 {object} dto.AttemptResultsResponse
// @Failure 400 {object} dto.ErrorResponse "Attempt not submitted yet"
// @Failure 404 {object} dto.ErrorResponse "Attempt not found"
// @Router /admin/attempts/{attempt_id}/results [get]
func (c *AdminExamController) GetAttemptResults(ctx *gin.Context) {
	resp, err := c.resultService.AdminAttemptResults(ctx.Param("attempt_id"))
	if err != nil {
		controller.Error(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, resp)
}
