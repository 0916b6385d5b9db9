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

type AdminEvaluationController struct {
	evaluationService service.EvaluationService
	assistService     service.EvaluationAssistService
}

func NewAdminEvaluationController(
	evaluationService service.EvaluationService,
	assistService service.EvaluationAssistService,
) *AdminEvaluationController {
	return &AdminEvaluationController{evaluationService: evaluationService, assistService: assistService}
}

// GetEvaluationQueue godoc
// @Summary (Admin) List an attempt's manually graded answers
// @Description Shows each text or image answer with its evaluation state, for the grading workbench.
// @Tags Admin - Evaluations
// @Produce json
// @Security BearerAuth
// @Param attempt_id path string true "Attempt ID"
// @Success 200 {object} dto.EvaluationQueueResponse
// @Failure 404 {object} dto.ErrorResponse "Attempt not found"
// @Router /admin/evaluations/attempts/{attempt_id} [get]
func (c *AdminEvaluationController) GetEvaluationQueue(ctx *gin.Context) {
	resp, err := c.evaluationService.EvaluationQueue(ctx.Param("attempt_id"))
	if err != nil {
		controller.Error(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, resp)
}

// EvaluateAnswer godoc
// @Summary (Admin) Record or amend an evaluation
// @Description Upserts the single evaluation per answer. Omitted fields keep their stored values; comments are clipped to 100 characters.
// @Tags Admin - Evaluations
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param answer_id path string true "Answer ID"
// @Param evaluation_data body dto.EvaluateAnswerRequest true "Partial evaluation update"
// @Success 200 {object} dto.EvaluationResponse
// @Failure 400 {object} dto.ErrorResponse "Not a manually graded answer or score out of range"
// @Failure 404 {object} dto.ErrorResponse "Answer not found"
// @Router /admin/answers/{answer_id}/evaluate [post]
func (c *AdminEvaluationController) EvaluateAnswer(ctx *gin.Context) {
	var req dto.EvaluateAnswerRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		log.Warn().Err(err).Msg("Admin EvaluateAnswer: failed to bind JSON")
		ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{Message: "Invalid request body", Details: []string{err.Error()}})
		return
	}
	resp, err := c.evaluationService.RecordEvaluation(ctx.Param("answer_id"), middleware.CurrentUser(ctx), req)
	if err != nil {
		controller.Error(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, resp)
}

// GetEvaluation godoc
// @Summary (Admin) Get the evaluation recorded for an answer
// @Tags Admin - Evaluations
// @Produce json
// @Security BearerAuth
// @Param answer_id path string true "Answer ID"
// @Success 200 {object} dto.EvaluationResponse
// @Failure 404 {object} dto.ErrorResponse "Evaluation not found"
// @Router /admin/answers/{answer_id}/evaluation [get]
func (c *AdminEvaluationController) GetEvaluation(ctx *gin.Context) {
	resp, err := c.evaluationService.GetEvaluation(ctx.Param("answer_id"))
	if err != nil {
		controller.Error(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, resp)
}

// EvaluateAnswerBinary godoc
// @Summary (Admin) Grade an answer as simply correct or incorrect
// @Description Awards the question's full max score for correct and zero for incorrect.
// @Tags Admin - Evaluations
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param answer_id path string true "Answer ID"
// @Param evaluation_data body dto.BinaryEvaluateRequest true "Correct or incorrect judgment"
// @Success 200 {object} dto.BinaryEvaluateResponse
// @Failure 400 {object} dto.ErrorResponse "Not a manually graded answer"
// @Failure 404 {object} dto.ErrorResponse "Answer not found"
// @Router /admin/answers/{answer_id}/evaluate-binary [post]
func (c *AdminEvaluationController) EvaluateAnswerBinary(ctx *gin.Context) {
	var req dto.BinaryEvaluateRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		log.Warn().Err(err).Msg("Admin EvaluateAnswerBinary: failed to bind JSON")
		ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{Message: "Invalid request body", Details: []string{err.Error()}})
		return
	}
	resp, err := c.evaluationService.SubmitBinaryEvaluation(ctx.Param("answer_id"), middleware.CurrentUser(ctx), req)
	if err != nil {
		controller.Error(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, resp)
}

// SuggestEvaluation godoc
// @Summary (Admin) Draft an AI evaluation for a text answer
// @Description Returns an advisory score and comment. Nothing is stored; the teacher records the real evaluation separately.
// @Tags Admin - Evaluations
// @Produce json
// @Security BearerAuth
// @Param answer_id path string true "Answer ID"
// @Success 200 {object} dto.EvaluationSuggestionResponse
// @Failure 400 {object} dto.ErrorResponse "Suggestions unavailable or not a text answer"
// @Failure 404 {object} dto.ErrorResponse "Answer not found"
// @Router /admin/answers/{answer_id}/assist [post]
func (c *AdminEvaluationController) SuggestEvaluation(ctx *gin.Context) {
	resp, err := c.assistService.SuggestEvaluation(ctx.Request.Context(), ctx.Param("answer_id"))
	if err != nil {
		controller.Error(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, resp)
}
