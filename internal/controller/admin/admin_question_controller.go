package admin

import (
	"net/http"

	"github.com/examhall/examhall/internal/controller"
	"github.com/examhall/examhall/internal/dto"
	"github.com/examhall/examhall/internal/service"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

type AdminQuestionController struct {
	questionService service.QuestionService
}

func NewAdminQuestionController(questionService service.QuestionService) *AdminQuestionController {
	return &AdminQuestionController{questionService: questionService}
}

// CreateQuestion godoc
// @Summary (Admin) Create a question
// @Description Creates a question in the shared bank. Choice questions require options and correct answers; unknown tags fold into "others".
// @Tags Admin - Questions
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param question_data body dto.CreateQuestionRequest true "Question data"
// @Success 201 {object} dto.QuestionResponse "Question created"
// @Failure 400 {object} dto.ErrorResponse "Invalid question data"
// @Router /admin/questions [post]
func (c *AdminQuestionController) CreateQuestion(ctx *gin.Context) {
	var req dto.CreateQuestionRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		log.Warn().Err(err).Msg("Admin CreateQuestion: failed to bind JSON")
		ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{Message: "Invalid request body", Details: []string{err.Error()}})
		return
	}
	resp, err := c.questionService.CreateQuestion(req)
	if err != nil {
		controller.Error(ctx, err)
		return
	}
	ctx.JSON(http.StatusCreated, resp)
}

// ImportQuestions godoc
// @Summary (Admin) Import a batch of questions
// @Description Validates every row first; one invalid row rejects the whole batch.
// @Tags Admin - Questions
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param import_data body dto.ImportQuestionsRequest true "Questions to import"
// @Success 201 {object} dto.ImportQuestionsResponse "Import summary"
// @Failure 400 {object} dto.ErrorResponse "A row failed validation"
// @Router /admin/questions/import [post]
func (c *AdminQuestionController) ImportQuestions(ctx *gin.Context) {
	var req dto.ImportQuestionsRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		log.Warn().Err(err).Msg("Admin ImportQuestions: failed to bind JSON")
		ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{Message: "Invalid request body", Details: []string{err.Error()}})
		return
	}
	resp, err := c.questionService.ImportQuestions(req)
	if err != nil {
		controller.Error(ctx, err)
		return
	}
	ctx.JSON(http.StatusCreated, resp)
}

// SearchQuestions godoc
// @Summary (Admin) Search the question bank
// @Tags Admin - Questions
// @Produce json
// @Security BearerAuth
// @Param search query string false "Substring match on title"
// @Param type query string false "Question type"
// @Param complexity query string false "Complexity level"
// @Param tag query string false "Tag label"
// @Success 200 {array} dto.QuestionResponse
// @Router /admin/questions [get]
func (c *AdminQuestionController) SearchQuestions(ctx *gin.Context) {
	filter := dto.QuestionFilter{
		Search:     ctx.Query("search"),
		Type:       ctx.Query("type"),
		Complexity: ctx.Query("complexity"),
		Tag:        ctx.Query("tag"),
	}
	resp, err := c.questionService.SearchQuestions(filter)
	if err != nil {
		controller.Error(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, resp)
}

// GetQuestion godoc
// @Summary (Admin) Get one question with its answer key
// @Tags Admin - Questions
// @Produce json
// @Security BearerAuth
// @Param question_id path string true "Question ID"
// @Success 200 {object} dto.QuestionResponse
// @Failure 404 {object} dto.ErrorResponse "Question not found"
// @Router /admin/questions/{question_id} [get]
func (c *AdminQuestionController) GetQuestion(ctx *gin.Context) {
	resp, err := c.questionService.GetQuestion(ctx.Param("question_id"))
	if err != nil {
		controller.Error(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, resp)
}

// DeleteQuestion godoc
// @Summary (Admin) Delete a question
// @Description Removes the question and everything hanging off it: exam links, answers and evaluations.
// @Tags Admin - Questions
// @Produce json
// @Security BearerAuth
// @Param question_id path string true "Question ID"
// @Success 200 {object} dto.StatusResponse
// @Failure 404 {object} dto.ErrorResponse "Question not found"
// @Router /admin/questions/{question_id} [delete]
func (c *AdminQuestionController) DeleteQuestion(ctx *gin.Context) {
	if err := c.questionService.DeleteQuestion(ctx.Param("question_id")); err != nil {
		controller.Error(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.StatusResponse{Status: "deleted"})
}

// BulkDeleteQuestions godoc
// @Summary (Admin) Delete many questions at once
// @Description Keeps going past individual failures and reports deleted and failed counts.
// @Tags Admin - Questions
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param delete_data body dto.BulkDeleteQuestionsRequest true "Question IDs to delete"
// @Success 200 {object} dto.BulkDeleteQuestionsResponse "Per-row outcome counts"
// @Router /admin/questions/delete-bulk [post]
func (c *AdminQuestionController) BulkDeleteQuestions(ctx *gin.Context) {
	var req dto.BulkDeleteQuestionsRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		log.Warn().Err(err).Msg("Admin BulkDeleteQuestions: failed to bind JSON")
		ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{Message: "Invalid request body", Details: []string{err.Error()}})
		return
	}
	resp, err := c.questionService.BulkDeleteQuestions(req)
	if err != nil {
		controller.Error(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, resp)
}
