package controller

import (
	"github.com/examhall/examhall/internal/apperror"
	"github.com/examhall/examhall/internal/dto"
	"github.com/gin-gonic/gin"
)

// Error writes a service error with the status its kind maps to.
// Wrapped causes stay out of the response body.
func Error(ctx *gin.Context, err error) {
	ctx.JSON(apperror.HTTPStatus(err), dto.ErrorResponse{Message: apperror.Message(err)})
}
