package auth

import (
	"net/http"

	"github.com/examhall/examhall/internal/controller"
	"github.com/examhall/examhall/internal/dto"
	"github.com/examhall/examhall/internal/middleware"
	"github.com/examhall/examhall/internal/service"
	"github.com/gin-gonic/gin"
	"github.com/jinzhu/copier"
	"github.com/rs/zerolog/log"
)

type AuthController struct {
	authService service.AuthService
}

func NewAuthController(authService service.AuthService) *AuthController {
	return &AuthController{authService: authService}
}

// Signup godoc
// @Summary Register a new student account
// @Description Creates a student account. Admin accounts cannot be created through this endpoint.
// @Tags Auth
// @Accept json
// @Produce json
// @Param signup_data body dto.SignupRequest true "Account details"
// @Success 201 {object} dto.UserResponse "Account created"
// @Failure 400 {object} dto.ErrorResponse "Invalid input or email already registered"
// @Router /auth/signup [post]
func (c *AuthController) Signup(ctx *gin.Context) {
	var req dto.SignupRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		log.Warn().Err(err).Msg("Signup: failed to bind JSON")
		ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{Message: "Invalid request body", Details: []string{err.Error()}})
		return
	}
	resp, err := c.authService.Signup(req)
	if err != nil {
		controller.Error(ctx, err)
		return
	}
	ctx.JSON(http.StatusCreated, resp)
}

// Login godoc
// @Summary Exchange credentials for an access token
// @Tags Auth
// @Accept json
// @Produce json
// @Param credentials body dto.LoginRequest true "Email and password"
// @Success 200 {object} dto.TokenResponse "Bearer token"
// @Failure 403 {object} dto.ErrorResponse "Incorrect email or password"
// @Router /auth/token [post]
func (c *AuthController) Login(ctx *gin.Context) {
	var req dto.LoginRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		log.Warn().Err(err).Msg("Login: failed to bind JSON")
		ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{Message: "Invalid request body", Details: []string{err.Error()}})
		return
	}
	resp, err := c.authService.Login(req)
	if err != nil {
		controller.Error(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, resp)
}

// Me godoc
// @Summary Return the authenticated user's profile
// @Tags Auth
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.UserResponse
// @Failure 401 {object} dto.ErrorResponse "Missing or invalid token"
// @Router /auth/me [get]
func (c *AuthController) Me(ctx *gin.Context) {
	user := middleware.CurrentUser(ctx)
	var resp dto.UserResponse
	copier.Copy(&resp, user)
	ctx.JSON(http.StatusOK, resp)
}

// ListStudents godoc
// @Summary (Admin) List registered student accounts
// @Tags Admin - Students
// @Produce json
// @Security BearerAuth
// @Success 200 {array} dto.UserResponse
// @Router /admin/students [get]
func (c *AuthController) ListStudents(ctx *gin.Context) {
	resp, err := c.authService.ListStudents()
	if err != nil {
		controller.Error(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, resp)
}
