package middleware

import (
	"net/http"
	"strings"

	"github.com/examhall/examhall/internal/dto"
	"github.com/examhall/examhall/internal/model"
	"github.com/examhall/examhall/internal/service"
	"github.com/gin-gonic/gin"
)

// CurrentUserKey is the gin context key the authenticated user is
// stored under.
const CurrentUserKey = "currentUser"

// RequireAuth validates the bearer token and loads the user into the
// request context.
func RequireAuth(authService service.AuthService) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		header := ctx.GetHeader("Authorization")
		if !strings.HasPrefix(header, "Bearer ") {
			ctx.AbortWithStatusJSON(http.StatusUnauthorized, dto.ErrorResponse{Message: "missing bearer token"})
			return
		}
		user, err := authService.Authenticate(strings.TrimPrefix(header, "Bearer "))
		if err != nil {
			ctx.AbortWithStatusJSON(http.StatusUnauthorized, dto.ErrorResponse{Message: "could not validate credentials"})
			return
		}
		ctx.Set(CurrentUserKey, user)
		ctx.Next()
	}
}

// RequireRole rejects authenticated users whose role does not match.
func RequireRole(role string) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		user := CurrentUser(ctx)
		if user == nil || user.Role != role {
			ctx.AbortWithStatusJSON(http.StatusForbidden, dto.ErrorResponse{Message: "insufficient permissions"})
			return
		}
		ctx.Next()
	}
}

// CurrentUser returns the authenticated user, or nil outside an
// authenticated route.
func CurrentUser(ctx *gin.Context) *model.User {
	value, ok := ctx.Get(CurrentUserKey)
	if !ok {
		return nil
	}
	user, _ := value.(*model.User)
	return user
}
