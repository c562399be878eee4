package auth

import "github.com/gin-gonic/gin"

// RegisterPublicRoutes mounts the login endpoints; limits run before each handler.
func (h *Handler) RegisterPublicRoutes(v1 *gin.RouterGroup, limits ...gin.HandlerFunc) {
	authGroup := v1.Group("/auth", limits...)
	{
		authGroup.POST("/otp/request", h.RequestCode)
		authGroup.POST("/otp/verify", h.VerifyCode)
	}
}

func (h *Handler) RegisterProtectedRoutes(protected *gin.RouterGroup) {
	userGroup := protected.Group("/users")
	{
		userGroup.GET("/me", h.GetMe)
	}
}
