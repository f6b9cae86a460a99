package http

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"catlog/internal/service"
)

// NewRouter configures the gin engine with middlewares and routes.
func NewRouter(
	logger *zap.Logger,
	jwtServ *service.JWTService,
	userH *UserHandler,
	verifH *VerificationHandler,
	postH *PostHandler,
	itemH *ItemHandler,
) *gin.Engine {
	r := gin.New()

	r.Use(zapLoggerMiddleware(logger), gin.Recovery(), jsonContentTypeMiddleware())

	// Public routes.
	r.POST("/register", userH.Register)

	auth := r.Group("/auth")
	auth.POST("/token", userH.Login)
	auth.POST("/token/refresh", userH.RefreshToken)
	auth.POST("/logout", userH.Logout)

	r.GET("/users", userH.ListUsers)
	r.GET("/users/:id", userH.GetProfile)
	r.GET("/explore", postH.Explore)
	r.GET("/posts/:id", postH.GetPost)
	r.GET("/search", postH.SearchPosts)
	r.GET("/items", itemH.ListItems)
	r.GET("/items/:id", itemH.GetItem)
	r.GET("/search-item", itemH.SearchItems)

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// Routes that require an access token.
	authed := r.Group("", JWTAuthMiddleware(jwtServ))

	authed.GET("/profile", userH.GetMyProfile)
	authed.PUT("/edit-profile", userH.EditProfile)
	authed.POST("/follow/:id", userH.ToggleFollow)

	authed.POST("/verify-email", verifH.ConfirmCode)
	authed.POST("/verify-email/request", verifH.RequestCode)
	authed.GET("/verify-email/status", verifH.Status)

	authed.GET("/fyp", postH.Following)
	authed.POST("/posts", postH.CreatePost)
	authed.PUT("/posts/:id", postH.UpdatePost)
	authed.DELETE("/posts/:id", postH.DeletePost)
	authed.POST("/posts/:id/like", postH.ToggleLike)
	authed.POST("/posts/:id/verify", postH.ToggleVerify)
	authed.POST("/posts/:id/report", postH.ReportPost)
	authed.POST("/comments", postH.CreateComment)
	authed.DELETE("/comments/:id", postH.DeleteComment)

	authed.POST("/items", itemH.CreateItem)
	authed.PUT("/items/:id", itemH.UpdateItem)
	authed.DELETE("/items/:id", itemH.DeleteItem)
	authed.POST("/items/:id/save", itemH.ToggleSave)
	authed.POST("/offers", itemH.CreateOffer)

	return r
}

// zapLoggerMiddleware logs each request with zap.
func zapLoggerMiddleware(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		latency := time.Since(start)
		logger.Info("request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", latency),
			zap.String("client_ip", c.ClientIP()),
		)
	}
}

// jsonContentTypeMiddleware forces Content-Type: application/json on responses.
func jsonContentTypeMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Content-Type", "application/json")
		c.Next()
	}
}
