package router

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/newsportal/internal/config"
	"github.com/newsportal/internal/db"
	"github.com/newsportal/internal/handler"
	"github.com/newsportal/internal/viewmark"
)

const sessionCookieName = "newsportal_session"

// SetupRouter 配置 Gin 引擎和路由
// views 为 nil 时浏览量去重使用会话标记。
func SetupRouter(cfg config.AppConfig, views viewmark.Marker) *gin.Engine {
	r := gin.New()
	r.Use(gin.Logger(), gin.Recovery(), handler.LogErrors())

	if len(cfg.AllowedOrigins) > 0 {
		r.Use(cors.New(cors.Config{
			AllowOrigins:     cfg.AllowedOrigins,
			AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch},
			AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "X-Requested-With"},
			AllowCredentials: true,
			MaxAge:           12 * time.Hour,
		}))
	}

	// 配置会话中间件
	secret := cfg.SessionSecret
	if secret == "" {
		secret = "newsportal-dev-secret"
	}
	store := cookie.NewStore([]byte(secret))
	store.Options(sessions.Options{
		Path:     "/",
		MaxAge:   cfg.SessionMaxAge,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	r.Use(sessions.Sessions(sessionCookieName, store))

	api := handler.NewAPI(db.DB, cfg.UploadDir, cfg.UploadURLPath, views)
	r.Use(api.LoadUser())

	// 上传文件（头像）静态服务
	if cfg.UploadDir != "" && cfg.UploadURLPath != "" {
		r.Static(cfg.UploadURLPath, cfg.UploadDir)
	}

	r.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong"})
	})

	r.GET("/", api.ShowHome)
	r.GET("/newspage/:slug", api.ShowArticle)
	r.GET("/categories", api.ListCategories)
	r.GET("/categories/:slug", api.ShowCategory)

	r.GET("/login", api.ShowLogin)
	r.POST("/login", api.Login)
	r.POST("/logout", api.Logout)

	// 需要登录的路由
	auth := r.Group("")
	auth.Use(api.AuthRequired())
	{
		auth.GET("/dashboard", api.VerifiedRequired(), api.ShowDashboard)

		auth.POST("/newspage/:slug/comment", api.StoreComment)
		auth.POST("/articles/:article/like", api.ToggleLike)

		auth.GET("/settings", func(c *gin.Context) {
			c.Redirect(http.StatusFound, "/settings/profile")
		})
		auth.GET("/settings/profile", api.ShowProfileSettings)
		auth.PATCH("/settings/profile/personal", api.UpdatePersonal)
		auth.PATCH("/settings/profile/account", api.UpdateAccount)
		auth.PUT("/settings/password", api.UpdatePassword)
	}

	return r
}
