package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/newsportal/internal/db"
	"github.com/newsportal/internal/service"
	"github.com/newsportal/internal/viewmark"
	"gorm.io/gorm"
)

// API bundles shared dependencies for HTTP handlers.
type API struct {
	db         *gorm.DB
	articles   *service.ArticleService
	categories *service.CategoryService
	comments   *service.CommentService
	likes      *service.LikeService
	profiles   *service.ProfileService
	auth       *service.AuthService
	avatars    *service.LocalAvatarStore
	views      viewmark.Marker
}

const currentUserContextKey = "__current_user"

// NewAPI constructs a handler set with shared services.
// views 为 nil 时使用数据库标记做浏览量去重。
func NewAPI(gdb *gorm.DB, uploadDir, uploadURL string, views viewmark.Marker) *API {
	if views == nil {
		views = viewmark.NewDBMarker(gdb)
	}
	avatars := service.NewLocalAvatarStore(uploadDir, uploadURL)

	return &API{
		db:         gdb,
		articles:   service.NewArticleService(gdb),
		categories: service.NewCategoryService(gdb),
		comments:   service.NewCommentService(gdb),
		likes:      service.NewLikeService(gdb),
		profiles:   service.NewProfileService(gdb, avatars),
		auth:       service.NewAuthService(gdb),
		avatars:    avatars,
		views:      views,
	}
}

// DB exposes the underlying gorm instance.
func (a *API) DB() *gorm.DB {
	return a.db
}

// renderPage 以页面组件名与 props 的形式输出 JSON，并附加当前登录用户。
func (a *API) renderPage(c *gin.Context, status int, component string, props gin.H) {
	payload := gin.H{}
	for key, value := range props {
		payload[key] = value
	}

	if _, exists := payload["auth"]; !exists {
		var user gin.H
		if current := a.currentUser(c); current != nil {
			user = a.userPayload(current)
		}
		payload["auth"] = gin.H{"user": user}
	}

	c.JSON(status, gin.H{
		"component": component,
		"props":     payload,
		"url":       c.Request.URL.RequestURI(),
	})
}

// currentUser 返回由 AuthRequired 或 LoadUser 放入上下文的用户。
func (a *API) currentUser(c *gin.Context) *db.User {
	if cached, exists := c.Get(currentUserContextKey); exists {
		if user, ok := cached.(*db.User); ok {
			return user
		}
	}
	return nil
}

func (a *API) currentUserID(c *gin.Context) uint {
	if user := a.currentUser(c); user != nil {
		return user.ID
	}
	return 0
}
