package handler

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/newsportal/internal/db"
)

func articlePayloads(articles []db.Article) []gin.H {
	items := make([]gin.H, 0, len(articles))
	for i := range articles {
		items = append(items, articlePayload(&articles[i]))
	}
	return items
}

func articlePayload(article *db.Article) gin.H {
	return gin.H{
		"id":              article.ID,
		"category":        article.Category,
		"title":           article.Title,
		"slug":            article.Slug,
		"content":         article.Content,
		"thumbnail_image": article.ThumbnailImage,
		"status":          article.Status,
		"published_at":    article.PublishedAt,
		"view_count":      article.ViewCount,
		"like_count":      article.LikeCount,
		"author_name":     article.AuthorName,
		"created_at":      article.CreatedAt,
	}
}

func (a *API) userPayload(user *db.User) gin.H {
	var dateOfBirth string
	if user.DateOfBirth != nil {
		dateOfBirth = user.DateOfBirth.Format("2006-01-02")
	}
	var backupEmail string
	if user.BackupEmail != nil {
		backupEmail = *user.BackupEmail
	}

	return gin.H{
		"id":                user.ID,
		"name":              user.Name,
		"username":          user.Username,
		"email":             user.Email,
		"email_verified_at": user.EmailVerifiedAt,
		"backup_email":      backupEmail,
		"phone":             user.Phone,
		"gender":            user.Gender,
		"date_of_birth":     dateOfBirth,
		"province":          user.Province,
		"city":              user.City,
		"address":           user.Address,
		"avatar":            a.avatars.URL(user.Avatar),
	}
}

func (a *API) commentPayloads(comments []db.Comment) []gin.H {
	items := make([]gin.H, 0, len(comments))
	for _, comment := range comments {
		items = append(items, a.commentPayload(comment))
	}
	return items
}

func (a *API) commentPayload(comment db.Comment) gin.H {
	item := gin.H{
		"id":         comment.ID,
		"article_id": comment.ArticleID,
		"user_id":    comment.UserID,
		"content":    comment.Content,
		"created_at": comment.CreatedAt.Format(time.RFC3339),
	}
	if comment.User != nil {
		item["user"] = gin.H{
			"id":     comment.User.ID,
			"name":   comment.User.Name,
			"avatar": a.avatars.URL(comment.User.Avatar),
		}
	}
	return item
}
