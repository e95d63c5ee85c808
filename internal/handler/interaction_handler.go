package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/newsportal/internal/service"
)

type commentRequest struct {
	Content string `form:"content" json:"content"`
}

// StoreComment 为文章追加一条当前用户的评论。
func (a *API) StoreComment(c *gin.Context) {
	article, err := a.articles.GetBySlug(c.Param("slug"))
	if err != nil {
		handleServiceError(c, err, "Failed to load article")
		return
	}

	var payload commentRequest
	if err := c.ShouldBind(&payload); err != nil {
		respondError(c, http.StatusBadRequest, "Invalid comment request")
		return
	}

	comment, err := a.comments.Create(service.CommentInput{
		ArticleID: article.ID,
		UserID:    a.currentUserID(c),
		Content:   payload.Content,
	})
	if err != nil {
		handleServiceError(c, err, "Failed to save comment")
		return
	}

	comment.User = a.currentUser(c)
	c.JSON(http.StatusCreated, gin.H{
		"message": "Comment posted",
		"comment": a.commentPayload(*comment),
	})
}

// ToggleLike 切换当前用户对文章的点赞。
func (a *API) ToggleLike(c *gin.Context) {
	articleID, err := parseUintParam(c, "article")
	if err != nil {
		respondError(c, http.StatusNotFound, "Article not found")
		return
	}

	result, err := a.likes.Toggle(articleID, a.currentUserID(c))
	if err != nil {
		handleServiceError(c, err, "Failed to update like")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"liked":      result.Liked,
		"like_count": result.LikeCount,
	})
}
