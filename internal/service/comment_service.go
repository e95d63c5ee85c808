package service

import (
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/newsportal/internal/db"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// CommentService 负责评论的创建与读取，评论写入后不可修改。
type CommentService struct {
	db  *gorm.DB
	now func() time.Time
}

// CommentInput 描述创建评论时的输入。
type CommentInput struct {
	ArticleID uint
	UserID    uint
	Content   string
}

// NewCommentService creates a CommentService instance.
func NewCommentService(gdb *gorm.DB) *CommentService {
	return &CommentService{db: gdb, now: time.Now}
}

// Create 校验内容后以当前用户身份写入评论。
func (s *CommentService) Create(input CommentInput) (*db.Comment, error) {
	if input.UserID == 0 {
		return nil, ErrUnauthenticated
	}

	content := strings.TrimSpace(input.Content)
	if err := validateCommentContent(content); err != nil {
		return nil, err
	}

	var exists int64
	if err := s.db.Model(&db.Article{}).Where("id = ?", input.ArticleID).Count(&exists).Error; err != nil {
		return nil, fmt.Errorf("find comment article: %w", err)
	}
	if exists == 0 {
		return nil, ErrArticleNotFound
	}

	now := s.now()
	comment := db.Comment{
		ArticleID: input.ArticleID,
		UserID:    input.UserID,
		Content:   content,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.db.Omit(clause.Associations).Create(&comment).Error; err != nil {
		return nil, fmt.Errorf("create comment: %w", err)
	}

	return &comment, nil
}

// ListByArticle 返回文章下的评论，最新的在前。
func (s *CommentService) ListByArticle(articleID uint) ([]db.Comment, error) {
	var comments []db.Comment
	if err := s.db.Preload("User").
		Where("article_id = ?", articleID).
		Order("created_at desc").
		Order("id desc").
		Find(&comments).Error; err != nil {
		return nil, fmt.Errorf("list comments: %w", err)
	}
	return comments, nil
}

func validateCommentContent(content string) error {
	errs := ValidationErrors{}
	switch {
	case content == "":
		errs.Add("content", "The content field is required.")
	case utf8.RuneCountInString(content) > db.CommentMaxLength:
		errs.Add("content", fmt.Sprintf("The content may not be greater than %d characters.", db.CommentMaxLength))
	}
	return errs.orNil()
}

// IsValidationError reports whether err carries field-level validation errors.
func IsValidationError(err error) bool {
	var verrs ValidationErrors
	return errors.As(err, &verrs)
}
