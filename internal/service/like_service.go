package service

import (
	"errors"
	"fmt"

	"github.com/newsportal/internal/db"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// LikeService 负责文章点赞的切换与查询。
type LikeService struct {
	db *gorm.DB
}

// LikeResult 描述切换后的点赞状态。
type LikeResult struct {
	Liked     bool
	LikeCount int64
}

// NewLikeService creates a LikeService instance.
func NewLikeService(gdb *gorm.DB) *LikeService {
	return &LikeService{db: gdb}
}

// Toggle 在单个事务内翻转 (article, user) 的点赞关系。
// 已存在则删除，否则插入；并发重复插入由唯一约束吸收，视为已点赞。
// like_count 在同一事务内按 article_likes 的实际行数重新计算，而不是 +1/-1。
func (s *LikeService) Toggle(articleID, userID uint) (*LikeResult, error) {
	if userID == 0 {
		return nil, ErrUnauthenticated
	}

	result := &LikeResult{}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		// 锁定文章行，使同一文章上的并发切换串行执行
		var article db.Article
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Select("id").
			First(&article, articleID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrArticleNotFound
			}
			return err
		}

		removed := tx.Where("article_id = ? AND user_id = ?", articleID, userID).Delete(&db.ArticleLike{})
		if removed.Error != nil {
			return removed.Error
		}

		if removed.RowsAffected == 0 {
			like := db.ArticleLike{ArticleID: articleID, UserID: userID}
			inserted := tx.Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "article_id"}, {Name: "user_id"}},
				DoNothing: true,
			}).Omit(clause.Associations).Create(&like)
			if inserted.Error != nil {
				return inserted.Error
			}
			result.Liked = true
		}

		count, err := syncLikeCount(tx, articleID)
		if err != nil {
			return err
		}
		result.LikeCount = count
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrArticleNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("toggle article like: %w", err)
	}

	return result, nil
}

// IsLiked 判断用户是否已点赞，未登录用户始终返回 false。
func (s *LikeService) IsLiked(articleID, userID uint) (bool, error) {
	if userID == 0 {
		return false, nil
	}

	var count int64
	if err := s.db.Model(&db.ArticleLike{}).
		Where("article_id = ? AND user_id = ?", articleID, userID).
		Count(&count).Error; err != nil {
		return false, fmt.Errorf("check article like: %w", err)
	}
	return count > 0, nil
}

func syncLikeCount(tx *gorm.DB, articleID uint) (int64, error) {
	var count int64
	if err := tx.Model(&db.ArticleLike{}).Where("article_id = ?", articleID).Count(&count).Error; err != nil {
		return 0, err
	}

	if err := tx.Model(&db.Article{}).
		Where("id = ?", articleID).
		UpdateColumn("like_count", count).Error; err != nil {
		return 0, err
	}
	return count, nil
}
