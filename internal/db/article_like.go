package db

import "time"

// ArticleLike 记录用户对文章的点赞，(article_id, user_id) 唯一。
// 行是否存在是“是否已点赞”的唯一事实来源，Article.LikeCount 只是它的计数缓存。
type ArticleLike struct {
	ID        uint      `gorm:"primaryKey"`
	ArticleID uint      `gorm:"not null;uniqueIndex:idx_article_likes_article_user"`
	Article   *Article  `gorm:"constraint:OnDelete:CASCADE"`
	UserID    uint      `gorm:"not null;uniqueIndex:idx_article_likes_article_user;index"`
	User      *User     `gorm:"constraint:OnDelete:CASCADE"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

// TableName 指定自定义表名。
func (ArticleLike) TableName() string {
	return "article_likes"
}
