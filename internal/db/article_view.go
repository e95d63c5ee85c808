package db

import "time"

// ArticleView 标记某个浏览会话（visitor_id）已经浏览过文章，(visitor_id, article_id) 唯一。
type ArticleView struct {
	ID        uint      `gorm:"primaryKey"`
	VisitorID string    `gorm:"size:64;not null;uniqueIndex:idx_article_views_visitor_article"`
	ArticleID uint      `gorm:"not null;uniqueIndex:idx_article_views_visitor_article;index"`
	Article   *Article  `gorm:"constraint:OnDelete:CASCADE"`
	CreatedAt time.Time `gorm:"index"`
}

// TableName 指定自定义表名。
func (ArticleView) TableName() string {
	return "article_views"
}
