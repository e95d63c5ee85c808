package db

import "time"

// Article 定义了新闻文章模型，不由 gorm 自动维护时间戳。
type Article struct {
	ID             uint       `gorm:"primaryKey" json:"id"`
	Category       string     `gorm:"size:100;index" json:"category"`
	Title          string     `gorm:"size:255;not null" json:"title"`
	Slug           string     `gorm:"size:255;uniqueIndex;not null" json:"slug"`
	Content        string     `gorm:"type:text" json:"content"`
	ThumbnailImage string     `gorm:"size:255" json:"thumbnail_image"`
	Status         string     `gorm:"size:20;index" json:"status"`
	PublishedAt    *time.Time `gorm:"index" json:"published_at"`
	ViewCount      int64      `gorm:"not null;default:0" json:"view_count"`
	LikeCount      int64      `gorm:"not null;default:0" json:"like_count"`
	AuthorName     string     `gorm:"size:255" json:"author_name"`
	CreatedAt      *time.Time `gorm:"autoCreateTime:false" json:"created_at"`
}

// TableName 指定表名。
func (Article) TableName() string {
	return "articles"
}
