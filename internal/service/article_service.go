package service

import (
	"errors"
	"fmt"
	"strings"

	"github.com/newsportal/internal/db"
	"gorm.io/gorm"
)

// ArticleService wraps article related database operations.
type ArticleService struct {
	db *gorm.DB
}

// ArticleFilter describes filters for listing articles.
type ArticleFilter struct {
	Search   string
	Category string
	Status   string
	Page     int
	PerPage  int
}

// ArticleListResult aggregates paginated list data.
type ArticleListResult struct {
	Articles   []db.Article
	Total      int64
	TotalPages int
	Page       int
	PerPage    int
}

// NewArticleService creates an ArticleService instance.
func NewArticleService(gdb *gorm.DB) *ArticleService {
	return &ArticleService{db: gdb}
}

// List 按发布时间倒序返回文章，PerPage <= 0 时返回全部匹配结果。
func (s *ArticleService) List(filter ArticleFilter) (*ArticleListResult, error) {
	result := &ArticleListResult{Page: filter.Page, PerPage: filter.PerPage}
	if result.Page <= 0 {
		result.Page = 1
	}

	query := applyArticleFilter(s.db.Model(&db.Article{}), filter)
	if err := query.Count(&result.Total).Error; err != nil {
		return nil, fmt.Errorf("count articles: %w", err)
	}

	dataQuery := applyArticleFilter(s.db.Model(&db.Article{}), filter).
		Order("published_at desc").
		Order("id desc")

	if result.PerPage > 0 {
		dataQuery = dataQuery.Limit(result.PerPage).Offset((result.Page - 1) * result.PerPage)
		result.TotalPages = calculateTotalPages(result.Total, result.PerPage)
	} else {
		result.Page = 1
		result.TotalPages = 1
	}

	if err := dataQuery.Find(&result.Articles).Error; err != nil {
		return nil, fmt.Errorf("list articles: %w", err)
	}

	return result, nil
}

// GetBySlug fetches an article by its unique slug.
func (s *ArticleService) GetBySlug(slug string) (*db.Article, error) {
	slug = strings.TrimSpace(slug)
	if slug == "" {
		return nil, ErrArticleNotFound
	}

	var article db.Article
	if err := s.db.Where("slug = ?", slug).First(&article).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrArticleNotFound
		}
		return nil, fmt.Errorf("get article by slug: %w", err)
	}
	return &article, nil
}

// Get fetches an article by id.
func (s *ArticleService) Get(id uint) (*db.Article, error) {
	var article db.Article
	if err := s.db.First(&article, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrArticleNotFound
		}
		return nil, fmt.Errorf("get article: %w", err)
	}
	return &article, nil
}

// IncrementViews 以单条 UPDATE 增加浏览次数，返回最新值。
func (s *ArticleService) IncrementViews(id uint) (int64, error) {
	res := s.db.Model(&db.Article{}).
		Where("id = ?", id).
		UpdateColumn("view_count", gorm.Expr("view_count + ?", 1))
	if res.Error != nil {
		return 0, fmt.Errorf("increment article views: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return 0, ErrArticleNotFound
	}

	var count int64
	if err := s.db.Model(&db.Article{}).Where("id = ?", id).Select("view_count").Scan(&count).Error; err != nil {
		return 0, fmt.Errorf("read article views: %w", err)
	}
	return count, nil
}

// Popular 返回浏览量最高的文章，排除 excludeID。
func (s *ArticleService) Popular(excludeID uint, limit int) ([]db.Article, error) {
	query := s.db.Model(&db.Article{})
	if excludeID != 0 {
		query = query.Where("id <> ?", excludeID)
	}
	if limit > 0 {
		query = query.Limit(limit)
	}

	var articles []db.Article
	if err := query.Order("view_count desc").Order("published_at desc").Order("id desc").Find(&articles).Error; err != nil {
		return nil, fmt.Errorf("list popular articles: %w", err)
	}
	return articles, nil
}

// Related 返回同分类的其他文章，按发布时间倒序。
func (s *ArticleService) Related(article *db.Article, limit int) ([]db.Article, error) {
	if article == nil {
		return nil, nil
	}

	query := s.db.Model(&db.Article{}).
		Where("category = ?", article.Category).
		Where("id <> ?", article.ID)
	if limit > 0 {
		query = query.Limit(limit)
	}

	var articles []db.Article
	if err := query.Order("published_at desc").Order("id desc").Find(&articles).Error; err != nil {
		return nil, fmt.Errorf("list related articles: %w", err)
	}
	return articles, nil
}

func applyArticleFilter(query *gorm.DB, filter ArticleFilter) *gorm.DB {
	if category := strings.TrimSpace(filter.Category); category != "" {
		query = query.Where("category = ?", category)
	}
	if status := strings.TrimSpace(filter.Status); status != "" {
		query = query.Where("status = ?", status)
	}
	if search := strings.TrimSpace(filter.Search); search != "" {
		like := "%" + strings.ToLower(search) + "%"
		query = query.Where("(LOWER(title) LIKE ? OR LOWER(content) LIKE ?)", like, like)
	}
	return query
}

func calculateTotalPages(total int64, perPage int) int {
	if total == 0 || perPage <= 0 {
		return 1
	}
	return int((total + int64(perPage) - 1) / int64(perPage))
}
