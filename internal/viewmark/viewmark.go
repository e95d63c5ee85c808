// Package viewmark 记录“某个浏览会话是否已看过某篇文章”，用于浏览量去重。
package viewmark

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/newsportal/internal/db"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	// VisitorCookieName 保存浏览会话标识，不设置过期时间，随浏览器会话结束失效。
	VisitorCookieName = "np_visitor_id"

	defaultTTL = 2 * time.Hour
)

// Marker 判断当前浏览会话是否第一次查看文章，并在首次时留下标记。
// Release 撤销标记，用于首次浏览未能计数的情况。
type Marker interface {
	FirstView(c *gin.Context, articleID uint) (bool, error)
	Release(c *gin.Context, articleID uint) error
}

// DBMarker 把标记保存在 article_views 表，按浏览会话标识去重。
// cookie 中只保存会话标识，标记数量不受 cookie 大小限制。
type DBMarker struct {
	db *gorm.DB
}

// NewDBMarker creates a DBMarker.
func NewDBMarker(gdb *gorm.DB) *DBMarker {
	return &DBMarker{db: gdb}
}

func (m *DBMarker) FirstView(c *gin.Context, articleID uint) (bool, error) {
	view := db.ArticleView{VisitorID: EnsureVisitorID(c), ArticleID: articleID}
	res := m.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "visitor_id"}, {Name: "article_id"}},
		DoNothing: true,
	}).Omit(clause.Associations).Create(&view)
	if res.Error != nil {
		return false, fmt.Errorf("save view marker: %w", res.Error)
	}
	return res.RowsAffected == 1, nil
}

func (m *DBMarker) Release(c *gin.Context, articleID uint) error {
	if err := m.db.Where("visitor_id = ? AND article_id = ?", EnsureVisitorID(c), articleID).
		Delete(&db.ArticleView{}).Error; err != nil {
		return fmt.Errorf("release view marker: %w", err)
	}
	return nil
}

// RedisMarker 使用 Redis SETNX 保存短期标记，键在 ttl 后过期。
type RedisMarker struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisMarker creates a RedisMarker; ttl <= 0 falls back to two hours.
func NewRedisMarker(client *redis.Client, ttl time.Duration) *RedisMarker {
	if ttl <= 0 {
		ttl = defaultTTL
	}
	return &RedisMarker{client: client, ttl: ttl}
}

// NewRedisClient 解析 REDIS_URL 并确认连接可用。
func NewRedisClient(ctx context.Context, redisURL string) (*redis.Client, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}

	client := redis.NewClient(opt)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	return client, nil
}

func (m *RedisMarker) FirstView(c *gin.Context, articleID uint) (bool, error) {
	visitorID := EnsureVisitorID(c)

	created, err := m.client.SetNX(c.Request.Context(), redisKey(visitorID, articleID), 1, m.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("set view marker: %w", err)
	}
	return created, nil
}

func (m *RedisMarker) Release(c *gin.Context, articleID uint) error {
	if err := m.client.Del(c.Request.Context(), redisKey(EnsureVisitorID(c), articleID)).Err(); err != nil {
		return fmt.Errorf("release view marker: %w", err)
	}
	return nil
}

func redisKey(visitorID string, articleID uint) string {
	return fmt.Sprintf("viewed_article:%s:%d", visitorID, articleID)
}

// EnsureVisitorID 读取或签发浏览会话标识，非 uuid 的 cookie 值会被替换。
func EnsureVisitorID(c *gin.Context) string {
	if id, err := c.Cookie(VisitorCookieName); err == nil {
		if parsed, parseErr := uuid.Parse(id); parseErr == nil {
			return parsed.String()
		}
	}
	if id := c.GetString(VisitorCookieName); id != "" {
		return id
	}

	visitorID := uuid.NewString()
	http.SetCookie(c.Writer, &http.Cookie{
		Name:     VisitorCookieName,
		Value:    visitorID,
		Path:     "/",
		HttpOnly: true,
		Secure:   c.Request.TLS != nil,
		SameSite: http.SameSiteLaxMode,
	})
	c.Set(VisitorCookieName, visitorID)

	return visitorID
}
