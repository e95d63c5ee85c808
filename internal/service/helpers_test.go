package service

import (
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/newsportal/internal/db"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var testDBSeq atomic.Int64

func setupServiceTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:service-%d-%d?mode=memory&cache=shared&_foreign_keys=on", time.Now().UnixNano(), testDBSeq.Add(1))
	gdb, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}

	sqlDB, err := gdb.DB()
	if err != nil {
		t.Fatalf("failed to get sql db: %v", err)
	}
	// 单连接让事务在内存库上串行执行
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	if err := db.Migrate(gdb); err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}
	return gdb
}

func createTestUser(t *testing.T, gdb *gorm.DB, username, password string) *db.User {
	t.Helper()
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	verified := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	user := db.User{
		Name:            username,
		Username:        username,
		Email:           username + "@example.com",
		EmailVerifiedAt: &verified,
		Password:        string(hashed),
	}
	if err := gdb.Create(&user).Error; err != nil {
		t.Fatalf("create user %s: %v", username, err)
	}
	return &user
}

func createTestArticle(t *testing.T, gdb *gorm.DB, article db.Article) *db.Article {
	t.Helper()
	if article.Slug == "" {
		article.Slug = fmt.Sprintf("article-%d", testDBSeq.Add(1))
	}
	if article.Title == "" {
		article.Title = article.Slug
	}
	if article.Status == "" {
		article.Status = "published"
	}
	if err := gdb.Create(&article).Error; err != nil {
		t.Fatalf("create article %s: %v", article.Slug, err)
	}
	return &article
}

func daysAgo(days int) *time.Time {
	ts := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC).AddDate(0, 0, -days)
	return &ts
}
