package main

import (
	"testing"
	"time"

	"github.com/newsportal/internal/db"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupSeedTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	gdb, err := gorm.Open(sqlite.Open("file:news-seed?mode=memory&cache=shared"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to open test db: %v", err)
	}
	if err := db.Migrate(gdb); err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := gdb.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return gdb
}

func TestSeedIsIdempotent(t *testing.T) {
	gdb := setupSeedTestDB(t)
	now := time.Date(2025, 5, 1, 10, 0, 0, 0, time.UTC)

	for i := 0; i < 2; i++ {
		if err := seed(gdb, now); err != nil {
			t.Fatalf("seed run %d: %v", i+1, err)
		}
	}

	var users, categories, articles int64
	gdb.Model(&db.User{}).Count(&users)
	gdb.Model(&db.Category{}).Count(&categories)
	gdb.Model(&db.Article{}).Count(&articles)

	if users != 1 {
		t.Fatalf("expected 1 user, got %d", users)
	}
	if categories != int64(len(seedCategories)) {
		t.Fatalf("expected %d categories, got %d", len(seedCategories), categories)
	}
	if articles != int64(len(seedArticles)) {
		t.Fatalf("expected %d articles, got %d", len(seedArticles), articles)
	}

	var first db.Article
	if err := gdb.Where("slug = ?", "breaking-news-ai-chips-reach-phones").First(&first).Error; err != nil {
		t.Fatalf("expected slugified article: %v", err)
	}
	if first.PublishedAt == nil || !first.PublishedAt.Equal(now) {
		t.Fatalf("expected newest article published at seed time, got %v", first.PublishedAt)
	}
}

func TestSlugify(t *testing.T) {
	tests := map[string]string{
		"Breaking News: AI chips!": "breaking-news-ai-chips",
		"  Late goal  ":            "late-goal",
		"2025 -- review":           "2025-review",
	}
	for input, want := range tests {
		if got := slugify(input); got != want {
			t.Fatalf("slugify(%q) = %q, want %q", input, got, want)
		}
	}
}
