package main

import (
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/newsportal/internal/config"
	"github.com/newsportal/internal/db"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// 演示数据生成器
func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("配置加载失败:", err)
	}

	// 初始化数据库
	if err := db.Init(cfg.DatabaseDriver, cfg.DatabaseDSN); err != nil {
		log.Fatal("数据库初始化失败:", err)
	}

	fmt.Println("开始生成演示数据...")
	if err := seed(db.DB, time.Now()); err != nil {
		log.Fatal("生成演示数据失败:", err)
	}

	fmt.Println("演示数据生成完成！")
	fmt.Println("用户: reader (密码: reader123)")
	fmt.Printf("分类: %d 个，文章: %d 篇\n", len(seedCategories), len(seedArticles))
}

type seedArticle struct {
	category string
	title    string
	content  string
	author   string
	views    int64
}

var seedCategories = []db.Category{
	{Name: "Technology", Slug: "technology", Description: "Gadgets, software and the people building them"},
	{Name: "Politics", Slug: "politics", Description: "Elections, policy and government"},
	{Name: "Sports", Slug: "sports", Description: "Results, transfers and analysis"},
	{Name: "Business", Slug: "business", Description: "Markets, companies and the economy"},
}

var seedArticles = []seedArticle{
	{category: "Technology", title: "Breaking News: AI chips reach phones", content: "Chip makers announced **on-device AI** accelerators for mid-range phones.", author: "Newsroom", views: 120},
	{category: "Technology", title: "Open source databases keep growing", content: "Survey results show *PostgreSQL* and SQLite adoption rising again.", author: "Newsroom", views: 45},
	{category: "Politics", title: "Parliament debates AI regulation", content: "Lawmakers discussed transparency rules for automated systems.", author: "Political Desk", views: 80},
	{category: "Sports", title: "Late goal decides the derby", content: "A stoppage-time header settled a tense match.", author: "Sports Desk", views: 60},
	{category: "Business", title: "Retail sales beat expectations", content: "Quarterly figures came in above analyst forecasts.", author: "Business Desk", views: 15},
}

// seed 写入演示账号、分类与文章，已存在的数据保持不变。
func seed(gdb *gorm.DB, now time.Time) error {
	if err := seedUser(gdb, "reader", "reader@example.com", "reader123", now); err != nil {
		return err
	}

	for _, category := range seedCategories {
		record := category
		if err := gdb.Where("slug = ?", record.Slug).FirstOrCreate(&record).Error; err != nil {
			return fmt.Errorf("seed category %s: %w", record.Slug, err)
		}
	}

	for i, item := range seedArticles {
		published := now.Add(-time.Duration(i) * 6 * time.Hour)
		article := db.Article{
			Category:    item.category,
			Title:       item.title,
			Slug:        slugify(item.title),
			Content:     item.content,
			Status:      "published",
			PublishedAt: &published,
			ViewCount:   item.views,
			AuthorName:  item.author,
			CreatedAt:   &published,
		}
		if err := gdb.Where("slug = ?", article.Slug).FirstOrCreate(&article).Error; err != nil {
			return fmt.Errorf("seed article %s: %w", article.Slug, err)
		}
	}
	return nil
}

func seedUser(gdb *gorm.DB, username, email, password string, now time.Time) error {
	var existing db.User
	err := gdb.Where("username = ?", username).First(&existing).Error
	if err == nil {
		fmt.Println("用户已存在，跳过创建")
		return nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("密码加密失败: %w", err)
	}
	return gdb.Create(&db.User{
		Name:            username,
		Username:        username,
		Email:           email,
		EmailVerifiedAt: &now,
		Password:        string(hashed),
	}).Error
}

func slugify(title string) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(title) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			dash = false
		case !dash && b.Len() > 0:
			b.WriteByte('-')
			dash = true
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}
