package main

import (
	"context"
	"log"

	"github.com/gin-gonic/gin"
	"github.com/newsportal/internal/config"
	"github.com/newsportal/internal/db"
	"github.com/newsportal/internal/router"
	"github.com/newsportal/internal/viewmark"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	gin.SetMode(cfg.GinMode)

	// 初始化数据库
	if err := db.Init(cfg.DatabaseDriver, cfg.DatabaseDSN); err != nil {
		log.Fatalf("failed to initialize database: %v", err)
	}

	if err := db.EnsureUser(cfg.SuperRootUserName, cfg.SuperRootEmail, cfg.SuperRootPassword); err != nil {
		log.Fatalf("failed to ensure root user: %v", err)
	}

	var views viewmark.Marker
	if cfg.RedisURL != "" {
		client, err := viewmark.NewRedisClient(context.Background(), cfg.RedisURL)
		if err != nil {
			log.Fatalf("failed to initialize redis: %v", err)
		}
		defer client.Close()
		views = viewmark.NewRedisMarker(client, cfg.ViewMarkerTTL)
		log.Printf("view markers stored in redis (ttl %s)", cfg.ViewMarkerTTL)
	}

	// 设置并运行 Gin 服务器
	r := router.SetupRouter(cfg, views)
	log.Printf("listening on %s", cfg.ListenAddr)
	if err := r.Run(cfg.ListenAddr); err != nil {
		log.Fatalf("failed to run server: %v", err)
	}
}
