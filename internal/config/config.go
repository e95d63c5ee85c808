package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// AppConfig 汇总运行服务所需的基础配置。
type AppConfig struct {
	ListenAddr        string
	Port              string
	DatabaseDriver    string
	DatabaseDSN       string
	SessionSecret     string
	SessionMaxAge     int
	GinMode           string
	UploadDir         string
	UploadURLPath     string
	RedisURL          string
	ViewMarkerTTL     time.Duration
	AllowedOrigins    []string
	SuperRootUserName string
	SuperRootEmail    string
	SuperRootPassword string
}

var defaults = map[string]any{
	"PORT":             "8080",
	"DATABASE_DRIVER":  "sqlite",
	"DATABASE_PATH":    "newsportal.db",
	"SESSION_SECRET":   "newsportal-dev-secret",
	"SESSION_MAX_AGE":  7 * 24 * 60 * 60,
	"GIN_MODE":         "release",
	"UPLOAD_DIR":       "web/storage",
	"UPLOAD_URL_PATH":  "/storage",
	"VIEW_MARKER_TTL":  "2h",
	"SUPER_ROOT_EMAIL": "",
}

// Load 读取 .env（若存在）、可选的 CONFIG_FILE 与环境变量，并为缺失项提供安全的默认值。
func Load() (AppConfig, error) {
	// .env 不存在时忽略，环境变量优先
	_ = godotenv.Load()

	v := viper.New()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}
	v.AutomaticEnv()

	if file := strings.TrimSpace(v.GetString("CONFIG_FILE")); file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return AppConfig{}, fmt.Errorf("read config file %s: %w", file, err)
		}
	}

	return fromViper(v)
}

func fromViper(v *viper.Viper) (AppConfig, error) {
	port := trimmed(v, "PORT")

	listenAddr := trimmed(v, "LISTEN_ADDR")
	if listenAddr == "" {
		listenAddr = fmt.Sprintf(":%s", port)
	}

	driver := strings.ToLower(trimmed(v, "DATABASE_DRIVER"))
	dsn := trimmed(v, "DATABASE_DSN")
	if dsn == "" {
		dsn = trimmed(v, "DATABASE_PATH")
	}

	ttl, err := time.ParseDuration(trimmed(v, "VIEW_MARKER_TTL"))
	if err != nil || ttl <= 0 {
		return AppConfig{}, fmt.Errorf("invalid VIEW_MARKER_TTL %q", v.GetString("VIEW_MARKER_TTL"))
	}

	uploadURLPath := "/" + strings.Trim(trimmed(v, "UPLOAD_URL_PATH"), "/")

	return AppConfig{
		ListenAddr:        listenAddr,
		Port:              port,
		DatabaseDriver:    driver,
		DatabaseDSN:       dsn,
		SessionSecret:     trimmed(v, "SESSION_SECRET"),
		SessionMaxAge:     v.GetInt("SESSION_MAX_AGE"),
		GinMode:           trimmed(v, "GIN_MODE"),
		UploadDir:         trimmed(v, "UPLOAD_DIR"),
		UploadURLPath:     uploadURLPath,
		RedisURL:          trimmed(v, "REDIS_URL"),
		ViewMarkerTTL:     ttl,
		AllowedOrigins:    splitList(v.GetString("ALLOWED_ORIGINS")),
		SuperRootUserName: trimmed(v, "SUPER_ROOT_USER_NAME"),
		SuperRootEmail:    trimmed(v, "SUPER_ROOT_EMAIL"),
		SuperRootPassword: trimmed(v, "SUPER_ROOT_PASSWORD"),
	}, nil
}

func trimmed(v *viper.Viper, key string) string {
	return strings.TrimSpace(v.GetString(key))
}

func splitList(raw string) []string {
	var items []string
	for _, part := range strings.Split(raw, ",") {
		if value := strings.TrimSpace(part); value != "" {
			items = append(items, value)
		}
	}
	return items
}
