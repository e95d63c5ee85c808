package handler

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/newsportal/internal/db"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var testDBSeq atomic.Int64

type testEnv struct {
	api       *API
	db        *gorm.DB
	server    *httptest.Server
	uploadDir string
}

func setupTestEnv(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	dsn := fmt.Sprintf("file:handler-%d-%d?mode=memory&cache=shared", time.Now().UnixNano(), testDBSeq.Add(1))
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
	sqlDB.SetMaxOpenConns(1)

	if err := db.Migrate(gdb); err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}

	uploadDir := t.TempDir()
	api := NewAPI(gdb, uploadDir, "/storage", nil)

	r := gin.New()
	r.Use(LogErrors())
	store := cookie.NewStore([]byte("test-secret"))
	store.Options(sessions.Options{Path: "/", HttpOnly: true, SameSite: http.SameSiteLaxMode})
	r.Use(sessions.Sessions("test_session", store))
	r.Use(api.LoadUser())

	r.GET("/", api.ShowHome)
	r.GET("/newspage/:slug", api.ShowArticle)
	r.GET("/categories", api.ListCategories)
	r.GET("/categories/:slug", api.ShowCategory)
	r.POST("/login", api.Login)
	r.POST("/logout", api.Logout)

	auth := r.Group("")
	auth.Use(api.AuthRequired())
	auth.GET("/dashboard", api.VerifiedRequired(), api.ShowDashboard)
	auth.POST("/newspage/:slug/comment", api.StoreComment)
	auth.POST("/articles/:article/like", api.ToggleLike)
	auth.GET("/settings/profile", api.ShowProfileSettings)
	auth.PATCH("/settings/profile/personal", api.UpdatePersonal)
	auth.PATCH("/settings/profile/account", api.UpdateAccount)
	auth.PUT("/settings/password", api.UpdatePassword)

	server := httptest.NewServer(r)
	t.Cleanup(func() {
		server.Close()
		sqlDB.Close()
	})

	return &testEnv{api: api, db: gdb, server: server, uploadDir: uploadDir}
}

// newClient 返回带独立 cookie jar 的客户端，相当于一个新的浏览器会话。
func (e *testEnv) newClient(t *testing.T) *http.Client {
	t.Helper()
	jar, err := cookiejar.New(nil)
	if err != nil {
		t.Fatalf("create cookie jar: %v", err)
	}
	return &http.Client{
		Jar: jar,
		CheckRedirect: func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
}

func (e *testEnv) createUser(t *testing.T, username, password string) *db.User {
	t.Helper()
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	now := time.Now()
	user := db.User{
		Name:            username,
		Username:        username,
		Email:           username + "@example.com",
		EmailVerifiedAt: &now,
		Password:        string(hashed),
	}
	if err := e.db.Create(&user).Error; err != nil {
		t.Fatalf("create user: %v", err)
	}
	return &user
}

func (e *testEnv) createArticle(t *testing.T, article db.Article) *db.Article {
	t.Helper()
	if article.Title == "" {
		article.Title = article.Slug
	}
	if article.Status == "" {
		article.Status = "published"
	}
	if err := e.db.Create(&article).Error; err != nil {
		t.Fatalf("create article: %v", err)
	}
	return &article
}

func (e *testEnv) login(t *testing.T, client *http.Client, login, password string) {
	t.Helper()
	resp := e.sendJSON(t, client, http.MethodPost, "/login", map[string]string{"login": login, "password": password})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("login failed with status %d", resp.StatusCode)
	}
}

func (e *testEnv) do(t *testing.T, client *http.Client, req *http.Request) *http.Response {
	t.Helper()
	resp, err := client.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", req.Method, req.URL.Path, err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func (e *testEnv) get(t *testing.T, client *http.Client, path string) *http.Response {
	t.Helper()
	req, err := http.NewRequest(http.MethodGet, e.server.URL+path, nil)
	if err != nil {
		t.Fatalf("build request: %v", err)
	}
	return e.do(t, client, req)
}

func (e *testEnv) sendJSON(t *testing.T, client *http.Client, method, path string, payload any) *http.Response {
	t.Helper()
	body, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("marshal payload: %v", err)
	}
	req, err := http.NewRequest(method, e.server.URL+path, bytes.NewReader(body))
	if err != nil {
		t.Fatalf("build request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	return e.do(t, client, req)
}

func decodeBody(t *testing.T, resp *http.Response) map[string]any {
	t.Helper()
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	var body map[string]any
	if err := json.Unmarshal(raw, &body); err != nil {
		t.Fatalf("decode body %q: %v", raw, err)
	}
	return body
}

func pageProps(t *testing.T, resp *http.Response) map[string]any {
	t.Helper()
	body := decodeBody(t, resp)
	props, ok := body["props"].(map[string]any)
	if !ok {
		t.Fatalf("response has no page props: %v", body)
	}
	return props
}
