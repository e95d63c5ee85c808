package db

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestWithSQLiteForeignKeys(t *testing.T) {
	tests := []struct {
		name string
		dsn  string
		want string
	}{
		{name: "plain path", dsn: "news.db", want: "news.db?_foreign_keys=on"},
		{name: "existing query", dsn: "file:news?mode=memory", want: "file:news?mode=memory&_foreign_keys=on"},
		{name: "already enabled", dsn: "news.db?_fk=1", want: "news.db?_fk=1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := withSQLiteForeignKeys(tt.dsn); got != tt.want {
				t.Fatalf("expected %q, got %q", tt.want, got)
			}
		})
	}
}

func TestDialectorForRejectsUnknownDriver(t *testing.T) {
	if _, err := dialectorFor("oracle", "dsn"); !errors.Is(err, ErrUnsupportedDriver) {
		t.Fatalf("expected ErrUnsupportedDriver, got %v", err)
	}
}

func TestDialectorForRequiresServerDSN(t *testing.T) {
	for _, driver := range []string{DriverPostgres, DriverMySQL} {
		if _, err := dialectorFor(driver, " "); err == nil {
			t.Fatalf("expected %s without dsn to fail", driver)
		}
	}
}

func TestDialectorForSelectsDriver(t *testing.T) {
	tests := map[string]string{
		"":           "sqlite",
		"SQLite3":    "sqlite",
		"postgresql": "postgres",
		"mysql":      "mysql",
	}
	for driver, want := range tests {
		dialector, err := dialectorFor(driver, "file:select?mode=memory")
		if err != nil {
			t.Fatalf("driver %q: unexpected error %v", driver, err)
		}
		if got := dialector.Name(); got != want {
			t.Fatalf("driver %q: expected dialector %s, got %s", driver, want, got)
		}
	}
}

func TestInitCreatesParentDirAndMigrates(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "news.db")
	if err := Init(DriverSQLite, path); err != nil {
		t.Fatalf("init failed: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := DB.DB(); err == nil {
			sqlDB.Close()
		}
	})

	if _, err := os.Stat(filepath.Dir(path)); err != nil {
		t.Fatalf("expected parent dir to exist: %v", err)
	}
	for _, table := range []string{"users", "categories", "articles", "comments", "article_likes", "article_views"} {
		if !DB.Migrator().HasTable(table) {
			t.Fatalf("expected table %s to be migrated", table)
		}
	}
	if !DB.Migrator().HasIndex(&ArticleLike{}, "idx_article_likes_article_user") {
		t.Fatal("expected composite unique index on article_likes")
	}
}

func TestEnsureUserCreatesOnce(t *testing.T) {
	if err := Init(DriverSQLite, "file:ensure-user?mode=memory&cache=shared"); err != nil {
		t.Fatalf("init failed: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := DB.DB(); err == nil {
			sqlDB.Close()
		}
	})

	for i := 0; i < 2; i++ {
		if err := EnsureUser("editor", "Editor@Example.com", "secret123"); err != nil {
			t.Fatalf("ensure user failed: %v", err)
		}
	}

	var users []User
	if err := DB.Find(&users).Error; err != nil {
		t.Fatalf("failed to load users: %v", err)
	}
	if len(users) != 1 {
		t.Fatalf("expected exactly one user, got %d", len(users))
	}
	if users[0].Email != "editor@example.com" || users[0].Password == "secret123" {
		t.Fatalf("unexpected seeded user: %#v", users[0])
	}
}
