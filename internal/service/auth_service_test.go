package service

import (
	"errors"
	"testing"
)

func TestAuthService_Authenticate(t *testing.T) {
	gdb := setupServiceTestDB(t)
	svc := NewAuthService(gdb)
	user := createTestUser(t, gdb, "editor", "correct-horse")

	for _, login := range []string{"editor", "editor@example.com", " EDITOR@example.com "} {
		got, err := svc.Authenticate(login, "correct-horse")
		if err != nil {
			t.Fatalf("login %q: %v", login, err)
		}
		if got.ID != user.ID {
			t.Fatalf("login %q resolved to user %d", login, got.ID)
		}
	}

	for _, tc := range []struct{ login, password string }{
		{"editor", "wrong"},
		{"nobody", "correct-horse"},
		{"", "correct-horse"},
		{"editor", ""},
	} {
		if _, err := svc.Authenticate(tc.login, tc.password); !errors.Is(err, ErrInvalidCredentials) {
			t.Fatalf("login %q/%q: expected ErrInvalidCredentials, got %v", tc.login, tc.password, err)
		}
	}
}

func TestAuthService_GetUser(t *testing.T) {
	gdb := setupServiceTestDB(t)
	svc := NewAuthService(gdb)
	user := createTestUser(t, gdb, "editor", "correct-horse")

	got, err := svc.GetUser(user.ID)
	if err != nil || got.Username != "editor" {
		t.Fatalf("unexpected user %+v err=%v", got, err)
	}
	if _, err := svc.GetUser(user.ID + 1); !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
}
