package admin

import (
	"context"
	"path/filepath"
	"testing"

	"golang.org/x/crypto/bcrypt"

	"scango/app/internal/apperr"
	"scango/app/internal/db"
	applog "scango/app/internal/log"
)

func TestNewRepositoryRequiresDatabase(t *testing.T) {
	t.Parallel()

	if _, err := NewRepository(nil, nil); err == nil {
		t.Fatalf("expected error when database is nil")
	}
}

func TestGetByEmailReturnsNilForMissingAdmin(t *testing.T) {
	t.Parallel()

	repo := setupRepository(t)

	admin, err := repo.GetByEmail(context.Background(), "nobody@example.com")
	if err != nil {
		t.Fatalf("GetByEmail returned error: %v", err)
	}
	if admin != nil {
		t.Fatalf("expected nil admin, got %#v", admin)
	}
}

func TestSeedHashesPasswordAndIsIdempotent(t *testing.T) {
	t.Parallel()

	repo := setupRepository(t)
	ctx := context.Background()

	created, err := Seed(ctx, repo, " Admin@Example.com ", "12345678")
	if err != nil {
		t.Fatalf("Seed returned error: %v", err)
	}
	if !created {
		t.Fatalf("expected first seed to create the admin")
	}

	stored, err := repo.GetByEmail(ctx, "admin@example.com")
	if err != nil {
		t.Fatalf("GetByEmail returned error: %v", err)
	}
	if stored == nil {
		t.Fatalf("expected admin to be stored under the normalized email")
	}
	if stored.ID == "" {
		t.Fatalf("expected an identifier to be assigned")
	}
	if stored.Password == "12345678" {
		t.Fatalf("expected password to be hashed")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(stored.Password), []byte("12345678")); err != nil {
		t.Fatalf("expected stored hash to match password: %v", err)
	}

	created, err = Seed(ctx, repo, "admin@example.com", "another-password")
	if err != nil {
		t.Fatalf("second Seed returned error: %v", err)
	}
	if created {
		t.Fatalf("expected second seed to be a no-op")
	}

	count, err := repo.Count(ctx)
	if err != nil {
		t.Fatalf("Count returned error: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected exactly one admin, got %d", count)
	}

	byID, err := repo.GetByID(ctx, stored.ID)
	if err != nil || byID == nil {
		t.Fatalf("expected GetByID to find the admin, got %v / %v", byID, err)
	}
}

func TestSeedKeepsSurroundingWhitespaceInPassword(t *testing.T) {
	t.Parallel()

	repo := setupRepository(t)
	ctx := context.Background()

	if _, err := Seed(ctx, repo, "padded@example.com", "  secret-pass  "); err != nil {
		t.Fatalf("Seed returned error: %v", err)
	}

	stored, err := repo.GetByEmail(ctx, "padded@example.com")
	if err != nil || stored == nil {
		t.Fatalf("expected seeded admin, got %v / %v", stored, err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(stored.Password), []byte("  secret-pass  ")); err != nil {
		t.Fatalf("expected hash to match the password as given: %v", err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(stored.Password), []byte("secret-pass")); err == nil {
		t.Fatalf("expected trimmed password not to match")
	}
}

func TestSeedValidatesInput(t *testing.T) {
	t.Parallel()

	repo := setupRepository(t)
	ctx := context.Background()

	inputs := []struct {
		email    string
		password string
	}{
		{"", "12345678"},
		{"not-an-email", "12345678"},
		{"admin@example.com", "short"},
		{"admin@example.com", "          "},
	}

	for _, input := range inputs {
		_, err := Seed(ctx, repo, input.email, input.password)
		if apperr.KindOf(err) != apperr.KindValidation {
			t.Errorf("Seed(%q, %q): expected validation error, got %v", input.email, input.password, err)
		}
	}
}

func setupRepository(t *testing.T) *GormRepository {
	t.Helper()

	path := filepath.Join(t.TempDir(), "admins.db")
	gormDB, err := db.Open(db.Options{Path: path})
	if err != nil {
		t.Fatalf("db.Open returned error: %v", err)
	}

	t.Cleanup(func() {
		if closeErr := db.Close(gormDB); closeErr != nil {
			t.Fatalf("closing database failed: %v", closeErr)
		}
	})

	logger := applog.Discard()

	if err := Migrate(context.Background(), gormDB, logger); err != nil {
		t.Fatalf("Migrate returned error: %v", err)
	}

	repo, err := NewRepository(gormDB, logger)
	if err != nil {
		t.Fatalf("NewRepository returned error: %v", err)
	}

	return repo
}
