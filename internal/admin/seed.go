package admin

import (
	"context"
	"regexp"
	"strings"

	"github.com/rotisserie/eris"
	"golang.org/x/crypto/bcrypt"

	"scango/app/internal/apperr"
	"scango/app/internal/textnorm"
)

const minPasswordLength = 8

var emailPattern = regexp.MustCompile(`.+@.+\..+`)

// Seed creates an admin with a bcrypt hashed password unless one with the
// same email already exists. It reports whether a row was inserted.
func Seed(ctx context.Context, repo Repository, email, password string) (bool, error) {
	if repo == nil {
		return false, eris.New("admin repository is required")
	}

	normalizedEmail := textnorm.Key(email)

	// Stored as given; login compares the raw password.
	if normalizedEmail == "" || strings.TrimSpace(password) == "" {
		return false, apperr.Validation("Email and password are required.")
	}
	if !emailPattern.MatchString(normalizedEmail) {
		return false, apperr.Validation("Please enter a valid email address.")
	}
	if textnorm.Len(password) < minPasswordLength {
		return false, apperr.Validation("Password must be at least %d characters.", minPasswordLength)
	}

	existing, err := repo.GetByEmail(ctx, normalizedEmail)
	if err != nil {
		return false, eris.Wrap(err, "checking for existing admin")
	}
	if existing != nil {
		return false, nil
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return false, eris.Wrap(err, "hashing admin password")
	}

	if err := repo.Create(ctx, &Admin{Email: normalizedEmail, Password: string(hashed)}); err != nil {
		return false, eris.Wrap(err, "creating admin")
	}

	return true, nil
}
