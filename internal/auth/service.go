package auth

import (
	"context"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"

	"scango/app/internal/admin"
	"scango/app/internal/apperr"
	"scango/app/internal/textnorm"
)

// ErrInvalidCredentials is returned for an unknown email or a wrong password.
var ErrInvalidCredentials = apperr.Unauthorized("Invalid credentials")

// Session is the result of a successful login.
type Session struct {
	Token string
	Admin Identity
}

// Service authenticates admins against the credential store.
type Service struct {
	admins admin.Repository
	tokens *Tokens
	logger *logrus.Logger
}

// NewService wires the authentication service with its dependencies.
func NewService(admins admin.Repository, tokens *Tokens, logger *logrus.Logger) (*Service, error) {
	if admins == nil {
		return nil, eris.New("admin repository is required")
	}
	if tokens == nil {
		return nil, eris.New("token issuer is required")
	}

	return &Service{admins: admins, tokens: tokens, logger: logger}, nil
}

// Authenticate looks the admin up by email, compares the password against the
// stored bcrypt hash and issues a bearer token.
func (s *Service) Authenticate(ctx context.Context, email, password string) (*Session, error) {
	normalizedEmail := textnorm.Key(email)
	if normalizedEmail == "" || strings.TrimSpace(password) == "" {
		return nil, ErrInvalidCredentials
	}

	account, err := s.admins.GetByEmail(ctx, normalizedEmail)
	if err != nil {
		return nil, eris.Wrap(err, "looking up admin")
	}
	if account == nil {
		s.logAttempt(normalizedEmail, "unknown admin")
		return nil, ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(account.Password), []byte(password)); err != nil {
		s.logAttempt(normalizedEmail, "password mismatch")
		return nil, ErrInvalidCredentials
	}

	token, err := s.tokens.Issue(account.ID)
	if err != nil {
		return nil, eris.Wrap(err, "issuing token")
	}

	return &Session{Token: token, Admin: Identity{ID: account.ID, Email: account.Email}}, nil
}

func (s *Service) logAttempt(email, reason string) {
	if s.logger == nil {
		return
	}
	s.logger.WithFields(logrus.Fields{"email": email, "reason": reason}).Warn("admin login rejected")
}
