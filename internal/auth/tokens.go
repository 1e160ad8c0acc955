package auth

import (
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rotisserie/eris"

	"scango/app/internal/apperr"
)

const tokenIssuer = "scango"

var (
	// ErrTokenMissing is returned when a request carries no bearer token.
	ErrTokenMissing = apperr.Unauthorized("Not authorized, token missing")
	// ErrTokenInvalid is returned when a bearer token fails verification.
	ErrTokenInvalid = apperr.Unauthorized("Token failed or expired")
)

// Tokens signs and verifies HS256 bearer tokens carrying an admin identifier.
type Tokens struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewTokens constructs a token issuer. A zero ttl issues tokens without an expiry.
func NewTokens(secret string, ttl time.Duration) (*Tokens, error) {
	if strings.TrimSpace(secret) == "" {
		return nil, eris.New("token signing secret is required")
	}
	if ttl < 0 {
		return nil, eris.New("token ttl must not be negative")
	}

	return &Tokens{secret: []byte(secret), ttl: ttl, now: time.Now}, nil
}

// Issue returns a signed token whose subject is the admin identifier.
func (t *Tokens) Issue(adminID string) (string, error) {
	if strings.TrimSpace(adminID) == "" {
		return "", eris.New("admin id is required")
	}

	now := t.now()
	claims := jwt.RegisteredClaims{
		Issuer:   tokenIssuer,
		Subject:  adminID,
		IssuedAt: jwt.NewNumericDate(now),
	}
	if t.ttl > 0 {
		claims.ExpiresAt = jwt.NewNumericDate(now.Add(t.ttl))
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.secret)
	if err != nil {
		return "", eris.Wrap(err, "signing token")
	}
	return signed, nil
}

// Verify checks the signature and claims of raw and returns the admin identifier.
func (t *Tokens) Verify(raw string) (string, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return "", ErrTokenMissing
	}

	parsed, err := jwt.ParseWithClaims(trimmed, &jwt.RegisteredClaims{},
		func(*jwt.Token) (any, error) { return t.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(tokenIssuer),
		jwt.WithTimeFunc(t.now),
	)
	if err != nil || !parsed.Valid {
		return "", ErrTokenInvalid
	}

	claims, ok := parsed.Claims.(*jwt.RegisteredClaims)
	if !ok || strings.TrimSpace(claims.Subject) == "" {
		return "", ErrTokenInvalid
	}

	return claims.Subject, nil
}
