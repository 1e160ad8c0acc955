package auth

import (
	"context"
	"crypto/subtle"
	"strings"

	"github.com/rotisserie/eris"

	"scango/app/internal/admin"
	"scango/app/internal/apperr"
)

// ErrAdminKeyInvalid is returned when the shared admin secret does not match.
var ErrAdminKeyInvalid = apperr.Unauthorized("Unauthorized: Admin access required.")

// Identity is the authenticated caller attached to a request. It never carries the password hash.
type Identity struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

// Credentials are the request headers an Authorizer may inspect.
type Credentials struct {
	Authorization string
	AdminKey      string
}

// Authorizer decides whether a request may reach an admin-only handler.
type Authorizer interface {
	Authorize(ctx context.Context, creds Credentials) (*Identity, error)
}

// BearerAuthorizer requires a valid bearer token that resolves to an existing admin.
type BearerAuthorizer struct {
	tokens *Tokens
	admins admin.Repository
}

// NewBearerAuthorizer constructs the token based gate.
func NewBearerAuthorizer(tokens *Tokens, admins admin.Repository) (*BearerAuthorizer, error) {
	if tokens == nil {
		return nil, eris.New("token issuer is required")
	}
	if admins == nil {
		return nil, eris.New("admin repository is required")
	}
	return &BearerAuthorizer{tokens: tokens, admins: admins}, nil
}

// Authorize implements Authorizer.
func (a *BearerAuthorizer) Authorize(ctx context.Context, creds Credentials) (*Identity, error) {
	raw := bearerToken(creds.Authorization)
	if raw == "" {
		return nil, ErrTokenMissing
	}

	adminID, err := a.tokens.Verify(raw)
	if err != nil {
		return nil, err
	}

	account, err := a.admins.GetByID(ctx, adminID)
	if err != nil {
		return nil, eris.Wrap(err, "resolving token subject")
	}
	if account == nil {
		return nil, ErrTokenInvalid
	}

	return &Identity{ID: account.ID, Email: account.Email}, nil
}

// SharedSecretAuthorizer requires the X-Admin-Key header to equal a static secret.
type SharedSecretAuthorizer struct {
	secret []byte
}

// NewSharedSecretAuthorizer constructs the shared secret gate. An empty secret rejects every request.
func NewSharedSecretAuthorizer(secret string) *SharedSecretAuthorizer {
	return &SharedSecretAuthorizer{secret: []byte(strings.TrimSpace(secret))}
}

// Authorize implements Authorizer. The resulting identity has no admin record behind it.
func (a *SharedSecretAuthorizer) Authorize(_ context.Context, creds Credentials) (*Identity, error) {
	if len(a.secret) == 0 || creds.AdminKey == "" {
		return nil, ErrAdminKeyInvalid
	}
	if subtle.ConstantTimeCompare([]byte(creds.AdminKey), a.secret) != 1 {
		return nil, ErrAdminKeyInvalid
	}
	return &Identity{ID: "shared-secret"}, nil
}

func bearerToken(header string) string {
	header = strings.TrimSpace(header)
	scheme, token, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}

type identityContextKey struct{}

// WithIdentity attaches the authenticated identity to ctx.
func WithIdentity(ctx context.Context, identity *Identity) context.Context {
	return context.WithValue(ctx, identityContextKey{}, identity)
}

// IdentityFromContext returns the identity attached by an auth gate, if any.
func IdentityFromContext(ctx context.Context) (*Identity, bool) {
	if ctx == nil {
		return nil, false
	}
	identity, ok := ctx.Value(identityContextKey{}).(*Identity)
	return identity, ok && identity != nil
}
