package http

import (
	"context"
	stdhttp "net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/rotisserie/eris"

	"scango/app/internal/auth"
)

type loginInput struct {
	Body struct {
		Email    string `json:"email,omitempty"`
		Password string `json:"password,omitempty"`
	}
}

func (s *Server) registerAuthRoutes() {
	huma.Register(s.api, jsonOperation("login", stdhttp.MethodPost, "/api/auth/login", "Admin login"), s.loginHandler)
	huma.Register(s.api, jsonOperation("current-admin", stdhttp.MethodGet, "/api/auth/me", "Current admin",
		s.requireAuth(s.bearer)), s.currentAdminHandler)
}

func (s *Server) loginHandler(ctx context.Context, input *loginInput) (*loginResponse, error) {
	session, err := s.auth.Authenticate(ctx, input.Body.Email, input.Body.Password)
	if err != nil {
		return nil, s.fail(ctx, err, "authenticating admin", nil)
	}

	resp := &loginResponse{}
	resp.Body.Success = true
	resp.Body.Token = session.Token
	resp.Body.Admin = session.Admin
	return resp, nil
}

func (s *Server) currentAdminHandler(ctx context.Context, _ *struct{}) (*envelopeResponse[auth.Identity], error) {
	identity, ok := auth.IdentityFromContext(ctx)
	if !ok {
		return nil, s.fail(ctx, eris.New("identity missing after auth gate"), "resolving current admin", nil)
	}
	return ok200(*identity), nil
}

func ok200[T any](data T) *envelopeResponse[T] {
	return ok(stdhttp.StatusOK, "", data)
}
