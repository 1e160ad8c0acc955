package http

import (
	"context"
	stdhttp "net/http"

	"github.com/danielgtaylor/huma/v2"

	"scango/app/internal/dashboard"
)

// registerDashboardRoutes also mounts the legacy admin surface, which is
// guarded by the shared X-Admin-Key secret instead of a bearer token.
func (s *Server) registerDashboardRoutes() {
	bearer := s.requireAuth(s.bearer)
	adminKey := s.requireAuth(s.adminKey)

	huma.Register(s.api, jsonOperation("dashboard-stats", stdhttp.MethodGet, "/api/dashboard", "Aggregate counts", bearer), s.dashboardHandler)

	huma.Register(s.api, jsonOperation("legacy-dashboard-stats", stdhttp.MethodGet, "/api/admin/dashboard", "Aggregate counts (admin key)", adminKey), s.dashboardHandler)
	huma.Register(s.api, jsonOperation("legacy-list-feedback", stdhttp.MethodGet, "/api/admin/feedback", "List feedback (admin key)", adminKey), s.listFeedbackHandler)
	huma.Register(s.api, jsonOperation("legacy-list-proposals", stdhttp.MethodGet, "/api/admin/proposals", "List proposals (admin key)", adminKey), s.listProposalsHandler)
}

func (s *Server) dashboardHandler(ctx context.Context, _ *struct{}) (*envelopeResponse[dashboard.Stats], error) {
	stats, err := s.dashboard.Stats(ctx)
	if err != nil {
		return nil, s.fail(ctx, err, "loading dashboard stats", nil)
	}
	return ok200(stats), nil
}
