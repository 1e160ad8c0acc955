package http

import (
	"context"
	"fmt"
	stdhttp "net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/sirupsen/logrus"

	"scango/app/internal/curator"
)

type proposeInput struct {
	Key  string `path:"key"`
	Body struct {
		DemoSlug        string `json:"demoSlug,omitempty"`
		ProposedChanges string `json:"proposedChanges,omitempty"`
	}
}

type proposalReceipt struct {
	ID        string         `json:"id"`
	Status    curator.Status `json:"status"`
	CreatedAt time.Time      `json:"createdAt"`
}

func (s *Server) registerCuratorRoutes() {
	bearer := s.requireAuth(s.bearer)

	propose := jsonOperation("submit-proposal", stdhttp.MethodPost, "/api/curator/propose/{key}", "Submit a curator proposal")
	propose.DefaultStatus = stdhttp.StatusCreated
	huma.Register(s.api, propose, s.proposeHandler)

	huma.Register(s.api, jsonOperation("list-proposals", stdhttp.MethodGet, "/api/curator/proposals", "List curator proposals", bearer), s.listProposalsHandler)
	huma.Register(s.api, jsonOperation("update-proposal-status", stdhttp.MethodPatch, "/api/curator/proposals/{id}", "Update proposal status", bearer), s.updateProposalStatusHandler)
}

func (s *Server) proposeHandler(ctx context.Context, input *proposeInput) (*envelopeResponse[proposalReceipt], error) {
	proposal, err := s.curator.Propose(ctx, curator.Input{
		CuratorKey:      input.Key,
		DemoSlug:        input.Body.DemoSlug,
		ProposedChanges: input.Body.ProposedChanges,
	})
	if err != nil {
		return nil, s.fail(ctx, err, "submitting proposal", logrus.Fields{"demo_slug": input.Body.DemoSlug})
	}

	receipt := proposalReceipt{ID: proposal.ID, Status: proposal.Status, CreatedAt: proposal.CreatedAt}
	return ok(stdhttp.StatusCreated, "Your proposal has been submitted and is pending review.", receipt), nil
}

func (s *Server) listProposalsHandler(ctx context.Context, _ *struct{}) (*envelopeResponse[[]curator.Proposal], error) {
	proposals, err := s.curator.List(ctx)
	if err != nil {
		return nil, s.fail(ctx, err, "listing proposals", nil)
	}
	return okList(proposals), nil
}

func (s *Server) updateProposalStatusHandler(ctx context.Context, input *statusInput) (*envelopeResponse[*curator.Proposal], error) {
	proposal, err := s.curator.UpdateStatus(ctx, input.ID, input.Body.Status)
	if err != nil {
		return nil, s.fail(ctx, err, "updating proposal status", logrus.Fields{"proposal_id": input.ID})
	}
	return ok(stdhttp.StatusOK, fmt.Sprintf("Proposal marked as %q.", string(proposal.Status)), proposal), nil
}
