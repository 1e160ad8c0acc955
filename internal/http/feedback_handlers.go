package http

import (
	"context"
	"fmt"
	stdhttp "net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/sirupsen/logrus"

	"scango/app/internal/feedback"
)

type submitFeedbackInput struct {
	Body struct {
		Name             string `json:"name,omitempty"`
		Email            string `json:"email,omitempty"`
		BusinessInterest string `json:"businessInterest,omitempty"`
		ExpectedPrice    string `json:"expectedPrice,omitempty"`
		Message          string `json:"message,omitempty"`
	}
}

type statusInput struct {
	ID   string `path:"id"`
	Body struct {
		Status string `json:"status,omitempty"`
	}
}

type feedbackReceipt struct {
	ID          string          `json:"id"`
	Status      feedback.Status `json:"status"`
	SubmittedAt time.Time       `json:"submittedAt"`
}

func (s *Server) registerFeedbackRoutes() {
	bearer := s.requireAuth(s.bearer)

	submit := jsonOperation("submit-feedback", stdhttp.MethodPost, "/api/feedback", "Submit feedback")
	submit.DefaultStatus = stdhttp.StatusCreated
	huma.Register(s.api, submit, s.submitFeedbackHandler)

	huma.Register(s.api, jsonOperation("list-feedback", stdhttp.MethodGet, "/api/feedback", "List feedback", bearer), s.listFeedbackHandler)
	huma.Register(s.api, jsonOperation("update-feedback-status", stdhttp.MethodPatch, "/api/feedback/{id}/status", "Update feedback status", bearer), s.updateFeedbackStatusHandler)
}

func (s *Server) submitFeedbackHandler(ctx context.Context, input *submitFeedbackInput) (*envelopeResponse[feedbackReceipt], error) {
	entry, err := s.feedback.Submit(ctx, feedback.Input{
		Name:             input.Body.Name,
		Email:            input.Body.Email,
		BusinessInterest: input.Body.BusinessInterest,
		ExpectedPrice:    input.Body.ExpectedPrice,
		Message:          input.Body.Message,
	})
	if err != nil {
		return nil, s.fail(ctx, err, "submitting feedback", nil)
	}

	receipt := feedbackReceipt{ID: entry.ID, Status: entry.Status, SubmittedAt: entry.CreatedAt}
	return ok(stdhttp.StatusCreated, "Thank you for your feedback!", receipt), nil
}

func (s *Server) listFeedbackHandler(ctx context.Context, _ *struct{}) (*envelopeResponse[[]feedback.Feedback], error) {
	entries, err := s.feedback.List(ctx)
	if err != nil {
		return nil, s.fail(ctx, err, "listing feedback", nil)
	}
	return okList(entries), nil
}

func (s *Server) updateFeedbackStatusHandler(ctx context.Context, input *statusInput) (*envelopeResponse[*feedback.Feedback], error) {
	entry, err := s.feedback.UpdateStatus(ctx, input.ID, input.Body.Status)
	if err != nil {
		return nil, s.fail(ctx, err, "updating feedback status", logrus.Fields{"feedback_id": input.ID})
	}
	return ok(stdhttp.StatusOK, fmt.Sprintf("Status updated to %q.", string(entry.Status)), entry), nil
}
