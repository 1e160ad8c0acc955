package http

import (
	"bytes"
	"context"
	"fmt"
	stdhttp "net/http"
	"strconv"

	"github.com/a-h/templ"
	"github.com/danielgtaylor/huma/v2"
	"github.com/rotisserie/eris"
	"github.com/sirupsen/logrus"

	"scango/app/internal/apperr"
	"scango/app/internal/db"
	"scango/app/internal/http/templates"
)

const htmlContentType = "text/html; charset=utf-8"

type htmlResponse struct {
	Status      int
	ContentType string `header:"Content-Type"`
	Body        []byte
}

type healthResponse struct {
	Status int
	Body   struct {
		Status   string `json:"status"`
		Database string `json:"database"`
		Speech   string `json:"speech"`
	}
}

func (s *Server) registerPreviewRoute() {
	huma.Get(s.api, "/demo/{slug}", s.previewHandler, htmlOperation(
		"Demo page preview",
		stdhttp.StatusNotFound,
		stdhttp.StatusInternalServerError,
	))
}

func (s *Server) registerHealthRoute() {
	huma.Get(s.api, "/healthz", s.healthHandler, func(op *huma.Operation) {
		op.Summary = "Health check"
	})
}

func (s *Server) previewHandler(ctx context.Context, input *slugInput) (*htmlResponse, error) {
	page, err := s.demos.Get(ctx, input.Slug)
	if err != nil {
		switch apperr.KindOf(err) {
		case apperr.KindNotFound, apperr.KindValidation:
			return s.renderMessagePage(ctx, stdhttp.StatusNotFound, "This demo page does not exist or has been removed.")
		default:
			s.recordError(ctx, err, "loading demo preview", logrus.Fields{"slug": input.Slug})
			return s.renderMessagePage(ctx, stdhttp.StatusInternalServerError, "We couldn't load this demo page right now.")
		}
	}

	contentHTML, err := templates.RenderMarkdown(page.Content)
	if err != nil {
		s.recordError(ctx, err, "rendering demo content", logrus.Fields{"slug": page.Slug})
		return s.renderMessagePage(ctx, stdhttp.StatusInternalServerError, "We couldn't render this demo page right now.")
	}

	resp, err := renderHTML(ctx, stdhttp.StatusOK, templates.DemoPreview(templates.DemoPreviewData{
		Title:        page.Title,
		Type:         string(page.Type),
		Description:  page.Description,
		ContentHTML:  contentHTML,
		ProductImage: page.ProductImage,
		AudioURL:     page.AudioURL,
		QRCodeURL:    page.QRCodeURL,
		PublicURL:    s.demos.PublicURL(page.Slug),
	}))
	if err != nil {
		s.recordError(ctx, err, "rendering demo preview", logrus.Fields{"slug": page.Slug})
		return s.renderMessagePage(ctx, stdhttp.StatusInternalServerError, "We couldn't render this demo page right now.")
	}

	return resp, nil
}

func (s *Server) healthHandler(ctx context.Context, _ *struct{}) (*healthResponse, error) {
	resp := &healthResponse{}
	resp.Body.Status = "ok"
	resp.Body.Database = "ok"
	resp.Body.Speech = s.speech.Provider()

	sqlDB, err := db.SQLDB(s.db)
	if err != nil {
		s.recordError(ctx, err, "obtaining sql db", nil)
		resp.Body.Status = "degraded"
		resp.Body.Database = "error"
		resp.Status = stdhttp.StatusServiceUnavailable
	} else if pingErr := sqlDB.PingContext(ctx); pingErr != nil {
		s.recordError(ctx, pingErr, "pinging database", nil)
		resp.Body.Status = "degraded"
		resp.Body.Database = "error"
		resp.Status = stdhttp.StatusServiceUnavailable
	}

	if resp.Status == 0 {
		resp.Status = stdhttp.StatusOK
	}

	return resp, nil
}

func (s *Server) renderMessagePage(ctx context.Context, status int, message string) (*htmlResponse, error) {
	label := fmt.Sprintf("%d %s", status, stdhttp.StatusText(status))

	resp, err := renderHTML(ctx, status, templates.MessagePage(templates.MessagePageData{StatusLabel: label, Message: message}))
	if err != nil {
		s.recordError(ctx, err, "rendering message page", logrus.Fields{"status": status})
		fallback := fmt.Sprintf("<html><body><h1>%s</h1><p>%s</p></body></html>", label, message)
		return &htmlResponse{Status: status, ContentType: htmlContentType, Body: []byte(fallback)}, nil
	}

	return resp, nil
}

// renderHTML buffers component so a failed render never leaves a partial page on the wire.
func renderHTML(ctx context.Context, status int, component templ.Component) (*htmlResponse, error) {
	var buf bytes.Buffer
	if err := component.Render(ctx, &buf); err != nil {
		return nil, eris.Wrap(err, "rendering component")
	}
	return &htmlResponse{Status: status, ContentType: htmlContentType, Body: buf.Bytes()}, nil
}

func htmlOperation(summary string, statuses ...int) func(op *huma.Operation) {
	return func(op *huma.Operation) {
		if summary != "" {
			op.Summary = summary
		}
		if op.Responses == nil {
			op.Responses = map[string]*huma.Response{}
		}

		statusCodes := append([]int{stdhttp.StatusOK}, statuses...)
		for _, status := range statusCodes {
			code := strconv.Itoa(status)
			op.Responses[code] = &huma.Response{
				Description: stdhttp.StatusText(status),
				Content: map[string]*huma.MediaType{
					htmlContentType: {
						Schema: &huma.Schema{Type: "string"},
					},
				},
			}
		}
	}
}
