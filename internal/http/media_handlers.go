package http

import (
	"context"
	"io"
	stdhttp "net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/sirupsen/logrus"

	"scango/app/internal/qr"
	"scango/app/internal/tts"
)

type ttsInput struct {
	Text string `query:"text"`
	Lang string `query:"lang"`
}

type qrInput struct {
	Text string `query:"text"`
	Size int    `query:"size" minimum:"0" maximum:"1024"`
}

type pngResponse struct {
	ContentType  string `header:"Content-Type"`
	CacheControl string `header:"Cache-Control"`
	Body         []byte
}

func (s *Server) registerMediaRoutes() {
	speech := jsonOperation("text-to-speech", stdhttp.MethodGet, "/api/tts", "Stream spoken audio", s.rateLimitMiddleware())
	speech.Responses = map[string]*huma.Response{
		"200": {
			Description: "MP3 audio stream",
			Content:     map[string]*huma.MediaType{tts.ContentType: {Schema: &huma.Schema{Type: "string", Format: "binary"}}},
		},
	}
	huma.Register(s.api, speech, s.ttsHandler)

	code := jsonOperation("qr-code", stdhttp.MethodGet, "/api/qr", "Render a QR code")
	code.Responses = map[string]*huma.Response{
		"200": {
			Description: "PNG image",
			Content:     map[string]*huma.MediaType{"image/png": {Schema: &huma.Schema{Type: "string", Format: "binary"}}},
		},
	}
	huma.Register(s.api, code, s.qrHandler)
}

// ttsHandler opens the upstream stream before responding so provider
// failures still produce a JSON error instead of a truncated body.
func (s *Server) ttsHandler(ctx context.Context, input *ttsInput) (*huma.StreamResponse, error) {
	stream, err := s.speech.Stream(ctx, input.Text, input.Lang)
	if err != nil {
		return nil, s.fail(ctx, err, "opening tts stream", logrus.Fields{"provider": s.speech.Provider()})
	}

	return &huma.StreamResponse{
		Body: func(hctx huma.Context) {
			defer stream.Close()

			hctx.SetHeader("Content-Type", tts.ContentType)
			hctx.SetHeader("Cache-Control", "no-store")
			hctx.SetStatus(stdhttp.StatusOK)

			if _, err := io.Copy(hctx.BodyWriter(), stream); err != nil && s.logger != nil {
				s.logger.WithError(err).WithField("request_id", RequestIDFromContext(hctx.Context())).Warn("tts stream interrupted")
			}
		},
	}, nil
}

func (s *Server) qrHandler(ctx context.Context, input *qrInput) (*pngResponse, error) {
	png, err := qr.PNG(input.Text, input.Size)
	if err != nil {
		return nil, s.fail(ctx, err, "rendering qr code", nil)
	}

	return &pngResponse{
		ContentType:  "image/png",
		CacheControl: "public, max-age=86400",
		Body:         png,
	}, nil
}
