// Package tts relays text-to-speech audio from an external provider.
package tts

import (
	"context"
	"io"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/sirupsen/logrus"

	"scango/app/internal/apperr"
	"scango/app/internal/textnorm"
)

const (
	// MaxStreamRunes caps the text accepted by the streaming proxy.
	MaxStreamRunes = 200
	// MaxSynthesisRunes caps the text accepted when rendering demo audio.
	MaxSynthesisRunes = 4096

	defaultLanguage = "en"
	// ContentType is the media type of every relayed stream.
	ContentType = "audio/mpeg"
)

// ErrInvalidText is returned for missing or over-long input.
var ErrInvalidText = apperr.Validation("Invalid or too long text")

// Provider opens an MP3 audio stream for text spoken in lang.
type Provider interface {
	Name() string
	Open(ctx context.Context, text, lang string) (io.ReadCloser, error)
}

// Service validates requests and wraps provider failures.
type Service struct {
	provider Provider
	logger   *logrus.Logger
}

// NewService constructs a Service around provider.
func NewService(provider Provider, logger *logrus.Logger) (*Service, error) {
	if provider == nil {
		return nil, eris.New("tts provider is required")
	}
	return &Service{provider: provider, logger: logger}, nil
}

// Provider returns the configured provider name.
func (s *Service) Provider() string {
	return s.provider.Name()
}

// Stream opens an audio stream for at most MaxStreamRunes of text. The caller closes the stream.
func (s *Service) Stream(ctx context.Context, text, lang string) (io.ReadCloser, error) {
	return s.open(ctx, text, lang, MaxStreamRunes)
}

// Synthesize renders longer text fully into memory.
func (s *Service) Synthesize(ctx context.Context, text, lang string) ([]byte, error) {
	stream, err := s.open(ctx, text, lang, MaxSynthesisRunes)
	if err != nil {
		return nil, err
	}
	defer stream.Close()

	audio, err := io.ReadAll(stream)
	if err != nil {
		s.recordError(err, "reading synthesized audio")
		return nil, apperr.Upstream(err, "Failed to fetch audio")
	}
	if len(audio) == 0 {
		return nil, apperr.Upstream(eris.New("empty audio response"), "Failed to fetch audio")
	}
	return audio, nil
}

func (s *Service) open(ctx context.Context, text, lang string, limit int) (io.ReadCloser, error) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" || textnorm.Len(trimmed) > limit {
		return nil, ErrInvalidText
	}

	lang = strings.TrimSpace(lang)
	if lang == "" {
		lang = defaultLanguage
	}

	stream, err := s.provider.Open(ctx, trimmed, lang)
	if err != nil {
		s.recordError(err, "opening audio stream")
		return nil, apperr.Upstream(err, "Failed to fetch audio")
	}
	return stream, nil
}

func (s *Service) recordError(err error, message string) {
	if s.logger == nil {
		return
	}
	s.logger.WithError(err).WithField("provider", s.provider.Name()).Error(message)
}
