package demo

import (
	"context"
	"io"
	"regexp"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"scango/app/internal/apperr"
	"scango/app/internal/qr"
	"scango/app/internal/textnorm"
)

const (
	minTitleLength   = 3
	minContentLength = 20
	maxSlugLength    = 128

	imageCategory = "demo"
	audioCategory = "audio"
)

var slugPattern = regexp.MustCompile(`^[a-z0-9]+(?:[-_][a-z0-9]+)*$`)

var (
	// ErrMissingFields is returned when a required field is absent on create.
	ErrMissingFields = apperr.Validation("Missing required fields.")
	// ErrSlugRequired is returned when a lookup carries no slug.
	ErrSlugRequired = apperr.Validation("Slug parameter is required and must be a valid string.")
	// ErrPageNotFound is returned by mutations targeting an unknown slug.
	ErrPageNotFound = apperr.NotFound("Demo page not found.")
)

// ImageStore persists uploaded media and hands back public paths.
type ImageStore interface {
	SaveImage(category string, r io.Reader) (string, error)
	SaveBytes(category, ext string, data []byte) (string, error)
	Remove(urlPath string) error
}

// Synthesizer renders page content to MP3 audio.
type Synthesizer interface {
	Synthesize(ctx context.Context, text, lang string) ([]byte, error)
}

// ServiceOptions configures the demo Service.
type ServiceOptions struct {
	Repository    Repository
	Media         ImageStore
	Speech        Synthesizer
	PublicBaseURL string
	Logger        *logrus.Logger
}

// Service validates and persists demo pages.
type Service struct {
	repo    Repository
	media   ImageStore
	speech  Synthesizer
	baseURL string
	logger  *logrus.Logger
}

// CreateInput carries the fields of a new page. Image is optional.
type CreateInput struct {
	Title       string
	Slug        string
	Type        string
	CuratorKey  string
	Content     string
	Description string
	Image       io.Reader
}

// UpdateInput carries a partial update; nil fields are left untouched.
type UpdateInput struct {
	Title       *string
	Slug        *string
	Type        *string
	CuratorKey  *string
	Content     *string
	Description *string
}

// NewService wires the demo service with its dependencies.
func NewService(opts ServiceOptions) (*Service, error) {
	if opts.Repository == nil {
		return nil, eris.New("demo repository is required")
	}
	if opts.Media == nil {
		return nil, eris.New("media store is required")
	}

	baseURL := strings.TrimRight(strings.TrimSpace(opts.PublicBaseURL), "/")
	if baseURL == "" {
		return nil, eris.New("public base url is required")
	}

	return &Service{
		repo:    opts.Repository,
		media:   opts.Media,
		speech:  opts.Speech,
		baseURL: baseURL,
		logger:  opts.Logger,
	}, nil
}

// PublicURL returns the canonical page address encoded into QR codes.
func (s *Service) PublicURL(slug string) string {
	return s.baseURL + "/demo/" + slug
}

// Create validates input, renders the QR code, stores the optional image and persists the page.
func (s *Service) Create(ctx context.Context, input CreateInput) (*Page, error) {
	if isBlank(input.Title) || isBlank(input.Slug) || isBlank(input.Type) || isBlank(input.CuratorKey) || isBlank(input.Content) {
		return nil, ErrMissingFields
	}

	page := &Page{
		Title:       strings.TrimSpace(input.Title),
		Slug:        textnorm.Key(input.Slug),
		Type:        Type(textnorm.Key(input.Type)),
		CuratorKey:  strings.TrimSpace(input.CuratorKey),
		Content:     strings.TrimSpace(input.Content),
		Description: strings.TrimSpace(input.Description),
	}

	if err := validate(page); err != nil {
		return nil, err
	}

	if err := s.ensureSlugAvailable(ctx, page.Slug, ""); err != nil {
		return nil, err
	}

	qrURL, err := qr.DataURL(s.PublicURL(page.Slug))
	if err != nil {
		return nil, eris.Wrapf(err, "rendering qr code for slug %s", page.Slug)
	}
	page.QRCodeURL = qrURL

	if input.Image != nil {
		imagePath, err := s.media.SaveImage(imageCategory, input.Image)
		if err != nil {
			return nil, err
		}
		page.ProductImage = imagePath
	}

	if err := s.repo.Create(ctx, page); err != nil {
		s.removeMedia(page.ProductImage)
		if eris.Is(err, gorm.ErrDuplicatedKey) {
			return nil, slugTaken(page.Slug)
		}
		return nil, err
	}

	s.logInfo(logrus.Fields{"slug": page.Slug, "page_id": page.ID}, "demo page created")
	return page, nil
}

// Get returns the page stored under slug.
func (s *Service) Get(ctx context.Context, slug string) (*Page, error) {
	normalized := textnorm.Key(slug)
	if normalized == "" {
		return nil, ErrSlugRequired
	}

	page, err := s.repo.GetBySlug(ctx, normalized)
	if err != nil {
		return nil, err
	}
	if page == nil {
		return nil, apperr.NotFound("No demo page found for slug: %q.", normalized)
	}
	return page, nil
}

// List returns every page, newest first.
func (s *Service) List(ctx context.Context) ([]Page, error) {
	return s.repo.List(ctx)
}

// Update applies a partial update. Changing the slug re-checks uniqueness and re-renders the QR code.
func (s *Service) Update(ctx context.Context, slug string, input UpdateInput) (*Page, error) {
	page, err := s.mustFind(ctx, slug)
	if err != nil {
		return nil, err
	}

	previousSlug := page.Slug

	if input.Title != nil {
		page.Title = strings.TrimSpace(*input.Title)
	}
	if input.Slug != nil {
		page.Slug = textnorm.Key(*input.Slug)
	}
	if input.Type != nil {
		page.Type = Type(textnorm.Key(*input.Type))
	}
	if input.CuratorKey != nil {
		page.CuratorKey = strings.TrimSpace(*input.CuratorKey)
	}
	if input.Content != nil {
		page.Content = strings.TrimSpace(*input.Content)
	}
	if input.Description != nil {
		page.Description = strings.TrimSpace(*input.Description)
	}

	if page.Title == "" || page.Slug == "" || page.Type == "" || page.CuratorKey == "" || page.Content == "" {
		return nil, ErrMissingFields
	}
	if err := validate(page); err != nil {
		return nil, err
	}

	if page.Slug != previousSlug {
		if err := s.ensureSlugAvailable(ctx, page.Slug, page.ID); err != nil {
			return nil, err
		}
		qrURL, err := qr.DataURL(s.PublicURL(page.Slug))
		if err != nil {
			return nil, eris.Wrapf(err, "rendering qr code for slug %s", page.Slug)
		}
		page.QRCodeURL = qrURL
	}

	if err := s.repo.Update(ctx, page); err != nil {
		if eris.Is(err, gorm.ErrDuplicatedKey) {
			return nil, slugTaken(page.Slug)
		}
		return nil, err
	}

	return page, nil
}

// Delete removes the page and, best effort, its stored media.
func (s *Service) Delete(ctx context.Context, slug string) error {
	page, err := s.mustFind(ctx, slug)
	if err != nil {
		return err
	}

	if err := s.repo.Delete(ctx, page.ID); err != nil {
		return err
	}

	s.removeMedia(page.ProductImage)
	s.removeMedia(page.AudioURL)
	s.logInfo(logrus.Fields{"slug": page.Slug, "page_id": page.ID}, "demo page deleted")
	return nil
}

// AttachAudio synthesizes the page content, stores the MP3 and records its path on the page.
func (s *Service) AttachAudio(ctx context.Context, slug, lang string) (*Page, error) {
	if s.speech == nil {
		return nil, eris.New("speech synthesis is not configured")
	}

	page, err := s.mustFind(ctx, slug)
	if err != nil {
		return nil, err
	}

	audio, err := s.speech.Synthesize(ctx, page.Content, lang)
	if err != nil {
		return nil, err
	}

	audioPath, err := s.media.SaveBytes(audioCategory, ".mp3", audio)
	if err != nil {
		return nil, err
	}

	previous := page.AudioURL
	page.AudioURL = audioPath
	if err := s.repo.Update(ctx, page); err != nil {
		s.removeMedia(audioPath)
		return nil, err
	}

	s.removeMedia(previous)
	return page, nil
}

func (s *Service) mustFind(ctx context.Context, slug string) (*Page, error) {
	normalized := textnorm.Key(slug)
	if normalized == "" {
		return nil, ErrSlugRequired
	}

	page, err := s.repo.GetBySlug(ctx, normalized)
	if err != nil {
		return nil, err
	}
	if page == nil {
		return nil, ErrPageNotFound
	}
	return page, nil
}

func (s *Service) ensureSlugAvailable(ctx context.Context, slug, ownerID string) error {
	existing, err := s.repo.GetBySlug(ctx, slug)
	if err != nil {
		return eris.Wrap(err, "checking slug availability")
	}
	if existing != nil && existing.ID != ownerID {
		return slugTaken(slug)
	}
	return nil
}

func (s *Service) removeMedia(urlPath string) {
	if urlPath == "" {
		return
	}
	if err := s.media.Remove(urlPath); err != nil && s.logger != nil {
		s.logger.WithError(err).WithField("path", urlPath).Warn("failed to remove demo media")
	}
}

func (s *Service) logInfo(fields logrus.Fields, message string) {
	if s.logger == nil {
		return
	}
	s.logger.WithFields(fields).Info(message)
}

func validate(page *Page) error {
	if textnorm.Len(page.Title) < minTitleLength {
		return apperr.Validation("Title must be at least %d characters.", minTitleLength)
	}
	if len(page.Slug) > maxSlugLength || !slugPattern.MatchString(page.Slug) {
		return apperr.Validation("Slug may only contain letters, numbers, hyphens and underscores.")
	}
	if !page.Type.Valid() {
		return apperr.Validation("Type must be one of: museum, product, health.")
	}
	if textnorm.Len(page.Content) < minContentLength {
		return apperr.Validation("Content must be at least %d characters.", minContentLength)
	}
	return nil
}

func slugTaken(slug string) error {
	return apperr.Conflict("A demo page with slug %q already exists.", slug)
}

func isBlank(value string) bool {
	return strings.TrimSpace(value) == ""
}
