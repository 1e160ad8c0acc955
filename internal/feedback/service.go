package feedback

import (
	"context"
	"regexp"
	"strings"

	"github.com/rotisserie/eris"

	"scango/app/internal/apperr"
	"scango/app/internal/textnorm"
)

const (
	minNameLength             = 2
	maxNameLength             = 100
	maxBusinessInterestLength = 300
	maxExpectedPriceLength    = 100
	maxMessageLength          = 500
)

var emailPattern = regexp.MustCompile(`.+@.+\..+`)

var (
	// ErrMissingFields is returned when a required field is absent.
	ErrMissingFields = apperr.Validation("Name, email, business interest, and expected price are required.")
	// ErrInvalidName is returned for names outside the accepted length.
	ErrInvalidName = apperr.Validation("Invalid name format.")
	// ErrInvalidEmail is returned for an address that does not look like one.
	ErrInvalidEmail = apperr.Validation("Please enter a valid email address.")
	// ErrInvalidStatus is returned for a status outside the enum.
	ErrInvalidStatus = apperr.Validation("Invalid status value.")
	// ErrNotFound is returned when updating an unknown entry.
	ErrNotFound = apperr.NotFound("Feedback not found.")
)

// Input carries a public feedback submission.
type Input struct {
	Name             string
	Email            string
	BusinessInterest string
	ExpectedPrice    string
	Message          string
}

// Service validates and stores feedback.
type Service struct {
	repo Repository
}

// NewService constructs a feedback Service.
func NewService(repo Repository) (*Service, error) {
	if repo == nil {
		return nil, eris.New("feedback repository is required")
	}
	return &Service{repo: repo}, nil
}

// Submit validates input and persists it with status new.
func (s *Service) Submit(ctx context.Context, input Input) (*Feedback, error) {
	entry := &Feedback{
		Name:             strings.TrimSpace(input.Name),
		Email:            textnorm.Key(input.Email),
		BusinessInterest: strings.TrimSpace(input.BusinessInterest),
		ExpectedPrice:    strings.TrimSpace(input.ExpectedPrice),
		Message:          strings.TrimSpace(input.Message),
		Status:           StatusNew,
	}

	if entry.Name == "" || entry.Email == "" || entry.BusinessInterest == "" || entry.ExpectedPrice == "" {
		return nil, ErrMissingFields
	}

	if length := textnorm.Len(entry.Name); length < minNameLength || length > maxNameLength {
		return nil, ErrInvalidName
	}
	if !emailPattern.MatchString(entry.Email) {
		return nil, ErrInvalidEmail
	}
	if textnorm.Len(entry.BusinessInterest) > maxBusinessInterestLength {
		return nil, apperr.Validation("Interest must be less than %d characters.", maxBusinessInterestLength)
	}
	if textnorm.Len(entry.ExpectedPrice) > maxExpectedPriceLength {
		return nil, apperr.Validation("Expected price must be less than %d characters.", maxExpectedPriceLength)
	}
	if textnorm.Len(entry.Message) > maxMessageLength {
		return nil, apperr.Validation("Message must be less than %d characters.", maxMessageLength)
	}

	if err := s.repo.Create(ctx, entry); err != nil {
		return nil, err
	}
	return entry, nil
}

// List returns all feedback, newest first.
func (s *Service) List(ctx context.Context) ([]Feedback, error) {
	return s.repo.List(ctx)
}

// UpdateStatus validates status before touching the store.
func (s *Service) UpdateStatus(ctx context.Context, id, status string) (*Feedback, error) {
	parsed, ok := ParseStatus(strings.TrimSpace(status))
	if !ok {
		return nil, ErrInvalidStatus
	}

	entry, err := s.repo.UpdateStatus(ctx, id, parsed)
	if err != nil {
		return nil, err
	}
	if entry == nil {
		return nil, ErrNotFound
	}
	return entry, nil
}
