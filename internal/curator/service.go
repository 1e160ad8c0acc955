package curator

import (
	"context"
	"strings"

	"github.com/rotisserie/eris"
	"gorm.io/gorm"

	"scango/app/internal/apperr"
	"scango/app/internal/textnorm"
)

const minProposalLength = 10

var (
	// ErrMissingFields is returned when key, slug or changes are absent.
	ErrMissingFields = apperr.Validation("Curator key, demo slug, and proposed changes are required.")
	// ErrProposalTooShort is returned for changes under the minimum length.
	ErrProposalTooShort = apperr.Validation("Proposal must be a descriptive string with at least 10 characters.")
	// ErrDuplicate is returned when the curator already proposed changes for the slug.
	ErrDuplicate = apperr.Conflict("You have already submitted a proposal for this demo.")
	// ErrInvalidStatus is returned for a status outside the enum.
	ErrInvalidStatus = apperr.Validation("Invalid status. Allowed: pending, reviewed, rejected.")
	// ErrNotFound is returned when updating an unknown proposal.
	ErrNotFound = apperr.NotFound("Proposal not found.")
)

// Input carries a public proposal submission.
type Input struct {
	CuratorKey      string
	DemoSlug        string
	ProposedChanges string
}

// Service validates and stores proposals.
type Service struct {
	repo Repository
}

// NewService constructs a curator Service.
func NewService(repo Repository) (*Service, error) {
	if repo == nil {
		return nil, eris.New("proposal repository is required")
	}
	return &Service{repo: repo}, nil
}

// Propose stores a pending proposal unless one exists for the same curator key and slug.
func (s *Service) Propose(ctx context.Context, input Input) (*Proposal, error) {
	curatorKey := strings.TrimSpace(input.CuratorKey)
	demoSlug := textnorm.Key(input.DemoSlug)
	changes := strings.TrimSpace(input.ProposedChanges)

	if curatorKey == "" || demoSlug == "" || changes == "" {
		return nil, ErrMissingFields
	}
	if textnorm.Len(changes) < minProposalLength {
		return nil, ErrProposalTooShort
	}

	exists, err := s.repo.Exists(ctx, curatorKey, demoSlug)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, ErrDuplicate
	}

	proposal := &Proposal{
		CuratorKey:      curatorKey,
		DemoSlug:        demoSlug,
		ProposedChanges: changes,
		Status:          StatusPending,
	}
	if err := s.repo.Create(ctx, proposal); err != nil {
		// A concurrent submission won between the check and the insert.
		if eris.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrDuplicate
		}
		return nil, err
	}

	return proposal, nil
}

// List returns all proposals, newest first.
func (s *Service) List(ctx context.Context) ([]Proposal, error) {
	return s.repo.List(ctx)
}

// UpdateStatus validates status before touching the store.
func (s *Service) UpdateStatus(ctx context.Context, id, status string) (*Proposal, error) {
	parsed, ok := ParseStatus(strings.TrimSpace(status))
	if !ok {
		return nil, ErrInvalidStatus
	}

	proposal, err := s.repo.UpdateStatus(ctx, id, parsed)
	if err != nil {
		return nil, err
	}
	if proposal == nil {
		return nil, ErrNotFound
	}
	return proposal, nil
}
