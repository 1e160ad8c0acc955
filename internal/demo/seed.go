package demo

import (
	"context"

	"github.com/rotisserie/eris"
)

// SampleInputs are the showcase pages installed by the seed command.
var SampleInputs = []CreateInput{
	{
		Title:      "Museum Exhibit: The Pharaoh's Mask",
		Slug:       "museum",
		Type:       string(TypeMuseum),
		CuratorKey: "curator123",
		Content:    "Discover the golden mask of Pharaoh Tutankhamun. This artifact, over 3,000 years old, symbolizes ancient Egyptian royalty and craftsmanship.",
	},
	{
		Title:      "Organic Apple Juice: Product Info",
		Slug:       "product",
		Type:       string(TypeProduct),
		CuratorKey: "curator456",
		Content:    "This juice is made from 100% organic apples. No added sugar, preservatives, or artificial flavors. Just the pure taste of nature.",
	},
	{
		Title:      "Breathing Exercise: Wellness Guide",
		Slug:       "health",
		Type:       string(TypeHealth),
		CuratorKey: "curator789",
		Content:    "Follow this simple breathing exercise to reduce stress: inhale for 4 seconds, hold for 4, exhale for 6. Repeat for 2 minutes.",
	},
}

// SeedResult reports which sample slugs were created or replaced.
type SeedResult struct {
	Created  []string
	Replaced []string
}

// Seed installs the sample pages. Existing pages with the same slug are kept
// unless replace is set, in which case they are deleted and recreated.
func (s *Service) Seed(ctx context.Context, replace bool) (SeedResult, error) {
	var result SeedResult

	for _, input := range SampleInputs {
		existing, err := s.repo.GetBySlug(ctx, input.Slug)
		if err != nil {
			return result, eris.Wrapf(err, "checking sample page %s", input.Slug)
		}

		if existing != nil {
			if !replace {
				continue
			}
			if err := s.Delete(ctx, existing.Slug); err != nil {
				return result, eris.Wrapf(err, "replacing sample page %s", input.Slug)
			}
			result.Replaced = append(result.Replaced, input.Slug)
		}

		if _, err := s.Create(ctx, input); err != nil {
			return result, eris.Wrapf(err, "creating sample page %s", input.Slug)
		}
		if existing == nil {
			result.Created = append(result.Created, input.Slug)
		}
	}

	return result, nil
}
