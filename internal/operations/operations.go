package operations

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/paperlens/paperlens/internal/aggregate"
	"github.com/paperlens/paperlens/internal/documents"
	"github.com/paperlens/paperlens/internal/geometry"
	"github.com/paperlens/paperlens/internal/logger"
	"github.com/paperlens/paperlens/internal/review"
	"github.com/paperlens/paperlens/internal/storage"
	"github.com/paperlens/paperlens/models"
)

// ReviewRequest names a paper to review and optionally narrows the reviewer
// set. An empty Reviewers slice runs every configured persona. RawData takes
// precedence over the source fields when set.
type ReviewRequest struct {
	ZoteroID  string
	URL       string
	RawData   []byte
	Reviewers []string
	Threshold float64
}

// RunReview executes the full review pipeline: fetch the paper, extract page
// geometry, fan the text out to the reviewer personas, resolve citations
// into highlights, and persist the aggregated result. The stored review is
// returned. A partial review (some reviewers failed) is still a success;
// only zero completed reviewers is an error.
func RunReview(ctx context.Context, req ReviewRequest, store storage.Store, log logger.Logger) (*models.ReviewResult, error) {
	sourceInfo := &models.SourceInfo{
		ZoteroID: req.ZoteroID,
		URL:      req.URL,
	}

	data := req.RawData
	if data == nil {
		var err error
		data, err = documents.GetData(ctx, *sourceInfo)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch paper: %w", err)
		}
	}

	pages, err := geometry.Extract(data, log)
	if err != nil {
		return nil, fmt.Errorf("failed to extract paper geometry: %w", err)
	}

	title := geometry.GuessTitle(pages)
	paperText, truncated := geometry.PaperText(pages, geometry.PaperTextBudget)
	if truncated {
		log.Warn("Paper text truncated to fit the reviewer context budget")
	}

	personas, err := selectPersonas(req.Reviewers, log)
	if err != nil {
		return nil, err
	}

	apiKey := os.Getenv("OPENAI_API_KEY")
	if apiKey == "" {
		return nil, errors.New("OPENAI_API_KEY environment variable not set")
	}

	runner := review.NewTaskRunner(apiKey, log)
	orchestrator := review.NewOrchestrator(runner, log)
	results, err := orchestrator.RunAll(ctx, personas, paperText)
	if err != nil {
		return nil, fmt.Errorf("review run produced no completed reviewers: %w", err)
	}

	result, err := aggregate.Build(results, pages, title, req.Threshold, log)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate review: %w", err)
	}

	if err := store.StoreReview(ctx, result, pages, sourceInfo); err != nil {
		return nil, fmt.Errorf("failed to store review: %w", err)
	}

	return result, nil
}

// selectPersonas maps requested reviewer types to persona records. Unknown
// types are skipped with a warning; an empty request means all personas.
func selectPersonas(requested []string, log logger.Logger) ([]review.Persona, error) {
	if len(requested) == 0 {
		return review.Personas(), nil
	}

	var personas []review.Persona
	for _, reviewerType := range requested {
		p, ok := review.PersonaByType(reviewerType)
		if !ok {
			log.Warn("Unknown reviewer type requested: %s", reviewerType)
			continue
		}
		personas = append(personas, p)
	}

	if len(personas) == 0 {
		return nil, fmt.Errorf("no known reviewer types in request: %v", requested)
	}
	return personas, nil
}
