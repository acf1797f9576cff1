package aggregate

import (
	"fmt"

	"github.com/oklog/ulid/v2"

	"github.com/paperlens/paperlens/internal/logger"
	"github.com/paperlens/paperlens/internal/resolve"
	"github.com/paperlens/paperlens/models"
)

// Build assembles one immutable ReviewResult from the per-reviewer results
// and the extracted page geometry. It assigns the review id and all comment
// and highlight ids, resolves citations to highlights, and produces the flat
// comment and highlight lists alongside the per-reviewer breakdown. Failed
// reviewers are carried through untouched and contribute no comments.
func Build(reviewers []models.ReviewerResult, pages []models.PageGeometry, title string, threshold float64, log logger.Logger) (*models.ReviewResult, error) {
	resolver := resolve.NewResolver(pages, log)
	if threshold > 0 {
		resolver.SetThreshold(threshold)
	}

	result := &models.ReviewResult{
		ID:        ulid.Make().String(),
		Title:     title,
		PageCount: len(pages),
		Reviewers: make([]models.ReviewerResult, len(reviewers)),
	}

	commentSeq := 0
	highlightSeq := 0
	nextHighlightID := func() string {
		highlightSeq++
		return fmt.Sprintf("h-%d", highlightSeq)
	}

	for ri, reviewer := range reviewers {
		if reviewer.Status != models.StatusCompleted {
			reviewer.Comments = nil
			result.Reviewers[ri] = reviewer
			continue
		}

		for ci := range reviewer.Comments {
			comment := &reviewer.Comments[ci]
			commentSeq++
			comment.ID = fmt.Sprintf("c-%d", commentSeq)

			sanitizeHints(comment, len(pages), log)

			highlights, err := resolver.ResolveComment(comment, nextHighlightID)
			if err != nil {
				return nil, fmt.Errorf("resolving citations for comment %s: %w", comment.ID, err)
			}

			// A comment whose own page the model left unset inherits the
			// page of its first located citation.
			if comment.Page == 0 && len(highlights) > 0 {
				comment.Page = highlights[0].Page
			}

			result.Comments = append(result.Comments, *comment)
			result.Highlights = append(result.Highlights, highlights...)
		}

		result.Reviewers[ri] = reviewer
	}

	log.Info("Aggregated review %s: %d comments, %d highlights across %d pages",
		result.ID, len(result.Comments), len(result.Highlights), result.PageCount)
	return result, nil
}

// sanitizeHints drops citation page hints outside the document before
// resolution. Reviewer models occasionally invent page numbers; a bad hint
// downgrades that citation to a whole-document search rather than failing
// the review.
func sanitizeHints(comment *models.Comment, pageCount int, log logger.Logger) {
	for i := range comment.Citations {
		hint := comment.Citations[i].PageHint
		if hint != 0 && (hint < 1 || hint > pageCount) {
			log.Warn("Dropping out-of-range page hint %d on comment %s (document has %d pages)",
				hint, comment.ID, pageCount)
			comment.Citations[i].PageHint = 0
		}
	}
	if comment.Page < 0 || comment.Page > pageCount {
		comment.Page = 0
	}
}
