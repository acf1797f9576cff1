package resources

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/paperlens/paperlens/internal/storage"
)

// ReviewResourceHandler handles resource requests for stored reviews
type ReviewResourceHandler struct {
	store storage.Store
}

// NewReviewResourceHandler creates a new review resource handler
func NewReviewResourceHandler(store storage.Store) *ReviewResourceHandler {
	return &ReviewResourceHandler{store: store}
}

// ListResources returns a list of available resources
func (h *ReviewResourceHandler) ListResources(ctx context.Context) ([]mcp.Resource, error) {
	reviews, err := h.store.ListReviews(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list reviews: %w", err)
	}

	var resources []mcp.Resource
	for _, review := range reviews {
		resources = append(resources, mcp.Resource{
			URI:         fmt.Sprintf("review://%s", review.ReviewID),
			Name:        fmt.Sprintf("%s (Review)", review.Title),
			Description: fmt.Sprintf("Paper review: %s (%d pages)", review.Title, review.PageCount),
			MIMEType:    "application/json",
		})

		resources = append(resources, mcp.Resource{
			URI:         fmt.Sprintf("review://%s/comments", review.ReviewID),
			Name:        fmt.Sprintf("%s (Comments)", review.Title),
			Description: "All reviewer comments with citations",
			MIMEType:    "application/json",
		})

		resources = append(resources, mcp.Resource{
			URI:         fmt.Sprintf("review://%s/highlights", review.ReviewID),
			Name:        fmt.Sprintf("%s (Highlights)", review.Title),
			Description: "Resolved highlight positions for rendering",
			MIMEType:    "application/json",
		})
	}

	return resources, nil
}

// ReadResource reads a specific resource by URI
func (h *ReviewResourceHandler) ReadResource(ctx context.Context, uri string) (*mcp.ReadResourceResult, error) {
	// Parse URI: review://review_id/resource_type
	if !strings.HasPrefix(uri, "review://") {
		return nil, fmt.Errorf("invalid URI scheme, expected review://")
	}

	path := strings.TrimPrefix(uri, "review://")
	parts := strings.Split(path, "/")

	if len(parts) == 0 || parts[0] == "" {
		return nil, fmt.Errorf("invalid URI, missing review ID")
	}

	reviewID := parts[0]
	resourceType := ""
	if len(parts) > 1 {
		resourceType = parts[1]
	}

	var content string
	var err error

	switch resourceType {
	case "":
		content, err = h.getReview(ctx, reviewID)
	case "reviewers":
		content, err = h.getReviewers(ctx, reviewID)
	case "comments":
		content, err = h.getComments(ctx, reviewID)
	case "highlights":
		content, err = h.getHighlights(ctx, reviewID)
	case "geometry":
		content, err = h.getGeometry(ctx, reviewID)
	default:
		return nil, fmt.Errorf("unknown resource type: %s", resourceType)
	}

	if err != nil {
		return nil, err
	}

	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{
			{
				URI:      uri,
				MIMEType: "application/json",
				Text:     content,
			},
		},
	}, nil
}

func (h *ReviewResourceHandler) getReview(ctx context.Context, reviewID string) (string, error) {
	review, err := h.store.GetReview(ctx, reviewID)
	if err != nil {
		return "", err
	}
	return marshalJSON(review)
}

func (h *ReviewResourceHandler) getReviewers(ctx context.Context, reviewID string) (string, error) {
	review, err := h.store.GetReview(ctx, reviewID)
	if err != nil {
		return "", err
	}
	return marshalJSON(review.Reviewers)
}

func (h *ReviewResourceHandler) getComments(ctx context.Context, reviewID string) (string, error) {
	review, err := h.store.GetReview(ctx, reviewID)
	if err != nil {
		return "", err
	}
	return marshalJSON(review.Comments)
}

func (h *ReviewResourceHandler) getHighlights(ctx context.Context, reviewID string) (string, error) {
	review, err := h.store.GetReview(ctx, reviewID)
	if err != nil {
		return "", err
	}
	return marshalJSON(review.Highlights)
}

func (h *ReviewResourceHandler) getGeometry(ctx context.Context, reviewID string) (string, error) {
	pages, err := h.store.GetGeometry(ctx, reviewID)
	if err != nil {
		return "", err
	}
	return marshalJSON(pages)
}

func marshalJSON(v any) (string, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal resource: %w", err)
	}
	return string(data), nil
}
