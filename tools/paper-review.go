package tools

import (
	"context"
	"fmt"

	"github.com/google/jsonschema-go/jsonschema"
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/paperlens/paperlens/internal/logger"
	"github.com/paperlens/paperlens/internal/operations"
	"github.com/paperlens/paperlens/internal/storage"
	"github.com/paperlens/paperlens/models"
)

type PaperReviewQuery struct {
	ZoteroID  string   `json:"zotero_id,omitempty"`
	URL       string   `json:"url,omitempty"`
	RawData   []byte   `json:"raw_data,omitempty"`
	Reviewers []string `json:"reviewers,omitempty"`
	Threshold float64  `json:"threshold,omitempty"`
}

type PaperReviewResponse struct {
	Review       *models.ReviewResult `json:"review"`
	ResourcePath string               `json:"resource_path"`
}

func PaperReviewTool() *mcp.Tool {
	inputschema, err := jsonschema.For[PaperReviewQuery](nil)
	if err != nil {
		panic(err)
	}
	return &mcp.Tool{
		Name:        "paper-review",
		Description: "Run a multi-perspective AI review of an academic paper PDF, producing per-reviewer comments with citations resolved to highlight positions on the page",
		InputSchema: inputschema,
	}
}

func PaperReviewToolHandler(ctx context.Context, req *mcp.CallToolRequest, query PaperReviewQuery, store storage.Store, log logger.Logger) (*mcp.CallToolResult, *PaperReviewResponse, error) {
	review, err := operations.RunReview(ctx, operations.ReviewRequest{
		ZoteroID:  query.ZoteroID,
		URL:       query.URL,
		RawData:   query.RawData,
		Reviewers: query.Reviewers,
		Threshold: query.Threshold,
	}, store, log)
	if err != nil {
		return nil, nil, err
	}

	completed := 0
	for _, r := range review.Reviewers {
		if r.Status == models.StatusCompleted {
			completed++
		}
	}

	result := &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{
				Text: fmt.Sprintf("Review %s complete: %d/%d reviewers finished, %d comments, %d highlights across %d pages.",
					review.ID, completed, len(review.Reviewers),
					len(review.Comments), len(review.Highlights), review.PageCount),
			},
		},
	}

	responseData := &PaperReviewResponse{
		Review:       review,
		ResourcePath: "review://" + review.ID,
	}

	return result, responseData, nil
}
