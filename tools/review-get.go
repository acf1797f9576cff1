package tools

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/jsonschema-go/jsonschema"
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/paperlens/paperlens/internal/logger"
	"github.com/paperlens/paperlens/internal/storage"
	"github.com/paperlens/paperlens/models"
)

type ReviewGetQuery struct {
	ReviewID string `json:"review_id"`
}

type ReviewGetResponse struct {
	Review *models.ReviewResult `json:"review"`
}

func ReviewGetTool() *mcp.Tool {
	inputschema, err := jsonschema.For[ReviewGetQuery](nil)
	if err != nil {
		panic(err)
	}
	return &mcp.Tool{
		Name:        "review-get",
		Description: "Retrieve a previously stored paper review by ID, including per-reviewer results, comments, and highlight positions",
		InputSchema: inputschema,
	}
}

func ReviewGetToolHandler(ctx context.Context, req *mcp.CallToolRequest, query ReviewGetQuery, store storage.Store, log logger.Logger) (*mcp.CallToolResult, *ReviewGetResponse, error) {
	if query.ReviewID == "" {
		return nil, nil, errors.New("review_id is required")
	}

	review, err := store.GetReview(ctx, query.ReviewID)
	if err != nil {
		return nil, nil, err
	}

	result := &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{
				Text: fmt.Sprintf("Review %s: %q, %d comments, %d highlights.",
					review.ID, review.Title, len(review.Comments), len(review.Highlights)),
			},
		},
	}

	return result, &ReviewGetResponse{Review: review}, nil
}
