package tools

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/jsonschema-go/jsonschema"
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/paperlens/paperlens/internal/logger"
	"github.com/paperlens/paperlens/internal/storage"
)

type ReviewDeleteQuery struct {
	ReviewID string `json:"review_id"`
}

type ReviewDeleteResponse struct {
	Deleted string `json:"deleted"`
}

func ReviewDeleteTool() *mcp.Tool {
	inputschema, err := jsonschema.For[ReviewDeleteQuery](nil)
	if err != nil {
		panic(err)
	}
	return &mcp.Tool{
		Name:        "review-delete",
		Description: "Delete a stored paper review and its extracted geometry",
		InputSchema: inputschema,
	}
}

func ReviewDeleteToolHandler(ctx context.Context, req *mcp.CallToolRequest, query ReviewDeleteQuery, store storage.Store, log logger.Logger) (*mcp.CallToolResult, *ReviewDeleteResponse, error) {
	if query.ReviewID == "" {
		return nil, nil, errors.New("review_id is required")
	}

	if err := store.DeleteReview(ctx, query.ReviewID); err != nil {
		return nil, nil, err
	}

	log.Info("Deleted review %s", query.ReviewID)

	result := &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{
				Text: fmt.Sprintf("Deleted review %s.", query.ReviewID),
			},
		},
	}

	return result, &ReviewDeleteResponse{Deleted: query.ReviewID}, nil
}
