package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/jsonschema-go/jsonschema"
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/paperlens/paperlens/internal/review"
)

type ReviewerListQuery struct{}

type ReviewerInfo struct {
	Type        string `json:"type"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Icon        string `json:"icon"`
}

type ReviewerListResponse struct {
	Reviewers []ReviewerInfo `json:"reviewers"`
}

func ReviewerListTool() *mcp.Tool {
	inputschema, err := jsonschema.For[ReviewerListQuery](nil)
	if err != nil {
		panic(err)
	}
	return &mcp.Tool{
		Name:        "reviewer-list",
		Description: "List the available reviewer personas that can be requested in a paper review",
		InputSchema: inputschema,
	}
}

func ReviewerListToolHandler(ctx context.Context, req *mcp.CallToolRequest, query ReviewerListQuery) (*mcp.CallToolResult, *ReviewerListResponse, error) {
	personas := review.Personas()

	response := &ReviewerListResponse{
		Reviewers: make([]ReviewerInfo, len(personas)),
	}
	var names []string
	for i, p := range personas {
		response.Reviewers[i] = ReviewerInfo{
			Type:        p.Type,
			Name:        p.Name,
			Description: p.Description,
			Icon:        p.Icon,
		}
		names = append(names, p.Type)
	}

	result := &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{
				Text: fmt.Sprintf("%d reviewers available: %s", len(personas), strings.Join(names, ", ")),
			},
		},
	}

	return result, response, nil
}
