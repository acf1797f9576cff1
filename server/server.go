package server

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/paperlens/paperlens/internal/logger"
	"github.com/paperlens/paperlens/internal/storage"
	"github.com/paperlens/paperlens/resources"
	"github.com/paperlens/paperlens/tools"
)

func CreateServer(log logger.Logger) *mcp.Server {
	server := mcp.NewServer(&mcp.Implementation{Name: "paperlens", Version: "v0.1.0"}, nil)

	store, err := initializeStorage(log)
	if err != nil {
		log.Fatal("Failed to initialize storage: %v", err)
	}

	reviewResourceHandler := resources.NewReviewResourceHandler(store)

	// Register tools with storage and logger dependencies
	mcp.AddTool(server, tools.PaperReviewTool(), func(ctx context.Context, req *mcp.CallToolRequest, query tools.PaperReviewQuery) (*mcp.CallToolResult, *tools.PaperReviewResponse, error) {
		return tools.PaperReviewToolHandler(ctx, req, query, store, log)
	})

	mcp.AddTool(server, tools.ReviewGetTool(), func(ctx context.Context, req *mcp.CallToolRequest, query tools.ReviewGetQuery) (*mcp.CallToolResult, *tools.ReviewGetResponse, error) {
		return tools.ReviewGetToolHandler(ctx, req, query, store, log)
	})

	mcp.AddTool(server, tools.ReviewDeleteTool(), func(ctx context.Context, req *mcp.CallToolRequest, query tools.ReviewDeleteQuery) (*mcp.CallToolResult, *tools.ReviewDeleteResponse, error) {
		return tools.ReviewDeleteToolHandler(ctx, req, query, store, log)
	})

	mcp.AddTool(server, tools.ReviewerListTool(), tools.ReviewerListToolHandler)

	// Template for the full review
	server.AddResourceTemplate(&mcp.ResourceTemplate{
		URITemplate: "review://{reviewId}",
		Name:        "paper-review",
		Description: "Complete paper review with per-reviewer results, comments, and highlights",
		MIMEType:    "application/json",
	}, func(ctx context.Context, req *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
		return reviewResourceHandler.ReadResource(ctx, req.Params.URI)
	})

	// Template for per-reviewer results
	server.AddResourceTemplate(&mcp.ResourceTemplate{
		URITemplate: "review://{reviewId}/reviewers",
		Name:        "review-reviewers",
		Description: "Per-reviewer results including status and summary",
		MIMEType:    "application/json",
	}, func(ctx context.Context, req *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
		return reviewResourceHandler.ReadResource(ctx, req.Params.URI)
	})

	// Template for the flat comment list
	server.AddResourceTemplate(&mcp.ResourceTemplate{
		URITemplate: "review://{reviewId}/comments",
		Name:        "review-comments",
		Description: "All reviewer comments with citations",
		MIMEType:    "application/json",
	}, func(ctx context.Context, req *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
		return reviewResourceHandler.ReadResource(ctx, req.Params.URI)
	})

	// Template for the flat highlight list
	server.AddResourceTemplate(&mcp.ResourceTemplate{
		URITemplate: "review://{reviewId}/highlights",
		Name:        "review-highlights",
		Description: "Resolved highlight positions for rendering over the PDF",
		MIMEType:    "application/json",
	}, func(ctx context.Context, req *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
		return reviewResourceHandler.ReadResource(ctx, req.Params.URI)
	})

	// Template for the extracted page geometry
	server.AddResourceTemplate(&mcp.ResourceTemplate{
		URITemplate: "review://{reviewId}/geometry",
		Name:        "review-geometry",
		Description: "Extracted per-page text spans with positions",
		MIMEType:    "application/json",
	}, func(ctx context.Context, req *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
		return reviewResourceHandler.ReadResource(ctx, req.Params.URI)
	})

	return server
}

// initializeStorage creates and initializes the storage backend
func initializeStorage(log logger.Logger) (storage.Store, error) {
	// Determine database path
	dbPath := os.Getenv("PAPERLENS_DB_PATH")
	if dbPath == "" {
		// Default to ~/.paperlens/paperlens.db
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("failed to get user home directory: %w", err)
		}
		dbDir := filepath.Join(homeDir, ".paperlens")
		if err := os.MkdirAll(dbDir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
		dbPath = filepath.Join(dbDir, "paperlens.db")
	}

	log.Info("Initializing SQLite database at: %s", dbPath)

	store, err := storage.NewSQLiteStore(dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to create SQLite store: %w", err)
	}

	return store, nil
}
