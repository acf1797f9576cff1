package storage

import (
	"context"

	"github.com/paperlens/paperlens/models"
)

// Store defines the interface for persisting and retrieving reviews
type Store interface {
	// StoreReview stores a completed review together with the page geometry
	// it was resolved against
	StoreReview(ctx context.Context, result *models.ReviewResult, pages []models.PageGeometry, sourceInfo *models.SourceInfo) error

	// GetReview retrieves a review by ID
	GetReview(ctx context.Context, reviewID string) (*models.ReviewResult, error)

	// GetGeometry retrieves the extracted page geometry for a review
	GetGeometry(ctx context.Context, reviewID string) ([]models.PageGeometry, error)

	// ListReviews returns summaries of all stored reviews
	ListReviews(ctx context.Context) ([]models.ReviewInfo, error)

	// DeleteReview removes a review and all associated data
	DeleteReview(ctx context.Context, reviewID string) error

	// Close closes the database connection
	Close() error
}
