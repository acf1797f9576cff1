package storage

import (
	"context"
	"strings"
	"testing"

	"github.com/paperlens/paperlens/models"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	store, err := NewSQLiteStore(":memory:")
	if err != nil {
		t.Fatalf("Failed to create in-memory store: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func sampleReview() (*models.ReviewResult, []models.PageGeometry, *models.SourceInfo) {
	highlightID := "h-1"
	result := &models.ReviewResult{
		ID:        "01TESTREVIEW0000000000000",
		Title:     "A Sample Paper",
		PageCount: 2,
		Reviewers: []models.ReviewerResult{
			{
				Type:    "editor_overview",
				Name:    "Editor Overview",
				Icon:    "📝",
				Status:  models.StatusCompleted,
				Summary: "Good paper.",
			},
			{
				Type:   "novelty_reviewer",
				Name:   "Novelty Reviewer",
				Icon:   "💡",
				Status: models.StatusFailed,
				Reason: "timeout",
			},
		},
		Comments: []models.Comment{
			{
				ID:           "c-1",
				ReviewerType: "editor_overview",
				Title:        "Strong abstract",
				Content:      "The abstract sets up the contribution well.",
				Severity:     "info",
				Page:         1,
				Citations: []models.Citation{
					{Quote: "we propose a novel method", PageHint: 1, HighlightID: &highlightID},
					{Quote: "unlocated quote"},
				},
			},
		},
		Highlights: []models.Highlight{
			{
				ID: "h-1", Page: 1,
				X0: 100, Y0: 80, X1: 300, Y1: 95,
				Width: 612, Height: 792,
				CommentID: "c-1",
			},
		},
	}

	pages := []models.PageGeometry{
		{
			PageIndex: 0, Width: 612, Height: 792,
			Spans: []models.TextSpan{
				{Text: "we propose a novel method", X0: 100, Y0: 80, X1: 300, Y1: 95},
			},
		},
		{PageIndex: 1, Width: 612, Height: 792},
	}

	return result, pages, &models.SourceInfo{URL: "https://example.org/paper.pdf"}
}

func TestStoreAndGetReview(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	result, pages, source := sampleReview()
	if err := store.StoreReview(ctx, result, pages, source); err != nil {
		t.Fatalf("Failed to store review: %v", err)
	}

	got, err := store.GetReview(ctx, result.ID)
	if err != nil {
		t.Fatalf("Failed to get review: %v", err)
	}

	if got.ID != result.ID || got.Title != result.Title || got.PageCount != result.PageCount {
		t.Errorf("Review fields mismatch: %+v", got)
	}
	if len(got.Reviewers) != 2 {
		t.Fatalf("Expected 2 reviewers, got: %d", len(got.Reviewers))
	}
	if got.Reviewers[0].Type != "editor_overview" || got.Reviewers[1].Type != "novelty_reviewer" {
		t.Error("Expected reviewer order preserved")
	}
	if got.Reviewers[1].Reason != "timeout" {
		t.Errorf("Expected failure reason preserved, got: %q", got.Reviewers[1].Reason)
	}

	if len(got.Comments) != 1 {
		t.Fatalf("Expected 1 comment, got: %d", len(got.Comments))
	}
	c := got.Comments[0]
	if c.ID != "c-1" || c.Severity != "info" || c.Page != 1 {
		t.Errorf("Comment fields mismatch: %+v", c)
	}
	if len(c.Citations) != 2 {
		t.Fatalf("Expected 2 citations, got: %d", len(c.Citations))
	}
	if c.Citations[0].HighlightID == nil || *c.Citations[0].HighlightID != "h-1" {
		t.Error("Expected resolved citation to keep its highlight ID")
	}
	if c.Citations[1].HighlightID != nil {
		t.Error("Expected unresolved citation to keep a nil highlight ID")
	}

	if len(got.Highlights) != 1 {
		t.Fatalf("Expected 1 highlight, got: %d", len(got.Highlights))
	}
	h := got.Highlights[0]
	if h.ID != "h-1" || h.CommentID != "c-1" || h.Page != 1 || h.X1 != 300 {
		t.Errorf("Highlight fields mismatch: %+v", h)
	}

	// Completed reviewers see their own comments; failed reviewers none.
	if len(got.Reviewers[0].Comments) != 1 {
		t.Errorf("Expected reviewer comment view, got: %d", len(got.Reviewers[0].Comments))
	}
	if len(got.Reviewers[1].Comments) != 0 {
		t.Errorf("Expected failed reviewer to have no comments, got: %d", len(got.Reviewers[1].Comments))
	}
}

func TestGetReview_NotFound(t *testing.T) {
	store := newTestStore(t)

	_, err := store.GetReview(context.Background(), "missing")
	if err == nil {
		t.Fatal("Expected error for missing review, got nil")
	}
	if !strings.Contains(err.Error(), "not found") {
		t.Errorf("Expected not-found error, got: %v", err)
	}
}

func TestGetGeometry(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	result, pages, source := sampleReview()
	if err := store.StoreReview(ctx, result, pages, source); err != nil {
		t.Fatalf("Failed to store review: %v", err)
	}

	got, err := store.GetGeometry(ctx, result.ID)
	if err != nil {
		t.Fatalf("Failed to get geometry: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("Expected 2 pages, got: %d", len(got))
	}
	if got[0].PageIndex != 0 || got[1].PageIndex != 1 {
		t.Error("Expected pages in index order")
	}
	if len(got[0].Spans) != 1 || got[0].Spans[0].Text != "we propose a novel method" {
		t.Errorf("Span round trip failed: %+v", got[0].Spans)
	}
	if len(got[1].Spans) != 0 {
		t.Errorf("Expected empty span list for page 2, got: %d", len(got[1].Spans))
	}

	if _, err := store.GetGeometry(ctx, "missing"); err == nil {
		t.Error("Expected error for missing geometry, got nil")
	}
}

func TestListReviews(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	reviews, err := store.ListReviews(ctx)
	if err != nil {
		t.Fatalf("Failed to list reviews: %v", err)
	}
	if len(reviews) != 0 {
		t.Errorf("Expected empty list, got: %d", len(reviews))
	}

	result, pages, source := sampleReview()
	if err := store.StoreReview(ctx, result, pages, source); err != nil {
		t.Fatalf("Failed to store review: %v", err)
	}

	reviews, err = store.ListReviews(ctx)
	if err != nil {
		t.Fatalf("Failed to list reviews: %v", err)
	}
	if len(reviews) != 1 {
		t.Fatalf("Expected 1 review, got: %d", len(reviews))
	}
	if reviews[0].ReviewID != result.ID || reviews[0].Title != result.Title || reviews[0].PageCount != 2 {
		t.Errorf("Review info mismatch: %+v", reviews[0])
	}
}

func TestDeleteReview(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	result, pages, source := sampleReview()
	if err := store.StoreReview(ctx, result, pages, source); err != nil {
		t.Fatalf("Failed to store review: %v", err)
	}

	if err := store.DeleteReview(ctx, result.ID); err != nil {
		t.Fatalf("Failed to delete review: %v", err)
	}

	if _, err := store.GetReview(ctx, result.ID); err == nil {
		t.Error("Expected review gone after delete")
	}
	if _, err := store.GetGeometry(ctx, result.ID); err == nil {
		t.Error("Expected geometry gone after delete")
	}

	if err := store.DeleteReview(ctx, result.ID); err == nil {
		t.Error("Expected error deleting a missing review")
	}
}

func TestStoreReview_Overwrite(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	result, pages, source := sampleReview()
	if err := store.StoreReview(ctx, result, pages, source); err != nil {
		t.Fatalf("Failed to store review: %v", err)
	}

	result.Title = "Updated Title"
	if err := store.StoreReview(ctx, result, pages, source); err != nil {
		t.Fatalf("Failed to re-store review: %v", err)
	}

	got, err := store.GetReview(ctx, result.ID)
	if err != nil {
		t.Fatalf("Failed to get review: %v", err)
	}
	if got.Title != "Updated Title" {
		t.Errorf("Expected overwritten title, got: %q", got.Title)
	}
}
