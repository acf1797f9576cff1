package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	_ "github.com/mattn/go-sqlite3"

	"github.com/paperlens/paperlens/models"
)

// SQLiteStore implements the Store interface using SQLite
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore creates a new SQLite store
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	store := &SQLiteStore{db: db}
	if err := store.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return store, nil
}

// initSchema creates the database tables if they don't exist
func (s *SQLiteStore) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS reviews (
		id TEXT PRIMARY KEY,
		title TEXT,
		page_count INTEGER,
		zotero_id TEXT,
		url TEXT,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS reviewers (
		review_id TEXT NOT NULL,
		reviewer_index INTEGER NOT NULL,
		reviewer_type TEXT,
		name TEXT,
		icon TEXT,
		status TEXT,
		summary TEXT,
		reason TEXT,
		PRIMARY KEY (review_id, reviewer_index),
		FOREIGN KEY (review_id) REFERENCES reviews(id) ON DELETE CASCADE
	);

	CREATE TABLE IF NOT EXISTS comments (
		review_id TEXT NOT NULL,
		comment_index INTEGER NOT NULL,
		comment_id TEXT NOT NULL,
		reviewer_type TEXT,
		title TEXT,
		content TEXT,
		severity TEXT,
		page INTEGER,
		citations TEXT,
		PRIMARY KEY (review_id, comment_index),
		FOREIGN KEY (review_id) REFERENCES reviews(id) ON DELETE CASCADE
	);

	CREATE TABLE IF NOT EXISTS highlights (
		review_id TEXT NOT NULL,
		highlight_index INTEGER NOT NULL,
		highlight_id TEXT NOT NULL,
		page INTEGER,
		x0 REAL, y0 REAL, x1 REAL, y1 REAL,
		width REAL, height REAL,
		comment_id TEXT,
		PRIMARY KEY (review_id, highlight_index),
		FOREIGN KEY (review_id) REFERENCES reviews(id) ON DELETE CASCADE
	);

	CREATE TABLE IF NOT EXISTS geometry (
		review_id TEXT NOT NULL,
		page_index INTEGER NOT NULL,
		width REAL,
		height REAL,
		spans TEXT,
		PRIMARY KEY (review_id, page_index),
		FOREIGN KEY (review_id) REFERENCES reviews(id) ON DELETE CASCADE
	);

	CREATE INDEX IF NOT EXISTS idx_comments_review ON comments(review_id);
	CREATE INDEX IF NOT EXISTS idx_highlights_review ON highlights(review_id);
	`

	_, err := s.db.Exec(schema)
	return err
}

// StoreReview stores a completed review together with the page geometry it
// was resolved against
func (s *SQLiteStore) StoreReview(ctx context.Context, result *models.ReviewResult, pages []models.PageGeometry, sourceInfo *models.SourceInfo) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var zoteroID, url string
	if sourceInfo != nil {
		zoteroID = sourceInfo.ZoteroID
		url = sourceInfo.URL
	}

	_, err = tx.ExecContext(ctx, `
		INSERT OR REPLACE INTO reviews (id, title, page_count, zotero_id, url)
		VALUES (?, ?, ?, ?, ?)
	`, result.ID, result.Title, result.PageCount, zoteroID, url)
	if err != nil {
		return fmt.Errorf("failed to insert review: %w", err)
	}

	for i, reviewer := range result.Reviewers {
		_, err = tx.ExecContext(ctx, `
			INSERT OR REPLACE INTO reviewers (review_id, reviewer_index, reviewer_type, name, icon, status, summary, reason)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		`, result.ID, i, reviewer.Type, reviewer.Name, reviewer.Icon,
			reviewer.Status, reviewer.Summary, reviewer.Reason)
		if err != nil {
			return fmt.Errorf("failed to insert reviewer %d: %w", i, err)
		}
	}

	for i, comment := range result.Comments {
		citationsJSON, err := json.Marshal(comment.Citations)
		if err != nil {
			return fmt.Errorf("failed to marshal citations for comment %s: %w", comment.ID, err)
		}
		_, err = tx.ExecContext(ctx, `
			INSERT OR REPLACE INTO comments (review_id, comment_index, comment_id, reviewer_type, title, content, severity, page, citations)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		`, result.ID, i, comment.ID, comment.ReviewerType, comment.Title,
			comment.Content, comment.Severity, comment.Page, string(citationsJSON))
		if err != nil {
			return fmt.Errorf("failed to insert comment %d: %w", i, err)
		}
	}

	for i, h := range result.Highlights {
		_, err = tx.ExecContext(ctx, `
			INSERT OR REPLACE INTO highlights (review_id, highlight_index, highlight_id, page, x0, y0, x1, y1, width, height, comment_id)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		`, result.ID, i, h.ID, h.Page, h.X0, h.Y0, h.X1, h.Y1, h.Width, h.Height, h.CommentID)
		if err != nil {
			return fmt.Errorf("failed to insert highlight %d: %w", i, err)
		}
	}

	for _, pg := range pages {
		spansJSON, err := json.Marshal(pg.Spans)
		if err != nil {
			return fmt.Errorf("failed to marshal spans for page %d: %w", pg.PageIndex, err)
		}
		_, err = tx.ExecContext(ctx, `
			INSERT OR REPLACE INTO geometry (review_id, page_index, width, height, spans)
			VALUES (?, ?, ?, ?, ?)
		`, result.ID, pg.PageIndex, pg.Width, pg.Height, string(spansJSON))
		if err != nil {
			return fmt.Errorf("failed to insert geometry page %d: %w", pg.PageIndex, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// GetReview retrieves a review by ID
func (s *SQLiteStore) GetReview(ctx context.Context, reviewID string) (*models.ReviewResult, error) {
	result := &models.ReviewResult{}
	err := s.db.QueryRowContext(ctx, `
		SELECT id, title, page_count FROM reviews WHERE id = ?
	`, reviewID).Scan(&result.ID, &result.Title, &result.PageCount)

	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("review not found: %s", reviewID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query review: %w", err)
	}

	if result.Reviewers, err = s.getReviewers(ctx, reviewID); err != nil {
		return nil, err
	}
	if result.Comments, err = s.getComments(ctx, reviewID); err != nil {
		return nil, err
	}
	if result.Highlights, err = s.getHighlights(ctx, reviewID); err != nil {
		return nil, err
	}

	// Per-reviewer comment lists are views onto the flat list, keyed by
	// reviewer type.
	for i := range result.Reviewers {
		reviewer := &result.Reviewers[i]
		if reviewer.Status != models.StatusCompleted {
			continue
		}
		for _, comment := range result.Comments {
			if comment.ReviewerType == reviewer.Type {
				reviewer.Comments = append(reviewer.Comments, comment)
			}
		}
	}

	return result, nil
}

func (s *SQLiteStore) getReviewers(ctx context.Context, reviewID string) ([]models.ReviewerResult, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT reviewer_type, name, icon, status, summary, reason
		FROM reviewers
		WHERE review_id = ?
		ORDER BY reviewer_index
	`, reviewID)
	if err != nil {
		return nil, fmt.Errorf("failed to query reviewers: %w", err)
	}
	defer rows.Close()

	var reviewers []models.ReviewerResult
	for rows.Next() {
		var r models.ReviewerResult
		if err := rows.Scan(&r.Type, &r.Name, &r.Icon, &r.Status, &r.Summary, &r.Reason); err != nil {
			return nil, fmt.Errorf("failed to scan reviewer: %w", err)
		}
		reviewers = append(reviewers, r)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating reviewers: %w", err)
	}

	return reviewers, nil
}

func (s *SQLiteStore) getComments(ctx context.Context, reviewID string) ([]models.Comment, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT comment_id, reviewer_type, title, content, severity, page, citations
		FROM comments
		WHERE review_id = ?
		ORDER BY comment_index
	`, reviewID)
	if err != nil {
		return nil, fmt.Errorf("failed to query comments: %w", err)
	}
	defer rows.Close()

	var comments []models.Comment
	for rows.Next() {
		var c models.Comment
		var citationsJSON string
		if err := rows.Scan(&c.ID, &c.ReviewerType, &c.Title, &c.Content, &c.Severity, &c.Page, &citationsJSON); err != nil {
			return nil, fmt.Errorf("failed to scan comment: %w", err)
		}
		if err := json.Unmarshal([]byte(citationsJSON), &c.Citations); err != nil {
			return nil, fmt.Errorf("failed to unmarshal citations: %w", err)
		}
		comments = append(comments, c)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating comments: %w", err)
	}

	return comments, nil
}

func (s *SQLiteStore) getHighlights(ctx context.Context, reviewID string) ([]models.Highlight, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT highlight_id, page, x0, y0, x1, y1, width, height, comment_id
		FROM highlights
		WHERE review_id = ?
		ORDER BY highlight_index
	`, reviewID)
	if err != nil {
		return nil, fmt.Errorf("failed to query highlights: %w", err)
	}
	defer rows.Close()

	var highlights []models.Highlight
	for rows.Next() {
		var h models.Highlight
		if err := rows.Scan(&h.ID, &h.Page, &h.X0, &h.Y0, &h.X1, &h.Y1, &h.Width, &h.Height, &h.CommentID); err != nil {
			return nil, fmt.Errorf("failed to scan highlight: %w", err)
		}
		highlights = append(highlights, h)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating highlights: %w", err)
	}

	return highlights, nil
}

// GetGeometry retrieves the extracted page geometry for a review
func (s *SQLiteStore) GetGeometry(ctx context.Context, reviewID string) ([]models.PageGeometry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT page_index, width, height, spans
		FROM geometry
		WHERE review_id = ?
		ORDER BY page_index
	`, reviewID)
	if err != nil {
		return nil, fmt.Errorf("failed to query geometry: %w", err)
	}
	defer rows.Close()

	var pages []models.PageGeometry
	for rows.Next() {
		var pg models.PageGeometry
		var spansJSON string
		if err := rows.Scan(&pg.PageIndex, &pg.Width, &pg.Height, &spansJSON); err != nil {
			return nil, fmt.Errorf("failed to scan geometry page: %w", err)
		}
		if err := json.Unmarshal([]byte(spansJSON), &pg.Spans); err != nil {
			return nil, fmt.Errorf("failed to unmarshal spans: %w", err)
		}
		pages = append(pages, pg)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating geometry: %w", err)
	}

	if len(pages) == 0 {
		return nil, fmt.Errorf("geometry not found: %s", reviewID)
	}

	return pages, nil
}

// ListReviews returns summaries of all stored reviews
func (s *SQLiteStore) ListReviews(ctx context.Context) ([]models.ReviewInfo, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, title, page_count
		FROM reviews
		ORDER BY created_at DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query reviews: %w", err)
	}
	defer rows.Close()

	var reviews []models.ReviewInfo
	for rows.Next() {
		var info models.ReviewInfo
		if err := rows.Scan(&info.ReviewID, &info.Title, &info.PageCount); err != nil {
			return nil, fmt.Errorf("failed to scan review: %w", err)
		}
		reviews = append(reviews, info)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating reviews: %w", err)
	}

	return reviews, nil
}

// DeleteReview removes a review and all associated data
func (s *SQLiteStore) DeleteReview(ctx context.Context, reviewID string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM reviews WHERE id = ?`, reviewID)
	if err != nil {
		return fmt.Errorf("failed to delete review: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return fmt.Errorf("review not found: %s", reviewID)
	}

	// Child tables declare ON DELETE CASCADE, but SQLite only honors it
	// with foreign keys enabled, so delete explicitly.
	for _, table := range []string{"reviewers", "comments", "highlights", "geometry"} {
		if _, err := s.db.ExecContext(ctx, `DELETE FROM `+table+` WHERE review_id = ?`, reviewID); err != nil {
			return fmt.Errorf("failed to delete from %s: %w", table, err)
		}
	}

	return nil
}

// Close closes the database connection
func (s *SQLiteStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Ensure SQLiteStore implements Store interface
var _ Store = (*SQLiteStore)(nil)
