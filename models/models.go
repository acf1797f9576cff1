package models

// TextSpan is a contiguous run of extracted text with its axis-aligned
// bounding box. Coordinates are in render space: origin at the top-left of
// the page, y increasing downward, in the same units as the owning page's
// Width and Height.
type TextSpan struct {
	Text string  `json:"text"`
	X0   float64 `json:"x0"`
	Y0   float64 `json:"y0"`
	X1   float64 `json:"x1"`
	Y1   float64 `json:"y1"`
}

// PageGeometry is the positioned text content of one page. Spans are ordered
// in reading order (top-to-bottom, left-to-right) and every span box lies
// within [0,Width] x [0,Height]. Immutable once extracted.
type PageGeometry struct {
	PageIndex int        `json:"page_index"` // 0-based
	Width     float64    `json:"width"`
	Height    float64    `json:"height"`
	Spans     []TextSpan `json:"spans,omitempty"`
}

// ReviewerStatus is the lifecycle state of one reviewer task.
type ReviewerStatus string

const (
	StatusPending   ReviewerStatus = "pending"
	StatusCompleted ReviewerStatus = "completed"
	StatusFailed    ReviewerStatus = "failed"
)

// Citation is a quoted fragment a reviewer claims appears in the paper.
// PageHint is 1-based; 0 means no hint. HighlightID is set by citation
// resolution; nil means no geometric anchor was found, which is a normal
// outcome rather than an error.
type Citation struct {
	Quote       string  `json:"quote"`
	PageHint    int     `json:"page_hint,omitempty"`
	HighlightID *string `json:"highlight_id"`
}

// Comment is one reviewer remark. ID is empty until aggregation assigns it
// and is unique within a ReviewResult. Page is best-effort: the page of the
// first resolved highlight, else the model's hint.
type Comment struct {
	ID           string     `json:"id"`
	ReviewerType string     `json:"reviewer_type"`
	Title        string     `json:"title"`
	Content      string     `json:"content"`
	Severity     string     `json:"severity"` // info, warning, error
	Page         int        `json:"page,omitempty"`
	Citations    []Citation `json:"citations,omitempty"`
}

// Highlight anchors a citation to a bounding box on a rendered page.
// Page is 1-based. Width and Height are the owning page's dimensions so a
// client can position the box as fractions at any zoom level.
type Highlight struct {
	ID        string  `json:"id"`
	Page      int     `json:"page"`
	X0        float64 `json:"x0"`
	Y0        float64 `json:"y0"`
	X1        float64 `json:"x1"`
	Y1        float64 `json:"y1"`
	Width     float64 `json:"width"`
	Height    float64 `json:"height"`
	CommentID string  `json:"comment_id"`
}

// ReviewerResult is the outcome of one reviewer task. Created pending,
// mutated once to a terminal status when the task finishes or fails.
type ReviewerResult struct {
	Type     string         `json:"type"`
	Name     string         `json:"name,omitempty"`
	Icon     string         `json:"icon,omitempty"`
	Status   ReviewerStatus `json:"status"`
	Summary  string         `json:"summary,omitempty"`
	Reason   string         `json:"reason,omitempty"` // failure reason when Status is failed
	Comments []Comment      `json:"comments,omitempty"`
}

// ReviewResult is the aggregate output of one review session. Append-only
// while the aggregator builds it, frozen afterward.
type ReviewResult struct {
	ID         string           `json:"id"`
	Title      string           `json:"title,omitempty"`
	PageCount  int              `json:"page_count"`
	Reviewers  []ReviewerResult `json:"reviewers"`
	Comments   []Comment        `json:"comments"`
	Highlights []Highlight      `json:"highlights"`
}

// SourceInfo says where the paper under review came from.
type SourceInfo struct {
	ZoteroID string `json:"zotero_id,omitempty"`
	URL      string `json:"url,omitempty"`
}

// ReviewInfo is the listing entry for a stored review.
type ReviewInfo struct {
	ReviewID  string `json:"review_id"`
	Title     string `json:"title,omitempty"`
	PageCount int    `json:"page_count"`
}
