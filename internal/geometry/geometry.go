package geometry

import (
	"bytes"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	pdfmodel "github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/tsawler/tabula/reader"
	"github.com/tsawler/tabula/text"

	"github.com/paperlens/paperlens/internal/logger"
	"github.com/paperlens/paperlens/models"
)

const (
	// MaxFileSize is the largest PDF accepted for review.
	MaxFileSize = 50 << 20 // 50 MB

	// MaxPageCount bounds the number of pages extracted.
	MaxPageCount = 500

	// PaperTextBudget is the character budget for the page-tagged text handed
	// to reviewers. Truncation happens at page boundaries so page markers
	// stay consistent with the geometry.
	PaperTextBudget = 100000
)

// ExtractionError reports unparseable or oversized input. It is fatal to the
// whole review: no partial geometry is usable.
type ExtractionError struct {
	Reason string
	Err    error
}

func (e *ExtractionError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("extraction failed: %s: %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("extraction failed: %s", e.Reason)
}

func (e *ExtractionError) Unwrap() error { return e.Err }

// Extract parses raw PDF bytes into per-page geometry, one entry per page in
// page order. Pages with no extractable text yield an empty span list with
// valid dimensions. The input is validated with pdfcpu before positioned
// extraction; size and page-count limits are enforced here, not by callers.
func Extract(pdf []byte, log logger.Logger) ([]models.PageGeometry, error) {
	if len(pdf) == 0 {
		return nil, &ExtractionError{Reason: "empty input"}
	}
	if len(pdf) > MaxFileSize {
		return nil, &ExtractionError{Reason: fmt.Sprintf("file exceeds %d byte limit", MaxFileSize)}
	}

	conf := pdfmodel.NewDefaultConfiguration()
	pdfCtx, err := api.ReadValidateAndOptimize(bytes.NewReader(pdf), conf)
	if err != nil {
		return nil, &ExtractionError{Reason: "not a parseable PDF", Err: err}
	}
	pageCount := pdfCtx.PageCount
	if pageCount == 0 {
		return nil, &ExtractionError{Reason: "document has no pages"}
	}
	if pageCount > MaxPageCount {
		return nil, &ExtractionError{Reason: fmt.Sprintf("document exceeds %d page limit", MaxPageCount)}
	}

	// The positioned-text reader works from a file.
	tmp, err := os.CreateTemp("", "paperlens-*.pdf")
	if err != nil {
		return nil, &ExtractionError{Reason: "temp file", Err: err}
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)
	if _, err := tmp.Write(pdf); err != nil {
		tmp.Close()
		return nil, &ExtractionError{Reason: "temp file write", Err: err}
	}
	if err := tmp.Close(); err != nil {
		return nil, &ExtractionError{Reason: "temp file close", Err: err}
	}

	r, err := reader.Open(tmpName)
	if err != nil {
		return nil, &ExtractionError{Reason: "not a parseable PDF", Err: err}
	}
	defer r.Close()

	pages := make([]models.PageGeometry, 0, pageCount)
	for i := 0; i < pageCount; i++ {
		page, err := r.GetPage(i)
		if err != nil {
			return nil, &ExtractionError{Reason: fmt.Sprintf("page %d cannot be read", i+1), Err: err}
		}

		width, _ := page.Width()
		height, _ := page.Height()
		if width <= 0 || height <= 0 {
			return nil, &ExtractionError{Reason: fmt.Sprintf("page %d has invalid dimensions", i+1)}
		}

		fragments, err := r.ExtractTextFragments(page)
		if err != nil {
			return nil, &ExtractionError{Reason: fmt.Sprintf("page %d cannot be extracted", i+1), Err: err}
		}

		pages = append(pages, models.PageGeometry{
			PageIndex: i,
			Width:     width,
			Height:    height,
			Spans:     fragmentsToSpans(fragments, width, height),
		})
	}

	log.Info("Extracted geometry for %d pages", len(pages))
	return pages, nil
}

// fragmentsToSpans converts PDF-space fragments (origin bottom-left, y up)
// into render-space spans (origin top-left, y down) ordered top-to-bottom,
// left-to-right. Fragments without text or area are dropped; boxes are
// clamped to the page.
func fragmentsToSpans(fragments []text.TextFragment, width, height float64) []models.TextSpan {
	spans := make([]models.TextSpan, 0, len(fragments))
	for _, frag := range fragments {
		if strings.TrimSpace(frag.Text) == "" {
			continue
		}
		span := models.TextSpan{
			Text: frag.Text,
			X0:   clamp(frag.X, 0, width),
			X1:   clamp(frag.X+frag.Width, 0, width),
			Y0:   clamp(height-(frag.Y+frag.Height), 0, height),
			Y1:   clamp(height-frag.Y, 0, height),
		}
		if span.X1 <= span.X0 || span.Y1 <= span.Y0 {
			continue
		}
		spans = append(spans, span)
	}

	sort.SliceStable(spans, func(i, j int) bool {
		a, b := spans[i], spans[j]
		// Same line when vertical offset is under half the span height.
		if diff := a.Y0 - b.Y0; abs(diff) > (a.Y1-a.Y0)*0.5 {
			return diff < 0
		}
		return a.X0 < b.X0
	})
	return spans
}

// PageText reconstructs a page's text from its spans, inserting newlines at
// line breaks and spaces within a line.
func PageText(pg models.PageGeometry) string {
	var b strings.Builder
	lastY := -1.0
	for i, span := range pg.Spans {
		if i > 0 {
			if abs(span.Y0-lastY) > (span.Y1-span.Y0)*0.5 {
				b.WriteString("\n")
			} else {
				b.WriteString(" ")
			}
		}
		b.WriteString(span.Text)
		lastY = span.Y0
	}
	return b.String()
}

// PaperText concatenates all pages into the text handed to reviewers, each
// page introduced by a "=== PAGE N ===" marker (1-based, matching citation
// page hints). The budget is applied at page granularity; the returned bool
// reports whether trailing pages were dropped.
func PaperText(pages []models.PageGeometry, budget int) (string, bool) {
	var b strings.Builder
	for _, pg := range pages {
		section := fmt.Sprintf("\n\n=== PAGE %d ===\n%s", pg.PageIndex+1, PageText(pg))
		if budget > 0 && b.Len()+len(section) > budget && b.Len() > 0 {
			return b.String(), true
		}
		b.WriteString(section)
	}
	return b.String(), false
}

// GuessTitle extracts a best-effort title from the first page: the first of
// the opening lines whose length looks like a title.
func GuessTitle(pages []models.PageGeometry) string {
	if len(pages) == 0 {
		return ""
	}
	lines := strings.Split(PageText(pages[0]), "\n")
	for i, line := range lines {
		if i >= 5 {
			break
		}
		line = strings.TrimSpace(line)
		if len(line) > 10 && len(line) < 200 {
			return line
		}
	}
	return ""
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func abs(x float64) float64 {
	if x < 0 {
		return -x
	}
	return x
}
