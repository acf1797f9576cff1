package geometry

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/paperlens/paperlens/internal/logger"
	"github.com/paperlens/paperlens/models"
)

func TestExtract_EmptyInput(t *testing.T) {
	_, err := Extract(nil, logger.NewNoOpLogger())
	if err == nil {
		t.Fatal("Expected error for empty input, got nil")
	}

	var extractionErr *ExtractionError
	if !errors.As(err, &extractionErr) {
		t.Fatalf("Expected ExtractionError, got: %v", err)
	}
	if extractionErr.Reason != "empty input" {
		t.Errorf("Expected 'empty input' reason, got: %s", extractionErr.Reason)
	}
}

func TestExtract_NotAPDF(t *testing.T) {
	_, err := Extract([]byte("this is definitely not a pdf document"), logger.NewNoOpLogger())
	if err == nil {
		t.Fatal("Expected error for non-PDF input, got nil")
	}

	var extractionErr *ExtractionError
	if !errors.As(err, &extractionErr) {
		t.Fatalf("Expected ExtractionError, got: %v", err)
	}
}

func TestExtract_OversizedInput(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping large allocation in short mode")
	}

	_, err := Extract(make([]byte, MaxFileSize+1), logger.NewNoOpLogger())
	if err == nil {
		t.Fatal("Expected error for oversized input, got nil")
	}

	var extractionErr *ExtractionError
	if !errors.As(err, &extractionErr) {
		t.Fatalf("Expected ExtractionError, got: %v", err)
	}
	if !strings.Contains(extractionErr.Reason, "limit") {
		t.Errorf("Expected size-limit reason, got: %s", extractionErr.Reason)
	}
}

func TestExtract_SamplePDFs(t *testing.T) {
	samples, err := filepath.Glob("testdata/*.pdf")
	if err != nil {
		t.Fatalf("Failed to glob testdata: %v", err)
	}
	if len(samples) == 0 {
		t.Skip("No sample PDFs in testdata/")
	}

	for _, sample := range samples {
		data, err := os.ReadFile(sample)
		if err != nil {
			t.Fatalf("Failed to read %s: %v", sample, err)
		}

		pages, err := Extract(data, logger.NewNoOpLogger())
		if err != nil {
			t.Fatalf("Extract(%s) failed: %v", sample, err)
		}
		if len(pages) == 0 {
			t.Fatalf("Extract(%s) returned no pages", sample)
		}

		for _, pg := range pages {
			if pg.Width <= 0 || pg.Height <= 0 {
				t.Errorf("%s page %d has invalid dimensions %fx%f", sample, pg.PageIndex, pg.Width, pg.Height)
			}
			for _, span := range pg.Spans {
				if span.Text == "" {
					t.Errorf("%s page %d has a span with empty text", sample, pg.PageIndex)
				}
				if span.X0 >= span.X1 || span.Y0 >= span.Y1 {
					t.Errorf("%s page %d has a degenerate span box", sample, pg.PageIndex)
				}
				if span.X1 > pg.Width || span.Y1 > pg.Height || span.X0 < 0 || span.Y0 < 0 {
					t.Errorf("%s page %d has a span outside the page", sample, pg.PageIndex)
				}
			}
		}
	}
}

func twoLinePage() models.PageGeometry {
	return models.PageGeometry{
		PageIndex: 0,
		Width:     612,
		Height:    792,
		Spans: []models.TextSpan{
			{Text: "A Study of", X0: 100, Y0: 80, X1: 200, Y1: 95},
			{Text: "Something Important", X0: 205, Y0: 80, X1: 380, Y1: 95},
			{Text: "First Author, Second Author", X0: 100, Y0: 120, X1: 350, Y1: 132},
		},
	}
}

func TestPageText_LineBreaks(t *testing.T) {
	got := PageText(twoLinePage())
	expected := "A Study of Something Important\nFirst Author, Second Author"
	if got != expected {
		t.Errorf("Expected %q, got %q", expected, got)
	}
}

func TestPageText_Empty(t *testing.T) {
	if got := PageText(models.PageGeometry{Width: 612, Height: 792}); got != "" {
		t.Errorf("Expected empty text for page without spans, got %q", got)
	}
}

func TestPaperText_PageMarkers(t *testing.T) {
	pages := []models.PageGeometry{
		twoLinePage(),
		{
			PageIndex: 1,
			Width:     612,
			Height:    792,
			Spans: []models.TextSpan{
				{Text: "Second page content", X0: 100, Y0: 80, X1: 300, Y1: 95},
			},
		},
	}

	text, truncated := PaperText(pages, 0)
	if truncated {
		t.Error("Expected no truncation with unlimited budget")
	}
	if !strings.Contains(text, "=== PAGE 1 ===") || !strings.Contains(text, "=== PAGE 2 ===") {
		t.Errorf("Expected page markers for both pages, got: %q", text)
	}
	if strings.Index(text, "=== PAGE 1 ===") > strings.Index(text, "=== PAGE 2 ===") {
		t.Error("Expected pages in order")
	}
}

func TestPaperText_TruncatesAtPageBoundary(t *testing.T) {
	pages := []models.PageGeometry{
		twoLinePage(),
		{
			PageIndex: 1,
			Width:     612,
			Height:    792,
			Spans: []models.TextSpan{
				{Text: strings.Repeat("word ", 100), X0: 100, Y0: 80, X1: 300, Y1: 95},
			},
		},
	}

	full, _ := PaperText(pages[:1], 0)
	text, truncated := PaperText(pages, len(full)+10)
	if !truncated {
		t.Fatal("Expected truncation with a tight budget")
	}
	if strings.Contains(text, "=== PAGE 2 ===") {
		t.Error("Expected the second page to be dropped whole")
	}
	if !strings.Contains(text, "=== PAGE 1 ===") {
		t.Error("Expected the first page to survive")
	}
}

func TestGuessTitle(t *testing.T) {
	if title := GuessTitle([]models.PageGeometry{twoLinePage()}); title != "A Study of Something Important" {
		t.Errorf("Expected first plausible line as title, got: %q", title)
	}

	if title := GuessTitle(nil); title != "" {
		t.Errorf("Expected empty title for no pages, got: %q", title)
	}

	shortLines := models.PageGeometry{
		Width:  612,
		Height: 792,
		Spans: []models.TextSpan{
			{Text: "3", X0: 100, Y0: 40, X1: 110, Y1: 52},
			{Text: "DRAFT", X0: 100, Y0: 60, X1: 150, Y1: 72},
			{Text: "An Actual Paper Title Goes Here", X0: 100, Y0: 90, X1: 400, Y1: 105},
		},
	}
	if title := GuessTitle([]models.PageGeometry{shortLines}); title != "An Actual Paper Title Goes Here" {
		t.Errorf("Expected short lines skipped, got: %q", title)
	}
}
