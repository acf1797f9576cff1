package resolve

import (
	"fmt"
	"strings"

	"github.com/agnivade/levenshtein"

	"github.com/paperlens/paperlens/internal/logger"
	"github.com/paperlens/paperlens/models"
)

const (
	// DefaultThreshold is the similarity a fuzzy window must reach before a
	// quote is considered located. Configurable per resolver.
	DefaultThreshold = 0.8

	// minQuoteLen filters out quotes too short to anchor meaningfully.
	minQuoteLen = 5

	// Quotes longer than prefixFallbackMin that miss everywhere retry with
	// their first prefixFallbackLen normalized characters before fuzzy
	// matching, absorbing reviewer transcription drift in quote tails.
	prefixFallbackMin = 20
	prefixFallbackLen = 50
)

// GeometryUnavailable reports a page reference outside the extracted
// geometry. It indicates a wiring bug in the caller, not a data-quality
// issue, and is surfaced as a hard failure.
type GeometryUnavailable struct {
	Page      int // 1-based page that was referenced
	PageCount int
}

func (e *GeometryUnavailable) Error() string {
	return fmt.Sprintf("geometry unavailable for page %d (document has %d pages)", e.Page, e.PageCount)
}

// spanRange maps a span's normalized text onto its offsets within the
// page's normalized concatenation.
type spanRange struct {
	start, end int
	spanIdx    int
}

// pageIndex is the searchable form of one page: normalized text plus the
// offset ranges of the spans that produced it.
type pageIndex struct {
	norm  string
	spans []spanRange
}

// Resolver locates citation quotes in extracted page geometry and emits
// highlight records. Geometry is read-only and safely shared; a Resolver is
// safe for concurrent Resolve calls as long as the id generator is.
type Resolver struct {
	pages     []models.PageGeometry
	index     []pageIndex
	threshold float64
	log       logger.Logger
}

func NewResolver(pages []models.PageGeometry, log logger.Logger) *Resolver {
	r := &Resolver{
		pages:     pages,
		index:     make([]pageIndex, len(pages)),
		threshold: DefaultThreshold,
		log:       log,
	}
	for i, pg := range pages {
		r.index[i] = buildPageIndex(pg)
	}
	return r
}

// SetThreshold overrides the fuzzy-match similarity threshold.
func (r *Resolver) SetThreshold(t float64) {
	r.threshold = t
}

// ResolveComment resolves every citation of one comment. Located citations
// get their HighlightID set and a Highlight appended to the returned slice;
// unlocated citations keep a nil HighlightID, which is a normal outcome.
// newHighlightID supplies result-scoped unique ids. The only error is
// GeometryUnavailable for a page hint outside the extracted geometry.
func (r *Resolver) ResolveComment(comment *models.Comment, newHighlightID func() string) ([]models.Highlight, error) {
	var highlights []models.Highlight

	for i := range comment.Citations {
		citation := &comment.Citations[i]

		hint := citation.PageHint
		if hint != 0 && (hint < 1 || hint > len(r.pages)) {
			return nil, &GeometryUnavailable{Page: hint, PageCount: len(r.pages)}
		}

		loc, ok := r.locate(citation.Quote, hint)
		if !ok {
			r.log.Debug("Citation quote not located: %.60q", citation.Quote)
			continue
		}

		pg := r.pages[loc.pageIdx]
		h := models.Highlight{
			ID:        newHighlightID(),
			Page:      loc.pageIdx + 1,
			X0:        loc.x0,
			Y0:        loc.y0,
			X1:        loc.x1,
			Y1:        loc.y1,
			Width:     pg.Width,
			Height:    pg.Height,
			CommentID: comment.ID,
		}
		citation.HighlightID = &h.ID
		highlights = append(highlights, h)
	}

	return highlights, nil
}

// location is a resolved quote position: a page and a bounding box.
type location struct {
	pageIdx        int
	x0, y0, x1, y1 float64
}

// locate finds the best match for a quote. Exact substring match first, then
// a prefix retry for long quotes, then fuzzy sliding-window matching. The
// hint page is searched before the rest of the document in page order.
func (r *Resolver) locate(quote string, hint int) (location, bool) {
	q := normalize(quote)
	if len(q) < minQuoteLen {
		return location{}, false
	}

	order := r.searchOrder(hint)

	for _, pi := range order {
		if pos := strings.Index(r.index[pi].norm, q); pos >= 0 {
			return r.boxForRange(pi, pos, pos+len(q)), true
		}
	}

	if len(q) > prefixFallbackMin {
		prefix := q
		if len(prefix) > prefixFallbackLen {
			prefix = prefix[:prefixFallbackLen]
		}
		for _, pi := range order {
			if pos := strings.Index(r.index[pi].norm, prefix); pos >= 0 {
				return r.boxForRange(pi, pos, pos+len(prefix)), true
			}
		}
	}

	for _, pi := range order {
		if pos, length, ok := r.fuzzyMatch(pi, q); ok {
			return r.boxForRange(pi, pos, pos+length), true
		}
	}

	return location{}, false
}

// searchOrder yields page indices with the 1-based hint page first.
func (r *Resolver) searchOrder(hint int) []int {
	order := make([]int, 0, len(r.pages))
	if hint >= 1 {
		order = append(order, hint-1)
	}
	for i := range r.pages {
		if hint >= 1 && i == hint-1 {
			continue
		}
		order = append(order, i)
	}
	return order
}

// fuzzyMatch slides a quote-sized window across the page's normalized text
// and reports the best window at or above the similarity threshold. Ties on
// similarity keep the earliest position.
func (r *Resolver) fuzzyMatch(pageIdx int, q string) (pos, length int, ok bool) {
	norm := r.index[pageIdx].norm
	if len(norm) < len(q) {
		return 0, 0, false
	}

	stride := len(q) / 10
	if stride < 1 {
		stride = 1
	}

	bestSim := 0.0
	bestPos := -1
	for start := 0; start+len(q) <= len(norm); start += stride {
		window := norm[start : start+len(q)]
		sim := similarity(window, q)
		if sim > bestSim {
			bestSim = sim
			bestPos = start
		}
	}

	if bestPos < 0 || bestSim < r.threshold {
		return 0, 0, false
	}
	return bestPos, len(q), true
}

// boxForRange computes the bounding box covering a character range of the
// page's normalized text: the union of the covering spans, with the first
// and last span trimmed horizontally in proportion to the matched offsets.
func (r *Resolver) boxForRange(pageIdx, start, end int) location {
	pg := r.pages[pageIdx]
	idx := r.index[pageIdx]

	loc := location{pageIdx: pageIdx}
	first := true
	for _, sr := range idx.spans {
		if sr.end <= start || sr.start >= end {
			continue
		}
		span := pg.Spans[sr.spanIdx]
		x0, x1 := span.X0, span.X1
		if n := sr.end - sr.start; n > 0 {
			w := span.X1 - span.X0
			if start > sr.start {
				x0 = span.X0 + w*float64(start-sr.start)/float64(n)
			}
			if end < sr.end {
				x1 = span.X0 + w*float64(end-sr.start)/float64(n)
			}
		}
		if first {
			loc.x0, loc.y0, loc.x1, loc.y1 = x0, span.Y0, x1, span.Y1
			first = false
			continue
		}
		loc.x0 = min(loc.x0, x0)
		loc.y0 = min(loc.y0, span.Y0)
		loc.x1 = max(loc.x1, x1)
		loc.y1 = max(loc.y1, span.Y1)
	}
	return loc
}

// buildPageIndex joins the page's normalized span texts with single spaces,
// recording each span's offsets for the reverse mapping.
func buildPageIndex(pg models.PageGeometry) pageIndex {
	var b strings.Builder
	idx := pageIndex{}
	for i, span := range pg.Spans {
		ns := normalize(span.Text)
		if ns == "" {
			continue
		}
		if b.Len() > 0 {
			b.WriteString(" ")
		}
		start := b.Len()
		b.WriteString(ns)
		idx.spans = append(idx.spans, spanRange{start: start, end: b.Len(), spanIdx: i})
	}
	idx.norm = b.String()
	return idx
}

// normalize lowercases and collapses whitespace runs to single spaces, so
// line-wrap differences between extraction and reviewer quoting disappear.
func normalize(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}

// similarity is the normalized Levenshtein ratio in [0,1].
func similarity(a, b string) float64 {
	if a == b {
		return 1
	}
	longest := len(a)
	if len(b) > longest {
		longest = len(b)
	}
	if longest == 0 {
		return 1
	}
	dist := levenshtein.ComputeDistance(a, b)
	return 1 - float64(dist)/float64(longest)
}

func min(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}

func max(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}
