// Package render composes the human-readable invoice summary: a deterministic
// paginated layout model built by a cursor accumulator, drawn to PDF as a
// separate step. Pagination is decided entirely by the accumulator, never by
// the drawing surface, which keeps it unit-testable without producing a
// single PDF byte.
package render

// Style selects the typography of a positioned text element.
type Style int

const (
	StyleTitle Style = iota
	StyleBanner
	StyleLabel
	StyleValue
	StyleBody
)

// lineHeight returns the vertical advance, in points, consumed by a line of
// the given style.
func lineHeight(s Style) float64 {
	switch s {
	case StyleTitle:
		return 24
	case StyleBanner:
		return 18
	case StyleLabel, StyleValue:
		return 13
	default:
		return 11
	}
}

// Element is one positioned text run. Y is the baseline assigned by the
// layout cursor.
type Element struct {
	X     float64
	Y     float64
	Style Style
	Text  string
}

// Page holds the elements of one fixed-size page in emission order.
type Page struct {
	Elements []Element
}

// Summary is the rendered summary document: an ordered sequence of pages.
type Summary struct {
	Pages []Page
}

// A4 geometry in points, matching the drawing surface.
const (
	pageHeight   = 842.0
	topMargin    = 56.0
	bottomMargin = 40.0

	marginLeft  = 50.0
	valueColumn = 180.0
)

// Layout is the cursor accumulator that builds a Summary. Emit is its sole
// content mutator: it places one line of elements at the running cursor and
// starts a new page first whenever the line would fall below the bottom
// margin.
type Layout struct {
	pageHeight   float64
	topMargin    float64
	bottomMargin float64

	pages []Page
	y     float64
}

// NewLayout creates a Layout with the standard page geometry and an open
// first page.
func NewLayout() *Layout {
	return newLayout(pageHeight, topMargin, bottomMargin)
}

func newLayout(height, top, bottom float64) *Layout {
	return &Layout{
		pageHeight:   height,
		topMargin:    top,
		bottomMargin: bottom,
		pages:        []Page{{}},
		y:            top,
	}
}

// Emit places the given elements on one shared baseline at the current
// cursor and advances the cursor by the tallest element's line height. When
// the baseline would pass below the bottom margin, a new page is started and
// the line lands at the top of it.
func (l *Layout) Emit(els ...Element) {
	if len(els) == 0 {
		return
	}

	h := lineHeight(els[0].Style)
	for _, el := range els[1:] {
		if lh := lineHeight(el.Style); lh > h {
			h = lh
		}
	}

	if l.y+h > l.pageHeight-l.bottomMargin {
		l.NewPage()
	}

	baseline := l.y + h
	page := &l.pages[len(l.pages)-1]
	for _, el := range els {
		el.Y = baseline
		page.Elements = append(page.Elements, el)
	}
	l.y = baseline
}

// Advance moves the cursor down by dy without emitting anything. Used for
// inter-section spacing; a following Emit still triggers the page break if
// the spacing pushed the cursor past the margin.
func (l *Layout) Advance(dy float64) {
	l.y += dy
}

// NewPage closes the current page and opens a fresh one with the cursor at
// the top margin.
func (l *Layout) NewPage() {
	l.pages = append(l.pages, Page{})
	l.y = l.topMargin
}

// Result returns the accumulated Summary.
func (l *Layout) Result() *Summary {
	return &Summary{Pages: l.pages}
}
