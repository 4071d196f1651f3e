package render

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLayoutStartsWithOneOpenPage(t *testing.T) {
	l := NewLayout()
	s := l.Result()
	require.Len(t, s.Pages, 1)
	assert.Empty(t, s.Pages[0].Elements)
}

func TestEmitPlacesElementsOnSharedBaseline(t *testing.T) {
	l := NewLayout()
	l.Emit(
		Element{X: marginLeft, Style: StyleLabel, Text: "Access key:"},
		Element{X: valueColumn, Style: StyleValue, Text: "0102..."},
	)

	s := l.Result()
	require.Len(t, s.Pages[0].Elements, 2)
	assert.Equal(t, s.Pages[0].Elements[0].Y, s.Pages[0].Elements[1].Y)
	assert.Equal(t, topMargin+lineHeight(StyleLabel), s.Pages[0].Elements[0].Y)
}

func TestEmitAdvancesCursor(t *testing.T) {
	l := NewLayout()
	l.Emit(Element{Style: StyleBody, Text: "one"})
	l.Emit(Element{Style: StyleBody, Text: "two"})

	els := l.Result().Pages[0].Elements
	require.Len(t, els, 2)
	assert.Equal(t, lineHeight(StyleBody), els[1].Y-els[0].Y)
}

func TestEmitBreaksPageAtBottomMargin(t *testing.T) {
	// Tiny page: room for exactly two body lines (2*11 = 22 <= 30-6-2).
	l := newLayout(30, 2, 6)
	for i := 0; i < 3; i++ {
		l.Emit(Element{Style: StyleBody, Text: "line"})
	}

	s := l.Result()
	require.Len(t, s.Pages, 2)
	assert.Len(t, s.Pages[0].Elements, 2)
	assert.Len(t, s.Pages[1].Elements, 1)
	// The carried-over line lands at the top of the new page.
	assert.Equal(t, 2.0+lineHeight(StyleBody), s.Pages[1].Elements[0].Y)
}

func TestAdvanceTriggersBreakOnNextEmit(t *testing.T) {
	l := newLayout(100, 10, 10)
	l.Advance(200) // cursor now far past the bottom margin
	l.Emit(Element{Style: StyleBody, Text: "after gap"})

	s := l.Result()
	require.Len(t, s.Pages, 2)
	assert.Empty(t, s.Pages[0].Elements)
	assert.Len(t, s.Pages[1].Elements, 1)
}

func TestNewPageResetsCursor(t *testing.T) {
	l := NewLayout()
	l.Emit(Element{Style: StyleTitle, Text: "title"})
	l.NewPage()
	l.Emit(Element{Style: StyleBody, Text: "annex"})

	s := l.Result()
	require.Len(t, s.Pages, 2)
	assert.Equal(t, topMargin+lineHeight(StyleBody), s.Pages[1].Elements[0].Y)
}

func TestEmitNothingIsANoOp(t *testing.T) {
	l := NewLayout()
	l.Emit()
	assert.Empty(t, l.Result().Pages[0].Elements)
}

func TestEmitUsesTallestStyleForAdvance(t *testing.T) {
	l := NewLayout()
	l.Emit(
		Element{Style: StyleBody, Text: "small"},
		Element{Style: StyleBanner, Text: "tall"},
	)

	els := l.Result().Pages[0].Elements
	assert.Equal(t, topMargin+lineHeight(StyleBanner), els[0].Y)
}
