package layout

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// fixedMetrics charges one unit per character regardless of size or style.
type fixedMetrics struct{}

func (fixedMetrics) Width(text string, size float64, style Style) float64 {
	return float64(len([]rune(text)))
}

func TestWrapGreedyPacking(t *testing.T) {
	segments := Wrap("the quick brown fox", 10, BodySize, StyleRegular, fixedMetrics{})
	require.Equal(t, []string{"the quick", "brown fox"}, segments)
}

func TestWrapSingleWideWord(t *testing.T) {
	segments := Wrap("extravagant", 3, BodySize, StyleRegular, fixedMetrics{})
	require.Equal(t, []string{"extravagant"}, segments)
}

func TestWrapEmptyLine(t *testing.T) {
	require.Nil(t, Wrap("   ", 10, BodySize, StyleRegular, fixedMetrics{}))
}

func TestPaginateEmptyDocument(t *testing.T) {
	pages := Paginate(nil, DefaultOptions, fixedMetrics{})
	require.Len(t, pages, 1)
	require.Empty(t, pages[0].Runs)
	require.Empty(t, pages[0].Strokes)
}

func TestPaginateHeadingStylesAndBullets(t *testing.T) {
	lines := []string{
		"# RENT INVOICE",
		"## Billing Details",
		"**Amount Due: $500.00**",
		"- Water included",
		"plain text",
	}
	pages := Paginate(lines, DefaultOptions, fixedMetrics{})
	require.Len(t, pages, 1)
	runs := pages[0].Runs
	require.Len(t, runs, 5)

	require.Equal(t, "RENT INVOICE", runs[0].Text)
	require.Equal(t, StyleBold, runs[0].Style)
	require.Equal(t, 24.0, runs[0].Size)

	require.Equal(t, "Billing Details", runs[1].Text)
	require.Equal(t, StyleBold, runs[1].Style)
	require.Equal(t, 18.0, runs[1].Size)

	require.Equal(t, "Amount Due: $500.00", runs[2].Text)
	require.Equal(t, StyleBold, runs[2].Style)
	require.Equal(t, BodySize, runs[2].Size)

	require.Equal(t, "• Water included", runs[3].Text)
	require.Equal(t, StyleRegular, runs[3].Style)

	require.Equal(t, "plain text", runs[4].Text)
	require.Equal(t, StyleRegular, runs[4].Style)
}

func TestPaginateBlankLineAdvancesWithoutRun(t *testing.T) {
	pages := Paginate([]string{"one", "", "two"}, DefaultOptions, fixedMetrics{})
	require.Len(t, pages, 1)
	runs := pages[0].Runs
	require.Len(t, runs, 2)
	// one at top, then bodyLead plus blankLead of separation
	require.Equal(t, runs[0].Y-16-10, runs[1].Y)
}

func TestPaginateRuleSpansContentWidth(t *testing.T) {
	opts := Options{PageWidth: 200, PageHeight: 200, Margin: 20}
	pages := Paginate([]string{"---"}, opts, fixedMetrics{})
	require.Len(t, pages, 1)
	require.Len(t, pages[0].Strokes, 1)
	stroke := pages[0].Strokes[0]
	require.Equal(t, 20.0, stroke.X1)
	require.Equal(t, 180.0, stroke.X2)
	require.Equal(t, stroke.Y1, stroke.Y2)
}

func TestPaginatePageBreak(t *testing.T) {
	opts := Options{PageWidth: 100, PageHeight: 100, Margin: 10}
	lines := []string{"a", "b", "c", "d", "e", "f"}
	pages := Paginate(lines, opts, fixedMetrics{})
	require.Len(t, pages, 2)
	require.Len(t, pages[0].Runs, 5)
	require.Len(t, pages[1].Runs, 1)
	for _, page := range pages {
		for _, run := range page.Runs {
			require.GreaterOrEqual(t, run.Y, opts.Margin)
		}
	}
}

func TestPaginateWrappedSegmentsSharePage(t *testing.T) {
	opts := Options{PageWidth: 30, PageHeight: 500, Margin: 10}
	// content width 10 units with the fixed stub
	pages := Paginate([]string{"the quick brown fox"}, opts, fixedMetrics{})
	require.Len(t, pages, 1)
	runs := pages[0].Runs
	require.Len(t, runs, 2)
	require.Equal(t, "the quick", runs[0].Text)
	require.Equal(t, "brown fox", runs[1].Text)
	require.Greater(t, runs[0].Y, runs[1].Y)
}

func TestHelveticaMetrics(t *testing.T) {
	fm := HelveticaMetrics{}
	// H=722, i=222 at unit size 1000
	require.InDelta(t, 944.0, fm.Width("Hi", 1000, StyleRegular), 0.001)
	require.Greater(t, fm.Width("Invoice", 11, StyleBold), fm.Width("Invoice", 11, StyleRegular))
	require.Greater(t, fm.Width("• item", 11, StyleRegular), fm.Width("item", 11, StyleRegular))
}
