package layout

// Glyph widths for the base-14 Helvetica faces, in 1/1000 of the font size,
// taken from the Adobe AFM tables for characters 32..126. Keeping the tables
// here lets the engine measure text without font files.

var helveticaWidths = [95]int{
	278, 278, 355, 556, 556, 889, 667, 191, 333, 333,
	389, 584, 278, 333, 278, 278, 556, 556, 556, 556,
	556, 556, 556, 556, 556, 556, 278, 278, 584, 584,
	584, 556, 1015, 667, 667, 722, 722, 667, 611, 778,
	722, 278, 500, 667, 556, 833, 722, 778, 667, 778,
	722, 667, 611, 722, 667, 944, 667, 667, 611, 278,
	278, 278, 469, 556, 333, 556, 556, 500, 556, 556,
	278, 556, 556, 222, 222, 500, 222, 833, 556, 556,
	556, 556, 333, 500, 278, 556, 500, 722, 500, 500,
	500, 334, 260, 334, 584,
}

var helveticaBoldWidths = [95]int{
	278, 333, 474, 556, 556, 889, 722, 238, 333, 333,
	389, 584, 278, 333, 278, 278, 556, 556, 556, 556,
	556, 556, 556, 556, 556, 556, 333, 333, 584, 584,
	584, 611, 975, 722, 722, 722, 722, 667, 611, 778,
	722, 278, 556, 722, 611, 833, 722, 778, 667, 778,
	722, 667, 611, 722, 667, 944, 667, 667, 611, 333,
	278, 333, 584, 556, 333, 556, 611, 556, 611, 556,
	333, 611, 611, 278, 278, 556, 278, 889, 611, 611,
	611, 611, 389, 556, 333, 611, 556, 778, 556, 556,
	500, 389, 280, 389, 584,
}

const (
	bulletRune  = '•'
	bulletWidth = 350
	// Width charged for runes outside the tables.
	fallbackWidth = 556
)

// HelveticaMetrics measures text against the built-in width tables.
type HelveticaMetrics struct{}

// Width implements FontMetrics.
func (HelveticaMetrics) Width(text string, size float64, style Style) float64 {
	table := &helveticaWidths
	if style == StyleBold {
		table = &helveticaBoldWidths
	}
	total := 0
	for _, r := range text {
		switch {
		case r >= 32 && r <= 126:
			total += table[r-32]
		case r == bulletRune:
			total += bulletWidth
		default:
			total += fallbackWidth
		}
	}
	return float64(total) * size / 1000
}
