// Package layout converts structured invoice text into positioned pages.
// It is a pure function of its inputs: no I/O, no font files, no external
// typesetting engine.
package layout

import "strings"

// Style selects the font face of a run.
type Style int

const (
	// StyleRegular renders body text.
	StyleRegular Style = iota
	// StyleBold renders headings and emphasised lines.
	StyleBold
)

// FontMetrics reports the rendered width of a string for a style and size.
type FontMetrics interface {
	Width(text string, size float64, style Style) float64
}

// Run is a positioned piece of text. Coordinates use a bottom-left origin,
// matching PDF text space.
type Run struct {
	X     float64
	Y     float64
	Text  string
	Size  float64
	Style Style
}

// Stroke is a horizontal rule drawn across the content width.
type Stroke struct {
	X1, Y1 float64
	X2, Y2 float64
}

// Page holds the runs and strokes that fit between the margins.
type Page struct {
	Runs    []Run
	Strokes []Stroke
}

// Options fixes the page geometry.
type Options struct {
	PageWidth  float64
	PageHeight float64
	Margin     float64
}

// US Letter at 72 dpi with a one-inch margin.
var DefaultOptions = Options{PageWidth: 612, PageHeight: 792, Margin: 72}

// Spacing and size constants for each line kind.
const (
	BodySize = 11.0
	bodyLead = 16.0

	h1Size = 24.0
	h1Lead = 34.0

	h2Size = 18.0
	h2Lead = 28.0

	blankLead = 10.0
	ruleLead  = 18.0
)

const ruleMarker = "---"

type lineKind int

const (
	kindBody lineKind = iota
	kindH1
	kindH2
	kindBoldBody
	kindBlank
	kindRule
)

// classify inspects literal line prefixes only; this is not a markup parser.
func classify(line string) (lineKind, string) {
	switch {
	case strings.TrimSpace(line) == "":
		return kindBlank, ""
	case line == ruleMarker:
		return kindRule, ""
	case strings.HasPrefix(line, "# "):
		return kindH1, strings.TrimPrefix(line, "# ")
	case strings.HasPrefix(line, "## "):
		return kindH2, strings.TrimPrefix(line, "## ")
	case len(line) > 4 && strings.HasPrefix(line, "**") && strings.HasSuffix(line, "**"):
		return kindBoldBody, line[2 : len(line)-2]
	case strings.HasPrefix(line, "- "):
		return kindBody, "• " + strings.TrimPrefix(line, "- ")
	default:
		return kindBody, line
	}
}

func (k lineKind) style() Style {
	switch k {
	case kindH1, kindH2, kindBoldBody:
		return StyleBold
	default:
		return StyleRegular
	}
}

func (k lineKind) size() float64 {
	switch k {
	case kindH1:
		return h1Size
	case kindH2:
		return h2Size
	default:
		return BodySize
	}
}

func (k lineKind) lead() float64 {
	switch k {
	case kindH1:
		return h1Lead
	case kindH2:
		return h2Lead
	default:
		return bodyLead
	}
}

type paginator struct {
	opts  Options
	fm    FontMetrics
	pages []Page
	y     float64
}

// Paginate lays the document out top to bottom into fixed-size pages.
// An empty document yields a single empty page.
func Paginate(lines []string, opts Options, fm FontMetrics) []Page {
	p := &paginator{opts: opts, fm: fm}
	p.newPage()

	contentWidth := opts.PageWidth - 2*opts.Margin
	for _, raw := range lines {
		kind, text := classify(raw)
		switch kind {
		case kindBlank:
			p.y -= blankLead
		case kindRule:
			p.emitRule()
		default:
			for _, segment := range Wrap(text, contentWidth, kind.size(), kind.style(), fm) {
				p.emitRun(segment, kind)
			}
		}
	}
	return p.pages
}

func (p *paginator) newPage() {
	p.pages = append(p.pages, Page{})
	p.y = p.opts.PageHeight - p.opts.Margin
}

func (p *paginator) current() *Page {
	return &p.pages[len(p.pages)-1]
}

func (p *paginator) emitRun(text string, kind lineKind) {
	lead := kind.lead()
	if p.y-lead < p.opts.Margin {
		p.newPage()
	}
	page := p.current()
	page.Runs = append(page.Runs, Run{
		X:     p.opts.Margin,
		Y:     p.y,
		Text:  text,
		Size:  kind.size(),
		Style: kind.style(),
	})
	p.y -= lead
}

func (p *paginator) emitRule() {
	if p.y-ruleLead < p.opts.Margin {
		p.newPage()
	}
	page := p.current()
	page.Strokes = append(page.Strokes, Stroke{
		X1: p.opts.Margin,
		Y1: p.y,
		X2: p.opts.PageWidth - p.opts.Margin,
		Y2: p.y,
	})
	p.y -= ruleLead
}

// Wrap packs words greedily so the measured width never exceeds maxWidth.
// A single word wider than maxWidth is still emitted on its own line.
func Wrap(text string, maxWidth, size float64, style Style, fm FontMetrics) []string {
	words := strings.Fields(text)
	if len(words) == 0 {
		return nil
	}
	var segments []string
	current := words[0]
	for _, word := range words[1:] {
		candidate := current + " " + word
		if fm.Width(candidate, size, style) > maxWidth {
			segments = append(segments, current)
			current = word
			continue
		}
		current = candidate
	}
	return append(segments, current)
}
