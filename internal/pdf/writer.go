// Package pdf encodes layout pages as a PDF 1.4 document using the base-14
// Helvetica faces. It emits exactly what the layout engine produced; there is
// no typesetting here.
package pdf

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/harborpm/harborpm/internal/layout"
)

const headerVersion = "%PDF-1.4"

// Encode renders pages into a complete PDF byte stream.
func Encode(pages []layout.Page, opts layout.Options) []byte {
	if len(pages) == 0 {
		pages = []layout.Page{{}}
	}

	w := &writer{}
	w.buf.WriteString(headerVersion + "\n")

	// Object layout: 1 catalog, 2 page tree, 3 regular font, 4 bold font,
	// then one page object and one content stream per page.
	pageCount := len(pages)
	kids := make([]string, 0, pageCount)
	for i := 0; i < pageCount; i++ {
		kids = append(kids, fmt.Sprintf("%d 0 R", 5+2*i))
	}

	w.object(1, "<< /Type /Catalog /Pages 2 0 R >>")
	w.object(2, fmt.Sprintf("<< /Type /Pages /Kids [%s] /Count %d >>", strings.Join(kids, " "), pageCount))
	w.object(3, "<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica /Encoding /WinAnsiEncoding >>")
	w.object(4, "<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica-Bold /Encoding /WinAnsiEncoding >>")

	for i, page := range pages {
		pageObj := 5 + 2*i
		contentObj := pageObj + 1
		w.object(pageObj, fmt.Sprintf(
			"<< /Type /Page /Parent 2 0 R /MediaBox [0 0 %s %s] /Resources << /Font << /F1 3 0 R /F2 4 0 R >> >> /Contents %d 0 R >>",
			num(opts.PageWidth), num(opts.PageHeight), contentObj))
		w.stream(contentObj, contentStream(page))
	}

	w.finish()
	return w.buf.Bytes()
}

func contentStream(page layout.Page) string {
	var b strings.Builder
	for _, run := range page.Runs {
		font := "/F1"
		if run.Style == layout.StyleBold {
			font = "/F2"
		}
		fmt.Fprintf(&b, "BT %s %s Tf %s %s Td (%s) Tj ET\n",
			font, num(run.Size), num(run.X), num(run.Y), escapeText(run.Text))
	}
	for _, stroke := range page.Strokes {
		fmt.Fprintf(&b, "0.7 w %s %s m %s %s l S\n",
			num(stroke.X1), num(stroke.Y1), num(stroke.X2), num(stroke.Y2))
	}
	return b.String()
}

// escapeText maps text into a WinAnsi string literal. Balanced parens and
// backslashes are escaped; the bullet glyph maps to its WinAnsi code point;
// anything else outside ASCII degrades to '?'.
func escapeText(text string) string {
	var b strings.Builder
	for _, r := range text {
		switch {
		case r == '(' || r == ')' || r == '\\':
			b.WriteByte('\\')
			b.WriteRune(r)
		case r == '•':
			b.WriteString("\\225")
		case r >= 32 && r <= 126:
			b.WriteRune(r)
		default:
			b.WriteByte('?')
		}
	}
	return b.String()
}

func num(v float64) string {
	s := fmt.Sprintf("%.2f", v)
	s = strings.TrimRight(s, "0")
	return strings.TrimRight(s, ".")
}

type writer struct {
	buf     bytes.Buffer
	offsets []int
}

func (w *writer) object(id int, body string) {
	w.markOffset(id)
	fmt.Fprintf(&w.buf, "%d 0 obj\n%s\nendobj\n", id, body)
}

func (w *writer) stream(id int, content string) {
	w.markOffset(id)
	fmt.Fprintf(&w.buf, "%d 0 obj\n<< /Length %d >>\nstream\n%sendstream\nendobj\n", id, len(content), content)
}

func (w *writer) markOffset(id int) {
	for len(w.offsets) <= id {
		w.offsets = append(w.offsets, 0)
	}
	w.offsets[id] = w.buf.Len()
}

func (w *writer) finish() {
	xrefStart := w.buf.Len()
	count := len(w.offsets)
	fmt.Fprintf(&w.buf, "xref\n0 %d\n", count)
	w.buf.WriteString("0000000000 65535 f \n")
	for _, off := range w.offsets[1:] {
		fmt.Fprintf(&w.buf, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&w.buf, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n", count, xrefStart)
}
