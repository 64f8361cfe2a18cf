// Package artifacts persists the rendered invoice documents. Generation is
// presence-triggered: an artifact is written only when its file is missing,
// never because content changed.
package artifacts

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/sync/singleflight"

	"github.com/harborpm/harborpm/internal/layout"
	"github.com/harborpm/harborpm/internal/pdf"
)

// Result reports the resolved artifact paths and whether this call rendered.
type Result struct {
	MarkdownPath string
	PDFPath      string
	Rendered     bool
}

// Store owns the artifact directory tree. Concurrent Ensure calls for the
// same invoice collapse into a single render.
type Store struct {
	root   string
	logger *slog.Logger
	fm     layout.FontMetrics
	opts   layout.Options
	group  singleflight.Group
}

// NewStore constructs a store rooted at dir.
func NewStore(dir string, logger *slog.Logger) *Store {
	return &Store{
		root:   dir,
		logger: logger,
		fm:     layout.HelveticaMetrics{},
		opts:   layout.DefaultOptions,
	}
}

// Sanitize replaces every character outside [A-Za-z0-9-_] with an underscore.
func Sanitize(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	return b.String()
}

// Paths resolves the artifact pair for a billing period and invoice number.
// The resolution is pure; nothing is touched on disk.
func (s *Store) Paths(year int, month, number string) (markdownPath, pdfPath string) {
	dir := filepath.Join(s.root, "invoices", fmt.Sprintf("%d-%s", year, Sanitize(month)))
	name := Sanitize(number)
	return filepath.Join(dir, name+".md"), filepath.Join(dir, name+".pdf")
}

// Ensure guarantees both artifacts exist, rendering only what is missing.
// The markdown file is written when absent; the PDF is re-rendered when
// either file was absent, so a deleted PDF is regenerated even if the
// markdown survived.
func (s *Store) Ensure(year int, month, number, markdown string) (Result, error) {
	v, err, _ := s.group.Do(Sanitize(number), func() (any, error) {
		return s.ensure(year, month, number, markdown)
	})
	if err != nil {
		return Result{}, err
	}
	return v.(Result), nil
}

func (s *Store) ensure(year int, month, number, markdown string) (Result, error) {
	mdPath, pdfPath := s.Paths(year, month, number)
	if err := os.MkdirAll(filepath.Dir(mdPath), 0o755); err != nil {
		return Result{}, fmt.Errorf("artifacts: create dir: %w", err)
	}

	mdMissing := !exists(mdPath)
	pdfMissing := !exists(pdfPath)
	res := Result{MarkdownPath: mdPath, PDFPath: pdfPath}
	if !mdMissing && !pdfMissing {
		return res, nil
	}

	if mdMissing {
		if err := os.WriteFile(mdPath, []byte(markdown), 0o644); err != nil {
			return Result{}, fmt.Errorf("artifacts: write markdown: %w", err)
		}
	}

	pages := layout.Paginate(strings.Split(markdown, "\n"), s.opts, s.fm)
	if err := os.WriteFile(pdfPath, pdf.Encode(pages, s.opts), 0o644); err != nil {
		return Result{}, fmt.Errorf("artifacts: write pdf: %w", err)
	}

	s.logger.Info("artifacts rendered",
		slog.String("number", number),
		slog.Int("pages", len(pages)),
		slog.Bool("markdown_written", mdMissing))
	res.Rendered = true
	return res, nil
}

// Remove deletes both artifacts best-effort. Filesystem errors are logged
// and swallowed so the logical record can still be removed.
func (s *Store) Remove(year int, month, number string) {
	mdPath, pdfPath := s.Paths(year, month, number)
	for _, path := range []string{mdPath, pdfPath} {
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			s.logger.Warn("remove artifact", slog.String("path", path), slog.Any("error", err))
		}
	}
}

// Read returns the raw bytes of a previously resolved artifact path.
func (s *Store) Read(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("artifacts: read: %w", err)
	}
	return data, nil
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
