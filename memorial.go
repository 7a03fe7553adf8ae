// Package memorial composes memorial books from a JSON dataset: a cover for
// the person remembered, and tribute comments paginated across background
// styled pages, printed to PDF.
//
// Validation (ValidateFile) and rendering (Composer) are independent passes
// over the same dataset. Callers validate first; rendering assumes a valid
// dataset.
package memorial

import (
	"context"
	"fmt"
	"html/template"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/eringen/memorial/richtext"
)

// Composer renders datasets into PDF books.
type Composer struct {
	Config Config

	tmpl       *template.Template
	rasterizer Rasterizer
	history    *HistoryStore
	log        *zap.Logger
}

// Result describes a finished render.
type Result struct {
	RunID     string // empty when no history is recorded
	Pages     []Page
	Output    string
	DebugHTML string // empty unless Config.DebugHTML is set
	Size      int    // PDF size in bytes
}

// New creates a Composer for cfg. The book template is parsed once here.
func New(cfg Config, opts ...Option) (*Composer, error) {
	cfg.setDefaults()

	c := &Composer{Config: cfg}
	for _, opt := range opts {
		opt(c)
	}
	if c.log == nil {
		c.log = zap.NewNop()
	}
	if c.rasterizer == nil {
		c.rasterizer = NewChromeRasterizer(cfg.Chrome, c.log.Named("chrome"))
	}

	tmpl, err := ParseTemplate(cfg.Template)
	if err != nil {
		return nil, err
	}
	c.tmpl = tmpl
	return c, nil
}

// Context builds the render context for ds, downscaling images first when
// Config.OptimizeImages is set.
func (c *Composer) Context(ds *Dataset) RenderContext {
	rc := BuildContext(ds, c.Config)
	if c.Config.OptimizeImages {
		newAssetOptimizer(ds.BaseDir, c.Config, c.log).apply(&rc)
	}
	return rc
}

// Markup renders the book for ds as HTML.
func (c *Composer) Markup(ctx context.Context, ds *Dataset) ([]byte, RenderContext, error) {
	rc := c.Context(ds)
	markup, err := RenderMarkup(ctx, c.tmpl, rc)
	return markup, rc, err
}

// OutputPath returns the configured output path, or the default for ds.
func (c *Composer) OutputPath(ds *Dataset) string {
	if c.Config.Output != "" {
		return c.Config.Output
	}
	return DefaultOutputPath(ds)
}

// Render composes ds and writes the PDF. When a history store is set the run
// is recorded whatever its outcome.
func (c *Composer) Render(ctx context.Context, ds *Dataset) (res *Result, err error) {
	res = &Result{Output: c.OutputPath(ds)}

	if c.history != nil {
		run, herr := c.history.StartRun(ds.Path)
		if herr != nil {
			return nil, fmt.Errorf("memorial: record run: %w", herr)
		}
		res.RunID = run.ID
		defer func() {
			run.Output = res.Output
			run.Pages = len(res.Pages)
			run.Comments = len(ds.Comments)
			if _, herr := c.history.FinishRun(run, err); herr != nil {
				c.log.Warn("failed to record run", zap.String("run", run.ID), zap.Error(herr))
			}
		}()
	}

	markup, rc, err := c.Markup(ctx, ds)
	if err != nil {
		return res, err
	}
	res.Pages = rc.Pages
	c.logPages(rc.Pages)

	if dir := filepath.Dir(res.Output); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return res, fmt.Errorf("memorial: create output dir: %w", err)
		}
	}

	if c.Config.DebugHTML {
		res.DebugHTML = DebugHTMLPath(res.Output)
		if err := os.WriteFile(res.DebugHTML, markup, 0o644); err != nil {
			return res, fmt.Errorf("memorial: write debug html: %w", err)
		}
		c.log.Info("debug html written", zap.String("path", res.DebugHTML))
	}

	pdf, err := c.rasterizer.Rasterize(ctx, markup, ds.BaseDir)
	if err != nil {
		return res, err
	}
	if err := os.WriteFile(res.Output, pdf, 0o644); err != nil {
		return res, fmt.Errorf("memorial: write pdf: %w", err)
	}
	res.Size = len(pdf)
	c.log.Info("book written", zap.String("path", res.Output), zap.Int("bytes", res.Size))
	return res, nil
}

func (c *Composer) logPages(pages []Page) {
	c.log.Info("pages generated", zap.Int("pages", len(pages)))
	for i, p := range pages {
		authors := make([]string, len(p))
		for j, cm := range p {
			authors[j] = cm.Author
		}
		c.log.Info("page",
			zap.Int("page", i+1),
			zap.Int("comments", len(p)),
			zap.Float64("weight", PageWeight(p)),
			zap.String("authors", strings.Join(authors, ", ")))
		for _, cm := range p {
			c.log.Debug("comment",
				zap.Int("page", i+1),
				zap.String("author", cm.Author),
				zap.Float64("weight", Weight(cm)),
				zap.String("excerpt", excerpt(richtext.Plain(cm.Message), excerptLen)))
		}
	}
}

const excerptLen = 60

// excerpt collapses whitespace in s and cuts it to n runes, marking the cut
// with an ellipsis.
func excerpt(s string, n int) string {
	s = strings.Join(strings.Fields(s), " ")
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "…"
}

// Template returns the parsed book template.
func (c *Composer) Template() *template.Template {
	return c.tmpl
}
