package memorial

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Rasterizer turns markup into a PDF. Relative asset references in the
// markup resolve against baseDir.
type Rasterizer interface {
	Rasterize(ctx context.Context, markup []byte, baseDir string) ([]byte, error)
}

// ChromeRasterizer prints markup to PDF with a headless Chrome driven over
// the DevTools protocol.
type ChromeRasterizer struct {
	cfg ChromeConfig
	log *zap.Logger
}

// NewChromeRasterizer returns a rasterizer that launches a fresh browser per
// call.
func NewChromeRasterizer(cfg ChromeConfig, log *zap.Logger) *ChromeRasterizer {
	if log == nil {
		log = zap.NewNop()
	}
	return &ChromeRasterizer{cfg: cfg, log: log}
}

// Rasterize writes the markup to a temporary file inside baseDir so the
// browser resolves relative references, prints it, and removes the file.
func (r *ChromeRasterizer) Rasterize(ctx context.Context, markup []byte, baseDir string) ([]byte, error) {
	if r.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.cfg.Timeout)
		defer cancel()
	}

	tmp := filepath.Join(baseDir, ".memorial-"+uuid.NewString()+".html")
	if err := os.WriteFile(tmp, markup, 0o644); err != nil {
		return nil, fmt.Errorf("%w: write markup: %v", ErrRender, err)
	}
	defer os.Remove(tmp)

	l := launcher.New().Headless(!r.cfg.ShowBrowser).Set("allow-file-access-from-files")
	if r.cfg.Bin != "" {
		l = l.Bin(r.cfg.Bin)
	}
	defer l.Cleanup()
	controlURL, err := l.Context(ctx).Launch()
	if err != nil {
		return nil, fmt.Errorf("%w: launch chrome: %v", ErrRender, err)
	}
	defer l.Kill()
	r.log.Debug("chrome launched", zap.String("control_url", controlURL))

	browser := rod.New().ControlURL(controlURL).Context(ctx)
	if err := browser.Connect(); err != nil {
		return nil, fmt.Errorf("%w: connect to chrome: %v", ErrRender, err)
	}
	defer browser.Close()

	page, err := browser.Page(proto.TargetCreateTarget{URL: fileURL(tmp)})
	if err != nil {
		return nil, fmt.Errorf("%w: open markup: %v", ErrRender, err)
	}
	if err := page.WaitLoad(); err != nil {
		return nil, fmt.Errorf("%w: load markup: %v", ErrRender, err)
	}

	stream, err := page.PDF(&proto.PagePrintToPDF{
		PrintBackground:   true,
		PreferCSSPageSize: true,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: print pdf: %v", ErrRender, err)
	}
	data, err := io.ReadAll(stream)
	if err != nil {
		return nil, fmt.Errorf("%w: read pdf: %v", ErrRender, err)
	}
	return data, nil
}

func fileURL(path string) string {
	abs, err := filepath.Abs(path)
	if err != nil {
		abs = path
	}
	u := url.URL{Scheme: "file", Path: filepath.ToSlash(abs)}
	return u.String()
}
