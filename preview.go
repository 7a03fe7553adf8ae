package memorial

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"net/http"
	"path/filepath"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// Previewer serves a dataset's book over HTTP for review before printing.
// Every request reloads the dataset, so edits show up on refresh.
type Previewer struct {
	Config Config
	Echo   *echo.Echo

	composer     *Composer
	datasetPath  string
	baseDir      string
	loginLimiter *LoginLimiter
	pdfCache     *PDFCache
	watcher      *DatasetWatcher
	log          *zap.Logger
}

// NewPreviewer wires middleware and routes for the dataset at datasetPath.
func NewPreviewer(c *Composer, datasetPath string) (*Previewer, error) {
	abs, err := filepath.Abs(datasetPath)
	if err != nil {
		return nil, fmt.Errorf("memorial: resolve dataset path: %w", err)
	}
	p := &Previewer{
		Config:       c.Config,
		Echo:         echo.New(),
		composer:     c,
		datasetPath:  abs,
		baseDir:      filepath.Dir(abs),
		loginLimiter: NewLoginLimiter(5, time.Minute),
		pdfCache:     NewPDFCache(5 * time.Minute),
		log:          c.log.Named("preview"),
	}
	p.Echo.HideBanner = true
	p.Echo.HidePort = true

	if p.gated() && p.Config.Preview.SessionSecret == "" {
		secret := make([]byte, 32)
		if _, err := rand.Read(secret); err != nil {
			return nil, fmt.Errorf("memorial: generate session secret: %w", err)
		}
		p.Config.Preview.SessionSecret = hex.EncodeToString(secret)
	}

	p.setupMiddleware()
	p.setupRoutes()
	return p, nil
}

func (p *Previewer) setupRoutes() {
	e := p.Echo
	e.GET("/", p.handleBook)
	e.GET("/book.pdf", p.handlePDF)
	e.GET("/report", p.handleReport)
	if p.gated() {
		e.GET("/login/", p.handleLoginForm)
		e.POST("/login/", p.handleLogin)
		e.POST("/logout/", p.handleLogout)
	}
	// Relative asset references in the markup resolve against the dataset
	// directory.
	e.Static("/", p.baseDir)
}

// Start serves until ctx is cancelled, then shuts the server down.
func (p *Previewer) Start(ctx context.Context) error {
	w, err := NewDatasetWatcher(p.datasetPath, p.onDatasetChange)
	if err != nil {
		p.log.Warn("dataset watcher disabled", zap.Error(err))
	} else {
		p.watcher = w
		w.Start()
	}

	errCh := make(chan error, 1)
	go func() {
		p.log.Info("preview listening", zap.String("addr", p.Config.Preview.Addr), zap.String("dataset", p.datasetPath))
		errCh <- p.Echo.Start(p.Config.Preview.Addr)
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return p.Echo.Shutdown(shutdownCtx)
}

func (p *Previewer) onDatasetChange(report *Report, err error) {
	p.pdfCache.Invalidate()
	if err != nil {
		p.log.Warn("dataset changed and is invalid", zap.Error(err))
		return
	}
	p.log.Info("dataset changed", zap.Int("comments", report.Comments), zap.Strings("warnings", report.Warnings))
}

// Close stops background work. Call it when the preview is shutting down.
func (p *Previewer) Close() error {
	if p.watcher != nil {
		p.watcher.Stop()
	}
	p.loginLimiter.Stop()
	return nil
}
