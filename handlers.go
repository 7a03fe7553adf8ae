package memorial

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/a-h/templ"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// ReportResponse is the JSON body of GET /report.
type ReportResponse struct {
	OK       bool     `json:"ok"`
	Path     string   `json:"path,omitempty"`
	Error    string   `json:"error,omitempty"`
	Passed   []string `json:"passed"`
	Warnings []string `json:"warnings"`
}

// loadValid loads the dataset after validating it. The returned error is
// either a load error or a validation error.
func (p *Previewer) loadValid() (*Dataset, error) {
	if _, err := ValidateFile(p.datasetPath); err != nil {
		return nil, err
	}
	return LoadDataset(p.datasetPath)
}

func (p *Previewer) handleBook(c echo.Context) error {
	ds, err := p.loadValid()
	if err != nil {
		return RenderStatus(c, http.StatusUnprocessableEntity, problemPage(err))
	}
	rc := p.composer.Context(ds)
	return Render(c, Book(p.composer.Template(), rc))
}

func (p *Previewer) handlePDF(c echo.Context) error {
	ds, err := p.loadValid()
	if err != nil {
		return RenderStatus(c, http.StatusUnprocessableEntity, problemPage(err))
	}
	info, err := os.Stat(p.datasetPath)
	if err != nil {
		return err
	}
	ctx := c.Request().Context()
	pdf, err := p.pdfCache.Get(info.ModTime(), func() ([]byte, error) {
		markup, _, err := p.composer.Markup(ctx, ds)
		if err != nil {
			return nil, err
		}
		return p.composer.rasterizer.Rasterize(ctx, markup, ds.BaseDir)
	})
	if err != nil {
		return err
	}
	c.Response().Header().Set("Content-Disposition", fmt.Sprintf("inline; filename=%q", "book.pdf"))
	return c.Blob(http.StatusOK, "application/pdf", pdf)
}

func (p *Previewer) handleReport(c echo.Context) error {
	report, err := ValidateFile(p.datasetPath)
	resp := ReportResponse{
		OK:       err == nil,
		Passed:   append([]string{}, report.Passed...),
		Warnings: append([]string{}, report.Warnings...),
	}
	if err != nil {
		resp.Error = err.Error()
		var ve *ValidationError
		if errors.As(err, &ve) {
			resp.Path = ve.Path
		}
	}
	return c.JSON(http.StatusOK, resp)
}

func (p *Previewer) handleLoginForm(c echo.Context) error {
	if IsAuthenticated(c) {
		return c.Redirect(http.StatusSeeOther, "/")
	}
	return Render(c, loginPage(false, CsrfToken(c)))
}

func (p *Previewer) handleLogin(c echo.Context) error {
	ip := c.RealIP()
	if !p.loginLimiter.Check(ip) {
		return c.String(http.StatusTooManyRequests, "Too many login attempts. Try again later.")
	}
	pass := c.FormValue("password")
	if p.checkPassword(pass) {
		if err := setSession(c); err != nil {
			return err
		}
		return c.Redirect(http.StatusSeeOther, "/")
	}
	p.loginLimiter.Record(ip)
	p.log.Warn("failed preview login", zap.String("ip", ip))
	return RenderStatus(c, http.StatusUnauthorized, loginPage(true, CsrfToken(c)))
}

func (p *Previewer) handleLogout(c echo.Context) error {
	if err := clearSession(c); err != nil {
		return err
	}
	return c.Redirect(http.StatusSeeOther, "/login/")
}

func (p *Previewer) httpErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}
	var he *echo.HTTPError
	if errors.As(err, &he) && he.Code < http.StatusInternalServerError {
		p.Echo.DefaultHTTPErrorHandler(err, c)
		return
	}
	p.log.Error("preview error", zap.String("uri", c.Request().RequestURI), zap.Error(err))
	_ = RenderStatus(c, http.StatusInternalServerError, problemPage(err))
}

const pageHead = `<!DOCTYPE html><html lang="en"><head><meta charset="utf-8"><title>Memorial preview</title>` +
	`<style>body{font-family:Georgia,serif;max-width:36rem;margin:4rem auto;color:#2b2b2b}code{background:#f3f0ea;padding:.1rem .3rem}</style></head><body>`

// problemPage explains why the book cannot be shown.
func problemPage(err error) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		title := "The book could not be rendered"
		var ve *ValidationError
		switch {
		case errors.As(err, &ve):
			title = "The dataset is invalid"
		case errors.Is(err, ErrLoad):
			title = "The dataset could not be loaded"
		}
		_, werr := fmt.Fprintf(w, `%s<h1>%s</h1><p><code>%s</code></p></body></html>`,
			pageHead, templ.EscapeString(title), templ.EscapeString(err.Error()))
		return werr
	})
}

func loginPage(showError bool, csrfToken string) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		msg := ""
		if showError {
			msg = `<p role="alert">Wrong password.</p>`
		}
		_, err := fmt.Fprintf(w, `%s<h1>Memorial preview</h1>%s`+
			`<form method="post" action="/login/"><input type="hidden" name="_csrf" value="%s">`+
			`<label>Password <input type="password" name="password" autofocus></label> <button type="submit">Open</button></form></body></html>`,
			pageHead, msg, templ.EscapeString(csrfToken))
		return err
	})
}
