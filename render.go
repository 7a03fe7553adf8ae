package memorial

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"net/http"
	"path/filepath"

	"github.com/a-h/templ"
	"github.com/labstack/echo/v4"

	"github.com/eringen/memorial/richtext"
	"github.com/eringen/memorial/templates"
)

// RenderContext is the data handed to the book template.
type RenderContext struct {
	Person              Person
	BackgroundImage     BackgroundEntry // legacy top-level background, unresolved
	BackgroundCover     Background
	BackgroundPages     Background
	BackgroundPagesList []Background
	Pages               []Page
}

// PageBackground returns the background for comment page i: the matching
// pages_list entry when there is one, otherwise the pages background.
func (r RenderContext) PageBackground(i int) Background {
	if i >= 0 && i < len(r.BackgroundPagesList) {
		return r.BackgroundPagesList[i]
	}
	return r.BackgroundPages
}

// BuildContext resolves backgrounds and paginates comments for ds. The
// dataset is not modified.
func BuildContext(ds *Dataset, cfg Config) RenderContext {
	size, pos := cfg.BackgroundSize, cfg.BackgroundPosition
	return RenderContext{
		Person:              ds.Person,
		BackgroundImage:     ds.BackgroundImage,
		BackgroundCover:     ResolveBackground(ds.CoverEntry(), size, pos),
		BackgroundPages:     ResolveBackground(ds.PagesEntry(), size, pos),
		BackgroundPagesList: ResolvePagesList(ds.Backgrounds.PagesList, size, pos),
		Pages:               Paginate(ds.Comments, cfg.MaxPageWeight, cfg.MaxCommentsPerPage),
	}
}

var templateFuncs = template.FuncMap{
	"message": richtext.HTML,
	// the cover is page 1
	"folio": func(i int) int { return i + 2 },
}

// ParseTemplate parses the book template at path, or the bundled template
// when path is empty.
func ParseTemplate(path string) (*template.Template, error) {
	if path == "" {
		t, err := template.New(templates.Book).Funcs(templateFuncs).ParseFS(templates.Files, templates.Book)
		if err != nil {
			return nil, fmt.Errorf("memorial: parse bundled template: %w", err)
		}
		return t, nil
	}
	t, err := template.New(filepath.Base(path)).Funcs(templateFuncs).ParseFiles(path)
	if err != nil {
		return nil, fmt.Errorf("memorial: parse template %s: %w", path, err)
	}
	return t, nil
}

// Book returns a component rendering rc with t.
func Book(t *template.Template, rc RenderContext) templ.Component {
	return templ.FromGoHTML(t, rc)
}

// RenderMarkup renders rc with t into a byte slice.
func RenderMarkup(ctx context.Context, t *template.Template, rc RenderContext) ([]byte, error) {
	var buf bytes.Buffer
	if err := Book(t, rc).Render(ctx, &buf); err != nil {
		return nil, fmt.Errorf("%w: execute template: %v", ErrRender, err)
	}
	return buf.Bytes(), nil
}

// Render writes a templ component as an HTTP 200 HTML response.
func Render(c echo.Context, cmp templ.Component) error {
	return RenderStatus(c, http.StatusOK, cmp)
}

// RenderStatus writes a templ component with a specific HTTP status code.
func RenderStatus(c echo.Context, code int, cmp templ.Component) error {
	c.Response().Header().Set(echo.HeaderContentType, echo.MIMETextHTMLCharsetUTF8)
	c.Response().WriteHeader(code)
	return cmp.Render(c.Request().Context(), c.Response().Writer)
}
