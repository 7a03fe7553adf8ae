package memorial

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

// writeValidDataset writes the valid test document and its images to a new
// directory and returns the dataset path.
func writeValidDataset(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	for _, name := range []string{"me.jpg", "cover.jpg", "page.jpg", "friend.png"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("x"), 0o644))
	}
	raw, err := json.Marshal(validDoc())
	require.NoError(t, err)
	path := filepath.Join(dir, "data.json")
	require.NoError(t, os.WriteFile(path, raw, 0o644))
	return path
}

func setupTestPreviewer(t *testing.T, cfg Config, datasetPath string) *Previewer {
	t.Helper()
	c, err := New(cfg, WithRasterizer(&fakeRasterizer{}))
	require.NoError(t, err)
	p, err := NewPreviewer(c, datasetPath)
	require.NoError(t, err)
	t.Cleanup(func() { p.Close() })
	return p
}

func serve(p *Previewer, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	p.Echo.ServeHTTP(rec, req)
	return rec
}

func withCookies(req *http.Request, cookies []*http.Cookie) *http.Request {
	for _, c := range cookies {
		req.AddCookie(c)
	}
	return req
}

func TestPreviewBook(t *testing.T) {
	p := setupTestPreviewer(t, Config{}, writeValidDataset(t))

	rec := serve(p, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get(echo.HeaderContentType), "text/html")
	assert.Equal(t, "no-store", rec.Header().Get("Cache-Control"))
	assert.Contains(t, rec.Body.String(), "<h1>Ada Lovelace</h1>")
	assert.Contains(t, rec.Body.String(), "A brilliant mind.")
}

func TestPreviewPDF(t *testing.T) {
	p := setupTestPreviewer(t, Config{}, writeValidDataset(t))

	rec := serve(p, httptest.NewRequest(http.MethodGet, "/book.pdf", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/pdf", rec.Header().Get(echo.HeaderContentType))
	assert.Equal(t, "%PDF-1.4 fake", rec.Body.String())

	raster := p.composer.rasterizer.(*fakeRasterizer)
	serve(p, httptest.NewRequest(http.MethodGet, "/book.pdf", nil))
	assert.Equal(t, 1, raster.calls)

	p.onDatasetChange(&Report{}, nil)
	serve(p, httptest.NewRequest(http.MethodGet, "/book.pdf", nil))
	assert.Equal(t, 2, raster.calls)
}

func TestPreviewStaticAssets(t *testing.T) {
	p := setupTestPreviewer(t, Config{}, writeValidDataset(t))

	rec := serve(p, httptest.NewRequest(http.MethodGet, "/cover.jpg", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "x", rec.Body.String())

	rec = serve(p, httptest.NewRequest(http.MethodGet, "/nothing.jpg", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestPreviewReport(t *testing.T) {
	path := writeValidDataset(t)
	p := setupTestPreviewer(t, Config{}, path)

	rec := serve(p, httptest.NewRequest(http.MethodGet, "/report", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var resp ReportResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.OK)
	assert.Len(t, resp.Passed, 4)
	assert.Empty(t, resp.Warnings)

	doc := validDoc()
	doc["comments"].([]any)[0].(map[string]any)["height"] = "tall"
	raw, err := json.Marshal(doc)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, raw, 0o644))

	rec = serve(p, httptest.NewRequest(http.MethodGet, "/report", nil))
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.False(t, resp.OK)
	assert.Equal(t, "comments[0].height", resp.Path)
	assert.Contains(t, resp.Error, "Got: 'tall'")
	assert.Len(t, resp.Passed, 3)
}

func TestPreviewInvalidDataset(t *testing.T) {
	path := writeValidDataset(t)
	require.NoError(t, os.WriteFile(path, []byte(`{"person": {}}`), 0o644))
	p := setupTestPreviewer(t, Config{}, path)

	rec := serve(p, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, rec.Body.String(), "The dataset is invalid")
	assert.Contains(t, rec.Body.String(), "Missing required field in person: &#39;name&#39;")

	rec = serve(p, httptest.NewRequest(http.MethodGet, "/book.pdf", nil))
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	require.NoError(t, os.WriteFile(path, []byte(`{`), 0o644))
	rec = serve(p, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, rec.Body.String(), "The dataset could not be loaded")
}

var csrfField = regexp.MustCompile(`name="_csrf" value="([^"]+)"`)

func TestPreviewLoginFlow(t *testing.T) {
	cfg := Config{}
	cfg.Preview.Password = "s3cret"
	p := setupTestPreviewer(t, cfg, writeValidDataset(t))

	rec := serve(p, httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/login/", rec.Header().Get("Location"))

	rec = serve(p, httptest.NewRequest(http.MethodGet, "/report", nil))
	assert.Equal(t, http.StatusSeeOther, rec.Code)

	rec = serve(p, httptest.NewRequest(http.MethodGet, "/login/", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	m := csrfField.FindStringSubmatch(rec.Body.String())
	require.Len(t, m, 2)
	token := m[1]
	cookies := rec.Result().Cookies()

	login := func(password, csrf string) *httptest.ResponseRecorder {
		form := url.Values{"password": {password}, "_csrf": {csrf}}
		req := httptest.NewRequest(http.MethodPost, "/login/", strings.NewReader(form.Encode()))
		req.Header.Set(echo.HeaderContentType, "application/x-www-form-urlencoded")
		return serve(p, withCookies(req, cookies))
	}

	rec = login("s3cret", "forged")
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = login("wrong", token)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "Wrong password.")

	rec = login("s3cret", token)
	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/", rec.Header().Get("Location"))
	session := rec.Result().Cookies()
	require.NotEmpty(t, session)

	rec = serve(p, withCookies(httptest.NewRequest(http.MethodGet, "/", nil), session))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Ada Lovelace")

	rec = serve(p, withCookies(httptest.NewRequest(http.MethodGet, "/login/", nil), session))
	assert.Equal(t, http.StatusSeeOther, rec.Code)
}

func TestPreviewLoginRateLimited(t *testing.T) {
	cfg := Config{}
	cfg.Preview.Password = "s3cret"
	p := setupTestPreviewer(t, cfg, writeValidDataset(t))

	rec := serve(p, httptest.NewRequest(http.MethodGet, "/login/", nil))
	token := csrfField.FindStringSubmatch(rec.Body.String())[1]
	cookies := rec.Result().Cookies()

	var codes []int
	for i := 0; i < 6; i++ {
		form := url.Values{"password": {"guess"}, "_csrf": {token}}
		req := httptest.NewRequest(http.MethodPost, "/login/", strings.NewReader(form.Encode()))
		req.Header.Set(echo.HeaderContentType, "application/x-www-form-urlencoded")
		codes = append(codes, serve(p, withCookies(req, cookies)).Code)
	}
	assert.Equal(t, []int{401, 401, 401, 401, 401, 429}, codes)
}

func TestPreviewStartStops(t *testing.T) {
	cfg := Config{}
	cfg.Preview.Addr = "127.0.0.1:0"
	p := setupTestPreviewer(t, cfg, writeValidDataset(t))

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()
	assert.NoError(t, p.Start(ctx))
	assert.NotNil(t, p.watcher)
}

func TestPreviewLoginWithPasswordHash(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("hashed"), bcrypt.MinCost)
	require.NoError(t, err)
	cfg := Config{}
	cfg.Preview.PasswordHash = string(hash)
	p := setupTestPreviewer(t, cfg, writeValidDataset(t))
	require.True(t, p.gated())
	require.NotEmpty(t, p.Config.Preview.SessionSecret)

	assert.True(t, p.checkPassword("hashed"))
	assert.False(t, p.checkPassword("plain"))
	assert.False(t, p.checkPassword(""))
}
