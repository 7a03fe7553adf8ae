package memorial

import (
	"crypto/subtle"
	"net/http"
	"path"
	"strings"

	"github.com/gorilla/sessions"
	"github.com/labstack/echo-contrib/session"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

const sessionName = "preview_session"

// gated reports whether the preview requires a password.
func (p *Previewer) gated() bool {
	return p.Config.Preview.Password != "" || p.Config.Preview.PasswordHash != ""
}

// checkPassword compares pass against the configured bcrypt hash, or the
// plain password when no hash is set.
func (p *Previewer) checkPassword(pass string) bool {
	if hash := p.Config.Preview.PasswordHash; hash != "" {
		return bcrypt.CompareHashAndPassword([]byte(hash), []byte(pass)) == nil
	}
	return subtle.ConstantTimeCompare([]byte(pass), []byte(p.Config.Preview.Password)) == 1
}

func (p *Previewer) setupMiddleware() {
	e := p.Echo

	e.IPExtractor = echo.ExtractIPFromXFFHeader(
		echo.TrustLoopback(true),
		echo.TrustLinkLocal(false),
		echo.TrustPrivateNet(true),
	)

	e.HTTPErrorHandler = p.httpErrorHandler

	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogStatus:  true,
		LogURI:     true,
		LogMethod:  true,
		LogLatency: true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			p.log.Info("request",
				zap.String("method", v.Method),
				zap.String("uri", v.URI),
				zap.Int("status", v.Status),
				zap.Duration("latency", v.Latency))
			return nil
		},
	}))

	e.Use(middleware.Recover())

	e.Use(middleware.SecureWithConfig(middleware.SecureConfig{
		XSSProtection:         "1; mode=block",
		ContentTypeNosniff:    "nosniff",
		XFrameOptions:         "SAMEORIGIN",
		ReferrerPolicy:        "same-origin",
		ContentSecurityPolicy: "default-src 'self'; style-src 'self' 'unsafe-inline'; img-src 'self' data:; font-src 'self' data:",
	}))

	if p.gated() {
		e.Use(session.Middleware(p.newSessionStore()))

		e.Use(middleware.CSRFWithConfig(middleware.CSRFConfig{
			ContextKey:     middleware.DefaultCSRFConfig.ContextKey,
			TokenLookup:    "form:_csrf",
			CookieName:     "_csrf",
			CookiePath:     "/",
			CookieSameSite: http.SameSiteLaxMode,
			CookieSecure:   p.Config.Preview.CookieSecure,
			ErrorHandler: func(err error, c echo.Context) error {
				return c.String(http.StatusForbidden, "Forbidden")
			},
		}))

		e.Use(p.requireLogin)
	}

	e.Use(middleware.AddTrailingSlashWithConfig(middleware.TrailingSlashConfig{
		RedirectCode: http.StatusMovedPermanently,
		Skipper: func(c echo.Context) bool {
			reqPath := c.Request().URL.Path
			return reqPath == "/" || reqPath == "/report" || path.Ext(reqPath) != ""
		},
	}))

	e.Use(noStore)
}

// noStore keeps browsers from caching a book that changes on every edit.
func noStore(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		c.Response().Header().Set("Cache-Control", "no-store")
		return next(c)
	}
}

// requireLogin redirects unauthenticated requests to the login form.
func (p *Previewer) requireLogin(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if strings.HasPrefix(c.Request().URL.Path, "/login") || IsAuthenticated(c) {
			return next(c)
		}
		return c.Redirect(http.StatusSeeOther, "/login/")
	}
}

func (p *Previewer) newSessionStore() *sessions.CookieStore {
	store := sessions.NewCookieStore([]byte(p.Config.Preview.SessionSecret))
	store.Options = &sessions.Options{
		Path:     "/",
		HttpOnly: true,
		MaxAge:   60 * 60 * 12,
		SameSite: http.SameSiteLaxMode,
		Secure:   p.Config.Preview.CookieSecure,
	}
	return store
}

// IsAuthenticated checks if the current session has logged in.
func IsAuthenticated(c echo.Context) bool {
	sess, err := session.Get(sessionName, c)
	if err != nil {
		return false
	}
	auth, ok := sess.Values["authenticated"].(bool)
	return ok && auth
}

func setSession(c echo.Context) error {
	sess, err := session.Get(sessionName, c)
	if err != nil {
		return err
	}
	sess.Values["authenticated"] = true
	return sess.Save(c.Request(), c.Response())
}

func clearSession(c echo.Context) error {
	sess, err := session.Get(sessionName, c)
	if err != nil {
		return err
	}
	sess.Options.MaxAge = -1
	return sess.Save(c.Request(), c.Response())
}

// CsrfToken extracts the CSRF token from the Echo context.
func CsrfToken(c echo.Context) string {
	token, _ := c.Get(middleware.DefaultCSRFConfig.ContextKey).(string)
	return token
}
