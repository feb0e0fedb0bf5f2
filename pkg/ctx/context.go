// Package ctx provides a request context for controllers.
//
// Instead of (http.ResponseWriter, *http.Request), a controller method takes a
// single *Context with helpers for params, cookies, tokens, binding and
// responses:
//
//	func (c *OrderController) Show(cx *ctx.Context) {
//	    order, err := c.orders.Get(cx.Context(), cx.Token(), cx.Param("id"))
//	    if err != nil {
//	        cx.Fail(err, "Error fetching order")
//	        return
//	    }
//	    cx.OK(order)
//	}
//
//	router.Get("/orders/{id}", "orders.show", ctx.Wrap(c.Show))
package ctx

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/shashiranjanraj/storefront/pkg/apperr"
	"github.com/shashiranjanraj/storefront/pkg/auth"
	"github.com/shashiranjanraj/storefront/pkg/bind"
	"github.com/shashiranjanraj/storefront/pkg/logger"
	"github.com/shashiranjanraj/storefront/pkg/response"
)

// TokenCookie is the cookie carrying the identity token.
const TokenCookie = "token"

// HandlerFunc is the context-aware handler signature.
type HandlerFunc func(c *Context)

// Wrap converts a HandlerFunc to a standard http.HandlerFunc.
func Wrap(h HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c := acquire(w, r)
		defer release(c)
		h(c)
	}
}

// Context wraps a request/response pair.
type Context struct {
	W      http.ResponseWriter
	R      *http.Request
	status int
}

var pool = sync.Pool{
	New: func() any { return &Context{} },
}

func acquire(w http.ResponseWriter, r *http.Request) *Context {
	c := pool.Get().(*Context)
	c.W = w
	c.R = r
	c.status = 0
	return c
}

func release(c *Context) {
	c.W = nil
	c.R = nil
	pool.Put(c)
}

// ─── Request helpers ──────────────────────────────────────────────────────────

// Param returns a URL path parameter ("/orders/{id}" → c.Param("id")).
func (c *Context) Param(key string) string {
	return chi.URLParam(c.R, key)
}

// Query returns a query-string value, or "" if absent.
func (c *Context) Query(key string) string {
	return c.R.URL.Query().Get(key)
}

// Header returns the value of a request header.
func (c *Context) Header(key string) string {
	return c.R.Header.Get(key)
}

// Cookie returns the value of a named cookie, or "" if absent.
func (c *Context) Cookie(name string) string {
	cookie, err := c.R.Cookie(name)
	if err != nil {
		return ""
	}
	return cookie.Value
}

// BearerToken returns the token from the Authorization header, or "".
func (c *Context) BearerToken() string {
	t, _ := auth.BearerToken(c.Header("Authorization"))
	return t
}

// Token returns the identity token from the token cookie, falling back to the
// Authorization header.
func (c *Context) Token() string {
	if t := c.Cookie(TokenCookie); t != "" {
		return t
	}
	return c.BearerToken()
}

// Context returns the underlying request context.
func (c *Context) Context() context.Context { return c.R.Context() }

// Log returns the request-scoped logger.
func (c *Context) Log() *slog.Logger { return logger.WithCtx(c.R.Context()) }

// Bind decodes the JSON body into dest.
func (c *Context) Bind(dest any) error {
	return bind.JSON(c.W, c.R, dest)
}

// ─── Response helpers ─────────────────────────────────────────────────────────

// JSON writes v with the given status.
func (c *Context) JSON(code int, v any) {
	c.status = code
	response.JSON(c.W, code, v)
}

// OK sends a 200 with v as the body.
func (c *Context) OK(v any) { c.JSON(http.StatusOK, v) }

// Created sends a 201 with v as the body.
func (c *Context) Created(v any) { c.JSON(http.StatusCreated, v) }

// Message sends {"message": msg} with status.
func (c *Context) Message(code int, msg string) {
	c.JSON(code, response.MessageBody{Message: msg})
}

// Fail writes err using the unified error contract. Internal and
// unclassified errors are logged with their cause and answered with
// fallback.
func (c *Context) Fail(err error, fallback string) {
	kind := apperr.KindOf(err)
	if kind == apperr.KindInternal {
		c.Log().Error(fallback, "error", err, "method", c.R.Method, "path", c.R.URL.Path)
	} else {
		c.Log().Debug("request rejected", "kind", kind, "error", err)
	}
	c.status = apperr.Status(kind)
	response.Error(c.W, err, fallback)
}

// SetToken sets the token cookie for ttl.
func (c *Context) SetToken(token string, ttl time.Duration, secure bool) {
	http.SetCookie(c.W, &http.Cookie{
		Name:     TokenCookie,
		Value:    token,
		Path:     "/",
		MaxAge:   int(ttl.Seconds()),
		Expires:  time.Now().Add(ttl),
		Secure:   secure,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

// ClearToken expires the token cookie.
func (c *Context) ClearToken(secure bool) {
	http.SetCookie(c.W, &http.Cookie{
		Name:     TokenCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		Expires:  time.Unix(0, 0),
		Secure:   secure,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

// WrittenStatus returns the status code written so far, or 0.
func (c *Context) WrittenStatus() int { return c.status }
