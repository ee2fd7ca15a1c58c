package ui

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"net/http"
	"strings"

	gomponents "maragu.dev/gomponents"
	html "maragu.dev/gomponents/html"
)

const (
	csrfCookieName = "dashboard_csrf"
	csrfFormField  = "csrf_token"
	csrfHeader     = "X-CSRF-Token"
)

// The dashboard's only state-changing form is the cache flush button, which
// posts the cookie value back as a hidden field or header.
type csrfContextKey struct{}

// EnsureCSRFToken gives every dashboard visitor a token cookie and exposes the
// token to page rendering through the request context.
func (h *Handler) EnsureCSRFToken(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := readCSRFCookie(r)
		if token == "" {
			token = randomToken(32)
			http.SetCookie(w, &http.Cookie{
				Name:     csrfCookieName,
				Value:    token,
				Path:     "/",
				HttpOnly: true,
				Secure:   h.Production,
				SameSite: http.SameSiteLaxMode,
			})
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), csrfContextKey{}, token)))
	})
}

// RequireCSRF lets reads through and answers 403 with the dashboard error page
// for any write whose submitted token differs from the cookie.
func (h *Handler) RequireCSRF(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet, http.MethodHead, http.MethodOptions:
			next.ServeHTTP(w, r)
			return
		}

		cookieToken := readCSRFCookie(r)
		sent := strings.TrimSpace(r.Header.Get(csrfHeader))
		if sent == "" {
			_ = r.ParseForm()
			sent = strings.TrimSpace(r.Form.Get(csrfFormField))
		}
		if cookieToken == "" || subtle.ConstantTimeCompare([]byte(cookieToken), []byte(sent)) != 1 {
			renderHTML(w, http.StatusForbidden, errorPage("Request Rejected", "Missing or invalid CSRF token.", "Reload the page and try again."))
			return
		}
		next.ServeHTTP(w, r)
	})
}

// csrfFieldProvider renders the hidden token input for the flush form.
func csrfFieldProvider(r *http.Request) func() gomponents.Node {
	return func() gomponents.Node {
		token, _ := r.Context().Value(csrfContextKey{}).(string)
		if token == "" {
			token = readCSRFCookie(r)
		}
		return html.Input(html.Type("hidden"), html.Name(csrfFormField), html.Value(token))
	}
}

func readCSRFCookie(r *http.Request) string {
	cookie, err := r.Cookie(csrfCookieName)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(cookie.Value)
}

func randomToken(size int) string {
	b := make([]byte, max(size, 16))
	_, _ = rand.Read(b)
	return base64.RawURLEncoding.EncodeToString(b)
}
