package middleware

import (
	"context"
	"net/http"

	"github.com/google/uuid"
)

const (
	VisitorCookie = "rb_visitor"
	VisitorHeader = "X-Visitor-ID"

	visitorCookieMaxAge = 30 * 24 * 60 * 60
)

// VisitorMiddleware puts the visitor id in the context. The id selects the
// storage scope of the guest cart, like one browser's local storage. A
// request without a valid id gets a fresh one, returned as a cookie and in
// the X-Visitor-ID response header.
func VisitorMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		visitorID := extractVisitorID(r)
		if visitorID == "" {
			visitorID = uuid.NewString()
			http.SetCookie(w, &http.Cookie{
				Name:     VisitorCookie,
				Value:    visitorID,
				Path:     "/",
				MaxAge:   visitorCookieMaxAge,
				HttpOnly: true,
				SameSite: http.SameSiteLaxMode,
			})
		}
		w.Header().Set(VisitorHeader, visitorID)

		ctx := context.WithValue(r.Context(), VisitorContextKey, visitorID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// extractVisitorID accepts only UUIDs so a client cannot address another
// key namespace
func extractVisitorID(r *http.Request) string {
	candidates := []string{r.Header.Get(VisitorHeader)}
	if cookie, err := r.Cookie(VisitorCookie); err == nil {
		candidates = append([]string{cookie.Value}, candidates...)
	}
	for _, c := range candidates {
		if id, err := uuid.Parse(c); err == nil {
			return id.String()
		}
	}
	return ""
}

// GetVisitorID returns the visitor id set by VisitorMiddleware
func GetVisitorID(ctx context.Context) string {
	id, _ := ctx.Value(VisitorContextKey).(string)
	return id
}
