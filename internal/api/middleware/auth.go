package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/example/rachana-boutique/internal/auth"
)

// AccessTokenCookie is set by the storefront after sign-in and cleared on
// logout. cartctl sends the same token as a bearer header instead.
const AccessTokenCookie = "access_token"

const (
	msgSignInRequired = "Sign in to use your cart"
	msgSessionExpired = "Your session has expired, please sign in again"
)

var errNoToken = errors.New("no access token")

type contextKey string

const (
	UserContextKey    contextKey = "user"
	VisitorContextKey contextKey = "visitor"
)

// respondError writes the {success,message} body the cart endpoints use
func respondError(w http.ResponseWriter, message string, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]any{"success": false, "message": message})
}

// ExtractToken returns the access token of r. The cookie wins over the
// Authorization header; only the Bearer scheme is read.
func ExtractToken(r *http.Request) string {
	if cookie, err := r.Cookie(AccessTokenCookie); err == nil && cookie.Value != "" {
		return cookie.Value
	}
	if header := r.Header.Get("Authorization"); strings.HasPrefix(header, "Bearer ") {
		return strings.TrimPrefix(header, "Bearer ")
	}
	return ""
}

func authenticate(jwtService *auth.JWTService, r *http.Request) (*auth.Claims, error) {
	token := ExtractToken(r)
	if token == "" {
		return nil, errNoToken
	}
	return jwtService.ValidateAccessToken(token)
}

func withUser(r *http.Request, claims *auth.Claims) *http.Request {
	return r.WithContext(context.WithValue(r.Context(), UserContextKey, claims))
}

// AuthMiddleware guards the signed-in cart, merge, logout and cleanup
// endpoints. A missing token and a bad or expired one are both 401 but get
// different messages so the storefront can tell "sign in" from "sign in
// again".
func AuthMiddleware(jwtService *auth.JWTService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims, err := authenticate(jwtService, r)
			switch {
			case errors.Is(err, errNoToken):
				respondError(w, msgSignInRequired, http.StatusUnauthorized)
				return
			case err != nil:
				respondError(w, msgSessionExpired, http.StatusUnauthorized)
				return
			}
			next.ServeHTTP(w, withUser(r, claims))
		})
	}
}

// OptionalAuthMiddleware is for the guest cart. A visitor with a valid
// token also gets the user in context, which makes guest adds count the
// signed-in cart; a bad token just means the request is treated as a guest.
func OptionalAuthMiddleware(jwtService *auth.JWTService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if claims, err := authenticate(jwtService, r); err == nil {
				r = withUser(r, claims)
			}
			next.ServeHTTP(w, r)
		})
	}
}

func GetUserFromContext(ctx context.Context) (*auth.Claims, bool) {
	claims, ok := ctx.Value(UserContextKey).(*auth.Claims)
	return claims, ok
}

// GetUserID returns "" for guests
func GetUserID(ctx context.Context) string {
	if claims, ok := GetUserFromContext(ctx); ok {
		return claims.UserID
	}
	return ""
}
