package api

import (
	"log"
	"net/http"

	"github.com/example/rachana-boutique/internal/api/middleware"
	"github.com/example/rachana-boutique/internal/auth"
)

type RouterConfig struct {
	Handlers   *Handlers
	JWTService *auth.JWTService
}

func NewRouter(cfg RouterConfig) http.Handler {
	mux := http.NewServeMux()
	h := cfg.Handlers

	requireAuth := middleware.AuthMiddleware(cfg.JWTService)
	optionalAuth := middleware.OptionalAuthMiddleware(cfg.JWTService)
	visitor := middleware.VisitorMiddleware

	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	// Products
	mux.HandleFunc("/products", methods(map[string]http.HandlerFunc{
		http.MethodGet: h.GetProducts,
	}))
	mux.HandleFunc("/products/", methods(map[string]http.HandlerFunc{
		http.MethodGet: h.GetProduct,
	}))

	// Guest cart
	mux.Handle("/guest/cart", visitor(methods(map[string]http.HandlerFunc{
		http.MethodGet:    h.GetGuestCart,
		http.MethodDelete: h.ClearGuestCart,
	})))
	mux.Handle("/guest/cart/items", visitor(optionalAuth(methods(map[string]http.HandlerFunc{
		http.MethodPost:   h.AddToGuestCart,
		http.MethodPatch:  h.UpdateGuestCartItem,
		http.MethodDelete: h.RemoveFromGuestCart,
	}))))
	mux.Handle("/guest/cart/items/variant", visitor(methods(map[string]http.HandlerFunc{
		http.MethodPut: h.ChangeGuestCartVariant,
	})))

	// Cart
	mux.Handle("/cart", requireAuth(methods(map[string]http.HandlerFunc{
		http.MethodGet:    h.GetCart,
		http.MethodDelete: h.ClearCart,
	})))
	mux.Handle("/cart/items", requireAuth(methods(map[string]http.HandlerFunc{
		http.MethodPost:   h.AddToCart,
		http.MethodPatch:  h.UpdateCartItem,
		http.MethodDelete: h.RemoveFromCart,
	})))

	// Session
	mux.Handle("/session/merge", visitor(requireAuth(methods(map[string]http.HandlerFunc{
		http.MethodGet:  h.GetMergeState,
		http.MethodPost: h.Merge,
	}))))
	mux.Handle("/session/logout", visitor(requireAuth(methods(map[string]http.HandlerFunc{
		http.MethodPost: h.Logout,
	}))))

	// Orders
	mux.Handle("/orders/cleanup", visitor(requireAuth(methods(map[string]http.HandlerFunc{
		http.MethodPost: h.CleanupOrder,
	}))))

	return withLogging(mux)
}

// methods dispatches on the request method
func methods(handlers map[string]http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		handler, ok := handlers[r.Method]
		if !ok {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		handler(w, r)
	}
}

func withLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		log.Printf("[API] %s %s", r.Method, r.URL.Path)
		next.ServeHTTP(w, r)
	})
}
