package api

import (
	"log"
	"net/http"
	"strings"

	"github.com/example/menu-orders/internal/api/middleware"
	"github.com/example/menu-orders/internal/auth"
)

// RouterConfig bundles everything the router wires together.
type RouterConfig struct {
	Handlers      *Handlers
	GuestHandlers *GuestHandlers
	AuthHandlers  *AuthHandlers
	JWTService    *auth.JWTService
	// GuestAllow is the rate-limit decision for the unauthenticated
	// guest-checkout endpoint.
	GuestAllow func(r *http.Request) bool
}

func NewRouter(cfg RouterConfig) http.Handler {
	mux := http.NewServeMux()

	authRequired := middleware.AuthMiddleware(cfg.JWTService)

	// Auth
	mux.HandleFunc("/auth/register", methodHandler(http.MethodPost, cfg.AuthHandlers.Register))
	mux.HandleFunc("/auth/login", methodHandler(http.MethodPost, cfg.AuthHandlers.Login))
	mux.HandleFunc("/auth/logout", methodHandler(http.MethodPost, cfg.AuthHandlers.Logout))
	mux.HandleFunc("/auth/refresh", methodHandler(http.MethodPost, cfg.AuthHandlers.Refresh))
	mux.Handle("/auth/me", authRequired(methodHandler(http.MethodGet, cfg.AuthHandlers.Me)))
	mux.Handle("/auth/change-password", authRequired(methodHandler(http.MethodPost, cfg.AuthHandlers.ChangePassword)))

	// Guest checkout: unauthenticated, hard-throttled
	guestLimited := middleware.RateLimit(cfg.GuestAllow)
	mux.Handle("/guest/checkout", guestLimited(methodHandler(http.MethodPost, cfg.GuestHandlers.Checkout)))

	// Orders
	mux.Handle("/orders", authRequired(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			cfg.Handlers.ListOrders(w, r)
		case http.MethodPost:
			cfg.Handlers.CreateOrder(w, r)
		default:
			respondJSONError(w, "method not allowed", http.StatusMethodNotAllowed)
		}
	})))

	mux.Handle("/orders/", authRequired(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path := r.URL.Path
		switch {
		case strings.HasSuffix(path, "/confirm") && r.Method == http.MethodPost:
			cfg.Handlers.ConfirmOrder(w, r)
		case strings.HasSuffix(path, "/cancel") && r.Method == http.MethodPost:
			cfg.Handlers.CancelOrder(w, r)
		case r.Method == http.MethodPatch:
			middleware.RequireStaff(http.HandlerFunc(cfg.Handlers.UpdateOrderStatus)).ServeHTTP(w, r)
		case r.Method == http.MethodGet:
			cfg.Handlers.GetOrder(w, r)
		default:
			respondJSONError(w, "method not allowed", http.StatusMethodNotAllowed)
		}
	})))

	return withLogging(mux)
}

func methodHandler(method string, h http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != method {
			respondJSONError(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		h(w, r)
	}
}

func withLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		log.Printf("[API] %s %s", r.Method, r.URL.Path)
		next.ServeHTTP(w, r)
	})
}
