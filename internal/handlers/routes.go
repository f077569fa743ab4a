package handlers

import (
	"log/slog"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/gdg-garage/events-api/internal/auth"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

type RouterOptions struct {
	Sessions *auth.SessionManager
	Users    auth.UserLookup
	// CORSOrigin enables CORS with credentials for a single frontend origin.
	CORSOrigin string
	Logger     *slog.Logger
}

func RegisterRoutes(r *chi.Mux, opts RouterOptions, authHandler *AuthHandler, eventHandler *EventHandler, userHandler *UserHandler) huma.API {
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	if opts.CORSOrigin != "" {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins:   []string{opts.CORSOrigin},
			AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
			AllowedHeaders:   []string{"Accept", "Content-Type"},
			AllowCredentials: true,
			MaxAge:           300,
		}))
	}
	r.Use(auth.SessionMiddleware(opts.Sessions, opts.Users, opts.Logger))

	// Public routes
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("OK"))
	})

	// Initialize Huma API
	config := huma.DefaultConfig("Events API", "1.0.0")
	config.Components.SecuritySchemes = map[string]*huma.SecurityScheme{
		"cookieAuth": {
			Type: "apiKey",
			In:   "cookie",
			Name: auth.CookieName,
		},
	}
	api := humachi.New(r, config)

	authenticated := func(o *huma.Operation) {
		o.Security = []map[string][]string{{"cookieAuth": {}}}
		o.Middlewares = append(o.Middlewares, auth.RequireAuthenticated(api))
	}
	admin := func(o *huma.Operation) {
		o.Security = []map[string][]string{{"cookieAuth": {}}}
		o.Middlewares = append(o.Middlewares, auth.RequireAdmin(api))
	}
	ok := func(o *huma.Operation) {
		o.DefaultStatus = http.StatusOK
	}
	created := func(o *huma.Operation) {
		o.DefaultStatus = http.StatusCreated
	}
	redirect := func(o *huma.Operation) {
		o.DefaultStatus = http.StatusFound
	}

	// Auth routes
	huma.Post(api, "/auth/login", authHandler.HandleLogin, ok)
	huma.Post(api, "/auth/signup", authHandler.HandleSignup, created)
	huma.Get(api, "/auth/logout", authHandler.HandleLogout)
	huma.Get(api, "/auth/status", authHandler.HandleStatus)
	huma.Get(api, "/auth/{provider}", authHandler.HandleProviderLogin, redirect)
	huma.Get(api, "/auth/{provider}/callback", authHandler.HandleProviderCallback, redirect)

	// Events
	huma.Get(api, "/events", eventHandler.HandleList)
	huma.Get(api, "/events/upcoming", eventHandler.HandleUpcoming)
	huma.Get(api, "/events/past", eventHandler.HandlePast)
	huma.Get(api, "/events/{id}", eventHandler.HandleGet)
	huma.Post(api, "/events", eventHandler.HandleCreate, admin, created)
	huma.Put(api, "/events/{id}", eventHandler.HandleUpdate, admin)
	huma.Delete(api, "/events/{id}", eventHandler.HandleDelete, admin)
	huma.Post(api, "/events/{id}/register", eventHandler.HandleRegister, authenticated, created)

	// Current user
	huma.Get(api, "/user/registrations", eventHandler.HandleMyRegistrations, authenticated)
	huma.Put(api, "/user/profile", userHandler.HandleUpdateProfile, authenticated)

	// User management
	huma.Get(api, "/users", userHandler.HandleList, admin)
	huma.Post(api, "/users", userHandler.HandleCreate, admin, created)
	huma.Put(api, "/users/{id}", userHandler.HandleUpdate, admin)
	huma.Delete(api, "/users/{id}", userHandler.HandleDelete, admin)

	return api
}
