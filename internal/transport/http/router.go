package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"golang.org/x/time/rate"

	"github.com/portal-auth/internal/application/auth"
	"github.com/portal-auth/internal/application/gate"
	"github.com/portal-auth/internal/application/session"
	"github.com/portal-auth/internal/config"
	"github.com/portal-auth/internal/transport/http/handler"
	appmiddleware "github.com/portal-auth/internal/transport/http/middleware"
)

// NewRouter builds and returns the application router.
func NewRouter(cfg *config.Config, deps *Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))
	r.MethodNotAllowed(handler.MethodNotAllowed)

	sensitiveRL := appmiddleware.NewRateLimiter(rate.Limit(cfg.RateLimitPerSecond), cfg.RateLimitBurst)

	cookies := appmiddleware.CookieOptions{
		Name:   cfg.SessionCookieName,
		MaxAge: cfg.SessionTTL,
		Secure: !cfg.IsDev(),
	}

	authSvc := auth.NewService(auth.ServiceDeps{
		Guard:       deps.Guard,
		CodeRepo:    deps.CodeRepo,
		SessionRepo: deps.SessionRepo,
		Mailer:      deps.Mailer,
		AppName:     cfg.AppName,
		CodeTTL:     cfg.CodeTTL,
		SessionTTL:  cfg.SessionTTL,
		Now:         deps.Now,
	})
	sessionSvc := session.NewService(deps.SessionRepo, deps.Now)

	healthH := handler.NewHealthHandler()
	authH := handler.NewAuthHandler(authSvc, cookies)
	sessionH := handler.NewSessionHandler(sessionSvc, cookies)

	r.Route("/v1", func(r chi.Router) {
		r.MethodNotAllowed(handler.MethodNotAllowed)

		r.Get("/health-check/{action}", healthH.Ping)
		r.With(sensitiveRL.Limit).Post("/send-code", authH.SendCode)
		r.With(sensitiveRL.Limit).Post("/verify-code", authH.VerifyCode)
		r.Post("/check-session", sessionH.CheckSession)
	})

	if cfg.PortalDir != "" {
		var checker gate.Checker = sessionSvc
		if deps.PortalChecker != nil {
			checker = deps.PortalChecker
		}
		portalGate := gate.New(checker, cfg.LoginPath)
		files := http.StripPrefix("/portal", http.FileServer(http.Dir(cfg.PortalDir)))

		r.Get("/portal", http.RedirectHandler("/portal/", http.StatusMovedPermanently).ServeHTTP)
		r.With(appmiddleware.Gate(portalGate, cookies)).Get("/portal/*", files.ServeHTTP)
	}

	return r
}
