package app

import (
	"context"
	"fmt"
	"net/http"

	"sso-connect/internal/auth"
	"sso-connect/internal/auth/credentials"
	"sso-connect/internal/auth/handler"
	"sso-connect/internal/auth/linker"
	"sso-connect/internal/auth/provider"
	"sso-connect/internal/auth/provider/oidc"
	"sso-connect/internal/auth/resolver"
	"sso-connect/internal/config"
	"sso-connect/internal/logger"
	"sso-connect/internal/metrics"
	"sso-connect/internal/middleware"
	"sso-connect/internal/render"
	"sso-connect/internal/session"

	"github.com/gin-gonic/gin"
)

func setupHTTP(ctx context.Context, cfg *config.Config) (*gin.Engine, func() error, error) {
	infra, err := setupInfra(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}

	router, err := newRouter(ctx, cfg, infra)
	if err != nil {
		_ = infra.Close()
		return nil, nil, err
	}
	return router, infra.Close, nil
}

func newRouter(ctx context.Context, cfg *config.Config, infra *Infra) (*gin.Engine, error) {
	registry, err := buildProviders(ctx, cfg.Providers)
	if err != nil {
		return nil, err
	}

	renderer, err := render.New()
	if err != nil {
		return nil, err
	}

	m := metrics.New()
	cookie := session.DefaultCookieOptions(cfg.Session.Secure)
	sessionStore := session.NewRedisStore(infra.Redis.Client)

	authHandler := handler.NewHandler(handler.Deps{
		Providers:    registry,
		Sessions:     sessionStore,
		AuthSessions: infra.authSessionStore(cfg.Connect.Store),
		Resolver:     resolver.NewDBResolver(infra.DB, cfg.Connect.AutoLinkVerifiedEmail),
		Linker:       linker.NewService(infra.DB),
		Credentials:  credentials.NewService(infra.DB),
		Renderer:     renderer,
		Metrics:      m,
	}, handler.Options{
		SessionTTL:     cfg.Session.TTL,
		AuthSessionTTL: cfg.Connect.AuthSessionTTL,
		Cookie:         cookie,
		Registration:   registrationConfig(cfg.Connect.Registration),
		DefaultLocale:  cfg.App.DefaultLocale,
	})

	authMiddleware := middleware.NewAuthMiddleware(sessionStore, cookie)

	if cfg.App.Env == "prod" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery(), middleware.RequestLogger(), m.Middleware())

	// Public routes
	authHandler.RegisterRoutes(router)

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	router.GET("/metrics", gin.WrapH(m.Handler()))

	// Protected API routes
	api := router.Group("/api")
	api.Use(middleware.GinRequireAuth(authMiddleware))

	api.GET("/me", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"user_id": c.GetString("userID"),
		})
	})

	for _, route := range router.Routes() {
		logger.Debug("route", map[string]any{"method": route.Method, "path": route.Path})
	}

	return router, nil
}

func buildProviders(ctx context.Context, list []config.Provider) (*provider.Registry, error) {
	providers := make([]provider.OAuthProvider, 0, len(list))
	for _, pc := range list {
		p, err := oidc.New(ctx, oidc.Config{
			Name:          pc.Name,
			DisplayName:   pc.DisplayName,
			Issuer:        pc.Issuer,
			ClientID:      pc.ClientID,
			ClientSecret:  pc.ClientSecret,
			RedirectURL:   pc.RedirectURL,
			PublicAuthURL: pc.PublicAuthURL,
			Scopes:        pc.Scopes,
			UI: auth.AuthenticatorUI{
				ButtonColor:         pc.UI.ButtonColor,
				PhotoURL:            pc.UI.PhotoURL,
				TermsOfServiceLabel: pc.UI.TermsOfServiceLabel,
				TermsOfServiceURL:   pc.UI.TermsOfServiceURL,
			},
		})
		if err != nil {
			return nil, fmt.Errorf("provider %s: %w", pc.Name, err)
		}
		providers = append(providers, p)
		logger.Info("provider ready", map[string]any{"provider": pc.Name, "issuer": pc.Issuer})
	}
	return provider.NewRegistry(providers...), nil
}

func registrationConfig(r config.Registration) auth.RegistrationConfig {
	return auth.RegistrationConfig{
		AllowNameEdit:         r.AllowNameEdit,
		AllowEmailEdit:        r.AllowEmailEdit,
		RequirePassword:       r.RequirePassword,
		PasswordMinLength:     r.PasswordMinLength,
		RequireTermsOfService: r.RequireTermsOfService,
	}
}
