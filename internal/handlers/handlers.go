package handlers

import (
	"VaultKeeper/internal/config"
	"VaultKeeper/internal/metrics"
	"VaultKeeper/internal/middleware"
	"VaultKeeper/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

type Handler struct {
	Router chi.Router
}

// Services — сервисный слой, который обслуживает HTTP API.
type Services struct {
	Users   *service.UserService
	OTP     *service.OTPService
	Keys    *service.KeyService
	APIKeys *service.APIKeyService
	Vaults  *service.VaultService
	Shares  *service.ShareService
	Inbox   *service.InboxService
}

// NewHandler разводящий для хендлеров
func NewHandler(
	svc Services,
	rec metrics.Recorder,
	gatherer prometheus.Gatherer,
	logger *zap.SugaredLogger,
	config *config.Config,
) *Handler {
	r := chi.NewRouter()

	r.Use(middleware.WithGzip)
	r.Use(middleware.WithLogging)
	r.Use(middleware.WithMetrics(rec))
	r.Use(middleware.WithAuth(config.AuthSecret))
	r.Use(middleware.WithAPIKey(svc.APIKeys))

	// Handlers
	userHandler := NewUserHandler(svc.Users, svc.OTP, svc.Keys, logger, config)
	apiKeyHandler := NewAPIKeyHandler(svc.APIKeys, logger)
	vaultHandler := NewVaultHandler(svc.Vaults, logger, config)
	shareHandler := NewShareHandler(svc.Shares, svc.Inbox, logger)
	inboxHandler := NewInboxHandler(svc.Inbox, logger)

	// сжатие отдаёт WithGzip
	r.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{DisableCompression: true}))

	// Public routes
	r.Post("/api/user/register", userHandler.Register)
	r.Post("/api/user/login", userHandler.Login)
	r.Get("/api/user/status", userHandler.Status)
	r.Post("/api/shares/{id}/access", shareHandler.Access)

	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireAuth)

		// User routes
		r.Post("/api/user/otp/setup", userHandler.SetupOTP)
		r.Post("/api/user/otp/confirm", userHandler.ConfirmOTP)
		r.Post("/api/user/otp/disable", userHandler.DisableOTP)
		r.Post("/api/user/keys/rotate", userHandler.RotateKey)

		// API keys
		r.Get("/api/apikeys", apiKeyHandler.List)
		r.Post("/api/apikeys", apiKeyHandler.Create)
		r.Delete("/api/apikeys/{id}", apiKeyHandler.Deactivate)

		// Tags
		r.Get("/api/tags", vaultHandler.ListTags)
		r.Post("/api/tags", vaultHandler.CreateTag)
		r.Delete("/api/tags/{id}", vaultHandler.DeleteTag)

		// Vaults and entries
		r.Route("/api/vaults", func(r chi.Router) {
			r.Get("/", vaultHandler.List)
			r.Post("/", vaultHandler.Create)
			r.Get("/{id}", vaultHandler.Get)
			r.Patch("/{id}", vaultHandler.Update)
			r.Delete("/{id}", vaultHandler.Delete)

			r.Get("/{id}/entries", vaultHandler.ListEntries)
			r.Put("/{id}/entries", vaultHandler.PutEntry)
			r.Get("/{id}/entries/{entryID}", vaultHandler.GetEntry)
			r.Delete("/{id}/entries/{entryID}", vaultHandler.DeleteEntry)

			r.Get("/{id}/shares", shareHandler.List)
			r.Post("/{id}/shares", shareHandler.Create)
		})

		// Shares
		r.Delete("/api/shares/{id}", shareHandler.Revoke)
		r.Get("/api/shares/{id}/logs", shareHandler.Logs)
		r.Post("/api/shares/{id}/deliver", shareHandler.Deliver)

		// Inbox
		r.Get("/api/inbox", inboxHandler.List)
		r.Get("/api/inbox/logs", inboxHandler.Logs)
		r.Post("/api/inbox/{itemID}/open", inboxHandler.Open)
	})

	return &Handler{Router: r}
}
