package router

import (
	"database/sql"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"store-manager/internal/config"
	"store-manager/internal/handlers"
	"store-manager/internal/middleware"
	"store-manager/internal/models"
	"store-manager/internal/notifier"
	"store-manager/internal/repository"
	"store-manager/internal/services"
	"store-manager/internal/validation"
)

type Dependencies struct {
	Auth      *services.AuthService
	Stores    *services.StoreService
	Validator *validation.Validator
	DB        handlers.Pinger
	Config    config.Config
	Logger    zerolog.Logger
}

// SetupRouter wires the MySQL repositories into the services and returns the
// complete HTTP handler. resets may be nil to keep reset tokens in MySQL.
func SetupRouter(db *sql.DB, resets repository.ResetTokenRepository, cfg config.Config, logger zerolog.Logger) http.Handler {
	if resets == nil {
		resets = repository.NewResetTokenMySQL(db)
	}

	tokenService := services.NewTokenService(cfg.JWTSecret, cfg.JWTExpiry)
	authService := services.NewAuthService(services.AuthServiceParams{
		Users:      repository.NewUserMySQL(db),
		Resets:     resets,
		Hasher:     services.NewBcryptHasher(cfg.BcryptCost),
		Tokens:     tokenService,
		Notifier:   notifier.NewLogNotifier(logger),
		Logger:     logger,
		ResetTTL:   cfg.ResetTokenTTL,
		AppBaseURL: cfg.AppBaseURL,
	})
	storeService := services.NewStoreService(repository.NewStoreMySQL(db), logger)

	return NewRouter(Dependencies{
		Auth:      authService,
		Stores:    storeService,
		Validator: validation.New(),
		DB:        db,
		Config:    cfg,
		Logger:    logger,
	})
}

func NewRouter(deps Dependencies) http.Handler {
	logger := deps.Logger
	cfg := deps.Config

	authHandler := handlers.NewAuthHandler(deps.Auth, deps.Validator, handlers.CookieConfig{
		Secure: cfg.IsProduction(),
		MaxAge: cfg.JWTExpiry,
	}, logger)
	storeHandler := handlers.NewStoreHandler(deps.Stores, deps.Validator, logger)
	healthHandler := handlers.NewHealthHandler(deps.DB, logger)

	r := mux.NewRouter()
	r.NotFoundHandler = handlers.NotFound()
	r.MethodNotAllowedHandler = handlers.MethodNotAllowed()

	rateLimiter := middleware.NewRateLimiter(rate.Limit(cfg.RateLimitRPS), cfg.RateLimitBurst)

	r.Use(middleware.ErrorHandling(logger))
	r.Use(middleware.PerformanceMonitoring(logger))
	r.Use(middleware.RequestLogging(logger))
	r.Use(middleware.SecurityHeaders())
	r.Use(rateLimiter.Middleware())

	authenticate := middleware.Authentication(deps.Auth, logger)
	owner := middleware.RequireRole(models.RoleOwner)
	admin := middleware.RequireRole(models.RoleAdmin)

	// Content-type checks run inside the auth and role gates: 401 and 403 win
	// over 415.
	jsonBody := middleware.RequestValidation()

	api := r.PathPrefix("/api").Subrouter()

	auth := api.PathPrefix("/auth").Subrouter()
	auth.Handle("/register", jsonBody(http.HandlerFunc(authHandler.Register))).Methods(http.MethodPost)
	auth.Handle("/login", jsonBody(http.HandlerFunc(authHandler.Login))).Methods(http.MethodPost)
	auth.HandleFunc("/user/logout", authHandler.Logout).Methods(http.MethodGet)
	auth.HandleFunc("/me", authHandler.Me).Methods(http.MethodGet)
	auth.Handle("/forgot-password", jsonBody(http.HandlerFunc(authHandler.ForgotPassword))).Methods(http.MethodPost)
	auth.Handle("/reset-password", jsonBody(http.HandlerFunc(authHandler.ResetPassword))).Methods(http.MethodPost)
	auth.Handle("/change-password", authenticate(jsonBody(http.HandlerFunc(authHandler.ChangePassword)))).Methods(http.MethodPut)

	stores := api.PathPrefix("/stores").Subrouter()
	stores.Use(authenticate)
	stores.Handle("/profile", owner(http.HandlerFunc(storeHandler.GetProfile))).Methods(http.MethodGet)
	stores.Handle("/profile", owner(jsonBody(http.HandlerFunc(storeHandler.SaveProfile)))).Methods(http.MethodPost, http.MethodPut)
	stores.Handle("/profile", owner(http.HandlerFunc(storeHandler.DeleteProfile))).Methods(http.MethodDelete)
	stores.Handle("/all", admin(http.HandlerFunc(storeHandler.ListAll))).Methods(http.MethodGet)

	r.HandleFunc("/health", healthHandler.Health).Methods(http.MethodGet)

	// CORS wraps the router so preflight requests are answered before route
	// matching.
	return middleware.CORS(cfg.CORSOrigins)(r)
}
