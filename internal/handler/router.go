package handler

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/rs/cors"
)

// Routes collects the handlers and middleware mounted by NewRouter.
type Routes struct {
	Auth           *AuthHandler
	Generation     *GenerationHandler
	Billing        *BillingHandler
	Webhook        *WebhookHandler
	AuthMiddleware func(http.Handler) http.Handler
	RateLimit      func(http.Handler) http.Handler
	RequestLogger  func(http.Handler) http.Handler
	AllowedOrigins []string
}

// NewRouter creates a new HTTP router with all routes configured
func NewRouter(routes Routes) http.Handler {
	router := mux.NewRouter()
	if routes.RequestLogger != nil {
		router.Use(routes.RequestLogger)
	}

	// Health check endpoint (no auth required)
	router.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok","service":"magician-server"}`))
	}).Methods("GET")

	// API prefix
	api := router.PathPrefix("/api/v1").Subrouter()

	// Stripe calls this one directly, the signature is checked instead of a token.
	api.HandleFunc("/webhook", routes.Webhook.Handle).Methods("POST")

	protected := api.PathPrefix("").Subrouter()
	protected.Use(routes.AuthMiddleware)

	protected.HandleFunc("/auth/profile", routes.Auth.GetProfile).Methods("GET")
	protected.HandleFunc("/auth/validate", routes.Auth.ValidateToken).Methods("GET")
	protected.HandleFunc("/stripe", routes.Billing.Manage).Methods("GET")
	protected.HandleFunc("/usage", routes.Billing.Usage).Methods("GET")

	generation := protected.PathPrefix("").Subrouter()
	if routes.RateLimit != nil {
		generation.Use(routes.RateLimit)
	}
	generation.HandleFunc("/conversation", routes.Generation.Conversation).Methods("POST")
	generation.HandleFunc("/code", routes.Generation.Code).Methods("POST")
	generation.HandleFunc("/image", routes.Generation.Image).Methods("POST")
	generation.HandleFunc("/music", routes.Generation.Music).Methods("POST")
	generation.HandleFunc("/video", routes.Generation.Video).Methods("POST")

	c := cors.New(cors.Options{
		AllowedOrigins: routes.AllowedOrigins,
		AllowedMethods: []string{
			http.MethodGet,
			http.MethodPost,
			http.MethodOptions,
		},
		AllowedHeaders: []string{
			"Accept",
			"Authorization",
			"Content-Type",
			"X-Request-ID",
		},
		ExposedHeaders: []string{
			"X-Request-ID",
		},
		AllowCredentials: true,
		MaxAge:           300, // Maximum value not ignored by any of major browsers
	})

	return c.Handler(router)
}
