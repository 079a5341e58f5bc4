package api

import (
	"net/http"

	"github.com/Lemon-stack/budwrite-sub000/internal/auth"
	"github.com/gorilla/mux"
)

func SetupRoutes(storyHandler *StoryHandler, checkoutHandler *CheckoutHandler, authMiddleware *auth.Middleware, allowedOrigin string) *mux.Router {
	r := mux.NewRouter()

	r.Use(CORSMiddleware(allowedOrigin))
	r.Use(LoggingMiddleware)
	r.Use(RecoveryMiddleware)

	// Stripe signs webhook requests itself; no bearer token.
	r.HandleFunc("/api/v1/webhooks/stripe", checkoutHandler.HandleWebhook).Methods(http.MethodPost)

	protected := r.PathPrefix("/api/v1").Subrouter()
	protected.Use(authMiddleware.RequireAuth)

	protected.HandleFunc("/stories", storyHandler.CreateStory).Methods(http.MethodPost)
	protected.HandleFunc("/stories", storyHandler.ListStories).Methods(http.MethodGet)
	protected.HandleFunc("/stories/{storyID}", storyHandler.GetStory).Methods(http.MethodGet)

	protected.HandleFunc("/me", storyHandler.GetMe).Methods(http.MethodGet)
	protected.HandleFunc("/me/onboard", storyHandler.Onboard).Methods(http.MethodPost)

	protected.HandleFunc("/credit-packs", checkoutHandler.ListPacks).Methods(http.MethodGet)
	protected.HandleFunc("/checkout", checkoutHandler.CreateCheckout).Methods(http.MethodPost)

	return r
}
