/**
 * @description
 * This file sets up the HTTP router for the transfer-service. It defines the
 * API endpoints, associates them with their corresponding handlers, and
 * applies middleware for logging, recovery, CORS and authentication.
 *
 * @dependencies
 * - net/http: Standard Go library for HTTP functionality.
 * - github.com/go-chi/chi/v5: A lightweight and idiomatic router for Go.
 * - github.com/go-chi/cors: CORS middleware for the web client.
 */

package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// TransferRoutes creates and returns a new router for the transfer service.
func TransferRoutes(h *TransferHandlers, jwtSecret string) http.Handler {
	r := chi.NewRouter()

	// Add standard middleware for logging, panic recovery, and timeouts.
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"https://*", "http://*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Health check endpoint
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("healthy"))
	})

	// Group routes that require authentication.
	r.Group(func(r chi.Router) {
		r.Use(AuthMiddleware(jwtSecret))

		// Transfer and history endpoints
		r.Post("/transfers", h.TransferHandler)
		r.Get("/transactions", h.TransactionsHandler)

		// Beneficiary management endpoints
		r.Get("/beneficiaries", h.ListBeneficiariesHandler)
		r.Post("/beneficiaries", h.AddBeneficiaryHandler)
		r.Put("/beneficiaries/{beneficiaryID}/limit", h.UpdateBeneficiaryLimitHandler)
		r.Delete("/beneficiaries/{beneficiaryID}", h.DeleteBeneficiaryHandler)

		// Administrative review endpoints
		r.Group(func(r chi.Router) {
			r.Use(AdminOnly)

			r.Get("/admin/transactions/suspicious", h.SuspiciousTransactionsHandler)
			r.Get("/admin/transactions/fraud", h.FraudTransactionsHandler)
			r.Post("/admin/transactions/{transactionID}/normal", h.MarkNormalHandler)
			r.Post("/admin/transactions/{transactionID}/fraud", h.MarkFraudHandler)
		})
	})

	return r
}
