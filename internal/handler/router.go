package handler

import (
	"net/http"

	"pdf-to-word/internal/domain"

	"github.com/gorilla/mux"
	"github.com/rs/cors"
)

// NewRouter creates a new HTTP router with all routes configured
func NewRouter(conversionHandler *ConversionHandler, logger domain.Logger, allowedOrigins []string) http.Handler {
	router := mux.NewRouter()
	router.Use(RecoveryMiddleware(logger), LoggingMiddleware(logger))

	// Health check endpoint
	router.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok", "service": "pdf-to-word"})
	}).Methods(http.MethodGet)

	// API prefix
	api := router.PathPrefix("/api/v1").Subrouter()
	api.HandleFunc("/conversions", conversionHandler.CreateConversion).Methods(http.MethodPost)
	api.HandleFunc("/conversions/{name}", conversionHandler.DownloadConversion).Methods(http.MethodGet)

	router.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusNotFound, "Not found")
	})

	if len(allowedOrigins) == 0 {
		allowedOrigins = []string{"*"}
	}

	// Configure CORS
	c := cors.New(cors.Options{
		AllowedOrigins: allowedOrigins,
		AllowedMethods: []string{
			http.MethodGet,
			http.MethodPost,
			http.MethodOptions,
		},
		AllowedHeaders: []string{
			"Accept",
			"Content-Type",
		},
		ExposedHeaders: []string{
			"Content-Disposition",
		},
		MaxAge: 300, // Maximum value not ignored by any of major browsers
	})

	return c.Handler(router)
}
