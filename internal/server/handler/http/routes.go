// Package http provides HTTP routing and middleware configuration
// for the widgetboard service.
package http

import (
	"encoding/json"
	"net/http"

	"github.com/atarasenko/widgetboard/internal/middleware"
	"go.uber.org/zap"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// NewRouter constructs and returns an HTTP handler that serves the
// widgetboard API. It applies CORS for the configured frontend origins,
// JSON content-type enforcement and request logging, and mounts the widget
// CRUD, content and test endpoints under /api.
//
// Routes:
//
//	GET    /api/health                      → liveness check
//	GET    /api/widgets                     → widgetHandler.List
//	POST   /api/widgets                     → widgetHandler.Create
//	PUT    /api/widgets/layout/bulk         → widgetHandler.BulkLayout
//	POST   /api/widgets/test-api            → widgetHandler.TestAPI
//	GET    /api/widgets/{widgetID}          → widgetHandler.Get
//	PUT    /api/widgets/{widgetID}          → widgetHandler.Update
//	DELETE /api/widgets/{widgetID}          → widgetHandler.Delete
//	GET    /api/widgets/{widgetID}/content  → widgetHandler.Content
//	POST   /api/widgets/{widgetID}/refresh  → widgetHandler.Refresh
func NewRouter(
	widgetHandler *WidgetHandler,
	logger *zap.Logger,
	corsOrigins []string,
) http.Handler {
	r := chi.NewRouter()

	// Allow the dashboard frontend to call the API from its own origin
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   corsOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", "Authorization"},
		AllowCredentials: true,
	}))

	// Only allow requests with Content-Type: application/json
	r.Use(chiMiddleware.AllowContentType("application/json"))

	// Log each request and its metadata
	r.Use(middleware.WithRequestLogging(logger))

	// Mount API routes
	r.Route("/api", func(r chi.Router) {
		r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
		})

		r.Route("/widgets", func(r chi.Router) {
			r.Get("/", widgetHandler.List)
			r.Post("/", widgetHandler.Create)
			r.Put("/layout/bulk", widgetHandler.BulkLayout)
			r.Post("/test-api", widgetHandler.TestAPI)

			r.Route("/{widgetID}", func(r chi.Router) {
				r.Get("/", widgetHandler.Get)
				r.Put("/", widgetHandler.Update)
				r.Delete("/", widgetHandler.Delete)
				r.Get("/content", widgetHandler.Content)
				r.Post("/refresh", widgetHandler.Refresh)
			})
		})
	})

	return r
}
