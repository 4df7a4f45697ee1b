package router

import (
	"net/http"

	"photo-watermark/internal/http-server/handler/watermark"
	"photo-watermark/internal/http-server/middleware"

	"github.com/go-chi/chi/v5"
)

type Handler struct {
	WatermarkHandler *watermark.WatermarkHandler
}

func SetupRouter(h *Handler) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RecoveryMiddleware)
	r.Use(middleware.LoggingMiddleware)

	r.Route("/api", func(r chi.Router) {
		r.Use(func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				next.ServeHTTP(w, r)
			})
		})

		r.Route("/preview", func(r chi.Router) {
			r.Post("/", h.WatermarkHandler.Preview)
			r.Delete("/", h.WatermarkHandler.Invalidate)
			r.Put("/scale", h.WatermarkHandler.SetScale)
		})

		r.Post("/export", h.WatermarkHandler.Export)
		r.Post("/boundary", h.WatermarkHandler.Boundary)
		r.Post("/drag", h.WatermarkHandler.Drag)
		r.Post("/jobs", h.WatermarkHandler.SubmitJob)

		r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"status":"ok"}`))
		})
	})

	return r
}
