package handler

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"transparencia/internal/auth"
)

// RouterDeps - все, что нужно для сборки HTTP API
type RouterDeps struct {
	Documents        *DocumentHandler
	Versions         *VersionHandler
	Biddings         *BiddingHandler
	BiddingDocuments *BiddingDocumentHandler
	Taxonomy         *TaxonomyHandler
	Verifier         *auth.Verifier
	AllowedOrigins   []string
	// Ready проверяет зависимости (база) для /healthz; nil - всегда готов
	Ready  func(r *http.Request) error
	Logger *zap.Logger
}

func NewRouter(d RouterDeps) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   d.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Content-Disposition", "ETag"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/healthz", func(w http.ResponseWriter, req *http.Request) {
		if d.Ready != nil {
			if err := d.Ready(req); err != nil {
				d.Logger.Warn("health check failed", zap.Error(err))
				writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
				return
			}
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/v1", func(r chi.Router) {
		r.Use(auth.Middleware(d.Verifier, d.Logger))
		r.Use(RequestLogger(d.Logger))

		r.Get("/taxonomy", d.Taxonomy.GetTaxonomy)
		r.Get("/taxonomy/rules", d.Taxonomy.GetRules)

		r.Route("/documents", func(r chi.Router) {
			r.Post("/", d.Documents.CreateDocument)
			r.Get("/slug/{slug}", d.Documents.GetDocumentBySlug)

			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", d.Documents.GetDocument)
				r.Patch("/", d.Documents.UpdateDocument)
				r.Delete("/", d.Documents.DeleteDocument)

				r.Get("/versions", d.Versions.ListVersions)
				r.Post("/versions", d.Versions.PromoteVersion)
				r.Post("/versions/upload", d.Versions.UploadVersion)
				r.Get("/versions/current", d.Versions.CurrentVersion)
				r.Get("/versions/current/file", d.Versions.DownloadCurrent)
			})
		})

		r.Get("/versions/current", d.Versions.ListCurrentVersions)

		r.Route("/biddings", func(r chi.Router) {
			r.Post("/", d.Biddings.CreateBidding)

			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", d.Biddings.GetBidding)
				r.Patch("/", d.Biddings.UpdateBidding)
				r.Delete("/", d.Biddings.DeleteBidding)
				r.Put("/status", d.Biddings.UpdateStatus)
				r.Get("/movements", d.Biddings.ListMovements)
				r.Post("/movements", d.Biddings.AddMovement)
				r.Get("/documents", d.BiddingDocuments.ListBiddingDocuments)
				r.Post("/documents", d.BiddingDocuments.AddBiddingDocument)
			})
		})

		r.Route("/bidding-documents/{id}", func(r chi.Router) {
			r.Get("/", d.BiddingDocuments.GetBiddingDocument)
			r.Post("/publish", d.BiddingDocuments.PublishBiddingDocument)
		})
	})

	return r
}
