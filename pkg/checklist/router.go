package checklist

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/sigel-gov/sigel/pkg/authz"
	"github.com/sigel-gov/sigel/pkg/cache"
)

// CachePrefix is the cache key prefix of template reads.
const CachePrefix = "checklist:"

// NewRouter creates a chi router with the checklist API. Inspections are
// an admin task, so every route requires the admin role. Templates only
// change at startup; when readCache is non-nil their reads are cached.
func NewRouter(e *Engine, readCache cache.Store) chi.Router {
	r := chi.NewRouter()
	r.Use(authz.AdminOnly())

	cached := func(r chi.Router) chi.Router {
		if readCache == nil {
			return r
		}
		return r.With(cache.CacheMiddleware(readCache, CachePrefix))
	}

	cached(r).Get("/templates", listTemplatesHandler(e))
	cached(r).Get("/templates/{nome}", getTemplateHandler(e))
	cached(r).Get("/classificacoes", listClassificacoesHandler(e))

	r.Route("/sessoes", func(r chi.Router) {
		r.Get("/", listSessoesHandler(e))
		r.Post("/", createSessaoHandler(e))

		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", getSessaoHandler(e))
			r.Put("/itens/{etapaId}/{itemId}", atualizarItemHandler(e))
			r.Post("/navegar", navegarHandler(e))
			r.Put("/fotos/{slot}", capturarFotoHandler(e))
			r.Delete("/fotos/{slot}", removerFotoHandler(e))
			r.Get("/avaliacao", avaliacaoHandler(e))
			r.Post("/finalizar", finalizarHandler(e))
			r.Get("/autosave", autoSaveHandler(e))
		})
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "route not found", "code": "NOT_FOUND"})
	})

	return r
}
