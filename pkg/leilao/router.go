package leilao

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/sigel-gov/sigel/pkg/authz"
	"github.com/sigel-gov/sigel/pkg/cache"
)

// NewRouter creates a chi router with the auction API. Requests must carry
// an identity (authz.IdentityMiddleware). Reads and lot results are open to
// both roles; every other mutation is admin-only. When readCache is non-nil,
// GET responses are cached under CachePrefix; the Manager must be built with
// the same store as its invalidator.
func NewRouter(m *Manager, readCache cache.Store) chi.Router {
	r := chi.NewRouter()

	admin := authz.AdminOnly()
	r.Use(authz.AnyRole())

	// cached wraps GET routes after their role checks so a cached body is
	// never served to a role that may not read it.
	cached := func(r chi.Router) chi.Router {
		if readCache == nil {
			return r
		}
		return r.With(cache.CacheMiddleware(readCache, CachePrefix))
	}

	r.Route("/carros", func(r chi.Router) {
		cached(r).Get("/", listCarrosHandler(m))
		r.With(admin).Post("/", createCarroHandler(m))
		cached(r).Get("/{id}", getCarroHandler(m))
		r.With(admin).Put("/{id}", updateCarroHandler(m))
		r.With(admin).Delete("/{id}", deleteCarroHandler(m))
	})

	r.Route("/leiloeiros", func(r chi.Router) {
		cached(r).Get("/", listLeiloeirosHandler(m))
		r.With(admin).Post("/", createLeiloeiroHandler(m))
		cached(r).Get("/{id}", getLeiloeiroHandler(m))
		r.With(admin).Put("/{id}", updateLeiloeiroHandler(m))
		r.With(admin).Delete("/{id}", deleteLeiloeiroHandler(m))
		cached(r).Get("/{id}/leiloes", leiloesDoLeiloeiroHandler(m))
	})

	r.Route("/leiloes", func(r chi.Router) {
		cached(r).Get("/", listLeiloesHandler(m))
		r.With(admin).Post("/", createLeilaoHandler(m))

		r.Route("/{id}", func(r chi.Router) {
			cached(r).Get("/", getLeilaoHandler(m))
			r.With(admin).Put("/", updateLeilaoHandler(m))
			r.With(admin).Delete("/", deleteLeilaoHandler(m))

			r.With(admin).Post("/lotes", vincularHandler(m))
			r.With(admin).Delete("/lotes/{loteId}", removerLoteHandler(m))
			r.Put("/lotes/{loteId}/resultado", lancarResultadoHandler(m))

			r.With(admin).Post("/publicar", publicarHandler(m))
			r.With(admin).Post("/finalizar", finalizarHandler(m))

			cached(r).Get("/prestacoes", listPrestacoesHandler(m))
			r.With(admin).Post("/prestacoes", gerarPrestacaoHandler(m))
		})
	})

	cached(r.With(admin)).Get("/auditoria", listAuditoriaHandler(m))
	cached(r).Get("/dashboard", dashboardHandler(m))
	cached(r).Get("/resultados", resultadosHandler(m))

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "route not found", "code": "NOT_FOUND"})
	})

	return r
}
