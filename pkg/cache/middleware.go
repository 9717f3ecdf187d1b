package cache

import (
	"bytes"
	"log/slog"
	"net/http"
)

// HeaderCache reports whether a response came from the cache.
const HeaderCache = "X-Cache"

// bodyRecorder tees the response body so a successful read can be stored.
type bodyRecorder struct {
	http.ResponseWriter
	status int
	buf    bytes.Buffer
}

func (rec *bodyRecorder) WriteHeader(code int) {
	if rec.status == 0 {
		rec.status = code
	}
	rec.ResponseWriter.WriteHeader(code)
}

func (rec *bodyRecorder) Write(b []byte) (int, error) {
	if rec.status == 0 {
		rec.status = http.StatusOK
	}
	rec.buf.Write(b)
	return rec.ResponseWriter.Write(b)
}

// CacheMiddleware serves GET requests from s, keyed by prefix plus the
// request URI, and stores 200 responses on a miss. Other methods and
// non-200 answers are never cached. With a Versioned store, a response is
// dropped if the cache was invalidated while it was being rendered. A
// failing backend degrades to uncached serving.
func CacheMiddleware(s Store, prefix string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodGet {
				next.ServeHTTP(w, r)
				return
			}
			ctx := r.Context()
			key := prefix + r.URL.RequestURI()

			body, hit, err := s.Get(ctx, key)
			switch {
			case err != nil:
				slog.Warn("cache lookup failed", "key", key, "error", err)
			case hit:
				h := w.Header()
				h.Set("Content-Type", "application/json")
				h.Set(HeaderCache, "HIT")
				w.WriteHeader(http.StatusOK)
				_, _ = w.Write(body)
				return
			}

			store := func(body []byte) error { return s.Set(ctx, key, body) }
			if v, ok := s.(Versioned); ok {
				gen, err := v.Generation(ctx)
				if err != nil {
					slog.Warn("cache generation lookup failed", "key", key, "error", err)
					store = func([]byte) error { return nil }
				} else {
					store = func(body []byte) error {
						_, err := v.SetAt(ctx, key, body, gen)
						return err
					}
				}
			}

			w.Header().Set(HeaderCache, "MISS")
			rec := &bodyRecorder{ResponseWriter: w}
			next.ServeHTTP(rec, r)
			if rec.status != http.StatusOK {
				return
			}
			if err := store(rec.buf.Bytes()); err != nil {
				slog.Warn("cache store failed", "key", key, "error", err)
			}
		})
	}
}
