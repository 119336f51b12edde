package middleware

import (
	"net/http"

	"github.com/escience/sitebot/internal/api"
	"github.com/rs/zerolog"
)

// MaxBodyBytes caps request bodies at limit bytes. A declared Content-Length
// over the cap is refused before the handler runs; an undeclared one fails
// with *http.MaxBytesError on read, which api.HandleError maps to 413.
func MaxBodyBytes(limit int64) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if limit <= 0 {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Body == nil || r.Body == http.NoBody {
				next.ServeHTTP(w, r)
				return
			}

			if r.ContentLength > limit {
				zerolog.Ctx(r.Context()).Debug().
					Int64("content_length", r.ContentLength).
					Int64("limit", limit).
					Msg("request body over limit")
				api.HandleError(w, r, &http.MaxBytesError{Limit: limit})
				return
			}

			r.Body = http.MaxBytesReader(w, r.Body, limit)
			next.ServeHTTP(w, r)
		})
	}
}
