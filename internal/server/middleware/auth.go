// Package middleware provides HTTP middleware for authentication and request tracing.
package middleware

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/jonathan/power-automate-api/internal/logging"
)

// APIKeyHeader may carry the caller's API key instead of the JSON body.
const APIKeyHeader = "X-API-Key"

// KeyValidator checks a presented API key against the trusted key set.
type KeyValidator interface {
	Validate(key string) bool
}

// apiKeyEnvelope picks the api_key field out of a request body.
type apiKeyEnvelope struct {
	APIKey string `json:"api_key"`
}

// APIKeyAuth creates middleware that authorizes a request by its API key.
// The key is taken from the X-API-Key header or, failing that, from the
// api_key field of the JSON body. The body is buffered and restored so the
// next handler can decode it again.
func APIKeyAuth(keys KeyValidator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			logger := logging.FromContext(r.Context())

			body, err := io.ReadAll(r.Body)
			if err != nil {
				var maxErr *http.MaxBytesError
				if errors.As(err, &maxErr) {
					writeError(w, http.StatusRequestEntityTooLarge, "request body too large")
					return
				}
				writeError(w, http.StatusBadRequest, "failed to read request body")
				return
			}
			r.Body = io.NopCloser(bytes.NewReader(body))

			key := r.Header.Get(APIKeyHeader)
			if key == "" {
				var envelope apiKeyEnvelope
				if err := json.Unmarshal(body, &envelope); err != nil {
					writeError(w, http.StatusBadRequest, "invalid request body")
					return
				}
				key = envelope.APIKey
			}

			if !keys.Validate(key) {
				logger.Warn(r.RemoteAddr+" attempted connection with invalid API key.",
					"path", r.URL.Path,
					"method", r.Method,
				)
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusUnauthorized)
				_, _ = w.Write([]byte("null\n"))
				return
			}

			logger.Info("Processing message received from "+r.RemoteAddr, "path", r.URL.Path)
			next.ServeHTTP(w, r)
		})
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": message})
}
