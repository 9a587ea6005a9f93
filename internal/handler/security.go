package handler

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"net/http"

	"github.com/greenbasket/grocer/internal/repository"
)

// APIKeyHeader carries the admin credential on back-office requests.
const APIKeyHeader = "X-Api-Key"

// actorKey is the context key for the authenticated admin actor label.
type actorKey struct{}

// ActorFromContext returns the admin actor label set by RequireAPIKey, or
// "admin" when none is present.
func ActorFromContext(ctx context.Context) string {
	if actor, ok := ctx.Value(actorKey{}).(string); ok && actor != "" {
		return actor
	}
	return "admin"
}

// APIKeyStore looks up admin API key records by their HMAC hash.
type APIKeyStore interface {
	FindByHash(ctx context.Context, hash string) (*repository.APIKey, error)
}

// APIKeyVerifier authenticates admin requests via HMAC-SHA256 hashed API
// keys. Raw keys are never stored; the middleware hashes the presented key
// with the server pepper and looks the hash up.
type APIKeyVerifier struct {
	keys   APIKeyStore
	pepper []byte
}

// NewAPIKeyVerifier creates an APIKeyVerifier with the given key store and
// HMAC pepper.
func NewAPIKeyVerifier(keys APIKeyStore, pepper []byte) *APIKeyVerifier {
	return &APIKeyVerifier{keys: keys, pepper: pepper}
}

// HashKey returns the hex HMAC-SHA256 of a raw API key under the pepper.
func (v *APIKeyVerifier) HashKey(raw string) string {
	mac := hmac.New(sha256.New, v.pepper)
	mac.Write([]byte(raw))
	return hex.EncodeToString(mac.Sum(nil))
}

// RequireAPIKey is a middleware that rejects requests without a valid admin
// API key. The stored hash is re-compared in constant time to guard against
// timing side-channels even after a successful lookup.
func (v *APIKeyVerifier) RequireAPIKey(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw := r.Header.Get(APIKeyHeader)
		if raw == "" {
			writeError(w, http.StatusUnauthorized, "missing api key")
			return
		}

		mac := hmac.New(sha256.New, v.pepper)
		mac.Write([]byte(raw))
		hash := mac.Sum(nil)

		info, err := v.keys.FindByHash(r.Context(), hex.EncodeToString(hash))
		if err != nil {
			writeError(w, http.StatusUnauthorized, "unauthorized")
			return
		}

		stored, err := hex.DecodeString(info.KeyHash)
		if err != nil || subtle.ConstantTimeCompare(hash, stored) != 1 {
			writeError(w, http.StatusUnauthorized, "unauthorized")
			return
		}

		ctx := context.WithValue(r.Context(), actorKey{}, info.Label)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
