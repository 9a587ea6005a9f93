package repository

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
)

const getAPIKeySQL = `SELECT key_hash, label FROM api_keys WHERE key_hash = $1`

// ErrAPIKeyNotFound is returned when no API key matches the given hash.
var ErrAPIKeyNotFound = errors.New("api key not found")

// APIKey is a stored admin credential. Only the HMAC-SHA256 hash of the raw
// key is persisted.
type APIKey struct {
	KeyHash string
	Label   string
}

// APIKeyRepository looks up admin API keys by their hash.
type APIKeyRepository struct {
	db *DB
}

// NewAPIKeyRepository returns an APIKeyRepository using the given DB.
func NewAPIKeyRepository(db *DB) *APIKeyRepository {
	return &APIKeyRepository{db: db}
}

// FindByHash returns the API key record matching the given hex hash.
func (r *APIKeyRepository) FindByHash(ctx context.Context, hash string) (*APIKey, error) {
	var key APIKey
	err := r.db.q(ctx).QueryRow(ctx, getAPIKeySQL, hash).Scan(&key.KeyHash, &key.Label)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrAPIKeyNotFound
		}
		return nil, errors.Wrap(err, "finding api key")
	}
	return &key, nil
}
