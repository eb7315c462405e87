// Package auth defines the API key identity model used to guard the
// write-side endpoints.
package auth

import "context"

// Key is a provisioned API key. Only the HMAC-SHA256 digest of the secret is
// stored; the plaintext never touches the database.
type Key struct {
	ID      string
	KeyHash string
	Name    string
	Scopes  []string
}

// HasScope reports whether the key grants the named scope. A key with no
// scopes grants everything.
func (k *Key) HasScope(scope string) bool {
	if len(k.Scopes) == 0 {
		return true
	}
	for _, s := range k.Scopes {
		if s == scope {
			return true
		}
	}
	return false
}

// Repository provides lookup of API keys by secret digest.
type Repository interface {
	FindByHash(ctx context.Context, hash string) (*Key, error)
}
