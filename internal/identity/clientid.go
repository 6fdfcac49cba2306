package identity

import (
	gonanoid "github.com/matoous/go-nanoid/v2"
)

// StorageKey is the fixed key the pseudo-identity token is persisted under,
// matching the key the web client uses in its local storage.
const StorageKey = "sodfa_client_id"

const (
	tokenLength   = 20
	tokenAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"
)

// Store is the minimal key-value persistence a Provider needs. A nil Store is
// legal and makes the Provider degrade gracefully (server-rendered contexts
// have no client-local storage).
type Store interface {
	Get(key string) (string, bool)
	Set(key, value string) error
	Delete(key string) error
}

// Provider issues and persists a stable pseudo-identity token for browsers
// that never authenticate. Pure local state, no network.
type Provider struct {
	store Store
}

func NewProvider(store Store) *Provider {
	return &Provider{store: store}
}

// GetOrCreate returns the persisted token, generating and storing a new one
// on first use. With no backing store it returns an empty token instead of
// failing, so callers can fall through to other identity classes.
func (p *Provider) GetOrCreate() (string, error) {
	if p == nil || p.store == nil {
		return "", nil
	}

	if token, ok := p.store.Get(StorageKey); ok && token != "" {
		return token, nil
	}

	token, err := GenerateToken()
	if err != nil {
		return "", err
	}
	if err := p.store.Set(StorageKey, token); err != nil {
		return "", err
	}
	return token, nil
}

func (p *Provider) Has() bool {
	if p == nil || p.store == nil {
		return false
	}
	token, ok := p.store.Get(StorageKey)
	return ok && token != ""
}

// Clear removes the persisted token. Test/reset hook only.
func (p *Provider) Clear() error {
	if p == nil || p.store == nil {
		return nil
	}
	return p.store.Delete(StorageKey)
}

// GenerateToken draws a fresh 20-character token from [A-Za-z0-9].
func GenerateToken() (string, error) {
	return gonanoid.Generate(tokenAlphabet, tokenLength)
}

// ValidToken reports whether s has the exact shape of a generated token.
// Used by the HTTP layer to reject malformed X-Client-ID values.
func ValidToken(s string) bool {
	if len(s) != tokenLength {
		return false
	}
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z':
		case r >= 'A' && r <= 'Z':
		case r >= '0' && r <= '9':
		default:
			return false
		}
	}
	return true
}
