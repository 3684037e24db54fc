package server

import (
	"net/http"

	"github.com/pkg/errors"
)

// Credential header checked by the gate, mirroring what the devices send.
const apiKeyHeader = "x-api-key"

var (
	// ErrMissingCredential rejects requests that carry no API key header.
	ErrMissingCredential = errors.New("server: missing API key header")

	// ErrInvalidCredential rejects requests whose key does not match.
	ErrInvalidCredential = errors.New("server: invalid API key")
)

// Gate enforces the single fleet-wide shared secret. The secret is injected
// at construction, not read from ambient globals, so its presence is a
// deterministic input. An empty secret disables the gate entirely.
type Gate struct {
	APIKey string
}

// Check validates the request's credential header against the configured
// secret. It distinguishes an absent header from a mismatching one.
func (g Gate) Check(r *http.Request) error {
	if g.APIKey == "" {
		return nil
	}
	key := r.Header.Get(apiKeyHeader)
	if key == "" {
		return ErrMissingCredential
	}
	if key != g.APIKey {
		return ErrInvalidCredential
	}
	return nil
}
