package evolution

import (
	"context"
	"strings"
	"sync"
)

// Sender is the part of the gateway API the rest of the service consumes.
type Sender interface {
	SendText(ctx context.Context, req SendTextRequest) (*SendTextResponse, error)
}

// Registry hands out gateway clients per tenant. Tenants that carry their own
// gateway credentials get a dedicated client; empty fields fall back to the
// deployment defaults. Clients are cached, so credentials are read once per
// tenant rather than once per send.
type Registry struct {
	defaults Config

	mu      sync.Mutex
	clients map[string]*Client
}

// NewRegistry creates a registry around the deployment's default gateway
// configuration.
func NewRegistry(defaults Config) *Registry {
	return &Registry{
		defaults: defaults,
		clients:  make(map[string]*Client),
	}
}

// SenderFor returns the client for the given gateway binding. Any empty field
// inherits the registry default.
func (r *Registry) SenderFor(baseURL, apiKey, instance string) (Sender, error) {
	cfg := r.defaults
	if strings.TrimSpace(baseURL) != "" {
		cfg.BaseURL = baseURL
	}
	if strings.TrimSpace(apiKey) != "" {
		cfg.APIKey = apiKey
	}
	if strings.TrimSpace(instance) != "" {
		cfg.Instance = instance
	}

	key := cfg.BaseURL + "\x00" + cfg.APIKey + "\x00" + cfg.Instance

	r.mu.Lock()
	defer r.mu.Unlock()
	if client, ok := r.clients[key]; ok {
		return client, nil
	}
	client, err := New(cfg)
	if err != nil {
		return nil, err
	}
	r.clients[key] = client
	return client, nil
}
