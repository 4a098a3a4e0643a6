// Package platform manages per-owner platform connections: starting and
// stopping the external bridge processes and tracking connection status.
package platform

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/yerzhan-k/bizbot-go/internal/store"
)

// Service is one platform's lifecycle capability. Implementations talk to
// that platform's bridge and keep the persisted connection record in sync.
type Service interface {
	Platform() store.Platform
	Start(ctx context.Context, ownerID int64, apiToken string) error
	Stop(ctx context.Context, ownerID int64) error
	Status(ctx context.Context, ownerID int64) (store.PlatformStatus, error)
	Sessions(ctx context.Context, ownerID int64) ([]store.Session, error)
}

// Registry dispatches lifecycle calls by platform identifier.
type Registry struct {
	services map[store.Platform]Service
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{services: make(map[store.Platform]Service)}
}

// Register adds a platform service.
func (r *Registry) Register(s Service) {
	r.services[s.Platform()] = s
}

// For returns the service for a platform, or an error for unknown ones.
func (r *Registry) For(p store.Platform) (Service, error) {
	s, ok := r.services[p]
	if !ok {
		return nil, fmt.Errorf("platform %s not supported", p)
	}
	return s, nil
}

// bridgeClient posts JSON control commands to a bridge process.
type bridgeClient struct {
	baseURL    string
	httpClient *http.Client
}

func newBridgeClient(baseURL string) *bridgeClient {
	return &bridgeClient{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

func (c *bridgeClient) post(ctx context.Context, path string, body map[string]any) error {
	jsonBody, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(jsonBody))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("bridge call %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("bridge %s returned %d: %s", path, resp.StatusCode, respBody)
	}
	return nil
}
