package erclient

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/senzing-garage/data-mart-replicator/internal/model"
)

// HTTPClient is the reference Client binding to an ER engine exposed as
// an HTTP service (Senzing's own getEntity REST surface), built on
// net/http the same way the donor's handlers talk HTTP
// (sdk/handlers/http.go) — no HTTP client library appears anywhere in
// this module's dependency graph, matching the donor's own choice.
type HTTPClient struct {
	baseURL string
	http    *http.Client
}

// NewHTTPClient builds an HTTPClient against baseURL (e.g.
// "http://er-engine:8080"), with requests bounded by timeout.
func NewHTTPClient(baseURL string, timeout time.Duration) *HTTPClient {
	return &HTTPClient{
		baseURL: baseURL,
		http:    &http.Client{Timeout: timeout},
	}
}

// GetEntity implements Client by calling the engine's getEntity endpoint
// and decoding its response with DecodeResolvedEntity. A 404 response is
// reported as ok=false rather than an error, per §6's "absent ⇒ current
// = removed".
func (c *HTTPClient) GetEntity(ctx context.Context, id int64) (model.ResolvedEntity, bool, error) {
	url := fmt.Sprintf("%s/entities/%d", c.baseURL, id)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return model.ResolvedEntity{}, false, fmt.Errorf("erclient: build request: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return model.ResolvedEntity{}, false, fmt.Errorf("erclient: call getEntity %d: %w", id, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return model.ResolvedEntity{}, false, nil
	}
	if resp.StatusCode != http.StatusOK {
		return model.ResolvedEntity{}, false, fmt.Errorf("erclient: getEntity %d: unexpected status %d", id, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return model.ResolvedEntity{}, false, fmt.Errorf("erclient: read getEntity %d response: %w", id, err)
	}

	entity, err := DecodeResolvedEntity(body)
	if err != nil {
		return model.ResolvedEntity{}, false, fmt.Errorf("erclient: decode getEntity %d response: %w", id, err)
	}
	return entity, true, nil
}
