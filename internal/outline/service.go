package outline

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"git.home.luguber.info/inful/repowiki/internal/analysis"
	derrors "git.home.luguber.info/inful/repowiki/internal/foundation/errors"
)

// maxOutlineBytes caps how much of a service response is read; an outline
// larger than this is not a structure we would ever render.
const maxOutlineBytes = 1 << 20

// ServiceClient calls an external outline generation service. The service
// receives the analyzed repository and replies with either outline shape.
type ServiceClient struct {
	endpoint string
	http     *http.Client
}

// NewServiceClient builds a client for the given endpoint. The timeout
// bounds the whole request including body read.
func NewServiceClient(endpoint string, timeout time.Duration) *ServiceClient {
	return &ServiceClient{
		endpoint: strings.TrimRight(endpoint, "/"),
		http:     &http.Client{Timeout: timeout},
	}
}

type serviceRequest struct {
	Repository *analysis.Repository `json:"repository"`
}

// Generate posts the repository to the service and parses the returned
// outline. Errors carry the response diagnostics the service sent back.
func (c *ServiceClient) Generate(ctx context.Context, repo *analysis.Repository) (*Outline, error) {
	payload, err := json.Marshal(serviceRequest{Repository: repo})
	if err != nil {
		return nil, derrors.WrapError(err, derrors.CategoryOutline, "encoding outline request").Build()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, derrors.WrapError(err, derrors.CategoryOutline, "building outline request").
			WithContext("url", c.endpoint).
			Build()
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, derrors.WrapError(err, derrors.CategoryOutline, "outline service unreachable").
			WithContext("url", c.endpoint).
			Retryable().
			Build()
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= 400 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, derrors.NewError(derrors.CategoryOutline,
			fmt.Sprintf("outline service returned status %d", resp.StatusCode)).
			WithContext("url", c.endpoint).
			WithContext("response", strings.TrimSpace(string(body))).
			Build()
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxOutlineBytes))
	if err != nil {
		return nil, derrors.WrapError(err, derrors.CategoryOutline, "reading outline response").
			WithContext("url", c.endpoint).
			Build()
	}
	return Parse(data)
}
