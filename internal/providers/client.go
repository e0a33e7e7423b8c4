package providers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/TechnesSoluciones/cloud-governance-copilot/internal/utils"
)

const maxErrorBodyBytes = 2048

// apiClient is the shared JSON-over-HTTP transport for vendor adapters. Each
// adapter supplies its base URL and an auth decorator; error responses are
// classified into the failure taxonomy before they leave the transport.
type apiClient struct {
	baseURL    string
	httpClient *http.Client
	authorize  func(req *http.Request)
}

func newAPIClient(baseURL string, timeout time.Duration, authorize func(req *http.Request)) *apiClient {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &apiClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
		authorize:  authorize,
	}
}

func (c *apiClient) getJSON(ctx context.Context, op, path string, query url.Values, out any) error {
	endpoint := c.resolve(path)
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return utils.NewAppError(op, utils.KindInvalid, "build request", err)
	}
	return c.do(op, req, out)
}

func (c *apiClient) postJSON(ctx context.Context, op, path string, payload, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return utils.NewAppError(op, utils.KindInvalid, "marshal payload", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.resolve(path), bytes.NewReader(body))
	if err != nil {
		return utils.NewAppError(op, utils.KindInvalid, "build request", err)
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(op, req, out)
}

func (c *apiClient) do(op string, req *http.Request, out any) error {
	if c.authorize != nil {
		c.authorize(req)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return utils.NewAppError(op, utils.KindTransient, "request failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodyBytes))
		kind := utils.KindFromStatus(resp.StatusCode)
		if kind == utils.KindTransient {
			// Some vendors bury the real failure in the body of a 500.
			if bodyKind := utils.KindFromMessage(string(snippet)); bodyKind != utils.KindTransient {
				kind = bodyKind
			}
		}
		msg := fmt.Sprintf("vendor returned %s", resp.Status)
		if len(snippet) > 0 {
			msg = fmt.Sprintf("%s: %s", msg, strings.TrimSpace(string(snippet)))
		}
		return utils.NewAppError(op, kind, msg, nil)
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return utils.NewAppError(op, utils.KindTransient, "decode response", err)
	}
	return nil
}

func (c *apiClient) resolve(p string) string {
	if c.baseURL == "" {
		return p
	}
	return c.baseURL + "/" + strings.TrimLeft(p, "/")
}
