package collector

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"UpkeepSentinel/internal/model"
)

const (
	DefaultBaseURL = "https://api.torn.com"
	maxBodySize    = 1 << 20
)

// authErrorCodes are API error codes that mean the key itself is unusable.
var authErrorCodes = map[int]bool{
	1:  true, // key is empty
	2:  true, // incorrect key
	10: true, // key owner is in federal jail
	13: true, // key disabled due to owner inactivity
	16: true, // access level of this key is not high enough
	18: true, // api key has been paused by the owner
}

// apiError is the error envelope every endpoint may answer with.
type apiError struct {
	Error *struct {
		Code    int    `json:"code"`
		Message string `json:"error"`
	} `json:"error"`
}

// apiClient holds the HTTP plumbing shared by the JSON fetchers.
type apiClient struct {
	BaseURL string
	Client  *http.Client
}

func newAPIClient(baseURL, proxyURL string) apiClient {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return apiClient{
		BaseURL: strings.TrimRight(baseURL, "/"),
		Client:  newHTTPClient(proxyURL),
	}
}

// newHTTPClient creates an HTTP client with optional proxy support.
func newHTTPClient(proxyURL string) *http.Client {
	transport := &http.Transport{}
	if proxyURL != "" {
		if u, err := url.Parse(proxyURL); err == nil {
			transport.Proxy = http.ProxyURL(u)
		}
	}
	return &http.Client{
		Timeout:   30 * time.Second,
		Transport: transport,
	}
}

// getJSON requests path with the key as query parameter and decodes the body
// into out. The returned error wraps ErrCredentialInvalid or ErrTransientFetch.
func (c apiClient) getJSON(ctx context.Context, path string, query url.Values, out any) error {
	body, err := get(ctx, c.Client, c.BaseURL+path, query)
	if err != nil {
		return err
	}

	var envelope apiError
	if err := json.Unmarshal(body, &envelope); err != nil {
		return fmt.Errorf("%w: decode response: %v", model.ErrTransientFetch, err)
	}
	if e := envelope.Error; e != nil {
		if authErrorCodes[e.Code] {
			return fmt.Errorf("%w: api error %d: %s", model.ErrCredentialInvalid, e.Code, e.Message)
		}
		return fmt.Errorf("%w: api error %d: %s", model.ErrTransientFetch, e.Code, e.Message)
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("%w: decode payload: %v", model.ErrTransientFetch, err)
	}
	return nil
}

func get(ctx context.Context, client *http.Client, endpoint string, query url.Values) ([]byte, error) {
	u, err := url.Parse(endpoint)
	if err != nil {
		return nil, fmt.Errorf("%w: build url: %v", model.ErrConfigInvalid, err)
	}
	q := u.Query()
	for k, vs := range query {
		for _, v := range vs {
			q.Add(k, v)
		}
	}
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("%w: build request: %v", model.ErrTransientFetch, err)
	}
	req.Header.Set("User-Agent", "UpkeepSentinel/1.0")

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", model.ErrTransientFetch, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, fmt.Errorf("%w: read body: %v", model.ErrTransientFetch, err)
	}
	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return nil, fmt.Errorf("%w: status %d", model.ErrCredentialInvalid, resp.StatusCode)
	case resp.StatusCode != http.StatusOK:
		return nil, fmt.Errorf("%w: status %d, body: %s", model.ErrTransientFetch, resp.StatusCode, truncate(body, 200))
	}
	return body, nil
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}
