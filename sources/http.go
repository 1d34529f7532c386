package sources

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/brettbedarf/namefs"
	"github.com/brettbedarf/namefs/internal/util"
)

type HTTPMethod = string

const (
	HTTPMethodGet  HTTPMethod = "GET"
	HTTPMethodPost HTTPMethod = "POST"
)

// DefaultHTTPTimeout bounds one fetch of an http source
const DefaultHTTPTimeout = 30 * time.Second

// HTTPSource contains http-specific source definition fields
type HTTPSource struct {
	URL     string            `json:"url"`
	Method  *HTTPMethod       `json:"method,omitempty"` // Default is GET
	Headers map[string]string `json:"headers,omitempty"`
}

// HTTPClient is the subset of *http.Client the provider needs
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// HTTPProvider builds byte sources that fetch a URL's body on first read
type HTTPProvider struct {
	client HTTPClient
}

var _ namefs.SourceProvider = (*HTTPProvider)(nil)

func NewHTTPProvider(client HTTPClient) *HTTPProvider {
	if client == nil {
		client = &http.Client{Timeout: DefaultHTTPTimeout}
	}
	return &HTTPProvider{client: client}
}

func RegisterHTTP(r *Registry) {
	r.Register(HTTPSourceType, NewHTTPProvider(nil))
}

func (p *HTTPProvider) NewSource(raw []byte) (namefs.ByteSource, error) {
	var cfg HTTPSource
	if err := json.Unmarshal(raw, &cfg); err != nil {
		return nil, err
	}
	u, err := validateURL(cfg.URL)
	if err != nil {
		return nil, err
	}
	cfg.URL = u
	a := &HTTPAdapter{config: &cfg, client: p.client}
	return &lazySource{fetch: a.fetch}, nil
}

// validateURL accepts absolute http(s) URLs without user info
func validateURL(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", fmt.Errorf("http source is missing a url")
	}
	u, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("invalid url %q: %w", raw, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", fmt.Errorf("unsupported url scheme %q", u.Scheme)
	}
	if u.Host == "" {
		return "", fmt.Errorf("url %q has no host", raw)
	}
	if u.User != nil {
		return "", fmt.Errorf("url %q must not carry user info", raw)
	}
	return u.String(), nil
}

// HTTPAdapter performs the requests of one [HTTPSource]
type HTTPAdapter struct {
	config *HTTPSource
	client HTTPClient
}

func (h *HTTPAdapter) newRequest(ctx context.Context) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, h.getMethod(), h.config.URL, nil)
	if err != nil {
		return nil, err
	}

	// Add custom headers
	for k, v := range h.config.Headers {
		req.Header.Set(k, v)
	}

	return req, nil
}

func (h *HTTPAdapter) fetch() ([]byte, error) {
	logger := util.GetLogger("HTTPAdapter")

	req, err := h.newRequest(context.Background())
	if err != nil {
		return nil, err
	}
	resp, err := h.client.Do(req)
	if err != nil {
		logger.Debug().Err(err).Str("url", h.config.URL).Msg("Request failed")
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("%s %s: unexpected status %s", req.Method, h.config.URL, resp.Status)
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	logger.Trace().Str("url", h.config.URL).Int("size", len(data)).Msg("Fetched source")
	return data, nil
}

func (h *HTTPAdapter) getMethod() HTTPMethod {
	if h.config.Method != nil {
		return *h.config.Method
	}
	return HTTPMethodGet
}
