package tideapi

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/timgluz/tidevann/xmltree"
)

const DefaultUserAgent = "tidevann/1.0"

type HTTPProvider struct {
	client    *http.Client
	logger    *slog.Logger
	userAgent string
}

func NewHTTPProvider(client *http.Client, logger *slog.Logger) *HTTPProvider {
	return &HTTPProvider{
		client:    client,
		logger:    logger,
		userAgent: DefaultUserAgent,
	}
}

func (p *HTTPProvider) IsReady() bool {
	if p.logger == nil {
		fmt.Println("Logger of HTTPProvider is not initialized")
		return false
	}

	if p.client == nil {
		p.logger.Error("HTTP client is not set for HTTPProvider")
		return false
	}

	return true
}

// RetrieveContent issues one GET request and returns the full body.
func (p *HTTPProvider) RetrieveContent(ctx context.Context, endpoint string, params url.Values) (io.Reader, error) {
	if !p.IsReady() {
		return nil, ErrProviderNotReady
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request for %s: %w", endpoint, err)
	}
	req.URL.RawQuery = params.Encode()
	req.Header.Set("Accept", "application/xml, text/xml")
	req.Header.Set("User-Agent", p.userAgent)

	p.logger.Debug("Requesting tide data", "url", req.URL.String())
	resp, err := p.client.Do(req)
	if err != nil {
		return nil, err
	}

	defer func(resp *http.Response) {
		if err := resp.Body.Close(); err != nil {
			p.logger.Error("Failed to close response body", "url", endpoint, "error", err)
		}
	}(resp)

	if resp.StatusCode != http.StatusOK {
		if resp.StatusCode == http.StatusNotFound {
			return nil, ErrResourceNotFound
		}

		return nil, fmt.Errorf("failed to fetch %s: %s", params.Get("tide_request"), resp.Status)
	}

	content, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read content from URL %s: %w", endpoint, err)
	}

	if len(content) == 0 {
		p.logger.Warn("No content received from URL", "url", endpoint)
		return nil, ErrNoContent
	}

	p.logger.Debug("Content retrieved successfully", "url", endpoint, "length", len(content))
	return bytes.NewReader(content), nil
}

// RetrieveDocument fetches and converts a markup response into
// {rootTag: value} form. Unparseable bodies are malformed responses.
func (p *HTTPProvider) RetrieveDocument(ctx context.Context, endpoint string, params url.Values) (xmltree.Value, error) {
	content, err := p.RetrieveContent(ctx, endpoint, params)
	if err != nil {
		return xmltree.Value{}, err
	}

	root, err := xmltree.Parse(content)
	if err != nil {
		return xmltree.Value{}, newError(KindMalformedResponse, "unparseable response", "", err)
	}

	return xmltree.MappingValue(xmltree.ToMapping(root)), nil
}
