// Package modrinth is a typed client for the Modrinth v2 HTTP API,
// covering the search, versions and file download endpoints modsmith
// consumes.
package modrinth

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/modsmith/modsmith/pkg/errors"
	"github.com/modsmith/modsmith/pkg/logging"
)

// DefaultBaseURL is the public Modrinth API endpoint.
const DefaultBaseURL = "https://api.modrinth.com/v2"

// ClientConfig holds configuration for the Modrinth client.
type ClientConfig struct {
	// BaseURL is the API root, without a trailing slash.
	BaseURL string
	// UserAgent is sent on every request; Modrinth requires one.
	UserAgent string
	// Timeout is the total per-request timeout.
	Timeout time.Duration
	// ConnectTimeout bounds connection establishment.
	ConnectTimeout time.Duration
	// MaxResponseBytes bounds JSON response reads.
	MaxResponseBytes int64
}

// DefaultConfig returns a ClientConfig with default values.
func DefaultConfig() ClientConfig {
	return ClientConfig{
		BaseURL:          DefaultBaseURL,
		UserAgent:        "modsmith/modsmith",
		Timeout:          60 * time.Second,
		ConnectTimeout:   10 * time.Second,
		MaxResponseBytes: 10 << 20,
	}
}

// Client talks to the Modrinth API. It is safe for concurrent use;
// all consumers share one underlying http.Client.
type Client struct {
	config     ClientConfig
	httpClient *http.Client
}

// NewClient creates a Modrinth client with the given configuration.
// Zero fields fall back to defaults.
func NewClient(config ClientConfig) *Client {
	defaults := DefaultConfig()
	if config.BaseURL == "" {
		config.BaseURL = defaults.BaseURL
	}
	if config.UserAgent == "" {
		config.UserAgent = defaults.UserAgent
	}
	if config.Timeout == 0 {
		config.Timeout = defaults.Timeout
	}
	if config.ConnectTimeout == 0 {
		config.ConnectTimeout = defaults.ConnectTimeout
	}
	if config.MaxResponseBytes == 0 {
		config.MaxResponseBytes = defaults.MaxResponseBytes
	}
	config.BaseURL = strings.TrimRight(config.BaseURL, "/")

	return &Client{
		config: config,
		httpClient: &http.Client{
			Timeout: config.Timeout,
			Transport: &http.Transport{
				DialContext: (&net.Dialer{
					Timeout: config.ConnectTimeout,
				}).DialContext,
			},
		},
	}
}

// SearchOptions filter a search request.
type SearchOptions struct {
	// GameVersions filters hits to these Minecraft versions.
	GameVersions []string
	// Loaders filters hits to these loaders (fabric, forge, ...).
	Loaders []string
	// ProjectType filters hits to one project type ("mod", "resourcepack", ...).
	ProjectType string
	// Limit caps the number of hits (Modrinth caps at 100).
	Limit int
}

// Search queries the search endpoint. Filters are expressed as facets:
// inner lists are OR-ed, outer lists are AND-ed. Loaders are filed under
// the categories facet, which is how the search index stores them.
func (c *Client) Search(ctx context.Context, query string, opts SearchOptions) (*SearchResult, error) {
	params := url.Values{}
	if query != "" {
		params.Set("query", query)
	}

	var facets [][]string
	if opts.ProjectType != "" {
		facets = append(facets, []string{"project_type:" + opts.ProjectType})
	}
	if len(opts.Loaders) > 0 {
		group := make([]string, 0, len(opts.Loaders))
		for _, loader := range opts.Loaders {
			group = append(group, "categories:"+loader)
		}
		facets = append(facets, group)
	}
	if len(opts.GameVersions) > 0 {
		group := make([]string, 0, len(opts.GameVersions))
		for _, version := range opts.GameVersions {
			group = append(group, "versions:"+version)
		}
		facets = append(facets, group)
	}
	if len(facets) > 0 {
		encoded, err := json.Marshal(facets)
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrInternal, "failed to encode search facets")
		}
		params.Set("facets", string(encoded))
	}

	limit := opts.Limit
	if limit <= 0 {
		limit = 10
	}
	if limit > 100 {
		limit = 100
	}
	params.Set("limit", fmt.Sprintf("%d", limit))
	params.Set("index", "relevance")

	var result SearchResult
	if err := c.getJSON(ctx, "/search?"+params.Encode(), &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// ProjectVersions fetches every version of a project, newest first.
func (c *Client) ProjectVersions(ctx context.Context, projectID string) ([]ProjectVersion, error) {
	var versions []ProjectVersion
	path := "/project/" + url.PathEscape(projectID) + "/version"
	if err := c.getJSON(ctx, path, &versions); err != nil {
		return nil, err
	}
	return versions, nil
}

// FetchFile downloads a file artifact from its CDN URL and returns the
// raw bytes. Hash verification is the caller's responsibility.
func (c *Client) FetchFile(ctx context.Context, fileURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fileURL, nil)
	if err != nil {
		return nil, errors.Wrapf(err, errors.ErrInternal, "failed to create request for %s", fileURL)
	}
	req.Header.Set("User-Agent", c.config.UserAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, errors.Wrapf(err, errors.ErrNetwork, "failed to download %s", fileURL)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, errors.Newf(errors.ErrAPIStatus, "download of %s returned HTTP %d", fileURL, resp.StatusCode).
			WithDetail("status", resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.Wrapf(err, errors.ErrNetwork, "failed to read body of %s", fileURL)
	}
	return data, nil
}

// getJSON issues a GET against the API root and decodes the JSON body.
func (c *Client) getJSON(ctx context.Context, path string, out interface{}) error {
	logger := logging.GetLogger("modrinth")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.config.BaseURL+path, nil)
	if err != nil {
		return errors.Wrapf(err, errors.ErrInternal, "failed to create request for %s", path)
	}
	req.Header.Set("User-Agent", c.config.UserAgent)
	req.Header.Set("Accept", "application/json")

	logger.Trace().Str("path", path).Msg("API request")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return errors.Wrapf(err, errors.ErrNetwork, "request to %s failed", path)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode == http.StatusNotFound {
		return errors.Newf(errors.ErrNotFound, "%s returned HTTP 404", path)
	}
	if resp.StatusCode != http.StatusOK {
		return errors.Newf(errors.ErrAPIStatus, "%s returned HTTP %d", path, resp.StatusCode).
			WithDetail("status", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, c.config.MaxResponseBytes))
	if err != nil {
		return errors.Wrapf(err, errors.ErrNetwork, "failed to read body of %s", path)
	}

	if err := json.Unmarshal(body, out); err != nil {
		return errors.Wrapf(err, errors.ErrAPIDecode, "unexpected response shape from %s", path)
	}
	return nil
}
