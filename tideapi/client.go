package tideapi

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/timgluz/tidevann/station"
	"github.com/timgluz/tidevann/xmltree"
)

const (
	DefaultAPIURL  = "https://vannstand.kartverket.no/tideapi.php"
	DefaultTimeout = 30 * time.Second
)

type levelsKey struct {
	code     string
	language string
	refCode  string
}

// Client talks to the tide API. Station list, language list and station
// levels are cached on the instance until ForceRefresh is called.
//
// A Client is not safe for concurrent use.
type Client struct {
	url      string
	provider *HTTPProvider
	logger   *slog.Logger
	now      func() time.Time

	stations  station.List
	languages []LanguageCode
	levels    map[levelsKey]xmltree.Value
}

// NewClient builds a client for apiURL. An empty apiURL selects the public
// endpoint and a nil httpClient one with DefaultTimeout.
func NewClient(apiURL string, httpClient *http.Client, logger *slog.Logger) *Client {
	if apiURL == "" {
		apiURL = DefaultAPIURL
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: DefaultTimeout}
	}

	return &Client{
		url:      apiURL,
		provider: NewHTTPProvider(httpClient, logger),
		logger:   logger,
		now:      time.Now,
		levels:   make(map[levelsKey]xmltree.Value),
	}
}

func (c *Client) URL() string {
	return c.url
}

func (c *Client) IsReady() bool {
	if c.logger == nil {
		fmt.Println("Logger of tide client is not initialized")
		return false
	}

	if c.url == "" {
		c.logger.Error("API URL is not set for tide client")
		return false
	}

	return c.provider.IsReady()
}

// ForceRefresh drops every cached response.
func (c *Client) ForceRefresh() {
	c.stations = nil
	c.languages = nil
	c.levels = make(map[levelsKey]xmltree.Value)
}
