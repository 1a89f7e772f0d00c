// trigger-collect asks a running tide-server to collect and store water
// levels for every station it knows.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"time"

	"github.com/timgluz/tidevann/response"
	"github.com/timgluz/tidevann/station"
)

const (
	DefaultPeriod       = "P3D"
	DefaultStationsPath = "/stations"
	DefaultCollectPath  = "/collect"
	DefaultPageSize     = 50
)

type Config struct {
	APIEndpoint string
	APIKey      string
	Period      string

	RequestTimeout time.Duration
}

func main() {
	fmt.Println("Triggering water level collection...")
	config, err := loadConfigFromEnv(os.Getenv)
	if err != nil {
		fmt.Printf("Error loading config: %v\n", err)
		os.Exit(1)
	}

	httpClient := &http.Client{Timeout: config.RequestTimeout}
	count, err := triggerAllStations(context.Background(), httpClient, config)
	if err != nil {
		fmt.Printf("Error triggering collection: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Collection triggered for %d stations.\n", count)
}

func loadConfigFromEnv(getenv func(string) string) (*Config, error) {
	apiEndpoint := getenv("TIDE_SERVER_ENDPOINT")
	if apiEndpoint == "" {
		return nil, fmt.Errorf("TIDE_SERVER_ENDPOINT is not set")
	}

	apiKey := getenv("TIDE_API_KEY")
	if apiKey == "" {
		return nil, fmt.Errorf("TIDE_API_KEY is not set")
	}

	period := getenv("TIDE_COLLECT_PERIOD")
	if period == "" {
		period = DefaultPeriod
	}

	return &Config{
		APIEndpoint:    apiEndpoint,
		APIKey:         apiKey,
		Period:         period,
		RequestTimeout: 30 * time.Second,
	}, nil
}

func triggerAllStations(ctx context.Context, client *http.Client, config *Config) (int, error) {
	stations, err := fetchStations(ctx, client, config)
	if err != nil {
		return 0, err
	}

	if len(stations) == 0 {
		fmt.Println("No stations found to collect.")
		return 0, nil
	}

	var triggered int
	for _, st := range stations {
		if err := ctx.Err(); err != nil {
			return triggered, err
		}

		stored, err := triggerCollect(ctx, client, config, st.Code)
		if err != nil {
			fmt.Printf("Failed to trigger %s (%s): %v\n", st.Name, st.Code, err)
			continue
		}
		fmt.Printf("Triggered station: Code=%s, Name=%s, Stored=%d\n", st.Code, st.Name, stored)
		triggered++
	}

	return triggered, nil
}

// fetchStations pages through the station listing.
func fetchStations(ctx context.Context, client *http.Client, config *Config) ([]station.Station, error) {
	var stations []station.Station

	page := response.NewPagination(0, DefaultPageSize, 0)
	for {
		params := url.Values{}
		params.Set("offset", strconv.Itoa(page.Offset))
		params.Set("limit", strconv.Itoa(page.Limit))

		content, err := doRequest(ctx, client, config, http.MethodGet, DefaultStationsPath, params)
		if err != nil {
			return nil, fmt.Errorf("failed to list stations: %w", err)
		}

		var listing response.CollectionResponse[station.Station]
		if err := json.Unmarshal(content, &listing); err != nil {
			return nil, fmt.Errorf("failed to decode station list: %w", err)
		}
		stations = append(stations, listing.Items...)

		// the server may cap the page size, so continue from its window
		page.Total = listing.Total
		if listing.Pagination != nil {
			page = *listing.Pagination
		}
		next, ok := page.Next()
		if !ok || len(listing.Items) == 0 {
			return stations, nil
		}
		page = next
	}
}

// triggerCollect returns the number of water levels the server stored.
func triggerCollect(ctx context.Context, client *http.Client, config *Config, stationCode string) (int, error) {
	if stationCode == "" {
		return 0, fmt.Errorf("station code is required")
	}

	params := url.Values{}
	params.Set("station", stationCode)
	params.Set("period", config.Period)

	content, err := doRequest(ctx, client, config, http.MethodPost, DefaultCollectPath, params)
	if err != nil {
		return 0, err
	}

	var result response.ActionResponse
	if err := json.Unmarshal(content, &result); err != nil {
		return 0, fmt.Errorf("failed to decode collect response: %w", err)
	}
	return result.Count, nil
}

func doRequest(ctx context.Context, client *http.Client, config *Config, method, path string, params url.Values) ([]byte, error) {
	endpoint, err := url.JoinPath(config.APIEndpoint, path)
	if err != nil {
		return nil, fmt.Errorf("failed to construct URL: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", "Bearer "+config.APIKey)
	req.URL.RawQuery = params.Encode()

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer func(resp *http.Response) {
		if err := resp.Body.Close(); err != nil {
			fmt.Printf("failed to close response body: %v\n", err)
		}
	}(resp)

	content, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status code: %d - %s", resp.StatusCode, string(content))
	}

	return content, nil
}
