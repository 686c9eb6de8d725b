// Package geo resolves free-text desired-area descriptions to coordinates.
package geo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
)

const (
	defaultBaseURL   = "https://nominatim.openstreetmap.org"
	defaultUserAgent = "lumina-offer-geocoder"
)

// ErrNotFound is returned when no location matches the query. Callers treat
// it as a terminal match failure for the run, not a retryable error.
var ErrNotFound = errors.New("location not found")

// Vague suffix words users append to area descriptions. They confuse the
// geocoder and are stripped before querying.
var vagueSuffixes = []string{"周辺", "中心部", "あたり", "付近", "辺り"}

type Coordinates struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Resolver turns an area description into coordinates.
type Resolver interface {
	Resolve(ctx context.Context, prefecture, detail string) (Coordinates, error)
}

// Client queries the Nominatim search API.
type Client struct {
	baseURL    string
	userAgent  string
	httpClient *http.Client
	logger     *zap.Logger
}

func NewClient(baseURL, userAgent string, logger *zap.Logger) *Client {
	if strings.TrimSpace(baseURL) == "" {
		baseURL = defaultBaseURL
	}
	if strings.TrimSpace(userAgent) == "" {
		userAgent = defaultUserAgent
	}

	return &Client{
		baseURL:   strings.TrimRight(baseURL, "/"),
		userAgent: userAgent,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		logger: logger,
	}
}

// Resolve geocodes "prefecture detail" after cleaning the detail string.
func (c *Client) Resolve(ctx context.Context, prefecture, detail string) (Coordinates, error) {
	query := strings.TrimSpace(prefecture + " " + CleanArea(detail))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/search", nil)
	if err != nil {
		return Coordinates{}, err
	}

	q := url.Values{}
	q.Set("q", query)
	q.Set("format", "json")
	q.Set("limit", "1")
	req.URL.RawQuery = q.Encode()
	req.Header.Set("User-Agent", c.userAgent)

	c.logger.Debug("geocoding request", zap.String("query", query))

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Coordinates{}, fmt.Errorf("geocode %q: %w", query, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Coordinates{}, fmt.Errorf("geocode %q: bad status: %s", query, resp.Status)
	}

	var results []struct {
		Lat string `json:"lat"`
		Lon string `json:"lon"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&results); err != nil {
		return Coordinates{}, fmt.Errorf("decode geocoding response: %w", err)
	}

	if len(results) == 0 {
		return Coordinates{}, fmt.Errorf("geocode %q: %w", query, ErrNotFound)
	}

	lat, err := strconv.ParseFloat(results[0].Lat, 64)
	if err != nil {
		return Coordinates{}, fmt.Errorf("parse latitude: %w", err)
	}
	lng, err := strconv.ParseFloat(results[0].Lon, 64)
	if err != nil {
		return Coordinates{}, fmt.Errorf("parse longitude: %w", err)
	}

	return Coordinates{Latitude: lat, Longitude: lng}, nil
}

// CleanArea strips the vague suffix words and keeps only the first
// whitespace-delimited token of the detail string.
func CleanArea(detail string) string {
	cleaned := strings.TrimSpace(detail)
	for _, suffix := range vagueSuffixes {
		cleaned = strings.ReplaceAll(cleaned, suffix, "")
	}

	fields := strings.FieldsFunc(cleaned, func(r rune) bool {
		return r == ' ' || r == '　' || r == '\t'
	})
	if len(fields) == 0 {
		return ""
	}
	return fields[0]
}
