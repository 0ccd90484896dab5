// Package places provides a client for the Google Places Text Search (New)
// API, used to geocode free-text location strings.
package places

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/rotisserie/eris"
	"golang.org/x/time/rate"
)

const textSearchURL = "https://places.googleapis.com/v1/places:searchText"

// fieldMask lists the response fields requested from the API. Keeping the
// mask fixed keeps responses small and cache entries stable.
const fieldMask = "places.displayName,places.formattedAddress,places.location,places.googleMapsUri,places.types"

// Client performs text searches against the Places API.
type Client interface {
	// SearchText resolves a free-text query. An empty Places slice means
	// the query resolved to nothing; that is not an error.
	SearchText(ctx context.Context, query string) (*SearchResponse, error)
}

// SearchResponse is the JSON response from the text-search endpoint.
type SearchResponse struct {
	Places []Place `json:"places"`
}

// Place is one candidate returned by the API.
type Place struct {
	DisplayName      DisplayName `json:"displayName"`
	FormattedAddress string      `json:"formattedAddress"`
	Location         LatLng      `json:"location"`
	GoogleMapsURI    string      `json:"googleMapsUri"`
	Types            []string    `json:"types"`
}

// DisplayName is the localized place name.
type DisplayName struct {
	Text string `json:"text"`
}

// LatLng holds a coordinate pair.
type LatLng struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Bias is a circular location bias applied to every query, improving
// disambiguation of bare street names and intersections.
type Bias struct {
	Latitude  float64
	Longitude float64
	RadiusM   float64
}

// Option configures the client.
type Option func(*client)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *client) {
		c.httpClient = hc
	}
}

// WithRateLimit sets the requests-per-second limit for API calls.
func WithRateLimit(rps float64) Option {
	return func(c *client) {
		c.limiter = rate.NewLimiter(rate.Limit(rps), 1)
	}
}

// WithBias sets the circular location bias.
func WithBias(b Bias) Option {
	return func(c *client) {
		c.bias = &b
	}
}

type client struct {
	httpClient *http.Client
	apiKey     string
	limiter    *rate.Limiter
	bias       *Bias
}

// NewClient creates a Places client with the given options.
func NewClient(apiKey string, opts ...Option) Client {
	c := &client{
		httpClient: &http.Client{Timeout: 15 * time.Second},
		apiKey:     apiKey,
		limiter:    rate.NewLimiter(10, 1),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// searchRequest is the JSON request body for the text-search endpoint.
type searchRequest struct {
	TextQuery    string        `json:"textQuery"`
	LocationBias *locationBias `json:"locationBias,omitempty"`
}

type locationBias struct {
	Circle circle `json:"circle"`
}

type circle struct {
	Center LatLng  `json:"center"`
	Radius float64 `json:"radius"`
}

func (c *client) SearchText(ctx context.Context, query string) (*SearchResponse, error) {
	if c.apiKey == "" {
		return nil, eris.New("places: api key not configured")
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, eris.Wrap(err, "places: rate limit")
	}

	reqBody := searchRequest{TextQuery: query}
	if c.bias != nil {
		reqBody.LocationBias = &locationBias{
			Circle: circle{
				Center: LatLng{Latitude: c.bias.Latitude, Longitude: c.bias.Longitude},
				Radius: c.bias.RadiusM,
			},
		}
	}

	payload, err := json.Marshal(reqBody)
	if err != nil {
		return nil, eris.Wrap(err, "places: marshal request")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, textSearchURL, bytes.NewReader(payload))
	if err != nil {
		return nil, eris.Wrap(err, "places: build request")
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Goog-Api-Key", c.apiKey)
	req.Header.Set("X-Goog-FieldMask", fieldMask)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, eris.Wrap(err, "places: request")
	}
	defer resp.Body.Close() //nolint:errcheck

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, eris.Wrap(err, "places: read body")
	}

	if resp.StatusCode != http.StatusOK {
		return nil, eris.Errorf("places: status %d: %s", resp.StatusCode, string(body))
	}

	var searchResp SearchResponse
	if err := json.Unmarshal(body, &searchResp); err != nil {
		return nil, eris.Wrap(err, "places: parse response")
	}

	return &searchResp, nil
}
