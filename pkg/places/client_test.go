package places

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// rewriteTransport redirects every request to the test server.
type rewriteTransport struct {
	target *url.URL
}

func (t rewriteTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	req.URL.Scheme = t.target.Scheme
	req.URL.Host = t.target.Host
	return http.DefaultTransport.RoundTrip(req)
}

func testClient(t *testing.T, srv *httptest.Server, opts ...Option) Client {
	t.Helper()
	target, err := url.Parse(srv.URL)
	require.NoError(t, err)
	opts = append(opts, WithHTTPClient(&http.Client{Transport: rewriteTransport{target: target}}))
	return NewClient("test-key", opts...)
}

func TestSearchText(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "test-key", r.Header.Get("X-Goog-Api-Key"))
		assert.NotEmpty(t, r.Header.Get("X-Goog-FieldMask"))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "COWPER ST, Palo Alto, CA", body["textQuery"])

		json.NewEncoder(w).Encode(SearchResponse{Places: []Place{{
			FormattedAddress: "Cowper St, Palo Alto, CA 94301, USA",
			Location:         LatLng{Latitude: 37.444, Longitude: -122.155},
			Types:            []string{"route"},
		}}})
	}))
	defer srv.Close()

	c := testClient(t, srv)
	resp, err := c.SearchText(context.Background(), "COWPER ST, Palo Alto, CA")
	require.NoError(t, err)
	require.Len(t, resp.Places, 1)
	assert.Equal(t, 37.444, resp.Places[0].Location.Latitude)
	assert.Equal(t, []string{"route"}, resp.Places[0].Types)
}

func TestSearchTextSendsBias(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body searchRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		require.NotNil(t, body.LocationBias)
		assert.Equal(t, 37.4419, body.LocationBias.Circle.Center.Latitude)
		assert.Equal(t, 15000.0, body.LocationBias.Circle.Radius)

		json.NewEncoder(w).Encode(SearchResponse{})
	}))
	defer srv.Close()

	c := testClient(t, srv, WithBias(Bias{Latitude: 37.4419, Longitude: -122.1430, RadiusM: 15000}))
	_, err := c.SearchText(context.Background(), "somewhere")
	require.NoError(t, err)
}

func TestSearchTextNoResults(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// The API omits "places" entirely when nothing matches.
		w.Write([]byte("{}"))
	}))
	defer srv.Close()

	c := testClient(t, srv)
	resp, err := c.SearchText(context.Background(), "nowhere at all")
	require.NoError(t, err)
	assert.Empty(t, resp.Places)
}

func TestSearchTextErrorStatus(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error": {"status": "PERMISSION_DENIED"}}`, http.StatusForbidden)
	}))
	defer srv.Close()

	c := testClient(t, srv)
	_, err := c.SearchText(context.Background(), "anything")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "403")
}

func TestSearchTextMissingKey(t *testing.T) {
	t.Parallel()

	c := NewClient("")
	_, err := c.SearchText(context.Background(), "anything")
	assert.Error(t, err)
}
