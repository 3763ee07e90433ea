package openweather

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/crudapp/apiserver/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	return NewClient(config.WeatherConfig{
		APIKey:       "test-key",
		GeocodingURL: srv.URL + "/geo/1.0/zip",
		OneCallURL:   srv.URL + "/data/3.0/onecall",
		Timeout:      2 * time.Second,
	}, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestDecodeCoordinates(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		wantLat float64
		wantLon float64
		wantErr bool
	}{
		{name: "object", body: `{"zip":"10001","name":"New York","lat":40.75,"lon":-73.99,"country":"US"}`, wantLat: 40.75, wantLon: -73.99},
		{name: "array", body: `[{"lat":34.05,"lon":-118.24,"name":"Los Angeles"}]`, wantLat: 34.05, wantLon: -118.24},
		{name: "zero object", body: `{"lat":0,"lon":0}`, wantErr: true},
		{name: "zero latitude", body: `{"lat":0,"lon":12.5}`, wantErr: true},
		{name: "empty array", body: `[]`, wantErr: true},
		{name: "not json", body: `<html>`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			coords, err := decodeCoordinates([]byte(tt.body))
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrNoCoordinates)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantLat, coords.Latitude)
			assert.Equal(t, tt.wantLon, coords.Longitude)
		})
	}
}

func TestGeocodeZip_SendsQuery(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/geo/1.0/zip", r.URL.Path)
		assert.Equal(t, "94040,US", r.URL.Query().Get("zip"))
		assert.Equal(t, "test-key", r.URL.Query().Get("appid"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"name":"Mountain View","lat":37.38,"lon":-122.08,"country":"US"}`))
	})

	coords, err := client.GeocodeZip(context.Background(), "94040", "US")
	require.NoError(t, err)
	assert.Equal(t, "Mountain View", coords.Name)
	assert.Equal(t, 37.38, coords.Latitude)
}

func TestGeocodeZip_HTTPError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"cod":"404","message":"not found"}`, http.StatusNotFound)
	})

	_, err := client.GeocodeZip(context.Background(), "00000", "US")
	var httpErr *HTTPError
	require.True(t, errors.As(err, &httpErr))
	assert.Equal(t, http.StatusNotFound, httpErr.StatusCode)
	assert.Contains(t, httpErr.Body, "not found")
}

func TestDailyForecast(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		assert.Equal(t, "/data/3.0/onecall", r.URL.Path)
		assert.Equal(t, "40.75", q.Get("lat"))
		assert.Equal(t, "-73.99", q.Get("lon"))
		assert.Equal(t, "current,minutely,hourly,alerts", q.Get("exclude"))
		assert.Equal(t, "imperial", q.Get("units"))
		_, _ = w.Write([]byte(`{"daily":[{"dt":1700000000,"temp":{"min":1.5,"max":9.25},"weather":[{"description":"light rain"}],"pop":0.4},{"dt":1700086400}]}`))
	})

	resp, err := client.DailyForecast(context.Background(), 40.75, -73.99, "imperial")
	require.NoError(t, err)
	require.Len(t, resp.Daily, 2)
	assert.Equal(t, int64(1700000000), resp.Daily[0].Dt)
	require.NotNil(t, resp.Daily[0].Temp)
	assert.Equal(t, 9.25, resp.Daily[0].Temp.Max)
	assert.Equal(t, "light rain", resp.Daily[0].Weather[0].Description)
	assert.Nil(t, resp.Daily[1].Temp)
}

func TestDailyForecast_MalformedBody(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"daily":`))
	})

	_, err := client.DailyForecast(context.Background(), 1, 1, "metric")
	require.Error(t, err)
	var httpErr *HTTPError
	assert.False(t, errors.As(err, &httpErr))
}

func TestClient_RateLimitHonoursContext(t *testing.T) {
	client := NewClient(config.WeatherConfig{
		APIKey:     "k",
		OneCallURL: "http://127.0.0.1:0",
		RateLimit:  0.001,
		RateBurst:  1,
	}, slog.New(slog.NewTextHandler(io.Discard, nil)))

	// consume the only token
	require.True(t, client.limiter.Allow())

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err := client.DailyForecast(ctx, 1, 1, "metric")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "rate limit wait")
}

func TestClient_TransportErrorOmitsAPIKey(t *testing.T) {
	closed := httptest.NewServer(http.NotFoundHandler())
	addr := closed.URL
	closed.Close()

	const key = "SUPERSECRET123"
	client := NewClient(config.WeatherConfig{
		APIKey:       key,
		GeocodingURL: addr + "/geo/1.0/zip",
		Timeout:      time.Second,
	}, slog.New(slog.NewTextHandler(io.Discard, nil)))

	_, err := client.GeocodeZip(context.Background(), "10001", "US")
	require.Error(t, err)
	assert.NotContains(t, err.Error(), key)
	assert.NotContains(t, err.Error(), "appid")
	assert.Contains(t, err.Error(), addr+"/geo/1.0/zip")
}

func TestClient_TimeoutKeepsCause(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	})

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err := client.DailyForecast(ctx, 1, 1, "metric")
	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.NotContains(t, err.Error(), "test-key")
}

func TestNewClient_TrimsAPIKey(t *testing.T) {
	var gotKey string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotKey = r.URL.Query().Get("appid")
		_, _ = w.Write([]byte(`{"daily":[]}`))
	}))
	defer srv.Close()

	client := NewClient(config.WeatherConfig{
		APIKey:     "  padded-key \n",
		OneCallURL: srv.URL,
		Timeout:    time.Second,
	}, slog.New(slog.NewTextHandler(io.Discard, nil)))

	_, err := client.DailyForecast(context.Background(), 1, 1, "metric")
	require.NoError(t, err)
	assert.Equal(t, "padded-key", gotKey)
}
