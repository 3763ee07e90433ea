// Package openweather talks to the OpenWeatherMap geocoding and One Call APIs.
package openweather

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/crudapp/apiserver/config"
	"github.com/crudapp/apiserver/types"
	"github.com/pkg/errors"
	"golang.org/x/time/rate"
)

const forecastExclude = "current,minutely,hourly,alerts"

// ErrNoCoordinates is returned when a geocoding response carries no usable position.
var ErrNoCoordinates = errors.New("no usable coordinates in geocoding response")

// HTTPError is a non-2xx response from the upstream API.
type HTTPError struct {
	StatusCode int
	Body       string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("upstream returned status %d: %s", e.StatusCode, e.Body)
}

type Client struct {
	apiKey       string
	geocodingURL string
	oneCallURL   string
	httpClient   *http.Client
	limiter      *rate.Limiter
	logger       *slog.Logger
}

func NewClient(cfg config.WeatherConfig, logger *slog.Logger) *Client {
	limit := rate.Inf
	if cfg.RateLimit > 0 {
		limit = rate.Limit(cfg.RateLimit)
	}
	burst := cfg.RateBurst
	if burst < 1 {
		burst = 1
	}

	return &Client{
		apiKey:       strings.TrimSpace(cfg.APIKey),
		geocodingURL: cfg.GeocodingURL,
		oneCallURL:   cfg.OneCallURL,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		limiter: rate.NewLimiter(limit, burst),
		logger:  logger,
	}
}

// GeocodeZip resolves a postal code to coordinates.
func (c *Client) GeocodeZip(ctx context.Context, zip, country string) (types.Coordinates, error) {
	params := url.Values{}
	params.Set("zip", zip+","+country)
	params.Set("appid", c.apiKey)

	body, err := c.get(ctx, c.geocodingURL, params)
	if err != nil {
		return types.Coordinates{}, err
	}
	return decodeCoordinates(body)
}

// DailyForecast fetches the daily section of the One Call forecast.
func (c *Client) DailyForecast(ctx context.Context, lat, lon float64, units string) (OneCallResponse, error) {
	params := url.Values{}
	params.Set("lat", strconv.FormatFloat(lat, 'f', -1, 64))
	params.Set("lon", strconv.FormatFloat(lon, 'f', -1, 64))
	params.Set("exclude", forecastExclude)
	params.Set("units", units)
	params.Set("appid", c.apiKey)

	return getJSON[OneCallResponse](ctx, c, c.oneCallURL, params)
}

func getJSON[T any](ctx context.Context, c *Client, endpoint string, params url.Values) (T, error) {
	var out T
	body, err := c.get(ctx, endpoint, params)
	if err != nil {
		return out, err
	}
	if err := json.Unmarshal(body, &out); err != nil {
		return out, errors.Wrap(err, "decode response")
	}
	return out, nil
}

// get performs a rate limited GET and returns the body of a 2xx response.
func (c *Client) get(ctx context.Context, endpoint string, params url.Values) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, errors.Wrap(err, "rate limit wait")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint+"?"+params.Encode(), nil)
	if err != nil {
		return nil, errors.Wrap(err, "create request")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		// *url.Error embeds the full query string, appid included
		var urlErr *url.Error
		if errors.As(err, &urlErr) {
			err = urlErr.Err
		}
		return nil, errors.Wrapf(err, "request %s", redact(endpoint))
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.Wrap(err, "read response body")
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		c.logger.WarnContext(ctx, "upstream error",
			slog.String("endpoint", redact(endpoint)),
			slog.Int("status", resp.StatusCode),
		)
		return nil, &HTTPError{StatusCode: resp.StatusCode, Body: string(body)}
	}
	return body, nil
}

// decodeCoordinates accepts either a single object or an array of objects.
func decodeCoordinates(body []byte) (types.Coordinates, error) {
	var single GeocodingResponse
	if err := json.Unmarshal(body, &single); err == nil && single.usable() {
		return single.toCoordinates(), nil
	}

	var list []GeocodingResponse
	if err := json.Unmarshal(body, &list); err == nil && len(list) > 0 && list[0].usable() {
		return list[0].toCoordinates(), nil
	}

	return types.Coordinates{}, ErrNoCoordinates
}

func (g GeocodingResponse) usable() bool {
	return g.Lat != 0 && g.Lon != 0 && !math.IsNaN(g.Lat) && !math.IsNaN(g.Lon)
}

func (g GeocodingResponse) toCoordinates() types.Coordinates {
	return types.Coordinates{Latitude: g.Lat, Longitude: g.Lon, Name: g.Name, Country: g.Country}
}

func redact(endpoint string) string {
	u, err := url.Parse(endpoint)
	if err != nil {
		return "upstream"
	}
	u.RawQuery = ""
	return u.String()
}
