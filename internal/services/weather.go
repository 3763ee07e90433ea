package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/crudapp/apiserver/config"
	"github.com/crudapp/apiserver/internal/openweather"
	"github.com/crudapp/apiserver/types"
)

const (
	maxForecastDays    = 7
	missingDescription = "N/A"
)

// ForecastClient is satisfied by *openweather.Client.
type ForecastClient interface {
	GeocodeZip(ctx context.Context, zip, country string) (types.Coordinates, error)
	DailyForecast(ctx context.Context, lat, lon float64, units string) (openweather.OneCallResponse, error)
}

// WeatherService turns a zip code into a short daily forecast.
type WeatherService struct {
	cfg    config.WeatherConfig
	client ForecastClient
	logger *slog.Logger
}

func NewWeatherService(cfg config.WeatherConfig, client ForecastClient, logger *slog.Logger) *WeatherService {
	return &WeatherService{cfg: cfg, client: client, logger: logger}
}

// SevenDayForecast returns up to seven daily reports for the given zip code.
func (s *WeatherService) SevenDayForecast(ctx context.Context, zip string) ([]types.DailyWeatherReport, error) {
	if !s.cfg.HasAPIKey() {
		s.logger.ErrorContext(ctx, "weather api key is not configured")
		return nil, &Error{Kind: KindConfiguration, Message: "weather API key is not configured"}
	}

	coords, err := s.client.GeocodeZip(ctx, zip, s.cfg.CountryCode)
	if err != nil {
		return nil, s.geocodeError(ctx, zip, err)
	}

	s.logger.DebugContext(ctx, "zip geocoded",
		slog.String("zip", zip),
		slog.Float64("lat", coords.Latitude),
		slog.Float64("lon", coords.Longitude),
	)

	forecast, err := s.client.DailyForecast(ctx, coords.Latitude, coords.Longitude, s.cfg.Units)
	if err != nil {
		return nil, s.upstreamError(ctx, "fetch forecast", err)
	}

	reports := mapToDailyReports(forecast.Daily, temperatureUnit(s.cfg.Units))
	s.logger.InfoContext(ctx, "forecast fetched", slog.String("zip", zip), slog.Int("days", len(reports)))
	return reports, nil
}

func (s *WeatherService) geocodeError(ctx context.Context, zip string, err error) error {
	var httpErr *openweather.HTTPError
	switch {
	case errors.As(err, &httpErr) && httpErr.StatusCode == http.StatusNotFound:
		s.logger.WarnContext(ctx, "zip not found", slog.String("zip", zip))
		return notFound(fmt.Sprintf("zip code not found or invalid: %s", zip), err)
	case errors.Is(err, openweather.ErrNoCoordinates):
		s.logger.WarnContext(ctx, "zip has no coordinates", slog.String("zip", zip))
		return notFound(fmt.Sprintf("invalid zip code or unable to geocode: %s", zip), err)
	default:
		return s.upstreamError(ctx, "geocode zip", err)
	}
}

func (s *WeatherService) upstreamError(ctx context.Context, op string, err error) error {
	svcErr := &Error{Kind: KindUpstream, Message: op + " failed", Err: err}

	var httpErr *openweather.HTTPError
	if errors.As(err, &httpErr) {
		svcErr.StatusCode = httpErr.StatusCode
		svcErr.Body = httpErr.Body
	}

	s.logger.ErrorContext(ctx, "weather upstream failure",
		slog.String("op", op),
		slog.Int("status", svcErr.StatusCode),
		slog.String("error", err.Error()),
	)
	return svcErr
}

func mapToDailyReports(days []openweather.Daily, unit string) []types.DailyWeatherReport {
	if len(days) > maxForecastDays {
		days = days[:maxForecastDays]
	}

	reports := make([]types.DailyWeatherReport, 0, len(days))
	for _, day := range days {
		report := types.DailyWeatherReport{
			Date:               time.Unix(day.Dt, 0).UTC().Format(time.DateOnly),
			WeatherDescription: missingDescription,
			RainProbability:    day.Pop,
			TemperatureUnit:    unit,
		}
		if day.Temp != nil {
			report.MinTemperature = day.Temp.Min
			report.MaxTemperature = day.Temp.Max
		}
		if len(day.Weather) > 0 {
			report.WeatherDescription = day.Weather[0].Description
		}
		reports = append(reports, report)
	}
	return reports
}

func temperatureUnit(units string) string {
	switch strings.ToLower(strings.TrimSpace(units)) {
	case "metric":
		return "Celsius"
	case "imperial":
		return "Fahrenheit"
	default:
		return "Kelvin"
	}
}
