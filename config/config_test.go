package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadConfig_Defaults(t *testing.T) {
	t.Setenv("DB_DRIVER", "")
	t.Setenv("OPENWEATHERMAP_API_KEY", "")

	cfg := LoadConfig()

	assert.Equal(t, 8080, cfg.ServerPort)
	assert.Equal(t, "US", cfg.Weather.CountryCode)
	assert.Equal(t, "metric", cfg.Weather.Units)
	assert.Equal(t, 10*time.Second, cfg.Weather.Timeout)
	assert.Equal(t, "user-events", cfg.Events.Channel)
	assert.False(t, cfg.Weather.HasAPIKey())
}

func TestLoadConfig_Overrides(t *testing.T) {
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("DB_DRIVER", "sqlite")
	t.Setenv("DB_USE_SSL", "true")
	t.Setenv("WEATHER_TIMEOUT", "2s")
	t.Setenv("WEATHER_RATE_LIMIT", "0.5")
	t.Setenv("OPENWEATHERMAP_API_KEY", "abc123")

	cfg := LoadConfig()

	assert.Equal(t, 9090, cfg.ServerPort)
	assert.Equal(t, "sqlite", cfg.Database.Driver)
	assert.True(t, cfg.Database.UseSSL)
	assert.Equal(t, 2*time.Second, cfg.Weather.Timeout)
	assert.InDelta(t, 0.5, cfg.Weather.RateLimit, 1e-9)
	assert.True(t, cfg.Weather.HasAPIKey())
}

func TestLoadConfig_MalformedValuesFallBack(t *testing.T) {
	t.Setenv("SERVER_PORT", "eighty")
	t.Setenv("WEATHER_TIMEOUT", "soon")

	cfg := LoadConfig()

	assert.Equal(t, 8080, cfg.ServerPort)
	assert.Equal(t, 10*time.Second, cfg.Weather.Timeout)
}

func TestWeatherConfig_HasAPIKey(t *testing.T) {
	tests := []struct {
		key  string
		want bool
	}{
		{key: "", want: false},
		{key: "   ", want: false},
		{key: PlaceholderAPIKey, want: false},
		{key: "real-key", want: true},
	}

	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			assert.Equal(t, tt.want, WeatherConfig{APIKey: tt.key}.HasAPIKey())
		})
	}
}

func TestLoadConfig_NormalisesWeatherValues(t *testing.T) {
	t.Setenv("OPENWEATHERMAP_API_KEY", "  abc123\n")
	t.Setenv("WEATHER_UNITS", " Metric ")

	cfg := LoadConfig()

	assert.Equal(t, "abc123", cfg.Weather.APIKey)
	assert.Equal(t, "metric", cfg.Weather.Units)
	assert.True(t, cfg.Weather.HasAPIKey())
}
