package types

// Coordinates is a geocoded location. It only lives for the duration of a
// forecast lookup.
type Coordinates struct {
	Latitude  float64
	Longitude float64
	Name      string
	Country   string
}

// DailyWeatherReport is one day of a forecast as returned by the weather API.
type DailyWeatherReport struct {
	// Date is the UTC calendar date, formatted as YYYY-MM-DD.
	Date           string  `json:"date"`
	MinTemperature float64 `json:"minTemperature"`
	MaxTemperature float64 `json:"maxTemperature"`

	// WeatherDescription falls back to "N/A" when the source has none.
	WeatherDescription string `json:"weatherDescription"`

	// RainProbability is the precipitation probability, from 0.0 to 1.0.
	RainProbability float64 `json:"rainProbability"`

	// TemperatureUnit is "Celsius", "Fahrenheit" or "Kelvin".
	TemperatureUnit string `json:"temperatureUnit"`
}
