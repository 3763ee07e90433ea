package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/crudapp/apiserver/internal/services"
	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
)

const (
	msgInvalidZip         = "zip code must be exactly 5 digits"
	msgWeatherConfig      = "weather service is not configured"
	msgWeatherUnavailable = "weather service is temporarily unavailable"
	msgInternal           = "internal server error"
)

// WeatherHandler serves forecast lookups.
type WeatherHandler struct {
	weatherService *services.WeatherService
	validate       *validator.Validate
	logger         *slog.Logger
}

func NewWeatherHandler(weatherService *services.WeatherService, logger *slog.Logger) *WeatherHandler {
	return &WeatherHandler{
		weatherService: weatherService,
		validate:       validator.New(),
		logger:         logger,
	}
}

// WeatherRouter registers weather routes on the given router.
func WeatherRouter(r chi.Router, weatherService *services.WeatherService, logger *slog.Logger) {
	handler := NewWeatherHandler(weatherService, logger)
	r.Get("/{zipcode}", handler.GetForecast)
}

func (h *WeatherHandler) GetForecast(w http.ResponseWriter, r *http.Request) {
	zip := chi.URLParam(r, "zipcode")
	if err := h.validate.Var(zip, "len=5,number"); err != nil {
		writeError(w, http.StatusBadRequest, msgInvalidZip)
		return
	}

	reports, err := h.weatherService.SevenDayForecast(r.Context(), zip)
	if err != nil {
		h.writeServiceError(w, r, zip, err)
		return
	}
	writeJSON(w, http.StatusOK, reports)
}

func (h *WeatherHandler) writeServiceError(w http.ResponseWriter, r *http.Request, zip string, err error) {
	var svcErr *services.Error
	if !errors.As(err, &svcErr) {
		h.logger.ErrorContext(r.Context(), "forecast failed", slog.String("zip", zip), slog.String("error", err.Error()))
		writeError(w, http.StatusInternalServerError, msgInternal)
		return
	}

	switch svcErr.Kind {
	case services.KindNotFound:
		writeError(w, http.StatusNotFound, svcErr.Message)
	case services.KindConfiguration:
		writeError(w, http.StatusInternalServerError, msgWeatherConfig)
	case services.KindUpstream:
		writeError(w, http.StatusServiceUnavailable, msgWeatherUnavailable)
	default:
		writeError(w, http.StatusInternalServerError, msgInternal)
	}
}
