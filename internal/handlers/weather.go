package handlers

import (
	"errors"
	"log"
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/foxxcyber/trail-guide/internal/services"
)

// coordinates reads lat/lon query parameters, defaulting to the park
func (h *Handler) coordinates(c *fiber.Ctx) (lat, lon float64, isDefault bool, err error) {
	lat, lon, isDefault = h.cfg.ParkLatitude, h.cfg.ParkLongitude, true

	if v := c.Query("lat"); v != "" {
		if lat, err = strconv.ParseFloat(v, 64); err != nil || lat < -90 || lat > 90 {
			return 0, 0, false, errors.New("lat must be between -90 and 90")
		}
		isDefault = false
	}
	if v := c.Query("lon"); v != "" {
		if lon, err = strconv.ParseFloat(v, 64); err != nil || lon < -180 || lon > 180 {
			return 0, 0, false, errors.New("lon must be between -180 and 180")
		}
		isDefault = false
	}
	return lat, lon, isDefault, nil
}

func weatherUnits(c *fiber.Ctx) (string, error) {
	switch u := c.Query("units", "imperial"); u {
	case "imperial", "metric":
		return u, nil
	default:
		return "", errors.New("units must be imperial or metric")
	}
}

// GetCurrentWeather returns current conditions
// GET /api/weather?lat=&lon=&units=
func (h *Handler) GetCurrentWeather(c *fiber.Ctx) error {
	lat, lon, isDefault, err := h.coordinates(c)
	if err != nil {
		return Error(c, fiber.StatusBadRequest, err.Error())
	}
	u, err := weatherUnits(c)
	if err != nil {
		return Error(c, fiber.StatusBadRequest, err.Error())
	}

	location := ""
	if isDefault {
		location = h.cfg.ParkName
	}

	w, err := h.weather.Current(c.Context(), lat, lon, u, location)
	if err != nil {
		return handleWeatherError(c, err)
	}
	return Success(c, w)
}

// GetForecast returns the daily forecast
// GET /api/weather/forecast?lat=&lon=&units=&days=
func (h *Handler) GetForecast(c *fiber.Ctx) error {
	lat, lon, _, err := h.coordinates(c)
	if err != nil {
		return Error(c, fiber.StatusBadRequest, err.Error())
	}
	u, err := weatherUnits(c)
	if err != nil {
		return Error(c, fiber.StatusBadRequest, err.Error())
	}

	days := c.QueryInt("days", 5)
	if days < 1 || days > 5 {
		return Error(c, fiber.StatusBadRequest, "days must be between 1 and 5")
	}

	forecast, err := h.weather.Forecast(c.Context(), lat, lon, u, days)
	if err != nil {
		return handleWeatherError(c, err)
	}
	return Success(c, forecast)
}

// GetWeatherAlerts returns active weather alerts
// GET /api/weather/alerts?lat=&lon=
func (h *Handler) GetWeatherAlerts(c *fiber.Ctx) error {
	lat, lon, _, err := h.coordinates(c)
	if err != nil {
		return Error(c, fiber.StatusBadRequest, err.Error())
	}

	alerts, err := h.weather.Alerts(c.Context(), lat, lon)
	if err != nil {
		return handleWeatherError(c, err)
	}
	return Success(c, alerts)
}

// handleWeatherError maps weather service errors to HTTP responses
func handleWeatherError(c *fiber.Ctx, err error) error {
	log.Printf("Weather lookup failed: %v", err)
	switch {
	case errors.Is(err, services.ErrWeatherNotConfigured):
		return Error(c, fiber.StatusServiceUnavailable, "weather service is not configured")
	case errors.Is(err, services.ErrWeatherUnauthorized):
		return Error(c, fiber.StatusServiceUnavailable, "weather service is misconfigured")
	case errors.Is(err, services.ErrWeatherRateLimited):
		return Error(c, fiber.StatusServiceUnavailable, "weather service is busy, try again shortly")
	default:
		return Error(c, fiber.StatusBadGateway, "failed to fetch weather")
	}
}
