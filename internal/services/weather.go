package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"math"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/foxxcyber/trail-guide/internal/metrics"
	"github.com/foxxcyber/trail-guide/internal/models"
)

const (
	currentWeatherPath = "/data/2.5/weather"
	forecastPath       = "/data/2.5/forecast"
	oneCallPath        = "/data/3.0/onecall"
	weatherCachePrefix = "weather:"
	maxForecastDays    = 5
	defaultTimeout     = 10 * time.Second
)

var (
	ErrWeatherNotConfigured = errors.New("weather api key not configured")
	ErrWeatherUnauthorized  = errors.New("weather api rejected the api key")
	ErrWeatherRateLimited   = errors.New("weather api rate limit exceeded")
	ErrWeatherUpstream      = errors.New("weather api error")
)

// WeatherService proxies OpenWeatherMap and reshapes its responses
type WeatherService struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
	cache      *redis.Client
	cacheTTL   time.Duration
}

// NewWeatherService creates a weather proxy. cache may be nil, in which case
// every lookup goes upstream.
func NewWeatherService(apiKey, baseURL string, cache *redis.Client, cacheTTL time.Duration) *WeatherService {
	return &WeatherService{
		apiKey:  apiKey,
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: defaultTimeout,
		},
		cache:    cache,
		cacheTTL: cacheTTL,
	}
}

// OpenWeatherMap response structures
type owmCondition struct {
	Main        string `json:"main"`
	Description string `json:"description"`
	Icon        string `json:"icon"`
}

type owmCurrentResponse struct {
	Name  string `json:"name"`
	Coord struct {
		Lat float64 `json:"lat"`
		Lon float64 `json:"lon"`
	} `json:"coord"`
	Weather []owmCondition `json:"weather"`
	Main    struct {
		Temp      float64 `json:"temp"`
		FeelsLike float64 `json:"feels_like"`
		TempMin   float64 `json:"temp_min"`
		TempMax   float64 `json:"temp_max"`
		Humidity  int     `json:"humidity"`
	} `json:"main"`
	Wind struct {
		Speed float64  `json:"speed"`
		Gust  *float64 `json:"gust"`
	} `json:"wind"`
	Sys struct {
		Sunrise int64 `json:"sunrise"`
		Sunset  int64 `json:"sunset"`
	} `json:"sys"`
	Dt int64 `json:"dt"`
}

type owmForecastStep struct {
	Dt   int64 `json:"dt"`
	Main struct {
		TempMin  float64 `json:"temp_min"`
		TempMax  float64 `json:"temp_max"`
		Humidity int     `json:"humidity"`
	} `json:"main"`
	Weather []owmCondition `json:"weather"`
	Wind    struct {
		Speed float64 `json:"speed"`
	} `json:"wind"`
	Pop float64 `json:"pop"`
}

type owmForecastResponse struct {
	List []owmForecastStep `json:"list"`
	City struct {
		Timezone int `json:"timezone"`
	} `json:"city"`
}

type owmOneCallResponse struct {
	Alerts []struct {
		SenderName  string   `json:"sender_name"`
		Event       string   `json:"event"`
		Start       int64    `json:"start"`
		End         int64    `json:"end"`
		Description string   `json:"description"`
		Tags        []string `json:"tags"`
	} `json:"alerts"`
}

type owmErrorResponse struct {
	Message string `json:"message"`
}

// Current returns current conditions at the coordinates
func (s *WeatherService) Current(ctx context.Context, lat, lon float64, units, location string) (*models.CurrentWeather, error) {
	key := cacheKey("current", lat, lon, units, 0)
	var cached models.CurrentWeather
	if s.fromCache(ctx, key, &cached) {
		metrics.WeatherLookups.WithLabelValues("current", "cache").Inc()
		return &cached, nil
	}

	var raw owmCurrentResponse
	if err := s.get(ctx, currentWeatherPath, coordParams(lat, lon, units), &raw); err != nil {
		metrics.WeatherLookups.WithLabelValues("current", "error").Inc()
		return nil, err
	}
	metrics.WeatherLookups.WithLabelValues("current", "upstream").Inc()

	w := &models.CurrentWeather{
		Location:    raw.Name,
		Latitude:    raw.Coord.Lat,
		Longitude:   raw.Coord.Lon,
		Temperature: raw.Main.Temp,
		FeelsLike:   raw.Main.FeelsLike,
		TempMin:     raw.Main.TempMin,
		TempMax:     raw.Main.TempMax,
		Humidity:    raw.Main.Humidity,
		WindSpeed:   raw.Wind.Speed,
		WindGust:    raw.Wind.Gust,
		Units:       units,
		Sunrise:     time.Unix(raw.Sys.Sunrise, 0).UTC(),
		Sunset:      time.Unix(raw.Sys.Sunset, 0).UTC(),
		ObservedAt:  time.Unix(raw.Dt, 0).UTC(),
	}
	if location != "" {
		w.Location = location
	}
	if len(raw.Weather) > 0 {
		w.Condition = raw.Weather[0].Main
		w.Description = raw.Weather[0].Description
		w.Icon = raw.Weather[0].Icon
	}

	s.toCache(ctx, key, w)
	return w, nil
}

// Forecast returns up to days daily summaries built from the 3-hour forecast
func (s *WeatherService) Forecast(ctx context.Context, lat, lon float64, units string, days int) ([]models.ForecastDay, error) {
	if days < 1 {
		days = 1
	}
	if days > maxForecastDays {
		days = maxForecastDays
	}

	key := cacheKey("forecast", lat, lon, units, days)
	var cached []models.ForecastDay
	if s.fromCache(ctx, key, &cached) {
		metrics.WeatherLookups.WithLabelValues("forecast", "cache").Inc()
		return cached, nil
	}

	var raw owmForecastResponse
	if err := s.get(ctx, forecastPath, coordParams(lat, lon, units), &raw); err != nil {
		metrics.WeatherLookups.WithLabelValues("forecast", "error").Inc()
		return nil, err
	}
	metrics.WeatherLookups.WithLabelValues("forecast", "upstream").Inc()

	forecast := summarizeForecast(&raw, days)
	s.toCache(ctx, key, forecast)
	return forecast, nil
}

// Alerts returns the active weather alerts at the coordinates
func (s *WeatherService) Alerts(ctx context.Context, lat, lon float64) ([]models.WeatherAlert, error) {
	key := cacheKey("alerts", lat, lon, "", 0)
	var cached []models.WeatherAlert
	if s.fromCache(ctx, key, &cached) {
		metrics.WeatherLookups.WithLabelValues("alerts", "cache").Inc()
		return cached, nil
	}

	params := coordParams(lat, lon, "")
	params.Set("exclude", "current,minutely,hourly,daily")

	var raw owmOneCallResponse
	if err := s.get(ctx, oneCallPath, params, &raw); err != nil {
		metrics.WeatherLookups.WithLabelValues("alerts", "error").Inc()
		return nil, err
	}
	metrics.WeatherLookups.WithLabelValues("alerts", "upstream").Inc()

	alerts := make([]models.WeatherAlert, 0, len(raw.Alerts))
	for _, a := range raw.Alerts {
		alerts = append(alerts, models.WeatherAlert{
			SenderName:  a.SenderName,
			Event:       a.Event,
			Start:       time.Unix(a.Start, 0).UTC(),
			End:         time.Unix(a.End, 0).UTC(),
			Description: a.Description,
			Tags:        a.Tags,
		})
	}

	s.toCache(ctx, key, alerts)
	return alerts, nil
}

// summarizeForecast groups 3-hour steps by local calendar day
func summarizeForecast(raw *owmForecastResponse, days int) []models.ForecastDay {
	type dayAgg struct {
		day         models.ForecastDay
		humiditySum int
		steps       int
		conditions  map[string]int
		firstIcon   map[string]owmCondition
	}

	zone := time.FixedZone("local", raw.City.Timezone)
	byDate := map[string]*dayAgg{}
	var order []string

	for _, step := range raw.List {
		date := time.Unix(step.Dt, 0).In(zone).Format("2006-01-02")
		agg, ok := byDate[date]
		if !ok {
			agg = &dayAgg{
				day: models.ForecastDay{
					Date:    date,
					TempMin: math.Inf(1),
					TempMax: math.Inf(-1),
				},
				conditions: map[string]int{},
				firstIcon:  map[string]owmCondition{},
			}
			byDate[date] = agg
			order = append(order, date)
		}

		agg.day.TempMin = math.Min(agg.day.TempMin, step.Main.TempMin)
		agg.day.TempMax = math.Max(agg.day.TempMax, step.Main.TempMax)
		agg.day.PrecipChance = math.Max(agg.day.PrecipChance, step.Pop)
		agg.day.MaxWindSpeed = math.Max(agg.day.MaxWindSpeed, step.Wind.Speed)
		agg.humiditySum += step.Main.Humidity
		agg.steps++
		if len(step.Weather) > 0 {
			cond := step.Weather[0]
			agg.conditions[cond.Main]++
			if _, seen := agg.firstIcon[cond.Main]; !seen {
				agg.firstIcon[cond.Main] = cond
			}
		}
	}

	sort.Strings(order)
	if len(order) > days {
		order = order[:days]
	}

	forecast := make([]models.ForecastDay, 0, len(order))
	for _, date := range order {
		agg := byDate[date]
		agg.day.AvgHumidity = agg.humiditySum / agg.steps

		// Most frequent condition wins; ties go to the alphabetically first
		best, bestCount := "", 0
		for cond, n := range agg.conditions {
			if n > bestCount || (n == bestCount && cond < best) {
				best, bestCount = cond, n
			}
		}
		if c, ok := agg.firstIcon[best]; ok {
			agg.day.Condition = c.Main
			agg.day.Description = c.Description
			agg.day.Icon = c.Icon
		}
		forecast = append(forecast, agg.day)
	}
	return forecast
}

func coordParams(lat, lon float64, units string) url.Values {
	params := url.Values{}
	params.Set("lat", strconv.FormatFloat(lat, 'f', 4, 64))
	params.Set("lon", strconv.FormatFloat(lon, 'f', 4, 64))
	if units != "" {
		params.Set("units", units)
	}
	return params
}

func (s *WeatherService) get(ctx context.Context, path string, params url.Values, out any) error {
	if s.apiKey == "" {
		return ErrWeatherNotConfigured
	}
	params.Set("appid", s.apiKey)

	reqURL := s.baseURL + path + "?" + params.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrWeatherUpstream, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		return ErrWeatherUnauthorized
	case resp.StatusCode == http.StatusTooManyRequests:
		return ErrWeatherRateLimited
	case resp.StatusCode != http.StatusOK:
		var e owmErrorResponse
		_ = json.NewDecoder(resp.Body).Decode(&e)
		return fmt.Errorf("%w: status %d: %s", ErrWeatherUpstream, resp.StatusCode, e.Message)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}
	return nil
}

func cacheKey(kind string, lat, lon float64, units string, days int) string {
	return fmt.Sprintf("%s%s:%.4f:%.4f:%s:%d", weatherCachePrefix, kind, lat, lon, units, days)
}

func (s *WeatherService) fromCache(ctx context.Context, key string, out any) bool {
	if s.cache == nil {
		return false
	}
	raw, err := s.cache.Get(ctx, key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			log.Printf("weather cache read failed: %v", err)
		}
		return false
	}
	return json.Unmarshal(raw, out) == nil
}

func (s *WeatherService) toCache(ctx context.Context, key string, v any) {
	if s.cache == nil || s.cacheTTL <= 0 {
		return
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return
	}
	if err := s.cache.Set(ctx, key, raw, s.cacheTTL).Err(); err != nil {
		log.Printf("weather cache write failed: %v", err)
	}
}
