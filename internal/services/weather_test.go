package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const currentFixture = `{
	"name": "Estes Park",
	"coord": {"lat": 40.3772, "lon": -105.5217},
	"weather": [{"main": "Clouds", "description": "scattered clouds", "icon": "03d"}],
	"main": {"temp": 68.2, "feels_like": 66.9, "temp_min": 61.0, "temp_max": 72.5, "humidity": 31},
	"wind": {"speed": 9.2, "gust": 18.4},
	"sys": {"sunrise": 1719920000, "sunset": 1719973000},
	"dt": 1719950000
}`

func newWeatherUpstream(t *testing.T, hits *int32) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/data/2.5/weather", func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(hits, 1)
		if r.URL.Query().Get("appid") != "test-key" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		fmt.Fprint(w, currentFixture)
	})
	mux.HandleFunc("/data/3.0/onecall", func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(hits, 1)
		fmt.Fprint(w, `{"alerts":[{"sender_name":"NWS Boulder","event":"Red Flag Warning","start":1719950000,"end":1719990000,"description":"Gusty winds","tags":["Fire"]}]}`)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestWeatherCurrentReshapesAndCaches(t *testing.T) {
	var hits int32
	srv := newWeatherUpstream(t, &hits)
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})

	svc := NewWeatherService("test-key", srv.URL, rdb, time.Minute)
	ctx := context.Background()

	w, err := svc.Current(ctx, 40.3772, -105.5217, "imperial", "")
	require.NoError(t, err)
	assert.Equal(t, "Estes Park", w.Location)
	assert.Equal(t, "Clouds", w.Condition)
	assert.Equal(t, 31, w.Humidity)
	require.NotNil(t, w.WindGust)
	assert.Equal(t, 18.4, *w.WindGust)
	assert.Equal(t, "imperial", w.Units)
	assert.Equal(t, time.Unix(1719950000, 0).UTC(), w.ObservedAt)

	again, err := svc.Current(ctx, 40.3772, -105.5217, "imperial", "")
	require.NoError(t, err)
	assert.Equal(t, w.Temperature, again.Temperature)
	assert.Equal(t, int32(1), atomic.LoadInt32(&hits), "second lookup should be served from cache")

	mr.FastForward(2 * time.Minute)
	_, err = svc.Current(ctx, 40.3772, -105.5217, "imperial", "")
	require.NoError(t, err)
	assert.Equal(t, int32(2), atomic.LoadInt32(&hits))
}

func TestWeatherWithoutCache(t *testing.T) {
	var hits int32
	srv := newWeatherUpstream(t, &hits)
	svc := NewWeatherService("test-key", srv.URL, nil, time.Minute)

	w, err := svc.Current(context.Background(), 40.3772, -105.5217, "metric", "Bear Lake")
	require.NoError(t, err)
	assert.Equal(t, "Bear Lake", w.Location)

	alerts, err := svc.Alerts(context.Background(), 40.3772, -105.5217)
	require.NoError(t, err)
	require.Len(t, alerts, 1)
	assert.Equal(t, "Red Flag Warning", alerts[0].Event)
	assert.Equal(t, []string{"Fire"}, alerts[0].Tags)
}

func TestWeatherErrors(t *testing.T) {
	var hits int32
	srv := newWeatherUpstream(t, &hits)

	_, err := NewWeatherService("", srv.URL, nil, 0).Current(context.Background(), 0, 0, "", "")
	assert.True(t, errors.Is(err, ErrWeatherNotConfigured))

	_, err = NewWeatherService("wrong", srv.URL, nil, 0).Current(context.Background(), 0, 0, "", "")
	assert.True(t, errors.Is(err, ErrWeatherUnauthorized))

	limited := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer limited.Close()
	_, err = NewWeatherService("k", limited.URL, nil, 0).Forecast(context.Background(), 0, 0, "", 3)
	assert.True(t, errors.Is(err, ErrWeatherRateLimited))

	broken := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		fmt.Fprint(w, `{"message":"upstream down"}`)
	}))
	defer broken.Close()
	_, err = NewWeatherService("k", broken.URL, nil, 0).Alerts(context.Background(), 0, 0)
	assert.True(t, errors.Is(err, ErrWeatherUpstream))
}

func TestSummarizeForecastGroupsByLocalDay(t *testing.T) {
	zone := -6 * 3600
	day1 := time.Date(2024, 7, 2, 9, 0, 0, 0, time.FixedZone("mdt", zone))
	raw := &owmForecastResponse{}
	raw.City.Timezone = zone

	add := func(at time.Time, min, max float64, hum int, main string, pop, wind float64) {
		step := owmForecastStep{Dt: at.Unix(), Pop: pop}
		step.Main.TempMin = min
		step.Main.TempMax = max
		step.Main.Humidity = hum
		step.Weather = []owmCondition{{Main: main, Description: main, Icon: main[:2]}}
		step.Wind.Speed = wind
		raw.List = append(raw.List, step)
	}

	add(day1, 50, 60, 40, "Clear", 0.1, 5)
	add(day1.Add(3*time.Hour), 55, 71, 20, "Rain", 0.6, 12)
	add(day1.Add(6*time.Hour), 58, 68, 30, "Rain", 0.4, 8)
	add(day1.Add(24*time.Hour), 45, 66, 50, "Clear", 0, 3)
	add(day1.Add(48*time.Hour), 40, 62, 60, "Snow", 0.9, 20)

	days := summarizeForecast(raw, 2)
	require.Len(t, days, 2)

	assert.Equal(t, "2024-07-02", days[0].Date)
	assert.Equal(t, 50.0, days[0].TempMin)
	assert.Equal(t, 71.0, days[0].TempMax)
	assert.Equal(t, 0.6, days[0].PrecipChance)
	assert.Equal(t, 12.0, days[0].MaxWindSpeed)
	assert.Equal(t, 30, days[0].AvgHumidity)
	assert.Equal(t, "Rain", days[0].Condition)

	assert.Equal(t, "2024-07-03", days[1].Date)
	assert.Equal(t, "Clear", days[1].Condition)
}
