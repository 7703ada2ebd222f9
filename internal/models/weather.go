package models

import "time"

// CurrentWeather is the reshaped current-conditions payload
type CurrentWeather struct {
	Location    string    `json:"location"`
	Latitude    float64   `json:"latitude"`
	Longitude   float64   `json:"longitude"`
	Temperature float64   `json:"temperature"`
	FeelsLike   float64   `json:"feels_like"`
	TempMin     float64   `json:"temp_min"`
	TempMax     float64   `json:"temp_max"`
	Humidity    int       `json:"humidity"`
	WindSpeed   float64   `json:"wind_speed"`
	WindGust    *float64  `json:"wind_gust,omitempty"`
	Condition   string    `json:"condition"`
	Description string    `json:"description"`
	Icon        string    `json:"icon"`
	Units       string    `json:"units"`
	Sunrise     time.Time `json:"sunrise"`
	Sunset      time.Time `json:"sunset"`
	ObservedAt  time.Time `json:"observed_at"`
}

// ForecastDay summarizes one calendar day of forecast steps
type ForecastDay struct {
	Date         string  `json:"date"`
	TempMin      float64 `json:"temp_min"`
	TempMax      float64 `json:"temp_max"`
	Condition    string  `json:"condition"`
	Description  string  `json:"description"`
	Icon         string  `json:"icon"`
	PrecipChance float64 `json:"precip_chance"`
	MaxWindSpeed float64 `json:"max_wind_speed"`
	AvgHumidity  int     `json:"avg_humidity"`
}

// WeatherAlert is an active weather alert issued for the area
type WeatherAlert struct {
	SenderName  string    `json:"sender_name"`
	Event       string    `json:"event"`
	Start       time.Time `json:"start"`
	End         time.Time `json:"end"`
	Description string    `json:"description"`
	Tags        []string  `json:"tags,omitempty"`
}
