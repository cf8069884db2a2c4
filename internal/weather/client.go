// Package weather fetches forecasts from OpenWeatherMap and caches them
// for the planting advisor and the dashboard.
package weather

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

var (
	// ErrCityNotFound indicates the geocoder had no match for the city.
	ErrCityNotFound = errors.New("weather: city not found")
	// ErrUpstream indicates OpenWeatherMap returned a non-2xx response.
	ErrUpstream = errors.New("weather: upstream request failed")
)

// Place is a geocoded city.
type Place struct {
	Name string  `json:"name"`
	Lat  float64 `json:"lat"`
	Lng  float64 `json:"lng"`
}

// Entry is one 3-hourly forecast slot.
type Entry struct {
	Time        time.Time `json:"time"`
	TempC       float64   `json:"tempC"`
	Condition   string    `json:"condition"`
	Description string    `json:"description"`
}

// Forecast is the forecast for a geocoded place.
type Forecast struct {
	Place   Place   `json:"place"`
	Entries []Entry `json:"entries"`
}

// Provider abstracts the upstream weather API.
type Provider interface {
	Geocode(ctx context.Context, city string) (Place, error)
	Forecast(ctx context.Context, lat, lng float64) ([]Entry, error)
}

// Client talks to the OpenWeatherMap HTTP API.
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
}

// NewClient constructs a Client. baseURL overrides the production endpoint
// and is meant for tests; pass "" for the default.
func NewClient(apiKey, baseURL string) *Client {
	if baseURL == "" {
		baseURL = "https://api.openweathermap.org"
	}
	return &Client{
		httpClient: &http.Client{Timeout: 10 * time.Second},
		baseURL:    baseURL,
		apiKey:     apiKey,
	}
}

// Geocode resolves a city name to coordinates via the OWM geocoding API.
func (c *Client) Geocode(ctx context.Context, city string) (Place, error) {
	q := url.Values{}
	q.Set("q", city)
	q.Set("limit", "1")
	q.Set("appid", c.apiKey)

	var results []struct {
		Name string  `json:"name"`
		Lat  float64 `json:"lat"`
		Lon  float64 `json:"lon"`
	}
	if err := c.getJSON(ctx, "/geo/1.0/direct", q, &results); err != nil {
		return Place{}, err
	}
	if len(results) == 0 {
		return Place{}, fmt.Errorf("%w: %q", ErrCityNotFound, city)
	}
	return Place{Name: results[0].Name, Lat: results[0].Lat, Lng: results[0].Lon}, nil
}

// Forecast fetches the 5-day/3-hour forecast for a coordinate pair.
func (c *Client) Forecast(ctx context.Context, lat, lng float64) ([]Entry, error) {
	q := url.Values{}
	q.Set("lat", strconv.FormatFloat(lat, 'f', 4, 64))
	q.Set("lon", strconv.FormatFloat(lng, 'f', 4, 64))
	q.Set("units", "metric")
	q.Set("appid", c.apiKey)

	var payload struct {
		List []struct {
			Dt   int64 `json:"dt"`
			Main struct {
				Temp float64 `json:"temp"`
			} `json:"main"`
			Weather []struct {
				Main        string `json:"main"`
				Description string `json:"description"`
			} `json:"weather"`
		} `json:"list"`
	}
	if err := c.getJSON(ctx, "/data/2.5/forecast", q, &payload); err != nil {
		return nil, err
	}

	entries := make([]Entry, 0, len(payload.List))
	for _, slot := range payload.List {
		entry := Entry{
			Time:  time.Unix(slot.Dt, 0).UTC(),
			TempC: slot.Main.Temp,
		}
		if len(slot.Weather) > 0 {
			entry.Condition = slot.Weather[0].Main
			entry.Description = slot.Weather[0].Description
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

func (c *Client) getJSON(ctx context.Context, path string, q url.Values, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path+"?"+q.Encode(), nil)
	if err != nil {
		return err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %s", ErrUpstream, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: status %d", ErrUpstream, resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
