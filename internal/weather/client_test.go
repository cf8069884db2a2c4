package weather

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestGeocode(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/geo/1.0/direct", r.URL.Path)
		require.Equal(t, "Nairobi", r.URL.Query().Get("q"))
		require.Equal(t, "test-key", r.URL.Query().Get("appid"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[{"name":"Nairobi","lat":-1.28,"lon":36.82}]`))
	}))
	defer server.Close()

	client := NewClient("test-key", server.URL)
	place, err := client.Geocode(context.Background(), "Nairobi")
	require.NoError(t, err)
	require.Equal(t, "Nairobi", place.Name)
	require.InDelta(t, -1.28, place.Lat, 0.0001)
	require.InDelta(t, 36.82, place.Lng, 0.0001)
}

func TestGeocodeNoMatch(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[]`))
	}))
	defer server.Close()

	client := NewClient("test-key", server.URL)
	_, err := client.Geocode(context.Background(), "Atlantis")
	require.ErrorIs(t, err, ErrCityNotFound)
}

func TestForecastParsesSlots(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/data/2.5/forecast", r.URL.Path)
		require.Equal(t, "metric", r.URL.Query().Get("units"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"list":[
			{"dt":1756450800,"main":{"temp":21.5},"weather":[{"main":"Rain","description":"light rain"}]},
			{"dt":1756461600,"main":{"temp":24.0},"weather":[{"main":"Clear","description":"clear sky"}]}
		]}`))
	}))
	defer server.Close()

	client := NewClient("test-key", server.URL)
	entries, err := client.Forecast(context.Background(), -1.28, 36.82)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	require.InDelta(t, 21.5, entries[0].TempC, 0.0001)
	require.Equal(t, "Rain", entries[0].Condition)
	require.Equal(t, "light rain", entries[0].Description)
	require.True(t, entries[1].Time.After(entries[0].Time))
}

func TestUpstreamFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer server.Close()

	client := NewClient("bad-key", server.URL)
	_, err := client.Forecast(context.Background(), 0, 0)
	require.ErrorIs(t, err, ErrUpstream)
}
