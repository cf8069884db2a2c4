package weather

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"
)

func testRouter(t *testing.T, provider Provider) chi.Router {
	t.Helper()
	svc := NewService(slog.Default(), provider, nil, 0)
	r := chi.NewRouter()
	NewHandler(slog.Default(), svc).MountRoutes(r)
	return r
}

func TestGeocodeEndpoint(t *testing.T) {
	router := testRouter(t, &fakeProvider{})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/geocode?city=Nairobi", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var place Place
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &place))
	require.Equal(t, "Nairobi", place.Name)
	require.InDelta(t, -1.28, place.Lat, 0.001)
	require.InDelta(t, 36.82, place.Lng, 0.001)
}

func TestGeocodeEndpointMissingCity(t *testing.T) {
	router := testRouter(t, &fakeProvider{})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/geocode", nil))
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGeocodeEndpointUnknownCity(t *testing.T) {
	router := testRouter(t, &fakeProvider{geocodeErr: ErrCityNotFound})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/geocode?city=Atlantis", nil))
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestGeocodeEndpointUpstreamFailure(t *testing.T) {
	router := testRouter(t, &fakeProvider{geocodeErr: ErrUpstream})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/geocode?city=Nairobi", nil))
	require.Equal(t, http.StatusBadGateway, rec.Code)
}

func TestForecastEndpoint(t *testing.T) {
	router := testRouter(t, &fakeProvider{})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/forecast?city=Nairobi", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var fc Forecast
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &fc))
	require.Equal(t, "Nairobi", fc.Place.Name)
	require.Len(t, fc.Entries, 1)
}
