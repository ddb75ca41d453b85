package geocode

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLookup(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/search", r.URL.Path)
		assert.Equal(t, "json", r.URL.Query().Get("format"))
		assert.Equal(t, "1", r.URL.Query().Get("limit"))
		assert.Equal(t, "10 rue de Rivoli, Paris", r.URL.Query().Get("q"))
		assert.Equal(t, "nannyclock-test", r.Header.Get("User-Agent"))
		assert.Equal(t, "fr", r.Header.Get("Accept-Language"))

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[{"lat":"48.8554","lon":"2.3600","display_name":"10, Rue de Rivoli, Paris"}]`))
	}))
	defer srv.Close()

	client := New(srv.URL+"/", WithUserAgent("nannyclock-test"), WithLanguage("fr"))
	result, err := client.Lookup(context.Background(), " 10 rue de Rivoli, Paris ")
	require.NoError(t, err)
	assert.InDelta(t, 48.8554, result.Position.Latitude, 1e-9)
	assert.InDelta(t, 2.36, result.Position.Longitude, 1e-9)
	assert.Equal(t, "10, Rue de Rivoli, Paris", result.DisplayName)
}

func TestLookup_NotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	_, err := New(srv.URL).Lookup(context.Background(), "nowhere at all")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = New(srv.URL).Lookup(context.Background(), "   ")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestLookup_Failures(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Query().Get("q") {
		case "throttled":
			w.WriteHeader(http.StatusTooManyRequests)
		case "garbage":
			w.Write([]byte(`{not json`))
		default:
			w.Write([]byte(`[{"lat":"north","lon":"2.3"}]`))
		}
	}))
	defer srv.Close()

	client := New(srv.URL)

	_, err := client.Lookup(context.Background(), "throttled")
	assert.ErrorContains(t, err, "unexpected status 429")

	_, err = client.Lookup(context.Background(), "garbage")
	assert.ErrorContains(t, err, "decode")

	_, err = client.Lookup(context.Background(), "bad coordinates")
	assert.ErrorContains(t, err, "invalid latitude")
	assert.NotErrorIs(t, err, ErrNotFound)
}
