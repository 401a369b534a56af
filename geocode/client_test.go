package geocode

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestReverseMapsTownFromCity(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/reverse", r.URL.Path)
		assert.Equal(t, "jsonv2", r.URL.Query().Get("format"))
		w.Write([]byte(`{
			"display_name": "10 Downing Street, London, SW1A 2AA",
			"address": {"road": "Downing Street", "city": "London", "postcode": "SW1A 2AA"}
		}`))
	}))
	defer ts.Close()

	c := &Client{BaseURL: ts.URL, HTTP: ts.Client()}
	addr, err := c.Reverse(context.Background(), 51.5034, -0.1276)

	assert.NoError(t, err)
	assert.NotNil(t, addr)
	assert.Equal(t, "Downing Street", addr.Road)
	assert.Equal(t, "London", addr.Town)
	assert.Equal(t, "SW1A 2AA", addr.Postcode)
}

func TestReverseNothingFound(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"error": "Unable to geocode"}`))
	}))
	defer ts.Close()

	c := &Client{BaseURL: ts.URL, HTTP: ts.Client()}
	addr, err := c.Reverse(context.Background(), 0, 0)

	assert.NoError(t, err)
	assert.Nil(t, addr)
}

func TestSearchParsesCoordinateStrings(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/search", r.URL.Path)
		assert.Equal(t, "norwich market", r.URL.Query().Get("q"))
		w.Write([]byte(`[{"lat": "52.6285", "lon": "1.2923", "display_name": "Norwich Market"}]`))
	}))
	defer ts.Close()

	c := &Client{BaseURL: ts.URL, HTTP: ts.Client()}
	places, err := c.Search(context.Background(), "norwich market")

	assert.NoError(t, err)
	assert.Len(t, places, 1)
	assert.Equal(t, 52.6285, places[0].Lat)
	assert.Equal(t, 1.2923, places[0].Lng)
}
