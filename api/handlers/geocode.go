package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/idltd/CCTV-Log/api"
	"github.com/idltd/CCTV-Log/config"
	"github.com/idltd/CCTV-Log/geocode"
)

// Geocoder is the slice of the geocode client the handler needs
type Geocoder interface {
	Reverse(ctx context.Context, lat, lng float64) (*geocode.Address, error)
	Search(ctx context.Context, query string) ([]geocode.Place, error)
}

// Geocode exported for testing purposes
type Geocode struct {
	Client Geocoder
}

// ReverseGeocodeHandler resolves a coordinate to an address. A point the
// geocoder knows nothing about returns 404, which is a normal outcome.
func (g Geocode) ReverseGeocodeHandler(w http.ResponseWriter, r *http.Request) {
	lat, latErr := strconv.ParseFloat(r.URL.Query().Get("lat"), 64)
	lng, lngErr := strconv.ParseFloat(r.URL.Query().Get("lng"), 64)
	if latErr != nil || lngErr != nil {
		config.ErrorStatus("invalid coordinates", http.StatusBadRequest, w, errBadCoordinates)
		return
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	addr, err := g.Client.Reverse(ctx, lat, lng)
	if err != nil {
		config.ErrorStatus("geocoder unavailable", http.StatusBadGateway, w, err)
		return
	}
	if addr == nil {
		config.ErrorStatus("no address found", http.StatusNotFound, w, errors.New("nothing at that coordinate"))
		return
	}

	b, err := json.Marshal(addr)
	if err != nil {
		config.ErrorStatus("failed to marshal response", http.StatusInternalServerError, w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
	w.Write(b)
}

// SearchGeocodeHandler forward-geocodes free text, typically a postcode
func (g Geocode) SearchGeocodeHandler(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	if query == "" {
		config.ErrorStatus("missing query", http.StatusBadRequest, w, errors.New("q is a required query parameter"))
		return
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	places, err := g.Client.Search(ctx, query)
	if err != nil {
		config.ErrorStatus("geocoder unavailable", http.StatusBadGateway, w, err)
		return
	}
	if places == nil {
		places = []geocode.Place{}
	}

	b, err := json.Marshal(places)
	if err != nil {
		config.ErrorStatus("failed to marshal response", http.StatusInternalServerError, w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
	w.Write(b)
}
