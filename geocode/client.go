// Package geocode wraps a Nominatim-compatible geocoding service.
package geocode

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/idltd/CCTV-Log/config"
)

// Address is the subset of a geocoder answer the letter generator cares
// about.
type Address struct {
	Road     string `json:"road,omitempty"`
	Town     string `json:"town,omitempty"`
	Postcode string `json:"postcode,omitempty"`
	County   string `json:"county,omitempty"`
	Display  string `json:"display,omitempty"`
}

// Place is a forward geocoding hit
type Place struct {
	Lat     float64 `json:"lat"`
	Lng     float64 `json:"lng"`
	Display string  `json:"display"`
}

// Client calls the geocoder. Geocoding is advisory; callers treat a nil
// Address as "unknown" rather than an error.
type Client struct {
	BaseURL string
	HTTP    *http.Client
}

// NewClient builds a geocoder client from the config values
func NewClient(conf *config.Config) *Client {
	return &Client{
		BaseURL: conf.GeocoderURL,
		HTTP:    &http.Client{Timeout: 10 * time.Second},
	}
}

type reverseResponse struct {
	DisplayName string `json:"display_name"`
	Address     struct {
		Road     string `json:"road"`
		Town     string `json:"town"`
		City     string `json:"city"`
		Village  string `json:"village"`
		Postcode string `json:"postcode"`
		County   string `json:"county"`
	} `json:"address"`
}

type searchResponse struct {
	Lat         string `json:"lat"`
	Lon         string `json:"lon"`
	DisplayName string `json:"display_name"`
}

// Reverse looks up the address at a point. Returns (nil, nil) when the
// geocoder has nothing for it.
func (c *Client) Reverse(ctx context.Context, lat, lng float64) (*Address, error) {
	q := url.Values{}
	q.Set("format", "jsonv2")
	q.Set("lat", strconv.FormatFloat(lat, 'f', -1, 64))
	q.Set("lon", strconv.FormatFloat(lng, 'f', -1, 64))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+"/reverse?"+q.Encode(), nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.HTTP.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode == http.StatusNotFound {
		return nil, nil
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("geocoder returned %d", resp.StatusCode)
	}

	var rr reverseResponse
	if err := json.NewDecoder(resp.Body).Decode(&rr); err != nil {
		return nil, err
	}
	if rr.DisplayName == "" {
		return nil, nil
	}

	town := rr.Address.Town
	if town == "" {
		town = rr.Address.City
	}
	if town == "" {
		town = rr.Address.Village
	}
	return &Address{
		Road:     rr.Address.Road,
		Town:     town,
		Postcode: rr.Address.Postcode,
		County:   rr.Address.County,
		Display:  rr.DisplayName,
	}, nil
}

// Search forward-geocodes a free-text query
func (c *Client) Search(ctx context.Context, query string) ([]Place, error) {
	q := url.Values{}
	q.Set("format", "jsonv2")
	q.Set("q", query)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+"/search?"+q.Encode(), nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.HTTP.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("geocoder returned %d", resp.StatusCode)
	}

	var rows []searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&rows); err != nil {
		return nil, err
	}
	places := make([]Place, 0, len(rows))
	for _, r := range rows {
		lat, err := strconv.ParseFloat(r.Lat, 64)
		if err != nil {
			continue
		}
		lng, err := strconv.ParseFloat(r.Lon, 64)
		if err != nil {
			continue
		}
		places = append(places, Place{Lat: lat, Lng: lng, Display: r.DisplayName})
	}
	return places, nil
}
