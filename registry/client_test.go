package registry

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/idltd/CCTV-Log/models"
)

func testClient(ts *httptest.Server) *Client {
	return &Client{
		BaseURL:  ts.URL,
		APIKey:   "anon-key",
		AdminKey: "admin-key",
		HTTP:     ts.Client(),
	}
}

func TestNearbyDecodesOperatorEmbed(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/rest/v1/rpc/cameras_nearby", r.URL.Path)
		assert.Equal(t, "anon-key", r.Header.Get("apikey"))
		w.Write([]byte(`[{
			"id": "cam-1",
			"lat": 51.5001,
			"lng": -0.1,
			"location_desc": "above the shop door",
			"distance_m": 11.1,
			"operators": {
				"id": "tesco",
				"name": "Tesco",
				"ico_reg": "Z123",
				"privacy_email": "privacy@tesco.example",
				"postal_address": "1 High St"
			}
		}]`))
	}))
	defer ts.Close()

	cameras, err := testClient(ts).Nearby(context.Background(), 51.5, -0.1, 500)

	assert.NoError(t, err)
	assert.Len(t, cameras, 1)
	assert.Equal(t, "cam-1", cameras[0].ID)
	assert.Equal(t, "Tesco", cameras[0].Operator.Name)
	assert.Equal(t, "privacy@tesco.example", cameras[0].Operator.PrivacyEmail)
	assert.Equal(t, 11.1, cameras[0].Distance)
}

func TestNearbyServerErrorIsUnavailable(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer ts.Close()

	_, err := testClient(ts).Nearby(context.Background(), 51.5, -0.1, 500)

	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestNearbyNetworkErrorIsUnavailable(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	c := testClient(ts)
	ts.Close()

	_, err := c.Nearby(context.Background(), 51.5, -0.1, 500)

	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestNearbyClientErrorIsNotUnavailable(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer ts.Close()

	_, err := testClient(ts).Nearby(context.Background(), 51.5, -0.1, 500)

	assert.Error(t, err)
	assert.NotErrorIs(t, err, ErrUnavailable)
}

func TestSubmitCameraRoundsCoordinates(t *testing.T) {
	var payload map[string]interface{}
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/rest/v1/pending_cameras", r.URL.Path)
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		w.Write([]byte(`[{"id": "pending-1"}]`))
	}))
	defer ts.Close()

	cam := models.Camera{
		Lat:          51.50012345678,
		Lng:          -0.12345678901,
		LocationDesc: "lamp post outside the bakery",
		Operator:     models.Operator{Name: "Tesco"},
	}
	id, err := testClient(ts).SubmitCamera(context.Background(), cam)

	assert.NoError(t, err)
	assert.Equal(t, "pending-1", id)
	assert.Equal(t, 51.500123, payload["lat"])
	assert.Equal(t, -0.123457, payload["lng"])
}

func TestListPendingUsesAdminKey(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "admin-key", r.Header.Get("apikey"))
		w.Write([]byte(`[]`))
	}))
	defer ts.Close()

	cameras, err := testClient(ts).ListPending(context.Background())

	assert.NoError(t, err)
	assert.Empty(t, cameras)
}
