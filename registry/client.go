package registry

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"time"

	"github.com/idltd/CCTV-Log/config"
	"github.com/idltd/CCTV-Log/models"
)

// ErrUnavailable indicates the registry could not be reached or returned a
// server error. Callers treat this as "fall back to cached data", not as
// "no cameras nearby".
var ErrUnavailable = errors.New("camera registry unavailable")

// Client talks to the shared camera registry over its PostgREST API.
type Client struct {
	BaseURL  string
	APIKey   string
	AdminKey string
	HTTP     *http.Client
}

// NewClient builds a registry client from the config values
func NewClient(conf *config.Config) *Client {
	return &Client{
		BaseURL:  conf.RegistryURL,
		APIKey:   conf.RegistryAPIKey,
		AdminKey: conf.RegistryAdminKey,
		HTTP:     &http.Client{Timeout: 10 * time.Second},
	}
}

type cameraRow struct {
	ID           string  `json:"id"`
	Lat          float64 `json:"lat"`
	Lng          float64 `json:"lng"`
	LocationDesc string  `json:"location_desc"`
	DistanceM    float64 `json:"distance_m"`
	Operator     *struct {
		ID            string `json:"id"`
		Name          string `json:"name"`
		ICOReg        string `json:"ico_reg"`
		PrivacyEmail  string `json:"privacy_email"`
		PostalAddress string `json:"postal_address"`
	} `json:"operators"`
}

func (r cameraRow) toModel() models.Camera {
	cam := models.Camera{
		ID:           r.ID,
		Lat:          r.Lat,
		Lng:          r.Lng,
		LocationDesc: r.LocationDesc,
		Distance:     r.DistanceM,
	}
	if r.Operator != nil {
		cam.Operator = models.Operator{
			ID:            r.Operator.ID,
			Name:          r.Operator.Name,
			ICOReg:        r.Operator.ICOReg,
			PrivacyEmail:  r.Operator.PrivacyEmail,
			PostalAddress: r.Operator.PostalAddress,
		}
	}
	return cam
}

func (c *Client) do(ctx context.Context, method, path string, body interface{}, apiKey string) ([]byte, error) {
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return nil, err
		}
		reader = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, reader)
	if err != nil {
		return nil, err
	}
	req.Header.Set("apikey", apiKey)
	req.Header.Set("Authorization", "Bearer "+apiKey)
	req.Header.Set("Content-Type", "application/json")
	if method == http.MethodPost && body != nil {
		req.Header.Set("Prefer", "return=representation")
	}

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if resp.StatusCode >= 500 {
		return nil, fmt.Errorf("%w: registry returned %d", ErrUnavailable, resp.StatusCode)
	}
	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("registry returned %d: %s", resp.StatusCode, data)
	}
	return data, nil
}

// Nearby runs the server-side proximity query and returns cameras within
// radiusM metres of the point, nearest first.
func (c *Client) Nearby(ctx context.Context, lat, lng, radiusM float64) ([]models.Camera, error) {
	payload := map[string]float64{
		"query_lat": lat,
		"query_lng": lng,
		"radius_m":  radiusM,
	}
	data, err := c.do(ctx, http.MethodPost, "/rest/v1/rpc/cameras_nearby", payload, c.APIKey)
	if err != nil {
		return nil, err
	}
	var rows []cameraRow
	if err := json.Unmarshal(data, &rows); err != nil {
		return nil, err
	}
	cameras := make([]models.Camera, 0, len(rows))
	for _, r := range rows {
		cameras = append(cameras, r.toModel())
	}
	return cameras, nil
}

// ListCameras fetches the full camera set with operators embedded. Used to
// warm the offline cache.
func (c *Client) ListCameras(ctx context.Context) ([]models.Camera, error) {
	data, err := c.do(ctx, http.MethodGet, "/rest/v1/cameras?select=*,operators(*)", nil, c.APIKey)
	if err != nil {
		return nil, err
	}
	var rows []cameraRow
	if err := json.Unmarshal(data, &rows); err != nil {
		return nil, err
	}
	cameras := make([]models.Camera, 0, len(rows))
	for _, r := range rows {
		cameras = append(cameras, r.toModel())
	}
	return cameras, nil
}

// round6 rounds coordinates to ~11cm precision before they leave the
// device, per the registry's contribution rules.
func round6(v float64) float64 {
	return math.Round(v*1e6) / 1e6
}

// SubmitCamera uploads a user-contributed camera to the pending review
// queue and returns the registry-assigned id.
func (c *Client) SubmitCamera(ctx context.Context, cam models.Camera) (string, error) {
	payload := map[string]interface{}{
		"lat":           round6(cam.Lat),
		"lng":           round6(cam.Lng),
		"location_desc": cam.LocationDesc,
		"operator_name": cam.Operator.Name,
	}
	data, err := c.do(ctx, http.MethodPost, "/rest/v1/pending_cameras", payload, c.APIKey)
	if err != nil {
		return "", err
	}
	var rows []struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(data, &rows); err != nil {
		return "", err
	}
	if len(rows) == 0 {
		return "", nil
	}
	return rows[0].ID, nil
}

// ListPending returns the pending contribution queue. Requires the admin key.
func (c *Client) ListPending(ctx context.Context) ([]models.Camera, error) {
	data, err := c.do(ctx, http.MethodGet, "/rest/v1/pending_cameras?select=*", nil, c.AdminKey)
	if err != nil {
		return nil, err
	}
	var rows []cameraRow
	if err := json.Unmarshal(data, &rows); err != nil {
		return nil, err
	}
	cameras := make([]models.Camera, 0, len(rows))
	for _, r := range rows {
		cameras = append(cameras, r.toModel())
	}
	return cameras, nil
}

// ReviewPending approves or rejects a pending camera. Requires the admin key.
func (c *Client) ReviewPending(ctx context.Context, id string, approve bool) error {
	payload := map[string]interface{}{
		"pending_id": id,
		"approve":    approve,
	}
	_, err := c.do(ctx, http.MethodPost, "/rest/v1/rpc/review_pending_camera", payload, c.AdminKey)
	return err
}
