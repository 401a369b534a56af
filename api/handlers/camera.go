package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"go.mongodb.org/mongo-driver/bson"
	"go.uber.org/zap"

	"github.com/idltd/CCTV-Log/api"
	"github.com/idltd/CCTV-Log/config"
	"github.com/idltd/CCTV-Log/databases"
	"github.com/idltd/CCTV-Log/models"
	"github.com/idltd/CCTV-Log/registry"
)

// DefaultSearchRadiusMetres is used when the caller does not say how far
// to look.
const DefaultSearchRadiusMetres = 300

var errBadCoordinates = errors.New("lat and lng are required query parameters")

// Submitter is the slice of the registry client the camera handler needs
type Submitter interface {
	SubmitCamera(ctx context.Context, cam models.Camera) (string, error)
}

// Camera exported for testing purposes
type Camera struct {
	DB       databases.LocalCameraDatabase
	Registry *registry.Service
	Client   Submitter
}

// nearbyResponse mirrors registry.SearchResult with the advisory error
// flattened to a message, since errors do not marshal.
type nearbyResponse struct {
	Cameras         []models.Camera `json:"cameras"`
	Source          string          `json:"source"`
	RegistryWarning string          `json:"registryWarning,omitempty"`
}

// CamerasNearbyHandler runs a proximity search around a point
func (c Camera) CamerasNearbyHandler(w http.ResponseWriter, r *http.Request) {
	lat, latErr := strconv.ParseFloat(r.URL.Query().Get("lat"), 64)
	lng, lngErr := strconv.ParseFloat(r.URL.Query().Get("lng"), 64)
	if latErr != nil || lngErr != nil {
		config.ErrorStatus("invalid coordinates", http.StatusBadRequest, w, errBadCoordinates)
		return
	}
	radius := float64(DefaultSearchRadiusMetres)
	if v := r.URL.Query().Get("radius"); v != "" {
		parsed, err := strconv.ParseFloat(v, 64)
		if err != nil || parsed <= 0 {
			config.ErrorStatus("invalid radius", http.StatusBadRequest, w, err)
			return
		}
		radius = parsed
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	result, err := c.Registry.Nearby(ctx, lat, lng, radius)
	if err != nil {
		config.ErrorStatus("failed to search for cameras", http.StatusInternalServerError, w, err)
		return
	}

	resp := nearbyResponse{Cameras: result.Cameras, Source: result.Source}
	if result.RegistryErr != nil {
		resp.RegistryWarning = "camera registry unreachable, showing " + result.Source + " results only"
	}

	b, err := json.Marshal(resp)
	if err != nil {
		config.ErrorStatus("failed to marshal response", http.StatusInternalServerError, w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
	w.Write(b)
}

// createCameraResponse wraps the stored camera with any submission warning
type createCameraResponse struct {
	Camera  models.Camera `json:"camera"`
	Warning string        `json:"warning,omitempty"`
}

// CreateCameraHandler stores a user-entered camera locally and, unless it
// was flagged manual-only, submits it to the registry's pending queue.
// Submission failure never loses the local copy.
func (c Camera) CreateCameraHandler(w http.ResponseWriter, r *http.Request) {
	var camera models.Camera
	if err := json.NewDecoder(r.Body).Decode(&camera); err != nil {
		config.ErrorStatus("failed to decode request body", http.StatusBadRequest, w, err)
		return
	}

	camera.ID = uuid.New().String()
	camera.Local = true
	camera.SubmitFailed = false

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	resp := createCameraResponse{}
	if !camera.Manual {
		pendingID, err := c.Client.SubmitCamera(ctx, camera)
		if err != nil {
			zap.S().Warnw("camera submission failed, keeping local copy",
				"cameraID", camera.ID, "error", err)
			camera.SubmitFailed = true
			resp.Warning = "could not submit camera to the shared registry, it will be retried"
		} else {
			zap.S().Infow("camera submitted for review", "cameraID", camera.ID, "pendingID", pendingID)
		}
	}

	if _, err := c.DB.InsertOne(ctx, camera); err != nil {
		config.ErrorStatus("failed to store camera", http.StatusInternalServerError, w, err)
		return
	}

	resp.Camera = camera
	b, err := json.Marshal(resp)
	if err != nil {
		config.ErrorStatus("failed to marshal response", http.StatusInternalServerError, w, err)
		return
	}
	w.WriteHeader(http.StatusCreated)
	w.Write(b)
}

// LocalCamerasHandler lists the user's own camera entries
func (c Camera) LocalCamerasHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	cameras, err := c.DB.Find(ctx, bson.M{})
	if err != nil {
		config.ErrorStatus("failed to get local cameras", http.StatusInternalServerError, w, err)
		return
	}
	if cameras == nil {
		cameras = []models.Camera{}
	}

	b, err := json.Marshal(cameras)
	if err != nil {
		config.ErrorStatus("failed to marshal response", http.StatusInternalServerError, w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
	w.Write(b)
}

// DeleteCameraHandler removes a local camera entry
func (c Camera) DeleteCameraHandler(w http.ResponseWriter, r *http.Request) {
	cameraID := mux.Vars(r)["camera_id"]

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	deleted, err := c.DB.DeleteOne(ctx, bson.M{"_id": cameraID})
	if err != nil {
		config.ErrorStatus("failed to delete camera", http.StatusInternalServerError, w, err)
		return
	}
	if deleted == 0 {
		config.ErrorStatus("camera not found", http.StatusNotFound, w, errors.New("no camera with that id"))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
