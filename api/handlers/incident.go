package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"github.com/idltd/CCTV-Log/api"
	"github.com/idltd/CCTV-Log/config"
	"github.com/idltd/CCTV-Log/databases"
	"github.com/idltd/CCTV-Log/models"
	"github.com/idltd/CCTV-Log/wizard"
)

var (
	errEmptyUpdate    = errors.New("request body contained no fields")
	errProtectedField = errors.New("lifecycle fields are managed by the flow")
)

// Incident exported for testing purposes
type Incident struct {
	DB   databases.IncidentDatabase
	Flow *wizard.Flow
}

// CreateIncidentHandler starts a new incident from a photo capture
func (i Incident) CreateIncidentHandler(w http.ResponseWriter, r *http.Request) {
	var in wizard.StartInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		config.ErrorStatus("failed to decode request body", http.StatusBadRequest, w, err)
		return
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	incident, err := i.Flow.Start(ctx, in)
	if err != nil {
		config.ErrorStatus("failed to create incident", http.StatusInternalServerError, w, err)
		return
	}

	b, err := json.Marshal(incident)
	if err != nil {
		config.ErrorStatus("failed to marshal response", http.StatusInternalServerError, w, err)
		return
	}
	w.WriteHeader(http.StatusCreated)
	w.Write(b)
}

// IncidentHandler returns an incident by ID
func (i Incident) IncidentHandler(w http.ResponseWriter, r *http.Request) {
	incidentID := mux.Vars(r)["incident_id"]

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	dbResp, err := i.DB.FindOne(ctx, bson.M{"_id": incidentID})
	if err != nil {
		if err == mongo.ErrNoDocuments {
			config.ErrorStatus("incident not found", http.StatusNotFound, w, err)
			return
		}
		config.ErrorStatus("failed to get incident by ID", http.StatusNotFound, w, err)
		return
	}

	b, err := json.Marshal(dbResp)
	if err != nil {
		config.ErrorStatus("failed to marshal response", http.StatusInternalServerError, w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
	w.Write(b)
}

// IncidentsHandler returns all incidents, newest capture first
func (i Incident) IncidentsHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	dbResp, err := i.DB.Find(ctx, bson.M{},
		options.Find().SetSort(bson.D{{Key: "incident.capturedAt", Value: -1}}))
	if err != nil {
		config.ErrorStatus("failed to get incidents", http.StatusInternalServerError, w, err)
		return
	}

	// return empty array instead of null if no incidents exist
	if dbResp == nil {
		dbResp = []models.Incident{}
	}

	b, err := json.Marshal(dbResp)
	if err != nil {
		config.ErrorStatus("failed to marshal response", http.StatusInternalServerError, w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
	w.Write(b)
}

// IncidentStatusCountsHandler returns how many incidents are captured vs sent
func (i Incident) IncidentStatusCountsHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	captured, err := i.DB.CountDocuments(ctx, bson.M{"incident.status": models.IncidentStatusCaptured})
	if err != nil {
		config.ErrorStatus("failed to count captured incidents", http.StatusInternalServerError, w, err)
		return
	}
	sent, err := i.DB.CountDocuments(ctx, bson.M{"incident.status": models.IncidentStatusSent})
	if err != nil {
		config.ErrorStatus("failed to count sent incidents", http.StatusInternalServerError, w, err)
		return
	}

	b, err := json.Marshal(models.IncidentStatusCounts{Captured: captured, Sent: sent})
	if err != nil {
		config.ErrorStatus("failed to marshal response", http.StatusInternalServerError, w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
	w.Write(b)
}

// immutable fields that a merge update must not touch
var protectedIncidentFields = map[string]bool{
	"capturedAt": true,
	"status":     true,
	"sarSentAt":  true,
}

// UpdateIncidentHandler merges the supplied fields into the incident,
// preserving everything else. Lifecycle fields are managed by the flow
// and rejected here.
func (i Incident) UpdateIncidentHandler(w http.ResponseWriter, r *http.Request) {
	incidentID := mux.Vars(r)["incident_id"]

	var updates map[string]interface{}
	if err := json.NewDecoder(r.Body).Decode(&updates); err != nil {
		config.ErrorStatus("failed to decode request body", http.StatusBadRequest, w, err)
		return
	}
	if len(updates) == 0 {
		config.ErrorStatus("no fields to update", http.StatusBadRequest, w, errEmptyUpdate)
		return
	}

	setFields := bson.M{}
	for key, value := range updates {
		if protectedIncidentFields[key] {
			config.ErrorStatus("field cannot be updated directly: "+key, http.StatusBadRequest, w, errProtectedField)
			return
		}
		setFields["incident."+key] = value
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	matched, err := i.DB.UpdateOne(ctx, bson.M{"_id": incidentID}, bson.M{"$set": setFields})
	if err != nil {
		config.ErrorStatus("failed to update incident", http.StatusInternalServerError, w, err)
		return
	}
	if matched == 0 {
		config.ErrorStatus("incident not found", http.StatusNotFound, w, wizard.ErrNotFound)
		return
	}

	dbResp, err := i.DB.FindOne(ctx, bson.M{"_id": incidentID})
	if err != nil {
		config.ErrorStatus("failed to get updated incident", http.StatusInternalServerError, w, err)
		return
	}

	b, err := json.Marshal(dbResp)
	if err != nil {
		config.ErrorStatus("failed to marshal response", http.StatusInternalServerError, w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
	w.Write(b)
}

// SetIncidentCameraHandler attaches the chosen camera to the incident
func (i Incident) SetIncidentCameraHandler(w http.ResponseWriter, r *http.Request) {
	incidentID := mux.Vars(r)["incident_id"]

	var camera models.Camera
	if err := json.NewDecoder(r.Body).Decode(&camera); err != nil {
		config.ErrorStatus("failed to decode request body", http.StatusBadRequest, w, err)
		return
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	if err := i.Flow.SetCamera(ctx, incidentID, &camera); err != nil {
		if err == wizard.ErrNotFound {
			config.ErrorStatus("incident not found", http.StatusNotFound, w, err)
			return
		}
		config.ErrorStatus("failed to set camera", http.StatusInternalServerError, w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// SetIncidentDetailsHandler records the description and corrected time
func (i Incident) SetIncidentDetailsHandler(w http.ResponseWriter, r *http.Request) {
	incidentID := mux.Vars(r)["incident_id"]

	var body struct {
		Description string     `json:"description"`
		IncidentAt  *time.Time `json:"incidentAt"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		config.ErrorStatus("failed to decode request body", http.StatusBadRequest, w, err)
		return
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	if err := i.Flow.SetDetails(ctx, incidentID, body.Description, body.IncidentAt); err != nil {
		if err == wizard.ErrNotFound {
			config.ErrorStatus("incident not found", http.StatusNotFound, w, err)
			return
		}
		config.ErrorStatus("failed to set details", http.StatusInternalServerError, w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// DeleteIncidentHandler discards an incident entirely
func (i Incident) DeleteIncidentHandler(w http.ResponseWriter, r *http.Request) {
	incidentID := mux.Vars(r)["incident_id"]

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	if err := i.Flow.Reset(ctx, incidentID); err != nil {
		if err == wizard.ErrNotFound {
			config.ErrorStatus("incident not found", http.StatusNotFound, w, err)
			return
		}
		config.ErrorStatus("failed to delete incident", http.StatusInternalServerError, w, err)
		return
	}

	zap.S().Infow("incident deleted", "incidentID", incidentID)
	w.WriteHeader(http.StatusNoContent)
}
