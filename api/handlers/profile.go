package handlers

import (
	"encoding/json"
	"net/http"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/idltd/CCTV-Log/api"
	"github.com/idltd/CCTV-Log/config"
	"github.com/idltd/CCTV-Log/databases"
	"github.com/idltd/CCTV-Log/models"
)

// Profile exported for testing purposes
type Profile struct {
	DB databases.ProfileDatabase
}

// ProfileHandler returns the requester profile used to fill letters
func (p Profile) ProfileHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	profile, err := p.DB.FindOne(ctx, bson.M{"_id": models.ProfileID})
	if err != nil {
		if err == mongo.ErrNoDocuments {
			config.ErrorStatus("profile not set", http.StatusNotFound, w, err)
			return
		}
		config.ErrorStatus("failed to get profile", http.StatusInternalServerError, w, err)
		return
	}

	b, err := json.Marshal(profile)
	if err != nil {
		config.ErrorStatus("failed to marshal response", http.StatusInternalServerError, w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
	w.Write(b)
}

// UpdateProfileHandler replaces the profile wholesale, creating it on
// first use.
func (p Profile) UpdateProfileHandler(w http.ResponseWriter, r *http.Request) {
	var details models.ProfileDetails
	if err := json.NewDecoder(r.Body).Decode(&details); err != nil {
		config.ErrorStatus("failed to decode request body", http.StatusBadRequest, w, err)
		return
	}

	profile := models.Profile{ID: models.ProfileID, Details: details}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	err := p.DB.ReplaceOne(ctx, bson.M{"_id": models.ProfileID}, profile,
		options.Replace().SetUpsert(true))
	if err != nil {
		config.ErrorStatus("failed to update profile", http.StatusInternalServerError, w, err)
		return
	}

	b, err := json.Marshal(profile)
	if err != nil {
		config.ErrorStatus("failed to marshal response", http.StatusInternalServerError, w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
	w.Write(b)
}
