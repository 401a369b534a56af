package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/idltd/CCTV-Log/api"
	"github.com/idltd/CCTV-Log/config"
	"github.com/idltd/CCTV-Log/databases"
	"github.com/idltd/CCTV-Log/models"
)

// Contact exported for testing purposes
type Contact struct {
	DB databases.ContactDatabase
}

// ContactStatusHandler returns when an operator was last contacted. 404
// means never contacted, which callers treat as "safe to send".
func (c Contact) ContactStatusHandler(w http.ResponseWriter, r *http.Request) {
	operatorKey := mux.Vars(r)["operator_key"]

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	contact, err := c.DB.FindOne(ctx, bson.M{"_id": operatorKey})
	if err != nil {
		if err == mongo.ErrNoDocuments {
			config.ErrorStatus("operator never contacted", http.StatusNotFound, w, err)
			return
		}
		config.ErrorStatus("failed to get contact record", http.StatusInternalServerError, w, err)
		return
	}

	lastSent := contact.LastSentAt.Time().UTC()
	status := models.ContactStatus{
		Key:        contact.Key,
		Name:       contact.Name,
		LastSentAt: contact.LastSentAt,
		DaysSince:  int64(time.Now().UTC().Sub(lastSent).Hours() / 24),
		SendCount:  contact.SendCount,
	}

	b, err := json.Marshal(status)
	if err != nil {
		config.ErrorStatus("failed to marshal response", http.StatusInternalServerError, w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
	w.Write(b)
}
