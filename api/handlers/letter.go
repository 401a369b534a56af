package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/idltd/CCTV-Log/api"
	"github.com/idltd/CCTV-Log/config"
	"github.com/idltd/CCTV-Log/wizard"
)

// Letter exported for testing purposes
type Letter struct {
	Flow *wizard.Flow
}

// GenerateLetterHandler builds the letter from everything known about
// the incident and stores it for review.
func (l Letter) GenerateLetterHandler(w http.ResponseWriter, r *http.Request) {
	incidentID := mux.Vars(r)["incident_id"]

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	generated, err := l.Flow.Review(ctx, incidentID, time.Now().UTC())
	if err != nil {
		if err == mongo.ErrNoDocuments || err == wizard.ErrNotFound {
			config.ErrorStatus("incident not found", http.StatusNotFound, w, err)
			return
		}
		config.ErrorStatus("failed to generate letter", http.StatusInternalServerError, w, err)
		return
	}

	b, err := json.Marshal(generated)
	if err != nil {
		config.ErrorStatus("failed to marshal response", http.StatusInternalServerError, w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
	w.Write(b)
}

// SendLetterHandler marks the incident sent, records the contact, and
// optionally delivers the letter by email. Default is to deliver.
func (l Letter) SendLetterHandler(w http.ResponseWriter, r *http.Request) {
	incidentID := mux.Vars(r)["incident_id"]

	body := struct {
		Deliver *bool `json:"deliver"`
	}{}
	// an empty body means deliver
	_ = json.NewDecoder(r.Body).Decode(&body)
	deliver := body.Deliver == nil || *body.Deliver

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	res, err := l.Flow.Send(ctx, incidentID, deliver, time.Now().UTC())
	if err != nil {
		if err == mongo.ErrNoDocuments || err == wizard.ErrNotFound {
			config.ErrorStatus("incident not found", http.StatusNotFound, w, err)
			return
		}
		config.ErrorStatus("failed to send letter", http.StatusInternalServerError, w, err)
		return
	}

	b, err := json.Marshal(res)
	if err != nil {
		config.ErrorStatus("failed to marshal response", http.StatusInternalServerError, w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
	w.Write(b)
}
