package handlers

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/idltd/CCTV-Log/databases/mocks"
	"github.com/idltd/CCTV-Log/models"
)

func TestContactStatusHandlerNeverContacted(t *testing.T) {
	db := &mocks.ContactDatabase{}
	db.On("FindOne", mock.Anything, mock.Anything).Return(nil, mongo.ErrNoDocuments)

	c := Contact{DB: db}
	req := mux.SetURLVars(httptest.NewRequest("GET", "/api/v1/contact/tesco", nil),
		map[string]string{"operator_key": "tesco"})
	rr := httptest.NewRecorder()

	c.ContactStatusHandler(rr, req)

	assert.Equal(t, http.StatusNotFound, rr.Code)
	assert.Contains(t, rr.Body.String(), "never contacted")
}

func TestContactStatusHandlerReturnsElapsedDays(t *testing.T) {
	lastSent := time.Now().UTC().Add(-49 * time.Hour)
	db := &mocks.ContactDatabase{}
	db.On("FindOne", mock.Anything, mock.Anything).Return(&models.Contact{
		Key:        "tesco",
		Name:       "Tesco",
		LastSentAt: primitive.NewDateTimeFromTime(lastSent),
		SendCount:  4,
	}, nil)

	c := Contact{DB: db}
	req := mux.SetURLVars(httptest.NewRequest("GET", "/api/v1/contact/tesco", nil),
		map[string]string{"operator_key": "tesco"})
	rr := httptest.NewRecorder()

	c.ContactStatusHandler(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `"daysSince":2`)
	assert.Contains(t, rr.Body.String(), `"sendCount":4`)
}
