package wizard

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/idltd/CCTV-Log/databases/mocks"
	"github.com/idltd/CCTV-Log/geocode"
	"github.com/idltd/CCTV-Log/models"
	"github.com/idltd/CCTV-Log/registry"
)

type fakeSearcher struct {
	result *registry.SearchResult
	lat    float64
	lng    float64
}

func (f *fakeSearcher) Nearby(ctx context.Context, lat, lng, radiusM float64) (*registry.SearchResult, error) {
	f.lat, f.lng = lat, lng
	return f.result, nil
}

type fakeGeocoder struct {
	addr *geocode.Address
	err  error
}

func (f *fakeGeocoder) Reverse(ctx context.Context, lat, lng float64) (*geocode.Address, error) {
	return f.addr, f.err
}

type fakeMailer struct {
	to      string
	subject string
	body    string
	err     error
}

func (f *fakeMailer) Send(ctx context.Context, to, subject, body string) error {
	f.to, f.subject, f.body = to, subject, body
	return f.err
}

type fakeEvents struct {
	events []string
}

func (f *fakeEvents) Broadcast(event string, payload interface{}) {
	f.events = append(f.events, event)
}

func capturedIncident(id string, letterReady bool) *models.Incident {
	lat, lng := 51.5, -0.1
	inc := &models.Incident{
		ID: id,
		Details: models.IncidentDetails{
			CapturedAt: primitive.NewDateTimeFromTime(time.Date(2024, 3, 1, 14, 32, 0, 0, time.UTC)),
			Lat:        &lat,
			Lng:        &lng,
			Status:     models.IncidentStatusCaptured,
			Camera: &models.Camera{
				ID:           "cam-1",
				LocationDesc: "above the shop door",
				Operator: models.Operator{
					ID:           "tesco",
					Name:         "Tesco",
					PrivacyEmail: "privacy@tesco.example",
				},
			},
		},
	}
	if letterReady {
		inc.Details.LetterSubject = "CCTV footage request - Tesco"
		inc.Details.LetterBody = "Dear Tesco,\n..."
	}
	return inc
}

func TestStartCreatesCapturedIncident(t *testing.T) {
	incidents := &mocks.IncidentDatabase{}
	var inserted models.Incident
	incidents.On("InsertOne", mock.Anything, mock.AnythingOfType("models.Incident")).
		Return(&mocks.InsertOneResultHelper{}, nil).
		Run(func(args mock.Arguments) {
			inserted = args.Get(1).(models.Incident)
		})

	flow := New(Deps{Incidents: incidents})
	lat, lng := 51.5, -0.1
	got, err := flow.Start(context.Background(), StartInput{
		ThumbnailURL: "https://img.example/thumb.jpg",
		Lat:          &lat,
		Lng:          &lng,
	})

	assert.NoError(t, err)
	assert.Equal(t, models.IncidentStatusCaptured, got.Details.Status)
	assert.Nil(t, got.Details.SarSentAt)
	_, err = uuid.Parse(got.ID)
	assert.NoError(t, err)
	assert.Equal(t, got.ID, inserted.ID)
	assert.NotZero(t, inserted.Details.CapturedAt)
}

func TestStartIDsAreUnique(t *testing.T) {
	incidents := &mocks.IncidentDatabase{}
	incidents.On("InsertOne", mock.Anything, mock.AnythingOfType("models.Incident")).
		Return(&mocks.InsertOneResultHelper{}, nil)

	flow := New(Deps{Incidents: incidents})
	seen := map[string]bool{}
	for i := 0; i < 50; i++ {
		got, err := flow.Start(context.Background(), StartInput{})
		assert.NoError(t, err)
		assert.False(t, seen[got.ID])
		seen[got.ID] = true
	}
}

func TestIdentifyUsesCapturePoint(t *testing.T) {
	incidents := &mocks.IncidentDatabase{}
	incidents.On("FindOne", mock.Anything, mock.Anything).
		Return(capturedIncident("abc", false), nil)
	searcher := &fakeSearcher{result: &registry.SearchResult{
		Cameras: []models.Camera{{ID: "cam-1"}},
		Source:  registry.SourceRegistry,
	}}

	flow := New(Deps{Incidents: incidents, Registry: searcher})
	res, err := flow.Identify(context.Background(), "abc", 500)

	assert.NoError(t, err)
	assert.Equal(t, 51.5, searcher.lat)
	assert.Equal(t, -0.1, searcher.lng)
	assert.Len(t, res.Cameras, 1)
}

func TestIdentifyWithoutCoordinatesIsLocalOnly(t *testing.T) {
	inc := capturedIncident("abc", false)
	inc.Details.Lat = nil
	inc.Details.Lng = nil
	incidents := &mocks.IncidentDatabase{}
	incidents.On("FindOne", mock.Anything, mock.Anything).Return(inc, nil)

	flow := New(Deps{Incidents: incidents, Registry: &fakeSearcher{}})
	res, err := flow.Identify(context.Background(), "abc", 500)

	assert.NoError(t, err)
	assert.Equal(t, registry.SourceLocal, res.Source)
	assert.Empty(t, res.Cameras)
}

func TestReverseGeocodeStoresAddressParts(t *testing.T) {
	incidents := &mocks.IncidentDatabase{}
	var set bson.M
	incidents.On("UpdateOne", mock.Anything, mock.Anything, mock.Anything).
		Return(int64(1), nil).
		Run(func(args mock.Arguments) {
			set = args.Get(2).(bson.M)["$set"].(bson.M)
		})

	geocoder := &fakeGeocoder{addr: &geocode.Address{
		Road:    "High Street",
		Town:    "Guildford",
		Display: "High Street, Guildford, Surrey",
	}}

	flow := New(Deps{Incidents: incidents, Geocoder: geocoder})
	flow.reverseGeocode("abc", 51.5, -0.1)

	assert.Equal(t, "High Street, Guildford, Surrey", set["incident.locationText"])
	assert.Equal(t, "High Street", set["incident.road"])
	assert.Equal(t, "Guildford", set["incident.town"])
}

func TestReviewPrefersRoadWhenNoCamera(t *testing.T) {
	inc := capturedIncident("abc", false)
	inc.Details.Camera = nil
	inc.Details.Road = "High Street"
	inc.Details.Town = "Guildford"
	inc.Details.LocationText = "High Street, Guildford, Surrey"

	incidents := &mocks.IncidentDatabase{}
	incidents.On("FindOne", mock.Anything, mock.Anything).Return(inc, nil)
	incidents.On("UpdateOne", mock.Anything, mock.Anything, mock.Anything).
		Return(int64(1), nil)

	profiles := &mocks.ProfileDatabase{}
	profiles.On("FindOne", mock.Anything, mock.Anything).
		Return(nil, mongo.ErrNoDocuments)

	flow := New(Deps{Incidents: incidents, Profiles: profiles})
	l, err := flow.Review(context.Background(), "abc", time.Date(2024, 3, 2, 10, 0, 0, 0, time.UTC))

	assert.NoError(t, err)
	assert.Contains(t, l.Subject, "High Street")
	assert.Contains(t, l.Body, "Location: High Street\n")
}

func TestSetDetailsMissingIncident(t *testing.T) {
	incidents := &mocks.IncidentDatabase{}
	incidents.On("UpdateOne", mock.Anything, mock.Anything, mock.Anything).
		Return(int64(0), nil)

	flow := New(Deps{Incidents: incidents})
	err := flow.SetDetails(context.Background(), "missing", "red coat", nil)

	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSendDeliversAndMarksSent(t *testing.T) {
	now := time.Date(2024, 3, 2, 10, 0, 0, 0, time.UTC)

	incidents := &mocks.IncidentDatabase{}
	incidents.On("FindOne", mock.Anything, mock.Anything).
		Return(capturedIncident("abc", true), nil)
	incidents.On("UpdateOne", mock.Anything, mock.Anything, mock.Anything).
		Return(int64(1), nil)

	contacts := &mocks.ContactDatabase{}
	contacts.On("FindOne", mock.Anything, mock.Anything).
		Return(nil, mongo.ErrNoDocuments)
	contacts.On("UpdateOne", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(int64(1), nil)

	mailer := &fakeMailer{}
	events := &fakeEvents{}

	flow := New(Deps{Incidents: incidents, Contacts: contacts, Mailer: mailer, Events: events})
	res, err := flow.Send(context.Background(), "abc", true, now)

	assert.NoError(t, err)
	assert.True(t, res.Delivered)
	assert.Equal(t, "privacy@tesco.example", mailer.to)
	assert.Equal(t, models.IncidentStatusSent, res.Incident.Details.Status)
	assert.NotNil(t, res.Incident.Details.SarSentAt)
	assert.Contains(t, events.events, "incident_sent")
}

func TestSendWithoutEmailStillMarksSent(t *testing.T) {
	now := time.Date(2024, 3, 2, 10, 0, 0, 0, time.UTC)

	inc := capturedIncident("abc", true)
	inc.Details.Camera = nil
	incidents := &mocks.IncidentDatabase{}
	incidents.On("FindOne", mock.Anything, mock.Anything).Return(inc, nil)
	incidents.On("UpdateOne", mock.Anything, mock.Anything, mock.Anything).
		Return(int64(1), nil)

	contacts := &mocks.ContactDatabase{}
	contacts.On("FindOne", mock.Anything, mock.Anything).
		Return(nil, mongo.ErrNoDocuments)
	contacts.On("UpdateOne", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(int64(1), nil)

	flow := New(Deps{Incidents: incidents, Contacts: contacts, Mailer: &fakeMailer{}})
	res, err := flow.Send(context.Background(), "abc", true, now)

	assert.NoError(t, err)
	assert.False(t, res.Delivered)
	assert.NotEmpty(t, res.Warning)
	assert.Equal(t, models.IncidentStatusSent, res.Incident.Details.Status)
}

func TestSendWarnsOnRecentContact(t *testing.T) {
	now := time.Date(2024, 3, 4, 10, 0, 0, 0, time.UTC)
	lastSent := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)

	incidents := &mocks.IncidentDatabase{}
	incidents.On("FindOne", mock.Anything, mock.Anything).
		Return(capturedIncident("abc", true), nil)
	incidents.On("UpdateOne", mock.Anything, mock.Anything, mock.Anything).
		Return(int64(1), nil)

	contacts := &mocks.ContactDatabase{}
	contacts.On("FindOne", mock.Anything, mock.Anything).
		Return(&models.Contact{
			Key:        "tesco",
			Name:       "Tesco",
			LastSentAt: primitive.NewDateTimeFromTime(lastSent),
			SendCount:  2,
		}, nil)
	contacts.On("UpdateOne", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(int64(1), nil)

	flow := New(Deps{Incidents: incidents, Contacts: contacts})
	res, err := flow.Send(context.Background(), "abc", false, now)

	assert.NoError(t, err)
	assert.NotNil(t, res.Contact)
	assert.Equal(t, int64(3), res.Contact.DaysSince)
	assert.Equal(t, int64(2), res.Contact.SendCount)
	assert.NotEmpty(t, res.Warning)
}

func TestSendKeepsBothWarnings(t *testing.T) {
	now := time.Date(2024, 3, 4, 10, 0, 0, 0, time.UTC)
	lastSent := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)

	inc := capturedIncident("abc", true)
	inc.Details.Camera.Operator.PrivacyEmail = ""
	incidents := &mocks.IncidentDatabase{}
	incidents.On("FindOne", mock.Anything, mock.Anything).Return(inc, nil)
	incidents.On("UpdateOne", mock.Anything, mock.Anything, mock.Anything).
		Return(int64(1), nil)

	contacts := &mocks.ContactDatabase{}
	contacts.On("FindOne", mock.Anything, mock.Anything).
		Return(&models.Contact{
			Key:        "tesco",
			Name:       "Tesco",
			LastSentAt: primitive.NewDateTimeFromTime(lastSent),
			SendCount:  1,
		}, nil)
	contacts.On("UpdateOne", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(int64(1), nil)

	flow := New(Deps{Incidents: incidents, Contacts: contacts, Mailer: &fakeMailer{}})
	res, err := flow.Send(context.Background(), "abc", true, now)

	assert.NoError(t, err)
	assert.False(t, res.Delivered)
	assert.Contains(t, res.Warning, "contacted recently")
	assert.Contains(t, res.Warning, "send the letter by post")
}

func TestResetMissingIncident(t *testing.T) {
	incidents := &mocks.IncidentDatabase{}
	incidents.On("DeleteOne", mock.Anything, mock.Anything).
		Return(int64(0), nil)

	flow := New(Deps{Incidents: incidents})
	err := flow.Reset(context.Background(), "missing")

	assert.ErrorIs(t, err, ErrNotFound)
}
