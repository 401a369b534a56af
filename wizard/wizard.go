// Package wizard drives an incident from photo capture through to a sent
// subject access request. One flow runs at a time; every step leaves the
// incident in a state it can be resumed from.
package wizard

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"github.com/idltd/CCTV-Log/databases"
	"github.com/idltd/CCTV-Log/geocode"
	"github.com/idltd/CCTV-Log/letter"
	"github.com/idltd/CCTV-Log/models"
	"github.com/idltd/CCTV-Log/registry"
)

// ErrNotFound indicates the incident id does not exist. This is a caller
// contract failure, not a normal outcome.
var ErrNotFound = errors.New("incident not found")

// Searcher answers proximity queries for the identify step.
type Searcher interface {
	Nearby(ctx context.Context, lat, lng, radiusM float64) (*registry.SearchResult, error)
}

// Geocoder resolves coordinates to an address. Best effort only.
type Geocoder interface {
	Reverse(ctx context.Context, lat, lng float64) (*geocode.Address, error)
}

// Mailer delivers a composed letter
type Mailer interface {
	Send(ctx context.Context, to, subject, body string) error
}

// Events receives flow milestones for realtime listeners
type Events interface {
	Broadcast(event string, payload interface{})
}

// Deps are the collaborators a Flow needs. Geocoder, Mailer and Events
// may be nil; the flow degrades rather than failing.
type Deps struct {
	Incidents databases.IncidentDatabase
	Contacts  databases.ContactDatabase
	Profiles  databases.ProfileDatabase
	Registry  Searcher
	Geocoder  Geocoder
	Mailer    Mailer
	Events    Events
}

// Flow is the wizard controller
type Flow struct {
	deps Deps
}

// New builds a Flow from its collaborators
func New(deps Deps) *Flow {
	return &Flow{deps: deps}
}

// StartInput is what a photo capture gives us
type StartInput struct {
	ThumbnailURL string     `json:"thumbnailUrl"`
	Lat          *float64   `json:"lat"`
	Lng          *float64   `json:"lng"`
	CapturedAt   *time.Time `json:"capturedAt"`
}

// Start creates a new incident in status captured. Reverse geocoding of
// the capture point runs in the background; the incident is usable
// before it resolves and a geocoding failure is simply never recorded.
func (f *Flow) Start(ctx context.Context, in StartInput) (*models.Incident, error) {
	capturedAt := time.Now().UTC()
	if in.CapturedAt != nil {
		capturedAt = in.CapturedAt.UTC()
	}

	incident := models.Incident{
		ID: uuid.New().String(),
		Details: models.IncidentDetails{
			CapturedAt:   primitive.NewDateTimeFromTime(capturedAt),
			ThumbnailURL: in.ThumbnailURL,
			Lat:          in.Lat,
			Lng:          in.Lng,
			Status:       models.IncidentStatusCaptured,
		},
	}

	if _, err := f.deps.Incidents.InsertOne(ctx, incident); err != nil {
		return nil, err
	}

	if f.deps.Geocoder != nil && in.Lat != nil && in.Lng != nil {
		go f.reverseGeocode(incident.ID, *in.Lat, *in.Lng)
	}

	return &incident, nil
}

func (f *Flow) reverseGeocode(id string, lat, lng float64) {
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	addr, err := f.deps.Geocoder.Reverse(ctx, lat, lng)
	if err != nil {
		zap.S().Warnw("reverse geocode failed", "incidentID", id, "error", err)
		return
	}
	if addr == nil {
		return
	}
	_, err = f.deps.Incidents.UpdateOne(ctx,
		bson.M{"_id": id},
		bson.M{"$set": bson.M{
			"incident.locationText": addr.Display,
			"incident.road":         addr.Road,
			"incident.town":         addr.Town,
		}},
	)
	if err != nil {
		zap.S().Warnw("failed to store geocoded location", "incidentID", id, "error", err)
	}
}

// Resume loads an incident by id
func (f *Flow) Resume(ctx context.Context, id string) (*models.Incident, error) {
	incident, err := f.deps.Incidents.FindOne(ctx, bson.M{"_id": id})
	if err != nil {
		return nil, err
	}
	return incident, nil
}

// Identify runs the proximity search around the incident's capture point.
// Incidents without coordinates get an empty local-only result so the
// user is steered to manual camera entry.
func (f *Flow) Identify(ctx context.Context, id string, radiusM float64) (*registry.SearchResult, error) {
	incident, err := f.Resume(ctx, id)
	if err != nil {
		return nil, err
	}
	if incident.Details.Lat == nil || incident.Details.Lng == nil {
		return &registry.SearchResult{
			Cameras: []models.Camera{},
			Source:  registry.SourceLocal,
		}, nil
	}
	return f.deps.Registry.Nearby(ctx, *incident.Details.Lat, *incident.Details.Lng, radiusM)
}

// SetCamera attaches the chosen camera to the incident
func (f *Flow) SetCamera(ctx context.Context, id string, camera *models.Camera) error {
	return f.update(ctx, id, bson.M{"incident.camera": camera})
}

// SetDetails records the user's description and corrected incident time
func (f *Flow) SetDetails(ctx context.Context, id string, description string, incidentAt *time.Time) error {
	set := bson.M{"incident.description": description}
	if incidentAt != nil {
		set["incident.incidentAt"] = primitive.NewDateTimeFromTime(incidentAt.UTC())
	}
	return f.update(ctx, id, set)
}

func (f *Flow) update(ctx context.Context, id string, set bson.M) error {
	matched, err := f.deps.Incidents.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": set})
	if err != nil {
		return err
	}
	if matched == 0 {
		return ErrNotFound
	}
	return nil
}

// Review generates the letter from everything known so far and persists
// it on the incident for later editing or resending.
func (f *Flow) Review(ctx context.Context, id string, now time.Time) (*letter.Letter, error) {
	incident, err := f.Resume(ctx, id)
	if err != nil {
		return nil, err
	}

	profile := models.ProfileDetails{}
	p, err := f.deps.Profiles.FindOne(ctx, bson.M{"_id": models.ProfileID})
	if err == nil && p != nil {
		profile = p.Details
	}

	in := letter.Input{
		Profile:      profile,
		Camera:       incident.Details.Camera,
		LocationText: incident.Details.LocationText,
		Road:         incident.Details.Road,
		Town:         incident.Details.Town,
		Description:  incident.Details.Description,
		Now:          now,
	}
	capturedAt := incident.Details.CapturedAt.Time().UTC()
	in.CapturedAt = &capturedAt
	if incident.Details.IncidentAt != nil {
		incidentAt := incident.Details.IncidentAt.Time().UTC()
		in.IncidentAt = &incidentAt
	}

	l := letter.Generate(in)

	err = f.update(ctx, id, bson.M{
		"incident.letterSubject": l.Subject,
		"incident.letterBody":    l.Body,
	})
	if err != nil {
		return nil, err
	}
	return &l, nil
}

// SendResult reports a send outcome. Warning carries advisory conditions
// (recent contact with the same operator, undeliverable letter) that do
// not stop the send.
type SendResult struct {
	Incident  *models.Incident      `json:"incident"`
	Letter    letter.Letter         `json:"letter"`
	Delivered bool                  `json:"delivered"`
	Contact   *models.ContactStatus `json:"contact,omitempty"`
	Warning   string                `json:"warning,omitempty"`
}

// addWarning accumulates advisory conditions; none of them replaces
// another.
func (r *SendResult) addWarning(msg string) {
	if r.Warning == "" {
		r.Warning = msg
		return
	}
	r.Warning = r.Warning + "; " + msg
}

// Send marks the incident sent, records the operator contact, and hands
// the letter to the mailer when delivery is requested. The status change
// and contact record happen even if delivery is skipped, since the user
// may post the letter themselves.
func (f *Flow) Send(ctx context.Context, id string, deliver bool, now time.Time) (*SendResult, error) {
	incident, err := f.Resume(ctx, id)
	if err != nil {
		return nil, err
	}

	l := letter.Letter{
		Subject: incident.Details.LetterSubject,
		Body:    incident.Details.LetterBody,
	}
	if l.Body == "" {
		generated, err := f.Review(ctx, id, now)
		if err != nil {
			return nil, err
		}
		l = *generated
	}

	res := &SendResult{Letter: l}

	var operator models.Operator
	if incident.Details.Camera != nil {
		operator = incident.Details.Camera.Operator
	}

	res.Contact = f.contactStatus(ctx, operator, now)
	if res.Contact != nil {
		res.addWarning("this operator was contacted recently")
	}

	if deliver {
		if f.deps.Mailer == nil || operator.PrivacyEmail == "" {
			res.addWarning("no contact email known, send the letter by post")
		} else if err := f.deps.Mailer.Send(ctx, operator.PrivacyEmail, l.Subject, l.Body); err != nil {
			return nil, err
		} else {
			res.Delivered = true
		}
	}

	if err := f.markSent(ctx, id, now); err != nil {
		return nil, err
	}
	if err := f.recordContact(ctx, operator, now); err != nil {
		zap.S().Warnw("failed to record contact", "incidentID", id, "error", err)
	}

	incident.Details.Status = models.IncidentStatusSent
	sentAt := primitive.NewDateTimeFromTime(now.UTC())
	incident.Details.SarSentAt = &sentAt
	res.Incident = incident

	if f.deps.Events != nil {
		f.deps.Events.Broadcast("incident_sent", incident)
	}
	return res, nil
}

// markSent flips status to sent and stamps sarSentAt. Already-sent
// incidents keep their original timestamp so status never reverts.
func (f *Flow) markSent(ctx context.Context, id string, now time.Time) error {
	matched, err := f.deps.Incidents.UpdateOne(ctx,
		bson.M{"_id": id, "incident.status": models.IncidentStatusCaptured},
		bson.M{"$set": bson.M{
			"incident.status":    models.IncidentStatusSent,
			"incident.sarSentAt": primitive.NewDateTimeFromTime(now.UTC()),
		}},
	)
	if err != nil {
		return err
	}
	if matched == 0 {
		// either missing or already sent; only the former is an error
		if _, err := f.Resume(ctx, id); err != nil {
			return ErrNotFound
		}
	}
	return nil
}

func (f *Flow) contactStatus(ctx context.Context, operator models.Operator, now time.Time) *models.ContactStatus {
	key := models.OperatorKey(operator)
	contact, err := f.deps.Contacts.FindOne(ctx, bson.M{"_id": key})
	if err != nil || contact == nil {
		return nil
	}
	lastSent := contact.LastSentAt.Time()
	return &models.ContactStatus{
		Key:        contact.Key,
		Name:       contact.Name,
		LastSentAt: contact.LastSentAt,
		DaysSince:  int64(now.UTC().Sub(lastSent.UTC()).Hours() / 24),
		SendCount:  contact.SendCount,
	}
}

func (f *Flow) recordContact(ctx context.Context, operator models.Operator, now time.Time) error {
	key := models.OperatorKey(operator)
	_, err := f.deps.Contacts.UpdateOne(ctx,
		bson.M{"_id": key},
		bson.M{
			"$set": bson.M{
				"name":       operator.Name,
				"lastSentAt": primitive.NewDateTimeFromTime(now.UTC()),
			},
			"$inc": bson.M{"sendCount": 1},
		},
		options.Update().SetUpsert(true),
	)
	return err
}

// Reset discards an incident entirely
func (f *Flow) Reset(ctx context.Context, id string) error {
	deleted, err := f.deps.Incidents.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if deleted == 0 {
		return ErrNotFound
	}
	return nil
}
