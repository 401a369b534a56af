package models

import "go.mongodb.org/mongo-driver/bson/primitive"

// Incident status values. The transition is one-way: captured -> sent.
const (
	IncidentStatusCaptured = "captured"
	IncidentStatusSent     = "sent"
)

// Incident holds the structure for the incidents collection in MongoDB
type Incident struct {
	ID      string          `json:"_id" bson:"_id"`
	Details IncidentDetails `json:"incident" bson:"incident"`
}

// IncidentDetails holds the inner incident details. CapturedAt is fixed at
// creation and never changes; everything else may be filled in by the
// wizard as the user works through the flow.
type IncidentDetails struct {
	CapturedAt    primitive.DateTime  `json:"capturedAt" bson:"capturedAt"`
	ThumbnailURL  string              `json:"thumbnailUrl,omitempty" bson:"thumbnailUrl,omitempty"`
	Lat           *float64            `json:"lat,omitempty" bson:"lat,omitempty"`
	Lng           *float64            `json:"lng,omitempty" bson:"lng,omitempty"`
	LocationText  string              `json:"locationText,omitempty" bson:"locationText,omitempty"`
	Road          string              `json:"road,omitempty" bson:"road,omitempty"`
	Town          string              `json:"town,omitempty" bson:"town,omitempty"`
	Camera        *Camera             `json:"camera,omitempty" bson:"camera,omitempty"`
	IncidentAt    *primitive.DateTime `json:"incidentAt,omitempty" bson:"incidentAt,omitempty"`
	Description   string              `json:"description,omitempty" bson:"description,omitempty"`
	Status        string              `json:"status" bson:"status"`
	SarSentAt     *primitive.DateTime `json:"sarSentAt,omitempty" bson:"sarSentAt,omitempty"`
	LetterSubject string              `json:"letterSubject,omitempty" bson:"letterSubject,omitempty"`
	LetterBody    string              `json:"letterBody,omitempty" bson:"letterBody,omitempty"`
}

// IncidentStatusCounts is the response body for the status-counts endpoint
type IncidentStatusCounts struct {
	Captured int64 `json:"captured"`
	Sent     int64 `json:"sent"`
}
