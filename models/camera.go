package models

// Camera holds the structure for a camera record, either fetched from the
// registry or saved locally by the user. Distance is populated on search
// results only and is never persisted.
type Camera struct {
	ID           string   `json:"id" bson:"_id"`
	Lat          float64  `json:"lat" bson:"lat"`
	Lng          float64  `json:"lng" bson:"lng"`
	LocationDesc string   `json:"locationDesc,omitempty" bson:"locationDesc,omitempty"`
	Operator     Operator `json:"operator" bson:"operator"`

	// Local marks a user-contributed entry that has not been approved by
	// the registry yet. Manual marks an ad hoc entry that is never
	// submitted at all.
	Local  bool `json:"local,omitempty" bson:"local,omitempty"`
	Manual bool `json:"manual,omitempty" bson:"manual,omitempty"`

	// SubmitFailed is set on a local entry whose contribution upload
	// failed, so the retry job can pick it up later.
	SubmitFailed bool `json:"submitFailed,omitempty" bson:"submitFailed,omitempty"`

	Distance float64 `json:"distance,omitempty" bson:"-"`
}
