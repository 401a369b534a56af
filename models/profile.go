package models

// ProfileID is the fixed document id for the single profile record.
const ProfileID = "profile"

// Profile holds the structure for the single user profile document. The
// record is overwritten wholesale on save.
type Profile struct {
	ID      string         `json:"_id" bson:"_id"`
	Details ProfileDetails `json:"profile" bson:"profile"`
}

// ProfileDetails holds the inner profile fields. All are optional; the
// letter generator substitutes placeholders for anything missing.
type ProfileDetails struct {
	Name          string `json:"name,omitempty" bson:"name,omitempty"`
	PostalAddress string `json:"postalAddress,omitempty" bson:"postalAddress,omitempty"`
	Email         string `json:"email,omitempty" bson:"email,omitempty"`
}
