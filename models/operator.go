package models

// Operator holds the structure for a camera operator (data controller) as
// returned by the registry. Operators are immutable once fetched; identity
// is the registry slug in ID, falling back to the organisation name.
type Operator struct {
	ID            string `json:"id,omitempty" bson:"id,omitempty"`
	Name          string `json:"name,omitempty" bson:"name,omitempty"`
	ICOReg        string `json:"icoReg,omitempty" bson:"icoReg,omitempty"`
	PrivacyEmail  string `json:"privacyEmail,omitempty" bson:"privacyEmail,omitempty"`
	PostalAddress string `json:"postalAddress,omitempty" bson:"postalAddress,omitempty"`
}
