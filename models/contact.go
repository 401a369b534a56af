package models

import (
	"strings"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// UnknownOperatorKey is the sentinel contact key for operators whose name
// produces an empty slug.
const UnknownOperatorKey = "unknown"

// Contact holds the structure for the contacts collection in MongoDB. One
// document per operator key, created on first send and updated on each
// subsequent send. Contacts are never deleted automatically.
type Contact struct {
	Key        string             `json:"_id" bson:"_id"`
	Name       string             `json:"name" bson:"name"`
	LastSentAt primitive.DateTime `json:"lastSentAt" bson:"lastSentAt"`
	SendCount  int64              `json:"sendCount" bson:"sendCount"`
}

// ContactStatus is the response body for a contact lookup, used to warn
// about repeat requests to the same operator. Advisory only.
type ContactStatus struct {
	Key        string             `json:"key"`
	Name       string             `json:"name"`
	LastSentAt primitive.DateTime `json:"lastSentAt"`
	DaysSince  int64              `json:"daysSince"`
	SendCount  int64              `json:"sendCount"`
}

// OperatorKey derives the stable contact key for an operator. The registry
// slug wins when present; otherwise the name is slugged: lowercased, runs
// of non-alphanumeric characters collapsed to a single hyphen, leading and
// trailing hyphens stripped. An empty result maps to UnknownOperatorKey.
func OperatorKey(op Operator) string {
	if op.ID != "" {
		return op.ID
	}
	var b strings.Builder
	lastHyphen := true // suppress a leading hyphen
	for _, r := range strings.ToLower(op.Name) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			lastHyphen = false
		default:
			if !lastHyphen {
				b.WriteByte('-')
				lastHyphen = true
			}
		}
	}
	key := strings.TrimRight(b.String(), "-")
	if key == "" {
		return UnknownOperatorKey
	}
	return key
}
