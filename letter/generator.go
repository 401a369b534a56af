// Package letter builds subject access request letters for CCTV footage.
// Generation is pure: the same input always yields the same letter, and
// anything the user has not told us yet comes out as a bracketed
// placeholder they can fill in by hand.
package letter

import (
	"fmt"
	"strings"
	"time"

	"github.com/idltd/CCTV-Log/models"
)

// Placeholders inserted where information is missing.
const (
	PlaceholderName            = "[your name]"
	PlaceholderAddress         = "[your address]"
	PlaceholderEmail           = "[your email]"
	PlaceholderOperatorName    = "[operator name]"
	PlaceholderOperatorAddress = "[operator address]"
	PlaceholderICOReg          = "[ICO registration number]"
	PlaceholderLocation        = "[location]"
	PlaceholderDate            = "[date unknown]"
	PlaceholderTime            = "[time unknown]"
	PlaceholderDescription     = "[description of yourself and what you were wearing]"
)

// window is how far either side of the incident time the request covers.
const window = 30 * time.Minute

// Input carries everything known about the incident and the requester.
// Nil time fields mean unknown.
type Input struct {
	Profile      models.ProfileDetails
	Camera       *models.Camera
	LocationText string
	Road         string
	Town         string
	CapturedAt   *time.Time
	IncidentAt   *time.Time
	Description  string
	Now          time.Time
}

// Letter is a generated subject access request
type Letter struct {
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

// effectiveTime prefers the user-corrected incident time over the capture
// timestamp.
func (in Input) effectiveTime() *time.Time {
	if in.IncidentAt != nil {
		return in.IncidentAt
	}
	return in.CapturedAt
}

func (in Input) operatorName() string {
	if in.Camera != nil {
		return in.Camera.Operator.Name
	}
	return ""
}

func (in Input) location() string {
	if in.Camera != nil && in.Camera.LocationDesc != "" {
		return in.Camera.LocationDesc
	}
	if in.Road != "" {
		return in.Road
	}
	if in.Town != "" {
		return in.Town
	}
	if in.LocationText != "" {
		return in.LocationText
	}
	return PlaceholderLocation
}

func orPlaceholder(v, placeholder string) string {
	if v == "" {
		return placeholder
	}
	return v
}

// Generate builds the letter. Times are formatted in their own location
// so the letter reads in the timezone the incident was recorded in.
func Generate(in Input) Letter {
	at := in.effectiveTime()

	dateLine := PlaceholderDate
	timeLine := PlaceholderTime
	if at != nil {
		dateLine = at.Format("2 January 2006")
		from := at.Add(-window)
		to := at.Add(window)
		timeLine = from.Format("15:04") + "–" + to.Format("15:04")
	}

	subjectParts := []string{"CCTV footage request"}
	if name := in.operatorName(); name != "" {
		subjectParts = append(subjectParts, name)
	}
	subjectParts = append(subjectParts, in.location())
	if at != nil {
		subjectParts = append(subjectParts, dateLine)
	}

	operatorAddress := ""
	icoReg := ""
	if in.Camera != nil {
		operatorAddress = in.Camera.Operator.PostalAddress
		icoReg = in.Camera.Operator.ICOReg
	}

	var b strings.Builder
	fmt.Fprintf(&b, "To: %s\n", orPlaceholder(in.operatorName(), PlaceholderOperatorName))
	fmt.Fprintf(&b, "%s\n\n", orPlaceholder(operatorAddress, PlaceholderOperatorAddress))

	if name := in.operatorName(); name != "" {
		fmt.Fprintf(&b, "Dear %s,\n\n", name)
	} else {
		b.WriteString("Dear Sir or Madam,\n\n")
	}

	b.WriteString("I am making a subject access request under Article 15 of the UK GDPR ")
	b.WriteString("and the Data Protection Act 2018 for CCTV footage in which I appear.\n\n")

	fmt.Fprintf(&b, "Date: %s\n", dateLine)
	fmt.Fprintf(&b, "Time: %s\n", timeLine)
	fmt.Fprintf(&b, "Location: %s\n", in.location())
	fmt.Fprintf(&b, "Your ICO registration: %s\n", orPlaceholder(icoReg, PlaceholderICOReg))
	fmt.Fprintf(&b, "To help you identify me: %s\n\n", orPlaceholder(in.Description, PlaceholderDescription))

	b.WriteString("Please provide a copy of all footage from the camera(s) covering this ")
	b.WriteString("location during the time given above. I understand you are required to ")
	b.WriteString("respond within one calendar month of receiving this request. If you ")
	b.WriteString("need further information to locate the footage or to confirm my ")
	b.WriteString("identity, please contact me using the details below.\n\n")

	b.WriteString("If footage of this period is due to be deleted, I ask that you preserve ")
	b.WriteString("it pending your response.\n\n")

	fmt.Fprintf(&b, "Name: %s\n", orPlaceholder(in.Profile.Name, PlaceholderName))
	fmt.Fprintf(&b, "Address: %s\n", orPlaceholder(in.Profile.PostalAddress, PlaceholderAddress))
	fmt.Fprintf(&b, "Email: %s\n\n", orPlaceholder(in.Profile.Email, PlaceholderEmail))

	b.WriteString("Yours faithfully,\n")
	b.WriteString(orPlaceholder(in.Profile.Name, PlaceholderName))
	b.WriteString("\n")

	return Letter{
		Subject: strings.Join(subjectParts, " - "),
		Body:    b.String(),
	}
}
