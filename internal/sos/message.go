package sos

import (
	"fmt"
	"strings"
	"time"

	"github.com/foxxcyber/trail-guide/internal/models"
)

// ComposeMessage renders the SMS body sent to emergency contacts
func ComposeMessage(name, trailName string, loc *models.Location, at time.Time) string {
	if name == "" {
		name = "A TrailGuide hiker"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "SOS: %s needs help", name)
	if trailName != "" {
		fmt.Fprintf(&b, " on %s", trailName)
	}
	b.WriteString(".")

	if loc != nil {
		fmt.Fprintf(&b, " Last known location: %.5f, %.5f https://maps.google.com/?q=%.5f,%.5f",
			loc.Latitude, loc.Longitude, loc.Latitude, loc.Longitude)
	} else {
		b.WriteString(" Location unavailable.")
	}
	fmt.Fprintf(&b, " Sent %s.", at.Format("Jan 2 3:04 PM MST"))
	b.WriteString(" If you cannot reach them call 911 or RMNP dispatch 970-586-1203.")
	return b.String()
}
