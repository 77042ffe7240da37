package handlers

import (
	"time"

	"github.com/otoservice/workshop-scheduler/internal/timezone"
)

// workshopLocation is set once at startup from configuration; all
// date-only inputs are interpreted in the workshop's local time.
var workshopLocation = timezone.Location(timezone.DefaultTimezone)

func SetWorkshopTimezone(tz string) {
	workshopLocation = timezone.Location(tz)
}

func parseDateInWorkshop(dateStr string) (time.Time, error) {
	return time.ParseInLocation("2006-01-02", dateStr, workshopLocation)
}

// parseRFC3339InWorkshop accepts a full RFC3339 timestamp and also the
// zone-less "2006-01-02T15:04" the booking form sends, resolved in the
// workshop's timezone.
func parseRFC3339InWorkshop(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t.In(workshopLocation), nil
	}
	return time.ParseInLocation("2006-01-02T15:04", s, workshopLocation)
}
