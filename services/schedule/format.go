package schedule

import (
	"fmt"
	"strings"
	"time"

	"voicedesk/models"
)

// SpeakDate renders a date for synthesis: "Tuesday, March 3". Never an ISO
// form, which sounds wrong when read aloud.
func SpeakDate(t time.Time) string {
	return fmt.Sprintf("%s, %s %d", t.Weekday(), t.Month(), t.Day())
}

// SpeakDateTime renders a full appointment instant: "Tuesday, March 3 at 4 PM".
func SpeakDateTime(t time.Time) string {
	ct := models.ClockTime{Hour: t.Hour(), Minute: t.Minute()}
	return fmt.Sprintf("%s at %s", SpeakDate(t), ct.Speech())
}

// SpeakSlots joins candidate starts into one spoken list: "4 PM, 4:30 PM, or 5 PM".
func SpeakSlots(slots []time.Time) string {
	if len(slots) == 0 {
		return ""
	}
	parts := make([]string, len(slots))
	for i, s := range slots {
		parts[i] = models.ClockTime{Hour: s.Hour(), Minute: s.Minute()}.Speech()
	}
	if len(parts) == 1 {
		return parts[0]
	}
	return strings.Join(parts[:len(parts)-1], ", ") + ", or " + parts[len(parts)-1]
}
