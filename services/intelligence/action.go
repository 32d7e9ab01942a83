package intelligence

import (
	"encoding/json"
	"regexp"
	"strings"

	"voicedesk/models"
)

const actionMarker = "ACTION_JSON:"

// ExtractAction pulls the structured action line out of a model reply and
// returns the spoken remainder. The marker line is never spoken. A malformed
// payload is dropped rather than guessed at.
func ExtractAction(reply string) (string, *models.AssistantAction) {
	lines := strings.Split(reply, "\n")
	var spoken []string
	var action *models.AssistantAction
	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if idx := strings.Index(trimmed, actionMarker); idx >= 0 {
			payload := strings.TrimSpace(trimmed[idx+len(actionMarker):])
			var a models.AssistantAction
			if err := json.Unmarshal([]byte(payload), &a); err == nil && a.Action != "" {
				action = &a
			}
			if idx > 0 {
				spoken = append(spoken, strings.TrimSpace(trimmed[:idx]))
			}
			continue
		}
		spoken = append(spoken, line)
	}
	return strings.TrimSpace(strings.Join(spoken, "\n")), action
}

var (
	isoTimestampRe = regexp.MustCompile(`\d{4}-\d{2}-\d{2}[T ]\d{2}:\d{2}(:\d{2})?(\.\d+)?(Z|[+-]\d{2}:?\d{2})?`)
	isoDateRe      = regexp.MustCompile(`\d{4}-\d{2}-\d{2}`)
)

// SanitizeSpoken scrubs machine-formatted timestamps out of text headed for
// synthesis. The model sometimes echoes ISO forms it saw in the prompt;
// reading "2026-03-03T16:00" aloud would break the illusion.
func SanitizeSpoken(text string) string {
	text = isoTimestampRe.ReplaceAllString(text, "")
	text = isoDateRe.ReplaceAllString(text, "")
	text = strings.Join(strings.Fields(text), " ")
	return strings.TrimSpace(text)
}
