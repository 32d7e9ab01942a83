package dialog

import (
	"strings"

	"voicedesk/models"
	"voicedesk/services/speech"
)

// Answer classifies a yes/no reply.
type Answer int

const (
	AnswerUnclear Answer = iota
	AnswerYes
	AnswerNo
)

var yesWords = map[string]bool{
	"yes": true, "yeah": true, "yep": true, "yup": true, "sure": true,
	"correct": true, "right": true, "absolutely": true, "definitely": true,
	"perfect": true, "ok": true, "okay": true, "confirm": true,
}

var noWords = map[string]bool{
	"no": true, "nope": true, "nah": true, "wrong": true, "incorrect": true,
	"cancel": true, "never": true,
}

var negations = map[string]bool{
	"not": true, "dont": true, "isnt": true, "aint": true,
}

// ClassifyAnswer reads a normalized utterance as yes, no, or unclear.
// A negation directly before an affirmative flips it, so "not right" is a
// no even though "right" alone is a yes.
func ClassifyAnswer(normalized string) Answer {
	toks := speech.Tokens(normalized)
	var hasYes, hasNo bool
	for i, tok := range toks {
		if yesWords[tok] {
			if i > 0 && negations[toks[i-1]] {
				hasNo = true
			} else {
				hasYes = true
			}
			continue
		}
		if noWords[tok] || negations[tok] {
			hasNo = true
		}
	}
	switch {
	case hasYes && !hasNo:
		return AnswerYes
	case hasNo && !hasYes:
		return AnswerNo
	default:
		return AnswerUnclear
	}
}

// ParseService matches a spoken service, preferring the compound offering
// so "cut and colour" never lands on a bare haircut.
func ParseService(normalized string) (models.Service, bool) {
	s := strings.ReplaceAll(normalized, "color", "colour")
	hasColour := strings.Contains(s, "colour") || strings.Contains(s, "dye")
	hasCut := strings.Contains(s, "cut") || strings.Contains(s, "trim")
	switch {
	case hasColour && hasCut:
		return models.ServiceCutAndColour, true
	case hasColour:
		return models.ServiceColour, true
	case hasCut:
		return models.ServiceHaircut, true
	}
	return "", false
}

// ParseStylist matches a roster name mentioned anywhere in the utterance.
func ParseStylist(normalized string) (string, bool) {
	toks := speech.Tokens(normalized)
	for _, stylist := range models.Stylists {
		want := strings.ToLower(stylist)
		for _, tok := range toks {
			if tok == want {
				return stylist, true
			}
		}
	}
	return "", false
}

// AsksWhatDate detects the side question about the date just mentioned
// ("what day is that?").
func AsksWhatDate(normalized string) bool {
	toks := speech.Tokens(normalized)
	hasQ := hasAny(toks, "what", "which")
	hasDay := hasAny(toks, "day", "date")
	return hasQ && hasDay && hasAny(toks, "that", "again")
}

// AsksAvailability detects questions about open times ("what times are
// free?", "do you have any openings?").
func AsksAvailability(normalized string) bool {
	toks := speech.Tokens(normalized)
	if hasAny(toks, "available", "availability", "openings", "opening", "slots") {
		return true
	}
	return hasAny(toks, "free", "open") && hasAny(toks, "what", "when", "times", "any")
}

func hasAny(toks []string, wants ...string) bool {
	for _, tok := range toks {
		for _, w := range wants {
			if tok == w {
				return true
			}
		}
	}
	return false
}

var nameLeadIns = []string{
	"my name is", "the name is", "name is", "this is", "i am", "i m", "im",
	"it is", "it s", "its",
}

// ExtractName pulls a caller name out of a reply to the name question. It
// only runs when that question is outstanding, and refuses anything that
// looks like a different slot so "next tuesday" never becomes a name.
func ExtractName(normalized string) (string, bool) {
	s := normalized
	for _, lead := range nameLeadIns {
		if strings.HasPrefix(s, lead+" ") {
			s = strings.TrimPrefix(s, lead+" ")
			break
		}
	}
	toks := speech.Tokens(s)
	if len(toks) == 0 || len(toks) > 4 {
		return "", false
	}
	for _, tok := range toks {
		if looksNonName(tok) {
			return "", false
		}
	}
	parts := make([]string, len(toks))
	for i, tok := range toks {
		parts[i] = strings.ToUpper(tok[:1]) + tok[1:]
	}
	return strings.Join(parts, " "), true
}

func looksNonName(tok string) bool {
	if yesWords[tok] || noWords[tok] || negations[tok] {
		return true
	}
	for _, r := range tok {
		if r >= '0' && r <= '9' {
			return true
		}
	}
	if _, ok := ParseStylist(tok); ok {
		return true
	}
	switch tok {
	case "haircut", "cut", "colour", "color", "trim", "dye",
		"today", "tomorrow", "monday", "tuesday", "wednesday", "thursday",
		"friday", "saturday", "sunday", "next", "week", "am", "pm", "noon",
		"zero", "one", "two", "three", "four", "five", "six", "seven",
		"eight", "nine", "oh":
		return true
	}
	return false
}
