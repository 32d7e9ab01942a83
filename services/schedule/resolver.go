package schedule

import (
	"strconv"
	"strings"
	"time"

	"voicedesk/models"
	"voicedesk/services/speech"
)

// DateKind tags the outcome of date resolution.
type DateKind int

const (
	DateNone DateKind = iota
	DateResolved
	// DateAmbiguousNextWeek means the caller said "next week" with no
	// weekday and no prior date to anchor on; the engine must ask.
	DateAmbiguousNextWeek
)

// DateResolution is the tagged result of ResolveDate. FromWeekday marks
// dates derived from a bare weekday name, which may roll forward a week
// when the combined date-time has already passed.
type DateResolution struct {
	Kind        DateKind
	Date        time.Time
	FromWeekday bool
}

// TimeResolution is the tagged result of ResolveTime.
type TimeResolution struct {
	Resolved bool
	Time     models.ClockTime
}

// DateTimeResolution bundles both halves; DateTime is non-zero only when
// both halves resolved.
type DateTimeResolution struct {
	Date     DateResolution
	Time     TimeResolution
	DateTime time.Time
}

// Resolver turns normalized utterances into concrete dates and times.
// All arithmetic happens in the business timezone. Bare hours inside
// [AssumePMMin, AssumePMMax] are taken as PM, matching how callers say
// "four" for an afternoon appointment.
type Resolver struct {
	Loc         *time.Location
	AssumePMMin int
	AssumePMMax int
}

// NewResolver builds a resolver with the given PM-heuristic window.
func NewResolver(loc *time.Location, pmMin, pmMax int) *Resolver {
	return &Resolver{Loc: loc, AssumePMMin: pmMin, AssumePMMax: pmMax}
}

var weekdayNames = map[string]time.Weekday{
	"sunday": time.Sunday, "monday": time.Monday, "tuesday": time.Tuesday,
	"wednesday": time.Wednesday, "thursday": time.Thursday,
	"friday": time.Friday, "saturday": time.Saturday,
}

var monthNames = map[string]time.Month{
	"january": time.January, "february": time.February, "march": time.March,
	"april": time.April, "may": time.May, "june": time.June,
	"july": time.July, "august": time.August, "september": time.September,
	"october": time.October, "november": time.November, "december": time.December,
}

func (r *Resolver) midnight(t time.Time) time.Time {
	t = t.In(r.Loc)
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, r.Loc)
}

// ResolveDate applies the resolution ladder to a normalized utterance:
// relative words, weekday names with this/coming/next modifiers, bare
// "next week" against the anchor, then a month-name date. anchor is the
// last date resolved earlier in the call (zero when none).
func (r *Resolver) ResolveDate(normalized string, now time.Time, anchor time.Time) DateResolution {
	today := r.midnight(now)
	toks := speech.Tokens(normalized)

	if strings.Contains(normalized, "day after tomorrow") {
		return DateResolution{Kind: DateResolved, Date: today.AddDate(0, 0, 2)}
	}
	if hasToken(toks, "tomorrow") {
		return DateResolution{Kind: DateResolved, Date: today.AddDate(0, 0, 1)}
	}
	if hasToken(toks, "today") || hasToken(toks, "tonight") {
		return DateResolution{Kind: DateResolved, Date: today}
	}

	for i, tok := range toks {
		wd, ok := weekdayNames[tok]
		if !ok {
			continue
		}
		mod := ""
		if i > 0 {
			mod = toks[i-1]
		}
		delta := (int(wd) - int(today.Weekday()) + 7) % 7
		switch mod {
		case "next":
			// "next Tuesday" is the Tuesday of next week, never this
			// week's, then later weeks until it clears the anchor.
			candidate := today.AddDate(0, 0, delta+7)
			if !anchor.IsZero() {
				ref := r.midnight(anchor)
				for !candidate.After(ref) {
					candidate = candidate.AddDate(0, 0, 7)
				}
			}
			return DateResolution{Kind: DateResolved, Date: candidate, FromWeekday: true}
		case "this", "coming":
			// same-day allowed
			return DateResolution{Kind: DateResolved, Date: today.AddDate(0, 0, delta), FromWeekday: true}
		default:
			if delta == 0 {
				delta = 7
			}
			return DateResolution{Kind: DateResolved, Date: today.AddDate(0, 0, delta), FromWeekday: true}
		}
	}

	if idx := indexToken(toks, "week"); idx > 0 && toks[idx-1] == "next" {
		if anchor.IsZero() {
			return DateResolution{Kind: DateAmbiguousNextWeek}
		}
		return DateResolution{Kind: DateResolved, Date: r.midnight(anchor).AddDate(0, 0, 7)}
	}

	if d, ok := r.resolveMonthDay(toks, today); ok {
		return DateResolution{Kind: DateResolved, Date: d}
	}
	return DateResolution{}
}

// resolveMonthDay handles "march 3", "3rd of march", "march the 3rd".
// A date already past rolls to next year.
func (r *Resolver) resolveMonthDay(toks []string, today time.Time) (time.Time, bool) {
	for i, tok := range toks {
		m, ok := monthNames[tok]
		if !ok {
			continue
		}
		if day, ok := dayNumber(toks, i+1); ok {
			return r.buildMonthDay(m, day, today), true
		}
		if i >= 1 {
			j := i - 1
			if toks[j] == "of" && j >= 1 {
				j--
			}
			if day, ok := parseDayToken(toks[j]); ok {
				return r.buildMonthDay(m, day, today), true
			}
		}
	}
	return time.Time{}, false
}

func (r *Resolver) buildMonthDay(m time.Month, day int, today time.Time) time.Time {
	d := time.Date(today.Year(), m, day, 0, 0, 0, 0, r.Loc)
	if d.Before(today) {
		d = d.AddDate(1, 0, 0)
	}
	return d
}

// dayNumber reads a day-of-month at or just after index i, skipping "the".
func dayNumber(toks []string, i int) (int, bool) {
	if i < len(toks) && toks[i] == "the" {
		i++
	}
	if i >= len(toks) {
		return 0, false
	}
	return parseDayToken(toks[i])
}

func parseDayToken(tok string) (int, bool) {
	for _, suf := range []string{"st", "nd", "rd", "th"} {
		tok = strings.TrimSuffix(tok, suf)
	}
	n, err := strconv.Atoi(tok)
	if err != nil || n < 1 || n > 31 {
		return 0, false
	}
	return n, true
}

// ResolveTime finds a time of day in a normalized utterance. Explicit forms
// (colon, meridiem, noon, midnight) win; a bare one- or two-digit hour is
// accepted last, with the PM assumption applied inside the configured window.
func (r *Resolver) ResolveTime(normalized string) TimeResolution {
	toks := speech.Tokens(normalized)

	if hasToken(toks, "noon") || strings.Contains(normalized, "mid day") || hasToken(toks, "midday") {
		return TimeResolution{Resolved: true, Time: models.ClockTime{Hour: 12}}
	}
	if hasToken(toks, "midnight") {
		return TimeResolution{Resolved: true, Time: models.ClockTime{Hour: 0}}
	}

	for i, tok := range toks {
		if h, m, mer, ok := splitTimeToken(tok); ok {
			if mer == "" {
				mer = meridiemAfter(toks, i)
			}
			if ct, ok := r.applyMeridiem(h, m, mer); ok {
				return TimeResolution{Resolved: true, Time: ct}
			}
		}
	}

	for i, tok := range toks {
		if h, ok := wordHours[tok]; ok {
			// spoken hours ("at four", "four pm") need an explicit cue so
			// digit words in a phone number are left alone
			mer := meridiemAfter(toks, i)
			atBefore := i > 0 && toks[i-1] == "at"
			oclockAfter := i+1 < len(toks) && (toks[i+1] == "oclock" || toks[i+1] == "o")
			if mer == "" && !atBefore && !oclockAfter {
				continue
			}
			if ct, ok := r.applyMeridiem(h, 0, mer); ok {
				return TimeResolution{Resolved: true, Time: ct}
			}
		}
		if len(tok) > 2 || !allDigits(tok) {
			continue
		}
		if adjacentMonth(toks, i) {
			continue
		}
		h, _ := strconv.Atoi(tok)
		if h < 0 || h > 23 {
			continue
		}
		if ct, ok := r.applyMeridiem(h, 0, meridiemAfter(toks, i)); ok {
			return TimeResolution{Resolved: true, Time: ct}
		}
	}
	return TimeResolution{}
}

var wordHours = map[string]int{
	"one": 1, "two": 2, "three": 3, "four": 4, "five": 5, "six": 6,
	"seven": 7, "eight": 8, "nine": 9, "ten": 10, "eleven": 11, "twelve": 12,
}

// splitTimeToken parses "4:30", "430pm" style merged tokens, "4pm".
func splitTimeToken(tok string) (hour, minute int, meridiem string, ok bool) {
	for _, mer := range []string{"am", "pm"} {
		if strings.HasSuffix(tok, mer) {
			meridiem = mer
			tok = strings.TrimSuffix(tok, mer)
			break
		}
	}
	if h, m, found := strings.Cut(tok, ":"); found {
		hh, err1 := strconv.Atoi(h)
		mm, err2 := strconv.Atoi(m)
		if err1 != nil || err2 != nil || len(m) != 2 || mm > 59 {
			return 0, 0, "", false
		}
		return hh, mm, meridiem, true
	}
	if meridiem == "" {
		return 0, 0, "", false
	}
	h, err := strconv.Atoi(tok)
	if err != nil || tok == "" {
		return 0, 0, "", false
	}
	return h, 0, meridiem, true
}

func meridiemAfter(toks []string, i int) string {
	for j := i + 1; j < len(toks) && j <= i+3; j++ {
		switch toks[j] {
		case "am", "pm":
			return toks[j]
		case "oclock", "o", "clock", "in", "the":
			continue
		case "morning":
			return "am"
		case "afternoon", "evening":
			return "pm"
		default:
			return ""
		}
	}
	return ""
}

func (r *Resolver) applyMeridiem(h, m int, mer string) (models.ClockTime, bool) {
	switch mer {
	case "am":
		if h == 12 {
			h = 0
		}
	case "pm":
		if h >= 1 && h <= 11 {
			h += 12
		}
	default:
		if h >= r.AssumePMMin && h <= r.AssumePMMax {
			h += 12
		}
	}
	if h < 0 || h > 23 || m < 0 || m > 59 {
		return models.ClockTime{}, false
	}
	return models.ClockTime{Hour: h, Minute: m}, true
}

// ResolveDateTime resolves both halves and combines them. A combined
// instant that has already passed rolls forward a week when the date came
// from a bare weekday; otherwise the combination is discarded and only the
// halves are reported.
func (r *Resolver) ResolveDateTime(normalized string, now time.Time, anchor time.Time) DateTimeResolution {
	res := DateTimeResolution{
		Date: r.ResolveDate(normalized, now, anchor),
		Time: r.ResolveTime(normalized),
	}
	if res.Date.Kind != DateResolved || !res.Time.Resolved {
		return res
	}
	dt := time.Date(res.Date.Date.Year(), res.Date.Date.Month(), res.Date.Date.Day(),
		res.Time.Time.Hour, res.Time.Time.Minute, 0, 0, r.Loc)
	if !dt.After(now) && res.Date.FromWeekday {
		dt = dt.AddDate(0, 0, 7)
		res.Date.Date = res.Date.Date.AddDate(0, 0, 7)
	}
	if dt.After(now) {
		res.DateTime = dt
	}
	return res
}

func hasToken(toks []string, want string) bool {
	return indexToken(toks, want) >= 0
}

func indexToken(toks []string, want string) int {
	for i, t := range toks {
		if t == want {
			return i
		}
	}
	return -1
}

func adjacentMonth(toks []string, i int) bool {
	if i > 0 {
		if _, ok := monthNames[toks[i-1]]; ok {
			return true
		}
	}
	if i+1 < len(toks) {
		if _, ok := monthNames[toks[i+1]]; ok {
			return true
		}
	}
	return false
}

func allDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
