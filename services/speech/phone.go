package speech

import "strings"

// digitWords are unambiguous spoken digits.
var digitWords = map[string]byte{
	"zero": '0', "oh": '0', "o": '0',
	"one": '1', "two": '2', "three": '3', "four": '4',
	"five": '5', "six": '6', "seven": '7', "eight": '8', "nine": '9',
}

// homophoneWords sound like digits but usually aren't ("to", "for", "ate").
// They only count as digits when the surrounding context says so.
var homophoneWords = map[string]byte{
	"to": '2', "too": '2', "for": '4', "won": '1', "ate": '8',
}

func isDigitToken(tok string) bool {
	if _, ok := digitWords[tok]; ok {
		return true
	}
	for _, r := range tok {
		if r < '0' || r > '9' {
			return false
		}
	}
	return len(tok) > 0
}

// ExtractDigits pulls a digit string out of a normalized utterance. Literal
// digit runs and unambiguous digit words always count. Homophones count only
// when phoneContext is true (the phone question is outstanding) or when the
// word sits between two digit-like tokens, so "four to six" in a time answer
// stays words while "nine oh five" followed by "to" in a number stays digits.
func ExtractDigits(normalized string, phoneContext bool) string {
	toks := Tokens(normalized)
	var b strings.Builder
	for i, tok := range toks {
		if d, ok := digitWords[tok]; ok {
			b.WriteByte(d)
			continue
		}
		if allDigits(tok) {
			b.WriteString(tok)
			continue
		}
		if d, ok := homophoneWords[tok]; ok {
			prevDigit := i > 0 && isDigitToken(toks[i-1])
			nextDigit := i+1 < len(toks) && isDigitToken(toks[i+1])
			if phoneContext || (prevDigit && nextDigit) {
				b.WriteByte(d)
			}
		}
	}
	return b.String()
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

// plausibleNANP reports whether a 10-digit string looks like a North American
// number: neither the area code nor the exchange may start with 0 or 1.
func plausibleNANP(ten string) bool {
	if len(ten) != 10 {
		return false
	}
	return ten[0] >= '2' && ten[3] >= '2'
}

// BestPhoneWindow selects the 10-digit phone number inside a longer digit
// run. An 11-digit run with a leading 1 drops the country code. Longer runs
// scan every 10-digit window and keep the first plausible one, preferring
// later windows when none is plausible (trailing digits are the likeliest
// correction). Fewer than 10 digits yields "".
func BestPhoneWindow(digits string) string {
	switch {
	case len(digits) < 10:
		return ""
	case len(digits) == 10:
		return digits
	case len(digits) == 11 && digits[0] == '1':
		return digits[1:]
	}
	for i := 0; i+10 <= len(digits); i++ {
		if w := digits[i : i+10]; plausibleNANP(w) {
			return w
		}
	}
	return digits[len(digits)-10:]
}

// GroupDigits formats a 10-digit number for read-back: "905, 555, 1234".
// Other lengths fall back to the plain digit string.
func GroupDigits(digits string) string {
	if len(digits) != 10 {
		return digits
	}
	return digits[:3] + ", " + digits[3:6] + ", " + digits[6:]
}
