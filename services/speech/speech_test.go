package speech

import "testing"

func TestNormalize(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"punctuation stripped", "Uh, next Tuesday at 4!", "uh next tuesday at 4"},
		{"whitespace collapsed", "  nine   zero  five ", "nine zero five"},
		{"colon kept for times", "How about 4:30?", "how about 4:30"},
		{"already clean", "haircut with cosmo", "haircut with cosmo"},
		{"empty", "   ", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Normalize(tt.in); got != tt.want {
				t.Errorf("Normalize(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestExtractDigits(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		phoneQ  bool
		want    string
	}{
		{"spoken digits", "nine zero five five five five one two three four", true, "9055551234"},
		{"oh means zero", "nine oh five", true, "905"},
		{"literal run", "call 9055551234 please", false, "9055551234"},
		{"homophones in phone context", "nine oh five to to to won won won ate", true, "9052221118"},
		{"homophones ignored outside digit context", "i want to book for tomorrow", false, ""},
		{"homophone bridged by digits", "five to five", false, "525"},
		{"mixed words and digits", "905 five five five one two three four", true, "9055551234"},
		{"no digits", "whenever works", false, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ExtractDigits(Normalize(tt.in), tt.phoneQ); got != tt.want {
				t.Errorf("ExtractDigits(%q, %v) = %q, want %q", tt.in, tt.phoneQ, got, tt.want)
			}
		})
	}
}

func TestBestPhoneWindow(t *testing.T) {
	tests := []struct {
		name   string
		digits string
		want   string
	}{
		{"exact ten", "9055551234", "9055551234"},
		{"eleven with country code", "19055551234", "9055551234"},
		{"too short", "555123", ""},
		{"leading noise, plausible window", "009055551234", "9055551234"},
		{"nothing plausible, trailing ten", "110055511234", "0055511234"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := BestPhoneWindow(tt.digits); got != tt.want {
				t.Errorf("BestPhoneWindow(%q) = %q, want %q", tt.digits, got, tt.want)
			}
		})
	}
}

func TestGroupDigits(t *testing.T) {
	if got := GroupDigits("9055551234"); got != "905, 555, 1234" {
		t.Errorf("GroupDigits = %q", got)
	}
	if got := GroupDigits("12345"); got != "12345" {
		t.Errorf("GroupDigits short = %q", got)
	}
}
