package slots

import (
	"fmt"
	"strings"
)

// ToMinutes parses a wall-clock time like "9:30", "09:30" or a full
// slot label "09:30 AM" into minutes since midnight. Parsing is lenient
// on purpose: missing or unparseable parts count as 0 so free-form
// settings input never fails outright.
func ToMinutes(text string) int {
	text = strings.TrimSpace(text)
	if text == "" {
		return 0
	}

	upper := strings.ToUpper(text)
	pm := strings.Contains(upper, "PM")
	am := strings.Contains(upper, "AM")

	hourPart, minPart, _ := strings.Cut(text, ":")
	h := leadingInt(hourPart)
	m := leadingInt(minPart)

	// 12-hour adjustment only when a meridiem is present; bare "13:00"
	// stays 24-hour.
	if pm && h < 12 {
		h += 12
	}
	if am && h == 12 {
		h = 0
	}

	return h*60 + m
}

// ToLabel converts minutes since midnight to the canonical 12-hour slot
// label with zero-padded hour and minute: 0 -> "12:00 AM", 720 -> "12:00 PM".
func ToLabel(minutes int) string {
	h := minutes / 60
	m := minutes % 60

	period := "AM"
	if h >= 12 {
		period = "PM"
	}
	displayH := h % 12
	if displayH == 0 {
		displayH = 12
	}

	return fmt.Sprintf("%02d:%02d %s", displayH, m, period)
}

// IsCanonicalLabel reports whether text is exactly a label the codec
// produces, i.e. it survives a parse/format round trip.
func IsCanonicalLabel(text string) bool {
	m := ToMinutes(text)
	return m >= 0 && m < 24*60 && ToLabel(m) == text
}

// leadingInt reads the leading decimal digits of s, 0 if none.
func leadingInt(s string) int {
	s = strings.TrimSpace(s)
	n := 0
	for _, r := range s {
		if r < '0' || r > '9' {
			break
		}
		n = n*10 + int(r-'0')
	}
	return n
}
