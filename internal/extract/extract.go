package extract

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Field extractors pull one structured value out of a raw speech transcript.
//
// Rules:
// - Pure functions of the transcript text (and a reference date where needed).
//   No hidden state; calling twice with the same inputs returns the same value.
// - Transcripts are speech-to-text output: noisy, lowercase-ish, short.
//   Strategies are layered from most to least specific, with a permissive
//   fallback where the dialogue can tolerate it.
//
// The Extractors struct keeps each field strategy pluggable so a future
// NLU-backed extractor can replace individual fields without touching the
// dialogue state machine.

type Extractors struct {
	Name      func(transcript string) (string, bool)
	PartySize func(transcript string) (int, bool)
	Date      func(transcript string, today time.Time) (time.Time, bool)
	Time      func(transcript string) (string, bool)
}

// Defaults returns the heuristic extractors.
func Defaults() Extractors {
	return Extractors{
		Name:      Name,
		PartySize: PartySize,
		Date:      Date,
		Time:      Clock,
	}
}

var nameAnchors = []string{"my name is", "this is"}

// Name extracts a caller name.
//
// If an anchor phrase is present ("my name is", "this is") the remainder of
// the utterance is the name. Otherwise the whole utterance is treated as the
// name; short replies to "what's your name?" rarely carry an anchor.
// Returns false only for an empty transcript.
func Name(transcript string) (string, bool) {
	s := strings.TrimSpace(transcript)
	if s == "" {
		return "", false
	}

	lower := strings.ToLower(s)
	for _, anchor := range nameAnchors {
		if i := strings.Index(lower, anchor); i >= 0 {
			rest := strings.TrimSpace(s[i+len(anchor):])
			rest = strings.TrimRight(rest, ".,!?")
			rest = strings.TrimSpace(rest)
			if rest != "" {
				return rest, true
			}
			return "", false
		}
	}

	s = strings.TrimRight(s, ".,!?")
	s = strings.TrimSpace(s)
	if s == "" {
		return "", false
	}
	return s, true
}

var wordToNum = map[string]int{
	"one": 1, "two": 2, "three": 3, "four": 4, "five": 5,
	"six": 6, "seven": 7, "eight": 8, "nine": 9, "ten": 10,
}

// PartySize scans whitespace-delimited tokens left to right and returns the
// first token matching the number vocabulary or consisting of digits.
func PartySize(transcript string) (int, bool) {
	for _, tok := range strings.Fields(strings.ToLower(transcript)) {
		tok = strings.Trim(tok, ".,!?")
		if n, ok := wordToNum[tok]; ok {
			return n, true
		}
		if n, err := strconv.Atoi(tok); err == nil && n > 0 {
			return n, true
		}
	}
	return 0, false
}

// weekdays in spoken-preference order; the first one mentioned wins.
var weekdays = []struct {
	name string
	day  time.Weekday
}{
	{"monday", time.Monday},
	{"tuesday", time.Tuesday},
	{"wednesday", time.Wednesday},
	{"thursday", time.Thursday},
	{"friday", time.Friday},
	{"saturday", time.Saturday},
	{"sunday", time.Sunday},
}

var monthToNum = map[string]time.Month{
	"january": time.January, "february": time.February, "march": time.March,
	"april": time.April, "may": time.May, "june": time.June,
	"july": time.July, "august": time.August, "september": time.September,
	"october": time.October, "november": time.November, "december": time.December,
}

var dayOfMonthRe = regexp.MustCompile(`(?i)\b(\d{1,2})(?:st|nd|rd|th)?\s+(?:of\s+)?(january|february|march|april|may|june|july|august|september|october|november|december)\b`)

// Date extracts a calendar date relative to today.
//
// Strategies, in order:
//  1. "today"/"tonight" and "tomorrow" literals.
//  2. A weekday name, resolved to its next occurrence strictly after today.
//     Naming today's weekday rolls forward a full week; callers booking "for
//     friday" on a Friday mean next week, not tonight.
//  3. "12th of august" style day + month, with the year inferred as the
//     current one unless that date already passed, in which case next year.
//
// The returned time is midnight in today's location.
func Date(transcript string, today time.Time) (time.Time, bool) {
	lower := strings.ToLower(transcript)
	day := midnight(today)

	if strings.Contains(lower, "today") || strings.Contains(lower, "tonight") {
		return day, true
	}
	if strings.Contains(lower, "tomorrow") {
		return day.AddDate(0, 0, 1), true
	}

	for _, wd := range weekdays {
		if !strings.Contains(lower, wd.name) {
			continue
		}
		ahead := int(wd.day-day.Weekday()+7) % 7
		if ahead == 0 {
			ahead = 7
		}
		return day.AddDate(0, 0, ahead), true
	}

	if m := dayOfMonthRe.FindStringSubmatch(lower); m != nil {
		dom, err := strconv.Atoi(m[1])
		if err != nil || dom < 1 || dom > 31 {
			return time.Time{}, false
		}
		month := monthToNum[m[2]]

		candidate := time.Date(day.Year(), month, dom, 0, 0, 0, 0, day.Location())
		if candidate.Day() != dom || candidate.Month() != month {
			// time.Date normalized an impossible date like february 30th.
			return time.Time{}, false
		}
		if candidate.Before(day) {
			candidate = time.Date(day.Year()+1, month, dom, 0, 0, 0, 0, day.Location())
			if candidate.Day() != dom || candidate.Month() != month {
				return time.Time{}, false
			}
		}
		return candidate, true
	}

	return time.Time{}, false
}

var clockRe = regexp.MustCompile(`(\d{1,2})(?::(\d{2}))?\s*(am|pm|a\.m\.|p\.m\.)?`)

// Clock extracts a wall-clock time and normalizes it to HH:MM (24-hour).
//
// Conversion: pm with hour < 12 adds 12; 12 am becomes 00. Without a
// meridiem the hour is taken literally and later business-hours validation
// rejects anything out of range.
func Clock(transcript string) (string, bool) {
	m := clockRe.FindStringSubmatch(strings.ToLower(transcript))
	if m == nil {
		return "", false
	}

	hour, err := strconv.Atoi(m[1])
	if err != nil {
		return "", false
	}
	minute := 0
	if m[2] != "" {
		minute, err = strconv.Atoi(m[2])
		if err != nil {
			return "", false
		}
	}

	switch {
	case strings.HasPrefix(m[3], "p") && hour < 12:
		hour += 12
	case strings.HasPrefix(m[3], "a") && hour == 12:
		hour = 0
	}

	return fmt.Sprintf("%02d:%02d", hour, minute), true
}

func midnight(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
