package extract

import (
	"testing"
	"time"
)

// Wednesday.
var refToday = time.Date(2025, time.June, 18, 14, 30, 0, 0, time.UTC)

func TestName_AnchorPhrases(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"My name is Jordan", "Jordan"},
		{"my name is maria lopez", "maria lopez"},
		{"Hi, this is Sam.", "Sam"},
		{"Alex", "Alex"},
		{"  Priya Shah  ", "Priya Shah"},
	}
	for _, c := range cases {
		got, ok := Name(c.in)
		if !ok {
			t.Fatalf("Name(%q): expected ok", c.in)
		}
		if got != c.want {
			t.Fatalf("Name(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestName_EmptyTranscript(t *testing.T) {
	if _, ok := Name(""); ok {
		t.Fatalf("expected miss for empty transcript")
	}
	if _, ok := Name("   "); ok {
		t.Fatalf("expected miss for whitespace transcript")
	}
}

func TestPartySize_WordVocabulary(t *testing.T) {
	words := []string{"one", "two", "three", "four", "five", "six", "seven", "eight", "nine", "ten"}
	for i, w := range words {
		got, ok := PartySize("it will be " + w + " of us please")
		if !ok {
			t.Fatalf("PartySize(%q): expected ok", w)
		}
		if got != i+1 {
			t.Fatalf("PartySize(%q) = %d, want %d", w, got, i+1)
		}
	}
}

func TestPartySize_DigitsAndFirstMatchWins(t *testing.T) {
	got, ok := PartySize("table for 6 people")
	if !ok || got != 6 {
		t.Fatalf("expected 6, got %d ok=%v", got, ok)
	}

	// Left-to-right: the first numeric token wins.
	got, ok = PartySize("two maybe three people")
	if !ok || got != 2 {
		t.Fatalf("expected 2, got %d ok=%v", got, ok)
	}
}

func TestPartySize_Miss(t *testing.T) {
	if _, ok := PartySize("a bunch of us"); ok {
		t.Fatalf("expected miss without numeric token")
	}
	if _, ok := PartySize(""); ok {
		t.Fatalf("expected miss for empty transcript")
	}
}

func TestDate_TodayTonightTomorrow(t *testing.T) {
	d, ok := Date("today would be great", refToday)
	if !ok || !d.Equal(midnight(refToday)) {
		t.Fatalf("today: got %v ok=%v", d, ok)
	}
	d, ok = Date("tonight please", refToday)
	if !ok || !d.Equal(midnight(refToday)) {
		t.Fatalf("tonight: got %v ok=%v", d, ok)
	}
	d, ok = Date("tomorrow", refToday)
	if !ok || !d.Equal(midnight(refToday).AddDate(0, 0, 1)) {
		t.Fatalf("tomorrow: got %v ok=%v", d, ok)
	}
}

func TestDate_WeekdayAlwaysStrictlyFuture(t *testing.T) {
	names := []string{"monday", "tuesday", "wednesday", "thursday", "friday", "saturday", "sunday"}
	for i, name := range names {
		d, ok := Date("how about "+name, refToday)
		if !ok {
			t.Fatalf("Date(%q): expected ok", name)
		}
		if got := d.Weekday(); got != time.Weekday((i+1)%7) {
			t.Fatalf("Date(%q): weekday %v", name, got)
		}
		if !d.After(midnight(refToday)) {
			t.Fatalf("Date(%q) = %v is not strictly after today", name, d)
		}
		if diff := d.Sub(midnight(refToday)); diff > 7*24*time.Hour {
			t.Fatalf("Date(%q) = %v is more than a week out", name, d)
		}
	}
}

func TestDate_SameWeekdayRollsForwardWeek(t *testing.T) {
	// refToday is a Wednesday; "wednesday" must mean next week.
	d, ok := Date("wednesday", refToday)
	if !ok {
		t.Fatalf("expected ok")
	}
	if want := midnight(refToday).AddDate(0, 0, 7); !d.Equal(want) {
		t.Fatalf("got %v, want %v", d, want)
	}
}

func TestDate_DayOfMonth(t *testing.T) {
	d, ok := Date("the 25th of december", refToday)
	if !ok {
		t.Fatalf("expected ok")
	}
	if d.Year() != 2025 || d.Month() != time.December || d.Day() != 25 {
		t.Fatalf("got %v", d)
	}

	// A date earlier in the current year rolls to next year.
	d, ok = Date("for the 3rd of january", refToday)
	if !ok {
		t.Fatalf("expected ok")
	}
	if d.Year() != 2026 || d.Month() != time.January || d.Day() != 3 {
		t.Fatalf("got %v", d)
	}
}

func TestDate_RejectsImpossibleDayOfMonth(t *testing.T) {
	if _, ok := Date("the 30th of february", refToday); ok {
		t.Fatalf("expected miss for february 30th")
	}
}

func TestDate_Miss(t *testing.T) {
	if _, ok := Date("whenever works", refToday); ok {
		t.Fatalf("expected miss")
	}
}

func TestClock_Conversions(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"7 PM", "19:00"},
		{"7 pm", "19:00"},
		{"6:30", "06:30"},
		{"6:30 p.m.", "18:30"},
		{"12 am", "00:00"},
		{"12 pm", "12:00"},
		{"11 a.m.", "11:00"},
		{"around 8", "08:00"},
	}
	for _, c := range cases {
		got, ok := Clock(c.in)
		if !ok {
			t.Fatalf("Clock(%q): expected ok", c.in)
		}
		if got != c.want {
			t.Fatalf("Clock(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestClock_Miss(t *testing.T) {
	if _, ok := Clock("in the evening sometime"); ok {
		t.Fatalf("expected miss without numerals")
	}
}

func TestExtractors_Idempotent(t *testing.T) {
	transcript := "my name is Jordan, table for four next friday at 7 pm"

	n1, _ := Name(transcript)
	n2, _ := Name(transcript)
	if n1 != n2 {
		t.Fatalf("Name not idempotent: %q vs %q", n1, n2)
	}

	p1, _ := PartySize(transcript)
	p2, _ := PartySize(transcript)
	if p1 != p2 {
		t.Fatalf("PartySize not idempotent: %d vs %d", p1, p2)
	}

	d1, _ := Date(transcript, refToday)
	d2, _ := Date(transcript, refToday)
	if !d1.Equal(d2) {
		t.Fatalf("Date not idempotent: %v vs %v", d1, d2)
	}

	c1, _ := Clock(transcript)
	c2, _ := Clock(transcript)
	if c1 != c2 {
		t.Fatalf("Clock not idempotent: %q vs %q", c1, c2)
	}
}
