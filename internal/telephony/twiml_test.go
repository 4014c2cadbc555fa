package telephony

import (
	"strings"
	"testing"
	"time"
)

func TestGatherSpeech(t *testing.T) {
	out, err := GatherSpeech("What date would you like?", "/twilio/collect-date", 5*time.Second)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, want := range []string{
		`<Gather input="speech"`,
		`action="/twilio/collect-date"`,
		`timeout="5"`,
		"What date would you like?",
		`<Redirect method="POST">/twilio/collect-date</Redirect>`,
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("twiml missing %q:\n%s", want, out)
		}
	}
}

func TestGatherSpeechDefaultsTimeout(t *testing.T) {
	out, err := GatherSpeech("hello", "/twilio/collect-name", 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(out, `timeout="5"`) {
		t.Fatalf("zero timeout should default to 5s:\n%s", out)
	}
}

func TestSayHangup(t *testing.T) {
	out, err := SayHangup("Goodbye!")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(out, "Goodbye!") || !strings.Contains(out, "<Hangup") {
		t.Fatalf("twiml missing say or hangup:\n%s", out)
	}
	if strings.Contains(out, "<Gather") {
		t.Fatalf("terminal response must not gather:\n%s", out)
	}
}

func TestSayEscapesXML(t *testing.T) {
	out, err := SayHangup(`reservation for "Bob & Sons" <today>`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if strings.Contains(out, "<today>") {
		t.Fatalf("prompt text must be escaped:\n%s", out)
	}
	if !strings.Contains(out, "&amp;") {
		t.Fatalf("ampersand must be escaped:\n%s", out)
	}
}
