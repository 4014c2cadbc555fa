package telephony

import (
	"bytes"
	"encoding/xml"
	"time"
)

// TwiML is a minimal Twilio Markup Language response builder.
// It intentionally avoids any provider SDK dependency.
//
// Only include primitives we need at the adapter boundary.

type twimlResponse struct {
	XMLName xml.Name `xml:"Response"`
	Verbs   []any    `xml:",any"`
}

type twimlSay struct {
	XMLName xml.Name `xml:"Say"`
	Voice   string   `xml:"voice,attr,omitempty"`
	Text    string   `xml:",chardata"`
}

type twimlGather struct {
	XMLName     xml.Name `xml:"Gather"`
	Input       string   `xml:"input,attr"`
	Action      string   `xml:"action,attr"`
	Method      string   `xml:"method,attr"`
	Timeout     int      `xml:"timeout,attr,omitempty"`
	SpeechModel string   `xml:"speechModel,attr,omitempty"`
	Say         twimlSay `xml:"Say"`
}

type twimlRedirect struct {
	XMLName xml.Name `xml:"Redirect"`
	Method  string   `xml:"method,attr"`
	URL     string   `xml:",chardata"`
}

type twimlHangup struct {
	XMLName xml.Name `xml:"Hangup"`
}

const sayVoice = "Polly.Joanna"

// GatherSpeech speaks prompt and collects the caller's spoken reply, posting
// the transcript to action. A trailing Redirect re-enters the same endpoint
// when the gather times out with no speech, so silence re-asks the question.
func GatherSpeech(prompt, action string, timeout time.Duration) (string, error) {
	secs := int(timeout.Seconds())
	if secs <= 0 {
		secs = 5
	}
	r := twimlResponse{Verbs: []any{
		twimlGather{
			Input:       "speech",
			Action:      action,
			Method:      "POST",
			Timeout:     secs,
			SpeechModel: "phone_call",
			Say:         twimlSay{Voice: sayVoice, Text: prompt},
		},
		twimlRedirect{Method: "POST", URL: action},
	}}
	return encode(r)
}

// SayHangup speaks prompt and ends the call.
func SayHangup(prompt string) (string, error) {
	r := twimlResponse{Verbs: []any{
		twimlSay{Voice: sayVoice, Text: prompt},
		twimlHangup{},
	}}
	return encode(r)
}

func encode(r twimlResponse) (string, error) {
	var buf bytes.Buffer
	buf.WriteString(xml.Header)
	enc := xml.NewEncoder(&buf)
	enc.Indent("", "  ")
	if err := enc.Encode(r); err != nil {
		return "", err
	}
	if err := enc.Flush(); err != nil {
		return "", err
	}
	return buf.String(), nil
}
