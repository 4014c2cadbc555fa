package notify

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"voiceline/internal/booking"
	"voiceline/internal/config"
)

func TestFormatPhone(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"5551234567", "+15551234567"},
		{"555-123-4567", "+15551234567"},
		{"+1 (555) 123-4567", "+15551234567"},
		{"445551234567", "+445551234567"},
		{"12345", "12345"},
		{"anonymous", "anonymous"},
	}
	for _, c := range cases {
		if got := FormatPhone(c.in); got != c.want {
			t.Fatalf("FormatPhone(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}

func testReservation() booking.Reservation {
	return booking.Reservation{
		ID:            "res-1",
		CustomerName:  "Jordan",
		CustomerPhone: "5551234567",
		PartySize:     4,
		Date:          time.Date(2025, time.June, 20, 0, 0, 0, 0, time.UTC),
		Time:          "19:00",
		Status:        booking.StatusConfirmed,
	}
}

func TestSendConfirmation(t *testing.T) {
	var gotTo, gotFrom string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			t.Fatalf("parse form: %v", err)
		}
		gotTo = r.PostFormValue("To")
		gotFrom = r.PostFormValue("From")
		if r.PostFormValue("Body") == "" {
			t.Fatalf("expected message body")
		}
		w.WriteHeader(http.StatusCreated)
	}))
	defer srv.Close()

	sms := NewTwilioSMS(config.TwilioConfig{AccountSID: "AC1", AuthToken: "tok", FromNumber: "+15550000000"}, "Demo Restaurant", nil)
	sms.BaseURL = srv.URL

	if err := sms.SendConfirmation(context.Background(), testReservation()); err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if gotTo != "+15551234567" {
		t.Fatalf("expected normalized destination, got %q", gotTo)
	}
	if gotFrom != "+15550000000" {
		t.Fatalf("unexpected from: %q", gotFrom)
	}
}

func TestSend_MissingCredentials(t *testing.T) {
	sms := NewTwilioSMS(config.TwilioConfig{}, "Demo Restaurant", nil)
	if err := sms.SendConfirmation(context.Background(), testReservation()); err == nil {
		t.Fatalf("expected error without credentials")
	}
}

func TestSend_UpstreamFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer srv.Close()

	sms := NewTwilioSMS(config.TwilioConfig{AccountSID: "AC1", AuthToken: "tok", FromNumber: "+15550000000"}, "Demo Restaurant", nil)
	sms.BaseURL = srv.URL

	if err := sms.SendConfirmation(context.Background(), testReservation()); err == nil {
		t.Fatalf("expected error on non-2xx")
	}
}
