package telephony

import (
	"context"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"voiceline/internal/audit"
	"voiceline/internal/booking"
	"voiceline/internal/config"
	"voiceline/internal/dialog"
	"voiceline/internal/notify"
	"voiceline/internal/slots"

	"github.com/gin-gonic/gin"
)

type fixedSlots []slots.Slot

func (f fixedSlots) ListSlots(ctx context.Context, date time.Time) ([]slots.Slot, error) {
	return f, nil
}

func newTestRouter(t *testing.T, available []slots.Slot) (*gin.Engine, *booking.MemoryStore) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	rcfg := config.RestaurantConfig{
		ID:          1,
		Name:        "Testaurant",
		OpeningTime: "11:00",
		ClosingTime: "22:00",
		Capacity:    40,
	}
	states := dialog.NewMemoryStore(30 * time.Minute)
	store := booking.NewMemoryStore()
	svc := booking.NewService(store, rcfg, nil)
	mgr := dialog.NewManager(states, fixedSlots(available), svc, notify.Noop{},
		audit.NewService(audit.NewMemoryRepo()), rcfg,
		config.DialogConfig{GatherTimeout: 5 * time.Second}, nil)

	r := gin.New()
	VoiceHandler{Manager: mgr}.Register(r)
	return r, store
}

func post(t *testing.T, r *gin.Engine, path string, values url.Values) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest("POST", path, strings.NewReader(values.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func turn(callSid, speech string) url.Values {
	v := url.Values{}
	v.Set("CallSid", callSid)
	v.Set("From", "+15551234567")
	v.Set("SpeechResult", speech)
	return v
}

func TestIncomingCallReturnsGreetingTwiML(t *testing.T) {
	r, _ := newTestRouter(t, nil)

	rec := post(t, r, "/twilio/incoming-call", turn("CA1", ""))

	if rec.Code != 200 {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "application/xml") {
		t.Fatalf("content type = %q", ct)
	}
	body := rec.Body.String()
	if !strings.Contains(body, "Welcome") {
		t.Fatalf("greeting missing:\n%s", body)
	}
	if !strings.Contains(body, `action="/twilio/collect-name"`) {
		t.Fatalf("gather should target name collection:\n%s", body)
	}
}

func TestMissingCallSidRejected(t *testing.T) {
	r, _ := newTestRouter(t, nil)

	rec := post(t, r, "/twilio/incoming-call", url.Values{})

	if rec.Code != 400 {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestFullConversationOverHTTP(t *testing.T) {
	r, store := newTestRouter(t, []slots.Slot{{Display: "19:00"}})

	post(t, r, "/twilio/incoming-call", turn("CA2", ""))
	post(t, r, "/twilio/collect-name", turn("CA2", "my name is Jordan"))
	post(t, r, "/twilio/collect-party-size", turn("CA2", "four of us"))
	post(t, r, "/twilio/collect-date", turn("CA2", "tomorrow"))
	rec := post(t, r, "/twilio/collect-time", turn("CA2", "7 pm"))

	if !strings.Contains(rec.Body.String(), `action="/twilio/confirm-booking"`) {
		t.Fatalf("expected confirmation gather:\n%s", rec.Body.String())
	}

	rec = post(t, r, "/twilio/confirm-booking", turn("CA2", "yes"))

	body := rec.Body.String()
	if !strings.Contains(body, "<Hangup") {
		t.Fatalf("final response should hang up:\n%s", body)
	}
	if !strings.Contains(body, "confirmed") {
		t.Fatalf("final response should confirm the booking:\n%s", body)
	}
	if got := len(store.Reservations()); got != 1 {
		t.Fatalf("reservations = %d, want 1", got)
	}
}

func TestFallbackSpeaksApologyAndHangsUp(t *testing.T) {
	r, _ := newTestRouter(t, nil)

	rec := post(t, r, "/twilio/fallback", turn("CA3", ""))

	if rec.Code != 200 {
		t.Fatalf("status = %d", rec.Code)
	}
	body := rec.Body.String()
	if !strings.Contains(body, "<Hangup") || !strings.Contains(body, "sorry") {
		t.Fatalf("fallback twiml wrong:\n%s", body)
	}
}
