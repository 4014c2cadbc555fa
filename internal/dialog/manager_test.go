package dialog

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"voiceline/internal/audit"
	"voiceline/internal/booking"
	"voiceline/internal/config"
	"voiceline/internal/notify"
	"voiceline/internal/slots"
)

type stubProvider struct {
	slots []slots.Slot
	err   error
	calls int
}

func (p *stubProvider) ListSlots(ctx context.Context, date time.Time) ([]slots.Slot, error) {
	p.calls++
	if p.err != nil {
		return nil, p.err
	}
	return p.slots, nil
}

type recordingSender struct {
	notify.Noop
	confirmations int
}

func (s *recordingSender) SendConfirmation(ctx context.Context, res booking.Reservation) error {
	s.confirmations++
	return nil
}

func displaySlots(clocks ...string) []slots.Slot {
	out := make([]slots.Slot, 0, len(clocks))
	for _, c := range clocks {
		out = append(out, slots.Slot{Display: c})
	}
	return out
}

type managerFixture struct {
	mgr      *Manager
	states   *MemoryStore
	bookings *booking.MemoryStore
	provider *stubProvider
	sender   *recordingSender
	audits   *audit.MemoryRepo
}

func newFixture(t *testing.T, available []slots.Slot) *managerFixture {
	t.Helper()

	states := NewMemoryStore(30 * time.Minute)
	bookingStore := booking.NewMemoryStore()
	rcfg := config.RestaurantConfig{
		ID:          1,
		Name:        "Testaurant",
		PhoneNumber: "+15550001111",
		OpeningTime: "11:00",
		ClosingTime: "22:00",
		Capacity:    40,
	}
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	svc := booking.NewService(bookingStore, rcfg, log)
	provider := &stubProvider{slots: available}
	sender := &recordingSender{}
	auditRepo := audit.NewMemoryRepo()

	mgr := NewManager(states, provider, svc, sender, audit.NewService(auditRepo), rcfg,
		config.DialogConfig{StateTTL: 30 * time.Minute, GatherTimeout: 5 * time.Second}, log)
	mgr.clock = func() time.Time {
		return time.Date(2025, time.June, 18, 14, 0, 0, 0, time.UTC) // a wednesday
	}

	return &managerFixture{
		mgr:      mgr,
		states:   states,
		bookings: bookingStore,
		provider: provider,
		sender:   sender,
		audits:   auditRepo,
	}
}

func (f *managerFixture) advance(t *testing.T, callID, transcript string) Reply {
	t.Helper()
	return f.mgr.Advance(context.Background(), Turn{
		CallID:       callID,
		CallerNumber: "+15559998888",
		Transcript:   transcript,
	})
}

func (f *managerFixture) stage(t *testing.T, callID string) Stage {
	t.Helper()
	st, ok, err := f.states.Get(context.Background(), callID)
	if err != nil {
		t.Fatalf("get state: %v", err)
	}
	if !ok {
		t.Fatalf("no state for call %s", callID)
	}
	return st.Stage
}

func (f *managerFixture) state(t *testing.T, callID string) CallState {
	t.Helper()
	st, ok, err := f.states.Get(context.Background(), callID)
	if err != nil || !ok {
		t.Fatalf("state for call %s: ok=%v err=%v", callID, ok, err)
	}
	return st
}

// driveToTime walks a call through name, party size and date collection.
func (f *managerFixture) driveToTime(t *testing.T, callID string) {
	t.Helper()
	f.mgr.Begin(context.Background(), callID, "+15559998888")
	f.advance(t, callID, "My name is Jordan")
	f.advance(t, callID, "table for four people")
	f.advance(t, callID, "tomorrow")
	if got := f.stage(t, callID); got != StageTime {
		t.Fatalf("stage after driveToTime = %q, want %q", got, StageTime)
	}
}

func TestBeginSpeaksWelcomeAndCollectsName(t *testing.T) {
	f := newFixture(t, nil)

	reply := f.mgr.Begin(context.Background(), "CA100", "+15559998888")

	if !strings.Contains(reply.Prompt, "Welcome") {
		t.Fatalf("welcome prompt missing, got %q", reply.Prompt)
	}
	if reply.NextEndpoint != "/twilio/collect-name" {
		t.Fatalf("next endpoint = %q", reply.NextEndpoint)
	}
	st := f.state(t, "CA100")
	if st.Stage != StageName {
		t.Fatalf("stage = %q, want %q", st.Stage, StageName)
	}
	if st.Draft.CustomerPhone != "+15559998888" {
		t.Fatalf("caller number not captured: %q", st.Draft.CustomerPhone)
	}
}

func TestNameExtractionAdvancesToPartySize(t *testing.T) {
	f := newFixture(t, nil)
	f.mgr.Begin(context.Background(), "CA101", "+15559998888")

	reply := f.advance(t, "CA101", "Hi, my name is Jordan")

	if reply.NextEndpoint != "/twilio/collect-party-size" {
		t.Fatalf("next endpoint = %q", reply.NextEndpoint)
	}
	st := f.state(t, "CA101")
	if st.Stage != StagePartySize {
		t.Fatalf("stage = %q", st.Stage)
	}
	if st.Draft.CustomerName != "Jordan" {
		t.Fatalf("name = %q, want Jordan", st.Draft.CustomerName)
	}
	if !strings.Contains(reply.Prompt, "Jordan") {
		t.Fatalf("prompt should address the caller by name: %q", reply.Prompt)
	}
}

func TestEmptyNameReprompts(t *testing.T) {
	f := newFixture(t, nil)
	f.mgr.Begin(context.Background(), "CA102", "+15559998888")

	reply := f.advance(t, "CA102", "")

	if reply.NextEndpoint != "/twilio/collect-name" {
		t.Fatalf("should stay on name collection, got %q", reply.NextEndpoint)
	}
	if got := f.stage(t, "CA102"); got != StageName {
		t.Fatalf("stage = %q, want %q", got, StageName)
	}
}

func TestPartySizeFromWords(t *testing.T) {
	f := newFixture(t, nil)
	f.mgr.Begin(context.Background(), "CA103", "+15559998888")
	f.advance(t, "CA103", "This is Priya")

	f.advance(t, "CA103", "a table for four please")

	st := f.state(t, "CA103")
	if st.Stage != StageDate {
		t.Fatalf("stage = %q, want %q", st.Stage, StageDate)
	}
	if st.Draft.PartySize != 4 {
		t.Fatalf("party size = %d, want 4", st.Draft.PartySize)
	}
}

func TestAvailableTimeAdvancesToConfirmation(t *testing.T) {
	f := newFixture(t, displaySlots("18:30", "19:00", "19:30"))
	f.driveToTime(t, "CA104")

	reply := f.advance(t, "CA104", "7 PM would be great")

	st := f.state(t, "CA104")
	if st.Stage != StageConfirmation {
		t.Fatalf("stage = %q, want %q", st.Stage, StageConfirmation)
	}
	if st.Draft.Time != "19:00" {
		t.Fatalf("time = %q, want 19:00", st.Draft.Time)
	}
	if reply.NextEndpoint != "/twilio/confirm-booking" {
		t.Fatalf("next endpoint = %q", reply.NextEndpoint)
	}
	if !strings.Contains(reply.Prompt, "table for 4") || !strings.Contains(reply.Prompt, "19:00") {
		t.Fatalf("confirmation prompt should restate the booking: %q", reply.Prompt)
	}
}

func TestUnavailableTimeOffersAlternatives(t *testing.T) {
	f := newFixture(t, displaySlots("11:00", "11:30", "12:00", "12:30", "13:00"))
	f.driveToTime(t, "CA105")

	reply := f.advance(t, "CA105", "7 pm")

	st := f.state(t, "CA105")
	if st.Stage != StageAltTime {
		t.Fatalf("stage = %q, want %q", st.Stage, StageAltTime)
	}
	if st.Draft.Time != "" {
		t.Fatalf("requested time must not stick when unavailable, got %q", st.Draft.Time)
	}
	if len(st.Alternatives) != 3 {
		t.Fatalf("alternatives = %v, want exactly 3", st.Alternatives)
	}
	for _, alt := range st.Alternatives {
		if !strings.Contains(reply.Prompt, alt) {
			t.Fatalf("prompt %q does not mention alternative %s", reply.Prompt, alt)
		}
	}
}

func TestOutOfHoursTimeRepromptsWithinTimeStage(t *testing.T) {
	f := newFixture(t, displaySlots("11:00"))
	f.driveToTime(t, "CA106")

	reply := f.advance(t, "CA106", "9 am")

	st := f.state(t, "CA106")
	if st.Stage != StageTime {
		t.Fatalf("stage = %q, want %q", st.Stage, StageTime)
	}
	if st.Draft.Time != "" {
		t.Fatalf("out of hours time must not be stored, got %q", st.Draft.Time)
	}
	if !strings.Contains(reply.Prompt, "11:00") || !strings.Contains(reply.Prompt, "22:00") {
		t.Fatalf("out of hours prompt should state opening hours: %q", reply.Prompt)
	}
	if f.provider.calls != 0 {
		t.Fatalf("availability should not be queried for out of hours times")
	}
}

func TestClosingTimeIsBookable(t *testing.T) {
	f := newFixture(t, displaySlots("22:00"))
	f.driveToTime(t, "CA107")

	f.advance(t, "CA107", "10 pm")

	st := f.state(t, "CA107")
	if st.Stage != StageConfirmation {
		t.Fatalf("stage = %q, want %q; closing time itself is valid", st.Stage, StageConfirmation)
	}
	if st.Draft.Time != "22:00" {
		t.Fatalf("time = %q, want 22:00", st.Draft.Time)
	}
}

func TestAlternativeAccepted(t *testing.T) {
	f := newFixture(t, displaySlots("18:00", "18:30"))
	f.driveToTime(t, "CA108")
	f.advance(t, "CA108", "9 pm") // not offered, yields alternatives

	f.advance(t, "CA108", "6:30 pm works")

	st := f.state(t, "CA108")
	if st.Stage != StageConfirmation {
		t.Fatalf("stage = %q, want %q", st.Stage, StageConfirmation)
	}
	if st.Draft.Time != "18:30" {
		t.Fatalf("time = %q, want 18:30", st.Draft.Time)
	}
	if st.Alternatives != nil {
		t.Fatalf("alternatives should be cleared, got %v", st.Alternatives)
	}
}

func TestAlternativeEscapeReturnsToDate(t *testing.T) {
	f := newFixture(t, displaySlots("18:00"))
	f.driveToTime(t, "CA109")
	f.advance(t, "CA109", "9 pm")

	reply := f.advance(t, "CA109", "none of those work")

	st := f.state(t, "CA109")
	if st.Stage != StageDate {
		t.Fatalf("stage = %q, want %q", st.Stage, StageDate)
	}
	if !st.Draft.Date.IsZero() || st.Draft.Time != "" || st.Alternatives != nil {
		t.Fatalf("date, time and alternatives must be cleared: %+v", st.Draft)
	}
	if st.Draft.CustomerName == "" || st.Draft.PartySize == 0 {
		t.Fatalf("name and party size must survive the restart: %+v", st.Draft)
	}
	if reply.NextEndpoint != "/twilio/collect-date" {
		t.Fatalf("next endpoint = %q", reply.NextEndpoint)
	}
}

func TestAlternativeMissRepresentsSameList(t *testing.T) {
	f := newFixture(t, displaySlots("18:00", "18:30"))
	f.driveToTime(t, "CA110")
	first := f.advance(t, "CA110", "9 pm")

	again := f.advance(t, "CA110", "hmm let me think")

	st := f.state(t, "CA110")
	if st.Stage != StageAltTime {
		t.Fatalf("stage = %q, want %q", st.Stage, StageAltTime)
	}
	for _, alt := range st.Alternatives {
		if !strings.Contains(first.Prompt, alt) || !strings.Contains(again.Prompt, alt) {
			t.Fatalf("both prompts must offer %s: first=%q again=%q", alt, first.Prompt, again.Prompt)
		}
	}
}

func TestConfirmationCommitsExactlyOneReservation(t *testing.T) {
	f := newFixture(t, displaySlots("19:00"))
	f.driveToTime(t, "CA111")
	f.advance(t, "CA111", "7 pm")

	reply := f.advance(t, "CA111", "yes that's correct")

	if !reply.Done || reply.Outcome != OutcomeCommitted {
		t.Fatalf("reply = %+v, want committed terminal", reply)
	}
	if reply.ReservationID == "" {
		t.Fatalf("committed reply must carry the reservation id")
	}
	all := f.bookings.Reservations()
	if len(all) != 1 {
		t.Fatalf("reservations = %d, want exactly 1", len(all))
	}
	res := all[0]
	if res.Status != booking.StatusConfirmed {
		t.Fatalf("status = %q", res.Status)
	}
	if res.CustomerName != "Jordan" || res.PartySize != 4 || res.Time != "19:00" {
		t.Fatalf("reservation fields wrong: %+v", res)
	}
	if _, ok, _ := f.states.Get(context.Background(), "CA111"); ok {
		t.Fatalf("call state must be removed after commit")
	}
	if f.sender.confirmations != 1 {
		t.Fatalf("confirmation sms sent %d times, want 1", f.sender.confirmations)
	}
}

func TestConfirmationDeclineRestartsDateKeepingIdentity(t *testing.T) {
	f := newFixture(t, displaySlots("19:00"))
	f.driveToTime(t, "CA112")
	f.advance(t, "CA112", "7 pm")

	reply := f.advance(t, "CA112", "no, that's wrong")

	st := f.state(t, "CA112")
	if st.Stage != StageDate {
		t.Fatalf("stage = %q, want %q", st.Stage, StageDate)
	}
	if st.Draft.CustomerName != "Jordan" || st.Draft.PartySize != 4 {
		t.Fatalf("identity fields must survive a decline: %+v", st.Draft)
	}
	if !st.Draft.Date.IsZero() || st.Draft.Time != "" {
		t.Fatalf("date and time must be cleared: %+v", st.Draft)
	}
	if len(f.bookings.Reservations()) != 0 {
		t.Fatalf("decline must not create a reservation")
	}
	if reply.Done {
		t.Fatalf("decline is not terminal")
	}
}

func TestCommitFailureAbortsAndPersistsNothing(t *testing.T) {
	f := newFixture(t, displaySlots("19:00"))
	f.bookings.FailCreates = errors.New("connection refused")
	f.driveToTime(t, "CA113")
	f.advance(t, "CA113", "7 pm")

	reply := f.advance(t, "CA113", "yes")

	if !reply.Done || reply.Outcome != OutcomeAborted {
		t.Fatalf("reply = %+v, want aborted terminal", reply)
	}
	if len(f.bookings.Reservations()) != 0 {
		t.Fatalf("failed commit must leave no reservation")
	}
	if _, ok, _ := f.states.Get(context.Background(), "CA113"); ok {
		t.Fatalf("call state must be removed after abort")
	}
	if f.sender.confirmations != 0 {
		t.Fatalf("no sms after a failed commit")
	}
}

func TestSlotProviderFailureDegradesToAlternativesPath(t *testing.T) {
	f := newFixture(t, nil)
	f.provider.err = errors.New("calendly unreachable")
	f.driveToTime(t, "CA114")

	f.advance(t, "CA114", "7 pm")

	// No availability data means no exact match; the caller lands in the
	// alternatives stage with an empty offer rather than a crash.
	if got := f.stage(t, "CA114"); got != StageAltTime {
		t.Fatalf("stage = %q, want %q", got, StageAltTime)
	}
}

func TestUnknownCallIDRestartsGreeting(t *testing.T) {
	f := newFixture(t, nil)

	reply := f.advance(t, "CA115", "seven pm")

	if !strings.Contains(reply.Prompt, "Welcome") {
		t.Fatalf("unknown call must restart with the greeting, got %q", reply.Prompt)
	}
	if got := f.stage(t, "CA115"); got != StageName {
		t.Fatalf("stage = %q, want %q", got, StageName)
	}
}

func TestEveryTurnIsRecorded(t *testing.T) {
	f := newFixture(t, displaySlots("19:00"))
	f.driveToTime(t, "CA116")
	f.advance(t, "CA116", "7 pm")
	f.advance(t, "CA116", "yes")

	turns := f.bookings.Turns()
	if len(turns) != 5 {
		t.Fatalf("recorded turns = %d, want 5", len(turns))
	}
	last := turns[len(turns)-1]
	if last.ReservationID == "" {
		t.Fatalf("final turn must reference the reservation")
	}
	if last.Transcript != "yes" {
		t.Fatalf("transcript = %q", last.Transcript)
	}
}
