package dialog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"voiceline/internal/audit"
	"voiceline/internal/booking"
	"voiceline/internal/config"
	"voiceline/internal/extract"
	"voiceline/internal/notify"
	"voiceline/internal/slots"
)

// Turn is one inbound telephony event: the caller's latest utterance.
type Turn struct {
	CallID       string
	CallerNumber string
	Transcript   string
}

// Reply tells the telephony glue what to say and where the next utterance
// should land.
type Reply struct {
	Prompt string

	// NextEndpoint receives the caller's next turn; empty when Done.
	NextEndpoint  string
	GatherTimeout time.Duration

	Done          bool
	Outcome       Outcome
	ReservationID string
}

// EndpointForStage maps a dialogue stage to the webhook that collects its
// input.
func EndpointForStage(s Stage) string {
	switch s {
	case StagePartySize:
		return "/twilio/collect-party-size"
	case StageDate:
		return "/twilio/collect-date"
	case StageTime:
		return "/twilio/collect-time"
	case StageAltTime:
		return "/twilio/collect-alternative-time"
	case StageConfirmation:
		return "/twilio/confirm-booking"
	case StageName:
		return "/twilio/collect-name"
	default:
		return "/twilio/incoming-call"
	}
}

// affirmatives classify a confirmation reply; anything else is a decline.
var affirmatives = []string{"yes", "correct", "right", "sure", "confirm"}

// escapes route an alternative-time reply back to date selection.
var escapes = []string{"none", "different date"}

const maxAlternatives = 3

// Manager is the dialogue state machine. Given a call id, its stored stage
// and a fresh transcript, it decides the next stage, updates the draft and
// produces the next spoken prompt.
//
// Error policy: collaborator failures become either a re-prompt in the same
// stage or a terminal abort with a spoken apology. The telephony layer never
// sees a raw error from here.
type Manager struct {
	store    StateStore
	slots    slots.Provider
	bookings *booking.Service
	notifier notify.Sender
	audits   *audit.Service

	restaurant config.RestaurantConfig

	gatherTimeout   time.Duration
	upstreamTimeout time.Duration

	ex    extract.Extractors
	clock func() time.Time
	log   *slog.Logger
}

func NewManager(
	store StateStore,
	provider slots.Provider,
	bookings *booking.Service,
	notifier notify.Sender,
	audits *audit.Service,
	rcfg config.RestaurantConfig,
	dcfg config.DialogConfig,
	log *slog.Logger,
) *Manager {
	if notifier == nil {
		notifier = notify.Noop{}
	}
	if log == nil {
		log = slog.Default()
	}
	gather := dcfg.GatherTimeout
	if gather <= 0 {
		gather = 5 * time.Second
	}
	return &Manager{
		store:           store,
		slots:           provider,
		bookings:        bookings,
		notifier:        notifier,
		audits:          audits,
		restaurant:      rcfg,
		gatherTimeout:   gather,
		upstreamTimeout: 5 * time.Second,
		ex:              extract.Defaults(),
		clock:           time.Now,
		log:             log,
	}
}

// Begin handles the first event of a call: initialize state, speak the
// welcome prompt and route the next utterance to name collection.
func (m *Manager) Begin(ctx context.Context, callID, callerNumber string) Reply {
	if m.audits != nil {
		payload, _ := json.Marshal(map[string]string{"caller": callerNumber, "call_sid": callID})
		if err := m.audits.LogAction(ctx, "incoming_call", "call", "", fmt.Sprintf("Incoming call from %s", callerNumber), string(payload)); err != nil {
			m.log.Warn("audit append failed", "err", err)
		}
	}

	st := CallState{
		CallID: callID,
		Stage:  StageName,
		Draft: booking.Draft{
			CustomerPhone: callerNumber,
			RestaurantID:  m.restaurant.ID,
		},
	}
	m.overwrite(ctx, st)

	return Reply{
		Prompt:        promptWelcome,
		NextEndpoint:  EndpointForStage(StageName),
		GatherTimeout: m.gatherTimeout,
	}
}

// Advance processes one utterance against the stored call state.
//
// The read-modify-write cycle is guarded by the store's version CAS: a
// concurrent event for the same call id (e.g. a retried webhook) forces a
// reload and recompute instead of silently clobbering state.
func (m *Manager) Advance(ctx context.Context, turn Turn) Reply {
	const attempts = 3

	var reply Reply
	for i := 0; i < attempts; i++ {
		st, found, err := m.store.Get(ctx, turn.CallID)
		if err != nil {
			m.log.Error("call state load failed", "call_id", turn.CallID, "err", err)
			found = false
		}
		if !found || !ValidStage(st.Stage) {
			// Unknown call id: restart as a fresh greeting rather than
			// surfacing an error to the caller.
			return m.Begin(ctx, turn.CallID, turn.CallerNumber)
		}

		next, r, terminal := m.transition(ctx, st, turn)
		reply = r

		if terminal {
			if err := m.store.Delete(ctx, turn.CallID); err != nil {
				m.log.Warn("call state delete failed", "call_id", turn.CallID, "err", err)
			}
			m.recordTurn(ctx, turn, reply)
			return reply
		}

		err = m.store.Put(ctx, next)
		if err == nil {
			m.recordTurn(ctx, turn, reply)
			return reply
		}
		if !errors.Is(err, ErrVersionConflict) {
			// State may now be stale, but the caller still gets natural
			// language; the worst case is repeating a question.
			m.log.Error("call state save failed", "call_id", turn.CallID, "err", err)
			m.recordTurn(ctx, turn, reply)
			return reply
		}
		// Version conflict: reload and recompute.
	}

	m.log.Warn("call state contention persisted, re-prompting", "call_id", turn.CallID)
	return reply
}

// transition is the single (stage, transcript) -> (stage, reply) function.
// It mutates only the passed copy of state; persistence is the caller's job.
func (m *Manager) transition(ctx context.Context, st CallState, turn Turn) (CallState, Reply, bool) {
	switch st.Stage {
	case StageName:
		return m.onName(st, turn)
	case StagePartySize:
		return m.onPartySize(st, turn)
	case StageDate:
		return m.onDate(st, turn)
	case StageTime:
		return m.onTime(ctx, st, turn)
	case StageAltTime:
		return m.onAltTime(st, turn)
	case StageConfirmation:
		return m.onConfirmation(ctx, st, turn)
	default:
		// Unreachable: Advance validates the stage before dispatch.
		return st, m.stay(st, FallbackPrompt), false
	}
}

func (m *Manager) onName(st CallState, turn Turn) (CallState, Reply, bool) {
	name, ok := m.ex.Name(turn.Transcript)
	if !ok {
		return st, m.stay(st, promptNameRetry), false
	}
	st.Draft.CustomerName = name
	st.Stage = StagePartySize
	return st, m.ask(st, promptPartySize(name)), false
}

func (m *Manager) onPartySize(st CallState, turn Turn) (CallState, Reply, bool) {
	n, ok := m.ex.PartySize(turn.Transcript)
	if !ok {
		return st, m.stay(st, promptPartySizeRetry), false
	}
	st.Draft.PartySize = n
	st.Stage = StageDate
	return st, m.ask(st, promptDate(n)), false
}

func (m *Manager) onDate(st CallState, turn Turn) (CallState, Reply, bool) {
	d, ok := m.ex.Date(turn.Transcript, m.clock())
	if !ok {
		return st, m.stay(st, promptDateRetry), false
	}
	st.Draft.Date = d
	st.Stage = StageTime
	return st, m.ask(st, promptTime(d)), false
}

func (m *Manager) onTime(ctx context.Context, st CallState, turn Turn) (CallState, Reply, bool) {
	clock, ok := m.ex.Time(turn.Transcript)
	if !ok {
		return st, m.stay(st, promptTimeRetry), false
	}

	// Business hours; closing time itself is still bookable. HH:MM strings
	// compare correctly as text.
	if clock < m.restaurant.OpeningTime || clock > m.restaurant.ClosingTime {
		return st, m.stay(st, promptOutOfHours(m.restaurant.OpeningTime, m.restaurant.ClosingTime)), false
	}

	available := m.listSlots(ctx, st.Draft.Date)
	for _, s := range available {
		if s.Display == clock {
			st.Draft.Time = clock
			st.Stage = StageConfirmation
			st.Alternatives = nil
			return st, m.ask(st, m.confirmPrompt(st)), false
		}
	}

	alts := make([]string, 0, maxAlternatives)
	for _, s := range available {
		alts = append(alts, s.Display)
		if len(alts) == maxAlternatives {
			break
		}
	}
	st.Alternatives = alts
	st.Stage = StageAltTime
	return st, m.ask(st, promptAlternatives(alts, false)), false
}

func (m *Manager) onAltTime(st CallState, turn Turn) (CallState, Reply, bool) {
	lower := strings.ToLower(turn.Transcript)
	for _, esc := range escapes {
		if strings.Contains(lower, esc) {
			st.Draft.Date = time.Time{}
			st.Draft.Time = ""
			st.Alternatives = nil
			st.Stage = StageDate
			return st, m.ask(st, promptDateRestart), false
		}
	}

	// The caller is answering a list of known-open slots, so the stated
	// time is accepted without another availability round trip.
	clock, ok := m.ex.Time(turn.Transcript)
	if !ok {
		return st, m.stay(st, promptAlternatives(st.Alternatives, true)), false
	}
	st.Draft.Time = clock
	st.Stage = StageConfirmation
	st.Alternatives = nil
	return st, m.ask(st, m.confirmPrompt(st)), false
}

func (m *Manager) onConfirmation(ctx context.Context, st CallState, turn Turn) (CallState, Reply, bool) {
	lower := strings.ToLower(turn.Transcript)
	affirmed := false
	for _, word := range affirmatives {
		if strings.Contains(lower, word) {
			affirmed = true
			break
		}
	}

	if !affirmed {
		// Decline restarts date and time collection; name and party size
		// survive.
		st.Draft.Date = time.Time{}
		st.Draft.Time = ""
		st.Alternatives = nil
		st.Stage = StageDate
		return st, m.ask(st, promptDateDeclined), false
	}

	commitCtx, cancel := context.WithTimeout(ctx, m.upstreamTimeout)
	defer cancel()

	res, err := m.bookings.Commit(commitCtx, st.Draft)
	if err != nil {
		m.log.Error("booking commit failed", "call_id", st.CallID, "err", err)
		return st, Reply{
			Prompt:  promptAborted(spokenReason(err)),
			Done:    true,
			Outcome: OutcomeAborted,
		}, true
	}

	m.sendConfirmation(ctx, res)

	return st, Reply{
		Prompt:        promptCommitted,
		Done:          true,
		Outcome:       OutcomeCommitted,
		ReservationID: res.ID,
	}, true
}

func (m *Manager) confirmPrompt(st CallState) string {
	name := st.Draft.CustomerName
	if name == "" {
		name = "you"
	}
	return promptConfirm(st.Draft.PartySize, st.Draft.Date, st.Draft.Time, name)
}

// listSlots queries availability with a bounded timeout, degrading to an
// empty list only if even the provider's own fallback fails.
func (m *Manager) listSlots(ctx context.Context, date time.Time) []slots.Slot {
	slotCtx, cancel := context.WithTimeout(ctx, m.upstreamTimeout)
	defer cancel()

	out, err := m.slots.ListSlots(slotCtx, date)
	if err != nil {
		m.log.Warn("slot provider failed", "err", err)
		return nil
	}
	return out
}

func (m *Manager) sendConfirmation(ctx context.Context, res booking.Reservation) {
	smsCtx, cancel := context.WithTimeout(ctx, m.upstreamTimeout)
	defer cancel()

	if err := m.notifier.SendConfirmation(smsCtx, res); err != nil {
		// Never unwinds the reservation.
		m.log.Warn("confirmation sms failed", "reservation_id", res.ID, "err", err)
		return
	}
	if m.audits != nil {
		_ = m.audits.LogAction(ctx, "sms_notification", "booking", res.ID,
			fmt.Sprintf("SMS confirmation sent to %s", res.CustomerPhone), "")
	}
}

func (m *Manager) recordTurn(ctx context.Context, turn Turn, reply Reply) {
	if err := m.bookings.RecordTurn(ctx, turn.CallID, turn.Transcript, reply.Prompt, reply.ReservationID); err != nil {
		m.log.Warn("voice turn append failed", "call_id", turn.CallID, "err", err)
	}
}

// stay keeps the caller in the current stage with a repaired prompt.
func (m *Manager) stay(st CallState, prompt string) Reply {
	return m.ask(st, prompt)
}

func (m *Manager) ask(st CallState, prompt string) Reply {
	return Reply{
		Prompt:        prompt,
		NextEndpoint:  EndpointForStage(st.Stage),
		GatherTimeout: m.gatherTimeout,
	}
}

// overwrite stores a fresh greeting state regardless of what is already
// there; a restarted call always wins.
func (m *Manager) overwrite(ctx context.Context, st CallState) {
	for i := 0; i < 3; i++ {
		err := m.store.Put(ctx, st)
		if err == nil {
			return
		}
		if !errors.Is(err, ErrVersionConflict) {
			m.log.Error("call state init failed", "call_id", st.CallID, "err", err)
			return
		}
		cur, found, getErr := m.store.Get(ctx, st.CallID)
		if getErr != nil || !found {
			continue
		}
		st.Version = cur.Version
	}
	m.log.Warn("call state init contention persisted", "call_id", st.CallID)
}

// spokenReason trims an error chain down to something a caller can hear.
func spokenReason(err error) string {
	if errors.Is(err, booking.ErrMissingFields) {
		return "some booking details were missing"
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return "our booking system is taking too long to respond"
	}
	return "our booking system is unavailable"
}
