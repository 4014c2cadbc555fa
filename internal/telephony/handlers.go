package telephony

import (
	"net/http"

	"voiceline/internal/dialog"
	"voiceline/pkg/logger"

	"github.com/gin-gonic/gin"
)

// VoiceHandler converts Twilio voice webhooks into dialogue turns and writes
// the manager's reply back as TwiML.
//
// No dialogue logic here; which question comes next is the manager's call.
// Every collection endpoint runs the same turn handler because the stored
// call state, not the URL, decides how a transcript is interpreted.

type VoiceHandler struct {
	Manager *dialog.Manager
}

// Register mounts the voice webhook routes on r.
func (h VoiceHandler) Register(r gin.IRoutes) {
	r.POST("/twilio/incoming-call", h.HandleIncomingCall)
	for _, path := range []string{
		"/twilio/collect-name",
		"/twilio/collect-party-size",
		"/twilio/collect-date",
		"/twilio/collect-time",
		"/twilio/collect-alternative-time",
		"/twilio/confirm-booking",
	} {
		r.POST(path, h.HandleTurn)
	}
	r.POST("/twilio/fallback", h.HandleFallback)
}

// HandleIncomingCall starts a fresh dialogue for the call.
func (h VoiceHandler) HandleIncomingCall(c *gin.Context) {
	log := logger.FromGin(c)

	form, err := ParseVoiceWebhook(c.Request)
	if err != nil || form.CallSid == "" {
		log.Warn("voice webhook parse failed", "err", err)
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid form"})
		return
	}

	reply := h.Manager.Begin(c.Request.Context(), form.CallSid, form.From)
	h.writeReply(c, reply)
}

// HandleTurn feeds one transcript to the dialogue and speaks the response.
func (h VoiceHandler) HandleTurn(c *gin.Context) {
	log := logger.FromGin(c)

	form, err := ParseVoiceWebhook(c.Request)
	if err != nil || form.CallSid == "" {
		log.Warn("voice webhook parse failed", "err", err)
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid form"})
		return
	}

	reply := h.Manager.Advance(c.Request.Context(), dialog.Turn{
		CallID:       form.CallSid,
		CallerNumber: form.From,
		Transcript:   form.SpeechResult,
	})
	h.writeReply(c, reply)
}

// HandleFallback is wired as the Twilio fallback URL; it apologizes and
// hangs up instead of letting the caller hear a raw application error.
func (h VoiceHandler) HandleFallback(c *gin.Context) {
	log := logger.FromGin(c)
	log.Error("voice fallback invoked", "call_sid", c.PostForm("CallSid"), "error_code", c.PostForm("ErrorCode"))

	twiml, err := SayHangup(dialog.FallbackPrompt)
	if err != nil {
		c.AbortWithStatus(http.StatusInternalServerError)
		return
	}
	c.Header("Content-Type", "application/xml")
	c.String(http.StatusOK, twiml)
}

func (h VoiceHandler) writeReply(c *gin.Context, reply dialog.Reply) {
	var (
		twiml string
		err   error
	)
	if reply.Done {
		twiml, err = SayHangup(reply.Prompt)
	} else {
		twiml, err = GatherSpeech(reply.Prompt, reply.NextEndpoint, reply.GatherTimeout)
	}
	if err != nil {
		logger.FromGin(c).Error("twiml render failed", "err", err)
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "twiml failed"})
		return
	}
	c.Header("Content-Type", "application/xml")
	c.String(http.StatusOK, twiml)
}
