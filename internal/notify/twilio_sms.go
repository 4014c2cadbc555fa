package notify

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"voiceline/internal/booking"
	"voiceline/internal/config"
)

// TwilioSMS sends SMS through the Twilio Messages REST endpoint. It talks
// plain HTTP with basic auth rather than pulling in a provider SDK, matching
// the rest of the telephony boundary.
type TwilioSMS struct {
	cfg        config.TwilioConfig
	restaurant string

	HTTPClient *http.Client
	BaseURL    string
	Log        *slog.Logger
}

const twilioAPIBaseURL = "https://api.twilio.com"

func NewTwilioSMS(cfg config.TwilioConfig, restaurantName string, log *slog.Logger) *TwilioSMS {
	if log == nil {
		log = slog.Default()
	}
	return &TwilioSMS{
		cfg:        cfg,
		restaurant: restaurantName,
		HTTPClient: &http.Client{Timeout: 5 * time.Second},
		BaseURL:    twilioAPIBaseURL,
		Log:        log,
	}
}

func (t *TwilioSMS) SendConfirmation(ctx context.Context, res booking.Reservation) error {
	msg := fmt.Sprintf(
		"Hello %s, your reservation at %s is confirmed for %s at %s for %d people. Reference #: %s. Thank you!",
		res.CustomerName, t.restaurant, res.Date.Format("Monday, January 2"), res.Time, res.PartySize, res.ID)
	return t.send(ctx, res.CustomerPhone, msg)
}

func (t *TwilioSMS) SendCancellation(ctx context.Context, res booking.Reservation) error {
	msg := fmt.Sprintf(
		"Hello %s, your reservation at %s for %s at %s has been cancelled. If this was a mistake, please call us.",
		res.CustomerName, t.restaurant, res.Date.Format("Monday, January 2"), res.Time)
	return t.send(ctx, res.CustomerPhone, msg)
}

func (t *TwilioSMS) send(ctx context.Context, to, body string) error {
	if t.cfg.AccountSID == "" || t.cfg.AuthToken == "" || t.cfg.FromNumber == "" {
		return fmt.Errorf("notify: twilio credentials not configured")
	}
	to = FormatPhone(to)
	if to == "" {
		return fmt.Errorf("notify: no destination number")
	}

	form := url.Values{}
	form.Set("To", to)
	form.Set("From", t.cfg.FromNumber)
	form.Set("Body", body)

	endpoint := fmt.Sprintf("%s/2010-04-01/Accounts/%s/Messages.json", t.BaseURL, t.cfg.AccountSID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return err
	}
	req.SetBasicAuth(t.cfg.AccountSID, t.cfg.AuthToken)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := t.HTTPClient.Do(req)
	if err != nil {
		return fmt.Errorf("notify: twilio request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("notify: twilio status %d", resp.StatusCode)
	}
	t.Log.Info("sms sent", "to", to)
	return nil
}

// FormatPhone normalizes a best-effort caller number to E.164. A bare US
// ten-digit number gains the +1 prefix; anything longer keeps its digits
// behind a plus; anything shorter is returned unchanged.
func FormatPhone(phone string) string {
	var digits strings.Builder
	for _, r := range phone {
		if r >= '0' && r <= '9' {
			digits.WriteRune(r)
		}
	}
	d := digits.String()
	switch {
	case len(d) == 10:
		return "+1" + d
	case len(d) > 10:
		return "+" + d
	default:
		return phone
	}
}
