package dialog

import (
	"fmt"
	"strings"
	"time"
)

// Prompt text spoken back to callers. Kept together so the conversational
// voice stays consistent; no formatting decisions belong in the state
// machine itself.

const promptWelcome = "Welcome to our restaurant booking system. " +
	"My name is Alex, and I'll help you make a reservation. What's your name?"

const promptNameRetry = "I'm sorry, I didn't catch your name. Could you please tell me your name?"

func promptPartySize(name string) string {
	return fmt.Sprintf("Thanks, %s. How many people will be in your party?", name)
}

const promptPartySizeRetry = "I'm sorry, I didn't catch how many people will be in your party. " +
	"Could you please tell me the number of people?"

func promptDate(partySize int) string {
	return fmt.Sprintf("Great, a table for %d. What date would you like to book? "+
		"For example, you can say 'today', 'tomorrow', or a specific date.", partySize)
}

const promptDateRetry = "I'm sorry, I didn't catch the date you'd like to book. " +
	"Could you please tell me the date, like 'today', 'tomorrow', or a specific date?"

const promptDateRestart = "Let's try a different date. What date would you like to book?"

const promptDateDeclined = "Let's try again. What date would you like to book?"

func promptTime(date time.Time) string {
	return fmt.Sprintf("I've set your reservation date for %s. What time would you like to book?",
		speakDate(date))
}

const promptTimeRetry = "I'm sorry, I didn't catch the time you'd like to book. " +
	"Could you please tell me the time, like '7 PM' or '6:30'?"

func promptOutOfHours(opening, closing string) string {
	return fmt.Sprintf("I'm sorry, our restaurant is only open from %s to %s. "+
		"Please choose a time within our business hours.", opening, closing)
}

func promptConfirm(partySize int, date time.Time, clock, name string) string {
	return fmt.Sprintf("Great, I have a table for %d on %s at %s. Is this correct, %s? Please say yes or no.",
		partySize, speakDate(date), clock, name)
}

func promptAlternatives(alts []string, retry bool) string {
	var b strings.Builder
	if retry {
		b.WriteString("I'm sorry, I didn't understand your choice. Here are the available times again: ")
	} else {
		b.WriteString("I'm sorry, that time is not available. Here are some alternative times: ")
	}
	for i, a := range alts {
		fmt.Fprintf(&b, "Option %d: %s. ", i+1, a)
	}
	b.WriteString("Please say the time you would prefer, or say 'none' to try another date.")
	return b.String()
}

const promptCommitted = "Excellent! Your reservation has been confirmed. " +
	"You'll receive a confirmation SMS with your booking details. " +
	"Thank you for choosing our restaurant. Goodbye!"

func promptAborted(reason string) string {
	return fmt.Sprintf("I'm sorry, there was an issue creating your booking: %s. "+
		"Please try again later or call our restaurant directly. Thank you and goodbye!", reason)
}

// FallbackPrompt is spoken when the application itself is failing; the
// telephony layer uses it for the provider's fallback URL.
const FallbackPrompt = "I'm sorry, there seems to be an issue with our booking system. " +
	"Please try again later or call our restaurant directly during business hours. " +
	"Thank you for your patience."

// speakDate renders a date the way it should be read aloud.
func speakDate(d time.Time) string {
	return d.Format("Monday, January 2")
}
