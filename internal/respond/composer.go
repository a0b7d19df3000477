// Package respond turns a triage result into the assistant's reply: the reply
// text, suggestion chips, and the decision whether to offer ticket creation.
package respond

import (
	"fmt"
	"math/rand"
	"strings"

	"github.com/syntaxsamurai/supportdesk/internal/triage"
	"github.com/syntaxsamurai/supportdesk/pkg/support"
)

// draftSubjectLen is the number of leading characters of the triggering
// message used as the draft ticket subject.
const draftSubjectLen = 50

// Reply is the composed assistant response for one user message.
type Reply struct {
	Text        string
	Suggestions []string
	OfferTicket bool
	// Draft is the pending ticket proposal, set only when OfferTicket is true.
	Draft *support.Draft
}

// Composer builds replies from triage results. The random-index provider only
// picks among cosmetic text variants; it never influences category, priority,
// or the ticket offer.
type Composer struct {
	pick func(n int) int
}

// New returns a Composer using the default random source. Pass a deterministic
// provider via NewWithRand in tests.
func New() *Composer {
	return &Composer{pick: rand.Intn}
}

// NewWithRand returns a Composer using the given random-index provider.
// pick(n) must return a value in [0, n).
func NewWithRand(pick func(n int) int) *Composer {
	return &Composer{pick: pick}
}

// Greeting returns one of the fixed greeting variants.
func (c *Composer) Greeting() string {
	return greetings[c.pick(len(greetings))]
}

// Compose builds the reply for an analyzed message. similar is the ordered
// similar-ticket list from the similarity scan; userText is the triggering
// message, used to derive the draft ticket.
func (c *Composer) Compose(res triage.Result, similar []*support.Ticket, userText string) Reply {
	var b strings.Builder

	if len(similar) > 0 {
		b.WriteString("I found some similar issues in our system. ")
		if resolved := firstWithStatus(similar, support.TicketResolved); resolved != nil {
			fmt.Fprintf(&b, "We've actually resolved a similar issue before. The solution was related to %q. ", resolved.Subject)
		} else if firstWithStatus(similar, support.TicketInProgress) != nil {
			b.WriteString("Our team is currently working on similar issues. ")
		}
	}

	b.WriteString(c.solution(res.Intent))

	offer := shouldOfferTicket(res.Intent, res.Priority)

	if res.Priority == support.PriorityCritical {
		b.WriteString(" This seems like a critical issue. I recommend creating a support ticket immediately.")
	}

	reply := Reply{
		Text:        b.String(),
		Suggestions: chips[res.Intent],
		OfferTicket: offer,
	}
	if offer {
		reply.Draft = &support.Draft{
			Subject:  draftSubject(userText),
			Text:     userText,
			Category: res.Category,
			Priority: res.Priority,
		}
	}
	return reply
}

func (c *Composer) solution(intent support.Intent) string {
	set, ok := solutions[intent]
	if !ok {
		set = fallbacks
	}
	return set[c.pick(len(set))]
}

// shouldOfferTicket decides whether the session should follow up with a
// ticket-creation offer. Critical priority forces an offer regardless of
// intent.
func shouldOfferTicket(intent support.Intent, priority support.Priority) bool {
	switch {
	case intent == support.IntentDataLoss:
		return true
	case intent == support.IntentFeatureRequest:
		return true
	case priority == support.PriorityCritical:
		return true
	case intent == support.IntentCrashIssue &&
		(priority == support.PriorityHigh || priority == support.PriorityCritical):
		return true
	}
	return false
}

func firstWithStatus(tickets []*support.Ticket, status support.TicketStatus) *support.Ticket {
	for _, t := range tickets {
		if t.Status == status {
			return t
		}
	}
	return nil
}

// draftSubject derives the draft ticket subject from the triggering message:
// the first 50 characters, with an ellipsis when truncated.
func draftSubject(text string) string {
	runes := []rune(text)
	if len(runes) <= draftSubjectLen {
		return text
	}
	return string(runes[:draftSubjectLen]) + "..."
}
