package triage

import (
	"strings"

	"github.com/syntaxsamurai/supportdesk/pkg/support"
)

// broadImpact keywords signal that a crash affects more than one user's work.
var broadImpact = []string{"everyone", "all users", "production", "can't work", "lost work"}

// Escalate raises a crash_issue priority to critical when the message also
// signals broad impact. Escalation never lowers a priority and applies to no
// other intent.
func Escalate(priority support.Priority, intent support.Intent, text string) support.Priority {
	if intent != support.IntentCrashIssue {
		return priority
	}
	lower := strings.ToLower(text)
	for _, kw := range broadImpact {
		if strings.Contains(lower, kw) {
			return support.PriorityCritical
		}
	}
	return priority
}
