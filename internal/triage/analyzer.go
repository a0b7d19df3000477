// Package triage classifies free-text support messages into an intent,
// a ticket category, and a priority, and finds previously submitted tickets
// that are lexically similar to the current message.
package triage

import (
	"strings"

	"github.com/syntaxsamurai/supportdesk/pkg/support"
)

// Result is the outcome of analyzing one user message.
type Result struct {
	Intent   support.Intent   `json:"intent"`
	Category support.Category `json:"category"`
	Priority support.Priority `json:"priority"`
}

type rule struct {
	intent   support.Intent
	category support.Category
	priority support.Priority
	keywords []string
}

// rules are evaluated top to bottom and the first match wins. The order is
// load-bearing: a message naming both a login keyword and a crash keyword
// classifies as login_issue.
var rules = []rule{
	{support.IntentLoginIssue, support.CategoryBug, support.PriorityMedium,
		[]string{"login", "password", "sign in", "authentication", "account"}},
	{support.IntentCrashIssue, support.CategoryBug, support.PriorityHigh,
		[]string{"crash", "error", "freeze", "not working", "broken"}},
	{support.IntentPerformanceIssue, support.CategoryBug, support.PriorityMedium,
		[]string{"slow", "performance", "lag", "takes forever", "loading"}},
	{support.IntentDataLoss, support.CategoryBug, support.PriorityHigh,
		[]string{"lost data", "missing files", "deleted", "gone", "disappeared"}},
	{support.IntentInstallationIssue, support.CategoryQuery, support.PriorityMedium,
		[]string{"install", "setup", "download", "update"}},
	{support.IntentFeatureRequest, support.CategoryFeature, support.PriorityLow,
		[]string{"feature", "add", "would be nice", "should have", "could you implement"}},
}

// Analyze classifies a message. Matching is case-insensitive substring search
// with no word-boundary handling ("install" matches inside "installation").
// Unmatched messages fall through to general_query.
func Analyze(text string) Result {
	lower := strings.ToLower(text)
	for _, r := range rules {
		for _, kw := range r.keywords {
			if strings.Contains(lower, kw) {
				return Result{
					Intent:   r.intent,
					Category: r.category,
					Priority: Escalate(r.priority, r.intent, lower),
				}
			}
		}
	}
	return Result{
		Intent:   support.IntentGeneralQuery,
		Category: support.CategoryQuery,
		Priority: support.PriorityLow,
	}
}
