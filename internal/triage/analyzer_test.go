package triage

import (
	"testing"

	"github.com/syntaxsamurai/supportdesk/pkg/support"
)

func TestAnalyze_Intents(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		intent   support.Intent
		category support.Category
		priority support.Priority
	}{
		{"login keyword", "I can't login to my account", support.IntentLoginIssue, support.CategoryBug, support.PriorityMedium},
		{"password keyword", "my PASSWORD is rejected", support.IntentLoginIssue, support.CategoryBug, support.PriorityMedium},
		{"crash keyword", "the app keeps crashing", support.IntentCrashIssue, support.CategoryBug, support.PriorityHigh},
		{"performance keyword", "everything is so slow today", support.IntentPerformanceIssue, support.CategoryBug, support.PriorityMedium},
		{"data loss keyword", "my files have disappeared", support.IntentDataLoss, support.CategoryBug, support.PriorityHigh},
		{"installation keyword", "the installation fails halfway", support.IntentInstallationIssue, support.CategoryQuery, support.PriorityMedium},
		{"feature keyword", "it would be nice to have dark mode", support.IntentFeatureRequest, support.CategoryFeature, support.PriorityLow},
		{"no keyword", "How do I export to PDF", support.IntentGeneralQuery, support.CategoryQuery, support.PriorityLow},
		{"feature request scenario", "Could you implement dark mode", support.IntentFeatureRequest, support.CategoryFeature, support.PriorityLow},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Analyze(tt.text)
			if got.Intent != tt.intent {
				t.Errorf("intent = %q, want %q", got.Intent, tt.intent)
			}
			if got.Category != tt.category {
				t.Errorf("category = %q, want %q", got.Category, tt.category)
			}
			if got.Priority != tt.priority {
				t.Errorf("priority = %q, want %q", got.Priority, tt.priority)
			}
		})
	}
}

func TestAnalyze_Precedence(t *testing.T) {
	// A message matching both the login and crash groups must classify as
	// login_issue: the rule table is ordered and the first match wins.
	got := Analyze("I get an error on the login page")
	if got.Intent != support.IntentLoginIssue {
		t.Errorf("intent = %q, want %q", got.Intent, support.IntentLoginIssue)
	}

	// Crash precedes performance.
	got = Analyze("it crashes and is slow")
	if got.Intent != support.IntentCrashIssue {
		t.Errorf("intent = %q, want %q", got.Intent, support.IntentCrashIssue)
	}
}

func TestAnalyze_SubstringMatching(t *testing.T) {
	// Matching has no word boundaries: "install" inside "installation",
	// "add" inside "address". Deliberate shipped behavior.
	got := Analyze("trouble with the reinstallation process")
	if got.Intent != support.IntentInstallationIssue {
		t.Errorf("intent = %q, want %q", got.Intent, support.IntentInstallationIssue)
	}
}

func TestAnalyze_AlwaysPopulated(t *testing.T) {
	for _, text := range []string{"x", "hello there", "???", "what is the meaning of life"} {
		got := Analyze(text)
		if got.Intent == "" || got.Category == "" || got.Priority == "" {
			t.Errorf("Analyze(%q) left fields empty: %+v", text, got)
		}
	}
}

func TestEscalate(t *testing.T) {
	tests := []struct {
		name   string
		text   string
		intent support.Intent
		in     support.Priority
		want   support.Priority
	}{
		{"crash with broad impact", "the crash affects everyone in production", support.IntentCrashIssue, support.PriorityHigh, support.PriorityCritical},
		{"crash without broad impact", "the app crashed on my laptop", support.IntentCrashIssue, support.PriorityHigh, support.PriorityHigh},
		{"broad impact wrong intent", "login is broken for everyone", support.IntentLoginIssue, support.PriorityMedium, support.PriorityMedium},
		{"never lowers", "crash for everyone", support.IntentCrashIssue, support.PriorityCritical, support.PriorityCritical},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Escalate(tt.in, tt.intent, tt.text); got != tt.want {
				t.Errorf("Escalate() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestAnalyze_CriticalScenario(t *testing.T) {
	got := Analyze("My app crashes every time, affects everyone in production")
	if got.Intent != support.IntentCrashIssue {
		t.Errorf("intent = %q, want crash_issue", got.Intent)
	}
	if got.Category != support.CategoryBug {
		t.Errorf("category = %q, want bug", got.Category)
	}
	if got.Priority != support.PriorityCritical {
		t.Errorf("priority = %q, want critical", got.Priority)
	}
}
