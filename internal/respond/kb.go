package respond

import "github.com/syntaxsamurai/supportdesk/pkg/support"

// Canned response material. The texts are fixed; which variant of a set gets
// used is cosmetic and never feeds back into classification or ticket-offer
// decisions.

var greetings = []string{
	"Hello! I'm your Syntax Samurai support assistant. How can I help you with your tech issue today?",
	"Hi there! I'm the Syntax Samurai AI assistant. What tech support do you need?",
	"Welcome to Syntax Samurai support! I'm here to assist with your technical questions.",
}

var fallbacks = []string{
	"I'm not sure I understand. Could you provide more details about your issue?",
	"I'd like to help, but I need more information. Could you elaborate on your problem?",
	"I'm having trouble understanding your request. Can you describe the issue differently?",
}

// solutions holds three remediation variants per intent. general_query falls
// back to the fallbacks set.
var solutions = map[support.Intent][]string{
	support.IntentLoginIssue: {
		"If you're having login issues, try clearing your browser cache and cookies.",
		"For login problems, make sure Caps Lock is off and your username/password are correct.",
		"Try resetting your password using the 'Forgot Password' link on the login page.",
	},
	support.IntentCrashIssue: {
		"Application crashes are often resolved by restarting the application or your device.",
		"Try updating to the latest version of the software to fix crash issues.",
		"Check if your system meets the minimum requirements for running the application.",
	},
	support.IntentPerformanceIssue: {
		"Slow performance can be improved by closing other applications that consume resources.",
		"Try clearing temporary files and cache to improve performance.",
		"Consider upgrading your hardware if you're experiencing persistent performance issues.",
	},
	support.IntentDataLoss: {
		"Check if there's an autosave feature that might have preserved your work.",
		"Look for backup files that may have been created automatically.",
		"In the future, consider enabling regular backups to prevent data loss.",
	},
	support.IntentInstallationIssue: {
		"Make sure your system meets the minimum requirements before installation.",
		"Try running the installer as administrator if you're having permission issues.",
		"Temporarily disable antivirus software during installation if it's blocking the process.",
	},
	support.IntentFeatureRequest: {
		"Thanks for the feature suggestion! I've noted it down. We're always looking to improve our product based on user feedback.",
		"That's a great idea! I've recorded your suggestion for the product team to review.",
		"Thanks for sharing that! Feature requests like yours help shape our roadmap.",
	},
}

// chips holds the fixed suggestion list attached to each intent's reply.
var chips = map[support.Intent][]string{
	support.IntentLoginIssue:        {"Reset password", "Clear browser cache", "Try a different browser"},
	support.IntentCrashIssue:        {"Restart application", "Update to latest version", "Check system requirements"},
	support.IntentPerformanceIssue:  {"Close other applications", "Clear cache", "Check for updates"},
	support.IntentDataLoss:          {"Check for backups", "Contact support team", "Try recovery tools"},
	support.IntentInstallationIssue: {"Run as administrator", "Disable antivirus temporarily", "Check disk space"},
	support.IntentFeatureRequest:    {"Submit feature request", "Check roadmap", "Vote on features"},
	support.IntentGeneralQuery:      {"Contact support", "Browse documentation", "Submit a ticket"},
}
