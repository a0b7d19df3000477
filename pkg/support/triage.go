package support

// Intent is the coarse category a free-text message is classified into.
type Intent string

const (
	IntentLoginIssue        Intent = "login_issue"
	IntentCrashIssue        Intent = "crash_issue"
	IntentPerformanceIssue  Intent = "performance_issue"
	IntentDataLoss          Intent = "data_loss"
	IntentInstallationIssue Intent = "installation_issue"
	IntentFeatureRequest    Intent = "feature_request"
	IntentGeneralQuery      Intent = "general_query"
)

// Category is the ticket classification label derived from an intent.
type Category string

const (
	CategoryBug     Category = "bug"
	CategoryFeature Category = "feature"
	CategoryQuery   Category = "query"
	CategoryGeneral Category = "general"
)

// Priority is the urgency level assigned to a message or ticket.
type Priority string

const (
	PriorityLow      Priority = "low"
	PriorityMedium   Priority = "medium"
	PriorityHigh     Priority = "high"
	PriorityCritical Priority = "critical"
)
