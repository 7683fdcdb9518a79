package enums

type Decision string

const (
	DecisionIgnoredDisabled  Decision = "IGNORED_DISABLED"
	DecisionIgnoredNoAuthor  Decision = "IGNORED_NO_AUTHOR"
	DecisionStorageError     Decision = "STORAGE_ERROR"
	DecisionExemptAdmin      Decision = "EXEMPT_ADMIN"
	DecisionLookupFailed     Decision = "LOOKUP_FAILED"
	DecisionClean            Decision = "CLEAN"
	DecisionDeleted          Decision = "DELETED"
	DecisionPermissionDenied Decision = "PERMISSION_DENIED"
	DecisionRateLimited      Decision = "RATE_LIMITED"
	DecisionDeleteFailed     Decision = "DELETE_FAILED"
)

type CommandOutcome string

const (
	CommandOutcomeEnabled         CommandOutcome = "ENABLED"
	CommandOutcomeAlreadyEnabled  CommandOutcome = "ALREADY_ENABLED"
	CommandOutcomeDisabled        CommandOutcome = "DISABLED"
	CommandOutcomeAlreadyDisabled CommandOutcome = "ALREADY_DISABLED"
	CommandOutcomeStatus          CommandOutcome = "STATUS"
	CommandOutcomeHelp            CommandOutcome = "HELP"
	CommandOutcomeGroupOnly       CommandOutcome = "GROUP_ONLY"
	CommandOutcomeUnauthorized    CommandOutcome = "UNAUTHORIZED"
	CommandOutcomeFailed          CommandOutcome = "FAILED"
	CommandOutcomeIgnored         CommandOutcome = "IGNORED"
)
