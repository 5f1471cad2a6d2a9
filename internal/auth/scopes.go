package auth

// Scopes granted to dashboard tokens.
const (
	ScopeScheduleRead  = "schedule:read"
	ScopeScheduleWrite = "schedule:write"
	ScopeEventsRead    = "events:read"
)
