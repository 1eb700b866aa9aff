package logger

// Common attribute keys
const (
	Component  = "component"
	RequestID  = "request_id"
	ClientIP   = "client_ip"
	Method     = "method"
	Path       = "path"
	StatusCode = "status_code"
	Duration   = "duration_ms"
	Error      = "error"
	Operation  = "operation"
	OwnerID    = "owner_id"
	EntryID    = "entry_id"
	UserID     = "user_id"
	FeedID     = "feed_id"
)

// Component names
const (
	ComponentApp       = "app"
	ComponentHTTP      = "http"
	ComponentJournal   = "journal"
	ComponentStore     = "store"
	ComponentSession   = "session"
	ComponentAccounts  = "accounts"
	ComponentRealtime  = "realtime"
	ComponentRateLimit = "rate_limit"
	ComponentArchive   = "archive"
)

// Operation names
const (
	OpCreate    = "create"
	OpRead      = "read"
	OpUpdate    = "update"
	OpDelete    = "delete"
	OpList      = "list"
	OpSubscribe = "subscribe"
	OpExport    = "export"
	OpStartup   = "startup"
	OpShutdown  = "shutdown"
)
