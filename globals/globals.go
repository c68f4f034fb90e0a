package globals

// Context keys
type ContextKey string

const SessionKey ContextKey = "session"

// Session credential transport.
const (
	SessionCookieName = "session_id"
	SessionHeaderName = "X-Session-ID"
)
