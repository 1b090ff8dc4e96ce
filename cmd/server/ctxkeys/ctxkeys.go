// Package ctxkeys holds the keys used with fiber.Ctx.Locals.
package ctxkeys

// Locals keys
const (
	// SessionKey holds the *session.Session resolved from the request cookie.
	SessionKey = "session"
	// SessionIDKey holds the raw cookie value, set even when it does not resolve.
	SessionIDKey = "sessionID"
	// ParentCtxKey holds the request context handed to a WebSocket stream.
	ParentCtxKey = "parentCtx"
	// StreamUserKey holds the hex id of the user opening a stream.
	StreamUserKey = "streamUser"
	// StreamPostKey holds the bson.ObjectID post filter of a stream.
	StreamPostKey = "streamPost"
)
