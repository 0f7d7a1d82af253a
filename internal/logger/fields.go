package logger

// Standard field keys used across bytedrop log entries.
//
// Shared constants keep the structured output greppable: every line that
// mentions a content key uses "key", every line that mentions a client
// address uses "client_ip", and so on.
const (
	// KeyContent is the content key (the identifier returned by POST)
	KeyContent = "key"

	// KeyClientIP is the resolved client IP (x-real-ip or socket address)
	KeyClientIP = "client_ip"

	// KeyMediaType is the declared MIME type of a record
	KeyMediaType = "media_type"

	// KeySize is a payload size in bytes
	KeySize = "size"

	// KeyError is an error value
	KeyError = "error"

	// KeyDuration is an operation duration
	KeyDuration = "duration"
)
