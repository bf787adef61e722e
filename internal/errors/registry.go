package errors

// ErrorTemplate defines a registered error type.
type ErrorTemplate struct {
	Category Category
	Message  string
	Detail   string
	DocURL   string
}

// registry maps error codes to their templates.
var registry = map[string]ErrorTemplate{
	// ============================================
	// Runtime Errors (E001-E039)
	// ============================================

	"E001": {
		Category: CategoryRuntime,
		Message:  "Hook called outside a component render",
		Detail:   "Hooks such as UseState and UseEffect may only be called while a component is rendering under a Root.",
		DocURL:   "https://relight.dev/docs/errors/E001",
	},
	"E002": {
		Category: CategoryRuntime,
		Message:  "Hook order changed between renders",
		Detail:   "A component called its hooks in a different order or count than the previous render. Hooks must be called unconditionally and in the same order every time.",
		DocURL:   "https://relight.dev/docs/errors/E002",
	},
	"E003": {
		Category: CategoryRuntime,
		Message:  "Hook slot type mismatch",
		Detail:   "The hook at this position was a different kind on the previous render. This usually means hooks are being called conditionally.",
		DocURL:   "https://relight.dev/docs/errors/E003",
	},
	"E004": {
		Category: CategoryRuntime,
		Message:  "Render budget exceeded",
		Detail:   "State kept changing during flush and the root exceeded its render budget. Check for setters called unconditionally during render or effects that always re-trigger themselves.",
		DocURL:   "https://relight.dev/docs/errors/E004",
	},
	"E005": {
		Category: CategoryRuntime,
		Message:  "Root unmounted",
		Detail:   "The operation requires a mounted root, but Unmount has already run.",
		DocURL:   "https://relight.dev/docs/errors/E005",
	},

	// ============================================
	// Protocol Errors (E060-E079)
	// ============================================

	"E060": {
		Category: CategoryProtocol,
		Message:  "WebSocket connection failed",
		Detail:   "Unable to establish a WebSocket connection to the server.",
		DocURL:   "https://relight.dev/docs/errors/E060",
	},
	"E061": {
		Category: CategoryProtocol,
		Message:  "Invalid frame",
		Detail:   "The received frame could not be decoded. The protocol version may be mismatched.",
		DocURL:   "https://relight.dev/docs/errors/E061",
	},
	"E062": {
		Category: CategoryProtocol,
		Message:  "Protocol version mismatch",
		Detail:   "The client and server are using incompatible protocol versions.",
		DocURL:   "https://relight.dev/docs/errors/E062",
	},
	"E063": {
		Category: CategoryProtocol,
		Message:  "Handshake failed",
		Detail:   "The server rejected the hello frame during connection setup.",
		DocURL:   "https://relight.dev/docs/errors/E063",
	},
	"E064": {
		Category: CategoryProtocol,
		Message:  "Frame too large",
		Detail:   "The payload exceeds the maximum frame size.",
		DocURL:   "https://relight.dev/docs/errors/E064",
	},

	// ============================================
	// Session Errors (E080-E099)
	// ============================================

	"E080": {
		Category: CategorySession,
		Message:  "Session not found",
		Detail:   "The session ID is unknown to this server and no snapshot exists in the store.",
		DocURL:   "https://relight.dev/docs/errors/E080",
	},
	"E081": {
		Category: CategorySession,
		Message:  "Session expired",
		Detail:   "The session's resume window has elapsed; its state has been discarded.",
		DocURL:   "https://relight.dev/docs/errors/E081",
	},
	"E082": {
		Category: CategorySession,
		Message:  "Too many sessions",
		Detail:   "The per-IP or global session limit has been reached.",
		DocURL:   "https://relight.dev/docs/errors/E082",
	},
	"E083": {
		Category: CategorySession,
		Message:  "Unsupported snapshot version",
		Detail:   "The stored snapshot was written by a newer version and cannot be decoded.",
		DocURL:   "https://relight.dev/docs/errors/E083",
	},
	"E084": {
		Category: CategorySession,
		Message:  "Session store unavailable",
		Detail:   "The configured session store could not be reached.",
		DocURL:   "https://relight.dev/docs/errors/E084",
	},

	// ============================================
	// Configuration Errors (E120-E139)
	// ============================================

	"E120": {
		Category: CategoryConfig,
		Message:  "Invalid relight.yaml",
		Detail:   "The relight.yaml configuration file is malformed.",
		DocURL:   "https://relight.dev/docs/errors/E120",
	},
	"E121": {
		Category: CategoryConfig,
		Message:  "Missing required configuration",
		Detail:   "A required configuration value is not set.",
		DocURL:   "https://relight.dev/docs/errors/E121",
	},
	"E122": {
		Category: CategoryConfig,
		Message:  "Invalid listen address",
		Detail:   "The configured listen address or port is invalid.",
		DocURL:   "https://relight.dev/docs/errors/E122",
	},
	"E123": {
		Category: CategoryConfig,
		Message:  "Unknown session store backend",
		Detail:   "The session store backend must be one of: memory, sql, redis, s3.",
		DocURL:   "https://relight.dev/docs/errors/E123",
	},

	// ============================================
	// CLI Errors (E140-E159)
	// ============================================

	"E140": {
		Category: CategoryCLI,
		Message:  "Not a relight project",
		Detail:   "The current directory has no relight.yaml. Run this command from a project root.",
		DocURL:   "https://relight.dev/docs/errors/E140",
	},
	"E141": {
		Category: CategoryCLI,
		Message:  "Server start failed",
		Detail:   "The server could not bind its listen address or failed during startup.",
		DocURL:   "https://relight.dev/docs/errors/E141",
	},
}

// GetTemplate returns the template for an error code.
func GetTemplate(code string) (ErrorTemplate, bool) {
	t, ok := registry[code]
	return t, ok
}
